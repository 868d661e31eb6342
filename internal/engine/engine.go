package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/accrava/textgate/internal/ignore"
	"github.com/accrava/textgate/internal/report"
	"github.com/accrava/textgate/internal/rules"
	"github.com/accrava/textgate/internal/types"
)

var (
	// ErrInvalidTarget means the root is missing or not a directory.
	ErrInvalidTarget = errors.New("invalid target")
	// ErrScanAborted means the scan could not complete: an I/O failure
	// while walking or reading, or the timeout fired. It is never a verdict.
	ErrScanAborted = errors.New("scan aborted")
)

const DefaultMaxBytes int64 = 1 << 20

type Config struct {
	Root     string
	Rules    rules.Set
	Excludes ignore.Matcher
	// MaxBytes skips files larger than this; <= 0 means DefaultMaxBytes.
	MaxBytes int64
	// Timeout bounds the whole scan; 0 disables it.
	Timeout time.Duration
	// Threads is the worker count; <= 0 means GOMAXPROCS.
	Threads int
}

type Stats struct {
	FilesEnumerated int
	FilesScanned    int
	FilesSkipped    int
	BytesScanned    int64
	Duration        time.Duration
}

type Result struct {
	Report types.Report
	Stats  Stats
}

// Scan walks cfg.Root and evaluates every rule against every text line. On
// error no partial report is returned.
func Scan(ctx context.Context, cfg Config) (Result, error) {
	start := time.Now()
	root, err := checkTarget(cfg.Root)
	if err != nil {
		return Result{}, err
	}
	cfg.Root = root
	if len(cfg.Rules) == 0 {
		log.Debug().Str("root", cfg.Root).Msg("empty rule set, nothing to scan")
		return Result{Report: report.Build(nil), Stats: Stats{Duration: time.Since(start)}}, nil
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	log.Debug().Str("root", cfg.Root).Int("rules", len(cfg.Rules)).Int("threads", threads).Msg("enumerating")
	files, excluded, err := Enumerate(ctx, cfg.Root, cfg.Excludes)
	if err != nil {
		return Result{}, err
	}

	log.Debug().Int("files", len(files)).Msg("scanning")
	perFile := make([][]types.Violation, len(files))
	outcomes := make([]outcome, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(threads)
	for i, rel := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return aborted(err)
			}
			vs, oc, err := scanFile(cfg, rel)
			if err != nil {
				return err
			}
			perFile[i], outcomes[i] = vs, oc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	// A deadline that fired after the last file was queued still aborts.
	if err := ctx.Err(); err != nil {
		return Result{}, aborted(err)
	}

	log.Debug().Msg("reporting")
	stats := Stats{FilesEnumerated: len(files) + excluded, FilesSkipped: excluded}
	var all []types.Violation
	for i, vs := range perFile {
		all = append(all, vs...)
		if outcomes[i].skipped != "" {
			stats.FilesSkipped++
			continue
		}
		stats.FilesScanned++
		stats.BytesScanned += outcomes[i].bytes
	}
	sortViolations(all, cfg.Rules)
	stats.Duration = time.Since(start)
	return Result{Report: report.Build(all), Stats: stats}, nil
}

// checkTarget validates root and returns it with symlinks resolved. WalkDir
// does not descend into a root that is itself a link.
func checkTarget(root string) (string, error) {
	if root == "" {
		return "", fmt.Errorf("%w: empty root path", ErrInvalidTarget)
	}
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidTarget, err)
	}
	st, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidTarget, err)
	}
	if !st.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrInvalidTarget, root)
	}
	return resolved, nil
}

func aborted(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: timeout exceeded", ErrScanAborted)
	}
	return fmt.Errorf("%w: %v", ErrScanAborted, err)
}

// sortViolations orders by path, then line, then rule position in the set.
func sortViolations(vs []types.Violation, set rules.Set) {
	order := make(map[string]int, len(set))
	for i, r := range set {
		order[r.ID()] = i
	}
	sort.SliceStable(vs, func(i, j int) bool {
		a, b := vs[i], vs[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return order[a.Rule] < order[b.Rule]
	})
}
