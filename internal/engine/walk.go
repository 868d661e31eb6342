package engine

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/accrava/textgate/internal/ignore"
	"github.com/accrava/textgate/internal/types"
)

// sniffLen is how much of a file is checked for NUL bytes.
const sniffLen = 8000

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type outcome struct {
	skipped string
	bytes   int64
}

// Enumerate lists regular files under root as sorted, slash-separated
// relative paths. Excluded directories are pruned and excluded files are
// only counted. Symlinks and other irregular files are not followed.
func Enumerate(ctx context.Context, root string, ex ignore.Matcher) (files []string, excluded int, err error) {
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p == root {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if ex.Match(rel, true) {
				log.Debug().Str("path", rel).Msg("skip dir: excluded")
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if ex.Match(rel, false) {
			log.Debug().Str("path", rel).Msg("skip: excluded")
			excluded++
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, 0, aborted(err)
	}
	sort.Strings(files)
	return files, excluded, nil
}

// scanFile returns the violations of one file. A file that is oversize,
// binary or not valid UTF-8 is skipped with a reason; only I/O errors fail.
func scanFile(cfg Config, rel string) ([]types.Violation, outcome, error) {
	data, oc, err := readText(filepath.Join(cfg.Root, filepath.FromSlash(rel)), cfg.MaxBytes)
	if err != nil {
		return nil, oc, aborted(fmt.Errorf("read %s: %w", rel, err))
	}
	if oc.skipped != "" {
		log.Debug().Str("path", rel).Str("reason", oc.skipped).Msg("skip")
		return nil, oc, nil
	}

	var out []types.Violation
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSuffix(sc.Text(), "\r")
		for _, r := range cfg.Rules {
			col, m, ok := r.Find(raw)
			if !ok {
				continue
			}
			out = append(out, types.Violation{
				Path: rel, Line: line, Column: col, Rule: r.ID(), Match: m,
				Text: strings.TrimRight(raw, " \t"),
			})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, oc, aborted(fmt.Errorf("read %s: %w", rel, err))
	}
	return out, oc, nil
}

func readText(p string, maxBytes int64) ([]byte, outcome, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, outcome{}, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, outcome{}, err
	}
	if st.Size() > maxBytes {
		return nil, outcome{skipped: "oversize"}, nil
	}
	// Bounded read so a file growing under us is never read past the limit.
	b, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, outcome{}, err
	}
	if int64(len(b)) > maxBytes {
		return nil, outcome{skipped: "oversize"}, nil
	}
	if looksBinary(b) {
		return nil, outcome{skipped: "binary"}, nil
	}
	b = bytes.TrimPrefix(b, utf8BOM)
	if !utf8.Valid(b) {
		return nil, outcome{skipped: "not utf-8"}, nil
	}
	return b, outcome{bytes: int64(len(b))}, nil
}

func looksBinary(b []byte) bool {
	n := sniffLen
	if len(b) < n {
		n = len(b)
	}
	return bytes.IndexByte(b[:n], 0) >= 0
}
