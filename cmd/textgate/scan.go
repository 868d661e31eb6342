package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/accrava/textgate/internal/audit"
	"github.com/accrava/textgate/internal/config"
	"github.com/accrava/textgate/internal/engine"
	"github.com/accrava/textgate/internal/ignore"
	"github.com/accrava/textgate/internal/logging"
	"github.com/accrava/textgate/internal/report"
	"github.com/accrava/textgate/internal/rules"
	"github.com/accrava/textgate/internal/types"
)

type scanOptions struct {
	path              string
	rulesFile         string
	literal           []string
	regex             []string
	exclude           []string
	noDefaultExcludes bool
	maxBytes          string
	timeout           string
	threads           int
	format            string
	jsonOut           string
	sarifOut          string
	auditLog          string
}

func newScanCmd() *cobra.Command {
	o := &scanOptions{}
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a tree for forbidden text",
		Example: `  textgate scan --rule no-fixme=FIXME
  textgate scan -p . -r textgate.rules.yaml --sarif-out textgate.sarif.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScan(cmd, o)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.path, "path", "p", ".", "root directory to scan")
	f.StringVarP(&o.rulesFile, "rules", "r", "", "rule set file (YAML or JSON)")
	f.StringArrayVar(&o.literal, "rule", nil, "inline literal rule id=pattern (repeatable)")
	f.StringArrayVar(&o.regex, "regex-rule", nil, "inline regex rule id=pattern (repeatable)")
	f.StringArrayVarP(&o.exclude, "exclude", "e", nil, "exclude globs, doublestar syntax (repeatable or comma-separated; commas inside {} stay)")
	f.BoolVar(&o.noDefaultExcludes, "no-default-excludes", false, "do not skip VCS dirs, node_modules and binary extensions")
	f.StringVar(&o.maxBytes, "max-bytes", "1MiB", "skip files larger than this")
	f.StringVar(&o.timeout, "timeout", "5m", "abort the whole scan after this long (0 = no limit)")
	f.IntVar(&o.threads, "threads", 0, "worker count (0 = GOMAXPROCS)")
	f.StringVar(&o.format, "format", "text", "stdout format (text|json)")
	f.StringVar(&o.jsonOut, "json-out", "", "also write the JSON report to this file")
	f.StringVar(&o.sarifOut, "sarif-out", "", "also write a SARIF 2.1.0 report to this file")
	f.StringVar(&o.auditLog, "audit-log", "", "append a JSONL record of the scan to this file")
	return cmd
}

func runScan(cmd *cobra.Command, o *scanOptions) error {
	abs, err := filepath.Abs(o.path)
	if err != nil {
		return fmt.Errorf("%w: %v", engine.ErrInvalidTarget, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	local, global, err := config.Load(abs)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if !flags.Changed("log-level") && !flagVerbose {
		if lvl := config.PickString(false, "", local.LogLevel, global.LogLevel); lvl != "" {
			if err := logging.Setup(cmd.ErrOrStderr(), lvl, false); err != nil {
				return fmt.Errorf("%w: %v", config.ErrInvalid, err)
			}
		}
	}
	if p := local.Path(); p != "" {
		log.Debug().Str("path", p).Msg("local config loaded")
	}

	rulesFile := o.rulesFile
	if !flags.Changed("rules") {
		rulesFile = pickPath(local, global, func(c config.FileConfig) *string { return c.Rules })
	}
	if rulesFile == "" && len(o.literal) == 0 && len(o.regex) == 0 {
		if p := filepath.Join(abs, defaultRulesFile); fileExists(p) {
			rulesFile = p
		}
	}
	set, err := rules.Load(rulesFile, o.literal, o.regex)
	if err != nil {
		return err
	}
	if len(set) == 0 {
		log.Warn().Msg("empty rule set, the gate passes trivially")
	}

	useDefaults := config.PickBool(flags.Changed("no-default-excludes"), !o.noDefaultExcludes, local.DefaultExcludes, global.DefaultExcludes)
	globs := config.PickList(flags.Changed("exclude"), ignore.SplitList(o.exclude), local.Exclude, global.Exclude)
	if useDefaults {
		globs = append(append([]string{}, ignore.DefaultExcludes...), globs...)
	}
	ex, err := ignore.New(globs)
	if err != nil {
		return err
	}
	if err := ex.LoadFile(filepath.Join(abs, ignore.FileName)); err != nil {
		return fmt.Errorf("%w: %s: %v", config.ErrInvalid, ignore.FileName, err)
	}

	jsonOut, sarifOut := o.jsonOut, o.sarifOut
	if !flags.Changed("json-out") {
		jsonOut = pickPath(local, global, func(c config.FileConfig) *string { return c.JSONOut })
	}
	if !flags.Changed("sarif-out") {
		sarifOut = pickPath(local, global, func(c config.FileConfig) *string { return c.SARIFOut })
	}
	auditLog := o.auditLog
	if !flags.Changed("audit-log") {
		auditLog = pickPath(local, global, func(c config.FileConfig) *string { return c.AuditLog })
	}
	// The gate's own inputs and outputs are never scanned.
	for _, p := range []string{rulesFile, local.Path(), jsonOut, sarifOut, auditLog} {
		if rel, ok := within(abs, p); ok {
			ex.AddPath(rel)
		}
	}

	maxBytes, err := config.ParseSize(config.PickString(flags.Changed("max-bytes"), o.maxBytes, local.MaxBytes, global.MaxBytes))
	if err != nil {
		return err
	}
	timeout, err := config.ParseTimeout(config.PickString(flags.Changed("timeout"), o.timeout, local.Timeout, global.Timeout))
	if err != nil {
		return err
	}
	threads := config.PickInt(flags.Changed("threads"), o.threads, local.Threads, global.Threads)
	if o.format != "text" && o.format != "json" {
		return fmt.Errorf("%w: --format %q (want text or json)", config.ErrInvalid, o.format)
	}

	cfg := engine.Config{
		Root:     abs,
		Rules:    set,
		Excludes: ex,
		MaxBytes: maxBytes,
		Timeout:  timeout,
		Threads:  threads,
	}
	log.Info().Str("root", abs).Int("rules", len(set)).Int("excludes", ex.Len()).Msg("Scanning")
	res, err := engine.Scan(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	if err := writeReports(cmd.OutOrStdout(), o.format, jsonOut, sarifOut, res, set); err != nil {
		return err
	}
	if auditLog != "" {
		rec := audit.CreateScanRecord(abs, res.Report, res.Stats.FilesScanned, res.Stats.FilesSkipped, res.Stats.Duration)
		if err := audit.NewAuditLog(auditLog).LogScan(rec); err != nil {
			return fmt.Errorf("%w: %v", errOutput, err)
		}
	}

	log.Info().
		Str("verdict", string(res.Report.Verdict)).
		Int("violations", len(res.Report.Violations)).
		Int("filesScanned", res.Stats.FilesScanned).
		Int("filesSkipped", res.Stats.FilesSkipped).
		Str("bytes", units.HumanSize(float64(res.Stats.BytesScanned))).
		Str("duration", res.Stats.Duration.Round(time.Millisecond).String()).
		Msg("Scan done")

	if res.Report.Verdict == types.VerdictFail {
		return errGateFailed
	}
	return nil
}

// writeReports renders every requested report into memory first so that a
// failing encoder leaves no half-written output behind.
func writeReports(stdout io.Writer, format, jsonOut, sarifOut string, res engine.Result, set rules.Set) error {
	var jsonBuf, sarifBuf, outBuf bytes.Buffer
	if err := report.WriteJSON(&jsonBuf, res.Report); err != nil {
		return fmt.Errorf("%w: json: %v", errOutput, err)
	}
	if sarifOut != "" {
		opts := report.SARIFOptions{
			ToolVersion:  version,
			FilesScanned: res.Stats.FilesScanned,
			FilesSkipped: res.Stats.FilesSkipped,
		}
		if err := report.WriteSARIF(&sarifBuf, res.Report, set, opts); err != nil {
			return fmt.Errorf("%w: sarif: %v", errOutput, err)
		}
	}
	if format == "json" {
		outBuf.Write(jsonBuf.Bytes())
	} else if err := report.PrintText(&outBuf, res.Report); err != nil {
		return fmt.Errorf("%w: text: %v", errOutput, err)
	}

	if jsonOut != "" {
		if err := os.WriteFile(jsonOut, jsonBuf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("%w: %v", errOutput, err)
		}
	}
	if sarifOut != "" {
		if err := os.WriteFile(sarifOut, sarifBuf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("%w: %v", errOutput, err)
		}
	}
	if _, err := stdout.Write(outBuf.Bytes()); err != nil {
		return fmt.Errorf("%w: %v", errOutput, err)
	}
	return nil
}

// pickPath returns a path from the local or global config layer, resolved
// against the directory of the file that set it.
func pickPath(local, global config.FileConfig, get func(config.FileConfig) *string) string {
	for _, c := range []config.FileConfig{local, global} {
		if v := get(c); v != nil && *v != "" {
			if filepath.IsAbs(*v) || c.Path() == "" {
				return *v
			}
			return filepath.Join(filepath.Dir(c.Path()), *v)
		}
	}
	return ""
}

// within reports p relative to root when p lies inside it.
func within(root, p string) (string, bool) {
	if p == "" {
		return "", false
	}
	ap, err := filepath.Abs(p)
	if err != nil {
		return "", false
	}
	if resolved, err := filepath.EvalSymlinks(ap); err == nil {
		ap = resolved
	} else if dir, err := filepath.EvalSymlinks(filepath.Dir(ap)); err == nil {
		// Report files may not exist yet.
		ap = filepath.Join(dir, filepath.Base(ap))
	}
	rel, err := filepath.Rel(root, ap)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && st.Mode().IsRegular()
}
