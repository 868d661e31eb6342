package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/accrava/textgate/internal/types"
)

const topN = 10

// ScanRecord is one line of the audit log. It never holds matched text.
type ScanRecord struct {
	Timestamp     time.Time          `json:"timestamp"`
	ScanID        string             `json:"scan_id"`
	Root          string             `json:"root"`
	Verdict       types.Verdict      `json:"verdict"`
	Violations    int                `json:"violations"`
	RuleCounts    map[string]int     `json:"rule_counts,omitempty"`
	FilesScanned  int                `json:"files_scanned"`
	FilesSkipped  int                `json:"files_skipped"`
	Duration      string             `json:"duration"`
	TopViolations []ViolationSummary `json:"top_violations,omitempty"`
}

type ViolationSummary struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Rule string `json:"rule"`
}

// AuditLog appends scan records to a JSONL file.
type AuditLog struct {
	logPath string
}

func NewAuditLog(path string) *AuditLog {
	return &AuditLog{logPath: path}
}

func (a *AuditLog) Path() string { return a.logPath }

// LoadHistory returns up to limit records, newest first; limit <= 0 returns
// all of them. Lines that do not decode are counted and skipped.
func (a *AuditLog) LoadHistory(limit int) ([]ScanRecord, error) {
	data, err := os.ReadFile(a.logPath)
	if err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	lines := bytes.Split(bytes.TrimRight(data, "\n"), []byte("\n"))

	var (
		out []ScanRecord
		bad int
	)
	for i := len(lines) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		line := bytes.TrimSpace(lines[i])
		if len(line) == 0 {
			continue
		}
		var rec ScanRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			bad++
			continue
		}
		out = append(out, rec)
	}
	if bad > 0 {
		log.Debug().Str("path", a.logPath).Int("lines", bad).Msg("skipped undecodable audit records")
	}
	return out, nil
}

func (a *AuditLog) LogScan(record ScanRecord) error {
	if record.ScanID == "" {
		record.ScanID = uuid.NewString()
	}

	f, err := os.OpenFile(a.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(record); err != nil {
		return fmt.Errorf("failed to write audit record: %w", err)
	}
	return nil
}

// CreateScanRecord summarizes a finished scan.
func CreateScanRecord(root string, r types.Report, filesScanned, filesSkipped int, duration time.Duration) ScanRecord {
	counts := make(map[string]int)
	for _, v := range r.Violations {
		counts[v.Rule]++
	}

	top := make([]ViolationSummary, 0, topN)
	for i, v := range r.Violations {
		if i >= topN {
			break
		}
		top = append(top, ViolationSummary{Path: v.Path, Line: v.Line, Rule: v.Rule})
	}

	return ScanRecord{
		Timestamp:     time.Now().UTC(),
		Root:          root,
		Verdict:       r.Verdict,
		Violations:    len(r.Violations),
		RuleCounts:    counts,
		FilesScanned:  filesScanned,
		FilesSkipped:  filesSkipped,
		Duration:      duration.String(),
		TopViolations: top,
	}
}
