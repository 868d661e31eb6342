package report

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/accrava/textgate/internal/types"
)

// Fingerprint is a stable key for a violation. It leaves out the line number
// so a violation keeps its identity when lines above it move.
func Fingerprint(v types.Violation) string {
	sum := sha256.Sum256([]byte(v.Path + "|" + v.Rule + "|" + v.Text))
	return hex.EncodeToString(sum[:])
}

// Verdict is fail iff there is at least one violation.
func Verdict(vs []types.Violation) types.Verdict {
	if len(vs) > 0 {
		return types.VerdictFail
	}
	return types.VerdictPass
}

// Build assembles a report from already-ordered violations.
func Build(vs []types.Violation) types.Report {
	out := make([]types.Violation, len(vs))
	for i, v := range vs {
		v.Fingerprint = Fingerprint(v)
		out[i] = v
	}
	return types.Report{Verdict: Verdict(out), Violations: out}
}
