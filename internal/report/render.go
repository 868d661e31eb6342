package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/accrava/textgate/internal/types"
)

// PrintText writes one "<path>:<line>: [<rule>] <text>" line per violation
// and a closing summary.
func PrintText(w io.Writer, r types.Report) error {
	for _, v := range r.Violations {
		if _, err := fmt.Fprintf(w, "%s:%d: [%s] %s\n", v.Path, v.Line, v.Rule, v.Text); err != nil {
			return err
		}
	}
	var err error
	if r.Verdict == types.VerdictPass {
		_, err = fmt.Fprintln(w, "PASS: no violations")
	} else {
		_, err = fmt.Fprintf(w, "FAIL: %d violation(s)\n", len(r.Violations))
	}
	return err
}

func WriteJSON(w io.Writer, r types.Report) error {
	// "violations" is always an array, never null.
	if r.Violations == nil {
		r.Violations = []types.Violation{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
