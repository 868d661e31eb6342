package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/accrava/textgate/internal/report"
	"github.com/accrava/textgate/internal/types"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Report utilities",
	}

	view := &cobra.Command{
		Use:   "view <file>",
		Short: "Render a JSON report as text; exits like the scan that produced it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			var r types.Report
			if err := json.NewDecoder(f).Decode(&r); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			switch r.Verdict {
			case types.VerdictPass, types.VerdictFail:
			default:
				return fmt.Errorf("%s: unknown verdict %q", args[0], r.Verdict)
			}
			if err := report.PrintText(cmd.OutOrStdout(), r); err != nil {
				return fmt.Errorf("%w: %v", errOutput, err)
			}
			if r.Verdict == types.VerdictFail {
				return errGateFailed
			}
			return nil
		},
	}
	cmd.AddCommand(view)
	return cmd
}
