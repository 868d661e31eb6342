package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/accrava/textgate/internal/audit"
)

func newAuditCmd() *cobra.Command {
	var (
		file  string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show recorded scans from an audit log, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := audit.NewAuditLog(file).LoadHistory(limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, r := range records {
				fmt.Fprintf(out, "%s  %-4s  %3d violation(s)  %5d file(s)  %s  %s\n",
					r.Timestamp.Format("2006-01-02T15:04:05Z07:00"), r.Verdict, r.Violations, r.FilesScanned, r.Duration, r.Root)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "audit-log", "f", ".textgate_audit.jsonl", "audit log file")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "show at most this many records (0 = all)")
	return cmd
}
