package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, _ []string) {
			rev := ""
			ts := ""
			if info, ok := debug.ReadBuildInfo(); ok {
				for _, s := range info.Settings {
					if s.Key == "vcs.revision" {
						rev = s.Value
					}
					if s.Key == "vcs.time" {
						ts = s.Value
					}
				}
			}
			if rev != "" || ts != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (commit %s, built %s)\n", version, short(rev), ts)
				return
			}
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func short(s string) string {
	if len(s) > 7 {
		return s[:7]
	}
	return s
}
