package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const workflowTemplate = `name: Text Gate
on:
  pull_request:
jobs:
  textgate:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4
      - uses: actions/setup-go@v5
        with:
          go-version: 'stable'
      - run: go install github.com/accrava/textgate/cmd/textgate@latest
      - run: textgate scan --rules %s --sarif-out textgate.sarif.json
      - uses: github/codeql-action/upload-sarif@v3
        if: always()
        with:
          sarif_file: textgate.sarif.json
`

func newActionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "action",
		Short: "GitHub Action helpers",
	}

	var (
		dir       string
		rulesFile string
		force     bool
	)
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a GitHub Actions workflow that runs the gate on pull requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			wf := filepath.Join(dir, ".github", "workflows")
			if err := os.MkdirAll(wf, 0o755); err != nil {
				return err
			}
			path := filepath.Join(wf, "textgate.yml")
			content := fmt.Sprintf(workflowTemplate, rulesFile)
			if err := writeNew(path, []byte(content), 0o644, force); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Wrote", path)
			return nil
		},
	}
	initCmd.Flags().StringVarP(&dir, "dir", "C", ".", "repository root")
	initCmd.Flags().StringVarP(&rulesFile, "rules", "r", defaultRulesFile, "rule set path used by the workflow")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing workflow")
	cmd.AddCommand(initCmd)
	return cmd
}
