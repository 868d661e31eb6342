package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/accrava/textgate/internal/rules"
)

const defaultRulesFile = "textgate.rules.yaml"

const starterRules = `# textgate rule set. Every match blocks the merge.
rules:
  - id: no-fixme
    pattern: FIXME
    description: unresolved FIXME marker
  - id: no-conflict-markers
    pattern: '^(<{7}|>{7}|={7})( |$)'
    type: regex
    description: leftover merge conflict marker
`

func newRulesCmd() *cobra.Command {
	var (
		file    string
		literal []string
		regex   []string
	)
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Validate and list a rule set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			set, err := rules.Load(file, literal, regex)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, r := range set {
				fmt.Fprintf(out, "%-24s %-8s %s\n", r.ID(), r.Kind(), r.Pattern())
			}
			fmt.Fprintf(out, "%d rule(s) OK\n", len(set))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "rules", "r", "", "rule set file (YAML or JSON)")
	cmd.Flags().StringArrayVar(&literal, "rule", nil, "inline literal rule id=pattern (repeatable)")
	cmd.Flags().StringArrayVar(&regex, "regex-rule", nil, "inline regex rule id=pattern (repeatable)")

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [file]",
		Short: "Write a starter rule set",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultRulesFile
			if len(args) == 1 {
				path = args[0]
			}
			if err := writeNew(path, []byte(starterRules), 0o644, force); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Wrote", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.AddCommand(initCmd)
	return cmd
}

// writeNew writes a file, refusing to clobber an existing one unless force.
func writeNew(path string, data []byte, perm os.FileMode, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return os.WriteFile(path, data, perm)
}
