package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/accrava/textgate/internal/gitexec"
)

func newHookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Manage git hooks",
	}

	var dir string
	installPreCommit := func(cmd *cobra.Command) error {
		hookDir, err := gitexec.HooksDir(dir)
		if err != nil {
			return fmt.Errorf("%s: %w", dir, err)
		}
		if err := os.MkdirAll(hookDir, 0o755); err != nil {
			return err
		}
		hookPath := filepath.Join(hookDir, "pre-commit")
		content := "#!/bin/sh\n\nexec textgate scan\n"
		if err := os.WriteFile(hookPath, []byte(content), 0o755); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Installed pre-commit hook ->", hookPath)
		return nil
	}

	install := &cobra.Command{
		Use:   "install",
		Short: "Install git hooks",
		Args:  cobra.NoArgs,
	}
	install.PersistentFlags().StringVarP(&dir, "dir", "C", ".", "repository root")
	// Allow calling as: textgate hook install --pre-commit
	install.Flags().Bool("pre-commit", false, "install pre-commit hook")
	install.RunE = func(cmd *cobra.Command, _ []string) error {
		if ok, _ := cmd.Flags().GetBool("pre-commit"); ok {
			return installPreCommit(cmd)
		}
		return fmt.Errorf("specify --pre-commit")
	}
	cmd.AddCommand(install)

	// and as: textgate hook install pre-commit
	install.AddCommand(&cobra.Command{
		Use:   "pre-commit",
		Short: "Install pre-commit hook running a full scan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return installPreCommit(cmd)
		},
	})
	return cmd
}
