package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/accrava/textgate/internal/engine"
	"github.com/accrava/textgate/internal/logging"
)

// Exit codes. A blocked merge (1) must never look like a broken check (2, 3).
const (
	exitPass    = 0
	exitFail    = 1
	exitAborted = 2
	exitConfig  = 3
)

// errGateFailed is returned by commands whose verdict is fail. The report has
// already been written when it is returned.
var errGateFailed = errors.New("gate failed")

// errOutput marks a failure to write a report after a completed scan.
var errOutput = errors.New("write report")

var version = "dev"

var (
	flagLogLevel string
	flagVerbose  bool
)

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "textgate",
		Short:         "Pre-merge gate that fails when forbidden text is found",
		Long:          "textgate walks a checked-out tree, matches every text line against a rule set of forbidden patterns and fails the check on any match.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return logging.Setup(cmd.ErrOrStderr(), flagLogLevel, flagVerbose)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (trace|debug|info|warn|error)")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newScanCmd(),
		newRulesCmd(),
		newReportCmd(),
		newVersionCmd(),
		newActionCmd(),
		newHookCmd(),
		newAuditCmd(),
	)
	return root
}

// exitCode maps a command error onto the process exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitPass
	case errors.Is(err, errGateFailed):
		return exitFail
	case errors.Is(err, engine.ErrScanAborted), errors.Is(err, errOutput):
		return exitAborted
	default:
		return exitConfig
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	_ = logging.Setup(stderr, "info", false)
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	code := exitCode(err)
	switch code {
	case exitPass, exitFail:
	case exitAborted:
		log.Error().Err(err).Msg("check inconclusive")
	default:
		log.Error().Err(err).Msg("configuration error")
	}
	return code
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
