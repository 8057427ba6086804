package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vertti/visualcheck/pkg/report"
	"github.com/vertti/visualcheck/pkg/runner"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(err, os.Stderr))
}

// exitCode maps a command error to the process exit status.
func exitCode(err error, stderr io.Writer) int {
	switch {
	case err == nil:
		return report.ExitPassed
	case errors.Is(err, runner.ErrChecksFailed):
		return report.ExitFailed
	default:
		fmt.Fprintf(stderr, "fatal: %v\n", err)
		return report.ExitFault
	}
}

var rootCmd = &cobra.Command{
	Use:   "visualcheck",
	Short: "Visual and layout regression checks for a static site",
	Long: "Visualcheck loads each page of a site at several viewport sizes and themes, " +
		"captures full-page screenshots and runs DOM layout assertions against them.",
	Version:       Version,
	Args:          cobra.NoArgs,
	RunE:          runRun,
	SilenceUsage:  true,
	SilenceErrors: true,
}
