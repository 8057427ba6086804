package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vertti/visualcheck/pkg/browser"
	"github.com/vertti/visualcheck/pkg/httpcheck"
	"github.com/vertti/visualcheck/pkg/logging"
	"github.com/vertti/visualcheck/pkg/output"
	"github.com/vertti/visualcheck/pkg/report"
	"github.com/vertti/visualcheck/pkg/runner"
)

var showProgress bool

// launchEngine is replaced in tests.
var launchEngine = func(ctx context.Context, opts browser.Options) (browser.Engine, error) {
	return browser.Launch(ctx, opts)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Visit every page, viewport and theme and check the layout",
	Args:  cobra.NoArgs,
	RunE:  runRun,
}

func init() {
	runCmd.Flags().BoolVar(&showProgress, "progress", false, "draw a progress bar on stderr")
	rootCmd.Flags().BoolVar(&showProgress, "progress", false, "draw a progress bar on stderr")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, closeLog, err := logging.NewLogger(logging.Options{
		Dir:     cfg.Log.Dir,
		Level:   cfg.Log.Level,
		Console: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	log = log.With(zap.String("run_id", uuid.NewString()))
	defer func() { _ = closeLog() }()

	ctx := cmd.Context()
	if cfg.CheckReachable {
		site := &httpcheck.Check{URL: cfg.BaseURL}
		res := site.Run(ctx)
		if err := httpcheck.Err(res); err != nil {
			return err
		}
		log.Debug("site reachable", zap.Strings("details", res.Details))
	}

	engine, err := launchEngine(ctx, browser.Options{
		BrowserPath:       cfg.BrowserPath,
		Headless:          cfg.Headless,
		NavigationTimeout: cfg.NavigationTimeout,
		NetworkIdle:       cfg.NetworkIdle,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := engine.Close(); err != nil {
			log.Warn("close browser", zap.Error(err))
		}
	}()

	out := cmd.OutOrStdout()
	m := cfg.Matrix()
	r := &runner.Runner{
		Engine:    engine,
		Checker:   cfg.Checker(),
		Theme:     cfg.ThemeApplier(),
		Matrix:    m,
		BaseURL:   cfg.BaseURL,
		OutputDir: cfg.OutputDir,
		Logger:    log,
		OnResult:  func(res report.RunResult) { output.PrintRunResult(out, res) },
	}
	if showProgress {
		bar := progressbar.NewOptions(len(m.Combinations()),
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionSetWidth(18),
			progressbar.OptionSetDescription("checking"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		defer func() { _ = bar.Finish() }()
		r.Progress = bar
	}

	log.Info("run started", zap.String("base_url", cfg.BaseURL), zap.Int("combinations", len(m.Combinations())))
	results, err := r.Run(ctx)
	if err != nil && !errors.Is(err, runner.ErrChecksFailed) {
		return err
	}

	if werr := report.Write(cfg.ReportPath(), results); werr != nil {
		return fmt.Errorf("write report: %w", werr)
	}
	output.PrintSummary(out, report.Summarize(results))
	output.PrintLocations(out, cfg.ReportPath(), cfg.OutputDir)
	return err
}
