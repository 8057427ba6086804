// Package runner walks the matrix through a browser engine and collects results.
package runner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/vertti/visualcheck/pkg/browser"
	"github.com/vertti/visualcheck/pkg/check"
	"github.com/vertti/visualcheck/pkg/layoutcheck"
	"github.com/vertti/visualcheck/pkg/matrix"
	"github.com/vertti/visualcheck/pkg/report"
	"github.com/vertti/visualcheck/pkg/theme"
)

// ErrChecksFailed is returned when the run completed but some combination failed.
var ErrChecksFailed = errors.New("visual checks failed")

// Checker runs the layout battery on a loaded page.
type Checker interface {
	Run(ctx context.Context, ev layoutcheck.Evaluator, vp matrix.Viewport) (check.Set, error)
}

// ThemeApplier switches a loaded page to a theme.
type ThemeApplier interface {
	Apply(ctx context.Context, ev theme.Evaluator, name string) (theme.Outcome, error)
}

// Progress is advanced once per combination.
type Progress interface {
	Add(n int) error
}

// Runner visits every combination sequentially.
type Runner struct {
	Engine    browser.Engine
	Checker   Checker
	Theme     ThemeApplier
	Matrix    matrix.Matrix
	BaseURL   string
	OutputDir string

	Logger   *zap.Logger            // nil: no logging
	Progress Progress               // optional
	OnResult func(report.RunResult) // called as each result is recorded
}

// Run visits the matrix and returns the results in visit order. A nil error
// means every combination passed; ErrChecksFailed means the run finished with
// failures. Any other error is a fault that aborted the run, returned along
// with the results gathered so far.
func (r *Runner) Run(ctx context.Context) ([]report.RunResult, error) {
	if err := r.Matrix.Validate(); err != nil {
		return nil, fmt.Errorf("invalid matrix: %w", err)
	}

	log := r.logger()
	var results []report.RunResult
	for _, g := range r.Matrix.Groups() {
		var err error
		results, err = r.runGroup(ctx, g, results)
		if err != nil {
			return results, err
		}
	}

	s := report.Summarize(results)
	log.Info("run finished", zap.Int("total", s.Total), zap.Int("passed", s.Passed))
	if !s.OK() {
		return results, ErrChecksFailed
	}
	return results, nil
}

func (r *Runner) runGroup(ctx context.Context, g matrix.Group, results []report.RunResult) (_ []report.RunResult, err error) {
	log := r.logger().With(zap.String("viewport", g.Viewport.Name))

	bctx, err := r.Engine.NewContext(ctx, g.Viewport)
	if err != nil {
		return results, fmt.Errorf("browser context for %s: %w", g.Viewport, err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(bctx))

	log.Debug("context opened", zap.Int("width", g.Viewport.Width), zap.Int("height", g.Viewport.Height))

	for _, c := range g.Combinations {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		res := r.visit(ctx, bctx, c, log.With(zap.String("label", c.Label())))
		if ctx.Err() != nil && res.Error != "" {
			return results, ctx.Err()
		}
		results = append(results, res)

		if r.OnResult != nil {
			r.OnResult(res)
		}
		if r.Progress != nil {
			_ = r.Progress.Add(1)
		}
	}
	return results, nil
}

func (r *Runner) visit(ctx context.Context, bctx browser.Context, c matrix.Combination, log *zap.Logger) report.RunResult {
	start := time.Now()
	checks, err := r.inspect(ctx, bctx, c, log)
	if err != nil {
		log.Error("combination failed", zap.Error(err))
		return report.NewErrorResult(c, err)
	}

	for _, chk := range checks {
		log.Debug("check", zap.String("name", chk.Name), zap.Bool("ok", chk.OK()), zap.Strings("details", chk.Details))
	}
	res := report.NewRunResult(c, checks)
	log.Info("combination checked", zap.Bool("passed", res.Passed), zap.Duration("elapsed", time.Since(start)))
	return res
}

func (r *Runner) inspect(ctx context.Context, bctx browser.Context, c matrix.Combination, log *zap.Logger) (check.Set, error) {
	page, err := bctx.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.Warn("close page", zap.Error(err))
		}
	}()

	url := c.Page.URL(r.BaseURL)
	if err := page.Navigate(ctx, url); err != nil {
		return nil, fmt.Errorf("navigate: %w", err)
	}

	outcome, err := r.Theme.Apply(ctx, page, string(c.Theme))
	if err != nil {
		return nil, fmt.Errorf("apply theme %s: %w", c.Theme, err)
	}
	if !outcome.Stable {
		log.Warn("theme did not settle", zap.String("theme", string(c.Theme)),
			zap.Int("samples", outcome.Samples), zap.Duration("elapsed", outcome.Elapsed))
	}

	if err := page.Screenshot(ctx, filepath.Join(r.OutputDir, c.Filename())); err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}

	checks, err := r.Checker.Run(ctx, page, c.Viewport)
	if err != nil {
		return nil, fmt.Errorf("checks: %w", err)
	}
	return checks, nil
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}
