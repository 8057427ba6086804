// Package theme switches the page theme and waits for the repaint to settle.
package theme

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

// Mode selects how Apply waits after switching the theme.
type Mode string

const (
	// ModePoll samples a computed-style signature until it stops changing.
	ModePoll Mode = "poll"
	// ModeFixed sleeps for a fixed delay.
	ModeFixed Mode = "fixed"
)

const (
	DefaultAttribute     = "data-theme"
	DefaultDelay         = 300 * time.Millisecond
	DefaultInterval      = 50 * time.Millisecond
	DefaultTimeout       = 2 * time.Second
	DefaultStableSamples = 2
)

// Evaluator runs a JavaScript function against the live page and returns its result as JSON.
type Evaluator interface {
	Eval(ctx context.Context, js string, args ...any) (string, error)
}

const setScript = `(attr, theme) => {
	document.documentElement.setAttribute(attr, theme);
	return document.documentElement.getAttribute(attr);
}`

// sampleScript resolves after two animation frames so the sample reflects a painted frame.
const sampleScript = `(attr) => new Promise((resolve) => {
	requestAnimationFrame(() => requestAnimationFrame(() => {
		const style = (el) => {
			if (!el) return '';
			const s = getComputedStyle(el);
			return [s.color, s.backgroundColor, s.backgroundImage, s.borderColor].join('|');
		};
		const root = document.documentElement;
		resolve({
			theme: root.getAttribute(attr),
			signature: [
				style(root),
				style(document.body),
				style(document.querySelector('a')),
				style(document.querySelector('footer')),
			].join(';'),
		});
	}));
})`

// ErrInvalidMode is returned by Apply for an unknown Mode.
var ErrInvalidMode = errors.New("invalid settle mode")

// Applier writes a theme identifier onto the document root.
// Zero or negative durations and counts select the defaults, so a zero
// fixed delay cannot be expressed; use 1ns for an effectively immediate check.
type Applier struct {
	Attribute     string        // root attribute (default: data-theme)
	Mode          Mode          // poll (default) or fixed
	Delay         time.Duration // fixed mode wait (default: 300ms)
	Interval      time.Duration // poll mode sampling interval (default: 50ms)
	Timeout       time.Duration // poll mode wall-clock ceiling, samples included (default: 2s)
	StableSamples int           // identical consecutive samples required (default: 2)

	// Injected for testing.
	Sleep func(ctx context.Context, d time.Duration) error
	Now   func() time.Time
}

// Outcome describes how the settle wait ended.
type Outcome struct {
	Samples int
	Stable  bool // false when polling hit Timeout before the style settled
	Elapsed time.Duration // wall time spent waiting, samples included
}

// Apply sets the theme and waits for the repaint. A poll that never settles
// is not an error: the wait ends at Timeout and Outcome.Stable is false.
func (a *Applier) Apply(ctx context.Context, ev Evaluator, theme string) (Outcome, error) {
	attr := a.Attribute
	if attr == "" {
		attr = DefaultAttribute
	}
	sleep := a.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	raw, err := ev.Eval(ctx, setScript, attr, theme)
	if err != nil {
		return Outcome{}, fmt.Errorf("set %s=%q: %w", attr, theme, err)
	}
	if got := gjson.Parse(raw).String(); got != theme {
		return Outcome{}, fmt.Errorf("set %s=%q: attribute reads back %q", attr, theme, got)
	}

	switch a.Mode {
	case ModeFixed:
		delay := a.Delay
		if delay <= 0 {
			delay = DefaultDelay
		}
		if err := sleep(ctx, delay); err != nil {
			return Outcome{}, err
		}
		return Outcome{Stable: true, Elapsed: delay}, nil
	case ModePoll, "":
		return a.poll(ctx, ev, attr, theme, sleep)
	default:
		return Outcome{}, fmt.Errorf("%w: %q", ErrInvalidMode, a.Mode)
	}
}

func (a *Applier) poll(ctx context.Context, ev Evaluator, attr, theme string, sleep func(context.Context, time.Duration) error) (Outcome, error) {
	interval := a.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	need := a.StableSamples
	if need <= 0 {
		need = DefaultStableSamples
	}
	now := a.Now
	if now == nil {
		now = time.Now
	}

	start := now()
	deadline := start.Add(timeout)
	// A sample still pending at the deadline is abandoned.
	sampleCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		out     Outcome
		last    string
		matches int
	)
	for {
		raw, err := ev.Eval(sampleCtx, sampleScript, attr)
		if err != nil {
			if ctx.Err() == nil && sampleCtx.Err() != nil {
				out.Elapsed = now().Sub(start)
				return out, nil
			}
			return out, fmt.Errorf("sample style: %w", err)
		}
		out.Samples++
		sample := gjson.Parse(raw)
		sig := sample.Get("signature").String()

		switch {
		case sample.Get("theme").String() != theme:
			matches = 0
		case out.Samples > 1 && sig == last:
			matches++
		default:
			matches = 1
		}
		last = sig

		if matches >= need {
			out.Stable = true
			out.Elapsed = now().Sub(start)
			return out, nil
		}
		if now().Add(interval).After(deadline) {
			out.Elapsed = now().Sub(start)
			return out, nil
		}
		if err := sleep(ctx, interval); err != nil {
			out.Elapsed = now().Sub(start)
			return out, err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
