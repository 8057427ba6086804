package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/multierr"

	"github.com/vertti/visualcheck/pkg/matrix"
)

// Chrome is an Engine backed by a launched Chromium process.
type Chrome struct {
	opts     Options
	launcher *launcher.Launcher
	browser  *rod.Browser
}

var _ Engine = (*Chrome)(nil)

// Launch starts a browser and connects to it.
func Launch(ctx context.Context, opts Options) (*Chrome, error) {
	l := launcher.New().Headless(opts.Headless)
	if opts.BrowserPath != "" {
		l = l.Bin(opts.BrowserPath)
	}

	controlURL, err := l.Context(ctx).Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	return &Chrome{opts: opts, launcher: l, browser: b}, nil
}

// NewContext implements Engine.
func (c *Chrome) NewContext(_ context.Context, vp matrix.Viewport) (Context, error) {
	incognito, err := c.browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("incognito context: %w", err)
	}
	return &chromeContext{opts: c.opts, browser: incognito, viewport: vp}, nil
}

// Close shuts the browser down and removes the launcher's profile dir.
func (c *Chrome) Close() error {
	err := c.browser.Close()
	c.launcher.Cleanup()
	return err
}

type chromeContext struct {
	opts     Options
	browser  *rod.Browser
	viewport matrix.Viewport
}

func (c *chromeContext) NewPage(ctx context.Context) (Page, error) {
	p, err := c.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}

	err = proto.EmulationSetDeviceMetricsOverride{
		Width:             c.viewport.Width,
		Height:            c.viewport.Height,
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	}.Call(p)
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("set viewport %s: %w", c.viewport, err), p.Close())
	}

	return &chromePage{opts: c.opts, page: p}, nil
}

// Close disposes the incognito context and every page opened in it.
func (c *chromeContext) Close() error {
	return c.browser.Close()
}

type chromePage struct {
	opts Options
	page *rod.Page
}

func (p *chromePage) Navigate(ctx context.Context, url string) error {
	page := p.page.Context(ctx).Timeout(p.opts.navigationTimeout())
	defer page.CancelTimeout()

	wait := page.WaitRequestIdle(p.opts.networkIdle(), nil, nil, nil)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	wait()

	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait load %s: %w", url, err)
	}
	return nil
}

func (p *chromePage) Eval(ctx context.Context, js string, args ...any) (string, error) {
	res, err := p.page.Context(ctx).Evaluate(rod.Eval(js, args...).ByPromise())
	if err != nil {
		return "", err
	}
	if res == nil {
		return "", errors.New("evaluate returned no result")
	}
	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("encode eval result: %w", err)
	}
	return string(raw), nil
}

func (p *chromePage) Screenshot(ctx context.Context, path string) error {
	data, err := p.page.Context(ctx).Screenshot(true, nil)
	if err != nil {
		return fmt.Errorf("capture screenshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (p *chromePage) Close() error {
	return p.page.Close()
}
