package testutil

import (
	"context"
	"sync"

	"github.com/vertti/visualcheck/pkg/browser"
	"github.com/vertti/visualcheck/pkg/matrix"
)

// FakeEngine is an in-memory browser.Engine.
// Hooks are optional; nil hooks succeed.
type FakeEngine struct {
	NewContextErr func(vp matrix.Viewport) error

	// Configure prepares each new page before it is returned.
	// Returning an error fails NewPage.
	Configure func(vp matrix.Viewport, p *FakePage) error

	CloseErr        error
	ContextCloseErr error // returned by every context's Close

	mu       sync.Mutex
	Contexts []*FakeContext
	Closed   bool
}

var _ browser.Engine = (*FakeEngine)(nil)

// NewContext implements browser.Engine.
func (e *FakeEngine) NewContext(_ context.Context, vp matrix.Viewport) (browser.Context, error) {
	if e.NewContextErr != nil {
		if err := e.NewContextErr(vp); err != nil {
			return nil, err
		}
	}
	c := &FakeContext{Viewport: vp, CloseErr: e.ContextCloseErr, engine: e}
	e.mu.Lock()
	e.Contexts = append(e.Contexts, c)
	e.mu.Unlock()
	return c, nil
}

// Close implements browser.Engine.
func (e *FakeEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Closed = true
	return e.CloseErr
}

// OpenContexts returns how many contexts have not been closed.
func (e *FakeEngine) OpenContexts() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, c := range e.Contexts {
		if !c.Closed {
			n++
		}
	}
	return n
}

// Pages returns every page opened so far, in order.
func (e *FakeEngine) Pages() []*FakePage {
	e.mu.Lock()
	defer e.mu.Unlock()
	var pages []*FakePage
	for _, c := range e.Contexts {
		pages = append(pages, c.Pages...)
	}
	return pages
}

// FakeContext is a browser.Context created by FakeEngine.
type FakeContext struct {
	Viewport matrix.Viewport
	Pages    []*FakePage
	Closed   bool
	CloseErr error

	engine *FakeEngine
}

// NewPage implements browser.Context.
func (c *FakeContext) NewPage(_ context.Context) (browser.Page, error) {
	p := &FakePage{Viewport: c.Viewport}
	if c.engine.Configure != nil {
		if err := c.engine.Configure(c.Viewport, p); err != nil {
			return nil, err
		}
	}
	c.engine.mu.Lock()
	c.Pages = append(c.Pages, p)
	c.engine.mu.Unlock()
	return p, nil
}

// Close implements browser.Context.
func (c *FakeContext) Close() error {
	c.engine.mu.Lock()
	defer c.engine.mu.Unlock()
	c.Closed = true
	return c.CloseErr
}

// FakePage is a browser.Page that records what was done to it.
type FakePage struct {
	MockEvaluator

	Viewport      matrix.Viewport
	NavigateErr   error
	ScreenshotErr error

	URL         string
	Screenshots []string
	Closed      bool
}

// Navigate implements browser.Page.
func (p *FakePage) Navigate(_ context.Context, url string) error {
	p.URL = url
	return p.NavigateErr
}

// Screenshot implements browser.Page.
func (p *FakePage) Screenshot(_ context.Context, path string) error {
	if p.ScreenshotErr != nil {
		return p.ScreenshotErr
	}
	p.Screenshots = append(p.Screenshots, path)
	return nil
}

// Close implements browser.Page.
func (p *FakePage) Close() error {
	p.Closed = true
	return nil
}
