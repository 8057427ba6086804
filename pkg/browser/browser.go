// Package browser drives a real Chromium through go-rod behind small
// interfaces the runner can fake.
package browser

import (
	"context"
	"time"

	"github.com/vertti/visualcheck/pkg/matrix"
)

// Engine owns a browser process.
type Engine interface {
	// NewContext opens an isolated browsing context whose pages emulate vp.
	NewContext(ctx context.Context, vp matrix.Viewport) (Context, error)
	Close() error
}

// Context is an isolated browsing context, one per viewport.
type Context interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Page is a single tab.
type Page interface {
	// Navigate loads url and waits for the network to go idle.
	Navigate(ctx context.Context, url string) error
	// Eval runs a JS function and returns its result as JSON text.
	Eval(ctx context.Context, js string, args ...any) (string, error)
	// Screenshot writes a full-page PNG to path.
	Screenshot(ctx context.Context, path string) error
	Close() error
}

// Options configures Launch.
type Options struct {
	BrowserPath       string // empty lets rod find or download a browser
	Headless          bool
	NavigationTimeout time.Duration
	NetworkIdle       time.Duration
}

const (
	DefaultNavigationTimeout = 30 * time.Second
	DefaultNetworkIdle       = 500 * time.Millisecond
)

func (o Options) navigationTimeout() time.Duration {
	if o.NavigationTimeout <= 0 {
		return DefaultNavigationTimeout
	}
	return o.NavigationTimeout
}

func (o Options) networkIdle() time.Duration {
	if o.NetworkIdle <= 0 {
		return DefaultNetworkIdle
	}
	return o.NetworkIdle
}
