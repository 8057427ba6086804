// Package layoutcheck evaluates layout and contrast heuristics against a rendered page.
//
// Every heuristic is split in two: a side-effect-free JavaScript probe that
// measures the live DOM and returns JSON, and a Go verdict that decides
// pass or fail from those measurements.
package layoutcheck

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/vertti/visualcheck/pkg/check"
	"github.com/vertti/visualcheck/pkg/matrix"
)

// Check names, in battery order.
const (
	NoHorizontalOverflow = "noHorizontalOverflow"
	GridTexture          = "gridTexture"
	ContentMeasure       = "contentMeasure"
	CardTitleVisible     = "cardTitleVisible"
	LinkContrast         = "linkContrast"
	FooterVisible        = "footerVisible"
	MobileNoOverflow     = "mobileNoOverflow"
)

// Defaults used when the corresponding Checker field is zero.
const (
	DefaultMeasureSelectors  = ".e-content.body p, #banner-home-subtitle p, .bloglist-content .description"
	DefaultCardSelectors     = ".card-title, .card h2, .card h3"
	DefaultLinkSelectors     = ".content a, article a, main a"
	DefaultFooterSelector    = "footer"
	DefaultMaxMeasure        = 1100
	DefaultMobileBreakpoint  = 375
	DefaultOverflowTolerance = 2
	DefaultMaxOffenders      = 5
)

// Evaluator runs a JavaScript function against the live page and returns its result as JSON.
type Evaluator interface {
	Eval(ctx context.Context, js string, args ...any) (string, error)
}

// Probe is one heuristic of the battery.
type Probe struct {
	Name    string
	Script  string // JS function; must not modify the page
	Args    []any  // arguments passed to Script
	Applies func(vp matrix.Viewport) bool
	Verdict func(m gjson.Result, vp matrix.Viewport) (check.Result, error)
}

// Checker runs the layout battery. The zero value uses the defaults above.
// An empty, zero or negative field selects its default, so a tolerance of
// exactly 0px cannot be expressed; a tolerance below 1px such as 0.01 is
// effectively exact.
type Checker struct {
	MeasureSelectors  string  // editorial text elements subject to the measure limit
	CardSelectors     string  // first match is the card title
	LinkSelectors     string  // first match is the in-content link
	FooterSelector    string  // page footer
	MaxMeasure        float64 // max rendered width of editorial text, CSS px
	MobileBreakpoint  int     // mobileNoOverflow runs at or below this viewport width
	OverflowTolerance float64 // px an element may extend past the viewport
	MaxOffenders      int     // offenders recorded in mobileNoOverflowDetails
}

// Run evaluates every applicable check in order.
// A probe error or malformed probe result aborts the run; no partial set is returned.
func (c *Checker) Run(ctx context.Context, ev Evaluator, vp matrix.Viewport) (check.Set, error) {
	probes := c.Battery()
	set := make(check.Set, 0, len(probes))
	for _, p := range probes {
		if p.Applies != nil && !p.Applies(vp) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, err := ev.Eval(ctx, p.Script, p.Args...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Name, err)
		}
		if !gjson.Valid(raw) {
			return nil, fmt.Errorf("%s: probe returned invalid JSON", p.Name)
		}

		result, err := p.Verdict(gjson.Parse(raw), vp)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Name, err)
		}
		result.Name = p.Name
		set = append(set, result)
	}
	return set, nil
}

func (c *Checker) measureSelectors() string {
	if c.MeasureSelectors == "" {
		return DefaultMeasureSelectors
	}
	return c.MeasureSelectors
}

func (c *Checker) cardSelectors() string {
	if c.CardSelectors == "" {
		return DefaultCardSelectors
	}
	return c.CardSelectors
}

func (c *Checker) linkSelectors() string {
	if c.LinkSelectors == "" {
		return DefaultLinkSelectors
	}
	return c.LinkSelectors
}

func (c *Checker) footerSelector() string {
	if c.FooterSelector == "" {
		return DefaultFooterSelector
	}
	return c.FooterSelector
}

func (c *Checker) maxMeasure() float64 {
	if c.MaxMeasure <= 0 {
		return DefaultMaxMeasure
	}
	return c.MaxMeasure
}

func (c *Checker) mobileBreakpoint() int {
	if c.MobileBreakpoint <= 0 {
		return DefaultMobileBreakpoint
	}
	return c.MobileBreakpoint
}

func (c *Checker) overflowTolerance() float64 {
	if c.OverflowTolerance <= 0 {
		return DefaultOverflowTolerance
	}
	return c.OverflowTolerance
}

func (c *Checker) maxOffenders() int {
	if c.MaxOffenders <= 0 {
		return DefaultMaxOffenders
	}
	return c.MaxOffenders
}

// fields looks up keys that a probe must always return.
func fields(m gjson.Result, keys ...string) ([]gjson.Result, error) {
	if !m.IsObject() {
		return nil, fmt.Errorf("probe result is %s, want object", m.Type)
	}
	out := make([]gjson.Result, len(keys))
	for i, k := range keys {
		v := m.Get(k)
		if !v.Exists() {
			return nil, fmt.Errorf("probe result missing %q", k)
		}
		out[i] = v
	}
	return out, nil
}
