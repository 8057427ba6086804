// Package matrix enumerates the page, viewport and theme combinations a run visits.
package matrix

import (
	"errors"
	"fmt"
	"strings"
)

// Page is a named path on the site under test.
type Page struct {
	Name string `mapstructure:"name" yaml:"name" json:"name"`
	Path string `mapstructure:"path" yaml:"path" json:"path"`
}

// URL joins base and the page path with exactly one slash between them.
func (p Page) URL(base string) string {
	if p.Path == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(p.Path, "/")
}

// Viewport is a named screen size in CSS pixels.
type Viewport struct {
	Name   string `mapstructure:"name" yaml:"name" json:"name"`
	Width  int    `mapstructure:"width" yaml:"width" json:"width"`
	Height int    `mapstructure:"height" yaml:"height" json:"height"`
}

func (v Viewport) String() string {
	return fmt.Sprintf("%s (%dx%d)", v.Name, v.Width, v.Height)
}

// Theme is the value written to the document root's theme attribute.
type Theme string

// Combination is one (page, viewport, theme) tuple under test.
type Combination struct {
	Page     Page
	Viewport Viewport
	Theme    Theme
}

// Label returns the composite key "{page}-{viewport}-{theme}".
func (c Combination) Label() string {
	return c.Page.Name + "-" + c.Viewport.Name + "-" + string(c.Theme)
}

// Filename returns the screenshot file name for the combination.
func (c Combination) Filename() string {
	return c.Label() + ".png"
}

// Group is every combination sharing one viewport, in visiting order.
type Group struct {
	Viewport     Viewport
	Combinations []Combination
}

// Matrix holds the ordered inputs of a run.
type Matrix struct {
	Pages     []Page
	Viewports []Viewport
	Themes    []Theme
}

// Validate checks that no input list is empty and that labels are unique.
func (m Matrix) Validate() error {
	var errs []error
	if len(m.Pages) == 0 {
		errs = append(errs, errors.New("at least one page is required"))
	}
	if len(m.Viewports) == 0 {
		errs = append(errs, errors.New("at least one viewport is required"))
	}
	if len(m.Themes) == 0 {
		errs = append(errs, errors.New("at least one theme is required"))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	seen := make(map[string]bool)
	for _, c := range m.Combinations() {
		label := c.Label()
		if seen[label] {
			return fmt.Errorf("duplicate combination label %q", label)
		}
		seen[label] = true
	}
	return nil
}

// Combinations returns the cross product ordered viewport, then page, then theme.
func (m Matrix) Combinations() []Combination {
	combos := make([]Combination, 0, len(m.Viewports)*len(m.Pages)*len(m.Themes))
	for _, g := range m.Groups() {
		combos = append(combos, g.Combinations...)
	}
	return combos
}

// Groups returns the combinations partitioned by viewport.
func (m Matrix) Groups() []Group {
	groups := make([]Group, 0, len(m.Viewports))
	for _, vp := range m.Viewports {
		g := Group{
			Viewport:     vp,
			Combinations: make([]Combination, 0, len(m.Pages)*len(m.Themes)),
		}
		for _, pg := range m.Pages {
			for _, th := range m.Themes {
				g.Combinations = append(g.Combinations, Combination{Page: pg, Viewport: vp, Theme: th})
			}
		}
		groups = append(groups, g)
	}
	return groups
}
