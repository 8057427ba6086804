package layoutcheck

import (
	"fmt"
	"math"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/vertti/visualcheck/pkg/check"
	"github.com/vertti/visualcheck/pkg/matrix"
)

const maxClassLen = 40

const scrollWidthScript = `() => ({
	scrollWidth: document.documentElement.scrollWidth,
	clientWidth: document.documentElement.clientWidth,
})`

const backgroundScript = `() => ({
	backgroundImage: getComputedStyle(document.body).backgroundImage,
})`

const measureScript = `(selector) => Array.from(document.querySelectorAll(selector), (el) => ({
	width: el.getBoundingClientRect().width,
	class: el.getAttribute('class') || '',
}))`

const cardTitleScript = `(selector) => {
	const card = document.querySelector(selector);
	if (!card) return { found: false };
	const holder = card.closest('.card') || card.parentElement || card;
	return {
		found: true,
		color: getComputedStyle(card).color,
		background: getComputedStyle(holder).backgroundColor,
	};
}`

const linkColorScript = `(selector) => {
	const link = document.querySelector(selector);
	if (!link) return { found: false };
	return {
		found: true,
		linkColor: getComputedStyle(link).color,
		bodyColor: getComputedStyle(document.body).color,
	};
}`

const footerScript = `(selector) => {
	const footer = document.querySelector(selector);
	if (!footer) return { found: false };
	return { found: true, height: footer.getBoundingClientRect().height };
}`

// Elements whose right edge is inside the viewport are dropped in the page
// to keep the payload small; the tolerance is applied by the verdict.
const overflowScript = `() => {
	const width = window.innerWidth;
	const candidates = [];
	for (const el of document.querySelectorAll('*')) {
		const rect = el.getBoundingClientRect();
		if (rect.right <= width) continue;
		const ancestorOverflowX = [];
		for (let p = el.parentElement; p && p !== document.body; p = p.parentElement) {
			ancestorOverflowX.push(getComputedStyle(p).overflowX);
		}
		candidates.push({
			tag: el.tagName,
			class: el.getAttribute('class') || '',
			right: rect.right,
			ancestorOverflowX,
		});
	}
	return { innerWidth: width, candidates };
}`

// Offender is an element reported by mobileNoOverflow.
type Offender struct {
	Tag   string `json:"tag"`
	Class string `json:"class"`
	Right int    `json:"right"`
}

// MeasureOffender is the first editorial element wider than the measure limit.
type MeasureOffender struct {
	Width int    `json:"width"`
	Class string `json:"class"`
}

// Battery returns the seven checks in evaluation order.
func (c *Checker) Battery() []Probe {
	return []Probe{
		{
			Name:    NoHorizontalOverflow,
			Script:  scrollWidthScript,
			Verdict: noHorizontalOverflow,
		},
		{
			Name:    GridTexture,
			Script:  backgroundScript,
			Verdict: gridTexture,
		},
		{
			Name:    ContentMeasure,
			Script:  measureScript,
			Args:    []any{c.measureSelectors()},
			Verdict: c.contentMeasure,
		},
		{
			Name:    CardTitleVisible,
			Script:  cardTitleScript,
			Args:    []any{c.cardSelectors()},
			Verdict: cardTitleVisible,
		},
		{
			Name:    LinkContrast,
			Script:  linkColorScript,
			Args:    []any{c.linkSelectors()},
			Verdict: linkContrast,
		},
		{
			Name:    FooterVisible,
			Script:  footerScript,
			Args:    []any{c.footerSelector()},
			Verdict: footerVisible,
		},
		{
			Name:   MobileNoOverflow,
			Script: overflowScript,
			Applies: func(vp matrix.Viewport) bool {
				return vp.Width <= c.mobileBreakpoint()
			},
			Verdict: c.mobileNoOverflow,
		},
	}
}

func noHorizontalOverflow(m gjson.Result, _ matrix.Viewport) (check.Result, error) {
	f, err := fields(m, "scrollWidth", "clientWidth")
	if err != nil {
		return check.Result{}, err
	}
	scroll, client := f[0].Int(), f[1].Int()

	var r check.Result
	if scroll > client {
		return r.Fail(fmt.Sprintf("scroll width %dpx exceeds client width %dpx", scroll, client),
			map[string]int64{"scrollWidth": scroll, "clientWidth": client}), nil
	}
	r.AddDetailf("scroll width %dpx within client width %dpx", scroll, client)
	return r.Pass(), nil
}

func gridTexture(m gjson.Result, _ matrix.Viewport) (check.Result, error) {
	f, err := fields(m, "backgroundImage")
	if err != nil {
		return check.Result{}, err
	}
	bg := f[0].String()

	var r check.Result
	if bg == "" || bg == "none" || !strings.Contains(bg, "gradient") {
		return r.Fail("body background has no gradient", map[string]string{"backgroundImage": bg}), nil
	}
	r.AddDetail("body background has a gradient")
	return r.Pass(), nil
}

func (c *Checker) contentMeasure(m gjson.Result, _ matrix.Viewport) (check.Result, error) {
	if !m.IsArray() {
		return check.Result{}, fmt.Errorf("probe result is %s, want array", m.Type)
	}
	var r check.Result
	elements := m.Array()
	if len(elements) == 0 {
		r.AddDetail("no measured paragraphs")
		return r.Pass(), nil
	}

	limit := c.maxMeasure()
	for _, el := range elements {
		width := el.Get("width").Float()
		if width > limit {
			offender := MeasureOffender{Width: int(math.Round(width)), Class: el.Get("class").String()}
			return r.Fail(fmt.Sprintf("element %q is %dpx wide, limit %gpx", offender.Class, offender.Width, limit),
				offender), nil
		}
	}
	r.AddDetailf("%d paragraphs within %gpx", len(elements), limit)
	return r.Pass(), nil
}

// cardTitleVisible only records the card's colors; it never fails.
func cardTitleVisible(m gjson.Result, _ matrix.Viewport) (check.Result, error) {
	f, err := fields(m, "found")
	if err != nil {
		return check.Result{}, err
	}
	var r check.Result
	if !f[0].Bool() {
		r.AddDetail("no cards on page")
		return r.Pass(), nil
	}
	r.AddDetailf("color: %s", m.Get("color").String())
	r.AddDetailf("background: %s", m.Get("background").String())
	return r.Pass(), nil
}

func linkContrast(m gjson.Result, _ matrix.Viewport) (check.Result, error) {
	f, err := fields(m, "found")
	if err != nil {
		return check.Result{}, err
	}
	var r check.Result
	if !f[0].Bool() {
		r.AddDetail("no links")
		return r.Pass(), nil
	}

	link, body := m.Get("linkColor").String(), m.Get("bodyColor").String()
	if link == body {
		return r.Fail("link color matches body text: "+link,
			map[string]string{"linkColor": link, "bodyColor": body}), nil
	}
	r.AddDetailf("link %s, body %s", link, body)
	return r.Pass(), nil
}

func footerVisible(m gjson.Result, _ matrix.Viewport) (check.Result, error) {
	f, err := fields(m, "found")
	if err != nil {
		return check.Result{}, err
	}
	var r check.Result
	if !f[0].Bool() {
		return r.Fail("no footer", map[string]string{"detail": "no footer"}), nil
	}

	height := m.Get("height").Float()
	if height <= 0 {
		return r.Fail("footer has zero height", map[string]float64{"height": height}), nil
	}
	r.AddDetailf("footer height: %gpx", height)
	return r.Pass(), nil
}

func (c *Checker) mobileNoOverflow(m gjson.Result, vp matrix.Viewport) (check.Result, error) {
	f, err := fields(m, "candidates")
	if err != nil {
		return check.Result{}, err
	}
	width := m.Get("innerWidth").Float()
	if width <= 0 {
		width = float64(vp.Width)
	}
	edge := width + c.overflowTolerance()

	var offenders []Offender
	total := 0
	for _, el := range f[0].Array() {
		right := el.Get("right").Float()
		if right <= edge || inScrollableAncestor(el.Get("ancestorOverflowX")) {
			continue
		}
		total++
		if len(offenders) < c.maxOffenders() {
			offenders = append(offenders, Offender{
				Tag:   el.Get("tag").String(),
				Class: truncate(el.Get("class").String(), maxClassLen),
				Right: int(math.Round(right)),
			})
		}
	}

	var r check.Result
	if total > 0 {
		return r.Fail(fmt.Sprintf("%d elements extend past %gpx", total, width), offenders), nil
	}
	r.AddDetailf("no elements extend past %gpx", width)
	return r.Pass(), nil
}

// inScrollableAncestor reports whether any ancestor below body scrolls or clips horizontally.
func inScrollableAncestor(overflowX gjson.Result) bool {
	for _, v := range overflowX.Array() {
		switch v.String() {
		case "auto", "scroll", "hidden":
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
