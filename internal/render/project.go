// Package render draws integrated curves. Every renderer implements
// dynamo.Renderer and projects sphere points through a chart.View.
package render

import (
	"math"

	"github.com/npillmayer/schuko/tracing"
	"github.com/san-kum/polysphere/internal/chart"
	"github.com/san-kum/polysphere/internal/dynamo"
)

func tracer() tracing.Trace {
	return tracing.Select("polysphere.render")
}

// Window is the visible rectangle in view coordinates.
type Window struct {
	MinU, MaxU, MinW, MaxW float64
}

// DefaultWindow frames the whole disk for ViewSphere and the square
// [-span, span]² for the other views.
func DefaultWindow(a *chart.Atlas, v chart.View, span float64) Window {
	if v == chart.ViewSphere {
		span = a.DiskRadius() * 1.05
	}
	return Window{MinU: -span, MaxU: span, MinW: -span, MaxW: span}
}

func (w Window) Valid() bool {
	return w.MaxU > w.MinU && w.MaxW > w.MinW
}

// projector maps sphere points to device pixels with y pointing down.
type projector struct {
	atlas         *chart.Atlas
	view          chart.View
	win           Window
	width, height float64
}

func (p *projector) device(c dynamo.Vec2) dynamo.Vec2 {
	return dynamo.Vec2{
		(c[0] - p.win.MinU) / (p.win.MaxU - p.win.MinU) * p.width,
		(p.win.MaxW - c[1]) / (p.win.MaxW - p.win.MinW) * p.height,
	}
}

// point returns the device position of pt, or false when it is not visible.
func (p *projector) point(pt dynamo.Point) (dynamo.Vec2, bool) {
	c, ok := p.atlas.ToView(p.view, pt)
	if !ok || !p.atlas.IsValidViewCoord(p.view, c[0], c[1]) || !p.win.contains(c) {
		return dynamo.Vec2{}, false
	}
	return p.device(c), true
}

// segments returns the visible device segments of p1-p2, split at the seam
// of the view and clipped to the window.
func (p *projector) segments(p1, p2 dynamo.Point) [][2]dynamo.Vec2 {
	cs, _ := p.atlas.ViewPair(p.view, p1, p2)
	var out [][2]dynamo.Vec2
	for i := 0; i+1 < len(cs); i += 2 {
		a, b := cs[i], cs[i+1]
		if !a.IsValid() || !b.IsValid() {
			continue
		}
		a, b, ok := clip(a, b, p.win)
		if !ok {
			continue
		}
		out = append(out, [2]dynamo.Vec2{p.device(a), p.device(b)})
	}
	return out
}

func (w Window) contains(c dynamo.Vec2) bool {
	return c[0] >= w.MinU && c[0] <= w.MaxU && c[1] >= w.MinW && c[1] <= w.MaxW
}

// clip cuts the segment a-b to w (Liang–Barsky). It reports false when
// nothing of the segment is inside.
func clip(a, b dynamo.Vec2, w Window) (dynamo.Vec2, dynamo.Vec2, bool) {
	d := b.Sub(a)
	t0, t1 := 0.0, 1.0
	edges := [4][2]float64{
		{-d[0], a[0] - w.MinU},
		{d[0], w.MaxU - a[0]},
		{-d[1], a[1] - w.MinW},
		{d[1], w.MaxW - a[1]},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return a, b, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			t0 = math.Max(t0, r)
		} else {
			t1 = math.Min(t1, r)
		}
		if t0 > t1 {
			return a, b, false
		}
	}
	return a.Add(d.Scale(t0)), a.Add(d.Scale(t1)), true
}

// Multi fans every call out to all of its renderers.
type Multi []dynamo.Renderer

func (m Multi) PlotLine(p1, p2 dynamo.Point, c dynamo.Color) {
	for _, r := range m {
		r.PlotLine(p1, p2, c)
	}
}

func (m Multi) PlotPoint(p dynamo.Point, c dynamo.Color) {
	for _, r := range m {
		r.PlotPoint(p, c)
	}
}
