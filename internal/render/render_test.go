package render

import (
	"math"
	"strings"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/san-kum/polysphere/internal/chart"
	"github.com/san-kum/polysphere/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unit(x, y, z float64) dynamo.Point {
	n := math.Sqrt(x*x + y*y + z*z)
	return dynamo.Point{x / n, y / n, z / n}
}

func TestClip(t *testing.T) {
	w := Window{MinU: -1, MaxU: 1, MinW: -1, MaxW: 1}
	tests := []struct {
		name   string
		a, b   dynamo.Vec2
		ok     bool
		ca, cb dynamo.Vec2
	}{
		{"inside", dynamo.Vec2{-0.5, 0}, dynamo.Vec2{0.5, 0.5}, true, dynamo.Vec2{-0.5, 0}, dynamo.Vec2{0.5, 0.5}},
		{"crossing", dynamo.Vec2{-2, 0}, dynamo.Vec2{2, 0}, true, dynamo.Vec2{-1, 0}, dynamo.Vec2{1, 0}},
		{"leaving", dynamo.Vec2{0, 0}, dynamo.Vec2{0, 4}, true, dynamo.Vec2{0, 0}, dynamo.Vec2{0, 1}},
		{"outside", dynamo.Vec2{2, 2}, dynamo.Vec2{3, -2}, false, dynamo.Vec2{}, dynamo.Vec2{}},
		{"parallel outside", dynamo.Vec2{-2, 1.5}, dynamo.Vec2{2, 1.5}, false, dynamo.Vec2{}, dynamo.Vec2{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b, ok := clip(tt.a, tt.b, w)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.InDeltaSlice(t, tt.ca[:], a[:], 1e-12)
				assert.InDeltaSlice(t, tt.cb[:], b[:], 1e-12)
			}
		})
	}
}

func TestProjector(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()

	a := chart.New(dynamo.PoincareSphere())
	p := projector{atlas: a, view: chart.ViewSphere, win: Window{-1, 1, -1, 1}, width: 200, height: 100}
	d, ok := p.point(dynamo.Point{0, 0, 1})
	require.True(t, ok)
	assert.Equal(t, dynamo.Vec2{100, 50}, d)
	d, ok = p.point(dynamo.Point{0, 1, 0})
	require.True(t, ok)
	assert.Equal(t, dynamo.Vec2{100, 0}, d, "y grows downwards")

	u1 := projector{atlas: a, view: chart.ViewU1, win: DefaultWindow(a, chart.ViewU1, 3), width: 100, height: 100}
	segs := u1.segments(unit(-1, 0.2, 0.5), unit(1, 0.2, 0.5))
	assert.Len(t, segs, 2, "segment across X = 0 splits in the U1 view")
	segs = u1.segments(unit(1, 0.2, 0.5), unit(1, 0.3, 0.5))
	assert.Len(t, segs, 1)
}

func TestPNG(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()

	a := chart.New(dynamo.LyapunovSphere(1, 2))
	_, err := NewPNG(a, chart.ViewSphere, Window{}, 100, 100, "")
	assert.Error(t, err)

	r, err := NewPNG(a, chart.ViewSphere, DefaultWindow(a, chart.ViewSphere, 0), 120, 120, "weighted")
	require.NoError(t, err)
	bg := r.Image().At(60, 60)
	r.PlotLine(a.R2ToSphere(-0.5, 0), a.R2ToSphere(0.5, 0), dynamo.ColorUnstable)
	r.PlotPoint(a.R2ToSphere(0, 0.5), dynamo.ColorStable)
	assert.NotEqual(t, bg, r.Image().At(60, 60))
	assert.Equal(t, 120, r.Image().Bounds().Dx())
}

func TestSVG(t *testing.T) {
	a := chart.New(dynamo.PoincareSphere())
	s := NewSVG(a, chart.ViewSphere, DefaultWindow(a, chart.ViewSphere, 0), 200, 200)
	p0, p1, p2 := a.R2ToSphere(0, 0), a.R2ToSphere(0.5, 0), a.R2ToSphere(0.5, 0.5)
	s.PlotPoint(p0, dynamo.ColorOrbit)
	s.PlotLine(p0, p1, dynamo.ColorLimitCycle)
	s.PlotLine(p1, p2, dynamo.ColorLimitCycle)
	s.PlotLine(p2, p0, dynamo.ColorStable)

	doc := s.String()
	assert.True(t, strings.HasPrefix(doc, "<?xml"))
	assert.Equal(t, 2, strings.Count(doc, "<path"), "lines of one colour share a path")
	assert.Equal(t, 2, strings.Count(doc, "<circle"))
	assert.Contains(t, doc, Palette[dynamo.ColorLimitCycle])
	assert.Contains(t, doc, Palette[dynamo.ColorStable])
}

func TestBrailleAndMulti(t *testing.T) {
	a := chart.New(dynamo.PoincareSphere())
	b := NewBraille(a, chart.ViewR2, DefaultWindow(a, chart.ViewR2, 2), 20, 10)
	assert.Equal(t, 0, b.Dots())

	s := NewSVG(a, chart.ViewR2, DefaultWindow(a, chart.ViewR2, 2), 100, 100)
	m := Multi{b, s}
	m.PlotLine(a.R2ToSphere(-1, -1), a.R2ToSphere(1, 1), dynamo.ColorOrbit)
	m.PlotPoint(a.R2ToSphere(10, 10), dynamo.ColorOrbit)

	assert.Greater(t, b.Dots(), 10)
	assert.Equal(t, 10, strings.Count(b.String(), "\n"))
	assert.Equal(t, 1, strings.Count(s.String(), "<path"))
	assert.NotEmpty(t, b.Render())

	disk := NewBraille(a, chart.ViewSphere, DefaultWindow(a, chart.ViewSphere, 0), 20, 10)
	assert.Greater(t, disk.Dots(), 20, "circle at infinity")
}
