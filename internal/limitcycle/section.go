package limitcycle

import (
	"fmt"
	"math"

	"github.com/npillmayer/schuko/tracing"
	"github.com/san-kum/polysphere/internal/chart"
	"github.com/san-kum/polysphere/internal/dynamo"
)

func tracer() tracing.Trace {
	return tracing.Select("polysphere.limitcycle")
}

// Bounds limits the grid spacing of a section.
type Bounds struct {
	MinGrid, MaxGrid float64
}

func DefaultBounds() Bounds {
	return Bounds{MinGrid: 1e-5, MaxGrid: 1}
}

// Section is a segment of the plane transverse to the cycles searched for,
// marched at Grid spacing.
type Section struct {
	X0, Y0, X1, Y1 float64
	Grid           float64
	// level line a·x + b·y + c = 0 through both endpoints
	a, b, c float64
	length  float64
}

// NewSection validates the segment (x0,y0)-(x1,y1) and its grid spacing.
func NewSection(x0, y0, x1, y1, grid float64, bounds Bounds) (Section, error) {
	length := math.Hypot(x1-x0, y1-y0)
	if length == 0 || math.IsNaN(length) || math.IsInf(length, 0) {
		return Section{}, fmt.Errorf("%w: (%g,%g)-(%g,%g)", dynamo.ErrZeroSection, x0, y0, x1, y1)
	}
	hi := math.Min(bounds.MaxGrid, length)
	if !(grid >= bounds.MinGrid && grid <= hi) {
		return Section{}, fmt.Errorf("%w: %g not in [%g, %g]", dynamo.ErrInvalidGrid, grid, bounds.MinGrid, hi)
	}
	return Section{
		X0: x0, Y0: y0, X1: x1, Y1: y1,
		Grid:   grid,
		a:      y0 - y1,
		b:      x1 - x0,
		c:      x0*y1 - x1*y0,
		length: length,
	}, nil
}

func (s Section) Length() float64 { return s.length }

// Points is the number of grid points, both endpoints included when the
// spacing divides the length.
func (s Section) Points() int {
	return int(math.Floor(s.length/s.Grid+1e-9)) + 1
}

// At returns the plane point at distance d from (X0,Y0) along the section.
func (s Section) At(d float64) (float64, float64) {
	f := d / s.length
	return s.X0 + f*(s.X1-s.X0), s.Y0 + f*(s.Y1-s.Y0)
}

// Project returns the distance from (X0,Y0) of the foot of (x,y) on the
// section line. Points of the section have projections in [0, Length].
func (s Section) Project(x, y float64) float64 {
	return ((x-s.X0)*(s.X1-s.X0) + (y-s.Y0)*(s.Y1-s.Y0)) / s.length
}

// Level evaluates the level function of the section line at a sphere point.
// Its sign tells on which side of the line the point lies; it is zero on the
// line, infinity included.
func (s Section) Level(sp dynamo.Sphere, pt dynamo.Point) float64 {
	if sp.Kind == dynamo.Poincare {
		return s.a*pt[0] + s.b*pt[1] + s.c*pt[2]
	}
	if pt.Finite() {
		return s.a*pt[1] + s.b*pt[2] + s.c
	}
	p, q := sp.Weights()
	r, th := pt[1], pt[2]
	return s.a*math.Cos(th)*math.Pow(r, float64(q)) +
		s.b*math.Sin(th)*math.Pow(r, float64(p)) +
		s.c*math.Pow(r, float64(p+q))
}

// onSection returns the section distance of pt when it is a finite point
// whose projection falls inside the segment.
func (s Section) onSection(a *chart.Atlas, pt dynamo.Point) (float64, bool) {
	xy, ok := a.SphereToR2(pt)
	if !ok {
		return 0, false
	}
	d := s.Project(xy[0], xy[1])
	slack := 1e-9 * s.length
	if d < -slack || d > s.length+slack {
		return 0, false
	}
	return d, true
}
