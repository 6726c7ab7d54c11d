// Package orbit integrates orbits, separatrices and blow-up branches across
// the charts of the compactified plane.
package orbit

import (
	"fmt"

	"github.com/npillmayer/schuko/tracing"
	"github.com/san-kum/polysphere/internal/dynamo"
)

func tracer() tracing.Trace {
	return tracing.Select("polysphere.orbit")
}

// Point is one element of an integrated curve.
type Point struct {
	P     dynamo.Point
	Color dynamo.Color
	// Dashes joins the point to its predecessor with a line; false draws it
	// as an isolated point.
	Dashes bool
	Dir    int
	Type   dynamo.SepType
}

// CurveKind tells what a curve was integrated as.
type CurveKind int

const (
	KindOrbit CurveKind = iota
	KindSeparatrix
	KindBlowUp
	KindLimitCycle
	KindCurve
)

var curveKindNames = [...]string{"orbit", "separatrix", "blowup", "limitcycle", "curve"}

func (k CurveKind) String() string {
	if k < KindOrbit || k > KindCurve {
		return fmt.Sprintf("CurveKind(%d)", int(k))
	}
	return curveKindNames[k]
}

func ParseCurveKind(s string) (CurveKind, error) {
	for i, n := range curveKindNames {
		if n == s {
			return CurveKind(i), nil
		}
	}
	return KindOrbit, fmt.Errorf("unknown curve kind: %q", s)
}

// Curve owns the points of one logical curve.
type Curve struct {
	Kind   CurveKind
	Points []Point
	// Degraded counts steps accepted at the minimum step above tolerance.
	Degraded int
}

func (c *Curve) Len() int {
	return len(c.Points)
}

// Last returns the most recent point.
func (c *Curve) Last() (Point, bool) {
	if len(c.Points) == 0 {
		return Point{}, false
	}
	return c.Points[len(c.Points)-1], true
}

// Draw replays the curve into r.
func (c *Curve) Draw(r dynamo.Renderer) {
	for i, pt := range c.Points {
		if pt.Dashes && i > 0 {
			r.PlotLine(c.Points[i-1].P, pt.P, pt.Color)
		} else {
			r.PlotPoint(pt.P, pt.Color)
		}
	}
}
