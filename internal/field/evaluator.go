// Package field derives and evaluates a planar polynomial vector field in
// every chart of the compactified plane.
package field

import (
	"fmt"

	"github.com/npillmayer/schuko/tracing"
	"github.com/san-kum/polysphere/internal/dynamo"
)

func tracer() tracing.Trace {
	return tracing.Select("polysphere.field")
}

// chartField is the polynomial field of one chart in (z1, z2).
type chartField struct {
	dz1, dz2 Poly
	gcf      Poly
	degree   int  // D, the exponent of the time rescaling p·z2^D
	line     bool // a factor z2 was removed: infinity is a line of singularities
}

// Evaluator holds the field of every chart. P and Q are the reduced
// components; GCF is the common factor they were divided by, nil if none.
type Evaluator struct {
	sphere dynamo.Sphere
	p, q   int
	kind   dynamo.FieldKind
	gcf    Poly
	P, Q   Poly
	charts [5]chartField
}

// New derives the chart fields of ẋ = P, ẏ = Q once. The polynomials are
// copied.
func New(sphere dynamo.Sphere, P, Q, GCF Poly, kind dynamo.FieldKind) (*Evaluator, error) {
	if err := sphere.Validate(); err != nil {
		return nil, err
	}
	p, q := sphere.Weights()
	e := &Evaluator{
		sphere: sphere,
		p:      p,
		q:      q,
		kind:   kind,
		gcf:    GCF.Zap(),
		P:      P.Zap(),
		Q:      Q.Zap(),
	}
	if e.P.IsZero() && e.Q.IsZero() {
		tracer().Infof("vector field is identically zero")
	}

	e.charts[dynamo.R2] = chartField{dz1: e.P, dz2: e.Q, gcf: e.gcf}
	for _, c := range []dynamo.Chart{dynamo.U1, dynamo.V1, dynamo.U2, dynamo.V2} {
		e.charts[c] = e.derive(c)
		tracer().P("chart", c).P("D", e.charts[c].degree).P("line", e.charts[c].line).
			Debugf("derived %s: (%s, %s)", c, e.charts[c].dz1.Format("z1", "z2"), e.charts[c].dz2.Format("z1", "z2"))
	}
	return e, nil
}

func (e *Evaluator) derive(c dynamo.Chart) chartField {
	p, q := e.p, e.q
	d, ok := 0, false
	for _, t := range e.Q {
		d, ok = weightedMax(d, ok, p*t.I+q*t.J-q)
	}
	for _, t := range e.P {
		d, ok = weightedMax(d, ok, p*t.I+q*t.J-p)
	}

	s := c.Sign()
	pt := e.local(c, e.P, p+d)
	qt := e.local(c, e.Q, q+d)

	var cf chartField
	cf.degree = d
	if c.Axis() == 1 {
		cf.dz1 = qt.Scale(s * float64(p)).Add(pt.MulMonomial(-s*float64(q), 1, 0))
		cf.dz2 = pt.MulMonomial(-s, 0, 1)
	} else {
		cf.dz1 = pt.Scale(s * float64(q)).Add(qt.MulMonomial(-s*float64(p), 1, 0))
		cf.dz2 = qt.MulMonomial(-s, 0, 1)
	}
	if !(cf.dz1.IsZero() && cf.dz2.IsZero()) && cf.dz1.DivisibleByY() && cf.dz2.DivisibleByY() {
		cf.dz1, cf.dz2 = cf.dz1.DivY(), cf.dz2.DivY()
		cf.line = true
	}

	if dg, ok := e.gcf.WeightedDegree(p, q); ok {
		cf.gcf = e.local(c, e.gcf, dg)
	}
	return cf
}

func weightedMax(d int, ok bool, v int) (int, bool) {
	if !ok || v > d {
		return v, true
	}
	return d, true
}

// local rewrites a plane polynomial in chart c and multiplies it by z2^top,
// top being at least its weighted degree.
func (e *Evaluator) local(c dynamo.Chart, poly Poly, top int) Poly {
	s := c.Sign()
	out := make(Poly, 0, len(poly))
	for _, t := range poly {
		coeff := t.C
		if (t.I+t.J)%2 == 1 {
			coeff *= s
		}
		zi := t.J
		if c.Axis() == 2 {
			zi = t.I
		}
		out = append(out, Term{C: coeff, I: zi, J: top - e.p*t.I - e.q*t.J})
	}
	return out.Zap()
}

func (e *Evaluator) Sphere() dynamo.Sphere {
	return e.sphere
}

func (e *Evaluator) Kind() dynamo.FieldKind {
	return e.kind
}

// HasGCF reports whether a non-trivial common factor was supplied.
func (e *Evaluator) HasGCF() bool {
	return len(e.gcf) > 0
}

// Components returns the polynomial field of chart c.
func (e *Evaluator) Components(c dynamo.Chart) (Poly, Poly) {
	return e.charts[c].dz1, e.charts[c].dz2
}

// LineAtInfinity reports whether chart c had a factor z2 removed.
func (e *Evaluator) LineAtInfinity(c dynamo.Chart) bool {
	return e.charts[c].line
}

// Degree returns D, the time rescaling exponent of chart c.
func (e *Evaluator) Degree(c dynamo.Chart) int {
	return e.charts[c].degree
}

// Smooth evaluates the reduced field of chart c, without any sign factor.
func (e *Evaluator) Smooth(c dynamo.Chart, z dynamo.Vec2) dynamo.Vec2 {
	cf := &e.charts[c]
	return dynamo.Vec2{cf.dz1.Eval(z[0], z[1]), cf.dz2.Eval(z[0], z[1])}
}

// Integrand is what the driver integrates: the reduced field, multiplied by
// z2 when the original field vanishes on a line of singularities at infinity.
// The GCF sign is not included; the driver carries it as orientation.
func (e *Evaluator) Integrand(c dynamo.Chart, z dynamo.Vec2) dynamo.Vec2 {
	v := e.Smooth(c, z)
	if e.kind == dynamo.Original && e.charts[c].line {
		v = v.Scale(z[1])
	}
	return v
}

// Eval evaluates the field selected by the evaluator's kind: the reduced
// field, or the original one up to the magnitude of the GCF.
func (e *Evaluator) Eval(c dynamo.Chart, z dynamo.Vec2) dynamo.Vec2 {
	v := e.Integrand(c, z)
	if e.kind == dynamo.Original {
		v = v.Scale(float64(e.GCFSign(c, z)))
	}
	return v
}

// GCFSign is the sign of the common factor at z; 1 without a factor.
func (e *Evaluator) GCFSign(c dynamo.Chart, z dynamo.Vec2) int {
	g := e.charts[c].gcf
	if len(g) == 0 {
		return 1
	}
	v := g.Eval(z[0], z[1])
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// ContinuationSign is the orientation factor picked up when an orbit of chart
// c crosses z2 = 0 and is continued on the antipodal chart.
func (e *Evaluator) ContinuationSign(c dynamo.Chart) int {
	if c == dynamo.R2 {
		return 1
	}
	cf := &e.charts[c]
	exp := cf.degree
	if cf.line && e.kind == dynamo.Reduced {
		exp--
	}
	if exp%2 != 0 {
		return -1
	}
	return 1
}

// Describe renders the field of every chart for display.
func (e *Evaluator) Describe() []string {
	lines := make([]string, 0, 5)
	for _, c := range dynamo.Charts() {
		cf := &e.charts[c]
		x, y := "z1", "z2"
		if c == dynamo.R2 {
			x, y = "x", "y"
		}
		s := fmt.Sprintf("%s: (%s, %s)", c, cf.dz1.Format(x, y), cf.dz2.Format(x, y))
		if cf.line {
			s += " [line of singularities at infinity]"
		}
		lines = append(lines, s)
	}
	return lines
}
