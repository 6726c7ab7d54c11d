// Package chart maps points between the real plane, the Poincaré or
// Poincaré–Lyapunov sphere and the four charts covering infinity.
package chart

import (
	"math"

	"github.com/npillmayer/schuko/tracing"
	"github.com/san-kum/polysphere/internal/dynamo"
	"github.com/san-kum/polysphere/internal/solve"
)

func tracer() tracing.Trace {
	return tracing.Select("polysphere.chart")
}

// slack absorbs round-off on the chart domain boundaries.
const slack = 1e-9

// Atlas holds the coordinate maps of one sphere. It carries no mutable state
// and may be shared between sessions.
type Atlas struct {
	sphere dynamo.Sphere
	p, q   int
}

func New(sphere dynamo.Sphere) *Atlas {
	p, q := sphere.Weights()
	return &Atlas{sphere: sphere, p: p, q: q}
}

func (a *Atlas) Sphere() dynamo.Sphere {
	return a.sphere
}

// Weights returns (p,q); (1,1) on the Poincaré sphere.
func (a *Atlas) Weights() (int, int) {
	return a.p, a.q
}

func (a *Atlas) lyapunov() bool {
	return a.sphere.Kind == dynamo.PoincareLyapunov
}

// R2ToSphere maps a point of the plane onto the sphere.
func (a *Atlas) R2ToSphere(x, y float64) dynamo.Point {
	if !a.lyapunov() {
		n := math.Sqrt(1 + x*x + y*y)
		return dynamo.Point{x / n, y / n, 1 / n}
	}
	if x*x+y*y < 1 {
		return dynamo.Point{0, x, y}
	}

	// u = r² solves x²·u^p + y²·u^q = 1 on [0,1]
	p, q := float64(a.p), float64(a.q)
	f := func(u float64) float64 {
		return x*x*math.Pow(u, p) + y*y*math.Pow(u, q) - 1
	}
	df := func(u float64) float64 {
		return p*x*x*math.Pow(u, p-1) + q*y*y*math.Pow(u, q-1)
	}
	u, err := solve.FindRoot(f, df, 0, 1)
	if err != nil {
		tracer().P("x", x).P("y", y).Errorf("no radius for plane point: %v", err)
		return dynamo.Point{1, 0, math.Atan2(y, x)}
	}
	r := math.Sqrt(u)
	return dynamo.Point{1, r, math.Atan2(y*math.Pow(r, q), x*math.Pow(r, p))}
}

// SphereToR2 is the inverse of R2ToSphere. It fails for points at infinity.
func (a *Atlas) SphereToR2(pt dynamo.Point) (dynamo.Vec2, bool) {
	if !a.lyapunov() {
		if pt[2] <= 0 {
			return dynamo.Vec2{}, false
		}
		return dynamo.Vec2{pt[0] / pt[2], pt[1] / pt[2]}, true
	}
	if pt.Finite() {
		return dynamo.Vec2{pt[1], pt[2]}, true
	}
	r, th := pt[1], pt[2]
	if r <= 0 {
		return dynamo.Vec2{}, false
	}
	return dynamo.Vec2{
		math.Cos(th) / math.Pow(r, float64(a.p)),
		math.Sin(th) / math.Pow(r, float64(a.q)),
	}, true
}

// Plane continues a chart point analytically into the real plane. Unlike
// ChartToSphere it accepts z2 < 0, which is how an orbit crossing the circle
// at infinity reaches the opposite side.
func (a *Atlas) Plane(c dynamo.Chart, z dynamo.Vec2) (float64, float64, bool) {
	if c == dynamo.R2 {
		return z[0], z[1], true
	}
	if z[1] == 0 {
		return 0, 0, false
	}
	s := c.Sign()
	zp := ipow(z[1], a.p)
	zq := ipow(z[1], a.q)
	if c.Axis() == 1 {
		return s / zp, s * z[0] / zq, true
	}
	return s * z[0] / zp, s / zq, true
}

// ChartToSphere maps a local chart coordinate with z2 ≥ 0 onto the sphere.
func (a *Atlas) ChartToSphere(c dynamo.Chart, z dynamo.Vec2) dynamo.Point {
	if c == dynamo.R2 {
		return a.R2ToSphere(z[0], z[1])
	}
	s := c.Sign()
	if !a.lyapunov() {
		n := math.Sqrt(1 + z[0]*z[0] + z[1]*z[1])
		if c.Axis() == 1 {
			return dynamo.Point{s / n, s * z[0] / n, z[1] / n}
		}
		return dynamo.Point{s * z[0] / n, s / n, z[1] / n}
	}

	if z[1] > 0 {
		if x, y, ok := a.Plane(c, z); ok && x*x+y*y < 1 {
			return dynamo.Point{0, x, y}
		}
	}

	// With w = r/z2 the chart equations become cos φ = w^a,
	// sin φ = z1·w^b; solve sin φ = z1·cos^(b/a) φ for φ.
	wa, wb := float64(a.p), float64(a.q)
	if c.Axis() == 2 {
		wa, wb = wb, wa
	}
	phi := angle(z[0], wb/wa)
	r := z[1] * math.Pow(math.Cos(phi), 1/wa)
	if c.Axis() == 1 {
		return dynamo.Point{1, r, math.Atan2(s*math.Sin(phi), s*math.Cos(phi))}
	}
	return dynamo.Point{1, r, math.Atan2(s*math.Cos(phi), s*math.Sin(phi))}
}

// angle solves sin φ = z1·cos^e φ on [−π/2, π/2].
func angle(z1, e float64) float64 {
	if z1 == 0 {
		return 0
	}
	f := func(t float64) float64 {
		return math.Sin(t) - z1*math.Pow(math.Cos(t), e)
	}
	df := func(t float64) float64 {
		return math.Cos(t) + z1*e*math.Pow(math.Cos(t), e-1)*math.Sin(t)
	}
	phi, err := solve.FindRoot(f, df, -math.Pi/2, math.Pi/2)
	if err != nil {
		tracer().P("z1", z1).Errorf("chart angle: %v", err)
		return math.Copysign(math.Pi/2, z1)
	}
	return phi
}

// SphereToChart expresses a sphere point in chart c. It fails when the point
// lies on the half of the sphere that c does not cover.
func (a *Atlas) SphereToChart(c dynamo.Chart, pt dynamo.Point) (dynamo.Vec2, bool) {
	if c == dynamo.R2 {
		return a.SphereToR2(pt)
	}
	return a.chartCoords(c, pt, false)
}

// chartCoords computes chart coordinates. When continued is set the opposite
// half is reached through a real odd root, giving z2 < 0.
func (a *Atlas) chartCoords(c dynamo.Chart, pt dynamo.Point, continued bool) (dynamo.Vec2, bool) {
	s := c.Sign()
	if !a.lyapunov() {
		lead, other := pt[0], pt[1]
		if c.Axis() == 2 {
			lead, other = other, lead
		}
		if lead == 0 || (s*lead < 0 && !continued) {
			return dynamo.Vec2{}, false
		}
		return dynamo.Vec2{other / lead, pt[2] / (s * lead)}, true
	}

	wa, wb := a.p, a.q
	if c.Axis() == 2 {
		wa, wb = wb, wa
	}

	if pt.Finite() {
		lead, other := pt[1], pt[2]
		if c.Axis() == 2 {
			lead, other = other, lead
		}
		t := s * lead
		if t == 0 || (t < 0 && (!continued || wa%2 == 0)) {
			return dynamo.Vec2{}, false
		}
		z2 := 1 / oddRoot(t, wa)
		return dynamo.Vec2{s * other * ipow(z2, wb), z2}, true
	}

	r, th := pt[1], pt[2]
	lead, other := math.Cos(th), math.Sin(th)
	if c.Axis() == 2 {
		lead, other = other, lead
	}
	t := s * lead
	if t == 0 || (t < 0 && (!continued || wa%2 == 0)) {
		return dynamo.Vec2{}, false
	}
	w := oddRoot(t, wa)
	return dynamo.Vec2{s * other / ipow(w, wb), r / w}, true
}

// Preferred returns the chart a sphere point is best integrated in: R2 inside
// the unit disk, otherwise the infinity chart in which |z1| ≤ 1.
func (a *Atlas) Preferred(pt dynamo.Point) dynamo.Chart {
	if !a.lyapunov() {
		if pt[2]*pt[2] > 0.5 {
			return dynamo.R2
		}
		return pick(pt[0], pt[1], math.Abs(pt[1]) <= math.Abs(pt[0]))
	}
	if pt.Finite() {
		return dynamo.R2
	}
	c, s := math.Cos(pt[2]), math.Sin(pt[2])
	first := math.Abs(s) <= math.Pow(math.Abs(c), float64(a.q)/float64(a.p))
	return pick(c, s, first)
}

func pick(lead1, lead2 float64, first bool) dynamo.Chart {
	if first {
		if lead1 >= 0 {
			return dynamo.U1
		}
		return dynamo.V1
	}
	if lead2 >= 0 {
		return dynamo.U2
	}
	return dynamo.V2
}

// InDomain reports whether z lies in the integration domain of chart c.
func (a *Atlas) InDomain(c dynamo.Chart, z dynamo.Vec2) bool {
	if !z.IsValid() {
		return false
	}
	if c == dynamo.R2 {
		return z[0]*z[0]+z[1]*z[1] < 1
	}
	if z[1] < 0 || math.Abs(z[0]) > 1+slack {
		return false
	}
	if z[1] == 0 {
		return true
	}
	x, y, _ := a.Plane(c, z)
	return x*x+y*y >= 1-slack
}

func ipow(x float64, n int) float64 {
	return math.Pow(x, float64(n))
}

// oddRoot is the real n-th root of t; for negative t, n must be odd.
func oddRoot(t float64, n int) float64 {
	if n == 1 {
		return t
	}
	if t < 0 {
		return -math.Pow(-t, 1/float64(n))
	}
	return math.Pow(t, 1/float64(n))
}
