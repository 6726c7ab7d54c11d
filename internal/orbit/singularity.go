package orbit

import (
	"fmt"
	"strings"

	"github.com/san-kum/polysphere/internal/chart"
	"github.com/san-kum/polysphere/internal/dynamo"
	"github.com/san-kum/polysphere/internal/field"
)

// Kind is the class of a singular point. Classification happens elsewhere;
// the kind only tells which branch data a singularity carries.
type Kind int

const (
	Saddle Kind = iota
	Node
	SemiElementary
	Degenerate
	WeakFocus
	StrongFocus
)

var kindNames = [...]string{"saddle", "node", "semi-elementary", "degenerate", "weak-focus", "strong-focus"}

func (k Kind) String() string {
	if k < Saddle || k > StrongFocus {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

func ParseKind(s string) (Kind, error) {
	for i, n := range kindNames {
		if strings.EqualFold(n, s) {
			return Kind(i), nil
		}
	}
	return Saddle, fmt.Errorf("unknown singularity kind: %q", s)
}

// Singularity is a singular point with the local data of its branches.
// Saddles and semi-elementary points carry Separatrices, degenerate points
// carry BlowUps.
type Singularity struct {
	Kind   Kind
	X0, Y0 float64
	Chart  dynamo.Chart
	// Matrix (a11 a12 a21 a22) maps local (u,v) to chart offsets; the zero
	// matrix stands for the identity.
	Matrix       [4]float64
	Separatrices []Separatrix
	BlowUps      []BlowUp
}

// Separatrix is one branch leaving a singular point, parametrised locally
// as v = Σ Coeffs[k]·u^k.
type Separatrix struct {
	Type dynamo.SepType
	// Direction is the sign of u along the branch.
	Direction float64
	Coeffs    []float64
	// SwapAxes exchanges u and v before the matrix is applied.
	SwapAxes bool
	// NotAdmissible branches are skipped.
	NotAdmissible bool
}

// Transform is one blow-up substitution
// (x,y) → (X0 + C1·x^D1·y^D2, Y0 + C2·x^D3·y^D4).
type Transform struct {
	X0, Y0         float64
	C1, C2         float64
	D1, D2, D3, D4 int
}

func (t Transform) Apply(x, y float64) (float64, float64) {
	return t.X0 + t.C1*ipow(x, t.D1)*ipow(y, t.D2),
		t.Y0 + t.C2*ipow(x, t.D3)*ipow(y, t.D4)
}

// BlowUp is a separatrix branch of a degenerate point, integrated in
// blown-up coordinates (u,v) with the local field (P,Q).
type BlowUp struct {
	Transforms []Transform
	P, Q       field.Poly
	Coeffs     []float64
	Type       dynamo.SepType
	Direction  float64
}

var identity = [4]float64{1, 0, 0, 1}

func (s *Singularity) matrix() [4]float64 {
	if s.Matrix == ([4]float64{}) {
		return identity
	}
	return s.Matrix
}

// Local maps local coordinates to chart coordinates of s.Chart.
func (s *Singularity) Local(u, v float64) dynamo.Vec2 {
	m := s.matrix()
	return dynamo.Vec2{s.X0 + m[0]*u + m[1]*v, s.Y0 + m[2]*u + m[3]*v}
}

// Point is the singular point on the sphere.
func (s *Singularity) Point(a *chart.Atlas) dynamo.Point {
	return a.ChartToSphere(s.Chart, dynamo.Vec2{s.X0, s.Y0})
}

// Branch evaluates the local parametrisation of sep at u.
func (sep *Separatrix) Branch(u float64) (float64, float64) {
	v := series(sep.Coeffs, u)
	if sep.SwapAxes {
		return v, u
	}
	return u, v
}

// Map carries blown-up coordinates back through the transformation chain to
// the local coordinates of the singular point.
func (b *BlowUp) Map(x, y float64) (float64, float64) {
	for _, t := range b.Transforms {
		x, y = t.Apply(x, y)
	}
	return x, y
}

func series(c []float64, u float64) float64 {
	v := 0.0
	for k := len(c) - 1; k >= 0; k-- {
		v = v*u + c[k]
	}
	return v
}

func ipow(x float64, n int) float64 {
	r := 1.0
	for ; n > 0; n-- {
		r *= x
	}
	return r
}
