package field

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// epsilon is the magnitude below which a coefficient counts as zero.
const epsilon = 1e-12

// Term is the monomial C·x^I·y^J. In a chart polynomial x stands for z1 and
// y for z2.
type Term struct {
	C    float64
	I, J int
}

// Poly is a sparse polynomial in two variables.
type Poly []Term

// P is a quick notation for building a polynomial from (c, i, j) triples.
func P(triples ...[3]float64) Poly {
	p := make(Poly, 0, len(triples))
	for _, t := range triples {
		p = append(p, Term{C: t[0], I: int(t[1]), J: int(t[2])})
	}
	return p.Zap()
}

func (p Poly) Eval(x, y float64) float64 {
	sum := 0.0
	for _, t := range p {
		sum += t.C * math.Pow(x, float64(t.I)) * math.Pow(y, float64(t.J))
	}
	return sum
}

// IsZero reports whether p has no non-vanishing term.
func (p Poly) IsZero() bool {
	return len(p.Zap()) == 0
}

// Degree is the total degree, −1 for the zero polynomial.
func (p Poly) Degree() int {
	d := -1
	for _, t := range p {
		if t.I+t.J > d {
			d = t.I + t.J
		}
	}
	return d
}

// WeightedDegree is max(p·I + q·J) over the terms; false for the zero polynomial.
func (p Poly) WeightedDegree(wp, wq int) (int, bool) {
	if len(p) == 0 {
		return 0, false
	}
	d := wp*p[0].I + wq*p[0].J
	for _, t := range p[1:] {
		d = max(d, wp*t.I+wq*t.J)
	}
	return d, true
}

// Zap merges equal monomials, drops vanishing coefficients and sorts the
// terms by exponent.
func (p Poly) Zap() Poly {
	acc := make(map[[2]int]float64, len(p))
	for _, t := range p {
		acc[[2]int{t.I, t.J}] += t.C
	}
	out := make(Poly, 0, len(acc))
	for k, c := range acc {
		if math.Abs(c) > epsilon {
			out = append(out, Term{C: c, I: k[0], J: k[1]})
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].J != out[b].J {
			return out[a].J < out[b].J
		}
		return out[a].I < out[b].I
	})
	return out
}

func (p Poly) Add(o Poly) Poly {
	sum := make(Poly, 0, len(p)+len(o))
	sum = append(sum, p...)
	sum = append(sum, o...)
	return sum.Zap()
}

func (p Poly) Scale(c float64) Poly {
	out := make(Poly, len(p))
	for k, t := range p {
		out[k] = Term{C: c * t.C, I: t.I, J: t.J}
	}
	return out.Zap()
}

// MulMonomial multiplies p by c·x^i·y^j.
func (p Poly) MulMonomial(c float64, i, j int) Poly {
	out := make(Poly, len(p))
	for k, t := range p {
		out[k] = Term{C: c * t.C, I: t.I + i, J: t.J + j}
	}
	return out.Zap()
}

// DivisibleByY reports whether every term carries a factor y.
func (p Poly) DivisibleByY() bool {
	for _, t := range p {
		if t.J < 1 {
			return false
		}
	}
	return true
}

// DivY removes one factor y; p must be DivisibleByY.
func (p Poly) DivY() Poly {
	out := make(Poly, len(p))
	for k, t := range p {
		out[k] = Term{C: t.C, I: t.I, J: t.J - 1}
	}
	return out
}

// Format prints p with the given variable names, e.g. "2·x^2 - y".
func (p Poly) Format(x, y string) string {
	if len(p) == 0 {
		return "0"
	}
	var b strings.Builder
	for k, t := range p {
		c := t.C
		switch {
		case k == 0 && c < 0:
			b.WriteString("-")
			c = -c
		case k > 0 && c < 0:
			b.WriteString(" - ")
			c = -c
		case k > 0:
			b.WriteString(" + ")
		}
		mono := monomial(x, t.I) + monomial(y, t.J)
		switch {
		case mono == "":
			fmt.Fprintf(&b, "%g", c)
		case c == 1:
			b.WriteString(strings.TrimPrefix(mono, "·"))
		default:
			fmt.Fprintf(&b, "%g%s", c, mono)
		}
	}
	return b.String()
}

func (p Poly) String() string {
	return p.Format("x", "y")
}

func monomial(v string, e int) string {
	switch e {
	case 0:
		return ""
	case 1:
		return "·" + v
	}
	return fmt.Sprintf("·%s^%d", v, e)
}
