// Package solve holds the scalar root finder used by the chart conversions.
package solve

import (
	"fmt"
	"math"

	"github.com/npillmayer/schuko/tracing"
	"github.com/san-kum/polysphere/internal/dynamo"
)

func tracer() tracing.Trace {
	return tracing.Select("polysphere.solve")
}

const (
	coarseTol = 0.01
	newtonTol = 1e-8
	maxFalsi  = 100
	maxNewton = 100
)

// FindRoot locates a zero of f inside [lo, hi]. It narrows the bracket by
// bisection and then regula falsi, both to 0.01, and polishes the estimate with
// Newton's method using df to 1e-8. A Newton step that leaves the bracket, or a
// vanishing derivative, is replaced by a bisection step.
//
// The bracket must change sign; otherwise dynamo.ErrNoBracket is returned.
func FindRoot(f, df func(float64) float64, lo, hi float64) (float64, error) {
	if lo > hi {
		lo, hi = hi, lo
	}
	flo, fhi := f(lo), f(hi)
	switch {
	case flo == 0:
		return lo, nil
	case fhi == 0:
		return hi, nil
	case math.IsNaN(flo) || math.IsNaN(fhi) || flo*fhi > 0:
		return 0, fmt.Errorf("%w: f(%g)=%g, f(%g)=%g", dynamo.ErrNoBracket, lo, flo, hi, fhi)
	}

	b := bracket{lo: lo, hi: hi, flo: flo, fhi: fhi}

	for b.hi-b.lo > coarseTol {
		mid := (b.lo + b.hi) / 2
		fm := f(mid)
		if fm == 0 {
			return mid, nil
		}
		b.narrow(mid, fm)
	}

	x := (b.lo + b.hi) / 2
	for i := 0; i < maxFalsi; i++ {
		next := b.falsi()
		fn := f(next)
		if fn == 0 {
			return next, nil
		}
		b.narrow(next, fn)
		done := math.Abs(next-x) < coarseTol
		x = next
		if done {
			break
		}
	}

	for i := 0; i < maxNewton; i++ {
		fx := f(x)
		if fx == 0 {
			return x, nil
		}
		b.narrow(x, fx)
		d := df(x)
		next := x - fx/d
		if d == 0 || math.IsInf(d, 0) || math.IsNaN(next) || next <= b.lo || next >= b.hi {
			next = (b.lo + b.hi) / 2
		}
		if math.Abs(next-x) < newtonTol || b.hi-b.lo < newtonTol {
			return next, nil
		}
		x = next
	}
	tracer().P("x", x).Debugf("newton did not settle, returning best estimate")
	return x, nil
}

// bracket is an interval whose end values have opposite signs.
type bracket struct {
	lo, hi   float64
	flo, fhi float64
}

func (b *bracket) narrow(x, fx float64) {
	if x < b.lo || x > b.hi {
		return
	}
	if (fx < 0) == (b.flo < 0) {
		b.lo, b.flo = x, fx
	} else {
		b.hi, b.fhi = x, fx
	}
}

func (b *bracket) falsi() float64 {
	x := b.hi - b.fhi*(b.hi-b.lo)/(b.fhi-b.flo)
	if x <= b.lo || x >= b.hi || math.IsNaN(x) {
		return (b.lo + b.hi) / 2
	}
	return x
}
