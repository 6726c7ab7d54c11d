package integrators

import (
	"math"

	"github.com/npillmayer/schuko/tracing"
	"github.com/san-kum/polysphere/internal/dynamo"
)

func tracer() tracing.Trace {
	return tracing.Select("polysphere.integrators")
}

// Fehlberg 7(8) coefficients
var (
	beta = [13][12]float64{
		{},
		{2.0 / 27.0},
		{1.0 / 36.0, 1.0 / 12.0},
		{1.0 / 24.0, 0, 1.0 / 8.0},
		{5.0 / 12.0, 0, -25.0 / 16.0, 25.0 / 16.0},
		{1.0 / 20.0, 0, 0, 1.0 / 4.0, 1.0 / 5.0},
		{-25.0 / 108.0, 0, 0, 125.0 / 108.0, -65.0 / 27.0, 125.0 / 54.0},
		{31.0 / 300.0, 0, 0, 0, 61.0 / 225.0, -2.0 / 9.0, 13.0 / 900.0},
		{2, 0, 0, -53.0 / 6.0, 704.0 / 45.0, -107.0 / 9.0, 67.0 / 90.0, 3},
		{-91.0 / 108.0, 0, 0, 23.0 / 108.0, -976.0 / 135.0, 311.0 / 54.0, -19.0 / 60.0, 17.0 / 6.0, -1.0 / 12.0},
		{2383.0 / 4100.0, 0, 0, -341.0 / 164.0, 4496.0 / 1025.0, -301.0 / 82.0, 2133.0 / 4100.0, 45.0 / 82.0, 45.0 / 164.0, 18.0 / 41.0},
		{3.0 / 205.0, 0, 0, 0, 0, -6.0 / 41.0, -3.0 / 205.0, -3.0 / 41.0, 3.0 / 41.0, 6.0 / 41.0, 0},
		{-1777.0 / 4100.0, 0, 0, -341.0 / 164.0, 4496.0 / 1025.0, -289.0 / 82.0, 2193.0 / 4100.0, 51.0 / 82.0, 33.0 / 164.0, 12.0 / 41.0, 0, 1},
	}

	c7 = [13]float64{
		41.0 / 840.0, 0, 0, 0, 0, 34.0 / 105.0, 9.0 / 35.0, 9.0 / 35.0,
		9.0 / 280.0, 9.0 / 280.0, 41.0 / 840.0, 0, 0,
	}

	c8 = [13]float64{
		0, 0, 0, 0, 0, 34.0 / 105.0, 9.0 / 35.0, 9.0 / 35.0,
		9.0 / 280.0, 9.0 / 280.0, 0, 41.0 / 840.0, 41.0 / 840.0,
	}
)

const (
	safety      = 0.9
	errExponent = 1.0 / 8.0
)

// Deriv is an autonomous planar vector field.
type Deriv func(y dynamo.Vec2) dynamo.Vec2

// Stats counts the work done by an RK78 stepper.
type Stats struct {
	Accepted    int
	Rejected    int
	Degraded    int
	Evaluations int
}

// RK78 is an adaptive embedded Runge-Kutta-Fehlberg 7(8) stepper.
type RK78 struct {
	k     [13]dynamo.Vec2
	Stats Stats
	// Last is the signed step actually taken by the most recent call.
	Last float64
}

func NewRK78() *RK78 {
	return &RK78{}
}

// Step advances y by one adaptively chosen step. The sign of h selects the
// time direction. It returns the order-8 state and the signed step to use next,
// with hmin ≤ |h| ≤ hmax. A step forced through at hmin above tolerance
// returns dynamo.ErrDegradedStep; a state that stays non-finite at hmin is
// returned unchanged with dynamo.ErrNonFinite.
func (r *RK78) Step(f Deriv, y dynamo.Vec2, h, hmin, hmax, tol float64) (dynamo.Vec2, float64, error) {
	dir := 1.0
	if h < 0 {
		dir = -1
	}
	habs := clamp(math.Abs(h), hmin, hmax)

	var stepErr error
	// every rejection shrinks |h| by at least the safety factor, so the
	// loop ends at hmin at the latest
	for {
		hs := dir * habs
		y7, y8, fsum := r.stages(f, y, hs)

		if !y8.IsValid() || !y7.IsValid() {
			if habs <= hmin {
				r.Last = 0
				return y, dir * hmin, dynamo.ErrNonFinite
			}
			tracer().P("h", hs).Debugf("non-finite candidate, retrying at hmin")
			habs = hmin
			r.Stats.Rejected++
			continue
		}

		d := (math.Abs(y8[0]-y7[0]) + math.Abs(y8[1]-y7[1])) / 2
		if habs <= hmin || d < tol*(1+100*fsum) {
			if d >= tol*(1+100*fsum) {
				r.Stats.Degraded++
				stepErr = dynamo.ErrDegradedStep
			}
			r.Stats.Accepted++
			r.Last = hs
			return y8, dir * clamp(habs*growth(tol, d), hmin, hmax), stepErr
		}

		r.Stats.Rejected++
		shrunk := habs * growth(tol, d)
		if shrunk >= habs {
			shrunk = habs * safety
		}
		habs = math.Max(shrunk, hmin)
	}
}

func (r *RK78) stages(f Deriv, y dynamo.Vec2, h float64) (y7, y8 dynamo.Vec2, fsum float64) {
	for i := 0; i < 13; i++ {
		yi := y
		for j := 0; j < i; j++ {
			b := beta[i][j]
			if b == 0 {
				continue
			}
			yi[0] += h * b * r.k[j][0]
			yi[1] += h * b * r.k[j][1]
		}
		r.k[i] = f(yi)
		r.Stats.Evaluations++
	}

	y7, y8 = y, y
	for i := 0; i < 13; i++ {
		y7[0] += h * c7[i] * r.k[i][0]
		y7[1] += h * c7[i] * r.k[i][1]
		y8[0] += h * c8[i] * r.k[i][0]
		y8[1] += h * c8[i] * r.k[i][1]
	}
	fsum = math.Abs(r.k[0][0]) + math.Abs(r.k[0][1])
	return y7, y8, fsum
}

// growth is the step scale factor 0.9·(tol/d)^(1/8).
func growth(tol, d float64) float64 {
	if d == 0 {
		return math.Inf(1)
	}
	return safety * math.Pow(tol/d, errExponent)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
