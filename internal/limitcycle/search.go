package limitcycle

import (
	"errors"
	"math"

	"github.com/san-kum/polysphere/internal/dynamo"
	"github.com/san-kum/polysphere/internal/orbit"
)

const (
	// levelTol ends the refinement of a crossing.
	levelTol = 1e-8
	// maxBisect bounds the halvings spent on one crossing.
	maxBisect = 200
)

// Options tune a search.
type Options struct {
	// MaxReturns is the number of crossings of the section line a shot may
	// make before it is given up.
	MaxReturns int
	// StepsPerShot bounds the steps between two crossings.
	StepsPerShot int
}

func DefaultOptions() Options {
	return Options{MaxReturns: 8, StepsPerShot: 2000}
}

// Displacement is the return map displacement at one grid point, measured
// along the section. NaN means the shot never came back.
type Displacement struct {
	D        float64
	Forward  float64
	Backward float64
}

// Cycle is a detected limit cycle. X,Y is the point recorded on the section
// and Curve one traced loop through it.
type Cycle struct {
	X, Y     float64
	Point    dynamo.Point
	Curve    *orbit.Curve
	Backward bool
}

// Result is the outcome of a search. Finding no cycle is not an error.
type Result struct {
	Cycles        []Cycle
	Displacements []Displacement
	Aborted       bool
}

type shot struct {
	ret dynamo.Point
	d   float64
	ok  bool
}

type searcher struct {
	sess  *orbit.Session
	sec   Section
	opts  Options
	stop  dynamo.Canceller
	steps int
}

// Search marches along sec and shoots an orbit forward and backward from
// every grid point until it returns to the section. A sign change of the
// displacement between two adjacent grid points brackets a fixed point of the
// return map; the midpoint of the two return points is recorded as a cycle
// and traced for one loop. The canceller is polled every PollEvery steps of
// the session configuration; a stop drops the current grid point and returns
// with Aborted set.
func Search(sess *orbit.Session, sec Section, opts Options, canceller dynamo.Canceller, progress dynamo.Progress) (Result, error) {
	def := DefaultOptions()
	if opts.MaxReturns <= 0 {
		opts.MaxReturns = def.MaxReturns
	}
	if opts.StepsPerShot <= 0 {
		opts.StepsPerShot = def.StepsPerShot
	}
	s := &searcher{sess: sess, sec: sec, opts: opts, stop: canceller}
	res := Result{}

	var prev, cur [2]shot
	n := sec.Points()
	for k := 0; k < n; k++ {
		d0 := float64(k) * sec.Grid
		x, y := sec.At(d0)
		disp := Displacement{D: d0, Forward: math.NaN(), Backward: math.NaN()}
		for i, dir := range [2]int{1, -1} {
			sh, err := s.shoot(x, y, dir, nil)
			if errors.Is(err, dynamo.ErrCanceled) {
				res.Aborted = true
				tracer().P("grid", k).Infof("search stopped")
				return res, nil
			}
			if err != nil {
				return res, err
			}
			cur[i] = sh
		}
		if cur[0].ok {
			disp.Forward = cur[0].d - d0
		}
		if cur[1].ok {
			disp.Backward = cur[1].d - d0
		}
		if k > 0 {
			last := res.Displacements[k-1]
			for i, pair := range [2][2]float64{{last.Forward, disp.Forward}, {last.Backward, disp.Backward}} {
				if !prev[i].ok || !cur[i].ok || (pair[0] < 0) == (pair[1] < 0) {
					continue
				}
				aborted, err := s.record(&res, prev[i].ret, cur[i].ret, i == 1)
				if err != nil {
					return res, err
				}
				if aborted {
					res.Aborted = true
					return res, nil
				}
			}
		}
		res.Displacements = append(res.Displacements, disp)
		prev = cur
		if progress != nil {
			progress.Report(k + 1)
		}
	}
	tracer().P("cycles", len(res.Cycles)).Infof("search done")
	return res, nil
}

// record stores the cycle between two return points unless one was already
// found within a grid spacing.
func (s *searcher) record(res *Result, a, b dynamo.Point, backward bool) (bool, error) {
	atlas := s.sess.Atlas()
	pa, okA := atlas.SphereToR2(a)
	pb, okB := atlas.SphereToR2(b)
	if !okA || !okB {
		tracer().Debugf("return point at infinity, no cycle recorded")
		return false, nil
	}
	x, y := (pa[0]+pb[0])/2, (pa[1]+pb[1])/2
	for _, c := range res.Cycles {
		if math.Hypot(c.X-x, c.Y-y) < s.sec.Grid {
			return false, nil
		}
	}
	curve := &orbit.Curve{Kind: orbit.KindLimitCycle}
	if _, err := s.shoot(x, y, 1, curve); err != nil {
		if errors.Is(err, dynamo.ErrCanceled) {
			return true, nil
		}
		return false, err
	}
	tracer().P("x", x).P("y", y).P("backward", backward).Infof("limit cycle")
	res.Cycles = append(res.Cycles, Cycle{
		X: x, Y: y,
		Point:    atlas.R2ToSphere(x, y),
		Curve:    curve,
		Backward: backward,
	})
	return false, nil
}

// shoot integrates from the plane point (x,y) until the orbit crosses the
// section line at a point of the section. Crossings elsewhere on the line are
// counted against MaxReturns. A non-nil curve receives every point of the
// shot.
func (s *searcher) shoot(x, y float64, dir int, curve *orbit.Curve) (shot, error) {
	atlas := s.sess.Atlas()
	sp := atlas.Sphere()
	w, err := s.sess.NewWalker(atlas.R2ToSphere(x, y), dir, dynamo.ColorLimitCycle)
	if err != nil {
		return shot{}, err
	}
	if curve != nil {
		s.sess.Append(curve, w.Point(false))
	}

	prevL := math.NaN()
	for crossings := 0; crossings < s.opts.MaxReturns; {
		crossed := false
		for n := 0; n < s.opts.StepsPerShot; n++ {
			if s.poll() {
				return shot{}, dynamo.ErrCanceled
			}
			before := w.Clone()
			pt, err := w.Step()
			if err != nil {
				tracer().Debugf("shot ended: %v", err)
				return shot{}, nil
			}
			l := s.sec.Level(sp, pt.P)
			if math.IsNaN(prevL) || (l != 0 && (l < 0) == (prevL < 0)) {
				prevL = l
				if curve != nil {
					s.sess.Append(curve, pt)
				}
				continue
			}
			ret := s.refine(before, prevL, w.LastStep())
			prevL = l
			crossed = true
			if d, ok := s.sec.onSection(atlas, ret.P); ok {
				if curve != nil {
					s.sess.Append(curve, ret)
				}
				return shot{ret: ret.P, d: d, ok: true}, nil
			}
			if curve != nil {
				s.sess.Append(curve, pt)
			}
			break
		}
		if !crossed {
			return shot{}, nil
		}
		crossings++
	}
	return shot{}, nil
}

// refine halves the last step taken from base until the section line is hit
// within levelTol or the step drops below the minimum step. lb is the level
// at base.
func (s *searcher) refine(base *orbit.Walker, lb, h float64) orbit.Point {
	sp := s.sess.Atlas().Sphere()
	hmin := s.sess.Config().MinStep
	best, bestL := base.Point(true), math.Abs(lb)
	for i := 0; i < maxBisect && h > hmin; i++ {
		h /= 2
		fork := base.Clone()
		pt, err := fork.StepWith(h)
		if err != nil {
			break
		}
		l := s.sec.Level(sp, pt.P)
		if math.Abs(l) < bestL {
			best, bestL = pt, math.Abs(l)
		}
		if math.Abs(l) <= levelTol {
			break
		}
		if (l < 0) == (lb < 0) {
			base, lb = fork, l
		}
	}
	return best
}

func (s *searcher) poll() bool {
	every := s.sess.Config().PollEvery
	if s.stop == nil || every <= 0 {
		return false
	}
	s.steps++
	if s.steps < every {
		return false
	}
	s.steps = 0
	return s.stop.Poll()
}
