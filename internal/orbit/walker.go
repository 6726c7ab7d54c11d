package orbit

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/polysphere/internal/dynamo"
	"github.com/san-kum/polysphere/internal/integrators"
)

// State is the phase of a walker.
type State int

const (
	StateIdle State = iota
	StateStepping
	StateChartTransition
	StateBlowUp
	StateDone
	StateError
)

var stateNames = [...]string{"idle", "stepping", "chart-transition", "blow-up", "done", "error"}

func (s State) String() string {
	if s < StateIdle || s > StateError {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Walker carries one trajectory from chart to chart. A Walker is a plain
// value: copying it forks the trajectory.
type Walker struct {
	sess  *Session
	rk    integrators.RK78
	chart dynamo.Chart
	z     dynamo.Vec2
	dir   int
	h     float64
	hmin  float64
	typ   dynamo.SepType
	color dynamo.Color
	// byType keeps the colour in step with the separatrix type
	byType bool
	gcf    int
	blow   *blowPhase
	state  State
	steps  int
	// Degraded counts steps accepted above tolerance at the minimum step.
	Degraded int
}

// NewWalker starts a trajectory at a sphere point in the preferred chart.
func (s *Session) NewWalker(start dynamo.Point, dir int, color dynamo.Color) (*Walker, error) {
	c := s.atlas.Preferred(start)
	z, ok := s.atlas.SphereToChart(c, start)
	if !ok {
		return nil, fmt.Errorf("%w: start point %v has no coordinates in %s", dynamo.ErrInvalidConfig, start, c)
	}
	return s.walkerAt(c, z, dir, color, s.cfg.MinStep), nil
}

func (s *Session) walkerAt(c dynamo.Chart, z dynamo.Vec2, dir int, color dynamo.Color, hmin float64) *Walker {
	w := &Walker{
		sess:  s,
		chart: c,
		z:     z,
		dir:   sign(dir),
		h:     s.cfg.Step,
		hmin:  hmin,
		color: color,
		gcf:   s.field.GCFSign(c, z),
	}
	if w.gcf == 0 {
		w.gcf = 1
	}
	if !s.atlas.InDomain(c, z) {
		w.transition()
	}
	w.state = StateIdle
	return w
}

// withType makes the walker follow a separatrix branch of type t.
func (w *Walker) withType(t dynamo.SepType) *Walker {
	w.typ = t
	w.color = t.Color()
	w.byType = true
	return w
}

func (w *Walker) Chart() dynamo.Chart      { return w.chart }
func (w *Walker) Local() dynamo.Vec2       { return w.z }
func (w *Walker) Dir() int                 { return w.dir }
func (w *Walker) H() float64               { return w.h }
func (w *Walker) State() State             { return w.state }
func (w *Walker) Type() dynamo.SepType     { return w.typ }
func (w *Walker) Steps() int               { return w.steps }
func (w *Walker) Stats() integrators.Stats { return w.rk.Stats }

// LastStep is the magnitude of the step taken by the most recent call.
func (w *Walker) LastStep() float64 { return math.Abs(w.rk.Last) }

// Clone forks the trajectory.
func (w *Walker) Clone() *Walker {
	c := *w
	if w.blow != nil {
		bp := *w.blow
		c.blow = &bp
	}
	return &c
}

// Sphere returns the current point on the sphere.
func (w *Walker) Sphere() dynamo.Point {
	return w.sess.atlas.ChartToSphere(w.chart, w.z)
}

// Point returns the current point as a curve element.
func (w *Walker) Point(dashes bool) Point {
	return Point{P: w.Sphere(), Color: w.color, Dashes: dashes, Dir: w.dir, Type: w.typ}
}

// Step takes one adaptive step.
func (w *Walker) Step() (Point, error) {
	return w.advance(w.h, w.hmin, w.sess.cfg.MaxStep)
}

// StepWith takes one step of exactly |h| in the walker's direction.
func (w *Walker) StepWith(h float64) (Point, error) {
	h = math.Abs(h)
	return w.advance(h, h, h)
}

func (w *Walker) advance(h, hmin, hmax float64) (Point, error) {
	if w.blow != nil {
		return w.blowStep(h, hmin, hmax)
	}
	w.state = StateStepping
	f := func(y dynamo.Vec2) dynamo.Vec2 {
		return w.sess.field.Integrand(w.chart, y)
	}
	z, next, err := w.rk.Step(f, w.z, float64(w.dir)*h, hmin, hmax, w.sess.cfg.Tolerance)
	switch {
	case errors.Is(err, dynamo.ErrNonFinite):
		w.state = StateError
		return Point{}, &dynamo.IntegrationError{Step: w.steps, Chart: w.chart, Point: w.Sphere(), Wrapped: err}
	case errors.Is(err, dynamo.ErrDegradedStep):
		w.Degraded++
		tracer().P("chart", w.chart).P("h", next).Debugf("step accepted above tolerance")
	}
	w.z = z
	w.h = math.Abs(next)
	w.steps++

	dashes := !w.transition()
	w.checkGCF()
	return w.Point(dashes), nil
}

// blowStep advances in blown-up coordinates. Once the blown-up radius reaches
// 1 the walker continues in the chart field of the singular point, oriented
// along its last displacement.
func (w *Walker) blowStep(h, hmin, hmax float64) (Point, error) {
	w.state = StateBlowUp
	bp := w.blow
	y, next, err := w.rk.Step(bp.deriv, bp.y, float64(w.dir)*h, hmin, hmax, w.sess.cfg.Tolerance)
	if errors.Is(err, dynamo.ErrDegradedStep) {
		w.Degraded++
	} else if err != nil {
		w.state = StateError
		return Point{}, &dynamo.IntegrationError{Step: w.steps, Chart: w.chart, Point: w.Sphere(), Wrapped: err}
	}
	z := bp.toChart(y)
	if !z.IsValid() {
		w.state = StateError
		return Point{}, &dynamo.IntegrationError{Step: w.steps, Chart: w.chart, Wrapped: dynamo.ErrNonFinite}
	}
	bp.y, bp.prev, w.z = y, w.z, z
	w.h = math.Abs(next)
	w.steps++
	if y[0]*y[0]+y[1]*y[1] < 1 {
		return w.Point(true), nil
	}

	orient := 1
	if w.z.Sub(bp.prev).Dot(w.sess.field.Integrand(w.chart, w.z)) < 0 {
		orient = -1
	}
	tracer().P("steps", w.steps).P("orient", orient).Debugf("leaving blow-up phase")
	w.blow = nil
	w.dir = orient
	w.state = StateStepping
	if w.gcf = w.sess.field.GCFSign(w.chart, w.z); w.gcf == 0 {
		w.gcf = 1
	}
	dashes := !w.transition()
	return w.Point(dashes), nil
}

// transition moves the walker to another chart when it left its domain. It
// reports whether a move happened.
func (w *Walker) transition() bool {
	a := w.sess.atlas
	if w.chart.AtInfinity() && w.z[1] < 0 {
		x, y, ok := a.Plane(w.chart, w.z)
		if !ok {
			return false
		}
		return w.moveTo(a.R2ToSphere(x, y), w.sess.field.ContinuationSign(w.chart))
	}
	if a.InDomain(w.chart, w.z) {
		return false
	}
	return w.moveTo(w.Sphere(), 1)
}

func (w *Walker) moveTo(pt dynamo.Point, orient int) bool {
	w.state = StateChartTransition
	a := w.sess.atlas
	c := a.Preferred(pt)
	z, ok := a.SphereToChart(c, pt)
	if !ok {
		tracer().P("point", pt).Errorf("no coordinates in preferred chart %s", c)
		w.state = StateStepping
		return false
	}
	tracer().P("from", w.chart).P("to", c).P("orient", orient).Debugf("chart transition")
	w.chart, w.z = c, z
	w.dir *= orient
	w.state = StateStepping
	return true
}

// checkGCF reverses the walker when the common factor changed sign; only the
// original field carries that sign.
func (w *Walker) checkGCF() {
	if w.sess.field.Kind() != dynamo.Original {
		return
	}
	g := w.sess.field.GCFSign(w.chart, w.z)
	if g == 0 || g == w.gcf {
		return
	}
	w.gcf = g
	w.dir = -w.dir
	w.typ = w.typ.Flip()
	if w.byType {
		w.color = w.typ.Color()
	}
	tracer().P("chart", w.chart).P("type", w.typ).Debugf("common factor changed sign")
}

func sign(v int) int {
	if v < 0 {
		return -1
	}
	return 1
}
