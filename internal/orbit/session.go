package orbit

import (
	"context"
	"errors"
	"fmt"

	"github.com/san-kum/polysphere/internal/chart"
	"github.com/san-kum/polysphere/internal/dynamo"
	"github.com/san-kum/polysphere/internal/field"
)

// Session bundles what one study integrates with. Integration is synchronous;
// a Session must not be used from two goroutines at once.
type Session struct {
	atlas    *chart.Atlas
	field    *field.Evaluator
	cfg      dynamo.Config
	renderer dynamo.Renderer
	reporter dynamo.StepReporter
	accepted int
}

func NewSession(atlas *chart.Atlas, ev *field.Evaluator, cfg dynamo.Config, r dynamo.Renderer, rep dynamo.StepReporter) *Session {
	if r == nil {
		r = dynamo.NopRenderer{}
	}
	return &Session{atlas: atlas, field: ev, cfg: cfg, renderer: r, reporter: rep}
}

func (s *Session) Atlas() *chart.Atlas       { return s.atlas }
func (s *Session) Field() *field.Evaluator   { return s.field }
func (s *Session) Config() dynamo.Config     { return s.cfg }
func (s *Session) Renderer() dynamo.Renderer { return s.renderer }

// Orbit integrates cfg.MaxSteps steps from start, forward for dir > 0 and
// backward otherwise.
func (s *Session) Orbit(start dynamo.Point, dir int) (*Curve, error) {
	w, err := s.NewWalker(start, dir, dynamo.ColorOrbit)
	if err != nil {
		return nil, err
	}
	curve := &Curve{Kind: KindOrbit}
	s.emit(curve, w.Point(false))
	err = s.run(w, curve, s.cfg.MaxSteps, nil)
	return curve, err
}

// OrbitFrom integrates an orbit through the plane point (x,y).
func (s *Session) OrbitFrom(x, y float64, dir int) (*Curve, error) {
	return s.Orbit(s.atlas.R2ToSphere(x, y), dir)
}

// ContinueOrbit extends c by another cfg.MaxSteps steps: from its last point
// for dir > 0, or backward from its first point otherwise. Backward points are
// appended after an isolated copy of the first point.
func (s *Session) ContinueOrbit(c *Curve, dir int) error {
	if len(c.Points) == 0 {
		return fmt.Errorf("%w: nothing to continue", dynamo.ErrInvalidConfig)
	}
	from := c.Points[len(c.Points)-1]
	orient := from.Dir
	if dir < 0 {
		from = c.Points[0]
		orient = -from.Dir
	}
	w, err := s.NewWalker(from.P, orient, from.Color)
	if err != nil {
		return err
	}
	w.typ = from.Type
	if c.Kind == KindSeparatrix {
		w.withType(from.Type)
	}
	if dir < 0 {
		s.emit(c, w.Point(false))
	}
	return s.run(w, c, s.cfg.MaxSteps, nil)
}

// run steps w up to n times, appending to curve. A walker that leaves every
// domain ends the curve without an error; cancellation returns
// dynamo.ErrCanceled wrapped in *dynamo.IntegrationError.
func (s *Session) run(w *Walker, curve *Curve, n int, stop dynamo.Canceller) error {
	defer func() { curve.Degraded += w.Degraded; w.Degraded = 0 }()
	for i := 0; i < n; i++ {
		if stop != nil && s.cfg.PollEvery > 0 && i > 0 && i%s.cfg.PollEvery == 0 && stop.Poll() {
			w.state = StateDone
			return &dynamo.IntegrationError{Step: i, Chart: w.chart, Point: w.Sphere(), Wrapped: dynamo.ErrCanceled}
		}
		pt, err := w.Step()
		if err != nil {
			tracer().Debugf("curve ended: %v", err)
			return nil
		}
		s.emit(curve, pt)
		s.report(w.h)
	}
	w.state = StateDone
	return nil
}

// Append adds pt to c the way integrated points are added: it is drawn as a
// line from the previous point unless it is the first or is flagged isolated.
func (s *Session) Append(c *Curve, pt Point) {
	s.emit(c, pt)
}

// emit appends pt and sends it to the renderer.
func (s *Session) emit(curve *Curve, pt Point) {
	if prev, ok := curve.Last(); ok && pt.Dashes {
		s.renderer.PlotLine(prev.P, pt.P, pt.Color)
	} else {
		pt.Dashes = false
		s.renderer.PlotPoint(pt.P, pt.Color)
	}
	curve.Points = append(curve.Points, pt)
}

func (s *Session) report(h float64) {
	s.accepted++
	if s.reporter != nil && s.cfg.ReportEvery > 0 && s.accepted%s.cfg.ReportEvery == 0 {
		s.reporter.ReportStep(h)
	}
}

// Outcome collects the curves of a long operation.
type Outcome struct {
	Curves  []*Curve
	Aborted bool
}

// AllSeparatrices integrates every separatrix and blow-up branch of sings.
// The canceller is polled between branches and every cfg.PollEvery steps; a
// stop request, or ctx being done, ends the run with Aborted set.
func (s *Session) AllSeparatrices(ctx context.Context, sings []Singularity, canceller dynamo.Canceller) (*Outcome, error) {
	stop := dynamo.CancelFunc(func() bool {
		if ctx.Err() != nil {
			return true
		}
		return canceller != nil && canceller.Poll()
	})

	out := &Outcome{}
	handle := func(c *Curve, err error) bool {
		if c != nil && c.Len() > 0 {
			out.Curves = append(out.Curves, c)
		}
		if errors.Is(err, dynamo.ErrCanceled) {
			out.Aborted = true
			return false
		}
		return true
	}

	for i := range sings {
		sg := &sings[i]
		for j := range sg.Separatrices {
			if stop.Poll() {
				out.Aborted = true
				return out, nil
			}
			c, err := s.separatrix(sg, &sg.Separatrices[j], stop)
			if err != nil && !errors.Is(err, dynamo.ErrCanceled) {
				return out, err
			}
			if !handle(c, err) {
				return out, nil
			}
		}
		for j := range sg.BlowUps {
			if stop.Poll() {
				out.Aborted = true
				return out, nil
			}
			c, err := s.blowUp(sg, &sg.BlowUps[j], stop)
			if err != nil && !errors.Is(err, dynamo.ErrCanceled) {
				return out, err
			}
			if !handle(c, err) {
				return out, nil
			}
		}
	}
	tracer().P("curves", len(out.Curves)).Infof("separatrices done")
	return out, nil
}
