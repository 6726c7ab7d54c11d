package orbit

import (
	"math"

	"github.com/san-kum/polysphere/internal/dynamo"
)

// approxPoints is the number of points drawn along a local parametrisation.
const approxPoints = 20

// Separatrix integrates one branch of sep leaving the singular point sg. The
// local parametrisation is drawn from the singular point out to
// u = SepEpsilon, then the branch is integrated in the direction implied by
// its type. Not admissible branches give an empty curve.
func (s *Session) Separatrix(sg *Singularity, sep *Separatrix) (*Curve, error) {
	return s.separatrix(sg, sep, nil)
}

func (s *Session) separatrix(sg *Singularity, sep *Separatrix, stop dynamo.Canceller) (*Curve, error) {
	curve := &Curve{Kind: KindSeparatrix}
	if sep.NotAdmissible {
		return curve, nil
	}
	dir := sep.Type.Direction()
	du := s.cfg.SepEpsilon * math.Copysign(1, sep.Direction)
	if sep.Direction == 0 {
		du = s.cfg.SepEpsilon
	}

	var z dynamo.Vec2
	for i := 0; i <= approxPoints; i++ {
		u, v := sep.Branch(du * float64(i) / approxPoints)
		z = sg.Local(u, v)
		s.emit(curve, Point{
			P:      s.atlas.ChartToSphere(sg.Chart, z),
			Color:  sep.Type.Color(),
			Dashes: i > 0,
			Dir:    dir,
			Type:   sep.Type,
		})
	}

	hmin := s.cfg.MinStep
	if sep.Type.IsCenter() {
		hmin = s.cfg.BranchMinStep
	}
	w := s.walkerAt(sg.Chart, z, dir, sep.Type.Color(), hmin).withType(sep.Type)
	err := s.run(w, curve, s.cfg.MaxSteps, stop)
	return curve, err
}

// BlowUpSeparatrix integrates a branch of a degenerate point. The first phase
// runs in blown-up coordinates and maps every point back through the
// transformation chain; it ends once the blown-up radius reaches 1, after
// which the branch continues as an ordinary orbit.
func (s *Session) BlowUpSeparatrix(sg *Singularity, b *BlowUp) (*Curve, error) {
	return s.blowUp(sg, b, nil)
}

func (s *Session) blowUp(sg *Singularity, b *BlowUp, stop dynamo.Canceller) (*Curve, error) {
	curve := &Curve{Kind: KindBlowUp}
	w := s.blowUpWalker(sg, b)
	origin := w.Point(false)
	origin.P = sg.Point(s.atlas)
	s.emit(curve, origin)
	s.emit(curve, w.Point(true))
	err := s.run(w, curve, s.cfg.MaxSteps, stop)
	return curve, err
}

// blowPhase is the state of a walker while it is integrating in blown-up
// coordinates.
type blowPhase struct {
	sg *Singularity
	b  *BlowUp
	y  dynamo.Vec2
	// prev is the chart point before the last step
	prev dynamo.Vec2
}

func (bp *blowPhase) toChart(y dynamo.Vec2) dynamo.Vec2 {
	u, v := bp.b.Map(y[0], y[1])
	return bp.sg.Local(u, v)
}

func (bp *blowPhase) deriv(y dynamo.Vec2) dynamo.Vec2 {
	return dynamo.Vec2{bp.b.P.Eval(y[0], y[1]), bp.b.Q.Eval(y[0], y[1])}
}

func (s *Session) blowUpWalker(sg *Singularity, b *BlowUp) *Walker {
	du := s.cfg.SepEpsilon
	if b.Direction < 0 {
		du = -du
	}
	bp := &blowPhase{sg: sg, b: b, y: dynamo.Vec2{du, series(b.Coeffs, du)}}
	w := &Walker{
		sess:  s,
		chart: sg.Chart,
		dir:   b.Type.Direction(),
		h:     s.cfg.Step,
		hmin:  s.cfg.MinStep,
		gcf:   1,
		blow:  bp,
	}
	w.withType(b.Type)
	w.z = bp.toChart(bp.y)
	bp.prev = w.z
	w.state = StateBlowUp
	return w
}
