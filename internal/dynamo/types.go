package dynamo

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// Vec2 is a 2-D local coordinate or a field vector.
type Vec2 [2]float64

func (v Vec2) IsValid() bool {
	return !math.IsNaN(v[0]) && !math.IsInf(v[0], 0) &&
		!math.IsNaN(v[1]) && !math.IsInf(v[1], 0)
}

func (v Vec2) Norm() float64 {
	return math.Hypot(v[0], v[1])
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{v[0] + o[0], v[1] + o[1]}
}

func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{v[0] - o[0], v[1] - o[1]}
}

func (v Vec2) Scale(f float64) Vec2 {
	return Vec2{v[0] * f, v[1] * f}
}

func (v Vec2) Dot(o Vec2) float64 {
	return v[0]*o[0] + v[1]*o[1]
}

// Point is a point on the active sphere. On the Poincaré sphere it holds
// (X,Y,Z) with Z ≥ 0. On the Poincaré–Lyapunov sphere it is (0,x,y) for
// points inside the unit disk and (1,r,θ) near infinity.
type Point [3]float64

func (p Point) IsValid() bool {
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Finite reports whether a Poincaré–Lyapunov point uses the (0,x,y) form.
func (p Point) Finite() bool {
	return p[0] == 0
}

// Chart identifies the finite plane or one of the four charts at infinity.
type Chart int

const (
	R2 Chart = iota
	U1
	V1
	U2
	V2
)

var chartNames = [...]string{"R2", "U1", "V1", "U2", "V2"}

func (c Chart) String() string {
	if c < R2 || c > V2 {
		return fmt.Sprintf("Chart(%d)", int(c))
	}
	return chartNames[c]
}

// ParseChart converts a chart name (case-insensitive) to a Chart.
func ParseChart(s string) (Chart, error) {
	for i, n := range chartNames {
		if strings.EqualFold(n, s) {
			return Chart(i), nil
		}
	}
	return R2, fmt.Errorf("%w: %q", ErrUnknownChart, s)
}

// Charts lists every chart in a fixed order.
func Charts() []Chart {
	return []Chart{R2, U1, V1, U2, V2}
}

// AtInfinity reports whether c is one of the charts covering the circle at infinity.
func (c Chart) AtInfinity() bool {
	return c != R2
}

// Axis is 1 for U1/V1, 2 for U2/V2 and 0 for R2.
func (c Chart) Axis() int {
	switch c {
	case U1, V1:
		return 1
	case U2, V2:
		return 2
	}
	return 0
}

// Sign is +1 for the U charts and −1 for the V charts.
func (c Chart) Sign() float64 {
	if c == V1 || c == V2 {
		return -1
	}
	return 1
}

// SphereKind selects the compactification.
type SphereKind int

const (
	Poincare SphereKind = iota
	PoincareLyapunov
)

func (k SphereKind) String() string {
	if k == PoincareLyapunov {
		return "poincare-lyapunov"
	}
	return "poincare"
}

// Sphere is the compactification in use together with its weights.
// The Poincaré sphere always has weights (1,1).
type Sphere struct {
	Kind SphereKind
	P, Q int
}

func PoincareSphere() Sphere {
	return Sphere{Kind: Poincare, P: 1, Q: 1}
}

func LyapunovSphere(p, q int) Sphere {
	return Sphere{Kind: PoincareLyapunov, P: p, Q: q}
}

// Weights returns (p,q), forcing (1,1) on the Poincaré sphere.
func (s Sphere) Weights() (int, int) {
	if s.Kind == Poincare {
		return 1, 1
	}
	return s.P, s.Q
}

func (s Sphere) Validate() error {
	if s.Kind == PoincareLyapunov && (s.P < 1 || s.Q < 1) {
		return fmt.Errorf("%w: weights must be >= 1, got (%d,%d)", ErrInvalidConfig, s.P, s.Q)
	}
	return nil
}

// SepType tags a separatrix branch.
type SepType int

const (
	Stable SepType = iota
	Unstable
	CenterStable
	CenterUnstable
)

var sepTypeNames = [...]string{"stable", "unstable", "center-stable", "center-unstable"}

func (t SepType) String() string {
	if t < Stable || t > CenterUnstable {
		return fmt.Sprintf("SepType(%d)", int(t))
	}
	return sepTypeNames[t]
}

// ParseSepType converts a type name to a SepType.
func ParseSepType(s string) (SepType, error) {
	for i, n := range sepTypeNames {
		if strings.EqualFold(n, s) {
			return SepType(i), nil
		}
	}
	return Stable, fmt.Errorf("unknown separatrix type: %q", s)
}

// Flip exchanges stable and unstable, keeping the center flavour.
func (t SepType) Flip() SepType {
	switch t {
	case Stable:
		return Unstable
	case Unstable:
		return Stable
	case CenterStable:
		return CenterUnstable
	default:
		return CenterStable
	}
}

// Direction is the time direction in which a branch of this type leaves its singularity.
func (t SepType) Direction() int {
	if t == Unstable || t == CenterUnstable {
		return 1
	}
	return -1
}

func (t SepType) IsCenter() bool {
	return t == CenterStable || t == CenterUnstable
}

// Color is the rendering colour class of a curve point.
type Color int

const (
	ColorOrbit Color = iota
	ColorStable
	ColorUnstable
	ColorCenterStable
	ColorCenterUnstable
	ColorLimitCycle
	ColorCurve
	ColorSection
)

func (t SepType) Color() Color {
	switch t {
	case Unstable:
		return ColorUnstable
	case CenterStable:
		return ColorCenterStable
	case CenterUnstable:
		return ColorCenterUnstable
	}
	return ColorStable
}

// FieldKind selects which vector field is integrated.
type FieldKind int

const (
	// Reduced integrates the field divided by its greatest common factor.
	Reduced FieldKind = iota
	// Original integrates the field as given, GCF included.
	Original
)

func (k FieldKind) String() string {
	if k == Original {
		return "original"
	}
	return "reduced"
}

// ParseFieldKind converts "original" or "reduced" to a FieldKind.
func ParseFieldKind(s string) (FieldKind, error) {
	switch strings.ToLower(s) {
	case "", "reduced":
		return Reduced, nil
	case "original":
		return Original, nil
	}
	return Reduced, fmt.Errorf("%w: unknown field kind %q", ErrInvalidConfig, s)
}

// Config is the integration configuration.
type Config struct {
	Step          float64
	MinStep       float64
	MaxStep       float64
	BranchMinStep float64
	Tolerance     float64
	MaxSteps      int
	Kind          FieldKind
	SepEpsilon    float64
	ReportEvery   int
	PollEvery     int
}

func DefaultConfig() Config {
	return Config{
		Step:          0.01,
		MinStep:       1e-6,
		MaxStep:       0.1,
		BranchMinStep: 1e-8,
		Tolerance:     1e-10,
		MaxSteps:      2000,
		Kind:          Reduced,
		SepEpsilon:    0.01,
		ReportEvery:   50,
		PollEvery:     200,
	}
}

func (c Config) Validate() error {
	if c.MinStep <= 0 {
		return fmt.Errorf("%w: min step must be positive, got %g", ErrInvalidConfig, c.MinStep)
	}
	if c.MaxStep < c.MinStep {
		return fmt.Errorf("%w: max step %g below min step %g", ErrInvalidConfig, c.MaxStep, c.MinStep)
	}
	if c.Step < c.MinStep || c.Step > c.MaxStep {
		return fmt.Errorf("%w: step %g outside [%g, %g]", ErrInvalidConfig, c.Step, c.MinStep, c.MaxStep)
	}
	if c.BranchMinStep <= 0 || c.BranchMinStep > c.MaxStep {
		return fmt.Errorf("%w: branch min step %g out of range", ErrInvalidConfig, c.BranchMinStep)
	}
	if c.Tolerance <= 0 {
		return fmt.Errorf("%w: tolerance must be positive, got %g", ErrInvalidConfig, c.Tolerance)
	}
	if c.MaxSteps <= 0 {
		return fmt.Errorf("%w: max steps must be positive, got %d", ErrInvalidConfig, c.MaxSteps)
	}
	if c.SepEpsilon <= 0 {
		return fmt.Errorf("%w: separatrix epsilon must be positive, got %g", ErrInvalidConfig, c.SepEpsilon)
	}
	return nil
}

// Renderer receives one call per accepted integration step. It projects
// sphere points to its own device coordinates.
type Renderer interface {
	PlotLine(p1, p2 Point, c Color)
	PlotPoint(p Point, c Color)
}

// Canceller is polled during long operations; true means stop.
type Canceller interface {
	Poll() bool
}

// CancelFunc adapts a function to the Canceller interface.
type CancelFunc func() bool

func (f CancelFunc) Poll() bool { return f() }

// ContextCanceller reports a stop once ctx is done.
func ContextCanceller(ctx context.Context) Canceller {
	return CancelFunc(func() bool {
		select {
		case <-ctx.Done():
			return true
		default:
			return false
		}
	})
}

// Progress receives a running count during long operations.
type Progress interface {
	Report(count int)
}

// ProgressFunc adapts a function to the Progress interface.
type ProgressFunc func(count int)

func (f ProgressFunc) Report(count int) { f(count) }

// StepReporter receives the evolving adaptive step size, for display only.
type StepReporter interface {
	ReportStep(h float64)
}

// StepReporterFunc adapts a function to the StepReporter interface.
type StepReporterFunc func(h float64)

func (f StepReporterFunc) ReportStep(h float64) { f(h) }

// NopRenderer discards every call.
type NopRenderer struct{}

func (NopRenderer) PlotLine(p1, p2 Point, c Color) {}
func (NopRenderer) PlotPoint(p Point, c Color)     {}
