// Package config reads and writes study files: a polynomial vector field,
// the sphere it is studied on, integration settings and the local data of its
// singular points.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/polysphere/internal/chart"
	"github.com/san-kum/polysphere/internal/dynamo"
	"github.com/san-kum/polysphere/internal/field"
	"github.com/san-kum/polysphere/internal/limitcycle"
	"github.com/san-kum/polysphere/internal/orbit"
)

const (
	DefaultSphere = "poincare"
	DefaultGrid   = 0.05
)

type Study struct {
	Name          string              `yaml:"name"`
	Sphere        string              `yaml:"sphere"`
	Weights       [2]int              `yaml:"weights,flow"`
	Field         FieldConfig         `yaml:"field"`
	Integration   IntegrationConfig   `yaml:"integration"`
	Orbits        []OrbitStart        `yaml:"orbits,omitempty"`
	Singularities []SingularityConfig `yaml:"singularities,omitempty"`
	LimitCycle    *LimitCycleConfig   `yaml:"limit_cycle,omitempty"`
}

type FieldConfig struct {
	Kind string `yaml:"kind"`
	P    Terms  `yaml:"p"`
	Q    Terms  `yaml:"q"`
	GCF  Terms  `yaml:"gcf,omitempty"`
}

type IntegrationConfig struct {
	Step          float64 `yaml:"step"`
	MinStep       float64 `yaml:"min_step"`
	MaxStep       float64 `yaml:"max_step"`
	BranchMinStep float64 `yaml:"branch_min_step"`
	Tolerance     float64 `yaml:"tolerance"`
	MaxSteps      int     `yaml:"max_steps"`
	SepEpsilon    float64 `yaml:"sep_epsilon"`
	ReportEvery   int     `yaml:"report_every"`
	PollEvery     int     `yaml:"poll_every"`
}

type OrbitStart struct {
	X   float64 `yaml:"x"`
	Y   float64 `yaml:"y"`
	Dir int     `yaml:"dir"`
}

type SingularityConfig struct {
	Kind         string             `yaml:"kind"`
	X            float64            `yaml:"x"`
	Y            float64            `yaml:"y"`
	Chart        string             `yaml:"chart,omitempty"`
	Matrix       []float64          `yaml:"matrix,flow,omitempty"`
	Separatrices []SeparatrixConfig `yaml:"separatrices,omitempty"`
	BlowUps      []BlowUpConfig     `yaml:"blowups,omitempty"`
}

type SeparatrixConfig struct {
	Type          string    `yaml:"type"`
	Direction     float64   `yaml:"direction"`
	Coeffs        []float64 `yaml:"coeffs,flow,omitempty"`
	SwapAxes      bool      `yaml:"swap_axes,omitempty"`
	NotAdmissible bool      `yaml:"not_admissible,omitempty"`
}

type BlowUpConfig struct {
	Transforms []TransformConfig `yaml:"transforms"`
	P          Terms             `yaml:"p"`
	Q          Terms             `yaml:"q"`
	Coeffs     []float64         `yaml:"coeffs,flow,omitempty"`
	Type       string            `yaml:"type"`
	Direction  float64           `yaml:"direction"`
}

// TransformConfig is one substitution (x,y) → (X0 + C1·x^D1·y^D2, Y0 + C2·x^D3·y^D4).
type TransformConfig struct {
	X0 float64 `yaml:"x0"`
	Y0 float64 `yaml:"y0"`
	C1 float64 `yaml:"c1"`
	C2 float64 `yaml:"c2"`
	D  [4]int  `yaml:"d,flow"`
}

type LimitCycleConfig struct {
	Section      [4]float64 `yaml:"section,flow"`
	Grid         float64    `yaml:"grid"`
	MaxReturns   int        `yaml:"max_returns,omitempty"`
	StepsPerShot int        `yaml:"steps_per_shot,omitempty"`
}

func DefaultIntegration() IntegrationConfig {
	d := dynamo.DefaultConfig()
	return IntegrationConfig{
		Step:          d.Step,
		MinStep:       d.MinStep,
		MaxStep:       d.MaxStep,
		BranchMinStep: d.BranchMinStep,
		Tolerance:     d.Tolerance,
		MaxSteps:      d.MaxSteps,
		SepEpsilon:    d.SepEpsilon,
		ReportEvery:   d.ReportEvery,
		PollEvery:     d.PollEvery,
	}
}

func DefaultStudy() *Study {
	return &Study{
		Name:        "untitled",
		Sphere:      DefaultSphere,
		Weights:     [2]int{1, 1},
		Field:       FieldConfig{Kind: dynamo.Reduced.String()},
		Integration: DefaultIntegration(),
	}
}

func Load(path string) (*Study, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s := DefaultStudy()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func Save(path string, s *Study) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks that every part of the study converts.
func (s *Study) Validate() error {
	if _, err := s.Config(); err != nil {
		return err
	}
	if _, err := s.Evaluator(); err != nil {
		return err
	}
	if _, err := s.SingularPoints(); err != nil {
		return err
	}
	if s.LimitCycle != nil {
		if _, err := s.Section(limitcycle.DefaultBounds()); err != nil {
			return err
		}
	}
	return nil
}

func (s *Study) SphereKind() (dynamo.Sphere, error) {
	var sp dynamo.Sphere
	switch strings.ToLower(s.Sphere) {
	case "", "poincare":
		sp = dynamo.PoincareSphere()
	case "poincare-lyapunov", "lyapunov", "pl":
		sp = dynamo.LyapunovSphere(s.Weights[0], s.Weights[1])
	default:
		return sp, fmt.Errorf("%w: unknown sphere %q", dynamo.ErrInvalidConfig, s.Sphere)
	}
	return sp, sp.Validate()
}

func (s *Study) Config() (dynamo.Config, error) {
	kind, err := dynamo.ParseFieldKind(s.Field.Kind)
	if err != nil {
		return dynamo.Config{}, err
	}
	in := s.Integration
	cfg := dynamo.Config{
		Step:          in.Step,
		MinStep:       in.MinStep,
		MaxStep:       in.MaxStep,
		BranchMinStep: in.BranchMinStep,
		Tolerance:     in.Tolerance,
		MaxSteps:      in.MaxSteps,
		Kind:          kind,
		SepEpsilon:    in.SepEpsilon,
		ReportEvery:   in.ReportEvery,
		PollEvery:     in.PollEvery,
	}
	return cfg, cfg.Validate()
}

func (s *Study) Evaluator() (*field.Evaluator, error) {
	sp, err := s.SphereKind()
	if err != nil {
		return nil, err
	}
	kind, err := dynamo.ParseFieldKind(s.Field.Kind)
	if err != nil {
		return nil, err
	}
	return field.New(sp, s.Field.P.Poly(), s.Field.Q.Poly(), s.Field.GCF.Poly(), kind)
}

// Session builds an integration session for the study.
func (s *Study) Session(r dynamo.Renderer, rep dynamo.StepReporter) (*orbit.Session, error) {
	cfg, err := s.Config()
	if err != nil {
		return nil, err
	}
	ev, err := s.Evaluator()
	if err != nil {
		return nil, err
	}
	return orbit.NewSession(chart.New(ev.Sphere()), ev, cfg, r, rep), nil
}

// SingularPoints converts the singularity entries.
func (s *Study) SingularPoints() ([]orbit.Singularity, error) {
	out := make([]orbit.Singularity, 0, len(s.Singularities))
	for i, sc := range s.Singularities {
		sg, err := sc.singularity()
		if err != nil {
			return nil, fmt.Errorf("singularity %d: %w", i, err)
		}
		out = append(out, sg)
	}
	return out, nil
}

func (sc SingularityConfig) singularity() (orbit.Singularity, error) {
	kind, err := orbit.ParseKind(sc.Kind)
	if err != nil {
		return orbit.Singularity{}, err
	}
	sg := orbit.Singularity{Kind: kind, X0: sc.X, Y0: sc.Y}
	if sc.Chart != "" {
		if sg.Chart, err = dynamo.ParseChart(sc.Chart); err != nil {
			return sg, err
		}
	}
	switch len(sc.Matrix) {
	case 0:
	case 4:
		copy(sg.Matrix[:], sc.Matrix)
	default:
		return sg, fmt.Errorf("%w: matrix needs 4 entries, got %d", dynamo.ErrInvalidConfig, len(sc.Matrix))
	}
	for _, c := range sc.Separatrices {
		t, err := dynamo.ParseSepType(c.Type)
		if err != nil {
			return sg, err
		}
		sg.Separatrices = append(sg.Separatrices, orbit.Separatrix{
			Type:          t,
			Direction:     c.Direction,
			Coeffs:        c.Coeffs,
			SwapAxes:      c.SwapAxes,
			NotAdmissible: c.NotAdmissible,
		})
	}
	for _, c := range sc.BlowUps {
		t, err := dynamo.ParseSepType(c.Type)
		if err != nil {
			return sg, err
		}
		b := orbit.BlowUp{P: c.P.Poly(), Q: c.Q.Poly(), Coeffs: c.Coeffs, Type: t, Direction: c.Direction}
		for _, tc := range c.Transforms {
			for _, d := range tc.D {
				if d < 0 {
					return sg, fmt.Errorf("%w: negative blow-up exponent %d", dynamo.ErrInvalidConfig, d)
				}
			}
			b.Transforms = append(b.Transforms, orbit.Transform{
				X0: tc.X0, Y0: tc.Y0, C1: tc.C1, C2: tc.C2,
				D1: tc.D[0], D2: tc.D[1], D3: tc.D[2], D4: tc.D[3],
			})
		}
		sg.BlowUps = append(sg.BlowUps, b)
	}
	return sg, nil
}

// Section is the transverse section of the limit cycle search.
func (s *Study) Section(b limitcycle.Bounds) (limitcycle.Section, error) {
	if s.LimitCycle == nil {
		return limitcycle.Section{}, fmt.Errorf("%w: no limit cycle section", dynamo.ErrInvalidConfig)
	}
	lc := s.LimitCycle
	grid := lc.Grid
	if grid == 0 {
		grid = DefaultGrid
	}
	return limitcycle.NewSection(lc.Section[0], lc.Section[1], lc.Section[2], lc.Section[3], grid, b)
}

func (s *Study) SearchOptions() limitcycle.Options {
	o := limitcycle.DefaultOptions()
	if s.LimitCycle != nil {
		if s.LimitCycle.MaxReturns > 0 {
			o.MaxReturns = s.LimitCycle.MaxReturns
		}
		if s.LimitCycle.StepsPerShot > 0 {
			o.StepsPerShot = s.LimitCycle.StepsPerShot
		}
	}
	return o
}
