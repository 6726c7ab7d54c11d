package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/san-kum/polysphere/internal/dynamo"
	"github.com/san-kum/polysphere/internal/field"
	"github.com/san-kum/polysphere/internal/limitcycle"
	"github.com/san-kum/polysphere/internal/orbit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultStudy(t *testing.T) {
	s := DefaultStudy()
	assert.Equal(t, DefaultSphere, s.Sphere)
	cfg, err := s.Config()
	require.NoError(t, err)
	assert.Equal(t, dynamo.DefaultConfig(), cfg)
	assert.NoError(t, s.Validate())
}

const studyYAML = `
name: focus
sphere: poincare-lyapunov
weights: [1, 2]
field:
  kind: original
  p: [[1, 0, 1], [0.5, 1, 0]]
  q:
    - [-1, 3, 0]
  gcf: [[1, 1, 0], [-2, 0, 0]]
integration:
  max_steps: 300
singularities:
  - kind: degenerate
    chart: U1
    x: 0
    y: 0
    blowups:
      - transforms:
          - {x0: 0, y0: 0, c1: 1, c2: 1, d: [1, 0, 1, 1]}
        p: [[1, 1, 0]]
        q: [[-1, 0, 1]]
        coeffs: [0, 0.5]
        type: unstable
        direction: -1
limit_cycle:
  section: [0.5, 0, 1.5, 0]
  grid: 0.1
`

func TestLoad(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()

	path := filepath.Join(t.TempDir(), "study.yaml")
	require.NoError(t, os.WriteFile(path, []byte(studyYAML), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "focus", s.Name)
	assert.Equal(t, 300, s.Integration.MaxSteps)
	assert.Equal(t, dynamo.DefaultConfig().Tolerance, s.Integration.Tolerance, "unset keys keep defaults")
	assert.Equal(t, field.P([3]float64{1, 0, 1}, [3]float64{0.5, 1, 0}), s.Field.P.Poly())

	sp, err := s.SphereKind()
	require.NoError(t, err)
	assert.Equal(t, dynamo.LyapunovSphere(1, 2), sp)

	ev, err := s.Evaluator()
	require.NoError(t, err)
	assert.Equal(t, dynamo.Original, ev.Kind())
	assert.True(t, ev.HasGCF())

	sings, err := s.SingularPoints()
	require.NoError(t, err)
	require.Len(t, sings, 1)
	assert.Equal(t, orbit.Degenerate, sings[0].Kind)
	assert.Equal(t, dynamo.U1, sings[0].Chart)
	require.Len(t, sings[0].BlowUps, 1)
	b := sings[0].BlowUps[0]
	assert.Equal(t, dynamo.Unstable, b.Type)
	assert.Equal(t, orbit.Transform{C1: 1, C2: 1, D1: 1, D3: 1, D4: 1}, b.Transforms[0])

	sec, err := s.Section(limitcycle.DefaultBounds())
	require.NoError(t, err)
	assert.Equal(t, 11, sec.Points())
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name    string
		replace [2]string
		err     error
	}{
		{"bad term", [2]string{"[-1, 3, 0]", "[-1, 3]"}, nil},
		{"fractional exponent", [2]string{"[-1, 3, 0]", "[-1, 1.5, 0]"}, nil},
		{"unknown field kind", [2]string{"kind: original", "kind: exact"}, dynamo.ErrInvalidConfig},
		{"zero weight", [2]string{"weights: [1, 2]", "weights: [0, 2]"}, dynamo.ErrInvalidConfig},
		{"unknown chart", [2]string{"chart: U1", "chart: W3"}, dynamo.ErrUnknownChart},
		{"degenerate section", [2]string{"[0.5, 0, 1.5, 0]", "[1, 1, 1, 1]"}, dynamo.ErrZeroSection},
		{"bad step bounds", [2]string{"max_steps: 300", "max_steps: 300\n  min_step: 1"}, dynamo.ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "study.yaml")
			body := strings.Replace(studyYAML, tt.replace[0], tt.replace[1], 1)
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := Load(path)
			require.Error(t, err)
			if tt.err != nil {
				assert.True(t, errors.Is(err, tt.err), "got %v", err)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hopf.yaml")
	want := GetPreset("hopf")
	require.NoError(t, Save(path, want))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "- [-1, 0, 1]")

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want.Field.P.Poly(), got.Field.P.Poly())
	assert.Equal(t, want.LimitCycle, got.LimitCycle)
	assert.Equal(t, want.Orbits, got.Orbits)
}

func TestTermsNode(t *testing.T) {
	var s struct {
		P Terms `yaml:"p"`
	}
	err := yaml.Unmarshal([]byte("p: 3"), &s)
	assert.Error(t, err)
	require.NoError(t, yaml.Unmarshal([]byte("p: []"), &s))
	assert.Empty(t, s.P)
}

func TestPresets(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()

	names := ListPresets()
	assert.Equal(t, []string{"cubic_infinity", "hopf", "quadratic", "saddle", "weighted"}, names)
	for _, n := range names {
		s := GetPreset(n)
		require.NotNil(t, s, n)
		assert.Equal(t, n, s.Name)
		assert.NoError(t, s.Validate(), n)
	}
	assert.Nil(t, GetPreset("nonexistent"))

	a, b := GetPreset("hopf"), GetPreset("hopf")
	a.Integration.MaxSteps = 1
	assert.NotEqual(t, a.Integration.MaxSteps, b.Integration.MaxSteps)
}
