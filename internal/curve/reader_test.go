package curve

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/san-kum/polysphere/internal/chart"
	"github.com/san-kum/polysphere/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct{ lines, points int }

func (c *counter) PlotLine(p1, p2 dynamo.Point, col dynamo.Color) { c.lines++ }
func (c *counter) PlotPoint(p dynamo.Point, col dynamo.Color)     { c.points++ }

const table = `0.0 0.0
0.5, 0.25
1.0	1.0

,
-1e-1 , 2E0
3 4
`

func TestRead(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()

	var s Set
	require.NoError(t, s.Read(strings.NewReader(table), dynamo.R2))
	require.Len(t, s.Branches, 2)
	assert.Equal(t, []dynamo.Vec2{{0, 0}, {0.5, 0.25}, {1, 1}}, s.Branches[0])
	assert.Equal(t, []dynamo.Vec2{{-0.1, 2}, {3, 4}}, s.Branches[1])
	assert.Equal(t, 5, s.Points())
}

func TestReadMalformedLeavesSetUntouched(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()

	tests := []struct {
		name  string
		input string
	}{
		{"single value", "1.0\n"},
		{"three values", "1 2 3\n"},
		{"not a number", "1 x\n"},
		{"double comma", "1,,2\n"},
		{"infinite", "1 Inf\n"},
		{"bad line after good ones", "0 0\n1 1\n2 two\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Set{Chart: dynamo.U1, Branches: [][]dynamo.Vec2{{{7, 7}}}}
			err := s.Read(strings.NewReader(tt.input), dynamo.R2)
			assert.True(t, errors.Is(err, dynamo.ErrMalformedCurve), "got %v", err)
			assert.Equal(t, dynamo.U1, s.Chart)
			assert.Equal(t, [][]dynamo.Vec2{{{7, 7}}}, s.Branches)
		})
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "isocline.tab")
	require.NoError(t, os.WriteFile(path, []byte(table), 0o644))

	var s Set
	require.NoError(t, s.ReadFile(path, dynamo.U1))
	assert.Equal(t, dynamo.U1, s.Chart)

	err := s.ReadFile(filepath.Join(dir, "missing.tab"), dynamo.R2)
	assert.Error(t, err)
	assert.Equal(t, dynamo.U1, s.Chart)
}

func TestDraw(t *testing.T) {
	var s Set
	require.NoError(t, s.Read(strings.NewReader(table), dynamo.R2))

	a := chart.New(dynamo.PoincareSphere())
	c := &counter{}
	s.Draw(a, c, dynamo.ColorCurve)
	assert.Equal(t, 2, c.points)
	assert.Equal(t, 3, c.lines)

	curves := s.Curves(a, dynamo.ColorCurve)
	require.Len(t, curves, 2)
	assert.Equal(t, dynamo.Point{0, 0, 1}, curves[0].Points[0].P)
}
