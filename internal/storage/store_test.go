package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/polysphere/internal/config"
	"github.com/san-kum/polysphere/internal/dynamo"
	"github.com/san-kum/polysphere/internal/orbit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCurves() []*orbit.Curve {
	return []*orbit.Curve{
		{Kind: orbit.KindOrbit, Points: []orbit.Point{
			{P: dynamo.Point{0, 0, 1}, Color: dynamo.ColorOrbit, Dir: 1},
			{P: dynamo.Point{0.1, 0.2, 0.9746794344808963}, Color: dynamo.ColorOrbit, Dashes: true, Dir: 1},
		}},
		{Kind: orbit.KindSeparatrix, Degraded: 2, Points: []orbit.Point{
			{P: dynamo.Point{1, 0.25, -0.5}, Color: dynamo.ColorUnstable, Dir: -1, Type: dynamo.CenterUnstable},
		}},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	study := config.GetPreset("saddle")
	curves := sampleCurves()
	runID, err := st.Save(study, "separatrices", curves, map[string]float64{"aborted": 0})
	require.NoError(t, err)

	meta, err := st.Load(runID)
	require.NoError(t, err)
	assert.Equal(t, "saddle", meta.Study)
	assert.Equal(t, "separatrices", meta.Command)
	assert.Equal(t, 2, meta.Curves)
	assert.Equal(t, 3, meta.Points)
	assert.Equal(t, 2, meta.Degraded)
	assert.Equal(t, "x", meta.P)

	got, err := st.LoadPoints(runID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for i := range curves {
		assert.Equal(t, curves[i].Kind, got[i].Kind)
		assert.Equal(t, curves[i].Points, got[i].Points)
	}
}

func TestStoreList(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)

	require.NoError(t, st.Init())
	first, err := st.Save(config.GetPreset("hopf"), "orbit", sampleCurves(), nil)
	require.NoError(t, err)
	second, err := st.Save(config.GetPreset("hopf"), "limitcycle", nil, nil)
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "junk"), 0755))

	runs, err = st.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, first, runs[0].ID)
	assert.Equal(t, second, runs[1].ID)

	empty, err := st.LoadPoints(second)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestLoadPointsRejectsBadRows(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	run := filepath.Join(dir, "broken")
	require.NoError(t, os.MkdirAll(run, 0755))
	body := "curve,kind,color,dashes,dir,type,c0,c1,c2\n0,orbit,0,maybe,1,stable,0,0,1\n"
	require.NoError(t, os.WriteFile(filepath.Join(run, "points.csv"), []byte(body), 0644))

	_, err := st.LoadPoints("broken")
	assert.Error(t, err)
}
