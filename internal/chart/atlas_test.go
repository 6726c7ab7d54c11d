package chart

import (
	"fmt"
	"math"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/san-kum/polysphere/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSpheres = []dynamo.Sphere{
	dynamo.PoincareSphere(),
	dynamo.LyapunovSphere(1, 1),
	dynamo.LyapunovSphere(2, 3),
	dynamo.LyapunovSphere(3, 2),
}

func assertPointNear(t *testing.T, want, got dynamo.Point, msg string) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-9, "%s: coordinate %d", msg, i)
	}
}

func TestChartRoundTrip(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()

	z1s := []float64{-0.95, -0.4, 0, 0.3, 0.9}
	z2s := []float64{0, 0.05, 0.3, 0.5}

	for _, sp := range testSpheres {
		a := New(sp)
		for _, c := range []dynamo.Chart{dynamo.U1, dynamo.V1, dynamo.U2, dynamo.V2} {
			t.Run(fmt.Sprintf("%s-%d-%d/%s", sp.Kind, sp.P, sp.Q, c), func(t *testing.T) {
				for _, z1 := range z1s {
					for _, z2 := range z2s {
						z := dynamo.Vec2{z1, z2}
						require.True(t, a.InDomain(c, z), "%v not in domain", z)
						pt := a.ChartToSphere(c, z)
						back, ok := a.SphereToChart(c, pt)
						require.True(t, ok, "%v did not map back", z)
						assert.InDelta(t, z1, back[0], 1e-9, "z1 of %v", z)
						assert.InDelta(t, z2, back[1], 1e-9, "z2 of %v", z)
					}
				}
			})
		}
	}
}

func TestR2RoundTrip(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()

	plane := []dynamo.Vec2{{0, 0}, {0.3, -0.6}, {-0.7, 0.1}, {2, 5}, {-40, 3}, {0.5, -12}}
	for _, sp := range testSpheres {
		a := New(sp)
		for _, z := range plane {
			pt := a.R2ToSphere(z[0], z[1])
			back, ok := a.SphereToR2(pt)
			require.True(t, ok)
			assert.InDelta(t, z[0], back[0], 1e-9*(1+math.Abs(z[0])))
			assert.InDelta(t, z[1], back[1], 1e-9*(1+math.Abs(z[1])))

			again := a.ChartToSphere(dynamo.R2, back)
			assertPointNear(t, pt, again, "R2")
		}
	}
}

func TestSphereRoundTripThroughPreferred(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()

	for _, sp := range testSpheres {
		a := New(sp)
		for i := 0; i < 24; i++ {
			th := -3 + 0.25*float64(i)
			for _, rad := range []float64{0.2, 1.5, 8, 300} {
				pt := a.R2ToSphere(rad*math.Cos(th), rad*math.Sin(th))
				c := a.Preferred(pt)
				z, ok := a.SphereToChart(c, pt)
				require.True(t, ok, "%v in %s", pt, c)
				assert.True(t, a.InDomain(c, z), "%v not in domain of preferred %s", z, c)
				assertPointNear(t, pt, a.ChartToSphere(c, z), c.String())
			}
		}
	}
}

func TestPreferred(t *testing.T) {
	a := New(dynamo.PoincareSphere())
	tests := []struct {
		x, y float64
		want dynamo.Chart
	}{
		{0.1, 0.2, dynamo.R2},
		{5, 1, dynamo.U1},
		{-5, 1, dynamo.V1},
		{1, 5, dynamo.U2},
		{1, -5, dynamo.V2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, a.Preferred(a.R2ToSphere(tt.x, tt.y)), "(%g,%g)", tt.x, tt.y)
	}
}

func TestPlaneContinuation(t *testing.T) {
	a := New(dynamo.PoincareSphere())
	x, y, ok := a.Plane(dynamo.U1, dynamo.Vec2{0.5, -0.25})
	require.True(t, ok)
	assert.InDelta(t, -4, x, 1e-12)
	assert.InDelta(t, -2, y, 1e-12)

	_, _, ok = a.Plane(dynamo.U2, dynamo.Vec2{0.5, 0})
	assert.False(t, ok)

	pl := New(dynamo.LyapunovSphere(2, 3))
	x, y, ok = pl.Plane(dynamo.V2, dynamo.Vec2{1, -0.5})
	require.True(t, ok)
	assert.InDelta(t, -4, x, 1e-12)
	assert.InDelta(t, 8, y, 1e-12)
}

func TestInDomain(t *testing.T) {
	a := New(dynamo.PoincareSphere())
	assert.True(t, a.InDomain(dynamo.R2, dynamo.Vec2{0.5, 0.5}))
	assert.False(t, a.InDomain(dynamo.R2, dynamo.Vec2{1, 0.5}))
	assert.False(t, a.InDomain(dynamo.U1, dynamo.Vec2{0.2, -0.01}))
	assert.False(t, a.InDomain(dynamo.U1, dynamo.Vec2{1.2, 0.1}))
	assert.False(t, a.InDomain(dynamo.U1, dynamo.Vec2{0, 1.5}))
	assert.True(t, a.InDomain(dynamo.V2, dynamo.Vec2{-1, 0}))
	assert.False(t, a.InDomain(dynamo.V2, dynamo.Vec2{math.NaN(), 0}))
}
