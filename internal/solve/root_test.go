package solve

import (
	"errors"
	"math"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/san-kum/polysphere/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindRoot(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()

	tests := []struct {
		name   string
		f, df  func(float64) float64
		lo, hi float64
		want   float64
	}{
		{
			name: "sqrt two",
			f:    func(x float64) float64 { return x*x - 2 },
			df:   func(x float64) float64 { return 2 * x },
			lo:   1, hi: 2,
			want: math.Sqrt2,
		},
		{
			name: "reversed bracket",
			f:    func(x float64) float64 { return x*x - 2 },
			df:   func(x float64) float64 { return 2 * x },
			lo:   2, hi: 1,
			want: math.Sqrt2,
		},
		{
			name: "cosine",
			f:    math.Cos,
			df:   func(x float64) float64 { return -math.Sin(x) },
			lo:   0, hi: 3,
			want: math.Pi / 2,
		},
		{
			name: "flat derivative at start",
			f:    func(x float64) float64 { return x*x*x - 0.001 },
			df:   func(x float64) float64 { return 3 * x * x },
			lo:   -1, hi: 1,
			want: 0.1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindRoot(tt.f, tt.df, tt.lo, tt.hi)
			require.NoError(t, err)
			assert.InDelta(t, 0, tt.f(got), 1e-7)
			assert.InDelta(t, tt.want, got, 1e-8)
		})
	}
}

func TestFindRoot_EndpointZero(t *testing.T) {
	f := func(x float64) float64 { return x - 1 }
	df := func(float64) float64 { return 1 }
	got, err := FindRoot(f, df, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
}

func TestFindRoot_NoBracket(t *testing.T) {
	f := func(x float64) float64 { return x*x + 1 }
	df := func(x float64) float64 { return 2 * x }
	_, err := FindRoot(f, df, -1, 1)
	assert.True(t, errors.Is(err, dynamo.ErrNoBracket))
}
