package config

import (
	"sort"

	"github.com/san-kum/polysphere/internal/field"
)

func terms(triples ...[3]float64) Terms {
	return Terms(field.P(triples...))
}

// Presets builds fresh studies by name.
var Presets = map[string]func() *Study{
	"hopf": func() *Study {
		s := DefaultStudy()
		s.Name = "hopf"
		s.Field.P = terms([3]float64{-1, 0, 1}, [3]float64{1, 1, 0}, [3]float64{-1, 3, 0}, [3]float64{-1, 1, 2})
		s.Field.Q = terms([3]float64{1, 1, 0}, [3]float64{1, 0, 1}, [3]float64{-1, 2, 1}, [3]float64{-1, 0, 3})
		s.Orbits = []OrbitStart{{X: 0.1, Y: 0, Dir: 1}, {X: 2, Y: 0, Dir: 1}}
		s.LimitCycle = &LimitCycleConfig{Section: [4]float64{0.5, 0, 1.5, 0}, Grid: DefaultGrid}
		return s
	},
	"saddle": func() *Study {
		s := DefaultStudy()
		s.Name = "saddle"
		s.Field.P = terms([3]float64{1, 1, 0})
		s.Field.Q = terms([3]float64{-1, 0, 1})
		s.Integration.MaxSteps = 500
		s.Singularities = []SingularityConfig{{
			Kind: "saddle",
			Separatrices: []SeparatrixConfig{
				{Type: "unstable", Direction: 1},
				{Type: "unstable", Direction: -1},
				{Type: "stable", Direction: 1, SwapAxes: true},
				{Type: "stable", Direction: -1, SwapAxes: true},
			},
		}}
		return s
	},
	"quadratic": func() *Study {
		s := DefaultStudy()
		s.Name = "quadratic"
		s.Field.Kind = "original"
		s.Field.P = terms([3]float64{1, 0, 1})
		s.Field.Q = terms([3]float64{-1, 1, 0}, [3]float64{-1, 0, 1}, [3]float64{1, 2, 0})
		s.Field.GCF = terms([3]float64{1, 1, 0}, [3]float64{-2, 0, 0})
		s.Orbits = []OrbitStart{{X: 0.5, Y: 0.5, Dir: 1}, {X: -1, Y: 1, Dir: -1}}
		s.Singularities = []SingularityConfig{{
			Kind:   "saddle",
			X:      1,
			Matrix: []float64{1, 1, 0.618034, -1.618034},
			Separatrices: []SeparatrixConfig{
				{Type: "unstable", Direction: 1},
				{Type: "unstable", Direction: -1},
				{Type: "stable", Direction: 1, SwapAxes: true},
				{Type: "stable", Direction: -1, SwapAxes: true},
			},
		}}
		return s
	},
	"weighted": func() *Study {
		s := DefaultStudy()
		s.Name = "weighted"
		s.Sphere = "poincare-lyapunov"
		s.Weights = [2]int{1, 2}
		s.Field.P = terms([3]float64{1, 0, 1})
		s.Field.Q = terms([3]float64{-1, 3, 0}, [3]float64{-1, 0, 1})
		s.Orbits = []OrbitStart{{X: 0.5, Y: 0, Dir: 1}, {X: 0.5, Y: 0, Dir: -1}}
		return s
	},
	"cubic_infinity": func() *Study {
		s := DefaultStudy()
		s.Name = "cubic_infinity"
		s.Field.P = terms([3]float64{1, 0, 1}, [3]float64{1, 3, 0})
		s.Field.Q = terms([3]float64{-1, 1, 0}, [3]float64{1, 0, 3})
		s.Orbits = []OrbitStart{{X: 0.2, Y: 0, Dir: 1}, {X: 0, Y: 0.3, Dir: -1}, {X: 3, Y: 3, Dir: -1}}
		return s
	},
}

// GetPreset returns a new study for name, or nil.
func GetPreset(name string) *Study {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
