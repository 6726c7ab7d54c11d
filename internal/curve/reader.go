// Package curve reads the point tables written by the symbolic-algebra side
// for invariant curves and isoclines, and draws them on the sphere.
package curve

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/npillmayer/schuko/tracing"
	"github.com/san-kum/polysphere/internal/chart"
	"github.com/san-kum/polysphere/internal/dynamo"
	"github.com/san-kum/polysphere/internal/orbit"
)

func tracer() tracing.Trace {
	return tracing.Select("polysphere.curve")
}

// Set holds the branches of one curve in the coordinates of Chart.
type Set struct {
	Chart    dynamo.Chart
	Branches [][]dynamo.Vec2
}

// ReadFile replaces the contents of s with the table in path. On error s is
// left untouched.
func (s *Set) ReadFile(path string, c dynamo.Chart) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open curve table: %w", err)
	}
	defer f.Close()
	return s.Read(f, c)
}

// Read parses one "x y" pair per line, separated by blanks and/or a comma.
// A line holding a lone comma starts a new branch; blank lines are skipped.
func (s *Set) Read(r io.Reader, c dynamo.Chart) error {
	var branches [][]dynamo.Vec2
	var cur []dynamo.Vec2
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		switch text {
		case "":
			continue
		case ",":
			if len(cur) > 0 {
				branches = append(branches, cur)
			}
			cur = nil
			continue
		}
		z, err := parsePair(text)
		if err != nil {
			return fmt.Errorf("%w: line %d: %v", dynamo.ErrMalformedCurve, line, err)
		}
		cur = append(cur, z)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("%w: %v", dynamo.ErrMalformedCurve, err)
	}
	if len(cur) > 0 {
		branches = append(branches, cur)
	}
	s.Chart, s.Branches = c, branches
	tracer().P("chart", c).P("branches", len(branches)).Debugf("curve table read")
	return nil
}

func parsePair(text string) (dynamo.Vec2, error) {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) != 2 || strings.Count(text, ",") > 1 {
		return dynamo.Vec2{}, fmt.Errorf("want 2 values, got %q", text)
	}
	var z dynamo.Vec2
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return dynamo.Vec2{}, err
		}
		z[i] = v
	}
	if !z.IsValid() {
		return dynamo.Vec2{}, fmt.Errorf("non-finite value in %q", text)
	}
	return z, nil
}

// Points is the total number of points over all branches.
func (s *Set) Points() int {
	n := 0
	for _, b := range s.Branches {
		n += len(b)
	}
	return n
}

// Curves converts every branch to a sphere curve. Each branch starts with an
// isolated point.
func (s *Set) Curves(a *chart.Atlas, color dynamo.Color) []*orbit.Curve {
	out := make([]*orbit.Curve, 0, len(s.Branches))
	for _, b := range s.Branches {
		c := &orbit.Curve{Kind: orbit.KindCurve, Points: make([]orbit.Point, 0, len(b))}
		for i, z := range b {
			c.Points = append(c.Points, orbit.Point{
				P:      a.ChartToSphere(s.Chart, z),
				Color:  color,
				Dashes: i > 0,
				Dir:    1,
			})
		}
		out = append(out, c)
	}
	return out
}

// Draw renders every branch as a polyline.
func (s *Set) Draw(a *chart.Atlas, r dynamo.Renderer, color dynamo.Color) {
	for _, c := range s.Curves(a, color) {
		c.Draw(r)
	}
}
