package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/polysphere/internal/chart"
	"github.com/san-kum/polysphere/internal/dynamo"
)

// SVG collects line and point elements and writes them as one document.
type SVG struct {
	proj  projector
	width int
	body  strings.Builder
	// open path and its colour
	path      strings.Builder
	pathColor dynamo.Color
	pathEnd   dynamo.Vec2
}

func NewSVG(a *chart.Atlas, v chart.View, win Window, width, height int) *SVG {
	s := &SVG{proj: projector{atlas: a, view: v, win: win, width: float64(width), height: float64(height)}, width: width}
	if v == chart.ViewSphere {
		c := s.proj.device(dynamo.Vec2{0, 0})
		e := s.proj.device(dynamo.Vec2{a.DiskRadius(), 0})
		fmt.Fprintf(&s.body, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="none" stroke="%s"/>`+"\n", c[0], c[1], e[0]-c[0], frame)
	}
	return s
}

func (s *SVG) PlotLine(p1, p2 dynamo.Point, c dynamo.Color) {
	for _, seg := range s.proj.segments(p1, p2) {
		if s.path.Len() > 0 && c == s.pathColor && seg[0] == s.pathEnd {
			fmt.Fprintf(&s.path, " L%.1f,%.1f", seg[1][0], seg[1][1])
		} else {
			s.flush()
			s.pathColor = c
			fmt.Fprintf(&s.path, "M%.1f,%.1f L%.1f,%.1f", seg[0][0], seg[0][1], seg[1][0], seg[1][1])
		}
		s.pathEnd = seg[1]
	}
}

func (s *SVG) PlotPoint(p dynamo.Point, c dynamo.Color) {
	d, ok := s.proj.point(p)
	if !ok {
		return
	}
	s.flush()
	fmt.Fprintf(&s.body, `<circle cx="%.1f" cy="%.1f" r="1.5" fill="%s"/>`+"\n", d[0], d[1], hex(c))
}

func (s *SVG) flush() {
	if s.path.Len() == 0 {
		return
	}
	fmt.Fprintf(&s.body, `<path fill="none" stroke="%s" stroke-width="1.2" d="%s"/>`+"\n", hex(s.pathColor), s.path.String())
	s.path.Reset()
}

// String returns the complete document.
func (s *SVG) String() string {
	s.flush()
	h := int(s.proj.height)
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
%s</svg>
`, s.width, h, s.width, h, background, s.body.String())
}

func (s *SVG) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, s.String())
	return int64(n), err
}
