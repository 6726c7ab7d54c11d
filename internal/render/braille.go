package render

import (
	"math"
	"strings"

	"github.com/san-kum/polysphere/internal/chart"
	"github.com/san-kum/polysphere/internal/dynamo"
)

const blank = 0x2800

// Braille dots of one cell:
// 1 4
// 2 5
// 3 6
// 7 8
var dotBits = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Braille draws into a grid of Braille cells, 2×4 dots per cell. Each cell
// keeps the colour of the last dot set in it.
type Braille struct {
	Width, Height int
	grid          [][]rune
	colors        [][]dynamo.Color
	proj          projector
}

// NewBraille makes a canvas of cols×rows cells showing view v.
func NewBraille(a *chart.Atlas, v chart.View, win Window, cols, rows int) *Braille {
	b := &Braille{
		Width:  cols,
		Height: rows,
		grid:   make([][]rune, rows),
		colors: make([][]dynamo.Color, rows),
		proj:   projector{atlas: a, view: v, win: win, width: float64(2 * cols), height: float64(4 * rows)},
	}
	for i := range b.grid {
		b.grid[i] = []rune(strings.Repeat(string(rune(blank)), cols))
		b.colors[i] = make([]dynamo.Color, cols)
	}
	if v == chart.ViewSphere {
		b.circle(a.DiskRadius())
	}
	return b
}

func (b *Braille) circle(r float64) {
	const n = 256
	prev := b.proj.device(dynamo.Vec2{r, 0})
	for i := 1; i <= n; i++ {
		th := 2 * math.Pi * float64(i) / n
		next := b.proj.device(dynamo.Vec2{r * math.Cos(th), r * math.Sin(th)})
		b.line(prev, next, dynamo.ColorSection)
		prev = next
	}
}

// set turns on the dot at sub-pixel (x,y).
func (b *Braille) set(x, y int, c dynamo.Color) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= b.Width || row >= b.Height {
		return
	}
	b.grid[row][col] |= dotBits[y%4][x%2]
	b.colors[row][col] = c
}

// line draws with Bresenham's algorithm.
func (b *Braille) line(p, q dynamo.Vec2, c dynamo.Color) {
	x0, y0, x1, y1 := int(p[0]), int(p[1]), int(q[0]), int(q[1])
	dx, dy := absInt(x1-x0), absInt(y1-y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy
	for {
		b.set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (b *Braille) PlotLine(p1, p2 dynamo.Point, c dynamo.Color) {
	for _, s := range b.proj.segments(p1, p2) {
		b.line(s[0], s[1], c)
	}
}

func (b *Braille) PlotPoint(p dynamo.Point, c dynamo.Color) {
	if d, ok := b.proj.point(p); ok {
		b.set(int(d[0]), int(d[1]), c)
	}
}

// Dots counts the dots set, for tests and summaries.
func (b *Braille) Dots() int {
	n := 0
	for _, row := range b.grid {
		for _, r := range row {
			for m := r - blank; m != 0; m &= m - 1 {
				n++
			}
		}
	}
	return n
}

// String returns the plain canvas.
func (b *Braille) String() string {
	var sb strings.Builder
	for _, row := range b.grid {
		sb.WriteString(string(row))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Render returns the canvas coloured with the palette.
func (b *Braille) Render() string {
	var sb strings.Builder
	for i, row := range b.grid {
		for j, r := range row {
			if r == blank {
				sb.WriteRune(r)
				continue
			}
			sb.WriteString(ColorStyle(b.colors[i][j]).Render(string(r)))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
