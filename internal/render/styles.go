package render

import (
	"image/color"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/polysphere/internal/dynamo"
)

// Palette maps each curve colour class to a hex colour.
var Palette = map[dynamo.Color]string{
	dynamo.ColorOrbit:          "#e0e0e0",
	dynamo.ColorStable:         "#00ccff",
	dynamo.ColorUnstable:       "#ff4444",
	dynamo.ColorCenterStable:   "#00ff88",
	dynamo.ColorCenterUnstable: "#ffaa00",
	dynamo.ColorLimitCycle:     "#ff00ff",
	dynamo.ColorCurve:          "#ffcc00",
	dynamo.ColorSection:        "#888899",
}

const (
	background = "#0a0a0a"
	frame      = "#444466"
)

func hex(c dynamo.Color) string {
	if h, ok := Palette[c]; ok {
		return h
	}
	return Palette[dynamo.ColorOrbit]
}

// rgba parses a "#rrggbb" colour.
func rgba(h string) color.RGBA {
	var v [3]uint8
	for i := range v {
		v[i] = unhex(h[1+2*i])<<4 | unhex(h[2+2*i])
	}
	return color.RGBA{R: v[0], G: v[1], B: v[2], A: 0xff}
}

func unhex(b byte) uint8 {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10
	}
	return 0
}

// Terminal styles shared by the CLI and the TUI.
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(frame)).
		Padding(0, 1)

	Label = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888899"))

	Value = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#00ccff")).
		Bold(true)

	Hint = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688")).
		Italic(true)

	Warn = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#ffaa00"))

	Good = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ff88"))
)

// ColorStyle is the foreground style of a curve colour class.
func ColorStyle(c dynamo.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex(c)))
}

// KeyValue renders "label: value" with the shared styles.
func KeyValue(label, value string) string {
	return Label.Render(label+":") + " " + Value.Render(value)
}
