package render

import (
	"fmt"
	"image"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"github.com/san-kum/polysphere/internal/chart"
	"github.com/san-kum/polysphere/internal/dynamo"
)

// PNG draws into an in-memory image.
type PNG struct {
	dc   *gg.Context
	proj projector
}

// NewPNG prepares a width×height image of view v. On the sphere view the
// circle at infinity is drawn; title, when set, is written in the top-left
// corner.
func NewPNG(a *chart.Atlas, v chart.View, win Window, width, height int, title string) (*PNG, error) {
	if width <= 0 || height <= 0 || !win.Valid() {
		return nil, fmt.Errorf("png: bad geometry %dx%d %+v", width, height, win)
	}
	dc := gg.NewContext(width, height)
	dc.SetColor(rgba(background))
	dc.Clear()

	r := &PNG{dc: dc, proj: projector{atlas: a, view: v, win: win, width: float64(width), height: float64(height)}}
	if v == chart.ViewSphere {
		c := r.proj.device(dynamo.Vec2{0, 0})
		e := r.proj.device(dynamo.Vec2{a.DiskRadius(), 0})
		dc.SetColor(rgba(frame))
		dc.SetLineWidth(1)
		dc.DrawCircle(c[0], c[1], e[0]-c[0])
		dc.Stroke()
	}
	if title != "" {
		face, err := monoFace(12)
		if err != nil {
			return nil, err
		}
		dc.SetFontFace(face)
		dc.SetColor(rgba(Palette[dynamo.ColorOrbit]))
		dc.DrawStringAnchored(title, 6, 6, 0, 1)
	}
	return r, nil
}

func monoFace(size float64) (font.Face, error) {
	f, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %v", err)
	}
	return truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull}), nil
}

func (r *PNG) PlotLine(p1, p2 dynamo.Point, c dynamo.Color) {
	r.dc.SetColor(rgba(hex(c)))
	r.dc.SetLineWidth(1.2)
	for _, s := range r.proj.segments(p1, p2) {
		r.dc.DrawLine(s[0][0], s[0][1], s[1][0], s[1][1])
		r.dc.Stroke()
	}
}

func (r *PNG) PlotPoint(p dynamo.Point, c dynamo.Color) {
	d, ok := r.proj.point(p)
	if !ok {
		return
	}
	r.dc.SetColor(rgba(hex(c)))
	r.dc.DrawPoint(d[0], d[1], 1.5)
	r.dc.Fill()
}

func (r *PNG) Image() image.Image {
	return r.dc.Image()
}

func (r *PNG) Save(path string) error {
	tracer().P("path", path).Debugf("writing png")
	return r.dc.SavePNG(path)
}
