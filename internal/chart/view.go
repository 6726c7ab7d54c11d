package chart

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/polysphere/internal/dynamo"
)

// View selects the 2-D coordinates a renderer draws in.
type View int

const (
	// ViewSphere is the whole compactified plane seen as a disk: radius 1 on
	// the Poincaré sphere, radius 2 on the Poincaré–Lyapunov sphere.
	ViewSphere View = iota
	ViewR2
	ViewU1
	ViewV1
	ViewU2
	ViewV2
)

var viewNames = [...]string{"sphere", "R2", "U1", "V1", "U2", "V2"}

func (v View) String() string {
	if v < ViewSphere || v > ViewV2 {
		return fmt.Sprintf("View(%d)", int(v))
	}
	return viewNames[v]
}

func ParseView(s string) (View, error) {
	for i, n := range viewNames {
		if strings.EqualFold(n, s) {
			return View(i), nil
		}
	}
	return ViewSphere, fmt.Errorf("%w: unknown view %q", dynamo.ErrUnknownChart, s)
}

// Chart returns the chart a chart view draws in; ViewSphere has none.
func (v View) Chart() (dynamo.Chart, bool) {
	switch v {
	case ViewR2:
		return dynamo.R2, true
	case ViewU1:
		return dynamo.U1, true
	case ViewV1:
		return dynamo.V1, true
	case ViewU2:
		return dynamo.U2, true
	case ViewV2:
		return dynamo.V2, true
	}
	return dynamo.R2, false
}

// DiskRadius is the radius of the circle at infinity in ViewSphere.
func (a *Atlas) DiskRadius() float64 {
	if a.lyapunov() {
		return 2
	}
	return 1
}

// ToView projects a sphere point to view coordinates. Chart views cover the
// opposite half of the sphere too (with w < 0) whenever the relevant weight is
// odd.
func (a *Atlas) ToView(v View, pt dynamo.Point) (dynamo.Vec2, bool) {
	switch v {
	case ViewSphere:
		if !a.lyapunov() {
			return dynamo.Vec2{pt[0], pt[1]}, true
		}
		if pt.Finite() {
			return dynamo.Vec2{pt[1], pt[2]}, true
		}
		rho := 2 - pt[1]
		return dynamo.Vec2{rho * math.Cos(pt[2]), rho * math.Sin(pt[2])}, true
	case ViewR2:
		return a.SphereToR2(pt)
	}
	c, _ := v.Chart()
	return a.chartCoords(c, pt, true)
}

// FromDiskView is the inverse of the ViewSphere projection.
func (a *Atlas) FromDiskView(u, w float64) dynamo.Point {
	rho := math.Hypot(u, w)
	if !a.lyapunov() {
		if rho > 1 {
			u, w = u/rho, w/rho
		}
		return dynamo.Point{u, w, math.Sqrt(math.Max(0, 1-u*u-w*w))}
	}
	if rho < 1 {
		return dynamo.Point{0, u, w}
	}
	return dynamo.Point{1, math.Max(0, 2-rho), math.Atan2(w, u)}
}

// IsValidViewCoord reports whether (u,w) is a drawable coordinate of view v.
func (a *Atlas) IsValidViewCoord(v View, u, w float64) bool {
	if !(dynamo.Vec2{u, w}).IsValid() {
		return false
	}
	switch v {
	case ViewSphere:
		r := a.DiskRadius()
		return u*u+w*w <= r*r*(1+slack)
	case ViewR2:
		return true
	case ViewU1, ViewV1:
		return w >= 0 || a.p%2 == 1
	}
	return w >= 0 || a.q%2 == 1
}

// ViewPair projects the segment p1-p2 to view v. Chart views U1/V1 are
// discontinuous where X = 0 and U2/V2 where Y = 0; when the segment crosses
// that line it is split there and four coordinates (two sub-segments) are
// returned with false. Otherwise the two end coordinates are returned with
// true. Coordinates that cannot be drawn are NaN.
func (a *Atlas) ViewPair(v View, p1, p2 dynamo.Point) ([]dynamo.Vec2, bool) {
	g1, g2 := a.discontinuity(v, p1), a.discontinuity(v, p2)
	if g1*g2 >= 0 {
		return []dynamo.Vec2{a.viewOrNaN(v, p1), a.viewOrNaN(v, p2)}, true
	}

	d1, _ := a.ToView(ViewSphere, p1)
	d2, _ := a.ToView(ViewSphere, p2)
	at := func(t float64) dynamo.Point {
		m := d1.Add(d2.Sub(d1).Scale(t))
		return a.FromDiskView(m[0], m[1])
	}

	// lo stays strictly on p1's side of the seam and hi strictly on p2's:
	// a point on the seam itself has no chart coordinates.
	lo, hi := 0.0, 1.0
bisect:
	for hi-lo > 1e-6 {
		mid := (lo + hi) / 2
		d := a.discontinuity(v, at(mid))
		switch {
		case d*g1 > 0:
			lo = mid
		case d*g2 > 0:
			hi = mid
		default:
			lo, hi = a.straddle(v, at, mid, lo, hi, g1, g2)
			break bisect
		}
	}
	pa, pb := at(lo), at(hi)
	return []dynamo.Vec2{
		a.viewOrNaN(v, p1), a.viewOrNaN(v, pa),
		a.viewOrNaN(v, pb), a.viewOrNaN(v, p2),
	}, false
}

// straddle steps off a seam point at parameter mid to the nearest
// parameters on either side that are still within [lo, hi].
func (a *Atlas) straddle(v View, at func(float64) dynamo.Point, mid, lo, hi, g1, g2 float64) (float64, float64) {
	l, h := lo, hi
	for dt := 1e-7; dt < mid-lo; dt *= 2 {
		if a.discontinuity(v, at(mid-dt))*g1 > 0 {
			l = mid - dt
			break
		}
	}
	for dt := 1e-7; dt < hi-mid; dt *= 2 {
		if a.discontinuity(v, at(mid+dt))*g2 > 0 {
			h = mid + dt
			break
		}
	}
	return l, h
}

// discontinuity is the signed distance-like quantity whose zero set is the
// seam of view v; zero for views without a seam.
func (a *Atlas) discontinuity(v View, pt dynamo.Point) float64 {
	var axis int
	switch v {
	case ViewU1, ViewV1:
		axis = 1
	case ViewU2, ViewV2:
		axis = 2
	default:
		return 0
	}
	if !a.lyapunov() {
		return pt[axis-1]
	}
	if pt.Finite() {
		return pt[axis]
	}
	if axis == 1 {
		return math.Cos(pt[2])
	}
	return math.Sin(pt[2])
}

func (a *Atlas) viewOrNaN(v View, pt dynamo.Point) dynamo.Vec2 {
	c, ok := a.ToView(v, pt)
	if !ok || !a.IsValidViewCoord(v, c[0], c[1]) {
		return dynamo.Vec2{math.NaN(), math.NaN()}
	}
	return c
}
