package locate

import (
	"math"

	"github.com/chazu/stairkit/pkg/geom"
	"github.com/chazu/stairkit/pkg/params"
)

// stair caches the derived constants of one bundle. Side-profile points are
// geom.Vec2{X: y, Y: z}.
type stair struct {
	b     *params.Bundle
	g     params.Geometry
	n     int
	w, h  float64
	width float64
	cover float64
	tb    float64
	tt    float64
	lbt   float64
	lbb   float64
	ztop  float64
	ytot  float64
	yn    float64
	theta float64 // underside slope
}

func newStair(b *params.Bundle) *stair {
	g := b.Geometry
	return &stair{
		b:     b,
		g:     g,
		n:     g.StepsNumber,
		w:     g.StepWidth,
		h:     g.StepHeight,
		width: g.Width,
		cover: b.Cover,
		tb:    g.BottomThickness,
		tt:    g.TopThickness,
		lbt:   g.BottomTopLength,
		lbb:   g.BottomBottomLength,
		ztop:  g.TopZ(),
		ytot:  g.TotalLength(),
		yn:    g.RiserY(g.StepsNumber),
		theta: g.UndersideSlope(),
	}
}

func (s *stair) riserY(i int) float64 { return s.g.RiserY(i) }
func (s *stair) treadZ(i int) float64 { return s.g.TreadZ(i) }

// underside returns the bottom surface elevation at y.
func (s *stair) underside(y float64) float64 { return s.g.UndersideZ(y) }

// surface returns the top surface elevation at y; on a riser the lower tread
// wins.
func (s *stair) surface(y float64) float64 {
	if y <= s.lbt {
		return s.tb
	}
	for i := s.n; i >= 1; i-- {
		if y > s.riserY(i) {
			return s.treadZ(i)
		}
	}
	return s.tb
}

// knee and backFoot are the ends of the sloped underside.
func (s *stair) knee() geom.Vec2     { return geom.V2(s.lbb, 0) }
func (s *stair) backFoot() geom.Vec2 { return geom.V2(s.ytot, s.ztop-s.tt) }

// slopeDir is the unit direction of the underside, front to back.
func (s *stair) slopeDir() geom.Vec2 { return geom.V2(math.Cos(s.theta), math.Sin(s.theta)) }

// pitchDir is the unit direction of the line through the riser feet.
func (s *stair) pitchDir() geom.Vec2 { return geom.V2(s.w, s.h).Unit() }

// bodyProfile walks the side profile counter-clockwise (viewed from +X).
func (s *stair) bodyProfile() geom.Polygon2 {
	p := geom.Polygon2{
		{X: 0, Y: 0},
		s.knee(),
		s.backFoot(),
		{X: s.ytot, Y: s.ztop},
		{X: s.yn, Y: s.ztop},
	}
	for i := s.n; i >= 2; i-- {
		p = append(p,
			geom.V2(s.riserY(i), s.treadZ(i-1)),
			geom.V2(s.riserY(i-1), s.treadZ(i-1)),
		)
	}
	return append(p, geom.V2(s.lbt, s.tb), geom.V2(0, s.tb))
}

// bodyFrame maps profile x to world Y, profile y to world Z and extrudes
// along world +X, starting at x = x0.
func bodyFrame(x0 float64) geom.Frame {
	return geom.Frame{Origin: geom.V3(x0, 0, 0), Z: geom.DirX, X: geom.DirY}
}

// polyPath is an open polyline in the side profile with arc-length lookup.
type polyPath []geom.Vec2

func (p polyPath) length() float64 {
	var l float64
	for i := 1; i < len(p); i++ {
		l += p[i].Dist(p[i-1])
	}
	return l
}

// at returns the point at arc length t and the unit tangent there.
func (p polyPath) at(t float64) (geom.Vec2, geom.Vec2) {
	for i := 1; i < len(p); i++ {
		seg := p[i].Sub(p[i-1])
		l := seg.Norm()
		if t <= l || i == len(p)-1 {
			d := seg.Unit()
			return p[i-1].Add(d.Scale(math.Min(t, l))), d
		}
		t -= l
	}
	return p[0], geom.V2(1, 0)
}

// sAt returns the arc length at which the path reaches y, assuming y
// increases along the path.
func (p polyPath) sAt(y float64) float64 {
	var acc float64
	for i := 1; i < len(p); i++ {
		a, b := p[i-1], p[i]
		l := b.Dist(a)
		if y <= b.X || i == len(p)-1 {
			if b.X-a.X < 1e-12 {
				return acc
			}
			return acc + l*(y-a.X)/(b.X-a.X)
		}
		acc += l
	}
	return acc
}

// zAt returns the elevation of the path at y, assuming y increases along
// the path.
func (p polyPath) zAt(y float64) float64 {
	if y <= p[0].X {
		return p[0].Y
	}
	for i := 1; i < len(p); i++ {
		if y <= p[i].X {
			a, b := p[i-1], p[i]
			if b.X-a.X < 1e-12 {
				return b.Y
			}
			return a.Y + (y-a.X)*(b.Y-a.Y)/(b.X-a.X)
		}
	}
	return p[len(p)-1].Y
}

// undersidePath returns the underside polyline between y0 and y1.
func (s *stair) undersidePath(y0, y1 float64) polyPath {
	p := polyPath{geom.V2(y0, s.underside(y0))}
	if s.lbb > y0+geom.Eps && s.lbb < y1-geom.Eps {
		p = append(p, s.knee())
	}
	return append(p, geom.V2(y1, s.underside(y1)))
}

// bottomLayer is the underside offset inward by d, trimmed to [y0, y1].
func (s *stair) bottomLayer(y0, y1, d float64) (polyPath, error) {
	base := s.undersidePath(y0, y1)
	off, err := geom.OffsetPolyline(base, d)
	if err != nil {
		return nil, err
	}
	return polyPath(off), nil
}
