package locate

import (
	"fmt"
	"math"

	"github.com/chazu/stairkit/pkg/geom"
)

// FilletSpec fills the inside corner at the foot of one riser with a
// concave quarter-round. The profile is two lines and one arc.
type FilletSpec struct {
	Name   string // "riser-3"
	Riser  int
	Corner geom.Vec2 // (yᵢ, zᵢ₋₁)
	Radius float64
	Length float64 // along X
}

// Points returns the profile as start, corner, top and the arc back to the
// start: lines start→corner→top, then the arc top→mid→start.
func (f FilletSpec) Points() (start, corner, top, mid geom.Vec2) {
	r := f.Radius
	c := f.Corner
	centre := geom.V2(c.X-r, c.Y+r)
	return geom.V2(c.X-r, c.Y), c, geom.V2(c.X, c.Y+r),
		centre.Add(geom.V2(math.Sqrt2/2, -math.Sqrt2/2).Scale(r))
}

// Area is r² minus the quarter disc.
func (f FilletSpec) Area() float64 {
	return f.Radius * f.Radius * (1 - math.Pi/4)
}

// Polygon samples the profile with n chords on the arc.
func (f FilletSpec) Polygon(n int) geom.Polygon2 {
	start, corner, top, mid := f.Points()
	arc, err := geom.ArcPoints(top, mid, start, n)
	if err != nil {
		return geom.Polygon2{start, corner, top}
	}
	p := geom.Polygon2{start, corner}
	return append(p, arc[:len(arc)-1]...)
}

// Frame places the profile: profile x is world Y, extrusion along +X.
func (f FilletSpec) Frame() geom.Frame { return bodyFrame(0) }

// ChamferSpec cuts the nosing of one riser with a 45° wedge.
type ChamferSpec struct {
	Name   string
	Riser  int
	Nosing geom.Vec2 // (yᵢ, zᵢ)
	Side   float64
	Length float64
}

// Extrusion returns the wedge prism.
func (c ChamferSpec) Extrusion() Extrusion {
	n := c.Nosing
	return Extrusion{
		Profile: geom.Polygon2{n, geom.V2(n.X, n.Y-c.Side), geom.V2(n.X+c.Side, n.Y)},
		Frame:   bodyFrame(0),
		Length:  c.Length,
	}
}

func locateCorners(s *stair, f *Features) error {
	co := s.b.Corners
	for i := 1; i <= s.n; i++ {
		name := fmt.Sprintf("riser-%d", i)
		if co.InnerFilletRadius > 0 {
			f.Fillets = append(f.Fillets, FilletSpec{
				Name:   name,
				Riser:  i,
				Corner: geom.V2(s.riserY(i), s.treadZ(i-1)),
				Radius: co.InnerFilletRadius,
				Length: s.width,
			})
		}
		if co.OuterChamferSide > 0 {
			f.Chamfers = append(f.Chamfers, ChamferSpec{
				Name:   name,
				Riser:  i,
				Nosing: geom.V2(s.riserY(i), s.treadZ(i)),
				Side:   co.OuterChamferSide,
				Length: s.width,
			})
		}
	}
	return nil
}
