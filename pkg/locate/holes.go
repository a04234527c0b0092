package locate

import (
	"fmt"
	"math"

	"github.com/chazu/stairkit/pkg/geom"
	"github.com/chazu/stairkit/pkg/params"
	"github.com/chazu/stairkit/pkg/stairerr"
)

// End is the stair end a hole belongs to.
type End int

const (
	Bottom End = iota
	Top
)

func (e End) String() string {
	if e == Top {
		return "top"
	}
	return "bottom"
}

// Side is the long edge a feature is nearer to: left is x = 0.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Right {
		return "right"
	}
	return "left"
}

// HoleSpec is one vertical connection hole, described as an r-vs-z section
// revolved about its axis.
type HoleSpec struct {
	Name string // "top-left", "bottom-right", ...
	End  End
	Side Side
	Type params.HoleType
	// Base is the axis point at section z = 0, below the underside by the
	// overcut.
	Base geom.Vec3
	// Section runs from the axis at z = 0 out and up to the axis at the
	// top surface; z never decreases along it.
	Section []geom.Vec2
	Overcut float64
}

// Height is the section height from Base to the top surface.
func (h HoleSpec) Height() float64 { return h.Section[len(h.Section)-1].Y }

// MaxRadius is the widest radius of the section.
func (h HoleSpec) MaxRadius() float64 {
	var r float64
	for _, p := range h.Section {
		r = math.Max(r, p.X)
	}
	return r
}

// Frame is the hole axis frame: origin at Base, z up, x along +X.
func (h HoleSpec) Frame() geom.Frame {
	return geom.Frame{Origin: h.Base, Z: geom.DirZ, X: geom.DirX}
}

// Frustum is one truncated cone of a hole: radius R0 at Z above Base and
// R1 at Z + Height.
type Frustum struct {
	Z, Height float64
	R0, R1    float64
}

// Frustums splits the section into its stacked cones, bottom first. A
// fixed-pin hole is one cone, a sliding-pin hole two.
func (h HoleSpec) Frustums() []Frustum {
	var out []Frustum
	for i := 1; i < len(h.Section); i++ {
		a, b := h.Section[i-1], h.Section[i]
		if b.Y-a.Y <= 0 {
			continue
		}
		out = append(out, Frustum{Z: a.Y, Height: b.Y - a.Y, R0: a.X, R1: b.X})
	}
	return out
}

// Volume is the exact volume of the revolved section.
func (h HoleSpec) Volume() float64 {
	var v float64
	for _, c := range h.Frustums() {
		v += math.Pi * c.Height * (c.R0*c.R0 + c.R0*c.R1 + c.R1*c.R1) / 3
	}
	return v
}

// Bounds returns the axis-aligned box of the revolved section.
func (h HoleSpec) Bounds() (min, max geom.Vec3) {
	r := h.MaxRadius()
	return h.Base.Sub(geom.V3(r, r, 0)), h.Base.Add(geom.V3(r, r, h.Height()))
}

func locateHoles(s *stair, f *Features) error {
	ends := []struct {
		end End
		rec params.HoleEnd
	}{
		{Top, s.b.Holes.Top},
		{Bottom, s.b.Holes.Bottom},
	}
	for _, e := range ends {
		for _, side := range []Side{Left, Right} {
			h, err := s.hole(e.end, side, e.rec)
			if err != nil {
				return err
			}
			f.Holes = append(f.Holes, h)
		}
	}
	return nil
}

func (s *stair) hole(end End, side Side, rec params.HoleEnd) (HoleSpec, error) {
	name := end.String() + "-" + side.String()
	entity := fmt.Sprintf("HoleCone[%s]", name)
	off := rec.Left
	x := off.B
	if side == Right {
		off = rec.Right
		x = s.width - off.B
	}

	var rBot, rTop, rMax float64
	switch rec.Type {
	case params.SlidingPin:
		sl := rec.Sliding
		rBot, rTop = sl.BottomDiameter/2, sl.TopDiameter/2
		rMax = math.Max(math.Max(rBot, rTop), math.Max(sl.LowerTopDiameter, sl.UpperBottomDiameter)/2)
	default:
		rBot, rTop = rec.Fixed.BottomDiameter/2, rec.Fixed.TopDiameter/2
		rMax = math.Max(rBot, rTop)
	}

	y := off.A
	surface := s.tb
	if end == Top {
		y = s.ytot - off.A
		surface = s.ztop
		if y-rMax < s.yn-geom.Eps {
			return HoleSpec{}, stairerr.New(stairerr.KindGeometryInfeasible, entity,
				"hole at y=%.1f (radius %.1f) reaches past the top landing front edge y=%.1f", y, rMax, s.yn)
		}
	} else {
		if y >= s.lbb {
			return HoleSpec{}, stairerr.New(stairerr.KindGeometryInfeasible, entity,
				"axis y=%.1f is not on the flat bottom landing (ends at %.1f)", y, s.lbb)
		}
		if y+rMax > s.lbt+geom.Eps {
			return HoleSpec{}, stairerr.New(stairerr.KindGeometryInfeasible, entity,
				"hole at y=%.1f (radius %.1f) reaches past the first riser y=%.1f", y, rMax, s.lbt)
		}
	}
	if y-rMax < -geom.Eps || y+rMax > s.ytot+geom.Eps || x-rMax < -geom.Eps || x+rMax > s.width+geom.Eps {
		return HoleSpec{}, stairerr.New(stairerr.KindGeometryInfeasible, entity, "hole breaks out of the side faces")
	}

	// The underside rises with y, so the lowest point under the hole
	// footprint is at its front edge.
	zu := s.underside(y)
	z0 := s.underside(math.Max(0, y-rMax))
	overcut := zu - z0
	thickness := surface - zu
	height := surface - z0

	var sec []geom.Vec2
	switch rec.Type {
	case params.SlidingPin:
		sl := rec.Sliding
		if sl.H1 >= thickness {
			return HoleSpec{}, stairerr.New(stairerr.KindParameterOutOfRange, entity,
				"h1 %.1f is not below the local thickness %.1f", sl.H1, thickness)
		}
		step := height - sl.H1
		sec = []geom.Vec2{
			{X: 0, Y: 0},
			{X: rBot, Y: 0},
			{X: sl.LowerTopDiameter / 2, Y: step},
			{X: sl.UpperBottomDiameter / 2, Y: step},
			{X: rTop, Y: height},
			{X: 0, Y: height},
		}
	default:
		sec = []geom.Vec2{{X: 0, Y: 0}, {X: rBot, Y: 0}, {X: rTop, Y: height}, {X: 0, Y: height}}
	}

	return HoleSpec{
		Name:    name,
		End:     end,
		Side:    side,
		Type:    rec.Type,
		Base:    geom.V3(x, y, z0),
		Section: sec,
		Overcut: overcut,
	}, nil
}
