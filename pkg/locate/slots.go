package locate

import (
	"fmt"

	"github.com/chazu/stairkit/pkg/geom"
	"github.com/chazu/stairkit/pkg/stairerr"
)

// RampTip is the scale of a groove ramp's collapsed end. A true point
// section cannot be swept, so the ramp ends on a section this much smaller
// than the groove.
const RampTip = 1e-3

// SlotSpec is one anti-slip groove across a tread.
type SlotSpec struct {
	Name  string // "tread-3-1"
	Tread int
	Index int // 0 front groove, 1 back groove
	// Centre is the groove apex line on the tread surface at x = 0.
	Centre geom.Vec2
	// Section is the triangular groove section around Centre.
	Section geom.Polygon2
	X0, X1  float64 // full-depth span
	Ramp    float64
}

// Core is the full-depth prism between the ramps.
func (s SlotSpec) Core() Extrusion {
	return Extrusion{
		Profile: s.Section,
		Frame:   s.frame(s.X0),
		Length:  s.X1 - s.X0,
	}
}

// Ramps are the two tapered end pieces: the left one grows from a point on
// the surface to the full section, the right one shrinks back.
func (s SlotSpec) Ramps() [2]Extrusion {
	return [2]Extrusion{
		{Profile: scaled(s.Section, RampTip), Frame: s.frame(s.X0 - s.Ramp), Length: s.Ramp, Taper: 1 / RampTip},
		{Profile: s.Section, Frame: s.frame(s.X1), Length: s.Ramp, Taper: RampTip},
	}
}

// Bounds covers the full-depth span only.
func (s SlotSpec) Bounds() (min, max geom.Vec3) { return s.Core().Bounds() }

func (s SlotSpec) frame(x float64) geom.Frame {
	f := bodyFrame(x)
	f.Origin = geom.V3(x, s.Centre.X, s.Centre.Y)
	return f
}

func locateSlots(s *stair, f *Features) error {
	sl := s.b.StepSlots
	if !sl.Mode.Enabled() {
		return nil
	}
	x0 := sl.C1 + sl.E
	x1 := s.width - sl.C2 - sl.E
	if x1-x0 <= geom.Eps {
		return stairerr.New(stairerr.KindGeometryInfeasible, "StepSlot", "edge distances leave no groove length (%.1f to %.1f)", x0, x1)
	}
	section := geom.Polygon2{{X: -sl.A, Y: 0}, {X: 0, Y: -sl.D}, {X: sl.B, Y: 0}}
	for i := 1; i <= s.n; i++ {
		front, end := s.riserY(i), s.g.TreadEnd(i)
		for k, off := range []float64{sl.C3, sl.C3 + sl.C4} {
			name := fmt.Sprintf("tread-%d-%d", i, k+1)
			c := front + off
			if c-sl.A < front-geom.Eps || c+sl.B > end+geom.Eps {
				return stairerr.New(stairerr.KindGeometryInfeasible, fmt.Sprintf("StepSlot[%s]", name),
					"groove [%.1f, %.1f] overruns the tread [%.1f, %.1f]", c-sl.A, c+sl.B, front, end)
			}
			if sl.D >= s.h && i < s.n {
				return stairerr.New(stairerr.KindGeometryInfeasible, fmt.Sprintf("StepSlot[%s]", name),
					"depth %.1f is not below the step height", sl.D)
			}
			f.Slots = append(f.Slots, SlotSpec{
				Name:    name,
				Tread:   i,
				Index:   k,
				Centre:  geom.V2(c, s.treadZ(i)),
				Section: section,
				X0:      x0,
				X1:      x1,
				Ramp:    sl.E,
			})
		}
	}
	return nil
}
