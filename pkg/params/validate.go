package params

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/stairkit/pkg/stairerr"
)

// validator collects every out-of-range parameter before failing, so a user
// sees all problems at once.
type validator struct {
	errs []error
}

func (v *validator) check(ok bool, field, format string, args ...any) {
	if !ok {
		v.errs = append(v.errs, stairerr.New(stairerr.KindParameterOutOfRange, field, format, args...))
	}
}

func (v *validator) positive(x float64, field string) {
	v.check(x > 0 && !math.IsInf(x, 0), field, "must be > 0, got %g", x)
}

func (v *validator) nonNegative(x float64, field string) {
	v.check(x >= 0 && !math.IsInf(x, 0), field, "must be >= 0, got %g", x)
}

func (v *validator) step(i, n int, field string) {
	v.check(i >= 1 && i <= n, field, "step index %d outside 1..%d", i, n)
}

// Validate checks the bundle for out-of-range parameters and returns every
// problem joined into one error. Each joined error matches
// stairerr.ErrParameterOutOfRange.
func Validate(b *Bundle) error {
	if b == nil {
		return stairerr.New(stairerr.KindParameterOutOfRange, "bundle", "missing")
	}
	v := &validator{}
	g := b.Geometry

	v.check(g.StepsNumber >= 1, "geometry.steps_number", "must be >= 1, got %d", g.StepsNumber)
	v.positive(g.StepHeight, "geometry.step_height")
	v.positive(g.StepWidth, "geometry.step_width")
	v.positive(g.Width, "geometry.width")
	v.positive(g.BottomThickness, "geometry.bottom_thickness")
	v.positive(g.TopThickness, "geometry.top_thickness")
	v.positive(g.BottomTopLength, "geometry.bottom_top_length")
	v.positive(g.TopTopLength, "geometry.top_top_length")
	v.positive(g.BottomBottomLength, "geometry.bottom_bottom_length")
	v.check(g.BottomBottomLength <= g.BottomTopLength, "geometry.bottom_top_length",
		"bottom landing length %g is shorter than its underside %g", g.BottomTopLength, g.BottomBottomLength)
	v.nonNegative(g.TopEarWidth, "geometry.top_ear_width")
	v.nonNegative(g.BottomEarWidth, "geometry.bottom_ear_width")
	v.nonNegative(b.Cover, "cover")

	if g.StepsNumber >= 1 && g.StepHeight > 0 {
		rise := float64(g.StepsNumber) * g.StepHeight
		v.check(g.Height == 0 || math.Abs(g.Height-rise) <= 1e-6, "geometry.height",
			"total rise %g does not match %d steps of %g", g.Height, g.StepsNumber, g.StepHeight)
		v.check(g.TopThickness < g.TopZ(), "geometry.top_thickness",
			"top landing thickness %g exceeds the top elevation %g", g.TopThickness, g.TopZ())
	}
	if g.StepsNumber >= 1 && g.StepWidth > 0 {
		v.check(g.ClearSpan >= 0 && g.ClearSpan <= g.TotalLength(), "geometry.clear_span",
			"must lie in [0, %g], got %g", g.TotalLength(), g.ClearSpan)
	}

	validateHoles(v, "holes.top", b.Holes.Top)
	validateHoles(v, "holes.bottom", b.Holes.Bottom)

	if s := b.StepSlots; s.Mode.Enabled() {
		v.positive(s.A, "step_slots.a")
		v.positive(s.B, "step_slots.b")
		v.positive(s.D, "step_slots.d")
		v.nonNegative(s.E, "step_slots.e")
		v.nonNegative(s.C1, "step_slots.c1")
		v.nonNegative(s.C2, "step_slots.c2")
		v.nonNegative(s.C3, "step_slots.c3")
		v.positive(s.C4, "step_slots.c4")
	}

	if d := b.Drips; d.Mode.Enabled() {
		v.positive(d.A, "drips.a")
		v.positive(d.B, "drips.b")
		if d.Section == Trapezoid {
			v.positive(d.C, "drips.c")
			v.check(d.B <= d.A, "drips.b", "trapezoid bottom %g wider than opening %g", d.B, d.A)
		}
		v.nonNegative(d.EdgeOffset, "drips.edge_offset")
		v.nonNegative(d.FrontOffset, "drips.front_offset")
		v.nonNegative(d.BackOffset, "drips.back_offset")
	}

	c := b.Corners
	lim := math.Min(g.StepHeight, g.StepWidth)
	v.check(c.InnerFilletRadius >= 0 && (c.InnerFilletRadius == 0 || c.InnerFilletRadius < lim),
		"corners.inner_fillet_radius", "must lie in [0, %g), got %g", lim, c.InnerFilletRadius)
	v.check(c.OuterChamferSide >= 0 && (c.OuterChamferSide == 0 || c.OuterChamferSide < lim),
		"corners.outer_chamfer_side", "must lie in [0, %g), got %g", lim, c.OuterChamferSide)

	if h := b.Hoisting; h.Mode.Enabled() {
		v.check(h.Name != "", "hoisting.name", "catalogue name required")
		for k, a := range h.Steps {
			v.step(a, g.StepsNumber, fmt.Sprintf("hoisting.steps[%d]", k))
		}
		v.nonNegative(h.EdgeC, "hoisting.edge_c")
		v.nonNegative(h.EdgeD, "hoisting.edge_d")
	}

	if d := b.Demoulding; d.Mode.Enabled() {
		v.check(d.Name != "", "demoulding.name", "catalogue name required")
		if d.Pouring.SideInserts() {
			for k, y := range d.SideStations {
				v.check(y > 0 && y < g.TotalLength(), fmt.Sprintf("demoulding.side_stations[%d]", k),
					"must lie inside (0, %g), got %g", g.TotalLength(), y)
			}
		}
		if d.Pouring.BottomInserts() {
			for k, s := range d.BottomStations {
				v.positive(s, fmt.Sprintf("demoulding.bottom_stations[%d]", k))
			}
		}
		v.nonNegative(d.EdgeC, "demoulding.edge_c")
		v.nonNegative(d.EdgeD, "demoulding.edge_d")
	}

	if r := b.Railing; r.Mode.Enabled() {
		v.check(r.Name != "", "railing.name", "catalogue name required")
		v.check(len(r.Steps) > 0, "railing.steps", "at least one step index required")
		for k, a := range r.Steps {
			v.step(a, g.StepsNumber, fmt.Sprintf("railing.steps[%d]", k))
		}
		v.positive(r.EdgeOffset, "railing.edge_offset")
	}

	validateRebar(v, b.Rebar, b.Hoisting.Mode.Enabled())

	if j := b.Joint; j.Mode.Enabled() {
		v.positive(j.AnchorDiameter, "joint.anchor_diameter")
		v.positive(j.AnchorLength, "joint.anchor_length")
		v.positive(j.AnchorLegLength, "joint.anchor_leg_length")
		v.positive(j.NutThickness, "joint.nut_thickness")
		v.check(j.NutDiameter > j.AnchorDiameter, "joint.nut_diameter",
			"nut %g must be wider than the anchor %g", j.NutDiameter, j.AnchorDiameter)
		v.positive(j.ShimThickness, "joint.shim_thickness")
		v.check(j.ShimDiameter >= j.NutDiameter, "joint.shim_diameter",
			"shim %g narrower than the nut %g", j.ShimDiameter, j.NutDiameter)
	}

	return errors.Join(v.errs...)
}

func validateHoles(v *validator, field string, h HoleEnd) {
	for _, side := range []struct {
		name string
		off  EdgeOffset
	}{{"left", h.Left}, {"right", h.Right}} {
		v.positive(side.off.A, field+"."+side.name+".a")
		v.positive(side.off.B, field+"."+side.name+".b")
	}
	switch h.Type {
	case FixedPin:
		v.positive(h.Fixed.BottomDiameter, field+".fixed.bottom_diameter")
		v.positive(h.Fixed.TopDiameter, field+".fixed.top_diameter")
	case SlidingPin:
		s := h.Sliding
		v.positive(s.BottomDiameter, field+".sliding.bottom_diameter")
		v.positive(s.LowerTopDiameter, field+".sliding.lower_top_diameter")
		v.positive(s.UpperBottomDiameter, field+".sliding.upper_bottom_diameter")
		v.positive(s.TopDiameter, field+".sliding.top_diameter")
		v.positive(s.H1, field+".sliding.h1")
	}
}

func validateRebar(v *validator, r Rebar, hoisting bool) {
	type entry struct {
		name        string
		g           Group
		distributed bool
	}
	groups := []entry{
		{"bottom_long", r.BottomLong, true},
		{"top_long", r.TopLong, true},
	}
	if r.Full() {
		groups = append(groups,
			entry{"mid_distribution", r.MidDistribution, true},
			entry{"bottom_edge_long", r.BottomEdgeLong, false},
			entry{"top_edge_long", r.TopEdgeLong, false},
			entry{"bottom_edge_stirrup", r.BottomEdgeStirrup, true},
			entry{"top_edge_stirrup", r.TopEdgeStirrup, true},
			entry{"hole_reinforcement", r.HoleReinforcement, false},
			entry{"bottom_edge_reinforcement", r.BottomEdgeReinforcement, true},
			entry{"top_edge_reinforcement", r.TopEdgeReinforcement, true},
		)
		if hoisting {
			groups = append(groups,
				entry{"hoisting_long", r.HoistingLong, false},
				entry{"hoisting_point", r.HoistingPoint, false},
			)
		}
		v.positive(r.StirrupDepth, "rebar.stirrup_depth")
		v.positive(r.AnchorageLength, "rebar.anchorage_length")
		v.positive(r.HoleLegLength, "rebar.hole_leg_length")
		if hoisting {
			v.positive(r.HoistingLongLength, "rebar.hoisting_long_length")
			v.positive(r.HoistingPointLength, "rebar.hoisting_point_length")
		}
	}
	v.nonNegative(r.StartEdge, "rebar.start_edge")
	for _, e := range groups {
		f := "rebar." + e.name
		v.positive(e.g.Diameter, f+".diameter")
		if e.distributed {
			v.positive(e.g.Spacing, f+".spacing")
		}
		v.check(e.g.Grade >= 1 && e.g.Grade <= 3, f+".grade", "must be 1, 2 or 3, got %d", e.g.Grade)
	}
}
