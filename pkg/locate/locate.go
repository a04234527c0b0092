// Package locate derives every feature of a stair unit from its parameter
// bundle: the side profile, ears, connection holes, step slots, drip
// grooves, corner treatments, insert frames and reinforcement control
// polygons. Everything is in stair-local millimetres and the result is a
// plain value; the same bundle always yields the same features.
package locate

import (
	"fmt"
	"math"

	"github.com/samber/lo"

	"github.com/chazu/stairkit/pkg/geom"
	"github.com/chazu/stairkit/pkg/params"
	"github.com/chazu/stairkit/pkg/stairerr"
)

// Group names one family of located features. Selectors and single-feature
// variants address features by group and index.
type Group string

const (
	GroupHoles    Group = "holes"
	GroupSlots    Group = "step-slots"
	GroupDrips    Group = "drips"
	GroupFillets  Group = "fillets"
	GroupChamfers Group = "chamfers"
	GroupInserts  Group = "inserts"
	GroupRebars   Group = "rebars"
)

// Groups lists the feature groups in assembly order.
func Groups() []Group {
	return []Group{GroupHoles, GroupSlots, GroupDrips, GroupFillets, GroupChamfers, GroupInserts, GroupRebars}
}

// Features is the located geometry of one stair.
type Features struct {
	Name     string
	Width    float64
	Body     geom.Polygon2 // side profile, CCW viewed from +X
	TopEar   *Ear
	BotEar   *Ear
	Holes    []HoleSpec
	Slots    []SlotSpec
	Drips    []DripSpec
	Fillets  []FilletSpec
	Chamfers []ChamferSpec
	Inserts  []InsertSpec
	Rebars   []RebarSpec

	Concrete string
	Steel    string
}

// Ear is a landing extension beyond the body width.
type Ear struct {
	Name    string
	Profile geom.Polygon2
	Width   float64
	X0      float64 // extrusion starts here and runs along +X
}

// Extrusion returns the ear prism.
func (e *Ear) Extrusion() Extrusion {
	return Extrusion{Profile: e.Profile, Frame: bodyFrame(e.X0), Length: e.Width}
}

// BodyExtrusion returns the side profile swept across the full width.
func (f *Features) BodyExtrusion() Extrusion {
	return Extrusion{Profile: f.Body, Frame: bodyFrame(0), Length: f.Width}
}

// Locate derives all features of b. The bundle must already be valid in the
// params.Validate sense; Locate adds the checks that need derived geometry.
func Locate(b *params.Bundle) (*Features, error) {
	s := newStair(b)
	f := &Features{
		Name:     b.Name,
		Width:    s.width,
		Concrete: b.Material.ConcreteGrade,
		Steel:    b.Material.SteelGrade,
	}

	steps := []struct {
		name string
		fn   func(*stair, *Features) error
	}{
		{"body", locateBody},
		{"holes", locateHoles},
		{"step slots", locateSlots},
		{"drips", locateDrips},
		{"corners", locateCorners},
		{"inserts", locateInserts},
		{"rebars", locateRebars},
		{"clash", checkClashes},
	}
	for _, st := range steps {
		if err := st.fn(s, f); err != nil {
			return nil, fmt.Errorf("locate %s: %w", st.name, err)
		}
	}
	return f, nil
}

func locateBody(s *stair, f *Features) error {
	f.Body = s.bodyProfile()
	if !f.Body.IsSimple() || !f.Body.IsCCW() {
		return stairerr.New(stairerr.KindGeometryInfeasible, "Body", "side profile is not a simple counter-clockwise polygon")
	}
	// Waist: each riser foot must stay 2·cover above the underside.
	under := geom.LineThrough(s.knee(), s.backFoot())
	for i := 1; i <= s.n; i++ {
		foot := geom.V2(s.riserY(i), s.treadZ(i-1))
		if d := under.SignedDistance(foot); d < 2*s.cover {
			return stairerr.New(stairerr.KindGeometryInfeasible, fmt.Sprintf("Body[riser %d]", i),
				"waist %.1f below twice the cover %.1f", d, 2*s.cover)
		}
	}

	g := s.g
	if g.BottomEarWidth > 0 {
		f.BotEar = &Ear{
			Name:    "BottomEar",
			Profile: geom.Rect(0, 0, s.lbt, s.tb),
			Width:   g.BottomEarWidth,
			X0:      s.width,
		}
	}
	if g.TopEarWidth > 0 {
		f.TopEar = &Ear{
			Name:    "TopEar",
			Profile: geom.Rect(s.yn, s.ztop-s.tt, s.ytot, s.ztop),
			Width:   g.TopEarWidth,
			X0:      s.width,
		}
	}
	return nil
}

// BodyVolume is the analytical concrete volume before any subtraction:
// the extruded side profile, the ears and the inner fillets.
func (f *Features) BodyVolume() float64 {
	v := f.Body.Area() * f.Width
	for _, e := range []*Ear{f.BotEar, f.TopEar} {
		if e != nil {
			v += e.Profile.Area() * e.Width
		}
	}
	for _, fl := range f.Fillets {
		v += fl.Area() * fl.Length
	}
	return v
}

// Only returns a copy of f holding just the index-th feature of group, with
// every other feature group emptied. The body and ears are kept so the
// variant still has something to cut.
func (f *Features) Only(group Group, index int) (*Features, error) {
	n := f.count(group)
	if index < 0 || index >= n {
		return nil, stairerr.New(stairerr.KindParameterOutOfRange, string(group), "index %d outside 0..%d", index, n-1)
	}
	out := &Features{
		Name:     fmt.Sprintf("%s/%s[%d]", f.Name, group, index),
		Width:    f.Width,
		Body:     f.Body,
		TopEar:   f.TopEar,
		BotEar:   f.BotEar,
		Concrete: f.Concrete,
		Steel:    f.Steel,
	}
	switch group {
	case GroupHoles:
		out.Holes = f.Holes[index : index+1]
	case GroupSlots:
		out.Slots = f.Slots[index : index+1]
	case GroupDrips:
		out.Drips = f.Drips[index : index+1]
	case GroupFillets:
		out.Fillets = f.Fillets[index : index+1]
	case GroupChamfers:
		out.Chamfers = f.Chamfers[index : index+1]
	case GroupInserts:
		out.Inserts = f.Inserts[index : index+1]
	case GroupRebars:
		out.Rebars = f.Rebars[index : index+1]
	}
	return out, nil
}

func (f *Features) count(group Group) int {
	switch group {
	case GroupHoles:
		return len(f.Holes)
	case GroupSlots:
		return len(f.Slots)
	case GroupDrips:
		return len(f.Drips)
	case GroupFillets:
		return len(f.Fillets)
	case GroupChamfers:
		return len(f.Chamfers)
	case GroupInserts:
		return len(f.Inserts)
	case GroupRebars:
		return len(f.Rebars)
	}
	return 0
}

// Counts reports how many features each group holds, plus the body vertex
// count under "body-vertices".
func (f *Features) Counts() map[string]int {
	m := map[string]int{"body-vertices": len(f.Body)}
	for _, g := range Groups() {
		m[string(g)] = f.count(g)
	}
	return m
}

// RebarGroups returns the distinct rebar group names in first-seen order.
func (f *Features) RebarGroups() []string {
	return lo.Uniq(lo.Map(f.Rebars, func(r RebarSpec, _ int) string { return r.Group }))
}

// near reports whether a and b agree within the locator tolerance.
func near(a, b float64) bool { return math.Abs(a-b) <= geom.Eps }
