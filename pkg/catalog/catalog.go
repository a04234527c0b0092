// Package catalog holds the static insert part tables: round-head lifting
// dowels, threaded anchors, railing embeds and the hooks used by anchors.
// Records are plain values keyed by product name. Adding a product means
// adding one table entry.
package catalog

import (
	"fmt"
	"sort"

	"github.com/chazu/stairkit/pkg/geom"
	"github.com/chazu/stairkit/pkg/stairerr"
)

// Family selects one of the part tables.
type Family int

const (
	FamilyRoundHead Family = iota
	FamilyAnchor
	FamilyRailEmbed
	FamilyHook
)

func (f Family) String() string {
	switch f {
	case FamilyRoundHead:
		return "round-head"
	case FamilyAnchor:
		return "anchor"
	case FamilyRailEmbed:
		return "rail-embed"
	case FamilyHook:
		return "hook"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

// Part is implemented by every catalogue record. The set is closed.
type Part interface {
	Family() Family
	PartName() string
	// RabbetDepth is the depth of the surface pocket that receives the part.
	RabbetDepth() float64
	// EmbedDepth is how far the part reaches above the pocket floor; it must
	// not exceed RabbetDepth or the part would stand proud of the surface.
	EmbedDepth() float64
	part()
}

// ---------------------------------------------------------------------------
// Round-head dowel
// ---------------------------------------------------------------------------

// RoundHeadDowel is a lifting dowel: a head, a shaft and a foot joined by
// conical transitions. The recess former is a spherical cap.
type RoundHeadDowel struct {
	Name             string
	TopDiameter      float64
	TopHeight        float64
	MiddleDiameter   float64
	MiddleHeight     float64
	BottomDiameter   float64
	BottomHeight     float64
	TransitionHeight float64
	EmbedRadius      float64
	Rabbet           float64
}

func (RoundHeadDowel) Family() Family { return FamilyRoundHead }
func (d RoundHeadDowel) PartName() string { return d.Name }
func (d RoundHeadDowel) RabbetDepth() float64 { return d.Rabbet }
func (d RoundHeadDowel) EmbedDepth() float64 { return d.TopHeight }
func (RoundHeadDowel) part() {}

// Height is the overall dowel length.
func (d RoundHeadDowel) Height() float64 {
	return d.TopHeight + d.MiddleHeight + d.BottomHeight + 2*d.TransitionHeight
}

// Profile returns the half-section as (r, z) points for a full revolution
// about z. The head top is at z = 0 and the dowel extends along −z; the
// polyline starts and ends on the axis.
func (d RoundHeadDowel) Profile() []geom.Vec2 {
	rt, rm, rb := d.TopDiameter/2, d.MiddleDiameter/2, d.BottomDiameter/2
	z1 := -d.TopHeight
	z2 := z1 - d.TransitionHeight
	z3 := z2 - d.MiddleHeight
	z4 := z3 - d.TransitionHeight
	z5 := z4 - d.BottomHeight
	return []geom.Vec2{
		{X: 0, Y: 0},
		{X: rt, Y: 0},
		{X: rt, Y: z1},
		{X: rm, Y: z2},
		{X: rm, Y: z3},
		{X: rb, Y: z4},
		{X: rb, Y: z5},
		{X: 0, Y: z5},
	}
}

// HeadOffset is the z of the head top in the insert frame, whose origin is
// on the concrete surface.
func (d RoundHeadDowel) HeadOffset() float64 { return d.TopHeight - d.Rabbet }

// ---------------------------------------------------------------------------
// Anchor
// ---------------------------------------------------------------------------

// Anchor is a threaded sleeve with a transverse bar or a hook at its base.
type Anchor struct {
	Name           string
	RabbetDiameter float64
	Rabbet         float64
	ShaftDiameter  float64
	ShaftLength    float64
	ThreadDiameter float64
	ThreadLength   float64
	RebarDiameter  float64
	RebarLength    float64
	RebarOffset    float64
	// Hook names a Hook record used instead of the straight transverse bar.
	Hook string
}

func (Anchor) Family() Family { return FamilyAnchor }
func (a Anchor) PartName() string { return a.Name }
func (a Anchor) RabbetDepth() float64 { return a.Rabbet }

// EmbedDepth is zero: the sleeve top sits on the pocket floor.
func (a Anchor) EmbedDepth() float64 { return 0 }
func (Anchor) part() {}

// ---------------------------------------------------------------------------
// Railing embed
// ---------------------------------------------------------------------------

// RailEmbed is a steel plate A×B×T with a C-shaped bar welded beneath it.
type RailEmbed struct {
	Name            string
	A, B, T         float64
	RebarDiameter   float64
	C, D            float64
	Rabbet          float64
	RabbetExtension float64
}

func (RailEmbed) Family() Family { return FamilyRailEmbed }
func (e RailEmbed) PartName() string { return e.Name }
func (e RailEmbed) RabbetDepth() float64 { return e.Rabbet }
func (e RailEmbed) EmbedDepth() float64 { return e.T }
func (RailEmbed) part() {}

// ---------------------------------------------------------------------------
// Hook
// ---------------------------------------------------------------------------

// Hook is a U-bent rod: a long leg, a bend of InnerRadius and a short leg.
type Hook struct {
	Name           string
	RodDiameter    float64
	InnerRadius    float64
	OuterRadius    float64
	LegHeight      float64
	ShortLegHeight float64
}

func (Hook) Family() Family { return FamilyHook }
func (h Hook) PartName() string { return h.Name }
func (Hook) RabbetDepth() float64 { return 0 }
func (Hook) EmbedDepth() float64 { return 0 }
func (Hook) part() {}

// CentreRadius is the bend radius of the rod axis.
func (h Hook) CentreRadius() float64 { return h.InnerRadius + h.RodDiameter/2 }

// ---------------------------------------------------------------------------
// Lookup
// ---------------------------------------------------------------------------

func unknown(f Family, name string) error {
	return stairerr.New(stairerr.KindUnknownPartName, "catalog."+f.String(), "no part named %q", name)
}

// RoundHead looks up a round-head dowel.
func RoundHead(name string) (RoundHeadDowel, error) {
	d, ok := roundHeadTable[name]
	if !ok {
		return RoundHeadDowel{}, unknown(FamilyRoundHead, name)
	}
	d.Name = name
	return d, nil
}

// AnchorPart looks up an anchor.
func AnchorPart(name string) (Anchor, error) {
	a, ok := anchorTable[name]
	if !ok {
		return Anchor{}, unknown(FamilyAnchor, name)
	}
	a.Name = name
	return a, nil
}

// Rail looks up a railing embed.
func Rail(name string) (RailEmbed, error) {
	e, ok := railTable[name]
	if !ok {
		return RailEmbed{}, unknown(FamilyRailEmbed, name)
	}
	e.Name = name
	return e, nil
}

// HookPart looks up a hook.
func HookPart(name string) (Hook, error) {
	h, ok := hookTable[name]
	if !ok {
		return Hook{}, unknown(FamilyHook, name)
	}
	h.Name = name
	return h, nil
}

// Lookup returns the record of any family as a Part.
func Lookup(f Family, name string) (Part, error) {
	var (
		p   Part
		err error
	)
	switch f {
	case FamilyRoundHead:
		p, err = RoundHead(name)
	case FamilyAnchor:
		p, err = AnchorPart(name)
	case FamilyRailEmbed:
		p, err = Rail(name)
	case FamilyHook:
		p, err = HookPart(name)
	default:
		err = unknown(f, name)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Names lists the products of a family in sorted order.
func Names(f Family) []string {
	var names []string
	switch f {
	case FamilyRoundHead:
		names = keys(roundHeadTable)
	case FamilyAnchor:
		names = keys(anchorTable)
	case FamilyRailEmbed:
		names = keys(railTable)
	case FamilyHook:
		names = keys(hookTable)
	}
	sort.Strings(names)
	return names
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// Families lists every family.
func Families() []Family {
	return []Family{FamilyRoundHead, FamilyAnchor, FamilyRailEmbed, FamilyHook}
}
