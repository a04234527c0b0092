// Package params defines the parameter bundle for one precast stair unit:
// global geometry, cover, holes, surface features, insert choices, rebar
// groups and connection hardware. A bundle is read-only once loaded; every
// later stage derives from it without mutating it.
package params

import "math"

// Bundle is the complete input for one stair build.
type Bundle struct {
	Name       string     `json:"name" yaml:"name"`
	Geometry   Geometry   `json:"geometry" yaml:"geometry"`
	Material   Material   `json:"material" yaml:"material"`
	Cover      float64    `json:"cover" yaml:"cover"`
	Holes      Holes      `json:"holes" yaml:"holes"`
	StepSlots  StepSlots  `json:"step_slots" yaml:"step_slots"`
	Drips      Drips      `json:"drips" yaml:"drips"`
	Corners    Corners    `json:"corners" yaml:"corners"`
	Hoisting   Hoisting   `json:"hoisting" yaml:"hoisting"`
	Demoulding Demoulding `json:"demoulding" yaml:"demoulding"`
	Railing    Railing    `json:"railing" yaml:"railing"`
	Rebar      Rebar      `json:"rebar" yaml:"rebar"`
	Joint      Joint      `json:"joint" yaml:"joint"`
}

// Geometry holds the global stair dimensions in millimetres.
type Geometry struct {
	StepsNumber        int     `json:"steps_number" yaml:"steps_number"`
	StepHeight         float64 `json:"step_height" yaml:"step_height"`
	StepWidth          float64 `json:"step_width" yaml:"step_width"`
	Width              float64 `json:"width" yaml:"width"`
	BottomThickness    float64 `json:"bottom_thickness" yaml:"bottom_thickness"`
	TopThickness       float64 `json:"top_thickness" yaml:"top_thickness"`
	BottomTopLength    float64 `json:"bottom_top_length" yaml:"bottom_top_length"`
	BottomBottomLength float64 `json:"bottom_bottom_length" yaml:"bottom_bottom_length"`
	TopTopLength       float64 `json:"top_top_length" yaml:"top_top_length"`
	ClearSpan          float64 `json:"clear_span" yaml:"clear_span"`
	Height             float64 `json:"height" yaml:"height"`
	TopEarWidth        float64 `json:"top_ear_width" yaml:"top_ear_width"`
	BottomEarWidth     float64 `json:"bottom_ear_width" yaml:"bottom_ear_width"`
}

// RiserY returns the y of riser i (1..n).
func (g Geometry) RiserY(i int) float64 {
	return g.BottomTopLength + float64(i-1)*g.StepWidth
}

// TreadZ returns the top of tread i; tread 0 is the bottom landing and tread
// n the top landing.
func (g Geometry) TreadZ(i int) float64 {
	return g.BottomThickness + float64(i)*g.StepHeight
}

// TopZ is the elevation of the top landing surface.
func (g Geometry) TopZ() float64 { return g.TreadZ(g.StepsNumber) }

// TotalLength is the horizontal extent of the unit along Y.
func (g Geometry) TotalLength() float64 {
	return g.RiserY(g.StepsNumber) + g.TopTopLength
}

// TreadEnd returns the y at which tread i ends: the next riser, or the back
// face for the top landing.
func (g Geometry) TreadEnd(i int) float64 {
	if i >= g.StepsNumber {
		return g.TotalLength()
	}
	return g.RiserY(i + 1)
}

// Knee is the bottom corner where the flat landing underside meets the
// sloped underside.
func (g Geometry) Knee() (y, z float64) { return g.BottomBottomLength, 0 }

// BackFoot is the lower corner of the back face.
func (g Geometry) BackFoot() (y, z float64) {
	return g.TotalLength(), g.TopZ() - g.TopThickness
}

// UndersideSlope is the inclination of the sloped underside in radians.
func (g Geometry) UndersideSlope() float64 {
	ky, kz := g.Knee()
	by, bz := g.BackFoot()
	return math.Atan2(bz-kz, by-ky)
}

// UndersideZ returns the underside elevation at y.
func (g Geometry) UndersideZ(y float64) float64 {
	ky, _ := g.Knee()
	if y <= ky {
		return 0
	}
	return (y - ky) * math.Tan(g.UndersideSlope())
}

// Material names the concrete and steel grades.
type Material struct {
	ConcreteGrade string `json:"concrete_grade" yaml:"concrete_grade"`
	SteelGrade    string `json:"steel_grade" yaml:"steel_grade"`
}

// Holes carries one record per stair end.
type Holes struct {
	Top    HoleEnd `json:"top" yaml:"top"`
	Bottom HoleEnd `json:"bottom" yaml:"bottom"`
}

// HoleEnd describes the two connection holes at one end.
type HoleEnd struct {
	Type    HoleType    `json:"type" yaml:"type"`
	Left    EdgeOffset  `json:"left" yaml:"left"`
	Right   EdgeOffset  `json:"right" yaml:"right"`
	Fixed   FixedHole   `json:"fixed" yaml:"fixed"`
	Sliding SlidingHole `json:"sliding" yaml:"sliding"`
}

// EdgeOffset places a hole: A along Y from the end face, B along X from the
// nearer side face.
type EdgeOffset struct {
	A float64 `json:"a" yaml:"a"`
	B float64 `json:"b" yaml:"b"`
}

// FixedHole is a single truncated cone through the landing.
type FixedHole struct {
	BottomDiameter float64 `json:"bottom_diameter" yaml:"bottom_diameter"`
	TopDiameter    float64 `json:"top_diameter" yaml:"top_diameter"`
}

// SlidingHole is a lower cone topped by a wider upper cone of height H1.
type SlidingHole struct {
	BottomDiameter      float64 `json:"bottom_diameter" yaml:"bottom_diameter"`
	LowerTopDiameter    float64 `json:"lower_top_diameter" yaml:"lower_top_diameter"`
	UpperBottomDiameter float64 `json:"upper_bottom_diameter" yaml:"upper_bottom_diameter"`
	TopDiameter         float64 `json:"top_diameter" yaml:"top_diameter"`
	H1                  float64 `json:"h1" yaml:"h1"`
}

// StepSlots configures the two anti-slip grooves on every tread.
type StepSlots struct {
	Mode DesignMode `json:"mode" yaml:"mode"`
	A    float64    `json:"a" yaml:"a"`
	B    float64    `json:"b" yaml:"b"`
	D    float64    `json:"d" yaml:"d"`
	E    float64    `json:"e" yaml:"e"`
	C1   float64    `json:"c1" yaml:"c1"`
	C2   float64    `json:"c2" yaml:"c2"`
	C3   float64    `json:"c3" yaml:"c3"`
	C4   float64    `json:"c4" yaml:"c4"`
}

// Drips configures the drip grooves under the long edges.
type Drips struct {
	Mode        DesignMode  `json:"mode" yaml:"mode"`
	Section     DripSection `json:"section" yaml:"section"`
	Layout      DripLayout  `json:"layout" yaml:"layout"`
	A           float64     `json:"a" yaml:"a"`
	B           float64     `json:"b" yaml:"b"`
	C           float64     `json:"c" yaml:"c"`
	EdgeOffset  float64     `json:"edge_offset" yaml:"edge_offset"`
	FrontOffset float64     `json:"front_offset" yaml:"front_offset"`
	BackOffset  float64     `json:"back_offset" yaml:"back_offset"`
}

// Corners sets the inner fillet radius and outer chamfer side; zero omits
// them.
type Corners struct {
	InnerFilletRadius float64 `json:"inner_fillet_radius" yaml:"inner_fillet_radius"`
	OuterChamferSide  float64 `json:"outer_chamfer_side" yaml:"outer_chamfer_side"`
}

// Hoisting places lifting inserts on two treads, two per tread.
type Hoisting struct {
	Mode  DesignMode `json:"mode" yaml:"mode"`
	Type  InsertType `json:"type" yaml:"type"`
	Name  string     `json:"name" yaml:"name"`
	Steps [2]int     `json:"steps" yaml:"steps"`
	EdgeC float64    `json:"edge_c" yaml:"edge_c"`
	EdgeD float64    `json:"edge_d" yaml:"edge_d"`
}

// Demoulding places form-removal inserts according to the pouring method.
type Demoulding struct {
	Mode           DesignMode `json:"mode" yaml:"mode"`
	Type           InsertType `json:"type" yaml:"type"`
	Name           string     `json:"name" yaml:"name"`
	Pouring        Pouring    `json:"pouring" yaml:"pouring"`
	SideStations   [2]float64 `json:"side_stations" yaml:"side_stations"`
	BottomStations [2]float64 `json:"bottom_stations" yaml:"bottom_stations"`
	EdgeC          float64    `json:"edge_c" yaml:"edge_c"`
	EdgeD          float64    `json:"edge_d" yaml:"edge_d"`
}

// Railing places rail embeds on the listed treads.
type Railing struct {
	Mode       DesignMode `json:"mode" yaml:"mode"`
	Name       string     `json:"name" yaml:"name"`
	Layout     RailLayout `json:"layout" yaml:"layout"`
	Steps      []int      `json:"steps" yaml:"steps"`
	EdgeOffset float64    `json:"edge_offset" yaml:"edge_offset"`
}

// Group is the diameter, spacing and grade of one rebar group.
type Group struct {
	Diameter float64 `json:"diameter" yaml:"diameter"`
	Spacing  float64 `json:"spacing" yaml:"spacing"`
	Grade    int     `json:"grade" yaml:"grade"`
}

// Radius is half the bar diameter.
func (g Group) Radius() float64 { return g.Diameter / 2 }

// Rebar configures the reinforcement cage.
type Rebar struct {
	Mode RebarMode `json:"mode" yaml:"mode"`
	// DrawingFriendlyMid draws the distribution bars at the cover plane
	// rather than resting on the longitudinal bars.
	DrawingFriendlyMid bool    `json:"drawing_friendly_mid" yaml:"drawing_friendly_mid"`
	StartEdge          float64 `json:"start_edge" yaml:"start_edge"`

	BottomLong              Group `json:"bottom_long" yaml:"bottom_long"`
	TopLong                 Group `json:"top_long" yaml:"top_long"`
	MidDistribution         Group `json:"mid_distribution" yaml:"mid_distribution"`
	BottomEdgeLong          Group `json:"bottom_edge_long" yaml:"bottom_edge_long"`
	TopEdgeLong             Group `json:"top_edge_long" yaml:"top_edge_long"`
	BottomEdgeStirrup       Group `json:"bottom_edge_stirrup" yaml:"bottom_edge_stirrup"`
	TopEdgeStirrup          Group `json:"top_edge_stirrup" yaml:"top_edge_stirrup"`
	HoleReinforcement       Group `json:"hole_reinforcement" yaml:"hole_reinforcement"`
	HoistingLong            Group `json:"hoisting_long" yaml:"hoisting_long"`
	HoistingPoint           Group `json:"hoisting_point" yaml:"hoisting_point"`
	BottomEdgeReinforcement Group `json:"bottom_edge_reinforcement" yaml:"bottom_edge_reinforcement"`
	TopEdgeReinforcement    Group `json:"top_edge_reinforcement" yaml:"top_edge_reinforcement"`

	StirrupDepth        float64 `json:"stirrup_depth" yaml:"stirrup_depth"`
	AnchorageLength     float64 `json:"anchorage_length" yaml:"anchorage_length"`
	HoleLegLength       float64 `json:"hole_leg_length" yaml:"hole_leg_length"`
	HoistingLongLength  float64 `json:"hoisting_long_length" yaml:"hoisting_long_length"`
	HoistingPointLength float64 `json:"hoisting_point_length" yaml:"hoisting_point_length"`
}

// Full reports whether the complete cage is generated.
func (r Rebar) Full() bool { return r.Mode == RebarFull }

// Joint holds the connection hardware placed in each hole. Mode none leaves
// the holes empty.
type Joint struct {
	Mode            DesignMode `json:"mode" yaml:"mode"`
	AnchorDiameter  float64    `json:"anchor_diameter" yaml:"anchor_diameter"`
	AnchorLength    float64    `json:"anchor_length" yaml:"anchor_length"`
	AnchorLegLength float64    `json:"anchor_leg_length" yaml:"anchor_leg_length"`
	NutThickness    float64    `json:"nut_thickness" yaml:"nut_thickness"`
	NutDiameter     float64    `json:"nut_diameter" yaml:"nut_diameter"`
	ShimThickness   float64    `json:"shim_thickness" yaml:"shim_thickness"`
	ShimDiameter    float64    `json:"shim_diameter" yaml:"shim_diameter"`
}
