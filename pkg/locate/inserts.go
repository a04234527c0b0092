package locate

import (
	"fmt"
	"math"

	"github.com/chazu/stairkit/pkg/catalog"
	"github.com/chazu/stairkit/pkg/geom"
	"github.com/chazu/stairkit/pkg/params"
	"github.com/chazu/stairkit/pkg/rebar"
	"github.com/chazu/stairkit/pkg/stairerr"
)

// Role is what an insert is placed for.
type Role string

const (
	RoleHoisting      Role = "hoisting"
	RoleDemouldSide   Role = "demoulding-side"
	RoleDemouldBottom Role = "demoulding-bottom"
	RoleRailing       Role = "railing"
	RoleConnection    Role = "connection"
)

// ShapeKind tags a Shape.
type ShapeKind int

const (
	ShapeRevolve ShapeKind = iota
	ShapeCylinder
	ShapeBox
	ShapeSphere
	ShapeBar
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeRevolve:
		return "revolve"
	case ShapeCylinder:
		return "cylinder"
	case ShapeBox:
		return "box"
	case ShapeSphere:
		return "sphere"
	case ShapeBar:
		return "bar"
	}
	return fmt.Sprintf("ShapeKind(%d)", int(k))
}

// Shape is one solid piece of an insert, in the insert frame.
//
//	Revolve:  Profile (r, z) turned 360° about the shape z-axis
//	Cylinder: Radius, Height along z from the shape origin
//	Box:      Size, with its minimum corner at the shape origin
//	Sphere:   Radius, centred on the shape origin
//	Bar:      Bar, a rebar centreline in insert coordinates
type Shape struct {
	Name    string
	Kind    ShapeKind
	Frame   geom.Frame
	Profile []geom.Vec2
	Radius  float64
	Height  float64
	Size    geom.Vec3
	Bar     *rebar.Path
}

// Bounds returns the box of the shape in insert coordinates.
func (s Shape) Bounds() (min, max geom.Vec3) {
	var lo, hi geom.Vec3
	switch s.Kind {
	case ShapeRevolve:
		r, z0, z1 := 0.0, math.Inf(1), math.Inf(-1)
		for _, p := range s.Profile {
			r = math.Max(r, p.X)
			z0, z1 = math.Min(z0, p.Y), math.Max(z1, p.Y)
		}
		lo, hi = geom.V3(-r, -r, z0), geom.V3(r, r, z1)
	case ShapeCylinder:
		lo, hi = geom.V3(-s.Radius, -s.Radius, 0), geom.V3(s.Radius, s.Radius, s.Height)
	case ShapeBox:
		lo, hi = geom.Vec3{}, s.Size
	case ShapeSphere:
		lo, hi = geom.V3(-s.Radius, -s.Radius, -s.Radius), geom.V3(s.Radius, s.Radius, s.Radius)
	case ShapeBar:
		return s.Bar.Bounds()
	}
	return transformBox(s.Frame, lo, hi)
}

// Volume is exact for every kind except bars, which use a straight-pipe
// approximation of their developed length.
func (s Shape) Volume() float64 {
	switch s.Kind {
	case ShapeRevolve:
		var v float64
		for i := 1; i < len(s.Profile); i++ {
			a, b := s.Profile[i-1], s.Profile[i]
			v += math.Pi * math.Abs(b.Y-a.Y) * (a.X*a.X + a.X*b.X + b.X*b.X) / 3
		}
		return v
	case ShapeCylinder:
		return math.Pi * s.Radius * s.Radius * s.Height
	case ShapeBox:
		return s.Size.X * s.Size.Y * s.Size.Z
	case ShapeSphere:
		return 4 * math.Pi * s.Radius * s.Radius * s.Radius / 3
	case ShapeBar:
		return math.Pi * s.Bar.Radius * s.Bar.Radius * s.Bar.Length()
	}
	return 0
}

func transformBox(f geom.Frame, lo, hi geom.Vec3) (min, max geom.Vec3) {
	pts := make([]geom.Vec3, 0, 8)
	for _, x := range []float64{lo.X, hi.X} {
		for _, y := range []float64{lo.Y, hi.Y} {
			for _, z := range []float64{lo.Z, hi.Z} {
				pts = append(pts, f.ToWorld(geom.V3(x, y, z)))
			}
		}
	}
	return boundsOf(pts)
}

// InsertSpec is one placed insert. Its frame z-axis is the outward surface
// normal; the body extends along -z.
type InsertSpec struct {
	Name   string
	Role   Role
	Part   catalog.Part // nil for connection hardware
	Frame  geom.Frame
	Rabbet *Shape // pocket void; nil when the insert needs none
	Body   []Shape
	// Hole names the connection hole for RoleConnection.
	Hole string
}

// Family is the catalogue family, or -1 for connection hardware.
func (in InsertSpec) Family() catalog.Family {
	if in.Part == nil {
		return -1
	}
	return in.Part.Family()
}

// PartName is the catalogue product name.
func (in InsertSpec) PartName() string {
	if in.Part == nil {
		return "connection"
	}
	return in.Part.PartName()
}

// RabbetBounds returns the world box of the pocket.
func (in InsertSpec) RabbetBounds() (min, max geom.Vec3, ok bool) {
	if in.Rabbet == nil {
		return min, max, false
	}
	lo, hi := in.Rabbet.Bounds()
	min, max = transformBox(in.Frame, lo, hi)
	return min, max, true
}

// Depth is how far the insert reaches below its frame origin.
func (in InsertSpec) Depth() float64 {
	d := 0.0
	for _, s := range in.Body {
		lo, _ := s.Bounds()
		d = math.Max(d, -lo.Z)
	}
	return d
}

// Reach is the widest horizontal extent of the body from the insert axis.
func (in InsertSpec) Reach() float64 {
	var r float64
	for _, s := range in.Body {
		lo, hi := s.Bounds()
		r = math.Max(r, math.Max(math.Max(-lo.X, hi.X), math.Max(-lo.Y, hi.Y)))
	}
	return r
}

func locateInserts(s *stair, f *Features) error {
	b := s.b
	if b.Hoisting.Mode.Enabled() {
		if err := s.hoistingInserts(f); err != nil {
			return err
		}
	}
	if b.Demoulding.Mode.Enabled() {
		if err := s.demouldingInserts(f); err != nil {
			return err
		}
	}
	if b.Railing.Mode.Enabled() {
		if err := s.railingInserts(f); err != nil {
			return err
		}
	}
	if b.Joint.Mode.Enabled() {
		for _, h := range f.Holes {
			f.Inserts = append(f.Inserts, s.connectionInsert(h))
		}
	}
	return nil
}

func lookupInsert(t params.InsertType, name string) (catalog.Part, error) {
	if t == params.Anchor {
		return catalog.AnchorPart(name)
	}
	return catalog.RoundHead(name)
}

func (s *stair) treadPoint(a int) geom.Vec2 {
	return geom.V2(s.lbt+(float64(a)-0.5)*s.w, s.treadZ(a))
}

func (s *stair) hoistingInserts(f *Features) error {
	ho := s.b.Hoisting
	part, err := lookupInsert(ho.Type, ho.Name)
	if err != nil {
		return err
	}
	k := 0
	for _, a := range ho.Steps {
		p := s.treadPoint(a)
		for _, x := range []float64{ho.EdgeC, s.width - ho.EdgeD} {
			k++
			in, err := newInsert(fmt.Sprintf("hoisting-%d", k), RoleHoisting, part,
				geom.Frame{Origin: p.YZ(x), Z: geom.DirZ, X: geom.DirX})
			if err != nil {
				return err
			}
			if err := s.checkOnTread(in, a); err != nil {
				return err
			}
			f.Inserts = append(f.Inserts, in)
		}
	}
	return nil
}

func (s *stair) demouldingInserts(f *Features) error {
	de := s.b.Demoulding
	part, err := lookupInsert(de.Type, de.Name)
	if err != nil {
		return err
	}
	k := 0
	next := func(role Role, fr geom.Frame) error {
		k++
		in, err := newInsert(fmt.Sprintf("demoulding-%d", k), role, part, fr)
		if err != nil {
			return err
		}
		f.Inserts = append(f.Inserts, in)
		return nil
	}

	if de.Pouring.SideInserts() {
		side := geom.RotationBetween(geom.DirZ, geom.DirX.Neg())
		for _, y := range de.SideStations {
			if y <= 0 || y >= s.ytot {
				return stairerr.New(stairerr.KindGeometryInfeasible, fmt.Sprintf("DemouldingInsert[%d]", k+1),
					"side station y=%.1f is off the stair", y)
			}
			z := (s.underside(y) + s.surface(y)) / 2
			if err := next(RoleDemouldSide, side.FrameAt(geom.V3(0, y, z))); err != nil {
				return err
			}
		}
	}
	if de.Pouring.BottomInserts() {
		slope := s.slopeDir()
		run := s.knee().Dist(s.backFoot())
		// Rotating +Z about X by θ-π gives the outward underside normal.
		rot := geom.AxisAngle(geom.DirX, math.Acos(math.Cos(s.theta))-math.Pi)
		for _, d := range de.BottomStations {
			if d <= 0 || d >= run {
				return stairerr.New(stairerr.KindGeometryInfeasible, fmt.Sprintf("DemouldingInsert[%d]", k+1),
					"bottom station %.1f is off the sloped underside (length %.1f)", d, run)
			}
			p := s.knee().Add(slope.Scale(d))
			for _, x := range []float64{de.EdgeC, s.width - de.EdgeD} {
				if err := next(RoleDemouldBottom, rot.FrameAt(p.YZ(x))); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (s *stair) railingInserts(f *Features) error {
	ra := s.b.Railing
	part, err := catalog.Rail(ra.Name)
	if err != nil {
		return err
	}
	var xs []float64
	switch ra.Layout {
	case params.RailLeft:
		xs = []float64{ra.EdgeOffset}
	case params.RailRight:
		xs = []float64{s.width - ra.EdgeOffset}
	default:
		xs = []float64{ra.EdgeOffset, s.width - ra.EdgeOffset}
	}
	k := 0
	for _, a := range ra.Steps {
		p := s.treadPoint(a)
		for _, x := range xs {
			k++
			in, err := newInsert(fmt.Sprintf("railing-%d", k), RoleRailing, part,
				geom.Frame{Origin: p.YZ(x), Z: geom.DirZ, X: geom.DirX})
			if err != nil {
				return err
			}
			if err := s.checkOnTread(in, a); err != nil {
				return err
			}
			f.Inserts = append(f.Inserts, in)
		}
	}
	return nil
}

// checkOnTread fails when the pocket of an insert on tread a spills over
// the tread edges or the side faces.
func (s *stair) checkOnTread(in InsertSpec, a int) error {
	lo, hi, ok := in.RabbetBounds()
	if !ok {
		return nil
	}
	y0, y1 := s.riserY(a), s.g.TreadEnd(a)
	if lo.Y < y0-geom.Eps || hi.Y > y1+geom.Eps || lo.X < -geom.Eps || hi.X > s.width+geom.Eps {
		return stairerr.New(stairerr.KindGeometryInfeasible, in.entity(),
			"pocket [%.1f, %.1f]×[%.1f, %.1f] is not within tread %d", lo.X, hi.X, lo.Y, hi.Y, a)
	}
	return nil
}

func (in InsertSpec) entity() string {
	return fmt.Sprintf("Insert[%s]", in.Name)
}

// newInsert builds the pocket and body shapes of a catalogue part.
func newInsert(name string, role Role, part catalog.Part, fr geom.Frame) (InsertSpec, error) {
	in := InsertSpec{Name: name, Role: role, Part: part, Frame: fr}
	entity := in.entity()
	switch p := part.(type) {
	case catalog.RoundHeadDowel:
		in.Rabbet = &Shape{
			Name:   "rabbet",
			Kind:   ShapeSphere,
			Frame:  geom.Identity.Translate(geom.V3(0, 0, p.EmbedRadius-p.Rabbet)),
			Radius: p.EmbedRadius,
		}
		in.Body = []Shape{{
			Name:    "dowel",
			Kind:    ShapeRevolve,
			Frame:   geom.Identity.Translate(geom.V3(0, 0, p.HeadOffset())),
			Profile: p.Profile(),
		}}

	case catalog.Anchor:
		in.Rabbet = &Shape{
			Name:   "rabbet",
			Kind:   ShapeCylinder,
			Frame:  geom.Identity.Translate(geom.V3(0, 0, -p.Rabbet)),
			Radius: p.RabbetDiameter / 2,
			Height: p.Rabbet,
		}
		base := -p.Rabbet - p.ShaftLength
		in.Body = []Shape{{
			Name:   "sleeve",
			Kind:   ShapeCylinder,
			Frame:  geom.Identity.Translate(geom.V3(0, 0, base)),
			Radius: p.ShaftDiameter / 2,
			Height: p.ShaftLength,
		}}
		bar, err := anchorBar(p, base)
		if err != nil {
			return InsertSpec{}, stairerr.Wrap(stairerr.KindRebarBendInfeasible, entity, err)
		}
		in.Body = append(in.Body, bar)

	case catalog.RailEmbed:
		ext := p.RabbetExtension
		in.Rabbet = &Shape{
			Name:  "rabbet",
			Kind:  ShapeBox,
			Frame: geom.Identity.Translate(geom.V3(-p.A/2-ext, -p.B/2-ext, -p.Rabbet)),
			Size:  geom.V3(p.A+2*ext, p.B+2*ext, p.Rabbet),
		}
		top := -p.Rabbet + p.T
		path, err := rebar.Build([]geom.Vec3{
			{X: -p.D / 2, Y: 0, Z: -p.Rabbet},
			{X: -p.D / 2, Y: 0, Z: -p.Rabbet - p.C},
			{X: p.D / 2, Y: 0, Z: -p.Rabbet - p.C},
			{X: p.D / 2, Y: 0, Z: -p.Rabbet},
		}, p.RebarDiameter/2, 3, false)
		if err != nil {
			return InsertSpec{}, stairerr.Wrap(stairerr.KindRebarBendInfeasible, entity, err)
		}
		in.Body = []Shape{
			{
				Name:  "plate",
				Kind:  ShapeBox,
				Frame: geom.Identity.Translate(geom.V3(-p.A/2, -p.B/2, top-p.T)),
				Size:  geom.V3(p.A, p.B, p.T),
			},
			{Name: "c-bar", Kind: ShapeBar, Frame: geom.Identity, Bar: &path},
		}

	default:
		return InsertSpec{}, stairerr.New(stairerr.KindUnknownPartName, entity, "%s is not an insert part", part.Family())
	}
	return in, nil
}

// anchorBar is the transverse bar at the sleeve base, or the U-hook when
// the anchor names one.
func anchorBar(p catalog.Anchor, base float64) (Shape, error) {
	if p.Hook == "" {
		z := base + p.RebarOffset
		path, err := rebar.Build([]geom.Vec3{
			{X: -p.RebarLength / 2, Y: 0, Z: z},
			{X: p.RebarLength / 2, Y: 0, Z: z},
		}, p.RebarDiameter/2, 1, false)
		if err != nil {
			return Shape{}, err
		}
		return Shape{Name: "transverse-bar", Kind: ShapeBar, Frame: geom.Identity, Bar: &path}, nil
	}

	h, err := catalog.HookPart(p.Hook)
	if err != nil {
		return Shape{}, err
	}
	rc := h.CentreRadius()
	bottom := base - h.LegHeight
	c := geom.V3(0, 0, bottom)
	segs := []rebar.Segment{
		{Kind: rebar.Line, Points: []geom.Vec3{{X: -rc, Y: 0, Z: base}, {X: -rc, Y: 0, Z: bottom}}},
		{Kind: rebar.Arc, Points: []geom.Vec3{{X: -rc, Y: 0, Z: bottom}, c.Add(geom.V3(0, 0, -rc)), {X: rc, Y: 0, Z: bottom}}, Sweep: math.Pi},
		{Kind: rebar.Line, Points: []geom.Vec3{{X: rc, Y: 0, Z: bottom}, {X: rc, Y: 0, Z: bottom + h.ShortLegHeight}}},
	}
	path, err := rebar.FromSegments(segs, h.RodDiameter/2, rc, false)
	if err != nil {
		return Shape{}, err
	}
	return Shape{Name: "hook", Kind: ShapeBar, Frame: geom.Identity, Bar: &path}, nil
}

// connectionInsert is the nut and shim seated at the top of a hole. The
// anchor bar through the hole is a rebar in group connection-anchor.
func (s *stair) connectionInsert(h HoleSpec) InsertSpec {
	j := s.b.Joint
	top := h.Base.Add(geom.V3(0, 0, h.Height()))
	return InsertSpec{
		Name:  "connection-" + h.Name,
		Role:  RoleConnection,
		Frame: geom.Frame{Origin: top, Z: geom.DirZ, X: geom.DirX},
		Hole:  h.Name,
		Body: []Shape{
			{
				Name:   "shim",
				Kind:   ShapeCylinder,
				Frame:  geom.Identity.Translate(geom.V3(0, 0, -j.NutThickness-j.ShimThickness)),
				Radius: j.ShimDiameter / 2,
				Height: j.ShimThickness,
			},
			{
				Name:   "nut",
				Kind:   ShapeCylinder,
				Frame:  geom.Identity.Translate(geom.V3(0, 0, -j.NutThickness)),
				Radius: j.NutDiameter / 2,
				Height: j.NutThickness,
			},
		},
	}
}
