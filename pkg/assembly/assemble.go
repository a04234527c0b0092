package assembly

import (
	"fmt"

	"github.com/chazu/stairkit/pkg/geom"
	"github.com/chazu/stairkit/pkg/locate"
	"github.com/chazu/stairkit/pkg/solid"
	"github.com/chazu/stairkit/pkg/stairerr"
)

// Sampling of curved edges that the kernel receives as polylines.
const (
	FilletChords = 16 // chords per fillet quarter-round
	BarChords    = 8  // chords per rebar bend
)

// Fixed node names.
const (
	NameConcrete = "concrete"
	NameFeatures = "features"
	NameInserts  = "inserts"
	NameRebars   = "rebars"
)

// GroupRabbets is the feature group of insert pockets. Rabbets belong to
// inserts in the locator but are cut from the body like any other void.
const GroupRabbets = "rabbets"

// Assemble builds the node tree of f. The concrete body is one boolean
// tree in this order: the body prism, the top and bottom ears and the inner
// fillets are unioned; then hole cones, step slots, drip grooves, nosing
// chamfers, railing rabbets, hoisting rabbets and demoulding rabbets are
// subtracted. Inserts and bars are separate named nodes.
func Assemble(f *locate.Features) (*Tree, error) {
	a := &assembler{f: f}
	root := &Node{Name: rootName(f), Kind: KindGroup, Placement: geom.Identity}
	body := a.body()
	inserts, err := a.inserts()
	if err != nil {
		return nil, err
	}
	rebars, err := a.rebars()
	if err != nil {
		return nil, err
	}
	root.Children = []*Node{body, a.featureNodes(), inserts, rebars}

	t := NewTree(root)
	if errs := Validate(t); len(errs) > 0 {
		return nil, stairerr.Wrap(stairerr.KindGeometryInfeasible, errs[0].Node, errs[0])
	}
	return t, nil
}

func rootName(f *locate.Features) string {
	if f.Name == "" {
		return "stair"
	}
	return f.Name
}

// feature is one located void or addition with its entity name.
type feature struct {
	group string
	name  string
	ref   solid.Ref
}

func (ft feature) named() solid.Ref { return solid.Named{Entity: ft.name, Of: ft.ref} }

type assembler struct {
	f        *locate.Features
	features []feature
}

func (a *assembler) add(group, name string, ref solid.Ref) feature {
	ft := feature{group: group, name: name, ref: ref}
	a.features = append(a.features, ft)
	return ft
}

func (a *assembler) body() *Node {
	f := a.f
	union := []solid.Ref{extrusion(f.BodyExtrusion())}
	for _, e := range []*locate.Ear{f.TopEar, f.BotEar} {
		if e != nil && e.Width > 0 {
			union = append(union, solid.Named{Entity: fmt.Sprintf("Ear[%s]", e.Name), Of: extrusion(e.Extrusion())})
		}
	}
	for _, fl := range f.Fillets {
		ref := solid.Prism{Profile: fl.Polygon(FilletChords), Frame: solid.At(fl.Frame()), Length: fl.Length}
		union = append(union, a.add(string(locate.GroupFillets), fmt.Sprintf("Fillet[%s]", fl.Name), ref).named())
	}

	cuts := []solid.Ref{solid.Bool{Op: solid.Union, Operands: union}}
	for _, h := range f.Holes {
		cuts = append(cuts, a.add(string(locate.GroupHoles), fmt.Sprintf("HoleCone[%s]", h.Name), holeRef(h)).named())
	}
	for _, s := range f.Slots {
		cuts = append(cuts, a.add(string(locate.GroupSlots), fmt.Sprintf("StepSlot[%s]", s.Name), slotRef(s)).named())
	}
	for _, d := range f.Drips {
		ref := solid.Pipe{Spine: d.Spine(), Section: d.Section}
		cuts = append(cuts, a.add(string(locate.GroupDrips), fmt.Sprintf("DripGroove[%s]", d.Name), ref).named())
	}
	for _, c := range f.Chamfers {
		cuts = append(cuts, a.add(string(locate.GroupChamfers), fmt.Sprintf("Chamfer[%s]", c.Name), extrusion(c.Extrusion())).named())
	}
	for _, role := range []locate.Role{locate.RoleRailing, locate.RoleHoisting, locate.RoleDemouldSide, locate.RoleDemouldBottom} {
		for _, in := range f.Inserts {
			if in.Role != role || in.Rabbet == nil {
				continue
			}
			ref := placedShape(in.Frame, *in.Rabbet)
			cuts = append(cuts, a.add(GroupRabbets, fmt.Sprintf("Rabbet[%s]", in.Name), ref).named())
		}
	}

	return &Node{
		Name:      NameConcrete,
		Kind:      KindBody,
		Group:     NameConcrete,
		Placement: geom.Identity,
		Solids:    []solid.Ref{solid.Bool{Op: solid.Difference, Operands: cuts}},
	}
}

// featureNodes groups the recorded voids by feature group, in body order.
func (a *assembler) featureNodes() *Node {
	top := &Node{Name: NameFeatures, Kind: KindGroup, Placement: geom.Identity}
	groups := map[string]*Node{}
	for _, ft := range a.features {
		g, ok := groups[ft.group]
		if !ok {
			g = &Node{Name: NameFeatures + "/" + ft.group, Kind: KindGroup, Group: ft.group, Placement: geom.Identity}
			groups[ft.group] = g
			top.Children = append(top.Children, g)
		}
		g.Children = append(g.Children, &Node{
			Name:      ft.name,
			Kind:      KindFeature,
			Group:     ft.group,
			Placement: geom.Identity,
			Solids:    []solid.Ref{ft.ref},
		})
	}
	return top
}

func (a *assembler) inserts() (*Node, error) {
	top := &Node{Name: NameInserts, Kind: KindGroup, Placement: geom.Identity}
	for _, in := range a.f.Inserts {
		if !in.Frame.IsOrthonormal() || !in.Frame.IsRightHanded() {
			return nil, stairerr.New(stairerr.KindGeometryInfeasible, "Insert["+in.Name+"]", "frame %v is not right-handed orthonormal", in.Frame)
		}
		refs := make([]solid.Ref, len(in.Body))
		for i, s := range in.Body {
			refs[i] = solid.Named{Entity: fmt.Sprintf("Insert[%s]/%s", in.Name, s.Name), Of: placedShape(geom.Identity, s)}
		}
		top.Children = append(top.Children, &Node{
			Name:      "Insert[" + in.Name + "]",
			Kind:      KindInsert,
			Group:     string(in.Role),
			Placement: in.Frame,
			Solids:    refs,
		})
	}
	return top, nil
}

func (a *assembler) rebars() (*Node, error) {
	top := &Node{Name: NameRebars, Kind: KindGroup, Placement: geom.Identity}
	groups := map[string]*Node{}
	for _, r := range a.f.Rebars {
		path, err := r.Path()
		if err != nil {
			return nil, stairerr.Wrap(stairerr.KindRebarBendInfeasible, "Rebar["+r.Name+"]", err)
		}
		g, ok := groups[r.Group]
		if !ok {
			g = &Node{Name: NameRebars + "/" + r.Group, Kind: KindGroup, Group: r.Group, Placement: geom.Identity}
			groups[r.Group] = g
			top.Children = append(top.Children, g)
		}
		g.Children = append(g.Children, &Node{
			Name:      "Rebar[" + r.Name + "]",
			Kind:      KindRebar,
			Group:     r.Group,
			Placement: geom.Identity,
			Solids:    []solid.Ref{solid.Disk{Spine: path.Polyline(BarChords), Radius: path.Radius}},
		})
	}
	return top, nil
}

func extrusion(e locate.Extrusion) solid.Ref {
	if e.Tapered() {
		return solid.Tapered{Profile: e.Profile, Frame: solid.At(e.Frame), Length: e.Length, Scale: e.Taper}
	}
	return solid.Prism{Profile: e.Profile, Frame: solid.At(e.Frame), Length: e.Length}
}

// holeRef stacks one cone per frustum of the hole section.
func holeRef(h locate.HoleSpec) solid.Ref {
	var cones []solid.Ref
	for _, c := range h.Frustums() {
		fr := h.Frame().Translate(geom.V3(0, 0, c.Z))
		cones = append(cones, solid.Cone{Frame: solid.At(fr), Bottom: c.R0, Top: c.R1, Height: c.Height})
	}
	if len(cones) == 1 {
		return cones[0]
	}
	return solid.Bool{Op: solid.Union, Operands: cones}
}

// slotRef is the full-depth groove and its two ramps.
func slotRef(s locate.SlotSpec) solid.Ref {
	ramps := s.Ramps()
	return solid.Bool{Op: solid.Union, Operands: []solid.Ref{
		extrusion(s.Core()), extrusion(ramps[0]), extrusion(ramps[1]),
	}}
}

// placedShape expresses an insert shape in the coordinates of parent's
// parent, parent being the insert frame.
func placedShape(parent geom.Frame, s locate.Shape) solid.Ref {
	local := s.Frame
	if local == (geom.Frame{}) {
		local = geom.Identity
	}
	fr := parent.Compose(local)
	switch s.Kind {
	case locate.ShapeRevolve:
		return solid.Revolve{Profile: s.Profile, Frame: solid.At(fr)}
	case locate.ShapeCylinder:
		return solid.Cylinder{Frame: solid.At(fr), Radius: s.Radius, Height: s.Height}
	case locate.ShapeBox:
		return solid.Box{Frame: solid.At(fr), Size: s.Size}
	case locate.ShapeSphere:
		return solid.Sphere{Centre: fr.Origin, Radius: s.Radius}
	}
	// Bars are already in insert coordinates.
	spine := s.Bar.Polyline(BarChords)
	for i, p := range spine {
		spine[i] = fr.ToWorld(p)
	}
	return solid.Disk{Spine: spine, Radius: s.Bar.Radius}
}
