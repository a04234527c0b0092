package ifc

import (
	"fmt"
	"math"
	"strings"

	"github.com/chazu/stairkit/pkg/geom"
	"github.com/chazu/stairkit/pkg/locate"
	"github.com/chazu/stairkit/pkg/rebar"
	"github.com/chazu/stairkit/pkg/stairerr"
	"github.com/chazu/stairkit/pkg/step21"
)

// stairBody writes the IfcStair. Its body unions the side profile
// extrusion, the ears and the riser fillets; with nothing to union it is
// the bare extrusion.
func (e *emitter) stairBody() {
	f := e.f
	e.scope = "Body"
	operands := []item{e.extrusion("Body", f.BodyExtrusion())}
	for _, ear := range []*locate.Ear{f.TopEar, f.BotEar} {
		if ear != nil && ear.Width > 0 {
			e.scope = "Ear[" + ear.Name + "]"
			operands = append(operands, e.extrusion(ear.Name, ear.Extrusion()))
		}
	}
	for _, fl := range f.Fillets {
		e.scope = "Fillet[" + fl.Name + "]"
		operands = append(operands, e.fillet(fl))
	}
	body := operands[0]
	for _, o := range operands[1:] {
		body = item{e.add("IFCBOOLEANRESULT", enum("UNION"), body.ref, o.ref), repCSG}
	}

	name := f.Name
	if name == "" {
		name = "stair"
	}
	e.scope = "Stair"
	e.stair = e.root("IFCSTAIR", name, null, e.place, e.shape([]item{body}), null, enum("STRAIGHT_RUN_STAIR"))
	e.root("IFCRELCONTAINEDINSPATIALSTRUCTURE", "", step21.List{e.stair}, e.storey)
}

// opening voids the stair with one opening element holding items.
func (e *emitter) opening(name, predefined string, items []item) {
	e.scope = name
	place := e.placement(e.place, geom.Identity)
	op := e.root("IFCOPENINGELEMENT", name, null, place, e.shape(items), null, enum(predefined))
	e.root("IFCRELVOIDSELEMENT", "", e.stair, op)
}

// openings writes the feature voids: one per hole end, per step tread,
// per drip side, per chamfered riser and per insert rabbet.
func (e *emitter) openings() {
	f := e.f

	var ends []locate.End
	holes := map[locate.End][]locate.HoleSpec{}
	for _, h := range f.Holes {
		if _, ok := holes[h.End]; !ok {
			ends = append(ends, h.End)
		}
		holes[h.End] = append(holes[h.End], h)
	}
	for _, end := range ends {
		name := fmt.Sprintf("Holes[%s]", end)
		e.scope = name
		var items []item
		for _, h := range holes[end] {
			items = append(items, e.revolve("HoleCone["+h.Name+"]", h.Section, h.Frame()))
		}
		e.opening(name, "OPENING", items)
	}

	var treads []int
	slots := map[int][]locate.SlotSpec{}
	for _, s := range f.Slots {
		if _, ok := slots[s.Tread]; !ok {
			treads = append(treads, s.Tread)
		}
		slots[s.Tread] = append(slots[s.Tread], s)
	}
	for _, t := range treads {
		name := fmt.Sprintf("StepSlots[tread-%d]", t)
		e.scope = name
		var items []item
		for _, s := range slots[t] {
			ramps := s.Ramps()
			items = append(items,
				e.extrusion(s.Name, s.Core()),
				e.extrusion(s.Name+"/ramp-start", ramps[0]),
				e.extrusion(s.Name+"/ramp-end", ramps[1]))
		}
		e.opening(name, "RECESS", items)
	}

	for _, d := range f.Drips {
		name := "DripGroove[" + d.Name + "]"
		e.scope = name
		items := make([]item, len(d.Runs))
		for i, r := range d.Runs {
			items[i] = e.extrusion(fmt.Sprintf("%s/run-%d", d.Name, i+1), r)
		}
		e.opening(name, "RECESS", items)
	}

	for _, c := range f.Chamfers {
		name := "Chamfer[" + c.Name + "]"
		e.scope = name
		e.opening(name, "RECESS", []item{e.extrusion(c.Name, c.Extrusion())})
	}

	for _, role := range []locate.Role{locate.RoleRailing, locate.RoleHoisting, locate.RoleDemouldSide, locate.RoleDemouldBottom} {
		for _, in := range f.Inserts {
			if in.Role != role || in.Rabbet == nil {
				continue
			}
			name := "Rabbet[" + in.Name + "]"
			e.scope = name
			e.opening(name, "RECESS", []item{e.shapeItem(*in.Rabbet, in.Frame)})
		}
	}
}

// inserts writes every insert as an element assembly placed at its frame.
// Connection assemblies also take the anchor bar through their hole.
func (e *emitter) inserts() {
	anchors := map[string]locate.RebarSpec{}
	for _, r := range e.f.Rebars {
		if r.Group == locate.BarConnectionAnchor {
			anchors[strings.TrimPrefix(r.Name, locate.BarConnectionAnchor+"-")] = r
		}
	}
	for _, in := range e.f.Inserts {
		name := "Insert[" + in.Name + "]"
		e.scope = name
		place := e.placement(e.place, in.Frame)
		asm := e.root("IFCELEMENTASSEMBLY", name, label(in.PartName()), place, null, null,
			enum("FACTORY"), enum("ACCESSORY_ASSEMBLY"))

		var parts []step21.Ref
		for _, s := range in.Body {
			e.scope = name + "/" + s.Name
			parts = append(parts, e.component(in, s, place))
		}
		if r, ok := anchors[in.Hole]; ok && in.Role == locate.RoleConnection {
			e.scope = "Rebar[" + r.Name + "]"
			parts = append(parts, e.anchor(r))
			e.anchored(r.Name)
		}
		if len(parts) > 0 {
			e.scope = name
			e.root("IFCRELAGGREGATES", "", asm, refs(parts))
		}
		e.parts = append(e.parts, asm)
	}
}

// anchored records bars already written as connection fasteners.
func (e *emitter) anchored(name string) {
	if e.skip == nil {
		e.skip = make(map[string]bool)
	}
	e.skip[name] = true
}

// component writes one insert shape relative to the insert placement.
// Connection hardware is a mechanical fastener, bars are reinforcing bars
// and everything else is a discrete accessory.
func (e *emitter) component(in locate.InsertSpec, s locate.Shape, parent step21.Ref) step21.Ref {
	name := "Insert[" + in.Name + "]/" + s.Name
	place := e.placement(parent, geom.Identity)
	shape := e.shape([]item{e.shapeItem(s, geom.Identity)})
	var ref step21.Ref
	switch {
	case in.Role == locate.RoleConnection:
		var diameter step21.Value = null
		if s.Kind == locate.ShapeCylinder {
			diameter = num(2 * s.Radius)
		}
		ref = e.root("IFCMECHANICALFASTENER", name, label(s.Name), place, shape, null,
			diameter, null, enum("USERDEFINED"))
	case s.Kind == locate.ShapeBar:
		ref = e.bar(name, "ANCHORING", s.Name, place, shape, *s.Bar)
	default:
		ref = e.root("IFCDISCRETEACCESSORY", name, label(in.PartName()), place, shape, null, enum("NOTDEFINED"))
	}
	e.steel = append(e.steel, ref)
	return ref
}

// anchor writes a connection anchor bar as an anchor bolt. Its points are
// in stair coordinates, so it is placed relative to the stair.
func (e *emitter) anchor(r locate.RebarSpec) step21.Ref {
	path, err := r.Path()
	if err != nil {
		e.fail(stairerr.Wrap(stairerr.KindRebarBendInfeasible, "Rebar["+r.Name+"]", err))
		return 0
	}
	place := e.placement(e.place, geom.Identity)
	shape := e.shape([]item{e.sweptDisk(path)})
	ref := e.root("IFCMECHANICALFASTENER", "Rebar["+r.Name+"]", label(r.Group), place, shape, null,
		num(r.Diameter), num(path.Length()), enum("ANCHORBOLT"))
	e.steel = append(e.steel, ref)
	return ref
}

// rebars writes every bar not already written with its connection.
func (e *emitter) rebars() {
	for _, r := range e.f.Rebars {
		if e.skip[r.Name] {
			continue
		}
		name := "Rebar[" + r.Name + "]"
		e.scope = name
		path, err := r.Path()
		if err != nil {
			e.fail(stairerr.Wrap(stairerr.KindRebarBendInfeasible, name, err))
			return
		}
		place := e.placement(e.place, geom.Identity)
		shape := e.shape([]item{e.sweptDisk(path)})
		ref := e.bar(name, BarType(r.Group), r.Group, place, shape, path)
		e.parts = append(e.parts, ref)
		e.steel = append(e.steel, ref)
	}
}

func (e *emitter) bar(name, predefined, objectType string, place, shape step21.Ref, p rebar.Path) step21.Ref {
	area := math.Pi * p.Radius * p.Radius * 1e-6 // mm² to m²
	return e.root("IFCREINFORCINGBAR", name, label(objectType), place, shape, null,
		label(e.f.Steel), num(2*p.Radius), step21.Real(area), num(p.Length()),
		enum(predefined), enum("TEXTURED"))
}

// BarType maps a bar group to its IfcReinforcingBarTypeEnum value.
func BarType(group string) string {
	switch group {
	case locate.BarBottomEdgeStirrup, locate.BarTopEdgeStirrup:
		return "LIGATURE"
	case locate.BarBottomEdgeLong, locate.BarTopEdgeLong,
		locate.BarBottomEdgeReinforcement, locate.BarTopEdgeReinforcement:
		return "EDGE"
	case locate.BarHoleReinforcement, locate.BarConnectionAnchor:
		return "ANCHORING"
	case locate.BarHoistingLong, locate.BarHoistingPoint:
		return "USERDEFINED"
	}
	return "MAIN"
}
