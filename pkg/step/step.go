// Package step writes kernel meshes as a STEP exchange file. Each named
// part becomes one product whose shape is a FACETED_BREP; the parts are
// gathered under a single assembly product named after the stair.
package step

import (
	"fmt"
	"io"
	"math"

	"github.com/chazu/stairkit/pkg/kernel"
	"github.com/chazu/stairkit/pkg/stairerr"
	"github.com/chazu/stairkit/pkg/step21"
)

// Schema selects the application protocol.
type Schema int

const (
	AP203 Schema = iota
	AP214
)

func (s Schema) String() string {
	if s == AP214 {
		return "AP214"
	}
	return "AP203"
}

// ParseSchema accepts the names used by the write.step.schema option.
func ParseSchema(name string) (Schema, error) {
	switch name {
	case "", "AP203", "ap203":
		return AP203, nil
	case "AP214", "ap214":
		return AP214, nil
	}
	return AP203, fmt.Errorf("unknown STEP schema %q", name)
}

func (s Schema) identifier() string {
	if s == AP214 {
		return "AUTOMOTIVE_DESIGN { 1 0 10303 214 1 1 1 1 }"
	}
	return "CONFIG_CONTROL_DESIGN"
}

func (s Schema) application() (context, protocol string, year int) {
	if s == AP214 {
		return "core data for automotive mechanical design processes", "automotive_design", 2000
	}
	return "configuration controlled 3d designs of mechanical parts and assemblies", "config_control_design", 1994
}

// DefaultTimeStamp is written when Options.TimeStamp is empty so that
// identical input gives byte-identical files.
const DefaultTimeStamp = "2000-01-01T00:00:00"

// Options control the header and schema of the written file.
type Options struct {
	Schema       Schema
	Name         string // file name recorded in the header
	Assembly     string // name of the top-level product; "stair" if empty
	TimeStamp    string
	Author       []string
	Organization []string
	// Precision is the distance_accuracy_value in millimetres.
	Precision float64
}

// Write encodes meshes to w.
func Write(w io.Writer, meshes []*kernel.Mesh, opts Options) error {
	f, err := Build(meshes, opts)
	if err != nil {
		return err
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write STEP: %w", err)
	}
	return nil
}

// Build returns the exchange file for meshes without writing it.
func Build(meshes []*kernel.Mesh, opts Options) (*step21.File, error) {
	if opts.TimeStamp == "" {
		opts.TimeStamp = DefaultTimeStamp
	}
	if opts.Assembly == "" {
		opts.Assembly = "stair"
	}
	if opts.Precision <= 0 {
		opts.Precision = 1e-5
	}
	f := step21.New(step21.Header{
		Description:         []string{"stairkit precast stair"},
		Name:                opts.Name,
		TimeStamp:           opts.TimeStamp,
		Author:              opts.Author,
		Organization:        opts.Organization,
		PreprocessorVersion: "stairkit",
		OriginatingSystem:   "stairkit",
		Schema:              []string{opts.Schema.identifier()},
	})
	w := &writer{f: f, opts: opts}
	w.contexts()

	root := w.product(opts.Assembly, step21.Null{})
	seen := make(map[string]bool)
	for i, m := range meshes {
		if m == nil || m.PartName == "" {
			return nil, fmt.Errorf("STEP: mesh %d has no part name", i)
		}
		if seen[m.PartName] {
			return nil, stairerr.New(stairerr.KindGeometryInfeasible, m.PartName, "duplicate part name")
		}
		seen[m.PartName] = true
		brep, err := w.brep(m)
		if err != nil {
			return nil, err
		}
		pd := w.product(m.PartName, brep)
		f.Add("NEXT_ASSEMBLY_USAGE_OCCURRENCE",
			step21.Str(fmt.Sprintf("NAUO%d", i+1)), step21.Str(m.PartName), step21.Str(""),
			root, pd, step21.Null{})
	}
	return f, nil
}

type writer struct {
	f    *step21.File
	opts Options

	productCtx, definitionCtx, geometryCtx step21.Ref
	origin                                 step21.Ref
}

func (w *writer) contexts() {
	f := w.f
	ctxName, protocol, year := w.opts.Schema.application()
	app := f.Add("APPLICATION_CONTEXT", step21.Str(ctxName))
	f.Add("APPLICATION_PROTOCOL_DEFINITION",
		step21.Str("international standard"), step21.Str(protocol), step21.Int(year), app)
	if w.opts.Schema == AP214 {
		w.productCtx = f.Add("PRODUCT_CONTEXT", step21.Str(""), app, step21.Str("mechanical"))
		w.definitionCtx = f.Add("PRODUCT_DEFINITION_CONTEXT", step21.Str("part definition"), app, step21.Str("design"))
	} else {
		w.productCtx = f.Add("MECHANICAL_CONTEXT", step21.Str(""), app, step21.Str("mechanical"))
		w.definitionCtx = f.Add("DESIGN_CONTEXT", step21.Str(""), app, step21.Str("design"))
	}

	mm := f.AddComplex(
		step21.Typed{Type: "LENGTH_UNIT", Value: step21.List{}},
		step21.Typed{Type: "NAMED_UNIT", Value: step21.List{step21.Derived{}}},
		step21.Typed{Type: "SI_UNIT", Value: step21.List{step21.Enum("MILLI"), step21.Enum("METRE")}},
	)
	rad := f.AddComplex(
		step21.Typed{Type: "NAMED_UNIT", Value: step21.List{step21.Derived{}}},
		step21.Typed{Type: "PLANE_ANGLE_UNIT", Value: step21.List{}},
		step21.Typed{Type: "SI_UNIT", Value: step21.List{step21.Null{}, step21.Enum("RADIAN")}},
	)
	sr := f.AddComplex(
		step21.Typed{Type: "NAMED_UNIT", Value: step21.List{step21.Derived{}}},
		step21.Typed{Type: "SI_UNIT", Value: step21.List{step21.Null{}, step21.Enum("STERADIAN")}},
		step21.Typed{Type: "SOLID_ANGLE_UNIT", Value: step21.List{}},
	)
	unc := f.Add("UNCERTAINTY_MEASURE_WITH_UNIT",
		step21.Typed{Type: "LENGTH_MEASURE", Value: step21.Real(w.opts.Precision)}, mm,
		step21.Str("distance_accuracy_value"), step21.Str("confusion accuracy"))
	w.geometryCtx = f.AddComplex(
		step21.Typed{Type: "GEOMETRIC_REPRESENTATION_CONTEXT", Value: step21.List{step21.Int(3)}},
		step21.Typed{Type: "GLOBAL_UNCERTAINTY_ASSIGNED_CONTEXT", Value: step21.List{step21.List{unc}}},
		step21.Typed{Type: "GLOBAL_UNIT_ASSIGNED_CONTEXT", Value: step21.List{step21.List{mm, rad, sr}}},
		step21.Typed{Type: "REPRESENTATION_CONTEXT", Value: step21.List{step21.Str("3D"), step21.Str("model space")}},
	)

	p := f.Add("CARTESIAN_POINT", step21.Str(""), reals(0, 0, 0))
	z := f.Add("DIRECTION", step21.Str(""), reals(0, 0, 1))
	x := f.Add("DIRECTION", step21.Str(""), reals(1, 0, 0))
	w.origin = f.Add("AXIS2_PLACEMENT_3D", step21.Str(""), p, z, x)
}

// product adds the product structure for one part and returns its
// PRODUCT_DEFINITION. A Null brep gives a shape with only the placement.
func (w *writer) product(name string, brep step21.Value) step21.Ref {
	f := w.f
	prod := f.Add("PRODUCT", step21.Str(name), step21.Str(name), step21.Str(""), step21.List{w.productCtx})
	var formation step21.Ref
	if w.opts.Schema == AP214 {
		formation = f.Add("PRODUCT_DEFINITION_FORMATION", step21.Str("1"), step21.Str(""), prod)
	} else {
		formation = f.Add("PRODUCT_DEFINITION_FORMATION_WITH_SPECIFIED_SOURCE",
			step21.Str("1"), step21.Str(""), prod, step21.Enum("NOT_KNOWN"))
	}
	pd := f.Add("PRODUCT_DEFINITION", step21.Str("design"), step21.Str(""), formation, w.definitionCtx)
	shape := f.Add("PRODUCT_DEFINITION_SHAPE", step21.Str(""), step21.Str(""), pd)

	items := step21.List{w.origin}
	typ := "SHAPE_REPRESENTATION"
	if _, ok := brep.(step21.Ref); ok {
		items = step21.List{brep, w.origin}
		typ = "FACETED_BREP_SHAPE_REPRESENTATION"
	}
	rep := f.Add(typ, step21.Str(name), items, w.geometryCtx)
	f.Add("SHAPE_DEFINITION_REPRESENTATION", shape, rep)
	return pd
}

// brep writes the closed shell of one mesh. Coincident vertices are
// shared and triangles that collapse after merging are dropped.
func (w *writer) brep(m *kernel.Mesh) (step21.Ref, error) {
	if m.IsEmpty() || m.TriangleCount() == 0 {
		return 0, stairerr.New(stairerr.KindGeometryInfeasible, m.PartName, "mesh has no triangles")
	}
	f := w.f
	points := make(map[[3]float32]step21.Ref)
	point := func(i uint32) step21.Ref {
		key := [3]float32{m.Vertices[3*i], m.Vertices[3*i+1], m.Vertices[3*i+2]}
		if r, ok := points[key]; ok {
			return r
		}
		r := f.Add("CARTESIAN_POINT", step21.Str(""),
			reals(round(key[0]), round(key[1]), round(key[2])))
		points[key] = r
		return r
	}

	var faces step21.List
	for i := 0; i < m.TriangleCount(); i++ {
		t := m.Triangle(i)
		a, b, c := point(t[0]), point(t[1]), point(t[2])
		if a == b || b == c || a == c {
			continue
		}
		loop := f.Add("POLY_LOOP", step21.Str(""), step21.List{a, b, c})
		bound := f.Add("FACE_OUTER_BOUND", step21.Str(""), loop, step21.Bool(true))
		faces = append(faces, f.Add("FACE", step21.Str(""), step21.List{bound}))
	}
	if len(faces) == 0 {
		return 0, stairerr.New(stairerr.KindGeometryInfeasible, m.PartName, "mesh collapsed to no faces")
	}
	shell := f.Add("CLOSED_SHELL", step21.Str(""), faces)
	return f.Add("FACETED_BREP", step21.Str(m.PartName), shell), nil
}

func reals(xs ...float64) step21.List {
	l := make(step21.List, len(xs))
	for i, x := range xs {
		l[i] = step21.Real(x)
	}
	return l
}

// round trims float32 noise to micrometres.
func round(v float32) float64 {
	return math.Round(float64(v)*1000) / 1000
}
