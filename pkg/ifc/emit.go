// Package ifc writes a located stair as an IFC4X3 exchange file: the
// spatial hierarchy, one IfcStair whose body is a boolean tree of
// extrusions, its feature voids as opening elements, inserts as element
// assemblies and every bar as an IfcReinforcingBar over an indexed poly
// curve.
package ifc

import (
	"fmt"
	"io"
	"time"

	"github.com/chazu/stairkit/pkg/geom"
	"github.com/chazu/stairkit/pkg/locate"
	"github.com/chazu/stairkit/pkg/stairerr"
	"github.com/chazu/stairkit/pkg/step21"
)

// SchemaName is written to FILE_SCHEMA.
const SchemaName = "IFC4X3"

// MaxCreateRetries is how many times entity creation is retried when the
// sink hands back instance id 0.
const MaxCreateRetries = 3

// Sink receives entities in creation order and returns their instance
// ids. *step21.File is the usual sink.
type Sink interface {
	Add(typ string, attrs ...step21.Value) step21.Ref
}

var _ Sink = (*step21.File)(nil)

// Options control the header and the identity of the written file.
type Options struct {
	FileName      string
	Author        []string
	Organization  []string
	Authorization string // a contact address, e.g. "Jane Doe <jane@example.com>"
	Application   string
	Version       string
	// Time stamps the header and owner history. The zero value means now.
	Time time.Time
	// IDs supplies GlobalIds; nil means random.
	IDs IDSource
}

func (o *Options) defaults() {
	if o.Application == "" {
		o.Application = "stairkit"
	}
	if o.Version == "" {
		o.Version = "dev"
	}
	if o.Time.IsZero() {
		o.Time = time.Now()
	}
	if o.IDs == nil {
		o.IDs = RandomIDs
	}
}

// Emit builds the exchange file for f.
func Emit(f *locate.Features, opts Options) (*step21.File, error) {
	opts.defaults()
	file := step21.New(step21.Header{
		Description:         []string{"ViewDefinition [DesignTransferView]"},
		Name:                opts.FileName,
		TimeStamp:           opts.Time.UTC().Format("2006-01-02T15:04:05"),
		Author:              opts.Author,
		Organization:        opts.Organization,
		PreprocessorVersion: opts.Application + " " + opts.Version,
		OriginatingSystem:   opts.Application,
		Authorization:       opts.Authorization,
		Schema:              []string{SchemaName},
	})
	if err := EmitTo(file, f, opts); err != nil {
		return nil, err
	}
	return file, nil
}

// Write emits f and writes the file to w.
func Write(w io.Writer, f *locate.Features, opts Options) error {
	file, err := Emit(f, opts)
	if err != nil {
		return err
	}
	if _, err := file.WriteTo(w); err != nil {
		return fmt.Errorf("write IFC: %w", err)
	}
	return nil
}

// EmitTo creates every entity of f in sink. The first failure stops the
// emission; entities already created stay in the sink.
func EmitTo(sink Sink, f *locate.Features, opts Options) error {
	if f == nil {
		return fmt.Errorf("ifc: no features")
	}
	opts.defaults()
	e := &emitter{
		sink:   sink,
		opts:   opts,
		f:      f,
		points: make(map[string]step21.Ref),
		dirs:   make(map[string]step21.Ref),
	}
	e.header()
	e.spatial()
	e.stairBody()
	e.openings()
	e.inserts()
	e.rebars()
	e.decompose()
	e.materials()
	return e.err
}

// emitter carries the shared entities of one emission. Creation errors are
// sticky: after the first one every add is a no-op returning 0.
type emitter struct {
	sink Sink
	opts Options
	f    *locate.Features
	err  error
	// scope names the element being written, for error reports.
	scope string

	owner   step21.Ref
	context step21.Ref
	body    step21.Ref
	storey  step21.Ref
	stair   step21.Ref
	place   step21.Ref // stair placement
	parts   []step21.Ref
	steel   []step21.Ref
	skip    map[string]bool // bars written with their connection

	points map[string]step21.Ref
	dirs   map[string]step21.Ref
}

func (e *emitter) add(typ string, attrs ...step21.Value) step21.Ref {
	if e.err != nil {
		return 0
	}
	for attempt := 0; attempt <= MaxCreateRetries; attempt++ {
		if id := e.sink.Add(typ, attrs...); id != 0 {
			return id
		}
	}
	entity := e.scope
	if entity == "" {
		entity = typ
	}
	e.err = stairerr.New(stairerr.KindIfcEntityIDZero, entity,
		"creating %s returned id 0 after %d attempts", typ, MaxCreateRetries+1)
	return 0
}

func (e *emitter) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

// root adds an IfcRoot subtype: GlobalId, OwnerHistory, Name and
// Description, followed by rest.
func (e *emitter) root(typ, name string, rest ...step21.Value) step21.Ref {
	attrs := make([]step21.Value, 0, 4+len(rest))
	attrs = append(attrs, step21.Str(Compress(e.opts.IDs())), e.owner, label(name), step21.Null{})
	attrs = append(attrs, rest...)
	return e.add(typ, attrs...)
}

func label(s string) step21.Value {
	if s == "" {
		return step21.Null{}
	}
	return step21.Str(s)
}

func enum(s string) step21.Value { return step21.Enum(s) }

func refs(rs []step21.Ref) step21.List {
	l := make(step21.List, len(rs))
	for i, r := range rs {
		l[i] = r
	}
	return l
}

var null = step21.Null{}

// ---------------------------------------------------------------------------
// Header entities
// ---------------------------------------------------------------------------

func (e *emitter) header() {
	author := "stairkit"
	if len(e.opts.Author) > 0 {
		author = e.opts.Author[0]
	}
	org := e.opts.Application
	if len(e.opts.Organization) > 0 {
		org = e.opts.Organization[0]
	}
	person := e.add("IFCPERSON", null, step21.Str(author), null, null, null, null, null, null)
	organization := e.add("IFCORGANIZATION", null, step21.Str(org), null, null, null)
	user := e.add("IFCPERSONANDORGANIZATION", person, organization, null)
	app := e.add("IFCAPPLICATION", organization, step21.Str(e.opts.Version),
		step21.Str(e.opts.Application), step21.Str(e.opts.Application))
	e.owner = e.add("IFCOWNERHISTORY", user, app, null, enum("ADDED"), null, null, null,
		step21.Int(e.opts.Time.Unix()))

	origin := e.point3(0, 0, 0)
	wcs := e.add("IFCAXIS2PLACEMENT3D", origin, null, null)
	north := e.add("IFCDIRECTION", step21.List{step21.Real(0), step21.Real(1)})
	e.context = e.add("IFCGEOMETRICREPRESENTATIONCONTEXT", null, step21.Str("Model"),
		step21.Int(3), step21.Real(1e-5), wcs, north)
	e.body = e.add("IFCGEOMETRICREPRESENTATIONSUBCONTEXT", step21.Str("Body"), step21.Str("Model"),
		step21.Derived{}, step21.Derived{}, step21.Derived{}, step21.Derived{},
		e.context, null, enum("MODEL_VIEW"), null)
}

// units assigns millimetres, square and cubic metres, degrees and a
// derived specific heat capacity unit.
func (e *emitter) units() step21.Ref {
	si := func(typ, prefix, name string) step21.Ref {
		var p step21.Value = null
		if prefix != "" {
			p = enum(prefix)
		}
		return e.add("IFCSIUNIT", step21.Derived{}, enum(typ), p, enum(name))
	}
	length := si("LENGTHUNIT", "MILLI", "METRE")
	area := si("AREAUNIT", "", "SQUARE_METRE")
	volume := si("VOLUMEUNIT", "", "CUBIC_METRE")
	radian := si("PLANEANGLEUNIT", "", "RADIAN")
	factor := e.add("IFCMEASUREWITHUNIT",
		step21.Typed{Type: "IFCPLANEANGLEMEASURE", Value: step21.Real(0.017453292519943295)}, radian)
	dims := e.add("IFCDIMENSIONALEXPONENTS",
		step21.Int(0), step21.Int(0), step21.Int(0), step21.Int(0), step21.Int(0), step21.Int(0), step21.Int(0))
	degree := e.add("IFCCONVERSIONBASEDUNIT", dims, enum("PLANEANGLEUNIT"), step21.Str("DEGREE"), factor)

	joule := si("ENERGYUNIT", "", "JOULE")
	kg := si("MASSUNIT", "KILO", "GRAM")
	kelvin := si("THERMODYNAMICTEMPERATUREUNIT", "", "KELVIN")
	elems := step21.List{
		e.add("IFCDERIVEDUNITELEMENT", joule, step21.Int(1)),
		e.add("IFCDERIVEDUNITELEMENT", kg, step21.Int(-1)),
		e.add("IFCDERIVEDUNITELEMENT", kelvin, step21.Int(-1)),
	}
	heat := e.add("IFCDERIVEDUNIT", elems, enum("SPECIFICHEATCAPACITYUNIT"), null, null)

	return e.add("IFCUNITASSIGNMENT", step21.List{length, area, volume, degree, heat})
}

// spatial writes project, site, building and storey with their
// aggregation relationships.
func (e *emitter) spatial() {
	units := e.units()
	name := e.f.Name
	if name == "" {
		name = "stair"
	}
	project := e.root("IFCPROJECT", name, null, null, null, step21.List{e.context}, units)

	sitePlace := e.placement(0, geom.Identity)
	site := e.root("IFCSITE", "Site", null, sitePlace, null, null, enum("ELEMENT"), null, null, null, null, null)
	buildingPlace := e.placement(sitePlace, geom.Identity)
	building := e.root("IFCBUILDING", "Building", null, buildingPlace, null, null, enum("ELEMENT"), null, null, null)
	storeyPlace := e.placement(buildingPlace, geom.Identity)
	e.storey = e.root("IFCBUILDINGSTOREY", "Storey", null, storeyPlace, null, null, enum("ELEMENT"), step21.Real(0))

	e.root("IFCRELAGGREGATES", "", project, step21.List{site})
	e.root("IFCRELAGGREGATES", "", site, step21.List{building})
	e.root("IFCRELAGGREGATES", "", building, step21.List{e.storey})

	e.place = e.placement(storeyPlace, geom.Identity)
}

// decompose aggregates inserts and bars under the stair.
func (e *emitter) decompose() {
	if len(e.parts) == 0 {
		return
	}
	e.scope = ""
	e.root("IFCRELAGGREGATES", "", e.stair, refs(e.parts))
}

func (e *emitter) materials() {
	e.scope = ""
	concrete := e.f.Concrete
	if concrete == "" {
		concrete = "concrete"
	}
	mat := e.add("IFCMATERIAL", step21.Str(concrete), null, step21.Str("Concrete"))
	e.root("IFCRELASSOCIATESMATERIAL", "", step21.List{e.stair}, mat)
	if len(e.steel) == 0 {
		return
	}
	steel := e.f.Steel
	if steel == "" {
		steel = "steel"
	}
	mat = e.add("IFCMATERIAL", step21.Str(steel), null, step21.Str("Steel"))
	e.root("IFCRELASSOCIATESMATERIAL", "", refs(e.steel), mat)
}
