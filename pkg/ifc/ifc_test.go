package ifc

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/chazu/stairkit/pkg/geom"
	"github.com/chazu/stairkit/pkg/locate"
	"github.com/chazu/stairkit/pkg/params"
	"github.com/chazu/stairkit/pkg/stairerr"
	"github.com/chazu/stairkit/pkg/step21"
)

var fixedTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func features(t *testing.T, b *params.Bundle) *locate.Features {
	t.Helper()
	if err := params.Validate(b); err != nil {
		t.Fatalf("bundle invalid: %v", err)
	}
	f, err := locate.Locate(b)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	return f
}

func emitModel(t *testing.T, f *locate.Features, opts Options) *step21.Model {
	t.Helper()
	var buf bytes.Buffer
	if err := Write(&buf, f, opts); err != nil {
		t.Fatalf("Write: %v", err)
	}
	m, err := step21.Parse(&buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return m
}

func named(m *step21.Model, typ, prefix string) int {
	n := 0
	for _, e := range m.ByType(typ) {
		if s, _ := step21.AsString(e.Attrs[2]); strings.HasPrefix(s, prefix) {
			n++
		}
	}
	return n
}

// ---------------------------------------------------------------------------
// GlobalIds
// ---------------------------------------------------------------------------

func TestGlobalIDRoundTrip(t *testing.T) {
	ids := []uuid.UUID{
		{},
		uuid.MustParse("ffffffff-ffff-ffff-ffff-ffffffffffff"),
		uuid.MustParse("0c4d6f7e-1a2b-4c3d-8e9f-a0b1c2d3e4f5"),
	}
	for i := 0; i < 20; i++ {
		ids = append(ids, RandomIDs())
	}
	for _, u := range ids {
		g := Compress(u)
		if len(g) != GUIDLength {
			t.Fatalf("Compress(%s) = %q, %d characters", u, g, len(g))
		}
		if g[0] < '0' || g[0] > '3' {
			t.Errorf("Compress(%s) starts with %q", u, g[0])
		}
		back, err := Expand(g)
		if err != nil {
			t.Fatalf("Expand(%q): %v", g, err)
		}
		if back != u {
			t.Errorf("Expand(Compress(%s)) = %s", u, back)
		}
	}
	if got := Compress(uuid.UUID{}); got != "0000000000000000000000" {
		t.Errorf("zero uuid = %q", got)
	}
	for _, bad := range []string{"short", "0000000000000000000000!", "000000000000000000000!"} {
		if _, err := Expand(bad); err == nil {
			t.Errorf("Expand(%q) accepted", bad)
		}
	}
}

func TestSeededIDsRepeat(t *testing.T) {
	a, b := SeededIDs("st-1"), SeededIDs("st-1")
	for i := 0; i < 5; i++ {
		if x, y := a(), b(); x != y {
			t.Fatalf("draw %d differs: %s %s", i, x, y)
		}
	}
	if SeededIDs("st-1")() == SeededIDs("st-2")() {
		t.Error("different seeds gave the same first id")
	}
}

// ---------------------------------------------------------------------------
// Emission
// ---------------------------------------------------------------------------

func TestDefaultStair(t *testing.T) {
	f := features(t, params.Default())
	m := emitModel(t, f, Options{
		FileName: "ST-1760-1200.ifc",
		Author:   []string{"A. Designer"},
		Time:     fixedTime,
	})

	if got := m.Header.Schema; len(got) != 1 || got[0] != SchemaName {
		t.Errorf("schema = %v", got)
	}
	if got := m.Header.Author; len(got) != 1 || got[0] != "A. Designer" {
		t.Errorf("author = %v", got)
	}
	if m.Header.TimeStamp != "2024-05-01T12:00:00" {
		t.Errorf("timestamp = %q", m.Header.TimeStamp)
	}

	counts := map[string]int{
		"IFCPROJECT":                        1,
		"IFCSITE":                           1,
		"IFCBUILDING":                       1,
		"IFCBUILDINGSTOREY":                 1,
		"IFCSTAIR":                          1,
		"IFCRELCONTAINEDINSPATIALSTRUCTURE": 1,
		"IFCREVOLVEDAREASOLID":              4,
		"IFCOPENINGELEMENT":                 2,
		"IFCRELVOIDSELEMENT":                2,
		"IFCREINFORCINGBAR":                 len(f.Rebars),
		"IFCMATERIAL":                       2,
		"IFCRELASSOCIATESMATERIAL":          2,
		"IFCELEMENTASSEMBLY":                0,
	}
	for typ, want := range counts {
		if got := len(m.ByType(typ)); got != want {
			t.Errorf("%d %s, want %d", got, typ, want)
		}
	}
	if named(m, "IFCOPENINGELEMENT", "Holes[top]") != 1 || named(m, "IFCOPENINGELEMENT", "Holes[bottom]") != 1 {
		t.Error("hole openings are not one per end")
	}

	stair := m.ByType("IFCSTAIR")[0]
	if name, _ := step21.AsString(stair.Attrs[2]); name != f.Name {
		t.Errorf("stair named %q", name)
	}
	if e, _ := stair.Attrs[8].(step21.Enum); e != "STRAIGHT_RUN_STAIR" {
		t.Errorf("predefined type = %v", stair.Attrs[8])
	}
	site := m.ByType("IFCSITE")[0]
	place := m.Get(site.Attrs[5].(step21.Ref))
	if _, ok := place.Attrs[0].(step21.Null); !ok {
		t.Errorf("site placement is relative to %s", step21.Encode(place.Attrs[0]))
	}
	for _, g := range m.ByType("IFCSTAIR") {
		if s, _ := step21.AsString(g.Attrs[0]); len(s) != GUIDLength {
			t.Errorf("GlobalId %q", s)
		}
	}
}

func TestBodyVolumeRoundTrip(t *testing.T) {
	b := params.Default()
	b.Geometry.TopEarWidth = 100
	b.Geometry.BottomEarWidth = 150
	b.Corners.InnerFilletRadius = 25
	b.Corners.OuterChamferSide = 15
	b.StepSlots.Mode = params.ModeAuto
	b.Drips.Mode = params.ModeAuto
	f := features(t, b)
	if len(f.Fillets) == 0 || f.TopEar == nil || f.BotEar == nil {
		t.Fatalf("fixture lacks fillets or ears: %v", f.Counts())
	}

	var buf bytes.Buffer
	if err := Write(&buf, f, Options{Time: fixedTime}); err != nil {
		t.Fatal(err)
	}
	got, err := ReadBodyVolume(&buf)
	if err != nil {
		t.Fatal(err)
	}
	want := f.BodyVolume()
	if rel := math.Abs(got-want) / want; rel > 1e-3 {
		t.Errorf("body volume read back %g, want %g (rel %g)", got, want, rel)
	}
}

func TestFilletProfileArea(t *testing.T) {
	fl := locate.FilletSpec{Name: "riser-1", Corner: geom.V2(660, 160), Radius: 40, Length: 1000}
	file := step21.New(step21.Header{})
	e := &emitter{sink: file, points: map[string]step21.Ref{}, dirs: map[string]step21.Ref{}}
	it := e.fillet(fl)
	m, err := step21.ParseString(file.String())
	if err != nil {
		t.Fatal(err)
	}
	v, err := volume(m, it.ref)
	if err != nil {
		t.Fatal(err)
	}
	if want := fl.Area() * fl.Length; math.Abs(v-want) > 1e-6*want {
		t.Errorf("fillet volume = %g, want %g", v, want)
	}
}

func TestFeatureOpenings(t *testing.T) {
	b := params.Default()
	b.StepSlots.Mode = params.ModeAuto
	b.Drips.Mode = params.ModeAuto
	b.Corners.OuterChamferSide = 15
	b.Rebar.Mode = params.RebarFull
	f := features(t, b)
	m := emitModel(t, f, Options{Time: fixedTime})

	treads := map[int]bool{}
	for _, s := range f.Slots {
		treads[s.Tread] = true
	}
	if got := named(m, "IFCOPENINGELEMENT", "StepSlots["); got != len(treads) {
		t.Errorf("%d slot openings, want one per tread (%d)", got, len(treads))
	}
	if got := named(m, "IFCOPENINGELEMENT", "DripGroove["); got != 2 || len(f.Drips) != 2 {
		t.Errorf("%d drip openings for %d drips", got, len(f.Drips))
	}
	if got := named(m, "IFCOPENINGELEMENT", "Chamfer["); got != len(f.Chamfers) || got == 0 {
		t.Errorf("%d chamfer openings for %d chamfers", got, len(f.Chamfers))
	}
	if got := len(m.ByType("IFCREINFORCINGBAR")); got != len(f.Rebars) {
		t.Errorf("%d bars, want %d", got, len(f.Rebars))
	}
	for _, bar := range m.ByType("IFCREINFORCINGBAR") {
		shape := m.Get(bar.Attrs[6].(step21.Ref))
		reps, _ := step21.Refs(shape.Attrs[2])
		rep := m.Get(reps[0])
		items, _ := step21.Refs(rep.Attrs[3])
		if disk := m.Get(items[0]); disk.Type != "IFCSWEPTDISKSOLID" {
			t.Errorf("bar item is %s", disk.Type)
		}
		if grade, _ := step21.AsString(bar.Attrs[8]); grade != f.Steel {
			t.Errorf("bar grade %q, want %q", grade, f.Steel)
		}
	}
}

func TestConnectionAssemblies(t *testing.T) {
	b := params.Default()
	b.Joint.Mode = params.ModeAuto
	f := features(t, b)
	m := emitModel(t, f, Options{Time: fixedTime})

	var anchors int
	for _, r := range f.Rebars {
		if r.Group == locate.BarConnectionAnchor {
			anchors++
		}
	}
	if got := len(m.ByType("IFCELEMENTASSEMBLY")); got != 4 {
		t.Errorf("%d assemblies, want 4", got)
	}
	var bolts int
	for _, fa := range m.ByType("IFCMECHANICALFASTENER") {
		if e, _ := fa.Attrs[10].(step21.Enum); e == "ANCHORBOLT" {
			bolts++
		}
	}
	if bolts != anchors || anchors != 4 {
		t.Errorf("%d anchor bolts for %d anchors", bolts, anchors)
	}
	if got := len(m.ByType("IFCREINFORCINGBAR")); got != len(f.Rebars)-anchors {
		t.Errorf("%d bars written, want %d", got, len(f.Rebars)-anchors)
	}
}

func TestEmitIsDeterministic(t *testing.T) {
	b := params.Default()
	b.Drips.Mode = params.ModeAuto
	b.Hoisting.Mode = params.ModeAuto
	f := features(t, b)
	write := func() []byte {
		var buf bytes.Buffer
		if err := Write(&buf, f, Options{IDs: SeededIDs(f.Name), Time: fixedTime}); err != nil {
			t.Fatal(err)
		}
		return buf.Bytes()
	}
	if !bytes.Equal(write(), write()) {
		t.Error("two emissions with the same seed and time differ")
	}
}

// ---------------------------------------------------------------------------
// Entity id failures
// ---------------------------------------------------------------------------

// flakySink hands back id 0 the first fails times an entity of typ is
// created.
type flakySink struct {
	*step21.File
	typ   string
	fails int
}

func (s *flakySink) Add(typ string, attrs ...step21.Value) step21.Ref {
	if typ == s.typ && s.fails > 0 {
		s.fails--
		return 0
	}
	return s.File.Add(typ, attrs...)
}

func TestEntityIDZeroRetries(t *testing.T) {
	f := features(t, params.Default())
	tests := []struct {
		name  string
		fails int
		ok    bool
	}{
		{"recovers", MaxCreateRetries, true},
		{"gives up", MaxCreateRetries + 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &flakySink{File: step21.New(step21.Header{}), typ: "IFCSTAIR", fails: tt.fails}
			err := EmitTo(sink, f, Options{Time: fixedTime})
			if tt.ok {
				if err != nil {
					t.Fatalf("EmitTo: %v", err)
				}
				return
			}
			if stairerr.KindOf(err) != stairerr.KindIfcEntityIDZero {
				t.Fatalf("err = %v", err)
			}
			if got := stairerr.EntityOf(err); got != "Stair" {
				t.Errorf("entity = %q", got)
			}
			if !strings.Contains(err.Error(), "IfcEntityIdZero") {
				t.Errorf("message %q lacks the kind", err)
			}
		})
	}
}

func TestBarType(t *testing.T) {
	tests := map[string]string{
		locate.BarBottomLong:        "MAIN",
		locate.BarMidDistribution:   "MAIN",
		locate.BarTopEdgeStirrup:    "LIGATURE",
		locate.BarBottomEdgeLong:    "EDGE",
		locate.BarHoleReinforcement: "ANCHORING",
		locate.BarHoistingPoint:     "USERDEFINED",
	}
	for group, want := range tests {
		if got := BarType(group); got != want {
			t.Errorf("BarType(%s) = %s, want %s", group, got, want)
		}
	}
}

func TestArcSegmentSign(t *testing.T) {
	// Upper half disc of radius 1, counter-clockwise: the arc from (1,0)
	// through (0,1) to (-1,0) bulges to the right of its chord.
	seg, err := arcSegment(geom.V2(1, 0), geom.V2(0, 1), geom.V2(-1, 0))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(seg-math.Pi/2) > 1e-12 {
		t.Errorf("segment = %g, want %g", seg, math.Pi/2)
	}
	seg, _ = arcSegment(geom.V2(1, 0), geom.V2(0, -1), geom.V2(-1, 0))
	if math.Abs(seg+math.Pi/2) > 1e-12 {
		t.Errorf("left bulge = %g, want %g", seg, -math.Pi/2)
	}
	// A three-quarter arc takes the major sweep.
	seg, _ = arcSegment(geom.V2(1, 0), geom.V2(-1, 0), geom.V2(0, -1))
	want := geom.ArcSegmentArea(1, 3*math.Pi/2)
	if math.Abs(math.Abs(seg)-want) > 1e-12 {
		t.Errorf("major arc = %g, want ±%g", seg, want)
	}
}
