package schedule

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/chazu/stairkit/pkg/geom"
	"github.com/chazu/stairkit/pkg/locate"
	"github.com/chazu/stairkit/pkg/params"
	"github.com/chazu/stairkit/pkg/stairerr"
)

func fullFeatures(t *testing.T) *locate.Features {
	t.Helper()
	b := params.Default()
	b.Rebar.Mode = params.RebarFull
	b.Hoisting.Mode = params.ModeAuto
	if err := params.Validate(b); err != nil {
		t.Fatal(err)
	}
	f, err := locate.Locate(b)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestBarMass(t *testing.T) {
	// 1 m of 10 mm bar weighs 0.617 kg.
	if got := BarMass(10, 1000); math.Abs(got-0.61654) > 1e-4 {
		t.Errorf("BarMass(10, 1000) = %g", got)
	}
}

func TestCutLength(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{1000, 1000},
		{1000.2, 1005},
		{1004.9, 1005},
		{1000.0000000001, 1000},
	}
	for _, tt := range tests {
		if got := CutLength(tt.in); got != tt.want {
			t.Errorf("CutLength(%g) = %g, want %g", tt.in, got, tt.want)
		}
	}
}

func TestBuildShapes(t *testing.T) {
	bars := []locate.RebarSpec{
		{Group: "a", Name: "straight-1", Points: []geom.Vec3{{}, {Y: 1000}}, Diameter: 10, Grade: 1},
		{Group: "a", Name: "straight-2", Points: []geom.Vec3{{X: 100}, {X: 100, Y: 1000}}, Diameter: 10, Grade: 1},
		{Group: "a", Name: "ell", Points: []geom.Vec3{{}, {Y: 500}, {Y: 500, Z: 300}}, Diameter: 10, Grade: 1},
		{Group: "b", Name: "link", Points: []geom.Vec3{{}, {Y: 200}, {Y: 200, Z: 200}, {Z: 200}}, Closed: true, Diameter: 8, Grade: 1},
	}
	s, err := Build(&locate.Features{Name: "t", Steel: "HRB400", Rebars: bars})
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Rows) != 3 {
		t.Fatalf("got %d rows: %+v", len(s.Rows), s.Rows)
	}
	straight := s.Rows[0]
	if straight.Shape != ShapeStraight || straight.Count != 2 || straight.Length != 1000 {
		t.Errorf("straight row = %+v", straight)
	}
	if straight.Mark != "01" || s.Rows[2].Mark != "03" {
		t.Errorf("marks = %s .. %s", straight.Mark, s.Rows[2].Mark)
	}
	if ell := s.Rows[1]; ell.Shape != ShapeOneBend || ell.Bends != 1 {
		t.Errorf("ell row = %+v", ell)
	}
	// The bend shortens the developed length below the 800 mm of the legs;
	// the cut length rounds it back up to the increment.
	path, err := bars[2].Path()
	if err != nil {
		t.Fatal(err)
	}
	if path.Length() >= 800 {
		t.Errorf("developed length = %g, want below 800", path.Length())
	}
	if got, want := s.Rows[1].Length, CutLength(path.Length()); got != want {
		t.Errorf("ell cut length = %g, want %g", got, want)
	}
	if link := s.Rows[2]; link.Shape != ShapeLink || link.Group != "b" || link.Bends != 4 {
		t.Errorf("link row = %+v", link)
	}
	if got, want := s.BarCount(), 4; got != want {
		t.Errorf("BarCount = %d, want %d", got, want)
	}
	want := 2*BarMass(10, 1000) + s.Rows[1].Mass + s.Rows[2].Mass
	if got := s.TotalMass(); math.Abs(got-want) > 1e-12 {
		t.Errorf("TotalMass = %g, want %g", got, want)
	}
	byD := s.MassByDiameter()
	if len(byD) != 2 || byD[0].Diameter != 8 || byD[1].Diameter != 10 {
		t.Errorf("MassByDiameter = %+v", byD)
	}
}

func TestBuildBendFailure(t *testing.T) {
	bars := []locate.RebarSpec{
		{Group: "a", Name: "tight", Points: []geom.Vec3{{}, {Y: 5}, {Y: 5, Z: 5}}, Diameter: 20, Grade: 3},
	}
	_, err := Build(&locate.Features{Rebars: bars})
	if stairerr.KindOf(err) != stairerr.KindRebarBendInfeasible {
		t.Fatalf("err = %v", err)
	}
	if got := stairerr.EntityOf(err); !strings.HasPrefix(got, "Rebar[tight]") {
		t.Errorf("entity = %q", got)
	}
}

func TestBuildFromLocator(t *testing.T) {
	f := fullFeatures(t)
	s, err := Build(f)
	if err != nil {
		t.Fatal(err)
	}
	if s.BarCount() != len(f.Rebars) {
		t.Errorf("scheduled %d bars of %d", s.BarCount(), len(f.Rebars))
	}
	seen := map[string]bool{}
	for _, r := range s.Rows {
		for _, name := range r.Bars {
			if seen[name] {
				t.Errorf("%s scheduled twice", name)
			}
			seen[name] = true
		}
		if r.Grade != "HRB400" || r.Mass <= 0 {
			t.Errorf("row %s = %+v", r.Mark, r)
		}
	}
	groups := f.RebarGroups()
	if s.Rows[0].Group != groups[0] || s.Rows[len(s.Rows)-1].Group != groups[len(groups)-1] {
		t.Error("rows do not follow the locator group order")
	}
}

func TestWriteXLSX(t *testing.T) {
	f := fullFeatures(t)
	s, err := Build(f)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := s.WriteXLSX(&buf); err != nil {
		t.Fatal(err)
	}
	book, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer book.Close()
	rows, err := book.GetRows(SheetName)
	if err != nil {
		t.Fatal(err)
	}
	if rows[0][1] != f.Name || rows[3][0] != "Mark" {
		t.Fatalf("heading rows = %v", rows[:4])
	}
	first := rows[4]
	if first[0] != "01" || first[1] != s.Rows[0].Group {
		t.Errorf("first bar row = %v", first)
	}
	total := rows[4+len(s.Rows)]
	if total[0] != "Total" || total[6] != strconv.Itoa(s.BarCount()) {
		t.Errorf("total row = %v", total)
	}
}

func TestWritePDF(t *testing.T) {
	s, err := Build(fullFeatures(t))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	opts := PDFOptions{Author: "A. Designer", Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}
	if err := s.WritePDF(&buf, opts); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Errorf("output starts %q", buf.Bytes()[:8])
	}
}
