package rebar

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/chazu/stairkit/pkg/geom"
	"github.com/chazu/stairkit/pkg/stairerr"
)

func TestMandrelFactor(t *testing.T) {
	tests := []struct {
		grade int
		want  float64
	}{{1, 1.25}, {2, 2.0}, {3, 2.5}}
	for _, tt := range tests {
		got, err := MandrelFactor(tt.grade)
		if err != nil || got != tt.want {
			t.Errorf("MandrelFactor(%d) = %g, %v", tt.grade, got, err)
		}
	}
	if _, err := MandrelFactor(4); err == nil {
		t.Error("grade 4 should fail")
	}
}

// checkPath asserts the shape invariants every built path must satisfy.
func checkPath(t *testing.T, p Path) {
	t.Helper()
	for i, s := range p.Segments {
		switch s.Kind {
		case Line:
			if l := s.Start().Dist(s.End()); l < p.Radius-1e-9 {
				t.Errorf("segment %d: line length %g below bar radius %g", i, l, p.Radius)
			}
		case Arc:
			_, r, sweep, err := geom.ArcThrough3(s.Points[0], s.Points[1], s.Points[2])
			if err != nil {
				t.Fatalf("segment %d: %v", i, err)
			}
			if math.Abs(r-p.BendRadius) > 1e-9 {
				t.Errorf("segment %d: arc radius %g, want %g", i, r, p.BendRadius)
			}
			if math.Abs(sweep-s.Sweep) > 1e-9 {
				t.Errorf("segment %d: sweep %g, stored %g", i, sweep, s.Sweep)
			}
		}
		if i > 0 && !s.Start().Near(p.Segments[i-1].End(), 1e-12) {
			t.Errorf("segment %d does not continue the previous one", i)
		}
	}
}

func TestBuildLShape(t *testing.T) {
	poly := []geom.Vec3{{0, 0, 0}, {0, 500, 0}, {0, 500, 200}}
	p, err := Build(poly, 6, 3, false)
	if err != nil {
		t.Fatal(err)
	}
	checkPath(t, p)
	if len(p.Segments) != 3 || p.Segments[1].Kind != Arc {
		t.Fatalf("segments = %+v", p.Segments)
	}
	R := 2.5 * 6
	arc := p.Segments[1]
	// A right angle: tangent offset equals R.
	if !arc.Start().Near(geom.V3(0, 500-R, 0), 1e-9) || !arc.End().Near(geom.V3(0, 500, R), 1e-9) {
		t.Errorf("tangent points %v %v", arc.Start(), arc.End())
	}
	want := (500 - R) + (200 - R) + R*math.Pi/2
	if math.Abs(p.Length()-want) > 1e-9 {
		t.Errorf("length = %g, want %g", p.Length(), want)
	}
}

func TestBuildClosedRectangle(t *testing.T) {
	poly := []geom.Vec3{{0, 0, 0}, {0, 300, 0}, {0, 300, 150}, {0, 0, 150}}
	p, err := Build(poly, 4, 1, true)
	if err != nil {
		t.Fatal(err)
	}
	checkPath(t, p)
	if got := len(p.TangentPoints()); got != 8 {
		t.Errorf("closed rectangle has %d tangent points, want 8", got)
	}
	if p.ArcCount() != 4 {
		t.Errorf("arcs = %d", p.ArcCount())
	}
	if !p.Segments[len(p.Segments)-1].End().Near(p.Segments[0].Start(), 1e-12) {
		t.Error("closed path does not return to its first arc start")
	}

	pts, segs := p.Indexed()
	if len(pts) != 12 {
		t.Errorf("indexed points = %d, want 12 (4 arcs × 3)", len(pts))
	}
	last := segs[len(segs)-1]
	if last.Indices[len(last.Indices)-1] != 1 {
		t.Errorf("closing segment ends at %d, want 1", last.Indices[len(last.Indices)-1])
	}
	for _, s := range segs {
		want := 2
		if s.Kind == Arc {
			want = 3
		}
		if len(s.Indices) != want {
			t.Errorf("%v segment has %d indices", s.Kind, len(s.Indices))
		}
	}
}

func TestCollinearVertexGetsNoArc(t *testing.T) {
	poly := []geom.Vec3{{0, 0, 0}, {100, 0, 0}, {200, 0, 0}, {200, 100, 0}}
	p, err := Build(poly, 5, 2, false)
	if err != nil {
		t.Fatal(err)
	}
	if p.ArcCount() != 1 {
		t.Errorf("arcs = %d, want 1", p.ArcCount())
	}
	checkPath(t, p)
}

func TestBendInfeasible(t *testing.T) {
	tests := []struct {
		name   string
		poly   []geom.Vec3
		vertex string
	}{
		{"hairpin", []geom.Vec3{{0, 0, 0}, {100, 0, 0}, {0, 0.5, 0}}, "vertex 1"},
		{"short run", []geom.Vec3{{0, -100, 0}, {0, 20, 0}, {0, 20, 20}, {0, 140, 20}}, "vertex 2"},
		{"duplicate point", []geom.Vec3{{0, 0, 0}, {0, 0, 0}, {1, 0, 0}}, "vertex 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.poly, 6, 3, false)
			if !errors.Is(err, stairerr.ErrRebarBendInfeasible) {
				t.Fatalf("err = %v, want RebarBendInfeasible", err)
			}
			if !strings.Contains(err.Error(), tt.vertex) {
				t.Errorf("error %q does not name %s", err, tt.vertex)
			}
		})
	}
}

func TestAllYieldsEachPointOnce(t *testing.T) {
	poly := []geom.Vec3{{0, 0, 0}, {0, 400, 0}, {0, 400, 300}, {0, 800, 300}}
	p, err := Build(poly, 5, 3, false)
	if err != nil {
		t.Fatal(err)
	}
	var kinds []SegmentKind
	var pts []geom.Vec3
	for pt, k := range p.All() {
		pts = append(pts, pt)
		kinds = append(kinds, k)
	}
	// L arc L arc L: 2 + 2 + 1 + 2 + 1 points.
	if len(pts) != 8 {
		t.Fatalf("points = %d", len(pts))
	}
	if !pts[0].Near(poly[0], 0) || !pts[len(pts)-1].Near(poly[3], 0) {
		t.Error("sequence must run from the first to the last control point")
	}
	if kinds[2] != Arc || kinds[1] != Line {
		t.Errorf("kinds = %v", kinds)
	}
	ipts, _ := p.Indexed()
	if len(ipts) != len(pts) {
		t.Errorf("indexed %d points, sequence %d", len(ipts), len(pts))
	}

	// Stopping early must not panic.
	for range p.All() {
		break
	}
}

func TestPolylineStaysOnArc(t *testing.T) {
	p, err := Build([]geom.Vec3{{0, 0, 0}, {0, 100, 0}, {0, 100, 100}}, 5, 3, false)
	if err != nil {
		t.Fatal(err)
	}
	arc := p.Segments[1]
	c, r, _, _ := geom.ArcThrough3(arc.Points[0], arc.Points[1], arc.Points[2])
	pl := p.Polyline(8)
	if len(pl) != 1+1+8+1 {
		t.Fatalf("polyline has %d points", len(pl))
	}
	for _, q := range pl[2:10] {
		if math.Abs(q.Dist(c)-r) > 1e-9 {
			t.Errorf("sample %v off the arc", q)
		}
	}
}

func TestDistribute(t *testing.T) {
	got := Distribute(1200, 40, 150)
	if len(got) != 9 {
		t.Fatalf("count = %d, want ceil(1120/150)+1 = 9", len(got))
	}
	if got[0] != 40 || got[8] != 1160 {
		t.Errorf("ends = %g, %g", got[0], got[8])
	}
	step := got[1] - got[0]
	if math.Abs(step-140) > 1e-9 {
		t.Errorf("spacing = %g, want 140", step)
	}
	if one := Distribute(50, 40, 150); len(one) != 1 || one[0] != 25 {
		t.Errorf("degenerate = %v", one)
	}
	if n := Count(1000, 50, 300); n != 4 {
		t.Errorf("exact multiple count = %d, want 4", n)
	}
}

func TestDropCollinear(t *testing.T) {
	poly := []geom.Vec3{{0, 0, 0}, {0, 0, 100}, {0, 0, 250}, {0, 120, 250}}
	got := DropCollinear(poly)
	if len(got) != 3 {
		t.Fatalf("got %v", got)
	}
	if got[1] != poly[2] {
		t.Errorf("corner = %v", got[1])
	}
}

func TestFromSegments(t *testing.T) {
	segs := []Segment{
		{Kind: Line, Points: []geom.Vec3{{0, 0, 0}, {0, 0, -100}}},
		{Kind: Line, Points: []geom.Vec3{{0, 0, -90}, {0, 10, -90}}},
	}
	if _, err := FromSegments(segs, 5, 10, false); err == nil {
		t.Error("expected discontinuity error")
	}
}
