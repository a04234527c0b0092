package sdfx

import (
	"errors"
	"math"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/stairkit/pkg/geom"
	"github.com/chazu/stairkit/pkg/kernel"
)

func checkBounds(t *testing.T, s kernel.Solid, wantMin, wantMax [3]float64, tol float64) {
	t.Helper()
	min, max := s.BoundingBox()
	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-wantMin[i]) > tol {
			t.Errorf("min[%d] = %f, expected %f", i, min[i], wantMin[i])
		}
		if math.Abs(max[i]-wantMax[i]) > tol {
			t.Errorf("max[%d] = %f, expected %f", i, max[i], wantMax[i])
		}
	}
}

func eval(t *testing.T, s kernel.Solid, p geom.Vec3) float64 {
	t.Helper()
	x, err := unwrap(s)
	if err != nil {
		t.Fatal(err)
	}
	return x.s.Evaluate(v3.Vec{X: p.X, Y: p.Y, Z: p.Z})
}

func square(x0, y0, x1, y1 float64) []geom.Vec2 {
	return []geom.Vec2{geom.V2(x0, y0), geom.V2(x1, y0), geom.V2(x1, y1), geom.V2(x0, y1)}
}

// --- Primitives ---

func TestBoxBoundingBox(t *testing.T) {
	k := New()
	box, err := k.Box(geom.Identity.Translate(geom.V3(1, 2, 3)), geom.V3(10, 20, 30))
	if err != nil {
		t.Fatal(err)
	}
	checkBounds(t, box, [3]float64{1, 2, 3}, [3]float64{11, 22, 33}, 1e-6)
}

func TestPrismInFrame(t *testing.T) {
	k := New()
	// Local x runs along world Y, local y along world Z, extrusion along X.
	f := geom.MustFrame(geom.V3(0, 0, 0), geom.V3(1, 0, 0), geom.V3(0, 1, 0))
	p, err := k.Prism(square(0, 0, 10, 5), f, 100)
	if err != nil {
		t.Fatal(err)
	}
	checkBounds(t, p, [3]float64{0, 0, 0}, [3]float64{100, 10, 5}, 1e-6)
	if d := eval(t, p, geom.V3(50, 5, 2.5)); d >= 0 {
		t.Errorf("prism centre distance = %g, want inside", d)
	}
}

func TestPrismRejectsDegenerateInput(t *testing.T) {
	k := New()
	if _, err := k.Prism(square(0, 0, 1, 1), geom.Identity, 0); err == nil {
		t.Error("zero length prism should fail")
	}
	if _, err := k.Prism([]geom.Vec2{geom.V2(0, 0), geom.V2(1, 0)}, geom.Identity, 1); err == nil {
		t.Error("two-vertex profile should fail")
	}
}

func TestTaperedPrism(t *testing.T) {
	k := New()
	p, err := k.TaperedPrism(square(-10, -10, 10, 10), geom.Identity, 40, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	checkBounds(t, p, [3]float64{-10, -10, 0}, [3]float64{10, 10, 40}, 1e-6)
	// Near the top the section has shrunk to half.
	if d := eval(t, p, geom.V3(8, 0, 39)); d <= 0 {
		t.Errorf("point outside the tapered top reads inside (%g)", d)
	}
	if d := eval(t, p, geom.V3(8, 0, 1)); d >= 0 {
		t.Errorf("point inside the base reads outside (%g)", d)
	}
	if _, err := k.TaperedPrism(square(0, 0, 1, 1), geom.Identity, 10, 0); err == nil {
		t.Error("zero scale should fail")
	}
}

func TestConeStandsOnPlane(t *testing.T) {
	k := New()
	c, err := k.Cone(geom.Identity, 10, 5, 20)
	if err != nil {
		t.Fatal(err)
	}
	checkBounds(t, c, [3]float64{-10, -10, 0}, [3]float64{10, 10, 20}, 1e-6)
	if d := eval(t, c, geom.V3(7, 0, 19)); d <= 0 {
		t.Errorf("cone top is narrower than 7 but reads inside (%g)", d)
	}
}

func TestCylinderStandsOnPlane(t *testing.T) {
	k := New()
	c, err := k.Cylinder(geom.Identity.Translate(geom.V3(0, 0, 5)), 3, 10)
	if err != nil {
		t.Fatal(err)
	}
	checkBounds(t, c, [3]float64{-3, -3, 5}, [3]float64{3, 3, 15}, 1e-6)
}

func TestRevolve(t *testing.T) {
	k := New()
	ring, err := k.Revolve(square(5, 0, 10, 4), geom.Identity, 2*math.Pi)
	if err != nil {
		t.Fatal(err)
	}
	checkBounds(t, ring, [3]float64{-10, -10, 0}, [3]float64{10, 10, 4}, 1e-6)
	if d := eval(t, ring, geom.V3(0, 0, 2)); d <= 0 {
		t.Errorf("axis of a ring reads inside (%g)", d)
	}
	if d := eval(t, ring, geom.V3(0, -7.5, 2)); d >= 0 {
		t.Errorf("ring wall reads outside (%g)", d)
	}
}

func TestSphere(t *testing.T) {
	k := New()
	s, err := k.Sphere(geom.V3(1, 1, 1), 2)
	if err != nil {
		t.Fatal(err)
	}
	checkBounds(t, s, [3]float64{-1, -1, -1}, [3]float64{3, 3, 3}, 1e-6)
}

// --- Sweeps ---

func TestSweptDisk(t *testing.T) {
	k := New()
	spine := []geom.Vec3{geom.V3(0, 0, 0), geom.V3(100, 0, 0), geom.V3(100, 50, 0)}
	bar, err := k.SweptDisk(spine, 6)
	if err != nil {
		t.Fatal(err)
	}
	checkBounds(t, bar, [3]float64{-6, -6, -6}, [3]float64{106, 56, 6}, 1e-9)
	if d := eval(t, bar, geom.V3(50, 0, 0)); math.Abs(d+6) > 1e-9 {
		t.Errorf("distance on the centreline = %g, want -6", d)
	}
	if d := eval(t, bar, geom.V3(100, 25, 10)); math.Abs(d-4) > 1e-9 {
		t.Errorf("distance beside the second leg = %g, want 4", d)
	}
	if _, err := k.SweptDisk(spine[:1], 6); err == nil {
		t.Error("single point spine should fail")
	}
}

func TestPipeClosesCorner(t *testing.T) {
	k := New()
	spine := []geom.Vec3{geom.V3(0, 0, 0), geom.V3(10, 0, 0), geom.V3(10, 0, 0), geom.V3(10, 10, 0)}
	p, err := k.Pipe(spine, square(-1, -1, 1, 1))
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name   string
		at     geom.Vec3
		inside bool
	}{
		{"first leg", geom.V3(5, 0, 0), true},
		{"second leg", geom.V3(10, 5, 0), true},
		{"outer corner", geom.V3(10.9, -0.9, 0), true},
		{"inside the bend", geom.V3(5, 5, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if d := eval(t, p, tt.at); (d < 0) != tt.inside {
				t.Errorf("distance at %v = %g, inside want %v", tt.at, d, tt.inside)
			}
		})
	}
	if _, err := k.Pipe([]geom.Vec3{geom.V3(1, 1, 1), geom.V3(1, 1, 1)}, square(-1, -1, 1, 1)); err == nil {
		t.Error("zero-length spine should fail")
	}
}

// --- Booleans ---

func TestUnionWithEmpty(t *testing.T) {
	k := New()
	a, _ := k.Box(geom.Identity, geom.V3(1, 1, 1))
	u, err := k.Union(k.Empty(), a)
	if err != nil {
		t.Fatal(err)
	}
	if u != a {
		t.Error("union with empty should return the other operand")
	}
	if !k.Empty().IsEmpty() || a.IsEmpty() {
		t.Error("IsEmpty mismatch")
	}
}

func TestDifferenceDisjointIsNoop(t *testing.T) {
	k := New()
	a, _ := k.Box(geom.Identity, geom.V3(10, 10, 10))
	b, _ := k.Box(geom.Identity.Translate(geom.V3(50, 0, 0)), geom.V3(10, 10, 10))
	d, err := k.Difference(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if d != a {
		t.Error("disjoint difference should return the minuend")
	}
}

func TestDifferenceCuts(t *testing.T) {
	k := New()
	a, _ := k.Box(geom.Identity, geom.V3(100, 100, 100))
	hole, _ := k.Cylinder(geom.Identity.Translate(geom.V3(50, 50, -10)), 20, 120)
	d, err := k.Difference(a, hole)
	if err != nil {
		t.Fatal(err)
	}
	if v := eval(t, d, geom.V3(50, 50, 50)); v <= 0 {
		t.Errorf("hole centre reads inside (%g)", v)
	}
	if v := eval(t, d, geom.V3(5, 5, 50)); v >= 0 {
		t.Errorf("box corner reads outside (%g)", v)
	}
}

func TestIntersectionDisjointIsEmpty(t *testing.T) {
	k := New()
	a, _ := k.Box(geom.Identity, geom.V3(10, 10, 10))
	b, _ := k.Box(geom.Identity.Translate(geom.V3(0, 0, 50)), geom.V3(10, 10, 10))
	i, err := k.Intersection(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if !i.IsEmpty() {
		t.Error("disjoint intersection should be empty")
	}
}

func TestSimplifyKeepsShape(t *testing.T) {
	k := New()
	s := k.Empty()
	for i := 0; i < 3; i++ {
		b, _ := k.Box(geom.Identity.Translate(geom.V3(float64(20*i), 0, 0)), geom.V3(10, 10, 10))
		var err error
		if s, err = k.Union(s, b); err != nil {
			t.Fatal(err)
		}
	}
	x, _ := unwrap(s)
	if len(x.parts) != 3 {
		t.Fatalf("union kept %d operands, want 3", len(x.parts))
	}
	flat := k.Simplify(s)
	checkBounds(t, flat, [3]float64{0, 0, 0}, [3]float64{50, 10, 10}, 1e-6)
	if d := eval(t, flat, geom.V3(15, 5, 5)); d <= 0 {
		t.Errorf("gap between boxes reads inside (%g)", d)
	}

	base, _ := k.Box(geom.Identity, geom.V3(100, 10, 10))
	for i := 0; i < 2; i++ {
		c, _ := k.Box(geom.Identity.Translate(geom.V3(float64(10+40*i), -1, -1)), geom.V3(10, 12, 12))
		if base, _ = k.Difference(base, c); base == nil {
			t.Fatal("nil difference")
		}
	}
	flat = k.Simplify(base)
	if d := eval(t, flat, geom.V3(55, 5, 5)); d <= 0 {
		t.Errorf("second cut reads inside after Simplify (%g)", d)
	}
}

func TestForeignSolidRejected(t *testing.T) {
	k := New()
	a, _ := k.Box(geom.Identity, geom.V3(1, 1, 1))
	if _, err := k.Union(a, foreign{}); !errors.Is(err, errForeignSolid) {
		t.Errorf("Union(foreign) error = %v", err)
	}
	if _, err := k.ToMesh(foreign{}, 8); !errors.Is(err, errForeignSolid) {
		t.Errorf("ToMesh(foreign) error = %v", err)
	}
}

type foreign struct{}

func (foreign) BoundingBox() (min, max [3]float64) { return min, max }
func (foreign) IsEmpty() bool                      { return false }

// --- Placement and meshing ---

func TestPlace(t *testing.T) {
	k := New()
	box, _ := k.Box(geom.Identity, geom.V3(10, 20, 30))
	f := geom.AxisAngle(geom.DirZ, math.Pi/2).FrameAt(geom.V3(100, 0, 0))
	placed := k.Place(box, f)
	checkBounds(t, placed, [3]float64{80, 0, 0}, [3]float64{100, 10, 30}, 1e-6)
}

func TestToMeshBox(t *testing.T) {
	k := New()
	box, _ := k.Box(geom.Identity, geom.V3(10, 10, 10))
	mesh, err := k.ToMesh(box, 32)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	if len(mesh.Vertices) != len(mesh.Normals) {
		t.Fatalf("vertices length %d != normals length %d", len(mesh.Vertices), len(mesh.Normals))
	}
	if len(mesh.Indices) != mesh.TriangleCount()*3 {
		t.Fatalf("indices length %d != triCount*3", len(mesh.Indices))
	}
	if v := math.Abs(mesh.Volume()); math.Abs(v-1000) > 100 {
		t.Errorf("mesh volume = %g, want about 1000", v)
	}
}

// A 10 mm bar several metres long is thinner than a marching cubes cell at
// any usable resolution; it must still mesh as a closed tube.
func TestToMeshLongThinBar(t *testing.T) {
	k := New()
	spine := []geom.Vec3{geom.V3(0, 0, 0), geom.V3(0, 3000, 1800), geom.V3(0, 3400, 1800)}
	bar, err := k.SweptDisk(spine, 5)
	if err != nil {
		t.Fatal(err)
	}
	length := spine[0].Dist(spine[1]) + spine[1].Dist(spine[2])
	section := TubeSides / 2 * 25 * math.Sin(2*math.Pi/TubeSides)

	for _, cells := range []int{0, 24} {
		mesh, err := k.ToMesh(bar, cells)
		if err != nil {
			t.Fatal(err)
		}
		if mesh.IsEmpty() {
			t.Fatalf("cells %d: bar meshed to nothing", cells)
		}
		if got, want := mesh.Volume(), section*length; math.Abs(got-want) > 1e-3*want {
			t.Errorf("cells %d: volume = %g, want %g", cells, got, want)
		}
		lo, hi := mesh.Bounds()
		if math.Abs(lo[0]+5) > 1e-3 || math.Abs(hi[0]-5) > 1e-3 || hi[1] < 3399.9 {
			t.Errorf("cells %d: bounds %v..%v", cells, lo, hi)
		}
	}
}

func TestToMeshPlacedBars(t *testing.T) {
	k := New()
	a, _ := k.SweptDisk([]geom.Vec3{geom.V3(0, 0, 0), geom.V3(100, 0, 0)}, 4)
	b, _ := k.SweptDisk([]geom.Vec3{geom.V3(0, 50, 0), geom.V3(100, 50, 0)}, 4)
	u, err := k.Union(a, b)
	if err != nil {
		t.Fatal(err)
	}
	placed := k.Place(u, geom.Identity.Translate(geom.V3(0, 0, 1000)))
	mesh, err := k.ToMesh(placed, 8)
	if err != nil {
		t.Fatal(err)
	}
	if mesh.TriangleCount() != 2*4*TubeSides {
		t.Errorf("triangles = %d, want %d", mesh.TriangleCount(), 2*4*TubeSides)
	}
	lo, hi := mesh.Bounds()
	if math.Abs(lo[2]-996) > 1e-3 || math.Abs(hi[2]-1004) > 1e-3 {
		t.Errorf("z range %g..%g, want 996..1004", lo[2], hi[2])
	}

	// A bar cut by anything else is no longer a plain bar.
	box, _ := k.Box(geom.Identity, geom.V3(10, 10, 10))
	cut, _ := k.Difference(a, box)
	if x, _ := unwrap(cut); len(x.tubes) != 0 {
		t.Error("difference kept the bar centreline")
	}
}

func TestToMeshEmpty(t *testing.T) {
	k := New()
	mesh, err := k.ToMesh(k.Empty(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if !mesh.IsEmpty() {
		t.Error("empty solid should mesh to nothing")
	}
}

func TestSetParallel(t *testing.T) {
	k := New()
	if k.Parallel() != 1 {
		t.Errorf("default Parallel() = %d", k.Parallel())
	}
	k.SetParallel(4)
	if k.Parallel() != 4 {
		t.Errorf("Parallel() = %d, want 4", k.Parallel())
	}
	k.SetParallel(-2)
	if k.Parallel() != 1 {
		t.Errorf("Parallel() = %d after negative, want 1", k.Parallel())
	}
}
