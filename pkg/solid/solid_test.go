package solid

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/chazu/stairkit/pkg/geom"
	"github.com/chazu/stairkit/pkg/kernel"
	"github.com/chazu/stairkit/pkg/kernel/sdfx"
	"github.com/chazu/stairkit/pkg/stairerr"
)

// --- Recording kernel ---

type fakeSolid struct{ name string }

func (s *fakeSolid) BoundingBox() (min, max [3]float64) { return min, max }
func (s *fakeSolid) IsEmpty() bool                      { return s.name == "empty" }

// recorder logs every kernel call and can be told to fail one of them.
type recorder struct {
	calls  []string
	failOn string
	angle  float64
}

func (r *recorder) do(name string) (kernel.Solid, error) {
	r.calls = append(r.calls, name)
	if name == r.failOn {
		return nil, errors.New(name + " failed")
	}
	return &fakeSolid{name: name}, nil
}

func (r *recorder) Prism([]geom.Vec2, geom.Frame, float64) (kernel.Solid, error) {
	return r.do("prism")
}
func (r *recorder) TaperedPrism([]geom.Vec2, geom.Frame, float64, float64) (kernel.Solid, error) {
	return r.do("tapered")
}
func (r *recorder) Revolve(_ []geom.Vec2, _ geom.Frame, a float64) (kernel.Solid, error) {
	r.angle = a
	return r.do("revolve")
}
func (r *recorder) Cone(geom.Frame, float64, float64, float64) (kernel.Solid, error) {
	return r.do("cone")
}
func (r *recorder) Cylinder(geom.Frame, float64, float64) (kernel.Solid, error) {
	return r.do("cylinder")
}
func (r *recorder) Box(geom.Frame, geom.Vec3) (kernel.Solid, error) {
	return r.do("box")
}
func (r *recorder) Sphere(geom.Vec3, float64) (kernel.Solid, error) {
	return r.do("sphere")
}
func (r *recorder) Pipe([]geom.Vec3, []geom.Vec2) (kernel.Solid, error) {
	return r.do("pipe")
}
func (r *recorder) SweptDisk([]geom.Vec3, float64) (kernel.Solid, error) {
	return r.do("disk")
}
func (r *recorder) Empty() kernel.Solid {
	return &fakeSolid{name: "empty"}
}
func (r *recorder) Union(a, _ kernel.Solid) (kernel.Solid, error) {
	return r.do("union")
}
func (r *recorder) Difference(a, _ kernel.Solid) (kernel.Solid, error) {
	return r.do("difference")
}
func (r *recorder) Intersection(a, _ kernel.Solid) (kernel.Solid, error) {
	return r.do("intersection")
}
func (r *recorder) Simplify(s kernel.Solid) kernel.Solid {
	r.calls = append(r.calls, "simplify")
	return s
}
func (r *recorder) Place(s kernel.Solid, _ geom.Frame) kernel.Solid {
	return s
}
func (r *recorder) ToMesh(kernel.Solid, int) (*kernel.Mesh, error) {
	return &kernel.Mesh{}, nil
}
func (r *recorder) SetParallel(int) {}
func (r *recorder) Parallel() int {
	return 1
}

var _ kernel.Kernel = (*recorder)(nil)

var square = []geom.Vec2{geom.V2(0, 0), geom.V2(1, 0), geom.V2(1, 1), geom.V2(0, 1)}

// --- Dispatch ---

func TestBuildDispatch(t *testing.T) {
	tests := []struct {
		ref  Ref
		want string
	}{
		{Prism{Profile: square, Length: 1}, "prism"},
		{Tapered{Profile: square, Length: 1, Scale: 0.5}, "tapered"},
		{Revolve{Profile: square}, "revolve"},
		{Pipe{}, "pipe"},
		{Disk{Radius: 1}, "disk"},
		{Box{Size: geom.V3(1, 1, 1)}, "box"},
		{Cone{Bottom: 2, Top: 1, Height: 3}, "cone"},
		{Cylinder{Radius: 1, Height: 1}, "cylinder"},
		{Sphere{Radius: 1}, "sphere"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			k := &recorder{}
			if _, err := Build(k, tt.ref); err != nil {
				t.Fatal(err)
			}
			if len(k.calls) != 1 || k.calls[0] != tt.want {
				t.Errorf("calls = %v, want [%s]", k.calls, tt.want)
			}
		})
	}
}

func TestRevolveDefaultsToFullTurn(t *testing.T) {
	k := &recorder{}
	if _, err := Build(k, Revolve{Profile: square}); err != nil {
		t.Fatal(err)
	}
	if math.Abs(k.angle-2*math.Pi) > 1e-12 {
		t.Errorf("angle = %g, want 2π", k.angle)
	}
}

// --- Booleans ---

func TestBoolSimplifiesEveryStep(t *testing.T) {
	k := &recorder{}
	ref := Bool{Op: Difference, Operands: []Ref{
		Box{Size: geom.V3(1, 1, 1)},
		Sphere{Radius: 1},
		Cylinder{Radius: 1, Height: 1},
	}}
	if _, err := Build(k, ref); err != nil {
		t.Fatal(err)
	}
	want := "box sphere difference simplify cylinder difference simplify"
	if got := strings.Join(k.calls, " "); got != want {
		t.Errorf("calls = %q\nwant    %q", got, want)
	}
}

func TestEmptyUnion(t *testing.T) {
	k := &recorder{}
	s, err := Build(k, Bool{Op: Union})
	if err != nil {
		t.Fatal(err)
	}
	if !s.IsEmpty() {
		t.Error("empty union should be the empty solid")
	}
	if _, err := Build(k, Bool{Op: Difference}); !errors.Is(err, stairerr.ErrBooleanOperationFailed) {
		t.Errorf("empty difference error = %v", err)
	}
}

func TestNamedPrimitiveFailure(t *testing.T) {
	k := &recorder{failOn: "revolve"}
	ref := Bool{Op: Difference, Operands: []Ref{
		Prism{Profile: square, Length: 1},
		Named{Entity: "HoleCone[top-left]", Of: Revolve{Profile: square}},
	}}
	_, err := Build(k, ref)
	if !errors.Is(err, stairerr.ErrGeometryInfeasible) {
		t.Fatalf("error = %v, want GeometryInfeasible", err)
	}
	if got := stairerr.EntityOf(err); got != "HoleCone[top-left]" {
		t.Errorf("entity = %q", got)
	}
}

func TestBooleanFailureNamesOperand(t *testing.T) {
	k := &recorder{failOn: "difference"}
	ref := Bool{Op: Difference, Operands: []Ref{
		Prism{Profile: square, Length: 1},
		Named{Entity: "StepSlot[tread-2-1]", Of: Prism{Profile: square, Length: 1}},
	}}
	_, err := Build(k, ref)
	if !errors.Is(err, stairerr.ErrBooleanOperationFailed) {
		t.Fatalf("error = %v, want BooleanOperationFailed", err)
	}
	if !strings.HasPrefix(err.Error(), "StepSlot[tread-2-1]: BooleanOperationFailed") {
		t.Errorf("error = %q", err)
	}
}

func TestNilRef(t *testing.T) {
	if _, err := Build(&recorder{}, nil); err == nil {
		t.Error("nil ref should fail")
	}
}

func TestLeaves(t *testing.T) {
	ref := Bool{Op: Difference, Operands: []Ref{
		Bool{Op: Union, Operands: []Ref{Box{}, Box{}}},
		Named{Entity: "x", Of: Sphere{}},
		Cone{},
	}}
	if got := Leaves(ref); got != 4 {
		t.Errorf("Leaves = %d, want 4", got)
	}
}

// --- Through the sdfx kernel ---

func TestBuildWithSdfx(t *testing.T) {
	k := sdfx.New()
	ref := Bool{Op: Difference, Operands: []Ref{
		Box{Size: geom.V3(100, 100, 100)},
		Named{Entity: "hole", Of: Cylinder{Frame: At(geom.Identity.Translate(geom.V3(50, 50, -10))), Radius: 20, Height: 120}},
		Named{Entity: "far", Of: Sphere{Centre: geom.V3(500, 0, 0), Radius: 5}},
	}}
	s, err := Build(k, ref)
	if err != nil {
		t.Fatal(err)
	}
	min, max := s.BoundingBox()
	if min != [3]float64{0, 0, 0} || math.Abs(max[0]-100) > 1e-9 {
		t.Errorf("bounds = %v %v", min, max)
	}
}
