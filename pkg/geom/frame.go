package geom

import (
	"fmt"
	"math"
)

// Frame is a right-handed local coordinate system: an origin, a z-axis and an
// x-axis. The y-axis is derived as z × x.
type Frame struct {
	Origin Vec3
	Z      Dir
	X      Dir
}

// Identity is the stair-local frame itself.
var Identity = Frame{Origin: Vec3{}, Z: DirZ, X: DirX}

// NewFrame builds a frame after normalizing both axes. It fails when either
// axis is zero or when they are not perpendicular within Eps.
func NewFrame(origin, z, x Vec3) (Frame, error) {
	zd, err := NewDir(z)
	if err != nil {
		return Frame{}, fmt.Errorf("frame z-axis: %w", err)
	}
	xd, err := NewDir(x)
	if err != nil {
		return Frame{}, fmt.Errorf("frame x-axis: %w", err)
	}
	if d := math.Abs(zd.v.Dot(xd.v)); d > Eps {
		return Frame{}, fmt.Errorf("geom: frame axes not orthogonal (z·x = %g)", d)
	}
	return Frame{Origin: origin, Z: zd, X: xd}, nil
}

// MustFrame is NewFrame for axes known to be valid.
func MustFrame(origin, z, x Vec3) Frame {
	f, err := NewFrame(origin, z, x)
	if err != nil {
		panic(err)
	}
	return f
}

// FrameFromZ builds a frame from an origin and z-axis, picking an x-axis
// perpendicular to z. The choice is deterministic: world X projected onto
// the plane normal to z, or world Y when z is parallel to X.
func FrameFromZ(origin, z Vec3) (Frame, error) {
	zd, err := NewDir(z)
	if err != nil {
		return Frame{}, err
	}
	ref := Vec3{1, 0, 0}
	if math.Abs(zd.v.Dot(ref)) > 1-1e-9 {
		ref = Vec3{0, 1, 0}
	}
	x := ref.Sub(zd.v.Scale(ref.Dot(zd.v)))
	return NewFrame(origin, zd.v, x)
}

// Y returns the derived y-axis z × x.
func (f Frame) Y() Dir { return Dir{f.Z.v.Cross(f.X.v)} }

// IsOrthonormal reports whether the axes are unit length and perpendicular.
func (f Frame) IsOrthonormal() bool {
	x, y, z := f.X.v, f.Y().v, f.Z.v
	return math.Abs(x.Norm()-1) < Eps && math.Abs(y.Norm()-1) < Eps && math.Abs(z.Norm()-1) < Eps &&
		math.Abs(x.Dot(y)) < Eps && math.Abs(y.Dot(z)) < Eps && math.Abs(z.Dot(x)) < Eps
}

// IsRightHanded reports whether x × y = z.
func (f Frame) IsRightHanded() bool {
	return f.X.v.Cross(f.Y().v).Near(f.Z.v, Eps)
}

// ToWorld maps a point given in frame coordinates to the parent frame.
func (f Frame) ToWorld(p Vec3) Vec3 {
	return f.Origin.
		Add(f.X.v.Scale(p.X)).
		Add(f.Y().v.Scale(p.Y)).
		Add(f.Z.v.Scale(p.Z))
}

// DirToWorld maps a direction given in frame coordinates to the parent frame.
func (f Frame) DirToWorld(v Vec3) Vec3 {
	return f.X.v.Scale(v.X).Add(f.Y().v.Scale(v.Y)).Add(f.Z.v.Scale(v.Z))
}

// ToLocal maps a parent-frame point into frame coordinates.
func (f Frame) ToLocal(p Vec3) Vec3 {
	d := p.Sub(f.Origin)
	return Vec3{d.Dot(f.X.v), d.Dot(f.Y().v), d.Dot(f.Z.v)}
}

// Compose returns the frame of child expressed in f's parent, where child is
// given relative to f. Placements compose down the assembly tree this way.
func (f Frame) Compose(child Frame) Frame {
	return Frame{
		Origin: f.ToWorld(child.Origin),
		Z:      Dir{f.DirToWorld(child.Z.v)},
		X:      Dir{f.DirToWorld(child.X.v)},
	}
}

// Translate returns f moved by d.
func (f Frame) Translate(d Vec3) Frame {
	f.Origin = f.Origin.Add(d)
	return f
}

// Matrix returns the 4x4 placement matrix of the frame.
func (f Frame) Matrix() Mat4 {
	x, y, z, o := f.X.v, f.Y().v, f.Z.v, f.Origin
	return Mat4{
		x.X, y.X, z.X, o.X,
		x.Y, y.Y, z.Y, o.Y,
		x.Z, y.Z, z.Z, o.Z,
		0, 0, 0, 1,
	}
}

func (f Frame) String() string {
	return fmt.Sprintf("Frame{o=%v z=%v x=%v}", f.Origin, f.Z, f.X)
}

// Mat4 is a row-major affine transform.
type Mat4 [16]float64

// Identity4 returns the identity transform.
func Identity4() Mat4 {
	return Mat4{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
}

// Mul returns m·o (o is applied first).
func (m Mat4) Mul(o Mat4) Mat4 {
	var r Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var s float64
			for k := 0; k < 4; k++ {
				s += m[i*4+k] * o[k*4+j]
			}
			r[i*4+j] = s
		}
	}
	return r
}

// Apply transforms a point.
func (m Mat4) Apply(p Vec3) Vec3 {
	return Vec3{
		m[0]*p.X + m[1]*p.Y + m[2]*p.Z + m[3],
		m[4]*p.X + m[5]*p.Y + m[6]*p.Z + m[7],
		m[8]*p.X + m[9]*p.Y + m[10]*p.Z + m[11],
	}
}

// ApplyDir transforms a direction (ignores translation).
func (m Mat4) ApplyDir(v Vec3) Vec3 {
	return Vec3{
		m[0]*v.X + m[1]*v.Y + m[2]*v.Z,
		m[4]*v.X + m[5]*v.Y + m[6]*v.Z,
		m[8]*v.X + m[9]*v.Y + m[10]*v.Z,
	}
}
