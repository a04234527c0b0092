// Package geom provides the small set of value types every stage of the
// stair pipeline shares: 2-D and 3-D vectors, unit directions, local frames,
// placement matrices, rotations, and the line/plane/polygon helpers the
// feature locator is built from. All types are plain values.
package geom

import (
	"fmt"
	"math"
)

// Eps is the tolerance used for unit-length and orthogonality checks.
const Eps = 1e-6

// Vec3 is a point or vector in the stair-local frame (mm).
type Vec3 struct {
	X, Y, Z float64
}

// V3 is shorthand for Vec3{x, y, z}.
func V3(x, y, z float64) Vec3 { return Vec3{X: x, Y: y, Z: z} }

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(f float64) Vec3 { return Vec3{v.X * f, v.Y * f, v.Z * f} }
func (v Vec3) Neg() Vec3 { return Vec3{-v.X, -v.Y, -v.Z} }
func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec3) Norm() float64 { return math.Sqrt(v.Dot(v)) }
func (v Vec3) Dist(o Vec3) float64 { return v.Sub(o).Norm() }
func (v Vec3) IsZero() bool { return v.Norm() < Eps }
func (v Vec3) Array() [3]float64 { return [3]float64{v.X, v.Y, v.Z} }
func (v Vec3) String() string { return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z) }
func (v Vec3) Lerp(o Vec3, t float64) Vec3 { return v.Add(o.Sub(v).Scale(t)) }

// Cross returns v × o.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

// Unit returns v scaled to length 1. The zero vector is returned unchanged.
func (v Vec3) Unit() Vec3 {
	n := v.Norm()
	if n == 0 {
		return v
	}
	return v.Scale(1 / n)
}

// Near reports whether v and o agree within tol on every component.
func (v Vec3) Near(o Vec3, tol float64) bool {
	return math.Abs(v.X-o.X) <= tol && math.Abs(v.Y-o.Y) <= tol && math.Abs(v.Z-o.Z) <= tol
}

// Vec2 is a point in a 2-D profile plane. Side profiles of the stair use
// X for world Y and Y for world Z.
type Vec2 struct {
	X, Y float64
}

// V2 is shorthand for Vec2{x, y}.
func V2(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(f float64) Vec2 { return Vec2{v.X * f, v.Y * f} }
func (v Vec2) Dot(o Vec2) float64 { return v.X*o.X + v.Y*o.Y }
func (v Vec2) Cross(o Vec2) float64 { return v.X*o.Y - v.Y*o.X }
func (v Vec2) Norm() float64 { return math.Hypot(v.X, v.Y) }
func (v Vec2) Dist(o Vec2) float64 { return v.Sub(o).Norm() }
func (v Vec2) Perp() Vec2 { return Vec2{-v.Y, v.X} }
func (v Vec2) String() string { return fmt.Sprintf("(%g, %g)", v.X, v.Y) }

// Unit returns v scaled to length 1. The zero vector is returned unchanged.
func (v Vec2) Unit() Vec2 {
	n := v.Norm()
	if n == 0 {
		return v
	}
	return v.Scale(1 / n)
}

// Near reports whether v and o agree within tol on both components.
func (v Vec2) Near(o Vec2, tol float64) bool {
	return math.Abs(v.X-o.X) <= tol && math.Abs(v.Y-o.Y) <= tol
}

// YZ lifts a side-profile point into the plane x = x0.
func (v Vec2) YZ(x0 float64) Vec3 { return Vec3{X: x0, Y: v.X, Z: v.Y} }

// Dir is a unit direction vector.
type Dir struct {
	v Vec3
}

// Axis directions.
var (
	DirX = Dir{Vec3{1, 0, 0}}
	DirY = Dir{Vec3{0, 1, 0}}
	DirZ = Dir{Vec3{0, 0, 1}}
)

// NewDir normalizes v. The zero vector is rejected.
func NewDir(v Vec3) (Dir, error) {
	n := v.Norm()
	if n < Eps {
		return Dir{}, fmt.Errorf("geom: zero-length direction %v", v)
	}
	return Dir{v.Scale(1 / n)}, nil
}

// MustDir is NewDir for constants known to be non-zero.
func MustDir(v Vec3) Dir {
	d, err := NewDir(v)
	if err != nil {
		panic(err)
	}
	return d
}

// Vec returns the direction as a vector.
func (d Dir) Vec() Vec3 { return d.v }

// Neg returns the opposite direction.
func (d Dir) Neg() Dir { return Dir{d.v.Neg()} }

func (d Dir) String() string { return d.v.String() }
