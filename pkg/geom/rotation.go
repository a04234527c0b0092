package geom

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Rotation is a proper 3-D rotation backed by a gonum unit quaternion.
type Rotation struct {
	r r3.Rotation
}

// NoRotation is the identity rotation.
var NoRotation = Rotation{r: r3.Rotation(quat.Number{Real: 1})}

func toR3(v Vec3) r3.Vec   { return r3.Vec{X: v.X, Y: v.Y, Z: v.Z} }
func fromR3(v r3.Vec) Vec3 { return Vec3{X: v.X, Y: v.Y, Z: v.Z} }

// AxisAngle returns the rotation by angle (radians, right-hand rule) about
// axis.
func AxisAngle(axis Dir, angle float64) Rotation {
	return Rotation{r: r3.NewRotation(angle, toR3(axis.v))}
}

// RotationBetween returns the shortest rotation taking direction a onto b.
// When a and b are antiparallel any axis perpendicular to a is used; the
// choice is deterministic.
func RotationBetween(a, b Dir) Rotation {
	c := a.v.Dot(b.v)
	switch {
	case c > 1-1e-12:
		return NoRotation
	case c < -1+1e-12:
		perp := a.v.Cross(Vec3{1, 0, 0})
		if perp.Norm() < 1e-6 {
			perp = a.v.Cross(Vec3{0, 1, 0})
		}
		return AxisAngle(MustDir(perp), math.Pi)
	}
	axis := a.v.Cross(b.v)
	return AxisAngle(MustDir(axis), math.Acos(math.Max(-1, math.Min(1, c))))
}

// Apply rotates v.
func (r Rotation) Apply(v Vec3) Vec3 {
	return fromR3(r.r.Rotate(toR3(v)))
}

// ApplyDir rotates a direction, renormalizing against drift.
func (r Rotation) ApplyDir(d Dir) Dir {
	return Dir{r.Apply(d.v).Unit()}
}

// Then returns the rotation that applies r first and then o.
func (r Rotation) Then(o Rotation) Rotation {
	return Rotation{r: r3.Rotation(quat.Mul(quat.Number(o.r), quat.Number(r.r)))}
}

// RotateFrame rotates both axes of f about its own origin.
func (r Rotation) RotateFrame(f Frame) Frame {
	return Frame{Origin: f.Origin, Z: r.ApplyDir(f.Z), X: r.ApplyDir(f.X)}
}

// FrameAt places the identity axes rotated by r at origin.
func (r Rotation) FrameAt(origin Vec3) Frame {
	return Frame{Origin: origin, Z: r.ApplyDir(DirZ), X: r.ApplyDir(DirX)}
}

// FrameRotation returns the rotation that carries the world axes onto the
// axes of f.
func FrameRotation(f Frame) Rotation {
	x, y, z := f.X.v, f.Y().v, f.Z.v
	// Columns of the rotation matrix are the frame axes.
	m00, m01, m02 := x.X, y.X, z.X
	m10, m11, m12 := x.Y, y.Y, z.Y
	m20, m21, m22 := x.Z, y.Z, z.Z

	var q quat.Number
	switch tr := m00 + m11 + m22; {
	case tr > 0:
		s := 2 * math.Sqrt(tr+1)
		q = quat.Number{Real: s / 4, Imag: (m21 - m12) / s, Jmag: (m02 - m20) / s, Kmag: (m10 - m01) / s}
	case m00 > m11 && m00 > m22:
		s := 2 * math.Sqrt(1+m00-m11-m22)
		q = quat.Number{Real: (m21 - m12) / s, Imag: s / 4, Jmag: (m01 + m10) / s, Kmag: (m02 + m20) / s}
	case m11 > m22:
		s := 2 * math.Sqrt(1+m11-m00-m22)
		q = quat.Number{Real: (m02 - m20) / s, Imag: (m01 + m10) / s, Jmag: s / 4, Kmag: (m12 + m21) / s}
	default:
		s := 2 * math.Sqrt(1+m22-m00-m11)
		q = quat.Number{Real: (m10 - m01) / s, Imag: (m02 + m20) / s, Jmag: (m12 + m21) / s, Kmag: s / 4}
	}
	return Rotation{r: r3.Rotation(quat.Scale(1/quat.Abs(q), q))}
}

// AxisAngle returns the rotation axis and the angle in radians, with the
// angle in [0, π]. The identity reports the z-axis and zero.
func (r Rotation) AxisAngle() (Vec3, float64) {
	q := quat.Number(r.r)
	if q.Real < 0 {
		q = quat.Scale(-1, q)
	}
	v := Vec3{q.Imag, q.Jmag, q.Kmag}
	s := v.Norm()
	if s < 1e-12 {
		return Vec3{0, 0, 1}, 0
	}
	return v.Scale(1 / s), 2 * math.Atan2(s, q.Real)
}
