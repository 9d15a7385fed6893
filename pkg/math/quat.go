package math

import (
	"errors"
	"math"
)

// OrientationEpsilon is the largest deviation from unit length a quaternion
// may have before IsUnit reports false.
const OrientationEpsilon = 1e-4

// minQuatLength is the length below which a quaternion cannot be normalized.
const minQuatLength = 1e-8

// ErrInvalidOrientation is returned when a quaternion has (near) zero length
// and therefore describes no rotation.
var ErrInvalidOrientation = errors.New("invalid orientation: zero-length quaternion")

// Quat represents a quaternion for 3D rotations.
// Components are stored as X, Y, Z, W where W is the scalar part.
type Quat struct {
	X, Y, Z, W float32
}

// QuatIdentity returns an identity quaternion (no rotation).
func QuatIdentity() Quat {
	return Quat{X: 0, Y: 0, Z: 0, W: 1}
}

// QuatFromAxisAngle creates a quaternion from axis-angle rotation.
// axis should be normalized, angle is in radians.
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	halfAngle := angle / 2
	s := float32(math.Sin(float64(halfAngle)))
	return Quat{
		X: axis.X * s,
		Y: axis.Y * s,
		Z: axis.Z * s,
		W: float32(math.Cos(float64(halfAngle))),
	}
}

// QuatFromEuler builds a rotation from Euler angles in radians.
// The rotation applies roll (Z) first, then pitch (X), then yaw (Y).
func QuatFromEuler(pitch, yaw, roll float32) Quat {
	qx := QuatFromAxisAngle(Vec3{X: 1}, pitch)
	qy := QuatFromAxisAngle(Vec3{Y: 1}, yaw)
	qz := QuatFromAxisAngle(Vec3{Z: 1}, roll)
	return qy.Mul(qx).Mul(qz)
}

// Length returns the norm of the quaternion.
func (q Quat) Length() float32 {
	return float32(math.Sqrt(float64(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)))
}

// IsUnit reports whether q is unit length within OrientationEpsilon.
func (q Quat) IsUnit() bool {
	return math.Abs(float64(q.Length()-1)) <= OrientationEpsilon
}

// Normalize returns q scaled to unit length.
// A zero-length quaternion yields ErrInvalidOrientation.
func (q Quat) Normalize() (Quat, error) {
	length := q.Length()
	if length < minQuatLength || math.IsNaN(float64(length)) {
		return Quat{}, ErrInvalidOrientation
	}
	invLen := 1.0 / length
	return Quat{
		X: q.X * invLen,
		Y: q.Y * invLen,
		Z: q.Z * invLen,
		W: q.W * invLen,
	}, nil
}

// Dot returns the dot product of two quaternions.
func (q Quat) Dot(other Quat) float32 {
	return q.X*other.X + q.Y*other.Y + q.Z*other.Z + q.W*other.W
}

// Slerp performs spherical linear interpolation between two unit quaternions.
// t should be in range [0, 1].
func (q Quat) Slerp(other Quat, t float32) Quat {
	dot := q.Dot(other)

	// Take the shorter path
	if dot < 0 {
		other = Quat{X: -other.X, Y: -other.Y, Z: -other.Z, W: -other.W}
		dot = -dot
	}

	// Nearly parallel: lerp avoids dividing by sin(~0)
	if dot > 0.9995 {
		r := Quat{
			X: q.X + t*(other.X-q.X),
			Y: q.Y + t*(other.Y-q.Y),
			Z: q.Z + t*(other.Z-q.Z),
			W: q.W + t*(other.W-q.W),
		}
		if n, err := r.Normalize(); err == nil {
			return n
		}
		return q
	}

	theta0 := float32(math.Acos(float64(dot)))
	theta := theta0 * t
	sinTheta := float32(math.Sin(float64(theta)))
	sinTheta0 := float32(math.Sin(float64(theta0)))

	s0 := float32(math.Cos(float64(theta))) - dot*sinTheta/sinTheta0
	s1 := sinTheta / sinTheta0

	return Quat{
		X: q.X*s0 + other.X*s1,
		Y: q.Y*s0 + other.Y*s1,
		Z: q.Z*s0 + other.Z*s1,
		W: q.W*s0 + other.W*s1,
	}
}

// Mul multiplies two quaternions (combines rotations, other applied first).
func (q Quat) Mul(other Quat) Quat {
	return Quat{
		X: q.W*other.X + q.X*other.W + q.Y*other.Z - q.Z*other.Y,
		Y: q.W*other.Y - q.X*other.Z + q.Y*other.W + q.Z*other.X,
		Z: q.W*other.Z + q.X*other.Y - q.Y*other.X + q.Z*other.W,
		W: q.W*other.W - q.X*other.X - q.Y*other.Y - q.Z*other.Z,
	}
}

// RotationMatrix converts the quaternion into a 4x4 rotation matrix.
//
// The result is the canonical right-handed rotation
//
//	[1-2(y²+z²)  2(xy-zw)    2(xz+yw)    0]
//	[2(xy+zw)    1-2(x²+z²)  2(yz-xw)    0]
//	[2(xz-yw)    2(yz+xw)    1-2(x²+y²)  0]
//	[0           0           0           1]
//
// stored column-major like every other Mat4. The input is normalized first;
// a zero-length quaternion returns ErrInvalidOrientation.
func (q Quat) RotationMatrix() (Mat4, error) {
	q, err := q.Normalize()
	if err != nil {
		return Identity(), err
	}

	xx := q.X * q.X
	xy := q.X * q.Y
	xz := q.X * q.Z
	xw := q.X * q.W
	yy := q.Y * q.Y
	yz := q.Y * q.Z
	yw := q.Y * q.W
	zz := q.Z * q.Z
	zw := q.Z * q.W

	return Mat4{
		1 - 2*(yy+zz), 2 * (xy + zw), 2 * (xz - yw), 0,
		2 * (xy - zw), 1 - 2*(xx+zz), 2 * (yz + xw), 0,
		2 * (xz + yw), 2 * (yz - xw), 1 - 2*(xx+yy), 0,
		0, 0, 0, 1,
	}, nil
}

// Rotate applies the rotation to a vector.
func (q Quat) Rotate(v Vec3) (Vec3, error) {
	m, err := q.RotationMatrix()
	if err != nil {
		return v, err
	}
	return m.TransformVec3(v), nil
}
