package hoverrace

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Axis conventions: +Y is up, +Z is forward, +X is right. A positive yaw
// (rotation about +Y) turns forward toward right.
var (
	WorldUp      = mgl32.Vec3{0, 1, 0}
	WorldForward = mgl32.Vec3{0, 0, 1}
	WorldRight   = mgl32.Vec3{1, 0, 0}
)

const vecEpsilon = 1e-6

func Lerp(a, b, t float32) float32 {
	t = mgl32.Clamp(t, 0, 1)
	return a + (b-a)*t
}

func LerpVec3(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	t = mgl32.Clamp(t, 0, 1)
	return a.Add(b.Sub(a).Mul(t))
}

// SafeNormalize returns the unit vector of v, or the zero vector when v is
// too short to have a direction.
func SafeNormalize(v mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l < vecEpsilon {
		return mgl32.Vec3{}
	}
	return v.Mul(1 / l)
}

// ProjectOnPlane removes the component of v along the plane normal n.
func ProjectOnPlane(v, n mgl32.Vec3) mgl32.Vec3 {
	sq := n.Dot(n)
	if sq < vecEpsilon {
		return v
	}
	return v.Sub(n.Mul(v.Dot(n) / sq))
}

// SignedAngle is the angle in degrees from one vector to another, positive
// when the rotation is clockwise seen from the tip of axis looking down,
// i.e. toward the right for axis = up.
func SignedAngle(from, to, axis mgl32.Vec3) float32 {
	f := SafeNormalize(from)
	t := SafeNormalize(to)
	if f.Len() == 0 || t.Len() == 0 {
		return 0
	}
	cos := mgl32.Clamp(f.Dot(t), -1, 1)
	angle := mgl32.RadToDeg(float32(math.Acos(float64(cos))))
	if axis.Dot(f.Cross(t)) < 0 {
		return -angle
	}
	return angle
}

// FromToRotation is the shortest rotation taking direction from onto to.
func FromToRotation(from, to mgl32.Vec3) mgl32.Quat {
	if from.Len() < vecEpsilon || to.Len() < vecEpsilon {
		return mgl32.QuatIdent()
	}
	return mgl32.QuatBetweenVectors(from, to)
}

// LookRotation builds the rotation whose forward axis is forward and whose
// up axis is as close to up as the forward direction allows.
func LookRotation(forward, up mgl32.Vec3) mgl32.Quat {
	f := SafeNormalize(forward)
	if f.Len() == 0 {
		return mgl32.QuatIdent()
	}
	r := SafeNormalize(up.Cross(f))
	if r.Len() == 0 {
		// forward is parallel to up; pick any perpendicular.
		r = SafeNormalize(WorldForward.Cross(f))
		if r.Len() == 0 {
			r = SafeNormalize(WorldRight.Cross(f))
		}
	}
	u := f.Cross(r)
	m := mgl32.Mat3FromCols(r, u, f)
	return mgl32.Mat4ToQuat(m.Mat4()).Normalize()
}

// Slerp interpolates along the shorter arc with t clamped to [0, 1].
func Slerp(a, b mgl32.Quat, t float32) mgl32.Quat {
	t = mgl32.Clamp(t, 0, 1)
	if a.Dot(b) < 0 {
		b = b.Scale(-1)
	}
	return mgl32.QuatSlerp(a, b, t).Normalize()
}
