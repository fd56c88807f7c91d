package hoverrace

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func assertVec(t *testing.T, want, got mgl32.Vec3, delta float64) {
	t.Helper()
	for i := 0; i < 3; i++ {
		assert.InDelta(t, want[i], got[i], delta, "component %d of %v", i, got)
	}
}

func TestSignedAngle_RightIsPositive(t *testing.T) {
	assert.InDelta(t, 90, SignedAngle(WorldForward, WorldRight, WorldUp), 1e-4)
	assert.InDelta(t, -90, SignedAngle(WorldForward, WorldRight.Mul(-1), WorldUp), 1e-4)
	assert.InDelta(t, 180, SignedAngle(WorldForward, WorldForward.Mul(-1), WorldUp), 1e-3)
	assert.Zero(t, SignedAngle(mgl32.Vec3{}, WorldRight, WorldUp))
}

func TestLerp_Clamps(t *testing.T) {
	assert.Equal(t, float32(5), Lerp(0, 10, 0.5))
	assert.Equal(t, float32(10), Lerp(0, 10, 3))
	assert.Equal(t, float32(0), Lerp(0, 10, -1))
	assertVec(t, mgl32.Vec3{1, 1, 1}, LerpVec3(mgl32.Vec3{}, mgl32.Vec3{1, 1, 1}, 2), 1e-6)
}

func TestProjectOnPlane(t *testing.T) {
	assertVec(t, mgl32.Vec3{1, 0, 2}, ProjectOnPlane(mgl32.Vec3{1, 5, 2}, WorldUp), 1e-6)
	assertVec(t, mgl32.Vec3{1, 5, 2}, ProjectOnPlane(mgl32.Vec3{1, 5, 2}, mgl32.Vec3{}), 1e-6)
}

func TestLookRotation(t *testing.T) {
	q := LookRotation(WorldRight, WorldUp)
	tr := NewTransform(mgl32.Vec3{}, q)
	assertVec(t, WorldRight, tr.Forward(), 1e-5)
	assertVec(t, WorldUp, tr.Up(), 1e-5)
	assertVec(t, WorldForward.Mul(-1), tr.Right(), 1e-5)

	// Tilted up is orthogonalized against forward.
	tilted := NewTransform(mgl32.Vec3{}, LookRotation(WorldForward, mgl32.Vec3{0, 1, 1}))
	assertVec(t, WorldForward, tilted.Forward(), 1e-5)
	assertVec(t, WorldUp, tilted.Up(), 1e-5)

	// Degenerate input still yields a unit rotation.
	assert.InDelta(t, 1, LookRotation(WorldUp, WorldUp).Len(), 1e-5)
	assert.Equal(t, mgl32.QuatIdent(), LookRotation(mgl32.Vec3{}, WorldUp))
}

func TestFromToRotation(t *testing.T) {
	q := FromToRotation(WorldUp, WorldRight)
	assertVec(t, WorldRight, q.Rotate(WorldUp), 1e-5)
	assert.Equal(t, mgl32.QuatIdent(), FromToRotation(mgl32.Vec3{}, WorldUp))
}

func TestSlerp_ShortestArc(t *testing.T) {
	a := mgl32.QuatIdent()
	b := mgl32.QuatRotate(mgl32.DegToRad(90), WorldUp).Scale(-1)
	mid := Slerp(a, b, 0.5)
	fwd := mid.Rotate(WorldForward)
	assert.InDelta(t, 45, SignedAngle(WorldForward, fwd, WorldUp), 1e-3)

	assert.InDelta(t, 1, Slerp(a, b, -1).W, 1e-6)
}

func TestTransformPointAndDirection(t *testing.T) {
	tr := NewTransform(mgl32.Vec3{1, 0, 0}, mgl32.QuatRotate(mgl32.DegToRad(90), WorldUp))
	tr.Scale = mgl32.Vec3{2, 2, 2}
	assertVec(t, mgl32.Vec3{3, 0, 0}, tr.TransformPoint(WorldForward), 1e-5)
	assertVec(t, WorldRight, tr.TransformDirection(WorldForward), 1e-5)
}
