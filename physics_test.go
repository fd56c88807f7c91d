package hoverrace

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhysicsIntegration(t *testing.T) {
	app := NewAppBuilder().UseModules(TimeModule{FixedDt: 0.1}, PhysicsModule{}).Build()
	cmd := app.Commands()
	Resource[PhysicsWorld](app).Gravity = mgl32.Vec3{0, -10, 0}

	eid := cmd.AddEntity(
		NewTransform(mgl32.Vec3{0, 10, 0}, mgl32.QuatIdent()),
		RigidBodyComponent{Mass: 1.0, GravityScale: 1.0},
	)
	app.FlushCommands()

	for i := 0; i < 10; i++ {
		app.Update(0.1)
	}

	tr := GetComponent[TransformComponent](cmd, eid)
	rb := GetComponent[RigidBodyComponent](cmd, eid)
	if tr.Position.Y() >= 10 {
		t.Errorf("Entity should have fallen, but Y = %f", tr.Position.Y())
	}
	if rb.Velocity.Y() >= 0 {
		t.Errorf("Entity should have negative velocity, but VY = %f", rb.Velocity.Y())
	}
}

func TestPhysics_NoGravityKeepsVelocity(t *testing.T) {
	tr := NewTransform(mgl32.Vec3{}, mgl32.QuatIdent())
	rb := RigidBodyComponent{Velocity: mgl32.Vec3{0, 0, 5}}
	world := NewPhysicsWorld()

	for i := 0; i < 50; i++ {
		integrateBody(&tr, &rb, world, 0.02)
	}
	assert.InDelta(t, 5, tr.Position.Z(), 1e-4)
	assert.InDelta(t, 0, tr.Position.Y(), 1e-6)
}

func TestPhysics_FrozenBodyDoesNotMove(t *testing.T) {
	tr := NewTransform(mgl32.Vec3{1, 2, 3}, mgl32.QuatIdent())
	rb := RigidBodyComponent{Velocity: mgl32.Vec3{1, 0, 0}, GravityScale: 1}
	rb.Freeze()

	integrateBody(&tr, &rb, NewPhysicsWorld(), 0.1)

	assert.Equal(t, mgl32.Vec3{1, 2, 3}, tr.Position)
	assert.Equal(t, mgl32.Vec3{}, rb.Velocity)

	rb.Release()
	rb.Velocity = mgl32.Vec3{10, 0, 0}
	integrateBody(&tr, &rb, &PhysicsWorld{}, 0.1)
	assert.InDelta(t, 2, tr.Position.X(), 1e-5)
}

func TestPhysics_AngularVelocityYawsRight(t *testing.T) {
	tr := NewTransform(mgl32.Vec3{}, mgl32.QuatIdent())
	// Positive yaw about up turns forward toward +X.
	rb := RigidBodyComponent{AngularVelocity: mgl32.Vec3{0, math.Pi / 2, 0}}

	integrateBody(&tr, &rb, NewPhysicsWorld(), 1)

	assert.InDelta(t, 1, tr.Forward().X(), 1e-4)
	assert.InDelta(t, 0, tr.Forward().Z(), 1e-4)
}

func TestPhysics_SpeedCapAndNaNGuard(t *testing.T) {
	world := &PhysicsWorld{MaxLinearSpeed: 2}
	tr := NewTransform(mgl32.Vec3{}, mgl32.QuatIdent())
	rb := RigidBodyComponent{Velocity: mgl32.Vec3{10, 0, 0}}
	integrateBody(&tr, &rb, world, 1)
	assert.InDelta(t, 2, rb.Velocity.Len(), 1e-5)

	nan := float32(math.NaN())
	rb = RigidBodyComponent{Velocity: mgl32.Vec3{nan, 0, 0}}
	before := tr.Position
	integrateBody(&tr, &rb, NewPhysicsWorld(), 1)
	require.Equal(t, before, tr.Position)
	assert.Equal(t, mgl32.Vec3{}, rb.Velocity)
}

func TestCollider_BoundingRadius(t *testing.T) {
	assert.Equal(t, float32(1.5), ColliderComponent{Radius: 1.5}.BoundingRadius())
}
