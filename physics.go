package hoverrace

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// RigidBodyComponent is the kinematic substrate vehicles are driven through:
// locomotion writes velocities, PhysicsSystem integrates them. A frozen body
// keeps its pose and zero velocity until released.
type RigidBodyComponent struct {
	Velocity        mgl32.Vec3
	AngularVelocity mgl32.Vec3
	Mass            float32
	GravityScale    float32
	Frozen          bool
}

func (rb *RigidBodyComponent) Stop() {
	rb.Velocity = mgl32.Vec3{}
	rb.AngularVelocity = mgl32.Vec3{}
}

func (rb *RigidBodyComponent) Freeze() {
	rb.Stop()
	rb.Frozen = true
}

func (rb *RigidBodyComponent) Release() {
	rb.Frozen = false
}

// ColliderComponent is the contact sphere of a vehicle.
type ColliderComponent struct {
	Radius float32
}

// BoundingRadius is the radius of a sphere enclosing the collider.
func (c ColliderComponent) BoundingRadius() float32 {
	return c.Radius
}

type PhysicsWorld struct {
	Gravity mgl32.Vec3
	// MaxLinearSpeed caps integrated velocity; zero disables the cap.
	MaxLinearSpeed float32
}

func NewPhysicsWorld() *PhysicsWorld {
	return &PhysicsWorld{
		Gravity: mgl32.Vec3{0, -9.81, 0},
	}
}

// integrateBody advances one body by dt.
func integrateBody(tr *TransformComponent, rb *RigidBodyComponent, world *PhysicsWorld, dt float32) {
	if rb.Frozen {
		return
	}
	if rb.GravityScale != 0 {
		rb.Velocity = rb.Velocity.Add(world.Gravity.Mul(rb.GravityScale * dt))
	}
	if world.MaxLinearSpeed > 0 {
		if speed := rb.Velocity.Len(); speed > world.MaxLinearSpeed {
			rb.Velocity = rb.Velocity.Mul(world.MaxLinearSpeed / speed)
		}
	}
	if !isFiniteVec3(rb.Velocity) || !isFiniteVec3(rb.AngularVelocity) {
		rb.Stop()
		return
	}

	tr.Position = tr.Position.Add(rb.Velocity.Mul(dt))

	if w := rb.AngularVelocity.Len(); w > vecEpsilon {
		spin := mgl32.QuatRotate(w*dt, rb.AngularVelocity.Mul(1/w))
		tr.Rotation = spin.Mul(tr.Rotation).Normalize()
	}
}

func isFiniteVec3(v mgl32.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(float64(c)) || math.IsInf(float64(c), 0) {
			return false
		}
	}
	return true
}
