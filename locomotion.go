package hoverrace

import (
	"github.com/go-gl/mathgl/mgl32"
)

// DriveInput is a throttle/steering pair in [-1, 1]. Positive steering
// turns right.
type DriveInput struct {
	Throttle float32
	Steering float32
}

// NeighborQuery lists positions of other vehicles near a point.
type NeighborQuery interface {
	Within(center mgl32.Vec3, radius float32) []mgl32.Vec3
}

// DriveContext is what an input source may look at to decide.
type DriveContext struct {
	Entity    EntityId
	Transform TransformComponent
	Speed     float32
	Dt        float32
	Input     *Input
	Neighbors NeighborQuery
}

// InputSource produces driving intent for one vehicle each fixed tick.
type InputSource interface {
	Drive(ctx DriveContext) DriveInput
}

type DriverComponent struct {
	Source InputSource
}

// HumanInput drives from the keyboard axes.
type HumanInput struct{}

func (HumanInput) Drive(ctx DriveContext) DriveInput {
	if ctx.Input == nil {
		return DriveInput{}
	}
	return DriveInput{
		Throttle: ctx.Input.Axis(AxisVertical),
		Steering: ctx.Input.Axis(AxisHorizontal),
	}
}

// LocomotionController turns driving intent into velocities. CurrentSpeed
// eases toward throttle*MaxSpeed; the vehicle always moves along its
// forward axis and yaws about its up axis.
type LocomotionController struct {
	MaxSpeed     float32
	Acceleration float32
	Deceleration float32
	TurnRate     float32 // degrees per second at full steering
	Locked       bool

	CurrentSpeed float32
	Input        DriveInput
}

func DefaultLocomotion() LocomotionController {
	return LocomotionController{
		MaxSpeed:     10,
		Acceleration: 5,
		Deceleration: 7,
		TurnRate:     100,
	}
}

// Step advances CurrentSpeed by dt and returns the linear and angular
// velocity to apply.
func (c *LocomotionController) Step(forward, up mgl32.Vec3, throttle, steering, dt float32) (mgl32.Vec3, mgl32.Vec3) {
	throttle = mgl32.Clamp(throttle, -1, 1)
	steering = mgl32.Clamp(steering, -1, 1)
	if c.Locked {
		throttle = 0
	}

	if throttle != 0 {
		c.CurrentSpeed = Lerp(c.CurrentSpeed, throttle*c.MaxSpeed, dt*c.Acceleration)
	} else {
		c.CurrentSpeed = Lerp(c.CurrentSpeed, 0, dt*c.Deceleration)
	}

	linear := forward.Mul(c.CurrentSpeed)
	angular := up.Mul(steering * mgl32.DegToRad(c.TurnRate))
	return linear, angular
}

// LockControls stops the controller accepting throttle and zeroes its speed.
func (c *LocomotionController) LockControls() {
	c.Locked = true
	c.CurrentSpeed = 0
}

func (c *LocomotionController) UnlockControls() {
	c.Locked = false
}

type LocomotionModule struct{}

func (LocomotionModule) Install(app *App, cmd *Commands) {
	app.UseSystem(
		System(DriveSystem).InStage(PhysicsUpdate),
	).UseSystem(
		System(LocomotionSystem).InStage(PhysicsUpdate),
	)
}

// DriveSystem asks every vehicle's input source for this tick's intent.
func DriveSystem(cmd *Commands, time *Time, input *Input, grid *SpatialHashGrid) {
	positions := make(map[EntityId]mgl32.Vec3)
	MakeQuery1[TransformComponent](cmd).Map(func(eid EntityId, tr *TransformComponent) bool {
		positions[eid] = tr.Position
		return true
	})

	MakeQuery3[TransformComponent, LocomotionController, DriverComponent](cmd).Map(func(eid EntityId, tr *TransformComponent, loco *LocomotionController, driver *DriverComponent) bool {
		if driver.Source == nil {
			return true
		}
		loco.Input = driver.Source.Drive(DriveContext{
			Entity:    eid,
			Transform: *tr,
			Speed:     loco.CurrentSpeed,
			Dt:        time.FixedDt,
			Input:     input,
			Neighbors: gridNeighbors{grid: grid, positions: positions, self: eid},
		})
		return true
	})
}

// LocomotionSystem converts intent into rigid-body velocities.
func LocomotionSystem(cmd *Commands, time *Time, diag *Diagnostics) {
	MakeQuery3[TransformComponent, LocomotionController, RigidBodyComponent](cmd).Map(func(eid EntityId, tr *TransformComponent, loco *LocomotionController, rb *RigidBodyComponent) bool {
		linear, angular := loco.Step(tr.Forward(), tr.Up(), loco.Input.Throttle, loco.Input.Steering, time.FixedDt)
		if rb == nil {
			diag.WarnOnce(missingKey("rigidbody", eid), "vehicle %d has no rigid body; locomotion skipped", eid)
			return true
		}
		if rb.Frozen {
			return true
		}
		rb.Velocity = linear
		rb.AngularVelocity = angular
		return true
	}, RigidBodyComponent{})
}

type gridNeighbors struct {
	grid      *SpatialHashGrid
	positions map[EntityId]mgl32.Vec3
	self      EntityId
}

func (n gridNeighbors) Within(center mgl32.Vec3, radius float32) []mgl32.Vec3 {
	if n.grid == nil {
		return nil
	}
	var res []mgl32.Vec3
	for _, id := range n.grid.QueryRadius(center, radius) {
		if id == n.self {
			continue
		}
		p, ok := n.positions[id]
		if !ok || p.Sub(center).Len() > radius {
			continue
		}
		res = append(res, p)
	}
	return res
}
