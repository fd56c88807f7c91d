package hoverrace

type PhysicsModule struct {
	World *PhysicsWorld
}

func (m PhysicsModule) Install(app *App, cmd *Commands) {
	world := m.World
	if world == nil {
		world = NewPhysicsWorld()
	}
	cmd.AddResources(world)

	app.UseSystem(
		System(PhysicsSystem).
			InStage(PhysicsUpdate),
	)
}

// PhysicsSystem integrates every rigid body by one fixed step.
func PhysicsSystem(cmd *Commands, time *Time, physics *PhysicsWorld) {
	dt := time.FixedDt
	if dt <= 0 {
		return
	}
	MakeQuery2[TransformComponent, RigidBodyComponent](cmd).Map(func(eid EntityId, tr *TransformComponent, rb *RigidBodyComponent) bool {
		integrateBody(tr, rb, physics, dt)
		return true
	})
}
