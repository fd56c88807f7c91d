package hoverrace

// RaceState is the race resource shared by the race systems.
type RaceState struct {
	Track    *Track
	Director *RaceDirector
	Metrics  *Metrics
}

// VehicleComponent tags a racing vehicle.
type VehicleComponent struct {
	Name     string
	IsPlayer bool
}

type RaceModule struct {
	Director *RaceDirector
	Metrics  *Metrics
}

func (m RaceModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(
		&RaceState{Track: m.Director.Track(), Director: m.Director, Metrics: m.Metrics},
		&RaceEvents{},
		NewTriggerTracker(),
	)
	app.UseSystem(
		System(TriggerSystem).InStage(PostPhysics),
	).UseSystem(
		System(RaceEventSystem).InStage(PostPhysics),
	).UseSystem(
		System(RaceDirectorSystem).InStage(Update),
	)
}

// TriggerSystem detects vehicles entering checkpoint and finish volumes.
// Checkpoints are tested before the finish line so a lap completed in the
// same tick is counted before the finish check.
func TriggerSystem(cmd *Commands, race *RaceState, tracker *TriggerTracker, events *RaceEvents, diag *Diagnostics) {
	track := race.Track
	MakeQuery3[TransformComponent, VehicleComponent, RacerComponent](cmd).Map(func(eid EntityId, tr *TransformComponent, v *VehicleComponent, racer *RacerComponent) bool {
		if racer == nil || racer.Progress == nil {
			diag.WarnOnce(missingKey("progress", eid), "vehicle %s has no race progress; checkpoints ignored", v.Name)
			return true
		}
		id := racer.Progress.ID
		for _, cp := range track.Checkpoints {
			if tracker.Observe(TriggerCheckpoint, cp.Index, eid, cp.Volume.Contains(tr.Position)) {
				events.Push(CheckpointPassed{Racer: id, Entity: eid, CheckpointIndex: cp.Index})
			}
		}
		if tracker.Observe(TriggerFinishLine, 0, eid, track.FinishLine.Contains(tr.Position)) {
			events.Push(FinishCrossed{Racer: id, Entity: eid})
		}
		return true
	}, RacerComponent{})
}

// RaceEventSystem hands the tick's trigger events to the director in order.
func RaceEventSystem(race *RaceState, events *RaceEvents) {
	for _, ev := range events.Drain() {
		race.Director.Deliver(ev)
	}
}

// RaceDirectorSystem advances the countdown and ranking on frame time.
func RaceDirectorSystem(race *RaceState, time *Time) {
	race.Director.Update(time.Dt)
}

// ecsFleet freezes vehicles through their ECS components.
type ecsFleet struct {
	cmd      *Commands
	entities map[RacerID]EntityId
}

func newECSFleet(cmd *Commands) *ecsFleet {
	return &ecsFleet{cmd: cmd, entities: make(map[RacerID]EntityId)}
}

func (f *ecsFleet) Bind(racer RacerID, eid EntityId) {
	f.entities[racer] = eid
}

func (f *ecsFleet) Freeze(racer RacerID) {
	eid, ok := f.entities[racer]
	if !ok {
		return
	}
	if loco := GetComponent[LocomotionController](f.cmd, eid); loco != nil {
		loco.LockControls()
	}
	if rb := GetComponent[RigidBodyComponent](f.cmd, eid); rb != nil {
		rb.Freeze()
	}
}

func (f *ecsFleet) Release(racer RacerID) {
	eid, ok := f.entities[racer]
	if !ok {
		return
	}
	if loco := GetComponent[LocomotionController](f.cmd, eid); loco != nil {
		loco.UnlockControls()
	}
	if rb := GetComponent[RigidBodyComponent](f.cmd, eid); rb != nil {
		rb.Release()
	}
}
