package hoverrace

type HoverState int

const (
	Airborne HoverState = iota
	Contacted
)

func (s HoverState) String() string {
	if s == Contacted {
		return "contacted"
	}
	return "airborne"
}

// HoverComponent keeps a vehicle floating at HoverHeight along the surface
// normal under it.
type HoverComponent struct {
	HoverHeight          float32
	RaycastDistance      float32
	SmoothLayers         LayerMask
	BumpyLayers          LayerMask
	SmoothAdjustSpeed    float32
	BumpyAdjustSpeed     float32
	RotationAdjustSpeed  float32
	TimeBeforeReset      float32
	TrackRaycastDistance float32
	TrackTag             string

	State          HoverState
	GroundContact  bool
	NoContactTimer float32
}

func DefaultHoverComponent() HoverComponent {
	return HoverComponent{
		HoverHeight:          3,
		RaycastDistance:      10,
		SmoothLayers:         LayerBit(LayerTrackSmooth),
		BumpyLayers:          LayerBit(LayerTrackBumpy),
		SmoothAdjustSpeed:    10,
		BumpyAdjustSpeed:     5,
		RotationAdjustSpeed:  5,
		TimeBeforeReset:      3,
		TrackRaycastDistance: 10,
		TrackTag:             "Track",
	}
}

// Step runs one fixed tick of suspension on tr and reports whether the
// vehicle has been airborne long enough to be reset. The timer is cleared
// when it reports true.
func (h *HoverComponent) Step(tr *TransformComponent, sampler Sampler, dt float32) bool {
	down := tr.Up().Mul(-1)
	sample, ok := sampler.Sample(tr.Position, down, h.RaycastDistance, h.SmoothLayers|h.BumpyLayers)
	if ok {
		h.State = Contacted
		h.GroundContact = true
		h.NoContactTimer = 0

		rate := h.SmoothAdjustSpeed
		if h.BumpyLayers.Contains(sample.Layer) && !h.SmoothLayers.Contains(sample.Layer) {
			rate = h.BumpyAdjustSpeed
		}
		target := sample.Point.Add(sample.Normal.Mul(h.HoverHeight))
		tr.Position = LerpVec3(tr.Position, target, dt*rate)

		targetRot := FromToRotation(tr.Up(), sample.Normal).Mul(tr.Rotation)
		tr.Rotation = Slerp(tr.Rotation, targetRot, dt*h.RotationAdjustSpeed)
		return false
	}

	h.State = Airborne
	h.GroundContact = false
	h.NoContactTimer += dt
	if h.NoContactTimer >= h.TimeBeforeReset {
		h.NoContactTimer = 0
		return true
	}
	return false
}

// ResetToCheckpoint places a vehicle on the checkpoint it last passed,
// facing the one it expects next, with its up axis on the track normal. rb
// and loco may be nil. It returns false without touching anything if
// there is no valid checkpoint to return to.
func ResetToCheckpoint(tr *TransformComponent, rb *RigidBodyComponent, loco *LocomotionController, progress *RacerProgress, track *Track, sampler Sampler, hover *HoverComponent) bool {
	n := track.Len()
	if progress == nil || n == 0 {
		return false
	}
	if progress.CurrentCheckpointIndex < 0 || progress.CurrentCheckpointIndex >= n {
		return false
	}
	last, _ := track.Checkpoint(progress.LastPassed(n))
	next, _ := track.Checkpoint(progress.CurrentCheckpointIndex)

	up := WorldUp
	if sampler != nil && hover != nil {
		origin := last.Position.Add(WorldUp)
		if s, ok := sampler.Sample(origin, WorldUp.Mul(-1), hover.TrackRaycastDistance, AllLayers); ok && s.Tag == hover.TrackTag {
			up = s.Normal
		}
	}

	forward := SafeNormalize(ProjectOnPlane(next.Position.Sub(last.Position), up))
	if forward.Len() == 0 {
		// Single checkpoint or coincident positions.
		forward = SafeNormalize(ProjectOnPlane(tr.Forward(), up))
	}
	if forward.Len() == 0 {
		forward = SafeNormalize(ProjectOnPlane(WorldForward, up))
	}

	tr.Position = last.Position
	tr.Rotation = LookRotation(forward, up)
	if rb != nil {
		rb.Stop()
	}
	if loco != nil {
		loco.CurrentSpeed = 0
	}
	return true
}

type HoverModule struct{}

func (HoverModule) Install(app *App, cmd *Commands) {
	app.UseSystem(
		System(HoverSystem).InStage(PhysicsUpdate),
	)
}

// HoverSystem runs suspension for every hovering vehicle and resets those
// airborne for too long. A reset vehicle starts inside the gate it lands in.
func HoverSystem(cmd *Commands, time *Time, sampler *GeometrySampler, race *RaceState, tracker *TriggerTracker, diag *Diagnostics) {
	dt := time.FixedDt
	MakeQuery2[TransformComponent, HoverComponent](cmd).Map(func(eid EntityId, tr *TransformComponent, hover *HoverComponent) bool {
		if !hover.Step(tr, sampler, dt) {
			return true
		}

		racer := GetComponent[RacerComponent](cmd, eid)
		if racer == nil || racer.Progress == nil {
			diag.WarnOnce(missingKey("progress", eid), "vehicle %d has no race progress; cannot reset to checkpoint", eid)
			return true
		}
		rb := GetComponent[RigidBodyComponent](cmd, eid)
		loco := GetComponent[LocomotionController](cmd, eid)
		if !ResetToCheckpoint(tr, rb, loco, racer.Progress, race.Track, sampler, hover) {
			diag.WarnOnce(missingKey("reset", eid), "vehicle %d: checkpoint %d is not on the track; reset skipped", eid, racer.Progress.CurrentCheckpointIndex)
			return true
		}
		tracker.Settle(race.Track, eid, tr.Position)
		race.Metrics.VehicleReset(racer.Progress.Name)
		cmd.Logger().Debugf("%s reset to checkpoint %d", racer.Progress.Name, racer.Progress.LastPassed(race.Track.Len()))
		return true
	})
}
