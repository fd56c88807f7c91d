package hoverrace

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// WrongWayComponent tracks how long the next expected checkpoint has been
// behind the vehicle.
type WrongWayComponent struct {
	Delay   float32
	Timer   float32
	Showing bool
}

func DefaultWrongWay() WrongWayComponent {
	return WrongWayComponent{Delay: 1}
}

// Check updates the timer; changed reports a flip of Showing.
func (w *WrongWayComponent) Check(tr TransformComponent, next mgl32.Vec3, dt float32) (changed bool) {
	toNext := SafeNormalize(next.Sub(tr.Position))
	if tr.Forward().Dot(toNext) > 0 {
		w.Timer = 0
		if w.Showing {
			w.Showing = false
			return true
		}
		return false
	}
	w.Timer += dt
	if w.Timer >= w.Delay && !w.Showing {
		w.Showing = true
		return true
	}
	return false
}

// EngineAudioComponent maps speed to an engine pitch.
type EngineAudioComponent struct {
	MinPitch float32
	MaxPitch float32
	MaxSpeed float32

	Pitch   float32
	Playing bool
}

func DefaultEngineAudio() EngineAudioComponent {
	return EngineAudioComponent{MinPitch: 0.8, MaxPitch: 2, MaxSpeed: 20, Pitch: 0.8}
}

const (
	engineIdleSpeed = 0.1
	pitchReportStep = 0.05
)

// Update recomputes pitch and playing state for speed and reports whether
// the change is worth telling the audio layer about.
func (e *EngineAudioComponent) Update(speed float32) bool {
	pitch := e.MinPitch
	if e.MaxSpeed > 0 {
		pitch = mgl32.Clamp(Lerp(e.MinPitch, e.MaxPitch, speed/e.MaxSpeed), e.MinPitch, e.MaxPitch)
	}
	playing := speed > engineIdleSpeed

	changed := playing != e.Playing || abs32(pitch-e.Pitch) >= pitchReportStep
	e.Playing = playing
	if changed {
		e.Pitch = pitch
	}
	return changed
}

// SpeedometerComponent renders a player's speed as a fill fraction and a
// text label.
type SpeedometerComponent struct {
	MaxSpeed float32
	Fill     float32
	Text     string
}

func (s *SpeedometerComponent) Update(speed float32) bool {
	if s.MaxSpeed <= 0 {
		return false
	}
	clamped := mgl32.Clamp(speed, 0, s.MaxSpeed)
	text := fmt.Sprintf("%dV", int(math.Round(float64(clamped))))
	changed := text != s.Text
	s.Fill = clamped / s.MaxSpeed
	s.Text = text
	return changed
}

// BankingComponent is the cosmetic roll of a vehicle body into turns.
type BankingComponent struct {
	Speed    float32
	MaxAngle float32 // degrees
	Angle    float32
}

func DefaultBanking() BankingComponent {
	return BankingComponent{Speed: 5, MaxAngle: 30}
}

func (b *BankingComponent) Update(steering, dt float32) {
	b.Angle = Lerp(b.Angle, steering*b.MaxAngle, dt*b.Speed)
}

// Rotation is the local roll to apply to the visual body; banking right
// rolls clockwise around forward.
func (b *BankingComponent) Rotation() mgl32.Quat {
	return mgl32.QuatRotate(mgl32.DegToRad(-b.Angle), WorldForward)
}

type contactPair struct{ a, b EntityId }

// RacerContacts remembers which vehicle pairs were touching last tick.
type RacerContacts struct {
	touching map[contactPair]struct{}
}

type FeedbackModule struct{}

func (FeedbackModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&RacerContacts{touching: make(map[contactPair]struct{})})
	app.UseSystem(
		System(PauseSystem).InStage(PreUpdate),
	).UseSystem(
		System(RacerCollisionSystem).InStage(PostPhysics),
	).UseSystem(
		System(WrongWaySystem).InStage(Update),
	).UseSystem(
		System(BankingSystem).InStage(Update),
	).UseSystem(
		System(EngineAudioSystem).InStage(PostUpdate),
	).UseSystem(
		System(SpeedometerSystem).InStage(PostUpdate),
	)
}

// PauseSystem toggles the clock on the pause keys.
func PauseSystem(input *Input, time *Time, ui *NotifySurface) {
	if !input.JustPressed[KeyEscape] && !input.JustPressed[KeyP] {
		return
	}
	if time.Paused() {
		time.Scale = 1
	} else {
		time.Scale = 0
	}
	ui.Paused(time.Paused())
}

func WrongWaySystem(cmd *Commands, time *Time, race *RaceState, ui *NotifySurface, diag *Diagnostics) {
	if race.Track.Len() == 0 || time.Dt == 0 {
		return
	}
	MakeQuery4[TransformComponent, VehicleComponent, WrongWayComponent, RacerComponent](cmd).Map(func(eid EntityId, tr *TransformComponent, v *VehicleComponent, ww *WrongWayComponent, racer *RacerComponent) bool {
		if racer == nil || racer.Progress == nil {
			diag.WarnOnce(missingKey("progress", eid), "vehicle %s has no race progress; wrong-way check skipped", v.Name)
			return true
		}
		next, ok := race.Track.Checkpoint(racer.Progress.CurrentCheckpointIndex)
		if !ok {
			return true
		}
		if ww.Check(*tr, next.Position, time.Dt) {
			ui.WrongWay(v.Name, ww.Showing)
		}
		return true
	}, RacerComponent{})
}

func BankingSystem(cmd *Commands, time *Time) {
	MakeQuery2[BankingComponent, LocomotionController](cmd).Map(func(eid EntityId, bank *BankingComponent, loco *LocomotionController) bool {
		bank.Update(loco.Input.Steering, time.Dt)
		return true
	})
}

func EngineAudioSystem(cmd *Commands, ui *NotifySurface) {
	MakeQuery3[VehicleComponent, EngineAudioComponent, RigidBodyComponent](cmd).Map(func(eid EntityId, v *VehicleComponent, audio *EngineAudioComponent, rb *RigidBodyComponent) bool {
		if audio.Update(rb.Velocity.Len()) {
			ui.EngineAudio(v.Name, audio.Playing, audio.Pitch)
		}
		return true
	})
}

func SpeedometerSystem(cmd *Commands, ui *NotifySurface) {
	MakeQuery3[VehicleComponent, SpeedometerComponent, RigidBodyComponent](cmd).Map(func(eid EntityId, v *VehicleComponent, meter *SpeedometerComponent, rb *RigidBodyComponent) bool {
		if meter.Update(rb.Velocity.Len()) {
			ui.Speedometer(meter.Fill, meter.Text)
		}
		return true
	})
}

// RacerCollisionSystem emits one collision sound per new contact between
// two vehicles' collider spheres.
func RacerCollisionSystem(cmd *Commands, grid *SpatialHashGrid, contacts *RacerContacts, ui *NotifySurface) {
	type body struct {
		name   string
		pos    mgl32.Vec3
		radius float32
	}
	bodies := make(map[EntityId]body)
	var order []EntityId
	MakeQuery3[TransformComponent, VehicleComponent, ColliderComponent](cmd).Map(func(eid EntityId, tr *TransformComponent, v *VehicleComponent, col *ColliderComponent) bool {
		bodies[eid] = body{name: v.Name, pos: tr.Position, radius: col.BoundingRadius()}
		order = append(order, eid)
		return true
	})

	now := make(map[contactPair]struct{})
	for _, a := range order {
		ba := bodies[a]
		for _, b := range grid.QueryRadius(ba.pos, ba.radius) {
			bb, ok := bodies[b]
			if !ok || b <= a {
				continue
			}
			if ba.pos.Sub(bb.pos).Len() > ba.radius+bb.radius {
				continue
			}
			pair := contactPair{a, b}
			now[pair] = struct{}{}
			if _, was := contacts.touching[pair]; !was {
				ui.CollisionSound(ba.name, bb.name)
			}
		}
	}
	contacts.touching = now
}
