package hoverrace

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrongWay_Check(t *testing.T) {
	ww := DefaultWrongWay()
	tr := NewTransform(mgl32.Vec3{}, mgl32.QuatIdent())
	behind := mgl32.Vec3{0, 0, -10}

	assert.False(t, ww.Check(tr, behind, 0.5))
	assert.False(t, ww.Showing)
	assert.True(t, ww.Check(tr, behind, 0.5))
	assert.True(t, ww.Showing)
	assert.False(t, ww.Check(tr, behind, 0.5), "already showing")

	assert.True(t, ww.Check(tr, mgl32.Vec3{0, 0, 10}, 0.5))
	assert.False(t, ww.Showing)
	assert.Zero(t, ww.Timer)
}

func TestEngineAudio_Update(t *testing.T) {
	e := DefaultEngineAudio()

	assert.False(t, e.Update(0), "idle and silent already")
	assert.True(t, e.Update(10))
	assert.True(t, e.Playing)
	assert.InDelta(t, 1.4, e.Pitch, 1e-5)

	assert.False(t, e.Update(10.2), "pitch moved less than the report step")
	assert.InDelta(t, 1.4, e.Pitch, 1e-5)

	assert.True(t, e.Update(100))
	assert.InDelta(t, 2, e.Pitch, 1e-6)

	assert.True(t, e.Update(0))
	assert.False(t, e.Playing)
	assert.InDelta(t, 0.8, e.Pitch, 1e-6)
}

func TestSpeedometer_Update(t *testing.T) {
	s := SpeedometerComponent{MaxSpeed: 20}

	require.True(t, s.Update(12.6))
	assert.Equal(t, "13V", s.Text)
	assert.InDelta(t, 0.63, s.Fill, 1e-5)
	assert.False(t, s.Update(12.7))

	s.Update(50)
	assert.Equal(t, "20V", s.Text)
	assert.Equal(t, float32(1), s.Fill)

	s.Update(-3)
	assert.Equal(t, "0V", s.Text)

	assert.False(t, (&SpeedometerComponent{}).Update(5))
}

func TestBanking(t *testing.T) {
	b := DefaultBanking()
	b.Update(1, 0.02)
	assert.InDelta(t, 3, b.Angle, 1e-5)
	assert.Less(t, b.Rotation().Rotate(WorldRight).Y(), float32(0), "right side dips into a right turn")

	for i := 0; i < 500; i++ {
		b.Update(-1, 0.02)
	}
	assert.InDelta(t, -30, b.Angle, 1e-2)
}

func TestPauseSystem(t *testing.T) {
	rec := &recordingNotifier{}
	ui := &NotifySurface{rec}
	clock := &Time{Scale: 1}
	in := &Input{}

	press := func(down bool) {
		in.SetKey(KeyEscape, down)
		in.latch()
	}

	press(true)
	PauseSystem(in, clock, ui)
	assert.True(t, clock.Paused())

	// Holding the key does not toggle again.
	in.latch()
	PauseSystem(in, clock, ui)
	assert.True(t, clock.Paused())

	press(false)
	press(true)
	PauseSystem(in, clock, ui)
	assert.False(t, clock.Paused())
	assert.Equal(t, []string{"paused true", "paused false"}, rec.lines())
}

func TestWrongWaySystem(t *testing.T) {
	app := NewAppBuilder().Build()
	cmd := app.Commands()
	rec := &recordingNotifier{}
	progress := NewRacerProgress("A", false)
	cmd.AddEntity(
		NewTransform(mgl32.Vec3{}, mgl32.QuatRotate(float32(math.Pi), WorldUp)),
		VehicleComponent{Name: "A"},
		DefaultWrongWay(),
		RacerComponent{Progress: progress},
	)
	cmd.AddEntity(
		NewTransform(mgl32.Vec3{}, mgl32.QuatIdent()),
		VehicleComponent{Name: "B"},
		DefaultWrongWay(),
	)
	app.FlushCommands()

	race := &RaceState{Track: lineTrack(t, 3, 0)}
	clock := &Time{Dt: 0.6}
	diag := newDiagnostics(NewNopLogger())
	for i := 0; i < 3; i++ {
		WrongWaySystem(cmd, clock, race, &NotifySurface{rec}, diag)
	}
	assert.Equal(t, []string{"wrongway A true"}, rec.lines())
}

func TestRacerCollisionSystem_SoundOncePerContact(t *testing.T) {
	app := NewAppBuilder().Build()
	cmd := app.Commands()
	vehicle := func(name string, x float32) EntityId {
		return cmd.AddEntity(
			NewTransform(mgl32.Vec3{x, 0, 0}, mgl32.QuatIdent()),
			VehicleComponent{Name: name},
			ColliderComponent{Radius: 1},
			AABBComponent{},
		)
	}
	vehicle("A", 0)
	b := vehicle("B", 1.5)
	vehicle("C", 40)
	app.FlushCommands()

	rec := &recordingNotifier{}
	ui := &NotifySurface{rec}
	grid := NewSpatialHashGrid(4)
	contacts := &RacerContacts{touching: make(map[contactPair]struct{})}
	tick := func() {
		UpdateAABBsSystem(cmd)
		UpdateSpatialGridSystem(cmd, grid)
		RacerCollisionSystem(cmd, grid, contacts, ui)
	}

	tick()
	tick()
	assert.Equal(t, 1, rec.count("collision A B"))

	GetComponent[TransformComponent](cmd, b).Position = mgl32.Vec3{10, 0, 0}
	tick()
	GetComponent[TransformComponent](cmd, b).Position = mgl32.Vec3{1, 0, 0}
	tick()
	assert.Equal(t, 2, rec.count("collision A B"))
	assert.Len(t, rec.lines(), 2)
}
