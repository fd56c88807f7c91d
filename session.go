package hoverrace

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

type racerSlot struct {
	name     string
	isPlayer bool
	source   InputSource
}

// RaceBuilder assembles a RaceSession from explicit parts. Without a track
// it generates one from the config.
type RaceBuilder struct {
	cfg      Config
	track    *Track
	world    CollisionWorld
	spawns   []TransformComponent
	notifier Notifier
	logger   Logger
	metrics  *Metrics
	seed     int64
	seeded   bool
	racers   []racerSlot
}

func NewRaceBuilder() *RaceBuilder {
	return &RaceBuilder{cfg: DefaultConfig()}
}

func (b *RaceBuilder) WithConfig(cfg Config) *RaceBuilder {
	b.cfg = cfg
	return b
}

// WithTrack races on a prepared track. spawns must hold a pose per racer.
func (b *RaceBuilder) WithTrack(track *Track, world CollisionWorld, spawns []TransformComponent) *RaceBuilder {
	b.track = track
	b.world = world
	b.spawns = spawns
	return b
}

func (b *RaceBuilder) WithNotifier(n Notifier) *RaceBuilder {
	b.notifier = n
	return b
}

func (b *RaceBuilder) WithLogger(l Logger) *RaceBuilder {
	b.logger = l
	return b
}

func (b *RaceBuilder) WithMetrics(m *Metrics) *RaceBuilder {
	b.metrics = m
	return b
}

// WithSeed overrides the config seed used for AI steering noise.
func (b *RaceBuilder) WithSeed(seed int64) *RaceBuilder {
	b.seed = seed
	b.seeded = true
	return b
}

// AddPlayer adds the human racer. A nil source reads the keyboard axes.
func (b *RaceBuilder) AddPlayer(name string, source InputSource) *RaceBuilder {
	if source == nil {
		source = HumanInput{}
	}
	b.racers = append(b.racers, racerSlot{name: name, isPlayer: true, source: source})
	return b
}

// AddAI adds an AI racer following the track checkpoints.
func (b *RaceBuilder) AddAI(name string) *RaceBuilder {
	b.racers = append(b.racers, racerSlot{name: name})
	return b
}

func (b *RaceBuilder) Build() (*RaceSession, error) {
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}
	if len(b.racers) == 0 {
		return nil, fmt.Errorf("%w: no racers", ErrInvalidConfig)
	}
	players := 0
	for _, r := range b.racers {
		if r.isPlayer {
			players++
		}
	}
	if players > 1 {
		return nil, fmt.Errorf("%w: %d players, at most one allowed", ErrInvalidConfig, players)
	}

	track, world, spawns := b.track, b.world, b.spawns
	if track == nil {
		gen, err := GenerateLoopTrack(b.cfg.Track)
		if err != nil {
			return nil, fmt.Errorf("generating track: %w", err)
		}
		track, world, spawns = gen.Track, gen.World, gen.SpawnPoints(len(b.racers))
	}
	if track.Len() == 0 {
		return nil, ErrNoCheckpoints
	}
	if len(spawns) < len(b.racers) {
		return nil, fmt.Errorf("%w: %d spawn points for %d racers", ErrInvalidConfig, len(spawns), len(b.racers))
	}

	log := b.logger
	if log == nil {
		log = NewNopLogger()
	}
	notifier := b.notifier
	if notifier == nil {
		notifier = NopNotifier{}
	}
	metrics := b.metrics
	if metrics == nil {
		var err error
		if metrics, err = NewMetrics(); err != nil {
			return nil, fmt.Errorf("creating metrics: %w", err)
		}
	}
	seed := b.cfg.Seed
	if b.seeded {
		seed = b.seed
	}

	builder := NewAppBuilder()
	fleet := newECSFleet(builder.app.Commands())
	director, err := NewRaceDirector(b.cfg.Director(), track, fleet, notifier, log, metrics)
	if err != nil {
		return nil, err
	}

	physics := NewPhysicsWorld()
	physics.MaxLinearSpeed = b.cfg.Vehicle.MaxSpeed * 4
	snapshots := &snapshotStore{}
	app := builder.UseModules(
		LoggingModule{Logger: log},
		TimeModule{FixedDt: b.cfg.Race.FixedDt},
		InputModule{},
		GeometryModule{World: world},
		// Fixed tick order: hover, drive, locomotion, then integration.
		HoverModule{},
		LocomotionModule{},
		PhysicsModule{World: physics},
		SpatialGridModule{CellSize: 2 * b.cfg.AI.AvoidanceRadius},
		RaceModule{Director: director, Metrics: metrics},
		FeedbackModule{},
		sessionModule{notifier: notifier, snapshots: snapshots},
	).Build()

	s := &RaceSession{app: app, director: director, snapshots: snapshots, frameRate: b.cfg.Race.FrameRate}
	cmd := app.Commands()
	checkpoints := track.Positions()
	for i, slot := range b.racers {
		progress := NewRacerProgress(slot.name, slot.isPlayer)
		source := slot.source
		if source == nil {
			source = NewAIPilot(b.cfg.AIPilot(), checkpoints, seed+int64(i))
		}
		eid := cmd.AddEntity(b.vehicleComponents(slot, spawns[i], progress, source)...)
		progress.Entity = eid
		if err := director.Register(progress); err != nil {
			return nil, err
		}
		fleet.Bind(progress.ID, eid)
	}
	app.FlushCommands()
	return s, nil
}

func (b *RaceBuilder) vehicleComponents(slot racerSlot, spawn TransformComponent, progress *RacerProgress, source InputSource) []any {
	v := b.cfg.Vehicle
	wrongWay := DefaultWrongWay()
	wrongWay.Delay = v.WrongWayDelay
	audio := EngineAudioComponent{MinPitch: v.EngineMinPitch, MaxPitch: v.EngineMaxPitch, MaxSpeed: v.EngineMaxSpeed, Pitch: v.EngineMinPitch}
	components := []any{
		spawn,
		RigidBodyComponent{Mass: 1, GravityScale: 0},
		ColliderComponent{Radius: v.ColliderRadius},
		AABBComponent{},
		b.cfg.HoverComponent(),
		b.cfg.Locomotion(),
		DriverComponent{Source: source},
		VehicleComponent{Name: slot.name, IsPlayer: slot.isPlayer},
		RacerComponent{Progress: progress},
		wrongWay,
		audio,
		BankingComponent{Speed: v.BankingSpeed, MaxAngle: v.BankingMaxAngle},
	}
	if slot.isPlayer {
		components = append(components, SpeedometerComponent{MaxSpeed: v.MaxSpeed})
	}
	return components
}

// VehiclePose is one vehicle as of the last completed frame.
type VehiclePose struct {
	Entity   EntityId
	Name     string
	IsPlayer bool
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Speed    float32
	Airborne bool
}

// Snapshot is a copy of the race state safe to read from other goroutines.
type Snapshot struct {
	Frame     uint64
	Elapsed   float64
	Phase     RacePhase
	Standings []Standing
	Vehicles  []VehiclePose
}

type snapshotStore struct {
	mu   sync.RWMutex
	snap Snapshot
}

func (s *snapshotStore) load() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *snapshotStore) store(snap Snapshot) {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}

type sessionModule struct {
	notifier  Notifier
	snapshots *snapshotStore
}

func (m sessionModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&NotifySurface{Notifier: m.notifier}, m.snapshots)
	app.UseSystem(
		System(SnapshotSystem).InStage(Finale),
	)
}

// SnapshotSystem publishes the frame's end state and asks the app to stop
// once the race is over.
func SnapshotSystem(cmd *Commands, time *Time, race *RaceState, snapshots *snapshotStore) {
	snap := Snapshot{
		Frame:     time.Frame,
		Elapsed:   time.Elapsed,
		Phase:     race.Director.Phase(),
		Standings: race.Director.Standings(),
	}
	MakeQuery4[TransformComponent, VehicleComponent, LocomotionController, HoverComponent](cmd).Map(func(eid EntityId, tr *TransformComponent, v *VehicleComponent, loco *LocomotionController, hover *HoverComponent) bool {
		snap.Vehicles = append(snap.Vehicles, VehiclePose{
			Entity:   eid,
			Name:     v.Name,
			IsPlayer: v.IsPlayer,
			Position: tr.Position,
			Rotation: tr.Rotation,
			Speed:    loco.CurrentSpeed,
			Airborne: hover.State == Airborne,
		})
		return true
	})
	snapshots.store(snap)
	if snap.Phase == PhaseFinished {
		cmd.RequestExit()
	}
}

// RaceSession owns one race. Step, Start and Run must be called from a
// single goroutine; Snapshot may be called from any.
type RaceSession struct {
	app       *App
	director  *RaceDirector
	snapshots *snapshotStore
	frameRate float32
}

// Start freezes the grid and begins the countdown.
func (s *RaceSession) Start() error {
	return s.director.Start()
}

// Step advances the simulation by one frame.
func (s *RaceSession) Step(frameDt float32) {
	s.app.Update(frameDt)
}

// Run steps in real time until the race finishes or ctx is done.
func (s *RaceSession) Run(ctx context.Context) error {
	return s.app.Run(ctx, s.frameRate)
}

// Simulate steps as fast as possible with a fixed frame delta until the race
// finishes, ctx is done or maxSeconds of race time elapsed.
func (s *RaceSession) Simulate(ctx context.Context, frameDt float32, maxSeconds float64) error {
	if frameDt <= 0 {
		return fmt.Errorf("frame delta must be positive, got %v", frameDt)
	}
	clock := Resource[Time](s.app)
	for !s.Done() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if maxSeconds > 0 && clock.Elapsed >= maxSeconds {
			return ErrRaceTimeout
		}
		s.Step(frameDt)
	}
	return nil
}

var ErrRaceTimeout = errors.New("race did not finish in time")

func (s *RaceSession) Done() bool {
	return s.director.Phase() == PhaseFinished
}

func (s *RaceSession) Director() *RaceDirector { return s.director }

func (s *RaceSession) Input() *Input { return Resource[Input](s.app) }

func (s *RaceSession) Time() *Time { return Resource[Time](s.app) }

func (s *RaceSession) Snapshot() Snapshot { return s.snapshots.load() }

func (s *RaceSession) App() *App { return s.app }
