package hoverrace

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
)

type AIPilotConfig struct {
	CheckpointThreshold         float32
	RandomSteeringProbability   float32 // chance per second
	RandomSteeringMaxOffset     float32
	SlowdownDistance            float32
	SlowdownStrength            float32
	TurnThrottleReduction       float32
	AvoidanceRadius             float32
	AvoidanceSteeringStrength   float32
	AvoidanceSlowdownMultiplier float32
	SteeringAngleScale          float32 // degrees for full steering
}

func DefaultAIPilotConfig() AIPilotConfig {
	return AIPilotConfig{
		CheckpointThreshold:         5,
		RandomSteeringProbability:   0.2,
		RandomSteeringMaxOffset:     0.2,
		SlowdownDistance:            10,
		SlowdownStrength:            0.5,
		TurnThrottleReduction:       0.5,
		AvoidanceRadius:             5,
		AvoidanceSteeringStrength:   0.5,
		AvoidanceSlowdownMultiplier: 0.5,
		SteeringAngleScale:          45,
	}
}

// AIPilot follows the checkpoint loop with its own target index, which is
// independent of the racer's official progress.
type AIPilot struct {
	Config      AIPilotConfig
	checkpoints []mgl32.Vec3
	target      int
	rng         *rand.Rand
}

func NewAIPilot(cfg AIPilotConfig, checkpoints []mgl32.Vec3, seed int64) *AIPilot {
	return &AIPilot{
		Config:      cfg,
		checkpoints: checkpoints,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

func (p *AIPilot) Target() int { return p.target }

func (p *AIPilot) SetTarget(index int) {
	if n := len(p.checkpoints); n > 0 {
		p.target = ((index % n) + n) % n
	}
}

func (p *AIPilot) advance() {
	p.target = (p.target + 1) % len(p.checkpoints)
}

func (p *AIPilot) Drive(ctx DriveContext) DriveInput {
	cfg := p.Config
	tr := ctx.Transform
	forward, up := tr.Forward(), tr.Up()

	throttle := float32(1)
	steering := float32(0)

	if len(p.checkpoints) > 0 {
		toTarget := p.checkpoints[p.target].Sub(tr.Position)
		dist := toTarget.Len()
		dir := SafeNormalize(toTarget)

		if forward.Dot(dir) < 0 {
			p.advance()
		} else {
			steering = SteerToward(forward, up, dir, cfg.SteeringAngleScale)

			if p.rng.Float32() < cfg.RandomSteeringProbability*ctx.Dt {
				offset := (p.rng.Float32()*2 - 1) * cfg.RandomSteeringMaxOffset
				steering = mgl32.Clamp(steering+offset, -1, 1)
			}

			throttle = mgl32.Clamp(1-abs32(steering)*cfg.TurnThrottleReduction, 0, 1)
			if dist < cfg.SlowdownDistance && cfg.SlowdownDistance > 0 {
				throttle *= Lerp(1-cfg.SlowdownStrength, 1, dist/cfg.SlowdownDistance)
			}
			if dist < cfg.CheckpointThreshold {
				p.advance()
			}
		}
	}

	if ctx.Neighbors != nil {
		near := ctx.Neighbors.Within(tr.Position, cfg.AvoidanceRadius)
		if away, ok := AvoidanceVector(tr.Position, near, cfg.AvoidanceRadius); ok {
			away = SafeNormalize(ProjectOnPlane(away, up))
			avoid := mgl32.Clamp(SignedAngle(forward, away, up)/cfg.SteeringAngleScale, -1, 1)
			steering = mgl32.Clamp(steering+avoid*cfg.AvoidanceSteeringStrength, -1, 1)
			throttle *= cfg.AvoidanceSlowdownMultiplier
		}
	}

	return DriveInput{Throttle: throttle, Steering: steering}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
