package hoverrace

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

var ErrInvalidConfig = errors.New("invalid config")

type RaceConfig struct {
	TotalLaps         int     `mapstructure:"totalLaps"`
	CountdownSteps    int     `mapstructure:"countdownSteps"`
	CountdownInterval float32 `mapstructure:"countdownInterval"`
	AIRacers          int     `mapstructure:"aiRacers"`
	FixedDt           float32 `mapstructure:"fixedDt"`
	FrameRate         float32 `mapstructure:"frameRate"`
}

type VehicleConfig struct {
	MaxSpeed        float32 `mapstructure:"maxSpeed"`
	Acceleration    float32 `mapstructure:"acceleration"`
	Deceleration    float32 `mapstructure:"deceleration"`
	TurnRate        float32 `mapstructure:"turnRate"`
	ColliderRadius  float32 `mapstructure:"colliderRadius"`
	WrongWayDelay   float32 `mapstructure:"wrongWayDelay"`
	BankingSpeed    float32 `mapstructure:"bankingSpeed"`
	BankingMaxAngle float32 `mapstructure:"bankingMaxAngle"`
	EngineMinPitch  float32 `mapstructure:"engineMinPitch"`
	EngineMaxPitch  float32 `mapstructure:"engineMaxPitch"`
	EngineMaxSpeed  float32 `mapstructure:"engineMaxSpeed"`
}

type HoverConfig struct {
	HoverHeight          float32 `mapstructure:"hoverHeight"`
	RaycastDistance      float32 `mapstructure:"raycastDistance"`
	SmoothLayers         []int   `mapstructure:"smoothLayers"`
	BumpyLayers          []int   `mapstructure:"bumpyLayers"`
	SmoothAdjustSpeed    float32 `mapstructure:"smoothAdjustSpeed"`
	BumpyAdjustSpeed     float32 `mapstructure:"bumpyAdjustSpeed"`
	RotationAdjustSpeed  float32 `mapstructure:"rotationAdjustSpeed"`
	TimeBeforeReset      float32 `mapstructure:"timeBeforeReset"`
	TrackRaycastDistance float32 `mapstructure:"trackRaycastDistance"`
	TrackTag             string  `mapstructure:"trackTag"`
}

type AIConfig struct {
	CheckpointThreshold         float32 `mapstructure:"checkpointThreshold"`
	RandomSteeringProbability   float32 `mapstructure:"randomSteeringProbability"`
	RandomSteeringMaxOffset     float32 `mapstructure:"randomSteeringMaxOffset"`
	SlowdownDistance            float32 `mapstructure:"slowdownDistance"`
	SlowdownStrength            float32 `mapstructure:"slowdownStrength"`
	TurnThrottleReduction       float32 `mapstructure:"turnThrottleReduction"`
	AvoidanceRadius             float32 `mapstructure:"avoidanceRadius"`
	AvoidanceSteeringStrength   float32 `mapstructure:"avoidanceSteeringStrength"`
	AvoidanceSlowdownMultiplier float32 `mapstructure:"avoidanceSlowdownMultiplier"`
	SteeringAngleScale          float32 `mapstructure:"steeringAngleScale"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	Race    RaceConfig     `mapstructure:"race"`
	Vehicle VehicleConfig  `mapstructure:"vehicle"`
	Hover   HoverConfig    `mapstructure:"hover"`
	AI      AIConfig       `mapstructure:"ai"`
	Track   TrackGenConfig `mapstructure:"track"`
	Log     LogConfig      `mapstructure:"log"`
	Seed    int64          `mapstructure:"seed"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("seed", 1)

	v.SetDefault("race.totalLaps", 2)
	v.SetDefault("race.countdownSteps", 3)
	v.SetDefault("race.countdownInterval", 1.0)
	v.SetDefault("race.aiRacers", 3)
	v.SetDefault("race.fixedDt", 0.02)
	v.SetDefault("race.frameRate", 60)

	v.SetDefault("vehicle.maxSpeed", 10)
	v.SetDefault("vehicle.acceleration", 5)
	v.SetDefault("vehicle.deceleration", 7)
	v.SetDefault("vehicle.turnRate", 100)
	v.SetDefault("vehicle.colliderRadius", 1.5)
	v.SetDefault("vehicle.wrongWayDelay", 1)
	v.SetDefault("vehicle.bankingSpeed", 5)
	v.SetDefault("vehicle.bankingMaxAngle", 30)
	v.SetDefault("vehicle.engineMinPitch", 0.8)
	v.SetDefault("vehicle.engineMaxPitch", 2.0)
	v.SetDefault("vehicle.engineMaxSpeed", 20)

	v.SetDefault("hover.hoverHeight", 3)
	v.SetDefault("hover.raycastDistance", 10)
	v.SetDefault("hover.smoothLayers", []int{LayerTrackSmooth})
	v.SetDefault("hover.bumpyLayers", []int{LayerTrackBumpy})
	v.SetDefault("hover.smoothAdjustSpeed", 10)
	v.SetDefault("hover.bumpyAdjustSpeed", 5)
	v.SetDefault("hover.rotationAdjustSpeed", 5)
	v.SetDefault("hover.timeBeforeReset", 3)
	v.SetDefault("hover.trackRaycastDistance", 10)
	v.SetDefault("hover.trackTag", "Track")

	v.SetDefault("ai.checkpointThreshold", 5)
	v.SetDefault("ai.randomSteeringProbability", 0.2)
	v.SetDefault("ai.randomSteeringMaxOffset", 0.2)
	v.SetDefault("ai.slowdownDistance", 10)
	v.SetDefault("ai.slowdownStrength", 0.5)
	v.SetDefault("ai.turnThrottleReduction", 0.5)
	v.SetDefault("ai.avoidanceRadius", 5)
	v.SetDefault("ai.avoidanceSteeringStrength", 0.5)
	v.SetDefault("ai.avoidanceSlowdownMultiplier", 0.5)
	v.SetDefault("ai.steeringAngleScale", 45)

	v.SetDefault("track.radiusX", 60)
	v.SetDefault("track.radiusZ", 40)
	v.SetDefault("track.width", 14)
	v.SetDefault("track.segments", 96)
	v.SetDefault("track.checkpoints", 8)
	v.SetDefault("track.hillHeight", 4)
	v.SetDefault("track.hills", 2)
	v.SetDefault("track.bankAngle", 8)
	v.SetDefault("track.bumpyFraction", 0.25)
	v.SetDefault("track.skipTolerance", 2)
	v.SetDefault("track.gateHeight", 8)
	v.SetDefault("track.gateDepth", 2)
	v.SetDefault("track.hoverHeight", 3)

	v.SetDefault("log.level", "info")
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("default config does not decode: %v", err))
	}
	return cfg
}

// LoadConfig reads a JSON, YAML or TOML file over the defaults. Any key can
// also be set from the environment as HOVERRACE_<SECTION>_<KEY>, e.g.
// HOVERRACE_RACE_TOTALLAPS=3. An empty path loads defaults plus
// environment.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("HOVERRACE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Race.TotalLaps < 1 {
		errs = append(errs, fmt.Errorf("race.totalLaps must be >= 1, got %d", c.Race.TotalLaps))
	}
	if c.Race.CountdownSteps < 0 || c.Race.CountdownInterval < 0 {
		errs = append(errs, errors.New("race countdown must not be negative"))
	}
	if c.Race.AIRacers < 0 {
		errs = append(errs, fmt.Errorf("race.aiRacers must be >= 0, got %d", c.Race.AIRacers))
	}
	if c.Race.FixedDt <= 0 {
		errs = append(errs, fmt.Errorf("race.fixedDt must be positive, got %v", c.Race.FixedDt))
	}
	if c.Vehicle.MaxSpeed <= 0 {
		errs = append(errs, fmt.Errorf("vehicle.maxSpeed must be positive, got %v", c.Vehicle.MaxSpeed))
	}
	if c.Hover.RaycastDistance <= 0 || c.Hover.HoverHeight < 0 {
		errs = append(errs, errors.New("hover distances out of range"))
	}
	if c.AI.SteeringAngleScale <= 0 {
		errs = append(errs, fmt.Errorf("ai.steeringAngleScale must be positive, got %v", c.AI.SteeringAngleScale))
	}
	if err := c.Track.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Component builders from config.

func (c Config) HoverComponent() HoverComponent {
	h := c.Hover
	return HoverComponent{
		HoverHeight:          h.HoverHeight,
		RaycastDistance:      h.RaycastDistance,
		SmoothLayers:         Layers(h.SmoothLayers...),
		BumpyLayers:          Layers(h.BumpyLayers...),
		SmoothAdjustSpeed:    h.SmoothAdjustSpeed,
		BumpyAdjustSpeed:     h.BumpyAdjustSpeed,
		RotationAdjustSpeed:  h.RotationAdjustSpeed,
		TimeBeforeReset:      h.TimeBeforeReset,
		TrackRaycastDistance: h.TrackRaycastDistance,
		TrackTag:             h.TrackTag,
	}
}

func (c Config) Locomotion() LocomotionController {
	return LocomotionController{
		MaxSpeed:     c.Vehicle.MaxSpeed,
		Acceleration: c.Vehicle.Acceleration,
		Deceleration: c.Vehicle.Deceleration,
		TurnRate:     c.Vehicle.TurnRate,
	}
}

func (c Config) AIPilot() AIPilotConfig {
	a := c.AI
	return AIPilotConfig{
		CheckpointThreshold:         a.CheckpointThreshold,
		RandomSteeringProbability:   a.RandomSteeringProbability,
		RandomSteeringMaxOffset:     a.RandomSteeringMaxOffset,
		SlowdownDistance:            a.SlowdownDistance,
		SlowdownStrength:            a.SlowdownStrength,
		TurnThrottleReduction:       a.TurnThrottleReduction,
		AvoidanceRadius:             a.AvoidanceRadius,
		AvoidanceSteeringStrength:   a.AvoidanceSteeringStrength,
		AvoidanceSlowdownMultiplier: a.AvoidanceSlowdownMultiplier,
		SteeringAngleScale:          a.SteeringAngleScale,
	}
}

func (c Config) Director() RaceDirectorConfig {
	return RaceDirectorConfig{
		TotalLaps:         c.Race.TotalLaps,
		CountdownSteps:    c.Race.CountdownSteps,
		CountdownInterval: c.Race.CountdownInterval,
	}
}
