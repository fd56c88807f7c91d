// Command hoverrace runs a headless race on a generated loop track and logs
// the result.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gekko3d/hoverrace"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON/YAML/TOML config file")
	timeout := flag.Duration("timeout", 5*time.Minute, "maximum simulated race time")
	seed := flag.Int64("seed", 0, "AI steering seed (0 keeps the config value)")
	realtime := flag.Bool("realtime", false, "step at wall-clock speed instead of as fast as possible")
	flag.Parse()

	if err := run(*configPath, *timeout, *seed, *realtime); err != nil {
		fmt.Fprintln(os.Stderr, "hoverrace:", err)
		os.Exit(1)
	}
}

func run(configPath string, timeout time.Duration, seed int64, realtime bool) error {
	cfg, err := hoverrace.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if seed != 0 {
		cfg.Seed = seed
	}

	level := parseLevel(cfg.Log.Level)
	zerolog.SetGlobalLevel(level)
	zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Str("component", "hoverrace").Logger()
	log := hoverrace.NewZerologLogger(zl, level <= zerolog.DebugLevel)

	gen, err := hoverrace.GenerateLoopTrack(cfg.Track)
	if err != nil {
		return err
	}
	racers := cfg.Race.AIRacers + 1
	builder := hoverrace.NewRaceBuilder().
		WithConfig(cfg).
		WithTrack(gen.Track, gen.World, gen.SpawnPoints(racers)).
		WithLogger(log).
		WithNotifier(hoverrace.LogNotifier{Log: log}).
		AddPlayer("Player", hoverrace.NewAIPilot(cfg.AIPilot(), gen.Track.Positions(), cfg.Seed))
	for i := 1; i < racers; i++ {
		builder.AddAI(fmt.Sprintf("AI %d", i))
	}
	session, err := builder.Build()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Infof("racing %d vehicles over %d checkpoints, %d laps", racers, gen.Track.Len(), cfg.Race.TotalLaps)
	if err := session.Start(); err != nil {
		return err
	}

	if realtime {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		err = session.Run(ctx)
		if errors.Is(err, context.DeadlineExceeded) {
			err = hoverrace.ErrRaceTimeout
		}
	} else {
		err = session.Simulate(ctx, 1/cfg.Race.FrameRate, timeout.Seconds())
	}
	if err != nil && !errors.Is(err, hoverrace.ErrRaceTimeout) {
		return err
	}

	snap := session.Snapshot()
	if winner, ok := session.Director().Winner(); ok {
		log.Infof("winner: %s after %.1fs", winner.Name, snap.Elapsed)
	} else {
		log.Warnf("no winner after %.1fs", snap.Elapsed)
	}
	for _, s := range session.Director().Standings() {
		log.Infof("%d. %s lap %d checkpoint %d", s.Rank, s.Name, s.Laps, s.Checkpoint)
	}
	return err
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToUpper(level) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
