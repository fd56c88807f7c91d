package hoverrace

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrUnknownRacer = errors.New("unknown racer")
	ErrRaceStarted  = errors.New("race already started")
)

type RacePhase int

const (
	PhaseSetup RacePhase = iota
	PhaseCountdown
	PhaseRacing
	PhaseFinished
)

func (p RacePhase) String() string {
	switch p {
	case PhaseSetup:
		return "setup"
	case PhaseCountdown:
		return "countdown"
	case PhaseRacing:
		return "racing"
	case PhaseFinished:
		return "finished"
	}
	return fmt.Sprintf("RacePhase(%d)", int(p))
}

// Fleet freezes and releases the vehicles of registered racers.
type Fleet interface {
	Freeze(racer RacerID)
	Release(racer RacerID)
}

type RaceDirectorConfig struct {
	TotalLaps         int
	CountdownSteps    int
	CountdownInterval float32 // seconds between countdown ticks
}

func DefaultRaceDirectorConfig() RaceDirectorConfig {
	return RaceDirectorConfig{TotalLaps: 2, CountdownSteps: 3, CountdownInterval: 1}
}

// RaceDirector owns the race phase machine, the racer registry, the live
// ranking and the winner. All methods run on the simulation goroutine.
type RaceDirector struct {
	cfg   RaceDirectorConfig
	track *Track
	phase RacePhase

	racers  []*RacerProgress
	byID    map[RacerID]*RacerProgress
	ranking []*RacerProgress
	winner  *RacerProgress

	countdownRemaining int
	countdownTimer     float32

	lastRank int
	lastLaps int

	fleet   Fleet
	notify  Notifier
	log     Logger
	metrics *Metrics
}

func NewRaceDirector(cfg RaceDirectorConfig, track *Track, fleet Fleet, notify Notifier, log Logger, metrics *Metrics) (*RaceDirector, error) {
	if track.Len() == 0 {
		return nil, ErrNoCheckpoints
	}
	if cfg.TotalLaps < 1 {
		return nil, fmt.Errorf("%w: total laps must be at least 1, got %d", ErrInvalidConfig, cfg.TotalLaps)
	}
	if cfg.CountdownSteps < 0 || cfg.CountdownInterval < 0 {
		return nil, fmt.Errorf("%w: negative countdown", ErrInvalidConfig)
	}
	if notify == nil {
		notify = NopNotifier{}
	}
	if log == nil {
		log = NewNopLogger()
	}
	return &RaceDirector{
		cfg:      cfg,
		track:    track,
		byID:     make(map[RacerID]*RacerProgress),
		fleet:    fleet,
		notify:   notify,
		log:      log,
		metrics:  metrics,
		lastRank: -1,
		lastLaps: -1,
	}, nil
}

func (d *RaceDirector) Phase() RacePhase           { return d.phase }
func (d *RaceDirector) Track() *Track              { return d.track }
func (d *RaceDirector) Config() RaceDirectorConfig { return d.cfg }
func (d *RaceDirector) NumberOfCheckpoints() int   { return d.track.Len() }

func (d *RaceDirector) Winner() (*RacerProgress, bool) {
	return d.winner, d.winner != nil
}

// Racers returns the registered racers in registration order.
func (d *RaceDirector) Racers() []*RacerProgress {
	return append([]*RacerProgress(nil), d.racers...)
}

// Ranking returns racers ordered first to last as of the last update.
func (d *RaceDirector) Ranking() []*RacerProgress {
	return append([]*RacerProgress(nil), d.ranking...)
}

func (d *RaceDirector) Racer(id RacerID) (*RacerProgress, bool) {
	p, ok := d.byID[id]
	return p, ok
}

// Register adds a racer. Only allowed before Start.
func (d *RaceDirector) Register(p *RacerProgress) error {
	if p == nil {
		return fmt.Errorf("%w: nil progress", ErrUnknownRacer)
	}
	if d.phase != PhaseSetup {
		return ErrRaceStarted
	}
	if _, dup := d.byID[p.ID]; dup {
		return fmt.Errorf("racer %s registered twice", p.ID)
	}
	d.racers = append(d.racers, p)
	d.ranking = append(d.ranking, p)
	d.byID[p.ID] = p
	return nil
}

// Start freezes every vehicle and begins the countdown.
func (d *RaceDirector) Start() error {
	if d.phase != PhaseSetup {
		return ErrRaceStarted
	}
	d.freezeAll()
	d.setPhase(PhaseCountdown)
	d.countdownRemaining = d.cfg.CountdownSteps
	d.countdownTimer = 0
	if d.countdownRemaining == 0 {
		d.startRacing()
		return nil
	}
	d.notify.CountdownTick(d.countdownRemaining)
	return nil
}

// Update advances the countdown and, while racing, refreshes the ranking.
func (d *RaceDirector) Update(dt float32) {
	switch d.phase {
	case PhaseCountdown:
		d.countdownTimer += dt
		for d.phase == PhaseCountdown && d.countdownTimer >= d.cfg.CountdownInterval {
			d.countdownTimer -= d.cfg.CountdownInterval
			d.countdownRemaining--
			if d.countdownRemaining > 0 {
				d.notify.CountdownTick(d.countdownRemaining)
			} else {
				d.startRacing()
			}
		}
	case PhaseRacing:
		d.RecomputeRanking()
		d.publish()
	}
}

func (d *RaceDirector) startRacing() {
	d.releaseAll()
	d.setPhase(PhaseRacing)
	d.notify.RaceStarted()
	d.RecomputeRanking()
	d.publish()
}

// RecomputeRanking stable-sorts racers by descending progress value, so
// racers with equal progress keep their previous relative order.
func (d *RaceDirector) RecomputeRanking() {
	n := d.track.Len()
	sort.SliceStable(d.ranking, func(i, j int) bool {
		return d.ranking[i].ProgressValue(n) > d.ranking[j].ProgressValue(n)
	})
}

// RankOf is the 1-based position of a racer, or 0 if unknown.
func (d *RaceDirector) RankOf(id RacerID) int {
	for i, p := range d.ranking {
		if p.ID == id {
			return i + 1
		}
	}
	return 0
}

func (d *RaceDirector) LapsRemaining(p *RacerProgress) int {
	return max(d.cfg.TotalLaps-p.LapCount, 0)
}

func (d *RaceDirector) player() *RacerProgress {
	for _, p := range d.racers {
		if p.IsPlayer {
			return p
		}
	}
	return nil
}

func (d *RaceDirector) publish() {
	p := d.player()
	if p == nil {
		return
	}
	if rank := d.RankOf(p.ID); rank != d.lastRank {
		d.lastRank = rank
		d.notify.RankChanged(rank, len(d.racers))
	}
	if laps := d.LapsRemaining(p); laps != d.lastLaps {
		d.lastLaps = laps
		d.notify.LapsRemaining(laps)
	}
}

// PassCheckpoint applies a checkpoint crossing. It returns whether the
// racer's progress advanced.
func (d *RaceDirector) PassCheckpoint(ev CheckpointPassed) bool {
	if d.phase != PhaseCountdown && d.phase != PhaseRacing {
		return false
	}
	p, ok := d.byID[ev.Racer]
	if !ok {
		d.log.Warnf("checkpoint %d crossed by %v: %v", ev.CheckpointIndex, ev.Racer, ErrUnknownRacer)
		return false
	}
	cp, ok := d.track.Checkpoint(ev.CheckpointIndex)
	if !ok {
		d.log.Warnf("checkpoint index %d out of range for %s", ev.CheckpointIndex, p.Name)
		return false
	}
	lap := p.LapCount
	if !p.Pass(cp, d.track.Len()) {
		d.metrics.CheckpointRejected(p.Name)
		d.log.Debugf("%s: checkpoint %d out of order (expected %d)", p.Name, cp.Index, p.CurrentCheckpointIndex)
		return false
	}
	d.metrics.CheckpointAccepted(p.Name)
	if p.LapCount != lap {
		d.log.Infof("%s completed lap %d", p.Name, p.LapCount)
	}
	return true
}

// CrossFinish handles a finish-line crossing.
func (d *RaceDirector) CrossFinish(ev FinishCrossed) bool {
	p, ok := d.byID[ev.Racer]
	if !ok {
		d.log.Warnf("finish line crossed by %v: %v", ev.Racer, ErrUnknownRacer)
		return false
	}
	return d.CheckFinish(p)
}

// Deliver dispatches a trigger event.
func (d *RaceDirector) Deliver(ev RaceEvent) {
	switch e := ev.(type) {
	case CheckpointPassed:
		d.PassCheckpoint(e)
	case FinishCrossed:
		d.CrossFinish(e)
	}
}

// CheckFinish declares p the winner if it has completed the race and no
// winner exists yet. Later calls never change the winner.
func (d *RaceDirector) CheckFinish(p *RacerProgress) bool {
	if p == nil || d.winner != nil || d.phase != PhaseRacing {
		return false
	}
	if p.LapCount < d.cfg.TotalLaps {
		return false
	}
	d.winner = p
	d.RecomputeRanking()
	d.freezeAll()
	d.setPhase(PhaseFinished)
	d.metrics.RaceFinished(p.Name)
	d.log.Infof("%s wins after %d laps", p.Name, p.LapCount)

	result := RaceResult{Standings: d.Standings(), PlayerWon: p.IsPlayer}
	for _, s := range result.Standings {
		if s.Racer == p.ID {
			result.Winner = s
		}
	}
	d.notify.RaceFinished(result)
	return true
}

// Standings renders the ranking. The winner, once known, is listed first.
func (d *RaceDirector) Standings() []Standing {
	order := d.Ranking()
	if d.winner != nil {
		for i, p := range order {
			if p == d.winner {
				copy(order[1:i+1], order[:i])
				order[0] = d.winner
				break
			}
		}
	}
	res := make([]Standing, len(order))
	for i, p := range order {
		res[i] = Standing{
			Rank:       i + 1,
			Racer:      p.ID,
			Name:       p.Name,
			IsPlayer:   p.IsPlayer,
			Laps:       p.LapCount,
			Checkpoint: p.CurrentCheckpointIndex,
		}
	}
	return res
}

func (d *RaceDirector) setPhase(phase RacePhase) {
	d.log.Debugf("race phase %s -> %s", d.phase, phase)
	d.phase = phase
	d.metrics.PhaseTransition(phase)
}

func (d *RaceDirector) freezeAll() {
	if d.fleet == nil {
		return
	}
	for _, p := range d.racers {
		d.fleet.Freeze(p.ID)
	}
}

func (d *RaceDirector) releaseAll() {
	if d.fleet == nil {
		return
	}
	for _, p := range d.racers {
		d.fleet.Release(p.ID)
	}
}
