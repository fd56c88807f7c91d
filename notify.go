package hoverrace

// Standing is one line of a ranking.
type Standing struct {
	Rank       int
	Racer      RacerID
	Name       string
	IsPlayer   bool
	Laps       int
	Checkpoint int
}

type RaceResult struct {
	Winner    Standing
	PlayerWon bool
	Standings []Standing
}

// Notifier is the UI and audio collaborator. Implementations must not call
// back into the simulation.
type Notifier interface {
	CountdownTick(remaining int)
	RaceStarted()
	RankChanged(rank, racers int)
	LapsRemaining(laps int)
	RaceFinished(result RaceResult)
	WrongWay(racer string, showing bool)
	CollisionSound(a, b string)
	EngineAudio(racer string, playing bool, pitch float32)
	Speedometer(fill float32, text string)
	Paused(paused bool)
}

type NopNotifier struct{}

func (NopNotifier) CountdownTick(int)                 {}
func (NopNotifier) RaceStarted()                      {}
func (NopNotifier) RankChanged(int, int)              {}
func (NopNotifier) LapsRemaining(int)                 {}
func (NopNotifier) RaceFinished(RaceResult)           {}
func (NopNotifier) WrongWay(string, bool)             {}
func (NopNotifier) CollisionSound(string, string)     {}
func (NopNotifier) EngineAudio(string, bool, float32) {}
func (NopNotifier) Speedometer(float32, string)       {}
func (NopNotifier) Paused(bool)                       {}

// LogNotifier reports UI events to a logger, for headless runs.
type LogNotifier struct {
	Log Logger
}

func (n LogNotifier) CountdownTick(remaining int) { n.Log.Infof("countdown: %d", remaining) }
func (n LogNotifier) RaceStarted()                { n.Log.Infof("GO!") }
func (n LogNotifier) RankChanged(rank, racers int) {
	n.Log.Infof("player position %d/%d", rank, racers)
}
func (n LogNotifier) LapsRemaining(laps int) { n.Log.Infof("laps remaining: %d", laps) }

func (n LogNotifier) RaceFinished(result RaceResult) {
	if result.PlayerWon {
		n.Log.Infof("race finished: you win")
	} else {
		n.Log.Infof("race finished: %s wins", result.Winner.Name)
	}
	for _, s := range result.Standings {
		n.Log.Infof("  %d. %s (lap %d, checkpoint %d)", s.Rank, s.Name, s.Laps, s.Checkpoint)
	}
}

func (n LogNotifier) WrongWay(racer string, showing bool) {
	if showing {
		n.Log.Infof("%s: wrong way", racer)
	}
}

func (n LogNotifier) CollisionSound(a, b string) { n.Log.Debugf("collision %s <-> %s", a, b) }

func (n LogNotifier) EngineAudio(racer string, playing bool, pitch float32) {
	n.Log.Debugf("%s engine playing=%v pitch=%.2f", racer, playing, pitch)
}

func (n LogNotifier) Speedometer(fill float32, text string) {
	n.Log.Debugf("speedometer %s (%.2f)", text, fill)
}

func (n LogNotifier) Paused(paused bool) { n.Log.Infof("paused=%v", paused) }

// NotifySurface carries the Notifier as an app resource.
type NotifySurface struct {
	Notifier
}
