package hoverrace

import (
	"fmt"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

// recordingNotifier keeps every notification as a formatted line.
type recordingNotifier struct {
	mu     sync.Mutex
	events []string
	result *RaceResult
}

func (n *recordingNotifier) add(format string, args ...any) {
	n.mu.Lock()
	n.events = append(n.events, fmt.Sprintf(format, args...))
	n.mu.Unlock()
}

func (n *recordingNotifier) CountdownTick(r int)          { n.add("countdown %d", r) }
func (n *recordingNotifier) RaceStarted()                 { n.add("started") }
func (n *recordingNotifier) RankChanged(rank, racers int) { n.add("rank %d/%d", rank, racers) }
func (n *recordingNotifier) LapsRemaining(laps int)       { n.add("laps %d", laps) }
func (n *recordingNotifier) RaceFinished(r RaceResult) {
	n.mu.Lock()
	n.result = &r
	n.mu.Unlock()
	n.add("finished %s", r.Winner.Name)
}
func (n *recordingNotifier) WrongWay(racer string, showing bool) {
	n.add("wrongway %s %v", racer, showing)
}
func (n *recordingNotifier) CollisionSound(a, b string) { n.add("collision %s %s", a, b) }
func (n *recordingNotifier) EngineAudio(racer string, playing bool, pitch float32) {
	n.add("engine %s %v %.2f", racer, playing, pitch)
}
func (n *recordingNotifier) Speedometer(fill float32, text string) { n.add("speed %s", text) }
func (n *recordingNotifier) Paused(p bool)                         { n.add("paused %v", p) }

func (n *recordingNotifier) lines() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

func (n *recordingNotifier) count(line string) int {
	c := 0
	for _, e := range n.lines() {
		if e == line {
			c++
		}
	}
	return c
}

type fakeFleet struct {
	frozen map[RacerID]bool
}

func newFakeFleet() *fakeFleet {
	return &fakeFleet{frozen: make(map[RacerID]bool)}
}

func (f *fakeFleet) Freeze(id RacerID)  { f.frozen[id] = true }
func (f *fakeFleet) Release(id RacerID) { f.frozen[id] = false }

// lineTrack lays n checkpoints along +Z, ten units apart, each a 4x4x1 box.
func lineTrack(t *testing.T, n, tolerance int) *Track {
	t.Helper()
	cps := make([]Checkpoint, n)
	for i := range cps {
		pos := mgl32.Vec3{0, 0, float32(i+1) * 10}
		cps[i] = Checkpoint{
			Index:         i,
			Position:      pos,
			Volume:        BoxTrigger(pos, mgl32.Vec3{2, 2, 0.5}, mgl32.QuatIdent()),
			SkipTolerance: tolerance,
		}
	}
	track, err := NewTrack(cps, cps[n-1].Volume)
	require.NoError(t, err)
	return track
}
