package hoverrace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type directorFixture struct {
	director *RaceDirector
	notify   *recordingNotifier
	fleet    *fakeFleet
	track    *Track
}

func newDirectorFixture(t *testing.T, cfg RaceDirectorConfig, checkpoints int) *directorFixture {
	t.Helper()
	f := &directorFixture{notify: &recordingNotifier{}, fleet: newFakeFleet(), track: lineTrack(t, checkpoints, 1)}
	d, err := NewRaceDirector(cfg, f.track, f.fleet, f.notify, NewNopLogger(), nil)
	require.NoError(t, err)
	f.director = d
	return f
}

func (f *directorFixture) racer(t *testing.T, name string, player bool) *RacerProgress {
	t.Helper()
	p := NewRacerProgress(name, player)
	require.NoError(t, f.director.Register(p))
	return p
}

func (f *directorFixture) pass(p *RacerProgress, indices ...int) {
	for _, i := range indices {
		f.director.Deliver(CheckpointPassed{Racer: p.ID, CheckpointIndex: i})
	}
}

func TestNewRaceDirector_Validation(t *testing.T) {
	_, err := NewRaceDirector(DefaultRaceDirectorConfig(), nil, nil, nil, nil, nil)
	assert.ErrorIs(t, err, ErrNoCheckpoints)

	track := lineTrack(t, 3, 0)
	_, err = NewRaceDirector(RaceDirectorConfig{TotalLaps: 0}, track, nil, nil, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewRaceDirector(RaceDirectorConfig{TotalLaps: 1, CountdownSteps: -1}, track, nil, nil, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	d, err := NewRaceDirector(DefaultRaceDirectorConfig(), track, nil, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, PhaseSetup, d.Phase())
	assert.Equal(t, 3, d.NumberOfCheckpoints())
}

func TestRaceDirector_Register(t *testing.T) {
	f := newDirectorFixture(t, DefaultRaceDirectorConfig(), 4)
	p := f.racer(t, "A", false)

	assert.Error(t, f.director.Register(p), "duplicate id")
	assert.ErrorIs(t, f.director.Register(nil), ErrUnknownRacer)

	require.NoError(t, f.director.Start())
	assert.ErrorIs(t, f.director.Register(NewRacerProgress("late", false)), ErrRaceStarted)
	assert.ErrorIs(t, f.director.Start(), ErrRaceStarted)
}

func TestRaceDirector_Countdown(t *testing.T) {
	f := newDirectorFixture(t, RaceDirectorConfig{TotalLaps: 1, CountdownSteps: 3, CountdownInterval: 1}, 4)
	a := f.racer(t, "A", true)

	require.NoError(t, f.director.Start())
	assert.Equal(t, PhaseCountdown, f.director.Phase())
	assert.True(t, f.fleet.frozen[a.ID])
	assert.Equal(t, []string{"countdown 3"}, f.notify.lines())

	f.director.Update(0.5)
	f.director.Update(0.5)
	assert.Equal(t, "countdown 2", f.notify.lines()[1])

	// A long frame may carry several ticks.
	f.director.Update(2)
	assert.Equal(t, PhaseRacing, f.director.Phase())
	assert.False(t, f.fleet.frozen[a.ID])
	assert.Equal(t, []string{"countdown 3", "countdown 2", "countdown 1", "started", "rank 1/1", "laps 1"}, f.notify.lines())
}

func TestRaceDirector_NoCountdownStartsImmediately(t *testing.T) {
	f := newDirectorFixture(t, RaceDirectorConfig{TotalLaps: 1}, 4)
	f.racer(t, "A", false)
	require.NoError(t, f.director.Start())
	assert.Equal(t, PhaseRacing, f.director.Phase())
	assert.Equal(t, 1, f.notify.count("started"))
}

func TestRaceDirector_RankingByProgressValue(t *testing.T) {
	f := newDirectorFixture(t, RaceDirectorConfig{TotalLaps: 3}, 4)
	b := f.racer(t, "B", false)
	a := f.racer(t, "A", true)
	require.NoError(t, f.director.Start())

	a.LapCount, a.CurrentCheckpointIndex = 1, 3
	b.LapCount, b.CurrentCheckpointIndex = 1, 1
	assert.Equal(t, 7, a.ProgressValue(4))
	assert.Equal(t, 5, b.ProgressValue(4))

	f.director.Update(0.02)
	ranking := f.director.Ranking()
	assert.Equal(t, []*RacerProgress{a, b}, ranking)
	assert.Equal(t, 1, f.director.RankOf(a.ID))
	assert.Equal(t, 2, f.director.RankOf(b.ID))
	assert.Equal(t, 0, f.director.RankOf(NewRacerID()))
	assert.Equal(t, 2, f.director.LapsRemaining(a))
}

func TestRaceDirector_EqualProgressKeepsOrder(t *testing.T) {
	f := newDirectorFixture(t, RaceDirectorConfig{TotalLaps: 3}, 4)
	a := f.racer(t, "A", false)
	b := f.racer(t, "B", false)
	c := f.racer(t, "C", false)
	require.NoError(t, f.director.Start())

	f.director.Update(0.02)
	assert.Equal(t, []*RacerProgress{a, b, c}, f.director.Ranking())

	f.pass(c, 0)
	f.director.Update(0.02)
	assert.Equal(t, []*RacerProgress{c, a, b}, f.director.Ranking())
}

func TestRaceDirector_PublishesOnlyChanges(t *testing.T) {
	f := newDirectorFixture(t, RaceDirectorConfig{TotalLaps: 2}, 4)
	player := f.racer(t, "P", true)
	ai := f.racer(t, "AI", false)
	require.NoError(t, f.director.Start())

	for i := 0; i < 5; i++ {
		f.director.Update(0.02)
	}
	assert.Equal(t, 1, f.notify.count("rank 1/2"))

	f.pass(ai, 0)
	f.director.Update(0.02)
	f.director.Update(0.02)
	assert.Equal(t, 1, f.notify.count("rank 2/2"))

	f.pass(player, 0, 1, 2, 3)
	f.director.Update(0.02)
	assert.Equal(t, 2, f.notify.count("rank 1/2"))
	assert.Equal(t, 1, f.notify.count("laps 1"))
}

func TestRaceDirector_SkipTolerance(t *testing.T) {
	f := newDirectorFixture(t, RaceDirectorConfig{TotalLaps: 2}, 5)
	a := f.racer(t, "A", false)
	require.NoError(t, f.director.Start())

	// tolerance 1: expecting 0, crossing 1 skips one checkpoint.
	assert.True(t, f.director.PassCheckpoint(CheckpointPassed{Racer: a.ID, CheckpointIndex: 1}))
	assert.Equal(t, 2, a.CurrentCheckpointIndex)

	assert.False(t, f.director.PassCheckpoint(CheckpointPassed{Racer: a.ID, CheckpointIndex: 4}))
	assert.Equal(t, 2, a.CurrentCheckpointIndex)

	// Going back is a long way round, rejected.
	assert.False(t, f.director.PassCheckpoint(CheckpointPassed{Racer: a.ID, CheckpointIndex: 1}))
	assert.False(t, f.director.PassCheckpoint(CheckpointPassed{Racer: a.ID, CheckpointIndex: 99}))
	assert.False(t, f.director.PassCheckpoint(CheckpointPassed{Racer: NewRacerID(), CheckpointIndex: 2}))
}

func TestRaceDirector_FinishIsIdempotent(t *testing.T) {
	f := newDirectorFixture(t, RaceDirectorConfig{TotalLaps: 1}, 3)
	a := f.racer(t, "A", true)
	b := f.racer(t, "B", false)
	require.NoError(t, f.director.Start())

	// Not yet done with the lap.
	f.pass(a, 0, 1)
	f.director.Deliver(FinishCrossed{Racer: a.ID})
	_, ok := f.director.Winner()
	assert.False(t, ok)

	f.pass(b, 0, 1, 2)
	assert.Equal(t, 1, b.LapCount)
	f.director.Deliver(FinishCrossed{Racer: b.ID})

	winner, ok := f.director.Winner()
	require.True(t, ok)
	assert.Same(t, b, winner)
	assert.Equal(t, PhaseFinished, f.director.Phase())
	assert.True(t, f.fleet.frozen[a.ID])
	assert.True(t, f.fleet.frozen[b.ID])

	f.pass(a, 2)
	f.director.Deliver(FinishCrossed{Racer: a.ID})
	assert.False(t, f.director.CheckFinish(a))
	winner, _ = f.director.Winner()
	assert.Same(t, b, winner)
	assert.Equal(t, 1, f.notify.count("finished B"))

	require.NotNil(t, f.notify.result)
	assert.False(t, f.notify.result.PlayerWon)
	assert.Equal(t, "B", f.notify.result.Standings[0].Name)
	assert.Equal(t, 1, f.notify.result.Winner.Rank)
}

func TestRaceDirector_NoFinishDuringCountdown(t *testing.T) {
	f := newDirectorFixture(t, RaceDirectorConfig{TotalLaps: 1, CountdownSteps: 3, CountdownInterval: 1}, 2)
	a := f.racer(t, "A", false)
	require.NoError(t, f.director.Start())

	// Passes count during the countdown, finishing does not.
	f.pass(a, 0, 1)
	assert.Equal(t, 1, a.LapCount)
	f.director.Deliver(FinishCrossed{Racer: a.ID})
	_, ok := f.director.Winner()
	assert.False(t, ok)
	assert.Equal(t, PhaseCountdown, f.director.Phase())
}

func TestRaceDirector_StandingsListWinnerFirst(t *testing.T) {
	f := newDirectorFixture(t, RaceDirectorConfig{TotalLaps: 1}, 2)
	a := f.racer(t, "A", true)
	b := f.racer(t, "B", false)
	require.NoError(t, f.director.Start())

	f.pass(a, 0, 1)
	f.director.Deliver(FinishCrossed{Racer: a.ID})

	st := f.director.Standings()
	require.Len(t, st, 2)
	assert.Equal(t, a.ID, st[0].Racer)
	assert.Equal(t, b.ID, st[1].Racer)
	assert.True(t, f.notify.result.PlayerWon)
}

func TestRacePhase_String(t *testing.T) {
	assert.Equal(t, "racing", PhaseRacing.String())
	assert.Equal(t, "RacePhase(9)", RacePhase(9).String())
}
