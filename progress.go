package hoverrace

import (
	"github.com/google/uuid"
)

type RacerID uuid.UUID

func NewRacerID() RacerID { return RacerID(uuid.New()) }

func (id RacerID) String() string { return uuid.UUID(id).String() }

// RacerProgress is the lap and checkpoint state of one racer.
type RacerProgress struct {
	ID       RacerID
	Name     string
	IsPlayer bool
	Entity   EntityId

	CurrentCheckpointIndex int
	LapCount               int
}

func NewRacerProgress(name string, isPlayer bool) *RacerProgress {
	return &RacerProgress{ID: NewRacerID(), Name: name, IsPlayer: isPlayer}
}

// ProgressValue orders racers: more laps first, then further checkpoint.
func (p *RacerProgress) ProgressValue(numberOfCheckpoints int) int {
	return p.LapCount*numberOfCheckpoints + p.CurrentCheckpointIndex
}

// CircularDistance is how many checkpoints index lies ahead of current on a
// loop of total checkpoints.
func CircularDistance(index, current, total int) int {
	if total <= 0 {
		return 0
	}
	return ((index-current)%total + total) % total
}

// Pass applies a crossing of cp. It returns whether the crossing counted.
// Passing the last checkpoint completes a lap.
func (p *RacerProgress) Pass(cp Checkpoint, total int) bool {
	if total <= 0 || cp.Index < 0 || cp.Index >= total {
		return false
	}
	dist := CircularDistance(cp.Index, p.CurrentCheckpointIndex, total)
	if dist != 0 && dist > cp.SkipTolerance {
		return false
	}
	p.CurrentCheckpointIndex = (cp.Index + 1) % total
	if cp.Index == total-1 {
		p.LapCount++
	}
	return true
}

// LastPassed is the checkpoint most recently passed, or total-1 before the
// first pass.
func (p *RacerProgress) LastPassed(total int) int {
	if total <= 0 {
		return -1
	}
	return (p.CurrentCheckpointIndex - 1 + total) % total
}

// RacerComponent links a vehicle entity to its progress record, which the
// race director also holds.
type RacerComponent struct {
	Progress *RacerProgress
}
