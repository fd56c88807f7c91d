package hoverrace

// RaceEvent is produced by triggers and consumed by the race director.
type RaceEvent interface {
	raceEvent()
}

type CheckpointPassed struct {
	Racer           RacerID
	Entity          EntityId
	CheckpointIndex int
}

type FinishCrossed struct {
	Racer  RacerID
	Entity EntityId
}

func (CheckpointPassed) raceEvent() {}
func (FinishCrossed) raceEvent()    {}

// RaceEvents queues trigger events within a fixed tick.
type RaceEvents struct {
	queue []RaceEvent
}

func (q *RaceEvents) Push(ev RaceEvent) {
	q.queue = append(q.queue, ev)
}

func (q *RaceEvents) Len() int {
	return len(q.queue)
}

// Drain returns the queued events in order and empties the queue.
func (q *RaceEvents) Drain() []RaceEvent {
	evs := q.queue
	q.queue = nil
	return evs
}
