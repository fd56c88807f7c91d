package hoverrace

import (
	"github.com/go-gl/mathgl/mgl32"
)

// TriggerVolume is an oriented box.
type TriggerVolume struct {
	Center      mgl32.Vec3
	HalfExtents mgl32.Vec3
	Rotation    mgl32.Quat
}

func BoxTrigger(center, halfExtents mgl32.Vec3, rotation mgl32.Quat) TriggerVolume {
	return TriggerVolume{Center: center, HalfExtents: halfExtents, Rotation: rotation}
}

func (v TriggerVolume) Contains(p mgl32.Vec3) bool {
	rot := v.Rotation
	if rot == (mgl32.Quat{}) {
		rot = mgl32.QuatIdent()
	}
	local := rot.Conjugate().Rotate(p.Sub(v.Center))
	for a := 0; a < 3; a++ {
		if local[a] < -v.HalfExtents[a] || local[a] > v.HalfExtents[a] {
			return false
		}
	}
	return true
}

type TriggerKind int

const (
	TriggerCheckpoint TriggerKind = iota
	TriggerFinishLine
)

type triggerKey struct {
	kind   TriggerKind
	index  int
	entity EntityId
}

// TriggerTracker turns per-tick containment into enter events.
type TriggerTracker struct {
	inside map[triggerKey]struct{}
}

func NewTriggerTracker() *TriggerTracker {
	return &TriggerTracker{inside: make(map[triggerKey]struct{})}
}

// Observe records whether entity is inside the trigger this tick and
// reports true only on the tick it enters.
func (t *TriggerTracker) Observe(kind TriggerKind, index int, entity EntityId, inside bool) bool {
	key := triggerKey{kind: kind, index: index, entity: entity}
	_, was := t.inside[key]
	if !inside {
		delete(t.inside, key)
		return false
	}
	t.inside[key] = struct{}{}
	return !was
}

// Settle records entity as already inside every trigger of track that
// contains pos. Used after a teleport so landing in a gate is not an entry.
func (t *TriggerTracker) Settle(track *Track, entity EntityId, pos mgl32.Vec3) {
	for _, cp := range track.Checkpoints {
		t.Observe(TriggerCheckpoint, cp.Index, entity, cp.Volume.Contains(pos))
	}
	t.Observe(TriggerFinishLine, 0, entity, track.FinishLine.Contains(pos))
}
