package hoverrace

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

var ErrNoCheckpoints = errors.New("track has no checkpoints")

// Checkpoint is a numbered gate. A racer expecting checkpoint c may pass
// this one when its circular distance ahead of c is within SkipTolerance.
type Checkpoint struct {
	Index         int
	Position      mgl32.Vec3
	Volume        TriggerVolume
	SkipTolerance int
}

type Track struct {
	Checkpoints []Checkpoint
	FinishLine  TriggerVolume
}

// NewTrack sorts checkpoints by index and requires the indices to be
// exactly 0..N-1.
func NewTrack(checkpoints []Checkpoint, finish TriggerVolume) (*Track, error) {
	if len(checkpoints) == 0 {
		return nil, ErrNoCheckpoints
	}
	cps := slices.Clone(checkpoints)
	slices.SortStableFunc(cps, func(a, b Checkpoint) int { return a.Index - b.Index })
	for i, cp := range cps {
		if cp.Index != i {
			return nil, fmt.Errorf("checkpoint indices must be 0..%d, found %d at position %d", len(cps)-1, cp.Index, i)
		}
		if cp.SkipTolerance < 0 {
			return nil, fmt.Errorf("checkpoint %d: negative skip tolerance %d", i, cp.SkipTolerance)
		}
	}
	return &Track{Checkpoints: cps, FinishLine: finish}, nil
}

func (t *Track) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Checkpoints)
}

func (t *Track) Checkpoint(index int) (Checkpoint, bool) {
	if t == nil || index < 0 || index >= len(t.Checkpoints) {
		return Checkpoint{}, false
	}
	return t.Checkpoints[index], true
}

func (t *Track) Positions() []mgl32.Vec3 {
	res := make([]mgl32.Vec3, t.Len())
	for i, cp := range t.Checkpoints {
		res[i] = cp.Position
	}
	return res
}
