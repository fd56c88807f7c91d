package hoverrace

// Time is the simulation clock. Dt is the scaled delta of the current frame;
// fixed-step systems read FixedDt instead.
type Time struct {
	Dt            float32
	FixedDt       float32
	Elapsed       float64
	Scale         float32
	MaxFixedSteps int
	FixedSteps    uint64
	Frame         uint64

	accumulator float32
}

const fixedStepEpsilon = 1e-6

// advance consumes one frame and returns how many fixed steps are due.
func (t *Time) advance(frameDt float32) int {
	if frameDt < 0 {
		frameDt = 0
	}
	t.Dt = frameDt * t.Scale
	t.Elapsed += float64(t.Dt)

	if t.FixedDt <= 0 {
		return 1
	}
	t.accumulator += t.Dt
	steps := int((t.accumulator + fixedStepEpsilon) / t.FixedDt)
	if t.MaxFixedSteps > 0 && steps > t.MaxFixedSteps {
		// Drop the backlog instead of spiralling.
		steps = t.MaxFixedSteps
		t.accumulator = 0
		return steps
	}
	t.accumulator -= float32(steps) * t.FixedDt
	if t.accumulator < 0 {
		t.accumulator = 0
	}
	return steps
}

// Paused reports whether the clock is stopped.
func (t *Time) Paused() bool {
	return t.Scale == 0
}

type TimeModule struct {
	FixedDt       float32
	MaxFixedSteps int
}

func (mod TimeModule) Install(app *App, cmd *Commands) {
	fixed := mod.FixedDt
	if fixed <= 0 {
		fixed = 1.0 / 50.0
	}
	maxSteps := mod.MaxFixedSteps
	if maxSteps <= 0 {
		maxSteps = 8
	}
	cmd.AddResources(&Time{
		FixedDt:       fixed,
		Scale:         1,
		MaxFixedSteps: maxSteps,
	})
}
