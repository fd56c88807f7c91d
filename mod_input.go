package hoverrace

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	KeyW int = iota
	KeyA
	KeyS
	KeyD
	KeyP
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyEscape
	KeySpace
	keyCount
)

type Axis int

const (
	AxisVertical Axis = iota
	AxisHorizontal
	axisCount
)

// Input is the per-frame key state. The host (window layer, network,
// replay) reports key transitions with SetKey from any goroutine; the input
// system latches them at the start of each frame.
type Input struct {
	Pressed     [keyCount]bool
	JustPressed [keyCount]bool

	mu     sync.Mutex
	raw    [keyCount]bool
	analog [axisCount]*float32
}

func (in *Input) SetKey(key int, down bool) {
	if key < 0 || key >= keyCount {
		return
	}
	in.mu.Lock()
	in.raw[key] = down
	in.mu.Unlock()
}

// SetAxis overrides an axis with an analog value until ClearAxis.
func (in *Input) SetAxis(axis Axis, value float32) {
	if axis < 0 || axis >= axisCount {
		return
	}
	v := mgl32.Clamp(value, -1, 1)
	in.mu.Lock()
	in.analog[axis] = &v
	in.mu.Unlock()
}

func (in *Input) ClearAxis(axis Axis) {
	if axis < 0 || axis >= axisCount {
		return
	}
	in.mu.Lock()
	in.analog[axis] = nil
	in.mu.Unlock()
}

// Axis is -1..1: W/Up minus S/Down for vertical, D/Right minus A/Left for
// horizontal.
func (in *Input) Axis(axis Axis) float32 {
	in.mu.Lock()
	analog := in.analog[axis]
	in.mu.Unlock()
	if analog != nil {
		return *analog
	}

	var pos, neg bool
	switch axis {
	case AxisVertical:
		pos = in.Pressed[KeyW] || in.Pressed[KeyUp]
		neg = in.Pressed[KeyS] || in.Pressed[KeyDown]
	case AxisHorizontal:
		pos = in.Pressed[KeyD] || in.Pressed[KeyRight]
		neg = in.Pressed[KeyA] || in.Pressed[KeyLeft]
	}
	var v float32
	if pos {
		v++
	}
	if neg {
		v--
	}
	return v
}

func (in *Input) latch() {
	in.mu.Lock()
	raw := in.raw
	in.mu.Unlock()

	for key := 0; key < keyCount; key++ {
		in.JustPressed[key] = raw[key] && !in.Pressed[key]
		in.Pressed[key] = raw[key]
	}
}

type InputModule struct{}

func (mod InputModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Input{})
	app.UseSystem(
		System(inputSystem).
			InStage(Prelude),
	)
}

func inputSystem(input *Input) {
	input.latch()
}
