package hoverrace

import (
	"github.com/go-gl/mathgl/mgl32"
)

type TransformComponent struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

func NewTransform(position mgl32.Vec3, rotation mgl32.Quat) TransformComponent {
	return TransformComponent{
		Position: position,
		Rotation: rotation,
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

func (tr TransformComponent) Forward() mgl32.Vec3 { return tr.Rotation.Rotate(WorldForward) }
func (tr TransformComponent) Up() mgl32.Vec3      { return tr.Rotation.Rotate(WorldUp) }
func (tr TransformComponent) Right() mgl32.Vec3   { return tr.Rotation.Rotate(WorldRight) }

// TransformPoint maps a local-space point to world space.
func (tr TransformComponent) TransformPoint(p mgl32.Vec3) mgl32.Vec3 {
	scale := tr.Scale
	if scale == (mgl32.Vec3{}) {
		scale = mgl32.Vec3{1, 1, 1}
	}
	scaled := mgl32.Vec3{p.X() * scale.X(), p.Y() * scale.Y(), p.Z() * scale.Z()}
	return tr.Position.Add(tr.Rotation.Rotate(scaled))
}

// TransformDirection rotates a local direction into world space. Scale is
// ignored.
func (tr TransformComponent) TransformDirection(d mgl32.Vec3) mgl32.Vec3 {
	return tr.Rotation.Rotate(d)
}
