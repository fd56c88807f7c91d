package hoverrace

import (
	"github.com/go-gl/mathgl/mgl32"
)

// SteerToward is the steering input that turns a vehicle with the given
// forward and up axes toward dir: the signed angle between them on the
// vehicle's ground plane divided by angleScale degrees, clamped to [-1, 1].
func SteerToward(forward, up, dir mgl32.Vec3, angleScale float32) float32 {
	pf := SafeNormalize(ProjectOnPlane(forward, up))
	pt := SafeNormalize(ProjectOnPlane(dir, up))
	return mgl32.Clamp(SignedAngle(pf, pt, up)/angleScale, -1, 1)
}

// AvoidanceVector is the mean of the directions away from each neighbour
// within radius, each weighted by inverse distance. ok is false when no
// neighbour counts.
func AvoidanceVector(position mgl32.Vec3, neighbors []mgl32.Vec3, radius float32) (mgl32.Vec3, bool) {
	var sum mgl32.Vec3
	count := 0
	for _, other := range neighbors {
		diff := position.Sub(other)
		d := diff.Len()
		if d <= 0 || d > radius {
			continue
		}
		sum = sum.Add(diff.Mul(1 / (d * d)))
		count++
	}
	if count == 0 {
		return mgl32.Vec3{}, false
	}
	return sum.Mul(1 / float32(count)), true
}
