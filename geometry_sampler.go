package hoverrace

import (
	"github.com/go-gl/mathgl/mgl32"
)

// SurfaceSample is a smoothed surface point and normal under a ray.
type SurfaceSample struct {
	Point    mgl32.Vec3
	Normal   mgl32.Vec3
	Distance float32
	Layer    int
	Tag      string
}

// Sampler answers "what surface lies along this ray".
type Sampler interface {
	Sample(origin, dir mgl32.Vec3, maxDistance float32, mask LayerMask) (SurfaceSample, bool)
}

// GeometrySampler turns raw triangle hits into interpolated surface
// samples. It keeps no state between calls.
type GeometrySampler struct {
	World CollisionWorld
}

func NewGeometrySampler(world CollisionWorld) *GeometrySampler {
	return &GeometrySampler{World: world}
}

func (s *GeometrySampler) Sample(origin, dir mgl32.Vec3, maxDistance float32, mask LayerMask) (SurfaceSample, bool) {
	if s == nil || s.World == nil {
		return SurfaceSample{}, false
	}
	hit, ok := s.World.Raycast(origin, dir, maxDistance, mask)
	if !ok || hit.Collider == nil || hit.Collider.Mesh == nil {
		return SurfaceSample{}, false
	}

	mesh := hit.Collider.Mesh
	if hit.TriangleIndex < 0 || hit.TriangleIndex >= mesh.TriangleCount() {
		return SurfaceSample{}, false
	}
	tr := hit.Collider.Transform
	i0 := mesh.Triangles[hit.TriangleIndex*3]
	i1 := mesh.Triangles[hit.TriangleIndex*3+1]
	i2 := mesh.Triangles[hit.TriangleIndex*3+2]

	verts := [3]mgl32.Vec3{
		tr.TransformPoint(mesh.Vertices[i0]),
		tr.TransformPoint(mesh.Vertices[i1]),
		tr.TransformPoint(mesh.Vertices[i2]),
	}
	var normals [3]mgl32.Vec3
	if len(mesh.Normals) == len(mesh.Vertices) {
		normals = [3]mgl32.Vec3{
			tr.TransformDirection(mesh.Normals[i0]),
			tr.TransformDirection(mesh.Normals[i1]),
			tr.TransformDirection(mesh.Normals[i2]),
		}
	} else {
		face := SafeNormalize(verts[1].Sub(verts[0]).Cross(verts[2].Sub(verts[0])))
		normals = [3]mgl32.Vec3{face, face, face}
	}

	point, normal := InterpolateSurface(verts, normals, hit.Barycentric)
	return SurfaceSample{
		Point:    point,
		Normal:   normal,
		Distance: hit.Distance,
		Layer:    hit.Collider.Layer,
		Tag:      hit.Collider.Tag,
	}, true
}

// InterpolateSurface blends a triangle's vertices and normals with the
// barycentric weights b. The normal is renormalized; a degenerate blend
// falls back to world up.
func InterpolateSurface(verts, normals [3]mgl32.Vec3, b mgl32.Vec3) (mgl32.Vec3, mgl32.Vec3) {
	point := verts[0].Mul(b[0]).Add(verts[1].Mul(b[1])).Add(verts[2].Mul(b[2]))
	normal := SafeNormalize(normals[0].Mul(b[0]).Add(normals[1].Mul(b[1])).Add(normals[2].Mul(b[2])))
	if normal.Len() == 0 {
		normal = WorldUp
	}
	return point, normal
}

// GeometryModule exposes the collision world as a sampler resource.
type GeometryModule struct {
	World CollisionWorld
}

func (m GeometryModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(NewGeometrySampler(m.World))
}
