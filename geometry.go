package hoverrace

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/hoverrace/bvh"
)

var ErrInvalidMesh = errors.New("invalid mesh")

// Collision layers used by generated tracks and vehicles.
const (
	LayerTrackSmooth = 8
	LayerTrackBumpy  = 9
	LayerVehicle     = 10
)

// LayerMask selects collision layers 0..31.
type LayerMask uint32

const AllLayers LayerMask = math.MaxUint32

func LayerBit(layer int) LayerMask {
	if layer < 0 || layer > 31 {
		return 0
	}
	return 1 << uint(layer)
}

func Layers(layers ...int) LayerMask {
	var m LayerMask
	for _, l := range layers {
		m |= LayerBit(l)
	}
	return m
}

func (m LayerMask) Contains(layer int) bool {
	return m&LayerBit(layer) != 0
}

// TriangleMesh is an indexed triangle list in local space. Normals are per
// vertex.
type TriangleMesh struct {
	Vertices  []mgl32.Vec3
	Normals   []mgl32.Vec3
	Triangles []int
}

func (m *TriangleMesh) TriangleCount() int {
	return len(m.Triangles) / 3
}

func (m *TriangleMesh) Validate() error {
	if len(m.Vertices) == 0 {
		return fmt.Errorf("%w: no vertices", ErrInvalidMesh)
	}
	if len(m.Triangles) == 0 || len(m.Triangles)%3 != 0 {
		return fmt.Errorf("%w: triangle index count %d is not a positive multiple of 3", ErrInvalidMesh, len(m.Triangles))
	}
	if len(m.Normals) != 0 && len(m.Normals) != len(m.Vertices) {
		return fmt.Errorf("%w: %d normals for %d vertices", ErrInvalidMesh, len(m.Normals), len(m.Vertices))
	}
	for i, idx := range m.Triangles {
		if idx < 0 || idx >= len(m.Vertices) {
			return fmt.Errorf("%w: triangle index %d at %d out of range", ErrInvalidMesh, idx, i)
		}
	}
	return nil
}

// RecalculateNormals replaces Normals with area weighted vertex normals.
func (m *TriangleMesh) RecalculateNormals() {
	normals := make([]mgl32.Vec3, len(m.Vertices))
	for t := 0; t+2 < len(m.Triangles); t += 3 {
		i0, i1, i2 := m.Triangles[t], m.Triangles[t+1], m.Triangles[t+2]
		face := m.Vertices[i1].Sub(m.Vertices[i0]).Cross(m.Vertices[i2].Sub(m.Vertices[i0]))
		normals[i0] = normals[i0].Add(face)
		normals[i1] = normals[i1].Add(face)
		normals[i2] = normals[i2].Add(face)
	}
	for i := range normals {
		n := SafeNormalize(normals[i])
		if n.Len() == 0 {
			n = WorldUp
		}
		normals[i] = n
	}
	m.Normals = normals
}

// MeshCollider places a mesh in the world. Changing Transform after the
// first raycast requires Invalidate.
type MeshCollider struct {
	Mesh        *TriangleMesh
	Transform   TransformComponent
	Layer       int
	Tag         string
	DoubleSided bool

	once  sync.Once
	world []mgl32.Vec3
	tree  *bvh.Tree
}

func NewMeshCollider(mesh *TriangleMesh, transform TransformComponent, layer int, tag string) (*MeshCollider, error) {
	if mesh == nil {
		return nil, fmt.Errorf("%w: nil mesh", ErrInvalidMesh)
	}
	if err := mesh.Validate(); err != nil {
		return nil, err
	}
	if len(mesh.Normals) == 0 {
		mesh.RecalculateNormals()
	}
	return &MeshCollider{Mesh: mesh, Transform: transform, Layer: layer, Tag: tag}, nil
}

func (c *MeshCollider) Invalidate() {
	c.once = sync.Once{}
}

func (c *MeshCollider) prepare() {
	c.once.Do(func() {
		c.world = make([]mgl32.Vec3, len(c.Mesh.Vertices))
		for i, v := range c.Mesh.Vertices {
			c.world[i] = c.Transform.TransformPoint(v)
		}
		bounds := make([][2]mgl32.Vec3, c.Mesh.TriangleCount())
		for t := range bounds {
			a, b, d := c.triangle(t)
			lo, hi := a, a
			for _, p := range []mgl32.Vec3{b, d} {
				for k := 0; k < 3; k++ {
					lo[k] = min(lo[k], p[k])
					hi[k] = max(hi[k], p[k])
				}
			}
			bounds[t] = [2]mgl32.Vec3{lo, hi}
		}
		c.tree = bvh.Build(bounds)
	})
}

func (c *MeshCollider) triangle(t int) (mgl32.Vec3, mgl32.Vec3, mgl32.Vec3) {
	tris := c.Mesh.Triangles
	return c.world[tris[t*3]], c.world[tris[t*3+1]], c.world[tris[t*3+2]]
}

// Raycast finds the nearest triangle of this collider hit by the ray.
func (c *MeshCollider) Raycast(origin, dir mgl32.Vec3, maxDistance float32) (RayHit, bool) {
	c.prepare()

	var bestU, bestV float32
	tri, dist, ok := c.tree.Raycast(origin, dir, maxDistance, func(index int, maxDist float32) (float32, bool) {
		a, b, d := c.triangle(index)
		t, u, v, hit := intersectTriangle(origin, dir, a, b, d, c.DoubleSided)
		if !hit || t > maxDist {
			return 0, false
		}
		bestU, bestV = u, v
		return t, true
	})
	if !ok {
		return RayHit{}, false
	}
	return RayHit{
		Collider:      c,
		TriangleIndex: tri,
		Barycentric:   mgl32.Vec3{1 - bestU - bestV, bestU, bestV},
		Distance:      dist,
		Point:         origin.Add(dir.Mul(dist)),
	}, true
}

const triangleEpsilon = 1e-7

// intersectTriangle is the Moller-Trumbore test. u and v weight b and c.
// Unless doubleSided, triangles whose (b-a)x(c-a) normal faces away from the
// ray origin are ignored.
func intersectTriangle(origin, dir, a, b, c mgl32.Vec3, doubleSided bool) (t, u, v float32, ok bool) {
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := dir.Cross(e2)
	det := e1.Dot(p)
	if doubleSided {
		if det > -triangleEpsilon && det < triangleEpsilon {
			return 0, 0, 0, false
		}
	} else if det < triangleEpsilon {
		return 0, 0, 0, false
	}
	invDet := 1 / det
	s := origin.Sub(a)
	u = s.Dot(p) * invDet
	if u < 0 || u > 1 {
		return 0, 0, 0, false
	}
	q := s.Cross(e1)
	v = dir.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return 0, 0, 0, false
	}
	t = e2.Dot(q) * invDet
	if t < 0 {
		return 0, 0, 0, false
	}
	return t, u, v, true
}

// RayHit describes a ray against a mesh collider. Barycentric weights the
// triangle's three vertices in index order.
type RayHit struct {
	Collider      *MeshCollider
	TriangleIndex int
	Barycentric   mgl32.Vec3
	Distance      float32
	Point         mgl32.Vec3
}

// CollisionWorld is the raycast service the simulation samples geometry
// through.
type CollisionWorld interface {
	Raycast(origin, dir mgl32.Vec3, maxDistance float32, mask LayerMask) (RayHit, bool)
}

// MeshWorld is an in-memory CollisionWorld over mesh colliders.
type MeshWorld struct {
	colliders []*MeshCollider
}

func NewMeshWorld(colliders ...*MeshCollider) *MeshWorld {
	return &MeshWorld{colliders: colliders}
}

func (w *MeshWorld) Add(c *MeshCollider) {
	w.colliders = append(w.colliders, c)
}

func (w *MeshWorld) Raycast(origin, dir mgl32.Vec3, maxDistance float32, mask LayerMask) (RayHit, bool) {
	dir = SafeNormalize(dir)
	if dir.Len() == 0 || maxDistance <= 0 {
		return RayHit{}, false
	}
	var best RayHit
	found := false
	for _, c := range w.colliders {
		if !mask.Contains(c.Layer) {
			continue
		}
		limit := maxDistance
		if found {
			limit = best.Distance
		}
		if hit, ok := c.Raycast(origin, dir, limit); ok && (!found || hit.Distance < best.Distance) {
			best = hit
			found = true
		}
	}
	return best, found
}
