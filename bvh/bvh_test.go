package bvh

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTwoObjectsSplit(t *testing.T) {
	boxes := [][2]mgl32.Vec3{
		{{-100, -1, -1}, {-98, 1, 1}},
		{{100, -1, -1}, {102, 1, 1}},
		{{-100, 5, -1}, {-98, 7, 1}},
		{{100, 5, -1}, {102, 7, 1}},
		{{0, 0, 0}, {1, 1, 1}},
	}

	tree := Build(boxes)
	require.NotEmpty(t, tree.Nodes)

	bmin, bmax, ok := tree.Bounds()
	require.True(t, ok)
	if bmin.X() > -100 {
		t.Errorf("Root min X should be <= -100, got %f", bmin.X())
	}
	if bmax.X() < 102 {
		t.Errorf("Root max X should be >= 102, got %f", bmax.X())
	}

	root := tree.Nodes[0]
	assert.False(t, root.IsLeaf(), "five items exceed one leaf")
	assert.NotEqual(t, root.Left, root.Right)
	assert.Len(t, tree.Items, len(boxes))
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4}, tree.Items)
}

func TestEmptyTree(t *testing.T) {
	tree := Build(nil)
	_, _, ok := tree.Bounds()
	assert.False(t, ok)
	_, _, hit := tree.Raycast(mgl32.Vec3{}, mgl32.Vec3{0, 0, 1}, 10, func(int, float32) (float32, bool) {
		t.Fatal("hit callback must not run on an empty tree")
		return 0, false
	})
	assert.False(t, hit)
}

func TestIntersectAABB(t *testing.T) {
	bmin := mgl32.Vec3{-1, -1, 4}
	bmax := mgl32.Vec3{1, 1, 6}
	invDir := mgl32.Vec3{inv(0), inv(0), inv(1)}

	d, ok := IntersectAABB(mgl32.Vec3{}, invDir, bmin, bmax, 100)
	require.True(t, ok)
	assert.InDelta(t, 4.0, d, 1e-5)

	_, ok = IntersectAABB(mgl32.Vec3{}, invDir, bmin, bmax, 3)
	assert.False(t, ok, "box lies beyond max distance")

	_, ok = IntersectAABB(mgl32.Vec3{2, 0, 0}, invDir, bmin, bmax, 100)
	assert.False(t, ok, "parallel ray outside the slab")
}

// Raycasting through the tree must find the same nearest box as testing
// every box.
func TestRaycastMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var boxes [][2]mgl32.Vec3
	for i := 0; i < 200; i++ {
		c := mgl32.Vec3{rng.Float32()*100 - 50, rng.Float32()*100 - 50, rng.Float32()*100 - 50}
		h := mgl32.Vec3{rng.Float32()*2 + 0.1, rng.Float32()*2 + 0.1, rng.Float32()*2 + 0.1}
		boxes = append(boxes, [2]mgl32.Vec3{c.Sub(h), c.Add(h)})
	}
	tree := Build(boxes)

	boxHit := func(origin, dir mgl32.Vec3) HitFunc {
		invDir := mgl32.Vec3{inv(dir.X()), inv(dir.Y()), inv(dir.Z())}
		return func(index int, maxDist float32) (float32, bool) {
			return IntersectAABB(origin, invDir, boxes[index][0], boxes[index][1], maxDist)
		}
	}

	for i := 0; i < 100; i++ {
		origin := mgl32.Vec3{rng.Float32()*120 - 60, rng.Float32()*120 - 60, rng.Float32()*120 - 60}
		dir := mgl32.Vec3{rng.Float32()*2 - 1, rng.Float32()*2 - 1, rng.Float32()*2 - 1}.Normalize()
		hit := boxHit(origin, dir)

		bruteIdx, bruteDist := -1, float32(200)
		for j := range boxes {
			if d, ok := hit(j, bruteDist); ok && d <= bruteDist {
				bruteIdx, bruteDist = j, d
			}
		}

		idx, dist, ok := tree.Raycast(origin, dir, 200, hit)
		if bruteIdx < 0 {
			assert.False(t, ok, "ray %d", i)
			continue
		}
		require.True(t, ok, "ray %d", i)
		assert.InDelta(t, bruteDist, dist, 1e-4, "ray %d", i)
		if idx != bruteIdx {
			// Ties on the entry distance may pick either box.
			assert.InDelta(t, bruteDist, dist, 1e-4)
		}
	}
}
