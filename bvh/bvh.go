// Package bvh is a bounding volume hierarchy over axis-aligned boxes, used
// to accelerate ray queries against triangle meshes.
package bvh

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxLeafItems bounds the number of items stored in one leaf.
const MaxLeafItems = 4

type Node struct {
	Min       mgl32.Vec3
	Max       mgl32.Vec3
	Left      int32
	Right     int32
	LeafFirst int32
	LeafCount int32
}

func (n *Node) IsLeaf() bool { return n.LeafCount > 0 }

type item struct {
	min, max mgl32.Vec3
	centroid mgl32.Vec3
	index    int
}

// Tree is an immutable hierarchy. Items holds the caller's item indices in
// leaf order; a leaf covers Items[LeafFirst : LeafFirst+LeafCount].
type Tree struct {
	Nodes []Node
	Items []int
}

// Build creates a tree over the given [min, max] boxes using a median split
// on the largest axis of each node.
func Build(bounds [][2]mgl32.Vec3) *Tree {
	t := &Tree{}
	if len(bounds) == 0 {
		return t
	}

	items := make([]item, len(bounds))
	for i, b := range bounds {
		items[i] = item{
			min:      b[0],
			max:      b[1],
			centroid: b[0].Add(b[1]).Mul(0.5),
			index:    i,
		}
	}
	t.recursiveBuild(items)
	return t
}

func (t *Tree) recursiveBuild(items []item) int32 {
	idx := int32(len(t.Nodes))
	t.Nodes = append(t.Nodes, Node{Left: -1, Right: -1, LeafFirst: -1})

	minB := mgl32.Vec3{float32(math.Inf(1)), float32(math.Inf(1)), float32(math.Inf(1))}
	maxB := mgl32.Vec3{float32(math.Inf(-1)), float32(math.Inf(-1)), float32(math.Inf(-1))}
	for _, it := range items {
		for a := 0; a < 3; a++ {
			minB[a] = min(minB[a], it.min[a])
			maxB[a] = max(maxB[a], it.max[a])
		}
	}
	t.Nodes[idx].Min = minB
	t.Nodes[idx].Max = maxB

	if len(items) <= MaxLeafItems {
		t.Nodes[idx].LeafFirst = int32(len(t.Items))
		t.Nodes[idx].LeafCount = int32(len(items))
		for _, it := range items {
			t.Items = append(t.Items, it.index)
		}
		return idx
	}

	extent := maxB.Sub(minB)
	axis := 0
	if extent.Y() > extent.X() {
		axis = 1
	}
	if extent.Z() > extent[axis] {
		axis = 2
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].centroid[axis] < items[j].centroid[axis]
	})

	mid := len(items) / 2
	left := t.recursiveBuild(items[:mid])
	right := t.recursiveBuild(items[mid:])
	t.Nodes[idx].Left = left
	t.Nodes[idx].Right = right

	return idx
}

// Bounds returns the box enclosing every item, and false for an empty tree.
func (t *Tree) Bounds() (mgl32.Vec3, mgl32.Vec3, bool) {
	if len(t.Nodes) == 0 {
		return mgl32.Vec3{}, mgl32.Vec3{}, false
	}
	return t.Nodes[0].Min, t.Nodes[0].Max, true
}

// HitFunc tests the item with the given index against the ray and returns
// its hit distance. It is only called for items whose box the ray enters
// closer than the best distance found so far.
type HitFunc func(index int, maxDist float32) (float32, bool)

// Raycast returns the nearest item hit within maxDist.
func (t *Tree) Raycast(origin, dir mgl32.Vec3, maxDist float32, hit HitFunc) (int, float32, bool) {
	if len(t.Nodes) == 0 {
		return -1, 0, false
	}

	invDir := mgl32.Vec3{inv(dir.X()), inv(dir.Y()), inv(dir.Z())}
	best := maxDist
	bestIdx := -1

	stack := make([]int32, 0, 64)
	stack = append(stack, 0)
	for len(stack) > 0 {
		n := &t.Nodes[stack[len(stack)-1]]
		stack = stack[:len(stack)-1]

		if _, ok := IntersectAABB(origin, invDir, n.Min, n.Max, best); !ok {
			continue
		}
		if n.IsLeaf() {
			for _, index := range t.Items[n.LeafFirst : n.LeafFirst+n.LeafCount] {
				if d, ok := hit(index, best); ok && d <= best {
					best = d
					bestIdx = index
				}
			}
			continue
		}
		stack = append(stack, n.Left, n.Right)
	}

	if bestIdx < 0 {
		return -1, 0, false
	}
	return bestIdx, best, true
}

func inv(v float32) float32 {
	if v == 0 {
		return float32(math.Inf(1))
	}
	return 1 / v
}

// IntersectAABB is the slab test. It returns the entry distance (0 when the
// origin is inside) if the ray overlaps the box within maxDist.
func IntersectAABB(origin, invDir, bmin, bmax mgl32.Vec3, maxDist float32) (float32, bool) {
	tmin := float32(0)
	tmax := maxDist
	for a := 0; a < 3; a++ {
		if math.IsInf(float64(invDir[a]), 0) {
			// Parallel to the slab: inside or never.
			if origin[a] < bmin[a] || origin[a] > bmax[a] {
				return 0, false
			}
			continue
		}
		t1 := (bmin[a] - origin[a]) * invDir[a]
		t2 := (bmax[a] - origin[a]) * invDir[a]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}
	return tmin, true
}
