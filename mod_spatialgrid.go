package hoverrace

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type AABBComponent struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// SpatialHashGrid is the broadphase for vehicle neighbourhood queries
// (avoidance, racer contacts). It stores ids only; callers filter exact
// distances with positions they already hold.
type SpatialHashGrid struct {
	cellSize float32
	cells    map[uint64][]EntityId
}

func NewSpatialHashGrid(cellSize float32) *SpatialHashGrid {
	if cellSize <= 0 {
		cellSize = 1
	}
	return &SpatialHashGrid{
		cellSize: cellSize,
		cells:    make(map[uint64][]EntityId),
	}
}

func (grid *SpatialHashGrid) Clear() {
	clear(grid.cells)
}

func (grid *SpatialHashGrid) Insert(id EntityId, aabb AABBComponent) {
	grid.forCells(aabb, func(key uint64) {
		grid.cells[key] = append(grid.cells[key], id)
	})
}

// QueryAABB returns every id sharing a cell with aabb, each once, in
// insertion order per cell.
func (grid *SpatialHashGrid) QueryAABB(aabb AABBComponent) []EntityId {
	unique := make(map[EntityId]struct{})
	var results []EntityId
	grid.forCells(aabb, func(key uint64) {
		for _, id := range grid.cells[key] {
			if _, ok := unique[id]; !ok {
				unique[id] = struct{}{}
				results = append(results, id)
			}
		}
	})
	return results
}

// QueryRadius returns broadphase candidates for a sphere query.
func (grid *SpatialHashGrid) QueryRadius(center mgl32.Vec3, radius float32) []EntityId {
	r := mgl32.Vec3{radius, radius, radius}
	return grid.QueryAABB(AABBComponent{Min: center.Sub(r), Max: center.Add(r)})
}

func (grid *SpatialHashGrid) forCells(aabb AABBComponent, fn func(key uint64)) {
	minX, maxX := grid.getCellIndex(aabb.Min.X()), grid.getCellIndex(aabb.Max.X())
	minY, maxY := grid.getCellIndex(aabb.Min.Y()), grid.getCellIndex(aabb.Max.Y())
	minZ, maxZ := grid.getCellIndex(aabb.Min.Z()), grid.getCellIndex(aabb.Max.Z())

	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for z := minZ; z <= maxZ; z++ {
				fn(grid.hashKey(x, y, z))
			}
		}
	}
}

func (grid *SpatialHashGrid) getCellIndex(pos float32) int {
	return int(math.Floor(float64(pos / grid.cellSize)))
}

func (grid *SpatialHashGrid) hashKey(x, y, z int) uint64 {
	// large primes for mixing
	const p1 = 73856093
	const p2 = 19349663
	const p3 = 83492791
	return uint64(x*p1 ^ y*p2 ^ z*p3)
}

type SpatialGridModule struct {
	CellSize float32
}

func (m SpatialGridModule) Install(app *App, cmd *Commands) {
	cellSize := m.CellSize
	if cellSize <= 0 {
		cellSize = 8
	}
	cmd.AddResources(NewSpatialHashGrid(cellSize))

	app.UseSystem(
		System(UpdateAABBsSystem).InStage(PostPhysics),
	).UseSystem(
		System(UpdateSpatialGridSystem).InStage(PostPhysics),
	)
}

// UpdateAABBsSystem refits world AABBs of colliders that carry one.
func UpdateAABBsSystem(cmd *Commands) {
	MakeQuery3[TransformComponent, ColliderComponent, AABBComponent](cmd).Map(func(id EntityId, tr *TransformComponent, col *ColliderComponent, aabb *AABBComponent) bool {
		r := col.BoundingRadius() * maxAbsComponent(tr.Scale)
		half := mgl32.Vec3{r, r, r}
		aabb.Min = tr.Position.Sub(half)
		aabb.Max = tr.Position.Add(half)
		return true
	})
}

func UpdateSpatialGridSystem(cmd *Commands, grid *SpatialHashGrid) {
	grid.Clear()

	MakeQuery1[AABBComponent](cmd).Map(func(id EntityId, aabb *AABBComponent) bool {
		grid.Insert(id, *aabb)
		return true
	})
}

func maxAbsComponent(v mgl32.Vec3) float32 {
	m := float32(0)
	for _, c := range v {
		if c < 0 {
			c = -c
		}
		if c > m {
			m = c
		}
	}
	if m == 0 {
		return 1
	}
	return m
}
