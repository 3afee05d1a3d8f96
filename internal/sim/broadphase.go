// Package sim implements the authoritative per-room simulation loop:
// input application, enemy AI, projectile integration, AABB collision
// resolution, boundary clamping, and the event queue the network
// layer drains at the end of every tick.
package sim

import (
	"github.com/ironwing/arena-server/internal/ecs"
)

// cellKey identifies one cell of the broad-phase grid.
type cellKey struct {
	X, Y int64
}

// broadphaseEntry is one Collider+Position entity placed in the grid.
type broadphaseEntry struct {
	entity ecs.Entity
	x, y   float32
}

// spatialGrid buckets entities by cell for cheap pairwise collision
// candidate generation, grounded verbatim on internal/game/collision.go's
// SpatialGrid (cell hashing, GetPotentialCollisions pairing including
// the adjacent-cell cross-boundary check), repurposed from
// player-vs-player pairs to any two Collider+Position entities.
type spatialGrid struct {
	cellSize float64
	cells    map[cellKey][]broadphaseEntry
}

func newSpatialGrid(cellSize float64) *spatialGrid {
	return &spatialGrid{
		cellSize: cellSize,
		cells:    make(map[cellKey][]broadphaseEntry),
	}
}

func (g *spatialGrid) keyFor(x, y float32) cellKey {
	return cellKey{
		X: int64(float64(x) / g.cellSize),
		Y: int64(float64(y) / g.cellSize),
	}
}

// rebuild clears and repopulates the grid from the registry's current
// Collider+Position entities. Called once per tick before collision
// resolution.
func (g *spatialGrid) rebuild(r *ecs.Registry) {
	g.cells = make(map[cellKey][]broadphaseEntry)

	positions := ecs.All[ecs.Position](r)
	for i, pos := range positions {
		e := ecs.EntityAt[ecs.Position](r, i)
		if !ecs.HasComponent[ecs.Collider](r, e) {
			continue
		}
		key := g.keyFor(pos.X, pos.Y)
		g.cells[key] = append(g.cells[key], broadphaseEntry{entity: e, x: pos.X, y: pos.Y})
	}
}

// pairKey builds an order-independent key for a candidate pair so it
// is only checked once regardless of discovery order.
func pairKey(a, b ecs.Entity) uint64 {
	if a > b {
		a, b = b, a
	}
	return uint64(a)<<32 | uint64(b)
}

// potentialPairs returns every candidate collision pair: same-cell and
// the eight neighboring cells, deduplicated.
func (g *spatialGrid) potentialPairs() [][2]ecs.Entity {
	checked := make(map[uint64]bool)
	var pairs [][2]ecs.Entity

	addPairs := func(a, b []broadphaseEntry, skipSelfCombos bool) {
		for i, ea := range a {
			start := 0
			if skipSelfCombos {
				start = i + 1
			}
			for j := start; j < len(b); j++ {
				eb := b[j]
				if ea.entity == eb.entity {
					continue
				}
				k := pairKey(ea.entity, eb.entity)
				if checked[k] {
					continue
				}
				checked[k] = true
				pairs = append(pairs, [2]ecs.Entity{ea.entity, eb.entity})
			}
		}
	}

	for key, entries := range g.cells {
		addPairs(entries, entries, true)

		for dx := int64(0); dx <= 1; dx++ {
			for dy := int64(-1); dy <= 1; dy++ {
				if dx == 0 && dy <= 0 {
					continue
				}
				adjKey := cellKey{X: key.X + dx, Y: key.Y + dy}
				if adj, ok := g.cells[adjKey]; ok {
					addPairs(entries, adj, false)
				}
			}
		}
	}

	return pairs
}

// aabbOverlap reports whether two AABBs, given by position + collider
// offset/half-extent, intersect.
func aabbOverlap(r *ecs.Registry, a, b ecs.Entity) bool {
	pa, err := ecs.GetComponent[ecs.Position](r, a)
	if err != nil {
		return false
	}
	pb, err := ecs.GetComponent[ecs.Position](r, b)
	if err != nil {
		return false
	}
	ca, err := ecs.GetComponent[ecs.Collider](r, a)
	if err != nil {
		return false
	}
	cb, err := ecs.GetComponent[ecs.Collider](r, b)
	if err != nil {
		return false
	}

	ax := pa.X + ca.CenterX
	ay := pa.Y + ca.CenterY
	bx := pb.X + cb.CenterX
	by := pb.Y + cb.CenterY

	return abs32(ax-bx) <= (ca.HalfWidth+cb.HalfWidth) &&
		abs32(ay-by) <= (ca.HalfHeight+cb.HalfHeight)
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
