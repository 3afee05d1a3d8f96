package server

import (
	"log"

	"github.com/ironwing/arena-server/internal/ecs"
	"github.com/ironwing/arena-server/internal/match"
	"github.com/ironwing/arena-server/internal/netcode"
	"github.com/ironwing/arena-server/internal/sim"
)

// EnemyWaveSize and EnemyWaveSpacing describe the initial BASIC_FIGHTER
// wave a room spawns on Running. spec.md's enemy AI rules (section 4.5
// point 2) describe how an enemy behaves once it exists, but nothing in
// internal/sim ever creates one — some component has to seed the wave,
// and the room-start transition is the natural point since it already
// owns the registry and the broadcast to announce new entities.
const (
	EnemyWaveSize       = 5
	EnemyWaveSpacing    = 150
	EnemyBasicFighterHP = 30
	EnemyShootInterval  = 2.0
)

// spawnEnemyWave creates room's opening wave of BASIC_FIGHTER enemies
// along the right edge of the world, staggered vertically, and
// broadcasts an EnemySpawn for each so clients can render them
// immediately rather than waiting for their first EnemyMove.
func (s *Server) spawnEnemyWave(room *match.Room) {
	r := room.Registry
	for i := 0; i < EnemyWaveSize; i++ {
		e, err := r.CreateEntity()
		if err != nil {
			log.Printf("server: room %d: failed to spawn enemy %d: %v", room.ID, i, err)
			return
		}

		x := float32(sim.WorldMaxX - 100)
		y := float32(100 + i*EnemyWaveSpacing)
		enemyID := uint32(e) + 1

		_ = ecs.AddComponent(r, e, ecs.Position{X: x, Y: y})
		_ = ecs.AddComponent(r, e, ecs.Velocity{})
		_ = ecs.AddComponent(r, e, ecs.Health{Cur: EnemyBasicFighterHP, Max: EnemyBasicFighterHP})
		_ = ecs.AddComponent(r, e, ecs.Collider{HalfWidth: 16, HalfHeight: 16})
		_ = ecs.AddComponent(r, e, ecs.Shoot{Interval: EnemyShootInterval})
		_ = ecs.AddComponent(r, e, ecs.Enemy{EnemyID: enemyID, Kind: ecs.EnemyBasicFighter, Alive: true})

		body := netcode.EnemySpawn{EnemyID: enemyID, Kind: uint8(ecs.EnemyBasicFighter), X: x, Y: y, MaxHP: EnemyBasicFighterHP}.Encode()
		room.Broadcast(netcode.TypeEnemySpawn, true, body)
	}
}
