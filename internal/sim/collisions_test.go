package sim

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ironwing/arena-server/internal/ecs"
	"github.com/ironwing/arena-server/internal/match"
)

func spawnEnemy(t *testing.T, r *ecs.Registry, x, y float32, hp uint32) ecs.Entity {
	t.Helper()
	e, err := r.CreateEntity()
	require.NoError(t, err)
	require.NoError(t, ecs.AddComponent(r, e, ecs.Position{X: x, Y: y}))
	require.NoError(t, ecs.AddComponent(r, e, ecs.Collider{HalfWidth: 8, HalfHeight: 8}))
	require.NoError(t, ecs.AddComponent(r, e, ecs.Health{Cur: hp, Max: hp}))
	require.NoError(t, ecs.AddComponent(r, e, ecs.Enemy{EnemyID: uint32(e) + 1, Kind: ecs.EnemyBasicFighter, Alive: true}))
	return e
}

func spawnPlayer(t *testing.T, r *ecs.Registry, x, y float32, hp uint32, playerID uint32) ecs.Entity {
	t.Helper()
	e, err := r.CreateEntity()
	require.NoError(t, err)
	require.NoError(t, ecs.AddComponent(r, e, ecs.Position{X: x, Y: y}))
	require.NoError(t, ecs.AddComponent(r, e, ecs.Collider{HalfWidth: 8, HalfHeight: 8}))
	require.NoError(t, ecs.AddComponent(r, e, ecs.Health{Cur: hp, Max: hp}))
	require.NoError(t, ecs.AddComponent(r, e, ecs.Player{PlayerID: playerID, Alive: true}))
	require.NoError(t, ecs.AddComponent(r, e, ecs.Score{PlayerID: playerID}))
	return e
}

func spawnProjectile(t *testing.T, r *ecs.Registry, x, y float32, kind ecs.ProjectileKind, ownerID, damage uint32) ecs.Entity {
	t.Helper()
	e, err := r.CreateEntity()
	require.NoError(t, err)
	require.NoError(t, ecs.AddComponent(r, e, ecs.Position{X: x, Y: y}))
	require.NoError(t, ecs.AddComponent(r, e, ecs.Collider{HalfWidth: 4, HalfHeight: 4}))
	require.NoError(t, ecs.AddComponent(r, e, ecs.Projectile{
		ProjectileID: uint32(e) + 1, Kind: kind, OwnerID: ownerID, Damage: damage,
	}))
	return e
}

func newLoopWithRoom(t *testing.T) (*Loop, *match.Room) {
	t.Helper()
	room := newRunningRoom(t)
	return NewLoop(room), room
}

func TestResolveCollisionsPlayerProjectileKillsEnemy(t *testing.T) {
	loop, room := newLoopWithRoom(t)
	r := room.Registry

	owner := spawnPlayer(t, r, 900, 900, 100, 1)
	enemy := spawnEnemy(t, r, 10, 10, 5)
	spawnProjectile(t, r, 10, 10, ecs.ProjectilePlayer, 1, 50)

	loop.resolveCollisions(r)

	require.False(t, r.IsAlive(enemy))

	score, err := ecs.GetComponent[ecs.Score](r, owner)
	require.NoError(t, err)
	require.Equal(t, uint32(100), score.Value)

	events := loop.Events.Drain()
	require.Len(t, events, 2)
	kinds := []EventKind{events[0].Kind, events[1].Kind}
	require.Contains(t, kinds, EventProjectileHit)
	require.Contains(t, kinds, EventEnemyDestroy)
}

func TestResolveCollisionsPlayerProjectileDamagesEnemyWithoutKilling(t *testing.T) {
	loop, room := newLoopWithRoom(t)
	r := room.Registry

	spawnPlayer(t, r, 900, 900, 100, 1)
	enemy := spawnEnemy(t, r, 10, 10, 100)
	spawnProjectile(t, r, 10, 10, ecs.ProjectilePlayer, 1, 20)

	loop.resolveCollisions(r)

	require.True(t, r.IsAlive(enemy))
	hp, err := ecs.GetComponent[ecs.Health](r, enemy)
	require.NoError(t, err)
	require.Equal(t, uint32(80), hp.Cur)

	events := loop.Events.Drain()
	kinds := map[EventKind]bool{}
	for _, ev := range events {
		kinds[ev.Kind] = true
	}
	require.True(t, kinds[EventEnemyHit])
}

func TestResolveCollisionsEnemyProjectileKillsPlayer(t *testing.T) {
	loop, room := newLoopWithRoom(t)
	r := room.Registry

	player := spawnPlayer(t, r, 10, 10, 5, 1)
	enemy := spawnEnemy(t, r, 900, 900, 100)
	spawnProjectile(t, r, 10, 10, ecs.ProjectileEnemyBasic, uint32(enemy)+1, 50)

	loop.resolveCollisions(r)

	p, err := ecs.GetComponent[ecs.Player](r, player)
	require.NoError(t, err)
	require.False(t, p.Alive)

	events := loop.Events.Drain()
	var sawDied, sawDestroy bool
	for _, ev := range events {
		if ev.Kind == EventPlayerDied {
			sawDied = true
		}
		if ev.Kind == EventPlayerDestroy {
			sawDestroy = true
		}
	}
	require.True(t, sawDied)
	require.True(t, sawDestroy)
}

func TestResolveCollisionsPlayerVsEnemyBothTakeDamage(t *testing.T) {
	loop, room := newLoopWithRoom(t)
	r := room.Registry

	player := spawnPlayer(t, r, 10, 10, 100, 1)
	enemy := spawnEnemy(t, r, 10, 10, 100)

	loop.resolveCollisions(r)

	ph, err := ecs.GetComponent[ecs.Health](r, player)
	require.NoError(t, err)
	require.Equal(t, uint32(100-CollisionDamage), ph.Cur)

	eh, err := ecs.GetComponent[ecs.Health](r, enemy)
	require.NoError(t, err)
	require.Equal(t, uint32(100-CollisionDamage), eh.Cur)
}

func TestResolveCollisionsIgnoresNonOverlapping(t *testing.T) {
	loop, room := newLoopWithRoom(t)
	r := room.Registry

	spawnPlayer(t, r, 0, 0, 100, 1)
	spawnEnemy(t, r, 900, 900, 100)

	loop.resolveCollisions(r)
	require.Empty(t, loop.Events.Drain())
}
