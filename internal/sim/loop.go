package sim

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/ironwing/arena-server/internal/ecs"
	"github.com/ironwing/arena-server/internal/match"
)

// TickInterval is the fixed simulation step, per spec.md section 4.5
// ("a dedicated thread runs at a fixed step (≈16 ms)").
const TickInterval = 16 * time.Millisecond

// MaxDeltaSeconds caps a single tick's dt to guard against physics
// explosions after a scheduling pause, grounded on the teacher's
// gameLoop clamp in internal/game/room.go ("Cap delta time to prevent
// physics explosions after pauses").
const MaxDeltaSeconds = 0.1

// Input bitmask bits, per spec.md section 4.5 point 1.
const (
	InputUp uint8 = 1 << iota
	InputDown
	InputLeft
	InputRight
)

// CollisionDamage is the fixed damage both sides take on a
// Player-vs-Enemy body collision (spec.md section 4.5 point 4).
const CollisionDamage uint32 = 10

// World bounds used for boundary clamping (spec.md section 4.5 point
// 5); treated as a gameplay tuning parameter per spec.md section 1.
const (
	WorldMinX, WorldMinY = 0, 0
	WorldMaxX, WorldMaxY = 1920, 1080
)

// ProjectileBoundaryMargin is how far outside the world rect a
// projectile may travel before being destroyed.
const ProjectileBoundaryMargin = 64

type pendingInput struct {
	bitmask uint8
	seq     uint32
	hasSeq  bool
}

// Loop drives one room's authoritative tick: draining input, running
// enemy AI, integrating projectiles, resolving collisions, clamping
// boundaries and emitting events. Grounded on internal/game/room.go's
// gameLoop/updatePhysics (the two-ticker pattern there collapses here
// to the single fixed tick spec.md section 4.5 calls for) and
// internal/game/physics.go's UpdatePlayer, whose bitmask->force decode
// is the direct ancestor of the bitmask->velocity decode below.
type Loop struct {
	Room   *match.Room
	Events *EventQueue

	grid *spatialGrid

	mu           sync.Mutex
	pending      map[ecs.Entity]pendingInput
	pendingShoot map[ecs.Entity]struct{}

	stopCh  chan struct{}
	running bool
}

// NewLoop creates a tick loop over room, with a fresh event queue.
func NewLoop(room *match.Room) *Loop {
	return &Loop{
		Room:    room,
		Events:  NewEventQueue(),
		grid:    newSpatialGrid(128),
		pending: make(map[ecs.Entity]pendingInput),
		stopCh:  make(chan struct{}),
	}
}

// SubmitInput records the latest input bitmask for entity, coalescing
// same-or-older sequence numbers rather than queuing every arrival —
// spec.md section 4.5 point 1's "duplicate inputs ... already pending
// are coalesced", extended to also discard out-of-order stale packets
// since UDP delivery is unordered.
func (l *Loop) SubmitInput(e ecs.Entity, bitmask uint8, seq uint32) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cur, ok := l.pending[e]
	if ok && cur.hasSeq && seq <= cur.seq {
		return
	}
	l.pending[e] = pendingInput{bitmask: bitmask, seq: seq, hasSeq: true}
}

func (l *Loop) drainInput() map[ecs.Entity]uint8 {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.pending) == 0 {
		return nil
	}
	out := make(map[ecs.Entity]uint8, len(l.pending))
	for e, p := range l.pending {
		out[e] = p.bitmask
	}
	l.pending = make(map[ecs.Entity]pendingInput)
	return out
}

// Run starts the fixed-step goroutine. Stops when ctx is canceled or
// Stop is called.
func (l *Loop) Run(ctx context.Context) {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return
	}
	l.running = true
	l.mu.Unlock()

	go l.run(ctx)
}

// Stop signals the tick goroutine to exit.
func (l *Loop) Stop() {
	select {
	case <-l.stopCh:
	default:
		close(l.stopCh)
	}
}

func (l *Loop) run(ctx context.Context) {
	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stopCh:
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			if dt > MaxDeltaSeconds {
				dt = MaxDeltaSeconds
			}
			l.Tick(float32(dt))
		}
	}
}

// Tick runs exactly one simulation step.
func (l *Loop) Tick(dt float32) {
	if l.Room.State() != match.StateRunning {
		return
	}
	r := l.Room.Registry

	l.applyInput(r, dt)
	l.stepEnemies(r, dt)
	tickShootCooldowns(r, dt)
	l.firePlayerShots(r)
	l.integrateProjectiles(r, dt)
	l.resolveCollisions(r)
	l.clampBoundaries(r)
}

// applyInput decodes each pending bitmask into a desired velocity
// clamped by the entity's Speed, per spec.md section 4.5 point 1.
func (l *Loop) applyInput(r *ecs.Registry, dt float32) {
	inputs := l.drainInput()
	for e, bitmask := range inputs {
		vel, err := ecs.GetComponent[ecs.Velocity](r, e)
		if err != nil {
			continue
		}
		speed, err := ecs.GetComponent[ecs.Speed](r, e)
		if err != nil {
			continue
		}

		var vx, vy float32
		if bitmask&InputUp != 0 {
			vy -= speed.Value
		}
		if bitmask&InputDown != 0 {
			vy += speed.Value
		}
		if bitmask&InputLeft != 0 {
			vx -= speed.Value
		}
		if bitmask&InputRight != 0 {
			vx += speed.Value
		}
		vel.VX, vel.VY = vx, vy

		pos, err := ecs.GetComponent[ecs.Position](r, e)
		if err == nil {
			pos.X += vel.VX * dt
			pos.Y += vel.VY * dt
			// EntityID here is the player_id the wire protocol already
			// uses for PlayerHit/PlayerDied/NewPlayer, not the raw ECS
			// handle: a client correlates a move with "who" by the same
			// ID it learned at join time.
			entityID := uint32(e)
			if player, err := ecs.GetComponent[ecs.Player](r, e); err == nil {
				entityID = player.PlayerID
			}
			l.Events.Push(Event{Kind: EventPositionUpdate, PositionUpdate: PositionUpdatePayload{
				EntityID: entityID, X: pos.X, Y: pos.Y,
			}})
		}
	}
}

// stepEnemies advances every Enemy entity's behavior per its Kind.
func (l *Loop) stepEnemies(r *ecs.Registry, dt float32) {
	enemies := ecs.All[ecs.Enemy](r)
	for i := range enemies {
		e := ecs.EntityAt[ecs.Enemy](r, i)
		enemy, err := ecs.GetComponent[ecs.Enemy](r, e)
		if err != nil || !enemy.Alive {
			continue
		}

		switch enemy.Kind {
		case ecs.EnemyBasicFighter:
			l.stepBasicFighter(r, e, enemy, dt)
		}
	}
}

func (l *Loop) stepBasicFighter(r *ecs.Registry, e ecs.Entity, enemy *ecs.Enemy, dt float32) {
	pos, err := ecs.GetComponent[ecs.Position](r, e)
	if err != nil {
		return
	}

	target, hasTarget := NearestAlivePlayer(r, pos.X, pos.Y)
	outcome := StepBasicFighter(r, e, dt, target, hasTarget)

	vel, _ := ecs.GetComponent[ecs.Velocity](r, e)
	if vel != nil {
		pos.X += vel.VX * dt
		pos.Y += vel.VY * dt
		l.Events.Push(Event{Kind: EventEnemyMove, EnemyMove: EnemyMovePayload{
			EnemyID: enemy.EnemyID, X: pos.X, Y: pos.Y,
		}})
	}

	if outcome != AIFired || !hasTarget {
		return
	}

	targetPos, err := ecs.GetComponent[ecs.Position](r, target)
	if err != nil {
		return
	}
	vx, vy := AimAt(pos.X, pos.Y, targetPos.X, targetPos.Y, ProjectileSpeed)

	projectileID := r.NextProjectileID()
	projectile, err := r.CreateEntity()
	if err != nil {
		log.Printf("sim: room %d: failed to spawn enemy projectile: %v", l.Room.ID, err)
		return
	}
	_ = ecs.AddComponent(r, projectile, ecs.Position{X: pos.X, Y: pos.Y})
	_ = ecs.AddComponent(r, projectile, ecs.Velocity{VX: vx, VY: vy})
	_ = ecs.AddComponent(r, projectile, ecs.Collider{HalfWidth: 4, HalfHeight: 4})
	_ = ecs.AddComponent(r, projectile, ecs.Projectile{
		ProjectileID: projectileID,
		Kind:         ecs.ProjectileEnemyBasic,
		OwnerID:      enemy.EnemyID,
		Damage:       CollisionDamage,
	})

	l.Events.Push(Event{Kind: EventProjectileSpawn, ProjectileSpawn: ProjectileSpawnPayload{
		ProjectileID: projectileID, Kind: uint8(ecs.ProjectileEnemyBasic), OwnerID: enemy.EnemyID,
		X: pos.X, Y: pos.Y, VX: vx, VY: vy,
	}})
}

// integrateProjectiles advances every projectile's position and
// destroys those that exit the world by ProjectileBoundaryMargin.
func (l *Loop) integrateProjectiles(r *ecs.Registry, dt float32) {
	projectiles := ecs.All[ecs.Projectile](r)
	entities := make([]ecs.Entity, len(projectiles))
	for i := range projectiles {
		entities[i] = ecs.EntityAt[ecs.Projectile](r, i)
	}

	for _, e := range entities {
		proj, err := ecs.GetComponent[ecs.Projectile](r, e)
		if err != nil || proj.Destroyed {
			continue
		}
		pos, err := ecs.GetComponent[ecs.Position](r, e)
		if err != nil {
			continue
		}
		vel, err := ecs.GetComponent[ecs.Velocity](r, e)
		if err != nil {
			continue
		}
		pos.X += vel.VX * dt
		pos.Y += vel.VY * dt

		if pos.X < WorldMinX-ProjectileBoundaryMargin || pos.X > WorldMaxX+ProjectileBoundaryMargin ||
			pos.Y < WorldMinY-ProjectileBoundaryMargin || pos.Y > WorldMaxY+ProjectileBoundaryMargin {
			l.destroyProjectile(r, e, proj)
		}
	}
}

func (l *Loop) destroyProjectile(r *ecs.Registry, e ecs.Entity, proj *ecs.Projectile) {
	proj.Destroyed = true
	l.Events.Push(Event{Kind: EventProjectileDestroy, ProjectileDestroy: ProjectileDestroyPayload{
		ProjectileID: proj.ProjectileID,
	}})
	_ = r.DestroyEntity(e)
}

// clampBoundaries constrains every BoundaryClamp+Collider+Position
// entity to the world rect minus its half-size, per spec.md section
// 4.5 point 5 ("entities flagged for clamping"). Projectiles carry no
// BoundaryClamp tag, so they stay subject only to the boundary-margin
// destruction check in integrateProjectiles, which runs first in the
// tick order and would otherwise never see them leave the world rect.
func (l *Loop) clampBoundaries(r *ecs.Registry) {
	colliders := ecs.All[ecs.Collider](r)
	for i, c := range colliders {
		e := ecs.EntityAt[ecs.Collider](r, i)
		if !ecs.HasComponent[ecs.BoundaryClamp](r, e) {
			continue
		}
		pos, err := ecs.GetComponent[ecs.Position](r, e)
		if err != nil {
			continue
		}
		minX, maxX := WorldMinX+c.HalfWidth, WorldMaxX-c.HalfWidth
		minY, maxY := WorldMinY+c.HalfHeight, WorldMaxY-c.HalfHeight
		if pos.X < minX {
			pos.X = minX
		} else if pos.X > maxX {
			pos.X = maxX
		}
		if pos.Y < minY {
			pos.Y = minY
		} else if pos.Y > maxY {
			pos.Y = maxY
		}
	}
}
