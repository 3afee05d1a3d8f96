package sim

import (
	"log"

	"github.com/ironwing/arena-server/internal/ecs"
)

// PlayerShotSpeed, PlayerShotDamage and PlayerShootInterval tune
// player-fired projectiles and the minimum gap between shots, mirroring
// EnemyBasicFighterSpeed/CollisionDamage's role for enemy fire above.
// spec.md section 3 names the Shoot{timer,interval,can_shoot} cooldown
// gate but leaves its rate to the server, same as the rest of the
// tuning constants in this package.
const (
	PlayerShotSpeed     float32 = 480
	PlayerShotDamage    uint32  = 25
	PlayerShootInterval float32 = 0.25
)

// SubmitShoot records a fire request for e, coalesced the same way
// SubmitInput coalesces movement: at most one pending shot per entity
// survives to the next tick, regardless of how many PlayerShoot
// packets arrive for it in the meantime.
func (l *Loop) SubmitShoot(e ecs.Entity) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pendingShoot == nil {
		l.pendingShoot = make(map[ecs.Entity]struct{})
	}
	l.pendingShoot[e] = struct{}{}
}

func (l *Loop) drainShoots() []ecs.Entity {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.pendingShoot) == 0 {
		return nil
	}
	out := make([]ecs.Entity, 0, len(l.pendingShoot))
	for e := range l.pendingShoot {
		out = append(out, e)
	}
	l.pendingShoot = make(map[ecs.Entity]struct{})
	return out
}

// tickShootCooldowns advances every Player's Shoot timer, mirroring
// StepBasicFighter's own cooldown advance for enemies.
func tickShootCooldowns(r *ecs.Registry, dt float32) {
	players := ecs.All[ecs.Player](r)
	for i := range players {
		e := ecs.EntityAt[ecs.Player](r, i)
		shoot, err := ecs.GetComponent[ecs.Shoot](r, e)
		if err != nil {
			continue
		}
		if !shoot.CanShoot {
			shoot.Timer += dt
			if shoot.Timer >= shoot.Interval {
				shoot.CanShoot = true
			}
		}
	}
}

// firePlayerShots spawns a player-owned projectile for every entity
// that requested one this tick and whose Shoot cooldown is ready, and
// resets that cooldown. Fires rightward along the world's +X axis, the
// player-facing convention for this side-scroller; spec.md is silent
// on a player aim direction (unlike enemy fire's explicit
// normalize(dx,dy) aim-at-target rule).
func (l *Loop) firePlayerShots(r *ecs.Registry) {
	for _, e := range l.drainShoots() {
		player, err := ecs.GetComponent[ecs.Player](r, e)
		if err != nil || !player.Alive {
			continue
		}
		shoot, err := ecs.GetComponent[ecs.Shoot](r, e)
		if err != nil || !shoot.CanShoot {
			continue
		}
		pos, err := ecs.GetComponent[ecs.Position](r, e)
		if err != nil {
			continue
		}

		vx, vy := PlayerShotSpeed, float32(0)

		projectileID := r.NextProjectileID()
		projectile, err := r.CreateEntity()
		if err != nil {
			log.Printf("sim: room %d: failed to spawn player projectile: %v", l.Room.ID, err)
			continue
		}
		_ = ecs.AddComponent(r, projectile, ecs.Position{X: pos.X, Y: pos.Y})
		_ = ecs.AddComponent(r, projectile, ecs.Velocity{VX: vx, VY: vy})
		_ = ecs.AddComponent(r, projectile, ecs.Collider{HalfWidth: 4, HalfHeight: 4})
		_ = ecs.AddComponent(r, projectile, ecs.Projectile{
			ProjectileID: projectileID,
			Kind:         ecs.ProjectilePlayer,
			OwnerID:      player.PlayerID,
			Damage:       PlayerShotDamage,
		})

		shoot.CanShoot = false
		shoot.Timer = 0

		l.Events.Push(Event{Kind: EventProjectileSpawn, ProjectileSpawn: ProjectileSpawnPayload{
			ProjectileID: projectileID, Kind: uint8(ecs.ProjectilePlayer), OwnerID: player.PlayerID,
			X: pos.X, Y: pos.Y, VX: vx, VY: vy,
		}})
	}
}
