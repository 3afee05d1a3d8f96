package sim

import (
	"math"

	"github.com/ironwing/arena-server/internal/ecs"
)

// AIOutcome is the result of advancing one enemy's behavior for a
// tick, mirroring the enum-outcome idiom of the teacher's
// ValidationResult (internal/game/anticheat.go) repurposed from
// anti-cheat verdicts to AI tick results.
type AIOutcome int

const (
	AINoAction AIOutcome = iota
	AIFired
)

// EnemyBasicFighterSpeed is the configured leftward speed for the
// BASIC_FIGHTER behavior (spec.md section 4.5 point 2; treated as a
// gameplay tuning parameter per spec.md section 1's scope note).
const EnemyBasicFighterSpeed float32 = 80

// ProjectileSpeed is the configured speed used when aiming a spawned
// projectile at its target.
const ProjectileSpeed float32 = 220

// StepBasicFighter advances one BASIC_FIGHTER enemy: sets its velocity
// to move left at EnemyBasicFighterSpeed, advances its Shoot timer,
// and once the cooldown has elapsed and a target exists resets the
// timer and returns AIFired. It spawns nothing itself; the caller
// (Loop.stepBasicFighter) spawns and aims the projectile.
func StepBasicFighter(r *ecs.Registry, enemy ecs.Entity, dt float32, nearestPlayer ecs.Entity, hasTarget bool) AIOutcome {
	vel, err := ecs.GetComponent[ecs.Velocity](r, enemy)
	if err == nil {
		vel.VX = -EnemyBasicFighterSpeed
		vel.VY = 0
	}

	shoot, err := ecs.GetComponent[ecs.Shoot](r, enemy)
	if err != nil {
		return AINoAction
	}

	shoot.Timer += dt
	if shoot.Timer < shoot.Interval {
		return AINoAction
	}
	if !hasTarget {
		return AINoAction
	}

	shoot.Timer = 0
	shoot.CanShoot = true
	return AIFired
}

// AimAt returns a unit-normalized (vx, vy) from (fromX, fromY) toward
// (toX, toY) scaled by speed, per spec.md section 4.5 point 2's
// "normalize(dx,dy)·speed" aiming rule.
func AimAt(fromX, fromY, toX, toY, speed float32) (vx, vy float32) {
	dx := float64(toX - fromX)
	dy := float64(toY - fromY)
	dist := math.Hypot(dx, dy)
	if dist == 0 {
		return 0, 0
	}
	return float32(dx/dist) * speed, float32(dy/dist) * speed
}

// NearestAlivePlayer scans every Player entity and returns the one
// closest to (x, y), used to pick a BASIC_FIGHTER's firing target.
func NearestAlivePlayer(r *ecs.Registry, x, y float32) (ecs.Entity, bool) {
	players := ecs.All[ecs.Player](r)
	var best ecs.Entity
	bestDist := float32(math.MaxFloat32)
	found := false

	for i, p := range players {
		if !p.Alive {
			continue
		}
		e := ecs.EntityAt[ecs.Player](r, i)
		pos, err := ecs.GetComponent[ecs.Position](r, e)
		if err != nil {
			continue
		}
		dx := pos.X - x
		dy := pos.Y - y
		d := dx*dx + dy*dy
		if !found || d < bestDist {
			bestDist = d
			best = e
			found = true
		}
	}
	return best, found
}
