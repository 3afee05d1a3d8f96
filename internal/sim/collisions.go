package sim

import "github.com/ironwing/arena-server/internal/ecs"

// NoKiller marks an enemy kill with no credited player (e.g. a
// player-vs-enemy body collision, where both sides just take
// CollisionDamage). player_id 0 is a valid allocation per spec.md's
// scenarios, so it cannot double as this sentinel.
const NoKiller uint32 = ^uint32(0)

// resolveCollisions runs the broad phase, then applies AABB-vs-AABB
// effects for the three pair kinds spec.md section 4.5 point 4 names;
// every other pair kind is ignored.
func (l *Loop) resolveCollisions(r *ecs.Registry) {
	l.grid.rebuild(r)

	for _, pair := range l.grid.potentialPairs() {
		a, b := pair[0], pair[1]
		if !aabbOverlap(r, a, b) {
			continue
		}
		l.resolvePair(r, a, b)
	}
}

func (l *Loop) resolvePair(r *ecs.Registry, a, b ecs.Entity) {
	projA, errA := ecs.GetComponent[ecs.Projectile](r, a)
	projB, errB := ecs.GetComponent[ecs.Projectile](r, b)

	switch {
	case errA == nil && errB != nil:
		l.resolveProjectileVsEntity(r, a, projA, b)
	case errB == nil && errA != nil:
		l.resolveProjectileVsEntity(r, b, projB, a)
	default:
		l.resolvePlayerVsEnemy(r, a, b)
	}
}

// resolveProjectileVsEntity handles a live projectile striking a
// non-projectile entity: player projectile vs enemy, or enemy
// projectile vs player, per spec.md section 4.5 point 4.
func (l *Loop) resolveProjectileVsEntity(r *ecs.Registry, projEntity ecs.Entity, proj *ecs.Projectile, target ecs.Entity) {
	if proj.Destroyed {
		return
	}

	if enemy, err := ecs.GetComponent[ecs.Enemy](r, target); err == nil && proj.Kind == ecs.ProjectilePlayer {
		l.applyDamageToEnemy(r, target, enemy, proj.Damage, proj.OwnerID)
		l.destroyProjectileHit(r, projEntity, proj, uint32(target))
		return
	}

	if player, err := ecs.GetComponent[ecs.Player](r, target); err == nil && proj.Kind == ecs.ProjectileEnemyBasic {
		l.applyDamageToPlayer(r, target, player, proj.Damage)
		l.destroyProjectileHit(r, projEntity, proj, uint32(target))
	}
}

func (l *Loop) destroyProjectileHit(r *ecs.Registry, e ecs.Entity, proj *ecs.Projectile, targetID uint32) {
	l.Events.Push(Event{Kind: EventProjectileHit, ProjectileHit: ProjectileHitPayload{
		ProjectileID: proj.ProjectileID, TargetID: targetID,
	}})
	proj.Destroyed = true
	_ = r.DestroyEntity(e)
}

// resolvePlayerVsEnemy handles a player body colliding with an enemy
// body: both take CollisionDamage.
func (l *Loop) resolvePlayerVsEnemy(r *ecs.Registry, a, b ecs.Entity) {
	playerEntity, enemyEntity := ecs.Entity(0), ecs.Entity(0)
	var player *ecs.Player
	var enemy *ecs.Enemy
	var err error

	if player, err = ecs.GetComponent[ecs.Player](r, a); err == nil {
		if enemy, err = ecs.GetComponent[ecs.Enemy](r, b); err != nil {
			return
		}
		playerEntity, enemyEntity = a, b
	} else if player, err = ecs.GetComponent[ecs.Player](r, b); err == nil {
		if enemy, err = ecs.GetComponent[ecs.Enemy](r, a); err != nil {
			return
		}
		playerEntity, enemyEntity = b, a
	} else {
		return
	}

	l.applyDamageToPlayer(r, playerEntity, player, CollisionDamage)
	l.applyDamageToEnemy(r, enemyEntity, enemy, CollisionDamage, NoKiller)
}

func (l *Loop) applyDamageToEnemy(r *ecs.Registry, e ecs.Entity, enemy *ecs.Enemy, damage, killerID uint32) {
	if !enemy.Alive {
		return
	}
	health, err := ecs.GetComponent[ecs.Health](r, e)
	if err != nil {
		return
	}
	if damage >= health.Cur {
		health.Cur = 0
	} else {
		health.Cur -= damage
	}

	if health.Cur == 0 {
		enemy.Alive = false
		scoreGain := enemyKillScore(enemy.Kind)

		pos, _ := ecs.GetComponent[ecs.Position](r, e)
		var x, y float32
		if pos != nil {
			x, y = pos.X, pos.Y
		}

		if killerID != NoKiller {
			l.creditKill(r, killerID, scoreGain)
		}

		l.Events.Push(Event{Kind: EventEnemyDestroy, EnemyDestroy: EnemyDestroyPayload{
			EnemyID: enemy.EnemyID, X: x, Y: y, KillerID: killerID, Score: scoreGain,
		}})
		_ = r.DestroyEntity(e)
		return
	}

	l.Events.Push(Event{Kind: EventEnemyHit, EnemyHit: EnemyHitPayload{
		EnemyID: enemy.EnemyID, Damage: damage, HPLeft: health.Cur,
	}})
}

func (l *Loop) applyDamageToPlayer(r *ecs.Registry, e ecs.Entity, player *ecs.Player, damage uint32) {
	if !player.Alive {
		return
	}
	health, err := ecs.GetComponent[ecs.Health](r, e)
	if err != nil {
		return
	}
	if damage >= health.Cur {
		health.Cur = 0
	} else {
		health.Cur -= damage
	}

	if health.Cur == 0 {
		player.Alive = false
		l.Events.Push(Event{Kind: EventPlayerDied, PlayerDied: PlayerDiedPayload{
			PlayerID: player.PlayerID, Name: player.Name,
		}})
		l.Events.Push(Event{Kind: EventPlayerDestroy, PlayerDestroy: PlayerDestroyPayload{PlayerID: player.PlayerID}})
		return
	}

	l.Events.Push(Event{Kind: EventPlayerHit, PlayerHit: PlayerHitPayload{
		PlayerID: player.PlayerID, Damage: damage, HPLeft: health.Cur,
	}})
}

// creditKill adds scoreGain to killerID's Score component, if found.
func (l *Loop) creditKill(r *ecs.Registry, killerID uint32, scoreGain uint32) {
	scores := ecs.All[ecs.Score](r)
	for i := range scores {
		if scores[i].PlayerID != killerID {
			continue
		}
		e := ecs.EntityAt[ecs.Score](r, i)
		s, err := ecs.GetComponent[ecs.Score](r, e)
		if err == nil {
			s.Value += scoreGain
		}
		return
	}
}

// enemyKillScore is the score awarded for destroying an enemy of kind,
// a gameplay tuning parameter per spec.md section 1.
func enemyKillScore(kind ecs.EnemyKind) uint32 {
	switch kind {
	case ecs.EnemyBasicFighter:
		return 100
	default:
		return 0
	}
}
