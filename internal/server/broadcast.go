package server

import (
	"context"
	"time"

	"github.com/ironwing/arena-server/internal/ecs"
	"github.com/ironwing/arena-server/internal/match"
	"github.com/ironwing/arena-server/internal/netcode"
	"github.com/ironwing/arena-server/internal/sim"
)

// startRoomLoop creates room's sim.Loop, starts its fixed-step tick
// goroutine, and starts a second goroutine that drains the loop's
// event queue every tick and turns each event into the outbound
// packet spec.md section 4.5 point 6 names, broadcast to the roster.
func (s *Server) startRoomLoop(ctx context.Context, room *match.Room) {
	loop := sim.NewLoop(room)

	s.loopsMu.Lock()
	s.loops[room.ID] = loop
	s.loopsMu.Unlock()

	loop.Run(ctx)
	go s.drainEvents(ctx, room, loop)
}

// loopFor returns the active sim.Loop for a room, if its game has
// started.
func (s *Server) loopFor(roomID uint32) (*sim.Loop, bool) {
	s.loopsMu.Lock()
	defer s.loopsMu.Unlock()
	loop, ok := s.loops[roomID]
	return loop, ok
}

func (s *Server) drainEvents(ctx context.Context, room *match.Room, loop *sim.Loop) {
	ticker := time.NewTicker(sim.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if room.State() == match.StateFinished {
				return
			}
			for _, ev := range loop.Events.Drain() {
				s.broadcastEvent(room, ev)
			}
			if reason, over := roomOutcome(room); over {
				loop.Stop()
				room.Finish()
				room.Broadcast(netcode.TypeGameEnd, true, netcode.GameEnd{RoomID: room.ID, Reason: reason}.Encode())
				return
			}
		}
	}
}

// roomOutcome reports whether room's game is decided: every enemy in
// its opening wave destroyed (victory) or every player dead (defeat).
// Dead players stay in the registry with Alive=false rather than
// being removed (resolveCollisions keeps their final Score around),
// so defeat is judged by the Alive flag, not entity count.
func roomOutcome(room *match.Room) (reason string, over bool) {
	players := ecs.All[ecs.Player](room.Registry)
	if len(players) == 0 {
		return "", false
	}
	anyAlive := false
	for _, p := range players {
		if p.Alive {
			anyAlive = true
			break
		}
	}
	if !anyAlive {
		return "defeat", true
	}
	if len(ecs.All[ecs.Enemy](room.Registry)) == 0 {
		return "victory", true
	}
	return "", false
}

func (s *Server) broadcastEvent(room *match.Room, ev sim.Event) {
	switch ev.Kind {
	case sim.EventPositionUpdate:
		p := ev.PositionUpdate
		body := netcode.PositionUpdate{EntityID: p.EntityID, X: p.X, Y: p.Y, Ts: s.clock.elapsed()}.Encode()
		room.Broadcast(netcode.TypePlayerMove, false, body)

	case sim.EventEnemyMove:
		p := ev.EnemyMove
		body := netcode.EnemyMove{EnemyID: p.EnemyID, X: p.X, Y: p.Y}.Encode()
		room.Broadcast(netcode.TypeEnemyMove, false, body)

	case sim.EventEnemyHit:
		p := ev.EnemyHit
		body := netcode.EnemyHit{EnemyID: p.EnemyID, Damage: p.Damage, RemainingHP: p.HPLeft}.Encode()
		room.Broadcast(netcode.TypeEnemyHit, true, body)

	case sim.EventEnemyDestroy:
		p := ev.EnemyDestroy
		body := netcode.EnemyDestroy{EnemyID: p.EnemyID, X: p.X, Y: p.Y, KillerID: p.KillerID, Score: p.Score}.Encode()
		room.Broadcast(netcode.TypeEnemyDeath, true, body)

	case sim.EventPlayerHit:
		p := ev.PlayerHit
		body := netcode.PlayerHit{PlayerID: p.PlayerID, Damage: p.Damage, RemainingHP: p.HPLeft}.Encode()
		room.Broadcast(netcode.TypePlayerHit, true, body)

	case sim.EventPlayerDied:
		p := ev.PlayerDied
		body := netcode.PlayerDied{PlayerID: p.PlayerID, Name: p.Name}.Encode()
		room.Broadcast(netcode.TypePlayerDeath, true, body)

	case sim.EventPlayerDestroy:
		// No dedicated wire kind exists for "remove a dead player's
		// entity" distinct from the death announcement itself; reuse
		// TypePlayerDeath, the client decodes PlayerDestroy's smaller
		// body to know the entity is gone. The underlying ecs.Entity
		// itself is left in the registry with Player.Alive=false (it
		// still carries the final Score), matching resolveCollisions's
		// own player-death handling.
		p := ev.PlayerDestroy
		body := netcode.PlayerDestroy{PlayerID: p.PlayerID}.Encode()
		room.Broadcast(netcode.TypePlayerDeath, true, body)

	case sim.EventProjectileSpawn:
		p := ev.ProjectileSpawn
		body := netcode.ProjectileSpawn{
			ProjectileID: p.ProjectileID, Kind: p.Kind, OwnerID: p.OwnerID,
			X: p.X, Y: p.Y, VX: p.VX, VY: p.VY,
		}.Encode()
		room.Broadcast(netcode.TypeProjectileSpawn, true, body)

	case sim.EventProjectileHit:
		p := ev.ProjectileHit
		body := netcode.ProjectileHit{ProjectileID: p.ProjectileID, TargetID: p.TargetID}.Encode()
		room.Broadcast(netcode.TypeProjectileHit, true, body)

	case sim.EventProjectileDestroy:
		p := ev.ProjectileDestroy
		body := netcode.ProjectileDestroy{ProjectileID: p.ProjectileID}.Encode()
		room.Broadcast(netcode.TypeProjectileDestroy, true, body)
	}
}

// serverClock stamps PositionUpdate packets with a seconds-since-start
// timestamp for the client's StateHistory sampling (spec.md section
// 4.6), rather than a raw wall-clock Unix value too large to carry
// meaningfully in a float32.
type serverClock struct {
	start time.Time
}

func newServerClock(start time.Time) serverClock {
	return serverClock{start: start}
}

func (c serverClock) elapsed() float32 {
	return float32(time.Since(c.start).Seconds())
}
