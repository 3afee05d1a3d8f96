// Package server wires the session, matchmaking, simulation and
// transport layers into the handler table spec.md section 4 describes:
// one Endpoint dispatching decoded packets to room/session operations,
// a per-room sim.Loop started on Running and drained into outbound
// broadcasts, and the periodic sweeps (client timeout, empty rooms,
// expired challenges) the teacher's GameServer.Start runs as
// background tickers.
package server

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/ironwing/arena-server/internal/config"
	"github.com/ironwing/arena-server/internal/match"
	"github.com/ironwing/arena-server/internal/netcode"
	"github.com/ironwing/arena-server/internal/session"
	"github.com/ironwing/arena-server/internal/sim"
	"github.com/ironwing/arena-server/internal/store"
	"github.com/ironwing/arena-server/internal/transport"
)

// Gameplay spawn constants. Not named by spec.md, which leaves a
// player's starting stats to the server; kept here rather than in
// internal/sim since they govern room setup, not the per-tick rules.
const (
	PlayerDefaultSpeed float32 = 220
	PlayerDefaultMaxHP uint32  = 100
)

// SweepInterval is the cadence for the background room/challenge/
// session sweeps, grounded on the teacher's Start() ticker cadence
// for room cleanup and stats logging (cmd/gameserver/main.go).
const SweepInterval = 5 * time.Second

// Server owns every subsystem a running room needs and the Endpoint
// handler table that feeds them from the wire.
type Server struct {
	cfg        *config.ServerConfig
	endpoint   *transport.Endpoint
	sessions   *session.Manager
	matches    *match.Matchmaker
	challenges *match.ChallengeStore
	players    store.PlayerStore

	loopsMu sync.Mutex
	loops   map[uint32]*sim.Loop

	clock        serverClock
	pendingNames *nameRegistry
}

// nameRegistry remembers the display name a player chose during the
// PlayerInfo handshake until it joins a room and gets an ecs.Player
// component of its own to carry that name from then on.
type nameRegistry struct {
	mu    sync.Mutex
	names map[uint32]string
}

func newNameRegistry() *nameRegistry {
	return &nameRegistry{names: make(map[uint32]string)}
}

func (n *nameRegistry) set(playerID uint32, name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.names[playerID] = name
}

func (n *nameRegistry) get(playerID uint32) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.names[playerID]
}

// New builds a Server bound to endpoint and players, using cfg for
// bind/limits. The caller still owns calling endpoint.Run and
// Server.Run under the same context.
func New(cfg *config.ServerConfig, endpoint *transport.Endpoint, players store.PlayerStore) *Server {
	s := &Server{
		cfg:          cfg,
		endpoint:     endpoint,
		sessions:     session.NewManager(),
		matches:      match.NewMatchmaker(endpoint),
		challenges:   match.NewChallengeStore(),
		players:      players,
		loops:        make(map[uint32]*sim.Loop),
		clock:        newServerClock(time.Now()),
		pendingNames: newNameRegistry(),
	}
	s.registerHandlers()
	return s
}

func (s *Server) registerHandlers() {
	s.endpoint.Handle(netcode.TypePlayerInfo, s.handlePlayerInfo)
	s.endpoint.Handle(netcode.TypeHeartbeat, s.handleHeartbeat)
	s.endpoint.Handle(netcode.TypeChat, s.handleChat)

	s.endpoint.Handle(netcode.TypeCreateRoom, s.handleCreateRoom)
	s.endpoint.Handle(netcode.TypeJoinRoom, s.handleJoinRoom)
	s.endpoint.Handle(netcode.TypeLeaveRoom, s.handleLeaveRoom)
	s.endpoint.Handle(netcode.TypeListRoom, s.handleListRoom)
	s.endpoint.Handle(netcode.TypeMatchmakingReq, s.handleMatchmakingReq)
	s.endpoint.Handle(netcode.TypeRequestChallenge, s.handleRequestChallenge)

	s.endpoint.Handle(netcode.TypePlayerInput, s.handlePlayerInput)
	s.endpoint.Handle(netcode.TypePlayerShoot, s.handlePlayerShoot)
	s.endpoint.Handle(netcode.TypeScoreboardReq, s.handleScoreboardReq)
}

// Run drives the background sweeps until ctx is canceled: client
// timeouts, empty-room garbage collection, expired challenges.
// Grounded on the teacher's Start() background ticker for room
// cleanup and stats logging (cmd/gameserver/main.go).
func (s *Server) Run(ctx context.Context) {
	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.sweepTimeouts(now)
			removed := s.matches.CleanupEmptyRooms()
			if removed > 0 {
				log.Printf("server: cleaned up %d empty room(s)", removed)
			}
			s.challenges.Sweep()
			s.promoteReadyRooms(ctx)
		}
	}
}

// sweepTimeouts disconnects every client idle past session.ClientTimeout:
// destroys its entity, broadcasts PlayerDisconnect, drops it from its
// room and from session tracking, per spec.md section 5's shutdown/
// disconnect contract.
func (s *Server) sweepTimeouts(now time.Time) {
	for _, rec := range s.sessions.SweepTimeouts(now) {
		s.disconnectClient(rec)
	}
}

func (s *Server) disconnectClient(rec *transport.ClientRecord) {
	roomID := rec.RoomID()
	if roomID != transport.NoRoom {
		if room, ok := s.roomByKey(roomID); ok {
			if e, ok := rec.Entity(); ok {
				_ = room.Registry.DestroyEntity(e)
			}
			room.RemoveClient(rec.PlayerID)
			body := netcode.PlayerDisconnect{PlayerID: rec.PlayerID}.Encode()
			room.Broadcast(netcode.TypePlayerDisconnect, true, body)
		}
	}
	s.endpoint.DropPeer(rec.Addr)
	s.sessions.Remove(rec.PlayerID)
	log.Printf("server: player %d timed out", rec.PlayerID)
}

// promoteReadyRooms advances every Starting room whose countdown has
// elapsed to Running, starting its sim.Loop and broadcast drain.
func (s *Server) promoteReadyRooms(ctx context.Context) {
	for _, rs := range s.matches.GetStats().Rooms {
		room, ok := s.matches.GetRoom(rs.ID)
		if !ok {
			continue
		}
		if room.ReadyToRun(time.Now()) {
			room.Start()
			body := netcode.GameStart{RoomID: room.ID}.Encode()
			room.Broadcast(netcode.TypeGameStart, true, body)
			s.spawnEnemyWave(room)
			s.startRoomLoop(ctx, room)
		}
	}
}

func (s *Server) roomByKey(key string) (*match.Room, bool) {
	id, err := parseRoomKey(key)
	if err != nil {
		return nil, false
	}
	return s.matches.GetRoom(id)
}

// parseRoomKey recovers the room ID transport.ClientRecord.RoomID()
// stores as a string (match.Room keys its roster assignment this way
// so ClientRecord stays free of a match-package import).
func parseRoomKey(key string) (uint32, error) {
	id, err := strconv.ParseUint(key, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(id), nil
}
