package server

import (
	"log"
	"net"
	"strconv"
	"time"

	"github.com/ironwing/arena-server/internal/ecs"
	"github.com/ironwing/arena-server/internal/match"
	"github.com/ironwing/arena-server/internal/netcode"
	"github.com/ironwing/arena-server/internal/sim"
	"github.com/ironwing/arena-server/internal/transport"
)

func (s *Server) handleCreateRoom(from *net.UDPAddr, body []byte) {
	rec, ok := s.sessions.GetByAddr(from)
	if !ok {
		return
	}
	req, err := netcode.DecodeCreateRoom(body)
	if err != nil {
		log.Printf("server: bad CreateRoom from %s: %v", from, err)
		return
	}

	room := s.matches.CreateRoom(req.Name, req.Private, req.Password, int(req.Max))
	if room == nil {
		s.sendJoinOutcome(from, netcode.TypeCreateRoomResp, netcode.RoomUnknownError, 0)
		return
	}

	if err := s.joinRoom(room, rec); err != nil {
		s.sendJoinOutcome(from, netcode.TypeCreateRoomResp, roomErrorFor(err), room.ID)
		return
	}
	s.sendJoinOutcome(from, netcode.TypeCreateRoomResp, netcode.RoomSuccess, room.ID)
}

func (s *Server) handleJoinRoom(from *net.UDPAddr, body []byte) {
	rec, ok := s.sessions.GetByAddr(from)
	if !ok {
		return
	}
	req, err := netcode.DecodeJoinRoom(body)
	if err != nil {
		log.Printf("server: bad JoinRoom from %s: %v", from, err)
		return
	}

	room, ok := s.matches.GetRoom(req.RoomID)
	if !ok {
		s.sendJoinOutcome(from, netcode.TypeJoinRoomResp, netcode.RoomNotFound, req.RoomID)
		return
	}

	if room.Private {
		if banned, _ := s.players.IsBanned(from.IP.String()); banned {
			s.sendJoinOutcome(from, netcode.TypeJoinRoomResp, netcode.RoomPlayerBanned, req.RoomID)
			return
		}
		if !s.challenges.Validate(rec.PlayerID, req.Password, room.Password) {
			s.sendJoinOutcome(from, netcode.TypeJoinRoomResp, netcode.RoomWrongPassword, req.RoomID)
			return
		}
	}

	if err := s.joinRoom(room, rec); err != nil {
		s.sendJoinOutcome(from, netcode.TypeJoinRoomResp, roomErrorFor(err), req.RoomID)
		return
	}
	s.sendJoinOutcome(from, netcode.TypeJoinRoomResp, netcode.RoomSuccess, req.RoomID)
}

func (s *Server) handleLeaveRoom(from *net.UDPAddr, _ []byte) {
	rec, ok := s.sessions.GetByAddr(from)
	if !ok {
		return
	}
	room, ok := s.roomByKey(rec.RoomID())
	if !ok {
		return
	}

	if e, ok := rec.Entity(); ok {
		_ = room.Registry.DestroyEntity(e)
	}
	room.RemoveClient(rec.PlayerID)
	room.Broadcast(netcode.TypePlayerDisconnect, true, netcode.PlayerDisconnect{PlayerID: rec.PlayerID}.Encode())
}

func (s *Server) handleListRoom(from *net.UDPAddr, _ []byte) {
	stats := s.matches.GetStats()
	resp := netcode.ListRoomResp{Rooms: make([]netcode.RoomSummary, 0, len(stats.Rooms))}
	for _, rs := range stats.Rooms {
		if rs.State != match.StateWaiting && rs.State != match.StateStarting {
			continue
		}
		room, ok := s.matches.GetRoom(rs.ID)
		if !ok || room.Private {
			continue
		}
		resp.Rooms = append(resp.Rooms, netcode.RoomSummary{
			RoomID:      rs.ID,
			Name:        rs.Name,
			PlayerCount: uint8(rs.PlayerCount),
			MaxPlayers:  uint8(rs.MaxPlayers),
			Private:     false,
		})
	}
	if err := s.endpoint.SendReliable(from, netcode.TypeListRoomResp, resp.Encode()); err != nil {
		log.Printf("server: failed to send ListRoomResp to %s: %v", from, err)
	}
}

func (s *Server) handleMatchmakingReq(from *net.UDPAddr, _ []byte) {
	rec, ok := s.sessions.GetByAddr(from)
	if !ok {
		return
	}
	room := s.matches.GetOrCreateRoom(defaultRoomName(rec.PlayerID))
	if room == nil {
		s.sendJoinOutcome(from, netcode.TypeMatchmakingResp, netcode.RoomUnknownError, 0)
		return
	}
	if err := s.joinRoom(room, rec); err != nil {
		s.sendJoinOutcome(from, netcode.TypeMatchmakingResp, roomErrorFor(err), room.ID)
		return
	}
	s.sendJoinOutcome(from, netcode.TypeMatchmakingResp, netcode.RoomSuccess, room.ID)
}

func (s *Server) handleRequestChallenge(from *net.UDPAddr, body []byte) {
	rec, ok := s.sessions.GetByAddr(from)
	if !ok {
		return
	}
	req, err := netcode.DecodeRequestChallenge(body)
	if err != nil {
		log.Printf("server: bad RequestChallenge from %s: %v", from, err)
		return
	}
	if _, ok := s.matches.GetRoom(req.RoomID); !ok {
		return
	}

	nonce := s.challenges.Create(rec.PlayerID)
	resp := netcode.ChallengeResp{NonceHex: nonce, Ts: uint64(time.Now().Unix())}
	if err := s.endpoint.SendReliable(from, netcode.TypeChallengeResp, resp.Encode()); err != nil {
		log.Printf("server: failed to send ChallengeResp to %s: %v", from, err)
	}
}

// joinRoom adds rec to room's roster and spawns its player entity,
// broadcasting NewPlayer to the rest of the roster and replaying the
// existing roster's NewPlayer announcements back to the joiner, per
// spec.md section 4.4's join protocol.
func (s *Server) joinRoom(room *match.Room, rec *transport.ClientRecord) error {
	existing := room.Clients()

	if err := room.AddClient(rec); err != nil {
		return err
	}

	name := s.pendingNames.get(rec.PlayerID)
	e, err := room.Registry.CreateEntity()
	if err != nil {
		room.RemoveClient(rec.PlayerID)
		return err
	}
	if err := addPlayerComponents(room.Registry, e, rec.PlayerID, name); err != nil {
		room.RemoveClient(rec.PlayerID)
		return err
	}
	rec.SetEntity(e)

	newPlayerBody := netcode.NewPlayer{
		PlayerID: rec.PlayerID, Name: name,
		X: 0, Y: 0, Speed: PlayerDefaultSpeed, MaxHP: PlayerDefaultMaxHP,
	}.Encode()
	room.BroadcastExcept(netcode.TypeNewPlayer, true, newPlayerBody, rec.PlayerID)
	// Also send the joiner its own NewPlayer: the only place on the wire
	// that tells a client the player_id the server assigned it.
	if err := s.endpoint.SendReliable(rec.Addr, netcode.TypeNewPlayer, newPlayerBody); err != nil {
		log.Printf("server: failed to send self NewPlayer to %d: %v", rec.PlayerID, err)
	}

	for _, other := range existing {
		oe, ok := other.Entity()
		if !ok {
			continue
		}
		op, err := ecs.GetComponent[ecs.Player](room.Registry, oe)
		if err != nil {
			continue
		}
		opos, _ := ecs.GetComponent[ecs.Position](room.Registry, oe)
		var x, y float32
		if opos != nil {
			x, y = opos.X, opos.Y
		}
		body := netcode.NewPlayer{
			PlayerID: op.PlayerID, Name: op.Name, X: x, Y: y,
			Speed: PlayerDefaultSpeed, MaxHP: PlayerDefaultMaxHP,
		}.Encode()
		if err := s.endpoint.SendReliable(rec.Addr, netcode.TypeNewPlayer, body); err != nil {
			log.Printf("server: failed to replay NewPlayer to %d: %v", rec.PlayerID, err)
		}
	}
	return nil
}

func addPlayerComponents(r *ecs.Registry, e ecs.Entity, playerID uint32, name string) error {
	if err := ecs.AddComponent(r, e, ecs.Position{X: 0, Y: 0}); err != nil {
		return err
	}
	if err := ecs.AddComponent(r, e, ecs.Velocity{}); err != nil {
		return err
	}
	if err := ecs.AddComponent(r, e, ecs.Speed{Value: PlayerDefaultSpeed}); err != nil {
		return err
	}
	if err := ecs.AddComponent(r, e, ecs.Health{Cur: PlayerDefaultMaxHP, Max: PlayerDefaultMaxHP}); err != nil {
		return err
	}
	if err := ecs.AddComponent(r, e, ecs.Collider{HalfWidth: 16, HalfHeight: 16}); err != nil {
		return err
	}
	// Players are confined to the world rect; projectiles and enemies
	// are not tagged, so they remain subject only to boundary-margin
	// destruction (spec.md section 4.5 points 3 and 5).
	if err := ecs.AddComponent(r, e, ecs.BoundaryClamp{}); err != nil {
		return err
	}
	if err := ecs.AddComponent(r, e, ecs.Player{Name: name, Alive: true, Connected: true, PlayerID: playerID}); err != nil {
		return err
	}
	if err := ecs.AddComponent(r, e, ecs.Shoot{Interval: sim.PlayerShootInterval, CanShoot: true}); err != nil {
		return err
	}
	return ecs.AddComponent(r, e, ecs.Score{PlayerID: playerID})
}

func (s *Server) sendJoinOutcome(addr *net.UDPAddr, t netcode.Type, result netcode.RoomError, roomID uint32) {
	var body []byte
	switch t {
	case netcode.TypeCreateRoomResp:
		body = netcode.CreateRoomResp{Result: result, RoomID: roomID}.Encode()
	case netcode.TypeJoinRoomResp:
		body = netcode.JoinRoomResp{Result: result, RoomID: roomID}.Encode()
	case netcode.TypeMatchmakingResp:
		body = netcode.MatchmakingResp{Result: result, RoomID: roomID}.Encode()
	default:
		return
	}
	if err := s.endpoint.SendReliable(addr, t, body); err != nil {
		log.Printf("server: failed to send %s to %s: %v", t, addr, err)
	}
}

func roomErrorFor(err error) netcode.RoomError {
	switch err {
	case match.ErrRoomFull:
		return netcode.RoomFull
	case match.ErrAlreadyInRoom:
		return netcode.RoomAlreadyInRoom
	case match.ErrWrongPassword:
		return netcode.RoomWrongPassword
	default:
		return netcode.RoomUnknownError
	}
}

func defaultRoomName(playerID uint32) string {
	return "match-" + strconv.FormatUint(uint64(playerID), 10)
}
