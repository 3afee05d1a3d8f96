package server

import (
	"log"
	"net"

	"github.com/ironwing/arena-server/internal/netcode"
	"github.com/ironwing/arena-server/internal/sim"
)

// handlePlayerInput forwards a movement bitmask to the sender's room
// sim.Loop, a no-op if the room's game has not started yet.
func (s *Server) handlePlayerInput(from *net.UDPAddr, body []byte) {
	rec, ok := s.sessions.GetByAddr(from)
	if !ok {
		return
	}
	in, err := netcode.DecodePlayerInput(body)
	if err != nil {
		log.Printf("server: bad PlayerInput from %s: %v", from, err)
		return
	}

	e, ok := rec.Entity()
	if !ok {
		return
	}
	loop, ok := s.roomLoop(rec.RoomID())
	if !ok {
		return
	}
	loop.SubmitInput(e, in.Bitmask, in.Seq)
	if in.Shoot {
		loop.SubmitShoot(e)
	}
}

// handlePlayerShoot submits a fire request for the sender's entity.
// Distinct from PlayerInput's own Shoot bit since a client may send a
// bare shoot packet (e.g. holding a fire button with no movement).
func (s *Server) handlePlayerShoot(from *net.UDPAddr, _ []byte) {
	rec, ok := s.sessions.GetByAddr(from)
	if !ok {
		return
	}
	e, ok := rec.Entity()
	if !ok {
		return
	}
	loop, ok := s.roomLoop(rec.RoomID())
	if !ok {
		return
	}
	loop.SubmitShoot(e)
}

// handleScoreboardReq responds with the persisted top scores, per
// spec.md section 6's scoreboard operation.
func (s *Server) handleScoreboardReq(from *net.UDPAddr, body []byte) {
	req, err := netcode.DecodeScoreboardReq(body)
	if err != nil {
		log.Printf("server: bad ScoreboardReq from %s: %v", from, err)
		return
	}
	limit := int(req.Limit)
	if limit <= 0 {
		limit = 10
	}

	scores, err := s.players.TopScores(limit)
	if err != nil {
		log.Printf("server: failed to load top scores: %v", err)
		return
	}

	resp := netcode.ScoreboardResp{Entries: make([]netcode.ScoreEntry, 0, len(scores))}
	for _, sc := range scores {
		resp.Entries = append(resp.Entries, netcode.ScoreEntry{Name: sc.Player, Score: sc.Value})
	}
	if err := s.endpoint.SendReliable(from, netcode.TypeScoreboardResp, resp.Encode()); err != nil {
		log.Printf("server: failed to send ScoreboardResp to %s: %v", from, err)
	}
}

// roomLoop resolves a roomID string (transport.ClientRecord.RoomID's
// format) to its running sim.Loop, if the room's game has started.
func (s *Server) roomLoop(roomKey string) (*sim.Loop, bool) {
	id, err := parseRoomKey(roomKey)
	if err != nil {
		return nil, false
	}
	return s.loopFor(id)
}
