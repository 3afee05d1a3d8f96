package server

import (
	"log"
	"net"

	"github.com/ironwing/arena-server/internal/netcode"
)

// handlePlayerInfo completes the handshake: allocate or recall a
// player_id for addr, register the account with the store if this is
// the first time the name has been seen, and touch liveness.
func (s *Server) handlePlayerInfo(from *net.UDPAddr, body []byte) {
	info, err := netcode.DecodePlayerInfo(body)
	if err != nil {
		log.Printf("server: bad PlayerInfo from %s: %v", from, err)
		return
	}

	banned, _ := s.players.IsBanned(from.IP.String())
	if banned {
		// No dedicated packet kind exists for a pre-room ban notice;
		// the client learns PlayerBanned when it tries to join a room.
		log.Printf("server: rejected handshake from banned ip %s", from.IP)
		return
	}

	rec, fresh := s.sessions.Handshake(from)
	rec.Touch()

	if fresh {
		if _, err := s.players.FindByName(info.Name); err != nil {
			if _, err := s.players.Insert(info.Name, from.IP.String()); err != nil {
				log.Printf("server: failed to register player %q: %v", info.Name, err)
			}
		}
		_ = s.players.SetOnline(info.Name, true)
	}

	s.pendingNames.set(rec.PlayerID, info.Name)
}

// handleHeartbeat refreshes a client's liveness timestamp.
func (s *Server) handleHeartbeat(from *net.UDPAddr, _ []byte) {
	if rec, ok := s.sessions.GetByAddr(from); ok {
		rec.Touch()
	}
}

// handleChat relays a chat line to the sender's room.
func (s *Server) handleChat(from *net.UDPAddr, body []byte) {
	rec, ok := s.sessions.GetByAddr(from)
	if !ok {
		return
	}
	chat, err := netcode.DecodeChat(body)
	if err != nil {
		log.Printf("server: bad Chat from %s: %v", from, err)
		return
	}
	chat.PlayerID = rec.PlayerID

	room, ok := s.roomByKey(rec.RoomID())
	if !ok {
		return
	}
	room.Broadcast(netcode.TypeChat, true, chat.Encode())
}
