package match

import (
	"errors"
	"log"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/ironwing/arena-server/internal/ecs"
	"github.com/ironwing/arena-server/internal/netcode"
	"github.com/ironwing/arena-server/internal/transport"
)

// State is a room's position in the Waiting -> Starting -> Running ->
// Finished lifecycle (spec.md section 4.4).
type State int

const (
	StateWaiting State = iota
	StateStarting
	StateRunning
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "Waiting"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateFinished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// StartingCountdown is how long a room waits in Starting before it
// transitions to Running, matching scenario S3's 5-second countdown.
const StartingCountdown = 5 * time.Second

// MinPlayersToStart is the roster size that triggers Waiting -> Starting.
const MinPlayersToStart = 2

var (
	ErrRoomFull         = errors.New("match: room is full")
	ErrAlreadyInRoom    = errors.New("match: player already in room")
	ErrWrongPassword    = errors.New("match: wrong password")
	ErrPlayerNotInRoom  = errors.New("match: player not in this room")
)

// Sender is the subset of transport.Endpoint a room needs to reach its
// roster, kept narrow so room.go stays free of socket concerns.
type Sender interface {
	Send(addr *net.UDPAddr, t netcode.Type, body []byte) error
	SendReliable(addr *net.UDPAddr, t netcode.Type, body []byte) error
}

// Room owns one registry, one roster, and the lifecycle state machine
// for a group of players playing together. Grounded directly on the
// teacher's Room (internal/game/room.go): same RWMutex-guarded roster,
// the same broadcast/broadcastUnlocked/broadcastExcept/
// broadcastExceptUnlocked split documenting its locking precondition
// in the method name, generalized from an always-running race room
// into the four-state machine spec.md section 4.4 requires.
type Room struct {
	ID         uint32
	Name       string
	Private    bool
	Password   string
	MaxPlayers int

	Registry *ecs.Registry

	mu             sync.RWMutex
	state          State
	clients        map[uint32]*transport.ClientRecord
	startDeadline  time.Time

	sender Sender
}

// NewRoom creates an empty room in the Waiting state, owning a fresh
// registry of ecs.DefaultCapacity entities (not scaled by MaxPlayers)
// with the core components registered.
func NewRoom(id uint32, name string, private bool, password string, maxPlayers int, sender Sender) *Room {
	r := &Room{
		ID:         id,
		Name:       name,
		Private:    private,
		Password:   password,
		MaxPlayers: maxPlayers,
		Registry:   ecs.NewRegistry(0),
		clients:    make(map[uint32]*transport.ClientRecord),
		sender:     sender,
	}
	if err := ecs.RegisterCoreComponents(r.Registry); err != nil {
		log.Printf("match: room %d: failed to register core components: %v", id, err)
	}
	return r
}

// State returns the room's current lifecycle state.
func (r *Room) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// PlayerCount returns the current roster size.
func (r *Room) PlayerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// IsEmpty reports whether the roster has no clients.
func (r *Room) IsEmpty() bool {
	return r.PlayerCount() == 0
}

// IsFull reports whether the roster has reached MaxPlayers.
func (r *Room) IsFull() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients) >= r.MaxPlayers
}

// IsJoinable reports whether new players may still enter: not full,
// and not past Starting (a Running or Finished room is closed to
// newcomers per spec.md section 4.4's matchmaking contract).
func (r *Room) IsJoinable() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients) < r.MaxPlayers && (r.state == StateWaiting || r.state == StateStarting)
}

// AddClient joins rec to the room, advancing Waiting -> Starting once
// MinPlayersToStart is reached.
func (r *Room) AddClient(rec *transport.ClientRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[rec.PlayerID]; ok {
		return ErrAlreadyInRoom
	}
	if len(r.clients) >= r.MaxPlayers {
		return ErrRoomFull
	}

	r.clients[rec.PlayerID] = rec
	rec.SetRoom(roomKey(r.ID))

	if r.state == StateWaiting && len(r.clients) >= MinPlayersToStart {
		r.state = StateStarting
		r.startDeadline = time.Now().Add(StartingCountdown)
	}
	return nil
}

// RemoveClient drops playerID from the roster. Safe to call with an
// ID not currently in the room.
func (r *Room) RemoveClient(playerID uint32) {
	r.mu.Lock()
	rec, ok := r.clients[playerID]
	if ok {
		delete(r.clients, playerID)
	}
	r.mu.Unlock()

	if ok {
		rec.SetRoom(transport.NoRoom)
		rec.ClearEntity()
	}
}

// Client returns the roster entry for playerID, if present.
func (r *Room) Client(playerID uint32) (*transport.ClientRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.clients[playerID]
	return rec, ok
}

// Clients returns a snapshot of the current roster.
func (r *Room) Clients() []*transport.ClientRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*transport.ClientRecord, 0, len(r.clients))
	for _, rec := range r.clients {
		out = append(out, rec)
	}
	return out
}

// ReadyToRun reports whether a Starting room's countdown has elapsed.
func (r *Room) ReadyToRun(now time.Time) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state == StateStarting && !now.Before(r.startDeadline)
}

// Start transitions Starting -> Running.
func (r *Room) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateStarting {
		r.state = StateRunning
	}
}

// Finish transitions the room to Finished. A Finished room with an
// empty roster is garbage-collected by the matchmaker's sweep.
func (r *Room) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = StateFinished
}

// Broadcast sends body to every client in the roster.
func (r *Room) Broadcast(t netcode.Type, reliable bool, body []byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	r.broadcastUnlocked(t, reliable, body)
}

// broadcastUnlocked sends to every roster member. Caller must already
// hold mu (read or write) — mirrors the teacher's "Unlocked" naming
// convention for lock-precondition documentation.
func (r *Room) broadcastUnlocked(t netcode.Type, reliable bool, body []byte) {
	for _, rec := range r.clients {
		r.sendTo(rec, t, reliable, body)
	}
}

// BroadcastExcept sends body to every client except exceptID.
func (r *Room) BroadcastExcept(t netcode.Type, reliable bool, body []byte, exceptID uint32) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	r.broadcastExceptUnlocked(t, reliable, body, exceptID)
}

func (r *Room) broadcastExceptUnlocked(t netcode.Type, reliable bool, body []byte, exceptID uint32) {
	for id, rec := range r.clients {
		if id == exceptID {
			continue
		}
		r.sendTo(rec, t, reliable, body)
	}
}

func (r *Room) sendTo(rec *transport.ClientRecord, t netcode.Type, reliable bool, body []byte) {
	var err error
	if reliable {
		err = r.sender.SendReliable(rec.Addr, t, body)
	} else {
		err = r.sender.Send(rec.Addr, t, body)
	}
	if err != nil {
		log.Printf("match: room %d: send %s to player %d failed: %v", r.ID, t, rec.PlayerID, err)
	}
}

func roomKey(id uint32) string {
	return strconv.FormatUint(uint64(id), 10)
}
