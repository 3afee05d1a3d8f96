package match

import (
	"sync"
)

// MaxRoomsPerServer bounds how many concurrent rooms one server
// process will host. Mirrors config.MaxRoomsPerServer's role in the
// teacher, now owned by the matchmaker itself.
const MaxRoomsPerServer = 64

// DefaultMaxPlayersPerRoom is used when a CreateRoom request omits
// max, and by Matchmaker.GetOrCreateRoom.
const DefaultMaxPlayersPerRoom = 4

// Matchmaker owns every active room and the public-room matchmaking
// policy. Grounded directly on the teacher's Matchmaker
// (internal/matchmaker/matchmaker.go): same method set
// (FindRoom/GetOrCreateRoom/CleanupEmptyRooms/GetStats), same
// RWMutex-guarded map-of-rooms shape, generalized from "any room with
// space" to "first Waiting non-full public room" per spec.md section 4.4.
type Matchmaker struct {
	mu         sync.RWMutex
	rooms      map[uint32]*Room
	nextRoomID uint32

	sender Sender
}

// NewMatchmaker returns an empty matchmaker bound to sender for
// outbound room broadcasts.
func NewMatchmaker(sender Sender) *Matchmaker {
	return &Matchmaker{
		rooms:  make(map[uint32]*Room),
		sender: sender,
	}
}

// FindRoom returns the Waiting, non-full, public room with the lowest
// ID, or nil if none exists. GetOrCreateRoom calls it and creates a
// room when it returns nil.
func (m *Matchmaker) FindRoom() *Room {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var first *Room
	for id, room := range m.rooms {
		if room.Private {
			continue
		}
		if room.State() == StateWaiting && !room.IsFull() && (first == nil || id < first.ID) {
			first = room
		}
	}
	return first
}

// CreateRoom allocates a fresh room with a matchmaker-assigned ID.
// Returns nil if the server is at MaxRoomsPerServer.
func (m *Matchmaker) CreateRoom(name string, private bool, password string, maxPlayers int) *Room {
	if maxPlayers <= 0 {
		maxPlayers = DefaultMaxPlayersPerRoom
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.rooms) >= MaxRoomsPerServer {
		return nil
	}

	m.nextRoomID++
	id := m.nextRoomID
	room := NewRoom(id, name, private, password, maxPlayers, m.sender)
	m.rooms[id] = room
	return room
}

// GetRoom looks up a room by ID.
func (m *Matchmaker) GetRoom(id uint32) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[id]
	return room, ok
}

// GetOrCreateRoom returns the first available public room, creating a
// new one with the given name if none is joinable.
func (m *Matchmaker) GetOrCreateRoom(name string) *Room {
	if room := m.FindRoom(); room != nil {
		return room
	}
	return m.CreateRoom(name, false, "", DefaultMaxPlayersPerRoom)
}

// RemoveRoom drops a room from the registry outright (used when a
// room's terminal cleanup is forced rather than swept).
func (m *Matchmaker) RemoveRoom(id uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, id)
}

// CleanupEmptyRooms removes every Finished room with an empty roster,
// per spec.md section 4.4's garbage-collection rule, and returns how
// many were removed.
func (m *Matchmaker) CleanupEmptyRooms() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, room := range m.rooms {
		if room.State() == StateFinished && room.IsEmpty() {
			delete(m.rooms, id)
			removed++
		}
	}
	return removed
}

// Stats summarizes the matchmaker's current load.
type Stats struct {
	TotalRooms   int
	TotalPlayers int
	Rooms        []RoomStats
}

// RoomStats summarizes one room's occupancy.
type RoomStats struct {
	ID          uint32
	Name        string
	State       State
	PlayerCount int
	MaxPlayers  int
}

// GetStats snapshots occupancy across every active room.
func (m *Matchmaker) GetStats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Stats{
		TotalRooms: len(m.rooms),
		Rooms:      make([]RoomStats, 0, len(m.rooms)),
	}
	for id, room := range m.rooms {
		count := room.PlayerCount()
		stats.TotalPlayers += count
		stats.Rooms = append(stats.Rooms, RoomStats{
			ID:          id,
			Name:        room.Name,
			State:       room.State(),
			PlayerCount: count,
			MaxPlayers:  room.MaxPlayers,
		})
	}
	return stats
}

// roomIDCounter exists only so tests can assert ID assignment is
// sequential without reaching into Matchmaker's private state.
func roomIDCounter(m *Matchmaker) uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.nextRoomID
}
