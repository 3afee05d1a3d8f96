package server

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"testing"
	"time"

	"github.com/ironwing/arena-server/internal/config"
	"github.com/ironwing/arena-server/internal/ecs"
	"github.com/ironwing/arena-server/internal/netcode"
	"github.com/ironwing/arena-server/internal/sim"
	"github.com/ironwing/arena-server/internal/store"
	"github.com/ironwing/arena-server/internal/transport"
	"github.com/stretchr/testify/require"
)

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// newTestServer builds a Server bound to a real loopback socket, the
// same construction idiom internal/transport's own tests use: a UDP
// endpoint needs a genuinely bound *net.UDPConn, there being no mock
// seam for it.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	endpoint := transport.NewEndpoint(transport.RoleServer, conn)
	cfg := config.DefaultServerConfig()
	return New(cfg, endpoint, store.NewInMemoryPlayerStore())
}

// fakeClientAddr returns a distinct, genuinely bound loopback address
// to stand in for a remote peer: handlers only ever read from.Addr, so
// nothing needs to actually receive on it, but SendReliable still
// writes real UDP datagrams to it and a live socket keeps that from
// looking like a send to nowhere.
func fakeClientAddr(t *testing.T) *net.UDPAddr {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn.LocalAddr().(*net.UDPAddr)
}

func handshake(t *testing.T, s *Server, addr *net.UDPAddr, name string) *transport.ClientRecord {
	t.Helper()
	s.handlePlayerInfo(addr, netcode.PlayerInfo{Seq: 1, Name: name}.Encode())
	rec, ok := s.sessions.GetByAddr(addr)
	require.True(t, ok)
	return rec
}

func TestHandleCreateRoomThenJoinRoomPublic(t *testing.T) {
	s := newTestServer(t)
	host := fakeClientAddr(t)
	handshake(t, s, host, "Alice")

	s.handleCreateRoom(host, netcode.CreateRoom{Name: "arena", Private: false, Max: 4}.Encode())

	hostRec, ok := s.sessions.GetByAddr(host)
	require.True(t, ok)
	require.NotEqual(t, transport.NoRoom, hostRec.RoomID())

	room, ok := s.roomByKey(hostRec.RoomID())
	require.True(t, ok)
	require.Equal(t, 1, room.PlayerCount())
	e, ok := hostRec.Entity()
	require.True(t, ok)
	player, err := ecs.GetComponent[ecs.Player](room.Registry, e)
	require.NoError(t, err)
	require.Equal(t, "Alice", player.Name)

	joiner := fakeClientAddr(t)
	handshake(t, s, joiner, "Bob")
	s.handleJoinRoom(joiner, netcode.JoinRoom{RoomID: room.ID}.Encode())

	require.Equal(t, 2, room.PlayerCount())
	joinerRec, ok := s.sessions.GetByAddr(joiner)
	require.True(t, ok)
	require.Equal(t, hostRec.RoomID(), joinerRec.RoomID())
}

func TestHandleJoinRoomUnknownRoomRejected(t *testing.T) {
	s := newTestServer(t)
	addr := fakeClientAddr(t)
	handshake(t, s, addr, "Alice")

	s.handleJoinRoom(addr, netcode.JoinRoom{RoomID: 9999}.Encode())

	rec, ok := s.sessions.GetByAddr(addr)
	require.True(t, ok)
	require.Equal(t, transport.NoRoom, rec.RoomID())
}

func TestHandleJoinRoomFullRejected(t *testing.T) {
	s := newTestServer(t)
	host := fakeClientAddr(t)
	handshake(t, s, host, "Alice")
	s.handleCreateRoom(host, netcode.CreateRoom{Name: "tiny", Private: false, Max: 1}.Encode())
	hostRec, _ := s.sessions.GetByAddr(host)
	room, ok := s.roomByKey(hostRec.RoomID())
	require.True(t, ok)

	joiner := fakeClientAddr(t)
	handshake(t, s, joiner, "Bob")
	s.handleJoinRoom(joiner, netcode.JoinRoom{RoomID: room.ID}.Encode())

	joinerRec, _ := s.sessions.GetByAddr(joiner)
	require.Equal(t, transport.NoRoom, joinerRec.RoomID())
	require.Equal(t, 1, room.PlayerCount())
}

func TestPrivateRoomRequiresValidChallenge(t *testing.T) {
	s := newTestServer(t)
	host := fakeClientAddr(t)
	handshake(t, s, host, "Alice")
	s.handleCreateRoom(host, netcode.CreateRoom{Name: "secret", Private: true, Password: "hunter2", Max: 4}.Encode())
	hostRec, _ := s.sessions.GetByAddr(host)
	room, ok := s.roomByKey(hostRec.RoomID())
	require.True(t, ok)

	joiner := fakeClientAddr(t)
	joinerRec := handshake(t, s, joiner, "Bob")

	// Wrong password: challenge issued but hashed against the wrong
	// secret, must be rejected and must not join.
	s.handleRequestChallenge(joiner, netcode.RequestChallenge{RoomID: room.ID}.Encode())
	nonce := s.challenges.Create(joinerRec.PlayerID) // re-issue so we control the nonce deterministically
	badHash := sha256Hex(nonce + "wrong")
	s.handleJoinRoom(joiner, netcode.JoinRoom{RoomID: room.ID, Password: badHash}.Encode())
	require.Equal(t, transport.NoRoom, joinerRec.RoomID())

	// Correct password hashed against the freshly issued nonce succeeds.
	nonce = s.challenges.Create(joinerRec.PlayerID)
	goodHash := sha256Hex(nonce + "hunter2")
	s.handleJoinRoom(joiner, netcode.JoinRoom{RoomID: room.ID, Password: goodHash}.Encode())
	require.Equal(t, hostRec.RoomID(), joinerRec.RoomID())
}

func TestHandleLeaveRoomRemovesClientAndEntity(t *testing.T) {
	s := newTestServer(t)
	host := fakeClientAddr(t)
	handshake(t, s, host, "Alice")
	s.handleCreateRoom(host, netcode.CreateRoom{Name: "arena", Max: 4}.Encode())
	hostRec, _ := s.sessions.GetByAddr(host)
	room, ok := s.roomByKey(hostRec.RoomID())
	require.True(t, ok)
	e, ok := hostRec.Entity()
	require.True(t, ok)

	s.handleLeaveRoom(host, nil)

	require.Equal(t, transport.NoRoom, hostRec.RoomID())
	require.Equal(t, 0, room.PlayerCount())
	require.False(t, room.Registry.IsAlive(e))
}

func TestHandleMatchmakingReqJoinsExistingWaitingRoom(t *testing.T) {
	s := newTestServer(t)
	host := fakeClientAddr(t)
	handshake(t, s, host, "Alice")
	s.handleCreateRoom(host, netcode.CreateRoom{Name: "open", Max: 4}.Encode())
	hostRec, _ := s.sessions.GetByAddr(host)
	room, ok := s.roomByKey(hostRec.RoomID())
	require.True(t, ok)

	seeker := fakeClientAddr(t)
	handshake(t, s, seeker, "Bob")
	s.handleMatchmakingReq(seeker, nil)

	seekerRec, _ := s.sessions.GetByAddr(seeker)
	require.Equal(t, hostRec.RoomID(), seekerRec.RoomID())
	require.Equal(t, 2, room.PlayerCount())
}

func TestHandleListRoomHidesPrivateRooms(t *testing.T) {
	s := newTestServer(t)
	pub := fakeClientAddr(t)
	handshake(t, s, pub, "Alice")
	s.handleCreateRoom(pub, netcode.CreateRoom{Name: "public", Max: 4}.Encode())

	priv := fakeClientAddr(t)
	handshake(t, s, priv, "Eve")
	s.handleCreateRoom(priv, netcode.CreateRoom{Name: "hidden", Private: true, Password: "x", Max: 4}.Encode())

	// handleListRoom replies over the wire via SendReliable; exercise
	// the filtering logic it shares with the wire response directly.
	stats := s.matches.GetStats()
	require.Len(t, stats.Rooms, 2)

	visible := 0
	for _, rs := range stats.Rooms {
		room, ok := s.matches.GetRoom(rs.ID)
		require.True(t, ok)
		if !room.Private {
			visible++
		}
	}
	require.Equal(t, 1, visible)

	s.handleListRoom(pub, nil) // exercise the handler for panics/log-only failure
}

func TestHandlePlayerInputAndShootReachSimLoop(t *testing.T) {
	s := newTestServer(t)
	host := fakeClientAddr(t)
	handshake(t, s, host, "Alice")
	s.handleCreateRoom(host, netcode.CreateRoom{Name: "arena", Max: 4}.Encode())
	hostRec, _ := s.sessions.GetByAddr(host)
	room, ok := s.roomByKey(hostRec.RoomID())
	require.True(t, ok)

	s.loopsMu.Lock()
	loop := sim.NewLoop(room)
	s.loops[room.ID] = loop
	s.loopsMu.Unlock()

	s.handlePlayerInput(host, netcode.PlayerInput{Bitmask: 0x01, Shoot: true, Seq: 1}.Encode())
	s.handlePlayerShoot(host, nil)

	// Both submissions land in the loop's pending maps. The room is
	// still Waiting (one player), so Tick returns early; this only
	// checks that the handlers and Tick do not panic.
	loop.Tick(0.016)
}

func TestHandleScoreboardReqUsesPlayerStore(t *testing.T) {
	s := newTestServer(t)
	_, err := s.players.Insert("Alice", "127.0.0.1")
	require.NoError(t, err)
	s.players.(interface {
		RecordScore(name string, value uint32)
	}).RecordScore("Alice", 500)

	addr := fakeClientAddr(t)
	s.handleScoreboardReq(addr, netcode.ScoreboardReq{Limit: 5}.Encode())
	// handleScoreboardReq replies over the wire; assert the underlying
	// store query it relies on behaves as expected.
	scores, err := s.players.TopScores(5)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	require.Equal(t, uint32(500), scores[0].Value)
}

func TestRoomOutcomeVictoryAndDefeat(t *testing.T) {
	s := newTestServer(t)
	host := fakeClientAddr(t)
	handshake(t, s, host, "Alice")
	s.handleCreateRoom(host, netcode.CreateRoom{Name: "arena", Max: 4}.Encode())
	hostRec, _ := s.sessions.GetByAddr(host)
	room, ok := s.roomByKey(hostRec.RoomID())
	require.True(t, ok)

	reason, over := roomOutcome(room)
	require.False(t, over)
	require.Empty(t, reason)

	s.spawnEnemyWave(room)
	reason, over = roomOutcome(room)
	require.False(t, over)
	require.Empty(t, reason)

	for len(ecs.All[ecs.Enemy](room.Registry)) > 0 {
		e := ecs.EntityAt[ecs.Enemy](room.Registry, 0)
		_ = room.Registry.DestroyEntity(e)
	}
	reason, over = roomOutcome(room)
	require.True(t, over)
	require.Equal(t, "victory", reason)

	e, _ := hostRec.Entity()
	player, err := ecs.GetComponent[ecs.Player](room.Registry, e)
	require.NoError(t, err)
	player.Alive = false
	reason, over = roomOutcome(room)
	require.True(t, over)
	require.Equal(t, "defeat", reason)
}

func TestSweepTimeoutsDisconnectsIdleClient(t *testing.T) {
	s := newTestServer(t)
	addr := fakeClientAddr(t)
	handshake(t, s, addr, "Alice")
	s.handleCreateRoom(addr, netcode.CreateRoom{Name: "arena", Max: 4}.Encode())

	rec, _ := s.sessions.GetByAddr(addr)
	future := time.Now().Add(2 * time.Hour)
	s.sweepTimeouts(future)

	_, ok := s.sessions.GetByAddr(addr)
	require.False(t, ok)
	require.Equal(t, transport.NoRoom, rec.RoomID())
}
