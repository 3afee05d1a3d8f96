package match

import (
	"net"
	"testing"
	"time"

	"github.com/ironwing/arena-server/internal/netcode"
	"github.com/ironwing/arena-server/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAddr(port int) *net.UDPAddr {
	return &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port}
}

func TestRoom_AddClientTransitionsToStarting(t *testing.T) {
	sender := newFakeSender()
	room := NewRoom(1, "arena", false, "", 4, sender)
	assert.Equal(t, StateWaiting, room.State())

	require.NoError(t, room.AddClient(transport.NewClientRecord(1, testAddr(5000))))
	assert.Equal(t, StateWaiting, room.State(), "one player is not enough to start")

	require.NoError(t, room.AddClient(transport.NewClientRecord(2, testAddr(5001))))
	assert.Equal(t, StateStarting, room.State())
}

func TestRoom_AddClient_DuplicateAndFull(t *testing.T) {
	sender := newFakeSender()
	room := NewRoom(1, "arena", false, "", 1, sender)

	rec := transport.NewClientRecord(1, testAddr(5000))
	require.NoError(t, room.AddClient(rec))
	assert.ErrorIs(t, room.AddClient(rec), ErrAlreadyInRoom)

	other := transport.NewClientRecord(2, testAddr(5001))
	assert.ErrorIs(t, room.AddClient(other), ErrRoomFull)
}

func TestRoom_ReadyToRunAfterCountdown(t *testing.T) {
	sender := newFakeSender()
	room := NewRoom(1, "arena", false, "", 4, sender)
	require.NoError(t, room.AddClient(transport.NewClientRecord(1, testAddr(5000))))
	require.NoError(t, room.AddClient(transport.NewClientRecord(2, testAddr(5001))))

	assert.False(t, room.ReadyToRun(time.Now()))
	assert.True(t, room.ReadyToRun(time.Now().Add(StartingCountdown+time.Millisecond)))

	room.Start()
	assert.Equal(t, StateRunning, room.State())
}

func TestRoom_RemoveClientClearsRoomAndEntity(t *testing.T) {
	sender := newFakeSender()
	room := NewRoom(1, "arena", false, "", 4, sender)
	rec := transport.NewClientRecord(1, testAddr(5000))
	require.NoError(t, room.AddClient(rec))
	rec.SetEntity(7)

	room.RemoveClient(1)

	assert.True(t, room.IsEmpty())
	assert.Equal(t, transport.NoRoom, rec.RoomID())
	_, hasEntity := rec.Entity()
	assert.False(t, hasEntity)
}

func TestRoom_BroadcastReachesEveryClient(t *testing.T) {
	sender := newFakeSender()
	room := NewRoom(1, "arena", false, "", 4, sender)
	require.NoError(t, room.AddClient(transport.NewClientRecord(1, testAddr(5000))))
	require.NoError(t, room.AddClient(transport.NewClientRecord(2, testAddr(5001))))

	room.Broadcast(netcode.TypeChat, false, []byte("hi"))
	assert.Equal(t, 2, sender.count())
}

func TestRoom_BroadcastExceptSkipsOne(t *testing.T) {
	sender := newFakeSender()
	room := NewRoom(1, "arena", false, "", 4, sender)
	require.NoError(t, room.AddClient(transport.NewClientRecord(1, testAddr(5000))))
	require.NoError(t, room.AddClient(transport.NewClientRecord(2, testAddr(5001))))

	room.BroadcastExcept(netcode.TypeNewPlayer, true, []byte("joined"), 1)
	require.Equal(t, 1, sender.count())
	assert.Equal(t, testAddr(5001), sender.log[0].addr)
	assert.True(t, sender.log[0].reliable)
}

func TestRoom_FinishThenEmptyIsCollectible(t *testing.T) {
	sender := newFakeSender()
	room := NewRoom(1, "arena", false, "", 4, sender)
	require.NoError(t, room.AddClient(transport.NewClientRecord(1, testAddr(5000))))

	room.Finish()
	assert.Equal(t, StateFinished, room.State())
	room.RemoveClient(1)
	assert.True(t, room.IsEmpty())
}

func TestRoom_IsJoinable(t *testing.T) {
	sender := newFakeSender()
	room := NewRoom(1, "arena", false, "", 1, sender)
	assert.True(t, room.IsJoinable())

	require.NoError(t, room.AddClient(transport.NewClientRecord(1, testAddr(5000))))
	assert.False(t, room.IsJoinable(), "full room is not joinable")
}
