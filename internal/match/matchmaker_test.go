package match

import (
	"testing"

	"github.com/ironwing/arena-server/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchmaker_CreateRoomAssignsSequentialIDs(t *testing.T) {
	mm := NewMatchmaker(newFakeSender())
	r1 := mm.CreateRoom("alpha", false, "", 4)
	r2 := mm.CreateRoom("beta", false, "", 4)
	require.NotNil(t, r1)
	require.NotNil(t, r2)
	assert.Less(t, r1.ID, r2.ID)
	assert.Equal(t, uint32(2), roomIDCounter(mm))
}

func TestMatchmaker_FindRoom_SkipsPrivateAndFull(t *testing.T) {
	mm := NewMatchmaker(newFakeSender())
	priv := mm.CreateRoom("secret", true, "pw", 4)
	full := mm.CreateRoom("packed", false, "", 1)
	require.NoError(t, full.AddClient(transport.NewClientRecord(1, testAddr(5000))))
	open := mm.CreateRoom("open", false, "", 4)

	found := mm.FindRoom()
	require.NotNil(t, found)
	assert.Equal(t, open.ID, found.ID)
	_ = priv
}

func TestMatchmaker_GetOrCreateRoom_CreatesWhenNoneJoinable(t *testing.T) {
	mm := NewMatchmaker(newFakeSender())
	room := mm.GetOrCreateRoom("fresh arena")
	require.NotNil(t, room)
	assert.Equal(t, "fresh arena", room.Name)

	again := mm.GetOrCreateRoom("ignored name")
	assert.Equal(t, room.ID, again.ID, "an existing joinable room is reused")
}

func TestMatchmaker_CleanupEmptyRooms(t *testing.T) {
	mm := NewMatchmaker(newFakeSender())
	finished := mm.CreateRoom("done", false, "", 4)
	finished.Finish()

	active := mm.CreateRoom("active", false, "", 4)
	require.NoError(t, active.AddClient(transport.NewClientRecord(1, testAddr(5000))))

	removed := mm.CleanupEmptyRooms()
	assert.Equal(t, 1, removed)

	_, stillThere := mm.GetRoom(active.ID)
	assert.True(t, stillThere)
	_, gone := mm.GetRoom(finished.ID)
	assert.False(t, gone)
}

func TestMatchmaker_CreateRoomRespectsCapacity(t *testing.T) {
	mm := NewMatchmaker(newFakeSender())
	for i := 0; i < MaxRoomsPerServer; i++ {
		require.NotNil(t, mm.CreateRoom("room", false, "", 4))
	}
	assert.Nil(t, mm.CreateRoom("overflow", false, "", 4))
}

func TestMatchmaker_GetStats(t *testing.T) {
	mm := NewMatchmaker(newFakeSender())
	room := mm.CreateRoom("arena", false, "", 4)
	require.NoError(t, room.AddClient(transport.NewClientRecord(1, testAddr(5000))))

	stats := mm.GetStats()
	assert.Equal(t, 1, stats.TotalRooms)
	assert.Equal(t, 1, stats.TotalPlayers)
	require.Len(t, stats.Rooms, 1)
	assert.Equal(t, room.ID, stats.Rooms[0].ID)
}
