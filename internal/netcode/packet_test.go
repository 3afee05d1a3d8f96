package netcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameUnframe_RoundTrip(t *testing.T) {
	body := PlayerInput{Bitmask: InputUp | InputRight, Shoot: true, Seq: 42}.Encode()
	raw := Frame(TypePlayerInput, body)

	gotType, gotBody, err := Unframe(raw)
	require.NoError(t, err)
	assert.Equal(t, TypePlayerInput, gotType)

	decoded, err := DecodePlayerInput(gotBody)
	require.NoError(t, err)
	assert.Equal(t, uint8(InputUp|InputRight), decoded.Bitmask)
	assert.True(t, decoded.Shoot)
	assert.Equal(t, uint32(42), decoded.Seq)
}

func TestUnframe_Truncated(t *testing.T) {
	_, _, err := Unframe([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestUnframe_SizeMismatch(t *testing.T) {
	raw := Frame(TypeHeartbeat, nil)
	raw = append(raw, 0xFF) // corrupt: extra trailing byte not reflected in size
	_, _, err := Unframe(raw)
	assert.ErrorIs(t, err, ErrSizeMismatch)
}

func TestEncodeDecode_SelectedPacketKinds(t *testing.T) {
	newPlayer := NewPlayer{PlayerID: 1, Name: "Alice", X: 10, Y: 20, Speed: 150, MaxHP: 100}
	raw := Frame(TypeNewPlayer, newPlayer.Encode())
	gotType, body, err := Unframe(raw)
	require.NoError(t, err)
	require.Equal(t, TypeNewPlayer, gotType)
	got, err := DecodeNewPlayer(body)
	require.NoError(t, err)
	assert.Equal(t, newPlayer, got)

	died := PlayerDied{PlayerID: 1, Name: "Alice", KillerID: 7}
	gotDied, err := DecodePlayerDied(died.Encode())
	require.NoError(t, err)
	assert.Equal(t, died, gotDied)

	destroy := EnemyDestroy{EnemyID: 5, X: 1, Y: 2, KillerID: 1, Score: 10}
	gotDestroy, err := DecodeEnemyDestroy(destroy.Encode())
	require.NoError(t, err)
	assert.Equal(t, destroy, gotDestroy)

	join := JoinRoom{RoomID: 1, Password: "deadbeef"}
	gotJoin, err := DecodeJoinRoom(join.Encode())
	require.NoError(t, err)
	assert.Equal(t, join, gotJoin)
}

func TestRoomErrorEncoding(t *testing.T) {
	resp := JoinRoomResp{Result: RoomWrongPassword, RoomID: 3}
	got, err := DecodeJoinRoomResp(resp.Encode())
	require.NoError(t, err)
	assert.Equal(t, resp, got)
}
