package session

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func udpAddr(t *testing.T, s string) *net.UDPAddr {
	t.Helper()
	addr, err := net.ResolveUDPAddr("udp", s)
	require.NoError(t, err)
	return addr
}

func TestHandshakeAllocatesSequentialPlayerIDs(t *testing.T) {
	m := NewManager()

	rec1, fresh1 := m.Handshake(udpAddr(t, "127.0.0.1:5000"))
	require.True(t, fresh1)
	require.Equal(t, uint32(0), rec1.PlayerID)

	rec2, fresh2 := m.Handshake(udpAddr(t, "127.0.0.1:5001"))
	require.True(t, fresh2)
	require.Equal(t, uint32(1), rec2.PlayerID)
}

func TestHandshakeIsIdempotentPerAddr(t *testing.T) {
	m := NewManager()
	addr := udpAddr(t, "127.0.0.1:5000")

	rec1, fresh1 := m.Handshake(addr)
	require.True(t, fresh1)

	rec2, fresh2 := m.Handshake(addr)
	require.False(t, fresh2)
	require.Same(t, rec1, rec2)
}

func TestGetAndGetByAddr(t *testing.T) {
	m := NewManager()
	addr := udpAddr(t, "127.0.0.1:5000")
	rec, _ := m.Handshake(addr)

	got, ok := m.Get(rec.PlayerID)
	require.True(t, ok)
	require.Same(t, rec, got)

	got2, ok2 := m.GetByAddr(addr)
	require.True(t, ok2)
	require.Same(t, rec, got2)
}

func TestRemoveDropsBothIndexes(t *testing.T) {
	m := NewManager()
	addr := udpAddr(t, "127.0.0.1:5000")
	rec, _ := m.Handshake(addr)

	m.Remove(rec.PlayerID)

	_, ok := m.Get(rec.PlayerID)
	require.False(t, ok)
	_, ok2 := m.GetByAddr(addr)
	require.False(t, ok2)
}

func TestSweepTimeoutsIgnoresFreshClients(t *testing.T) {
	m := NewManager()
	rec, _ := m.Handshake(udpAddr(t, "127.0.0.1:5000"))
	rec.Touch()

	require.Empty(t, m.SweepTimeouts(time.Now()))
}

func TestSweepTimeoutsCatchesClientsPastDeadline(t *testing.T) {
	m := NewManager()
	rec, _ := m.Handshake(udpAddr(t, "127.0.0.1:5000"))
	rec.Touch()

	// Sweeping against a "now" far in the future is equivalent to the
	// client having gone silent for that long, without sleeping in
	// the test.
	future := time.Now().Add(ClientTimeout + time.Second)
	timedOut := m.SweepTimeouts(future)

	require.Len(t, timedOut, 1)
	require.Equal(t, rec.PlayerID, timedOut[0].PlayerID)
}

func TestCount(t *testing.T) {
	m := NewManager()
	require.Equal(t, 0, m.Count())
	m.Handshake(udpAddr(t, "127.0.0.1:5000"))
	require.Equal(t, 1, m.Count())
}
