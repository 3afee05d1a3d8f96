package match

import (
	"net"
	"sync"

	"github.com/ironwing/arena-server/internal/netcode"
)

type sentPacket struct {
	addr     *net.UDPAddr
	kind     netcode.Type
	reliable bool
	body     []byte
}

type fakeSender struct {
	mu  sync.Mutex
	log []sentPacket
}

func newFakeSender() *fakeSender { return &fakeSender{} }

func (f *fakeSender) Send(addr *net.UDPAddr, t netcode.Type, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log = append(f.log, sentPacket{addr: addr, kind: t, body: body})
	return nil
}

func (f *fakeSender) SendReliable(addr *net.UDPAddr, t netcode.Type, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log = append(f.log, sentPacket{addr: addr, kind: t, reliable: true, body: body})
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.log)
}
