// Package main runs a headless arena client: handshake, auto-join via
// matchmaking, drive local prediction from synthetic input, and mirror
// every remote entity's position through internal/client's state
// history and interpolation, logging the rendered result instead of
// drawing it (rendering is out of scope, spec.md section 1).
package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ironwing/arena-server/internal/client"
	"github.com/ironwing/arena-server/internal/config"
	"github.com/ironwing/arena-server/internal/ecs"
	"github.com/ironwing/arena-server/internal/netcode"
	"github.com/ironwing/arena-server/internal/transport"
)

// RenderTick is the "render thread" cadence spec.md section 5 assigns
// to the client's main loop: log the locally predicted position and
// sample every tracked entity's interpolated position.
const RenderTick = 50 * time.Millisecond

// InputTick is how often the synthetic pilot (there being no real
// input device on a headless client) submits a PlayerInput, matching
// sim.TickInterval so prediction advances at the same rate the
// authoritative loop does.
const InputTick = 16 * time.Millisecond

// HeartbeatInterval keeps the session alive well inside
// session.ClientTimeout (45s).
const HeartbeatInterval = 10 * time.Second

// patrolPattern is the synthetic pilot's scripted input: a slow sweep
// right then left, so local prediction has something to reconcile
// against.
var patrolPattern = []uint8{netcode.InputRight, netcode.InputRight, netcode.InputLeft, netcode.InputLeft}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	flag.Parse() // only --help is registered; spec.md section 6 names no other client flags

	cfg := config.DefaultClientConfig()
	cfg.ApplyEnv()

	serverAddr := &net.UDPAddr{IP: net.ParseIP(cfg.IP), Port: cfg.Port}
	conn, err := net.DialUDP("udp", nil, serverAddr)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	endpoint := transport.NewEndpoint(transport.RoleClient, conn)
	endpoint.PinServer(serverAddr)

	playerName := os.Getenv("PLAYER_NAME")
	if playerName == "" {
		playerName = "Pilot"
	}

	w := newWorld(playerName)
	w.registerHandlers(endpoint)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	endpoint.Run(ctx)
	defer endpoint.Close()

	if err := endpoint.SendReliable(nil, netcode.TypePlayerInfo, netcode.PlayerInfo{Seq: 1, Name: playerName}.Encode()); err != nil {
		log.Fatalf("handshake: %v", err)
	}
	if err := endpoint.SendReliable(nil, netcode.TypeMatchmakingReq, netcode.MatchmakingReq{}.Encode()); err != nil {
		log.Printf("client: matchmaking request failed: %v", err)
	}

	go w.heartbeatLoop(ctx, endpoint)
	go w.inputLoop(ctx, endpoint)
	w.renderLoop(ctx)

	log.Printf("client: shut down cleanly")
}

// world is the client's local mirror: one StateHistory per remote
// entity plus the predicted/reconciled position of the controlling
// player, grounded directly on spec.md section 4.6's data model (the
// teacher has no client to generalize from).
type world struct {
	mu         sync.Mutex
	histories  map[uint32]*ecs.StateHistory
	local      client.LocalPlayer
	localSeq   uint32
	name       string
	selfID     uint32
	haveSelf   bool
	selfSpeed  float32
	serverTime float32
}

func newWorld(name string) *world {
	return &world{histories: make(map[uint32]*ecs.StateHistory), name: name}
}

// selfIdentity reports the player_id the server assigned this client,
// learned from the NewPlayer echo carrying its own name back (joinRoom
// sends it one directly, the only place on the wire a client learns
// its own ID).
func (w *world) selfIdentity() (uint32, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.selfID, w.haveSelf
}

func (w *world) historyFor(entityID uint32) *ecs.StateHistory {
	w.mu.Lock()
	defer w.mu.Unlock()
	h, ok := w.histories[entityID]
	if !ok {
		h = &ecs.StateHistory{}
		w.histories[entityID] = h
	}
	return h
}

func (w *world) forget(entityID uint32) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.histories, entityID)
}

func (w *world) registerHandlers(endpoint *transport.Endpoint) {
	endpoint.Handle(netcode.TypeMatchmakingResp, func(_ *net.UDPAddr, body []byte) {
		resp, err := netcode.DecodeMatchmakingResp(body)
		if err != nil {
			return
		}
		log.Printf("client: matchmaking result=%d room=%d", resp.Result, resp.RoomID)
	})

	endpoint.Handle(netcode.TypeGameStart, func(_ *net.UDPAddr, body []byte) {
		g, err := netcode.DecodeGameStart(body)
		if err != nil {
			return
		}
		log.Printf("client: game started in room %d", g.RoomID)
	})

	endpoint.Handle(netcode.TypeGameEnd, func(_ *net.UDPAddr, body []byte) {
		g, err := netcode.DecodeGameEnd(body)
		if err != nil {
			return
		}
		log.Printf("client: game ended in room %d: %s", g.RoomID, g.Reason)
	})

	endpoint.Handle(netcode.TypeNewPlayer, func(_ *net.UDPAddr, body []byte) {
		n, err := netcode.DecodeNewPlayer(body)
		if err != nil {
			return
		}
		if n.Name == w.name {
			w.mu.Lock()
			w.selfID, w.haveSelf, w.selfSpeed = n.PlayerID, true, n.Speed
			w.local.X, w.local.Y = n.X, n.Y
			w.mu.Unlock()
			log.Printf("client: assigned player_id %d", n.PlayerID)
			return
		}
		w.historyFor(n.PlayerID).Append(ecs.HistorySample{X: n.X, Y: n.Y, T: w.currentServerTime()})
		log.Printf("client: player %q (id=%d) joined at (%.1f, %.1f)", n.Name, n.PlayerID, n.X, n.Y)
	})

	endpoint.Handle(netcode.TypePlayerMove, func(_ *net.UDPAddr, body []byte) {
		p, err := netcode.DecodePositionUpdate(body)
		if err != nil {
			return
		}
		w.setServerTime(p.Ts)
		if selfID, ok := w.selfIdentity(); ok && p.EntityID == selfID {
			// Our own authoritative echo: reconcile instead of feeding
			// it through interpolation. PositionUpdate carries no input
			// sequence number, so the client can't tell which locally
			// applied input this position already reflects; treating
			// every pending input as acked is the conservative choice,
			// a hard snap rather than a mispredicted replay.
			w.mu.Lock()
			w.local.Reconcile(w.localSeq, p.X, p.Y)
			w.mu.Unlock()
			return
		}
		w.historyFor(p.EntityID).Append(ecs.HistorySample{X: p.X, Y: p.Y, T: p.Ts})
	})

	endpoint.Handle(netcode.TypeEnemySpawn, func(_ *net.UDPAddr, body []byte) {
		e, err := netcode.DecodeEnemySpawn(body)
		if err != nil {
			return
		}
		w.historyFor(e.EnemyID).Append(ecs.HistorySample{X: e.X, Y: e.Y, T: w.currentServerTime()})
	})

	endpoint.Handle(netcode.TypeEnemyMove, func(_ *net.UDPAddr, body []byte) {
		e, err := netcode.DecodeEnemyMove(body)
		if err != nil {
			return
		}
		w.historyFor(e.EnemyID).Append(ecs.HistorySample{X: e.X, Y: e.Y, T: w.currentServerTime()})
	})

	endpoint.Handle(netcode.TypeEnemyDeath, func(_ *net.UDPAddr, body []byte) {
		e, err := netcode.DecodeEnemyDestroy(body)
		if err != nil {
			return
		}
		w.forget(e.EnemyID)
	})

	endpoint.Handle(netcode.TypePlayerDeath, func(_ *net.UDPAddr, body []byte) {
		p, err := netcode.DecodePlayerDied(body)
		if err != nil {
			// A bare player ID is a PlayerDestroy: drop the entity.
			if d, derr := netcode.DecodePlayerDestroy(body); derr == nil {
				w.forget(d.PlayerID)
			}
			return
		}
		log.Printf("client: player %q (id=%d) died", p.Name, p.PlayerID)
	})

	endpoint.Handle(netcode.TypePlayerDisconnect, func(_ *net.UDPAddr, body []byte) {
		p, err := netcode.DecodePlayerDisconnect(body)
		if err != nil {
			return
		}
		w.forget(p.PlayerID)
	})

	endpoint.Handle(netcode.TypeChat, func(_ *net.UDPAddr, body []byte) {
		c, err := netcode.DecodeChat(body)
		if err != nil {
			return
		}
		log.Printf("client: chat from %d: %s", c.PlayerID, c.Text)
	})
}

func (w *world) setServerTime(t float32) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t > w.serverTime {
		w.serverTime = t
	}
}

func (w *world) currentServerTime() float32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.serverTime
}

// inputLoop stands in for a real input device: it submits a scripted
// patrol pattern at InputTick cadence, predicting each step locally
// before the server has acked it, exercising the same
// PlayerInput/ApplyInput/Reconcile path a graphical client's input
// handler would drive.
func (w *world) inputLoop(ctx context.Context, endpoint *transport.Endpoint) {
	ticker := time.NewTicker(InputTick)
	defer ticker.Stop()
	step := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			selfID, ok := w.selfIdentity()
			if !ok {
				continue
			}
			bitmask := patrolPattern[step%len(patrolPattern)]
			step++

			w.mu.Lock()
			w.localSeq++
			seq := w.localSeq
			speed := w.selfSpeed
			w.mu.Unlock()

			dx, dy := inputDelta(bitmask, speed, InputTick.Seconds())

			w.mu.Lock()
			w.local.ApplyInput(seq, dx, dy)
			w.mu.Unlock()

			body := netcode.PlayerInput{Bitmask: bitmask, Shoot: step%20 == 0, Seq: seq}.Encode()
			if err := endpoint.Send(nil, netcode.TypePlayerInput, body); err != nil {
				log.Printf("client: failed to send input for %d: %v", selfID, err)
			}
		}
	}
}

func inputDelta(bitmask uint8, speed float32, dtSeconds float64) (dx, dy float32) {
	dt := float32(dtSeconds)
	if bitmask&netcode.InputLeft != 0 {
		dx -= speed * dt
	}
	if bitmask&netcode.InputRight != 0 {
		dx += speed * dt
	}
	if bitmask&netcode.InputUp != 0 {
		dy -= speed * dt
	}
	if bitmask&netcode.InputDown != 0 {
		dy += speed * dt
	}
	return dx, dy
}

func (w *world) heartbeatLoop(ctx context.Context, endpoint *transport.Endpoint) {
	ticker := time.NewTicker(HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = endpoint.Send(nil, netcode.TypeHeartbeat, netcode.Heartbeat{}.Encode())
		}
	}
}

// renderLoop is the client's main thread: it logs the locally predicted
// position (advanced by inputLoop, reconciled by the PlayerMove handler)
// and the interpolated position of every tracked remote entity, in
// place of the draw call a graphical client would make here.
func (w *world) renderLoop(ctx context.Context) {
	ticker := time.NewTicker(RenderTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := w.currentServerTime()
			w.mu.Lock()
			snapshot := make(map[uint32]*ecs.StateHistory, len(w.histories))
			for id, h := range w.histories {
				snapshot[id] = h
			}
			selfID, haveSelf := w.selfID, w.haveSelf
			selfX, selfY := w.local.X, w.local.Y
			w.mu.Unlock()

			if haveSelf {
				log.Printf("client: self %d at (%.2f, %.2f) [predicted]", selfID, selfX, selfY)
			}
			for id, h := range snapshot {
				if pos, ok := client.Render(h, now); ok {
					log.Printf("client: entity %d at (%.2f, %.2f)", id, pos.X, pos.Y)
				}
			}
		}
	}
}
