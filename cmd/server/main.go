// Package main runs the arena UDP game server: load configuration,
// bind a socket, wire up internal/server.Server, and run until
// SIGINT/SIGTERM.
package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/ironwing/arena-server/internal/config"
	"github.com/ironwing/arena-server/internal/server"
	"github.com/ironwing/arena-server/internal/store"
	"github.com/ironwing/arena-server/internal/transport"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	flag.Parse() // only --help is registered; spec.md section 6 names no other server flags

	cfg := config.DefaultServerConfig()
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		log.Printf("config error: %v", err)
		os.Exit(1)
	}

	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP(cfg.IP), Port: cfg.Port})
	if err != nil {
		log.Fatalf("listen: %v", err)
	}
	defer conn.Close()

	endpoint := transport.NewEndpoint(transport.RoleServer, conn)
	srv := server.New(cfg, endpoint, store.NewInMemoryPlayerStore())

	log.Printf("=================================")
	log.Printf("  Arena Game Server")
	log.Printf("=================================")
	log.Printf("  Bind: %s:%d", cfg.IP, cfg.Port)
	log.Printf("  Max clients: %d", cfg.MaxClients)
	log.Printf("=================================")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		endpoint.Run(gctx)
		return nil
	})
	g.Go(func() error {
		srv.Run(gctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Printf("server error: %v", err)
		os.Exit(1)
	}
	log.Printf("server: shut down cleanly")
}
