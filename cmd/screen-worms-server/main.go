// Command screen-worms-server runs an authoritative screen-worms game
// server over UDP.
package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"time"

	"github.com/Kulezi/SK-Screen-Worms/server"
)

func main() {
	port := flag.Int("p", server.DefaultPort, "port to listen on")
	seed := flag.Uint64("s", uint64(time.Now().Unix())&0xffffffff, "rng seed")
	turningSpeed := flag.Int("t", server.DefaultTurningSpeed, "turning speed, in degrees per tick")
	rps := flag.Int("v", server.DefaultRPS, "rounds (ticks) per second")
	width := flag.Int("w", server.DefaultWidth, "board width")
	height := flag.Int("h", server.DefaultHeight, "board height")
	flag.Parse()

	cfg := server.Config{
		Seed:         uint32(*seed),
		TurningSpeed: *turningSpeed,
		RPS:          *rps,
		Port:         *port,
		Width:        *width,
		Height:       *height,
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "screen-worms-server:", err)
		os.Exit(1)
	}

	addr := &net.UDPAddr{Port: cfg.Port}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "screen-worms-server:", err)
		os.Exit(1)
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)
	logger.Printf("listening on :%d (seed=%d width=%d height=%d turning_speed=%d rps=%d)",
		cfg.Port, cfg.Seed, cfg.Width, cfg.Height, cfg.TurningSpeed, cfg.RPS)

	s := server.NewServer(cfg, conn, logger)
	s.Run()
}
