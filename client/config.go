// Package client implements the screen-worms headless game client: it
// talks the UDP wire protocol to a server, maintains the client-side
// event-stream state machine, and bridges to a GUI over a line-oriented
// TCP protocol.
package client

import (
	"fmt"
	"time"

	"github.com/Kulezi/SK-Screen-Worms/wire"
)

// Default CLI values.
const (
	DefaultServerPort = 2021
	DefaultGUIHost    = "localhost"
	DefaultGUIPort    = 20210
)

// Config holds the client's startup parameters.
type Config struct {
	PlayerName string
	ServerHost string
	ServerPort int
	GUIHost    string
	GUIPort    int
}

// Validate checks the player name against the wire format and the ports
// against the valid TCP/UDP port range.
func (c Config) Validate() error {
	if !wire.IsPrintableName([]byte(c.PlayerName)) {
		return fmt.Errorf("invalid player name: %q", c.PlayerName)
	}
	if c.ServerPort < 0 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid server port: %d", c.ServerPort)
	}
	if c.GUIPort < 0 || c.GUIPort > 65535 {
		return fmt.Errorf("invalid gui port: %d", c.GUIPort)
	}
	return nil
}

// NewSessionID derives a 64-bit session id from the current time, the
// way the original client seeds it: microseconds since the Unix epoch at
// startup, stable for the process's whole lifetime.
func NewSessionID(now time.Time) uint64 {
	return uint64(now.UnixMicro())
}
