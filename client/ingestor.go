package client

import (
	"encoding/binary"
	"fmt"

	"github.com/Kulezi/SK-Screen-Worms/wire"
)

// Ingestor assembles the per-round event stream out of the datagrams a
// server sends, applying spec.md §4.6's client-side rules: a change in
// game_id resets the expected event number to 0; a duplicate or
// out-of-order event (anything but an exact match on the next expected
// number) is skipped rather than applied; and a bad CRC stops parsing
// the rest of that datagram outright, without skipping past it.
type Ingestor struct {
	haveGame     bool
	gameID       uint32
	nextExpected uint32

	View *GameView
}

// NewIngestor returns a fresh Ingestor with no game in progress.
func NewIngestor() *Ingestor {
	return &Ingestor{View: &GameView{}}
}

// NextEventNo is the event number this client will next accept, the
// value it declares to the server in every outgoing datagram.
func (in *Ingestor) NextEventNo() uint32 {
	return in.nextExpected
}

// Ingest processes one server->client datagram, invoking out once per
// applied event that has a GUI line of its own (GAME_OVER does not) with
// the text it translates to. It returns a non-nil error only for a
// fatal protocol violation — a CRC-valid but structurally invalid
// NEW_GAME, or a NEW_GAME whose event_no isn't 0 — which the caller must
// treat as fatal to the whole client, per spec.md §4.6. Any other
// CRC-valid event whose payload does not decode ends processing of the
// datagram without an error.
func (in *Ingestor) Ingest(data []byte, out func(line string)) error {
	if len(data) < 4 {
		return nil
	}
	gameID := binary.BigEndian.Uint32(data[0:4])
	if !in.haveGame || gameID != in.gameID {
		in.haveGame = true
		in.gameID = gameID
		in.nextExpected = 0
		*in.View = GameView{}
	}

	buf := data[4:]
	for len(buf) > 0 {
		ev, consumed, crcOK, err := wire.DecodeEvent(buf)
		if err != nil {
			return nil
		}
		if !crcOK {
			return nil
		}

		if ev.Type == wire.NewGame && ev.No != 0 {
			return fmt.Errorf("client: fatal protocol violation: NEW_GAME with event_no %d, want 0", ev.No)
		}

		if ev.No == in.nextExpected {
			line, ok, rerr := in.View.render(ev)
			if rerr != nil {
				if ev.Type == wire.NewGame {
					return fmt.Errorf("client: fatal protocol violation: %w", rerr)
				}
				return nil
			}
			if ok {
				out(line)
			}
			in.nextExpected++
		}

		buf = buf[consumed:]
	}
	return nil
}
