package client

import (
	"encoding/binary"
	"testing"

	"github.com/Kulezi/SK-Screen-Worms/wire"
)

func datagram(gameID uint32, events ...[]byte) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, gameID)
	for _, ev := range events {
		buf = append(buf, ev...)
	}
	return buf
}

func TestIngestorAppliesEventsInOrder(t *testing.T) {
	in := NewIngestor()
	var lines []string
	out := func(l string) { lines = append(lines, l) }

	newGame := wire.EncodeEvent(0, wire.NewGame, wire.EncodeNewGameData(640, 480, []string{"alice", "bob"}))
	pixel := wire.EncodeEvent(1, wire.Pixel, wire.EncodePixelData(0, 10, 20))

	if err := in.Ingest(datagram(1, newGame, pixel), out); err != nil {
		t.Fatalf("Ingest error: %v", err)
	}
	if in.NextEventNo() != 2 {
		t.Fatalf("NextEventNo() = %d, want 2", in.NextEventNo())
	}
	if len(lines) != 2 || lines[0] != "NEW_GAME 640 480 alice bob" || lines[1] != "PIXEL 10 20 alice" {
		t.Fatalf("got lines %v", lines)
	}
}

func TestIngestorSuppressesDuplicateEvents(t *testing.T) {
	in := NewIngestor()
	newGame := wire.EncodeEvent(0, wire.NewGame, wire.EncodeNewGameData(640, 480, []string{"alice", "bob"}))

	var calls int
	out := func(string) { calls++ }

	if err := in.Ingest(datagram(1, newGame), out); err != nil {
		t.Fatalf("Ingest error: %v", err)
	}
	// Redelivered (at-least-once fan-out): same event, same game_id.
	if err := in.Ingest(datagram(1, newGame), out); err != nil {
		t.Fatalf("Ingest error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("got %d applied events, want 1 (duplicate should be suppressed)", calls)
	}
	if in.NextEventNo() != 1 {
		t.Fatalf("NextEventNo() = %d, want 1", in.NextEventNo())
	}
}

func TestIngestorStopsAtBadCRC(t *testing.T) {
	in := NewIngestor()
	good := wire.EncodeEvent(0, wire.NewGame, wire.EncodeNewGameData(640, 480, []string{"alice", "bob"}))
	bad := wire.EncodeEvent(1, wire.Pixel, wire.EncodePixelData(0, 1, 1))
	bad[len(bad)-1] ^= 0xff
	trailing := wire.EncodeEvent(2, wire.Pixel, wire.EncodePixelData(0, 2, 2))

	var calls int
	out := func(string) { calls++ }

	if err := in.Ingest(datagram(1, good, bad, trailing), out); err != nil {
		t.Fatalf("Ingest error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("got %d applied events, want 1 (parsing should stop at the bad CRC)", calls)
	}
	if in.NextEventNo() != 1 {
		t.Fatalf("NextEventNo() = %d, want 1", in.NextEventNo())
	}
}

func TestIngestorResetsOnGameIDChange(t *testing.T) {
	in := NewIngestor()
	game1 := wire.EncodeEvent(0, wire.NewGame, wire.EncodeNewGameData(640, 480, []string{"alice", "bob"}))
	if err := in.Ingest(datagram(1, game1), noopOut()); err != nil {
		t.Fatalf("Ingest error: %v", err)
	}
	if in.NextEventNo() != 1 {
		t.Fatalf("NextEventNo() = %d, want 1", in.NextEventNo())
	}

	game2 := wire.EncodeEvent(0, wire.NewGame, wire.EncodeNewGameData(320, 240, []string{"carol", "dave"}))
	if err := in.Ingest(datagram(2, game2), noopOut()); err != nil {
		t.Fatalf("Ingest error: %v", err)
	}
	if in.NextEventNo() != 1 {
		t.Fatalf("NextEventNo() = %d, want 1 after resetting for the new game", in.NextEventNo())
	}
	if in.View.MaxX != 320 {
		t.Fatalf("view not rebuilt for the new game: %+v", in.View)
	}
}

func TestIngestorFatalOnInvalidNewGame(t *testing.T) {
	in := NewIngestor()
	invalid := wire.EncodeEvent(0, wire.NewGame, wire.EncodeNewGameData(640, 480, []string{"onlyone"}))
	if err := in.Ingest(datagram(1, invalid), noopOut()); err == nil {
		t.Fatalf("expected a fatal protocol violation for a single-player NewGame")
	}
}

func TestIngestorFatalOnNewGameWithNonZeroEventNo(t *testing.T) {
	in := NewIngestor()
	bad := wire.EncodeEvent(3, wire.NewGame, wire.EncodeNewGameData(640, 480, []string{"alice", "bob"}))
	if err := in.Ingest(datagram(1, bad), noopOut()); err == nil {
		t.Fatalf("expected a fatal protocol violation for a NEW_GAME with event_no != 0")
	}
}

func TestIngestorGameOverProducesNoGUILine(t *testing.T) {
	in := NewIngestor()
	newGame := wire.EncodeEvent(0, wire.NewGame, wire.EncodeNewGameData(640, 480, []string{"alice", "bob"}))
	gameOver := wire.EncodeEvent(1, wire.GameOver, nil)

	var lines []string
	out := func(l string) { lines = append(lines, l) }

	if err := in.Ingest(datagram(1, newGame, gameOver), out); err != nil {
		t.Fatalf("Ingest error: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("got lines %v, want only the NEW_GAME line (GAME_OVER has no GUI line)", lines)
	}
	if in.NextEventNo() != 2 {
		t.Fatalf("NextEventNo() = %d, want 2 (GAME_OVER is still consumed)", in.NextEventNo())
	}
	if in.View.Active {
		t.Fatalf("expected view to no longer be active after GAME_OVER")
	}
}

func noopOut() func(string) {
	return func(string) {}
}
