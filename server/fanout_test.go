package server

import (
	"encoding/binary"
	"testing"

	"github.com/Kulezi/SK-Screen-Worms/wire"
)

func TestBuildDatagramsFitsEverythingInOneWhenSmall(t *testing.T) {
	events := [][]byte{
		wire.EncodeEvent(0, wire.Pixel, wire.EncodePixelData(0, 1, 1)),
		wire.EncodeEvent(1, wire.Pixel, wire.EncodePixelData(1, 2, 2)),
	}
	out := BuildDatagrams(7, events)
	if len(out) != 1 {
		t.Fatalf("got %d datagrams, want 1", len(out))
	}
	if got := binary.BigEndian.Uint32(out[0][0:4]); got != 7 {
		t.Fatalf("game_id prefix = %d, want 7", got)
	}
}

func TestBuildDatagramsNeverExceedsLimit(t *testing.T) {
	var events [][]byte
	for i := 0; i < 200; i++ {
		events = append(events, wire.EncodeEvent(uint32(i), wire.Pixel, wire.EncodePixelData(uint8(i%25), uint32(i), uint32(i))))
	}
	out := BuildDatagrams(1, events)
	if len(out) < 2 {
		t.Fatalf("expected events to split across multiple datagrams, got %d", len(out))
	}
	for i, dg := range out {
		if len(dg) > wire.MaxDatagramSize {
			t.Fatalf("datagram %d is %d bytes, want <= %d", i, len(dg), wire.MaxDatagramSize)
		}
		if binary.BigEndian.Uint32(dg[0:4]) != 1 {
			t.Fatalf("datagram %d missing game_id prefix", i)
		}
	}
}

func TestBuildDatagramsEmptyStillSendsGameIDPrefix(t *testing.T) {
	out := BuildDatagrams(42, nil)
	if len(out) != 1 {
		t.Fatalf("got %d datagrams, want 1", len(out))
	}
	if len(out[0]) != 4 {
		t.Fatalf("got %d bytes, want 4 (game_id only)", len(out[0]))
	}
}
