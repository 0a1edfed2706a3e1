package server

import (
	"encoding/binary"

	"github.com/Kulezi/SK-Screen-Worms/wire"
)

// BuildDatagrams packs events into one or more datagrams, each
// prefixed with gameID and each no larger than wire.MaxDatagramSize
// (spec.md §4.1, §4.5): events are appended to the current datagram until
// the next one would overflow the limit, at which point the current
// datagram is flushed and a new one started (also prefixed with gameID).
// A single oversized event is impossible by construction, since every
// wire event plus its game_id prefix fits within the limit: the largest,
// a NEW_GAME listing 25 players with 20-byte names, is 546 bytes, exactly
// 550 with the prefix.
func BuildDatagrams(gameID uint32, events [][]byte) [][]byte {
	var out [][]byte
	var cur []byte

	startNew := func() {
		cur = make([]byte, 4, wire.MaxDatagramSize)
		binary.BigEndian.PutUint32(cur, gameID)
	}
	startNew()

	for _, ev := range events {
		if len(cur)+len(ev) > wire.MaxDatagramSize {
			out = append(out, cur)
			startNew()
		}
		cur = append(cur, ev...)
	}

	if len(cur) > 4 || len(out) == 0 {
		out = append(out, cur)
	}
	return out
}
