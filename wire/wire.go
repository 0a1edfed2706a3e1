// Package wire implements the screen-worms binary protocol shared by the
// server and the client: event encoding/decoding, CRC32 framing, and the
// client-to-server move datagram. All multi-byte integers are big-endian.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
)

// EventType identifies the kind of a wire event.
type EventType uint8

// Event types, per the protocol.
const (
	NewGame EventType = iota
	Pixel
	PlayerEliminated
	GameOver
)

// Wire size limits.
const (
	// MaxDatagramSize is the largest payload the server will put on the
	// wire in a single UDP datagram, game_id prefix included.
	MaxDatagramSize = 550

	// MinClientMsgSize and MaxClientMsgSize bound a client->server datagram.
	MinClientMsgSize = 13
	MaxClientMsgSize = 33

	// MaxPlayerNameLen is the longest printable player name accepted.
	MaxPlayerNameLen = 20

	// minPrintable and maxPrintable bound the printable ASCII range used
	// for player names.
	minPrintable = 33
	maxPrintable = 126
)

// Turn directions as carried on the wire.
const (
	TurnStraight uint8 = 0
	TurnRight    uint8 = 1
	TurnLeft     uint8 = 2
)

// ErrMalformed is returned by parsing functions on any malformed input;
// callers handle it per spec.md's error table ("silently discard, continue").
var ErrMalformed = errors.New("wire: malformed input")

// Event is one decoded server->client event.
type Event struct {
	No   uint32
	Type EventType
	Data []byte
}

// NewGameData is the decoded payload of a NewGame event.
type NewGameData struct {
	MaxX, MaxY uint32
	Players    []string
}

// PixelData is the decoded payload of a Pixel event.
type PixelData struct {
	Order   uint8
	X, Y    uint32
}

// PlayerEliminatedData is the decoded payload of a PlayerEliminated event.
type PlayerEliminatedData struct {
	Order uint8
}

// IsPrintableName reports whether name is 0-20 printable ASCII bytes
// (33..126), the player name charset accepted everywhere in the protocol.
func IsPrintableName(name []byte) bool {
	if len(name) > MaxPlayerNameLen {
		return false
	}
	for _, b := range name {
		if b < minPrintable || b > maxPrintable {
			return false
		}
	}
	return true
}

// EncodeEvent serializes eventNo/eventType/data and appends the CRC32 of
// (len||event_no||event_type||data), per spec.md §4.1. The length field
// covers event_no||event_type||data, not itself and not the trailing crc.
func EncodeEvent(eventNo uint32, eventType EventType, data []byte) []byte {
	body := make([]byte, 4+1+len(data))
	binary.BigEndian.PutUint32(body[0:4], eventNo)
	body[4] = byte(eventType)
	copy(body[5:], data)

	buf := new(bytes.Buffer)
	buf.Grow(4 + len(body) + 4)
	var lenField [4]byte
	binary.BigEndian.PutUint32(lenField[:], uint32(len(body)))
	buf.Write(lenField[:])
	buf.Write(body)

	sum := crc32.ChecksumIEEE(buf.Bytes())
	var crcField [4]byte
	binary.BigEndian.PutUint32(crcField[:], sum)
	buf.Write(crcField[:])

	return buf.Bytes()
}

// EncodeNewGameData builds a NewGame event's data payload: maxx, maxy, then
// each player name NUL-terminated. Callers must pass names already sorted
// and de-duplicated; EncodeNewGameData does not re-sort them.
func EncodeNewGameData(maxX, maxY uint32, players []string) []byte {
	size := 8
	for _, p := range players {
		size += len(p) + 1
	}
	data := make([]byte, 8, size)
	binary.BigEndian.PutUint32(data[0:4], maxX)
	binary.BigEndian.PutUint32(data[4:8], maxY)
	for _, p := range players {
		data = append(data, p...)
		data = append(data, 0)
	}
	return data
}

// EncodePixelData builds a Pixel event's data payload.
func EncodePixelData(order uint8, x, y uint32) []byte {
	data := make([]byte, 9)
	data[0] = order
	binary.BigEndian.PutUint32(data[1:5], x)
	binary.BigEndian.PutUint32(data[5:9], y)
	return data
}

// EncodePlayerEliminatedData builds a PlayerEliminated event's data payload.
func EncodePlayerEliminatedData(order uint8) []byte {
	return []byte{order}
}

// DecodeEvent reads one framed event from the front of buf and returns the
// event plus the number of bytes consumed (len field + body + crc field).
// It returns ErrMalformed if buf is too short to contain a complete,
// length-consistent event, or (false CRC) if the checksum does not match —
// callers must stop parsing the remainder of the datagram on a CRC
// mismatch, per spec.md §4.6, rather than skip past it.
func DecodeEvent(buf []byte) (ev Event, consumed int, crcOK bool, err error) {
	if len(buf) < 4 {
		return Event{}, 0, false, ErrMalformed
	}
	bodyLen := binary.BigEndian.Uint32(buf[0:4])
	total := 4 + int(bodyLen) + 4
	if bodyLen < 5 || total < 0 || total > len(buf) {
		return Event{}, 0, false, ErrMalformed
	}

	framed := buf[0 : 4+int(bodyLen)]
	wantCRC := binary.BigEndian.Uint32(buf[4+int(bodyLen) : total])
	gotCRC := crc32.ChecksumIEEE(framed)
	if wantCRC != gotCRC {
		return Event{}, total, false, nil
	}

	body := buf[4 : 4+int(bodyLen)]
	ev.No = binary.BigEndian.Uint32(body[0:4])
	ev.Type = EventType(body[4])
	ev.Data = append([]byte(nil), body[5:]...)
	return ev, total, true, nil
}

// DecodeNewGameData parses a NewGame event's data payload. It validates
// that the player list is non-empty, has at least two entries, every name
// is non-empty printable ASCII, the list is strictly sorted (hence
// unique), per spec.md §4.1 and §4.6 ("CRC-valid but structurally invalid
// NEW_GAME is fatal to the client").
func DecodeNewGameData(data []byte) (NewGameData, error) {
	if len(data) < 8 {
		return NewGameData{}, ErrMalformed
	}
	out := NewGameData{
		MaxX: binary.BigEndian.Uint32(data[0:4]),
		MaxY: binary.BigEndian.Uint32(data[4:8]),
	}

	rest := data[8:]
	var cur []byte
	for _, b := range rest {
		if b == 0 {
			if len(cur) == 0 {
				return NewGameData{}, ErrMalformed
			}
			out.Players = append(out.Players, string(cur))
			cur = nil
			continue
		}
		if b < minPrintable || b > maxPrintable {
			return NewGameData{}, ErrMalformed
		}
		cur = append(cur, b)
	}
	if len(cur) != 0 {
		// trailing bytes without a terminating NUL
		return NewGameData{}, ErrMalformed
	}

	if len(out.Players) < 2 {
		return NewGameData{}, ErrMalformed
	}
	for i := 1; i < len(out.Players); i++ {
		if out.Players[i-1] >= out.Players[i] {
			return NewGameData{}, ErrMalformed
		}
	}

	return out, nil
}

// DecodePixelData parses a Pixel event's data payload.
func DecodePixelData(data []byte) (PixelData, error) {
	if len(data) != 9 {
		return PixelData{}, ErrMalformed
	}
	return PixelData{
		Order: data[0],
		X:     binary.BigEndian.Uint32(data[1:5]),
		Y:     binary.BigEndian.Uint32(data[5:9]),
	}, nil
}

// DecodePlayerEliminatedData parses a PlayerEliminated event's data payload.
func DecodePlayerEliminatedData(data []byte) (PlayerEliminatedData, error) {
	if len(data) != 1 {
		return PlayerEliminatedData{}, ErrMalformed
	}
	return PlayerEliminatedData{Order: data[0]}, nil
}

// ClientMessage is a decoded client->server datagram.
type ClientMessage struct {
	SessionID     uint64
	TurnDirection uint8
	NextEventNo   uint32
	PlayerName    string
}

// EncodeClientMessage serializes a ClientMessage per spec.md §4.1.
func EncodeClientMessage(m ClientMessage) []byte {
	buf := make([]byte, 13+len(m.PlayerName))
	binary.BigEndian.PutUint64(buf[0:8], m.SessionID)
	buf[8] = m.TurnDirection
	binary.BigEndian.PutUint32(buf[9:13], m.NextEventNo)
	copy(buf[13:], m.PlayerName)
	return buf
}

// DecodeClientMessage parses a client->server datagram, rejecting any
// malformation: wrong size, invalid turn value, or non-printable/oversize
// name, per spec.md §4.2 step 1.
func DecodeClientMessage(buf []byte) (ClientMessage, error) {
	if len(buf) < MinClientMsgSize || len(buf) > MaxClientMsgSize {
		return ClientMessage{}, ErrMalformed
	}

	m := ClientMessage{
		SessionID:     binary.BigEndian.Uint64(buf[0:8]),
		TurnDirection: buf[8],
		NextEventNo:   binary.BigEndian.Uint32(buf[9:13]),
	}
	if m.TurnDirection > TurnLeft {
		return ClientMessage{}, ErrMalformed
	}

	name := buf[13:]
	if !IsPrintableName(name) {
		return ClientMessage{}, ErrMalformed
	}
	m.PlayerName = string(name)

	return m, nil
}
