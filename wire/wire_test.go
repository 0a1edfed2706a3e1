package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeEventRoundTrip(t *testing.T) {
	data := EncodePixelData(3, 10, 20)
	frame := EncodeEvent(5, Pixel, data)

	ev, consumed, crcOK, err := DecodeEvent(frame)
	require.NoError(t, err)
	require.True(t, crcOK)
	assert.Equal(t, len(frame), consumed)
	assert.Equal(t, uint32(5), ev.No)
	assert.Equal(t, Pixel, ev.Type)

	pd, err := DecodePixelData(ev.Data)
	require.NoError(t, err)
	assert.Equal(t, PixelData{Order: 3, X: 10, Y: 20}, pd)
}

func TestDecodeEventBadCRCStopsWithoutError(t *testing.T) {
	frame := EncodeEvent(0, GameOver, nil)
	corrupt := append([]byte(nil), frame...)
	corrupt[len(corrupt)-1] ^= 0xff

	ev, consumed, crcOK, err := DecodeEvent(corrupt)
	require.NoError(t, err, "a bad CRC is reported via crcOK, not err")
	assert.False(t, crcOK)
	assert.Equal(t, len(corrupt), consumed)
	assert.Equal(t, Event{}, ev)
}

func TestDecodeEventTruncatedIsMalformed(t *testing.T) {
	frame := EncodeEvent(0, GameOver, nil)
	_, _, _, err := DecodeEvent(frame[:len(frame)-1])
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestNewGameDataRequiresSortedUniquePlayers(t *testing.T) {
	cases := []struct {
		name    string
		players []string
		wantErr bool
	}{
		{"sorted, two players", []string{"alice", "bob"}, false},
		{"unsorted", []string{"bob", "alice"}, true},
		{"duplicate", []string{"alice", "alice"}, true},
		{"single player", []string{"alice"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data := EncodeNewGameData(640, 480, tc.players)
			_, err := DecodeNewGameData(data)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestClientMessageRoundTrip(t *testing.T) {
	m := ClientMessage{SessionID: 123456789, TurnDirection: TurnRight, NextEventNo: 7, PlayerName: "alice"}
	buf := EncodeClientMessage(m)
	got, err := DecodeClientMessage(buf)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestDecodeClientMessageRejectsBadTurn(t *testing.T) {
	m := ClientMessage{SessionID: 1, TurnDirection: 9, PlayerName: "a"}
	buf := EncodeClientMessage(m)
	_, err := DecodeClientMessage(buf)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeClientMessageRejectsOversizeName(t *testing.T) {
	m := ClientMessage{SessionID: 1, PlayerName: "this-player-name-is-too-long-for-the-protocol"}
	buf := EncodeClientMessage(m)
	_, err := DecodeClientMessage(buf)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestIsPrintableName(t *testing.T) {
	assert.True(t, IsPrintableName([]byte("player_1")))
	assert.False(t, IsPrintableName([]byte("bad\x01name")))
	assert.False(t, IsPrintableName(bytes.Repeat([]byte("a"), MaxPlayerNameLen+1)))
}
