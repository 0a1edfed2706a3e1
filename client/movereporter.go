package client

import (
	"time"

	"github.com/Kulezi/SK-Screen-Worms/wire"
)

// MoveInterval is how often the client sends its current turn intent to
// the server, independent of anything the GUI does: a fixed 30ms cycle,
// matching the original client's behavior of reporting even an
// unchanged ("straight") direction on every tick so the server's idle
// timer keeps getting refreshed.
const MoveInterval = 30 * time.Millisecond

// turnState tracks the single turn intent value the GUI's key events
// drive. LEFT_KEY_DOWN/RIGHT_KEY_DOWN unconditionally overwrite it (the
// last key pressed wins, even if the other is still held); a KEY_UP only
// resets it to straight if it matches the currently active direction,
// so releasing a key that isn't driving the current turn has no effect.
type turnState struct {
	intent uint8
}

func (t *turnState) applyGUILine(line string) {
	switch line {
	case "LEFT_KEY_DOWN":
		t.intent = wire.TurnLeft
	case "RIGHT_KEY_DOWN":
		t.intent = wire.TurnRight
	case "LEFT_KEY_UP":
		if t.intent == wire.TurnLeft {
			t.intent = wire.TurnStraight
		}
	case "RIGHT_KEY_UP":
		if t.intent == wire.TurnRight {
			t.intent = wire.TurnStraight
		}
	}
}

func (t *turnState) direction() uint8 {
	return t.intent
}
