package client

import (
	"fmt"

	"github.com/Kulezi/SK-Screen-Worms/wire"
)

// GameView is the client's rendering-facing model of the game currently
// (or most recently) in progress: the board, the ordered player list,
// and whether the round has ended. It is rebuilt from scratch every time
// a NEW_GAME event is processed.
type GameView struct {
	Active  bool
	MaxX    int
	MaxY    int
	Players []string // indexed by wire order
}

// applyNewGame resets the view for a freshly started round.
func (v *GameView) applyNewGame(d wire.NewGameData) {
	v.Active = true
	v.MaxX = int(d.MaxX)
	v.MaxY = int(d.MaxY)
	v.Players = d.Players
}

// playerName looks up a player by wire order, returning "?" if order is
// out of range (should not happen against a conformant server).
func (v *GameView) playerName(order uint8) string {
	if int(order) < len(v.Players) {
		return v.Players[order]
	}
	return "?"
}

// render translates a decoded event into the line-oriented text line sent
// to the GUI, per the game-event half of the GUI protocol. ok is false
// for an event that has no GUI line of its own (GAME_OVER only updates
// Active; it is not forwarded to the GUI).
func (v *GameView) render(ev wire.Event) (line string, ok bool, err error) {
	switch ev.Type {
	case wire.NewGame:
		d, err := wire.DecodeNewGameData(ev.Data)
		if err != nil {
			return "", false, err
		}
		v.applyNewGame(d)
		line := fmt.Sprintf("NEW_GAME %d %d", d.MaxX, d.MaxY)
		for _, p := range d.Players {
			line += " " + p
		}
		return line, true, nil

	case wire.Pixel:
		d, err := wire.DecodePixelData(ev.Data)
		if err != nil {
			return "", false, err
		}
		return fmt.Sprintf("PIXEL %d %d %s", d.X, d.Y, v.playerName(d.Order)), true, nil

	case wire.PlayerEliminated:
		d, err := wire.DecodePlayerEliminatedData(ev.Data)
		if err != nil {
			return "", false, err
		}
		return fmt.Sprintf("PLAYER_ELIMINATED %s", v.playerName(d.Order)), true, nil

	case wire.GameOver:
		v.Active = false
		return "", false, nil

	default:
		return "", false, wire.ErrMalformed
	}
}
