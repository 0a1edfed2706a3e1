package server

import (
	"math"
	"sort"

	"github.com/Kulezi/SK-Screen-Worms/rng"
	"github.com/Kulezi/SK-Screen-Worms/wire"
)

// Worm is one player's simulated trail-leaving entity within a round.
type Worm struct {
	X, Y       float64
	Heading    int // integer degrees, 0..359
	TurnIntent uint8
	Order      uint8
	Alive      bool
}

type pixel struct{ X, Y int }

// Round is one bounded simulation cycle: a lobby phase (Active == false,
// players accumulate in Ready) followed by an active phase (Active ==
// true, Worms simulated tick by tick) ending in GameOver. A fresh Round
// replaces the previous one once it ends, per spec.md §3 ("New round
// starts when >=2 distinct named players have submitted a non-zero turn
// intent"); Ready, Worms, and Eaten never carry over between rounds.
type Round struct {
	ID     uint32
	Active bool

	// Finished is set once GameOver has been emitted. It exists
	// separately from Active (which is also false during the lobby
	// phase) so MarkReady can tell a round that hasn't started yet from
	// one that has already ended.
	Finished bool

	// Events holds the fully encoded, CRC-framed wire events for this
	// round, indexed by event number (contiguous from 0).
	Events [][]byte

	Eaten map[pixel]bool

	// Worms is keyed by player name: names are unique across sessions
	// (spec.md §3 invariant), so a name is a small, copyable handle onto
	// a worm that never needs a back-pointer to the owning session
	// (spec.md §9 design note).
	Worms map[string]*Worm

	// Order is the ascending, sorted player-name order established at
	// round start. Tick simulation walks worms in this fixed order so
	// that PIXEL/PLAYER_ELIMINATED events within a tick are deterministic
	// (spec.md §5).
	Order []string

	// Ready holds named players who have submitted a non-zero turn
	// intent since this Round began (i.e. since the last GameOver).
	Ready map[string]bool
}

// NewRound returns a fresh, inactive round with the given id.
func NewRound(id uint32) *Round {
	return &Round{
		ID:    id,
		Eaten: make(map[pixel]bool),
		Worms: make(map[string]*Worm),
		Ready: make(map[string]bool),
	}
}

// MarkReady records that name has submitted a non-zero turn intent. It is
// a no-op once the round is active; lobby admission only applies before
// round start (spec.md §4.3).
func (r *Round) MarkReady(name string) {
	if r.Active || r.Finished || name == "" {
		return
	}
	r.Ready[name] = true
}

// ReadyNames returns the round's ready player names in sorted order.
func (r *Round) ReadyNames() []string {
	names := make([]string, 0, len(r.Ready))
	for n := range r.Ready {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// appendEvent frames and appends a new event, returning its assigned
// event number.
func (r *Round) appendEvent(t wire.EventType, data []byte) uint32 {
	no := uint32(len(r.Events))
	r.Events = append(r.Events, wire.EncodeEvent(no, t, data))
	return no
}

func floorCoord(v float64) int {
	return int(math.Floor(v))
}

// Start begins the round: draws a new game_id, emits NEW_GAME with the
// sorted ready player names, spawns a worm per ready player (drawing x, y,
// heading from gen in name order), and emits the spawn PIXEL or immediate
// PLAYER_ELIMINATED for each. It returns false if fewer than two worms
// survive spawning, in which case a GAME_OVER event has already been
// emitted and the round must not be armed for ticking (spec.md §4.3).
func (r *Round) Start(cfg Config, gen *rng.RNG) (ok bool) {
	r.ID = uint32(gen.Next())
	r.Active = true

	names := r.ReadyNames()
	r.appendEvent(wire.NewGame, wire.EncodeNewGameData(uint32(cfg.Width), uint32(cfg.Height), names))

	r.Order = names
	for i, name := range names {
		w := &Worm{
			Order: uint8(i),
			Alive: true,
		}
		w.X = float64(gen.Next()%uint64(cfg.Width)) + 0.5
		w.Y = float64(gen.Next()%uint64(cfg.Height)) + 0.5
		w.Heading = int(gen.Next() % 360)
		r.Worms[name] = w

		x, y := floorCoord(w.X), floorCoord(w.Y)
		cell := pixel{x, y}
		if r.Eaten[cell] {
			w.Alive = false
			r.appendEvent(wire.PlayerEliminated, wire.EncodePlayerEliminatedData(w.Order))
		} else {
			r.Eaten[cell] = true
			r.appendEvent(wire.Pixel, wire.EncodePixelData(w.Order, uint32(x), uint32(y)))
		}
	}

	if r.aliveCount() < 2 {
		r.appendEvent(wire.GameOver, nil)
		r.Active = false
		r.Finished = true
		return false
	}
	return true
}

func (r *Round) aliveCount() int {
	n := 0
	for _, name := range r.Order {
		if r.Worms[name].Alive {
			n++
		}
	}
	return n
}

// SetTurnIntent records the turn intent for name's worm in this round, if
// it has one; an eliminated worm's intent is still recorded but no longer
// used, since Tick skips it. Unlike lobby admission, this applies
// throughout the active phase (spec.md §4.2 step 4).
func (r *Round) SetTurnIntent(name string, intent uint8) {
	if w, ok := r.Worms[name]; ok {
		w.TurnIntent = intent
	}
}

// Tick advances every alive worm by one simulation step in round-start
// order, per spec.md §4.4, appending PIXEL/PLAYER_ELIMINATED events as
// they occur. It returns true if the round ended this tick (<=1 worm
// remains), in which case a GAME_OVER event has been appended and Active
// is now false.
func (r *Round) Tick(cfg Config) (gameOver bool) {
	for _, name := range r.Order {
		w := r.Worms[name]
		if !w.Alive {
			continue
		}

		switch w.TurnIntent {
		case wire.TurnRight:
			w.Heading = ((w.Heading+cfg.TurningSpeed)%360 + 360) % 360
		case wire.TurnLeft:
			w.Heading = ((w.Heading-cfg.TurningSpeed)%360 + 360) % 360
		}

		oldX, oldY := floorCoord(w.X), floorCoord(w.Y)
		w.X += math.Cos(float64(w.Heading) * math.Pi / 180)
		w.Y += math.Sin(float64(w.Heading) * math.Pi / 180)
		x, y := floorCoord(w.X), floorCoord(w.Y)

		if x == oldX && y == oldY {
			continue
		}

		cell := pixel{x, y}
		outOfBounds := x < 0 || x >= cfg.Width || y < 0 || y >= cfg.Height
		if outOfBounds || r.Eaten[cell] {
			w.Alive = false
			r.appendEvent(wire.PlayerEliminated, wire.EncodePlayerEliminatedData(w.Order))
		} else {
			r.Eaten[cell] = true
			r.appendEvent(wire.Pixel, wire.EncodePixelData(w.Order, uint32(x), uint32(y)))
		}
	}

	if r.aliveCount() <= 1 {
		r.appendEvent(wire.GameOver, nil)
		r.Active = false
		r.Finished = true
		return true
	}
	return false
}
