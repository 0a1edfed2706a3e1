package server

import (
	"log"
	"net"
	"time"

	"github.com/Kulezi/SK-Screen-Worms/rng"
	"github.com/Kulezi/SK-Screen-Worms/wire"
)

// datagram is a raw UDP packet handed from the reader goroutine to the
// single owning goroutine.
type datagram struct {
	addr *net.UDPAddr
	data []byte
}

// Server is an authoritative screen-worms game server. All mutable state
// (sessions, the current and previous round) is owned by a single
// goroutine running Run; the UDP reader goroutine only ever forwards raw
// datagrams over a channel, so nothing here needs a lock (spec.md §9,
// "single-threaded, cooperative" concurrency model).
type Server struct {
	cfg  Config
	conn *net.UDPConn
	gen  *rng.RNG

	sessions  *sessionTable
	round     *Round
	prevRound *Round

	incoming chan datagram
	stopped  chan struct{}

	logger *log.Logger
}

// NewServer creates a server bound to cfg. It does not start listening;
// call Run for that.
func NewServer(cfg Config, conn *net.UDPConn, logger *log.Logger) *Server {
	return &Server{
		cfg:      cfg,
		conn:     conn,
		gen:      rng.New(cfg.Seed),
		sessions: newSessionTable(),
		round:    NewRound(0),
		incoming: make(chan datagram, 64),
		stopped:  make(chan struct{}),
		logger:   logger,
	}
}

// Stop requests that Run return after its current iteration.
func (s *Server) Stop() {
	select {
	case <-s.stopped:
	default:
		close(s.stopped)
	}
}

// readLoop reads datagrams off the socket and forwards them to incoming.
// It is the only other goroutine besides the one running Run; it never
// touches server state directly.
func (s *Server) readLoop() {
	buf := make([]byte, wire.MaxClientMsgSize)
	for {
		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-s.stopped:
				return
			default:
				s.logger.Printf("server: read error: %v", err)
				continue
			}
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		select {
		case s.incoming <- datagram{addr: addr, data: data}:
		case <-s.stopped:
			return
		}
	}
}

// Run is the server's event loop. It returns once Stop is called. Every
// iteration suspends on a single select: an incoming datagram, the next
// scheduled timer (simulation tick or idle eviction), or shutdown.
func (s *Server) Run() {
	go s.readLoop()

	var nextTick time.Time
	for {
		now := time.Now()
		wait := s.nextWait(now, nextTick)
		timer := time.NewTimer(wait)

		select {
		case dg := <-s.incoming:
			timer.Stop()
			now = time.Now()
			s.evictIdle(now)
			s.handleDatagram(dg, now)

		case <-timer.C:
			now = time.Now()
			if s.round.Active && !nextTick.After(now) {
				s.tick(now)
				if s.round.Active {
					nextTick = nextTick.Add(s.cfg.TickInterval())
				}
			} else {
				s.evictIdle(now)
			}

		case <-s.stopped:
			timer.Stop()
			return
		}

		// nextTick only moves on a round transition or an actual tick
		// firing (handled above); an incoming datagram that merely
		// refreshes a session or records readiness must not push the
		// next scheduled tick back.
		switch {
		case !s.round.Active:
			nextTick = time.Time{}
		case nextTick.IsZero():
			nextTick = time.Now().Add(s.cfg.TickInterval())
		}
	}
}

// nextWait returns how long Run should block before it must act again:
// the earlier of the next tick deadline (if a round is active) and the
// next idle-eviction deadline.
func (s *Server) nextWait(now, nextTick time.Time) time.Duration {
	deadline, haveIdle := s.sessions.nextDeadline()

	have := false
	var earliest time.Time
	if !nextTick.IsZero() {
		earliest, have = nextTick, true
	}
	if haveIdle && (!have || deadline.Before(earliest)) {
		earliest, have = deadline, true
	}
	if !have {
		return time.Hour
	}
	if d := earliest.Sub(now); d > 0 {
		return d
	}
	return 0
}

// tick advances the active round by one simulation step and pushes the
// new events to every known session (spec.md §4.4, §4.5: broadcasts after
// a tick start from each session's own last-known event number).
func (s *Server) tick(now time.Time) {
	s.round.Tick(s.cfg)
	s.broadcastRound(s.round)

	if !s.round.Active {
		s.prevRound = s.round
		s.round = NewRound(0)
		s.sessions.resetCursors()
	}
}

// broadcastRound sends every session the tail of round's event log it
// hasn't seen yet, advancing each session's cursor as it goes.
func (s *Server) broadcastRound(r *Round) {
	for _, sess := range s.sessions.all() {
		s.deliver(sess, r)
	}
}

// deliver sends sess the tail of round's events from its recorded cursor,
// via one or more datagrams no larger than wire.MaxDatagramSize.
func (s *Server) deliver(sess *Session, round *Round) {
	from := sess.NextEventNo
	if from > uint32(len(round.Events)) {
		from = uint32(len(round.Events))
	}
	for _, d := range BuildDatagrams(round.ID, round.Events[from:]) {
		if _, err := s.conn.WriteToUDP(d, udpAddr(sess.Key)); err != nil {
			return // silently abort this session's fan-out; no back-pressure state
		}
	}
	sess.NextEventNo = uint32(len(round.Events))
}

// udpAddr reconstructs a *net.UDPAddr from a ClientKey for outbound writes.
func udpAddr(k ClientKey) *net.UDPAddr {
	return &net.UDPAddr{IP: net.ParseIP(k.IP), Port: k.Port}
}

// evictIdle drops every session that has gone IdleTimeout without a valid
// datagram, freeing its name and timer slot. While no round is active the
// evicted player is also withdrawn from the lobby's ready set; during an
// active round its worm is left in place and, with no further input,
// keeps going straight until it collides (spec.md §4.2).
func (s *Server) evictIdle(now time.Time) {
	for _, sess := range s.sessions.expired(now) {
		if !s.round.Active && sess.Name != "" {
			delete(s.round.Ready, sess.Name)
		}
	}
}

// handleDatagram processes one client->server datagram: session
// admission, idle-timer refresh, turn-intent/readiness recording, and the
// reply fan-out (spec.md §4.2).
func (s *Server) handleDatagram(dg datagram, now time.Time) {
	msg, err := wire.DecodeClientMessage(dg.data)
	if err != nil {
		return
	}

	key := ClientKeyFromUDPAddr(dg.addr)
	sess, exists := s.sessions.get(key)

	switch {
	case !exists:
		if s.sessions.full() {
			return
		}
		if s.sessions.usedNames[msg.PlayerName] {
			return
		}
		sess = s.sessions.admit(key, msg.SessionID, msg.PlayerName, now)

	case sess.SessionID != msg.SessionID:
		if s.sessions.nameUsedByOther(msg.PlayerName, sess) {
			return
		}
		s.sessions.replace(sess, msg.SessionID, msg.PlayerName)
		s.sessions.arm(sess, now)
		sess.NextEventNo = 0

	default:
		if msg.PlayerName != sess.Name && s.sessions.nameUsedByOther(msg.PlayerName, sess) {
			s.sessions.arm(sess, now)
			break
		}
		if msg.PlayerName != sess.Name {
			s.sessions.replace(sess, sess.SessionID, msg.PlayerName)
		}
		s.sessions.arm(sess, now)
	}

	if sess.Name != "" {
		if s.round.Active {
			s.round.SetTurnIntent(sess.Name, msg.TurnDirection)
		} else if msg.TurnDirection != wire.TurnStraight {
			s.round.MarkReady(sess.Name)
			if len(s.round.Ready) >= 2 {
				s.startRound()
			}
		}
	}

	sess.NextEventNo = msg.NextEventNo
	s.deliver(sess, s.activeFanoutSource(msg.NextEventNo))
}

// activeFanoutSource picks which round to serve a client's requested
// event number from: the current round if it has reached that far
// already, else the previous round if that one covers it (a client still
// catching up on the GAME_OVER tail of a game that just ended).
func (s *Server) activeFanoutSource(from uint32) *Round {
	if s.prevRound != nil && from < uint32(len(s.prevRound.Events)) && from >= uint32(len(s.round.Events)) {
		return s.prevRound
	}
	return s.round
}

// startRound transitions the current (lobby) round into its active
// phase.
func (s *Server) startRound() {
	if !s.round.Start(s.cfg, s.gen) {
		// Fewer than two worms survived spawning; the round already
		// recorded its own GAME_OVER. Roll straight into a fresh lobby.
		s.prevRound = s.round
		s.round = NewRound(0)
		s.sessions.resetCursors()
	}
}
