package server

import (
	"container/heap"
	"net"
	"time"
)

// ClientKey identifies a peer endpoint. Equality/ordering is lexicographic
// on (family, port, ip), matching the original's std::map<ClientAddr, ...>
// ordering (spec.md §3).
type ClientKey struct {
	Family string // "ip4" or "ip6"
	IP     string
	Port   int
}

// ClientKeyFromUDPAddr builds a ClientKey from a resolved UDP peer address.
func ClientKeyFromUDPAddr(addr *net.UDPAddr) ClientKey {
	family := "ip6"
	ip4 := addr.IP.To4()
	if ip4 != nil {
		family = "ip4"
		return ClientKey{Family: family, IP: ip4.String(), Port: addr.Port}
	}
	return ClientKey{Family: family, IP: addr.IP.String(), Port: addr.Port}
}

// Less reports whether k sorts before other, per the family/port/ip
// ordering spec.md §3 specifies.
func (k ClientKey) Less(other ClientKey) bool {
	if k.Family != other.Family {
		return k.Family < other.Family
	}
	if k.Port != other.Port {
		return k.Port < other.Port
	}
	return k.IP < other.IP
}

// Session is a server-side record of one client endpoint.
type Session struct {
	Key       ClientKey
	TimerSlot int
	SessionID uint64
	Name      string // empty means an observer

	// NextEventNo is the event number this session last declared it
	// expects next. It is refreshed from every valid incoming datagram
	// and also advanced by the server's post-tick broadcast, so a
	// session that never re-contacts the server still keeps receiving
	// new events for the round it is watching (spec.md §4.5).
	NextEventNo uint32

	// generation is bumped every time the session's idle deadline is
	// (re)armed; a heap entry is stale once its generation no longer
	// matches, so eviction doesn't need to search/remove the old entry.
	generation int
}

// sessionTable owns all currently connected sessions, keyed by endpoint,
// plus the name uniqueness index and the idle-eviction heap. It mirrors
// the original's ServerNetworkData (clientId map + usedNames + free timer
// slots), but replaces the fixed array of 25 timerfds with a min-heap of
// deadlines, per spec.md §9's "Timer slots" design note.
type sessionTable struct {
	byKey     map[ClientKey]*Session
	usedNames map[string]bool
	freeSlots []int // stack of free timer-slot ids, 1..MaxPlayers

	deadlines timerHeap
}

func newSessionTable() *sessionTable {
	free := make([]int, MaxPlayers)
	for i := range free {
		free[i] = MaxPlayers - i // doesn't matter which order; just a free list
	}
	return &sessionTable{
		byKey:     make(map[ClientKey]*Session),
		usedNames: make(map[string]bool),
		freeSlots: free,
	}
}

func (t *sessionTable) full() bool {
	return len(t.byKey) >= MaxPlayers
}

func (t *sessionTable) get(key ClientKey) (*Session, bool) {
	s, ok := t.byKey[key]
	return s, ok
}

// nameUsedByOther reports whether name is taken by some session other than
// excl.
func (t *sessionTable) nameUsedByOther(name string, excl *Session) bool {
	if name == "" {
		return false
	}
	if !t.usedNames[name] {
		return false
	}
	return name != excl.Name
}

// all returns every current session. Order is unspecified.
func (t *sessionTable) all() []*Session {
	out := make([]*Session, 0, len(t.byKey))
	for _, s := range t.byKey {
		out = append(out, s)
	}
	return out
}

// resetCursors zeroes every session's NextEventNo, used when the current
// round is replaced by a fresh one (event numbers start over at 0 for a
// new game_id, per spec.md §4.1).
func (t *sessionTable) resetCursors() {
	for _, s := range t.byKey {
		s.NextEventNo = 0
	}
}

// admit creates a new session for key, allocating a free timer slot and
// arming its idle deadline. The caller must have already verified the
// table isn't full and the name isn't taken.
func (t *sessionTable) admit(key ClientKey, sessionID uint64, name string, now time.Time) *Session {
	slot := t.freeSlots[len(t.freeSlots)-1]
	t.freeSlots = t.freeSlots[:len(t.freeSlots)-1]

	s := &Session{
		Key:       key,
		TimerSlot: slot,
		SessionID: sessionID,
		Name:      name,
	}
	t.byKey[key] = s
	if name != "" {
		t.usedNames[name] = true
	}
	t.arm(s, now)
	return s
}

// replace overwrites an existing session's identity (new session id, new
// name) while keeping the same timer slot, per spec.md §4.2 step 3: "the
// new name is adopted even if it collides with the prior name of the same
// key; old name is freed."
func (t *sessionTable) replace(s *Session, sessionID uint64, name string) {
	if s.Name != "" {
		delete(t.usedNames, s.Name)
	}
	s.SessionID = sessionID
	s.Name = name
	if name != "" {
		t.usedNames[name] = true
	}
}

// arm (re)arms a session's idle deadline IdleTimeout from now.
func (t *sessionTable) arm(s *Session, now time.Time) {
	s.generation++
	heap.Push(&t.deadlines, timerEntry{
		deadline:   now.Add(IdleTimeout),
		key:        s.Key,
		generation: s.generation,
	})
}

// nextDeadline returns the time of the earliest still-live deadline, and
// whether one exists. Callers use this to size the select's wait.
func (t *sessionTable) nextDeadline() (time.Time, bool) {
	for len(t.deadlines) > 0 {
		top := t.deadlines[0]
		s, ok := t.byKey[top.key]
		if !ok || s.generation != top.generation {
			heap.Pop(&t.deadlines)
			continue
		}
		return top.deadline, true
	}
	return time.Time{}, false
}

// expired pops and returns every session whose deadline has passed as of
// now, removing them from the table, freeing their name and timer slot.
// It does not touch the round's worm map; callers apply spec.md §4.2's
// "only if no round is active" rule themselves.
func (t *sessionTable) expired(now time.Time) []*Session {
	var out []*Session
	for len(t.deadlines) > 0 {
		top := t.deadlines[0]
		s, ok := t.byKey[top.key]
		if !ok || s.generation != top.generation {
			heap.Pop(&t.deadlines)
			continue
		}
		if top.deadline.After(now) {
			break
		}
		heap.Pop(&t.deadlines)

		delete(t.byKey, s.Key)
		if s.Name != "" {
			delete(t.usedNames, s.Name)
		}
		t.freeSlots = append(t.freeSlots, s.TimerSlot)
		out = append(out, s)
	}
	return out
}

// timerEntry is one entry in the idle-eviction min-heap.
type timerEntry struct {
	deadline   time.Time
	key        ClientKey
	generation int
}

// timerHeap is a container/heap.Interface over timerEntry, ordered by
// deadline, per spec.md §9's "min-heap of (deadline, session_handle)"
// design note.
type timerHeap []timerEntry

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].deadline.Before(h[j].deadline) }
func (h timerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x interface{}) { *h = append(*h, x.(timerEntry)) }
func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
