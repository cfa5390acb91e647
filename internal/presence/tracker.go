// internal/presence/tracker.go
package presence

import (
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Player is the live presence record for one peer, self included.
type Player struct {
	Pubkey   string `json:"pubkey"`
	JoinedAt int64  `json:"joined_at"`
	LastSeen int64  `json:"last_seen"`
	Ready    bool   `json:"ready"`
}

// Tracker maintains the membership table for a room. All methods are safe for
// concurrent use; the lock is never held across I/O.
type Tracker struct {
	mu         sync.Mutex
	self       string
	maxPlayers int
	players    map[string]*Player
	clk        clock.Clock
}

// NewTracker creates a tracker for a room of up to maxPlayers peers. self is
// always tracked but exempt from timeout eviction.
func NewTracker(self string, maxPlayers int, clk clock.Clock) *Tracker {
	return &Tracker{
		self:       self,
		maxPlayers: maxPlayers,
		players:    make(map[string]*Player),
		clk:        clk,
	}
}

// Admit adds a peer to the membership table. It returns false without side
// effects if the peer is already present or the room is at capacity; a
// rejected join is silent by design on a broadcast medium.
func (t *Tracker) Admit(pubkey string) (Player, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.players[pubkey]; exists {
		return Player{}, false
	}
	if len(t.players) >= t.maxPlayers {
		return Player{}, false
	}
	now := t.clk.Now().UnixMilli()
	p := &Player{Pubkey: pubkey, JoinedAt: now, LastSeen: now}
	t.players[pubkey] = p
	return *p, true
}

// SetCapacity adopts the room capacity announced by the creator. Joiners only
// know their locally configured capacity until the first announce arrives.
// Members already admitted are kept even if the new capacity is smaller.
func (t *Tracker) SetCapacity(maxPlayers int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if maxPlayers > 0 {
		t.maxPlayers = maxPlayers
	}
}

// Touch refreshes last_seen for a known peer. Messages from unknown pubkeys
// do not create presence; only an accepted join does.
func (t *Tracker) Touch(pubkey string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.players[pubkey]
	if !ok {
		return false
	}
	p.LastSeen = t.clk.Now().UnixMilli()
	return true
}

// SetReady updates a known peer's ready flag.
func (t *Tracker) SetReady(pubkey string, ready bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.players[pubkey]
	if !ok {
		return false
	}
	p.Ready = ready
	p.LastSeen = t.clk.Now().UnixMilli()
	return true
}

// ClearReady drops every member's ready flag, for the fresh ready round after
// a rematch.
func (t *Tracker) ClearReady() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, p := range t.players {
		p.Ready = false
	}
}

// Remove evicts a peer immediately (explicit leave).
func (t *Tracker) Remove(pubkey string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.players[pubkey]; !ok {
		return false
	}
	delete(t.players, pubkey)
	return true
}

// Has reports whether the pubkey has an accepted presence.
func (t *Tracker) Has(pubkey string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.players[pubkey]
	return ok
}

// Count returns the current member count, self included.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.players)
}

// Players returns a snapshot of the membership table ordered by join time.
func (t *Tracker) Players() []Player {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Player, 0, len(t.players))
	for _, p := range t.players {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinedAt != out[j].JoinedAt {
			return out[i].JoinedAt < out[j].JoinedAt
		}
		return out[i].Pubkey < out[j].Pubkey
	})
	return out
}

// Sweep evicts peers whose last_seen is older than timeout and returns their
// pubkeys. The local peer never times itself out.
func (t *Tracker) Sweep(timeout time.Duration) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.clk.Now().UnixMilli() - timeout.Milliseconds()
	var evicted []string
	for pubkey, p := range t.players {
		if pubkey == t.self {
			continue
		}
		if p.LastSeen < cutoff {
			evicted = append(evicted, pubkey)
			delete(t.players, pubkey)
		}
	}
	sort.Strings(evicted)
	return evicted
}
