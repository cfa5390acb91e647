// events.go
package arena

import (
	"sync/atomic"

	"github.com/jason-s-yu/arena/internal/presence"
	"github.com/sirupsen/logrus"
)

// Player is the live presence record for one peer.
type Player = presence.Player

// EventType tags an Event.
type EventType string

// Events delivered to the application through TryRecv.
const (
	EventPlayerJoin     EventType = "player_join"
	EventPlayerLeave    EventType = "player_leave"
	EventPlayerState    EventType = "player_state"
	EventGameStart      EventType = "game_start"
	EventGameOver       EventType = "game_over"
	EventRematchRequest EventType = "rematch_request"
	EventRematchStart   EventType = "rematch_start"
	EventError          EventType = "error"
)

// Event is one entry on the delivery queue. Which fields are set depends on
// Type: Player for player_join; Pubkey for player_leave, player_state,
// game_over and rematch_request; Payload for player_state and game_over;
// Message for game_over (the reason) and error; Seed for rematch_start.
type Event struct {
	Type    EventType
	Player  Player
	Pubkey  string
	Payload []byte
	Message string
	Seed    uint64
}

// eventQueue is the single synchronization point between background transport
// handlers and the application's polling loop. Writers never block: if the
// application stops draining, new events are dropped with a warning rather
// than stalling transport goroutines.
type eventQueue struct {
	ch     chan Event
	closed atomic.Bool
	log    *logrus.Logger
}

func newEventQueue(size int, log *logrus.Logger) *eventQueue {
	return &eventQueue{ch: make(chan Event, size), log: log}
}

func (q *eventQueue) push(ev Event) {
	if q.closed.Load() {
		return
	}
	select {
	case q.ch <- ev:
	default:
		q.log.WithField("type", ev.Type).Warn("event queue full, dropping event")
	}
}

// tryRecv pops one pending event without blocking. Permanently empty after
// close.
func (q *eventQueue) tryRecv() *Event {
	if q.closed.Load() {
		return nil
	}
	select {
	case ev := <-q.ch:
		return &ev
	default:
		return nil
	}
}

func (q *eventQueue) close() {
	q.closed.Store(true)
}
