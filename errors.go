// errors.go
package arena

import (
	"errors"

	"github.com/jason-s-yu/arena/internal/identity"
	"github.com/jason-s-yu/arena/internal/relay"
	"github.com/jason-s-yu/arena/internal/room"
)

// Errors surfaced by internal layers, re-exported so callers only ever import
// this package.
var (
	// ErrCrypto indicates keypair generation or signing failed. Fatal to the
	// instance; everything else in the library is retried or dropped.
	ErrCrypto = identity.ErrCrypto

	// ErrNoRelayConnected means zero relays were reachable at call time. The
	// pool keeps retrying with backoff in the background regardless.
	ErrNoRelayConnected = relay.ErrNoRelayConnected

	// ErrPublishFailed means a message could not be handed to any relay.
	ErrPublishFailed = relay.ErrPublishFailed

	// ErrInvalidRoomURL is returned by Join when the share URL cannot be
	// parsed.
	ErrInvalidRoomURL = room.ErrInvalidRoomURL
)

// State errors: synchronous and caller-correctable.
var (
	// ErrNotInRoom is returned when an operation requires room membership.
	ErrNotInRoom = errors.New("not in a room")

	// ErrAlreadyInSession is returned by Create or Join on an instance that
	// already created or joined a room.
	ErrAlreadyInSession = errors.New("already in a session")

	// ErrRoomFull means the room was at capacity and this peer was never
	// admitted.
	ErrRoomFull = errors.New("room is full")

	// ErrNotCreator is returned when a non-creator issues a start command.
	ErrNotCreator = errors.New("only the room creator can start the game")

	// ErrClosed is returned after Disconnect.
	ErrClosed = errors.New("arena is closed")
)
