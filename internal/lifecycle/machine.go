// internal/lifecycle/machine.go
package lifecycle

import (
	"fmt"
	"sync"

	"github.com/jason-s-yu/arena/internal/presence"
)

// Status is the session lifecycle state. A single authoritative instance per
// Arena, mutated only by the machine under the transport event stream.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusIdle
	StatusForming
	StatusReady
	StatusStarted
	StatusFinished
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusIdle:
		return "idle"
	case StatusForming:
		return "forming"
	case StatusReady:
		return "ready"
	case StatusStarted:
		return "started"
	case StatusFinished:
		return "finished"
	case StatusClosed:
		return "closed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// StartMode governs when a forming room transitions to started.
type StartMode string

const (
	// StartAuto starts as soon as at least two members are present.
	StartAuto StartMode = "auto"
	// StartReady starts once every current member has flagged ready.
	StartReady StartMode = "ready"
	// StartManual starts only on an explicit command signed by the creator.
	StartManual StartMode = "manual"
)

// ParseStartMode validates a start mode string.
func ParseStartMode(s string) (StartMode, error) {
	switch StartMode(s) {
	case StartAuto, StartReady, StartManual:
		return StartMode(s), nil
	}
	return "", fmt.Errorf("unknown start mode %q", s)
}

// Machine evaluates the locally observed membership against the configured
// start condition. Every peer runs the same machine independently; agreement
// is eventual, so evaluation must be idempotent — the start transition fires
// exactly once no matter how often the same condition is observed.
type Machine struct {
	mu      sync.Mutex
	status  Status
	mode    StartMode
	creator string
	started bool
}

// NewMachine creates a machine in the Disconnected state.
func NewMachine(mode StartMode) *Machine {
	return &Machine{status: StatusDisconnected, mode: mode}
}

// Status returns the current lifecycle state.
func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Mode returns the configured start mode.
func (m *Machine) Mode() StartMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// SetMode adopts the creator's announced start mode. Joiners configure a mode
// locally but the creator's announcement is authoritative for the room.
// Ignored once the session has started.
func (m *Machine) SetMode(mode StartMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		m.mode = mode
	}
}

// SetCreator records the room creator's pubkey once known. Only the creator
// is authorized to issue a manual start.
func (m *Machine) SetCreator(pubkey string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.creator == "" {
		m.creator = pubkey
	}
}

// Creator returns the recorded creator pubkey, if known yet.
func (m *Machine) Creator() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creator
}

// Connecting marks transport bring-up in progress.
func (m *Machine) Connecting() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status == StatusDisconnected {
		m.status = StatusConnecting
	}
}

// RelayUp moves Connecting to Idle on the first live relay connection. The
// transport is up, but no room is being formed until EnterRoom.
func (m *Machine) RelayUp() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status == StatusConnecting || m.status == StatusDisconnected {
		m.status = StatusIdle
	}
}

// EnterRoom moves to Forming when a room is created or joined. RelayUp may
// still be in flight at that point, so the transition is also accepted from
// Connecting.
func (m *Machine) EnterRoom() {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.status {
	case StatusDisconnected, StatusConnecting, StatusIdle:
		m.status = StatusForming
	}
}

// Evaluate re-checks the start condition against a membership snapshot and
// reports whether the single game_start should fire now. Membership changes
// after the session has started never re-trigger it.
func (m *Machine) Evaluate(members []presence.Player) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != StatusForming && m.status != StatusReady {
		return false
	}

	switch m.mode {
	case StartAuto:
		if len(members) >= 2 {
			return m.fireLocked()
		}
	case StartReady:
		if len(members) < 2 {
			return false
		}
		for _, p := range members {
			if !p.Ready {
				return false
			}
		}
		return m.fireLocked()
	case StartManual:
		// Ready here only signals the room could start; the transition waits
		// for the creator's start command.
		if len(members) >= 2 && m.status == StatusForming {
			m.status = StatusReady
		}
	}
	return false
}

// CommandStart processes a start command from sender. Only the creator's
// command is honored; anyone else's is dropped. Fires at most once.
func (m *Machine) CommandStart(sender string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != StatusForming && m.status != StatusReady {
		return false
	}
	if m.creator == "" || sender != m.creator {
		return false
	}
	return m.fireLocked()
}

// fireLocked performs the Ready/Forming -> Started transition. Caller holds mu.
func (m *Machine) fireLocked() bool {
	if m.started {
		return false
	}
	m.started = true
	m.status = StatusStarted
	return true
}

// Finish ends the running game: Started -> Finished. Reports whether the
// transition happened, so a stream of game_over messages finishes at most
// once.
func (m *Machine) Finish() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status != StatusStarted {
		return false
	}
	m.status = StatusFinished
	return true
}

// Rematch arms a new game in the same room: Finished -> Forming with the
// start guard cleared, creator and mode kept. Reports whether the transition
// happened; duplicate accepts are absorbed here.
func (m *Machine) Rematch() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status != StatusFinished {
		return false
	}
	m.status = StatusForming
	m.started = false
	return true
}

// Reset returns the machine to Idle after leaving a room, clearing the
// room-scoped creator, mode and start guard so a later room runs a fresh
// session. No-op once Closed.
func (m *Machine) Reset(mode StartMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status == StatusClosed {
		return
	}
	m.status = StatusIdle
	m.mode = mode
	m.creator = ""
	m.started = false
}

// Started reports whether game_start has fired this session.
func (m *Machine) Started() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

// Close moves to the terminal Closed state. No further transitions occur.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = StatusClosed
}
