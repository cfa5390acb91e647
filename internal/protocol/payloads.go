// internal/protocol/payloads.go
package protocol

import "encoding/json"

// AnnouncePayload is broadcast by the room creator so joiners learn the room
// parameters and the membership observed so far. The creator never sends a
// join for its own room; receivers admit it from this payload instead.
type AnnouncePayload struct {
	RoomID     string   `json:"room_id"`
	Creator    string   `json:"creator"`
	MaxPlayers int      `json:"max_players"`
	StartMode  string   `json:"start_mode"`
	Relays     []string `json:"relays,omitempty"`
	BaseURL    string   `json:"base_url,omitempty"`
	Players    []string `json:"players,omitempty"`
	Ready      []string `json:"ready,omitempty"`
}

// ReadyPayload carries a peer's ready flag.
type ReadyPayload struct {
	Ready bool `json:"ready"`
}

// GameOverPayload announces the end of the current game.
type GameOverPayload struct {
	Reason     string `json:"reason"`
	FinalScore *int64 `json:"final_score,omitempty"`
	Winner     string `json:"winner,omitempty"`
}

// Rematch actions. A rematch is negotiated in two steps: any finished peer
// requests, and an accept from anyone resets the room for a new game.
const (
	RematchRequest = "request"
	RematchAccept  = "accept"
)

// RematchPayload carries one rematch negotiation step. NewSeed is set on
// accept and never zero; every peer adopts it so the next game can be
// generated deterministically from the same seed.
type RematchPayload struct {
	Action  string `json:"action"`
	NewSeed uint64 `json:"new_seed,omitempty"`
}

// HeartbeatPayload carries the sender's clock for liveness tracking.
type HeartbeatPayload struct {
	Timestamp int64 `json:"timestamp"`
}

// MarshalPayload is a convenience for the small fixed payload types above.
func MarshalPayload(v interface{}) []byte {
	b, _ := json.Marshal(v)
	return b
}
