// internal/protocol/envelope.go
package protocol

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jason-s-yu/arena/internal/identity"
	"github.com/minio/sha256-simd"
)

// Message kinds carried on the wire. Unknown kinds are ignored by receivers so
// newer clients can add kinds without breaking older ones.
const (
	KindAnnounce  = "announce"
	KindJoin      = "join"
	KindLeave     = "leave"
	KindReady     = "ready"
	KindState     = "state"
	KindStart     = "start"
	KindGameOver  = "game_over"
	KindRematch   = "rematch"
	KindHeartbeat = "heartbeat"
)

// Decode error taxonomy. All of these are recovered locally by dropping the
// message; none are ever surfaced to the application.
var (
	ErrMalformed    = errors.New("malformed envelope")
	ErrUnknownKind  = errors.New("unknown message kind")
	ErrBadSignature = errors.New("bad signature")
)

var knownKinds = map[string]bool{
	KindAnnounce:  true,
	KindJoin:      true,
	KindLeave:     true,
	KindReady:     true,
	KindState:     true,
	KindStart:     true,
	KindGameOver:  true,
	KindRematch:   true,
	KindHeartbeat: true,
}

// Envelope is the signed wire message exchanged through relays. ID is derived
// from the content, so relay redelivery and fan-out echoes are detectable
// without trusting the relay.
type Envelope struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Sender    string `json:"sender"`
	CreatedAt int64  `json:"created_at"` // unix milliseconds
	Payload   []byte `json:"payload,omitempty"`
	Sig       string `json:"sig"`
}

// ContentID computes the deterministic digest an envelope is identified and
// signed by: sha256 over the canonical JSON array [kind, sender, created_at,
// payload].
func ContentID(kind, sender string, createdAt int64, payload []byte) [32]byte {
	canonical, _ := json.Marshal([]interface{}{kind, sender, createdAt, payload})
	return sha256.Sum256(canonical)
}

// Seal builds, identifies and signs an envelope from the local identity.
func Seal(id *identity.Identity, kind string, payload []byte, createdAt int64) (*Envelope, error) {
	sender := id.PublicKeyHex()
	digest := ContentID(kind, sender, createdAt, payload)
	sig, err := id.Sign(digest)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		ID:        hex.EncodeToString(digest[:]),
		Kind:      kind,
		Sender:    sender,
		CreatedAt: createdAt,
		Payload:   payload,
		Sig:       hex.EncodeToString(sig),
	}, nil
}

// Encode serializes an envelope for publishing.
func Encode(env *Envelope) ([]byte, error) {
	b, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return b, nil
}

// Decode parses and authenticates a received envelope. The content id is
// recomputed from the body, so a tampered payload fails here regardless of
// what the attached id claims.
func Decode(b []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Sender == "" || env.ID == "" || env.Sig == "" {
		return nil, fmt.Errorf("%w: missing fields", ErrMalformed)
	}
	if !knownKinds[env.Kind] {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, env.Kind)
	}

	digest := ContentID(env.Kind, env.Sender, env.CreatedAt, env.Payload)
	if env.ID != hex.EncodeToString(digest[:]) {
		return nil, fmt.Errorf("%w: content id mismatch", ErrBadSignature)
	}
	sig, err := hex.DecodeString(env.Sig)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !identity.Verify(env.Sender, digest, sig) {
		return nil, ErrBadSignature
	}
	return &env, nil
}

// PeekID extracts the content id from a raw envelope without decoding or
// verifying it. Used by the transport dedup ring to drop repeats cheaply.
func PeekID(b []byte) (string, bool) {
	var head struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(b, &head); err != nil || head.ID == "" {
		return "", false
	}
	return head.ID, true
}
