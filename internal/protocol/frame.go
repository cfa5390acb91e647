// internal/protocol/frame.go
package protocol

import (
	"encoding/json"
	"fmt"
)

// Relay frame verbs. A frame is a JSON array: ["SUB", ns], ["PUB", ns, env],
// or server-to-client ["MSG", ns, env]. Relays treat the envelope bytes as
// opaque; all authentication happens at the receiving peer.
const (
	VerbSub = "SUB"
	VerbPub = "PUB"
	VerbMsg = "MSG"
)

// EncodeFrame builds a relay frame. body may be nil for SUB.
func EncodeFrame(verb, ns string, body []byte) ([]byte, error) {
	parts := []interface{}{verb, ns}
	if body != nil {
		parts = append(parts, json.RawMessage(body))
	}
	return json.Marshal(parts)
}

// DecodeFrame parses a relay frame into its verb, namespace and optional
// envelope bytes.
func DecodeFrame(b []byte) (verb, ns string, body []byte, err error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(b, &parts); err != nil {
		return "", "", nil, fmt.Errorf("%w: frame: %v", ErrMalformed, err)
	}
	if len(parts) < 2 {
		return "", "", nil, fmt.Errorf("%w: short frame", ErrMalformed)
	}
	if err := json.Unmarshal(parts[0], &verb); err != nil {
		return "", "", nil, fmt.Errorf("%w: frame verb: %v", ErrMalformed, err)
	}
	if err := json.Unmarshal(parts[1], &ns); err != nil {
		return "", "", nil, fmt.Errorf("%w: frame namespace: %v", ErrMalformed, err)
	}
	if len(parts) > 2 {
		body = []byte(parts[2])
	}
	return verb, ns, body, nil
}
