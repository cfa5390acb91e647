// internal/room/room.go
package room

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

// ErrInvalidRoomURL is returned when a share URL cannot be parsed back into a
// room id and relay list.
var ErrInvalidRoomURL = errors.New("invalid room url")

// IDLength is the length of a generated room id in base58 characters.
const IDLength = 8

// Info describes a room. Created once at room creation and immutable after;
// joiners receive it through the share URL and the creator's announce
// messages.
type Info struct {
	RoomID     string
	Creator    string
	Relays     []string
	MaxPlayers int
	StartMode  string
	BaseURL    string
}

// GenerateID derives a fresh room id from random bytes. The id is short enough
// to read over a shoulder while keeping collisions negligible for the lifetime
// of a session.
func GenerateID() (string, error) {
	var seed [16]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return "", fmt.Errorf("room id entropy: %w", err)
	}
	sum := blake2b.Sum256(seed[:])
	return base58.Encode(sum[:])[:IDLength], nil
}

// ComposeURL builds the share URL: <base>/<room_id>?relays=<comma-separated>.
// The URL is the sole discovery mechanism; there is no registry.
func ComposeURL(baseURL, roomID string, relays []string) string {
	u, err := url.Parse(baseURL)
	if err != nil || baseURL == "" {
		// Fall back to a path-only URL, same as serving without a base.
		u = &url.URL{}
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + roomID
	if len(relays) > 0 {
		q := u.Query()
		q.Set("relays", strings.Join(relays, ","))
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// ParseURL is the inverse of ComposeURL. It returns the room id, the relay
// list embedded in the URL (possibly empty) and the base URL the link was
// composed from.
func ParseURL(raw string) (roomID string, relays []string, baseURL string, err error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", nil, "", fmt.Errorf("%w: %v", ErrInvalidRoomURL, err)
	}

	path := strings.TrimRight(u.Path, "/")
	idx := strings.LastIndex(path, "/")
	if idx < 0 || idx == len(path)-1 {
		return "", nil, "", fmt.Errorf("%w: missing room id", ErrInvalidRoomURL)
	}
	roomID = path[idx+1:]
	if !ValidID(roomID) {
		return "", nil, "", fmt.Errorf("%w: bad room id %q", ErrInvalidRoomURL, roomID)
	}

	if rl := u.Query().Get("relays"); rl != "" {
		for _, r := range strings.Split(rl, ",") {
			if r = strings.TrimSpace(r); r != "" {
				relays = append(relays, r)
			}
		}
	}

	base := *u
	base.Path = path[:idx]
	base.RawQuery = ""
	base.Fragment = ""
	return roomID, relays, base.String(), nil
}

// ValidID reports whether s looks like a room id: base58 characters of the
// expected length.
func ValidID(s string) bool {
	if len(s) != IDLength {
		return false
	}
	if _, err := base58.Decode(s); err != nil {
		return false
	}
	return true
}
