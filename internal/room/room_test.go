// internal/room/room_test.go
package room

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id, err := GenerateID()
		require.NoError(t, err)
		assert.Len(t, id, IDLength)
		assert.True(t, ValidID(id), "generated id should validate: %q", id)
		assert.False(t, seen[id], "duplicate room id generated: %q", id)
		seen[id] = true
	}
}

func TestComposeParseRoundTrip(t *testing.T) {
	id, err := GenerateID()
	require.NoError(t, err)

	relays := []string{"wss://relay-a.example.net", "wss://relay-b.example.net"}
	raw := ComposeURL("https://play.example.com/arena", id, relays)

	gotID, gotRelays, gotBase, err := ParseURL(raw)
	require.NoError(t, err)
	assert.Equal(t, id, gotID)
	assert.Equal(t, relays, gotRelays)
	assert.Equal(t, "https://play.example.com/arena", gotBase)
}

func TestComposeParseNoRelays(t *testing.T) {
	id, err := GenerateID()
	require.NoError(t, err)

	raw := ComposeURL("https://play.example.com", id, nil)
	gotID, gotRelays, gotBase, err := ParseURL(raw)
	require.NoError(t, err)
	assert.Equal(t, id, gotID)
	assert.Empty(t, gotRelays)
	assert.Equal(t, "https://play.example.com", gotBase)
}

func TestParseURLRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"https://play.example.com/",
		"https://play.example.com/not-a-room-id-way-too-long",
		"https://play.example.com/x",
		"::::",
	}
	for _, raw := range cases {
		_, _, _, err := ParseURL(raw)
		assert.ErrorIs(t, err, ErrInvalidRoomURL, "input %q", raw)
	}
}

func TestValidID(t *testing.T) {
	assert.False(t, ValidID(""))
	assert.False(t, ValidID("short"))
	assert.False(t, ValidID("00000000")) // '0' is not a base58 character
	assert.True(t, ValidID("2vQ5mRkz"))
}
