// internal/lifecycle/machine_test.go
package lifecycle

import (
	"testing"

	"github.com/jason-s-yu/arena/internal/presence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func members(ready bool, pubkeys ...string) []presence.Player {
	out := make([]presence.Player, 0, len(pubkeys))
	for _, pk := range pubkeys {
		out = append(out, presence.Player{Pubkey: pk, Ready: ready})
	}
	return out
}

func formingMachine(mode StartMode) *Machine {
	m := NewMachine(mode)
	m.Connecting()
	m.RelayUp()
	m.EnterRoom()
	return m
}

func TestParseStartMode(t *testing.T) {
	for _, s := range []string{"auto", "ready", "manual"} {
		mode, err := ParseStartMode(s)
		require.NoError(t, err)
		assert.Equal(t, StartMode(s), mode)
	}
	_, err := ParseStartMode("countdown")
	assert.Error(t, err)
}

func TestAutoFiresOnceAtTwoMembers(t *testing.T) {
	m := formingMachine(StartAuto)

	assert.False(t, m.Evaluate(members(false, "a")), "a lone member never starts")
	assert.Equal(t, StatusForming, m.Status())

	assert.True(t, m.Evaluate(members(false, "a", "b")))
	assert.Equal(t, StatusStarted, m.Status())

	// Re-evaluating the same condition, or a grown membership, must not
	// re-fire after start.
	assert.False(t, m.Evaluate(members(false, "a", "b")))
	assert.False(t, m.Evaluate(members(false, "a", "b", "c")))
}

func TestReadyModeWaitsForAllReady(t *testing.T) {
	m := formingMachine(StartReady)

	assert.False(t, m.Evaluate(members(true, "a")), "one ready member alone is not a quorum")
	assert.False(t, m.Evaluate([]presence.Player{
		{Pubkey: "a", Ready: true},
		{Pubkey: "b", Ready: false},
	}))
	assert.Equal(t, StatusForming, m.Status())

	assert.True(t, m.Evaluate(members(true, "a", "b")))
	assert.False(t, m.Evaluate(members(true, "a", "b")))
}

func TestManualModeOnlyCreatorStarts(t *testing.T) {
	m := formingMachine(StartManual)
	m.SetCreator("creator")

	// Condition evaluation moves the room to Ready but never starts it.
	assert.False(t, m.Evaluate(members(false, "creator", "b")))
	assert.Equal(t, StatusReady, m.Status())

	assert.False(t, m.CommandStart("b"), "non-creator start commands are dropped")
	assert.Equal(t, StatusReady, m.Status())

	assert.True(t, m.CommandStart("creator"))
	assert.Equal(t, StatusStarted, m.Status())
	assert.False(t, m.CommandStart("creator"), "start fires at most once")
}

func TestCreatorIsRecordedOnce(t *testing.T) {
	m := formingMachine(StartManual)
	m.SetCreator("creator")
	m.SetCreator("impostor")
	assert.Equal(t, "creator", m.Creator())
}

func TestCommandStartBeforeCreatorKnown(t *testing.T) {
	m := formingMachine(StartManual)
	assert.False(t, m.CommandStart("anyone"))
}

func TestRelayUpIsIdleUntilRoomEntered(t *testing.T) {
	m := NewMachine(StartAuto)
	m.Connecting()
	m.RelayUp()
	assert.Equal(t, StatusIdle, m.Status())

	// Transport up but no room: nothing to evaluate.
	assert.False(t, m.Evaluate(members(false, "a", "b")))

	m.EnterRoom()
	assert.Equal(t, StatusForming, m.Status())
}

func TestEnterRoomBeforeRelayUp(t *testing.T) {
	// The relay-up watcher can lag behind Create; Forming must win the race.
	m := NewMachine(StartAuto)
	m.Connecting()
	m.EnterRoom()
	m.RelayUp()
	assert.Equal(t, StatusForming, m.Status())
}

func TestFinishAndRematch(t *testing.T) {
	m := formingMachine(StartAuto)
	require.True(t, m.Evaluate(members(false, "a", "b")))

	assert.True(t, m.Finish())
	assert.Equal(t, StatusFinished, m.Status())
	assert.False(t, m.Finish(), "finishing is once per game")
	assert.False(t, m.Evaluate(members(false, "a", "b")), "finished rooms do not restart on their own")

	assert.True(t, m.Rematch())
	assert.Equal(t, StatusForming, m.Status())
	assert.False(t, m.Rematch(), "duplicate accepts are absorbed")

	// The rearmed room starts again.
	assert.True(t, m.Evaluate(members(false, "a", "b")))
	assert.Equal(t, StatusStarted, m.Status())
}

func TestFinishOnlyFromStarted(t *testing.T) {
	m := formingMachine(StartAuto)
	assert.False(t, m.Finish())
	assert.Equal(t, StatusForming, m.Status())
	assert.False(t, m.Rematch(), "nothing to rematch before a game finished")
}

func TestRematchKeepsCreatorAndMode(t *testing.T) {
	m := formingMachine(StartManual)
	m.SetCreator("creator")
	m.Evaluate(members(false, "creator", "b"))
	require.True(t, m.CommandStart("creator"))
	require.True(t, m.Finish())

	require.True(t, m.Rematch())
	assert.Equal(t, "creator", m.Creator())
	assert.Equal(t, StartManual, m.Mode())
	m.Evaluate(members(false, "creator", "b"))
	assert.True(t, m.CommandStart("creator"), "the same creator starts the rematch")
}

func TestResetAllowsAFreshSession(t *testing.T) {
	m := formingMachine(StartAuto)
	m.SetCreator("creator")
	require.True(t, m.Evaluate(members(false, "a", "b")))

	m.Reset(StartManual)
	assert.Equal(t, StatusIdle, m.Status())
	assert.Equal(t, StartManual, m.Mode())
	assert.Empty(t, m.Creator())
	assert.False(t, m.Started())

	m.EnterRoom()
	m.SetCreator("creator2")
	assert.False(t, m.Evaluate(members(false, "a", "b")), "manual mode waits for the command")
	assert.True(t, m.CommandStart("creator2"))
}

func TestResetAfterCloseIsIgnored(t *testing.T) {
	m := formingMachine(StartAuto)
	m.Close()
	m.Reset(StartAuto)
	assert.Equal(t, StatusClosed, m.Status())
}

func TestClosedIsTerminal(t *testing.T) {
	m := formingMachine(StartAuto)
	m.Close()
	assert.Equal(t, StatusClosed, m.Status())
	assert.False(t, m.Evaluate(members(false, "a", "b")))
	assert.False(t, m.CommandStart("a"))
	m.RelayUp()
	assert.Equal(t, StatusClosed, m.Status())
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "idle", StatusIdle.String())
	assert.Equal(t, "forming", StatusForming.String())
	assert.Equal(t, "finished", StatusFinished.String())
	assert.Equal(t, "closed", StatusClosed.String())
}
