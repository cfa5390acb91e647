// internal/relay/pool_test.go
package relay

import (
	"context"
	"encoding/hex"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jason-s-yu/arena/internal/identity"
	"github.com/jason-s-yu/arena/internal/protocol"
	"github.com/jason-s-yu/arena/internal/relayhub"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

// startHub runs an in-process relay and returns its ws:// URL.
func startHub(t *testing.T) string {
	t.Helper()
	hub := relayhub.New(testLogger())
	srv := httptest.NewServer(hub.Handler())
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func startPool(t *testing.T, ns string, endpoints ...string) *Pool {
	t.Helper()
	p := NewPool(endpoints, testLogger())
	p.Start()
	t.Cleanup(p.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.AwaitConnected(ctx))
	p.Subscribe(ns)
	return p
}

func seal(t *testing.T, id *identity.Identity, kind string, payload []byte) *protocol.Envelope {
	t.Helper()
	env, err := protocol.Seal(id, kind, payload, time.Now().UnixMilli())
	require.NoError(t, err)
	return env
}

func recvEnvelope(t *testing.T, p *Pool) *protocol.Envelope {
	t.Helper()
	select {
	case env := <-p.Events():
		return env
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for envelope")
		return nil
	}
}

func TestPublishSubscribe(t *testing.T) {
	url := startHub(t)
	sender := startPool(t, "game-room1", url)
	receiver := startPool(t, "game-room1", url)

	id, err := identity.Generate()
	require.NoError(t, err)

	require.NoError(t, sender.Publish(seal(t, id, protocol.KindState, []byte("tick"))))

	env := recvEnvelope(t, receiver)
	assert.Equal(t, protocol.KindState, env.Kind)
	assert.Equal(t, []byte("tick"), env.Payload)
	assert.Equal(t, id.PublicKeyHex(), env.Sender)
}

func TestOwnPublishNotEchoedBack(t *testing.T) {
	url := startHub(t)
	p := startPool(t, "game-room1", url)

	id, err := identity.Generate()
	require.NoError(t, err)
	require.NoError(t, p.Publish(seal(t, id, protocol.KindHeartbeat, nil)))

	select {
	case env := <-p.Events():
		t.Fatalf("own publish echoed back: %+v", env)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestDuplicateDeliveryYieldsOneEnvelope(t *testing.T) {
	url := startHub(t)
	sender := startPool(t, "game-room1", url)
	// Two connections to the same relay stand in for two relays echoing the
	// same message; the receiver sees every envelope twice on the wire.
	receiver := startPool(t, "game-room1", url, url)

	id, err := identity.Generate()
	require.NoError(t, err)
	require.NoError(t, sender.Publish(seal(t, id, protocol.KindState, []byte("only-once"))))

	env := recvEnvelope(t, receiver)
	assert.Equal(t, []byte("only-once"), env.Payload)

	select {
	case dup := <-receiver.Events():
		t.Fatalf("duplicate envelope delivered: %+v", dup)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestFanOutPublishDedupedByReceiver(t *testing.T) {
	url := startHub(t)
	// The sender fans out to what it believes are two relays.
	sender := startPool(t, "game-room1", url, url)
	receiver := startPool(t, "game-room1", url)

	id, err := identity.Generate()
	require.NoError(t, err)
	require.NoError(t, sender.Publish(seal(t, id, protocol.KindJoin, nil)))

	env := recvEnvelope(t, receiver)
	assert.Equal(t, protocol.KindJoin, env.Kind)

	select {
	case dup := <-receiver.Events():
		t.Fatalf("fan-out duplicate delivered: %+v", dup)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestNamespaceIsolation(t *testing.T) {
	url := startHub(t)
	sender := startPool(t, "game-roomA", url)
	receiver := startPool(t, "game-roomB", url)

	id, err := identity.Generate()
	require.NoError(t, err)
	require.NoError(t, sender.Publish(seal(t, id, protocol.KindState, []byte("x"))))

	select {
	case env := <-receiver.Events():
		t.Fatalf("envelope crossed namespaces: %+v", env)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestTamperedEnvelopeDropped(t *testing.T) {
	url := startHub(t)
	sender := startPool(t, "game-room1", url)
	receiver := startPool(t, "game-room1", url)

	id, err := identity.Generate()
	require.NoError(t, err)
	env := seal(t, id, protocol.KindState, []byte("honest"))
	env.Payload = []byte("tampered")
	// Recompute the id so the dedup ring does not mask the signature check.
	digest := protocol.ContentID(env.Kind, env.Sender, env.CreatedAt, env.Payload)
	env.ID = hex.EncodeToString(digest[:])

	require.NoError(t, sender.Publish(env))

	select {
	case got := <-receiver.Events():
		t.Fatalf("tampered envelope surfaced: %+v", got)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestPublishWithNoRelayConnected(t *testing.T) {
	p := NewPool([]string{"ws://127.0.0.1:1/nowhere"}, testLogger())
	p.Start()
	t.Cleanup(p.Close)
	p.Subscribe("game-room1")

	id, err := identity.Generate()
	require.NoError(t, err)
	err = p.Publish(seal(t, id, protocol.KindState, nil))
	assert.ErrorIs(t, err, ErrNoRelayConnected)
}

func TestAwaitConnectedTimeout(t *testing.T) {
	p := NewPool([]string{"ws://127.0.0.1:1/nowhere"}, testLogger())
	p.Start()
	t.Cleanup(p.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	assert.Error(t, p.AwaitConnected(ctx))
}
