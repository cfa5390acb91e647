// arena.go
package arena

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/jason-s-yu/arena/internal/identity"
	"github.com/jason-s-yu/arena/internal/lifecycle"
	"github.com/jason-s-yu/arena/internal/presence"
	"github.com/jason-s-yu/arena/internal/protocol"
	"github.com/jason-s-yu/arena/internal/relay"
	"github.com/jason-s-yu/arena/internal/room"
	"github.com/sirupsen/logrus"
)

const eventQueueSize = 256

// Arena manages one multiplayer room over a set of untrusted relays: identity,
// presence, lifecycle and the non-blocking event stream the host application
// drains from its own loop. All methods are safe for concurrent use; none of
// them block on a network round-trip except Connect, which waits at most
// Config.ConnectTimeout for the first relay before continuing in the
// background.
type Arena struct {
	cfg *Config
	log *logrus.Logger
	clk clock.Clock
	id  *identity.Identity

	machine *lifecycle.Machine
	events  *eventQueue

	mu           sync.Mutex
	relays       []string
	pool         *relay.Pool
	tracker      *presence.Tracker
	info         *room.Info
	isCreator    bool
	lastState    int64
	roomFull     bool
	loopsStarted bool
	closed       bool

	runCtx context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New validates cfg and creates an Arena with a fresh identity (or the one
// restored from cfg.SecretKey). The only failure modes are bad configuration
// and entropy exhaustion.
func New(cfg *Config) (*Arena, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var id *identity.Identity
	var err error
	if cfg.SecretKey != "" {
		id, err = identity.FromSecretHex(cfg.SecretKey)
	} else {
		id, err = identity.Generate()
	}
	if err != nil {
		return nil, err
	}

	return &Arena{
		cfg:     cfg,
		log:     cfg.Logger,
		clk:     cfg.Clock,
		id:      id,
		machine: lifecycle.NewMachine(cfg.StartMode),
		events:  newEventQueue(eventQueueSize, cfg.Logger),
		relays:  cfg.Relays,
	}, nil
}

// PublicKey returns this peer's durable identifier for the session.
func (a *Arena) PublicKey() string {
	return a.id.PublicKeyHex()
}

// Status returns the current lifecycle state.
func (a *Arena) Status() Status {
	return a.machine.Status()
}

// IsCreator reports whether this instance created the current room.
func (a *Arena) IsCreator() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.isCreator
}

// Players returns a snapshot of the known membership, self included.
func (a *Arena) Players() []Player {
	a.mu.Lock()
	tracker := a.tracker
	a.mu.Unlock()
	if tracker == nil {
		return nil
	}
	return tracker.Players()
}

// RoomURL returns the share URL of the current room, or "" when not in one.
func (a *Arena) RoomURL() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.info == nil {
		return ""
	}
	return room.ComposeURL(a.info.BaseURL, a.info.RoomID, a.info.Relays)
}

// TryRecv pops the next pending event without blocking, or nil when none is
// pending. Events are ordered by local arrival. After Disconnect it returns
// nil forever.
func (a *Arena) TryRecv() *Event {
	return a.events.tryRecv()
}

// Connect begins relay bring-up. Idempotent. It waits up to
// Config.ConnectTimeout for the first relay to come live and then returns;
// if none is reachable yet the pool keeps retrying in the background and
// readiness is observable via Status.
func (a *Arena) Connect(ctx context.Context) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	pool := a.pool
	if pool == nil {
		pool = relay.NewPool(a.relays, a.log)
		a.pool = pool
		a.runCtx, a.cancel = context.WithCancel(context.Background())
		a.machine.Connecting()
		pool.Start()

		a.wg.Add(1)
		go a.watchRelayUp(a.runCtx, pool)
	}
	a.mu.Unlock()

	waitCtx, cancel := context.WithTimeout(ctx, a.cfg.ConnectTimeout)
	defer cancel()
	if err := pool.AwaitConnected(waitCtx); err != nil {
		a.log.Warn("no relay reachable yet, bring-up continues in background")
	}
	return nil
}

// watchRelayUp moves the lifecycle to Forming once any relay is live.
func (a *Arena) watchRelayUp(ctx context.Context, pool *relay.Pool) {
	defer a.wg.Done()
	if err := pool.AwaitConnected(ctx); err != nil {
		return
	}
	a.machine.RelayUp()
}

// Create makes a new room from this instance's configuration and returns the
// share URL. The creator is the room's first member and the only peer
// authorized to issue a manual start.
func (a *Arena) Create(ctx context.Context) (string, error) {
	if err := a.Connect(ctx); err != nil {
		return "", err
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return "", ErrClosed
	}
	if a.info != nil {
		a.mu.Unlock()
		return "", ErrAlreadyInSession
	}
	if !a.pool.Connected() {
		a.mu.Unlock()
		return "", ErrNoRelayConnected
	}

	roomID, err := room.GenerateID()
	if err != nil {
		a.mu.Unlock()
		return "", err
	}

	a.info = &room.Info{
		RoomID:     roomID,
		Creator:    a.PublicKey(),
		Relays:     a.relays,
		MaxPlayers: a.cfg.MaxPlayers,
		StartMode:  string(a.cfg.StartMode),
		BaseURL:    a.cfg.BaseURL,
	}
	a.isCreator = true
	a.roomFull = false
	a.machine.SetCreator(a.PublicKey())
	a.machine.EnterRoom()
	a.tracker = presence.NewTracker(a.PublicKey(), a.cfg.MaxPlayers, a.clk)
	a.tracker.Admit(a.PublicKey())
	a.pool.Subscribe(a.namespaceLocked())
	a.startRoomLoopsLocked()
	shareURL := room.ComposeURL(a.info.BaseURL, roomID, a.info.Relays)
	a.mu.Unlock()

	if err := a.publishAnnounce(); err != nil {
		a.log.Warnf("initial announce failed: %v", err)
	}
	a.log.WithField("room", roomID).Info("created room")
	return shareURL, nil
}

// Join enters an existing room given either a share URL or a bare room id.
// A URL's embedded relay list takes precedence over the configured one when
// the transport has not been brought up yet.
func (a *Arena) Join(ctx context.Context, roomIDOrURL string) error {
	raw := strings.TrimSpace(roomIDOrURL)

	var roomID, baseURL string
	var urlRelays []string
	if room.ValidID(raw) {
		roomID = raw
		baseURL = a.cfg.BaseURL
	} else {
		var err error
		roomID, urlRelays, baseURL, err = room.ParseURL(raw)
		if err != nil {
			return err
		}
	}

	a.mu.Lock()
	if a.pool == nil && len(urlRelays) > 0 {
		a.relays = urlRelays
	}
	a.mu.Unlock()

	if err := a.Connect(ctx); err != nil {
		return err
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	if a.info != nil {
		a.mu.Unlock()
		return ErrAlreadyInSession
	}
	if !a.pool.Connected() {
		a.mu.Unlock()
		return ErrNoRelayConnected
	}

	a.info = &room.Info{
		RoomID:     roomID,
		Relays:     a.relays,
		MaxPlayers: a.cfg.MaxPlayers,
		StartMode:  string(a.cfg.StartMode),
		BaseURL:    baseURL,
	}
	a.isCreator = false
	a.roomFull = false
	a.machine.EnterRoom()
	a.tracker = presence.NewTracker(a.PublicKey(), a.cfg.MaxPlayers, a.clk)
	a.tracker.Admit(a.PublicKey())
	a.pool.Subscribe(a.namespaceLocked())
	a.startRoomLoopsLocked()
	runCtx := a.runCtx
	a.mu.Unlock()

	if err := a.publish(protocol.KindJoin, nil); err != nil {
		return err
	}

	// Relays drop messages: repeat the join a couple of times so the room
	// reliably learns about us (mirrors the create-side periodic announce).
	a.wg.Add(1)
	go a.rebroadcastJoin(runCtx)

	a.log.WithField("room", roomID).Info("joined room")
	return nil
}

func (a *Arena) rebroadcastJoin(ctx context.Context) {
	defer a.wg.Done()
	for _, delay := range []time.Duration{500 * time.Millisecond, 1500 * time.Millisecond} {
		select {
		case <-ctx.Done():
			return
		case <-a.clk.After(delay):
			if err := a.publish(protocol.KindJoin, nil); err != nil {
				a.log.Debugf("join rebroadcast failed: %v", err)
			}
		}
	}
}

// SendState publishes opaque game state to the room, fire-and-forget. Calls
// arriving faster than Config.StateThrottle are silently coalesced.
func (a *Arena) SendState(payload []byte) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	if a.info == nil {
		a.mu.Unlock()
		return ErrNotInRoom
	}
	now := a.clk.Now().UnixMilli()
	if now-a.lastState < a.cfg.StateThrottle.Milliseconds() {
		a.mu.Unlock()
		return nil
	}
	a.lastState = now
	a.mu.Unlock()

	return a.publish(protocol.KindState, payload)
}

// SendReady publishes this peer's ready flag (for the ready start mode).
func (a *Arena) SendReady(ready bool) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	if a.info == nil {
		a.mu.Unlock()
		return ErrNotInRoom
	}
	tracker := a.tracker
	a.mu.Unlock()

	tracker.SetReady(a.PublicKey(), ready)
	err := a.publish(protocol.KindReady, protocol.MarshalPayload(protocol.ReadyPayload{Ready: ready}))
	a.evaluate()
	return err
}

// StartGame issues the explicit start command. Only the room creator's
// command is honored, locally and by every remote peer.
func (a *Arena) StartGame() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	if a.info == nil {
		a.mu.Unlock()
		return ErrNotInRoom
	}
	if !a.isCreator {
		a.mu.Unlock()
		return ErrNotCreator
	}
	a.mu.Unlock()

	if err := a.publish(protocol.KindStart, nil); err != nil {
		return err
	}
	if a.machine.CommandStart(a.PublicKey()) {
		a.events.push(Event{Type: EventGameStart})
		a.log.Info("game started")
	}
	return nil
}

// GameOutcome describes the result published with SendGameOver. Only Reason
// is required; FinalScore and Winner travel on the wire when set.
type GameOutcome struct {
	Reason     string
	FinalScore *int64
	Winner     string
}

// SendGameOver announces the end of the running game to the room and moves
// this peer to Finished. A rematch can be negotiated afterwards; Leave or
// Disconnect end the session for good.
func (a *Arena) SendGameOver(outcome GameOutcome) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	if a.info == nil {
		a.mu.Unlock()
		return ErrNotInRoom
	}
	a.mu.Unlock()

	payload := protocol.MarshalPayload(protocol.GameOverPayload{
		Reason:     outcome.Reason,
		FinalScore: outcome.FinalScore,
		Winner:     outcome.Winner,
	})
	if err := a.publish(protocol.KindGameOver, payload); err != nil {
		return err
	}
	if a.machine.Finish() {
		a.log.WithField("reason", outcome.Reason).Info("game over")
	}
	return nil
}

// RequestRematch asks the room for another game. Only meaningful once the
// game has finished; a no-op otherwise. Any peer may answer with
// AcceptRematch.
func (a *Arena) RequestRematch() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	if a.info == nil {
		a.mu.Unlock()
		return ErrNotInRoom
	}
	a.mu.Unlock()

	if a.Status() != StatusFinished {
		return nil
	}
	return a.publish(protocol.KindRematch, protocol.MarshalPayload(protocol.RematchPayload{
		Action: protocol.RematchRequest,
	}))
}

// AcceptRematch agrees to another game, broadcasting a fresh seed every peer
// adopts, and resets the room for a new forming round: ready flags cleared,
// game_start armed again. Only meaningful once the game has finished.
func (a *Arena) AcceptRematch() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	if a.info == nil {
		a.mu.Unlock()
		return ErrNotInRoom
	}
	tracker := a.tracker
	a.mu.Unlock()

	if a.Status() != StatusFinished {
		return nil
	}

	seed, err := newSeed()
	if err != nil {
		return err
	}
	if err := a.publish(protocol.KindRematch, protocol.MarshalPayload(protocol.RematchPayload{
		Action:  protocol.RematchAccept,
		NewSeed: seed,
	})); err != nil {
		return err
	}
	a.resetForRematch(seed, tracker)
	return nil
}

// Leave exits the current room without tearing down the transport. The leave
// message is best-effort, like any broadcast.
func (a *Arena) Leave() error {
	a.mu.Lock()
	if a.info == nil {
		a.mu.Unlock()
		return ErrNotInRoom
	}
	a.mu.Unlock()

	if err := a.publish(protocol.KindLeave, nil); err != nil {
		a.log.Debugf("leave publish failed: %v", err)
	}

	a.mu.Lock()
	a.info = nil
	a.tracker = nil
	a.isCreator = false
	a.lastState = 0
	a.roomFull = false
	a.mu.Unlock()
	a.machine.Reset(a.cfg.StartMode)
	return nil
}

// Disconnect signals all background loops to stop, closes relay connections
// and makes TryRecv return nil permanently. In-flight publishes may be lost.
// Idempotent.
func (a *Arena) Disconnect() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	inRoom := a.info != nil
	pool := a.pool
	cancel := a.cancel
	a.mu.Unlock()

	if inRoom {
		if err := a.publish(protocol.KindLeave, nil); err != nil {
			a.log.Debugf("leave publish on disconnect failed: %v", err)
		}
	}
	if cancel != nil {
		cancel()
	}
	if pool != nil {
		pool.Close()
	}
	a.wg.Wait()
	a.machine.Close()
	a.events.close()
	a.log.Info("disconnected")
}

// ----------------------------------------------------------------------------
// Background loops
// ----------------------------------------------------------------------------

// startRoomLoopsLocked spawns the dispatch, sweep and heartbeat loops. They
// run until Disconnect and survive Leave, so a second Create or Join must not
// spawn them again. Caller holds a.mu and has already brought the pool up.
func (a *Arena) startRoomLoopsLocked() {
	if a.loopsStarted {
		return
	}
	a.loopsStarted = true
	a.wg.Add(3)
	go a.dispatchLoop(a.runCtx)
	go a.sweepLoop(a.runCtx)
	go a.heartbeatLoop(a.runCtx)
}

// dispatchLoop pumps verified envelopes from the transport into local state.
func (a *Arena) dispatchLoop(ctx context.Context) {
	defer a.wg.Done()
	events := a.pool.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-events:
			a.dispatch(env)
		}
	}
}

// dispatch applies one remote envelope. Self-sent echoes are skipped; local
// state was already updated on the send path.
func (a *Arena) dispatch(env *protocol.Envelope) {
	if env.Sender == a.PublicKey() {
		return
	}

	a.mu.Lock()
	tracker := a.tracker
	isCreator := a.isCreator
	a.mu.Unlock()
	if tracker == nil {
		return
	}

	switch env.Kind {
	case protocol.KindJoin:
		if p, ok := tracker.Admit(env.Sender); ok {
			a.events.push(Event{Type: EventPlayerJoin, Player: p, Pubkey: p.Pubkey})
			a.log.WithField("pubkey", abbrev(env.Sender)).Info("player joined")
			if isCreator {
				if err := a.publishAnnounce(); err != nil {
					a.log.Debugf("announce after join failed: %v", err)
				}
			}
			a.evaluate()
		} else if tracker.Has(env.Sender) {
			tracker.Touch(env.Sender)
		}
		// At capacity: drop silently. The sender never observes admission,
		// which is all a broadcast medium can express.

	case protocol.KindLeave:
		if tracker.Remove(env.Sender) {
			a.events.push(Event{Type: EventPlayerLeave, Pubkey: env.Sender})
			a.log.WithField("pubkey", abbrev(env.Sender)).Info("player left")
			a.evaluate()
		}

	case protocol.KindState:
		if tracker.Touch(env.Sender) {
			a.events.push(Event{Type: EventPlayerState, Pubkey: env.Sender, Payload: env.Payload})
		}

	case protocol.KindReady:
		var rp protocol.ReadyPayload
		if err := json.Unmarshal(env.Payload, &rp); err != nil {
			return
		}
		if tracker.SetReady(env.Sender, rp.Ready) {
			a.evaluate()
		}

	case protocol.KindGameOver:
		var gp protocol.GameOverPayload
		if err := json.Unmarshal(env.Payload, &gp); err != nil {
			return
		}
		tracker.Touch(env.Sender)
		a.machine.Finish()
		a.events.push(Event{Type: EventGameOver, Pubkey: env.Sender, Message: gp.Reason, Payload: env.Payload})
		a.log.WithFields(logrus.Fields{
			"pubkey": abbrev(env.Sender),
			"reason": gp.Reason,
		}).Info("game over")

	case protocol.KindRematch:
		var rm protocol.RematchPayload
		if err := json.Unmarshal(env.Payload, &rm); err != nil {
			return
		}
		tracker.Touch(env.Sender)
		switch rm.Action {
		case protocol.RematchRequest:
			a.events.push(Event{Type: EventRematchRequest, Pubkey: env.Sender})
		case protocol.RematchAccept:
			if rm.NewSeed != 0 {
				a.resetForRematch(rm.NewSeed, tracker)
			}
		}

	case protocol.KindHeartbeat:
		tracker.Touch(env.Sender)

	case protocol.KindAnnounce:
		a.handleAnnounce(env, tracker)

	case protocol.KindStart:
		if a.machine.CommandStart(env.Sender) {
			a.events.push(Event{Type: EventGameStart})
			a.log.Info("game started")
		}
	}
}

// handleAnnounce merges the creator's room advertisement: room parameters on
// first sight, then the membership list. Announces not signed by the room
// creator are dropped.
func (a *Arena) handleAnnounce(env *protocol.Envelope, tracker *presence.Tracker) {
	var ap protocol.AnnouncePayload
	if err := json.Unmarshal(env.Payload, &ap); err != nil {
		return
	}
	// An announce only speaks for its own signer.
	if ap.Creator != env.Sender {
		return
	}

	a.mu.Lock()
	info := a.info
	if info == nil || ap.RoomID != info.RoomID {
		a.mu.Unlock()
		return
	}
	if info.Creator == "" {
		info.Creator = ap.Creator
		info.MaxPlayers = ap.MaxPlayers
		info.StartMode = ap.StartMode
		if ap.BaseURL != "" {
			info.BaseURL = ap.BaseURL
		}
		a.machine.SetCreator(ap.Creator)
		if mode, err := lifecycle.ParseStartMode(ap.StartMode); err == nil {
			a.machine.SetMode(mode)
		}
		tracker.SetCapacity(ap.MaxPlayers)
	} else if info.Creator != env.Sender {
		a.mu.Unlock()
		return
	}
	isCreator := a.isCreator
	a.mu.Unlock()

	admittedSelf := false
	for _, pk := range ap.Players {
		if pk == a.PublicKey() {
			admittedSelf = true
			continue
		}
		if p, ok := tracker.Admit(pk); ok {
			a.events.push(Event{Type: EventPlayerJoin, Player: p, Pubkey: p.Pubkey})
			a.log.WithField("pubkey", abbrev(pk)).Info("player joined")
		} else {
			tracker.Touch(pk)
		}
	}
	// Ready flags ride along on the announce so a peer that missed the ready
	// message itself still converges.
	for _, pk := range ap.Ready {
		if pk != a.PublicKey() {
			tracker.SetReady(pk, true)
		}
	}
	tracker.Touch(env.Sender)

	// A full membership list that excludes us means we were never admitted.
	// The creator re-announces periodically, so latch the error and surface it
	// once per join attempt.
	if !isCreator && !admittedSelf && ap.MaxPlayers > 0 && len(ap.Players) >= ap.MaxPlayers {
		a.mu.Lock()
		notify := !a.roomFull
		a.roomFull = true
		a.mu.Unlock()
		if notify {
			a.events.push(Event{Type: EventError, Message: ErrRoomFull.Error()})
		}
	}

	a.evaluate()
}

// sweepLoop periodically evicts peers that have gone silent.
func (a *Arena) sweepLoop(ctx context.Context) {
	defer a.wg.Done()
	ticker := a.clk.Ticker(a.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.mu.Lock()
			tracker := a.tracker
			a.mu.Unlock()
			if tracker == nil {
				continue
			}
			evicted := tracker.Sweep(a.cfg.PeerTimeout)
			for _, pubkey := range evicted {
				a.events.push(Event{Type: EventPlayerLeave, Pubkey: pubkey})
				a.log.WithField("pubkey", abbrev(pubkey)).Info("player timed out")
			}
			if len(evicted) > 0 {
				a.evaluate()
			}
		}
	}
}

// heartbeatLoop publishes liveness heartbeats, and on the creator also the
// periodic room announce joiners rely on.
func (a *Arena) heartbeatLoop(ctx context.Context) {
	defer a.wg.Done()
	heartbeat := a.clk.Ticker(a.cfg.HeartbeatInterval)
	defer heartbeat.Stop()
	announce := a.clk.Ticker(a.cfg.AnnounceInterval)
	defer announce.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-heartbeat.C:
			a.mu.Lock()
			inRoom := a.info != nil
			a.mu.Unlock()
			if !inRoom {
				continue
			}
			payload := protocol.MarshalPayload(protocol.HeartbeatPayload{
				Timestamp: a.clk.Now().UnixMilli(),
			})
			if err := a.publish(protocol.KindHeartbeat, payload); err != nil {
				a.log.Debugf("heartbeat failed: %v", err)
			}

		case <-announce.C:
			a.mu.Lock()
			shouldAnnounce := a.isCreator && a.info != nil
			a.mu.Unlock()
			if !shouldAnnounce {
				continue
			}
			if err := a.publishAnnounce(); err != nil {
				a.log.Debugf("periodic announce failed: %v", err)
			}
		}
	}
}

// resetForRematch arms the room for a new game on an accepted rematch: ready
// flags cleared, seed surfaced, start condition re-evaluated. The lifecycle
// guard absorbs duplicate accepts, so this runs once per finished game.
func (a *Arena) resetForRematch(seed uint64, tracker *presence.Tracker) {
	if !a.machine.Rematch() {
		return
	}
	tracker.ClearReady()
	a.mu.Lock()
	a.lastState = 0
	a.mu.Unlock()
	a.events.push(Event{Type: EventRematchStart, Seed: seed})
	a.log.Info("rematch accepted, new game forming")
	a.evaluate()
}

// evaluate re-checks the start condition against current membership and
// delivers the single game_start if it fires.
func (a *Arena) evaluate() {
	a.mu.Lock()
	tracker := a.tracker
	a.mu.Unlock()
	if tracker == nil {
		return
	}
	if a.machine.Evaluate(tracker.Players()) {
		a.events.push(Event{Type: EventGameStart})
		a.log.Info("game started")
	}
}

// ----------------------------------------------------------------------------
// Publishing
// ----------------------------------------------------------------------------

// publish seals and fans a message out to the relays.
func (a *Arena) publish(kind string, payload []byte) error {
	a.mu.Lock()
	pool := a.pool
	a.mu.Unlock()
	if pool == nil {
		return ErrNoRelayConnected
	}

	env, err := protocol.Seal(a.id, kind, payload, a.clk.Now().UnixMilli())
	if err != nil {
		return err
	}
	return pool.Publish(env)
}

// publishAnnounce broadcasts the room advertisement with current membership.
func (a *Arena) publishAnnounce() error {
	a.mu.Lock()
	info := a.info
	tracker := a.tracker
	a.mu.Unlock()
	if info == nil || tracker == nil {
		return ErrNotInRoom
	}

	players := tracker.Players()
	pubkeys := make([]string, 0, len(players))
	var ready []string
	for _, p := range players {
		pubkeys = append(pubkeys, p.Pubkey)
		if p.Ready {
			ready = append(ready, p.Pubkey)
		}
	}

	payload := protocol.MarshalPayload(protocol.AnnouncePayload{
		RoomID:     info.RoomID,
		Creator:    info.Creator,
		MaxPlayers: info.MaxPlayers,
		StartMode:  info.StartMode,
		Relays:     info.Relays,
		BaseURL:    info.BaseURL,
		Players:    pubkeys,
		Ready:      ready,
	})
	return a.publish(protocol.KindAnnounce, payload)
}

// namespaceLocked returns the relay namespace of the current room. Caller
// holds a.mu and a.info is non-nil.
func (a *Arena) namespaceLocked() string {
	return fmt.Sprintf("%s-%s", a.cfg.GameID, a.info.RoomID)
}

// newSeed draws a non-zero random game seed for a rematch.
func newSeed() (uint64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("rematch seed entropy: %w", err)
	}
	seed := binary.BigEndian.Uint64(buf[:])
	if seed == 0 {
		seed = 1
	}
	return seed, nil
}

// abbrev shortens a pubkey for log lines.
func abbrev(pubkey string) string {
	if len(pubkey) <= 12 {
		return pubkey
	}
	return pubkey[:12]
}
