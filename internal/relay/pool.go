// internal/relay/pool.go
package relay

import (
	"context"
	"errors"
	"sync"

	"github.com/jason-s-yu/arena/internal/protocol"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNoRelayConnected means zero relays were live at call time. Callers
	// treat it as a best-effort immediate failure; the pool keeps retrying in
	// the background regardless.
	ErrNoRelayConnected = errors.New("no relay connected")
	// ErrPublishFailed means a publish could not be handed to any relay.
	ErrPublishFailed = errors.New("publish failed")
)

const (
	dedupCapacity = 512
	inboundSize   = 256
)

// Pool maintains one connection per configured relay endpoint, publishes with
// fan-out for redundancy, and funnels deduplicated, verified envelopes into a
// single inbound channel. The pool counts as connected once at least one
// relay is live, not all.
type Pool struct {
	log   *logrus.Logger
	conns []*conn
	dedup *dedup

	mu sync.Mutex
	ns string

	inbound   chan *protocol.Envelope
	ready     chan struct{}
	readyOnce sync.Once

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewPool creates a pool for the given endpoints. Start must be called before
// anything flows.
func NewPool(endpoints []string, log *logrus.Logger) *Pool {
	p := &Pool{
		log:     log,
		dedup:   newDedup(dedupCapacity),
		inbound: make(chan *protocol.Envelope, inboundSize),
		ready:   make(chan struct{}),
	}
	for _, url := range endpoints {
		p.conns = append(p.conns, newConn(url, p))
	}
	return p
}

// Start spawns the per-relay connection loops. Idempotent.
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	for _, c := range p.conns {
		p.wg.Add(1)
		go c.run(ctx)
	}
}

// AwaitConnected blocks until at least one relay is live or ctx expires.
func (p *Pool) AwaitConnected(ctx context.Context) error {
	select {
	case <-p.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Connected reports whether at least one relay is currently live.
func (p *Pool) Connected() bool {
	for _, c := range p.conns {
		if c.live.Load() {
			return true
		}
	}
	return false
}

// Subscribe sets the room namespace and subscribes every live relay to it.
// Connections joining later subscribe themselves on connect.
func (p *Pool) Subscribe(ns string) {
	p.mu.Lock()
	p.ns = ns
	p.mu.Unlock()

	frame, err := protocol.EncodeFrame(protocol.VerbSub, ns, nil)
	if err != nil {
		return
	}
	for _, c := range p.conns {
		if c.live.Load() {
			c.enqueue(frame)
		}
	}
}

// Publish fans an envelope out to every live relay. It never blocks on relay
// acknowledgement; the only synchronous failure is having no live relay at
// all. The envelope's own content id is recorded in the dedup ring so relay
// echoes of our own messages are dropped on arrival.
func (p *Pool) Publish(env *protocol.Envelope) error {
	ns := p.namespace()
	if ns == "" {
		return ErrPublishFailed
	}

	body, err := protocol.Encode(env)
	if err != nil {
		return err
	}
	frame, err := protocol.EncodeFrame(protocol.VerbPub, ns, body)
	if err != nil {
		return err
	}

	p.dedup.seen(env.ID)

	sent := 0
	for _, c := range p.conns {
		if !c.live.Load() {
			continue
		}
		if c.enqueue(frame) {
			sent++
		}
	}
	if sent == 0 {
		if !p.Connected() {
			return ErrNoRelayConnected
		}
		return ErrPublishFailed
	}
	return nil
}

// Events is the stream of verified inbound envelopes, already deduplicated.
func (p *Pool) Events() <-chan *protocol.Envelope {
	return p.inbound
}

// Close stops all connection loops and waits for them to exit.
func (p *Pool) Close() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		p.wg.Wait()
	}
}

func (p *Pool) namespace() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ns
}

// connLive is called by a conn when its socket comes up.
func (p *Pool) connLive() {
	p.readyOnce.Do(func() { close(p.ready) })
}

// handleFrame processes one raw frame off any relay socket: dedup first, then
// decode and verify, then hand off. Every failure is a local drop; the
// network is untrusted, so none of this surfaces to the application.
func (p *Pool) handleFrame(data []byte) {
	verb, ns, body, err := protocol.DecodeFrame(data)
	if err != nil {
		p.log.Debugf("relay frame rejected: %v", err)
		return
	}
	if verb != protocol.VerbMsg || ns != p.namespace() || body == nil {
		return
	}

	id, ok := protocol.PeekID(body)
	if !ok {
		return
	}
	if p.dedup.seen(id) {
		return
	}

	env, err := protocol.Decode(body)
	if err != nil {
		p.log.Debugf("envelope rejected: %v", err)
		return
	}

	select {
	case p.inbound <- env:
	default:
		p.log.Warn("inbound queue full, dropping envelope")
	}
}
