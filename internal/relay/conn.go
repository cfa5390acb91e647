// internal/relay/conn.go
package relay

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/jason-s-yu/arena/internal/protocol"
	"github.com/sirupsen/logrus"
)

const (
	initialBackoff = 500 * time.Millisecond
	maxBackoff     = 30 * time.Second
	outboxSize     = 64
)

// conn drives a single relay endpoint: dial, subscribe, pump frames, and on
// any failure retry forever with capped exponential backoff. A dead relay
// never blocks the others; each conn runs on its own goroutines.
type conn struct {
	url  string
	pool *Pool
	log  *logrus.Logger

	// out carries frames to the write pump. Enqueueing never blocks; frames
	// are dropped with a warning when the relay cannot keep up.
	out  chan []byte
	live atomic.Bool
}

func newConn(url string, pool *Pool) *conn {
	return &conn{
		url:  url,
		pool: pool,
		log:  pool.log,
		out:  make(chan []byte, outboxSize),
	}
}

// enqueue pushes a frame for this relay without blocking the caller.
func (c *conn) enqueue(frame []byte) bool {
	select {
	case c.out <- frame:
		return true
	default:
		c.log.WithField("relay", c.url).Warn("relay outbox full, dropping frame")
		return false
	}
}

// run is the connection loop: dial, serve until failure, back off, repeat.
func (c *conn) run(ctx context.Context) {
	defer c.pool.wg.Done()

	backoff := initialBackoff
	for {
		if ctx.Err() != nil {
			return
		}

		ws, _, err := websocket.Dial(ctx, c.url, nil)
		if err != nil {
			wait := withJitter(backoff)
			c.log.WithFields(logrus.Fields{
				"relay": c.url,
				"retry": wait.String(),
			}).Warnf("relay dial failed: %v", err)
			if !sleepCtx(ctx, wait) {
				return
			}
			backoff = nextBackoff(backoff)
			continue
		}

		backoff = initialBackoff
		c.log.WithField("relay", c.url).Info("relay connected")
		c.serve(ctx, ws)
		c.log.WithField("relay", c.url).Info("relay disconnected")

		if ctx.Err() != nil {
			ws.Close(websocket.StatusNormalClosure, "client disconnect")
			return
		}
		ws.Close(websocket.StatusGoingAway, "reconnecting")
		if !sleepCtx(ctx, withJitter(initialBackoff)) {
			return
		}
	}
}

// serve pumps a live websocket until read or write fails.
func (c *conn) serve(ctx context.Context, ws *websocket.Conn) {
	// Re-subscribe to the room namespace on every (re)connect so delivery
	// resumes without the caller noticing the drop.
	if ns := c.pool.namespace(); ns != "" {
		if frame, err := protocol.EncodeFrame(protocol.VerbSub, ns, nil); err == nil {
			if err := ws.Write(ctx, websocket.MessageText, frame); err != nil {
				return
			}
		}
	}

	c.live.Store(true)
	c.pool.connLive()
	defer c.live.Store(false)

	writeCtx, stopWriter := context.WithCancel(ctx)
	defer stopWriter()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-writeCtx.Done():
				return
			case frame := <-c.out:
				if err := ws.Write(writeCtx, websocket.MessageText, frame); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			stopWriter()
			<-writerDone
			return
		}
		c.pool.handleFrame(data)
	}
}

func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

// withJitter spreads reconnect attempts so a relay restart does not get a
// thundering herd of dials at the same instant.
func withJitter(d time.Duration) time.Duration {
	return d + time.Duration(rand.Int63n(int64(d)/2+1))
}

// sleepCtx sleeps for d, returning false if ctx is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
