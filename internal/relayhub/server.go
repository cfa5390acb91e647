// internal/relayhub/server.go
package relayhub

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/arena/internal/middleware"
	"github.com/jason-s-yu/arena/internal/protocol"
	"github.com/sirupsen/logrus"
)

// Custom WebSocket close codes for relay clients. More specific than the
// standard codes so misbehaving clients can tell what they did.
const (
	BadFrameError = 3000 // Client sent a frame that is not a valid relay frame.
	BadVerbError  = 3001 // Client sent a verb the relay does not accept.
)

// outChanSize bounds the per-client write queue.
const outChanSize = 32

// client is a single relay subscriber's connection state.
type client struct {
	id     uuid.UUID
	out    chan []byte
	cancel context.CancelFunc
	log    *logrus.Logger
}

// send pushes a frame onto the client's out channel non-blockingly. A full
// queue means the subscriber is too slow; the frame is dropped and logged.
func (cl *client) send(frame []byte) {
	select {
	case cl.out <- frame:
	default:
		cl.log.WithField("client", cl.id).Warn("client outbox full, dropping frame")
	}
}

// Handler returns the websocket endpoint for the hub.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remoteAddr := r.RemoteAddr

		ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			h.log.Warnf("websocket accept error: %v", err)
			return
		}
		defer ws.Close(websocket.StatusInternalError, "handler finished")

		connectedAt := middleware.LogWebSocketConnect(h.log, remoteAddr, r.URL.Path)

		ctx, cancel := context.WithCancel(r.Context())
		cl := &client{
			id:     uuid.New(),
			out:    make(chan []byte, outChanSize),
			cancel: cancel,
			log:    h.log,
		}

		go h.writePump(ctx, ws, cl)
		err = h.readPump(ctx, ws, cl)

		h.dropClient(cl)
		cancel()
		middleware.LogWebSocketDisconnect(h.log, remoteAddr, r.URL.Path, connectedAt, err)
	}
}

// readPump handles incoming frames from one client until the connection
// closes or errors out.
func (h *Hub) readPump(ctx context.Context, ws *websocket.Conn, cl *client) error {
	for {
		typ, data, err := ws.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				return nil
			}
			return err
		}
		if typ != websocket.MessageText {
			continue
		}

		verb, ns, body, err := protocol.DecodeFrame(data)
		if err != nil {
			h.log.WithField("client", cl.id).Debugf("bad frame: %v", err)
			ws.Close(BadFrameError, "bad relay frame")
			return nil
		}

		switch verb {
		case protocol.VerbSub:
			h.subscribe(ns, cl)
		case protocol.VerbPub:
			if body == nil {
				continue
			}
			// Rebroadcast as MSG to everyone on the namespace, sender
			// included; peers dedup by content id.
			frame, err := protocol.EncodeFrame(protocol.VerbMsg, ns, body)
			if err != nil {
				continue
			}
			h.broadcast(ns, frame)
		default:
			ws.Close(BadVerbError, "unsupported relay verb")
			return nil
		}
	}
}

// writePump drains the client's out channel onto the socket.
func (h *Hub) writePump(ctx context.Context, ws *websocket.Conn, cl *client) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-cl.out:
			if err := ws.Write(ctx, websocket.MessageText, frame); err != nil {
				cl.cancel()
				return
			}
		}
	}
}
