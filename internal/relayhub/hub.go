// internal/relayhub/hub.go
package relayhub

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Hub is an in-memory publish/subscribe relay: namespaces map to subscriber
// sets, published envelopes are rebroadcast to every subscriber of the
// namespace, sender included. Nothing is persisted and nothing is verified;
// relays are untrusted by design and peers authenticate envelopes themselves.
//
// The production deployment runs one of these behind cmd/relayd; tests run it
// in-process behind httptest.
type Hub struct {
	log *logrus.Logger

	mu   sync.Mutex
	subs map[string]map[uuid.UUID]*client
}

// New initializes an empty hub.
func New(log *logrus.Logger) *Hub {
	return &Hub{
		log:  log,
		subs: make(map[string]map[uuid.UUID]*client),
	}
}

// subscribe adds a client to a namespace.
func (h *Hub) subscribe(ns string, cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[ns]
	if !ok {
		set = make(map[uuid.UUID]*client)
		h.subs[ns] = set
	}
	set[cl.id] = cl
	h.log.WithFields(logrus.Fields{"client": cl.id, "namespace": ns}).Debug("subscribed")
}

// broadcast fans a prebuilt MSG frame out to every subscriber of ns. Slow
// subscribers get frames dropped rather than stalling the namespace.
func (h *Hub) broadcast(ns string, frame []byte) {
	h.mu.Lock()
	targets := make([]*client, 0, len(h.subs[ns]))
	for _, cl := range h.subs[ns] {
		targets = append(targets, cl)
	}
	h.mu.Unlock()

	for _, cl := range targets {
		cl.send(frame)
	}
}

// dropClient removes a client from every namespace it subscribed to.
// Called once when its connection goes away.
func (h *Hub) dropClient(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ns, set := range h.subs {
		if _, ok := set[cl.id]; !ok {
			continue
		}
		delete(set, cl.id)
		if len(set) == 0 {
			delete(h.subs, ns)
		}
	}
}

// SubscriberCount reports the live subscriber count of a namespace.
func (h *Hub) SubscriberCount(ns string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[ns])
}
