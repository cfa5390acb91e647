// internal/relay/dedup.go
package relay

import lru "github.com/hashicorp/golang-lru/v2"

// dedup is a bounded recent-content-id set. Relays may redeliver, and fan-out
// publish means every relay echoes the same message; the ring drops repeats
// before any decode work happens. Oldest ids are evicted first.
type dedup struct {
	ring *lru.Cache[string, struct{}]
}

func newDedup(capacity int) *dedup {
	ring, err := lru.New[string, struct{}](capacity)
	if err != nil {
		// Only reachable with a non-positive capacity, which is a programmer
		// error.
		panic(err)
	}
	return &dedup{ring: ring}
}

// seen records id and reports whether it was already present.
func (d *dedup) seen(id string) bool {
	ok, _ := d.ring.ContainsOrAdd(id, struct{}{})
	return ok
}
