package correlation

import (
	"container/list"
	"sync"
	"time"
)

// DriftSample is one observed correlation for a bot pair, kept for drift
// inspection on the dashboard.
type DriftSample struct {
	Coefficient float64   `json:"coefficient"`
	ObservedAt  time.Time `json:"observed_at"`
}

// driftHistory keeps a capped ring of recent correlation samples per bot
// pair. Pair keys are bounded with LRU eviction so a churning fleet cannot
// grow the map without limit.
type driftHistory struct {
	mu         sync.Mutex
	maxSamples int
	maxPairs   int
	pairs      map[string]*driftRing
	lru        *list.List // front = most recently touched pair key
	lruIndex   map[string]*list.Element
}

type driftRing struct {
	samples []DriftSample
	next    int
	full    bool
}

func newDriftHistory(maxSamples, maxPairs int) *driftHistory {
	return &driftHistory{
		maxSamples: maxSamples,
		maxPairs:   maxPairs,
		pairs:      make(map[string]*driftRing),
		lru:        list.New(),
		lruIndex:   make(map[string]*list.Element),
	}
}

// pairKey builds an order-independent key for a bot pair.
func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

// record appends a sample for the pair, evicting the least recently touched
// pair once the pair cap is hit.
func (d *driftHistory) record(botA, botB string, coefficient float64, at time.Time) {
	key := pairKey(botA, botB)

	d.mu.Lock()
	defer d.mu.Unlock()

	ring, ok := d.pairs[key]
	if !ok {
		if len(d.pairs) >= d.maxPairs {
			d.evictOldestLocked()
		}
		ring = &driftRing{samples: make([]DriftSample, d.maxSamples)}
		d.pairs[key] = ring
		d.lruIndex[key] = d.lru.PushFront(key)
	} else {
		d.lru.MoveToFront(d.lruIndex[key])
	}

	ring.samples[ring.next] = DriftSample{Coefficient: coefficient, ObservedAt: at}
	ring.next = (ring.next + 1) % d.maxSamples
	if ring.next == 0 {
		ring.full = true
	}
}

func (d *driftHistory) evictOldestLocked() {
	back := d.lru.Back()
	if back == nil {
		return
	}
	key := back.Value.(string)
	d.lru.Remove(back)
	delete(d.lruIndex, key)
	delete(d.pairs, key)
}

// Samples returns the pair's history oldest-first; nil when the pair has
// never been observed (or was evicted).
func (d *driftHistory) Samples(botA, botB string) []DriftSample {
	key := pairKey(botA, botB)

	d.mu.Lock()
	defer d.mu.Unlock()

	ring, ok := d.pairs[key]
	if !ok {
		return nil
	}

	if !ring.full {
		out := make([]DriftSample, ring.next)
		copy(out, ring.samples[:ring.next])
		return out
	}
	out := make([]DriftSample, 0, d.maxSamples)
	out = append(out, ring.samples[ring.next:]...)
	out = append(out, ring.samples[:ring.next]...)
	return out
}

// pairCount reports how many pairs are currently retained.
func (d *driftHistory) pairCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pairs)
}
