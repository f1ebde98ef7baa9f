package services

import (
	"log"
	"sync"
)

// Change tables and actions published on the broker.
const (
	TableLiveMatches = "live_matches"
	TableMatchEvents = "match_events"

	ActionInsert = "insert"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Change is a row-level change notification. Subscribers treat it purely as
// a refetch signal; it carries no row data.
type Change struct {
	Table   string `json:"table"`
	Action  string `json:"action"`
	MatchID string `json:"match_id,omitempty"`
}

// ChangeBroker fans out change notifications to every subscriber. Sends are
// non-blocking: a subscriber that stops draining loses signals rather than
// stalling the writer path, which is fine since any later signal triggers
// the same full refetch.
type ChangeBroker struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan Change
	closed bool
}

// NewChangeBroker creates an empty broker.
func NewChangeBroker() *ChangeBroker {
	return &ChangeBroker{
		subs: make(map[int]chan Change),
	}
}

// Publish delivers the change to all current subscribers.
func (b *ChangeBroker) Publish(c Change) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for id, ch := range b.subs {
		select {
		case ch <- c:
		default:
			log.Printf("[BROKER] subscriber %d is slow, dropping %s/%s signal", id, c.Table, c.Action)
		}
	}
}

// Subscribe registers a new subscriber. The returned cancel func must be
// called when the subscriber goes away; it closes the channel.
func (b *ChangeBroker) Subscribe() (<-chan Change, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Change, 16)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// SubscriberCount returns the number of active subscribers.
func (b *ChangeBroker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close shuts down all subscriber channels.
func (b *ChangeBroker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
	b.closed = true
}
