// Package library keeps per-user collection snapshots flowing to connected
// clients, so an open session sees changes as soon as they land.
package library

import (
	"sync"

	"github.com/cinelog/cinelog/internal/models"
)

// subscriberBuffer bounds each subscriber channel. A slow consumer drops
// intermediate snapshots; only the latest state matters.
const subscriberBuffer = 4

// Snapshot is the full collection state pushed to subscribers on every
// change. Clients rebuild their view from it rather than patching deltas.
type Snapshot struct {
	Records []models.MovieRecord
}

// Feed fans collection snapshots out to subscribers, keyed by user.
type Feed struct {
	mu          sync.RWMutex
	subscribers map[int]map[chan Snapshot]struct{}
}

func NewFeed() *Feed {
	return &Feed{
		subscribers: make(map[int]map[chan Snapshot]struct{}),
	}
}

// Subscribe registers a listener for one user's collection. The returned
// channel receives full snapshots until Unsubscribe is called.
func (f *Feed) Subscribe(userID int) chan Snapshot {
	ch := make(chan Snapshot, subscriberBuffer)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subscribers[userID] == nil {
		f.subscribers[userID] = make(map[chan Snapshot]struct{})
	}
	f.subscribers[userID][ch] = struct{}{}
	return ch
}

// Unsubscribe detaches a listener and closes its channel. Detaching before
// the session's state is torn down keeps a stale push from repopulating a
// cleared view.
func (f *Feed) Unsubscribe(userID int, ch chan Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	subs := f.subscribers[userID]
	if _, ok := subs[ch]; !ok {
		return
	}
	delete(subs, ch)
	if len(subs) == 0 {
		delete(f.subscribers, userID)
	}
	close(ch)
}

// Publish pushes a fresh snapshot to every listener of the user. Listeners
// with a full buffer miss this one and catch the next.
func (f *Feed) Publish(userID int, records []models.MovieRecord) {
	snapshot := Snapshot{Records: records}

	f.mu.RLock()
	defer f.mu.RUnlock()
	for ch := range f.subscribers[userID] {
		select {
		case ch <- snapshot:
		default:
		}
	}
}

// SubscriberCount reports how many listeners a user currently has.
func (f *Feed) SubscriberCount(userID int) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subscribers[userID])
}
