// Package bus carries "collection changed" signals between record stores,
// both inside one process and across processes sharing a storage medium.
package bus

import (
	"sync"

	"github.com/ajramos/courrier/internal/courrier"
)

// Event announces that the collection of Direction changed. An empty
// Direction is a global signal concerning every direction. Records holds
// the new collection when the sender had it; receivers must not rely on it
// and reload from the mirror instead. Version is the slot version the
// sender's write produced, 0 when unknown.
type Event struct {
	Direction courrier.Direction
	Records   []courrier.Record
	Origin    string
	Version   int64
}

// Concerns reports whether a subscriber bound to d should react to e
func (e Event) Concerns(d courrier.Direction) bool {
	return e.Direction == "" || e.Direction == d
}

// Handler receives events
type Handler func(Event)

// Bus is a publish/subscribe channel for change events. The returned
// unsubscribe function is safe to call more than once.
type Bus interface {
	Publish(ev Event)
	Subscribe(h Handler) (unsubscribe func())
}

// LocalBus delivers events to subscribers of the same process. Handlers
// run synchronously on the publishing goroutine, in subscription order.
type LocalBus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]Handler
	order    []int
}

// NewLocalBus creates an empty LocalBus
func NewLocalBus() *LocalBus {
	return &LocalBus{handlers: make(map[int]Handler)}
}

// Publish delivers ev to every current subscriber
func (b *LocalBus) Publish(ev Event) {
	b.mu.RLock()
	hs := make([]Handler, 0, len(b.order))
	for _, id := range b.order {
		hs = append(hs, b.handlers[id])
	}
	b.mu.RUnlock()

	for _, h := range hs {
		h(ev)
	}
}

// Subscribe registers h until the returned function is called
func (b *LocalBus) Subscribe(h Handler) func() {
	if h == nil {
		return func() {}
	}
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = h
	b.order = append(b.order, id)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *LocalBus) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers, id)
	for i, v := range b.order {
		if v == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of live subscriptions
func (b *LocalBus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}

// Group joins several buses: Publish goes to all of them and Subscribe
// listens on all of them behind one unsubscribe
type Group []Bus

// Publish forwards ev to every member
func (g Group) Publish(ev Event) {
	for _, b := range g {
		if b != nil {
			b.Publish(ev)
		}
	}
}

// Subscribe registers h on every member
func (g Group) Subscribe(h Handler) func() {
	unsubs := make([]func(), 0, len(g))
	for _, b := range g {
		if b != nil {
			unsubs = append(unsubs, b.Subscribe(h))
		}
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			for _, u := range unsubs {
				u()
			}
		})
	}
}
