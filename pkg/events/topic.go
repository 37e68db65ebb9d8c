// Package events is the synchronous publish/subscribe channel that carries
// state changes between gates, missions, scores and worlds.
package events

import (
	"sync"
	"sync/atomic"
)

// Topic delivers values of one event kind to its subscribers synchronously,
// in subscription order. The zero value is ready to use.
//
// Handlers may subscribe or unsubscribe (themselves or others) while a
// Publish is in progress. Publish iterates over a snapshot; a subscription
// removed mid-dispatch is not called again, and one added mid-dispatch first
// sees the next Publish.
type Topic[T any] struct {
	mu     sync.Mutex
	nextID uint64
	subs   []*subscriber[T]
}

type subscriber[T any] struct {
	id     uint64
	fn     func(T)
	active atomic.Bool
}

// Subscribe registers fn and returns a handle that removes it again.
func (t *Topic[T]) Subscribe(fn func(T)) *Subscription {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextID++
	sub := &subscriber[T]{id: t.nextID, fn: fn}
	sub.active.Store(true)
	t.subs = append(t.subs, sub)

	return &Subscription{cancel: func() { t.remove(sub) }}
}

// Publish calls every active subscriber with ev.
func (t *Topic[T]) Publish(ev T) {
	t.mu.Lock()
	snapshot := make([]*subscriber[T], len(t.subs))
	copy(snapshot, t.subs)
	t.mu.Unlock()

	// Notify outside the lock so handlers can publish and resubscribe
	for _, sub := range snapshot {
		if sub.active.Load() {
			sub.fn(ev)
		}
	}
}

// Len returns the number of active subscribers.
func (t *Topic[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}

func (t *Topic[T]) remove(sub *subscriber[T]) {
	sub.active.Store(false)

	t.mu.Lock()
	defer t.mu.Unlock()
	for i, s := range t.subs {
		if s.id == sub.id {
			t.subs = append(t.subs[:i:i], t.subs[i+1:]...)
			return
		}
	}
}

// Subscription is a handle to a registered handler.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Unsubscribe removes the handler. It is safe to call more than once and on
// a nil Subscription.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(s.cancel)
}
