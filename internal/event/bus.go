package event

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

const DefaultBufferSize = 64

type subscriber struct {
	ch    chan Event
	types map[Type]struct{}
}

func (s *subscriber) wants(t Type) bool {
	if len(s.types) == 0 {
		return true
	}
	_, ok := s.types[t]
	return ok
}

type InMemoryBus struct {
	mu          sync.Mutex
	bufferSize  int
	subscribers map[string]*subscriber
	sticky      map[Type]Event
	dropped     atomic.Uint64
}

func NewBus() *InMemoryBus {
	return NewBusWithBuffer(DefaultBufferSize)
}

func NewBusWithBuffer(size int) *InMemoryBus {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &InMemoryBus{
		bufferSize:  size,
		subscribers: make(map[string]*subscriber),
		sticky:      make(map[Type]Event),
	}
}

func (b *InMemoryBus) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.broadcastLocked(e)
}

func (b *InMemoryBus) PublishSticky(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.sticky[e.Type] = e
	b.broadcastLocked(e)
}

// Sticky returns the retained event of type t.
func (b *InMemoryBus) Sticky(t Type) (Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.sticky[t]
	return e, ok
}

func (b *InMemoryBus) RemoveSticky(t Type) {
	b.mu.Lock()
	delete(b.sticky, t)
	b.mu.Unlock()
}

func (b *InMemoryBus) Subscribe(types ...Type) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, unsubscribe := b.addLocked(types)
	return sub.ch, unsubscribe
}

func (b *InMemoryBus) SubscribeSticky(t Type) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, unsubscribe := b.addLocked([]Type{t})
	if e, ok := b.sticky[t]; ok {
		sub.ch <- e
	}
	return sub.ch, unsubscribe
}

// Dropped counts events discarded because a subscriber buffer was full.
func (b *InMemoryBus) Dropped() uint64 {
	return b.dropped.Load()
}

func (b *InMemoryBus) addLocked(types []Type) (*subscriber, func()) {
	id := uuid.NewString()
	sub := &subscriber{
		ch:    make(chan Event, b.bufferSize),
		types: make(map[Type]struct{}, len(types)),
	}
	for _, t := range types {
		sub.types[t] = struct{}{}
	}
	b.subscribers[id] = sub

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if existing, ok := b.subscribers[id]; ok {
			close(existing.ch)
			delete(b.subscribers, id)
		}
	}

	return sub, unsubscribe
}

func (b *InMemoryBus) broadcastLocked(e Event) {
	for _, sub := range b.subscribers {
		if !sub.wants(e.Type) {
			continue
		}
		b.deliver(sub, e)
	}
}

// deliver never blocks. A full buffer loses its oldest event. Publishers are
// serialized by b.mu, so the slot freed by the drain stays free.
func (b *InMemoryBus) deliver(sub *subscriber, e Event) {
	select {
	case sub.ch <- e:
		return
	default:
	}

	select {
	case <-sub.ch:
		b.dropped.Add(1)
	default:
	}

	select {
	case sub.ch <- e:
	default:
		b.dropped.Add(1)
	}
}
