package pubsub

import (
	"sync"
)

// PubSub fans values out to every subscriber of a topic. Subscribers receive
// on buffered channels; a subscriber that falls behind loses messages rather
// than stalling the publisher, since alerts are only useful live.
type PubSub[T any] struct {
	mu   sync.Mutex
	subs map[string][]chan T
}

func NewPubSub[T any]() *PubSub[T] {
	return &PubSub[T]{
		subs: make(map[string][]chan T),
	}
}

func (ps *PubSub[T]) Subscribe(topic string) <-chan T {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ch := make(chan T, 16)
	ps.subs[topic] = append(ps.subs[topic], ch)
	return ch
}

func (ps *PubSub[T]) Publish(topic string, data T) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	for _, ch := range ps.subs[topic] {
		select {
		case ch <- data:
		default:
			// slow subscriber, drop
		}
	}
}
