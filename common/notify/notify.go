// Package notify implements a small broadcast broker used to let
// external observers watch the network "run" without polling.
//
// It is modeled on the teacher's use of a pubsub.Broker together with
// github.com/eapache/channels in roothash/memory/memory.go
// (`s.blockNotifier.Broadcast(blk)`, `sub.Unwrap(ch)`): each subscriber
// gets its own unbounded InfiniteChannel so a slow consumer can never
// block a signal delivery or the mutex-guarded façade that produced it.
package notify

import (
	"sync"

	"github.com/eapache/channels"
)

// WakeupEvent is broadcast after a successful channel_signal call.
type WakeupEvent struct {
	// Channel is the channel that was signalled.
	Channel uint64
	// Sender is the thread that performed the signal.
	Sender uint64
	// Woken lists every thread that transitioned to Active as a result.
	Woken []uint64
}

// Broker fans WakeupEvents out to any number of subscribers.
type Broker struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

// NewBroker constructs an empty Broker.
func NewBroker() *Broker {
	return &Broker{
		subs: make(map[*Subscription]struct{}),
	}
}

// Subscription is a single observer's handle on the Broker. Call
// Out() to receive events and Close() when done.
type Subscription struct {
	broker *Broker
	ch     *channels.InfiniteChannel
}

// Out returns the channel events arrive on.
func (s *Subscription) Out() <-chan interface{} {
	return s.ch.Out()
}

// Close unsubscribes and releases the underlying channel.
func (s *Subscription) Close() {
	s.broker.mu.Lock()
	delete(s.broker.subs, s)
	s.broker.mu.Unlock()
	s.ch.Close()
}

// Subscribe registers a new observer.
func (b *Broker) Subscribe() *Subscription {
	sub := &Subscription{
		broker: b,
		ch:     channels.NewInfiniteChannel(),
	}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Broadcast delivers ev to every current subscriber. It never blocks:
// each subscriber's InfiniteChannel buffers unboundedly, matching the
// teacher's rationale for using an unbounded channel on the block/event
// notifier paths.
func (b *Broker) Broadcast(ev WakeupEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		sub.ch.In() <- ev
	}
}
