// Package memory provides the in-memory implementation of network/api's
// Backend: the network façade that composes the thread/channel/process
// registries, the wait map, and the channel dependency graph, and executes
// the wait_thread / channel_signal protocol with cycle rejection and
// rollback.
//
// Grounded on the teacher's roothash/memory/memory.go: a single mutex
// guarding an in-memory backend struct, a logger and metrics collector
// hung off it, and a pubsub-style notifier fired after each successful
// channel_signal, while the lock is still held (each subscriber's
// unbounded buffer keeps that from blocking).
package memory

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/oasisprotocol/ccnet/common/logging"
	"github.com/oasisprotocol/ccnet/common/metrics"
	"github.com/oasisprotocol/ccnet/common/notify"
	"github.com/oasisprotocol/ccnet/network/api"
	"github.com/oasisprotocol/ccnet/network/graph"
	"github.com/oasisprotocol/ccnet/network/waitmap"
)

var _ api.Backend = (*Network)(nil)

var logger = logging.GetLogger("network/memory")

// Network is the concrete, in-memory network façade. It is single-threaded
// cooperative internally (SPEC section 5): every exported method takes the
// same mutex for its entire duration, and no method suspends.
type Network struct {
	logger  *logging.Logger
	metrics *metrics.Collector
	wakeups *notify.Broker

	mu sync.Mutex

	threads   map[api.ThreadID]*api.Thread
	channels  map[api.ChannelID]*api.Channel
	processes map[api.ProcessID]*api.Process

	waitMap *waitmap.WaitMap
	graph   *graph.Graph

	nextThread  api.ThreadID
	nextChannel api.ChannelID
	nextProcess api.ProcessID
}

// New constructs an empty Network. reg may be nil, in which case metrics
// are collected but never registered for export.
func New(reg prometheus.Registerer) *Network {
	g := graph.New()
	return &Network{
		logger:    logger,
		metrics:   metrics.NewCollector(reg),
		wakeups:   notify.NewBroker(),
		threads:   make(map[api.ThreadID]*api.Thread),
		channels:  make(map[api.ChannelID]*api.Channel),
		processes: make(map[api.ProcessID]*api.Process),
		waitMap:   waitmap.New(g),
		graph:     g,
	}
}

// Subscribe returns a subscription to every wakeup event the network
// produces via channel_signal, for callers that want to observe activity
// without polling CheckInvariants or re-querying thread state.
func (n *Network) Subscribe() *notify.Subscription {
	return n.wakeups.Subscribe()
}

func (n *Network) nextThreadID() api.ThreadID {
	n.nextThread++
	if n.nextThread == 0 {
		n.logger.Fatal("thread id space exhausted")
	}
	return n.nextThread
}

func (n *Network) nextChannelID() api.ChannelID {
	n.nextChannel++
	if n.nextChannel == 0 {
		n.logger.Fatal("channel id space exhausted")
	}
	return n.nextChannel
}

func (n *Network) nextProcessID() api.ProcessID {
	n.nextProcess++
	if n.nextProcess == 0 {
		n.logger.Fatal("process id space exhausted")
	}
	return n.nextProcess
}
