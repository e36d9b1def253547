// Package metrics provides the Prometheus instrumentation shared by the
// network façade. The teacher backend asserts its implementations are
// "MetricsMonitorable" (see roothash/memory/memory.go's
// `_ (api.MetricsMonitorable) = (*memoryRootHash)(nil)`); this package
// is where that expectation is actually discharged for this domain.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds every counter the network façade updates. A nil
// *Collector is valid and all of its methods are no-ops, so callers
// that don't care about metrics (most tests) can leave it unset.
type Collector struct {
	threadsCreated   prometheus.Counter
	threadsDestroyed prometheus.Counter

	channelsCreated   prometheus.Counter
	channelsDestroyed prometheus.Counter

	waitsAccepted prometheus.Counter
	waitsRejected prometheus.Counter

	signalsSent prometheus.Counter

	edgesAdded   prometheus.Counter
	edgesRemoved prometheus.Counter

	prereqFailures prometheus.Counter
}

// NewCollector constructs and registers a Collector against reg. Passing
// a nil registry is legal and yields an unregistered Collector, useful
// in tests that want the counters without a process-wide registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		threadsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ccnet_threads_created_total",
			Help: "Number of threads created.",
		}),
		threadsDestroyed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ccnet_threads_destroyed_total",
			Help: "Number of threads destroyed.",
		}),
		channelsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ccnet_channels_created_total",
			Help: "Number of channels created.",
		}),
		channelsDestroyed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ccnet_channels_destroyed_total",
			Help: "Number of channels destroyed.",
		}),
		waitsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ccnet_waits_accepted_total",
			Help: "Number of wait_thread calls that did not form a cycle.",
		}),
		waitsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ccnet_waits_rejected_total",
			Help: "Number of wait_thread calls rejected with DeadlockWouldForm.",
		}),
		signalsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ccnet_signals_sent_total",
			Help: "Number of channel_signal calls that completed.",
		}),
		edgesAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ccnet_graph_edges_added_total",
			Help: "Number of edges committed to the channel dependency graph.",
		}),
		edgesRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ccnet_graph_edges_removed_total",
			Help: "Number of edges removed from the channel dependency graph by wait_thread rollback.",
		}),
		prereqFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ccnet_prerequisite_check_failures_total",
			Help: "Number of verify_implementations calls that found missing prerequisites.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			c.threadsCreated, c.threadsDestroyed,
			c.channelsCreated, c.channelsDestroyed,
			c.waitsAccepted, c.waitsRejected,
			c.signalsSent,
			c.edgesAdded, c.edgesRemoved,
			c.prereqFailures,
		)
	}
	return c
}

// ThreadCreated records a new thread.
func (c *Collector) ThreadCreated() {
	if c == nil {
		return
	}
	c.threadsCreated.Inc()
}

// ThreadDestroyed records a thread removal.
func (c *Collector) ThreadDestroyed() {
	if c == nil {
		return
	}
	c.threadsDestroyed.Inc()
}

// ChannelCreated records a new channel.
func (c *Collector) ChannelCreated() {
	if c == nil {
		return
	}
	c.channelsCreated.Inc()
}

// ChannelDestroyed records a channel removal.
func (c *Collector) ChannelDestroyed() {
	if c == nil {
		return
	}
	c.channelsDestroyed.Inc()
}

// WaitAccepted records a wait_thread call that did not form a cycle.
func (c *Collector) WaitAccepted() {
	if c == nil {
		return
	}
	c.waitsAccepted.Inc()
}

// WaitRejected records a wait_thread call rejected as a would-be deadlock.
func (c *Collector) WaitRejected() {
	if c == nil {
		return
	}
	c.waitsRejected.Inc()
}

// SignalSent records a completed channel_signal call.
func (c *Collector) SignalSent() {
	if c == nil {
		return
	}
	c.signalsSent.Inc()
}

// EdgeAdded records a committed graph edge.
func (c *Collector) EdgeAdded() {
	if c == nil {
		return
	}
	c.edgesAdded.Inc()
}

// EdgeRemoved records a graph edge removed while rolling back a rejected
// wait_thread. Edges discharged when a waiting thread wakes, sleeps or is
// destroyed, or when a channel is destroyed, are not counted.
func (c *Collector) EdgeRemoved() {
	if c == nil {
		return
	}
	c.edgesRemoved.Inc()
}

// PrerequisiteFailure records a verify_implementations call that found
// at least one missing prerequisite.
func (c *Collector) PrerequisiteFailure() {
	if c == nil {
		return
	}
	c.prereqFailures.Inc()
}
