package memory

import (
	"github.com/oasisprotocol/ccnet/common/merr"
	"github.com/oasisprotocol/ccnet/network/api"
)

// CheckInvariants walks every entity map and reports any violation of the
// quantified invariants from SPEC section 8. It is a diagnostic: nothing
// in the mutating API depends on it, since every mutating path already
// maintains these invariants incrementally. Tests and cmd/ccnetctl call it
// after exercising the façade to catch a regression close to its cause.
func (n *Network) CheckInvariants() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	var errs merr.Collector

	// c ∈ t.channels ⇔ t ∈ participants(channels[c]).
	for tID, th := range n.threads {
		for cID := range th.Channels {
			ch, ok := n.channels[cID]
			if !ok {
				errs.Addf("thread %d references channel %d, which does not exist", tID, cID)
				continue
			}
			if _, ok := ch.Participants[tID]; !ok {
				errs.Addf("thread %d lists channel %d but is not a participant of it", tID, cID)
			}
		}
		if th.State.IsWaiting() {
			if _, ok := n.channels[th.State.Channel]; !ok {
				errs.Addf("thread %d waits on channel %d, which does not exist", tID, th.State.Channel)
			}
		}
	}
	for cID, ch := range n.channels {
		for tID := range ch.Participants {
			th, ok := n.threads[tID]
			if !ok {
				errs.Addf("channel %d lists participant thread %d, which does not exist", cID, tID)
				continue
			}
			if _, ok := th.Channels[cID]; !ok {
				errs.Addf("channel %d lists participant %d who does not list it back", cID, tID)
			}
		}
	}

	// t ∈ chan_waiters[c] ⇒ thread[t].state == WaitWithoutTimeout(c).
	for cID := range n.channels {
		for tID := range n.waitMap.Waiters(cID) {
			th, ok := n.threads[tID]
			if !ok {
				errs.Addf("wait map lists waiter %d on channel %d, which does not exist", tID, cID)
				continue
			}
			if th.State.Kind != api.StateWaitWithoutTimeout || th.State.Channel != cID {
				errs.Addf("thread %d is a registered waiter on channel %d but its state is %s", tID, cID, th.State)
			}
		}
		if _, ok := n.waitMap.GraphNode(cID); !ok {
			errs.Addf("channel %d has no graph node", cID)
		}
	}

	// The dependency graph must be acyclic at all times.
	if !n.graph.Acyclic() {
		errs.Addf("channel dependency graph contains a cycle")
	}

	return errs.Err()
}
