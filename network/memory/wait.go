package memory

import (
	"context"
	"errors"

	"github.com/oasisprotocol/ccnet/common/notify"
	"github.com/oasisprotocol/ccnet/common/tracing"
	"github.com/oasisprotocol/ccnet/network/api"
)

// WaitThread attempts to block t on c. See network/api.Backend for the
// contract; this is the hardest operation in the package and the single
// chokepoint through which a thread can ever enter WaitWithoutTimeout.
func (n *Network) WaitThread(t api.ThreadID, c api.ChannelID, timer bool) (err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	span, _ := tracing.StartSpan(context.Background(), "wait_thread")
	defer func() { tracing.FinishOutcome(span, outcomeLabel(err)) }()
	err = n.waitThreadLocked(t, c, timer)
	return err
}

// outcomeLabel reduces an operation's error into the short, stable label
// common/tracing.FinishOutcome expects to tag a span with.
func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, api.ErrNotFound):
		return "not_found"
	case errors.Is(err, api.ErrDeadlockWouldForm):
		return "deadlock"
	default:
		return "error"
	}
}

// waitThreadLocked is WaitThread's body, factored out so channel_signal can
// call it while already holding the mutex — the network's invariants
// require the signal's wakeups and the sender's wait to be one indivisible
// step.
func (n *Network) waitThreadLocked(t api.ThreadID, c api.ChannelID, timer bool) error {
	th, ok := n.threads[t]
	if !ok {
		return api.ErrNotFound
	}
	if _, ok := n.channels[c]; !ok {
		return api.ErrNotFound
	}

	if timer {
		// A timeout-bounded wait self-releases and never participates in
		// deadlock detection: no wait-map or graph changes at all.
		th.State = api.WaitWithTimeout(c)
		return nil
	}

	n.waitMap.AddWaiter(c, t)

	// Record exactly which edges this call inserts, so a rollback removes
	// only those — never a blind sweep over every channel t touches.
	var inserted []api.ChannelID
	for cPrime := range th.Channels {
		neighbour, ok := n.channels[cPrime]
		if !ok {
			continue
		}
		if !n.waitMap.IsFullyLocked(neighbour.Participants) {
			continue
		}
		added, err := n.waitMap.AddChannelRelation(cPrime, c)
		if err != nil {
			n.rollbackWait(t, c, inserted)
			n.metrics.WaitRejected()
			return api.ErrDeadlockWouldForm
		}
		if added {
			inserted = append(inserted, cPrime)
			n.metrics.EdgeAdded()
		}
	}

	// Record exactly which edges t now owns, so that whichever of
	// SleepThread / ActiveThread / ChannelSignal next moves t out of
	// WaitWithoutTimeout can discharge them via waitMap.RemoveThread,
	// per SPEC section 4.6.
	n.waitMap.RecordWaitEdges(t, c, inserted)
	th.State = api.WaitWithoutTimeout(c)
	n.metrics.WaitAccepted()
	return nil
}

// rollbackWait undoes the partial effects of a wait_thread call that was
// ultimately rejected: removes every edge the call itself inserted (not a
// resweep of every edge that happens to touch c), and drops the waiter
// registration, leaving the network exactly as it was before the call.
func (n *Network) rollbackWait(t api.ThreadID, c api.ChannelID, inserted []api.ChannelID) {
	for _, cPrime := range inserted {
		if n.waitMap.RemoveChannelRelation(cPrime, c) {
			n.metrics.EdgeRemoved()
		}
	}
	n.waitMap.RemoveWaiter(c, t)
}

// ChannelSignal wakes every participant of c whose state names c as its
// wait target, then blocks t by running the wait protocol on its behalf.
func (n *Network) ChannelSignal(t api.ThreadID, c api.ChannelID, timer bool) (woken []api.ThreadID, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	span, _ := tracing.StartSpan(context.Background(), "channel_signal")
	defer func() { tracing.FinishOutcome(span, outcomeLabel(err)) }()

	ch, ok := n.channels[c]
	if !ok {
		err = api.ErrNotFound
		return nil, err
	}
	if _, ok := ch.Participants[t]; !ok {
		err = api.ErrNotFound
		return nil, err
	}

	for p := range ch.Participants {
		pth, ok := n.threads[p]
		if !ok {
			continue
		}
		if !pth.State.IsWaiting() || pth.State.Channel != c {
			continue
		}
		if pth.State.Kind == api.StateWaitWithoutTimeout {
			// Discharges every graph edge committed on p's behalf while
			// it waited on c, not just p's waiter registration.
			n.waitMap.RemoveThread(p)
		}
		pth.State = api.Active()
		woken = append(woken, p)
	}

	// The sender now blocks awaiting the reply. A cycle rejection here
	// propagates to the caller; the wakeups already performed above are
	// not reverted, matching the documented rendezvous semantics.
	err = n.waitThreadLocked(t, c, timer)
	if err != nil {
		return woken, err
	}

	n.metrics.SignalSent()
	n.wakeups.Broadcast(notify.WakeupEvent{
		Channel: uint64(c),
		Sender:  uint64(t),
		Woken:   threadIDsToUint64(woken),
	})
	return woken, nil
}

func threadIDsToUint64(ids []api.ThreadID) []uint64 {
	out := make([]uint64, len(ids))
	for i, id := range ids {
		out[i] = uint64(id)
	}
	return out
}
