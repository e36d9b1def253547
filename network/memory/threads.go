package memory

import (
	"github.com/oasisprotocol/ccnet/network/api"
)

// NewThread registers a new thread owned by pid, created in Sleep state
// with an empty channel set per SPEC section 4.6.
func (n *Network) NewThread(pid api.ProcessID) (api.ThreadID, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	p, ok := n.processes[pid]
	if !ok {
		return 0, api.ErrNotFound
	}

	id := n.nextThreadID()
	n.threads[id] = api.NewThread()
	p.AttachThread(id)
	n.metrics.ThreadCreated()
	n.logger.Debug("thread created", "thread_id", id, "process_id", pid)
	return id, nil
}

// DestroyThread removes t from its process, from every channel's
// participant set, and from every wait-map index.
func (n *Network) DestroyThread(t api.ThreadID) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	th, ok := n.threads[t]
	if !ok {
		return api.ErrNotFound
	}

	for cID := range th.Channels {
		if ch, ok := n.channels[cID]; ok {
			ch.RemoveParticipant(t)
		}
	}
	n.waitMap.RemoveThread(t)

	for _, p := range n.processes {
		if p.DetachThread(t) {
			break
		}
	}

	delete(n.threads, t)
	n.metrics.ThreadDestroyed()
	n.logger.Debug("thread destroyed", "thread_id", t)
	return nil
}

// SleepThread transitions t to Sleep, discharging any dependency-graph
// edges it held under its prior WaitWithoutTimeout state.
func (n *Network) SleepThread(t api.ThreadID) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.setState(t, api.Sleep())
}

// ActiveThread transitions t to Active, discharging any dependency-graph
// edges it held under its prior WaitWithoutTimeout state.
func (n *Network) ActiveThread(t api.ThreadID) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.setState(t, api.Active())
}

// setState performs the shared body of sleep_thread / active_thread: per
// SPEC section 4.6, only a prior WaitWithoutTimeout state has graph edges
// to release; a prior WaitWithTimeout has none, and is otherwise handled
// identically (the state is simply overwritten — honoring the requested
// state is the fix SPEC section 9 calls for against the source's
// unconditional-Sleep typo). waitMap.RemoveThread both drops the waiter
// registration and removes every edge recorded for t via RecordWaitEdges,
// so a prior wait can never leave a stale edge behind.
func (n *Network) setState(t api.ThreadID, next api.ThreadState) error {
	th, ok := n.threads[t]
	if !ok {
		return api.ErrNotFound
	}
	if th.State.Kind == api.StateWaitWithoutTimeout {
		n.waitMap.RemoveThread(t)
	}
	th.State = next
	return nil
}
