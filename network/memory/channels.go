package memory

import (
	"github.com/oasisprotocol/ccnet/network/api"
)

// NewChannel creates a channel with the given initial participants. A
// graph node is allocated immediately via wait_map.add_channel(id, ∅), per
// SPEC section 4.6, so the channel has dependency-graph standing from the
// moment it exists, before any thread ever waits on it. SPEC section 3
// requires a channel to have at least one participant (its creator) at
// creation, so an empty participant set is rejected.
func (n *Network) NewChannel(participants []api.ThreadID) (api.ChannelID, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(participants) == 0 {
		return 0, api.ErrNotFound
	}

	for _, t := range participants {
		if _, ok := n.threads[t]; !ok {
			return 0, api.ErrNotFound
		}
	}

	id := n.nextChannelID()
	ch := &api.Channel{Participants: make(map[api.ThreadID]struct{}, len(participants))}
	for _, t := range participants {
		ch.Participants[t] = struct{}{}
	}
	n.channels[id] = ch
	n.waitMap.AddChannel(id, nil)

	for _, t := range participants {
		n.threads[t].Channels[id] = struct{}{}
	}

	n.metrics.ChannelCreated()
	n.logger.Debug("channel created", "channel_id", id, "participants", len(participants))
	return id, nil
}

// DestroyChannel removes c and fans the removal out to its participants
// and the wait map.
func (n *Network) DestroyChannel(c api.ChannelID) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch, ok := n.channels[c]
	if !ok {
		return api.ErrNotFound
	}

	for t := range ch.Participants {
		if th, ok := n.threads[t]; ok {
			delete(th.Channels, c)
		}
	}
	// Waiters on c need not be participants of c (wait_thread does not
	// require it), so the waiter sweep is driven off the wait map's own
	// index rather than the participant set above.
	for t := range n.waitMap.Waiters(c) {
		if th, ok := n.threads[t]; ok && th.State.IsWaiting() && th.State.Channel == c {
			// Every registered waiter on c is in WaitWithoutTimeout (a
			// timer wait never registers with the wait map), so
			// RemoveThread also discharges any edges recorded on its
			// behalf before c's own node disappears.
			n.waitMap.RemoveThread(t)
			th.State = api.Sleep()
		}
	}
	n.waitMap.ForceRemoveChannel(c)

	delete(n.channels, c)
	n.metrics.ChannelDestroyed()
	n.logger.Debug("channel destroyed", "channel_id", c)
	return nil
}
