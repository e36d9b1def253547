package memory

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/oasisprotocol/ccnet/ifaces"
	"github.com/oasisprotocol/ccnet/network/api"
	"github.com/oasisprotocol/ccnet/network/graph"
	"github.com/oasisprotocol/ccnet/network/waitmap"
	"github.com/oasisprotocol/ccnet/pathkey"
)

// threadDTO, channelDTO, and processDTO are the CBOR-friendly shapes of
// api.Thread, api.Channel, and api.Process: plain slices in place of sets,
// so the wire shape does not depend on Go map iteration order.
type threadDTO struct {
	StateKind    api.ThreadStateKind
	StateChannel api.ChannelID
	Channels     []api.ChannelID
}

type channelDTO struct {
	Participants []api.ThreadID
}

type processDTO struct {
	Path        string
	Threads     []api.ThreadID
	Implemented []ifaces.Key
}

// snapshotDTO is the full wire shape of a Network's state. It deliberately
// excludes anything this package treats as a non-goal: no payloads, no
// timers, no scheduling state beyond the tagged ThreadState itself.
type snapshotDTO struct {
	NextThread  api.ThreadID
	NextChannel api.ChannelID
	NextProcess api.ProcessID

	Threads   map[api.ThreadID]threadDTO
	Channels  map[api.ChannelID]channelDTO
	Processes map[api.ProcessID]processDTO

	WaitChanWaiters map[api.ChannelID][]api.ThreadID
	WaitChanNode    map[api.ChannelID]api.GraphNodeID
	WaitThreadEdges map[api.ThreadID][]waitmap.ThreadEdge
	GraphNext       api.GraphNodeID
	GraphEdges      map[api.GraphNodeID][]api.GraphNodeID
}

// Snapshot encodes the network's entire state to CBOR. This is an
// in-memory, point-in-time capture for tests and demos — it is not a
// persistence layer: nothing here touches disk, and there is no versioning
// or migration story beyond the encoding itself.
func (n *Network) Snapshot() ([]byte, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	dto := snapshotDTO{
		NextThread:  n.nextThread,
		NextChannel: n.nextChannel,
		NextProcess: n.nextProcess,
		Threads:     make(map[api.ThreadID]threadDTO, len(n.threads)),
		Channels:    make(map[api.ChannelID]channelDTO, len(n.channels)),
		Processes:   make(map[api.ProcessID]processDTO, len(n.processes)),
	}

	for id, th := range n.threads {
		channels := make([]api.ChannelID, 0, len(th.Channels))
		for c := range th.Channels {
			channels = append(channels, c)
		}
		dto.Threads[id] = threadDTO{
			StateKind:    th.State.Kind,
			StateChannel: th.State.Channel,
			Channels:     channels,
		}
	}
	for id, ch := range n.channels {
		participants := make([]api.ThreadID, 0, len(ch.Participants))
		for t := range ch.Participants {
			participants = append(participants, t)
		}
		dto.Channels[id] = channelDTO{Participants: participants}
	}
	for id, p := range n.processes {
		threads := make([]api.ThreadID, 0, len(p.Threads))
		for t := range p.Threads {
			threads = append(threads, t)
		}
		implemented := make([]ifaces.Key, 0, len(p.Implemented))
		for k := range p.Implemented {
			implemented = append(implemented, k)
		}
		dto.Processes[id] = processDTO{
			Path:        p.Path.String(),
			Threads:     threads,
			Implemented: implemented,
		}
	}

	dto.WaitChanWaiters, dto.WaitChanNode, dto.WaitThreadEdges, dto.GraphNext, dto.GraphEdges = n.waitMap.Snapshot()

	return cbor.Marshal(dto)
}

// RestoreSnapshot replaces the network's entire state with the contents of
// a prior Snapshot. It must be called before any other call on n from any
// goroutine — it does not merge with existing state.
func (n *Network) RestoreSnapshot(data []byte) error {
	var dto snapshotDTO
	if err := cbor.Unmarshal(data, &dto); err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextThread = dto.NextThread
	n.nextChannel = dto.NextChannel
	n.nextProcess = dto.NextProcess

	n.threads = make(map[api.ThreadID]*api.Thread, len(dto.Threads))
	for id, t := range dto.Threads {
		channels := make(map[api.ChannelID]struct{}, len(t.Channels))
		for _, c := range t.Channels {
			channels[c] = struct{}{}
		}
		n.threads[id] = &api.Thread{
			State: api.ThreadState{
				Kind:    t.StateKind,
				Channel: t.StateChannel,
			},
			Channels: channels,
		}
	}

	n.channels = make(map[api.ChannelID]*api.Channel, len(dto.Channels))
	for id, c := range dto.Channels {
		participants := make(map[api.ThreadID]struct{}, len(c.Participants))
		for _, t := range c.Participants {
			participants[t] = struct{}{}
		}
		n.channels[id] = &api.Channel{Participants: participants}
	}

	n.processes = make(map[api.ProcessID]*api.Process, len(dto.Processes))
	for id, p := range dto.Processes {
		threads := make(map[api.ThreadID]struct{}, len(p.Threads))
		for _, t := range p.Threads {
			threads[t] = struct{}{}
		}
		implemented := make(map[ifaces.Key]struct{}, len(p.Implemented))
		for _, k := range p.Implemented {
			implemented[k] = struct{}{}
		}
		n.processes[id] = &api.Process{
			Path:        pathkey.Path(p.Path),
			Threads:     threads,
			Implemented: implemented,
		}
	}

	n.graph = graph.New()
	n.waitMap = waitmap.New(n.graph)
	n.waitMap.Restore(dto.WaitChanWaiters, dto.WaitChanNode, dto.WaitThreadEdges, dto.GraphNext, dto.GraphEdges)

	return nil
}
