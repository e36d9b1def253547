// Package waitmap implements the wait map: the three coupled indices from
// SPEC section 4.5 that mediate every mutation of the channel dependency
// graph. It is the sole caller of network/graph's edge operations; nothing
// else touches the graph directly.
//
// Grounded on _examples/original_source/src/wait.rs and
// _examples/original_source/src/channels/mod.rs, with one deliberate
// override: the source's remove_waiter deletes a channel's map entry once
// its waiter set empties, but SPEC section 4.5 requires retaining the
// (possibly empty) entry so its graph node persists for as long as the
// channel itself does. See DESIGN.md for the add_waiter polarity this
// package normalises on.
package waitmap

import (
	"github.com/oasisprotocol/ccnet/network/api"
	"github.com/oasisprotocol/ccnet/network/graph"
)

// ThreadEdge is one channel-dependency-graph edge (From -> To) that was
// committed to the graph on behalf of a particular thread's wait. WaitMap
// tracks these per thread so RemoveThread can discharge exactly the edges
// that thread is responsible for, rather than leaving them stranded once
// the thread stops waiting.
type ThreadEdge struct {
	From, To api.ChannelID
}

// WaitMap couples channel<->waiter membership to the channel dependency
// graph. The zero value is not usable; construct with New.
type WaitMap struct {
	chanWaiters map[api.ChannelID]map[api.ThreadID]struct{}
	thrChannels map[api.ThreadID]map[api.ChannelID]struct{}
	chanNode    map[api.ChannelID]api.GraphNodeID
	threadEdges map[api.ThreadID][]ThreadEdge
	graph       *graph.Graph
}

// New constructs a WaitMap backed by g. g is owned exclusively by the
// returned WaitMap from this point on.
func New(g *graph.Graph) *WaitMap {
	return &WaitMap{
		chanWaiters: make(map[api.ChannelID]map[api.ThreadID]struct{}),
		thrChannels: make(map[api.ThreadID]map[api.ChannelID]struct{}),
		chanNode:    make(map[api.ChannelID]api.GraphNodeID),
		threadEdges: make(map[api.ThreadID][]ThreadEdge),
		graph:       g,
	}
}

// AddChannel registers c with an initial waiter set, allocating its graph
// node. If c is already registered, the existing entry is left unchanged
// and AddChannel reports false ("not added"); otherwise it reports true.
func (w *WaitMap) AddChannel(c api.ChannelID, waiters map[api.ThreadID]struct{}) bool {
	if _, present := w.chanNode[c]; present {
		return false
	}
	w.chanNode[c] = w.graph.AddNode()
	set := make(map[api.ThreadID]struct{}, len(waiters))
	for t := range waiters {
		set[t] = struct{}{}
		w.mirrorIntoThread(t, c)
	}
	w.chanWaiters[c] = set
	return true
}

// RemoveChannel releases c's graph node and deletes its entry, provided it
// currently has no waiters. It reports (false, api.ErrNotFound) if c is
// not registered, (false, nil) if c still has waiters, and (true, nil) on
// success.
func (w *WaitMap) RemoveChannel(c api.ChannelID) (bool, error) {
	node, ok := w.chanNode[c]
	if !ok {
		return false, api.ErrNotFound
	}
	if len(w.chanWaiters[c]) > 0 {
		return false, nil
	}
	delete(w.chanWaiters, c)
	delete(w.chanNode, c)
	w.graph.RemoveNode(node)
	return true, nil
}

// AddWaiter inserts t into chan_waiters[c] and c into thr_channels[t],
// creating either entry as needed (including allocating a graph node for c
// if it was not already registered). The return value reports whether c
// was already registered prior to this call.
func (w *WaitMap) AddWaiter(c api.ChannelID, t api.ThreadID) bool {
	_, existed := w.chanNode[c]
	if !existed {
		w.chanNode[c] = w.graph.AddNode()
	}
	if w.chanWaiters[c] == nil {
		w.chanWaiters[c] = make(map[api.ThreadID]struct{})
	}
	w.chanWaiters[c][t] = struct{}{}
	w.mirrorIntoThread(t, c)
	return existed
}

// RemoveWaiter removes t from c's waiter set, reporting whether t was
// present. The channel's entry (and graph node) is retained even if the
// waiter set becomes empty, so long as the channel itself is still
// registered — a deliberate deviation from the source, per SPEC section
// 4.5.
func (w *WaitMap) RemoveWaiter(c api.ChannelID, t api.ThreadID) bool {
	set, ok := w.chanWaiters[c]
	if !ok {
		return false
	}
	_, present := set[t]
	delete(set, t)
	if thrSet, ok := w.thrChannels[t]; ok {
		delete(thrSet, c)
		if len(thrSet) == 0 {
			delete(w.thrChannels, t)
		}
	}
	return present
}

// RecordWaitEdges associates the edges (each from -> waitChannel) that were
// actually committed to the dependency graph while t entered
// WaitWithoutTimeout on waitChannel, so a later RemoveThread can discharge
// them. It replaces any edges previously recorded for t — a thread can
// hold edges on behalf of only one wait at a time — and clears the entry
// if froms is empty. Callers must pass only the froms an AddChannelRelation
// call genuinely inserted (per SPEC section 9), never every channel t
// touches.
func (w *WaitMap) RecordWaitEdges(t api.ThreadID, waitChannel api.ChannelID, froms []api.ChannelID) {
	if len(froms) == 0 {
		delete(w.threadEdges, t)
		return
	}
	edges := make([]ThreadEdge, len(froms))
	for i, from := range froms {
		edges[i] = ThreadEdge{From: from, To: waitChannel}
	}
	w.threadEdges[t] = edges
}

// RemoveThread drops t from every channel's waiter set, removes
// thr_channels[t] entirely, and discharges every graph edge recorded on
// t's behalf via RecordWaitEdges — this is the "drop any graph edges that
// had been added on behalf of this thread's prior wait" SPEC section 4.6
// requires of sleep_thread/active_thread/channel_signal's wakeups.
// Idempotent: calling it again on an already absent thread is a no-op.
func (w *WaitMap) RemoveThread(t api.ThreadID) {
	for c := range w.thrChannels[t] {
		delete(w.chanWaiters[c], t)
	}
	delete(w.thrChannels, t)
	for _, e := range w.threadEdges[t] {
		w.RemoveChannelRelation(e.From, e.To)
	}
	delete(w.threadEdges, t)
}

// ForceRemoveChannel unconditionally clears c's waiter set and releases
// its graph node, regardless of whether waiters remain. It is used only by
// channel teardown, which has already decided to drop every reference to
// c; RemoveChannel is the polite, refuse-if-still-waited-on counterpart
// used everywhere else.
func (w *WaitMap) ForceRemoveChannel(c api.ChannelID) {
	node, ok := w.chanNode[c]
	if !ok {
		return
	}
	for t := range w.chanWaiters[c] {
		if thrSet, ok := w.thrChannels[t]; ok {
			delete(thrSet, c)
			if len(thrSet) == 0 {
				delete(w.thrChannels, t)
			}
		}
	}
	delete(w.chanWaiters, c)
	delete(w.chanNode, c)
	w.graph.RemoveNode(node)
}

// AddChannelRelation looks up the graph nodes for from and to and adds the
// edge from -> to via the underlying graph, propagating
// api.ErrDeadlockWouldForm verbatim. Returns api.ErrNotFound if either
// channel is unregistered.
func (w *WaitMap) AddChannelRelation(from, to api.ChannelID) (bool, error) {
	fromNode, ok := w.chanNode[from]
	if !ok {
		return false, api.ErrNotFound
	}
	toNode, ok := w.chanNode[to]
	if !ok {
		return false, api.ErrNotFound
	}
	return w.graph.AddRelation(fromNode, toNode)
}

// RemoveChannelRelation is the symmetric removal of AddChannelRelation. It
// reports false if either channel is unregistered or the edge did not
// exist.
func (w *WaitMap) RemoveChannelRelation(from, to api.ChannelID) bool {
	fromNode, ok := w.chanNode[from]
	if !ok {
		return false
	}
	toNode, ok := w.chanNode[to]
	if !ok {
		return false
	}
	return w.graph.RemoveRelation(fromNode, toNode)
}

// Waiters returns a snapshot copy of the threads currently waiting on c.
func (w *WaitMap) Waiters(c api.ChannelID) map[api.ThreadID]struct{} {
	out := make(map[api.ThreadID]struct{}, len(w.chanWaiters[c]))
	for t := range w.chanWaiters[c] {
		out[t] = struct{}{}
	}
	return out
}

// IsFullyLocked reports whether every thread in participants is currently
// a waiter on some channel registered in this wait map — the condition
// SPEC section 4.6 step 4 requires before an edge is added on a channel's
// behalf.
func (w *WaitMap) IsFullyLocked(participants map[api.ThreadID]struct{}) bool {
	for t := range participants {
		if len(w.thrChannels[t]) == 0 {
			return false
		}
		if !w.isWaiterSomewhere(t) {
			return false
		}
	}
	return true
}

func (w *WaitMap) isWaiterSomewhere(t api.ThreadID) bool {
	for c := range w.thrChannels[t] {
		if _, ok := w.chanWaiters[c][t]; ok {
			return true
		}
	}
	return false
}

// GraphNode returns the graph node id associated with c, if registered.
func (w *WaitMap) GraphNode(c api.ChannelID) (api.GraphNodeID, bool) {
	id, ok := w.chanNode[c]
	return id, ok
}

// Registered reports whether c has a wait-map entry.
func (w *WaitMap) Registered(c api.ChannelID) bool {
	_, ok := w.chanNode[c]
	return ok
}

// Snapshot returns the wait map's indices as plain, CBOR-friendly values
// (chan_waiters and chan_node; thr_channels is derivable from chan_waiters
// so it is not duplicated), the per-thread edge ledger RemoveThread
// consults, and the underlying graph's own snapshot.
func (w *WaitMap) Snapshot() (chanWaiters map[api.ChannelID][]api.ThreadID, chanNode map[api.ChannelID]api.GraphNodeID, threadEdges map[api.ThreadID][]ThreadEdge, graphNext api.GraphNodeID, graphEdges map[api.GraphNodeID][]api.GraphNodeID) {
	chanWaiters = make(map[api.ChannelID][]api.ThreadID, len(w.chanWaiters))
	for c, set := range w.chanWaiters {
		ts := make([]api.ThreadID, 0, len(set))
		for t := range set {
			ts = append(ts, t)
		}
		chanWaiters[c] = ts
	}
	chanNode = make(map[api.ChannelID]api.GraphNodeID, len(w.chanNode))
	for c, id := range w.chanNode {
		chanNode[c] = id
	}
	threadEdges = make(map[api.ThreadID][]ThreadEdge, len(w.threadEdges))
	for t, edges := range w.threadEdges {
		cp := make([]ThreadEdge, len(edges))
		copy(cp, edges)
		threadEdges[t] = cp
	}
	graphNext, graphEdges = w.graph.Snapshot()
	return
}

// Restore replaces the wait map's contents, and its graph's, from a prior
// Snapshot. It is meant to be called only on a freshly constructed
// WaitMap.
func (w *WaitMap) Restore(chanWaitersIn map[api.ChannelID][]api.ThreadID, chanNodeIn map[api.ChannelID]api.GraphNodeID, threadEdgesIn map[api.ThreadID][]ThreadEdge, graphNext api.GraphNodeID, graphEdges map[api.GraphNodeID][]api.GraphNodeID) {
	w.graph.Restore(graphNext, graphEdges)

	w.chanNode = make(map[api.ChannelID]api.GraphNodeID, len(chanNodeIn))
	for c, id := range chanNodeIn {
		w.chanNode[c] = id
	}

	w.chanWaiters = make(map[api.ChannelID]map[api.ThreadID]struct{}, len(chanWaitersIn))
	w.thrChannels = make(map[api.ThreadID]map[api.ChannelID]struct{})
	for c, ts := range chanWaitersIn {
		set := make(map[api.ThreadID]struct{}, len(ts))
		for _, t := range ts {
			set[t] = struct{}{}
			w.mirrorIntoThread(t, c)
		}
		w.chanWaiters[c] = set
	}

	w.threadEdges = make(map[api.ThreadID][]ThreadEdge, len(threadEdgesIn))
	for t, edges := range threadEdgesIn {
		cp := make([]ThreadEdge, len(edges))
		copy(cp, edges)
		w.threadEdges[t] = cp
	}
}

func (w *WaitMap) mirrorIntoThread(t api.ThreadID, c api.ChannelID) {
	if w.thrChannels[t] == nil {
		w.thrChannels[t] = make(map[api.ChannelID]struct{})
	}
	w.thrChannels[t][c] = struct{}{}
}
