// Package graph implements the channel dependency graph: a directed graph
// over api.GraphNodeID with cycle-detecting edge insertion. An edge
// from -> to means "a thread blocked waiting on the from channel is
// simultaneously a participant in the to channel, so to cannot be signalled
// until from unblocks someone who can act on it." A cycle is a potential
// deadlock and is rejected at insertion time.
//
// Grounded on SPEC section 4.4 and section 9's design note on arena
// ownership: nodes are addressed by id in a plain map, never by pointer,
// so edges carry no interior mutability or shared ownership.
package graph

import (
	"github.com/oasisprotocol/ccnet/network/api"
)

type node struct {
	out map[api.GraphNodeID]struct{}
}

// Graph is an arena of nodes indexed by api.GraphNodeID.
type Graph struct {
	nodes map[api.GraphNodeID]*node
	next  api.GraphNodeID
}

// New constructs an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[api.GraphNodeID]*node),
	}
}

// AddNode allocates a new node and returns its id. Allocation is
// monotonically increasing from 1; overflow is a fatal precondition.
func (g *Graph) AddNode() api.GraphNodeID {
	g.next++
	if g.next == 0 {
		panic("graph: node id space exhausted")
	}
	g.nodes[g.next] = &node{out: make(map[api.GraphNodeID]struct{})}
	return g.next
}

// RemoveNode deletes id and every edge incident on it, in either
// direction. It reports whether id was present.
func (g *Graph) RemoveNode(id api.GraphNodeID) bool {
	if _, ok := g.nodes[id]; !ok {
		return false
	}
	delete(g.nodes, id)
	for _, n := range g.nodes {
		delete(n.out, id)
	}
	return true
}

// HasNode reports whether id is a node in the graph.
func (g *Graph) HasNode(id api.GraphNodeID) bool {
	_, ok := g.nodes[id]
	return ok
}

// AddRelation inserts the edge from -> to. Self-loops are rejected
// unconditionally as length-one cycles. If the edge already exists, this
// is a no-op returning (false, nil) ("already present, no change"). If
// inserting the edge would close a cycle, the tentative edge is removed
// and api.ErrDeadlockWouldForm is returned. On success, returns (true,
// nil).
func (g *Graph) AddRelation(from, to api.GraphNodeID) (bool, error) {
	if from == to {
		return false, api.ErrDeadlockWouldForm
	}
	fromNode, ok := g.nodes[from]
	if !ok {
		return false, api.ErrNotFound
	}
	if _, ok := g.nodes[to]; !ok {
		return false, api.ErrNotFound
	}
	if _, exists := fromNode.out[to]; exists {
		return false, nil
	}

	fromNode.out[to] = struct{}{}
	if g.reachable(to, from) {
		delete(fromNode.out, to)
		return false, api.ErrDeadlockWouldForm
	}
	return true, nil
}

// RemoveRelation removes the edge from -> to, if present. It reports
// whether the edge existed. Removal never affects acyclicity.
func (g *Graph) RemoveRelation(from, to api.GraphNodeID) bool {
	fromNode, ok := g.nodes[from]
	if !ok {
		return false
	}
	if _, exists := fromNode.out[to]; !exists {
		return false
	}
	delete(fromNode.out, to)
	return true
}

// reachable reports whether target is reachable from start by following
// out-edges, via breadth-first traversal. Traversal order never affects
// the result: cycle detection is commutative by construction.
func (g *Graph) reachable(start, target api.GraphNodeID) bool {
	if start == target {
		return true
	}
	visited := map[api.GraphNodeID]struct{}{start: {}}
	queue := []api.GraphNodeID{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		n, ok := g.nodes[cur]
		if !ok {
			continue
		}
		for next := range n.out {
			if next == target {
				return true
			}
			if _, seen := visited[next]; seen {
				continue
			}
			visited[next] = struct{}{}
			queue = append(queue, next)
		}
	}
	return false
}

// Snapshot returns the graph's next-id counter and its adjacency as plain
// maps and slices, suitable for CBOR encoding by a caller's state
// snapshot. It does not include node ids with no outgoing edges unless
// they are present as keys in the returned map with an empty slice.
func (g *Graph) Snapshot() (next api.GraphNodeID, edges map[api.GraphNodeID][]api.GraphNodeID) {
	edges = make(map[api.GraphNodeID][]api.GraphNodeID, len(g.nodes))
	for id, n := range g.nodes {
		outs := make([]api.GraphNodeID, 0, len(n.out))
		for to := range n.out {
			outs = append(outs, to)
		}
		edges[id] = outs
	}
	return g.next, edges
}

// Restore replaces the graph's contents with next and edges, as captured
// by a prior Snapshot call. It is meant to be called only on a freshly
// constructed Graph.
func (g *Graph) Restore(next api.GraphNodeID, edges map[api.GraphNodeID][]api.GraphNodeID) {
	g.next = next
	g.nodes = make(map[api.GraphNodeID]*node, len(edges))
	for id := range edges {
		g.nodes[id] = &node{out: make(map[api.GraphNodeID]struct{})}
	}
	for id, outs := range edges {
		for _, to := range outs {
			g.nodes[id].out[to] = struct{}{}
		}
	}
}

// Acyclic reports whether the graph currently contains no cycle. It is a
// diagnostic used by invariant checking, not part of the hot path: every
// mutating path already guarantees acyclicity incrementally.
func (g *Graph) Acyclic() bool {
	const (
		white = iota
		gray
		black
	)
	color := make(map[api.GraphNodeID]int, len(g.nodes))
	var visit func(api.GraphNodeID) bool
	visit = func(id api.GraphNodeID) bool {
		color[id] = gray
		for next := range g.nodes[id].out {
			switch color[next] {
			case gray:
				return false
			case white:
				if !visit(next) {
					return false
				}
			}
		}
		color[id] = black
		return true
	}
	for id := range g.nodes {
		if color[id] == white {
			if !visit(id) {
				return false
			}
		}
	}
	return true
}
