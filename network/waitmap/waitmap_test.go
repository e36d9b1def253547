package waitmap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oasisprotocol/ccnet/network/api"
	"github.com/oasisprotocol/ccnet/network/graph"
)

func newTestWaitMap() *WaitMap {
	return New(graph.New())
}

func TestAddChannelReportsWhetherNew(t *testing.T) {
	w := newTestWaitMap()
	require.True(t, w.AddChannel(1, nil))
	require.False(t, w.AddChannel(1, nil), "re-registering an existing channel must report false")
}

func TestAddWaiterPolarityIsChannelAlreadyExisted(t *testing.T) {
	w := newTestWaitMap()

	// Channel 1 is not yet registered: AddWaiter must report false ("had
	// to be created"), per the normalisation documented in DESIGN.md.
	existed := w.AddWaiter(1, 100)
	require.False(t, existed)

	// Now it exists: a second waiter reports true.
	existed = w.AddWaiter(1, 200)
	require.True(t, existed)
}

func TestRemoveWaiterRetainsEmptyChannelEntry(t *testing.T) {
	w := newTestWaitMap()
	w.AddWaiter(1, 100)

	require.True(t, w.RemoveWaiter(1, 100))
	require.False(t, w.RemoveWaiter(1, 100), "removing an absent waiter reports false")

	// The channel's graph node must persist even though its waiter set is
	// now empty — the deliberate override of the source's literal
	// behaviour.
	_, ok := w.GraphNode(1)
	require.True(t, ok)
	require.True(t, w.Registered(1))
}

func TestRemoveThreadIsIdempotentAcrossChannels(t *testing.T) {
	w := newTestWaitMap()
	w.AddWaiter(1, 100)
	w.AddWaiter(2, 100)

	w.RemoveThread(100)
	require.Empty(t, w.Waiters(1))
	require.Empty(t, w.Waiters(2))

	// Second call on an already-removed thread must not panic.
	w.RemoveThread(100)
}

func TestIsFullyLockedRequiresEveryParticipantWaiting(t *testing.T) {
	w := newTestWaitMap()
	participants := map[api.ThreadID]struct{}{100: {}, 200: {}}

	require.False(t, w.IsFullyLocked(participants))

	w.AddWaiter(1, 100)
	require.False(t, w.IsFullyLocked(participants), "200 has not waited anywhere yet")

	w.AddWaiter(2, 200)
	require.True(t, w.IsFullyLocked(participants))
}

func TestAddChannelRelationSelfLoopRejected(t *testing.T) {
	w := newTestWaitMap()
	w.AddChannel(1, nil)

	_, err := w.AddChannelRelation(1, 1)
	require.ErrorIs(t, err, api.ErrDeadlockWouldForm)
}

func TestAddChannelRelationNotFound(t *testing.T) {
	w := newTestWaitMap()
	w.AddChannel(1, nil)

	_, err := w.AddChannelRelation(1, 2)
	require.ErrorIs(t, err, api.ErrNotFound)
}

func TestChannelRelationRoundTrip(t *testing.T) {
	w := newTestWaitMap()
	w.AddChannel(1, nil)
	w.AddChannel(2, nil)

	added, err := w.AddChannelRelation(1, 2)
	require.NoError(t, err)
	require.True(t, added)

	require.True(t, w.RemoveChannelRelation(1, 2))
	require.False(t, w.RemoveChannelRelation(1, 2))

	added, err = w.AddChannelRelation(1, 2)
	require.NoError(t, err)
	require.True(t, added)
}

func TestRemoveChannelRefusesWhileWaitersRemain(t *testing.T) {
	w := newTestWaitMap()
	w.AddWaiter(1, 100)

	ok, err := w.RemoveChannel(1)
	require.NoError(t, err)
	require.False(t, ok)

	w.RemoveWaiter(1, 100)
	ok, err = w.RemoveChannel(1)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = w.RemoveChannel(1)
	require.ErrorIs(t, err, api.ErrNotFound)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	w := newTestWaitMap()
	w.AddChannel(1, nil)
	w.AddChannel(2, nil)
	w.AddWaiter(1, 100)
	_, err := w.AddChannelRelation(1, 2)
	require.NoError(t, err)

	chanWaiters, chanNode, threadEdges, graphNext, graphEdges := w.Snapshot()

	w2 := newTestWaitMap()
	w2.Restore(chanWaiters, chanNode, threadEdges, graphNext, graphEdges)

	require.Equal(t, w.Waiters(1), w2.Waiters(1))
	node1, ok1 := w.GraphNode(1)
	node2, ok2 := w2.GraphNode(1)
	require.Equal(t, ok1, ok2)
	require.Equal(t, node1, node2)

	_, err = w2.AddChannelRelation(2, 1)
	require.ErrorIs(t, err, api.ErrDeadlockWouldForm, "restored graph must still reject the closing edge")
}
