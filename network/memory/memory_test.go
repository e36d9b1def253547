package memory

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oasisprotocol/ccnet/ifaces"
	"github.com/oasisprotocol/ccnet/network/api"
	"github.com/oasisprotocol/ccnet/pathkey"
)

func newTestNetwork(t *testing.T) *Network {
	t.Helper()
	return New(nil)
}

// setupTriangle builds the three-channel setup used by scenarios 1 and 3:
// p1 owns t1, t2; p2 owns t3. c12={t1,t2}, c23={t2,t3}, c31={t3,t1}.
func setupTriangle(t *testing.T, n *Network) (t1, t2, t3 api.ThreadID, c12, c23, c31 api.ChannelID) {
	t.Helper()

	p1 := n.NewProcess(pathkey.New("p1"))
	p2 := n.NewProcess(pathkey.New("p2"))

	var err error
	t1, err = n.NewThread(p1)
	require.NoError(t, err)
	t2, err = n.NewThread(p1)
	require.NoError(t, err)
	t3, err = n.NewThread(p2)
	require.NoError(t, err)

	c12, err = n.NewChannel([]api.ThreadID{t1, t2})
	require.NoError(t, err)
	c23, err = n.NewChannel([]api.ThreadID{t2, t3})
	require.NoError(t, err)
	c31, err = n.NewChannel([]api.ThreadID{t3, t1})
	require.NoError(t, err)
	return
}

// Scenario 1: three-channel cycle rejection.
func TestThreeChannelCycleRejection(t *testing.T) {
	n := newTestNetwork(t)
	t1, t2, t3, c12, c23, c31 := setupTriangle(t, n)

	require.NoError(t, n.WaitThread(t1, c12, false))
	require.NoError(t, n.WaitThread(t2, c23, false))

	err := n.WaitThread(t3, c31, false)
	require.ErrorIs(t, err, api.ErrDeadlockWouldForm)

	node12, ok := n.waitMap.GraphNode(c12)
	require.True(t, ok)
	node23, ok := n.waitMap.GraphNode(c23)
	require.True(t, ok)
	node31, ok := n.waitMap.GraphNode(c31)
	require.True(t, ok)

	// Only the edge introduced by t2's wait (c12 -> c23) exists: t1's wait
	// found no fully locked channel and added none, and the rejected
	// wait left no edge behind.
	_, err = n.graph.AddRelation(node12, node23)
	require.NoError(t, err) // already present => no error, no-op
	added, err := n.graph.AddRelation(node23, node31)
	require.NoError(t, err)
	require.True(t, added, "c23 -> c31 must not already exist")
	// Undo the probe edge we just added for the assertion above.
	n.graph.RemoveRelation(node23, node31)

	require.NoError(t, n.CheckInvariants())
}

// Scenario 2: self-loop rejection.
func TestSelfLoopRejection(t *testing.T) {
	n := newTestNetwork(t)
	p := n.NewProcess(pathkey.New("p"))
	t1, err := n.NewThread(p)
	require.NoError(t, err)
	t2, err := n.NewThread(p)
	require.NoError(t, err)
	c, err := n.NewChannel([]api.ThreadID{t1, t2})
	require.NoError(t, err)

	_, err = n.waitMap.AddChannelRelation(c, c)
	require.ErrorIs(t, err, api.ErrDeadlockWouldForm)
}

// Scenario 3: timer wait bypasses cycle check.
func TestTimerWaitBypassesCycleCheck(t *testing.T) {
	n := newTestNetwork(t)
	t1, t2, t3, c12, c23, c31 := setupTriangle(t, n)

	require.NoError(t, n.WaitThread(t1, c12, false))
	require.NoError(t, n.WaitThread(t2, c23, false))

	require.NoError(t, n.WaitThread(t3, c31, true))

	th3 := n.threads[t3]
	require.Equal(t, api.StateWaitWithTimeout, th3.State.Kind)
	require.Equal(t, c31, th3.State.Channel)

	// No edge was added on c31's behalf: c31's graph node has no
	// outgoing relation to c12, despite t3's channel set containing c31
	// (not fully locked) — and the timer path skips the sweep entirely.
	node31, ok := n.waitMap.GraphNode(c31)
	require.True(t, ok)
	node12, ok := n.waitMap.GraphNode(c12)
	require.True(t, ok)
	added, err := n.graph.AddRelation(node31, node12)
	require.NoError(t, err)
	require.True(t, added, "c31 -> c12 must not already exist after a timer wait")
	n.graph.RemoveRelation(node31, node12)
}

// Scenario 4: signal wakes only matching waiters.
func TestSignalWakesOnlyMatchingWaiters(t *testing.T) {
	n := newTestNetwork(t)
	p := n.NewProcess(pathkey.New("p"))
	t1, err := n.NewThread(p)
	require.NoError(t, err)
	t2, err := n.NewThread(p)
	require.NoError(t, err)
	t3, err := n.NewThread(p)
	require.NoError(t, err)
	c, err := n.NewChannel([]api.ThreadID{t1, t2, t3})
	require.NoError(t, err)

	require.NoError(t, n.WaitThread(t1, c, false))
	require.NoError(t, n.WaitThread(t2, c, false))

	woken, err := n.ChannelSignal(t3, c, false)
	require.NoError(t, err)
	require.ElementsMatch(t, []api.ThreadID{t1, t2}, woken)

	require.Equal(t, api.StateActive, n.threads[t1].State.Kind)
	require.Equal(t, api.StateActive, n.threads[t2].State.Kind)
	require.Equal(t, api.StateWaitWithoutTimeout, n.threads[t3].State.Kind)
	require.Equal(t, c, n.threads[t3].State.Channel)
}

// Scenario 5: prerequisite verification.
func TestPrerequisiteVerification(t *testing.T) {
	n := newTestNetwork(t)
	p := n.NewProcess(pathkey.New("p"))

	path := pathkey.New("iface")
	keyI := ifaces.NewKey(path.Child("I"), ifaces.Version{Major: 1})
	keyJ := ifaces.NewKey(path.Child("J"), ifaces.Version{Major: 1})
	keyK := ifaces.NewKey(path.Child("K"), ifaces.Version{Major: 1})

	ifaceI := ifaces.NewInterface()
	ifaceI.AddPrerequisite(keyJ)
	ifaceI.AddPrerequisite(keyK)
	lookup := ifaces.MapLookup{
		keyI: ifaceI,
		keyJ: ifaces.NewInterface(),
		keyK: ifaces.NewInterface(),
	}

	require.NoError(t, n.AddImplementation(p, keyI))
	require.NoError(t, n.AddImplementation(p, keyJ))

	err := n.VerifyImplementations(p, lookup)
	require.Error(t, err)
	var mpErr *api.MissingPrerequisiteError
	require.ErrorAs(t, err, &mpErr)
	require.Equal(t, []ifaces.Key{keyK}, mpErr.MissingKeys())
}

// Scenario 6 (path ordering) is exercised directly in pathkey's own tests;
// nothing in this package adds to it.

func TestWaitThreadNotFound(t *testing.T) {
	n := newTestNetwork(t)
	p := n.NewProcess(pathkey.New("p"))
	t1, err := n.NewThread(p)
	require.NoError(t, err)

	err = n.WaitThread(t1, api.ChannelID(9999), false)
	require.ErrorIs(t, err, api.ErrNotFound)

	err = n.WaitThread(api.ThreadID(9999), 1, false)
	require.ErrorIs(t, err, api.ErrNotFound)
}

func TestAddWaiterRoundTrip(t *testing.T) {
	n := newTestNetwork(t)
	p := n.NewProcess(pathkey.New("p"))
	t1, err := n.NewThread(p)
	require.NoError(t, err)
	t2, err := n.NewThread(p)
	require.NoError(t, err)
	c, err := n.NewChannel([]api.ThreadID{t1, t2})
	require.NoError(t, err)

	before := n.waitMap.Waiters(c)
	existed := n.waitMap.AddWaiter(c, t1)
	require.True(t, existed, "NewChannel already registered c via add_channel")
	removed := n.waitMap.RemoveWaiter(c, t1)
	require.True(t, removed)

	after := n.waitMap.Waiters(c)
	require.Equal(t, before, after)
}

func TestRemoveThreadIsIdempotent(t *testing.T) {
	n := newTestNetwork(t)
	p := n.NewProcess(pathkey.New("p"))
	t1, err := n.NewThread(p)
	require.NoError(t, err)
	t2, err := n.NewThread(p)
	require.NoError(t, err)
	c, err := n.NewChannel([]api.ThreadID{t1, t2})
	require.NoError(t, err)
	require.NoError(t, n.WaitThread(t1, c, false))

	n.waitMap.RemoveThread(t1)
	n.waitMap.RemoveThread(t1) // idempotent

	require.Empty(t, n.waitMap.Waiters(c))
}

// A prior wait's committed edges must be discharged once the waiting
// thread wakes, so they cannot cause a later, unrelated wait to be
// rejected as a false-positive deadlock. Channels a={t1,t2}, b={t2,t3}:
// WaitThread(t1,a,false) then WaitThread(t2,b,false) commits edge a->b
// (a is fully locked once t2 is also a waiter). Waking both t1 and t2
// must remove that edge; otherwise WaitThread(t3,b,false) followed by
// WaitThread(t2,a,false) would wrongly see b->a as closing a cycle with
// the stale a->b, even though t1 is Active and can signal a.
func TestStaleWaitEdgeDischargedOnWake(t *testing.T) {
	n := newTestNetwork(t)
	p := n.NewProcess(pathkey.New("p"))
	t1, err := n.NewThread(p)
	require.NoError(t, err)
	t2, err := n.NewThread(p)
	require.NoError(t, err)
	t3, err := n.NewThread(p)
	require.NoError(t, err)

	a, err := n.NewChannel([]api.ThreadID{t1, t2})
	require.NoError(t, err)
	b, err := n.NewChannel([]api.ThreadID{t2, t3})
	require.NoError(t, err)

	require.NoError(t, n.WaitThread(t1, a, false))
	require.NoError(t, n.WaitThread(t2, b, false))

	require.NoError(t, n.ActiveThread(t1))
	require.NoError(t, n.ActiveThread(t2))

	require.NoError(t, n.WaitThread(t3, b, false))
	require.NoError(t, n.WaitThread(t2, a, false),
		"a stale a->b edge left over from t2's prior wait must not reject this wait as a deadlock")

	require.NoError(t, n.CheckInvariants())
}

func TestNewChannelRejectsEmptyParticipants(t *testing.T) {
	n := newTestNetwork(t)
	_, err := n.NewChannel(nil)
	require.ErrorIs(t, err, api.ErrNotFound)
}

func TestSnapshotRoundTrip(t *testing.T) {
	n := newTestNetwork(t)
	t1, t2, t3, c12, c23, _ := setupTriangle(t, n)
	require.NoError(t, n.WaitThread(t1, c12, false))
	require.NoError(t, n.WaitThread(t2, c23, false))

	data, err := n.Snapshot()
	require.NoError(t, err)

	restored := New(nil)
	require.NoError(t, restored.RestoreSnapshot(data))
	require.NoError(t, restored.CheckInvariants())

	require.Equal(t, api.StateWaitWithoutTimeout, restored.threads[t1].State.Kind)
	require.Equal(t, c12, restored.threads[t1].State.Channel)
	require.Contains(t, restored.channels, c12)
	require.Len(t, restored.threads, 3)
	_ = t3
}
