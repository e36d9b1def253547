package api

import (
	"github.com/oasisprotocol/ccnet/ifaces"
	"github.com/oasisprotocol/ccnet/pathkey"
)

// Backend is the network façade surface from SPEC section 6: the only
// mutator that composes the thread/channel/process registries, the wait
// map, and the channel dependency graph. network/memory provides the
// concrete implementation; this interface exists so callers (cmd/ccnetctl,
// tests) depend on the contract rather than the implementation.
//
// NewThread omits a caller-supplied Thread blueprint: SPEC section 4.6
// fixes a new thread's state to Sleep with an empty channel set
// unconditionally, so there is nothing for a caller to supply beyond the
// owning process.
type Backend interface {
	// NewProcess allocates a process rooted at path and returns its id.
	NewProcess(path pathkey.Path) ProcessID

	// NewThread registers a new thread owned by pid. Returns ErrNotFound
	// if pid does not exist.
	NewThread(pid ProcessID) (ThreadID, error)

	// NewChannel creates a channel with the given initial participants.
	// Returns ErrNotFound if participants is empty or if any participant
	// thread does not exist.
	NewChannel(participants []ThreadID) (ChannelID, error)

	// SleepThread transitions t to Sleep, releasing any wait-map edges
	// held on its behalf. Returns ErrNotFound if t does not exist.
	SleepThread(t ThreadID) error

	// ActiveThread transitions t to Active, releasing any wait-map edges
	// held on its behalf. Returns ErrNotFound if t does not exist.
	ActiveThread(t ThreadID) error

	// WaitThread attempts to block t on c. If timer is true, t enters
	// WaitWithTimeout(c) unconditionally: no wait-map or graph changes,
	// and the call cannot fail with ErrDeadlockWouldForm. If timer is
	// false, t enters WaitWithoutTimeout(c) only if doing so introduces
	// no cycle in the channel dependency graph; otherwise all tentative
	// changes are rolled back and ErrDeadlockWouldForm is returned.
	WaitThread(t ThreadID, c ChannelID, timer bool) error

	// ChannelSignal wakes every participant of c whose state names c as
	// its wait target, then blocks the sender by calling WaitThread on
	// its behalf. Returns the woken thread ids (in no particular order)
	// and any error from the trailing WaitThread call; wakeups already
	// performed are not reverted on such an error.
	ChannelSignal(t ThreadID, c ChannelID, timer bool) ([]ThreadID, error)

	// VerifyImplementations checks pid's claimed interfaces for
	// prerequisite closure against lookup. Returns ErrNotFound if pid
	// does not exist, or a *MissingPrerequisiteError if the closure is
	// incomplete.
	VerifyImplementations(pid ProcessID, lookup ifaces.Lookup) error

	// AddImplementation records that pid claims to implement key. Returns
	// ErrNotFound if pid does not exist.
	AddImplementation(pid ProcessID, key ifaces.Key) error

	// DestroyThread removes t: from its owning process, from every
	// channel's participant set, and from every wait-map index. Returns
	// ErrNotFound if t does not exist. This completes the lifecycle SPEC
	// section 3 describes but the operation table omits.
	DestroyThread(t ThreadID) error

	// DestroyChannel removes c and fans the removal out to every
	// participant's channel set and every wait-map index that references
	// it, releasing its graph node. Returns ErrNotFound if c does not
	// exist. SPEC section 3 notes dropping the last participant is legal
	// but not automatic; DestroyChannel is the explicit operation that
	// performs it.
	DestroyChannel(c ChannelID) error

	// CheckInvariants walks every entity map and reports any violation of
	// the quantified invariants in SPEC section 8. It is a diagnostic
	// tool, not part of the core protocol: production call sites need
	// not invoke it on every operation.
	CheckInvariants() error
}
