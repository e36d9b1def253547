// Package api defines the entity types, identifiers, and façade surface of
// the process/thread/channel network: the data model of SPEC section 3 and
// the operation table of section 6, with no implementation behind them.
// network/memory provides the concrete Backend.
package api

import (
	"fmt"

	"github.com/oasisprotocol/ccnet/ifaces"
	"github.com/oasisprotocol/ccnet/pathkey"
)

// ThreadID, ChannelID, ProcessID, and GraphNodeID are dense, monotonic
// identifiers, each allocated by its owning registry starting at 1. Zero is
// never a valid id and is used as the reported value on error paths.
type (
	ThreadID    uint64
	ChannelID   uint64
	ProcessID   uint64
	GraphNodeID uint64
)

// ThreadStateKind distinguishes the four cases a Thread's state can take.
type ThreadStateKind int

const (
	// StateActive is currently runnable.
	StateActive ThreadStateKind = iota
	// StateSleep is parked, awaiting scheduler time, bound to no signal source.
	StateSleep
	// StateWaitWithoutTimeout is blocked pending signal on exactly one
	// channel. This is the only state that contributes graph edges and can
	// therefore cause deadlock.
	StateWaitWithoutTimeout
	// StateWaitWithTimeout is blocked but self-releases on a timer. It never
	// participates in deadlock detection.
	StateWaitWithTimeout
)

func (k ThreadStateKind) String() string {
	switch k {
	case StateActive:
		return "active"
	case StateSleep:
		return "sleep"
	case StateWaitWithoutTimeout:
		return "wait-without-timeout"
	case StateWaitWithTimeout:
		return "wait-with-timeout"
	default:
		return "unknown"
	}
}

// ThreadState is the closed tagged-variant a Thread carries. Channel is
// meaningful only when Kind is one of the two Wait* kinds; constructors
// below are the only sanctioned way to build one.
type ThreadState struct {
	Kind    ThreadStateKind
	Channel ChannelID
}

// Active constructs the Active state.
func Active() ThreadState { return ThreadState{Kind: StateActive} }

// Sleep constructs the Sleep state.
func Sleep() ThreadState { return ThreadState{Kind: StateSleep} }

// WaitWithoutTimeout constructs a blocking wait on c.
func WaitWithoutTimeout(c ChannelID) ThreadState {
	return ThreadState{Kind: StateWaitWithoutTimeout, Channel: c}
}

// WaitWithTimeout constructs a self-releasing wait on c.
func WaitWithTimeout(c ChannelID) ThreadState {
	return ThreadState{Kind: StateWaitWithTimeout, Channel: c}
}

// IsWaiting reports whether the state is one of the two Wait* kinds.
func (s ThreadState) IsWaiting() bool {
	return s.Kind == StateWaitWithoutTimeout || s.Kind == StateWaitWithTimeout
}

// IsGraphWaiting reports whether the state is the one kind that contributes
// edges to the channel dependency graph.
func (s ThreadState) IsGraphWaiting() bool {
	return s.Kind == StateWaitWithoutTimeout
}

func (s ThreadState) String() string {
	if s.IsWaiting() {
		return fmt.Sprintf("%s(%d)", s.Kind, s.Channel)
	}
	return s.Kind.String()
}

// Thread is the per-thread bookkeeping record: its current state, and the
// set of channels it participates in (which is a superset of, or equal to,
// whichever single channel its Wait* state names).
type Thread struct {
	State    ThreadState
	Channels map[ChannelID]struct{}
}

// NewThread constructs a thread in its creation state: Sleep, no channels.
func NewThread() *Thread {
	return &Thread{
		State:    Sleep(),
		Channels: make(map[ChannelID]struct{}),
	}
}

// Channel is the per-channel bookkeeping record: the set of threads
// participating in it. Participation is mutual with Thread.Channels; the
// network façade is responsible for keeping both sides in step.
type Channel struct {
	Participants map[ThreadID]struct{}
}

// NewChannel constructs a channel with creator as its sole participant.
func NewChannel(creator ThreadID) *Channel {
	return &Channel{
		Participants: map[ThreadID]struct{}{creator: {}},
	}
}

// AddParticipant inserts t into the channel's participant set. It reports
// whether t was already present.
func (c *Channel) AddParticipant(t ThreadID) bool {
	_, present := c.Participants[t]
	c.Participants[t] = struct{}{}
	return present
}

// RemoveParticipant removes t from the channel's participant set. It
// reports whether t was present.
func (c *Channel) RemoveParticipant(t ThreadID) bool {
	_, present := c.Participants[t]
	delete(c.Participants, t)
	return present
}

// Process owns a set of threads and the set of interfaces it claims to
// implement. A thread belongs to exactly one process for its lifetime.
type Process struct {
	Path        pathkey.Path
	Threads     map[ThreadID]struct{}
	Implemented map[ifaces.Key]struct{}
}

// NewProcess constructs an empty process rooted at path.
func NewProcess(path pathkey.Path) *Process {
	return &Process{
		Path:        path,
		Threads:     make(map[ThreadID]struct{}),
		Implemented: make(map[ifaces.Key]struct{}),
	}
}

// AttachThread records that t belongs to this process. It reports whether
// t was already attached.
func (p *Process) AttachThread(t ThreadID) bool {
	_, present := p.Threads[t]
	p.Threads[t] = struct{}{}
	return present
}

// DetachThread removes t from this process. It reports whether t was
// attached.
func (p *Process) DetachThread(t ThreadID) bool {
	_, present := p.Threads[t]
	delete(p.Threads, t)
	return present
}

// AddImplementation records that the process claims to implement key. It
// reports whether key was already claimed.
func (p *Process) AddImplementation(key ifaces.Key) bool {
	_, present := p.Implemented[key]
	p.Implemented[key] = struct{}{}
	return present
}

// VerifyImplementations checks the process's claimed interfaces for
// prerequisite closure: the union of prerequisites over every implemented
// interface, minus the implemented set. A claimed key absent from lookup is
// a programmer error (the caller validated membership before claiming it)
// and is reported via the fatal parameter rather than returned, matching
// the source this was distilled from, which panics in the equivalent case.
func (p *Process) VerifyImplementations(lookup ifaces.Lookup, fatal func(msg string, keyvals ...interface{})) error {
	missing := make(map[ifaces.Key]struct{})
	for key := range p.Implemented {
		iface, ok := lookup.Interface(key)
		if !ok {
			fatal("process claims an interface absent from the registry", "key", key.String())
			return nil
		}
		for prereq := range iface.Prerequisites {
			if _, ok := p.Implemented[prereq]; !ok {
				missing[prereq] = struct{}{}
			}
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &MissingPrerequisiteError{Missing: missing}
}
