package api

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/oasisprotocol/ccnet/ifaces"
)

// Sentinel errors forming the bulk of the taxonomy from SPEC section 7.
// Fatal errors are not part of this set: an invariant violation panics via
// common/logging.Logger.Fatal rather than returning an error, since the
// spec treats them as bugs, not recoverable conditions.
var (
	// ErrNotFound is returned when an identifier does not exist in the
	// relevant registry.
	ErrNotFound = errors.New("ccnet: not found")

	// ErrAlreadyPresent is returned when an insertion is refused because
	// the key already exists. Callers must never silently overwrite.
	ErrAlreadyPresent = errors.New("ccnet: already present")

	// ErrDeadlockWouldForm is returned when wait_thread or
	// add_channel_relation detects that the requested edge would close a
	// cycle in the channel dependency graph. All tentative changes are
	// reverted before this error is returned.
	ErrDeadlockWouldForm = errors.New("ccnet: deadlock would form")
)

// MissingPrerequisiteError is returned by Process.VerifyImplementations
// when a process claims interfaces whose prerequisite closure is not fully
// satisfied. It is diagnostic, not a mutation failure: nothing about the
// process is changed by discovering it.
type MissingPrerequisiteError struct {
	Missing map[ifaces.Key]struct{}
}

func (e *MissingPrerequisiteError) Error() string {
	keys := make([]string, 0, len(e.Missing))
	for k := range e.Missing {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)
	return fmt.Sprintf("ccnet: missing prerequisites: %s", strings.Join(keys, ", "))
}

// MissingKeys returns the unsatisfied interface keys in sorted order.
func (e *MissingPrerequisiteError) MissingKeys() []ifaces.Key {
	keys := make([]ifaces.Key, 0, len(e.Missing))
	for k := range e.Missing {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Compare(keys[j]) < 0 })
	return keys
}
