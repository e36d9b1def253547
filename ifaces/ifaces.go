// Package ifaces provides the data types spec.md's process registry
// needs to verify prerequisite closure: a version, an interface key
// (path + version), and the function/prerequisite sets an Interface
// carries. This is the external-collaborator surface only — the full
// interface registry (storing and versioning these by name) is out of
// scope; callers supply a lookup of Key -> *Interface themselves.
//
// Grounded on _examples/original_source/src/interfaces/mod.rs.
package ifaces

import (
	"fmt"

	"github.com/oasisprotocol/ccnet/pathkey"
)

// Version is a (major, minor, patch) triple, compared lexicographically.
type Version struct {
	Major, Minor, Patch uint32
}

// String renders "major.minor.patch".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare orders two versions lexicographically on (major, minor, patch).
func (v Version) Compare(other Version) int {
	if v.Major != other.Major {
		return cmpUint32(v.Major, other.Major)
	}
	if v.Minor != other.Minor {
		return cmpUint32(v.Minor, other.Minor)
	}
	return cmpUint32(v.Patch, other.Patch)
}

func cmpUint32(a, b uint32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Key identifies an interface entry: its package path plus its version.
// Two interfaces at the same path but different versions are distinct
// keys, matching the source this was distilled from.
type Key struct {
	Path    pathkey.Path
	Version Version
}

// NewKey constructs a Key.
func NewKey(path pathkey.Path, version Version) Key {
	return Key{Path: path, Version: version}
}

// Compare orders keys by path first (per pathkey.Compare's rooted
// ordering), then by version.
func (k Key) Compare(other Key) int {
	if c := pathkey.Compare(k.Path, other.Path); c != 0 {
		return c
	}
	return k.Version.Compare(other.Version)
}

// String renders "path@version".
func (k Key) String() string {
	return fmt.Sprintf("%s@%s", k.Path, k.Version)
}

// Function is one function an interface requires its implementors to
// provide. Functions are ordered primarily by name, secondarily by
// version: the source this was distilled from inverts name ordering,
// but since only a total order is required (spec.md §6), we keep plain
// ascending name order as the least surprising choice — see DESIGN.md.
type Function struct {
	Name    string
	Version Version
}

// Compare orders functions by (name, version).
func (f Function) Compare(other Function) int {
	if f.Name != other.Name {
		if f.Name < other.Name {
			return -1
		}
		return 1
	}
	return f.Version.Compare(other.Version)
}

// Interface is the external-collaborator view of an interface: the
// functions it requires and the other interfaces that must already be
// implemented before this one can be.
type Interface struct {
	Functions     []Function
	Prerequisites map[Key]struct{}
}

// NewInterface constructs an empty Interface.
func NewInterface() *Interface {
	return &Interface{
		Prerequisites: make(map[Key]struct{}),
	}
}

// AddFunction appends fn to the interface's function set.
func (i *Interface) AddFunction(fn Function) {
	i.Functions = append(i.Functions, fn)
}

// AddPrerequisite records that key must be implemented before this
// interface can be.
func (i *Interface) AddPrerequisite(key Key) {
	i.Prerequisites[key] = struct{}{}
}

// Lookup resolves interface keys to their definitions. A process's
// claimed set of implemented interfaces is checked against a Lookup,
// never against a mutable registry this package owns.
type Lookup interface {
	Interface(key Key) (*Interface, bool)
}

// MapLookup is the simplest Lookup: a plain map, sufficient for tests
// and for callers that don't need a richer interface registry.
type MapLookup map[Key]*Interface

// Interface implements Lookup.
func (m MapLookup) Interface(key Key) (*Interface, bool) {
	iface, ok := m[key]
	return iface, ok
}
