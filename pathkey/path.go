// Package pathkey implements the minimal value-type surface of the
// package-path tree that spec.md treats as an external collaborator:
// a rooted, dotted path used by Process.Path, together with the
// rendering and ordering rules spec.md §6 requires of it.
//
// The full tree (interning path components, storing per-package
// metadata) is out of scope — nothing in this repository needs more
// than comparing and printing paths, so that is all this package does.
// Semantics are grounded on _examples/original_source/src/path.rs,
// whose PathIter walks root-first and whose Ord impl reverses the
// per-component string comparison (so paths that diverge order by
// reverse alphabetical order of the first differing component, and a
// path that is a strict prefix of another
// sorts as the *greater*, parent, one — children precede parents).
package pathkey

import "strings"

// Path is a rooted, dotted path: New("root", "foo", "bar") renders as
// "root.foo.bar". It is backed by a plain string (not a slice of its
// components) specifically so it stays comparable — ifaces.Key embeds a
// Path and is used as a map key throughout this repository, which a
// slice-backed type could not support. The zero value is the
// (unrepresentable) empty path and should not be constructed directly;
// use New.
type Path string

// New builds a Path from root-first components.
func New(components ...string) Path {
	return Path(strings.Join(components, "."))
}

// String renders the path dotted, root-first.
func (p Path) String() string {
	return string(p)
}

// components splits the path back into its root-first parts.
func (p Path) components() []string {
	if p == "" {
		return nil
	}
	return strings.Split(string(p), ".")
}

// Child returns a new path with name appended as the deepest component.
func (p Path) Child(name string) Path {
	if p == "" {
		return Path(name)
	}
	return p + "." + Path(name)
}

// Compare orders two paths. It walks components root-first; at the
// first differing component, the result is the *reverse* of the
// strings.Compare result (a deliberate choice carried over from the
// source this was distilled from — see the package doc). When one path
// is a strict prefix of the other, the longer (deeper) path compares
// less than the shorter (parent) one.
//
// Compare returns -1, 0, or 1, the same convention as strings.Compare.
func Compare(a, b Path) int {
	ac, bc := a.components(), b.components()
	for i := 0; i < len(ac) && i < len(bc); i++ {
		if c := strings.Compare(ac[i], bc[i]); c != 0 {
			return -c
		}
	}
	switch {
	case len(ac) == len(bc):
		return 0
	case len(ac) > len(bc):
		// a has components remaining after b is exhausted: a is the
		// deeper path, and deeper paths sort less than their parents.
		return -1
	default:
		return 1
	}
}

// Equal reports whether a and b denote the same path.
func Equal(a, b Path) bool {
	return Compare(a, b) == 0
}

// Less reports whether a sorts before b.
func Less(a, b Path) bool {
	return Compare(a, b) < 0
}
