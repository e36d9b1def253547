package pathkey

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	p := New("root", "foo", "bar", "baz")
	require.Equal(t, "root.foo.bar.baz", p.String())
}

func TestCompareDeeperIsLess(t *testing.T) {
	a := New("a", "b", "c", "d")
	b := New("a", "b", "c")
	require.True(t, Less(a, b), "a.b.c.d should sort before a.b.c")
	require.False(t, Less(b, a))
}

func TestCompareAlphabeticalIsReversed(t *testing.T) {
	a := New("a", "b", "c", "d")
	b := New("a", "c", "c", "d")
	require.True(t, Compare(a, b) > 0, "a.b.c.d should sort after a.c.c.d")
}

func TestCompareEqual(t *testing.T) {
	a := New("a", "b", "c")
	b := New("a", "b", "c")
	require.True(t, Equal(a, b))
	require.Equal(t, 0, Compare(a, b))
}

func TestChild(t *testing.T) {
	root := New("root")
	child := root.Child("foo").Child("bar")
	require.Equal(t, "root.foo.bar", child.String())
	// Child must not mutate the parent.
	require.Equal(t, "root", root.String())
}
