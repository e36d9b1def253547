package ifaces

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oasisprotocol/ccnet/pathkey"
)

func TestVersionString(t *testing.T) {
	v := Version{Major: 1, Minor: 7, Patch: 2}
	require.Equal(t, "1.7.2", v.String())
}

func TestVersionCompare(t *testing.T) {
	cases := []struct {
		name string
		a, b Version
		want int
	}{
		{"major", Version{1, 7, 2}, Version{2, 7, 2}, -1},
		{"minor", Version{1, 6, 2}, Version{1, 7, 2}, -1},
		{"patch", Version{1, 6, 1}, Version{1, 6, 2}, -1},
		{"equal", Version{1, 6, 1}, Version{1, 6, 1}, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, c.a.Compare(c.b))
		})
	}
}

func TestKeyCompare(t *testing.T) {
	k1 := NewKey(pathkey.New("a", "b"), Version{1, 0, 0})
	k2 := NewKey(pathkey.New("a", "b"), Version{1, 1, 0})
	require.True(t, k1.Compare(k2) < 0)
}

func TestFunctionCompare(t *testing.T) {
	f1 := Function{Name: "a", Version: Version{1, 0, 0}}
	f2 := Function{Name: "b", Version: Version{1, 0, 0}}
	require.True(t, f1.Compare(f2) < 0)

	f3 := Function{Name: "a", Version: Version{1, 2, 0}}
	require.True(t, f1.Compare(f3) < 0)
}

func TestMapLookup(t *testing.T) {
	key := NewKey(pathkey.New("a"), Version{1, 0, 0})
	iface := NewInterface()
	lookup := MapLookup{key: iface}

	got, ok := lookup.Interface(key)
	require.True(t, ok)
	require.Same(t, iface, got)

	_, ok = lookup.Interface(NewKey(pathkey.New("b"), Version{1, 0, 0}))
	require.False(t, ok)
}
