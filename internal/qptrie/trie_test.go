package qptrie

import (
	"bytes"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bfswalk/bfs/internal/arena"
)

func keysOf(t *Trie[int]) [][]byte {
	var out [][]byte
	t.ForEach(func(l *Leaf[int]) { out = append(out, l.Key()) })
	return out
}

func TestTrieRoundTrip(t *testing.T) {
	set := []string{"a", "ab", "abc", "b", "band", "bandana", "", "z"}
	trie := New[int]()
	for i, s := range set {
		leaf, created := trie.Insert([]byte(s))
		require.True(t, created)
		leaf.Value = i
	}
	assert.Equal(t, len(set), trie.Len())

	for _, s := range set {
		leaf, ok := trie.FindExact([]byte(s))
		require.True(t, ok, "key %q should be found", s)
		assert.Equal(t, s, string(leaf.Key()))
	}

	_, ok := trie.FindExact([]byte("nope"))
	assert.False(t, ok)

	got := keysOf(trie)
	sort.Slice(got, func(i, j int) bool { return bytes.Compare(got[i], got[j]) < 0 })
	want := append([]string(nil), set...)
	sort.Strings(want)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i], string(got[i]))
	}

	for _, s := range set {
		leaf, _ := trie.FindExact([]byte(s))
		require.True(t, trie.Remove(leaf))
	}
	assert.Equal(t, 0, trie.Len())
	assert.Empty(t, keysOf(trie))
}

func TestTrieInsertExistingReturnsSameLeaf(t *testing.T) {
	trie := New[int]()
	l1, created := trie.Insert([]byte("dup"))
	require.True(t, created)
	l1.Value = 7

	l2, created := trie.Insert([]byte("dup"))
	assert.False(t, created)
	assert.Same(t, l1, l2)
	assert.Equal(t, 1, trie.Len())
}

func TestTriePrefixLaws(t *testing.T) {
	set := []string{"/", "/usr", "/usr/bin", "/usr/local", "/var"}
	trie := New[int]()
	for _, s := range set {
		trie.Insert([]byte(s))
	}

	cases := []struct {
		query string
		want  string
	}{
		{"/usr/bin/env", "/usr/bin"},
		{"/usr/local/go", "/usr/local"},
		{"/usr", "/usr"},
		{"/usrx", "/usr"},
		{"/var/log", "/var"},
	}
	for _, c := range cases {
		leaf, ok := trie.FindPrefix([]byte(c.query))
		require.True(t, ok, "query %q", c.query)
		assert.Equal(t, c.want, string(leaf.Key()), "query %q", c.query)
	}

	_, ok := trie.FindPrefix([]byte("nomatch"))
	assert.False(t, ok)
}

func TestTrieFindPostfix(t *testing.T) {
	set := []string{"band", "bandana", "bandit", "bank"}
	trie := New[int]()
	for _, s := range set {
		trie.Insert([]byte(s))
	}

	leaf, ok := trie.FindPostfix([]byte("band"))
	require.True(t, ok)
	assert.True(t, bytes.HasPrefix(leaf.Key(), []byte("band")))

	_, ok = trie.FindPostfix([]byte("nope"))
	assert.False(t, ok)

	leaf, ok = trie.FindPostfix(nil)
	require.True(t, ok, "empty query matches any key in a non-empty trie")
	_ = leaf
}

func TestTriePooledKeysSurviveRemoveAndReinsert(t *testing.T) {
	classes := arena.NewClasses(8, 32)
	trie := NewPooled[int](classes)

	names := []string{"alice", "bob", "carol"}
	leaves := map[string]*Leaf[int]{}
	for i, n := range names {
		leaf, created := trie.Insert([]byte(n))
		require.True(t, created)
		leaf.Value = i
		leaves[n] = leaf
	}
	require.True(t, trie.Remove(leaves["bob"]))

	// bob's slab slot is now free; a same-width key reusing it must not
	// corrupt alice's or carol's still-live keys.
	leaf, created := trie.Insert([]byte("erin"))
	require.True(t, created)
	leaf.Value = 99

	for _, n := range []string{"alice", "carol", "erin"} {
		got, ok := trie.FindExact([]byte(n))
		require.True(t, ok, "key %q", n)
		assert.Equal(t, n, string(got.Key()))
	}
	_, ok := trie.FindExact([]byte("bob"))
	assert.False(t, ok)
}

func TestTrieEmpty(t *testing.T) {
	trie := New[int]()
	_, ok := trie.FindExact([]byte("x"))
	assert.False(t, ok)
	_, ok = trie.FindPrefix([]byte("x"))
	assert.False(t, ok)
	_, ok = trie.FindPostfix([]byte("x"))
	assert.False(t, ok)
	_, ok = trie.First()
	assert.False(t, ok)
}
