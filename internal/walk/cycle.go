package walk

import "github.com/bfswalk/bfs/internal/qptrie"

// visitedSet tracks the (device, inode) pairs on the active descent
// path of a single root traversal, so symlink policy L (always
// follow) can detect a cycle before recursing into it. Keyed on a
// 16-byte encoding rather than a struct so the qptrie's byte-string
// keys can index it directly, per the trie's "visited-(device,inode)
// cycle set" domain use.
type visitedSet struct {
	trie *qptrie.Trie[struct{}]
}

func newVisitedSet() *visitedSet {
	return &visitedSet{trie: qptrie.New[struct{}]()}
}

func devInoKey(dev, ino uint64) []byte {
	b := make([]byte, 16)
	putUint64(b[0:8], dev)
	putUint64(b[8:16], ino)
	return b
}

func putUint64(b []byte, v uint64) {
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
}

// enter records (dev, ino) as on the active path, returning false if
// it was already present (a cycle).
func (v *visitedSet) enter(dev, ino uint64) bool {
	_, created := v.trie.Insert(devInoKey(dev, ino))
	return created
}

// leave removes (dev, ino) from the active path once its subtree is
// fully visited, so a later non-cyclic revisit (a DAG, not a cycle)
// is not mistakenly rejected.
func (v *visitedSet) leave(dev, ino uint64) {
	if leaf, ok := v.trie.FindExact(devInoKey(dev, ino)); ok {
		v.trie.Remove(leaf)
	}
}
