package fsutil

import (
	"fmt"
	"os/user"
	"strconv"

	"github.com/bfswalk/bfs/internal/arena"
	"github.com/bfswalk/bfs/internal/qptrie"
)

// nameKeyWidths bounds the slab size classes backing idByUser/idByGroup:
// POSIX login/group names rarely exceed 32 bytes, so a single doubling
// ladder from 8 to 64 covers them without per-lookup allocation once
// warm.
const (
	minNameKeyWidth = 8
	maxNameKeyWidth = 64
)

// IDCache memoizes the uid/gid <-> name lookups behind -user, -group,
// -nouser, -nogroup and the -ls/-fls long-format printer, each
// direction keyed in its own qptrie so that repeated entries owned by
// the same user only pay for one os/user call, per §4.A's "user/group
// name cache" domain use.
type IDCache struct {
	userByID  *qptrie.Trie[*string]
	groupByID *qptrie.Trie[*string]
	idByUser  *qptrie.Trie[uint32]
	idByGroup *qptrie.Trie[uint32]
}

// NewIDCache returns an empty cache. The name->id direction sees the
// widest key churn (one entry per distinct owner/group encountered
// during a run), so those two tries slab-allocate their keys out of a
// shared size-class pool instead of a fresh make([]byte, n) per name.
func NewIDCache() *IDCache {
	classes := arena.NewClasses(minNameKeyWidth, maxNameKeyWidth)
	return &IDCache{
		userByID:  qptrie.New[*string](),
		groupByID: qptrie.New[*string](),
		idByUser:  qptrie.NewPooled[uint32](classes),
		idByGroup: qptrie.NewPooled[uint32](classes),
	}
}

func uintKey(n uint32) []byte {
	return []byte(strconv.FormatUint(uint64(n), 10))
}

// Username resolves uid to a login name. The second return is false
// when the uid has no corresponding account (-nouser).
func (c *IDCache) Username(uid uint32) (string, bool) {
	key := uintKey(uid)
	if leaf, ok := c.userByID.FindExact(key); ok {
		if leaf.Value == nil {
			return "", false
		}
		return *leaf.Value, true
	}
	u, err := user.LookupId(strconv.FormatUint(uint64(uid), 10))
	leaf, _ := c.userByID.Insert(key)
	if err != nil {
		leaf.Value = nil
		return "", false
	}
	name := u.Username
	leaf.Value = &name
	return name, true
}

// Groupname resolves gid to a group name (-nogroup's inverse).
func (c *IDCache) Groupname(gid uint32) (string, bool) {
	key := uintKey(gid)
	if leaf, ok := c.groupByID.FindExact(key); ok {
		if leaf.Value == nil {
			return "", false
		}
		return *leaf.Value, true
	}
	g, err := user.LookupGroupId(strconv.FormatUint(uint64(gid), 10))
	leaf, _ := c.groupByID.Insert(key)
	if err != nil {
		leaf.Value = nil
		return "", false
	}
	name := g.Name
	leaf.Value = &name
	return name, true
}

// LookupUser resolves a login name (the argument to -user) to a uid.
func (c *IDCache) LookupUser(name string) (uint32, error) {
	key := []byte(name)
	if leaf, ok := c.idByUser.FindExact(key); ok {
		return leaf.Value, nil
	}
	u, err := user.Lookup(name)
	if err != nil {
		return 0, fmt.Errorf("fsutil: unknown user %q: %w", name, err)
	}
	uid, err := strconv.ParseUint(u.Uid, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("fsutil: user %q has non-numeric uid %q", name, u.Uid)
	}
	leaf, _ := c.idByUser.Insert(key)
	leaf.Value = uint32(uid)
	return leaf.Value, nil
}

// LookupGroup resolves a group name (the argument to -group) to a gid.
func (c *IDCache) LookupGroup(name string) (uint32, error) {
	key := []byte(name)
	if leaf, ok := c.idByGroup.FindExact(key); ok {
		return leaf.Value, nil
	}
	g, err := user.LookupGroup(name)
	if err != nil {
		return 0, fmt.Errorf("fsutil: unknown group %q: %w", name, err)
	}
	gid, err := strconv.ParseUint(g.Gid, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("fsutil: group %q has non-numeric gid %q", name, g.Gid)
	}
	leaf, _ := c.idByGroup.Insert(key)
	leaf.Value = uint32(gid)
	return leaf.Value, nil
}
