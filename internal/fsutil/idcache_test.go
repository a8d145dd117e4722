package fsutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDCacheUnknownUserLookupFails(t *testing.T) {
	c := NewIDCache()
	_, err := c.LookupUser("this-user-almost-certainly-does-not-exist-bfs")
	assert.Error(t, err)
}

func TestIDCacheUnknownGroupLookupFails(t *testing.T) {
	c := NewIDCache()
	_, err := c.LookupGroup("this-group-almost-certainly-does-not-exist-bfs")
	assert.Error(t, err)
}

func TestIDCacheUsernameCachesMisses(t *testing.T) {
	c := NewIDCache()
	const improbableUID = 0xFFFFFFF1
	_, ok1 := c.Username(improbableUID)
	_, ok2 := c.Username(improbableUID)
	assert.False(t, ok1)
	assert.False(t, ok2)
	// Second lookup should have hit the cached negative entry rather
	// than re-querying the system; both outcomes agree either way, but
	// exercising it twice is what would surface a cache-poisoning bug.
	leaf, ok := c.userByID.FindExact(uintKey(improbableUID))
	assert.True(t, ok)
	assert.Nil(t, leaf.Value)
}

func TestIDCacheGroupnameCachesMisses(t *testing.T) {
	c := NewIDCache()
	const improbableGID = 0xFFFFFFF2
	_, ok := c.Groupname(improbableGID)
	assert.False(t, ok)
	leaf, found := c.groupByID.FindExact(uintKey(improbableGID))
	assert.True(t, found)
	assert.Nil(t, leaf.Value)
}
