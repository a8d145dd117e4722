package walk

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTree lays out:
//
//	root/
//	  a/
//	    b/
//	      c.txt
//	  d.txt
func buildTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "b"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "b", "c.txt"), []byte("c"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "d.txt"), []byte("d"), 0o644))
	return root
}

func TestWalkVisitsEveryEntry(t *testing.T) {
	root := buildTree(t)
	opts := DefaultOptions()
	w := New(opts)
	defer w.Destroy()

	var got []string
	err := w.Walk(context.Background(), []string{root}, func(e *Entry) Action {
		got = append(got, e.Path)
		return Continue
	})
	require.NoError(t, err)

	want := []string{
		root,
		filepath.Join(root, "a"),
		filepath.Join(root, "d.txt"),
		filepath.Join(root, "a", "b"),
		filepath.Join(root, "a", "b", "c.txt"),
	}
	sort.Strings(got)
	sort.Strings(want)
	assert.Equal(t, want, got)
}

func TestWalkBreadthBeforeDepth(t *testing.T) {
	root := buildTree(t)
	opts := DefaultOptions()
	w := New(opts)
	defer w.Destroy()

	depthOf := map[string]int{}
	var order []int
	err := w.Walk(context.Background(), []string{root}, func(e *Entry) Action {
		depthOf[e.Path] = e.Depth
		order = append(order, e.Depth)
		return Continue
	})
	require.NoError(t, err)

	for i := 1; i < len(order); i++ {
		assert.GreaterOrEqual(t, order[i], order[i-1]-1, "a deeper entry must not be offered before a shallower one from the same subtree has been")
	}
	assert.Equal(t, 2, depthOf[filepath.Join(root, "a", "b", "c.txt")])
}

func TestWalkMaxDepth(t *testing.T) {
	root := buildTree(t)
	opts := DefaultOptions()
	opts.MaxDepth = 1
	w := New(opts)
	defer w.Destroy()

	var got []string
	err := w.Walk(context.Background(), []string{root}, func(e *Entry) Action {
		got = append(got, e.Path)
		return Continue
	})
	require.NoError(t, err)

	assert.NotContains(t, got, filepath.Join(root, "a", "b"))
	assert.Contains(t, got, filepath.Join(root, "a"))
	assert.Contains(t, got, root)
}

func TestWalkMinDepth(t *testing.T) {
	root := buildTree(t)
	opts := DefaultOptions()
	opts.MinDepth = 1
	w := New(opts)
	defer w.Destroy()

	var got []string
	err := w.Walk(context.Background(), []string{root}, func(e *Entry) Action {
		got = append(got, e.Path)
		return Continue
	})
	require.NoError(t, err)

	assert.NotContains(t, got, root)
	assert.Contains(t, got, filepath.Join(root, "a", "b", "c.txt"))
}

func TestWalkSkipSubtree(t *testing.T) {
	root := buildTree(t)
	opts := DefaultOptions()
	w := New(opts)
	defer w.Destroy()

	var got []string
	err := w.Walk(context.Background(), []string{root}, func(e *Entry) Action {
		got = append(got, e.Path)
		if e.Path == filepath.Join(root, "a") {
			return SkipSubtree
		}
		return Continue
	})
	require.NoError(t, err)
	assert.NotContains(t, got, filepath.Join(root, "a", "b"))
	assert.NotContains(t, got, filepath.Join(root, "a", "b", "c.txt"))
}

func TestWalkStopHaltsTraversal(t *testing.T) {
	root := buildTree(t)
	opts := DefaultOptions()
	w := New(opts)
	defer w.Destroy()

	count := 0
	err := w.Walk(context.Background(), []string{root}, func(e *Entry) Action {
		count++
		return Stop
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestWalkPostOrderDeliversChildrenFirst(t *testing.T) {
	root := buildTree(t)
	opts := DefaultOptions()
	opts.PostOrder = true
	w := New(opts)
	defer w.Destroy()

	position := map[string]int{}
	i := 0
	err := w.Walk(context.Background(), []string{root}, func(e *Entry) Action {
		position[e.Path] = i
		i++
		return Continue
	})
	require.NoError(t, err)

	assert.Less(t, position[filepath.Join(root, "a", "b")], position[filepath.Join(root, "a")])
	assert.Less(t, position[filepath.Join(root, "a")], position[root])
}

func TestWalkSortOrdersSiblingsByName(t *testing.T) {
	root := t.TempDir()
	names := []string{"zeta", "alpha", "mu"}
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(root, n), []byte("x"), 0o644))
	}
	opts := DefaultOptions()
	opts.Sort = true
	w := New(opts)
	defer w.Destroy()

	var got []string
	err := w.Walk(context.Background(), []string{root}, func(e *Entry) Action {
		if e.Depth == 1 {
			got = append(got, e.Name())
		}
		return Continue
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mu", "zeta"}, got)
}

func TestWalkReportsMissingRootAsError(t *testing.T) {
	opts := DefaultOptions()
	w := New(opts)
	defer w.Destroy()

	var gotErr bool
	err := w.Walk(context.Background(), []string{"/nonexistent/path/for/bfs/tests"}, func(e *Entry) Action {
		if e.Type == TypeError {
			gotErr = true
			assert.Error(t, e.Err)
		}
		return Continue
	})
	require.NoError(t, err)
	assert.True(t, gotErr)
}

func TestCrossesMount(t *testing.T) {
	assert.False(t, crossesMount(5, 5))
	assert.True(t, crossesMount(5, 6))
}

// TestWalkMountOptionStopsAtFilesystemBoundary exercises -mount/-xdev
// against a genuine filesystem boundary: a bind mount inside the
// traversal root. Requires root to create the mount, so it skips
// rather than faking a device id.
func TestWalkMountOptionStopsAtFilesystemBoundary(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("bind-mount boundary test requires Linux")
	}
	if os.Getuid() != 0 {
		t.Skip("requires root to create a bind mount")
	}

	root := t.TempDir()
	mnt := filepath.Join(root, "other")
	require.NoError(t, os.Mkdir(mnt, 0o755))

	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "bound.txt"), []byte("y"), 0o644))
	require.NoError(t, syscall.Mount(src, mnt, "", syscall.MS_BIND, ""))
	defer syscall.Unmount(mnt, 0)

	opts := DefaultOptions()
	opts.Mount = true
	w := New(opts)
	defer w.Destroy()

	var got []string
	err := w.Walk(context.Background(), []string{root}, func(e *Entry) Action {
		got = append(got, e.Path)
		return Continue
	})
	require.NoError(t, err)
	assert.Contains(t, got, mnt, "the mount point directory itself is still visited")
	assert.NotContains(t, got, filepath.Join(mnt, "bound.txt"), "contents across the mount boundary must not be visited when Mount is true")
}

func TestWalkDeduplicatesRepeatedRoot(t *testing.T) {
	root := buildTree(t)
	opts := DefaultOptions()
	w := New(opts)
	defer w.Destroy()

	var visits int
	err := w.Walk(context.Background(), []string{root, root}, func(e *Entry) Action {
		if e.Path == root {
			visits++
		}
		return Continue
	})
	require.NoError(t, err)
	assert.Equal(t, 1, visits, "a root given twice on the argument vector must only be walked once")
}
