package ioqueue

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLog() zerolog.Logger {
	return zerolog.New(zerolog.Nop())
}

func TestQueueCapacityRespectsDepth(t *testing.T) {
	q := New(2, 1, discardLog())
	defer q.Destroy()

	require.NoError(t, q.Push(Request{Op: OpNopLight}))
	require.NoError(t, q.Push(Request{Op: OpNopLight}))
	assert.Equal(t, 0, q.Capacity())

	err := q.Push(Request{Op: OpNopLight})
	assert.ErrorIs(t, err, ErrFull)

	q.Submit()
	for i := 0; i < 2; i++ {
		_, ok := q.Pop(context.Background())
		require.True(t, ok)
	}
	assert.Equal(t, 2, q.Capacity())
}

func TestQueueConservation(t *testing.T) {
	const n = 64
	q := New(8, 4, discardLog())
	defer q.Destroy()

	sent := 0
	received := 0
	for sent < n {
		for q.Capacity() > 0 && sent < n {
			require.NoError(t, q.Push(Request{Op: OpNopLight, Cookie: sent}))
			sent++
		}
		q.Submit()
		for {
			resp, ok := q.TryPop()
			if !ok {
				break
			}
			assert.NoError(t, resp.Err)
			received++
		}
	}
	for received < n {
		resp, ok := q.Pop(context.Background())
		require.True(t, ok)
		received++
		_ = resp
	}
	assert.Equal(t, n, sent)
	assert.Equal(t, n, received)
	assert.Equal(t, q.depth, q.Capacity())
}

func TestQueuePopReturnsFalseWhenNothingOutstanding(t *testing.T) {
	q := New(4, 2, discardLog())
	defer q.Destroy()

	_, ok := q.Pop(context.Background())
	assert.False(t, ok, "nothing was ever pushed, so Pop must not block forever")
}

func TestQueuePopHonorsContextCancellation(t *testing.T) {
	q := New(1, 0, discardLog()) // synchronous: workers never complete a blocked request on their own
	defer q.Destroy()

	// Manually mark a request outstanding without completing it, so
	// Pop has something to legitimately wait on.
	q.mu.Lock()
	q.inFlight = 1
	q.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, ok := q.Pop(ctx)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), time.Second)

	q.mu.Lock()
	q.inFlight = 0
	q.mu.Unlock()
}

func TestQueueOpenReadCloseDirRoundTrip(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(dir+"/a.txt", []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(dir+"/b.txt", []byte("y"), 0o644))

	q := New(4, 2, discardLog())
	defer q.Destroy()

	require.NoError(t, q.Push(Request{Op: OpOpenDir, Path: dir}))
	q.Submit()
	resp, ok := q.Pop(context.Background())
	require.True(t, ok)
	require.NoError(t, resp.Err)
	require.NotNil(t, resp.Dir)
	handle := resp.Dir

	require.NoError(t, q.Push(Request{Op: OpReadDir, Dir: handle}))
	q.Submit()
	resp, ok = q.Pop(context.Background())
	require.True(t, ok)
	require.NoError(t, resp.Err)
	assert.Len(t, resp.Entries, 2)

	require.NoError(t, q.Push(Request{Op: OpCloseDir, Dir: handle}))
	q.Submit()
	_, ok = q.Pop(context.Background())
	require.True(t, ok)
}

func TestQueueStatFollowsOrLstatsSymlink(t *testing.T) {
	dir := t.TempDir()
	target := dir + "/real.txt"
	link := dir + "/link.txt"
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))
	require.NoError(t, os.Symlink(target, link))

	q := New(4, 2, discardLog())
	defer q.Destroy()

	require.NoError(t, q.Push(Request{Op: OpStat, Path: link}))
	q.Submit()
	resp, ok := q.Pop(context.Background())
	require.True(t, ok)
	require.NoError(t, resp.Err)
	assert.False(t, resp.Info.Mode()&os.ModeSymlink != 0, "following stat should resolve through the symlink")

	require.NoError(t, q.Push(Request{Op: OpStat, Path: link, Flags: StatFlagNoFollow}))
	q.Submit()
	resp, ok = q.Pop(context.Background())
	require.True(t, ok)
	require.NoError(t, resp.Err)
	assert.True(t, resp.Info.Mode()&os.ModeSymlink != 0, "no-follow stat should see the link itself")
}

func TestQueueWorkerRecoversFromPanic(t *testing.T) {
	orig := executeFn
	executeFn = func(req Request) Response {
		if req.Op == OpNopHeavy {
			panic("simulated worker panic")
		}
		return orig(req)
	}
	defer func() { executeFn = orig }()

	q := New(2, 1, discardLog())
	defer q.Destroy()

	require.NoError(t, q.Push(Request{Op: OpNopHeavy, Cookie: "boom"}))
	q.Submit()
	resp, ok := q.Pop(context.Background())
	require.True(t, ok)
	assert.Error(t, resp.Err)
	assert.Equal(t, "boom", resp.Cookie)

	// The worker goroutine must still be alive for the next request.
	require.NoError(t, q.Push(Request{Op: OpNopLight, Cookie: "after"}))
	q.Submit()
	resp, ok = q.Pop(context.Background())
	require.True(t, ok)
	assert.NoError(t, resp.Err)
}

func TestQueueSynchronousMode(t *testing.T) {
	q := New(4, 0, discardLog())
	defer q.Destroy()

	require.NoError(t, q.Push(Request{Op: OpNopHeavy, Cookie: "a"}))
	q.Submit()
	resp, ok := q.Pop(context.Background())
	require.True(t, ok)
	assert.Equal(t, "a", resp.Cookie)
}
