// Package ioqueue implements a bounded multi-producer/multi-consumer
// request queue fronting a small worker pool: callers Push filesystem
// requests up to a fixed depth, Submit hands the staged batch to the
// workers, and Pop drains completed responses, blocking until one is
// ready or no requests remain outstanding.
//
// The shape is grounded on ledger/trie/queue.go (a thin typed wrapper
// around a deque, sized and drained by its owner) and on
// engine/engine.go's goroutine-per-worker lifecycle, adapted here from
// a single FIFO into a full submit/execute/collect pipeline because the
// filesystem walker needs overlapping I/O, not just a work list.
package ioqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// ErrFull is returned by Push when the queue has no free slot.
var ErrFull = errors.New("ioqueue: no free slot")

// Queue is a bounded pipeline of Requests worked by a fixed pool of
// goroutines. The zero value is not usable; construct with New.
type Queue struct {
	depth int
	sync  bool // workers == 0: Submit executes inline, no goroutines

	mu        sync.Mutex
	cond      *sync.Cond
	staged    []Request
	respQueue []Response
	inFlight  int // pushed but not yet popped

	reqCh chan Request
	wg    sync.WaitGroup
	log   zerolog.Logger
}

// New returns a Queue with room for depth outstanding requests,
// serviced by workers goroutines. workers == 0 makes the queue
// synchronous: Submit executes every staged request on the calling
// goroutine, which is useful for tests and for -j1-equivalent runs.
func New(depth, workers int, log zerolog.Logger) *Queue {
	if depth < 1 {
		depth = 1
	}
	q := &Queue{
		depth: depth,
		reqCh: make(chan Request, depth),
		log:   log.With().Str("component", "ioqueue").Logger(),
	}
	q.cond = sync.NewCond(&q.mu)

	if workers <= 0 {
		q.sync = true
		return q
	}
	q.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go q.work(i)
	}
	return q
}

func (q *Queue) work(id int) {
	defer q.wg.Done()
	for req := range q.reqCh {
		q.complete(q.executeRecovered(req))
	}
	q.log.Debug().Int("worker", id).Msg("worker exiting")
}

// executeRecovered runs execute under a recover guard: a panic inside
// a single request (e.g. a broken os.DirEntry implementation from an
// unusual filesystem) must not take down the whole worker pool, only
// fail that one request.
func (q *Queue) executeRecovered(req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			resp = Response{Cookie: req.Cookie, Op: req.Op, Err: fmt.Errorf("ioqueue: worker recovered from panic: %v", r)}
		}
	}()
	return executeFn(req)
}

// executeFn indirects execute so tests can inject a panicking stand-in
// without an operation that genuinely crashes the process.
var executeFn = execute

func (q *Queue) complete(resp Response) {
	q.mu.Lock()
	q.respQueue = append(q.respQueue, resp)
	q.cond.Broadcast()
	q.mu.Unlock()
}

// Capacity reports how many more requests can currently be Push'd
// before Push starts returning ErrFull.
func (q *Queue) Capacity() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.depth - q.inFlight
}

// Push stages req for the next Submit. It returns ErrFull once depth
// requests are outstanding (staged, submitted, or completed-but-not-
// yet-popped), preserving the invariant that at most depth requests
// are ever in flight at once.
func (q *Queue) Push(req Request) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.inFlight >= q.depth {
		return ErrFull
	}
	q.staged = append(q.staged, req)
	q.inFlight++
	return nil
}

// Submit hands every currently staged request to the worker pool (or,
// for a synchronous queue, executes them immediately). It never
// blocks on queue depth: Push already reserved the room.
func (q *Queue) Submit() {
	q.mu.Lock()
	staged := q.staged
	q.staged = nil
	synchronous := q.sync
	q.mu.Unlock()

	for _, req := range staged {
		if synchronous {
			q.complete(q.executeRecovered(req))
			continue
		}
		q.reqCh <- req
	}
}

// Pop blocks until a response is available, returning (resp, true),
// or until no requests remain outstanding, returning (Response{},
// false). It also returns early if ctx is canceled. A nil ctx behaves
// as context.Background.
func (q *Queue) Pop(ctx context.Context) (Response, bool) {
	if ctx == nil {
		ctx = context.Background()
	}
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.respQueue) == 0 && q.inFlight > 0 {
		if ctx.Err() != nil {
			return Response{}, false
		}
		q.cond.Wait()
	}
	if len(q.respQueue) == 0 {
		return Response{}, false
	}
	resp := q.respQueue[0]
	q.respQueue = q.respQueue[1:]
	q.inFlight--
	return resp, true
}

// TryPop returns a completed response without blocking.
func (q *Queue) TryPop() (Response, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.respQueue) == 0 {
		return Response{}, false
	}
	resp := q.respQueue[0]
	q.respQueue = q.respQueue[1:]
	q.inFlight--
	return resp, true
}

// Destroy stops the worker pool and waits for every worker to exit.
// The queue must have no staged or outstanding requests.
func (q *Queue) Destroy() {
	q.mu.Lock()
	synchronous := q.sync
	q.mu.Unlock()
	if synchronous {
		return
	}
	close(q.reqCh)
	q.wg.Wait()
}
