package walk

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"

	"github.com/OneOfOne/xxhash"
	"github.com/gammazero/deque"

	"github.com/bfswalk/bfs/internal/ioqueue"
)

// dirRecord tracks one directory's lifecycle: its own open/read/close
// sequence plus every async stat it dispatched to decide whether a
// child is eligible for recursion. pending reaches zero only once all
// of that work, and every child subtree spawned from it, has retired
// - at which point its post-order visit (if any) fires and the count
// cascades to its parent.
type dirRecord struct {
	path    string
	depth   int
	rootDev uint64 // the top-level traversal root's device, inherited unchanged
	rootIno uint64
	selfDev uint64 // this directory's own (device, inode), for cycle tracking
	selfIno uint64
	follow  bool // reached by following a symlink under policy L

	parent       *dirRecord
	pending      int
	skipSiblings bool
	selfEntry    *Entry
	dir          *ioqueue.Dir
}

// errFilesystemLoop is the error of the error visit reported for a
// symlink that leads back to a directory already on the descent path.
var errFilesystemLoop = errors.New("filesystem loop detected")

// statCookie correlates an async STAT response, issued to resolve a
// child entry's device/inode for a mount-boundary or cycle check,
// back to the entry and directory it belongs to.
type statCookie struct {
	rec   *dirRecord
	entry *Entry
}

// Walker drives one breadth-first (or post-order) traversal, backed
// by an ioqueue.Queue for overlapped directory reads and stats.
type Walker struct {
	opts    Options
	q       *ioqueue.Queue
	pending *deque.Deque
	visited *visitedSet
	seen    map[uint64]struct{}

	consumer         Consumer
	openCount        int
	rootsOutstanding int
	stopped          bool
}

// New constructs a Walker. Call Destroy when done to stop its worker
// pool.
func New(opts Options) *Walker {
	w := &Walker{
		opts:    opts,
		q:       ioqueue.New(opts.QueueDepth, opts.Workers, opts.Log),
		pending: deque.New(),
		seen:    make(map[uint64]struct{}),
	}
	if opts.Symlink == PolicyL {
		w.visited = newVisitedSet()
	}
	return w
}

// Destroy releases the underlying worker pool.
func (w *Walker) Destroy() {
	w.q.Destroy()
}

func isDirCandidate(typ Type, policy SymlinkPolicy) bool {
	if typ == TypeDirectory {
		return true
	}
	return typ == TypeSymlink && policy == PolicyL
}

func typeFromMode(mode os.FileMode) Type {
	switch {
	case mode.IsDir():
		return TypeDirectory
	case mode&os.ModeSymlink != 0:
		return TypeSymlink
	case mode&os.ModeNamedPipe != 0:
		return TypeFIFO
	case mode&os.ModeSocket != 0:
		return TypeSocket
	case mode&os.ModeDevice != 0:
		if mode&os.ModeCharDevice != 0 {
			return TypeChar
		}
		return TypeBlock
	case mode.IsRegular():
		return TypeRegular
	default:
		return TypeUnknown
	}
}

// Walk traverses every root breadth-first, invoking consumer once
// (pre-order) or twice with Pre then Post (post-order, directories
// only) per in-scope entry, until every root's subtree is exhausted,
// the context is canceled, or consumer returns Stop.
func (w *Walker) Walk(ctx context.Context, roots []string, consumer Consumer) error {
	w.consumer = consumer
	for _, root := range roots {
		if w.stopped {
			break
		}
		key := xxhash.Checksum64([]byte(filepath.Clean(root)))
		if _, dup := w.seen[key]; dup {
			continue // the same argv root given twice (or an alias of one already seeded)
		}
		w.seen[key] = struct{}{}
		w.seedRoot(root)
	}
	return w.drain(ctx)
}

func (w *Walker) seedRoot(root string) {
	// Roots follow symlinks under H and L, never under P: "(H) follow
	// command-line roots only" names exactly this asymmetry.
	var info os.FileInfo
	var err error
	if w.opts.Symlink == PolicyP {
		info, err = os.Lstat(root)
	} else {
		info, err = os.Stat(root)
	}
	if err != nil {
		w.dispatch(&Entry{Path: root, NameOff: 0, Depth: 0, Type: TypeError, Err: err, Visit: Pre}, nil)
		return
	}

	entry := &Entry{
		Path:    root,
		NameOff: len(root) - len(filepath.Base(root)),
		Depth:   0,
		Type:    typeFromMode(info.Mode()),
		Stat:    statFromInfo(info),
		Statted: true,
		Visit:   Pre,
	}
	if dev, ino, ok := devInoFromSys(info.Sys()); ok {
		entry.RootDev, entry.RootIno = dev, ino
	}

	if entry.Type != TypeDirectory {
		if w.opts.MinDepth == 0 {
			w.dispatch(entry, nil)
		}
		return
	}

	rec := &dirRecord{
		path:      root,
		depth:     0,
		rootDev:   entry.RootDev,
		rootIno:   entry.RootIno,
		selfDev:   entry.RootDev,
		selfIno:   entry.RootIno,
		selfEntry: entry,
		pending:   1,
	}
	if w.visited != nil {
		w.visited.enter(rec.selfDev, rec.selfIno)
	}
	w.rootsOutstanding++
	if !w.opts.PostOrder && w.opts.MinDepth == 0 {
		action := w.dispatch(entry, nil)
		if action == SkipSubtree || action == Stop {
			w.retireDir(rec, false)
			return
		}
	}
	w.pending.PushBack(rec)
}

// dispatch invokes the consumer and applies the returned action; rec
// is nil for non-directory entries and for root directories (which
// have no SkipSiblings scope to mutate).
func (w *Walker) dispatch(entry *Entry, rec *dirRecord) Action {
	action := w.consumer(entry)
	switch action {
	case Stop:
		w.stopped = true
	case SkipSiblings:
		if rec != nil {
			rec.skipSiblings = true
		}
	}
	return action
}

func (w *Walker) drain(ctx context.Context) error {
	for !w.stopped && (w.pending.Len() > 0 || w.rootsOutstanding > 0) {
		w.stageOpens()
		w.q.Submit()
		resp, ok := w.q.Pop(ctx)
		if !ok {
			break
		}
		w.handle(resp)
	}
	return ctx.Err()
}

func (w *Walker) stageOpens() {
	for w.pending.Len() > 0 && w.q.Capacity() > 0 && w.openCount < w.opts.MaxOpenFiles {
		rec := w.pending.PopFront().(*dirRecord)
		if err := w.q.Push(ioqueue.Request{Op: ioqueue.OpOpenDir, Path: rec.path, Cookie: rec}); err != nil {
			w.pending.PushFront(rec)
			return
		}
		w.openCount++
	}
}

func (w *Walker) handle(resp ioqueue.Response) {
	switch cookie := resp.Cookie.(type) {
	case *dirRecord:
		w.handleDirResponse(resp, cookie)
	case *statCookie:
		w.handleStatResponse(resp, cookie)
	}
}

// pushBlocking submits req, draining and handling other in-flight
// completions to free capacity if the queue currently has none. Every
// call site here pushes at most one outstanding request per
// directory at a time, so this converges quickly in practice; it
// exists to avoid ever silently dropping a request on ErrFull.
func (w *Walker) pushBlocking(req ioqueue.Request) {
	for {
		if err := w.q.Push(req); err == nil {
			w.q.Submit()
			return
		}
		w.q.Submit()
		resp, ok := w.q.Pop(context.Background())
		if !ok {
			continue
		}
		w.handle(resp)
	}
}

func (w *Walker) handleDirResponse(resp ioqueue.Response, rec *dirRecord) {
	switch resp.Op {
	case ioqueue.OpOpenDir:
		if resp.Err != nil {
			w.openCount--
			w.dispatch(&Entry{Path: rec.path, Depth: rec.depth, Type: TypeError, Err: resp.Err, Visit: Pre}, nil)
			w.retireDir(rec, false)
			return
		}
		rec.dir = resp.Dir
		w.pushBlocking(ioqueue.Request{Op: ioqueue.OpReadDir, Dir: rec.dir, Cookie: rec})

	case ioqueue.OpReadDir:
		if resp.Err != nil && !w.opts.IgnoreReaddirRace {
			w.dispatch(&Entry{Path: rec.path, Depth: rec.depth, Type: TypeError, Err: resp.Err, Visit: Pre}, nil)
		}
		w.processEntries(resp.Entries, rec)
		w.pushBlocking(ioqueue.Request{Op: ioqueue.OpCloseDir, Dir: rec.dir, Cookie: rec})

	case ioqueue.OpCloseDir:
		w.openCount--
		w.retireDir(rec, true)
	}
}

func (w *Walker) processEntries(entries []os.DirEntry, rec *dirRecord) {
	if w.opts.Sort {
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	}

	for _, de := range entries {
		if rec.skipSiblings || w.stopped {
			break
		}
		name := de.Name()
		childPath := filepath.Join(rec.path, name)
		depth := rec.depth + 1
		typ := typeFromMode(de.Type())
		entry := &Entry{
			Path:    childPath,
			NameOff: len(childPath) - len(name),
			Depth:   depth,
			Type:    typ,
			RootDev: rec.rootDev,
			RootIno: rec.rootIno,
			Visit:   Pre,
		}

		if depth > w.opts.MaxDepth {
			continue
		}

		visitNow := depth >= w.opts.MinDepth && (!w.opts.PostOrder || typ != TypeDirectory)
		if visitNow {
			action := w.dispatch(entry, rec)
			if action == Stop {
				return
			}
			if action == SkipSubtree {
				continue
			}
		}

		if !isDirCandidate(typ, w.opts.Symlink) {
			continue
		}

		if w.opts.Mount || (typ == TypeSymlink && w.opts.Symlink == PolicyL) {
			rec.pending++
			w.pushBlocking(ioqueue.Request{
				Op:     ioqueue.OpStat,
				Path:   childPath,
				Cookie: &statCookie{rec: rec, entry: entry},
			})
			continue
		}

		w.spawnChild(rec, entry, rec.selfDev, rec.selfIno, false)
	}
	rec.skipSiblings = false // scoped to this directory's own entries only
}

func (w *Walker) handleStatResponse(resp ioqueue.Response, sc *statCookie) {
	rec, entry := sc.rec, sc.entry
	defer func() {
		rec.pending--
		if rec.pending == 0 {
			w.finishRetire(rec)
		}
	}()

	if resp.Err != nil {
		return
	}
	entry.Stat = statFromInfo(resp.Info)
	entry.Statted = true

	dev, ino, ok := devInoFromSys(resp.Info.Sys())
	if !ok {
		w.spawnChild(rec, entry, rec.selfDev, rec.selfIno, entry.Type == TypeSymlink)
		return
	}
	if w.opts.Mount && crossesMount(rec.rootDev, dev) {
		return // visited already; not recursed
	}
	if entry.Type == TypeSymlink && w.visited != nil {
		if !w.visited.enter(dev, ino) {
			// cycle: a (device, inode) already on the active descent path
			w.dispatch(&Entry{Path: entry.Path, NameOff: entry.NameOff, Depth: entry.Depth, Type: TypeError, Err: errFilesystemLoop, Visit: Pre}, nil)
			return
		}
	}
	w.spawnChild(rec, entry, dev, ino, entry.Type == TypeSymlink)
}

func (w *Walker) spawnChild(parent *dirRecord, entry *Entry, selfDev, selfIno uint64, followed bool) {
	child := &dirRecord{
		path:      entry.Path,
		depth:     entry.Depth,
		rootDev:   parent.rootDev,
		rootIno:   parent.rootIno,
		selfDev:   selfDev,
		selfIno:   selfIno,
		follow:    followed,
		parent:    parent,
		selfEntry: entry,
		pending:   1,
	}
	parent.pending++
	w.pending.PushBack(child)
}

// retireDir is called once a directory's own open/read/close sequence
// finishes; it clears the "own lifecycle" unit of pending and, if
// that was the last unit outstanding, finalizes the record.
func (w *Walker) retireDir(rec *dirRecord, ranLifecycle bool) {
	if ranLifecycle {
		rec.pending--
	} else {
		rec.pending = 0
	}
	if rec.pending <= 0 {
		w.finishRetire(rec)
	}
}

// finishRetire delivers a directory's deferred post-order visit (if
// applicable) and propagates completion to its parent, or to the
// traversal's root bookkeeping if it has none.
func (w *Walker) finishRetire(rec *dirRecord) {
	if w.opts.PostOrder && rec.selfEntry.Depth >= w.opts.MinDepth && rec.selfEntry.Depth <= w.opts.MaxDepth {
		rec.selfEntry.Visit = Post
		w.dispatch(rec.selfEntry, nil)
	}
	if w.visited != nil {
		w.visited.leave(rec.selfDev, rec.selfIno)
	}
	if rec.parent != nil {
		rec.parent.pending--
		if rec.parent.pending == 0 {
			w.finishRetire(rec.parent)
		}
		return
	}
	w.rootsOutstanding--
}
