package queue

import (
	"container/heap"
	"container/list"
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
	pebblestore "github.com/duraq/duraq/internal/storage/pebble"
	logpkg "github.com/duraq/duraq/pkg/log"
)

// OpenItem is the result of a successful PopOpen (or a Wait that resolved by
// popping an item directly). Exactly one of Header/Value is meaningful:
// Header is non-nil for a chunked item, Value holds the payload for an
// inline one.
type OpenItem struct {
	ID     uint64
	Header *Header
	Value  []byte
}

// Stats summarizes a queue's current state for introspection.
type Stats struct {
	Items            uint64 // count() -- items eligible for pop
	Waiters          int
	OpenTransactions int
	QueueTail        uint64
	QueueHead        uint64
	ChunksHead       uint64
}

// Options configures a Queue's underlying storage.
type Options struct {
	// DataDir is the Pebble directory backing this queue.
	DataDir string
	// Fsync controls the store's durability/throughput tradeoff.
	Fsync pebblestore.FsyncMode
	// Logger receives Warn+ diagnostics (corruption, recovery summaries).
	// Never logs on the Push/PopOpen/PopClose hot path below Warn.
	Logger logpkg.Logger
}

// Queue is a durable, single-writer FIFO queue backed by one Pebble
// database. All mutating operations are serialized through a dedicated
// goroutine; see the package doc for the concurrency model.
type Queue struct {
	db     *pebblestore.DB
	logger logpkg.Logger

	cmdCh chan func()
	stopC chan struct{}
	doneC chan struct{}

	// In-memory cursors, reconstructed on Open and mutated only on the
	// command goroutine.
	queueTail  uint64
	queueHead  uint64
	chunksHead uint64
	itemsOpen  int
	returned   returnedSet
	waiters    *list.List // of *waiter

	fatalErr error
}

type waiter struct {
	elem     *list.Element
	resultCh chan waitOutcome
	timer    *time.Timer
	fired    bool
}

type waitOutcome struct {
	item *OpenItem
	err  error
}

// Open opens (or creates) the queue's database and recovers its in-memory
// cursors from the persisted key ranges, then starts the command loop.
func Open(opts Options) (*Queue, error) {
	db, err := pebblestore.Open(pebblestore.Options{
		DataDir:       opts.DataDir,
		Fsync:         opts.Fsync,
		PebbleOptions: &pebble.Options{Comparer: comparer},
	})
	if err != nil {
		return nil, fmt.Errorf("queue: open store: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewLogger(logpkg.WithLevel(logpkg.WarnLevel))
	}

	q := &Queue{
		db:      db,
		logger:  logger,
		cmdCh:   make(chan func()),
		stopC:   make(chan struct{}),
		doneC:   make(chan struct{}),
		waiters: list.New(),
	}

	if err := q.recover(); err != nil {
		_ = db.Close()
		return nil, err
	}

	go q.run()
	return q, nil
}

// run is the single-threaded event loop: it executes submitted closures one
// at a time, giving the engine its ordering and re-entrancy guarantees.
func (q *Queue) run() {
	defer close(q.doneC)
	for {
		select {
		case fn := <-q.cmdCh:
			fn()
		case <-q.stopC:
			return
		}
	}
}

// submit runs fn on the command loop and blocks until it has completed.
// Because the loop drains cmdCh strictly in send order, two submits from
// different goroutines execute in the order their sends were accepted,
// giving producer/producer and producer/consumer ordering guarantees.
func (q *Queue) submit(fn func()) error {
	done := make(chan struct{})
	select {
	case q.cmdCh <- func() { fn(); close(done) }:
	case <-q.doneC:
		return ErrClosed
	}
	select {
	case <-done:
		return nil
	case <-q.doneC:
		return ErrClosed
	}
}

// recover reconstructs queueTail/queueHead/chunksHead from the persisted key
// ranges. returned starts empty and itemsOpen starts at zero: any id in
// [queueTail, queueHead) left over from a prior open is implicitly
// re-enqueued, which is the engine's intended at-least-once recovery
// behavior (see DESIGN.md).
func (q *Queue) recover() error {
	queueLower := encodeKey(typeQueue, 0)
	queueUpper := encodeKey(typeChunk, 0) // exclusive; all QUEUE keys sort below any CHUNK key
	it, err := q.db.NewIter(&pebble.IterOptions{LowerBound: queueLower, UpperBound: queueUpper})
	if err != nil {
		return fmt.Errorf("queue: recover scan queue: %w", err)
	}
	if it.First() {
		_, minID, ok := decodeKey(it.Key())
		if !ok {
			_ = it.Close()
			return fmt.Errorf("queue: recover: %w", ErrCorruption)
		}
		q.queueTail = minID
		if it.Last() {
			_, maxID, ok := decodeKey(it.Key())
			if !ok {
				_ = it.Close()
				return fmt.Errorf("queue: recover: %w", ErrCorruption)
			}
			q.queueHead = maxID + 1
		}
	}
	if err := it.Close(); err != nil {
		return fmt.Errorf("queue: recover scan queue: %w", err)
	}

	chunkLower := encodeKey(typeChunk, 0)
	it2, err := q.db.NewIter(&pebble.IterOptions{LowerBound: chunkLower})
	if err != nil {
		return fmt.Errorf("queue: recover scan chunks: %w", err)
	}
	if it2.Last() {
		_, maxID, ok := decodeKey(it2.Key())
		if !ok {
			_ = it2.Close()
			return fmt.Errorf("queue: recover: %w", ErrCorruption)
		}
		q.chunksHead = maxID + 1
	}
	if err := it2.Close(); err != nil {
		return fmt.Errorf("queue: recover scan chunks: %w", err)
	}

	if q.queueHead-q.queueTail > 0 {
		q.logger.Warn("queue recovered with outstanding items",
			logpkg.F("queue_tail", q.queueTail),
			logpkg.F("queue_head", q.queueHead),
			logpkg.F("count", q.queueHead-q.queueTail),
		)
	}
	return nil
}

// Push enqueues an inline payload and returns its assigned id. Ids are
// strictly increasing across the queue's lifetime and never reused.
func (q *Queue) Push(ctx context.Context, payload []byte) (uint64, error) {
	var id uint64
	var opErr error
	err := q.submitCtx(ctx, func() {
		if q.fatalErr != nil {
			opErr = q.fatalErr
			return
		}
		id = q.queueHead
		if werr := q.db.Set(queueKey(id), encodeInlineValue(payload)); werr != nil {
			opErr = fmt.Errorf("queue: push: %w", werr)
			return
		}
		q.queueHead++
		q.spinWaiters()
	})
	if err != nil {
		return 0, err
	}
	return id, opErr
}

// ReserveChunks allocates n contiguous chunk ids for a large item the
// caller is about to stream in. The caller must write every chunk in
// [header.Beg, header.End) via WriteChunk, fill in Size, and finally call
// PushHeader before any consumer can observe the item.
func (q *Queue) ReserveChunks(ctx context.Context, n uint64) (Header, error) {
	var h Header
	err := q.submitCtx(ctx, func() {
		h = q.reserveChunks(n)
	})
	return h, err
}

// WriteChunk stores one raw fragment of a chunked item.
func (q *Queue) WriteChunk(ctx context.Context, id uint64, value []byte) error {
	var opErr error
	err := q.submitCtx(ctx, func() {
		opErr = q.writeChunk(id, value)
	})
	if err != nil {
		return err
	}
	return opErr
}

// ReadChunk fetches one raw fragment of a chunked item.
func (q *Queue) ReadChunk(ctx context.Context, id uint64) ([]byte, error) {
	var out []byte
	var opErr error
	err := q.submitCtx(ctx, func() {
		out, opErr = q.readChunk(id)
	})
	if err != nil {
		return nil, err
	}
	return out, opErr
}

// PushHeader enqueues a chunked item, whose payload was already written via
// WriteChunk, and returns its assigned id.
func (q *Queue) PushHeader(ctx context.Context, h Header) (uint64, error) {
	var id uint64
	var opErr error
	err := q.submitCtx(ctx, func() {
		if q.fatalErr != nil {
			opErr = q.fatalErr
			return
		}
		id = q.queueHead
		if werr := q.db.Set(queueKey(id), encodeHeaderValue(h)); werr != nil {
			opErr = fmt.Errorf("queue: push header: %w", werr)
			return
		}
		q.queueHead++
		q.spinWaiters()
	})
	if err != nil {
		return 0, err
	}
	return id, opErr
}

// popInternal selects the next candidate per the returned-before-tail
// policy, reads and decodes its value, and puts the id in the open state.
// Must run on the command goroutine.
func (q *Queue) popInternal() (*OpenItem, error) {
	if q.fatalErr != nil {
		return nil, q.fatalErr
	}

	var id uint64
	fromReturned := false
	switch {
	case len(q.returned) > 0:
		id = q.returned[0] // heap minimum
		fromReturned = true
	case q.queueTail < q.queueHead:
		id = q.queueTail
	default:
		return nil, ErrNotFound
	}

	raw, err := q.db.Get(queueKey(id))
	if err != nil {
		q.fatalErr = fmt.Errorf("queue: read %d: %w", id, err)
		return nil, q.fatalErr
	}
	payload, header, chunked, ok := decodeQueueValue(raw)
	if !ok || (chunked && (header.End > q.chunksHead || header.Beg >= header.End)) {
		q.fatalErr = fmt.Errorf("queue: record %d: %w", id, ErrCorruption)
		q.logger.Error("corrupt queue record, queue is now unusable",
			logpkg.F("id", id), logpkg.Err(q.fatalErr))
		return nil, q.fatalErr
	}

	// Cursors move only once the record has been read and decoded.
	if fromReturned {
		heap.Pop(&q.returned)
	} else {
		q.queueTail++
	}
	q.itemsOpen++

	item := &OpenItem{ID: id}
	if chunked {
		h := header
		item.Header = &h
	} else {
		item.Value = payload
	}
	return item, nil
}

// PopOpen checks out the next eligible item without blocking. It returns
// ErrNotFound if the queue currently has nothing eligible; callers wanting
// to block should use Wait instead.
func (q *Queue) PopOpen(ctx context.Context) (*OpenItem, error) {
	var item *OpenItem
	var opErr error
	err := q.submitCtx(ctx, func() {
		item, opErr = q.popInternal()
	})
	if err != nil {
		return nil, err
	}
	return item, opErr
}

// PopClose resolves a previously opened item. remove=true acknowledges and
// permanently deletes it (and its chunks, if any); remove=false releases it
// back to the queue, where it is preferred over newer items on the next
// pop.
func (q *Queue) PopClose(ctx context.Context, remove bool, id uint64, header *Header) error {
	var opErr error
	err := q.submitCtx(ctx, func() {
		if q.fatalErr != nil {
			opErr = q.fatalErr
			return
		}
		if remove {
			b := q.db.NewBatch()
			defer b.Close()
			if berr := b.Delete(queueKey(id), nil); berr != nil {
				opErr = fmt.Errorf("queue: pop_close delete %d: %w", id, berr)
				return
			}
			if header != nil {
				if berr := q.eraseChunks(b, *header); berr != nil {
					opErr = berr
					return
				}
			}
			if berr := q.db.CommitBatch(ctx, b); berr != nil {
				opErr = fmt.Errorf("queue: pop_close commit %d: %w", id, berr)
				return
			}
			q.itemsOpen--
			return
		}
		heap.Push(&q.returned, id)
		q.itemsOpen--
		q.spinWaiters()
	})
	if err != nil {
		return err
	}
	return opErr
}

// spinWaiters wakes waiters, oldest first, for as long as there are both
// pending waiters and an eligible item. Each woken waiter's item is popped
// synchronously here (on the command goroutine) before the next iteration,
// so a single newly available item can never be handed to two waiters.
// Must run on the command goroutine.
func (q *Queue) spinWaiters() {
	for {
		front := q.waiters.Front()
		if front == nil {
			return
		}
		item, err := q.popInternal()
		if err != nil {
			return
		}
		w := front.Value.(*waiter)
		q.waiters.Remove(front)
		w.fired = true
		w.timer.Stop()
		w.resultCh <- waitOutcome{item: item}
	}
}

// fireTimeout is invoked by a waiter's timer, posted back onto the command
// goroutine. A no-op if the waiter already fired via spinWaiters or
// cancellation.
func (q *Queue) fireTimeout(w *waiter) {
	if w.fired {
		return
	}
	w.fired = true
	q.waiters.Remove(w.elem)
	w.resultCh <- waitOutcome{err: ErrTimeout}
}

// cancelWaiter removes a waiter whose caller gave up via context
// cancellation. A no-op if it already fired.
func (q *Queue) cancelWaiter(w *waiter) {
	if w.fired {
		return
	}
	w.fired = true
	w.timer.Stop()
	q.waiters.Remove(w.elem)
}

// Wait blocks until an item is available (returning it already popped) or
// waitMs elapses, whichever comes first. waitMs<=0 checks availability once
// and fails immediately with ErrTimeout if nothing is eligible. Context
// cancellation returns ctx.Err() and releases the waiter registration.
func (q *Queue) Wait(ctx context.Context, waitMs int64) (*OpenItem, error) {
	resultCh := make(chan waitOutcome, 1)
	var w *waiter
	var immediate *waitOutcome

	err := q.submitCtx(ctx, func() {
		if item, perr := q.popInternal(); perr == nil {
			immediate = &waitOutcome{item: item}
			return
		} else if perr != ErrNotFound {
			immediate = &waitOutcome{err: perr}
			return
		}
		if waitMs <= 0 {
			immediate = &waitOutcome{err: ErrTimeout}
			return
		}
		w = &waiter{resultCh: resultCh}
		w.elem = q.waiters.PushBack(w)
		w.timer = time.AfterFunc(time.Duration(waitMs)*time.Millisecond, func() {
			_ = q.submit(func() { q.fireTimeout(w) })
		})
	})
	if err != nil {
		return nil, err
	}
	if immediate != nil {
		return immediate.item, immediate.err
	}

	select {
	case out := <-resultCh:
		return out.item, out.err
	case <-ctx.Done():
		_ = q.submit(func() { q.cancelWaiter(w) })
		return nil, ctx.Err()
	}
}

// submitCtx is submit but also unblocks on ctx cancellation. The submitted
// fn may still run (commands are not actually cancellable once accepted by
// the loop), but the caller is freed to return early.
func (q *Queue) submitCtx(ctx context.Context, fn func()) error {
	if ctx == nil {
		ctx = context.Background()
	}
	done := make(chan struct{})
	select {
	case q.cmdCh <- func() { fn(); close(done) }:
	case <-q.doneC:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-q.doneC:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Count returns the number of items currently eligible for pop:
// (queueHead - queueTail) + len(returned).
func (q *Queue) Count(ctx context.Context) (uint64, error) {
	var n uint64
	err := q.submitCtx(ctx, func() {
		n = (q.queueHead - q.queueTail) + uint64(len(q.returned))
	})
	return n, err
}

// StatsSnapshot returns a point-in-time view of the queue's counters.
func (q *Queue) StatsSnapshot(ctx context.Context) (Stats, error) {
	var s Stats
	err := q.submitCtx(ctx, func() {
		s = Stats{
			Items:            (q.queueHead - q.queueTail) + uint64(len(q.returned)),
			Waiters:          q.waiters.Len(),
			OpenTransactions: q.itemsOpen,
			QueueTail:        q.queueTail,
			QueueHead:        q.queueHead,
			ChunksHead:       q.chunksHead,
		}
	})
	return s, err
}

// Close stops the command loop and closes the underlying database. Pending
// waiters are woken with ErrClosed.
func (q *Queue) Close() error {
	select {
	case <-q.doneC:
		return nil
	default:
	}
	close(q.stopC)
	<-q.doneC
	for e := q.waiters.Front(); e != nil; e = e.Next() {
		w := e.Value.(*waiter)
		if !w.fired {
			w.fired = true
			w.timer.Stop()
			w.resultCh <- waitOutcome{err: ErrClosed}
		}
	}
	return q.db.Close()
}
