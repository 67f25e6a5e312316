package queue

import (
	"fmt"

	"github.com/cockroachdb/pebble"
)

// reserveChunks allocates n contiguous CHUNK ids and advances chunksHead. It
// performs no KV writes: the caller fills in Size and writes every chunk via
// writeChunk before the terminating Push(header).
//
// Must run on the queue's command goroutine.
func (q *Queue) reserveChunks(n uint64) Header {
	beg := q.chunksHead
	q.chunksHead += n
	return Header{Beg: beg, End: beg + n}
}

// writeChunk stores one raw chunk fragment. id must fall within a range
// returned by reserveChunks; chunks may be written in any order within that
// range.
//
// Must run on the queue's command goroutine.
func (q *Queue) writeChunk(id uint64, value []byte) error {
	if err := q.db.Set(chunkKey(id), value); err != nil {
		return fmt.Errorf("queue: write chunk %d: %w", id, err)
	}
	return nil
}

// readChunk fetches one raw chunk fragment, failing if absent.
//
// Must run on the queue's command goroutine.
func (q *Queue) readChunk(id uint64) ([]byte, error) {
	v, err := q.db.Get(chunkKey(id))
	if err != nil {
		return nil, fmt.Errorf("queue: read chunk %d: %w", id, err)
	}
	return v, nil
}

// eraseChunks deletes every CHUNK record in [h.Beg, h.End), batched into a
// single atomic write.
//
// Must run on the queue's command goroutine.
func (q *Queue) eraseChunks(b *pebble.Batch, h Header) error {
	for id := h.Beg; id < h.End; id++ {
		if err := b.Delete(chunkKey(id), nil); err != nil {
			return fmt.Errorf("queue: erase chunk %d: %w", id, err)
		}
	}
	return nil
}
