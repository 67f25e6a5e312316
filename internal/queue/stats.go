package queue

import (
	"context"
	"fmt"
	"io"
)

// WriteStats appends per-queue key/value lines to w, each prefixed with
// name, matching the introspection surface external front-ends (a
// memcache-style text protocol, say) poll for diagnostics.
func (q *Queue) WriteStats(ctx context.Context, name string, w io.Writer) error {
	s, err := q.StatsSnapshot(ctx)
	if err != nil {
		return err
	}
	lines := []struct {
		suffix string
		value  uint64
	}{
		{"items", s.Items},
		{"waiters", uint64(s.Waiters)},
		{"open_transactions", uint64(s.OpenTransactions)},
		{"queue_tail", s.QueueTail},
		{"queue_head", s.QueueHead},
		{"chunks_head", s.ChunksHead},
	}
	for _, l := range lines {
		if _, err := fmt.Fprintf(w, "%s.%s %d\n", name, l.suffix, l.value); err != nil {
			return err
		}
	}
	return nil
}
