package queue

import "errors"

// Sentinel errors returned by the queue engine. Callers should test with
// errors.Is since these may be wrapped with additional context via %w.
var (
	// ErrNotFound is returned by PopOpen when the queue has no eligible item.
	ErrNotFound = errors.New("queue: no item available")
	// ErrTimeout is delivered to a Wait callback whose deadline elapsed
	// without an item becoming available.
	ErrTimeout = errors.New("queue: wait timed out")
	// ErrCorruption indicates a QUEUE value failed to decode as either a
	// tagged inline payload or a well-formed header. It is fatal to the
	// queue instance: cursors must not advance past a corrupt record.
	ErrCorruption = errors.New("queue: corrupt record")
	// ErrClosed is returned by any call made after Close.
	ErrClosed = errors.New("queue: closed")
)
