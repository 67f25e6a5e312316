// Package queue implements a durable, in-process FIFO message queue over a
// Pebble key-value store.
//
// A Queue owns one Pebble database and exposes a Push/Wait/PopOpen/PopClose
// lifecycle: producers push opaque payloads (or pre-written chunk ranges for
// large items), consumers wait for availability and then check an item out,
// finally resolving it with either removal (acknowledge) or release back to
// the queue (reject / crash-safety).
//
// # Keyspace
//
// Every record key is a fixed 9-byte tuple: 8 bytes of big-endian id followed
// by a 1-byte type discriminator (QUEUE=1, CHUNK=2). A custom pebble.Comparer
// orders records first by type, then by id, so the QUEUE and CHUNK
// namespaces each form a contiguous, numerically ordered range regardless of
// interleaved writes.
//
//	id_be8 || 0x01   -> QUEUE record  (tag byte || payload, or tag byte || header)
//	id_be8 || 0x02   -> CHUNK record  (raw payload fragment)
//
// # Concurrency model
//
// Each Queue runs a single dedicated goroutine that drains a command
// channel; every mutating call (Push, PopOpen, PopClose, Wait, and timer
// firings) is submitted as a closure onto that channel and executed one at a
// time. This reproduces the single-threaded event-loop semantics the engine
// is specified against without a mutex guarding the in-memory cursors.
package queue
