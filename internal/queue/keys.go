package queue

import (
	"encoding/binary"

	"github.com/cockroachdb/pebble"
)

// recordType discriminates the two key namespaces sharing one database.
type recordType byte

const (
	typeQueue recordType = 1
	typeChunk recordType = 2
)

// keyLen is the fixed width of every key: 8 id bytes followed by 1 type byte.
const keyLen = 9

// encodeKey renders a fixed-width key for the given type and id.
func encodeKey(t recordType, id uint64) []byte {
	k := make([]byte, keyLen)
	binary.BigEndian.PutUint64(k[0:8], id)
	k[8] = byte(t)
	return k
}

func queueKey(id uint64) []byte { return encodeKey(typeQueue, id) }
func chunkKey(id uint64) []byte { return encodeKey(typeChunk, id) }

// decodeKey splits a raw key back into its type and id. ok is false if the
// key is not the expected fixed width.
func decodeKey(k []byte) (t recordType, id uint64, ok bool) {
	if len(k) != keyLen {
		return 0, 0, false
	}
	return recordType(k[8]), binary.BigEndian.Uint64(k[0:8]), true
}

// comparerName must stay fixed: a database created with this comparer
// cannot be reopened without it, and Pebble refuses to open a store whose
// on-disk comparer name differs from the one it was created with.
const comparerName = "duraq.queue.v1"

// comparer orders records first by type, then by id within the type, so
// the QUEUE and CHUNK namespaces each occupy a contiguous, numerically
// sorted key range. Ids are encoded big-endian, but the id bytes come before
// the type byte, so a naive bytes.Compare would order by id first and
// interleave the two namespaces; the decoded fields are therefore compared
// explicitly, type first.
// compareKeys implements the (type, id) ordering described above comparer.
func compareKeys(a, b []byte) int {
	ta, ida, okA := decodeKey(a)
	tb, idb, okB := decodeKey(b)
	if !okA || !okB {
		if len(a) != len(b) {
			if len(a) < len(b) {
				return -1
			}
			return 1
		}
		for i := range a {
			if a[i] != b[i] {
				if a[i] < b[i] {
					return -1
				}
				return 1
			}
		}
		return 0
	}
	if ta != tb {
		if ta < tb {
			return -1
		}
		return 1
	}
	switch {
	case ida < idb:
		return -1
	case ida > idb:
		return 1
	default:
		return 0
	}
}

var comparer = &pebble.Comparer{
	Name:    comparerName,
	Compare: compareKeys,
	Equal: func(a, b []byte) bool {
		return compareKeys(a, b) == 0
	},
	// Records are fixed width; there is no useful prefix to shorten on, so
	// the separator hooks are no-ops that return the original bound.
	Separator: func(dst, a, b []byte) []byte { return append(dst, a...) },
	Successor: func(dst, a []byte) []byte { return append(dst, a...) },
	AbbreviatedKey: func(k []byte) uint64 {
		t, id, ok := decodeKey(k)
		if !ok {
			return 0
		}
		// Pack type into the top byte so abbreviated comparisons agree with
		// Compare's (type, id) ordering for the common fixed-width case.
		return uint64(t)<<56 | (id >> 8)
	},
	FormatKey: pebble.DefaultComparer.FormatKey,
	Split:     func(k []byte) int { return len(k) },
}
