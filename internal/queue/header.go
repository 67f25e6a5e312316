package queue

import "encoding/binary"

// valueTag is the first byte of every QUEUE value, disambiguating an inline
// payload from a chunked item's header. A length-based scheme would be
// ambiguous whenever a payload happens to be exactly headerLen bytes long,
// so every value is tagged explicitly instead.
type valueTag byte

const (
	tagInline valueTag = 0
	tagHeader valueTag = 1
)

// headerLen is the encoded size of a Header: three big-endian uint64 fields.
const headerLen = 24

// Header describes a chunked item: its payload lives in CHUNK records with
// ids in [Beg, End), and Size is the total payload byte length across those
// chunks.
type Header struct {
	Beg  uint64
	End  uint64
	Size uint64
}

// NumChunks returns the number of chunk records the header spans.
func (h Header) NumChunks() uint64 { return h.End - h.Beg }

// encode renders the header as its 24-byte wire form.
func (h Header) encode() []byte {
	b := make([]byte, headerLen)
	binary.BigEndian.PutUint64(b[0:8], h.Beg)
	binary.BigEndian.PutUint64(b[8:16], h.End)
	binary.BigEndian.PutUint64(b[16:24], h.Size)
	return b
}

// decodeHeader parses a 24-byte header body. ok is false if b is the wrong
// length or describes an invalid range.
func decodeHeader(b []byte) (h Header, ok bool) {
	if len(b) != headerLen {
		return Header{}, false
	}
	h.Beg = binary.BigEndian.Uint64(b[0:8])
	h.End = binary.BigEndian.Uint64(b[8:16])
	h.Size = binary.BigEndian.Uint64(b[16:24])
	if h.Beg >= h.End {
		return Header{}, false
	}
	return h, true
}

// encodeInlineValue tags a raw payload as an inline QUEUE value.
func encodeInlineValue(payload []byte) []byte {
	v := make([]byte, 1+len(payload))
	v[0] = byte(tagInline)
	copy(v[1:], payload)
	return v
}

// encodeHeaderValue tags an encoded header as a chunked QUEUE value.
func encodeHeaderValue(h Header) []byte {
	v := make([]byte, 1+headerLen)
	v[0] = byte(tagHeader)
	copy(v[1:], h.encode())
	return v
}

// decodeQueueValue splits a stored QUEUE value back into either an inline
// payload or a header, based on its leading tag byte.
func decodeQueueValue(v []byte) (payload []byte, header Header, chunked bool, ok bool) {
	if len(v) < 1 {
		return nil, Header{}, false, false
	}
	switch valueTag(v[0]) {
	case tagInline:
		return v[1:], Header{}, false, true
	case tagHeader:
		h, decOK := decodeHeader(v[1:])
		if !decOK {
			return nil, Header{}, false, false
		}
		return nil, h, true, true
	default:
		return nil, Header{}, false, false
	}
}
