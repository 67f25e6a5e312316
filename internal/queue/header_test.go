package queue

import "testing"

func TestHeaderEncodeDecodeRoundTrip(t *testing.T) {
	h := Header{Beg: 3, End: 9, Size: 1024}
	got, ok := decodeHeader(h.encode())
	if !ok {
		t.Fatalf("decode failed")
	}
	if got != h {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, h)
	}
}

func TestDecodeHeaderRejectsInvalidRange(t *testing.T) {
	h := Header{Beg: 9, End: 9, Size: 0} // empty range is invalid
	if _, ok := decodeHeader(h.encode()); ok {
		t.Fatalf("want decode to reject Beg==End")
	}
}

func TestDecodeQueueValueInline(t *testing.T) {
	v := encodeInlineValue([]byte("hello"))
	payload, _, chunked, ok := decodeQueueValue(v)
	if !ok || chunked || string(payload) != "hello" {
		t.Fatalf("got payload=%q chunked=%v ok=%v", payload, chunked, ok)
	}
}

func TestDecodeQueueValueHeader(t *testing.T) {
	h := Header{Beg: 0, End: 4, Size: 100}
	v := encodeHeaderValue(h)
	_, gotHeader, chunked, ok := decodeQueueValue(v)
	if !ok || !chunked || gotHeader != h {
		t.Fatalf("got header=%+v chunked=%v ok=%v", gotHeader, chunked, ok)
	}
}

func TestDecodeQueueValueRejectsUnknownTag(t *testing.T) {
	v := []byte{0x02, 1, 2, 3}
	if _, _, _, ok := decodeQueueValue(v); ok {
		t.Fatalf("want decode to reject unknown tag")
	}
}

func TestDecodeQueueValueRejectsEmpty(t *testing.T) {
	if _, _, _, ok := decodeQueueValue(nil); ok {
		t.Fatalf("want decode to reject empty value")
	}
}

func TestInlinePayloadCannotBeMistakenForHeader(t *testing.T) {
	// A payload exactly headerLen bytes long would be ambiguous under a
	// length-based disambiguation scheme; the explicit tag byte removes
	// that ambiguity entirely.
	payload := make([]byte, headerLen)
	for i := range payload {
		payload[i] = 0xAB
	}
	v := encodeInlineValue(payload)
	got, _, chunked, ok := decodeQueueValue(v)
	if !ok || chunked {
		t.Fatalf("want inline decode despite header-length payload, got chunked=%v ok=%v", chunked, ok)
	}
	if string(got) != string(payload) {
		t.Fatalf("payload mismatch")
	}
}
