package qpack

import "testing"

func encodePrefix(dst []byte, reqInsertCount, base, capacity uint64) []byte {
	enc := encodeRequiredInsertCount(reqInsertCount, capacity)
	dst = EncodeInt(dst, enc, 8, 0)
	if base >= reqInsertCount {
		return EncodeInt(dst, base-reqInsertCount, 7, 0)
	}
	return EncodeInt(dst, reqInsertCount-base-1, 7, 0x80)
}

func TestHeaderBlockParserStaticIndexed(t *testing.T) {
	tbl := NewDynTableDecoder(4096)
	p := NewDecoderHeaderBlockParser(tbl)

	idx, _, found := FindStatic(":method", "GET")
	if !found {
		t.Fatalf(":method GET must be static")
	}

	buf := encodePrefix(nil, 0, 0, tbl.Capacity())
	buf = encodeIndexed(buf, uint64(idx), true)

	_, result, headers, err := p.Feed(buf, true)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if result != ParseDone {
		t.Fatalf("result = %v, want ParseDone", result)
	}
	if len(headers) != 1 || headers[0].Name != ":method" || headers[0].Value != "GET" {
		t.Fatalf("headers = %+v", headers)
	}
}

func TestHeaderBlockParserLiteralNoNameRef(t *testing.T) {
	tbl := NewDynTableDecoder(4096)
	p := NewDecoderHeaderBlockParser(tbl)

	buf := encodePrefix(nil, 0, 0, tbl.Capacity())
	buf = encodeStringField(buf, "x-custom", 3, 0x20, 0x08)
	buf = encodeValueField(buf, "value")

	_, result, headers, err := p.Feed(buf, true)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if result != ParseDone || len(headers) != 1 {
		t.Fatalf("result=%v headers=%+v", result, headers)
	}
	if headers[0].Name != "x-custom" || headers[0].Value != "value" {
		t.Fatalf("got %+v", headers[0])
	}
}

func TestHeaderBlockParserLiteralNeverIndex(t *testing.T) {
	tbl := NewDynTableDecoder(4096)
	p := NewDecoderHeaderBlockParser(tbl)

	buf := encodePrefix(nil, 0, 0, tbl.Capacity())
	buf = encodeStringField(buf, "cookie", 3, 0x30, 0x08)
	buf = encodeValueField(buf, "secret")

	_, result, headers, err := p.Feed(buf, true)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if result != ParseDone || len(headers) != 1 || !headers[0].NeverIndex {
		t.Fatalf("headers=%+v result=%v", headers, result)
	}
}

func TestHeaderBlockParserIndexedDynamicPreBase(t *testing.T) {
	tbl := NewDynTableDecoder(4096)
	_ = tbl.SetCapacity(4096)
	_, _ = tbl.Insert("x-dyn", "dyn-value")

	p := NewDecoderHeaderBlockParser(tbl)

	// base = 1 (one entry already inserted), reqInsertCount = 1 so the
	// reference is satisfied immediately; index 0 refers to absID 0
	// relative to base (pre-base: base - idx - 1 = 0).
	buf := encodePrefix(nil, 1, 1, tbl.Capacity())
	buf = encodeIndexed(buf, 0, false)

	_, result, headers, err := p.Feed(buf, true)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if result != ParseDone || len(headers) != 1 {
		t.Fatalf("result=%v headers=%+v", result, headers)
	}
	if headers[0].Name != "x-dyn" || headers[0].Value != "dyn-value" {
		t.Fatalf("got %+v", headers[0])
	}
}

func TestHeaderBlockParserIndexedPostBase(t *testing.T) {
	tbl := NewDynTableDecoder(4096)
	_ = tbl.SetCapacity(4096)

	p := NewDecoderHeaderBlockParser(tbl)

	// base = 0, reqInsertCount = 1: the referenced entry (absID 0) is
	// inserted *after* base, so it's a post-base reference with index 0.
	buf := encodePrefix(nil, 1, 0, tbl.Capacity())
	buf = EncodeInt(buf, 0, 4, 0x10)

	// The table doesn't have the entry yet: Feed must block until it
	// arrives.
	consumed, result, headers, err := p.Feed(buf, true)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if result != ParseBlocked || len(headers) != 0 {
		t.Fatalf("result=%v headers=%+v, want ParseBlocked", result, headers)
	}

	_, _ = tbl.Insert("x-post", "post-value")

	// Resume with the bytes the blocked call left unconsumed.
	_, result, headers, err = p.Feed(buf[consumed:], true)
	if err != nil {
		t.Fatalf("Feed after insert: %v", err)
	}
	if result != ParseDone || len(headers) != 1 {
		t.Fatalf("result=%v headers=%+v", result, headers)
	}
	if headers[0].Name != "x-post" || headers[0].Value != "post-value" {
		t.Fatalf("got %+v", headers[0])
	}
}

func TestHeaderBlockParserLiteralNameRefStatic(t *testing.T) {
	tbl := NewDynTableDecoder(4096)
	p := NewDecoderHeaderBlockParser(tbl)

	idx, _, found := FindStatic(":method", "")
	if !found {
		t.Fatalf(":method must be static")
	}

	buf := encodePrefix(nil, 0, 0, tbl.Capacity())
	buf = EncodeInt(buf, uint64(idx), 4, 0x50) // 01NT, N=0 T=1 (static)
	buf = encodeValueField(buf, "PATCH")

	_, result, headers, err := p.Feed(buf, true)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if result != ParseDone || len(headers) != 1 {
		t.Fatalf("result=%v headers=%+v", result, headers)
	}
	if headers[0].Name != ":method" || headers[0].Value != "PATCH" {
		t.Fatalf("got %+v", headers[0])
	}
}

func TestHeaderBlockParserResumableByteAtATime(t *testing.T) {
	tbl := NewDynTableDecoder(4096)
	p := NewDecoderHeaderBlockParser(tbl)

	idx, _, found := FindStatic(":method", "GET")
	if !found {
		t.Fatalf(":method GET must be static")
	}
	buf := encodePrefix(nil, 0, 0, tbl.Capacity())
	buf = encodeIndexed(buf, uint64(idx), true)

	var headers []HeaderOut
	for i := range buf {
		final := i == len(buf)-1
		_, result, hs, err := p.Feed(buf[i:i+1], final)
		if err != nil {
			t.Fatalf("byte %d: %v", i, err)
		}
		headers = append(headers, hs...)
		if !final && result != ParseNeedMore {
			t.Fatalf("byte %d: result = %v, want ParseNeedMore", i, result)
		}
	}
	if len(headers) != 1 || headers[0].Name != ":method" || headers[0].Value != "GET" {
		t.Fatalf("headers = %+v", headers)
	}
}
