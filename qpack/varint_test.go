package qpack

import "testing"

func TestEncodeDecodeIntRoundTrip(t *testing.T) {
	cases := []struct {
		name       string
		value      uint64
		prefixBits uint
	}{
		{"fits-in-prefix", 5, 5},
		{"exactly-prefix-max-minus-one", 30, 5},
		{"needs-continuation", 1337, 5},
		{"zero", 0, 8},
		{"large", 1 << 40, 6},
		{"max-ish", (uint64(1) << 62) - 1, 7},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var buf []byte
			buf = EncodeInt(buf, c.value, c.prefixBits, 0)

			var s IntDecodeState
			got, result, consumed, err := DecodeInt(&s, buf, c.prefixBits)
			if err != nil {
				t.Fatalf("decode error: %v", err)
			}
			if result != ParseDone {
				t.Fatalf("result = %v, want ParseDone", result)
			}
			if consumed != len(buf) {
				t.Fatalf("consumed = %d, want %d", consumed, len(buf))
			}
			if got != c.value {
				t.Fatalf("got %d, want %d", got, c.value)
			}
		})
	}
}

func TestDecodeIntResumable(t *testing.T) {
	var buf []byte
	buf = EncodeInt(buf, 123456789, 5, 0)

	var s IntDecodeState
	var total uint64
	var result ParseResult
	var err error
	for i, b := range buf {
		final := i == len(buf)-1
		total, result, _, err = DecodeInt(&s, []byte{b}, 5)
		if err != nil {
			t.Fatalf("decode error: %v", err)
		}
		if !final && result != ParseNeedMore {
			t.Fatalf("byte %d: result = %v, want ParseNeedMore", i, result)
		}
		if final && result != ParseDone {
			t.Fatalf("final byte: result = %v, want ParseDone", result)
		}
	}
	if total != 123456789 {
		t.Fatalf("got %d, want 123456789", total)
	}
}

func TestDecodeIntNeedsMoreOnEmptyInput(t *testing.T) {
	var s IntDecodeState
	_, result, consumed, err := DecodeInt(&s, nil, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != ParseNeedMore {
		t.Fatalf("result = %v, want ParseNeedMore", result)
	}
	if consumed != 0 {
		t.Fatalf("consumed = %d, want 0", consumed)
	}
}

func TestDecodeIntOverflow(t *testing.T) {
	// 11 continuation bytes, each with the high bit set, can't resolve to
	// any legal 64-bit value.
	buf := []byte{0x1f}
	for i := 0; i < 11; i++ {
		buf = append(buf, 0xff)
	}
	buf = append(buf, 0x01)

	var s IntDecodeState
	_, result, _, err := DecodeInt(&s, buf, 5)
	if result != ParseError || err != ErrIntegerOverflow {
		t.Fatalf("got (%v, %v), want (ParseError, ErrIntegerOverflow)", result, err)
	}
}

func TestIntEncodedLenMatchesActualOutput(t *testing.T) {
	for _, v := range []uint64{0, 1, 30, 31, 128, 16383, 1 << 32} {
		got := IntEncodedLen(v, 5)
		buf := EncodeInt(nil, v, 5, 0)
		if got != len(buf) {
			t.Errorf("IntEncodedLen(%d) = %d, want %d", v, got, len(buf))
		}
	}
}
