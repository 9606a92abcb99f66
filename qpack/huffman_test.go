package qpack

import (
	"bytes"
	"testing"
)

func TestHuffEncodeDecodeRoundTrip(t *testing.T) {
	cases := []string{
		"",
		"www.example.com",
		"no-cache",
		"custom-key",
		"custom-value",
		"a",
		"The quick brown fox jumps over the lazy dog 0123456789",
	}
	for _, s := range cases {
		t.Run(s, func(t *testing.T) {
			enc := HuffEncode(nil, []byte(s))
			if got := HuffEncodedLen([]byte(s)); got != len(enc) {
				t.Fatalf("HuffEncodedLen = %d, actual encode = %d", got, len(enc))
			}
			dec, err := HuffDecodeAll(enc)
			if err != nil {
				t.Fatalf("decode error: %v", err)
			}
			if !bytes.Equal(dec, []byte(s)) {
				t.Fatalf("got %q, want %q", dec, s)
			}
		})
	}
}

func TestHuffDecodeResumableAcrossChunks(t *testing.T) {
	s := "this-is-a-reasonably-long-header-value-for-chunking"
	enc := HuffEncode(nil, []byte(s))

	var st HuffDecodeState
	var out []byte
	for i, b := range enc {
		final := i == len(enc)-1
		var result ParseResult
		var err error
		out, result, err = HuffDecode(&st, out, []byte{b}, final)
		if err != nil {
			t.Fatalf("byte %d: unexpected error %v", i, err)
		}
		if !final && result != ParseNeedMore {
			t.Fatalf("byte %d: result = %v, want ParseNeedMore", i, result)
		}
		if final && result != ParseDone {
			t.Fatalf("final byte: result = %v, want ParseDone", result)
		}
	}
	if string(out) != s {
		t.Fatalf("got %q, want %q", out, s)
	}
}

func TestHuffDecodeRejectsInvalidPadding(t *testing.T) {
	// Four 0xff bytes are 32 one-bits: the first 30 of them spell out
	// the EOS code, and EOS inside a Huffman string is a decoding error.
	var s HuffDecodeState
	_, result, err := HuffDecode(&s, nil, []byte{0xff, 0xff, 0xff, 0xff}, true)
	if result != ParseError || err != ErrInvalidHuffmanCode {
		t.Fatalf("got (%v, %v), want (ParseError, ErrInvalidHuffmanCode)", result, err)
	}
}

func TestHuffEncodedLenBoundedForLongCodes(t *testing.T) {
	// Every symbol's code is at most 30 bits, so Huffman coding never
	// needs more than ceil(len*30/8) bytes even in an adversarial input;
	// sanity check it stays within 4 bytes per input byte.
	data := bytes.Repeat([]byte{0x00}, 100) // symbol 0 has a 13-bit code, longer than the byte itself
	got := HuffEncodedLen(data)
	if got <= 0 || got > len(data)*4 {
		t.Fatalf("HuffEncodedLen(100 zero bytes) = %d, looks wrong", got)
	}
}
