package qpack

import (
	"strings"
	"testing"

	quicqpack "github.com/quic-go/qpack"
)

// These tests cross-validate this package's encoder against an
// independent QPACK decoder (quic-go/qpack) and vice versa, the way the
// teacher's benchmarks compare against a named competitor rather than
// just round-tripping through itself.
//
// This port uses the 61-entry HPACK static table (lsqpack's ids), while
// quic-go/qpack uses RFC 9204's 99-entry QPACK static table — the same
// index means a different header in each. So cross-validation is
// restricted to content that never touches either side's static or
// dynamic table: custom field names (with NeverIndex set on this
// package's side), which both encoders emit as literal-no-name-ref
// regardless of which static table the other side has loaded.

func TestInteropOurEncoderDecodedByQuicGo(t *testing.T) {
	enc := NewEncoder(nil)
	if err := enc.StartHeader(0); err != nil {
		t.Fatalf("StartHeader: %v", err)
	}
	fields := []HeaderField{
		{Name: "x-qpackbench-trace", Value: "abc123", NeverIndex: true},
		{Name: "x-qpackbench-session", Value: "0123456789abcdef", NeverIndex: true},
	}
	var block []byte
	for _, f := range fields {
		var err error
		block, err = enc.Encode(block, f)
		if err != nil {
			t.Fatalf("Encode(%s): %v", f.Name, err)
		}
	}
	block, err := enc.EndHeader(block)
	if err != nil {
		t.Fatalf("EndHeader: %v", err)
	}

	// Literal-no-name-ref field lines carry RIC=0, so a decoder with an
	// empty dynamic table can decode them without seeing any
	// encoder-stream instructions first.
	refDec := quicqpack.NewDecoder(nil)
	got, err := refDec.DecodeFull(block)
	if err != nil {
		t.Fatalf("quic-go decode: %v", err)
	}
	if len(got) != len(fields) {
		t.Fatalf("got %d fields, want %d", len(got), len(fields))
	}
	for i, f := range fields {
		if got[i].Name != f.Name || got[i].Value != f.Value {
			t.Errorf("field %d = %+v, want %+v", i, got[i], f)
		}
	}
}

func TestInteropQuicGoEncodedDecodedByUs(t *testing.T) {
	var buf strings.Builder
	refEnc := quicqpack.NewEncoder(&buf)
	fields := []quicqpack.HeaderField{
		{Name: "x-qpackbench-trace", Value: "xyz789"},
		{Name: "x-qpackbench-session", Value: "fedcba9876543210"},
	}
	for _, f := range fields {
		if err := refEnc.WriteField(f); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	if err := refEnc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	p := NewDecoderHeaderBlockParser(NewDynTableDecoder(4096))
	_, result, headers, err := p.Feed([]byte(buf.String()), true)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if result != ParseDone {
		t.Fatalf("result = %v, want ParseDone", result)
	}
	if len(headers) != len(fields) {
		t.Fatalf("got %d fields, want %d", len(headers), len(fields))
	}
	for i, f := range fields {
		if headers[i].Name != f.Name || headers[i].Value != f.Value {
			t.Errorf("field %d = %+v, want %+v", i, headers[i], f)
		}
	}
}
