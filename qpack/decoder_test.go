package qpack

import "testing"

func TestDecoderStaticOnlyHeaderBlock(t *testing.T) {
	d := NewDecoder(nil)
	var got []HeaderOut
	d.HeaderBlockDone = func(streamID uint64, headers []HeaderOut) { got = headers }
	var acked []byte
	d.WriteDecoderInstruction = func(b []byte) { acked = b }

	idx, _, found := FindStatic(":method", "GET")
	if !found {
		t.Fatalf(":method GET must be static")
	}
	buf := encodePrefix(nil, 0, 0, 4096)
	buf = encodeIndexed(buf, uint64(idx), true)

	if err := d.HeaderBlockInput(0, buf, true); err != nil {
		t.Fatalf("HeaderBlockInput: %v", err)
	}
	if len(got) != 1 || got[0].Name != ":method" || got[0].Value != "GET" {
		t.Fatalf("got = %+v", got)
	}
	if len(acked) == 0 {
		t.Fatalf("expected a Header Acknowledgement to be written")
	}
}

func TestDecoderBlocksThenUnblocksOnInsert(t *testing.T) {
	d := NewDecoder(nil)
	var got []HeaderOut
	d.HeaderBlockDone = func(streamID uint64, headers []HeaderOut) { got = headers }
	d.WriteDecoderInstruction = func(b []byte) {}

	// reqInsertCount = 1, base = 0: the referenced entry hasn't been
	// inserted on the encoder stream yet, so this must block.
	buf := encodePrefix(nil, 1, 0, 4096)
	buf = EncodeInt(buf, 0, 4, 0x10) // indexed-post-base, index 0

	if err := d.HeaderBlockInput(0, buf, true); err != nil {
		t.Fatalf("HeaderBlockInput: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no headers yet, got %+v", got)
	}
	if d.blocked.Len() != 1 {
		t.Fatalf("expected stream to be tracked as blocked")
	}

	// The table's usable capacity starts at 0 until a Set Dynamic Table
	// Capacity instruction arrives; send one before the insert or it
	// would be rejected as exceeding capacity.
	capInstr := EncodeInt(nil, 4096, 5, 0x20)
	if err := d.EncoderStreamInput(capInstr); err != nil {
		t.Fatalf("EncoderStreamInput (capacity): %v", err)
	}

	var instr []byte
	instr = EncodeInt(instr, uint64(len("x-post")), 5, 0x40)
	instr = append(instr, "x-post"...)
	instr = append(instr, byte(len("post-value")))
	instr = append(instr, "post-value"...)

	if err := d.EncoderStreamInput(instr); err != nil {
		t.Fatalf("EncoderStreamInput: %v", err)
	}
	if len(got) != 1 || got[0].Name != "x-post" || got[0].Value != "post-value" {
		t.Fatalf("got = %+v", got)
	}
	if d.blocked.Len() != 0 {
		t.Fatalf("expected stream to be unblocked")
	}
}

func TestDecoderCancelStreamDropsParserAndBlockedEntry(t *testing.T) {
	d := NewDecoder(nil)
	d.WriteDecoderInstruction = func(b []byte) {}

	buf := encodePrefix(nil, 1, 0, 4096)
	buf = EncodeInt(buf, 0, 4, 0x10)
	_ = d.HeaderBlockInput(0, buf, true)
	if d.blocked.Len() != 1 {
		t.Fatalf("expected stream blocked before cancel")
	}

	d.CancelStream(0)
	if d.blocked.Len() != 0 {
		t.Fatalf("expected blocked entry removed after cancel")
	}
	if _, ok := d.parsers[0]; ok {
		t.Fatalf("expected parser removed after cancel")
	}
}
