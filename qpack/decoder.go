package qpack

// Decoder is the top-level QPACK decoder (spec.md §6): it owns the
// dynamic table, the encoder-stream instruction parser, a
// per-stream header-block parser pool, and the blocked-stream tracker,
// wiring them together behind a small callback-based contract so the
// transport layer never has to reach into the codec's internals.
//
// Grounded on http3/qpack/decoder.go's top-level Decoder struct
// (dynamicTable + maxTableSize + blockedStreams fields), generalized
// to the resumable, risk-aware, multi-stream contract of spec.md §6 —
// the teacher's Decoder decodes one complete in-memory header block
// per call and has no notion of blocking at all.
// streamState pairs a stream's header-block parser with whatever bytes
// it hasn't consumed yet: when a block blocks on a dynamic-table
// insertion it hasn't seen, the tail of the chunk that triggered
// ParseBlocked must survive until the resume, and the caller's own
// final flag must be remembered since a later resume (triggered by
// onInsert) has no fresh chunk or flag of its own to pass in.
type streamState struct {
	parser *DecoderHeaderBlockParser
	buf    []byte
	final  bool
}

type Decoder struct {
	cfg   *Config
	table *DynTableDecoder
	instr *DecoderEncoderStreamParser
	blocked *BlockedStreams

	parsers map[uint64]*streamState

	// HeaderBlockDone is called once a stream's header block finishes
	// parsing, with the decoded field list. Must be set before use.
	HeaderBlockDone func(streamID uint64, headers []HeaderOut)

	// WriteDecoderInstruction is called to emit bytes on the decoder
	// stream (Header Acknowledgement / Stream Cancellation). Must be
	// set before use.
	WriteDecoderInstruction func([]byte)
}

// NewDecoder creates a decoder with the given configuration (nil uses
// DefaultConfig).
func NewDecoder(cfg *Config) *Decoder {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	table := NewDynTableDecoder(cfg.MaxTableCapacity)
	d := &Decoder{
		cfg:     cfg,
		table:   table,
		blocked: NewBlockedStreams(cfg.MaxRiskedStreams),
		parsers: make(map[uint64]*streamState),
	}
	d.instr = NewDecoderEncoderStreamParser(table)
	d.instr.OnInsert(func(absID uint64, name, value string) {
		d.onInsert()
	})
	return d
}

// onInsert is called after every committed dynamic-table insertion: it
// unblocks any header blocks whose Required Insert Count is now
// satisfied and retries them with whatever tail they had buffered.
func (d *Decoder) onInsert() {
	ready := d.blocked.PopReady(d.table.InsertCount())
	for _, streamID := range ready {
		d.resumeStream(streamID)
	}
}

// EncoderStreamInput feeds bytes received on the encoder stream.
func (d *Decoder) EncoderStreamInput(src []byte) error {
	_, result, err := d.instr.Feed(src)
	if err != nil {
		return err
	}
	if result == ParseDone || result == ParseNeedMore {
		return nil
	}
	return ErrInvalidInstruction
}

// HeaderBlockInput feeds bytes belonging to streamID's header block.
// Pass final=true on the last chunk. Once the block fully parses,
// HeaderBlockDone is invoked and a Header Acknowledgement is queued on
// the decoder stream; if the block is blocked on not-yet-received
// dynamic table insertions, parsing pauses until EncoderStreamInput
// delivers enough of them.
func (d *Decoder) HeaderBlockInput(streamID uint64, src []byte, final bool) error {
	st, ok := d.parsers[streamID]
	if !ok {
		st = &streamState{parser: NewDecoderHeaderBlockParser(d.table)}
		d.parsers[streamID] = st
	}
	st.buf = append(st.buf, src...)
	st.final = final
	return d.resumeStream(streamID)
}

func (d *Decoder) resumeStream(streamID uint64) error {
	st, ok := d.parsers[streamID]
	if !ok {
		return nil
	}
	consumed, result, headers, err := st.parser.Feed(st.buf, st.final)
	st.buf = st.buf[consumed:]
	if err != nil {
		delete(d.parsers, streamID)
		return err
	}
	switch result {
	case ParseBlocked:
		if !d.blocked.Insert(streamID, st.parser.reqInsertCount) {
			delete(d.parsers, streamID)
			return ErrRequiredInsertCountTooLarge
		}
		return nil
	case ParseDone:
		delete(d.parsers, streamID)
		d.blocked.Remove(streamID)
		if d.HeaderBlockDone != nil {
			d.HeaderBlockDone(streamID, headers)
		}
		d.ackHeader(streamID)
	}
	return nil
}

// ackHeader emits a Header Acknowledgement instruction on the decoder
// stream (RFC 9204 §4.4.1): "1" + 7-bit prefix stream id.
func (d *Decoder) ackHeader(streamID uint64) {
	if d.WriteDecoderInstruction == nil {
		return
	}
	buf := EncodeInt(nil, streamID, 7, 0x80)
	d.WriteDecoderInstruction(buf)
}

// CancelStream processes a stream's cancellation: any still-open or
// blocked header block on it is abandoned, and a Stream Cancellation
// instruction is emitted on the decoder stream (RFC 9204 §4.4.2):
// "01" + 6-bit prefix stream id.
func (d *Decoder) CancelStream(streamID uint64) {
	delete(d.parsers, streamID)
	d.blocked.Remove(streamID)
	if d.WriteDecoderInstruction == nil {
		return
	}
	buf := EncodeInt(nil, streamID, 6, 0x40)
	d.WriteDecoderInstruction(buf)
}

// SetMaxTableCapacity updates the maximum the connection negotiated;
// the actual usable capacity still only changes via a Set Dynamic
// Table Capacity instruction on the encoder stream.
func (d *Decoder) SetMaxTableCapacity(capacity uint64) {
	d.table.maxCapacity = capacity
}
