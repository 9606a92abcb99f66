package qpack

// Encoder is the QPACK encoder (spec.md §4.5): per header field it
// chooses between referencing the static table, referencing or growing
// the dynamic table, or falling back to a literal, subject to a risk
// policy that bounds how many unacknowledged references may be
// outstanding at once.
//
// Grounded on http3/qpack/encoder.go's field-line writers
// (writeIndexedFieldLine, writeLiteralFieldLineWithNameRef, ...) and
// its buf *bytes.Buffer accumulation style, generalized with the
// decision matrix, risk bookkeeping and per-stream block tracking that
// prototype never needed (it always wrote RIC=0, Base=0 and never
// touched the dynamic table for inserts).
//
// Not safe for concurrent use — callers serialize access per spec.md §5.
type HeaderField struct {
	Name       string
	Value      string
	NeverIndex bool
}

type pendingBlock struct {
	streamID uint64
	refs     map[uint64]bool
}

type Encoder struct {
	cfg   *Config
	table *DynTableEncoder

	encStream []byte // accumulated, not-yet-drained encoder-stream instructions

	maxAckedID uint64 // highest insert count acknowledged by the decoder
	riskCount  int    // number of distinct streams currently risking an unacked reference

	pending map[uint64][]*pendingBlock // streamID -> still-unacked blocks
	byRisky map[uint64]bool            // streamID -> currently counted in riskCount

	cur       *pendingBlock
	base      uint64
	open      bool
}

// NewEncoder creates an encoder with the given configuration (nil uses
// DefaultConfig).
func NewEncoder(cfg *Config) *Encoder {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Encoder{
		cfg:     cfg,
		table:   NewDynTableEncoder(cfg.MaxTableCapacity),
		pending: make(map[uint64][]*pendingBlock),
		byRisky: make(map[uint64]bool),
	}
}

// SetCapacity negotiates the dynamic table's usable capacity, emitting
// a Set Dynamic Table Capacity instruction on the encoder stream.
func (e *Encoder) SetCapacity(capacity uint64) error {
	if err := e.table.SetCapacity(capacity); err != nil {
		return err
	}
	e.encStream = EncodeInt(e.encStream, capacity, 5, 0x20)
	return nil
}

// DrainEncoderStream removes and returns up to maxLen bytes of
// buffered encoder-stream instructions, for the caller to write to the
// QUIC encoder stream subject to its own flow control. Pass -1 for
// "all of it".
func (e *Encoder) DrainEncoderStream(maxLen int) []byte {
	if maxLen < 0 || maxLen > len(e.encStream) {
		maxLen = len(e.encStream)
	}
	out := e.encStream[:maxLen]
	e.encStream = e.encStream[maxLen:]
	return out
}

// StartHeader begins encoding a field section for streamID (spec.md
// §4.5). Base is captured as the table's current insert count: entries
// already present are referenced pre-base, entries inserted during this
// block are referenced post-base.
func (e *Encoder) StartHeader(streamID uint64) error {
	if e.open {
		return ErrHeaderInProgress
	}
	e.cur = &pendingBlock{streamID: streamID, refs: make(map[uint64]bool)}
	e.base = e.table.InsertCount()
	e.open = true
	return nil
}

func (e *Encoder) mayRiskMore(streamID uint64) bool {
	if e.byRisky[streamID] {
		return true
	}
	return uint64(e.riskCount) < e.cfg.MaxRiskedStreams
}

func (e *Encoder) noteRisk(streamID, absID uint64) {
	if !e.cur.refs[absID] {
		e.cur.refs[absID] = true
		e.table.Ref(absID)
	}
	if absID >= e.maxAckedID {
		if !e.byRisky[streamID] {
			e.byRisky[streamID] = true
			e.riskCount++
		}
	}
}

// Encode appends the wire representation of one header field to dst and
// returns it, choosing the cheapest safe representation available
// (spec.md §4.5's decision matrix). StartHeader must have been called
// first.
func (e *Encoder) Encode(dst []byte, h HeaderField) ([]byte, error) {
	if !e.open {
		return dst, ErrNoHeaderInProgress
	}

	if h.NeverIndex {
		return e.encodeLiteralNoNameRef(dst, h, true), nil
	}

	if idx, valueMatched, found := FindStatic(h.Name, h.Value); found && valueMatched {
		return encodeIndexed(dst, uint64(idx), true), nil
	} else if found {
		return e.encodeLiteralNameRefStatic(dst, uint64(idx), h), nil
	}

	if absID, valueMatched, found := e.table.Find(h.Name, h.Value); found {
		usable := absID < e.maxAckedID || e.mayRiskMore(e.cur.streamID)
		if usable {
			if valueMatched {
				e.noteRisk(e.cur.streamID, absID)
				return e.encodeIndexedDynamic(dst, absID), nil
			}
			// Name-only match: insert the full field (with a name
			// reference) when that is possible, else fall back to a
			// literal carrying the dynamic name reference.
			if newID, inserted := e.maybeIndex(h); inserted {
				return e.encodeIndexedDynamic(dst, newID), nil
			}
			e.noteRisk(e.cur.streamID, absID)
			return e.encodeLiteralNameRefDynamic(dst, absID, h), nil
		}
	}

	if absID, inserted := e.maybeIndex(h); inserted {
		// The entry maybeIndex just inserted is a full (name, value)
		// match for this field by construction, and it was inserted
		// during this block, so it's always at or after base: reference
		// it as indexed (post-base) rather than repeating it as a
		// literal.
		return e.encodeIndexedDynamic(dst, absID), nil
	}
	return e.encodeLiteralNoNameRef(dst, h, false), nil
}

// maybeIndex inserts (name, value) into the dynamic table and emits the
// matching encoder-stream instruction, if doing so is safe: it fits
// without evicting anything still referenced, and we aren't already at
// the risked-stream limit (a fresh insert is immediately an unacked,
// "at risk" entry the moment this block references it). Returns the new
// entry's absolute id and true if an insertion happened.
func (e *Encoder) maybeIndex(h HeaderField) (uint64, bool) {
	if !e.table.CanInsert(h.Name, h.Value) {
		return 0, false
	}
	if !e.mayRiskMore(e.cur.streamID) {
		return 0, false
	}
	if nameIdx, _, found := FindStatic(h.Name, ""); found && GetStaticName(nameIdx) == h.Name {
		return e.insertWithNameRefStatic(nameIdx, h)
	}
	if absID, _, found := e.table.Find(h.Name, ""); found {
		return e.insertWithNameRefDynamic(absID, h)
	}
	return e.insertWithoutNameRef(h)
}

// encodeStringField writes a length-prefixed (possibly Huffman-coded)
// string: a prefixBits-wide integer length with an H flag at hbit,
// followed by the string body, RFC 9204's shared string-literal shape
// used by every instruction and field-line representation that carries
// a name or value.
func encodeStringField(dst []byte, s string, prefixBits uint, basePrefix, hbit byte) []byte {
	hlen := HuffEncodedLen([]byte(s))
	if hlen < len(s) {
		dst = EncodeInt(dst, uint64(hlen), prefixBits, basePrefix|hbit)
		return HuffEncode(dst, []byte(s))
	}
	dst = EncodeInt(dst, uint64(len(s)), prefixBits, basePrefix)
	return append(dst, s...)
}

// encodeValueField writes the Value Length + value body shape shared by
// every representation that carries a header value: "H" + 7-bit prefix
// length.
func encodeValueField(dst []byte, value string) []byte {
	return encodeStringField(dst, value, 7, 0, 0x80)
}

func (e *Encoder) insertWithoutNameRef(h HeaderField) (uint64, bool) {
	absID, err := e.table.Insert(h.Name, h.Value)
	if err != nil {
		return 0, false
	}
	// Insert Without Name Reference: "01H" + 5-bit name length (RFC 9204 §4.3.2).
	e.encStream = encodeStringField(e.encStream, h.Name, 5, 0x40, 0x20)
	e.encStream = encodeValueField(e.encStream, h.Value)
	e.noteRisk(e.cur.streamID, absID)
	return absID, true
}

func (e *Encoder) insertWithNameRefStatic(nameIdx int, h HeaderField) (uint64, bool) {
	absID, err := e.table.Insert(h.Name, h.Value)
	if err != nil {
		return 0, false
	}
	// Insert With Name Reference: "1T" + 6-bit name index (RFC 9204 §4.3.1), T=1 (static).
	e.encStream = EncodeInt(e.encStream, uint64(nameIdx), 6, 0xC0)
	e.encStream = encodeValueField(e.encStream, h.Value)
	e.noteRisk(e.cur.streamID, absID)
	return absID, true
}

func (e *Encoder) insertWithNameRefDynamic(nameAbsID uint64, h HeaderField) (uint64, bool) {
	absID, err := e.table.Insert(h.Name, h.Value)
	if err != nil {
		return 0, false
	}
	// Relative to the insert count *before* this entry was added (absID
	// equals that pre-insert count), not InsertCount() now that it's
	// already bumped by Insert above.
	relIdx := absID - 1 - nameAbsID
	// "1T" + 6-bit name index, T=0 (dynamic, relative to the entry being added).
	e.encStream = EncodeInt(e.encStream, relIdx, 6, 0x80)
	e.encStream = encodeValueField(e.encStream, h.Value)
	e.noteRisk(e.cur.streamID, absID)
	return absID, true
}

// --- header-block field line encoders ---

func encodeIndexed(dst []byte, idx uint64, static bool) []byte {
	prefix := byte(0x80)
	if static {
		prefix |= 0x40
	}
	return EncodeInt(dst, idx, 6, prefix)
}

func (e *Encoder) encodeIndexedDynamic(dst []byte, absID uint64) []byte {
	if absID < e.base {
		return encodeIndexed(dst, e.base-absID-1, false)
	}
	return EncodeInt(dst, absID-e.base, 4, 0x10)
}

func (e *Encoder) encodeLiteralNameRefStatic(dst []byte, nameIdx uint64, h HeaderField) []byte {
	dst = e.encodeLiteralNameRefPrefix(dst, nameIdx, h.NeverIndex, true)
	return encodeValueField(dst, h.Value)
}

func (e *Encoder) encodeLiteralNameRefDynamic(dst []byte, absID uint64, h HeaderField) []byte {
	if absID < e.base {
		dst = e.encodeLiteralNameRefPrefix(dst, e.base-absID-1, h.NeverIndex, false)
		return encodeValueField(dst, h.Value)
	}
	dst = e.encodeLiteralPostBaseNameRefPrefix(dst, absID-e.base, h.NeverIndex)
	return encodeValueField(dst, h.Value)
}

// encodeLiteralNameRefPrefix writes "01NTxxxx" + 4-bit index (RFC 9204
// §4.5.4).
func (e *Encoder) encodeLiteralNameRefPrefix(dst []byte, idx uint64, neverIndex, static bool) []byte {
	prefix := byte(0x40)
	if neverIndex {
		prefix |= 0x20
	}
	if static {
		prefix |= 0x10
	}
	return EncodeInt(dst, idx, 4, prefix)
}

// encodeLiteralPostBaseNameRefPrefix writes "0000Nxxx" + 3-bit index
// (RFC 9204 §4.5.6).
func (e *Encoder) encodeLiteralPostBaseNameRefPrefix(dst []byte, idx uint64, neverIndex bool) []byte {
	prefix := byte(0)
	if neverIndex {
		prefix |= 0x08
	}
	return EncodeInt(dst, idx, 3, prefix)
}

func (e *Encoder) encodeLiteralNoNameRef(dst []byte, h HeaderField, neverIndex bool) []byte {
	prefix := byte(0x20)
	if neverIndex {
		prefix |= 0x10
	}
	dst = encodeStringField(dst, h.Name, 3, prefix, 0x08)
	return encodeValueField(dst, h.Value)
}

// EndHeader closes the field section started by StartHeader. dst holds
// the field lines encoded for the block; the returned slice is the
// complete header block: the Required-Insert-Count/Base prefix
// followed by those field lines (spec.md §4.5's end_header; RFC 9204
// §4.5.1).
func (e *Encoder) EndHeader(dst []byte) ([]byte, error) {
	if !e.open {
		return dst, ErrNoHeaderInProgress
	}
	var reqInsertCount uint64
	for absID := range e.cur.refs {
		if absID+1 > reqInsertCount {
			reqInsertCount = absID + 1
		}
	}

	encRIC := encodeRequiredInsertCount(reqInsertCount, e.table.maxCapacity)
	prefix := EncodeInt(nil, encRIC, 8, 0)

	if e.base >= reqInsertCount {
		prefix = EncodeInt(prefix, e.base-reqInsertCount, 7, 0)
	} else {
		prefix = EncodeInt(prefix, reqInsertCount-e.base-1, 7, 0x80)
	}

	e.pending[e.cur.streamID] = append(e.pending[e.cur.streamID], e.cur)
	e.cur = nil
	e.open = false
	return append(prefix, dst...), nil
}

// --- ack processing (decoder-stream instructions arriving back) ---

// HeaderAck processes a Header Acknowledgement for streamID: it raises
// maxAckedID to cover every reference the oldest still-pending block on
// that stream made, and un-risks that block.
func (e *Encoder) HeaderAck(streamID uint64) error {
	blocks := e.pending[streamID]
	if len(blocks) == 0 {
		return ErrBadTableReference
	}
	b := blocks[0]
	e.pending[streamID] = blocks[1:]
	if len(e.pending[streamID]) == 0 {
		delete(e.pending, streamID)
	}
	for absID := range b.refs {
		if absID+1 > e.maxAckedID {
			e.maxAckedID = absID + 1
		}
		e.table.Unref(absID)
	}
	if e.byRisky[streamID] && len(e.pending[streamID]) == 0 {
		delete(e.byRisky, streamID)
		e.riskCount--
	}
	return nil
}

// InsertCountIncrement processes an Insert Count Increment instruction:
// it acknowledges insertions directly, independent of any particular
// stream's blocks.
func (e *Encoder) InsertCountIncrement(n uint64) error {
	newAcked := e.maxAckedID + n
	if newAcked > e.table.InsertCount() {
		return ErrBadTableReference
	}
	e.maxAckedID = newAcked
	return nil
}

// StreamCancel processes a Stream Cancellation instruction: every block
// still pending on that stream is dropped and its references unrefed,
// since the decoder has discarded the stream and will never ack them.
func (e *Encoder) StreamCancel(streamID uint64) {
	for _, b := range e.pending[streamID] {
		for absID := range b.refs {
			e.table.Unref(absID)
		}
	}
	delete(e.pending, streamID)
	if e.byRisky[streamID] {
		delete(e.byRisky, streamID)
		e.riskCount--
	}
}

// GetStaticName returns the name stored at a static table index, or ""
// if out of range — a small convenience over GetStatic used by
// maybeIndex's name-reference lookup.
func GetStaticName(index int) string {
	e, ok := GetStatic(index)
	if !ok {
		return ""
	}
	return e.Name
}
