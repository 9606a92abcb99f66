package qpack

// DynTableDecoder is the decoder-side dynamic table (spec.md §4.4): a
// double-ended array addressed by absolute id, growing as the encoder
// stream inserts entries and shrinking from the front as capacity
// pressure evicts them. Unlike the encoder side it needs no hash index
// (the decoder only ever does exact-id lookups, never name/value
// search) and no reference counting (the decoder copies header field
// values out of the table immediately rather than holding a live
// pointer into it across a yield point).
//
// Grounded on the same shape as http3/qpack/dynamic_table.go and
// http2/hpack_dynamic.go's circular buffer, reshaped around absolute
// ids instead of a relative/circular index.
type dynEntryDec struct {
	name, value string
}

type DynTableDecoder struct {
	entries []*dynEntryDec // entries[0] has absolute id == delCount

	capacity    uint64
	maxCapacity uint64
	usedSize    uint64

	insCount uint64 // total entries ever inserted
	delCount uint64 // total entries ever evicted
}

// NewDynTableDecoder creates a decoder-side table with the given
// connection-negotiated maximum capacity.
func NewDynTableDecoder(maxCapacity uint64) *DynTableDecoder {
	return &DynTableDecoder{maxCapacity: maxCapacity}
}

// InsertCount is the total number of entries ever inserted, i.e. what
// the decoder reports back as Known Received Count once it has
// processed up to this point (spec.md §4.6/§6).
func (t *DynTableDecoder) InsertCount() uint64 { return t.insCount }

// Capacity returns the table's current usable capacity in bytes.
func (t *DynTableDecoder) Capacity() uint64 { return t.capacity }

func (t *DynTableDecoder) absIDToIndex(absID uint64) (int, bool) {
	if absID < t.delCount || absID >= t.insCount {
		return 0, false
	}
	return int(absID - t.delCount), true
}

// Get returns the entry at the given absolute id.
func (t *DynTableDecoder) Get(absID uint64) (name, value string, ok bool) {
	idx, ok := t.absIDToIndex(absID)
	if !ok {
		return "", "", false
	}
	e := t.entries[idx]
	return e.name, e.value, true
}

// SetCapacity changes the usable capacity, evicting from the front as
// needed (spec.md §4.6's Set Dynamic Table Capacity instruction).
func (t *DynTableDecoder) SetCapacity(capacity uint64) error {
	if capacity > t.maxCapacity {
		return ErrCapacityExceedsMax
	}
	t.capacity = capacity
	t.evict(0)
	return nil
}

func (t *DynTableDecoder) evict(need uint64) {
	for t.usedSize+need > t.capacity && len(t.entries) > 0 {
		oldest := t.entries[0]
		t.entries = t.entries[1:]
		t.usedSize -= entrySize(oldest.name, oldest.value)
		t.delCount++
	}
}

// Insert adds a new entry as instructed by the encoder stream, evicting
// from the front to make room, and returns its absolute id.
func (t *DynTableDecoder) Insert(name, value string) (absID uint64, err error) {
	need := entrySize(name, value)
	if need > t.capacity {
		return 0, ErrCapacityExceedsMax
	}
	t.evict(need)

	t.entries = append(t.entries, &dynEntryDec{name: name, value: value})
	t.usedSize += need
	absID = t.insCount
	t.insCount++
	return absID, nil
}
