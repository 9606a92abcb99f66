package qpack

// wire.go: the small pieces of RFC 9204 §4.5 wire format shared by the
// encoder and the header-block parser — Required Insert Count
// encode/decode (§4.5.1.1) and the representation-type prefixes used on
// both sides. Kept separate from encoder.go/header_block_parser.go
// because both need it and neither owns it.

// fieldLineType identifies which of the five field-line representations
// a byte begins (spec.md §4.7).
type fieldLineType int

const (
	flIndexed fieldLineType = iota
	flIndexedPostBase
	flLiteralNameRef
	flLiteralPostBaseNameRef
	flLiteralNoNameRef
)

// classifyFieldLine inspects the leading byte of a field-line
// representation and returns which shape it is, per the bit patterns
// in RFC 9204 §4.5.2-§4.5.6.
func classifyFieldLine(b byte) fieldLineType {
	switch {
	case b&0x80 != 0: // 1TXXXXXX
		return flIndexed
	case b&0x40 != 0: // 01NTXXXX
		return flLiteralNameRef
	case b&0x20 != 0: // 001NHXXX
		return flLiteralNoNameRef
	case b&0x10 != 0: // 0001XXXX
		return flIndexedPostBase
	default: // 0000NXXX
		return flLiteralPostBaseNameRef
	}
}

// maxEntries computes RFC 9204 §4.5.1.1's MaxEntries = floor(capacity/32),
// the table's maximum population at the minimum entry size.
func maxEntries(capacity uint64) uint64 {
	return capacity / 32
}

// encodeRequiredInsertCount implements RFC 9204 §4.5.1.1's encoding:
// wrap reqInsertCount into the table's representable range so it fits
// compactly, rather than transmitting the raw (unbounded) counter.
func encodeRequiredInsertCount(reqInsertCount, capacity uint64) uint64 {
	if reqInsertCount == 0 {
		return 0
	}
	full := 2 * maxEntries(capacity)
	if full == 0 {
		return reqInsertCount + 1
	}
	return (reqInsertCount % full) + 1
}

// decodeRequiredInsertCount implements RFC 9204 §4.5.1.1's decoding:
// reconstruct the true insert count from its wrapped wire form, given
// totalInserts (the decoder's actual current insert count) to resolve
// which wrap the encoder intended.
func decodeRequiredInsertCount(encInsertCount, capacity, totalInserts uint64) (uint64, error) {
	if encInsertCount == 0 {
		return 0, nil
	}
	full := 2 * maxEntries(capacity)
	if full == 0 {
		return 0, ErrRequiredInsertCountTooLarge
	}
	if encInsertCount > full {
		return 0, ErrRequiredInsertCountTooLarge
	}

	maxValue := totalInserts + maxEntries(capacity)
	maxWrapped := (maxValue / full) * full
	reqInsertCount := maxWrapped + encInsertCount - 1

	if reqInsertCount > maxValue {
		if reqInsertCount < full {
			return 0, ErrRequiredInsertCountTooLarge
		}
		reqInsertCount -= full
	}
	if reqInsertCount == 0 {
		return 0, ErrRequiredInsertCountTooLarge
	}
	return reqInsertCount, nil
}
