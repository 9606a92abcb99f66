package qpack

// DecoderHeaderBlockParser is a resumable, two-phase state machine
// parsing one header block (spec.md §4.7): first the prefix (Required
// Insert Count + Base, RFC 9204 §4.5.1), then a sequence of field-line
// representations. If the block's Required Insert Count exceeds what
// the dynamic table has actually received so far, parsing suspends
// with ParseBlocked until the encoder stream catches up — the caller is
// expected to track that via BlockedStreams and re-invoke Feed once it
// has.
//
// Grounded on http3/qpack/decoder.go's decodeHeaderField family
// (decodeIndexedFieldLine, decodeLiteralFieldLineWithNameRef, ...),
// rebuilt as a resumable state machine instead of a single all-at-once
// pass over a complete in-memory header block, and adding the
// Required-Insert-Count/Base prefix and post-base indexing that
// prototype never implemented (it always assumed RIC=0, Base=0).
type HeaderOut struct {
	Name       string
	Value      string
	NeverIndex bool
}

type hbPhase int

const (
	hbPrefixRIC hbPhase = iota
	hbPrefixDeltaBase
	hbFieldType
	hbFieldIdx
	hbFieldName
	hbFieldValue
)

type DecoderHeaderBlockParser struct {
	table *DynTableDecoder

	phase hbPhase

	ricState       IntDecodeState
	dbState        IntDecodeState
	deltaSign      bool
	reqInsertCount uint64
	base           uint64

	flType     fieldLineType
	neverIndex bool
	isStatic   bool
	idxState   IntDecodeState
	idx        uint64
	name       string

	nameField  stringField
	valueField stringField
}

// NewDecoderHeaderBlockParser creates a parser reading entries from
// table.
func NewDecoderHeaderBlockParser(table *DynTableDecoder) *DecoderHeaderBlockParser {
	return &DecoderHeaderBlockParser{table: table}
}

// Feed parses as much of one header block as src (plus prior resumed
// state) contains. Pass final=true once src holds the last bytes of the
// block: Feed then expects to land exactly on a field-line boundary,
// returning ParseDone with the field lines decoded during this call.
// Without final, running out of input mid-representation yields
// ParseNeedMore. A Required Insert Count not yet satisfied by the
// table yields ParseBlocked.
func (p *DecoderHeaderBlockParser) Feed(src []byte, final bool) (consumed int, result ParseResult, headers []HeaderOut, err error) {
	pos := 0
	for {
		switch p.phase {
		case hbPrefixRIC:
			enc, res, n, derr := DecodeInt(&p.ricState, src[pos:], 8)
			pos += n
			if derr != nil {
				return pos, ParseError, headers, derr
			}
			if res == ParseNeedMore {
				return pos, ParseNeedMore, headers, nil
			}
			reqInsertCount, rerr := decodeRequiredInsertCount(enc, p.table.maxCapacity, p.table.InsertCount())
			if rerr != nil {
				return pos, ParseError, headers, rerr
			}
			p.reqInsertCount = reqInsertCount
			p.dbState.Reset()
			p.phase = hbPrefixDeltaBase

		case hbPrefixDeltaBase:
			if pos >= len(src) {
				return pos, ParseNeedMore, headers, nil
			}
			p.deltaSign = src[pos]&0x80 != 0
			delta, res, n, derr := DecodeInt(&p.dbState, src[pos:], 7)
			pos += n
			if derr != nil {
				return pos, ParseError, headers, derr
			}
			if res == ParseNeedMore {
				return pos, ParseNeedMore, headers, nil
			}
			if p.deltaSign {
				if delta >= p.reqInsertCount {
					return pos, ParseError, headers, ErrInvalidRepresentation
				}
				p.base = p.reqInsertCount - delta - 1
			} else {
				p.base = p.reqInsertCount + delta
			}
			p.phase = hbFieldType

		case hbFieldType:
			if p.reqInsertCount > p.table.InsertCount() {
				return pos, ParseBlocked, headers, nil
			}
			if pos >= len(src) {
				if final {
					return pos, ParseDone, headers, nil
				}
				return pos, ParseNeedMore, headers, nil
			}
			p.flType = classifyFieldLine(src[pos])
			p.neverIndex = false
			p.isStatic = false
			switch p.flType {
			case flIndexed:
				p.isStatic = src[pos]&0x40 != 0
			case flLiteralNameRef:
				p.neverIndex = src[pos]&0x20 != 0
				p.isStatic = src[pos]&0x10 != 0
			case flLiteralPostBaseNameRef:
				p.neverIndex = src[pos]&0x08 != 0
			case flLiteralNoNameRef:
				p.neverIndex = src[pos]&0x10 != 0
			}
			p.idxState.Reset()
			p.nameField.reset()
			p.phase = hbFieldIdx

		case hbFieldIdx:
			if p.flType == flLiteralNoNameRef {
				n, res, name, serr := p.nameField.feed(src[pos:], 3, 0x08)
				pos += n
				if serr != nil {
					return pos, ParseError, headers, serr
				}
				if res == ParseNeedMore {
					return pos, ParseNeedMore, headers, nil
				}
				p.name = name
				p.valueField.reset()
				p.phase = hbFieldValue
				break
			}

			var prefixBits uint
			switch p.flType {
			case flIndexed:
				prefixBits = 6
			case flIndexedPostBase:
				prefixBits = 4
			case flLiteralNameRef:
				prefixBits = 4
			case flLiteralPostBaseNameRef:
				prefixBits = 3
			}
			idx, res, n, derr := DecodeInt(&p.idxState, src[pos:], prefixBits)
			pos += n
			if derr != nil {
				return pos, ParseError, headers, derr
			}
			if res == ParseNeedMore {
				return pos, ParseNeedMore, headers, nil
			}
			p.idx = idx

			name, value, done, rerr := p.resolveIndexed()
			if rerr != nil {
				return pos, ParseError, headers, rerr
			}
			if done {
				headers = append(headers, HeaderOut{Name: name, Value: value, NeverIndex: p.neverIndex})
				p.phase = hbFieldType
				break
			}
			p.name = name
			p.valueField.reset()
			p.phase = hbFieldValue

		case hbFieldValue:
			n, res, value, serr := p.valueField.feed(src[pos:], 7, 0x80)
			pos += n
			if serr != nil {
				return pos, ParseError, headers, serr
			}
			if res == ParseNeedMore {
				return pos, ParseNeedMore, headers, nil
			}
			headers = append(headers, HeaderOut{Name: p.name, Value: value, NeverIndex: p.neverIndex})
			p.phase = hbFieldType
		}
	}
}

// resolveIndexed resolves the table reference for field types that may
// be fully resolved from just an index (flIndexed, flIndexedPostBase),
// or that resolve only a name and still need a value
// (flLiteralNameRef, flLiteralPostBaseNameRef). done is true when name
// and value are both already known (flIndexed/flIndexedPostBase).
func (p *DecoderHeaderBlockParser) resolveIndexed() (name, value string, done bool, err error) {
	switch p.flType {
	case flIndexed:
		if p.isStatic {
			e, ok := GetStatic(int(p.idx))
			if !ok {
				return "", "", false, ErrBadTableReference
			}
			return e.Name, e.Value, true, nil
		}
		if p.idx+1 > p.base {
			return "", "", false, ErrBadTableReference
		}
		absID := p.base - p.idx - 1
		name, value, ok := p.table.Get(absID)
		if !ok {
			return "", "", false, ErrBadTableReference
		}
		return name, value, true, nil

	case flIndexedPostBase:
		absID := p.base + p.idx
		name, value, ok := p.table.Get(absID)
		if !ok {
			return "", "", false, ErrBadTableReference
		}
		return name, value, true, nil

	case flLiteralNameRef:
		if p.isStatic {
			e, ok := GetStatic(int(p.idx))
			if !ok {
				return "", "", false, ErrBadTableReference
			}
			return e.Name, "", false, nil
		}
		if p.idx+1 > p.base {
			return "", "", false, ErrBadTableReference
		}
		absID := p.base - p.idx - 1
		name, _, ok := p.table.Get(absID)
		if !ok {
			return "", "", false, ErrBadTableReference
		}
		return name, "", false, nil

	case flLiteralPostBaseNameRef:
		absID := p.base + p.idx
		name, _, ok := p.table.Get(absID)
		if !ok {
			return "", "", false, ErrBadTableReference
		}
		return name, "", false, nil
	}
	return "", "", false, ErrInvalidRepresentation
}
