package qpack

// DecoderEncoderStreamParser is a resumable state machine for the
// encoder stream's four instructions (spec.md §4.6): Insert With Name
// Reference, Insert Without Name Reference, Duplicate, and Set Dynamic
// Table Capacity. Feed consumes as much of src as forms complete
// instructions, applying each to the table; it returns ParseNeedMore
// when the stream runs dry mid-instruction, preserving every partial
// field so the next Feed call picks up exactly where this one left off.
//
// Grounded on http3/qpack/decoder.go's ProcessEncoderInstruction family
// (processInsertWithNameRef, processInsertWithoutNameRef,
// processDuplicate, processSetCapacity), rebuilt around persistent
// resumable sub-state instead of decoding a whole instruction from an
// in-memory buffer in one call, matching
// original_source/src/lsqpack.c's per-field "resume" members.
type encInstrKind int

const (
	instrInsertNameRef encInstrKind = iota
	instrInsertNoNameRef
	instrDuplicate
	instrSetCapacity
)

type encInstrStep int

const (
	stepKind encInstrStep = iota
	stepIdx
	stepName
	stepValue
)

type DecoderEncoderStreamParser struct {
	table *DynTableDecoder

	step encInstrStep
	kind encInstrKind

	nameIsStatic bool
	idxState     IntDecodeState
	idx          uint64

	nameField stringField
	valueField stringField
	name      string

	onInsert func(absID uint64, name, value string)
}

// NewDecoderEncoderStreamParser creates a parser writing into table.
func NewDecoderEncoderStreamParser(table *DynTableDecoder) *DecoderEncoderStreamParser {
	return &DecoderEncoderStreamParser{table: table}
}

// OnInsert registers a callback invoked whenever an instruction commits
// a new entry (spec.md §4.6's "wake blocked header blocks" step — the
// natural place for a caller to call BlockedStreams.PopReady on the
// table's new InsertCount()).
func (p *DecoderEncoderStreamParser) OnInsert(fn func(absID uint64, name, value string)) {
	p.onInsert = fn
}

// Feed parses as many complete instructions as src contains.
func (p *DecoderEncoderStreamParser) Feed(src []byte) (consumed int, result ParseResult, err error) {
	pos := 0
	for pos < len(src) {
		n, res, ferr := p.feedOne(src[pos:])
		pos += n
		if ferr != nil {
			return pos, ParseError, ferr
		}
		if res == ParseNeedMore {
			return pos, ParseNeedMore, nil
		}
	}
	return pos, ParseDone, nil
}

func (p *DecoderEncoderStreamParser) feedOne(src []byte) (int, ParseResult, error) {
	pos := 0

	if p.step == stepKind {
		if pos >= len(src) {
			return pos, ParseNeedMore, nil
		}
		b := src[pos]
		p.idxState.Reset()
		switch {
		case b&0x80 != 0:
			p.kind = instrInsertNameRef
			p.nameIsStatic = b&0x40 != 0
			p.step = stepIdx
		case b&0x40 != 0:
			p.kind = instrInsertNoNameRef
			p.nameField.reset()
			p.step = stepName
		case b&0x20 != 0:
			p.kind = instrSetCapacity
			p.step = stepIdx
		default:
			p.kind = instrDuplicate
			p.step = stepIdx
		}
	}

	if p.step == stepIdx {
		var prefixBits uint
		switch p.kind {
		case instrInsertNameRef:
			prefixBits = 6
		case instrSetCapacity, instrDuplicate:
			prefixBits = 5
		}
		idx, res, n, derr := DecodeInt(&p.idxState, src[pos:], prefixBits)
		pos += n
		if derr != nil {
			return pos, ParseError, derr
		}
		if res == ParseNeedMore {
			return pos, ParseNeedMore, nil
		}
		p.idx = idx

		switch p.kind {
		case instrSetCapacity:
			if err := p.table.SetCapacity(idx); err != nil {
				return pos, ParseError, err
			}
			p.step = stepKind
			return pos, ParseDone, nil
		case instrDuplicate:
			absID := p.table.InsertCount() - 1 - idx
			name, value, ok := p.table.Get(absID)
			if !ok {
				return pos, ParseError, ErrBadTableReference
			}
			newID, ierr := p.table.Insert(name, value)
			if ierr != nil {
				return pos, ParseError, ierr
			}
			if p.onInsert != nil {
				p.onInsert(newID, name, value)
			}
			p.step = stepKind
			return pos, ParseDone, nil
		case instrInsertNameRef:
			if p.nameIsStatic {
				e, ok := GetStatic(int(idx))
				if !ok {
					return pos, ParseError, ErrBadTableReference
				}
				p.name = e.Name
			} else {
				absID := p.table.InsertCount() - 1 - idx
				name, _, ok := p.table.Get(absID)
				if !ok {
					return pos, ParseError, ErrBadTableReference
				}
				p.name = name
			}
			p.valueField.reset()
			p.step = stepValue
		}
	}

	if p.step == stepName {
		n, res, name, serr := p.nameField.feed(src[pos:], 5, 0x20)
		pos += n
		if serr != nil {
			return pos, ParseError, serr
		}
		if res == ParseNeedMore {
			return pos, ParseNeedMore, nil
		}
		p.name = name
		p.valueField.reset()
		p.step = stepValue
	}

	if p.step == stepValue {
		n, res, value, serr := p.valueField.feed(src[pos:], 7, 0x80)
		pos += n
		if serr != nil {
			return pos, ParseError, serr
		}
		if res == ParseNeedMore {
			return pos, ParseNeedMore, nil
		}
		newID, ierr := p.table.Insert(p.name, value)
		if ierr != nil {
			return pos, ParseError, ierr
		}
		if p.onInsert != nil {
			p.onInsert(newID, p.name, value)
		}
		p.step = stepKind
		return pos, ParseDone, nil
	}

	return pos, ParseNeedMore, nil
}
