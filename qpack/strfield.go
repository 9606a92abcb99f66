package qpack

// stringField is a resumable reader for the "H + length-prefix + body"
// string literal shape RFC 9204 uses everywhere a name or value
// appears on the wire (encoder-stream instructions and header-block
// field lines alike). Shared by decoder_stream_parser.go and
// header_block_parser.go so the Huffman/raw-body resumability logic
// exists exactly once.
type stringFieldPhase int

const (
	sfPhaseLen stringFieldPhase = iota
	sfPhaseBody
	sfPhaseDone
)

type stringField struct {
	phase     stringFieldPhase
	huffman   bool
	intState  IntDecodeState
	huffState HuffDecodeState
	want      uint64
	got       uint64
	buf       []byte
}

// reset prepares the reader for a new string.
func (s *stringField) reset() {
	s.phase = sfPhaseLen
	s.intState.Reset()
	s.huffState.Reset()
	s.want = 0
	s.got = 0
	s.buf = s.buf[:0]
}

// feed consumes from src, returning the decoded string once complete.
// hbit is the Huffman flag's bit position within the still-unconsumed
// first byte; prefixBits is the length field's own prefix width.
func (s *stringField) feed(src []byte, prefixBits uint, hbit byte) (consumed int, result ParseResult, value string, err error) {
	pos := 0

	if s.phase == sfPhaseLen {
		if pos >= len(src) {
			return pos, ParseNeedMore, "", nil
		}
		// The H flag lives in the prefix byte only: capture it once, on
		// the call that actually consumes that byte, not on a resumed
		// call still reading continuation bytes of a multi-byte length
		// (src[pos] there is a later body byte, not the prefix).
		if !s.intState.resume {
			s.huffman = src[pos]&hbit != 0
		}

		length, res, n, derr := DecodeInt(&s.intState, src[pos:], prefixBits)
		pos += n
		if derr != nil {
			return pos, ParseError, "", derr
		}
		if res == ParseNeedMore {
			return pos, ParseNeedMore, "", nil
		}
		s.want = length
		s.phase = sfPhaseBody
	}

	if s.phase == sfPhaseBody {
		remaining := src[pos:]
		need := int(s.want - s.got)
		if need > len(remaining) {
			need = len(remaining)
		}
		final := s.got+uint64(need) == s.want

		if s.huffman {
			out, _, herr := HuffDecode(&s.huffState, s.buf, remaining[:need], final)
			s.buf = out
			pos += need
			s.got += uint64(need)
			if herr != nil {
				return pos, ParseError, "", herr
			}
			if !final {
				return pos, ParseNeedMore, "", nil
			}
		} else {
			s.buf = append(s.buf, remaining[:need]...)
			pos += need
			s.got += uint64(need)
			if !final {
				return pos, ParseNeedMore, "", nil
			}
		}
		s.phase = sfPhaseDone
	}

	return pos, ParseDone, string(s.buf), nil
}
