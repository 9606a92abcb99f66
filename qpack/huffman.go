package qpack

// HuffCodec: canonical Huffman encode and a table-driven, nibble-at-a-
// time, resumable decode (spec.md §4.2). RFC 7541 Appendix B / RFC 9204
// §4.1.2 share the same 257-symbol table.
//
// Grounded on http3/qpack/huffman.go's tree-walking decoder. That
// decoder builds a binary trie once and walks it bit by bit; this port
// keeps the same trie as an *init-time* intermediate, then flattens it
// into a 4-bits-per-step transition table (spec.md's "table-driven
//4-bit-at-a-time decode"), equivalent to original_source/src/lsqpack.c's
// decode_tables[256][16] but generated from huffmanCodes instead of
// hand-transcribed from the C literal.

// decodeFlag marks what a (state, nibble) transition does.
type decodeFlag uint8

const (
	flagSymbol decodeFlag = 1 << 0 // emit the transition's symbol
	flagFail   decodeFlag = 1 << 1 // invalid code
)

type decodeTransition struct {
	next   uint16
	flags  decodeFlag
	symbol byte
}

// decodeTable[state][nibble] drives the decoder; state 0 is the start
// state (trie root).
var decodeTable [256][16]decodeTransition

// acceptedStates[state] is true when encountering end-of-input while in
// that state is a legal place to stop: either no bits are pending
// (state 0), or every further bit the stream could produce while
// staying valid is 1, i.e. this state lies on the all-ones path toward
// the EOS symbol (RFC 7541 §5.2: Huffman padding must be a prefix of the
// EOS code, and the EOS code is 30 one-bits).
var acceptedStates [256]bool

// huffEncode[sym] is (code, nbits) for symbols 0..255.
var huffEncode [256]huffCode

// trieNode is an intermediate binary-trie representation used only at
// init time to build the flattened nibble transition table.
type trieNode struct {
	children [2]*trieNode
	symbol   int // -1 for internal nodes, 0..256 for leaves
}

func init() {
	for i, c := range huffmanCodes {
		if i < 256 {
			huffEncode[i] = c
		}
	}

	root := &trieNode{symbol: -1}
	for sym, c := range huffmanCodes {
		node := root
		for i := int(c.nbits) - 1; i >= 0; i-- {
			bit := (c.code >> uint(i)) & 1
			if node.children[bit] == nil {
				node.children[bit] = &trieNode{symbol: -1}
			}
			node = node.children[bit]
		}
		node.symbol = sym
	}

	buildDecodeTable(root)
}

// isOnEOSPrefixPath reports whether continuing to descend via the
// all-1-bits child from n eventually lands on the EOS leaf (the unique
// leaf on that path, by the Huffman prefix property).
func isOnEOSPrefixPath(n *trieNode) bool {
	for n.symbol < 0 {
		if n.children[1] == nil {
			return false
		}
		n = n.children[1]
	}
	return n.symbol == huffmanEOS
}

func buildDecodeTable(root *trieNode) {
	nodeToState := map[*trieNode]uint16{root: 0}
	order := []*trieNode{root}

	stateForNode := func(n *trieNode) uint16 {
		if st, ok := nodeToState[n]; ok {
			return st
		}
		st := uint16(len(order))
		nodeToState[n] = st
		order = append(order, n)
		return st
	}

	acceptedStates[0] = true

	// walk4 descends up to 4 bits from n, returning the landing node and
	// any symbol completed along the way. At most one symbol can
	// complete per nibble because the shortest QPACK/HPACK code is 5
	// bits long.
	walk4 := func(n *trieNode, nibble byte) (landing *trieNode, flags decodeFlag, symbol byte) {
		cur := n
		for i := 3; i >= 0; i-- {
			bit := (nibble >> uint(i)) & 1
			child := cur.children[bit]
			if child == nil {
				return nil, flagFail, 0
			}
			cur = child
			if cur.symbol >= 0 {
				if cur.symbol == huffmanEOS {
					return nil, flagFail, 0
				}
				flags |= flagSymbol
				symbol = byte(cur.symbol)
				cur = root
			}
		}
		return cur, flags, symbol
	}

	for i := 0; i < len(order); i++ {
		n := order[i]
		st := stateForNode(n)
		for nibble := 0; nibble < 16; nibble++ {
			landing, flags, sym := walk4(n, byte(nibble))
			if flags&flagFail != 0 {
				decodeTable[st][nibble] = decodeTransition{flags: flagFail}
				continue
			}
			nextState := stateForNode(landing)
			if !acceptedStates[nextState] {
				acceptedStates[nextState] = isOnEOSPrefixPath(landing)
			}
			decodeTable[st][nibble] = decodeTransition{
				next:   nextState,
				flags:  flags,
				symbol: sym,
			}
		}
	}
}

// HuffEncodedLen returns the number of bytes Huffman-encoding data would
// produce, without encoding it (for the should-I-Huffman decision).
func HuffEncodedLen(data []byte) int {
	bits := 0
	for _, b := range data {
		bits += int(huffEncode[b].nbits)
	}
	return (bits + 7) / 8
}

// HuffEncode appends the Huffman encoding of data to dst, padding the
// final byte with 1s (spec.md §4.2).
func HuffEncode(dst []byte, data []byte) []byte {
	var bits uint64
	var nbits uint8
	for _, b := range data {
		c := huffEncode[b]
		bits = (bits << c.nbits) | uint64(c.code)
		nbits += c.nbits
		for nbits >= 8 {
			nbits -= 8
			dst = append(dst, byte(bits>>nbits))
		}
	}
	if nbits > 0 {
		pad := 8 - nbits
		bits = (bits << pad) | ((1 << pad) - 1)
		dst = append(dst, byte(bits))
	}
	return dst
}

// HuffDecodeState is the resumable state for HuffDecode. The zero value
// is ready to decode a fresh string.
//
// The spec's dst-exhaustion resume point (grow buffer, re-enter) is not
// needed verbatim in Go: HuffDecode appends to and returns a slice,
// which grows itself. What remains genuinely resumable — and is
// preserved here — is mid-string suspension across independent calls
// when a header block arrives in chunks smaller than one string.
type HuffDecodeState struct {
	state uint16
}

// Reset returns the state to ready-for-a-fresh-string.
func (s *HuffDecodeState) Reset() {
	*s = HuffDecodeState{}
}

// HuffDecode decodes src, appending output bytes to dst. Call with
// final=true on the last chunk belonging to a given string: if the
// state is not at an accepted boundary at that point, the string is
// malformed (spec.md §4.2, "on final=true and not ACCEPTED -> ERROR").
func HuffDecode(s *HuffDecodeState, dst []byte, src []byte, final bool) (out []byte, result ParseResult, err error) {
	out = dst
	for _, b := range src {
		for _, nibble := range [2]byte{b >> 4, b & 0x0f} {
			tr := decodeTable[s.state][nibble]
			if tr.flags&flagFail != 0 {
				return out, ParseError, ErrInvalidHuffmanCode
			}
			if tr.flags&flagSymbol != 0 {
				out = append(out, tr.symbol)
			}
			s.state = tr.next
		}
	}

	if final {
		if !acceptedStates[s.state] {
			return out, ParseError, ErrInvalidHuffmanCode
		}
		return out, ParseDone, nil
	}
	return out, ParseNeedMore, nil
}

// HuffDecodeAll is a convenience one-shot decode for fixed-size strings.
func HuffDecodeAll(src []byte) ([]byte, error) {
	var s HuffDecodeState
	out, result, err := HuffDecode(&s, nil, src, true)
	if err != nil {
		return nil, err
	}
	if result != ParseDone {
		return nil, ErrInvalidHuffmanCode
	}
	return out, nil
}
