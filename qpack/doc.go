// Package qpack implements a QPACK (RFC 9204) header-compression core:
// prefix-integer and Huffman codecs, the 61-entry static table, encoder-
// and decoder-side dynamic tables, an encoder with risk management, and
// a resumable, byte-level decoder for both the encoder stream and
// header blocks.
//
// Every type here assumes single-threaded, cooperative use — none of
// it takes an internal lock. A connection typically owns one Encoder
// and one Decoder, called only from the goroutine that owns the
// connection's QUIC streams.
package qpack
