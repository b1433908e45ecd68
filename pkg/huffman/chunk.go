package huffman

import (
	"errors"
	"fmt"
	"io"

	"github.com/zhengshuai-xiao/HuffPar/internal"
)

var logger = internal.GetLogger("huffman")

// EncodedChunk is one chunk after encoding: the packed bit stream plus the table needed to
// read it back. Length is the number of original bytes, which tells the decoder where the
// data ends and the zero padding of the last byte begins.
type EncodedChunk struct {
	Table  CodeTable
	Length int
	Packed []byte
}

// EncodeChunk Huffman-codes data with a table built from data's own frequencies.
func EncodeChunk(data []byte) (*EncodedChunk, error) {
	if len(data) == 0 {
		return nil, ErrEmptyChunk
	}
	freq := Tally(data)
	table, err := DeriveCodes(BuildTree(&freq))
	if err != nil {
		return nil, err
	}
	packed, err := PackSymbols(data, table, table.Cost(&freq))
	if err != nil {
		return nil, err
	}
	logger.Tracef("EncodeChunk: %d bytes, %d symbols -> %d packed bytes", len(data), len(table), len(packed))
	return &EncodedChunk{Table: table, Length: len(data), Packed: packed}, nil
}

// PackSymbols writes the code of every byte of data in order. bitsHint sizes the buffer.
func PackSymbols(data []byte, table CodeTable, bitsHint int) ([]byte, error) {
	type fastCode struct {
		bits uint64
		n    uint8
		ok   bool
	}
	var fast [256]fastCode
	for s, code := range table {
		if len(code) > 64 {
			continue
		}
		var v uint64
		for i := 0; i < len(code); i++ {
			v = v<<1 | uint64(code[i]-'0')
		}
		fast[s] = fastCode{bits: v, n: uint8(len(code)), ok: true}
	}

	bw := NewBitWriter((bitsHint + 7) / 8)
	for _, b := range data {
		fc := fast[b]
		if fc.ok {
			if err := bw.WriteBits(fc.bits, fc.n); err != nil {
				return nil, err
			}
			continue
		}
		code, ok := table[b]
		if !ok {
			return nil, fmt.Errorf("no code for byte 0x%02x", b)
		}
		if err := bw.WriteCode(code); err != nil {
			return nil, err
		}
	}
	return bw.Bytes()
}

// DecodeChunk reads exactly length symbols from packed using table. Running out of bits,
// following a bit sequence that is no code, or leaving more than the final byte's padding
// unread are all reported as ErrMalformedRecord.
func DecodeChunk(packed []byte, table CodeTable, length int) ([]byte, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: original length %d", ErrMalformedRecord, length)
	}
	if uint64(length) > 8*uint64(len(packed)) {
		return nil, fmt.Errorf("%w: %d symbols cannot fit in %d packed bytes", ErrMalformedRecord, length, len(packed))
	}
	trie, err := newDecodeTrie(table)
	if err != nil {
		return nil, err
	}

	out := make([]byte, length)
	br := NewBitReader(packed)
	for i := range out {
		cur := int32(0)
		for {
			bit, err := br.ReadBit()
			if err != nil {
				if errors.Is(err, io.EOF) {
					return nil, fmt.Errorf("%w: bit stream ends after %d of %d symbols", ErrMalformedRecord, i, length)
				}
				return nil, err
			}
			b := 0
			if bit {
				b = 1
			}
			next := trie.nodes[cur].child[b]
			if next == 0 {
				return nil, fmt.Errorf("%w: invalid code at bit %d", ErrMalformedRecord, br.Consumed()-1)
			}
			cur = next
			if trie.nodes[cur].leaf {
				out[i] = trie.nodes[cur].symbol
				break
			}
		}
	}
	if used := (br.Consumed() + 7) / 8; used != len(packed) {
		return nil, fmt.Errorf("%w: %d trailing packed bytes", ErrMalformedRecord, len(packed)-used)
	}
	return out, nil
}

// Decode is DecodeChunk applied to an EncodedChunk.
func (c *EncodedChunk) Decode() ([]byte, error) {
	return DecodeChunk(c.Packed, c.Table, c.Length)
}
