package huffman

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/zhengshuai-xiao/HuffPar/internal"
)

// Record layout, all integers little-endian u32:
//
//	EntryCount { Byte(u8) CodeLength CodeBits('0'/'1' chars) } OriginalLength PackedLength Packed
//
// Entries are written in ascending byte order. A file is a plain sequence of records.

// WriteRecord serializes c as one record and returns the number of bytes written.
func WriteRecord(w io.Writer, c *EncodedChunk) (int64, error) {
	var hdr bytes.Buffer
	hdr.Grow(headerSize(c.Table))

	putUint32(&hdr, uint32(len(c.Table)))
	for _, s := range c.Table.Symbols() {
		code := c.Table[s]
		hdr.WriteByte(s)
		putUint32(&hdr, uint32(len(code)))
		hdr.WriteString(code)
	}
	putUint32(&hdr, uint32(c.Length))
	putUint32(&hdr, uint32(len(c.Packed)))

	n, err := internal.WriteAll(w, hdr.Bytes())
	if err != nil {
		return int64(n), err
	}
	m, err := internal.WriteAll(w, c.Packed)
	return int64(n + m), err
}

// RecordSize is the number of bytes WriteRecord produces for c.
func RecordSize(c *EncodedChunk) int64 {
	return int64(headerSize(c.Table) + len(c.Packed))
}

func headerSize(t CodeTable) int {
	n := 4 + 4 + 4
	for _, code := range t {
		n += 1 + 4 + len(code)
	}
	return n
}

func putUint32(buf *bytes.Buffer, v uint32) {
	b := internal.UInt32ToBytesLittleEndian(v)
	buf.Write(b[:])
}

// ReadRecord parses the next record. It returns io.EOF only when r is exhausted exactly at a
// record boundary; a record cut short or carrying impossible lengths is ErrMalformedRecord.
func ReadRecord(r io.Reader) (*EncodedChunk, error) {
	var first [4]byte
	if n, err := io.ReadFull(r, first[:]); err != nil {
		if errors.Is(err, io.EOF) && n == 0 {
			return nil, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: truncated entry count", ErrMalformedRecord)
		}
		return nil, err
	}
	entries := internal.BytesToUInt32LittleEndian(first)
	if entries == 0 || entries > 256 {
		return nil, fmt.Errorf("%w: entry count %d", ErrMalformedRecord, entries)
	}

	table := make(CodeTable, entries)
	minLen := MaxCodeLength
	var sym [1]byte
	for i := uint32(0); i < entries; i++ {
		if err := readFull(r, sym[:], "entry byte"); err != nil {
			return nil, err
		}
		codeLen, err := readUint32(r, "code length")
		if err != nil {
			return nil, err
		}
		if codeLen == 0 || codeLen > MaxCodeLength {
			return nil, fmt.Errorf("%w: code length %d for byte 0x%02x", ErrMalformedRecord, codeLen, sym[0])
		}
		code := make([]byte, codeLen)
		if err := readFull(r, code, "code bits"); err != nil {
			return nil, err
		}
		if _, dup := table[sym[0]]; dup {
			return nil, fmt.Errorf("%w: duplicate entry for byte 0x%02x", ErrMalformedRecord, sym[0])
		}
		table[sym[0]] = string(code)
		if int(codeLen) < minLen {
			minLen = int(codeLen)
		}
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}

	length, err := readUint32(r, "original length")
	if err != nil {
		return nil, err
	}
	packedLen, err := readUint32(r, "packed length")
	if err != nil {
		return nil, err
	}
	if length == 0 || uint64(length)*uint64(minLen) > 8*uint64(packedLen) {
		return nil, fmt.Errorf("%w: %d symbols cannot fit in %d packed bytes", ErrMalformedRecord, length, packedLen)
	}

	packed, err := io.ReadAll(io.LimitReader(r, int64(packedLen)))
	if err != nil {
		return nil, err
	}
	if len(packed) != int(packedLen) {
		return nil, fmt.Errorf("%w: packed data claims %d bytes, only %d left", ErrMalformedRecord, packedLen, len(packed))
	}
	return &EncodedChunk{Table: table, Length: int(length), Packed: packed}, nil
}

func readUint32(r io.Reader, what string) (uint32, error) {
	var b [4]byte
	if err := readFull(r, b[:], what); err != nil {
		return 0, err
	}
	return internal.BytesToUInt32LittleEndian(b), nil
}

func readFull(r io.Reader, buf []byte, what string) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: truncated %s", ErrMalformedRecord, what)
		}
		return err
	}
	return nil
}
