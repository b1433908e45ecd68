package huffman

import (
	"bytes"
	"errors"
	"io"

	"github.com/icza/bitio"
)

// BitWriter packs bits MSB-first into bytes. The final partial byte is padded with zero bits,
// so a stream of n bits always takes ceil(n/8) bytes.
type BitWriter struct {
	buf  bytes.Buffer
	w    *bitio.Writer
	bits int
}

// NewBitWriter preallocates sizeHint bytes when it is positive.
func NewBitWriter(sizeHint int) *BitWriter {
	bw := &BitWriter{}
	if sizeHint > 0 {
		bw.buf.Grow(sizeHint)
	}
	bw.w = bitio.NewWriter(&bw.buf)
	return bw
}

// WriteCode appends a code given as a string of '0' and '1' characters.
func (bw *BitWriter) WriteCode(code string) error {
	for i := 0; i < len(code); i++ {
		if err := bw.w.WriteBool(code[i] == '1'); err != nil {
			return err
		}
	}
	bw.bits += len(code)
	return nil
}

// WriteBits appends the n lowest bits of r, most significant first.
func (bw *BitWriter) WriteBits(r uint64, n uint8) error {
	if err := bw.w.WriteBits(r, n); err != nil {
		return err
	}
	bw.bits += int(n)
	return nil
}

func (bw *BitWriter) Bits() int {
	return bw.bits
}

// Bytes flushes the pending partial byte and returns the packed buffer. No bits may be
// written afterwards.
func (bw *BitWriter) Bytes() ([]byte, error) {
	if err := bw.w.Close(); err != nil {
		return nil, err
	}
	return bw.buf.Bytes(), nil
}

// BitReader unpacks bits MSB-first from a byte buffer.
type BitReader struct {
	r        *bitio.Reader
	consumed int
}

func NewBitReader(buf []byte) *BitReader {
	return &BitReader{r: bitio.NewReader(bytes.NewReader(buf))}
}

// ReadBit returns the next bit, or io.EOF once the buffer is exhausted.
func (br *BitReader) ReadBit() (bool, error) {
	b, err := br.r.ReadBool()
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			err = io.EOF
		}
		return false, err
	}
	br.consumed++
	return b, nil
}

// Consumed is the number of bits read so far.
func (br *BitReader) Consumed() int {
	return br.consumed
}

// Pack turns a string of '0'/'1' characters into bytes.
func Pack(bits string) ([]byte, error) {
	bw := NewBitWriter((len(bits) + 7) / 8)
	if err := bw.WriteCode(bits); err != nil {
		return nil, err
	}
	return bw.Bytes()
}

// Unpack is the inverse of Pack, padding bits included: it always yields 8*len(buf) characters.
func Unpack(buf []byte) string {
	out := make([]byte, 0, len(buf)*8)
	br := NewBitReader(buf)
	for {
		b, err := br.ReadBit()
		if err != nil {
			break
		}
		if b {
			out = append(out, '1')
		} else {
			out = append(out, '0')
		}
	}
	return string(out)
}
