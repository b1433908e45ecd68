package compression

import (
	"fmt"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/s2"
)

// maxBlockSize caps what a snappy or s2 block may claim to decode to, so a corrupt
// header cannot make Decompress allocate gigabytes.
const maxBlockSize = 1 << 30

// SnappyCompressor codes buffers as single snappy blocks.
type SnappyCompressor struct{}

func NewSnappy() *SnappyCompressor {
	return &SnappyCompressor{}
}

func (c *SnappyCompressor) Type() CompressionType {
	return Compress_snappy
}

func (c *SnappyCompressor) TypeString() string {
	return "snappy"
}

func (c *SnappyCompressor) Compress(data []byte) ([]byte, error) {
	return snappy.Encode(make([]byte, snappy.MaxEncodedLen(len(data))), data), nil
}

func (c *SnappyCompressor) Decompress(data []byte) ([]byte, error) {
	return decodeBlock("snappy", data, snappy.DecodedLen, snappy.Decode)
}

// S2Compressor codes buffers as single S2 blocks, the snappy extension from klauspost/compress.
type S2Compressor struct{}

func NewS2() *S2Compressor {
	return &S2Compressor{}
}

func (c *S2Compressor) Type() CompressionType {
	return Compress_s2
}

func (c *S2Compressor) TypeString() string {
	return "s2"
}

func (c *S2Compressor) Compress(data []byte) ([]byte, error) {
	return s2.Encode(nil, data), nil
}

func (c *S2Compressor) Decompress(data []byte) ([]byte, error) {
	return decodeBlock("s2", data, s2.DecodedLen, s2.Decode)
}

func decodeBlock(name string, data []byte, decodedLen func([]byte) (int, error), decode func(dst, src []byte) ([]byte, error)) ([]byte, error) {
	n, err := decodedLen(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if n > maxBlockSize {
		return nil, fmt.Errorf("%s: block claims %d bytes", name, n)
	}
	out, err := decode(make([]byte, n), data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if out == nil {
		return []byte{}, nil
	}
	return out, nil
}
