package compression

import (
	"bytes"
	"fmt"

	"github.com/zhengshuai-xiao/HuffPar/pkg/huffman"
)

// HuffmanCompressor codes a whole buffer as one self-describing record. An empty buffer
// compresses to nothing.
type HuffmanCompressor struct{}

func NewHuffman() *HuffmanCompressor {
	return &HuffmanCompressor{}
}

func (c *HuffmanCompressor) Type() CompressionType {
	return Compress_huffman
}

func (c *HuffmanCompressor) TypeString() string {
	return "huffman"
}

func (c *HuffmanCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return []byte{}, nil
	}
	enc, err := huffman.EncodeChunk(data)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Grow(int(huffman.RecordSize(enc)))
	if _, err := huffman.WriteRecord(&buf, enc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *HuffmanCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return []byte{}, nil
	}
	r := bytes.NewReader(data)
	rec, err := huffman.ReadRecord(r)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d bytes after the record", huffman.ErrMalformedRecord, r.Len())
	}
	return rec.Decode()
}
