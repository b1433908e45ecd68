package parcodec

import (
	"io"

	"github.com/zhengshuai-xiao/HuffPar/pkg/huffman"
)

// Chunk is one fixed-size slice of the input. IDs start at 0 and follow input order.
type Chunk struct {
	ID   int
	Data []byte
}

type Chunker interface {
	// Next returns the next chunk, or io.EOF when the input is exhausted.
	Next() (Chunk, error)
}

// FixedSplitter cuts its input into ChunkSize pieces; only the last one may be shorter.
type FixedSplitter struct {
	ChunkSize int
}

func (f *FixedSplitter) NewChunker(r io.Reader) (Chunker, error) {
	if f.ChunkSize < 1 {
		return nil, ErrInvalidOptions
	}
	return &fixedChunker{
		r:         r,
		chunkSize: f.ChunkSize,
	}, nil
}

type fixedChunker struct {
	r         io.Reader
	chunkSize int
	next      int
}

func (c *fixedChunker) Next() (Chunk, error) {
	buf := make([]byte, c.chunkSize)
	n, err := io.ReadFull(c.r, buf)

	if err == io.EOF { // Clean end of stream, no bytes read.
		return Chunk{}, io.EOF
	}
	if err == io.ErrUnexpectedEOF { // Last partial chunk.
		buf = buf[:n]
	} else if err != nil {
		return Chunk{}, err
	}

	chunk := Chunk{ID: c.next, Data: buf}
	c.next++
	return chunk, nil
}

// recordReader yields the records of a compressed stream in file order.
type recordReader struct {
	r io.Reader
}

func (rr *recordReader) Next() (*huffman.EncodedChunk, error) {
	return huffman.ReadRecord(rr.r)
}
