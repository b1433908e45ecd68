package huffman

import "errors"

var (
	// ErrEmptyChunk is returned when a chunk with no bytes reaches the codec. The chunker never
	// produces one, so seeing it means a caller broke that contract.
	ErrEmptyChunk = errors.New("empty chunk")
	// ErrNilTree is returned when codes are derived from a tree that was never built.
	ErrNilTree = errors.New("huffman tree is nil")
	// ErrMalformedRecord covers every structural problem found while reading or decoding a record.
	ErrMalformedRecord = errors.New("malformed record")
)
