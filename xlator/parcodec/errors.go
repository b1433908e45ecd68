package parcodec

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidOptions    = errors.New("invalid options")
	ErrThreadPoolFailure = errors.New("worker pool failure")
)

// ChunkError reports that encoding or decoding one chunk failed.
type ChunkError struct {
	ID  int
	Err error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %d: %v", e.ID, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}
