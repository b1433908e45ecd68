package parcodec

import (
	"fmt"
	"runtime"

	"github.com/c2h5oh/datasize"
)

const (
	DefaultChunkSize = 1 << 20
	MaxChunkSize     = 1 << 30
)

// Options configures one compress or decompress run.
type Options struct {
	// Threads is the number of worker goroutines.
	Threads int
	// ChunkSize is the number of input bytes per chunk when compressing. Decompression
	// takes chunk boundaries from the records and ignores it.
	ChunkSize int
	// MaxInFlight bounds how many chunks may be read but not yet written. Zero keeps every
	// result in memory until the whole input has been processed, and nothing is written
	// before all chunks succeeded.
	MaxInFlight int
	Listeners   []Listener
}

func DefaultOptions() Options {
	return Options{
		Threads:     runtime.NumCPU(),
		ChunkSize:   DefaultChunkSize,
		MaxInFlight: 0,
	}
}

func (o *Options) Validate() error {
	if o.Threads < 1 {
		return fmt.Errorf("%w: threads must be at least 1, got %d", ErrInvalidOptions, o.Threads)
	}
	if o.ChunkSize < 1 || o.ChunkSize > MaxChunkSize {
		return fmt.Errorf("%w: chunk size must be between 1 byte and %s, got %d",
			ErrInvalidOptions, datasize.ByteSize(MaxChunkSize).HR(), o.ChunkSize)
	}
	if o.MaxInFlight < 0 {
		return fmt.Errorf("%w: max in-flight chunks cannot be negative, got %d", ErrInvalidOptions, o.MaxInFlight)
	}
	return nil
}

// ParseChunkSize accepts a plain byte count or a size with a unit such as "512KB" or "4MB".
func ParseChunkSize(s string) (int, error) {
	var v datasize.ByteSize
	if err := v.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("%w: invalid chunk size %q: %v", ErrInvalidOptions, s, err)
	}
	if v.Bytes() < 1 || v.Bytes() > MaxChunkSize {
		return 0, fmt.Errorf("%w: chunk size %s out of range", ErrInvalidOptions, v.HR())
	}
	return int(v.Bytes()), nil
}
