package parcodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsValidate(t *testing.T) {
	def := DefaultOptions()
	require.NoError(t, def.Validate())
	assert.GreaterOrEqual(t, def.Threads, 1)
	assert.Equal(t, DefaultChunkSize, def.ChunkSize)
	assert.Zero(t, def.MaxInFlight)

	testCases := []struct {
		name string
		opts Options
		ok   bool
	}{
		{"Minimal", Options{Threads: 1, ChunkSize: 1}, true},
		{"Bounded", Options{Threads: 4, ChunkSize: 1024, MaxInFlight: 8}, true},
		{"No Threads", Options{Threads: 0, ChunkSize: 1024}, false},
		{"Zero Chunk", Options{Threads: 1, ChunkSize: 0}, false},
		{"Huge Chunk", Options{Threads: 1, ChunkSize: MaxChunkSize + 1}, false},
		{"Negative In Flight", Options{Threads: 1, ChunkSize: 1, MaxInFlight: -1}, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.opts.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidOptions)
			}
		})
	}
}

func TestParseChunkSize(t *testing.T) {
	testCases := []struct {
		input    string
		expected int
		ok       bool
	}{
		{"1024", 1024, true},
		{"1KB", 1024, true},
		{"512kb", 512 * 1024, true},
		{"4MB", 4 << 20, true},
		{"1GB", 1 << 30, true},
		{"2GB", 0, false},
		{"0", 0, false},
		{"lots", 0, false},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			n, err := ParseChunkSize(tc.input)
			if !tc.ok {
				assert.ErrorIs(t, err, ErrInvalidOptions)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, n)
		})
	}
}
