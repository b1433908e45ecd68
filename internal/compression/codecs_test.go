package compression

import (
	"bytes"
	"compress/zlib"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockCompressors(t *testing.T) {
	zstdCompressor, err := NewZstd()
	require.NoError(t, err)
	fastZlib, err := NewZlibLevel(zlib.BestSpeed)
	require.NoError(t, err)

	testCases := []struct {
		name       string
		compressor Compressor
	}{
		{"zlib", NewZlib()},
		{"zlib best speed", fastZlib},
		{"snappy", NewSnappy()},
		{"s2", NewS2()},
		{"zstd", zstdCompressor},
	}

	repeated := bytes.Repeat([]byte("block codecs should squeeze repeated text. "), 40)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			compressed, err := tc.compressor.Compress(repeated)
			require.NoError(t, err)
			assert.Less(t, len(compressed), len(repeated), "Compressed data should be smaller than input")

			out, err := tc.compressor.Decompress(compressed)
			require.NoError(t, err)
			assert.Equal(t, repeated, out)

			compressed, err = tc.compressor.Compress([]byte{})
			require.NoError(t, err)
			assert.NotNil(t, compressed)
			out, err = tc.compressor.Decompress(compressed)
			require.NoError(t, err)
			assert.Empty(t, out)

			_, err = tc.compressor.Decompress([]byte("this is not valid " + tc.name + " data"))
			assert.Error(t, err, "Decompressing invalid data should return an error")
		})
	}
}

func TestNewZlibLevel(t *testing.T) {
	_, err := NewZlibLevel(zlib.BestCompression)
	assert.NoError(t, err)
	_, err = NewZlibLevel(42)
	assert.Error(t, err)
}

func TestZlibConcurrentUse(t *testing.T) {
	c := NewZlib()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			data := bytes.Repeat([]byte{byte(i)}, 1000+i)
			compressed, err := c.Compress(data)
			if !assert.NoError(t, err) {
				return
			}
			out, err := c.Decompress(compressed)
			assert.NoError(t, err)
			assert.Equal(t, data, out)
		}(i)
	}
	wg.Wait()
}
