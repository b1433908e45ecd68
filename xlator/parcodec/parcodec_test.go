package parcodec

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math/rand"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zhengshuai-xiao/HuffPar/pkg/huffman"
)

func testOptions(threads, chunkSize, maxInFlight int) Options {
	return Options{Threads: threads, ChunkSize: chunkSize, MaxInFlight: maxInFlight}
}

func randomData(seed int64, n int) []byte {
	b := make([]byte, n)
	rand.New(rand.NewSource(seed)).Read(b)
	return b
}

func textData(n int) []byte {
	const sample = "Huffman coding assigns short codes to frequent bytes and long codes to rare ones. "
	return []byte(strings.Repeat(sample, n/len(sample)+1)[:n])
}

func compress(t *testing.T, data []byte, opts Options) []byte {
	t.Helper()
	var out bytes.Buffer
	stats, err := RunCompress(context.Background(), bytes.NewReader(data), &out, opts)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), stats.InputBytes)
	assert.Equal(t, int64(out.Len()), stats.OutputBytes)
	return out.Bytes()
}

func decompress(t *testing.T, data []byte, opts Options) []byte {
	t.Helper()
	var out bytes.Buffer
	stats, err := RunDecompress(context.Background(), bytes.NewReader(data), &out, opts)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), stats.InputBytes)
	assert.Equal(t, int64(out.Len()), stats.OutputBytes)
	return out.Bytes()
}

// assertGoroutinesReleased waits for goroutines started since before to exit, so a failed
// run cannot keep its workers, queue pumps or buffered results alive.
func assertGoroutinesReleased(t *testing.T, before int) {
	t.Helper()
	assert.Eventually(t, func() bool { return runtime.NumGoroutine() <= before },
		5*time.Second, 10*time.Millisecond, "goroutines left behind: %d, started with %d", runtime.NumGoroutine(), before)
}

func countRecords(t *testing.T, data []byte) int {
	t.Helper()
	r := bytes.NewReader(data)
	n := 0
	for {
		_, err := huffman.ReadRecord(r)
		if err == io.EOF {
			return n
		}
		require.NoError(t, err)
		n++
	}
}

func TestRoundTrip(t *testing.T) {
	inputs := []struct {
		name string
		data []byte
	}{
		{"Empty", []byte{}},
		{"Single Byte", []byte{'A'}},
		{"Repeated Byte", bytes.Repeat([]byte{'z'}, 1000)},
		{"Text", textData(50_000)},
		{"Random", randomData(1, 100_000)},
	}
	modes := []struct {
		name string
		opts Options
	}{
		{"Reference", testOptions(4, 4096, 0)},
		{"Bounded", testOptions(4, 4096, 3)},
		{"Single Thread Bounded", testOptions(1, 4096, 1)},
	}

	for _, in := range inputs {
		for _, mode := range modes {
			t.Run(in.name+"/"+mode.name, func(t *testing.T) {
				compressed := compress(t, in.data, mode.opts)
				assert.Equal(t, (len(in.data)+4095)/4096, countRecords(t, compressed))
				assert.Equal(t, in.data, decompress(t, compressed, mode.opts))
			})
		}
	}
}

func TestEmptyInput(t *testing.T) {
	var out bytes.Buffer
	stats, err := RunCompress(context.Background(), bytes.NewReader(nil), &out, testOptions(2, 16, 0))
	require.NoError(t, err)
	assert.Zero(t, out.Len())
	assert.Zero(t, stats.Chunks)
	assert.Zero(t, stats.Ratio())

	stats, err = RunDecompress(context.Background(), bytes.NewReader(nil), &out, testOptions(2, 16, 0))
	require.NoError(t, err)
	assert.Zero(t, out.Len())
	assert.Zero(t, stats.Chunks)
}

func TestChunkSizeInvariance(t *testing.T) {
	data := textData(3000)
	for _, size := range []int{1, 7, 1024, 1 << 20} {
		compressed := compress(t, data, testOptions(4, size, 0))
		assert.Equal(t, (len(data)+size-1)/size, countRecords(t, compressed), "chunk size %d", size)
		assert.Equal(t, data, decompress(t, compressed, testOptions(4, size, 0)), "chunk size %d", size)
	}
}

func TestThreadCountDoesNotChangeOutput(t *testing.T) {
	data := append(textData(20_000), randomData(2, 20_000)...)
	reference := compress(t, data, testOptions(1, 1000, 0))

	for _, threads := range []int{1, 2, 8} {
		assert.Equal(t, reference, compress(t, data, testOptions(threads, 1000, 0)), "%d threads", threads)
		assert.Equal(t, reference, compress(t, data, testOptions(threads, 1000, 2)), "%d threads bounded", threads)
		assert.Equal(t, data, decompress(t, reference, testOptions(threads, 1000, 0)))
	}
}

func TestSingleSymbolFile(t *testing.T) {
	data := bytes.Repeat([]byte{0x42}, 1000)
	compressed := compress(t, data, testOptions(2, 1<<20, 0))

	rec, err := huffman.ReadRecord(bytes.NewReader(compressed))
	require.NoError(t, err)
	assert.Equal(t, huffman.CodeTable{0x42: "0"}, rec.Table)
	assert.Equal(t, 1000, rec.Length)
	assert.Len(t, rec.Packed, 125)

	assert.Equal(t, data, decompress(t, compressed, testOptions(2, 1<<20, 0)))
}

func TestRandomMegabytes(t *testing.T) {
	data := randomData(3, 3<<20)
	compressed := compress(t, data, testOptions(4, 1<<20, 0))

	assert.Equal(t, 3, countRecords(t, compressed))
	assert.GreaterOrEqual(t, len(compressed), len(data))
	assert.Equal(t, data, decompress(t, compressed, testOptions(4, 1<<20, 0)))
}

func TestDecompressMalformed(t *testing.T) {
	good := compress(t, textData(5000), testOptions(2, 1000, 0))

	testCases := []struct {
		name string
		data []byte
	}{
		{"Truncated Record", good[:len(good)-3]},
		{"Garbage", []byte("definitely not a compressed file")},
		{"Trailing Partial Header", append(append([]byte{}, good...), 0x01, 0x00)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			before := runtime.NumGoroutine()
			defer assertGoroutinesReleased(t, before)

			var out bytes.Buffer
			_, err := RunDecompress(context.Background(), bytes.NewReader(tc.data), &out, testOptions(4, 1000, 0))
			assert.ErrorIs(t, err, huffman.ErrMalformedRecord)
			assert.Zero(t, out.Len(), "nothing may be written for a malformed input")

			out.Reset()
			_, err = RunDecompress(context.Background(), bytes.NewReader(tc.data), &out, testOptions(4, 1000, 2))
			assert.ErrorIs(t, err, huffman.ErrMalformedRecord)
		})
	}
}

func TestDecompressChunkError(t *testing.T) {
	var buf bytes.Buffer
	first, err := huffman.EncodeChunk([]byte("a perfectly fine chunk"))
	require.NoError(t, err)
	_, err = huffman.WriteRecord(&buf, first)
	require.NoError(t, err)

	// Parses as a record but leaves a whole unused packed byte behind.
	bad := &huffman.EncodedChunk{Table: huffman.CodeTable{'a': "0", 'b': "1"}, Length: 8, Packed: []byte{0x0F, 0x00}}
	_, err = huffman.WriteRecord(&buf, bad)
	require.NoError(t, err)

	before := runtime.NumGoroutine()
	defer assertGoroutinesReleased(t, before)

	for _, inFlight := range []int{0, 4} {
		var out bytes.Buffer
		_, err = RunDecompress(context.Background(), bytes.NewReader(buf.Bytes()), &out, testOptions(2, 1, inFlight))
		require.Error(t, err)

		var ce *ChunkError
		require.True(t, errors.As(err, &ce), "got %v", err)
		assert.Equal(t, 1, ce.ID)
		assert.ErrorIs(t, err, huffman.ErrMalformedRecord)
		if inFlight == 0 {
			assert.Zero(t, out.Len())
		}
	}
}

func TestRepeatedFailuresDoNotLeak(t *testing.T) {
	good := compress(t, textData(20_000), testOptions(2, 1000, 0))
	truncated := good[:len(good)-3]

	for _, inFlight := range []int{0, 3} {
		before := runtime.NumGoroutine()
		for i := 0; i < 20; i++ {
			_, err := RunDecompress(context.Background(), bytes.NewReader(truncated), io.Discard, testOptions(4, 1000, inFlight))
			require.ErrorIs(t, err, huffman.ErrMalformedRecord)
		}
		assertGoroutinesReleased(t, before)
	}
}

func TestInvalidOptions(t *testing.T) {
	_, err := RunCompress(context.Background(), bytes.NewReader([]byte("x")), io.Discard, testOptions(0, 10, 0))
	assert.ErrorIs(t, err, ErrInvalidOptions)
	_, err = RunDecompress(context.Background(), bytes.NewReader(nil), io.Discard, testOptions(1, 10, -1))
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	before := runtime.NumGoroutine()
	defer assertGoroutinesReleased(t, before)

	for _, inFlight := range []int{0, 2} {
		var out bytes.Buffer
		_, err := RunCompress(ctx, bytes.NewReader(textData(10_000)), &out, testOptions(2, 100, inFlight))
		assert.ErrorIs(t, err, context.Canceled)
	}
}

type failingWriter struct {
	after int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.after <= 0 {
		return 0, errors.New("disk full")
	}
	w.after--
	return len(p), nil
}

func TestWriteFailure(t *testing.T) {
	for _, inFlight := range []int{0, 2} {
		_, err := RunCompress(context.Background(), bytes.NewReader(textData(10_000)), &failingWriter{after: 5}, testOptions(3, 100, inFlight))
		assert.ErrorContains(t, err, "disk full")
	}
}
