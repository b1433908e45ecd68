package parcodec

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zhengshuai-xiao/HuffPar/internal"
	"github.com/zhengshuai-xiao/HuffPar/pkg/huffman"
)

func TestFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "input.txt")
	packed := filepath.Join(dir, "input.huf")
	restored := filepath.Join(dir, "restored.txt")
	data := append(textData(40_000), randomData(4, 10_000)...)
	require.NoError(t, os.WriteFile(in, data, 0644))

	l := NewLogListener(0)
	opts := testOptions(4, 8192, 0)
	opts.Listeners = []Listener{l}

	stats, err := CompressFile(context.Background(), in, packed, opts)
	require.NoError(t, err)
	assert.Equal(t, 7, stats.Chunks)
	assert.Equal(t, int64(len(data)), l.Total)
	fi, err := os.Stat(packed)
	require.NoError(t, err)
	assert.Equal(t, fi.Size(), stats.OutputBytes)

	_, err = DecompressFile(context.Background(), packed, restored, testOptions(2, 1, 2))
	require.NoError(t, err)
	got, err := os.ReadFile(restored)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3, "no temporary files may be left behind")
}

func TestEmptyFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(in, nil, 0644))

	_, err := CompressFile(context.Background(), in, filepath.Join(dir, "empty.huf"), DefaultOptions())
	require.NoError(t, err)
	fi, err := os.Stat(filepath.Join(dir, "empty.huf"))
	require.NoError(t, err)
	assert.Zero(t, fi.Size())

	_, err = DecompressFile(context.Background(), filepath.Join(dir, "empty.huf"), filepath.Join(dir, "back"), DefaultOptions())
	require.NoError(t, err)
	fi, err = os.Stat(filepath.Join(dir, "back"))
	require.NoError(t, err)
	assert.Zero(t, fi.Size())
}

func TestDecompressFileMalformedLeavesNoOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "broken.huf")
	out := filepath.Join(dir, "out.bin")
	require.NoError(t, os.WriteFile(in, []byte{0x02, 0x00, 0x00, 0x00, 'a', 0x01}, 0644))

	for _, inFlight := range []int{0, 2} {
		_, err := DecompressFile(context.Background(), in, out, testOptions(2, 16, inFlight))
		assert.ErrorIs(t, err, huffman.ErrMalformedRecord)
		assert.NoFileExists(t, out)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestProcessFileArgumentErrors(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(in, []byte("abc"), 0644))

	_, err := CompressFile(context.Background(), in, in, DefaultOptions())
	assert.ErrorIs(t, err, internal.ErrSameInOutput)

	_, err = CompressFile(context.Background(), filepath.Join(dir, "missing"), filepath.Join(dir, "x"), DefaultOptions())
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = CompressFile(context.Background(), dir, filepath.Join(dir, "x"), DefaultOptions())
	assert.ErrorIs(t, err, internal.ErrIsDirectory)

	_, err = CompressFile(context.Background(), in, dir, DefaultOptions())
	assert.ErrorIs(t, err, internal.ErrIsDirectory)

	_, err = CompressFile(context.Background(), in, "", DefaultOptions())
	assert.ErrorIs(t, err, internal.ErrEmptyPath)
}
