package huffman

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func le32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestWriteRecordLayout(t *testing.T) {
	enc, err := EncodeChunk([]byte("aab"))
	require.NoError(t, err)
	require.Equal(t, CodeTable{'a': "1", 'b': "0"}, enc.Table)

	var buf bytes.Buffer
	n, err := WriteRecord(&buf, enc)
	require.NoError(t, err)

	expected := concat(
		le32(2),
		[]byte{'a'}, le32(1), []byte("1"),
		[]byte{'b'}, le32(1), []byte("0"),
		le32(3),
		le32(1),
		[]byte{0xC0},
	)
	assert.Equal(t, expected, buf.Bytes())
	assert.Equal(t, int64(len(expected)), n)
	assert.Equal(t, n, RecordSize(enc))
}

func TestRecordStream(t *testing.T) {
	chunks := [][]byte{
		[]byte("first chunk of text"),
		{0x00},
		allBytes(),
		randomBytes(3, 4096),
	}

	var buf bytes.Buffer
	for _, c := range chunks {
		enc, err := EncodeChunk(c)
		require.NoError(t, err)
		_, err = WriteRecord(&buf, enc)
		require.NoError(t, err)
	}

	r := bytes.NewReader(buf.Bytes())
	for i, c := range chunks {
		rec, err := ReadRecord(r)
		require.NoError(t, err, "record %d", i)
		dec, err := rec.Decode()
		require.NoError(t, err)
		assert.Equal(t, c, dec)
	}
	_, err := ReadRecord(r)
	assert.Equal(t, io.EOF, err)
}

func TestReadRecordTruncated(t *testing.T) {
	enc, err := EncodeChunk([]byte("mississippi river"))
	require.NoError(t, err)
	var buf bytes.Buffer
	_, err = WriteRecord(&buf, enc)
	require.NoError(t, err)
	full := buf.Bytes()

	_, err = ReadRecord(bytes.NewReader(nil))
	assert.Equal(t, io.EOF, err)

	for cut := 1; cut < len(full); cut++ {
		_, err := ReadRecord(bytes.NewReader(full[:cut]))
		assert.ErrorIs(t, err, ErrMalformedRecord, "cut at %d", cut)
	}

	// A complete record followed by a partial one.
	stream := append(append([]byte{}, full...), full[:5]...)
	r := bytes.NewReader(stream)
	_, err = ReadRecord(r)
	require.NoError(t, err)
	_, err = ReadRecord(r)
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestReadRecordMalformed(t *testing.T) {
	entryA := concat([]byte{'a'}, le32(1), []byte("0"))
	entryB := concat([]byte{'b'}, le32(1), []byte("1"))

	testCases := []struct {
		name string
		data []byte
	}{
		{"Zero Entries", concat(le32(0), le32(1), le32(1), []byte{0})},
		{"Too Many Entries", concat(le32(300), entryA)},
		{"Zero Code Length", concat(le32(1), []byte{'a'}, le32(0), le32(1), le32(1), []byte{0})},
		{"Huge Code Length", concat(le32(1), []byte{'a'}, le32(1<<30), []byte("0"))},
		{"Non Binary Code", concat(le32(1), []byte{'a'}, le32(1), []byte("x"), le32(1), le32(1), []byte{0})},
		{"Duplicate Entry", concat(le32(2), entryA, entryA, le32(1), le32(1), []byte{0})},
		{"Prefix Codes", concat(le32(2), entryA, []byte{'b'}, le32(2), []byte("01"), le32(1), le32(1), []byte{0})},
		{"Zero Original Length", concat(le32(2), entryA, entryB, le32(0), le32(1), []byte{0})},
		{"Length Exceeds Packed Bits", concat(le32(2), entryA, entryB, le32(9), le32(1), []byte{0})},
		{"Packed Length Lies", concat(le32(2), entryA, entryB, le32(4), le32(1<<31), []byte{0x50})},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadRecord(bytes.NewReader(tc.data))
			assert.ErrorIs(t, err, ErrMalformedRecord)
		})
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestReadRecordPassesIOErrors(t *testing.T) {
	_, err := ReadRecord(failingReader{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformedRecord)
	assert.NotErrorIs(t, err, io.EOF)
}

type shortWriter struct{ limit int }

func (w *shortWriter) Write(p []byte) (int, error) {
	if len(p) > w.limit {
		n := w.limit
		w.limit = 0
		return n, io.ErrShortWrite
	}
	w.limit -= len(p)
	return len(p), nil
}

func TestWriteRecordShortWrite(t *testing.T) {
	enc, err := EncodeChunk([]byte("hello"))
	require.NoError(t, err)
	_, err = WriteRecord(&shortWriter{limit: 3}, enc)
	assert.Error(t, err)
}
