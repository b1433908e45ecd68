package huffman

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allBytes() []byte {
	b := make([]byte, 256)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func randomBytes(seed int64, n int) []byte {
	b := make([]byte, n)
	rand.New(rand.NewSource(seed)).Read(b)
	return b
}

func TestEncodeDecodeChunk(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{"Single Byte", []byte{'A'}},
		{"Repeated Byte", bytes.Repeat([]byte{'z'}, 1000)},
		{"Two Symbols", []byte("abababababbbbbba")},
		{"All Byte Values", allBytes()},
		{"Text", []byte("It was the best of times, it was the worst of times, it was the age of wisdom")},
		{"Random", randomBytes(7, 64*1024)},
		{"Skewed", append(bytes.Repeat([]byte{0}, 5000), randomBytes(8, 100)...)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			enc, err := EncodeChunk(tc.data)
			require.NoError(t, err)
			assert.Equal(t, len(tc.data), enc.Length)
			assert.NoError(t, enc.Table.Validate())

			freq := Tally(tc.data)
			assert.Len(t, enc.Packed, (enc.Table.Cost(&freq)+7)/8)

			dec, err := enc.Decode()
			require.NoError(t, err)
			assert.Equal(t, tc.data, dec)
		})
	}
}

func TestEncodeChunkEmpty(t *testing.T) {
	_, err := EncodeChunk(nil)
	assert.ErrorIs(t, err, ErrEmptyChunk)
	_, err = EncodeChunk([]byte{})
	assert.ErrorIs(t, err, ErrEmptyChunk)
}

func TestEncodeChunkSingleSymbol(t *testing.T) {
	enc, err := EncodeChunk(bytes.Repeat([]byte{'q'}, 1000))
	require.NoError(t, err)
	assert.Equal(t, CodeTable{'q': "0"}, enc.Table)
	assert.Equal(t, make([]byte, 125), enc.Packed)
}

func TestDecodeIgnoresPadding(t *testing.T) {
	// With 'a' coded as "0", the seven padding bits would read as seven more 'a's.
	table := CodeTable{'a': "0", 'b': "1"}
	packed, err := PackSymbols([]byte("b"), table, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x80}, packed)

	dec, err := DecodeChunk(packed, table, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), dec)
}

func TestPackSymbolsLongCodes(t *testing.T) {
	// Codes longer than 64 bits take the slow path.
	table := CodeTable{'a': "1", 'b': "0" + string(bytes.Repeat([]byte{'1'}, 69)) + "0", 'c': "0" + string(bytes.Repeat([]byte{'1'}, 70))}
	require.NoError(t, table.Validate())
	data := []byte("abcacb")
	packed, err := PackSymbols(data, table, 0)
	require.NoError(t, err)

	dec, err := DecodeChunk(packed, table, len(data))
	require.NoError(t, err)
	assert.Equal(t, data, dec)

	_, err = PackSymbols([]byte("d"), table, 0)
	assert.Error(t, err)
}

func TestDecodeChunkMalformed(t *testing.T) {
	// "aab" with a="1", b="0" packs to 110(00000).
	table := CodeTable{'a': "1", 'b': "0"}

	testCases := []struct {
		name   string
		packed []byte
		table  CodeTable
		length int
	}{
		{"Zero Length", []byte{0xC0}, table, 0},
		{"Length Beyond Packed Bits", []byte{0xC0}, table, 9},
		{"Trailing Packed Bytes", []byte{0xC0, 0x00}, table, 3},
		{"Invalid Code Path", []byte{0x80}, CodeTable{'a': "00", 'b': "01"}, 1},
		{"Bits Run Out Mid Code", []byte{0x00}, CodeTable{'a': "0000000", 'b': "00000010"}, 2},
		{"Not Prefix Free", []byte{0x00}, CodeTable{'a': "0", 'b': "01"}, 1},
		{"Empty Table", []byte{0x00}, CodeTable{}, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeChunk(tc.packed, tc.table, tc.length)
			assert.ErrorIs(t, err, ErrMalformedRecord)
		})
	}

	dec, err := DecodeChunk([]byte{0xC0}, table, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte("aab"), dec)
}
