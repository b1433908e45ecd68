package compression

import (
	"errors"
	"sort"
)

type CompressionType byte

const (
	Compress_zlib    CompressionType = iota //0
	Compress_snappy                         //1
	Compress_zstd                           //2
	Compress_s2                             //3
	Compress_huffman                        //4
	Compress_none    CompressionType = 0xff
)

var ErrInvalidCompressionType = errors.New("invalid compression type")

var (
	CompressionMethods = map[string]CompressionType{
		"none":    Compress_none,
		"zlib":    Compress_zlib,
		"snappy":  Compress_snappy,
		"zstd":    Compress_zstd,
		"s2":      Compress_s2,
		"huffman": Compress_huffman,
	}
)

// Compressor defines the interface for data compression and decompression algorithms.
type Compressor interface {
	// Compress takes a byte slice and returns the compressed data.
	Compress(data []byte) ([]byte, error)

	// Decompress takes a compressed byte slice and returns the original data.
	Decompress(data []byte) ([]byte, error)

	// Type returns the type of compression, e.g., "zlib", "snappy".
	TypeString() string
	Type() CompressionType
}

// Names lists every registered method except "none", sorted.
func Names() []string {
	names := make([]string, 0, len(CompressionMethods))
	for name, t := range CompressionMethods {
		if t != Compress_none {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// GetCompressorViaString returns a nil Compressor and no error for "none".
func GetCompressorViaString(compressionStr string) (Compressor, error) {
	compressionType, ok := CompressionMethods[compressionStr]
	if !ok {
		return nil, ErrInvalidCompressionType
	}
	return GetCompressorViaType(compressionType)
}

func GetCompressorViaType(compressionType CompressionType) (Compressor, error) {
	switch compressionType {
	case Compress_none:
		return nil, nil
	case Compress_zlib:
		return NewZlib(), nil
	case Compress_snappy:
		return NewSnappy(), nil
	case Compress_zstd:
		c, err := NewZstd()
		if err != nil {
			return nil, err
		}
		return c, nil
	case Compress_s2:
		return NewS2(), nil
	case Compress_huffman:
		return NewHuffman(), nil
	default:
		return nil, ErrInvalidCompressionType
	}
}
