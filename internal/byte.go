package internal

import (
	"encoding/binary"
)

// UInt32ToBytesLittleEndian encodes i the way every length field of the record format is stored.
func UInt32ToBytesLittleEndian(i uint32) [4]byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], i)
	return b
}

func BytesToUInt32LittleEndian(b [4]byte) uint32 {
	return binary.LittleEndian.Uint32(b[:])
}
