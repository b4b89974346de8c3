package common

import "encoding/binary"

func Uint64ToBytes(val uint64) []byte {
	bytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(bytes, val)
	return bytes
}
