package storage

import (
	"encoding/binary"
	"fmt"
)

// Store is implemented by the out-of-process and persistent backends.
// Its method set is a superset of container.Adapter so a Store can be
// benchmarked like any in-process map.
type Store interface {
	Insert(key, value int64) bool
	Update(key, value int64, allowInsert bool) (found, inserted bool)
	Find(key int64) (int64, bool)
	Erase(key int64) bool
	Contains(key int64) bool
	Size() int
	Close() error
	Stats() map[string]interface{}
}

var ErrKeyNotFound = fmt.Errorf("key not found")

// encodeKey uses big-endian so byte order matches numeric order for non-negative keys
func encodeKey(key int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(key))
	return buf
}

func encodeValue(value int64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(value))
	return buf
}

func decodeValue(buf []byte) (int64, error) {
	if len(buf) != 8 {
		return 0, fmt.Errorf("corrupt value: %d bytes", len(buf))
	}
	return int64(binary.LittleEndian.Uint64(buf)), nil
}
