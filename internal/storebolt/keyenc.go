package storebolt

import (
	"encoding/binary"
	"sort"

	"github.com/cuemby/tablemapper/pkg/avalue"
	"github.com/cuemby/tablemapper/pkg/store"
)

// encodeKey derives a deterministic bbolt key from an item's primary-key
// attributes: sorted by attribute name, each component length-prefixed as
// a big-endian uint32 so names/values with embedded separators can never
// collide two distinct keys onto the same encoded bytes.
func encodeKey(key store.Item) []byte {
	names := make([]string, 0, len(key))
	for name := range key {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []byte
	for _, name := range names {
		value, _ := avalue.Scalar(key[name])
		out = appendLenPrefixed(out, name)
		out = appendLenPrefixed(out, value)
	}
	return out
}

func appendLenPrefixed(dst []byte, s string) []byte {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(s)))
	dst = append(dst, lenBuf[:]...)
	dst = append(dst, s...)
	return dst
}
