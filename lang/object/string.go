package object

import "unicode/utf8"

// String is an immutable byte sequence with a precomputed hash (spec.md §3).
type String struct {
	Header

	Bytes []byte
	Hash  uint32
}

var _ Obj = (*String)(nil)

// NewString allocates a String wrapping a copy of s's bytes.
func NewString(s string) *String {
	b := []byte(s)
	str := &String{Bytes: b, Hash: hashBytes(b)}
	str.Header.Type = TypeString
	return str
}

// Len returns the number of bytes in the string.
func (s *String) Len() int { return len(s.Bytes) }

// RuneCount returns the number of Unicode code points in the string.
func (s *String) RuneCount() int { return utf8.RuneCount(s.Bytes) }

// ByteAt returns the single byte at byte index i; String's byteAt_
// primitive (lang/corelib) hands it to scripts as a Num.
func (s *String) ByteAt(i int) byte { return s.Bytes[i] }

// CodePointAt decodes the rune starting at byte offset i, returning the rune
// and its width in bytes.
func (s *String) CodePointAt(i int) (rune, int) {
	return utf8.DecodeRune(s.Bytes[i:])
}

// hashBytes computes a MurmurHash3-flavored 32-bit hash (spec.md §3:
// "precomputed 32-bit hash (MurmurHash3-flavored)"), grounded on the public
// domain murmur3 x86_32 algorithm (Austin Appleby), implemented directly
// here rather than imported: it is a dozen lines of bit-twiddling with no
// maintained idiomatic-Go dependency in the example pack that exposes
// exactly this 32-bit variant (see DESIGN.md).
func hashBytes(data []byte) uint32 {
	const (
		c1   = 0xcc9e2d51
		c2   = 0x1b873593
		seed = 0
	)
	var h uint32 = seed
	nblocks := len(data) / 4
	for i := 0; i < nblocks; i++ {
		k := uint32(data[i*4]) | uint32(data[i*4+1])<<8 | uint32(data[i*4+2])<<16 | uint32(data[i*4+3])<<24
		k *= c1
		k = (k << 15) | (k >> 17)
		k *= c2
		h ^= k
		h = (h << 13) | (h >> 19)
		h = h*5 + 0xe6546b64
	}

	tail := data[nblocks*4:]
	var k uint32
	switch len(tail) {
	case 3:
		k ^= uint32(tail[2]) << 16
		fallthrough
	case 2:
		k ^= uint32(tail[1]) << 8
		fallthrough
	case 1:
		k ^= uint32(tail[0])
		k *= c1
		k = (k << 15) | (k >> 17)
		k *= c2
		h ^= k
	}

	h ^= uint32(len(data))
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return h
}
