package layout

import "math"

const (
	// HeaderSize is the size of the u32 size + u32 type header.
	HeaderSize = 8
	// Align is the alignment of every pod within its buffer.
	Align = 8
)

// RoundUp rounds n up to the next multiple of Align.
func RoundUp(n uint32) uint32 {
	return (n + Align - 1) &^ (Align - 1)
}

// Padding returns the zero bytes needed after n bytes to reach alignment.
func Padding(n uint32) uint32 {
	return RoundUp(n) - n
}

// Footprint is the padded on-wire size of a pod with the given body size.
func Footprint(size uint32) uint64 {
	return (uint64(size) + HeaderSize + Align - 1) &^ (Align - 1)
}

// Fits reports whether [offset, offset+n) lies within limit.
func Fits(offset, n uint32, limit uint64) bool {
	return uint64(offset)+uint64(n) <= limit
}

// SafeAddU32 adds a and b, reporting false on overflow.
func SafeAddU32(a, b uint32) (uint32, bool) {
	if a > math.MaxUint32-b {
		return 0, false
	}
	return a + b, true
}
