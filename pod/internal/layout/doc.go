// Package layout provides the alignment and bounds arithmetic shared by the
// pod Builder and Parser.
//
// # Layout Rules
//
// Every pod starts on an 8-byte boundary relative to its containing buffer:
//   - Header: u32 size (body length, no padding) + u32 type
//   - Footprint: RoundUp(HeaderSize + size)
//   - Array elements: packed at child size, no per-element padding
//
// All arithmetic is done in uint64 where a uint32 sum could wrap, so bounds
// checks never pass on overflow.
//
// This package is internal to pod.
package layout
