package podruntime

import (
	"encoding/binary"

	"github.com/wippyai/pod-runtime/errors"
)

// Memory is byte-addressed storage shared between two owners, such as a
// wasm guest's linear memory or a plain host slice. The u32 accessors are
// little-endian and carry shared control words such as ring indices.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU32(offset uint32) (uint32, error)
	WriteU32(offset uint32, value uint32) error
}

// MemorySizer provides the current size of a Memory in bytes.
type MemorySizer interface {
	Size() uint32
}

// SliceMemory implements Memory over a host byte slice. Reads return views
// into the slice, not copies.
type SliceMemory []byte

func (m SliceMemory) check(offset, length uint32) error {
	if uint64(offset)+uint64(length) > uint64(len(m)) {
		return errors.New(errors.PhaseMemory, errors.KindOutOfRange).
			At(offset).
			Detail("access of %d bytes exceeds memory size %d", length, len(m)).
			Build()
	}
	return nil
}

func (m SliceMemory) Read(offset uint32, length uint32) ([]byte, error) {
	if err := m.check(offset, length); err != nil {
		return nil, err
	}
	return m[offset : offset+length], nil
}

func (m SliceMemory) Write(offset uint32, data []byte) error {
	if err := m.check(offset, uint32(len(data))); err != nil {
		return err
	}
	copy(m[offset:], data)
	return nil
}

func (m SliceMemory) ReadU32(offset uint32) (uint32, error) {
	if err := m.check(offset, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(m[offset:]), nil
}

func (m SliceMemory) WriteU32(offset uint32, value uint32) error {
	if err := m.check(offset, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(m[offset:], value)
	return nil
}

func (m SliceMemory) Size() uint32 {
	return uint32(len(m))
}

var _ Memory = SliceMemory(nil)
var _ MemorySizer = SliceMemory(nil)
