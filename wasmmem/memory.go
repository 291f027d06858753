package wasmmem

import (
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	podruntime "github.com/wippyai/pod-runtime"
	"github.com/wippyai/pod-runtime/errors"
)

// Memory adapts a wazero linear memory to podruntime.Memory. Reads return
// views into guest memory; they are invalidated when the memory grows.
type Memory struct {
	mem api.Memory
}

// New wraps mem.
func New(mem api.Memory) *Memory {
	return &Memory{mem: mem}
}

func outOfBounds(offset, length uint32, op string) error {
	return errors.New(errors.PhaseMemory, errors.KindOutOfRange).
		At(offset).
		Detail("%s of %d bytes out of bounds", op, length).
		Build()
}

func (m *Memory) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, outOfBounds(offset, length, "read")
	}
	return data, nil
}

func (m *Memory) Write(offset uint32, data []byte) error {
	if !m.mem.Write(offset, data) {
		return outOfBounds(offset, uint32(len(data)), "write")
	}
	return nil
}

func (m *Memory) ReadU32(offset uint32) (uint32, error) {
	v, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		return 0, outOfBounds(offset, 4, "read")
	}
	return v, nil
}

func (m *Memory) WriteU32(offset uint32, value uint32) error {
	if !m.mem.WriteUint32Le(offset, value) {
		return outOfBounds(offset, 4, "write")
	}
	return nil
}

func (m *Memory) Size() uint32 {
	if m.mem == nil {
		return 0
	}
	return m.mem.Size()
}

// Grow adds pages of 64KiB and returns the previous size in pages.
func (m *Memory) Grow(pages uint32) (uint32, error) {
	prev, ok := m.mem.Grow(pages)
	if !ok {
		return 0, errors.New(errors.PhaseMemory, errors.KindOverflow).
			Value(pages).
			Detail("cannot grow memory by %d pages", pages).
			Build()
	}
	Logger().Debug("guest memory grown",
		zap.Uint32("previous_pages", prev),
		zap.Uint32("added_pages", pages))
	return prev, nil
}

// Compile-time check that Memory implements podruntime.Memory and MemorySizer
var _ podruntime.Memory = (*Memory)(nil)
var _ podruntime.MemorySizer = (*Memory)(nil)
