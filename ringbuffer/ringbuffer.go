package ringbuffer

import (
	"math/bits"
	"sync/atomic"

	podruntime "github.com/wippyai/pod-runtime"
	"github.com/wippyai/pod-runtime/errors"
)

// RingBuffer holds the read and write indices of a single-producer,
// single-consumer ring. The byte storage is owned by the caller and passed
// to every data call.
//
// Indices run freely over the whole uint32 range and wrap on overflow. The
// physical offset of an index is index & (capacity-1).
type RingBuffer struct {
	readIndex  atomic.Uint32
	writeIndex atomic.Uint32
	capacity   uint32
	mask       uint32
}

// MaxCapacity keeps the advisory counts representable as int32.
const MaxCapacity = 1 << 30

// HeaderSize is the size of a ring header in shared memory: the read index
// followed by the write index, both little-endian u32.
const HeaderSize = 8

// New returns a ring for storage of capacity bytes. capacity must be a
// power of two no larger than MaxCapacity.
func New(capacity uint32) (*RingBuffer, error) {
	if bits.OnesCount32(capacity) != 1 {
		return nil, errors.New(errors.PhaseRing, errors.KindInvalidInput).
			Value(capacity).
			Detail("capacity %d is not a power of two", capacity).
			Build()
	}
	if capacity > MaxCapacity {
		return nil, errors.New(errors.PhaseRing, errors.KindInvalidInput).
			Value(capacity).
			Detail("capacity %d exceeds %d", capacity, MaxCapacity).
			Build()
	}
	return &RingBuffer{capacity: capacity, mask: capacity - 1}, nil
}

func (r *RingBuffer) Capacity() uint32 { return r.capacity }

// Init zeroes both indices.
func (r *RingBuffer) Init() {
	r.readIndex.Store(0)
	r.writeIndex.Store(0)
}

// SetAvail marks size bytes starting at index 0 as written and unread.
func (r *RingBuffer) SetAvail(size uint32) {
	r.readIndex.Store(0)
	r.writeIndex.Store(size)
}

// Filled is the number of written but unread bytes. It is negative when the
// reader has been moved past the writer.
func (r *RingBuffer) Filled() int32 {
	return int32(r.writeIndex.Load() - r.readIndex.Load())
}

// WriteIndex returns the writer's index and how many bytes may be written
// before unread data is overwritten. The count is advisory.
func (r *RingBuffer) WriteIndex() (uint32, int32) {
	w := r.writeIndex.Load()
	filled := int32(w - r.readIndex.Load())
	return w, int32(r.capacity) - filled
}

// ReadIndex returns the reader's index and how many bytes are available to
// read. The count is advisory.
func (r *RingBuffer) ReadIndex() (uint32, int32) {
	rd := r.readIndex.Load()
	return rd, int32(r.writeIndex.Load() - rd)
}

// WriteUpdate publishes the writer's progress. Call it only after the
// matching WriteData has completed.
func (r *RingBuffer) WriteUpdate(index uint32) {
	r.writeIndex.Store(index)
}

// ReadUpdate releases everything before index back to the writer.
func (r *RingBuffer) ReadUpdate(index uint32) {
	r.readIndex.Store(index)
}

// split returns the physical offset of index and how many of n bytes fit
// before the end of storage.
func (r *RingBuffer) split(index uint32, n int) (uint32, int) {
	off := index & r.mask
	return off, min(n, int(r.capacity-off))
}

// WriteData copies src into storage starting at the logical index offset,
// wrapping at the end of storage. storage must hold at least Capacity bytes;
// only the first Capacity are used. Indices are not updated.
func (r *RingBuffer) WriteData(storage []byte, offset uint32, src []byte) {
	storage = storage[:r.capacity]
	off, l0 := r.split(offset, len(src))
	copy(storage[off:], src[:l0])
	copy(storage, src[l0:])
}

// ReadData copies from storage starting at the logical index offset into dst,
// wrapping at the end of storage.
func (r *RingBuffer) ReadData(storage []byte, offset uint32, dst []byte) {
	storage = storage[:r.capacity]
	off, l0 := r.split(offset, len(dst))
	copy(dst[:l0], storage[off:])
	copy(dst[l0:], storage)
}

// WriteMemory is WriteData for storage that lives in mem at base.
func (r *RingBuffer) WriteMemory(mem podruntime.Memory, base, offset uint32, src []byte) error {
	if uint64(len(src)) > uint64(r.capacity) {
		src = src[:r.capacity]
	}
	off, l0 := r.split(offset, len(src))
	if err := mem.Write(base+off, src[:l0]); err != nil {
		return errors.Wrap(errors.PhaseRing, errors.KindOutOfRange, err, "ring storage write")
	}
	if l0 < len(src) {
		if err := mem.Write(base, src[l0:]); err != nil {
			return errors.Wrap(errors.PhaseRing, errors.KindOutOfRange, err, "ring storage write")
		}
	}
	return nil
}

// ReadMemory is ReadData for storage that lives in mem at base.
func (r *RingBuffer) ReadMemory(mem podruntime.Memory, base, offset uint32, dst []byte) error {
	if uint64(len(dst)) > uint64(r.capacity) {
		dst = dst[:r.capacity]
	}
	off, l0 := r.split(offset, len(dst))
	data, err := mem.Read(base+off, uint32(l0))
	if err != nil {
		return errors.Wrap(errors.PhaseRing, errors.KindOutOfRange, err, "ring storage read")
	}
	copy(dst, data)
	if l0 < len(dst) {
		data, err = mem.Read(base, uint32(len(dst)-l0))
		if err != nil {
			return errors.Wrap(errors.PhaseRing, errors.KindOutOfRange, err, "ring storage read")
		}
		copy(dst[l0:], data)
	}
	return nil
}

// Write copies as much of p as the reader has room for, publishes it and
// returns the number of bytes written.
func (r *RingBuffer) Write(storage, p []byte) int {
	index, avail := r.WriteIndex()
	if avail <= 0 {
		return 0
	}
	n := min(len(p), int(avail))
	r.WriteData(storage, index, p[:n])
	r.WriteUpdate(index + uint32(n))
	return n
}

// Read copies up to len(p) unread bytes into p, releases them and returns
// the number of bytes read.
func (r *RingBuffer) Read(storage, p []byte) int {
	index, avail := r.ReadIndex()
	if avail <= 0 {
		return 0
	}
	n := min(len(p), int(avail))
	r.ReadData(storage, index, p[:n])
	r.ReadUpdate(index + uint32(n))
	return n
}

// Load refreshes both indices from the ring header at addr in mem. Each side
// of a ring shared through memory loads the header before taking its index.
func (r *RingBuffer) Load(mem podruntime.Memory, addr uint32) error {
	read, err := mem.ReadU32(addr)
	if err != nil {
		return errors.Wrap(errors.PhaseRing, errors.KindOutOfRange, err, "ring header read")
	}
	write, err := mem.ReadU32(addr + 4)
	if err != nil {
		return errors.Wrap(errors.PhaseRing, errors.KindOutOfRange, err, "ring header read")
	}
	r.readIndex.Store(read)
	r.writeIndex.Store(write)
	return nil
}

// StoreWrite publishes the write index to the ring header at addr. Only the
// writer calls it, after WriteUpdate.
func (r *RingBuffer) StoreWrite(mem podruntime.Memory, addr uint32) error {
	if err := mem.WriteU32(addr+4, r.writeIndex.Load()); err != nil {
		return errors.Wrap(errors.PhaseRing, errors.KindOutOfRange, err, "ring header write")
	}
	return nil
}

// StoreRead publishes the read index to the ring header at addr. Only the
// reader calls it, after ReadUpdate.
func (r *RingBuffer) StoreRead(mem podruntime.Memory, addr uint32) error {
	if err := mem.WriteU32(addr, r.readIndex.Load()); err != nil {
		return errors.Wrap(errors.PhaseRing, errors.KindOutOfRange, err, "ring header write")
	}
	return nil
}
