package ringbuffer

import (
	"bytes"
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	podruntime "github.com/wippyai/pod-runtime"
	"github.com/wippyai/pod-runtime/errors"
)

func seq(start, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(start + i)
	}
	return out
}

func TestNew(t *testing.T) {
	for _, c := range []uint32{1, 2, 16, 4096, MaxCapacity} {
		rb, err := New(c)
		require.NoError(t, err, "capacity %d", c)
		assert.Equal(t, c, rb.Capacity())
		_, avail := rb.WriteIndex()
		assert.Equal(t, int32(c), avail, "capacity %d", c)
	}
	for _, c := range []uint32{0, 3, 24, 1000, 1 << 31, math.MaxUint32} {
		_, err := New(c)
		assert.ErrorIs(t, err, errors.ErrInvalidInput, "capacity %d", c)
	}
}

func TestWraparound(t *testing.T) {
	rb, err := New(16)
	require.NoError(t, err)
	storage := make([]byte, 16)
	src := seq(1, 20)
	var got []byte

	for _, n := range []int{12, 8} {
		w, avail := rb.WriteIndex()
		require.GreaterOrEqual(t, int(avail), n)
		rb.WriteData(storage, w, src[len(got):len(got)+n])
		rb.WriteUpdate(w + uint32(n))

		r, filled := rb.ReadIndex()
		require.Equal(t, int32(n), filled)
		dst := make([]byte, n)
		rb.ReadData(storage, r, dst)
		rb.ReadUpdate(r + uint32(n))
		got = append(got, dst...)
	}

	assert.Equal(t, src, got)
	// second write wrapped: its last four bytes landed at the start of storage
	assert.Equal(t, src[16:20], storage[0:4])
	assert.Equal(t, src[12:16], storage[12:16])
}

func TestAdvisoryCounts(t *testing.T) {
	const capacity = 64
	rb, err := New(capacity)
	require.NoError(t, err)
	storage := make([]byte, capacity)
	rng := rand.New(rand.NewSource(1))

	written, read := 0, 0
	for i := 0; i < 1000; i++ {
		if rng.Intn(2) == 0 {
			_, avail := rb.WriteIndex()
			n := rng.Intn(int(avail) + 1)
			written += rb.Write(storage, make([]byte, n))
		} else {
			_, avail := rb.ReadIndex()
			n := rng.Intn(int(avail) + 1)
			read += rb.Read(storage, make([]byte, n))
		}
		_, toRead := rb.ReadIndex()
		_, toWrite := rb.WriteIndex()
		require.Equal(t, int32(written-read), toRead)
		require.Equal(t, int32(capacity-(written-read)), toWrite)
		require.Equal(t, toRead, rb.Filled())
	}
}

func TestIndexWrap(t *testing.T) {
	rb, err := New(16)
	require.NoError(t, err)
	storage := make([]byte, 16)
	start := uint32(math.MaxUint32 - 3)
	rb.WriteUpdate(start)
	rb.ReadUpdate(start)

	src := seq(100, 8)
	w, avail := rb.WriteIndex()
	assert.Equal(t, int32(16), avail)
	rb.WriteData(storage, w, src)
	rb.WriteUpdate(w + 8)

	r, filled := rb.ReadIndex()
	assert.Equal(t, start, r)
	assert.Equal(t, int32(8), filled)
	wi, _ := rb.WriteIndex()
	assert.Equal(t, uint32(4), wi)

	dst := make([]byte, 8)
	rb.ReadData(storage, r, dst)
	assert.Equal(t, src, dst)
}

func TestInitAndSetAvail(t *testing.T) {
	rb, err := New(32)
	require.NoError(t, err)
	rb.WriteUpdate(100)
	rb.ReadUpdate(90)
	rb.Init()
	assert.Equal(t, int32(0), rb.Filled())

	rb.SetAvail(5)
	r, filled := rb.ReadIndex()
	assert.Equal(t, uint32(0), r)
	assert.Equal(t, int32(5), filled)
	w, avail := rb.WriteIndex()
	assert.Equal(t, uint32(5), w)
	assert.Equal(t, int32(27), avail)
}

func TestWriteReadHelpers(t *testing.T) {
	rb, err := New(8)
	require.NoError(t, err)
	storage := make([]byte, 8)

	assert.Equal(t, 8, rb.Write(storage, seq(0, 12)))
	assert.Equal(t, 0, rb.Write(storage, seq(0, 1)))

	dst := make([]byte, 5)
	assert.Equal(t, 5, rb.Read(storage, dst))
	assert.Equal(t, seq(0, 5), dst)

	assert.Equal(t, 5, rb.Write(storage, seq(8, 5)))
	all := make([]byte, 16)
	n := rb.Read(storage, all)
	assert.Equal(t, 8, n)
	assert.Equal(t, []byte{5, 6, 7, 8, 9, 10, 11, 12}, all[:n])
	assert.Equal(t, 0, rb.Read(storage, all))
}

func TestMemoryStorage(t *testing.T) {
	rb, err := New(16)
	require.NoError(t, err)
	const base = 64
	mem := make(podruntime.SliceMemory, base+16)

	src := seq(1, 20)
	require.NoError(t, rb.WriteMemory(mem, base, 0, src[:12]))
	rb.WriteUpdate(12)
	dst := make([]byte, 12)
	require.NoError(t, rb.ReadMemory(mem, base, 0, dst))
	rb.ReadUpdate(12)
	assert.Equal(t, src[:12], dst)

	require.NoError(t, rb.WriteMemory(mem, base, 12, src[12:]))
	rb.WriteUpdate(20)
	dst = make([]byte, 8)
	require.NoError(t, rb.ReadMemory(mem, base, 12, dst))
	assert.Equal(t, src[12:], dst)
	assert.Equal(t, src[16:20], []byte(mem[base:base+4]))
	assert.Equal(t, make([]byte, base), []byte(mem[:base]))
}

func TestMemoryStorageOutOfBounds(t *testing.T) {
	rb, err := New(16)
	require.NoError(t, err)
	mem := make(podruntime.SliceMemory, 8)

	err = rb.WriteMemory(mem, 0, 4, seq(0, 8))
	assert.ErrorIs(t, err, errors.ErrOutOfRange)
	err = rb.ReadMemory(mem, 0, 4, make([]byte, 8))
	assert.ErrorIs(t, err, errors.ErrOutOfRange)
}

func TestConcurrentProducerConsumer(t *testing.T) {
	rb, err := New(64)
	require.NoError(t, err)
	storage := make([]byte, 64)

	const total = 1 << 16
	src := make([]byte, total)
	rand.New(rand.NewSource(7)).Read(src)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for off := 0; off < total; {
			end := min(off+13, total)
			off += rb.Write(storage, src[off:end])
		}
	}()

	got := make([]byte, 0, total)
	buf := make([]byte, 29)
	for len(got) < total {
		n := rb.Read(storage, buf)
		got = append(got, buf[:n]...)
	}
	wg.Wait()

	assert.True(t, bytes.Equal(src, got))
}

func TestSharedHeader(t *testing.T) {
	mem := make(podruntime.SliceMemory, HeaderSize+16)
	const hdr, base = 0, HeaderSize

	writer, err := New(16)
	require.NoError(t, err)
	reader, err := New(16)
	require.NoError(t, err)

	msg := seq(0, 40)
	var got []byte
	for sent := 0; len(got) < len(msg); {
		require.NoError(t, writer.Load(mem, hdr))
		w, space := writer.WriteIndex()
		n := min(int(space), 7, len(msg)-sent)
		require.NoError(t, writer.WriteMemory(mem, base, w, msg[sent:sent+n]))
		writer.WriteUpdate(w + uint32(n))
		require.NoError(t, writer.StoreWrite(mem, hdr))
		sent += n

		require.NoError(t, reader.Load(mem, hdr))
		r, avail := reader.ReadIndex()
		dst := make([]byte, avail)
		require.NoError(t, reader.ReadMemory(mem, base, r, dst))
		reader.ReadUpdate(r + uint32(avail))
		require.NoError(t, reader.StoreRead(mem, hdr))
		got = append(got, dst...)
	}
	assert.Equal(t, msg, got)

	read, err := mem.ReadU32(hdr)
	require.NoError(t, err)
	write, err := mem.ReadU32(hdr + 4)
	require.NoError(t, err)
	assert.Equal(t, uint32(40), read)
	assert.Equal(t, uint32(40), write)

	// the reader's Load sees the writer's index without touching its own
	require.NoError(t, writer.Load(mem, hdr))
	writer.WriteUpdate(45)
	require.NoError(t, writer.StoreWrite(mem, hdr))
	require.NoError(t, reader.Load(mem, hdr))
	assert.Equal(t, int32(5), reader.Filled())

	small := make(podruntime.SliceMemory, 6)
	assert.ErrorIs(t, reader.Load(small, 0), errors.ErrOutOfRange)
	assert.ErrorIs(t, writer.StoreWrite(small, 0), errors.ErrOutOfRange)
	assert.ErrorIs(t, reader.StoreRead(small, 8), errors.ErrOutOfRange)
}
