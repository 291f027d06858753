package wasmmem

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"

	"github.com/wippyai/pod-runtime/errors"
	"github.com/wippyai/pod-runtime/pod"
	"github.com/wippyai/pod-runtime/ringbuffer"
)

func newMemory(t *testing.T, pages uint32) *Memory {
	t.Helper()
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	t.Cleanup(func() { rt.Close(ctx) })

	_, mem, err := Instantiate(ctx, rt, "shared", pages)
	require.NoError(t, err)
	return mem
}

func TestModuleBinary(t *testing.T) {
	assert.Equal(t, []byte{
		0x00, 'a', 's', 'm', 0x01, 0x00, 0x00, 0x00,
		0x05, 0x03, 0x01, 0x00, 0x01,
		0x07, 0x07, 0x01, 0x03, 'm', 'e', 'm', 0x02, 0x00,
	}, moduleBinary(1))

	// 200 pages needs a two-byte LEB128
	bin := moduleBinary(200)
	assert.Equal(t, []byte{0x05, 0x04, 0x01, 0x00, 0xc8, 0x01}, bin[8:14])
}

func TestMemory_ReadWrite(t *testing.T) {
	mem := newMemory(t, 1)
	assert.Equal(t, uint32(PageSize), mem.Size())

	require.NoError(t, mem.WriteU32(4, 0xdeadbeef))
	require.NoError(t, mem.Write(16, []byte("pod")))

	u32, err := mem.ReadU32(4)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xdeadbeef), u32)
	le, err := mem.Read(4, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xef, 0xbe, 0xad, 0xde}, le)
	data, err := mem.Read(16, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte("pod"), data)
}

func TestMemory_OutOfBounds(t *testing.T) {
	mem := newMemory(t, 1)
	end := uint32(PageSize)

	_, err := mem.Read(end-2, 4)
	assert.ErrorIs(t, err, errors.ErrOutOfRange)
	assert.ErrorIs(t, mem.Write(end, []byte{1}), errors.ErrOutOfRange)
	_, err = mem.ReadU32(end - 2)
	assert.ErrorIs(t, err, errors.ErrOutOfRange)
	assert.ErrorIs(t, mem.WriteU32(end-1, 0), errors.ErrOutOfRange)
}

func TestMemory_Grow(t *testing.T) {
	mem := newMemory(t, 1)
	prev, err := mem.Grow(2)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), prev)
	assert.Equal(t, uint32(3*PageSize), mem.Size())
	require.NoError(t, mem.WriteU32(3*PageSize-4, 1))
}

func TestPodInGuestMemory(t *testing.T) {
	mem := newMemory(t, 1)
	const base = 1024

	window, err := mem.Read(base, 256)
	require.NoError(t, err)
	b := pod.NewBuilder(window)
	f, err := b.PushObject(1, 2)
	require.NoError(t, err)
	require.NoError(t, b.Prop(3, 0))
	_, err = b.PushString("guest")
	require.NoError(t, err)
	require.NoError(t, b.Pop(f))
	size := b.Offset()

	raw, err := mem.Read(base, size)
	require.NoError(t, err)
	p, err := pod.FromBytes(raw)
	require.NoError(t, err)
	obj, err := p.AsObject()
	require.NoError(t, err)
	prop, ok := obj.FindProp(3)
	require.True(t, ok)
	s, err := prop.Value.AsString()
	require.NoError(t, err)
	assert.Equal(t, "guest", s)
}

func TestRingInGuestMemory(t *testing.T) {
	mem := newMemory(t, 1)
	const base = 4096
	rb, err := ringbuffer.New(16)
	require.NoError(t, err)

	msg := []byte("abcdefghijklmnopqrst")
	var got []byte
	for _, n := range []int{12, 8} {
		w, _ := rb.WriteIndex()
		require.NoError(t, rb.WriteMemory(mem, base, w, msg[len(got):len(got)+n]))
		rb.WriteUpdate(w + uint32(n))

		r, avail := rb.ReadIndex()
		dst := make([]byte, avail)
		require.NoError(t, rb.ReadMemory(mem, base, r, dst))
		rb.ReadUpdate(r + uint32(avail))
		got = append(got, dst...)
	}
	assert.Equal(t, msg, got)

	wrapped, err := mem.Read(base, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte("qrst"), wrapped)
}

func TestInstantiateTooLarge(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	_, _, err := Instantiate(ctx, rt, "huge", 70000)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}
