package pod

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/pod-runtime/errors"
)

func mustPod(t *testing.T, fn func(b *Builder)) Pod {
	t.Helper()
	p, err := FromBytes(build(t, fn))
	require.NoError(t, err)
	return p
}

func TestFromBytes(t *testing.T) {
	t.Run("padding optional", func(t *testing.T) {
		buf := build(t, func(b *Builder) { b.PushString("abc") })
		p, err := FromBytes(buf[:12])
		require.NoError(t, err)
		s, err := p.AsString()
		require.NoError(t, err)
		assert.Equal(t, "abc", s)
		assert.Equal(t, uint32(16), p.Footprint())
	})

	t.Run("short header", func(t *testing.T) {
		_, err := FromBytes([]byte{1, 2, 3})
		assert.ErrorIs(t, err, errors.ErrEndOfData)
	})

	t.Run("body past end", func(t *testing.T) {
		data := make([]byte, 12)
		binary.LittleEndian.PutUint32(data, 8)
		binary.LittleEndian.PutUint32(data[4:], uint32(TypeLong))
		_, err := FromBytes(data)
		assert.ErrorIs(t, err, errors.ErrInvalidData)
	})
}

func TestPod_Predicates(t *testing.T) {
	pods := map[Type]Pod{
		TypeNone:      mustPod(t, func(b *Builder) { b.PushNone() }),
		TypeBool:      mustPod(t, func(b *Builder) { b.PushBool(false) }),
		TypeID:        mustPod(t, func(b *Builder) { b.PushID(1) }),
		TypeInt:       mustPod(t, func(b *Builder) { b.PushInt(1) }),
		TypeLong:      mustPod(t, func(b *Builder) { b.PushLong(1) }),
		TypeFloat:     mustPod(t, func(b *Builder) { b.PushFloat(1) }),
		TypeDouble:    mustPod(t, func(b *Builder) { b.PushDouble(1) }),
		TypeString:    mustPod(t, func(b *Builder) { b.PushString("") }),
		TypeBytes:     mustPod(t, func(b *Builder) { b.PushBytes(nil) }),
		TypeRectangle: mustPod(t, func(b *Builder) { b.PushRectangle(Rectangle{}) }),
		TypeFraction:  mustPod(t, func(b *Builder) { b.PushFraction(Fraction{}) }),
		TypeBitmap:    mustPod(t, func(b *Builder) { b.PushBitmap([]byte{1}) }),
		TypePointer:   mustPod(t, func(b *Builder) { b.PushPointer(0, 0) }),
		TypeFd:        mustPod(t, func(b *Builder) { b.PushFd(0) }),
		TypeArray:     mustPod(t, func(b *Builder) { b.IntArray(nil) }),
		TypeStruct: mustPod(t, func(b *Builder) {
			f, _ := b.PushStruct()
			b.Pop(f)
		}),
		TypeObject: mustPod(t, func(b *Builder) {
			f, _ := b.PushObject(0, 0)
			b.Pop(f)
		}),
		TypeSequence: mustPod(t, func(b *Builder) {
			f, _ := b.PushSequence(0)
			b.Pop(f)
		}),
		TypeChoice: mustPod(t, func(b *Builder) {
			f, _ := b.PushChoice(ChoiceNone, 0)
			b.PushInt(0)
			b.Pop(f)
		}),
	}

	preds := map[Type]func(Pod) bool{
		TypeNone:      Pod.IsNone,
		TypeBool:      Pod.IsBool,
		TypeID:        Pod.IsID,
		TypeInt:       Pod.IsInt,
		TypeLong:      Pod.IsLong,
		TypeFloat:     Pod.IsFloat,
		TypeDouble:    Pod.IsDouble,
		TypeString:    Pod.IsString,
		TypeBytes:     Pod.IsBytes,
		TypeRectangle: Pod.IsRectangle,
		TypeFraction:  Pod.IsFraction,
		TypeBitmap:    Pod.IsBitmap,
		TypePointer:   Pod.IsPointer,
		TypeFd:        Pod.IsFd,
		TypeArray:     Pod.IsArray,
		TypeStruct:    Pod.IsStruct,
		TypeObject:    Pod.IsObject,
		TypeSequence:  Pod.IsSequence,
		TypeChoice:    Pod.IsChoice,
	}

	for typ, pred := range preds {
		t.Run(typ.String(), func(t *testing.T) {
			for other, p := range pods {
				assert.Equal(t, typ == other, pred(p), "%s predicate on %s pod", typ, other)
			}
		})
	}
}

func TestPod_GettersCheckOwnKind(t *testing.T) {
	id := mustPod(t, func(b *Builder) { b.PushID(7) })

	_, err := id.AsInt()
	assert.ErrorIs(t, err, errors.ErrTypeMismatch)
	_, err = id.AsBool()
	assert.ErrorIs(t, err, errors.ErrTypeMismatch)
	_, err = id.AsFloat()
	assert.ErrorIs(t, err, errors.ErrTypeMismatch)
	v, err := id.AsID()
	require.NoError(t, err)
	assert.Equal(t, uint32(7), v)

	long := mustPod(t, func(b *Builder) { b.PushLong(7) })
	_, err = long.AsFd()
	assert.ErrorIs(t, err, errors.ErrTypeMismatch)
	_, err = long.AsDouble()
	assert.ErrorIs(t, err, errors.ErrTypeMismatch)
}

func TestPod_ShortBody(t *testing.T) {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint32(data, 0)
	binary.LittleEndian.PutUint32(data[4:], uint32(TypeInt))
	p, err := FromBytes(data)
	require.NoError(t, err)

	assert.False(t, p.IsInt())
	_, err = p.AsInt()
	assert.ErrorIs(t, err, errors.ErrInvalidData)
}

func TestPod_StringWithoutNul(t *testing.T) {
	data := make([]byte, 16)
	binary.LittleEndian.PutUint32(data, 3)
	binary.LittleEndian.PutUint32(data[4:], uint32(TypeString))
	copy(data[8:], "abc")
	p, err := FromBytes(data)
	require.NoError(t, err)

	assert.False(t, p.IsString())
	_, err = p.AsString()
	assert.ErrorIs(t, err, errors.ErrInvalidData)
}

func TestPod_Copy(t *testing.T) {
	buf := build(t, func(b *Builder) { b.PushInt(5) })
	p, err := FromBytes(buf)
	require.NoError(t, err)
	c := p.Copy()

	binary.LittleEndian.PutUint32(buf[8:], 6)
	v, err := p.AsInt()
	require.NoError(t, err)
	assert.Equal(t, int32(6), v)
	v, err = c.AsInt()
	require.NoError(t, err)
	assert.Equal(t, int32(5), v)

	assert.False(t, Pod{}.Copy().IsValid())
}

func TestPod_ArrayElementBytes(t *testing.T) {
	p := mustPod(t, func(b *Builder) { b.IntArray([]int32{3, 4}) })
	a, err := p.AsArray()
	require.NoError(t, err)
	require.Len(t, a.Elems, 2)

	elem := a.Elems[1]
	assert.Equal(t, []byte{4, 0, 0, 0, 4, 0, 0, 0, 4, 0, 0, 0}, elem.Bytes())
	standalone, err := FromBytes(elem.Bytes())
	require.NoError(t, err)
	v, err := standalone.AsInt()
	require.NoError(t, err)
	assert.Equal(t, int32(4), v)
}

func TestPod_MalformedArray(t *testing.T) {
	data := make([]byte, 24)
	binary.LittleEndian.PutUint32(data, 14)
	binary.LittleEndian.PutUint32(data[4:], uint32(TypeArray))
	binary.LittleEndian.PutUint32(data[8:], 4)
	binary.LittleEndian.PutUint32(data[12:], uint32(TypeInt))
	p, err := FromBytes(data)
	require.NoError(t, err)

	_, err = p.AsArray()
	assert.ErrorIs(t, err, errors.ErrInvalidData)
}

func TestPod_MalformedStruct(t *testing.T) {
	// struct body claims a child larger than the struct itself
	data := make([]byte, 24)
	binary.LittleEndian.PutUint32(data, 16)
	binary.LittleEndian.PutUint32(data[4:], uint32(TypeStruct))
	binary.LittleEndian.PutUint32(data[8:], 64)
	binary.LittleEndian.PutUint32(data[12:], uint32(TypeBytes))
	p, err := FromBytes(data)
	require.NoError(t, err)

	_, err = p.AsStruct()
	assert.ErrorIs(t, err, errors.ErrInvalidData)
}

func TestPod_ForEachStopsOnError(t *testing.T) {
	p := mustPod(t, func(b *Builder) {
		f, _ := b.PushObject(1, 1)
		for k := uint32(1); k <= 3; k++ {
			b.Prop(k, 0)
			b.PushInt(int32(k))
		}
		b.Pop(f)
	})

	stop := errors.InvalidInput(errors.PhaseParse, "stop")
	var seen []uint32
	err := p.ForEachProp(func(prop Prop) error {
		seen = append(seen, prop.Key)
		if prop.Key == 2 {
			return stop
		}
		return nil
	})
	assert.Same(t, stop, err)
	assert.Equal(t, []uint32{1, 2}, seen)

	err = p.ForEachControl(func(Control) error { return nil })
	assert.ErrorIs(t, err, errors.ErrTypeMismatch)
}

func TestIsInside(t *testing.T) {
	buf := build(t, func(b *Builder) {
		b.PushInt(1)
		b.PushLong(2)
	})
	assert.True(t, IsInside(buf, 0))
	assert.True(t, IsInside(buf, 16))
	assert.False(t, IsInside(buf, 24))
	assert.False(t, IsInside(buf[:20], 16))
}

func TestType_String(t *testing.T) {
	assert.Equal(t, "Object", TypeObject.String())
	assert.Equal(t, "Id", TypeID.String())
	assert.Equal(t, "Type(99)", Type(99).String())
	assert.Equal(t, "Type(0)", Type(0).String())
	assert.True(t, TypeChoice.IsComposite())
	assert.False(t, TypeBytes.IsComposite())
}

func TestChoiceTypeFromID(t *testing.T) {
	tests := []struct {
		id   byte
		want ChoiceType
		ok   bool
	}{
		{'n', ChoiceNone, true},
		{'r', ChoiceRange, true},
		{'s', ChoiceStep, true},
		{'e', ChoiceEnum, true},
		{'f', ChoiceFlags, true},
		{'x', 0, false},
	}
	for _, tt := range tests {
		got, ok := ChoiceTypeFromID(tt.id)
		assert.Equal(t, tt.ok, ok, string(tt.id))
		assert.Equal(t, tt.want, got, string(tt.id))
	}
	assert.Equal(t, "Step", ChoiceStep.String())
}
