package pod

import (
	"encoding/binary"
	"math"
	"slices"
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/pod-runtime/errors"
	"github.com/wippyai/pod-runtime/pod/internal/layout"
)

// BuilderOptions configures a Builder.
type BuilderOptions struct {
	// OnOverflow is called with the total number of bytes needed when a write
	// does not fit. It may return a larger buffer; the builder copies what it
	// has written so far and continues in the new buffer. Returning nil or a
	// buffer that is still too small keeps the write in overflow. The callback
	// is not consulted once any write has been lost, until Init or a Reset to
	// a state taken before the loss.
	OnOverflow func(needed uint32) []byte
}

// BuilderOption mutates BuilderOptions.
type BuilderOption func(*BuilderOptions)

// WithOverflow installs an overflow callback.
func WithOverflow(fn func(needed uint32) []byte) BuilderOption {
	return func(o *BuilderOptions) {
		o.OnOverflow = fn
	}
}

// Builder writes pods into a caller-provided buffer.
//
// Writes that do not fit return an Overflow error but still advance the
// offset and the sizes of all open frames, so building into an empty buffer
// measures the exact size a real build needs.
type Builder struct {
	data   []byte
	opts   BuilderOptions
	frames frameStack
	offset uint32
	flags  uint32
	lost   bool
	// offsets of headerless array and choice elements, ascending
	elems  []uint32
}

// BuilderState is a snapshot of a Builder's position taken with State.
type BuilderState struct {
	frames frameStack
	offset uint32
	flags  uint32
	lost   bool
}

// Offset is the builder offset at the time of the snapshot.
func (s BuilderState) Offset() uint32 { return s.offset }

// NewBuilder returns a builder writing into buf. An empty buf makes a
// measuring builder.
func NewBuilder(buf []byte, opts ...BuilderOption) *Builder {
	b := &Builder{}
	for _, opt := range opts {
		opt(&b.opts)
	}
	b.Init(buf)
	return b
}

// Init discards all state and starts writing at the beginning of buf.
func (b *Builder) Init(buf []byte) {
	b.data = buf
	b.frames = b.frames[:0]
	b.offset = 0
	b.flags = 0
	b.lost = false
	b.elems = b.elems[:0]
}

// Measuring reports whether the builder has no storage and only counts bytes.
func (b *Builder) Measuring() bool { return len(b.data) == 0 }

// Offset is the number of bytes written or, after overflow, needed so far.
func (b *Builder) Offset() uint32 { return b.offset }

// Depth is the number of open frames.
func (b *Builder) Depth() int { return len(b.frames) }

// Overflowed reports whether any write since Init did not fit.
func (b *Builder) Overflowed() bool { return b.lost }

// Bytes returns the written prefix of the buffer.
func (b *Builder) Bytes() []byte {
	if uint64(b.offset) > uint64(len(b.data)) {
		return b.data
	}
	return b.data[:b.offset]
}

// reserve advances the offset by n and returns the window to write into. The
// window is nil when the bytes do not fit.
func (b *Builder) reserve(n uint32) ([]byte, uint32, error) {
	at := b.offset
	end, ok := layout.SafeAddU32(at, n)
	if !ok {
		return nil, at, errors.New(errors.PhaseBuild, errors.KindOverflow).
			At(at).
			Detail("write of %d bytes overflows the offset", n).
			Build()
	}
	b.offset = end
	for i := range b.frames {
		b.frames[i].size += n
	}

	if uint64(end) > uint64(len(b.data)) {
		if b.opts.OnOverflow != nil && !b.lost {
			if nb := b.opts.OnOverflow(end); uint64(len(nb)) >= uint64(end) {
				copy(nb, b.data[:at])
				b.data = nb
			}
		}
		if uint64(end) > uint64(len(b.data)) {
			if !b.lost && !b.Measuring() {
				Logger().Debug("pod builder overflow",
					zap.Uint32("offset", at),
					zap.Uint32("needed", end),
					zap.Int("capacity", len(b.data)))
			}
			b.lost = true
			return nil, at, errors.Overflow(errors.PhaseBuild, at, end, uint32(len(b.data)))
		}
	}
	return b.data[at:end:end], at, nil
}

func putHeader(w []byte, size uint32, typ Type) {
	binary.LittleEndian.PutUint32(w[0:], size)
	binary.LittleEndian.PutUint32(w[4:], uint32(typ))
}

// value reserves one value of typ with a body of size bytes, honouring array
// body mode, and returns the body window and the value offset.
func (b *Builder) value(typ Type, size uint32) ([]byte, uint32, error) {
	if b.flags&flagBody != 0 {
		top := b.frames.top()
		if b.flags&flagFirst == 0 {
			if typ != top.childType || size != top.childSize {
				return nil, b.offset, errors.New(errors.PhaseBuild, errors.KindTypeMismatch).
					At(b.offset).
					Want(top.childType.String() + "/" + strconv.FormatUint(uint64(top.childSize), 10)).
					Got(typ.String() + "/" + strconv.FormatUint(uint64(size), 10)).
					Detail("element does not match the %s child", top.typ).
					Build()
			}
			w, at, err := b.reserve(size)
			b.elems = append(b.elems, at)
			return w, at, err
		}
		if size > math.MaxUint32-HeaderSize {
			return nil, b.offset, errors.Overflow(errors.PhaseBuild, b.offset, math.MaxUint32, uint32(len(b.data)))
		}
		b.flags &^= flagFirst
		top.childType, top.childSize = typ, size
		w, at, err := b.reserve(HeaderSize + size)
		if err != nil {
			return nil, at, err
		}
		putHeader(w, size, typ)
		return w[HeaderSize:], at, nil
	}

	fp := layout.Footprint(size)
	if fp > math.MaxUint32 {
		return nil, b.offset, errors.Overflow(errors.PhaseBuild, b.offset, math.MaxUint32, uint32(len(b.data)))
	}
	w, at, err := b.reserve(uint32(fp))
	if err != nil {
		return nil, at, err
	}
	putHeader(w, size, typ)
	clear(w[HeaderSize+size:])
	return w[HeaderSize : HeaderSize+size], at, nil
}

func (b *Builder) PushNone() (uint32, error) {
	_, at, err := b.value(TypeNone, 0)
	return at, err
}

func (b *Builder) PushBool(v bool) (uint32, error) {
	var n uint32
	if v {
		n = 1
	}
	return b.push32(TypeBool, n)
}

func (b *Builder) PushID(v uint32) (uint32, error) {
	return b.push32(TypeID, v)
}

func (b *Builder) PushInt(v int32) (uint32, error) {
	return b.push32(TypeInt, uint32(v))
}

func (b *Builder) PushLong(v int64) (uint32, error) {
	return b.push64(TypeLong, uint64(v))
}

func (b *Builder) PushFloat(v float32) (uint32, error) {
	return b.push32(TypeFloat, math.Float32bits(v))
}

func (b *Builder) PushDouble(v float64) (uint32, error) {
	return b.push64(TypeDouble, math.Float64bits(v))
}

func (b *Builder) PushFd(v int64) (uint32, error) {
	return b.push64(TypeFd, uint64(v))
}

func (b *Builder) push32(typ Type, v uint32) (uint32, error) {
	w, at, err := b.value(typ, 4)
	if err != nil {
		return at, err
	}
	binary.LittleEndian.PutUint32(w, v)
	return at, nil
}

func (b *Builder) push64(typ Type, v uint64) (uint32, error) {
	w, at, err := b.value(typ, 8)
	if err != nil {
		return at, err
	}
	binary.LittleEndian.PutUint64(w, v)
	return at, nil
}

// PushString writes s followed by a NUL terminator.
func (b *Builder) PushString(s string) (uint32, error) {
	if uint64(len(s)) >= math.MaxUint32 {
		return b.offset, errors.InvalidInput(errors.PhaseBuild, "string too long")
	}
	w, at, err := b.value(TypeString, uint32(len(s))+1)
	if err != nil {
		return at, err
	}
	n := copy(w, s)
	w[n] = 0
	return at, nil
}

// PushStringBytes writes a string pod from raw bytes, appending the NUL
// terminator.
func (b *Builder) PushStringBytes(p []byte) (uint32, error) {
	if uint64(len(p)) >= math.MaxUint32 {
		return b.offset, errors.InvalidInput(errors.PhaseBuild, "string too long")
	}
	w, at, err := b.value(TypeString, uint32(len(p))+1)
	if err != nil {
		return at, err
	}
	n := copy(w, p)
	w[n] = 0
	return at, nil
}

func (b *Builder) PushBytes(p []byte) (uint32, error) {
	if uint64(len(p)) > math.MaxUint32 {
		return b.offset, errors.InvalidInput(errors.PhaseBuild, "bytes too long")
	}
	w, at, err := b.value(TypeBytes, uint32(len(p)))
	if err != nil {
		return at, err
	}
	copy(w, p)
	return at, nil
}

// ReserveBytes writes a zeroed Bytes pod of n bytes and returns its body for
// the caller to fill in. The window is nil when the pod did not fit.
func (b *Builder) ReserveBytes(n uint32) ([]byte, uint32, error) {
	w, at, err := b.value(TypeBytes, n)
	if err != nil {
		return nil, at, err
	}
	clear(w)
	return w, at, nil
}

// PushPointer stores an opaque address tagged with the pointee type. The
// address is never dereferenced.
func (b *Builder) PushPointer(typ uint32, addr uintptr) (uint32, error) {
	w, at, err := b.value(TypePointer, pointerBodySize)
	if err != nil {
		return at, err
	}
	binary.LittleEndian.PutUint32(w[0:], typ)
	binary.LittleEndian.PutUint32(w[4:], 0)
	binary.LittleEndian.PutUint64(w[8:], uint64(addr))
	return at, nil
}

func (b *Builder) PushRectangle(r Rectangle) (uint32, error) {
	w, at, err := b.value(TypeRectangle, 8)
	if err != nil {
		return at, err
	}
	binary.LittleEndian.PutUint32(w[0:], r.Width)
	binary.LittleEndian.PutUint32(w[4:], r.Height)
	return at, nil
}

func (b *Builder) PushFraction(f Fraction) (uint32, error) {
	w, at, err := b.value(TypeFraction, 8)
	if err != nil {
		return at, err
	}
	binary.LittleEndian.PutUint32(w[0:], f.Num)
	binary.LittleEndian.PutUint32(w[4:], f.Denom)
	return at, nil
}

func (b *Builder) PushBitmap(p []byte) (uint32, error) {
	if len(p) == 0 {
		return b.offset, errors.InvalidInput(errors.PhaseBuild, "empty bitmap")
	}
	if uint64(len(p)) > math.MaxUint32 {
		return b.offset, errors.InvalidInput(errors.PhaseBuild, "bitmap too long")
	}
	w, at, err := b.value(TypeBitmap, uint32(len(p)))
	if err != nil {
		return at, err
	}
	copy(w, p)
	return at, nil
}

// Primitive copies an existing pod. Inside an Array or Choice only its body
// is written once the child header is established.
func (b *Builder) Primitive(p Pod) (uint32, error) {
	if !p.IsValid() {
		return b.offset, errors.InvalidInput(errors.PhaseBuild, "invalid pod")
	}
	w, at, err := b.value(p.Type(), p.Size())
	if err != nil {
		return at, err
	}
	copy(w, p.Body())
	return at, nil
}

// Array writes a complete Array pod from element bodies of childSize bytes.
func (b *Builder) Array(childSize uint32, childType Type, elems [][]byte) (uint32, error) {
	total := uint64(arrayBodySize) + uint64(childSize)*uint64(len(elems))
	if total > math.MaxUint32-HeaderSize {
		return b.offset, errors.InvalidInput(errors.PhaseBuild, "array too large")
	}
	for i, e := range elems {
		if uint32(len(e)) != childSize {
			return b.offset, errors.New(errors.PhaseBuild, errors.KindInvalidInput).
				Path("array", strconv.Itoa(i)).
				Detail("element of %d bytes, child size %d", len(e), childSize).
				Build()
		}
	}
	w, at, err := b.value(TypeArray, uint32(total))
	if err != nil {
		return at, err
	}
	binary.LittleEndian.PutUint32(w[0:], childSize)
	binary.LittleEndian.PutUint32(w[4:], uint32(childType))
	off := uint32(arrayBodySize)
	for _, e := range elems {
		copy(w[off:], e)
		off += childSize
	}
	return at, nil
}

func (b *Builder) IntArray(vals []int32) (uint32, error) {
	elems := make([][]byte, len(vals))
	for i, v := range vals {
		elems[i] = binary.LittleEndian.AppendUint32(nil, uint32(v))
	}
	return b.Array(4, TypeInt, elems)
}

func (b *Builder) IDArray(vals []uint32) (uint32, error) {
	elems := make([][]byte, len(vals))
	for i, v := range vals {
		elems[i] = binary.LittleEndian.AppendUint32(nil, v)
	}
	return b.Array(4, TypeID, elems)
}

func (b *Builder) LongArray(vals []int64) (uint32, error) {
	elems := make([][]byte, len(vals))
	for i, v := range vals {
		elems[i] = binary.LittleEndian.AppendUint64(nil, uint64(v))
	}
	return b.Array(8, TypeLong, elems)
}

// Child writes a bare child header inside an Array or Choice whose child has
// not been established yet, for callers that then append element bodies with
// Raw.
func (b *Builder) Child(size uint32, typ Type) error {
	if b.flags&(flagBody|flagFirst) != flagBody|flagFirst {
		return errors.InvalidState(errors.PhaseBuild, "child header outside an empty array or choice")
	}
	b.flags &^= flagFirst
	top := b.frames.top()
	top.childType, top.childSize = typ, size
	w, _, err := b.reserve(HeaderSize)
	if err != nil {
		return err
	}
	putHeader(w, size, typ)
	return nil
}

// Raw appends p without any header or padding.
func (b *Builder) Raw(p []byte) (uint32, error) {
	if uint64(len(p)) > math.MaxUint32 {
		return b.offset, errors.InvalidInput(errors.PhaseBuild, "raw write too long")
	}
	w, at, err := b.reserve(uint32(len(p)))
	if err != nil {
		return at, err
	}
	copy(w, p)
	return at, nil
}

// RawPadded appends p followed by zero bytes up to the next 8-byte boundary
// of its length.
func (b *Builder) RawPadded(p []byte) (uint32, error) {
	at, err := b.Raw(p)
	if perr := b.Pad(uint32(len(p))); err == nil {
		err = perr
	}
	return at, err
}

// Pad writes the zero bytes that bring a run of size bytes to alignment.
func (b *Builder) Pad(size uint32) error {
	n := layout.Padding(size)
	if n == 0 {
		return nil
	}
	w, _, err := b.reserve(n)
	if err != nil {
		return err
	}
	clear(w)
	return nil
}

// open pushes a frame for the composite whose header was just reserved at at.
func (b *Builder) open(typ Type, at, size uint32) Frame {
	b.frames = append(b.frames, frame{
		offset:      at,
		size:        size,
		typ:         typ,
		parentFlags: b.flags,
	})
	return b.frames.handle()
}

func (b *Builder) checkComposite(typ Type) error {
	if b.flags&flagBody != 0 {
		return errors.New(errors.PhaseBuild, errors.KindInvalidState).
			At(b.offset).
			Detail("%s inside %s body", typ, b.frames.top().typ).
			Build()
	}
	return nil
}

// Push opens a frame for a composite of typ whose header, and any fixed body
// prefix, were already written at offset, for example with Raw. Array and
// Choice frames start in element mode, so only their fixed prefix (none for
// Array, choice type and flags for Choice) may precede the Push.
func (b *Builder) Push(typ Type, offset uint32) (Frame, error) {
	if !typ.IsComposite() {
		return Frame{}, errors.New(errors.PhaseBuild, errors.KindInvalidInput).
			At(offset).
			Detail("%s is not a composite", typ).
			Build()
	}
	if err := b.checkComposite(typ); err != nil {
		return Frame{}, err
	}
	if uint64(offset)+HeaderSize > uint64(b.offset) {
		return Frame{}, errors.New(errors.PhaseBuild, errors.KindInvalidInput).
			At(offset).
			Detail("header at %d not written yet (offset %d)", offset, b.offset).
			Build()
	}
	f := b.open(typ, offset, b.offset-offset-HeaderSize)
	b.flags = 0
	if typ == TypeArray || typ == TypeChoice {
		b.flags = flagBody | flagFirst
	}
	return f, nil
}

// PushStruct opens a Struct. Fields are written until the frame is popped.
func (b *Builder) PushStruct() (Frame, error) {
	if err := b.checkComposite(TypeStruct); err != nil {
		return Frame{}, err
	}
	w, at, err := b.reserve(HeaderSize)
	if w != nil {
		putHeader(w, 0, TypeStruct)
	}
	f := b.open(TypeStruct, at, 0)
	b.flags = 0
	return f, err
}

// PushObject opens an Object of objType with the given id. Properties are
// added with Prop followed by one value each.
func (b *Builder) PushObject(objType, id uint32) (Frame, error) {
	if err := b.checkComposite(TypeObject); err != nil {
		return Frame{}, err
	}
	w, at, err := b.reserve(HeaderSize + objectBodySize)
	if w != nil {
		putHeader(w, objectBodySize, TypeObject)
		binary.LittleEndian.PutUint32(w[8:], objType)
		binary.LittleEndian.PutUint32(w[12:], id)
	}
	f := b.open(TypeObject, at, objectBodySize)
	b.flags = 0
	return f, err
}

// PushSequence opens a Sequence with the given time unit.
func (b *Builder) PushSequence(unit uint32) (Frame, error) {
	if err := b.checkComposite(TypeSequence); err != nil {
		return Frame{}, err
	}
	w, at, err := b.reserve(HeaderSize + sequenceBodySize)
	if w != nil {
		putHeader(w, sequenceBodySize, TypeSequence)
		binary.LittleEndian.PutUint32(w[8:], unit)
		binary.LittleEndian.PutUint32(w[12:], 0)
	}
	f := b.open(TypeSequence, at, sequenceBodySize)
	b.flags = 0
	return f, err
}

// PushArray opens an Array. The first value written establishes the child
// type and size; every later value must match it.
func (b *Builder) PushArray() (Frame, error) {
	if err := b.checkComposite(TypeArray); err != nil {
		return Frame{}, err
	}
	w, at, err := b.reserve(HeaderSize)
	if w != nil {
		putHeader(w, 0, TypeArray)
	}
	f := b.open(TypeArray, at, 0)
	b.flags = flagBody | flagFirst
	return f, err
}

// PushChoice opens a Choice. Values are written like Array elements; the
// first is the default.
func (b *Builder) PushChoice(ctype ChoiceType, flags uint32) (Frame, error) {
	if err := b.checkComposite(TypeChoice); err != nil {
		return Frame{}, err
	}
	w, at, err := b.reserve(HeaderSize + 8)
	if w != nil {
		putHeader(w, 8, TypeChoice)
		binary.LittleEndian.PutUint32(w[8:], uint32(ctype))
		binary.LittleEndian.PutUint32(w[12:], flags)
	}
	f := b.open(TypeChoice, at, 8)
	b.flags = flagBody | flagFirst
	return f, err
}

// Prop writes a property key inside the open Object. The next value written
// is the property value.
func (b *Builder) Prop(key, flags uint32) error {
	if top := b.frames.top(); top == nil || top.typ != TypeObject {
		return errors.InvalidState(errors.PhaseBuild, "prop outside object")
	}
	return b.entry(key, flags)
}

// Control writes a control header inside the open Sequence. The next value
// written is the control value.
func (b *Builder) Control(offset, typ uint32) error {
	if top := b.frames.top(); top == nil || top.typ != TypeSequence {
		return errors.InvalidState(errors.PhaseBuild, "control outside sequence")
	}
	return b.entry(offset, typ)
}

func (b *Builder) entry(a, c uint32) error {
	w, _, err := b.reserve(entryHeaderSize)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(w[0:], a)
	binary.LittleEndian.PutUint32(w[4:], c)
	return nil
}

// Pop closes f, which must be the innermost open frame. The header size is
// back-patched and the offset is padded to the next 8-byte boundary.
func (b *Builder) Pop(f Frame) error {
	if err := b.frames.check(f, errors.PhaseBuild); err != nil {
		Logger().Debug("pod builder frame mismatch",
			zap.Uint32("frame", f.offset),
			zap.Int("depth", len(b.frames)))
		return err
	}

	var werr error
	if b.flags&flagFirst != 0 {
		// empty array or choice still needs a child header
		w, _, err := b.reserve(HeaderSize)
		if w != nil {
			putHeader(w, 0, TypeNone)
		}
		werr = err
	}

	top := b.frames.top()
	if layout.Fits(top.offset, 4, uint64(len(b.data))) {
		binary.LittleEndian.PutUint32(b.data[top.offset:], top.size)
	}
	b.flags = top.parentFlags
	b.frames = b.frames[:len(b.frames)-1]

	if n := layout.Padding(b.offset); n > 0 {
		w, _, err := b.reserve(n)
		if w != nil {
			clear(w)
		}
		if werr == nil {
			werr = err
		}
	}
	return werr
}

// State snapshots the builder position and open frames.
func (b *Builder) State() BuilderState {
	return BuilderState{
		frames: b.frames.clone(),
		offset: b.offset,
		flags:  b.flags,
		lost:   b.lost,
	}
}

// Reset rewinds the builder to a state taken with State. Bytes written after
// the snapshot are left in the buffer and will be overwritten. Overflows
// after the snapshot are forgotten, so the overflow callback is consulted
// again.
func (b *Builder) Reset(s BuilderState) {
	Logger().Debug("pod builder reset",
		zap.Uint32("from", b.offset),
		zap.Uint32("to", s.offset))
	b.offset = s.offset
	b.flags = s.flags
	b.lost = s.lost
	b.frames = append(b.frames[:0], s.frames...)
	i, _ := slices.BinarySearch(b.elems, s.offset)
	b.elems = b.elems[:i]
	for i := range b.frames {
		b.frames[i].size = s.offset - b.frames[i].offset - HeaderSize
	}
}

// limit is the end of the bytes actually present in the buffer.
func (b *Builder) limit() uint64 {
	return min(uint64(b.offset), uint64(len(b.data)))
}

// Deref returns the pod written at offset. Offsets of array and choice
// elements after the first have no header and are rejected.
func (b *Builder) Deref(offset uint32) (Pod, error) {
	limit := b.limit()
	if _, ok := slices.BinarySearch(b.elems, offset); ok {
		return Pod{}, errors.New(errors.PhaseBuild, errors.KindOutOfRange).
			At(offset).
			Value(offset).
			Detail("offset %d is a headerless element body", offset).
			Build()
	}
	p, err := podAt(b.data, offset, limit, errors.PhaseBuild)
	if err != nil {
		return Pod{}, errors.New(errors.PhaseBuild, errors.KindOutOfRange).
			At(offset).
			Value(offset).
			Detail("no pod within written range (limit %d)", limit).
			Cause(err).
			Build()
	}
	return p, nil
}

// Frame returns a view of the still-open composite f with its current size.
func (b *Builder) Frame(f Frame) (Pod, error) {
	if f.depth < 1 || f.depth > len(b.frames) {
		return Pod{}, errors.FrameMismatch(errors.PhaseBuild, f.offset, 0, len(b.frames))
	}
	fr := b.frames[f.depth-1]
	if fr.offset != f.offset || fr.typ != f.typ {
		return Pod{}, errors.FrameMismatch(errors.PhaseBuild, f.offset, fr.offset, f.depth)
	}
	end := uint64(fr.offset) + HeaderSize + uint64(fr.size)
	if end > b.limit() {
		return Pod{}, errors.OutOfRange(errors.PhaseBuild, fr.offset, uint32(b.limit()))
	}
	return Pod{
		typ:  fr.typ,
		body: b.data[fr.offset+HeaderSize : end : end],
	}, nil
}
