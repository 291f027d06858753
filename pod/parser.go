package pod

import (
	"encoding/binary"
	"math"

	"go.uber.org/zap"

	"github.com/wippyai/pod-runtime/errors"
	"github.com/wippyai/pod-runtime/pod/internal/layout"
)

// Parser walks pods in a byte buffer. Composites are entered with the Push*
// methods, which bound reads to the composite body until the matching Pop.
type Parser struct {
	data   []byte
	frames frameStack
	offset uint32
	flags  uint32
}

// ParserState is a snapshot of a Parser's position taken with State.
type ParserState struct {
	frames frameStack
	offset uint32
	flags  uint32
}

// Offset is the parser offset at the time of the snapshot.
func (s ParserState) Offset() uint32 { return s.offset }

// NewParser returns a parser positioned at the start of data.
func NewParser(data []byte) *Parser {
	p := &Parser{}
	p.Init(data)
	return p
}

// NewPodParser returns a parser over the bytes of a single pod.
func NewPodParser(pod Pod) *Parser {
	return NewParser(pod.Bytes())
}

// Init discards all state and starts parsing data from the beginning.
func (p *Parser) Init(data []byte) {
	p.data = data
	p.frames = p.frames[:0]
	p.offset = 0
	p.flags = 0
}

func (p *Parser) Offset() uint32 { return p.offset }

// Depth is the number of entered composites.
func (p *Parser) Depth() int { return len(p.frames) }

// bound is the end of the innermost frame, or of the data.
func (p *Parser) bound() uint64 {
	if t := p.frames.top(); t != nil {
		return min(uint64(t.offset)+HeaderSize+uint64(t.size), uint64(len(p.data)))
	}
	return uint64(len(p.data))
}

// Current returns the pod at the parser offset without advancing. Inside an
// array or choice it returns the next element, which has no header of its own.
func (p *Parser) Current() (Pod, error) {
	bound := p.bound()
	if p.flags&flagBody != 0 {
		top := p.frames.top()
		if top.childSize == 0 || !layout.Fits(p.offset, top.childSize, bound) {
			return Pod{}, errors.EndOfData(errors.PhaseParse, p.offset, uint32(bound))
		}
		return bodyPod(top.childType, p.data[p.offset:p.offset+top.childSize]), nil
	}
	return podAt(p.data, p.offset, bound, errors.PhaseParse)
}

// Advance moves past pod, which must be the pod returned by Current.
func (p *Parser) Advance(pod Pod) {
	var next uint64
	if p.flags&flagBody != 0 {
		next = uint64(p.offset) + uint64(pod.Size())
	} else {
		next = uint64(p.offset) + layout.Footprint(pod.Size())
	}
	p.offset = uint32(min(next, math.MaxUint32))
}

// Next returns the current pod and advances past it.
func (p *Parser) Next() (Pod, error) {
	pod, err := p.Current()
	if err != nil {
		return Pod{}, err
	}
	p.Advance(pod)
	return pod, nil
}

// Push enters pod, whose header is at offset. Reads are bounded by its body
// until Pop. The parser offset is not moved.
func (p *Parser) Push(pod Pod, offset uint32) Frame {
	p.frames = append(p.frames, frame{
		offset:      offset,
		size:        pod.Size(),
		typ:         pod.Type(),
		parentFlags: p.flags,
	})
	return p.frames.handle()
}

// Pop leaves f, which must be the innermost frame, and moves the offset past
// the whole composite.
func (p *Parser) Pop(f Frame) error {
	if err := p.frames.check(f, errors.PhaseParse); err != nil {
		Logger().Debug("pod parser frame mismatch",
			zap.Uint32("frame", f.offset),
			zap.Int("depth", len(p.frames)))
		return err
	}
	top := p.frames.top()
	next := uint64(top.offset) + layout.Footprint(top.size)
	p.offset = uint32(min(next, math.MaxUint32))
	p.flags = top.parentFlags
	p.frames = p.frames[:len(p.frames)-1]
	return nil
}

// enter checks the current pod and pushes a frame for it.
func (p *Parser) enter(check func(Pod) bool, want Type) (Pod, Frame, error) {
	if p.flags&flagBody != 0 {
		return Pod{}, Frame{}, errors.InvalidState(errors.PhaseParse, "cannot enter a composite inside an array body")
	}
	pod, err := p.Current()
	if err != nil {
		return Pod{}, Frame{}, err
	}
	if !check(pod) {
		if pod.Type() == want {
			return Pod{}, Frame{}, errors.New(errors.PhaseParse, errors.KindInvalidData).
				At(p.offset).
				Want(want.String()).
				Detail("body of %d bytes too short", pod.Size()).
				Build()
		}
		return Pod{}, Frame{}, errors.TypeMismatch(errors.PhaseParse, want.String(), pod.Type().String())
	}
	return pod, p.Push(pod, p.offset), nil
}

// PushStruct enters the Struct at the parser offset.
func (p *Parser) PushStruct() (Frame, error) {
	_, f, err := p.enter(Pod.IsStruct, TypeStruct)
	if err != nil {
		return Frame{}, err
	}
	p.offset += HeaderSize
	return f, nil
}

// PushObject enters the Object at the parser offset and returns its type
// and id. Iterate its properties with Prop followed by Next.
func (p *Parser) PushObject() (Frame, uint32, uint32, error) {
	pod, f, err := p.enter(Pod.IsObject, TypeObject)
	if err != nil {
		return Frame{}, 0, 0, err
	}
	p.offset += HeaderSize + objectBodySize
	body := pod.Body()
	return f, binary.LittleEndian.Uint32(body), binary.LittleEndian.Uint32(body[4:]), nil
}

// PushSequence enters the Sequence at the parser offset and returns its unit.
func (p *Parser) PushSequence() (Frame, uint32, error) {
	pod, f, err := p.enter(Pod.IsSequence, TypeSequence)
	if err != nil {
		return Frame{}, 0, err
	}
	p.offset += HeaderSize + sequenceBodySize
	return f, binary.LittleEndian.Uint32(pod.Body()), nil
}

// PushArray enters the Array at the parser offset. Next then yields the
// elements until EndOfData.
func (p *Parser) PushArray() (Frame, error) {
	pod, f, err := p.enter(Pod.IsArray, TypeArray)
	if err != nil {
		return Frame{}, err
	}
	top := p.frames.top()
	top.childSize = binary.LittleEndian.Uint32(pod.Body())
	top.childType = Type(binary.LittleEndian.Uint32(pod.Body()[4:]))
	p.offset += HeaderSize + arrayBodySize
	p.flags = flagBody
	return f, nil
}

// PushChoice enters the Choice at the parser offset and returns its type and
// flags. Next then yields the alternatives, default first.
func (p *Parser) PushChoice() (Frame, ChoiceType, uint32, error) {
	pod, f, err := p.enter(Pod.IsChoice, TypeChoice)
	if err != nil {
		return Frame{}, 0, 0, err
	}
	body := pod.Body()
	top := p.frames.top()
	top.childSize = binary.LittleEndian.Uint32(body[8:])
	top.childType = Type(binary.LittleEndian.Uint32(body[12:]))
	p.offset += HeaderSize + choiceBodySize
	p.flags = flagBody
	return f, ChoiceType(binary.LittleEndian.Uint32(body)), binary.LittleEndian.Uint32(body[4:]), nil
}

// Prop reads the next property key and flags inside an Object. The property
// value is the pod that follows.
func (p *Parser) Prop() (uint32, uint32, error) {
	if t := p.frames.top(); t == nil || t.typ != TypeObject {
		return 0, 0, errors.InvalidState(errors.PhaseParse, "prop outside object")
	}
	return p.entry()
}

// Control reads the next control offset and type inside a Sequence. The
// control value is the pod that follows.
func (p *Parser) Control() (uint32, uint32, error) {
	if t := p.frames.top(); t == nil || t.typ != TypeSequence {
		return 0, 0, errors.InvalidState(errors.PhaseParse, "control outside sequence")
	}
	return p.entry()
}

func (p *Parser) entry() (uint32, uint32, error) {
	bound := p.bound()
	if !layout.Fits(p.offset, entryHeaderSize, bound) {
		return 0, 0, errors.EndOfData(errors.PhaseParse, p.offset, uint32(bound))
	}
	a := binary.LittleEndian.Uint32(p.data[p.offset:])
	c := binary.LittleEndian.Uint32(p.data[p.offset+4:])
	p.offset += entryHeaderSize
	return a, c, nil
}

// State snapshots the parser position and entered frames.
func (p *Parser) State() ParserState {
	return ParserState{
		frames: p.frames.clone(),
		offset: p.offset,
		flags:  p.flags,
	}
}

// Reset rewinds the parser to a state taken with State.
func (p *Parser) Reset(s ParserState) {
	p.offset = s.offset
	p.flags = s.flags
	p.frames = append(p.frames[:0], s.frames...)
}

// Deref returns the pod at offset, which must lie with its body inside the
// first size bytes of the data.
func (p *Parser) Deref(offset, size uint32) (Pod, error) {
	bound := min(uint64(size), uint64(len(p.data)))
	pod, err := podAt(p.data, offset, bound, errors.PhaseParse)
	if err != nil {
		return Pod{}, errors.New(errors.PhaseParse, errors.KindOutOfRange).
			At(offset).
			Value(offset).
			Detail("no pod within bound %d", bound).
			Cause(err).
			Build()
	}
	return pod, nil
}

// Frame returns the whole composite of the entered frame f.
func (p *Parser) Frame(f Frame) (Pod, error) {
	if f.depth < 1 || f.depth > len(p.frames) {
		return Pod{}, errors.FrameMismatch(errors.PhaseParse, f.offset, 0, len(p.frames))
	}
	fr := p.frames[f.depth-1]
	if fr.offset != f.offset || fr.typ != f.typ {
		return Pod{}, errors.FrameMismatch(errors.PhaseParse, f.offset, fr.offset, f.depth)
	}
	return p.Deref(fr.offset, math.MaxUint32)
}

// GetPod returns the current pod without advancing.
func (p *Parser) GetPod() (Pod, error) {
	return p.Current()
}

// get decodes the current pod with as and advances only on success.
func get[T any](p *Parser, as func(Pod) (T, error)) (T, error) {
	var zero T
	pod, err := p.Current()
	if err != nil {
		return zero, err
	}
	v, err := as(pod)
	if err != nil {
		return zero, err
	}
	p.Advance(pod)
	return v, nil
}

func (p *Parser) GetBool() (bool, error)           { return get(p, Pod.AsBool) }
func (p *Parser) GetID() (uint32, error)           { return get(p, Pod.AsID) }
func (p *Parser) GetInt() (int32, error)           { return get(p, Pod.AsInt) }
func (p *Parser) GetLong() (int64, error)          { return get(p, Pod.AsLong) }
func (p *Parser) GetFloat() (float32, error)       { return get(p, Pod.AsFloat) }
func (p *Parser) GetDouble() (float64, error)      { return get(p, Pod.AsDouble) }
func (p *Parser) GetString() (string, error)       { return get(p, Pod.AsString) }
func (p *Parser) GetBytes() ([]byte, error)        { return get(p, Pod.AsBytes) }
func (p *Parser) GetFd() (int64, error)            { return get(p, Pod.AsFd) }
func (p *Parser) GetRectangle() (Rectangle, error) { return get(p, Pod.AsRectangle) }
func (p *Parser) GetFraction() (Fraction, error)   { return get(p, Pod.AsFraction) }
func (p *Parser) GetBitmap() ([]byte, error)       { return get(p, Pod.AsBitmap) }

// GetPointer returns the pointee type tag and address of the current pod.
func (p *Parser) GetPointer() (uint32, uintptr, error) {
	pod, err := p.Current()
	if err != nil {
		return 0, 0, err
	}
	typ, addr, err := pod.AsPointer()
	if err != nil {
		return 0, 0, err
	}
	p.Advance(pod)
	return typ, addr, nil
}
