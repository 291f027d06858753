package pod

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/wippyai/pod-runtime/errors"
	"github.com/wippyai/pod-runtime/pod/internal/layout"
)

// Pod is a read-only view of one value: its type and its body bytes. Views
// borrow the buffer they were taken from; mutating that buffer while the view
// is in use changes what the view reports. Use Copy to detach.
//
// The zero Pod is not a value; IsValid reports false for it.
type Pod struct {
	body []byte
	raw  []byte // header+body when the header is present in the buffer
	typ  Type
}

// FromBytes returns a view of the pod starting at b[0]. b must hold the full
// header and body; trailing padding is optional.
func FromBytes(b []byte) (Pod, error) {
	return podAt(b, 0, uint64(len(b)), errors.PhaseParse)
}

// podAt decodes the header at off and checks the body fits below bound.
func podAt(data []byte, off uint32, bound uint64, phase errors.Phase) (Pod, error) {
	if bound > uint64(len(data)) {
		bound = uint64(len(data))
	}
	if !layout.Fits(off, HeaderSize, bound) {
		return Pod{}, errors.EndOfData(phase, off, uint32(bound))
	}
	size := binary.LittleEndian.Uint32(data[off:])
	typ := Type(binary.LittleEndian.Uint32(data[off+4:]))
	if uint64(off)+HeaderSize+uint64(size) > bound {
		return Pod{}, errors.New(phase, errors.KindInvalidData).
			At(off).
			Detail("%s body of %d bytes exceeds bound %d", typ, size, bound).
			Build()
	}
	end := off + HeaderSize + size
	return Pod{
		typ:  typ,
		body: data[off+HeaderSize : end : end],
		raw:  data[off:end:end],
	}, nil
}

// bodyPod builds a view for a headerless array or choice element.
func bodyPod(typ Type, body []byte) Pod {
	return Pod{typ: typ, body: body[:len(body):len(body)]}
}

func (p Pod) IsValid() bool { return p.typ != 0 }

func (p Pod) Type() Type { return p.typ }

// Size is the body length in bytes, excluding header and padding.
func (p Pod) Size() uint32 { return uint32(len(p.body)) }

func (p Pod) Body() []byte { return p.body }

// Footprint is the padded size the pod occupies when written with a header.
func (p Pod) Footprint() uint32 {
	return layout.RoundUp(HeaderSize + p.Size())
}

// Bytes returns header and body without padding. For array elements, which
// carry no header of their own, the header is synthesized into a new slice.
func (p Pod) Bytes() []byte {
	if p.raw != nil {
		return p.raw
	}
	out := make([]byte, HeaderSize+len(p.body))
	binary.LittleEndian.PutUint32(out[0:], p.Size())
	binary.LittleEndian.PutUint32(out[4:], uint32(p.typ))
	copy(out[HeaderSize:], p.body)
	return out
}

// Copy returns a view over a private copy of the pod's bytes.
func (p Pod) Copy() Pod {
	if !p.IsValid() {
		return Pod{}
	}
	raw := append([]byte(nil), p.Bytes()...)
	return Pod{typ: p.typ, body: raw[HeaderSize:], raw: raw}
}

func (p Pod) String() string {
	if !p.IsValid() {
		return "Pod(invalid)"
	}
	return p.typ.String() + "(" + strconv.Itoa(len(p.body)) + " bytes)"
}

func (p Pod) is(t Type) bool {
	return p.typ == t && uint32(len(p.body)) >= t.FixedSize()
}

func (p Pod) IsNone() bool      { return p.typ == TypeNone }
func (p Pod) IsBool() bool      { return p.is(TypeBool) }
func (p Pod) IsID() bool        { return p.is(TypeID) }
func (p Pod) IsInt() bool       { return p.is(TypeInt) }
func (p Pod) IsLong() bool      { return p.is(TypeLong) }
func (p Pod) IsFloat() bool     { return p.is(TypeFloat) }
func (p Pod) IsDouble() bool    { return p.is(TypeDouble) }
func (p Pod) IsBytes() bool     { return p.typ == TypeBytes }
func (p Pod) IsPointer() bool   { return p.is(TypePointer) }
func (p Pod) IsFd() bool        { return p.is(TypeFd) }
func (p Pod) IsRectangle() bool { return p.is(TypeRectangle) }
func (p Pod) IsFraction() bool  { return p.is(TypeFraction) }
func (p Pod) IsStruct() bool    { return p.typ == TypeStruct }

func (p Pod) IsString() bool {
	return p.typ == TypeString && len(p.body) > 0 && p.body[len(p.body)-1] == 0
}

func (p Pod) IsBitmap() bool {
	return p.typ == TypeBitmap && len(p.body) > 0
}

func (p Pod) IsArray() bool {
	return p.typ == TypeArray && len(p.body) >= arrayBodySize
}

func (p Pod) IsChoice() bool {
	return p.typ == TypeChoice && len(p.body) >= choiceBodySize
}

func (p Pod) IsObject() bool {
	return p.typ == TypeObject && len(p.body) >= objectBodySize
}

func (p Pod) IsSequence() bool {
	return p.typ == TypeSequence && len(p.body) >= sequenceBodySize
}

// expect checks the kind and minimum body size of p.
func (p Pod) expect(t Type, need uint32) error {
	if p.typ != t {
		return errors.TypeMismatch(errors.PhaseParse, t.String(), p.typ.String())
	}
	if uint32(len(p.body)) < need {
		return errors.New(errors.PhaseParse, errors.KindInvalidData).
			Want(t.String()).
			Detail("body of %d bytes, need %d", len(p.body), need).
			Build()
	}
	return nil
}

func (p Pod) AsBool() (bool, error) {
	if err := p.expect(TypeBool, 4); err != nil {
		return false, err
	}
	return binary.LittleEndian.Uint32(p.body) != 0, nil
}

func (p Pod) AsID() (uint32, error) {
	if err := p.expect(TypeID, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(p.body), nil
}

func (p Pod) AsInt() (int32, error) {
	if err := p.expect(TypeInt, 4); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(p.body)), nil
}

func (p Pod) AsLong() (int64, error) {
	if err := p.expect(TypeLong, 8); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(p.body)), nil
}

func (p Pod) AsFloat() (float32, error) {
	if err := p.expect(TypeFloat, 4); err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(p.body)), nil
}

func (p Pod) AsDouble() (float64, error) {
	if err := p.expect(TypeDouble, 8); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(p.body)), nil
}

// AsString returns the string body without its NUL terminator.
func (p Pod) AsString() (string, error) {
	if err := p.expect(TypeString, 1); err != nil {
		return "", err
	}
	if p.body[len(p.body)-1] != 0 {
		return "", errors.New(errors.PhaseParse, errors.KindInvalidData).
			Want("String").
			Detail("missing NUL terminator").
			Build()
	}
	return string(p.body[:len(p.body)-1]), nil
}

// AsBytes returns the body of a Bytes pod. The slice aliases the buffer.
func (p Pod) AsBytes() ([]byte, error) {
	if err := p.expect(TypeBytes, 0); err != nil {
		return nil, err
	}
	return p.body, nil
}

// AsPointer returns the pointee type tag and the stored address. The address
// is only meaningful inside the process that wrote it.
func (p Pod) AsPointer() (uint32, uintptr, error) {
	if err := p.expect(TypePointer, pointerBodySize); err != nil {
		return 0, 0, err
	}
	return binary.LittleEndian.Uint32(p.body), uintptr(binary.LittleEndian.Uint64(p.body[8:])), nil
}

func (p Pod) AsFd() (int64, error) {
	if err := p.expect(TypeFd, 8); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(p.body)), nil
}

func (p Pod) AsRectangle() (Rectangle, error) {
	if err := p.expect(TypeRectangle, 8); err != nil {
		return Rectangle{}, err
	}
	return Rectangle{
		Width:  binary.LittleEndian.Uint32(p.body),
		Height: binary.LittleEndian.Uint32(p.body[4:]),
	}, nil
}

func (p Pod) AsFraction() (Fraction, error) {
	if err := p.expect(TypeFraction, 8); err != nil {
		return Fraction{}, err
	}
	return Fraction{
		Num:   binary.LittleEndian.Uint32(p.body),
		Denom: binary.LittleEndian.Uint32(p.body[4:]),
	}, nil
}

func (p Pod) AsBitmap() ([]byte, error) {
	if err := p.expect(TypeBitmap, 1); err != nil {
		return nil, err
	}
	return p.body, nil
}
