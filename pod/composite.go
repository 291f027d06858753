package pod

import (
	"encoding/binary"
	"strconv"

	"github.com/wippyai/pod-runtime/errors"
	"github.com/wippyai/pod-runtime/pod/internal/layout"
)

// Fixed prefixes of composite bodies.
const (
	arrayBodySize    = 8  // child size, child type
	choiceBodySize   = 16 // choice type, flags, child size, child type
	objectBodySize   = 8  // object type, object id
	sequenceBodySize = 8  // unit, padding
	entryHeaderSize  = 8  // prop key+flags, control offset+type
)

// Array is the decoded body of an Array pod.
type Array struct {
	ChildType Type
	ChildSize uint32
	Elems     []Pod
}

// Choice is the decoded body of a Choice pod. Values[0] is the default.
type Choice struct {
	Type      ChoiceType
	Flags     uint32
	ChildType Type
	ChildSize uint32
	Values    []Pod
}

// Object is the decoded body of an Object pod.
type Object struct {
	Type  uint32
	ID    uint32
	Props []Prop
}

// Prop is one keyed entry of an Object.
type Prop struct {
	Key   uint32
	Flags uint32
	Value Pod
}

// Sequence is the decoded body of a Sequence pod.
type Sequence struct {
	Unit     uint32
	Controls []Control
}

// Control is one timestamped entry of a Sequence.
type Control struct {
	Offset uint32
	Type   uint32
	Value  Pod
}

// FindProp returns the first property with key.
func (o Object) FindProp(key uint32) (Prop, bool) {
	for _, p := range o.Props {
		if p.Key == key {
			return p, true
		}
	}
	return Prop{}, false
}

// packed splits a run of headerless elements of childSize bytes.
func packed(data []byte, childType Type, childSize uint32, path string) ([]Pod, error) {
	if childSize == 0 {
		return nil, nil
	}
	if uint32(len(data))%childSize != 0 {
		return nil, errors.InvalidData(errors.PhaseParse, []string{path},
			"element data of "+strconv.Itoa(len(data))+" bytes is not a multiple of child size "+strconv.FormatUint(uint64(childSize), 10))
	}
	n := uint32(len(data)) / childSize
	out := make([]Pod, 0, n)
	for i := uint32(0); i < n; i++ {
		out = append(out, bodyPod(childType, data[i*childSize:(i+1)*childSize]))
	}
	return out, nil
}

func (p Pod) AsArray() (Array, error) {
	if err := p.expect(TypeArray, arrayBodySize); err != nil {
		return Array{}, err
	}
	a := Array{
		ChildSize: binary.LittleEndian.Uint32(p.body),
		ChildType: Type(binary.LittleEndian.Uint32(p.body[4:])),
	}
	elems, err := packed(p.body[arrayBodySize:], a.ChildType, a.ChildSize, "array")
	if err != nil {
		return Array{}, err
	}
	a.Elems = elems
	return a, nil
}

func (p Pod) AsChoice() (Choice, error) {
	if err := p.expect(TypeChoice, choiceBodySize); err != nil {
		return Choice{}, err
	}
	c := Choice{
		Type:      ChoiceType(binary.LittleEndian.Uint32(p.body)),
		Flags:     binary.LittleEndian.Uint32(p.body[4:]),
		ChildSize: binary.LittleEndian.Uint32(p.body[8:]),
		ChildType: Type(binary.LittleEndian.Uint32(p.body[12:])),
	}
	values, err := packed(p.body[choiceBodySize:], c.ChildType, c.ChildSize, "choice")
	if err != nil {
		return Choice{}, err
	}
	c.Values = values
	return c, nil
}

// AsStruct returns the fields of a Struct pod in order.
func (p Pod) AsStruct() ([]Pod, error) {
	var fields []Pod
	err := p.ForEachField(func(v Pod) error {
		fields = append(fields, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fields, nil
}

// ForEachField calls fn for each field of a Struct pod, stopping at the
// first error fn returns.
func (p Pod) ForEachField(fn func(Pod) error) error {
	if err := p.expect(TypeStruct, 0); err != nil {
		return err
	}
	return walk(p.body, 0, 0, func(_ uint32, _ []byte, v Pod) error {
		return fn(v)
	})
}

func (p Pod) AsObject() (Object, error) {
	if err := p.expect(TypeObject, objectBodySize); err != nil {
		return Object{}, err
	}
	o := Object{
		Type: binary.LittleEndian.Uint32(p.body),
		ID:   binary.LittleEndian.Uint32(p.body[4:]),
	}
	err := p.ForEachProp(func(prop Prop) error {
		o.Props = append(o.Props, prop)
		return nil
	})
	if err != nil {
		return Object{}, err
	}
	return o, nil
}

// ForEachProp calls fn for each property of an Object pod.
func (p Pod) ForEachProp(fn func(Prop) error) error {
	if err := p.expect(TypeObject, objectBodySize); err != nil {
		return err
	}
	return walk(p.body, objectBodySize, entryHeaderSize, func(_ uint32, hdr []byte, v Pod) error {
		return fn(Prop{
			Key:   binary.LittleEndian.Uint32(hdr),
			Flags: binary.LittleEndian.Uint32(hdr[4:]),
			Value: v,
		})
	})
}

func (p Pod) AsSequence() (Sequence, error) {
	if err := p.expect(TypeSequence, sequenceBodySize); err != nil {
		return Sequence{}, err
	}
	s := Sequence{Unit: binary.LittleEndian.Uint32(p.body)}
	err := p.ForEachControl(func(c Control) error {
		s.Controls = append(s.Controls, c)
		return nil
	})
	if err != nil {
		return Sequence{}, err
	}
	return s, nil
}

// ForEachControl calls fn for each control of a Sequence pod.
func (p Pod) ForEachControl(fn func(Control) error) error {
	if err := p.expect(TypeSequence, sequenceBodySize); err != nil {
		return err
	}
	return walk(p.body, sequenceBodySize, entryHeaderSize, func(_ uint32, hdr []byte, v Pod) error {
		return fn(Control{
			Offset: binary.LittleEndian.Uint32(hdr),
			Type:   binary.LittleEndian.Uint32(hdr[4:]),
			Value:  v,
		})
	})
}

// walk visits the entries of a struct, object or sequence body starting at
// start. Each entry is an optional fixed header of hdrSize bytes followed by
// one full pod; entries are 8-byte aligned relative to the body.
func walk(body []byte, start, hdrSize uint32, fn func(off uint32, hdr []byte, v Pod) error) error {
	bound := uint64(len(body))
	off := start
	for uint64(off) < bound {
		if !layout.Fits(off, hdrSize, bound) {
			return errors.New(errors.PhaseParse, errors.KindInvalidData).
				At(off).
				Detail("truncated entry header").
				Build()
		}
		v, err := podAt(body, off+hdrSize, bound, errors.PhaseParse)
		if err != nil {
			if errors.Is(err, errors.ErrEndOfData) {
				return errors.New(errors.PhaseParse, errors.KindInvalidData).
					At(off).
					Detail("truncated child pod").
					Build()
			}
			return err
		}
		if err := fn(off, body[off:off+hdrSize], v); err != nil {
			return err
		}
		next := uint64(off) + uint64(hdrSize) + layout.Footprint(v.Size())
		if next > bound {
			// last child may omit its padding
			break
		}
		off = uint32(next)
	}
	return nil
}

// IsInside reports whether the pod at offset off within body lies entirely
// within body.
func IsInside(body []byte, off uint32) bool {
	_, err := podAt(body, off, uint64(len(body)), errors.PhaseParse)
	return err == nil
}
