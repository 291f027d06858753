package value

import (
	"bytes"

	"github.com/wippyai/pod-runtime/pod"
)

// Value is an owned, in-memory pod value. Unlike pod.Pod it does not alias
// any buffer.
type Value interface {
	Type() pod.Type
	isValue()
}

type (
	None   struct{}
	Bool   bool
	ID     uint32
	Int    int32
	Long   int64
	Float  float32
	Double float64
	String string
	Bytes  []byte
	Bitmap []byte
	Fd     int64
)

type Rectangle pod.Rectangle

type Fraction pod.Fraction

// Pointer is an opaque address tagged with the pointee type. It is carried
// as a number and never dereferenced.
type Pointer struct {
	Type uint32
	Addr uintptr
}

// Array holds fixed-size elements of one type. ChildType may be left zero
// when Elems is not empty; an empty array with a zero ChildType encodes a
// None child.
type Array struct {
	ChildType pod.Type
	Elems     []Value
}

// Struct is an ordered list of fields.
type Struct []Value

// Object is a typed set of keyed properties.
type Object struct {
	Type  uint32
	ID    uint32
	Props []Prop
}

type Prop struct {
	Key   uint32
	Flags uint32
	Value Value
}

// Choice lists alternatives for a property value, default first. All values
// must share one fixed-size type.
type Choice struct {
	Type   pod.ChoiceType
	Flags  uint32
	Values []Value
}

// Sequence is a list of timed controls.
type Sequence struct {
	Unit     uint32
	Controls []Control
}

type Control struct {
	Offset uint32
	Type   uint32
	Value  Value
}

func (None) Type() pod.Type      { return pod.TypeNone }
func (Bool) Type() pod.Type      { return pod.TypeBool }
func (ID) Type() pod.Type        { return pod.TypeID }
func (Int) Type() pod.Type       { return pod.TypeInt }
func (Long) Type() pod.Type      { return pod.TypeLong }
func (Float) Type() pod.Type     { return pod.TypeFloat }
func (Double) Type() pod.Type    { return pod.TypeDouble }
func (String) Type() pod.Type    { return pod.TypeString }
func (Bytes) Type() pod.Type     { return pod.TypeBytes }
func (Bitmap) Type() pod.Type    { return pod.TypeBitmap }
func (Fd) Type() pod.Type        { return pod.TypeFd }
func (Rectangle) Type() pod.Type { return pod.TypeRectangle }
func (Fraction) Type() pod.Type  { return pod.TypeFraction }
func (Pointer) Type() pod.Type   { return pod.TypePointer }
func (Array) Type() pod.Type     { return pod.TypeArray }
func (Struct) Type() pod.Type    { return pod.TypeStruct }
func (Object) Type() pod.Type    { return pod.TypeObject }
func (Choice) Type() pod.Type    { return pod.TypeChoice }
func (Sequence) Type() pod.Type  { return pod.TypeSequence }

func (None) isValue()      {}
func (Bool) isValue()      {}
func (ID) isValue()        {}
func (Int) isValue()       {}
func (Long) isValue()      {}
func (Float) isValue()     {}
func (Double) isValue()    {}
func (String) isValue()    {}
func (Bytes) isValue()     {}
func (Bitmap) isValue()    {}
func (Fd) isValue()        {}
func (Rectangle) isValue() {}
func (Fraction) isValue()  {}
func (Pointer) isValue()   {}
func (Array) isValue()     {}
func (Struct) isValue()    {}
func (Object) isValue()    {}
func (Choice) isValue()    {}
func (Sequence) isValue()  {}

// Find returns the value of the first property with key.
func (o Object) Find(key uint32) (Value, bool) {
	for _, p := range o.Props {
		if p.Key == key {
			return p.Value, true
		}
	}
	return nil, false
}

// elemType is the child type an array encodes with.
func (a Array) elemType() pod.Type {
	switch {
	case a.ChildType != 0:
		return a.ChildType
	case len(a.Elems) > 0 && a.Elems[0] != nil:
		return a.Elems[0].Type()
	}
	return pod.TypeNone
}

// Equal reports whether a and b hold the same value. Byte slices compare by
// content, so a nil Bytes equals an empty one.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case Bytes:
		y, ok := b.(Bytes)
		return ok && bytes.Equal(x, y)
	case Bitmap:
		y, ok := b.(Bitmap)
		return ok && bytes.Equal(x, y)
	case Array:
		y, ok := b.(Array)
		return ok && x.elemType() == y.elemType() && equalAll(x.Elems, y.Elems)
	case Struct:
		y, ok := b.(Struct)
		return ok && equalAll(x, y)
	case Choice:
		y, ok := b.(Choice)
		return ok && x.Type == y.Type && x.Flags == y.Flags && equalAll(x.Values, y.Values)
	case Object:
		y, ok := b.(Object)
		if !ok || x.Type != y.Type || x.ID != y.ID || len(x.Props) != len(y.Props) {
			return false
		}
		for i, p := range x.Props {
			q := y.Props[i]
			if p.Key != q.Key || p.Flags != q.Flags || !Equal(p.Value, q.Value) {
				return false
			}
		}
		return true
	case Sequence:
		y, ok := b.(Sequence)
		if !ok || x.Unit != y.Unit || len(x.Controls) != len(y.Controls) {
			return false
		}
		for i, c := range x.Controls {
			d := y.Controls[i]
			if c.Offset != d.Offset || c.Type != d.Type || !Equal(c.Value, d.Value) {
				return false
			}
		}
		return true
	}
	return a == b
}

func equalAll(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
