package pod

import (
	"strconv"

	"github.com/wippyai/pod-runtime/pod/internal/layout"
)

// HeaderSize is the size of a pod header: u32 body size followed by u32 type.
const HeaderSize = layout.HeaderSize

// Type is the discriminant stored in a pod header.
type Type uint32

const (
	TypeNone      Type = 1
	TypeBool      Type = 2
	TypeID        Type = 3
	TypeInt       Type = 4
	TypeLong      Type = 5
	TypeFloat     Type = 6
	TypeDouble    Type = 7
	TypeString    Type = 8
	TypeBytes     Type = 9
	TypeRectangle Type = 10
	TypeFraction  Type = 11
	TypeBitmap    Type = 12
	TypeArray     Type = 13
	TypeStruct    Type = 14
	TypeObject    Type = 15
	TypeSequence  Type = 16
	TypePointer   Type = 17
	TypeFd        Type = 18
	TypeChoice    Type = 19
	TypePod       Type = 20
)

var typeNames = [...]string{
	TypeNone:      "None",
	TypeBool:      "Bool",
	TypeID:        "Id",
	TypeInt:       "Int",
	TypeLong:      "Long",
	TypeFloat:     "Float",
	TypeDouble:    "Double",
	TypeString:    "String",
	TypeBytes:     "Bytes",
	TypeRectangle: "Rectangle",
	TypeFraction:  "Fraction",
	TypeBitmap:    "Bitmap",
	TypeArray:     "Array",
	TypeStruct:    "Struct",
	TypeObject:    "Object",
	TypeSequence:  "Sequence",
	TypePointer:   "Pointer",
	TypeFd:        "Fd",
	TypeChoice:    "Choice",
	TypePod:       "Pod",
}

func (t Type) String() string {
	if int(t) < len(typeNames) && typeNames[t] != "" {
		return typeNames[t]
	}
	return "Type(" + strconv.FormatUint(uint64(t), 10) + ")"
}

// IsComposite reports whether values of t contain other pods.
func (t Type) IsComposite() bool {
	switch t {
	case TypeArray, TypeStruct, TypeObject, TypeSequence, TypeChoice:
		return true
	}
	return false
}

// FixedSize is the exact body size of fixed-width kinds, or 0 for kinds
// whose size depends on the value.
func (t Type) FixedSize() uint32 {
	switch t {
	case TypeBool, TypeID, TypeInt, TypeFloat:
		return 4
	case TypeLong, TypeDouble, TypeFd, TypeRectangle, TypeFraction:
		return 8
	case TypePointer:
		return pointerBodySize
	}
	return 0
}

// ChoiceType selects how the alternatives of a Choice are interpreted.
type ChoiceType uint32

const (
	ChoiceNone  ChoiceType = 0 // only the first value is meaningful
	ChoiceRange ChoiceType = 1 // default, min, max
	ChoiceStep  ChoiceType = 2 // default, min, max, step
	ChoiceEnum  ChoiceType = 3 // default, alternatives...
	ChoiceFlags ChoiceType = 4 // default, possible flags...
)

func (c ChoiceType) String() string {
	switch c {
	case ChoiceNone:
		return "None"
	case ChoiceRange:
		return "Range"
	case ChoiceStep:
		return "Step"
	case ChoiceEnum:
		return "Enum"
	case ChoiceFlags:
		return "Flags"
	}
	return "ChoiceType(" + strconv.FormatUint(uint64(c), 10) + ")"
}

// ChoiceTypeFromID maps the single-letter choice codes used in textual pod
// descriptions ('n', 'r', 's', 'e', 'f') to a ChoiceType.
func ChoiceTypeFromID(id byte) (ChoiceType, bool) {
	switch id {
	case 'n':
		return ChoiceNone, true
	case 'r':
		return ChoiceRange, true
	case 's':
		return ChoiceStep, true
	case 'e':
		return ChoiceEnum, true
	case 'f':
		return ChoiceFlags, true
	}
	return 0, false
}

// Property flags stored next to each Prop key.
const (
	PropReadOnly   uint32 = 1 << 0
	PropHardware   uint32 = 1 << 1
	PropHintDict   uint32 = 1 << 2
	PropMandatory  uint32 = 1 << 3
	PropDontFixate uint32 = 1 << 4
)

// Rectangle is the body of a Rectangle pod.
type Rectangle struct {
	Width  uint32
	Height uint32
}

// Fraction is the body of a Fraction pod.
type Fraction struct {
	Num   uint32
	Denom uint32
}

// pointer body: u32 type, u32 padding, u64 value
const pointerBodySize = 16
