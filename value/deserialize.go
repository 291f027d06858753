package value

import (
	"strconv"

	"github.com/wippyai/pod-runtime/errors"
	"github.com/wippyai/pod-runtime/pod"
)

// Deserialize copies p into an owned Value tree.
func Deserialize(p pod.Pod) (Value, error) {
	return deserialize(p, nil)
}

// Unmarshal decodes the pod at the start of data.
func Unmarshal(data []byte) (Value, error) {
	p, err := pod.FromBytes(data)
	if err != nil {
		return nil, wrapDecode(err, nil)
	}
	return Deserialize(p)
}

func wrapDecode(err error, path []string) error {
	kind := errors.KindInvalidData
	var e *errors.Error
	if errors.As(err, &e) {
		kind = e.Kind
	}
	return errors.New(errors.PhaseDeserialize, kind).
		Path(path...).
		Cause(err).
		Build()
}

func deserialize(p pod.Pod, path []string) (Value, error) {
	v, err := decode(p, path)
	if err != nil {
		var e *errors.Error
		if errors.As(err, &e) && e.Phase == errors.PhaseDeserialize {
			return nil, err
		}
		return nil, wrapDecode(err, path)
	}
	return v, nil
}

func decode(p pod.Pod, path []string) (Value, error) {
	switch p.Type() {
	case pod.TypeNone:
		return None{}, nil
	case pod.TypeBool:
		v, err := p.AsBool()
		return Bool(v), err
	case pod.TypeID:
		v, err := p.AsID()
		return ID(v), err
	case pod.TypeInt:
		v, err := p.AsInt()
		return Int(v), err
	case pod.TypeLong:
		v, err := p.AsLong()
		return Long(v), err
	case pod.TypeFloat:
		v, err := p.AsFloat()
		return Float(v), err
	case pod.TypeDouble:
		v, err := p.AsDouble()
		return Double(v), err
	case pod.TypeString:
		v, err := p.AsString()
		return String(v), err
	case pod.TypeBytes:
		v, err := p.AsBytes()
		return Bytes(clone(v)), err
	case pod.TypeBitmap:
		v, err := p.AsBitmap()
		return Bitmap(clone(v)), err
	case pod.TypeFd:
		v, err := p.AsFd()
		return Fd(v), err
	case pod.TypeRectangle:
		v, err := p.AsRectangle()
		return Rectangle(v), err
	case pod.TypeFraction:
		v, err := p.AsFraction()
		return Fraction(v), err
	case pod.TypePointer:
		typ, addr, err := p.AsPointer()
		return Pointer{Type: typ, Addr: addr}, err
	case pod.TypeArray:
		a, err := p.AsArray()
		if err != nil {
			return nil, err
		}
		elems, err := decodeAll(a.Elems, path)
		return Array{ChildType: a.ChildType, Elems: elems}, err
	case pod.TypeChoice:
		c, err := p.AsChoice()
		if err != nil {
			return nil, err
		}
		values, err := decodeAll(c.Values, path)
		return Choice{Type: c.Type, Flags: c.Flags, Values: values}, err
	case pod.TypeStruct:
		var st Struct
		err := p.ForEachField(func(f pod.Pod) error {
			v, err := deserialize(f, child(path, strconv.Itoa(len(st))))
			st = append(st, v)
			return err
		})
		return st, err
	case pod.TypeObject:
		o, err := p.AsObject()
		if err != nil {
			return nil, err
		}
		out := Object{Type: o.Type, ID: o.ID, Props: make([]Prop, 0, len(o.Props))}
		for _, pr := range o.Props {
			v, err := deserialize(pr.Value, child(path, "prop "+strconv.FormatUint(uint64(pr.Key), 10)))
			if err != nil {
				return nil, err
			}
			out.Props = append(out.Props, Prop{Key: pr.Key, Flags: pr.Flags, Value: v})
		}
		return out, nil
	case pod.TypeSequence:
		q, err := p.AsSequence()
		if err != nil {
			return nil, err
		}
		out := Sequence{Unit: q.Unit, Controls: make([]Control, 0, len(q.Controls))}
		for i, c := range q.Controls {
			v, err := deserialize(c.Value, child(path, strconv.Itoa(i)))
			if err != nil {
				return nil, err
			}
			out.Controls = append(out.Controls, Control{Offset: c.Offset, Type: c.Type, Value: v})
		}
		return out, nil
	}
	return nil, errors.New(errors.PhaseDeserialize, errors.KindUnsupported).
		Path(path...).
		Detail("pod type %s", p.Type()).
		Build()
}

func decodeAll(pods []pod.Pod, path []string) ([]Value, error) {
	if len(pods) == 0 {
		return nil, nil
	}
	out := make([]Value, len(pods))
	for i, p := range pods {
		v, err := deserialize(p, child(path, strconv.Itoa(i)))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func clone(b []byte) []byte {
	return append([]byte{}, b...)
}
