package value

import (
	"strconv"

	"github.com/wippyai/pod-runtime/errors"
	"github.com/wippyai/pod-runtime/pod"
)

// Serialize writes v with b and returns the offset of the written pod.
//
// Overflow does not stop serialization: the whole value is still walked so
// that b.Offset() reports the size needed, and the first Overflow error is
// returned at the end. Any other error stops immediately.
func Serialize(b *pod.Builder, v Value) (uint32, error) {
	s := serializer{b: b}
	at := b.Offset()
	if err := s.value(v, nil); err != nil {
		return at, err
	}
	if s.overflow != nil {
		return at, s.overflow
	}
	return at, nil
}

// Marshal encodes v into a new buffer of exactly the required size.
func Marshal(v Value) ([]byte, error) {
	m := pod.NewBuilder(nil)
	if _, err := Serialize(m, v); err != nil && !errors.Is(err, errors.ErrOverflow) {
		return nil, err
	}
	buf := make([]byte, m.Offset())
	if _, err := Serialize(pod.NewBuilder(buf), v); err != nil {
		return nil, err
	}
	return buf, nil
}

type serializer struct {
	b        *pod.Builder
	overflow error
}

// check absorbs Overflow so the walk continues, and wraps anything else.
func (s *serializer) check(err error, path []string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, errors.ErrOverflow) {
		if s.overflow == nil {
			s.overflow = err
		}
		return nil
	}
	kind := errors.KindInvalidInput
	var e *errors.Error
	if errors.As(err, &e) {
		kind = e.Kind
	}
	return errors.New(errors.PhaseSerialize, kind).
		Path(path...).
		Cause(err).
		Build()
}

func (s *serializer) value(v Value, path []string) error {
	var err error
	switch x := v.(type) {
	case nil:
		return errors.New(errors.PhaseSerialize, errors.KindInvalidInput).
			Path(path...).
			Detail("nil value").
			Build()
	case None:
		_, err = s.b.PushNone()
	case Bool:
		_, err = s.b.PushBool(bool(x))
	case ID:
		_, err = s.b.PushID(uint32(x))
	case Int:
		_, err = s.b.PushInt(int32(x))
	case Long:
		_, err = s.b.PushLong(int64(x))
	case Float:
		_, err = s.b.PushFloat(float32(x))
	case Double:
		_, err = s.b.PushDouble(float64(x))
	case String:
		_, err = s.b.PushString(string(x))
	case Bytes:
		_, err = s.b.PushBytes(x)
	case Bitmap:
		_, err = s.b.PushBitmap(x)
	case Fd:
		_, err = s.b.PushFd(int64(x))
	case Rectangle:
		_, err = s.b.PushRectangle(pod.Rectangle(x))
	case Fraction:
		_, err = s.b.PushFraction(pod.Fraction(x))
	case Pointer:
		_, err = s.b.PushPointer(x.Type, x.Addr)
	case Array:
		return s.array(x, path)
	case Struct:
		return s.structure(x, path)
	case Object:
		return s.object(x, path)
	case Choice:
		return s.choice(x, path)
	case Sequence:
		return s.sequence(x, path)
	default:
		return errors.Unsupported(errors.PhaseSerialize, "value of type "+v.Type().String())
	}
	return s.check(err, path)
}

func (s *serializer) array(a Array, path []string) error {
	f, err := s.b.PushArray()
	if err := s.check(err, path); err != nil {
		return err
	}
	if len(a.Elems) == 0 && a.ChildType != 0 {
		if err := s.check(s.b.Child(a.ChildType.FixedSize(), a.ChildType), path); err != nil {
			return err
		}
	}
	for i, e := range a.Elems {
		p := child(path, strconv.Itoa(i))
		if e != nil && a.ChildType != 0 && e.Type() != a.ChildType {
			return errors.New(errors.PhaseSerialize, errors.KindTypeMismatch).
				Path(p...).
				Want(a.ChildType.String()).
				Got(e.Type().String()).
				Build()
		}
		if e != nil && e.Type().FixedSize() == 0 {
			return errors.New(errors.PhaseSerialize, errors.KindInvalidInput).
				Path(p...).
				Detail("%s cannot be an array element", e.Type()).
				Build()
		}
		if err := s.value(e, p); err != nil {
			return err
		}
	}
	return s.check(s.b.Pop(f), path)
}

func (s *serializer) choice(c Choice, path []string) error {
	f, err := s.b.PushChoice(c.Type, c.Flags)
	if err := s.check(err, path); err != nil {
		return err
	}
	for i, v := range c.Values {
		p := child(path, strconv.Itoa(i))
		if v != nil && v.Type().FixedSize() == 0 {
			return errors.New(errors.PhaseSerialize, errors.KindInvalidInput).
				Path(p...).
				Detail("%s cannot be a choice value", v.Type()).
				Build()
		}
		if err := s.value(v, p); err != nil {
			return err
		}
	}
	return s.check(s.b.Pop(f), path)
}

func (s *serializer) structure(st Struct, path []string) error {
	f, err := s.b.PushStruct()
	if err := s.check(err, path); err != nil {
		return err
	}
	for i, v := range st {
		if err := s.value(v, child(path, strconv.Itoa(i))); err != nil {
			return err
		}
	}
	return s.check(s.b.Pop(f), path)
}

func (s *serializer) object(o Object, path []string) error {
	f, err := s.b.PushObject(o.Type, o.ID)
	if err := s.check(err, path); err != nil {
		return err
	}
	for _, p := range o.Props {
		pp := child(path, "prop "+strconv.FormatUint(uint64(p.Key), 10))
		if err := s.check(s.b.Prop(p.Key, p.Flags), pp); err != nil {
			return err
		}
		if err := s.value(p.Value, pp); err != nil {
			return err
		}
	}
	return s.check(s.b.Pop(f), path)
}

func (s *serializer) sequence(q Sequence, path []string) error {
	f, err := s.b.PushSequence(q.Unit)
	if err := s.check(err, path); err != nil {
		return err
	}
	for i, c := range q.Controls {
		p := child(path, strconv.Itoa(i))
		if err := s.check(s.b.Control(c.Offset, c.Type), p); err != nil {
			return err
		}
		if err := s.value(c.Value, p); err != nil {
			return err
		}
	}
	return s.check(s.b.Pop(f), path)
}

// child extends path without sharing its backing array.
func child(path []string, name string) []string {
	return append(path[:len(path):len(path)], name)
}
