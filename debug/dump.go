package debug

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/pod-runtime/errors"
	"github.com/wippyai/pod-runtime/pod"
)

// Node is one line of a dump. Composite pods have one child per field,
// element or entry; props and controls have their value as the only child.
type Node struct {
	Label    string
	Type     pod.Type
	Children []*Node
}

// scope carries the enclosing object and property so Id values can be named.
type scope struct {
	reg     *Registry
	objType uint32
	key     uint32
	inProp  bool
}

// Tree decodes p into a labelled tree. reg may be nil.
func Tree(p pod.Pod, reg *Registry) (*Node, error) {
	return node(p, scope{reg: reg}, nil)
}

// Walk visits n and its descendants depth first. A non-nil error from fn
// stops the walk.
func Walk(n *Node, fn func(n *Node, depth int) error) error {
	return walk(n, 0, fn)
}

func walk(n *Node, depth int, fn func(*Node, int) error) error {
	if err := fn(n, depth); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := walk(c, depth+1, fn); err != nil {
			return err
		}
	}
	return nil
}

// Dump writes the tree of p to w, one node per line, indented two spaces per
// level.
func Dump(w io.Writer, p pod.Pod, reg *Registry) error {
	root, err := Tree(p, reg)
	if err != nil {
		return err
	}
	return Walk(root, func(n *Node, depth int) error {
		_, err := fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), n.Label)
		if err != nil {
			return errors.Wrap(errors.PhaseDump, errors.KindInvalidState, err, "write dump")
		}
		return nil
	})
}

func wrapDump(err error, path []string) error {
	var e *errors.Error
	if errors.As(err, &e) && e.Phase == errors.PhaseDump {
		return err
	}
	kind := errors.KindInvalidData
	if e != nil {
		kind = e.Kind
	}
	pod.Logger().Debug("pod dump failed", zap.Strings("path", path), zap.Error(err))
	return errors.New(errors.PhaseDump, kind).
		Path(path...).
		Cause(err).
		Build()
}

func sub(path []string, name string) []string {
	return append(path[:len(path):len(path)], name)
}

func named(v uint32, name string, ok bool) string {
	if ok {
		return fmt.Sprintf("%s (%d)", name, v)
	}
	return strconv.FormatUint(uint64(v), 10)
}

func node(p pod.Pod, s scope, path []string) (*Node, error) {
	n := &Node{Type: p.Type()}
	var err error
	switch p.Type() {
	case pod.TypeStruct:
		n.Label = fmt.Sprintf("Struct: size %d", p.Size())
		i := 0
		err = p.ForEachField(func(f pod.Pod) error {
			c, err := node(f, s, sub(path, strconv.Itoa(i)))
			if err != nil {
				return err
			}
			n.Children = append(n.Children, c)
			i++
			return nil
		})
	case pod.TypeObject:
		err = objectNode(n, p, s, path)
	case pod.TypeSequence:
		err = sequenceNode(n, p, s, path)
	case pod.TypeArray:
		var a pod.Array
		if a, err = p.AsArray(); err == nil {
			n.Label = fmt.Sprintf("Array: child.size %d, child.type %s", a.ChildSize, a.ChildType)
			err = elems(n, a.Elems, s, path)
		}
	case pod.TypeChoice:
		var c pod.Choice
		if c, err = p.AsChoice(); err == nil {
			n.Label = fmt.Sprintf("Choice: type %s, flags %08x, child.size %d, child.type %s",
				c.Type, c.Flags, c.ChildSize, c.ChildType)
			err = elems(n, c.Values, s, path)
		}
	default:
		n.Label, err = scalarLabel(p, s)
	}
	if err != nil {
		return nil, wrapDump(err, path)
	}
	return n, nil
}

func elems(n *Node, values []pod.Pod, s scope, path []string) error {
	for i, v := range values {
		c, err := node(v, s, sub(path, strconv.Itoa(i)))
		if err != nil {
			return err
		}
		n.Children = append(n.Children, c)
	}
	return nil
}

func objectNode(n *Node, p pod.Pod, s scope, path []string) error {
	o, err := p.AsObject()
	if err != nil {
		return err
	}
	typName, ok := s.reg.ObjectName(o.Type)
	typ := named(o.Type, typName, ok)
	idName, ok := s.reg.IDName(o.Type, o.ID)
	n.Label = fmt.Sprintf("Object: size %d, type %s, id %s", p.Size(), typ, named(o.ID, idName, ok))

	for _, prop := range o.Props {
		keyName, ok := s.reg.PropName(o.Type, prop.Key)
		name := keyName
		if !ok {
			name = strconv.FormatUint(uint64(prop.Key), 10)
		}
		pn := &Node{
			Label: fmt.Sprintf("Prop: key %s, flags %08x", named(prop.Key, keyName, ok), prop.Flags),
		}
		inner := scope{reg: s.reg, objType: o.Type, key: prop.Key, inProp: true}
		c, err := node(prop.Value, inner, sub(path, name))
		if err != nil {
			return err
		}
		pn.Type = c.Type
		pn.Children = []*Node{c}
		n.Children = append(n.Children, pn)
	}
	return nil
}

func sequenceNode(n *Node, p pod.Pod, s scope, path []string) error {
	seq, err := p.AsSequence()
	if err != nil {
		return err
	}
	n.Label = fmt.Sprintf("Sequence: size %d, unit %d", p.Size(), seq.Unit)
	for i, ctl := range seq.Controls {
		c, err := node(ctl.Value, s, sub(path, "control "+strconv.Itoa(i)))
		if err != nil {
			return err
		}
		n.Children = append(n.Children, &Node{
			Label:    fmt.Sprintf("Control: offset %d, type %d", ctl.Offset, ctl.Type),
			Type:     c.Type,
			Children: []*Node{c},
		})
	}
	return nil
}

func scalarLabel(p pod.Pod, s scope) (string, error) {
	switch p.Type() {
	case pod.TypeNone:
		return "None", nil
	case pod.TypeBool:
		v, err := p.AsBool()
		return "Bool " + strconv.FormatBool(v), err
	case pod.TypeID:
		v, err := p.AsID()
		if err != nil {
			return "", err
		}
		if s.inProp {
			if name, ok := s.reg.ValueName(s.objType, s.key, v); ok {
				return fmt.Sprintf("Id %d (%s)", v, name), nil
			}
		}
		return fmt.Sprintf("Id %d", v), nil
	case pod.TypeInt:
		v, err := p.AsInt()
		return fmt.Sprintf("Int %d", v), err
	case pod.TypeLong:
		v, err := p.AsLong()
		return fmt.Sprintf("Long %d", v), err
	case pod.TypeFloat:
		v, err := p.AsFloat()
		return "Float " + strconv.FormatFloat(float64(v), 'g', -1, 32), err
	case pod.TypeDouble:
		v, err := p.AsDouble()
		return "Double " + strconv.FormatFloat(v, 'g', -1, 64), err
	case pod.TypeString:
		v, err := p.AsString()
		return "String " + strconv.Quote(v), err
	case pod.TypeBytes:
		v, err := p.AsBytes()
		return fmt.Sprintf("Bytes: size %d, %s", len(v), hex.EncodeToString(v)), err
	case pod.TypeBitmap:
		v, err := p.AsBitmap()
		return fmt.Sprintf("Bitmap: size %d", len(v)), err
	case pod.TypeRectangle:
		v, err := p.AsRectangle()
		return fmt.Sprintf("Rectangle %dx%d", v.Width, v.Height), err
	case pod.TypeFraction:
		v, err := p.AsFraction()
		return fmt.Sprintf("Fraction %d/%d", v.Num, v.Denom), err
	case pod.TypePointer:
		typ, addr, err := p.AsPointer()
		return fmt.Sprintf("Pointer: type %d, value %#x", typ, addr), err
	case pod.TypeFd:
		v, err := p.AsFd()
		return fmt.Sprintf("Fd %d", v), err
	}
	return fmt.Sprintf("%s: size %d", p.Type(), p.Size()), nil
}
