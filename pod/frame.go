package pod

import "github.com/wippyai/pod-runtime/errors"

// Body-mode flags. Inside an Array or Choice the first child writes a full
// header that doubles as the child header; later children write bodies only.
const (
	flagBody  uint32 = 1 << 0
	flagFirst uint32 = 1 << 1
)

// Frame is the handle of one open composite on a Builder or Parser stack.
// It is a plain value: it stays valid until the composite is popped or the
// owner is reset to a state taken before the composite was opened.
type Frame struct {
	offset uint32
	depth  int
	typ    Type
}

// Offset is the buffer offset of the composite's header.
func (f Frame) Offset() uint32 { return f.offset }

// Type is the composite kind.
func (f Frame) Type() Type { return f.typ }

// Depth is the 1-based position of the frame on its stack.
func (f Frame) Depth() int { return f.depth }

type frame struct {
	offset      uint32
	size        uint32 // builder: bytes written so far; parser: declared size
	parentFlags uint32
	childSize   uint32
	typ         Type
	childType   Type
}

type frameStack []frame

func (s frameStack) top() *frame {
	if len(s) == 0 {
		return nil
	}
	return &s[len(s)-1]
}

func (s frameStack) handle() Frame {
	t := s.top()
	return Frame{offset: t.offset, depth: len(s), typ: t.typ}
}

// check verifies f is the top of the stack.
func (s frameStack) check(f Frame, phase errors.Phase) error {
	t := s.top()
	if t == nil {
		return errors.FrameMismatch(phase, f.offset, 0, 0)
	}
	if f.depth != len(s) || f.offset != t.offset || f.typ != t.typ {
		return errors.FrameMismatch(phase, f.offset, t.offset, len(s))
	}
	return nil
}

func (s frameStack) clone() frameStack {
	if len(s) == 0 {
		return nil
	}
	return append(frameStack(nil), s...)
}
