package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseBuild       Phase = "build"       // builder writes
	PhaseParse       Phase = "parse"       // parser reads
	PhaseRing        Phase = "ring"        // ringbuffer storage access
	PhaseSerialize   Phase = "serialize"   // value tree to pod
	PhaseDeserialize Phase = "deserialize" // pod to value tree
	PhaseDump        Phase = "dump"        // debug rendering
	PhaseConfig      Phase = "config"      // registry/config loading
	PhaseMemory      Phase = "memory"      // Memory implementations
)

// Kind categorizes the error
type Kind string

const (
	KindOverflow      Kind = "overflow"
	KindEndOfData     Kind = "end_of_data"
	KindTypeMismatch  Kind = "type_mismatch"
	KindFrameMismatch Kind = "frame_mismatch"
	KindInvalidState  Kind = "invalid_state"
	KindOutOfRange    Kind = "out_of_range"
	KindInvalidData   Kind = "invalid_data"
	KindInvalidInput  Kind = "invalid_input"
	KindUnsupported   Kind = "unsupported"
	KindNotFound      Kind = "not_found"
)

// Sentinels match any error of the same Kind regardless of phase.
var (
	ErrOverflow      = &Error{Kind: KindOverflow}
	ErrEndOfData     = &Error{Kind: KindEndOfData}
	ErrTypeMismatch  = &Error{Kind: KindTypeMismatch}
	ErrFrameMismatch = &Error{Kind: KindFrameMismatch}
	ErrInvalidState  = &Error{Kind: KindInvalidState}
	ErrOutOfRange    = &Error{Kind: KindOutOfRange}
	ErrInvalidData   = &Error{Kind: KindInvalidData}
	ErrInvalidInput  = &Error{Kind: KindInvalidInput}
	ErrUnsupported   = &Error{Kind: KindUnsupported}
	ErrNotFound      = &Error{Kind: KindNotFound}
)

// Error is the structured error type used throughout the module
type Error struct {
	Value     any
	Cause     error
	Phase     Phase
	Kind      Kind
	Want      string
	Got       string
	Detail    string
	Path      []string
	Offset    uint32
	HasOffset bool
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Phase != "" {
		b.WriteByte('[')
		b.WriteString(string(e.Phase))
		b.WriteString("] ")
	}
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}
	if e.HasOffset {
		fmt.Fprintf(&b, " @%d", e.Offset)
	}

	if e.Want != "" || e.Got != "" {
		b.WriteString(": ")
		switch {
		case e.Want != "" && e.Got != "":
			b.WriteString("want ")
			b.WriteString(e.Want)
			b.WriteString(", got ")
			b.WriteString(e.Got)
		case e.Want != "":
			b.WriteString("want ")
			b.WriteString(e.Want)
		default:
			b.WriteString("got ")
			b.WriteString(e.Got)
		}
	}

	if e.Detail != "" {
		if e.Want != "" || e.Got != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. A target without a phase
// matches on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase == "" {
		return e.Kind == t.Kind
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the element path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// At records the buffer offset the error refers to
func (b *Builder) At(offset uint32) *Builder {
	b.err.Offset = offset
	b.err.HasOffset = true
	return b
}

// Want sets the expected type or shape
func (b *Builder) Want(s string) *Builder {
	b.err.Want = s
	return b
}

// Got sets the observed type or shape
func (b *Builder) Got(s string) *Builder {
	b.err.Got = s
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Overflow reports a write that does not fit the destination capacity.
func Overflow(phase Phase, offset, needed, capacity uint32) *Error {
	return &Error{
		Phase:     phase,
		Kind:      KindOverflow,
		Offset:    offset,
		HasOffset: true,
		Detail:    fmt.Sprintf("need %d bytes, capacity %d", needed, capacity),
		Value:     needed,
	}
}

// EndOfData reports an exhausted parser bound.
func EndOfData(phase Phase, offset, bound uint32) *Error {
	return &Error{
		Phase:     phase,
		Kind:      KindEndOfData,
		Offset:    offset,
		HasOffset: true,
		Detail:    fmt.Sprintf("bound %d reached", bound),
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, want, got string) *Error {
	return &Error{
		Phase: phase,
		Kind:  KindTypeMismatch,
		Want:  want,
		Got:   got,
	}
}

// FrameMismatch reports a pop of a frame that is not the top of the stack.
func FrameMismatch(phase Phase, frameOffset, topOffset uint32, depth int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindFrameMismatch,
		Detail: fmt.Sprintf("frame at %d is not the top frame (top at %d, depth %d)", frameOffset, topOffset, depth),
		Value:  frameOffset,
	}
}

// InvalidState reports an operation issued in the wrong frame context.
func InvalidState(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidState,
		Detail: detail,
	}
}

// OutOfRange creates an out of range error
func OutOfRange(phase Phase, offset, limit uint32) *Error {
	return &Error{
		Phase:     phase,
		Kind:      KindOutOfRange,
		Offset:    offset,
		HasOffset: true,
		Detail:    fmt.Sprintf("offset %d outside written range (limit %d)", offset, limit),
		Value:     offset,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Is is errors.Is from the standard library, re-exported so callers need a
// single errors import.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As is errors.As from the standard library.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}
