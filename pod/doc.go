// Package pod implements the POD (plain old data) binary container format.
//
// A pod is a self-describing value: an 8-byte header followed by a body that
// is padded to the next 8-byte boundary. Pods nest, so a single buffer can
// carry structs, keyed objects, timed sequences and homogeneous arrays
// without any out-of-band schema.
//
// # Wire Layout
//
//	offset  size  field
//	──────────────────────────────────
//	0       4     body size (no padding)
//	4       4     type
//	8       size  body
//	8+size  pad   zero bytes to 8-byte alignment
//
// Composite bodies:
//
//	Struct    pod, pod, ...                   (each padded)
//	Object    type u32, id u32, prop, ...     prop = key u32, flags u32, pod
//	Sequence  unit u32, pad u32, control, ... control = offset u32, type u32, pod
//	Array     child size u32, child type u32, body, body, ...  (no padding)
//	Choice    choice type u32, flags u32, child size u32, child type u32, body, ...
//
// All integers are little-endian.
//
// # Key Types
//
//	Pod      - Read-only view of one value in a buffer
//	Builder  - Writes pods into a caller-provided buffer
//	Parser   - Walks pods with bounded, frame-based traversal
//	Frame    - Handle for an open composite on a Builder or Parser
//
// # Building
//
//	b := pod.NewBuilder(buf)
//	f, _ := b.PushObject(objType, id)
//	b.Prop(key, 0)
//	b.PushInt(42)
//	b.Pop(f)
//
// A Builder never writes past its buffer. A write that does not fit returns
// an Overflow error, but the offset and all open frames still grow by the
// bytes that would have been written. Building into an empty buffer is a dry
// run whose final Offset is the exact size required:
//
//	m := pod.NewBuilder(nil)
//	build(m)
//	buf := make([]byte, m.Offset())
//	build(pod.NewBuilder(buf))
//
// Inside an Array or Choice the first value writes a full header that becomes
// the child header; subsequent values write bodies only and must match it.
//
// # Parsing
//
//	p := pod.NewParser(buf)
//	f, typ, id, _ := p.PushObject()
//	for {
//		key, _, err := p.Prop()
//		if err != nil {
//			break
//		}
//		v, _ := p.Next()
//		...
//	}
//	p.Pop(f)
//
// Typed getters (GetInt, GetString, ...) advance only on success; on a
// TypeMismatch the parser position is unchanged so the caller can try
// another type.
//
// # Concurrency
//
// Builders and parsers are not safe for concurrent use. Pod views are
// immutable but alias the buffer they came from.
package pod
