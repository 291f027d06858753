// Package value converts between pods and an owned Go value tree.
//
// pod.Pod views borrow their buffer, which suits zero-copy parsing but not
// long-lived data. Value is the detached form: every pod kind has a Go type
// here, and a whole tree can be built in Go, encoded with Marshal and decoded
// with Unmarshal.
//
//	v := value.Object{
//		Type: 0x40003,
//		ID:   3,
//		Props: []value.Prop{
//			{Key: 1, Value: value.ID(2)},
//			{Key: 3, Value: value.Choice{
//				Type:   pod.ChoiceRange,
//				Values: []value.Value{value.Int(48000), value.Int(1), value.Int(192000)},
//			}},
//		},
//	}
//	buf, err := value.Marshal(v)
//
// Marshal measures the tree with a dry-run builder first and then encodes it
// into a buffer of exactly that size. Serialize writes into an existing
// Builder, which lets a value be embedded in a larger pod.
package value
