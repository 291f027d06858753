// Package podruntime reads and writes POD values, the self-describing binary
// containers used to exchange formats, properties and control data between
// processes and wasm guests.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	podruntime/          Root package with the Memory interface and SliceMemory
//	├── pod/             Wire format: Pod views, Builder and Parser
//	├── value/           Owned value trees, Serialize and Deserialize
//	├── ringbuffer/      Lock-free single producer, single consumer ring indices
//	├── wasmmem/         Memory over wazero linear memory
//	├── debug/           Labelled tree dumps with a name registry
//	├── errors/          Structured error types for debugging
//	└── cmd/podtool/     Dump, demo and browse pod files
//
// # Quick Start
//
// Build a pod, measuring first:
//
//	m := pod.NewBuilder(nil)
//	write(m)
//	buf := make([]byte, m.Offset())
//	write(pod.NewBuilder(buf))
//
// Or go through values:
//
//	data, err := value.Marshal(value.Object{
//	    Type: 0x40003,
//	    ID:   3,
//	    Props: []value.Prop{
//	        {Key: 1, Value: value.ID(1)},
//	    },
//	})
//
//	v, err := value.Unmarshal(data)
//
// Print it:
//
//	p, _ := pod.FromBytes(data)
//	debug.Dump(os.Stdout, p, debug.DefaultRegistry())
//
// # Shared Memory
//
// Pods and ring buffers can live in any Memory. SliceMemory wraps a host
// slice; wasmmem.Memory wraps a wazero guest's linear memory, so a host and a
// guest can stream pods through one ring without copying them elsewhere.
//
// # Thread Safety
//
// Builders, parsers and registries are NOT thread-safe. Pod views and value
// trees are immutable once built. A RingBuffer is safe for exactly one writer
// and one reader goroutine.
package podruntime
