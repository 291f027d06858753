// Package ringbuffer implements a lock-free single-producer, single-consumer
// byte ring.
//
// The ring owns only two free-running uint32 indices. Storage is supplied
// by the caller on every data call, either as a byte slice or as a region of
// a podruntime.Memory such as wasm linear memory, so the same indices can
// describe storage shared with another process or a guest module.
//
// # Protocol
//
// Writer:
//
//	index, avail := rb.WriteIndex()
//	n := min(len(p), int(avail))
//	rb.WriteData(storage, index, p[:n])
//	rb.WriteUpdate(index + uint32(n))
//
// Reader:
//
//	index, avail := rb.ReadIndex()
//	n := min(len(p), int(avail))
//	rb.ReadData(storage, index, p[:n])
//	rb.ReadUpdate(index + uint32(n))
//
// Write and Read wrap these sequences.
//
// # Shared Header
//
// When the ring is shared through a podruntime.Memory, its indices live in an
// 8-byte header next to the storage. Each side keeps its own RingBuffer,
// calls Load before taking its index and publishes its own index with
// StoreWrite or StoreRead after the update.
//
// # Ordering
//
// WriteUpdate and ReadUpdate are atomic stores; WriteIndex and ReadIndex load
// the peer's index atomically. A reader that observes an index published by
// WriteUpdate also observes every byte copied by the WriteData calls before
// it, and symmetrically for the writer.
//
// The available counts are advisory. The ring never blocks and never checks
// that callers honour them: writing more than WriteIndex reports overwrites
// unread data, and reading more than ReadIndex reports returns stale bytes.
// The two indices must never drift more than 2^31 apart.
package ringbuffer
