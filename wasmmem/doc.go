// Package wasmmem exposes wazero linear memory as a podruntime.Memory.
//
// Pods and ring storage can live in guest memory so a host and a wasm module
// exchange data without copying through host buffers:
//
//	rt := wazero.NewRuntime(ctx)
//	mod, mem, err := wasmmem.Instantiate(ctx, rt, "shared", 1)
//	rb, _ := ringbuffer.New(4096)
//	rb.WriteMemory(mem, base, index, payload)
//
// Memory also works over the memory exported by any instantiated guest:
//
//	mem := wasmmem.New(guest.ExportedMemory("memory"))
package wasmmem
