package wasmmem

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/pod-runtime/errors"
)

// PageSize is the size of one wasm memory page.
const PageSize = 65536

// ExportName is the name under which Instantiate exports its memory.
const ExportName = "mem"

// moduleBinary assembles a wasm module with no code that defines one memory
// of pages pages and exports it as ExportName.
func moduleBinary(pages uint32) []byte {
	bin := []byte{0x00, 'a', 's', 'm', 0x01, 0x00, 0x00, 0x00}

	// memory section: one memory, min pages, no max
	mem := appendULEB128([]byte{0x01, 0x00}, pages)
	bin = append(bin, 0x05)
	bin = appendULEB128(bin, uint32(len(mem)))
	bin = append(bin, mem...)

	// export section: ExportName -> memory 0
	exp := []byte{0x01}
	exp = appendULEB128(exp, uint32(len(ExportName)))
	exp = append(exp, ExportName...)
	exp = append(exp, 0x02, 0x00)
	bin = append(bin, 0x07)
	bin = appendULEB128(bin, uint32(len(exp)))
	return append(bin, exp...)
}

func appendULEB128(b []byte, v uint32) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(b, c)
		}
		b = append(b, c|0x80)
	}
}

// Instantiate creates a module named name in rt whose only content is an
// exported linear memory of pages pages, and returns the module and an
// adapter over its memory. Close the module to release the memory.
func Instantiate(ctx context.Context, rt wazero.Runtime, name string, pages uint32) (api.Module, *Memory, error) {
	mod, err := rt.InstantiateWithConfig(ctx, moduleBinary(pages), wazero.NewModuleConfig().WithName(name))
	if err != nil {
		return nil, nil, errors.Wrap(errors.PhaseMemory, errors.KindInvalidInput, err, "instantiate memory module")
	}
	mem := mod.ExportedMemory(ExportName)
	if mem == nil {
		_ = mod.Close(ctx)
		return nil, nil, errors.NotFound(errors.PhaseMemory, "exported memory", ExportName)
	}
	Logger().Debug("memory module instantiated",
		zap.String("module", name),
		zap.Uint32("pages", pages))
	return mod, New(mem), nil
}
