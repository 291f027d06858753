package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/pod-runtime/debug"
	"github.com/wippyai/pod-runtime/pod"
	"github.com/wippyai/pod-runtime/ringbuffer"
	"github.com/wippyai/pod-runtime/wasmmem"
)

func main() {
	var (
		demoFile    = flag.String("demo", "", "Write a demo pod to file")
		dumpFile    = flag.String("dump", "", "Pod file to dump")
		configFile  = flag.String("config", "", "TOML file with extra type names")
		ring        = flag.Bool("ring", false, "Stream the pod through a ring buffer in wasm memory")
		ringSize    = flag.Uint("ring-size", 1024, "Ring capacity in bytes (power of two)")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	if *demoFile == "" && *dumpFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: podtool -demo <out.pod>")
		fmt.Fprintln(os.Stderr, "       podtool -dump <file.pod> [-config names.toml] [-ring [-ring-size n]] [-v]")
		fmt.Fprintln(os.Stderr, "       podtool -dump <file.pod> -i  (interactive mode)")
		os.Exit(1)
	}

	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer l.Sync()
		pod.SetLogger(l)
		wasmmem.SetLogger(l)
	}

	if err := run(*demoFile, *dumpFile, *configFile, *ring, uint32(*ringSize), *interactive); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(demoFile, dumpFile, configFile string, ring bool, ringSize uint32, interactive bool) error {
	if demoFile != "" {
		data, err := buildDemo()
		if err != nil {
			return fmt.Errorf("build demo: %w", err)
		}
		if err := os.WriteFile(demoFile, data, 0o644); err != nil {
			return fmt.Errorf("write demo: %w", err)
		}
		fmt.Printf("Wrote %d bytes to %s\n", len(data), demoFile)
	}
	if dumpFile == "" {
		return nil
	}

	reg, err := loadRegistry(configFile)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(dumpFile)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	if ring {
		if data, err = throughRing(context.Background(), data, ringSize); err != nil {
			return fmt.Errorf("ring: %w", err)
		}
	}

	p, err := pod.FromBytes(data)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	if interactive {
		return runInteractive(dumpFile, p, reg)
	}
	return dump(os.Stdout, p, reg, term.IsTerminal(int(os.Stdout.Fd())))
}

func loadRegistry(path string) (*debug.Registry, error) {
	reg := debug.DefaultRegistry()
	if path == "" {
		return reg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	if err := reg.LoadTOML(f); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return reg, nil
}

var kindStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#87CEEB"))

// styleLabel highlights the leading kind word of a dump label.
func styleLabel(label string) string {
	end := strings.IndexAny(label, ": ")
	if end < 0 {
		return kindStyle.Render(label)
	}
	return kindStyle.Render(label[:end]) + label[end:]
}

func dump(w io.Writer, p pod.Pod, reg *debug.Registry, color bool) error {
	root, err := debug.Tree(p, reg)
	if err != nil {
		return err
	}
	return debug.Walk(root, func(n *debug.Node, depth int) error {
		label := n.Label
		if color {
			label = styleLabel(label)
		}
		_, err := fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), label)
		return err
	})
}

// buildDemo writes the demo pod. The builder starts without a buffer and
// grows it on overflow.
func buildDemo() ([]byte, error) {
	b := pod.NewBuilder(nil, pod.WithOverflow(func(needed uint32) []byte {
		return make([]byte, needed*2)
	}))
	if err := writeDemo(b); err != nil {
		return nil, err
	}
	if b.Overflowed() {
		return nil, fmt.Errorf("demo pod needs %d bytes", b.Offset())
	}
	return b.Bytes(), nil
}

// writeDemo writes an audio format negotiation pod into b and returns the
// first error any write reported.
func writeDemo(b *pod.Builder) error {
	var first error
	check := func(err error) {
		if first == nil && err != nil {
			first = err
		}
	}
	push := func(_ uint32, err error) { check(err) }
	open := func(f pod.Frame, err error) pod.Frame {
		check(err)
		return f
	}

	st := open(b.PushStruct())

	obj := open(b.PushObject(debug.ObjectFormat, 3))
	check(b.Prop(debug.FormatMediaType, 0))
	push(b.PushID(1))
	check(b.Prop(debug.FormatMediaSubtype, 0))
	push(b.PushID(1))
	check(b.Prop(debug.FormatAudioRate, 0))
	rate := open(b.PushChoice(pod.ChoiceRange, 0))
	push(b.PushInt(48000))
	push(b.PushInt(1))
	push(b.PushInt(384000))
	check(b.Pop(rate))
	check(b.Prop(debug.FormatAudioChannels, pod.PropMandatory))
	push(b.PushInt(2))
	check(b.Prop(debug.FormatAudioPosition, 0))
	push(b.IDArray([]uint32{3, 4}))
	check(b.Pop(obj))

	seq := open(b.PushSequence(0))
	check(b.Control(0, 2))
	push(b.PushBytes([]byte{0x90, 0x3c, 0x7f}))
	check(b.Control(480, 2))
	push(b.PushBytes([]byte{0x80, 0x3c, 0x00}))
	check(b.Pop(seq))

	push(b.PushString("podtool demo"))
	push(b.PushRectangle(pod.Rectangle{Width: 1920, Height: 1080}))
	push(b.PushFraction(pod.Fraction{Num: 30, Denom: 1}))
	check(b.Pop(st))
	return first
}

// throughRing streams data through a ring whose header and storage live in
// the linear memory of a wasm module, with separate writer and reader views
// that only share the header, and returns what comes out the other side.
func throughRing(ctx context.Context, data []byte, capacity uint32) ([]byte, error) {
	const (
		header = 64
		base   = 4096
	)

	writer, err := ringbuffer.New(capacity)
	if err != nil {
		return nil, err
	}
	reader, err := ringbuffer.New(capacity)
	if err != nil {
		return nil, err
	}

	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	_, mem, err := wasmmem.Instantiate(ctx, rt, "podtool-ring", 1)
	if err != nil {
		return nil, err
	}
	if need := uint64(base) + uint64(capacity); need > uint64(mem.Size()) {
		pages := (need - uint64(mem.Size()) + wasmmem.PageSize - 1) / wasmmem.PageSize
		if _, err := mem.Grow(uint32(pages)); err != nil {
			return nil, err
		}
	}
	if err := writer.StoreWrite(mem, header); err != nil {
		return nil, err
	}
	if err := reader.StoreRead(mem, header); err != nil {
		return nil, err
	}

	chunk := int(max(capacity/3, 1))
	out := make([]byte, 0, len(data))
	for sent := 0; len(out) < len(data); {
		if err := writer.Load(mem, header); err != nil {
			return nil, err
		}
		idx, space := writer.WriteIndex()
		if n := min(int(space), chunk, len(data)-sent); n > 0 {
			if err := writer.WriteMemory(mem, base, idx, data[sent:sent+n]); err != nil {
				return nil, err
			}
			writer.WriteUpdate(idx + uint32(n))
			if err := writer.StoreWrite(mem, header); err != nil {
				return nil, err
			}
			sent += n
		}

		if err := reader.Load(mem, header); err != nil {
			return nil, err
		}
		idx, avail := reader.ReadIndex()
		if avail > 0 {
			buf := make([]byte, avail)
			if err := reader.ReadMemory(mem, base, idx, buf); err != nil {
				return nil, err
			}
			reader.ReadUpdate(idx + uint32(avail))
			if err := reader.StoreRead(mem, header); err != nil {
				return nil, err
			}
			out = append(out, buf...)
		}
	}
	return out, nil
}
