package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	runtimebridge "github.com/wippyai/runtime-bridge"
	"github.com/wippyai/runtime-bridge/bridge"
	"github.com/wippyai/runtime-bridge/heap"
	"github.com/wippyai/runtime-bridge/native"
	"github.com/wippyai/runtime-bridge/wasm"
)

func main() {
	var (
		engineName  = flag.String("engine", "heap", "Engine to attach: heap, native, or wasm")
		guestFile   = flag.String("guest", "", "Path to wasm guest binary (engine=wasm)")
		maxHeap     = flag.Uint64("max-heap", 64<<20, "Heap cap in bytes, 0 = unbounded (engine=heap)")
		snapshots   = flag.Int("n", 1, "Snapshots to print, 0 = until interrupted")
		interval    = flag.Duration("interval", time.Second, "Delay between snapshots")
		gcEach      = flag.Bool("gc", false, "Request a collection before each snapshot")
		churn       = flag.Bool("churn", false, "Run the synthetic mutator (engine=heap)")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Debug logging to stderr")
	)
	flag.Parse()

	if *verbose {
		setupLogging()
	}

	if *interactive {
		if err := runInteractive(*engineName, *guestFile, *maxHeap, *interval); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*engineName, *guestFile, *maxHeap, *snapshots, *interval, *gcEach, *churn); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogging() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	heap.SetLogger(logger)
	wasm.SetLogger(logger)
	bridge.SetLogger(logger)
}

// attach builds the requested engine and a bridge over it. The returned
// heap engine is non-nil only for -engine heap, where the mutator can
// drive it. cleanup releases the engine.
func attach(engineName, guestFile string, maxHeap uint64) (*bridge.Bridge, *heap.Engine, func(), error) {
	switch engineName {
	case "heap":
		eng, err := heap.New(heap.Config{MaxHeapBytes: maxHeap})
		if err != nil {
			return nil, nil, nil, err
		}
		b, err := bridge.New(eng)
		if err != nil {
			eng.Close()
			return nil, nil, nil, err
		}
		return b, eng, func() { eng.Close() }, nil

	case "native":
		eng, err := native.New()
		if err != nil {
			return nil, nil, nil, err
		}
		b, err := bridge.New(eng)
		if err != nil {
			eng.Close()
			return nil, nil, nil, err
		}
		return b, nil, func() { eng.Close() }, nil

	case "wasm":
		if guestFile == "" {
			return nil, nil, nil, fmt.Errorf("engine wasm needs -guest <file.wasm>")
		}
		data, err := os.ReadFile(guestFile)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("read guest: %w", err)
		}
		ctx := context.Background()
		eng, err := wasm.New(ctx, wasm.Config{Guest: data})
		if err != nil {
			return nil, nil, nil, err
		}
		b, err := bridge.New(eng)
		if err != nil {
			eng.Close(ctx)
			return nil, nil, nil, err
		}
		return b, nil, func() { eng.Close(ctx) }, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown engine %q (want heap, native, or wasm)", engineName)
	}
}

func run(engineName, guestFile string, maxHeap uint64, snapshots int, interval time.Duration, gcEach, churn bool) error {
	b, heapEng, cleanup, err := attach(engineName, guestFile, maxHeap)
	if err != nil {
		return err
	}
	defer cleanup()

	var mut *mutator
	if churn {
		if heapEng == nil {
			return fmt.Errorf("-churn needs the heap engine")
		}
		if mut, err = newMutator(heapEng); err != nil {
			return err
		}
	}

	caps := b.Capabilities()
	fmt.Printf("engine: %s %s (bridge API %s)\n", caps.Name, caps.Version, caps.BridgeAPI)
	fmt.Printf("procs:  %d\n\n", b.AvailableProcessors())

	for i := 0; snapshots == 0 || i < snapshots; i++ {
		if i > 0 {
			time.Sleep(interval)
		}
		if mut != nil {
			if err := mut.run(64); err != nil {
				return err
			}
		}
		if gcEach {
			b.GC()
		}
		fmt.Printf("free=%-12s total=%-12s max=%-12s\n",
			fmtBytes(b.FreeMemory()), fmtBytes(b.TotalMemory()), fmtMax(b.MaxMemory()))
	}
	return nil
}

func fmtBytes(n uint64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1fGiB", float64(n)/float64(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1fMiB", float64(n)/float64(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fKiB", float64(n)/float64(1<<10))
	default:
		return fmt.Sprintf("%dB", n)
	}
}

func fmtMax(n uint64) string {
	if n == runtimebridge.MemoryUnbounded {
		return "unbounded"
	}
	return fmtBytes(n)
}
