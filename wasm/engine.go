package wasm

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	runtimebridge "github.com/wippyai/runtime-bridge"
	"github.com/wippyai/runtime-bridge/errors"
)

// Version is the wasm engine build version reported in Capabilities.
const Version = "1.0.0"

// pageBytes is the WebAssembly linear memory page size (64 KiB).
const pageBytes = 65536

// defaultMaxPages is wazero's memory ceiling when neither the guest nor
// the engine config declares one (65536 pages = 4 GiB, the wasm32 limit).
const defaultMaxPages = 65536

// DefaultCollectorExport is the guest function RequestGC calls when
// Config.CollectorExport is empty.
const DefaultCollectorExport = "gc"

// Config holds configuration for engine creation.
type Config struct {
	// Guest is the WebAssembly binary to instantiate. The module must
	// define a linear memory; the engine meters that memory.
	Guest []byte

	// MemoryLimitPages caps the instance's linear memory in pages
	// (64KB each). 0 means the wazero default (65536 pages = 4GB).
	MemoryLimitPages uint32

	// CollectorExport names the guest function RequestGC invokes.
	// Empty means DefaultCollectorExport. The export must take no
	// parameters; results are discarded.
	CollectorExport string
}

// Engine meters the linear memory of a WebAssembly instance and relays
// collection requests to the guest. The guest's memory follows wasm
// growth semantics: total only moves when the guest grows it, and free
// is the headroom left under the declared ceiling.
//
// The engine exposes no object or field introspection. Linear memory is
// a flat byte array with no object identity the host could hand out, so
// those services report unsupported at the seam above.
type Engine struct {
	runtime  wazero.Runtime
	module   api.Module
	maxBytes uint64

	mu        sync.RWMutex
	collector api.Function
	closed    bool
}

var _ runtimebridge.Engine = (*Engine)(nil)

// New instantiates cfg.Guest in a fresh wazero runtime and returns an
// engine metering it. The engine owns the runtime; Close releases both.
func New(ctx context.Context, cfg Config) (*Engine, error) {
	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}

	r := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	mod, err := r.Instantiate(ctx, cfg.Guest)
	if err != nil {
		r.Close(ctx)
		return nil, errors.Incompatible("instantiate", "guest module rejected", err)
	}

	mem := mod.Memory()
	if mem == nil {
		r.Close(ctx)
		return nil, errors.Incompatible("instantiate", "guest defines no linear memory", nil)
	}

	exportName := cfg.CollectorExport
	if exportName == "" {
		exportName = DefaultCollectorExport
	}

	e := &Engine{
		runtime:   r,
		module:    mod,
		maxBytes:  memoryCeiling(mem, cfg.MemoryLimitPages),
		collector: mod.ExportedFunction(exportName),
	}

	Logger().Debug("guest instantiated",
		zap.String("module", mod.Name()),
		zap.Uint64("memory_bytes", uint64(mem.Size())),
		zap.Uint64("max_bytes", e.maxBytes),
		zap.Bool("collector", e.collector != nil))
	return e, nil
}

// memoryCeiling resolves the memory cap: the guest's declared maximum
// when present, otherwise the runtime limit the engine was built with.
func memoryCeiling(mem api.Memory, limitPages uint32) uint64 {
	pages := uint64(defaultMaxPages)
	if limitPages > 0 {
		pages = uint64(limitPages)
	}
	if declared, ok := mem.Definition().Max(); ok && uint64(declared) < pages {
		pages = uint64(declared)
	}
	return pages * pageBytes
}

// FreeMemory returns the headroom left before linear memory hits its
// ceiling: the guest can grow by exactly this many bytes.
func (e *Engine) FreeMemory() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return 0
	}
	size := uint64(e.module.Memory().Size())
	if size > e.maxBytes {
		return 0
	}
	return e.maxBytes - size
}

// TotalMemory returns the current byte size of the guest's linear
// memory. It moves only when the guest grows it.
func (e *Engine) TotalMemory() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return 0
	}
	return uint64(e.module.Memory().Size())
}

// MaxMemory returns the memory ceiling: the guest's declared maximum,
// or the runtime page limit when the guest declares none.
func (e *Engine) MaxMemory() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return 0
	}
	return e.maxBytes
}

// RequestGC invokes the guest's collector export, when it has one.
// Guests without the export keep the request advisory: it is dropped.
// Collector traps are logged and swallowed; a collection request never
// fails the caller.
func (e *Engine) RequestGC() {
	e.mu.RLock()
	fn := e.collector
	closed := e.closed
	e.mu.RUnlock()

	if closed || fn == nil {
		return
	}
	if _, err := fn.Call(context.Background()); err != nil {
		Logger().Warn("guest collector failed", zap.Error(err))
	}
}

// AvailableProcessors returns 1: a wasm instance executes on a single
// thread regardless of host parallelism.
func (e *Engine) AvailableProcessors() int {
	return 1
}

// Capabilities identifies this engine build.
func (e *Engine) Capabilities() runtimebridge.Capabilities {
	return runtimebridge.Capabilities{
		Name:      "wasm",
		Version:   Version,
		BridgeAPI: runtimebridge.APIVersion,
	}
}

// Close tears down the guest instance and its runtime. Afterwards the
// meters report zero and collection requests are ignored. Close is
// idempotent.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	e.collector = nil
	return e.runtime.Close(ctx)
}
