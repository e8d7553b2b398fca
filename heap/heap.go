package heap

import (
	"runtime"
	"sync"

	runtimebridge "github.com/wippyai/runtime-bridge"
	"github.com/wippyai/runtime-bridge/errors"
	"github.com/wippyai/runtime-bridge/handle"
)

// Version is the heap engine build version reported in Capabilities.
const Version = "1.0.0"

const defaultChunkBytes = 1 << 20

// Config holds configuration for engine creation.
type Config struct {
	// MaxHeapBytes caps how much memory the heap may claim.
	// 0 means unbounded.
	MaxHeapBytes uint64

	// ChunkBytes is the granularity the heap claims and returns memory in.
	// 0 means the 1 MiB default.
	ChunkBytes uint64
}

// Engine is a managed heap: objects of registered types, allocated against
// a configurable budget and reclaimed by a tracing collector. It is the
// reference engine for the bridge and implements every optional
// introspection service.
//
// All methods are safe for concurrent use. Collections stop the world:
// they run under the engine's write lock, so no operation ever observes a
// half-swept heap.
type Engine struct {
	cfg Config

	mu          sync.RWMutex
	objects     *handle.Table[handle.Object, *object]
	fields      *handle.Table[handle.Field, fieldRef]
	types       []*typeInfo
	typeIDs     map[string]TypeID
	used        uint64 // bytes held by live objects
	committed   uint64 // bytes claimed from the budget, in chunks
	collections uint64
	closed      bool
}

var (
	_ runtimebridge.Engine             = (*Engine)(nil)
	_ runtimebridge.ObjectIntrospector = (*Engine)(nil)
	_ runtimebridge.FieldIntrospector  = (*Engine)(nil)
)

// New creates a heap engine.
func New(cfg Config) (*Engine, error) {
	if cfg.ChunkBytes == 0 {
		cfg.ChunkBytes = defaultChunkBytes
	}

	return &Engine{
		cfg:     cfg,
		objects: handle.NewTable[handle.Object, *object](),
		fields:  handle.NewTable[handle.Field, fieldRef](),
		typeIDs: make(map[string]TypeID),
	}, nil
}

// FreeMemory returns the bytes available before the heap must claim more.
func (e *Engine) FreeMemory() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return 0
	}
	return e.committed - e.used
}

// TotalMemory returns the bytes the heap currently claims. It grows under
// allocation pressure and shrinks after a collection.
func (e *Engine) TotalMemory() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return 0
	}
	return e.committed
}

// MaxMemory returns the configured cap, or MemoryUnbounded without one.
func (e *Engine) MaxMemory() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return 0
	}
	if e.cfg.MaxHeapBytes == 0 {
		return runtimebridge.MemoryUnbounded
	}
	return e.cfg.MaxHeapBytes
}

// RequestGC runs a collection immediately. Requests against a closed
// engine are ignored.
func (e *Engine) RequestGC() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.collect("request")
}

// AvailableProcessors returns the parallelism available to the engine,
// always at least 1.
func (e *Engine) AvailableProcessors() int {
	return runtime.GOMAXPROCS(0)
}

// Capabilities identifies this engine build.
func (e *Engine) Capabilities() runtimebridge.Capabilities {
	return runtimebridge.Capabilities{
		Name:      "heap",
		Version:   Version,
		BridgeAPI: runtimebridge.APIVersion,
	}
}

// Close tears down the heap. All live handles go permanently stale;
// afterwards the meters report zero and collection requests are ignored.
// Close is idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true

	e.objects.Clear()
	e.fields.Clear()
	e.used = 0
	e.committed = 0
	return nil
}

// reserve grows the committed budget to fit need more bytes, collecting
// under pressure and failing with out-of-memory when the cap cannot fit
// the allocation. Callers hold the write lock.
func (e *Engine) reserve(need uint64) error {
	if e.used+need <= e.committed {
		return nil
	}

	limit := e.cfg.MaxHeapBytes
	if limit != 0 && e.used+need > limit {
		e.collect("allocation pressure")
		if e.used+need > limit {
			return errors.OutOfMemory("new", need, limit)
		}
	}

	want := roundChunk(e.used+need, e.cfg.ChunkBytes)
	if limit != 0 && want > limit {
		want = limit
	}
	e.committed = want
	return nil
}

func roundChunk(n, chunk uint64) uint64 {
	if n == 0 {
		return 0
	}
	return (n + chunk - 1) / chunk * chunk
}
