package native

import (
	"reflect"
	"runtime"
	"runtime/debug"
	"sync"

	runtimebridge "github.com/wippyai/runtime-bridge"
	"github.com/wippyai/runtime-bridge/errors"
	"github.com/wippyai/runtime-bridge/handle"
)

// Version is the native engine build version reported in Capabilities.
const Version = "1.0.0"

// Engine exposes the host Go runtime through the bridge contracts. Objects
// are real Go values pinned into the engine's table; memory meters read
// the Go heap, collection requests run the Go collector, and the layout
// services report what reflection reports.
//
// The Go runtime does not move heap objects, so addresses stay valid while
// the value is pinned. Everything else about layout is still build
// specific: field offsets change with the compiler version.
type Engine struct {
	mu      sync.RWMutex
	objects *handle.Table[handle.Object, reflect.Value]
	fields  *handle.Table[handle.Field, fieldRef]
	closed  bool
}

// fieldRef is a field descriptor: a struct field resolved against a pinned
// object. offset is absolute within the pinned allocation, with promoted
// fields' embedding chain already folded in.
type fieldRef struct {
	obj    handle.Object
	field  reflect.StructField
	offset uintptr
}

var (
	_ runtimebridge.Engine             = (*Engine)(nil)
	_ runtimebridge.ObjectIntrospector = (*Engine)(nil)
	_ runtimebridge.FieldIntrospector  = (*Engine)(nil)
)

// New creates a native engine.
func New() (*Engine, error) {
	return &Engine{
		objects: handle.NewTable[handle.Object, reflect.Value](),
		fields:  handle.NewTable[handle.Field, fieldRef](),
	}, nil
}

// Pin roots a Go value in the engine and returns its handle. v must be a
// non-nil pointer; the pointee is the object the handle describes. The
// table's reference keeps the value live until Release.
func (e *Engine) Pin(v any) (handle.Object, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return 0, errors.Closed("pin")
	}

	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Pointer {
		return 0, errors.InvalidInput("pin", "value is not a pointer")
	}
	if rv.IsNil() {
		return 0, errors.InvalidInput("pin", "nil pointer")
	}
	return e.objects.Insert(rv), nil
}

// Release drops a pinned value. The handle goes permanently stale; the
// value itself lives on for as long as the caller's own references do.
func (e *Engine) Release(obj handle.Object) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return errors.Closed("release")
	}
	if obj == 0 {
		return errors.InvalidHandle("release", "zero handle")
	}
	if _, ok := e.objects.Remove(obj); !ok {
		return errors.InvalidHandle("release", "stale or dead handle")
	}
	return nil
}

// ReleaseField returns a field descriptor to the engine.
func (e *Engine) ReleaseField(f handle.Field) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return errors.Closed("release_field")
	}
	if f == 0 {
		return errors.InvalidHandle("release_field", "zero handle")
	}
	if _, ok := e.fields.Remove(f); !ok {
		return errors.InvalidHandle("release_field", "stale or dead handle")
	}
	return nil
}

// FreeMemory returns the bytes available on the Go heap before it must
// grow: currently claimed memory minus live allocations.
func (e *Engine) FreeMemory() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return 0
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	total := ms.HeapSys - ms.HeapReleased
	if ms.HeapAlloc > total {
		return 0
	}
	return total - ms.HeapAlloc
}

// TotalMemory returns the bytes the Go heap currently claims from the
// operating system.
func (e *Engine) TotalMemory() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return 0
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapSys - ms.HeapReleased
}

// MaxMemory returns the runtime's soft memory limit, or MemoryUnbounded
// when none is set.
func (e *Engine) MaxMemory() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return 0
	}

	limit := debug.SetMemoryLimit(-1)
	if limit == int64(^uint64(0)>>1) {
		return runtimebridge.MemoryUnbounded
	}
	return uint64(limit)
}

// RequestGC runs a Go collection. Requests against a closed engine are
// ignored.
func (e *Engine) RequestGC() {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return
	}
	runtime.GC()
}

// AvailableProcessors returns the CPUs the process may schedule on, always
// at least 1. The count is re-read on every call: affinity masks and
// container quotas change while the process runs.
func (e *Engine) AvailableProcessors() int {
	if n := availableProcessors(); n > 0 {
		return n
	}
	return 1
}

// Capabilities identifies this engine build.
func (e *Engine) Capabilities() runtimebridge.Capabilities {
	return runtimebridge.Capabilities{
		Name:      "native",
		Version:   Version,
		BridgeAPI: runtimebridge.APIVersion,
	}
}

// Close unpins everything. Handles go permanently stale, meters report
// zero, and collection requests are ignored. Close is idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	e.objects.Clear()
	e.fields.Clear()
	return nil
}

// lookup resolves an object handle to the pinned pointer value.
func (e *Engine) lookup(op string, obj handle.Object) (reflect.Value, error) {
	if obj == 0 {
		return reflect.Value{}, errors.InvalidHandle(op, "zero handle")
	}
	rv, ok := e.objects.Get(obj)
	if !ok {
		return reflect.Value{}, errors.InvalidHandle(op, "stale or dead handle")
	}
	return rv, nil
}
