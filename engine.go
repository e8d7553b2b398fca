package runtimebridge

import (
	"github.com/wippyai/runtime-bridge/handle"
)

// APIVersion is the bridge contract version this package implements.
// Engines report the contract they target in Capabilities.BridgeAPI; the
// bridge refuses engines whose target falls outside this major version.
const APIVersion = "1.0.0"

// MemoryUnbounded is returned by MaxMemory when the engine imposes no
// configured ceiling on its memory.
const MemoryUnbounded = ^uint64(0)

// Capabilities identifies an engine build and the bridge contract it targets.
type Capabilities struct {
	Name      string // engine name, e.g. "heap"
	Version   string // engine build version
	BridgeAPI string // semver of the bridge contract the engine targets
}

// MemoryMeter reports an engine's memory accounting. The three scalars are
// sampled independently: there is no transactional snapshot across them, and
// each call observes engine state at the time of that call only.
type MemoryMeter interface {
	// FreeMemory returns an approximation of the bytes currently available
	// for allocation.
	FreeMemory() uint64

	// TotalMemory returns the bytes currently claimed by the engine's heap.
	// May grow or shrink over the engine's lifetime.
	TotalMemory() uint64

	// MaxMemory returns the most bytes the heap will ever claim, or
	// MemoryUnbounded when no ceiling is configured.
	MaxMemory() uint64
}

// Collector accepts garbage collection requests.
type Collector interface {
	// RequestGC suggests that now is a good time to collect garbage. The
	// request is fire-and-forget: the engine may collect immediately, later,
	// or not at all, and no completion signal exists.
	RequestGC()
}

// ProcessorCounter reports compute resources available to the engine.
type ProcessorCounter interface {
	// AvailableProcessors returns the number of processors the engine may
	// use, always at least 1. The value can change over the process
	// lifetime as the host reassigns resources.
	AvailableProcessors() int
}

// Engine is the surface every execution engine exposes to the bridge.
// Introspection services are optional: engines advertise them by also
// implementing ObjectIntrospector and FieldIntrospector, which the bridge
// discovers by type assertion.
type Engine interface {
	MemoryMeter
	Collector
	ProcessorCounter

	// Capabilities identifies the engine build. The bridge reads it once,
	// at attach time.
	Capabilities() Capabilities
}

// ObjectIntrospector is implemented by engines that can describe their live
// objects. Handles are borrowed: passing one to these methods never
// transfers ownership, and the engine remains free to reclaim the object
// once the caller's reference lapses.
type ObjectIntrospector interface {
	// SizeOf returns the shallow size in bytes of the object's own storage,
	// excluding anything it references.
	SizeOf(obj handle.Object) (uint64, error)

	// ReferencedObjects finds the objects obj directly references, writes
	// up to len(out) of their handles into out, and returns the total
	// found. A total exceeding len(out) means the listing was truncated;
	// callers re-invoke with a larger buffer. Repeated calls see the object
	// as it is then, not a snapshot.
	ReferencedObjects(obj handle.Object, out []handle.Object) (int, error)
}

// FieldIntrospector is implemented by engines that expose raw object layout.
// All three results describe engine-internal layout that may change across
// engine builds and, for addresses, across collections; see bridge.Unsafe.
type FieldIntrospector interface {
	// AddressOf returns the raw address of the field's storage. Valid only
	// while the containing object is pinned or the engine never moves
	// objects; may go stale the moment it is returned.
	AddressOf(f handle.Field) (uintptr, error)

	// FieldOffsetOf returns the byte offset of the field within its
	// containing object's layout.
	FieldOffsetOf(f handle.Field) (uint64, error)

	// FieldSizeOf returns the byte size of the field's storage.
	FieldSizeOf(f handle.Field) (uint64, error)
}
