// Package native exposes the host Go runtime as a bridge engine.
//
// Objects are ordinary Go values: Pin roots a pointer in the engine's
// table and mints a handle for it, and the introspection services answer
// with what reflection sees — SizeOf is the pointee type's size,
// FieldOffsetOf matches unsafe.Offsetof, and AddressOf is the pinned
// allocation's address plus the field offset. The Go runtime does not
// move heap objects, so addresses hold while the pin does; offsets remain
// compiler-specific and must not be persisted across builds.
//
// Memory meters read runtime.MemStats: TotalMemory is the heap claimed
// from the operating system and not yet returned, FreeMemory is the slack
// within it, and MaxMemory is the runtime's soft memory limit when one is
// set. RequestGC runs a full Go collection.
//
// AvailableProcessors re-reads the scheduling affinity mask on every call
// (on Linux), so callers see taskset and container CPU changes without
// restarting.
//
// # Limitations
//
// ReferencedObjects and FieldOf see exported struct fields only, and
// fields promoted through an embedded pointer have no flat offset in the
// pinned allocation, so FieldOf refuses them. Handles returned by
// ReferencedObjects are fresh pins: two listings of the same field yield
// two handles to the same value, and each needs its own Release.
package native
