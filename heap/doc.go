// Package heap provides the reference engine for the bridge: a managed
// heap with registered object types, pin-based rooting, and a tracing
// collector.
//
// This is the engine to test callers against, because it implements every
// optional introspection service and enforces the full handle discipline.
//
// # Object Model
//
// Types are registered up front. A registered type fixes its layout: a
// 16-byte header, then each field at its natural alignment in declaration
// order, with the object size rounded up to 8 bytes.
//
//	Field Kind    Storage                   Traced
//	──────────────────────────────────────────────
//	KindScalar    1, 2, 4, or 8 bytes       no
//	KindRef       8 bytes (object token)    yes
//
// Objects allocate against a budget: the heap claims committed memory in
// chunks as allocations demand it and returns it after collections. With a
// MaxHeapBytes cap, an allocation that cannot fit triggers a collection
// and then fails with an out-of-memory error if it still cannot fit.
//
// # Pins and Collection
//
// Every object carries a pin count. New returns an object pinned once; Ref
// and ReferencedObjects pin what they hand out; Release removes one pin.
// Pinned objects are collection roots. The collector is a stop-the-world
// mark/sweep: it marks everything reachable from the roots through KindRef
// fields and reclaims the rest.
//
// A handle is not a pin by itself. Once an object's pins drop to zero its
// handles keep working, but only until a collection reclaims the object —
// after that they fail with an invalid-handle error forever, because slot
// generations never repeat a token.
//
// # Field Descriptors
//
// FieldOf resolves a named field against a live object and mints a Field
// descriptor for the layout services (AddressOf, FieldOffsetOf,
// FieldSizeOf). A descriptor does not keep its object alive; once the
// object is collected every operation on the descriptor fails exactly
// like a stale object handle. Descriptors are released explicitly with
// ReleaseField.
//
// # Thread Safety
//
// All methods are safe for concurrent use. Collections run under the
// engine's write lock, so no caller ever observes a half-swept heap.
package heap
