// Package bridge implements the forwarding seam between managed callers
// and an execution engine.
//
// A Bridge holds no state beyond the engine references it discovered at
// attach time. Every operation is a single synchronous forward: validate
// the handle-shaped arguments, call exactly one engine service, return its
// result verbatim. There are no retries, no fallback values, no caching,
// and no bridge-level error wrapping — a caller that supplies a bad handle
// sees the same error the engine would signal for that handle, because the
// pre-dispatch check constructs the identical error.
//
// # Operations
//
//	FreeMemory, TotalMemory, MaxMemory    memory meters
//	GC                                     fire-and-forget collection request
//	AvailableProcessors                    compute sizing
//	SizeOf, ReferencedObjects              object introspection (optional)
//	Unsafe().AddressOf / FieldOffsetOf /
//	         FieldSizeOf                   raw layout (optional, unsafe view)
//
// Engines advertise the optional services by implementing the
// introspection interfaces from the root package; missing services fail
// with an unsupported error, immediately and uniformly.
//
// # Attach-Time Compatibility
//
// New reads the engine's Capabilities once and refuses engines whose
// BridgeAPI targets a different major of the contract. That is the only
// negotiation that ever happens; afterwards the bridge assumes the engine
// honors the contract it declared.
//
// # Truncation Is Not An Error
//
// ReferencedObjects reports the total number of references found even when
// the caller's buffer holds fewer. Callers must compare the returned total
// against len(out) on every call; a larger buffer and a second call fetch
// the rest. No snapshot is promised across calls.
package bridge
