// Package wasm adapts a WebAssembly instance to the bridge engine
// contract, metering the guest's linear memory through wazero.
//
// The engine owns a private wazero runtime, instantiates the guest
// binary into it, and reports the instance's memory through the three
// meters. It is the engine to attach when the managed program runs
// against a sandboxed guest rather than a host-managed heap.
//
// # Memory Model
//
// WebAssembly linear memory is a contiguous byte array that grows in
// 64 KiB pages and never shrinks. The meters map onto it directly:
//
//	TotalMemory  current size of linear memory
//	MaxMemory    declared maximum, or the runtime page limit
//	FreeMemory   MaxMemory - TotalMemory, the growth headroom
//
// A guest that declares no maximum is capped by the runtime
// configuration, 4 GiB by default, so MaxMemory is always finite here
// and never reports unbounded.
//
// # Collection Requests
//
// Linear memory has no host-visible collector, so RequestGC relays the
// request to the guest: if the module exports a niladic function named
// by Config.CollectorExport ("gc" by default), the engine invokes it
// and discards its results. Guests without the export receive nothing;
// the request stays advisory either way, and a trapping collector is
// logged and swallowed.
//
// # No Introspection
//
// The engine implements neither ObjectIntrospector nor
// FieldIntrospector. Linear memory carries no object identity the host
// could mint handles for, so size, reference, and layout queries
// against this engine fail with unsupported errors at the bridge.
package wasm
