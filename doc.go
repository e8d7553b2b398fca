// Package runtimebridge defines the seam between managed application code
// and the execution engine that owns memory, objects, and layout.
//
// The bridge is a stateless pass-through: it validates handles at the
// boundary, forwards each operation to exactly one engine service, and
// returns whatever the engine produced. It holds no caches, no locks, and
// no mutable state, so arbitrary concurrent callers observe exactly the
// thread-safety the engine itself provides.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	runtimebridge/       Root package with the Engine contracts
//	├── bridge/          The stateless forwarding layer callers hold
//	├── handle/          Opaque generation-checked tokens and their tables
//	├── heap/            Reference engine: managed heap with a tracing collector
//	├── native/          Engine over the host process runtime
//	├── wasm/            Engine over a WebAssembly instance's linear memory
//	├── errors/          Structured error types shared by bridge and engines
//	└── cmd/bridgemon/   Interactive memory monitor over any engine
//
// # Quick Start
//
// Attach a bridge to an engine and query it:
//
//	eng, err := heap.New(heap.Config{MaxHeapBytes: 64 << 20})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close()
//
//	b, err := bridge.New(eng)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println(b.FreeMemory(), b.TotalMemory(), b.MaxMemory())
//	b.GC()
//
// # Handles
//
// Objects and fields cross the boundary as typed, non-owning tokens minted
// by the engine (see the handle package). Passing a handle to the bridge
// never transfers ownership and never pins anything: the engine remains
// free to reclaim an object once the caller's own reference lapses. Every
// operation validates its handles and fails with an invalid-handle error
// before any side effect, so a stale token can never touch another
// object's storage.
//
// # Optional Introspection
//
// Engines advertise object and field introspection by implementing
// ObjectIntrospector and FieldIntrospector; the bridge discovers both by
// type assertion at attach time. Calling an operation the engine does not
// provide fails with an unsupported error, immediately and uniformly.
//
// The three raw-layout operations (AddressOf, FieldOffsetOf, FieldSizeOf)
// sit behind the bridge's Unsafe view: their results describe
// engine-internal layout, go stale at the next collection point, and must
// be re-queried rather than cached.
//
// # Thread Safety
//
// The bridge is safe for concurrent use by construction. Each operation is
// a single synchronous forward with no bridge-side state; concurrent calls
// contend only on whatever the engine itself serializes.
package runtimebridge
