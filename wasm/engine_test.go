package wasm

import (
	"context"
	"testing"

	runtimebridge "github.com/wippyai/runtime-bridge"
	"github.com/wippyai/runtime-bridge/errors"
)

// Test guests are encoded by hand: the engine consumes binaries, and
// the handful of sections needed here is small enough to spell out.

func uleb(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
			continue
		}
		return append(out, b)
	}
}

func section(id byte, contents []byte) []byte {
	out := []byte{id}
	out = append(out, uleb(uint32(len(contents)))...)
	return append(out, contents...)
}

func export(name string, kind, idx byte) []byte {
	out := []byte{byte(len(name))}
	out = append(out, name...)
	return append(out, kind, idx)
}

func exports(entries ...[]byte) []byte {
	out := []byte{byte(len(entries))}
	for _, e := range entries {
		out = append(out, e...)
	}
	return out
}

func header() []byte {
	return []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
}

// collectorGuest builds a module with one page of memory (max maxPages
// when > 0) and a collector export that grows memory by one page per
// call. Growth past max fails quietly inside the guest: memory.grow
// answers -1 and the body drops it.
func collectorGuest(collectorName string, maxPages uint32) []byte {
	mod := header()
	mod = append(mod, section(1, []byte{0x01, 0x60, 0x00, 0x00})...) // type 0: () -> ()
	mod = append(mod, section(3, []byte{0x01, 0x00})...)             // func 0: type 0

	if maxPages > 0 {
		limits := append([]byte{0x01, 0x01, 0x01}, uleb(maxPages)...) // min 1, max declared
		mod = append(mod, section(5, limits)...)
	} else {
		mod = append(mod, section(5, []byte{0x01, 0x00, 0x01})...) // min 1, no max
	}

	mod = append(mod, section(7, exports(
		export("memory", 0x02, 0),
		export(collectorName, 0x00, 0),
	))...)

	mod = append(mod, section(10, []byte{
		0x01,       // one body
		0x07,       // body size
		0x00,       // no locals
		0x41, 0x01, // i32.const 1
		0x40, 0x00, // memory.grow
		0x1a, // drop
		0x0b, // end
	})...)
	return mod
}

// memoryOnlyGuest builds a module exporting one page of memory and
// nothing else.
func memoryOnlyGuest(maxPages uint32) []byte {
	mod := header()
	if maxPages > 0 {
		limits := append([]byte{0x01, 0x01, 0x01}, uleb(maxPages)...)
		mod = append(mod, section(5, limits)...)
	} else {
		mod = append(mod, section(5, []byte{0x01, 0x00, 0x01})...)
	}
	mod = append(mod, section(7, exports(export("memory", 0x02, 0)))...)
	return mod
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	e, err := New(ctx, Config{Guest: collectorGuest("gc", 4)})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer e.Close(ctx)

	if got := e.TotalMemory(); got != 1*pageBytes {
		t.Errorf("TotalMemory = %d, want %d", got, 1*pageBytes)
	}
	if got := e.MaxMemory(); got != 4*pageBytes {
		t.Errorf("MaxMemory = %d, want %d", got, 4*pageBytes)
	}
	if got := e.FreeMemory(); got != 3*pageBytes {
		t.Errorf("FreeMemory = %d, want %d", got, 3*pageBytes)
	}
}

func TestNew_Rejected(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		guest []byte
	}{
		{"garbage bytes", []byte{0xde, 0xad, 0xbe, 0xef}},
		{"empty module", header()},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(ctx, Config{Guest: tc.guest})
			if err == nil {
				t.Fatal("expected error")
			}
			if kind, ok := errors.KindOf(err); !ok || kind != errors.KindIncompatible {
				t.Errorf("error kind = %v, want %v", kind, errors.KindIncompatible)
			}
		})
	}
}

func TestRequestGC_GrowsThroughCollector(t *testing.T) {
	ctx := context.Background()

	e, err := New(ctx, Config{Guest: collectorGuest("gc", 4)})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer e.Close(ctx)

	e.RequestGC()
	if got := e.TotalMemory(); got != 2*pageBytes {
		t.Fatalf("TotalMemory after collector = %d, want %d", got, 2*pageBytes)
	}
	if got := e.FreeMemory(); got != 2*pageBytes {
		t.Errorf("FreeMemory after collector = %d, want %d", got, 2*pageBytes)
	}

	// Growth saturates at the declared maximum; further requests are
	// declined inside the guest without error.
	for i := 0; i < 5; i++ {
		e.RequestGC()
	}
	if got := e.TotalMemory(); got != 4*pageBytes {
		t.Errorf("TotalMemory at ceiling = %d, want %d", got, 4*pageBytes)
	}
	if got := e.FreeMemory(); got != 0 {
		t.Errorf("FreeMemory at ceiling = %d, want 0", got)
	}
	if got := e.MaxMemory(); got != 4*pageBytes {
		t.Errorf("MaxMemory = %d, want %d", got, 4*pageBytes)
	}
}

func TestRequestGC_NoCollector(t *testing.T) {
	ctx := context.Background()

	e, err := New(ctx, Config{Guest: memoryOnlyGuest(4)})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer e.Close(ctx)

	e.RequestGC()
	if got := e.TotalMemory(); got != 1*pageBytes {
		t.Errorf("TotalMemory = %d, want %d", got, 1*pageBytes)
	}
}

func TestConfig_CollectorExport(t *testing.T) {
	ctx := context.Background()

	e, err := New(ctx, Config{
		Guest:           collectorGuest("reclaim", 4),
		CollectorExport: "reclaim",
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer e.Close(ctx)

	e.RequestGC()
	if got := e.TotalMemory(); got != 2*pageBytes {
		t.Errorf("TotalMemory after collector = %d, want %d", got, 2*pageBytes)
	}
}

func TestMaxMemory_Resolution(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		guest      []byte
		limitPages uint32
		want       uint64
	}{
		{"declared max", memoryOnlyGuest(4), 0, 4 * pageBytes},
		{"runtime limit", memoryOnlyGuest(0), 2, 2 * pageBytes},
		{"declared under limit", memoryOnlyGuest(4), 8, 4 * pageBytes},
		{"wazero default", memoryOnlyGuest(0), 0, uint64(defaultMaxPages) * pageBytes},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e, err := New(ctx, Config{Guest: tc.guest, MemoryLimitPages: tc.limitPages})
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			defer e.Close(ctx)

			if got := e.MaxMemory(); got != tc.want {
				t.Errorf("MaxMemory = %d, want %d", got, tc.want)
			}
			if got := e.FreeMemory(); got != tc.want-1*pageBytes {
				t.Errorf("FreeMemory = %d, want %d", got, tc.want-1*pageBytes)
			}
		})
	}
}

func TestAvailableProcessors(t *testing.T) {
	ctx := context.Background()

	e, err := New(ctx, Config{Guest: memoryOnlyGuest(4)})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer e.Close(ctx)

	if got := e.AvailableProcessors(); got != 1 {
		t.Errorf("AvailableProcessors = %d, want 1", got)
	}
}

func TestCapabilities(t *testing.T) {
	ctx := context.Background()

	e, err := New(ctx, Config{Guest: memoryOnlyGuest(4)})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer e.Close(ctx)

	caps := e.Capabilities()
	if caps.Name != "wasm" {
		t.Errorf("Name = %q, want %q", caps.Name, "wasm")
	}
	if caps.Version != Version {
		t.Errorf("Version = %q, want %q", caps.Version, Version)
	}
	if caps.BridgeAPI != runtimebridge.APIVersion {
		t.Errorf("BridgeAPI = %q, want %q", caps.BridgeAPI, runtimebridge.APIVersion)
	}
}

func TestClose(t *testing.T) {
	ctx := context.Background()

	e, err := New(ctx, Config{Guest: collectorGuest("gc", 4)})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := e.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if got := e.TotalMemory(); got != 0 {
		t.Errorf("TotalMemory after close = %d, want 0", got)
	}
	if got := e.FreeMemory(); got != 0 {
		t.Errorf("FreeMemory after close = %d, want 0", got)
	}
	if got := e.MaxMemory(); got != 0 {
		t.Errorf("MaxMemory after close = %d, want 0", got)
	}

	e.RequestGC() // must not panic or call into the dead instance

	if err := e.Close(ctx); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}
