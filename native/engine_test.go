package native

import (
	"runtime"
	"runtime/debug"
	"testing"

	runtimebridge "github.com/wippyai/runtime-bridge"
	"github.com/wippyai/runtime-bridge/errors"
)

func TestPin(t *testing.T) {
	e, _ := New()
	defer e.Close()

	v := uint64(42)
	h, err := e.Pin(&v)
	if err != nil {
		t.Fatalf("Pin failed: %v", err)
	}
	if h == 0 {
		t.Fatal("Expected non-zero handle")
	}

	if err := e.Release(h); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if err := e.Release(h); !errors.IsInvalidHandle(err) {
		t.Fatalf("second Release = %v, want invalid handle", err)
	}
}

func TestPin_Invalid(t *testing.T) {
	e, _ := New()
	defer e.Close()

	tests := []struct {
		name string
		v    any
	}{
		{"nil", nil},
		{"non-pointer", 42},
		{"typed nil pointer", (*uint64)(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.Pin(tt.v); err == nil {
				t.Fatal("Pin should fail")
			} else if k, _ := errors.KindOf(err); k != errors.KindInvalidInput {
				t.Fatalf("Kind = %v, want %v", k, errors.KindInvalidInput)
			}
		})
	}
}

func TestMeters(t *testing.T) {
	e, _ := New()
	defer e.Close()

	if e.TotalMemory() == 0 {
		t.Error("TotalMemory = 0; the Go heap always claims something")
	}
	if e.MaxMemory() == 0 {
		t.Error("MaxMemory = 0, want a limit or MemoryUnbounded")
	}
}

func TestMaxMemory_TracksRuntimeLimit(t *testing.T) {
	e, _ := New()
	defer e.Close()

	old := debug.SetMemoryLimit(1 << 30)
	defer debug.SetMemoryLimit(old)

	if got := e.MaxMemory(); got != 1<<30 {
		t.Fatalf("MaxMemory = %d, want %d", got, 1<<30)
	}

	debug.SetMemoryLimit(old)
	if old == int64(^uint64(0)>>1) {
		if got := e.MaxMemory(); got != runtimebridge.MemoryUnbounded {
			t.Fatalf("MaxMemory = %d, want MemoryUnbounded", got)
		}
	}
}

func TestRequestGC(t *testing.T) {
	e, _ := New()
	defer e.Close()

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	e.RequestGC()
	runtime.ReadMemStats(&after)

	if after.NumGC <= before.NumGC {
		t.Fatalf("NumGC = %d after request, was %d", after.NumGC, before.NumGC)
	}
}

func TestAvailableProcessors(t *testing.T) {
	e, _ := New()
	defer e.Close()

	if n := e.AvailableProcessors(); n < 1 {
		t.Fatalf("AvailableProcessors = %d, want >= 1", n)
	}
}

func TestCapabilities(t *testing.T) {
	e, _ := New()
	defer e.Close()

	caps := e.Capabilities()
	if caps.Name != "native" {
		t.Errorf("Name = %q, want 'native'", caps.Name)
	}
	if caps.BridgeAPI != runtimebridge.APIVersion {
		t.Errorf("BridgeAPI = %q, want %q", caps.BridgeAPI, runtimebridge.APIVersion)
	}
}

func TestClose(t *testing.T) {
	e, _ := New()

	v := uint64(1)
	h, _ := e.Pin(&v)

	if err := e.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if e.FreeMemory() != 0 || e.TotalMemory() != 0 || e.MaxMemory() != 0 {
		t.Error("meters should report zero after Close")
	}
	e.RequestGC()

	if _, err := e.Pin(&v); !errors.IsClosed(err) {
		t.Errorf("Pin after Close = %v, want closed", err)
	}
	if _, err := e.SizeOf(h); !errors.IsClosed(err) {
		t.Errorf("SizeOf after Close = %v, want closed", err)
	}

	if err := e.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}
