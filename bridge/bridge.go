package bridge

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"

	runtimebridge "github.com/wippyai/runtime-bridge"
	"github.com/wippyai/runtime-bridge/errors"
	"github.com/wippyai/runtime-bridge/handle"
)

// Bridge is the seam callers hold: a stateless forwarder that validates
// handles at the boundary and passes every operation to exactly one engine
// service. It is immutable after New and safe for unbounded concurrent
// use; thread-safety of the operations themselves is whatever the engine
// provides.
type Bridge struct {
	engine  runtimebridge.Engine
	objects runtimebridge.ObjectIntrospector // nil when the engine lacks it
	fields  runtimebridge.FieldIntrospector  // nil when the engine lacks it
}

// New attaches a bridge to an engine. It refuses engines that target a
// different major of the bridge contract, and discovers the optional
// introspection services by type assertion, once, here.
func New(eng runtimebridge.Engine) (*Bridge, error) {
	if eng == nil {
		return nil, errors.InvalidInput("attach", "nil engine")
	}

	caps := eng.Capabilities()
	if err := checkBridgeAPI(caps.BridgeAPI); err != nil {
		return nil, err
	}

	b := &Bridge{engine: eng}
	if oi, ok := eng.(runtimebridge.ObjectIntrospector); ok {
		b.objects = oi
	}
	if fi, ok := eng.(runtimebridge.FieldIntrospector); ok {
		b.fields = fi
	}

	Logger().Debug("bridge attached",
		zap.String("engine", caps.Name),
		zap.String("engine_version", caps.Version),
		zap.String("bridge_api", caps.BridgeAPI),
		zap.Bool("object_introspection", b.objects != nil),
		zap.Bool("field_introspection", b.fields != nil),
	)
	return b, nil
}

// checkBridgeAPI accepts any engine targeting the same major of the
// contract this package implements.
func checkBridgeAPI(reported string) error {
	v, err := semver.NewVersion(reported)
	if err != nil {
		return errors.Incompatible("attach",
			fmt.Sprintf("engine reports unparseable bridge API %q", reported), err)
	}

	c, err := semver.NewConstraint("^" + runtimebridge.APIVersion)
	if err != nil {
		return errors.Incompatible("attach", "bad bridge API constraint", err)
	}

	if !c.Check(v) {
		return errors.Incompatible("attach",
			fmt.Sprintf("engine targets bridge API %s, this bridge implements %s",
				reported, runtimebridge.APIVersion), nil)
	}
	return nil
}

// Capabilities reports the attached engine's identity.
func (b *Bridge) Capabilities() runtimebridge.Capabilities {
	return b.engine.Capabilities()
}

// FreeMemory returns an approximation of the bytes the engine has
// available for future allocations.
func (b *Bridge) FreeMemory() uint64 {
	return b.engine.FreeMemory()
}

// TotalMemory returns the bytes the engine's heap currently claims.
func (b *Bridge) TotalMemory() uint64 {
	return b.engine.TotalMemory()
}

// MaxMemory returns the engine's memory ceiling, or MemoryUnbounded when
// none is configured.
func (b *Bridge) MaxMemory() uint64 {
	return b.engine.MaxMemory()
}

// GC asks the engine to collect garbage. The request is fire-and-forget:
// there is no completion signal to await, and the engine may decline.
func (b *Bridge) GC() {
	b.engine.RequestGC()
}

// AvailableProcessors returns the engine's processor count, at least 1.
// The value can change over the process lifetime; callers polling for
// sizing decisions should re-query rather than cache.
func (b *Bridge) AvailableProcessors() int {
	return b.engine.AvailableProcessors()
}

// SizeOf returns the shallow size in bytes of the object behind obj.
func (b *Bridge) SizeOf(obj handle.Object) (uint64, error) {
	if b.objects == nil {
		return 0, errors.Unsupported("size_of", "engine has no object introspection")
	}
	if obj == 0 {
		return 0, errors.InvalidHandle("size_of", "zero handle")
	}
	return b.objects.SizeOf(obj)
}

// ReferencedObjects lists the objects obj directly references: up to
// len(out) handles are written into out and the total found is returned.
// A total above len(out) is the documented truncation outcome, not an
// error; callers compare and re-invoke with a larger buffer. Nothing is
// written on failure.
func (b *Bridge) ReferencedObjects(obj handle.Object, out []handle.Object) (int, error) {
	if b.objects == nil {
		return 0, errors.Unsupported("referenced_objects", "engine has no object introspection")
	}
	if obj == 0 {
		return 0, errors.InvalidHandle("referenced_objects", "zero handle")
	}
	return b.objects.ReferencedObjects(obj, out)
}
