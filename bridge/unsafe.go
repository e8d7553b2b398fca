package bridge

import (
	"github.com/wippyai/runtime-bridge/errors"
	"github.com/wippyai/runtime-bridge/handle"
)

// Unsafe is the capability view over the engine's raw layout services.
// Everything it returns describes engine-internal layout: addresses die at
// the engine's next collection point, and offsets and sizes are only
// stable within one engine build. Re-query, never cache, and never turn a
// returned address back into a pointer unless the engine documents the
// object as pinned.
type Unsafe struct {
	b *Bridge
}

// Unsafe returns the raw-layout view of the bridge. Obtaining the view is
// free and safe; it exists so that every use of the three layout
// operations is marked at the call site.
func (b *Bridge) Unsafe() Unsafe {
	return Unsafe{b: b}
}

// AddressOf returns the raw address of the field's storage.
func (u Unsafe) AddressOf(f handle.Field) (uintptr, error) {
	if u.b.fields == nil {
		return 0, errors.Unsupported("address_of", "engine has no field introspection")
	}
	if f == 0 {
		return 0, errors.InvalidHandle("address_of", "zero handle")
	}
	return u.b.fields.AddressOf(f)
}

// FieldOffsetOf returns the field's byte offset within its containing
// object's layout.
func (u Unsafe) FieldOffsetOf(f handle.Field) (uint64, error) {
	if u.b.fields == nil {
		return 0, errors.Unsupported("field_offset_of", "engine has no field introspection")
	}
	if f == 0 {
		return 0, errors.InvalidHandle("field_offset_of", "zero handle")
	}
	return u.b.fields.FieldOffsetOf(f)
}

// FieldSizeOf returns the byte size of the field's storage.
func (u Unsafe) FieldSizeOf(f handle.Field) (uint64, error) {
	if u.b.fields == nil {
		return 0, errors.Unsupported("field_size_of", "engine has no field introspection")
	}
	if f == 0 {
		return 0, errors.InvalidHandle("field_size_of", "zero handle")
	}
	return u.b.fields.FieldSizeOf(f)
}
