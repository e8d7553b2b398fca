package heap

import (
	"encoding/binary"
	"unsafe"

	"github.com/wippyai/runtime-bridge/errors"
	"github.com/wippyai/runtime-bridge/handle"
)

// SizeOf returns the shallow size of the object: header plus registered
// fields, padding included. Nothing the object references is counted.
func (e *Engine) SizeOf(obj handle.Object) (uint64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return 0, errors.Closed("size_of")
	}

	o, err := e.lookup("size_of", obj)
	if err != nil {
		return 0, err
	}
	return uint64(len(o.data)), nil
}

// ReferencedObjects writes the handles of objects obj directly references
// into out, up to len(out), and returns the total found. Every handle
// written is pinned for the caller and must be released; handles beyond
// len(out) are counted but neither written nor pinned.
func (e *Engine) ReferencedObjects(obj handle.Object, out []handle.Object) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return 0, errors.Closed("referenced_objects")
	}

	o, err := e.lookup("referenced_objects", obj)
	if err != nil {
		return 0, err
	}

	ti := e.types[o.typeID-1]
	total := 0
	for _, idx := range ti.refs {
		fl := &ti.fields[idx]
		token := handle.Object(binary.LittleEndian.Uint64(o.data[fl.offset:]))
		if token == 0 {
			continue
		}
		if total < len(out) {
			out[total] = token
			if t, ok := e.objects.Get(token); ok {
				t.pins++
			}
		}
		total++
	}
	return total, nil
}

// AddressOf returns the raw address of the field's storage. The heap does
// not move objects, but the address dies with the object: re-query rather
// than cache.
func (e *Engine) AddressOf(f handle.Field) (uintptr, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return 0, errors.Closed("address_of")
	}

	o, fl, err := e.fieldLookup("address_of", f)
	if err != nil {
		return 0, err
	}
	return uintptr(unsafe.Pointer(&o.data[fl.offset])), nil
}

// FieldOffsetOf returns the field's byte offset from the object start,
// header included.
func (e *Engine) FieldOffsetOf(f handle.Field) (uint64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return 0, errors.Closed("field_offset_of")
	}

	_, fl, err := e.fieldLookup("field_offset_of", f)
	if err != nil {
		return 0, err
	}
	return uint64(fl.offset), nil
}

// FieldSizeOf returns the byte size of the field's storage.
func (e *Engine) FieldSizeOf(f handle.Field) (uint64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return 0, errors.Closed("field_size_of")
	}

	_, fl, err := e.fieldLookup("field_size_of", f)
	if err != nil {
		return 0, err
	}
	return uint64(fl.size), nil
}

// fieldLookup resolves a field descriptor to its live object and layout
// slot. Descriptors over collected objects fail exactly like stale object
// handles.
func (e *Engine) fieldLookup(op string, f handle.Field) (*object, *fieldLayout, error) {
	if f == 0 {
		return nil, nil, errors.InvalidHandle(op, "zero handle")
	}

	fr, ok := e.fields.Get(f)
	if !ok {
		return nil, nil, errors.InvalidHandle(op, "stale or dead handle")
	}

	o, ok := e.objects.Get(fr.obj)
	if !ok {
		return nil, nil, errors.InvalidHandle(op, "containing object is dead")
	}

	ti := e.types[fr.typ-1]
	return o, &ti.fields[fr.index], nil
}
