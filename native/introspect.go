package native

import (
	"reflect"

	"github.com/wippyai/runtime-bridge/errors"
	"github.com/wippyai/runtime-bridge/handle"
)

// SizeOf returns the shallow size of the pinned value's type, exactly as
// unsafe.Sizeof would report it. Nothing the value points at is counted.
func (e *Engine) SizeOf(obj handle.Object) (uint64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return 0, errors.Closed("size_of")
	}

	rv, err := e.lookup("size_of", obj)
	if err != nil {
		return 0, err
	}
	return uint64(rv.Type().Elem().Size()), nil
}

// ReferencedObjects finds the non-nil exported pointer fields of the
// pinned struct, pins each target it writes into out, and returns the
// total found. Non-struct objects and structs without pointer fields
// report zero. Unexported fields are invisible to reflection's Interface
// rules and are not traversed.
func (e *Engine) ReferencedObjects(obj handle.Object, out []handle.Object) (int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return 0, errors.Closed("referenced_objects")
	}

	rv, err := e.lookup("referenced_objects", obj)
	if err != nil {
		return 0, err
	}

	elem := rv.Elem()
	if elem.Kind() != reflect.Struct {
		return 0, nil
	}

	total := 0
	for i := 0; i < elem.NumField(); i++ {
		f := elem.Field(i)
		if f.Kind() != reflect.Pointer || f.IsNil() || !f.CanInterface() {
			continue
		}
		if total < len(out) {
			out[total] = e.objects.Insert(f)
		}
		total++
	}
	return total, nil
}

// FieldOf resolves an exported struct field on a pinned object and mints a
// descriptor for the layout services. Return it with ReleaseField.
func (e *Engine) FieldOf(obj handle.Object, name string) (handle.Field, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return 0, errors.Closed("field_of")
	}

	rv, err := e.lookup("field_of", obj)
	if err != nil {
		return 0, err
	}

	t := rv.Type().Elem()
	if t.Kind() != reflect.Struct {
		return 0, errors.InvalidInput("field_of", "object is not a struct")
	}

	sf, ok := t.FieldByName(name)
	if !ok || !sf.IsExported() {
		return 0, errors.InvalidField("field_of", name, t.String())
	}

	// Fold the embedding chain into one absolute offset. A field promoted
	// through an embedded pointer lives in another allocation and has no
	// flat offset here.
	offset := uintptr(0)
	cur := t
	for hop, idx := range sf.Index {
		f := cur.Field(idx)
		offset += f.Offset
		if hop < len(sf.Index)-1 {
			cur = f.Type
			if cur.Kind() == reflect.Pointer {
				return 0, errors.InvalidField("field_of", name, t.String())
			}
		}
	}
	return e.fields.Insert(fieldRef{obj: obj, field: sf, offset: offset}), nil
}

// AddressOf returns the raw address of the field's storage: the pinned
// value's address plus the field offset. The Go runtime does not move
// heap objects, so the address holds while the object stays pinned.
func (e *Engine) AddressOf(f handle.Field) (uintptr, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return 0, errors.Closed("address_of")
	}

	fr, rv, err := e.fieldLookup("address_of", f)
	if err != nil {
		return 0, err
	}
	return rv.Pointer() + fr.offset, nil
}

// FieldOffsetOf returns the field's byte offset within its struct, exactly
// as unsafe.Offsetof would report it.
func (e *Engine) FieldOffsetOf(f handle.Field) (uint64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return 0, errors.Closed("field_offset_of")
	}

	fr, _, err := e.fieldLookup("field_offset_of", f)
	if err != nil {
		return 0, err
	}
	return uint64(fr.offset), nil
}

// FieldSizeOf returns the byte size of the field's storage.
func (e *Engine) FieldSizeOf(f handle.Field) (uint64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return 0, errors.Closed("field_size_of")
	}

	fr, _, err := e.fieldLookup("field_size_of", f)
	if err != nil {
		return 0, err
	}
	return uint64(fr.field.Type.Size()), nil
}

// fieldLookup resolves a field descriptor to its struct field and the
// still-pinned object. Descriptors over released objects fail exactly like
// stale object handles.
func (e *Engine) fieldLookup(op string, f handle.Field) (fieldRef, reflect.Value, error) {
	if f == 0 {
		return fieldRef{}, reflect.Value{}, errors.InvalidHandle(op, "zero handle")
	}

	fr, ok := e.fields.Get(f)
	if !ok {
		return fieldRef{}, reflect.Value{}, errors.InvalidHandle(op, "stale or dead handle")
	}

	rv, ok := e.objects.Get(fr.obj)
	if !ok {
		return fieldRef{}, reflect.Value{}, errors.InvalidHandle(op, "containing object was released")
	}
	return fr, rv, nil
}
