package heap

import (
	"encoding/binary"
	"fmt"

	"github.com/wippyai/runtime-bridge/errors"
	"github.com/wippyai/runtime-bridge/handle"
)

// object is one allocation. data holds the shallow storage: the fixed
// header followed by the registered fields. pins counts caller references;
// a pinned object is a collection root.
type object struct {
	data   []byte
	typeID TypeID
	pins   uint32
	marked bool // collector work state, meaningful only during a collection
}

// fieldRef is a minted field descriptor: a named field resolved against a
// live object. The object token is re-validated on every use, so a
// descriptor never silently outlives its object.
type fieldRef struct {
	obj   handle.Object
	typ   TypeID
	index int
}

// New allocates a zero-initialized object of a registered type. The
// returned handle is pinned; the caller releases it when done with the
// object.
func (e *Engine) New(typ TypeID) (handle.Object, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return 0, errors.Closed("new")
	}

	ti, err := e.typeByID("new", typ)
	if err != nil {
		return 0, err
	}

	if err := e.reserve(ti.size); err != nil {
		return 0, err
	}

	o := &object{
		data:   make([]byte, ti.size),
		typeID: typ,
		pins:   1,
	}
	e.used += ti.size
	return e.objects.Insert(o), nil
}

// Release drops one pin from obj. The handle stays valid until the
// collector reclaims the object; an unpinned object survives only while
// other live objects reference it.
func (e *Engine) Release(obj handle.Object) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return errors.Closed("release")
	}

	o, err := e.lookup("release", obj)
	if err != nil {
		return err
	}
	if o.pins == 0 {
		return errors.InvalidInput("release", "object is not pinned")
	}
	o.pins--
	return nil
}

// SetRef points obj's named ref field at target. A zero target clears the
// field. target must be live at the time of the write; the collector keeps
// it live for as long as obj can still reach it.
func (e *Engine) SetRef(obj handle.Object, field string, target handle.Object) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return errors.Closed("set_ref")
	}

	o, err := e.lookup("set_ref", obj)
	if err != nil {
		return err
	}

	_, fl, err := e.fieldNamed("set_ref", o.typeID, field)
	if err != nil {
		return err
	}
	if fl.kind != KindRef {
		return errors.InvalidInput("set_ref", fmt.Sprintf("field %q is not a reference", field))
	}

	if target != 0 {
		if _, err := e.lookup("set_ref", target); err != nil {
			return err
		}
	}

	binary.LittleEndian.PutUint64(o.data[fl.offset:], uint64(target))
	return nil
}

// Ref reads obj's named ref field. A non-zero result is pinned for the
// caller and must be released; a zero result means the field is clear.
func (e *Engine) Ref(obj handle.Object, field string) (handle.Object, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return 0, errors.Closed("ref")
	}

	o, err := e.lookup("ref", obj)
	if err != nil {
		return 0, err
	}

	_, fl, err := e.fieldNamed("ref", o.typeID, field)
	if err != nil {
		return 0, err
	}
	if fl.kind != KindRef {
		return 0, errors.InvalidInput("ref", fmt.Sprintf("field %q is not a reference", field))
	}

	token := handle.Object(binary.LittleEndian.Uint64(o.data[fl.offset:]))
	if token == 0 {
		return 0, nil
	}
	if t, ok := e.objects.Get(token); ok {
		t.pins++
	}
	return token, nil
}

// FieldOf resolves a named field on a live object and mints a descriptor
// for the layout services. Descriptors are engine resources: return them
// with ReleaseField.
func (e *Engine) FieldOf(obj handle.Object, field string) (handle.Field, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return 0, errors.Closed("field_of")
	}

	o, err := e.lookup("field_of", obj)
	if err != nil {
		return 0, err
	}

	idx, _, err := e.fieldNamed("field_of", o.typeID, field)
	if err != nil {
		return 0, err
	}
	return e.fields.Insert(fieldRef{obj: obj, typ: o.typeID, index: idx}), nil
}

// ReleaseField returns a field descriptor to the engine.
func (e *Engine) ReleaseField(f handle.Field) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return errors.Closed("release_field")
	}
	if f == 0 {
		return errors.InvalidHandle("release_field", "zero handle")
	}
	if _, ok := e.fields.Remove(f); !ok {
		return errors.InvalidHandle("release_field", "stale or dead handle")
	}
	return nil
}

// lookup resolves an object handle, failing with an invalid-handle error
// for the zero token and for tokens whose object is gone.
func (e *Engine) lookup(op string, obj handle.Object) (*object, error) {
	if obj == 0 {
		return nil, errors.InvalidHandle(op, "zero handle")
	}
	o, ok := e.objects.Get(obj)
	if !ok {
		return nil, errors.InvalidHandle(op, "stale or dead handle")
	}
	return o, nil
}

func (e *Engine) typeByID(op string, typ TypeID) (*typeInfo, error) {
	if typ == 0 || int(typ) > len(e.types) {
		return nil, errors.InvalidInput(op, fmt.Sprintf("unknown type id %d", typ))
	}
	return e.types[typ-1], nil
}

func (e *Engine) fieldNamed(op string, typ TypeID, name string) (int, *fieldLayout, error) {
	ti := e.types[typ-1]
	idx, ok := ti.byName[name]
	if !ok {
		return 0, nil, errors.InvalidField(op, name, ti.name)
	}
	return idx, &ti.fields[idx], nil
}
