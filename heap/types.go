package heap

import (
	"fmt"

	"github.com/wippyai/runtime-bridge/errors"
)

// TypeID identifies a registered object type. The zero TypeID is invalid.
type TypeID uint32

// FieldKind tells the collector how a field's storage is interpreted.
type FieldKind uint8

const (
	// KindScalar is opaque payload; the collector never traces it.
	KindScalar FieldKind = iota

	// KindRef holds an object token; the collector traces it.
	KindRef
)

// FieldSpec describes one field of a type being registered.
type FieldSpec struct {
	Name string
	Kind FieldKind

	// Size is the scalar storage in bytes: 1, 2, 4, or 8. Ignored for
	// KindRef fields, which always occupy 8 bytes.
	Size uint32
}

// TypeSpec describes an object type to register.
type TypeSpec struct {
	Name   string
	Fields []FieldSpec
}

const (
	headerBytes = 16 // every object starts with a fixed header
	objectAlign = 8
	refBytes    = 8 // a stored object token
)

// fieldLayout is a FieldSpec resolved to a concrete slot in the object.
type fieldLayout struct {
	name   string
	kind   FieldKind
	offset uint32
	size   uint32
}

// typeInfo is a registered type with its computed layout.
type typeInfo struct {
	name   string
	fields []fieldLayout
	byName map[string]int
	refs   []int  // indices of KindRef fields
	size   uint64 // shallow object size, header included
}

// RegisterType registers an object type and returns its id. Layout is
// fixed at registration: fields sit after the header in declaration
// order, each at its natural alignment, and the object size is rounded
// up to 8 bytes.
func (e *Engine) RegisterType(spec TypeSpec) (TypeID, error) {
	if spec.Name == "" {
		return 0, errors.InvalidType("register_type", "unnamed type")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return 0, errors.Closed("register_type")
	}
	if _, dup := e.typeIDs[spec.Name]; dup {
		return 0, errors.InvalidType("register_type", fmt.Sprintf("type %q already registered", spec.Name))
	}

	ti, err := computeLayout(spec)
	if err != nil {
		return 0, err
	}

	e.types = append(e.types, ti)
	id := TypeID(len(e.types))
	e.typeIDs[spec.Name] = id
	return id, nil
}

func computeLayout(spec TypeSpec) (*typeInfo, error) {
	ti := &typeInfo{
		name:   spec.Name,
		fields: make([]fieldLayout, 0, len(spec.Fields)),
		byName: make(map[string]int, len(spec.Fields)),
	}

	cursor := uint32(headerBytes)
	for i, f := range spec.Fields {
		if f.Name == "" {
			return nil, errors.InvalidType("register_type", "unnamed field")
		}
		if _, dup := ti.byName[f.Name]; dup {
			return nil, errors.InvalidType("register_type", fmt.Sprintf("duplicate field %q", f.Name))
		}

		size := f.Size
		switch f.Kind {
		case KindRef:
			size = refBytes
			ti.refs = append(ti.refs, i)
		case KindScalar:
			switch size {
			case 1, 2, 4, 8:
			default:
				return nil, errors.InvalidType("register_type",
					fmt.Sprintf("field %q: scalar size %d (want 1, 2, 4, or 8)", f.Name, size))
			}
		default:
			return nil, errors.InvalidType("register_type",
				fmt.Sprintf("field %q: unknown kind %d", f.Name, f.Kind))
		}

		// Natural alignment equals size for the allowed widths.
		cursor = alignUp(cursor, size)
		ti.fields = append(ti.fields, fieldLayout{
			name:   f.Name,
			kind:   f.Kind,
			offset: cursor,
			size:   size,
		})
		ti.byName[f.Name] = i
		cursor += size
	}

	ti.size = uint64(alignUp(cursor, objectAlign))
	return ti, nil
}

func alignUp(n, to uint32) uint32 {
	return (n + to - 1) / to * to
}
