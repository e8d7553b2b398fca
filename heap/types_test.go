package heap

import (
	"testing"

	"github.com/wippyai/runtime-bridge/errors"
)

func TestRegisterType(t *testing.T) {
	e, err := New(Config{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer e.Close()

	id, err := e.RegisterType(TypeSpec{
		Name: "point",
		Fields: []FieldSpec{
			{Name: "x", Kind: KindScalar, Size: 8},
			{Name: "y", Kind: KindScalar, Size: 8},
		},
	})
	if err != nil {
		t.Fatalf("RegisterType failed: %v", err)
	}
	if id == 0 {
		t.Fatal("Expected non-zero type id")
	}

	// Distinct types get distinct ids.
	id2, err := e.RegisterType(TypeSpec{Name: "empty"})
	if err != nil {
		t.Fatalf("RegisterType failed: %v", err)
	}
	if id2 == id {
		t.Fatal("Expected distinct type ids")
	}
}

func TestRegisterType_Invalid(t *testing.T) {
	tests := []struct {
		name string
		spec TypeSpec
	}{
		{"unnamed type", TypeSpec{}},
		{"unnamed field", TypeSpec{Name: "t", Fields: []FieldSpec{{Kind: KindScalar, Size: 8}}}},
		{
			"duplicate field",
			TypeSpec{Name: "t", Fields: []FieldSpec{
				{Name: "a", Kind: KindScalar, Size: 4},
				{Name: "a", Kind: KindScalar, Size: 4},
			}},
		},
		{"bad scalar size", TypeSpec{Name: "t", Fields: []FieldSpec{{Name: "a", Kind: KindScalar, Size: 3}}}},
		{"zero scalar size", TypeSpec{Name: "t", Fields: []FieldSpec{{Name: "a", Kind: KindScalar}}}},
		{"unknown kind", TypeSpec{Name: "t", Fields: []FieldSpec{{Name: "a", Kind: FieldKind(99), Size: 8}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := New(Config{})
			defer e.Close()

			if _, err := e.RegisterType(tt.spec); err == nil {
				t.Fatal("Expected error")
			} else if k, _ := errors.KindOf(err); k != errors.KindInvalidType {
				t.Fatalf("Kind = %v, want %v", k, errors.KindInvalidType)
			}
		})
	}
}

func TestRegisterType_Duplicate(t *testing.T) {
	e, _ := New(Config{})
	defer e.Close()

	if _, err := e.RegisterType(TypeSpec{Name: "t"}); err != nil {
		t.Fatalf("RegisterType failed: %v", err)
	}
	if _, err := e.RegisterType(TypeSpec{Name: "t"}); err == nil {
		t.Fatal("Duplicate type name should fail")
	}
}

func TestLayout(t *testing.T) {
	tests := []struct {
		name    string
		fields  []FieldSpec
		offsets []uint32
		size    uint64
	}{
		{
			name:   "header only",
			fields: nil,
			size:   16,
		},
		{
			name:    "single u64",
			fields:  []FieldSpec{{Name: "v", Kind: KindScalar, Size: 8}},
			offsets: []uint32{16},
			size:    24,
		},
		{
			name:    "single ref",
			fields:  []FieldSpec{{Name: "next", Kind: KindRef}},
			offsets: []uint32{16},
			size:    24,
		},
		{
			name: "mixed alignment",
			fields: []FieldSpec{
				{Name: "flags", Kind: KindScalar, Size: 1},
				{Name: "count", Kind: KindScalar, Size: 8},
				{Name: "len", Kind: KindScalar, Size: 4},
			},
			offsets: []uint32{16, 24, 32},
			size:    40,
		},
		{
			name: "tail padding",
			fields: []FieldSpec{
				{Name: "a", Kind: KindScalar, Size: 8},
				{Name: "b", Kind: KindScalar, Size: 1},
			},
			offsets: []uint32{16, 24},
			size:    32,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ti, err := computeLayout(TypeSpec{Name: "t", Fields: tt.fields})
			if err != nil {
				t.Fatalf("computeLayout failed: %v", err)
			}
			if ti.size != tt.size {
				t.Errorf("size = %d, want %d", ti.size, tt.size)
			}
			for i, want := range tt.offsets {
				if got := ti.fields[i].offset; got != want {
					t.Errorf("field %d offset = %d, want %d", i, got, want)
				}
			}
		})
	}
}

func TestLayout_NoOverlap(t *testing.T) {
	ti, err := computeLayout(TypeSpec{
		Name: "t",
		Fields: []FieldSpec{
			{Name: "a", Kind: KindScalar, Size: 1},
			{Name: "b", Kind: KindScalar, Size: 8},
			{Name: "c", Kind: KindScalar, Size: 4},
			{Name: "d", Kind: KindRef},
			{Name: "e", Kind: KindScalar, Size: 2},
		},
	})
	if err != nil {
		t.Fatalf("computeLayout failed: %v", err)
	}

	for i := range ti.fields {
		fi := ti.fields[i]
		if fi.offset < headerBytes {
			t.Errorf("field %q overlaps header: offset %d", fi.name, fi.offset)
		}
		if uint64(fi.offset)+uint64(fi.size) > ti.size {
			t.Errorf("field %q extends past object: offset %d size %d, object %d",
				fi.name, fi.offset, fi.size, ti.size)
		}
		for j := i + 1; j < len(ti.fields); j++ {
			fj := ti.fields[j]
			if fi.offset < fj.offset+fj.size && fj.offset < fi.offset+fi.size {
				t.Errorf("fields %q and %q overlap: [%d,%d) and [%d,%d)",
					fi.name, fj.name, fi.offset, fi.offset+fi.size, fj.offset, fj.offset+fj.size)
			}
		}
	}
}
