package handle

// Object is an opaque reference to an engine-managed object.
// The zero Object is reserved and always invalid.
type Object uint64

// Field is an opaque reference to a field resolved on a live object.
// The zero Field is reserved and always invalid.
type Field uint64

// Token constrains the handle types a Table can mint. A token packs a
// 1-based slot index in the low 32 bits and the slot's generation in the
// high 32 bits, so a token outlives its slot only as a detectable stale.
type Token interface {
	~uint64
}

func pack[H Token](slot, gen uint32) H {
	return H(uint64(gen)<<32 | uint64(slot))
}

func split[H Token](h H) (slot, gen uint32) {
	return uint32(uint64(h)), uint32(uint64(h) >> 32)
}
