package handle

import (
	"sync"
)

// Table is an in-memory slot table that mints generation-checked tokens.
// Slots are reused through a free list; every Remove bumps the slot's
// generation, so tokens held past Remove fail validation instead of
// aliasing the slot's next occupant.
//
// The table stores values, it does not own them: lifecycle policy (who may
// remove, when) belongs to the engine that embeds the table.
type Table[H Token, T any] struct {
	entries  []entry[T]
	freeList []uint32
	mu       sync.RWMutex
}

type entry[T any] struct {
	value T
	gen   uint32
	valid bool
}

// NewTable creates an empty table.
func NewTable[H Token, T any]() *Table[H, T] {
	return &Table[H, T]{
		entries:  make([]entry[T], 0, 64),
		freeList: make([]uint32, 0, 16),
	}
}

// Insert stores a value and returns its token.
func (t *Table[H, T]) Insert(value T) H {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.freeList) > 0 {
		slot := t.freeList[len(t.freeList)-1]
		t.freeList = t.freeList[:len(t.freeList)-1]
		e := &t.entries[slot-1]
		e.value = value
		e.valid = true
		return pack[H](slot, e.gen)
	}

	t.entries = append(t.entries, entry[T]{value: value, gen: 1, valid: true})
	return pack[H](uint32(len(t.entries)), 1)
}

// Get retrieves a value by token.
func (t *Table[H, T]) Get(h H) (T, bool) {
	var zero T
	if h == 0 {
		return zero, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	slot, gen := split(h)
	if slot == 0 || int(slot) > len(t.entries) {
		return zero, false
	}

	e := t.entries[slot-1]
	if !e.valid || e.gen != gen {
		return zero, false
	}
	return e.value, true
}

// Remove frees a token's slot and returns (value, true) if the token was
// live. The slot's generation is bumped, invalidating all copies of the
// token still in circulation.
func (t *Table[H, T]) Remove(h H) (T, bool) {
	var zero T
	if h == 0 {
		return zero, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	slot, gen := split(h)
	if slot == 0 || int(slot) > len(t.entries) {
		return zero, false
	}

	e := &t.entries[slot-1]
	if !e.valid || e.gen != gen {
		return zero, false
	}

	value := e.value
	e.valid = false
	e.value = zero
	e.gen++
	t.freeList = append(t.freeList, slot)

	return value, true
}

// Len returns the number of live entries.
func (t *Table[H, T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	count := 0
	for _, e := range t.entries {
		if e.valid {
			count++
		}
	}
	return count
}

// Each iterates over live entries until fn returns false. The lock is held
// for the duration; fn must not call back into the table.
func (t *Table[H, T]) Each(fn func(H, T) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for i := range t.entries {
		e := &t.entries[i]
		if e.valid {
			if !fn(pack[H](uint32(i+1), e.gen), e.value) {
				break
			}
		}
	}
}

// Clear removes all live entries, bumping every freed slot's generation.
func (t *Table[H, T]) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	var zero T
	for i := range t.entries {
		e := &t.entries[i]
		if e.valid {
			e.valid = false
			e.value = zero
			e.gen++
			t.freeList = append(t.freeList, uint32(i+1))
		}
	}
}
