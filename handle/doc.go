// Package handle defines the opaque tokens that cross the bridge boundary.
//
// Handles are borrowed, never owned: holding an Object or Field token does
// not keep the referent alive, and releasing one returns the token to the
// engine without destroying anything the engine still needs. The engine's
// tables are the single source of truth for liveness.
//
// # Token Layout
//
// A token packs a 1-based slot index in its low 32 bits and the slot's
// generation in its high 32 bits. The zero token is reserved and always
// invalid, so callers can use the zero value as "no handle".
//
// # Generation Checking
//
// Slots are reused, generations are not: every Remove bumps the slot's
// generation, so a token that survives its referent fails validation
// rather than silently resolving to the slot's next occupant.
//
//	table := handle.NewTable[handle.Object, *thing]()
//
//	h := table.Insert(v)        // mint a token
//	v, ok := table.Get(h)       // ok == true while live
//	table.Remove(h)             // slot freed, generation bumped
//	_, ok = table.Get(h)        // ok == false, and stays false
//
// # Typed Tokens
//
// Object and Field are distinct types over the same layout. The engines
// keep them in separate tables, so a Field token can never be replayed
// where an Object is expected.
package handle
