// Package errors provides structured error types for the runtime-bridge library.
//
// Errors are categorized by Kind (error category) and carry the Op that raised
// them. The bridge and the engines share one taxonomy: when the bridge rejects
// a zero handle before dispatch, it signals the same Error an engine would
// signal for a dead one.
//
// Use the convenience constructors:
//
//	err := errors.InvalidHandle("size_of", "zero handle")
//	err := errors.Unsupported("address_of", "engine has no field introspection")
//
// All errors implement the standard error interface and support errors.Is/As.
// Is matches on Kind alone, so sentinel-style checks work across engines:
//
//	if errors.IsInvalidHandle(err) { ... }
package errors
