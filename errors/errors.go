package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidHandle Kind = "invalid_handle" // zero, stale, or dead handle
	KindUnsupported   Kind = "unsupported"    // engine build lacks the service
	KindOutOfMemory   Kind = "out_of_memory"  // allocation failed after collection
	KindInvalidType   Kind = "invalid_type"   // bad type registration
	KindInvalidField  Kind = "invalid_field"  // field not present on the type
	KindInvalidInput  Kind = "invalid_input"  // malformed argument
	KindClosed        Kind = "closed"         // engine used after Close
	KindIncompatible  Kind = "incompatible"   // engine speaks a different contract
)

// Error is the structured error type shared by the bridge and the engines.
// A caller that hands the bridge a dead handle sees the same Error an engine
// would signal for that handle; the bridge adds no wrapping of its own.
type Error struct {
	Cause  error
	Kind   Kind
	Op     string // operation or engine service, e.g. "size_of"
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(e.Op)
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. Two Errors match on Kind
// alone; Op and Detail are context, not identity.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// Convenience constructors for the bridge error taxonomy

// InvalidHandle creates an invalid-handle error
func InvalidHandle(op, detail string) *Error {
	return &Error{
		Op:     op,
		Kind:   KindInvalidHandle,
		Detail: detail,
	}
}

// Unsupported creates an unsupported-operation error
func Unsupported(op, what string) *Error {
	return &Error{
		Op:     op,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// OutOfMemory creates an out-of-memory error
func OutOfMemory(op string, need, limit uint64) *Error {
	return &Error{
		Op:     op,
		Kind:   KindOutOfMemory,
		Detail: fmt.Sprintf("need %d bytes, heap limit %d", need, limit),
	}
}

// InvalidType creates a type registration error
func InvalidType(op, detail string) *Error {
	return &Error{
		Op:     op,
		Kind:   KindInvalidType,
		Detail: detail,
	}
}

// InvalidField creates a field resolution error
func InvalidField(op, field, typeName string) *Error {
	return &Error{
		Op:     op,
		Kind:   KindInvalidField,
		Detail: fmt.Sprintf("no field %q on type %q", field, typeName),
	}
}

// InvalidInput creates an invalid-input error
func InvalidInput(op, detail string) *Error {
	return &Error{
		Op:     op,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Closed creates an engine-closed error
func Closed(op string) *Error {
	return &Error{
		Op:     op,
		Kind:   KindClosed,
		Detail: "engine closed",
	}
}

// Incompatible creates a contract-mismatch error
func Incompatible(op, detail string, cause error) *Error {
	return &Error{
		Op:     op,
		Kind:   KindIncompatible,
		Detail: detail,
		Cause:  cause,
	}
}

// KindOf returns the Kind of err if it is (or wraps) an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// IsInvalidHandle reports whether err carries KindInvalidHandle.
func IsInvalidHandle(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindInvalidHandle
}

// IsUnsupported reports whether err carries KindUnsupported.
func IsUnsupported(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindUnsupported
}

// IsOutOfMemory reports whether err carries KindOutOfMemory.
func IsOutOfMemory(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindOutOfMemory
}

// IsClosed reports whether err carries KindClosed.
func IsClosed(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindClosed
}
