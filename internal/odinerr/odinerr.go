// Package odinerr gives every layer of the core (proto, pit, flash) a
// shared, switchable error kind instead of a pile of per-package
// sentinels, while still composing with the standard %w wrapping idiom.
package odinerr

import "fmt"

// Kind classifies a core failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindHandshake
	KindIO
	KindUSB
	KindInvalidPit
	KindInvalidFile
	KindInvalidChecksum
	KindPartitionNotFound
	KindFlashNameNotFound
	KindUnsupportedBinaryType
	KindProtocolMismatch
)

func (k Kind) String() string {
	switch k {
	case KindHandshake:
		return "handshake"
	case KindIO:
		return "io"
	case KindUSB:
		return "usb"
	case KindInvalidPit:
		return "invalid_pit"
	case KindInvalidFile:
		return "invalid_file"
	case KindInvalidChecksum:
		return "invalid_checksum"
	case KindPartitionNotFound:
		return "partition_not_found"
	case KindFlashNameNotFound:
		return "flash_name_not_found"
	case KindUnsupportedBinaryType:
		return "unsupported_binary_type"
	case KindProtocolMismatch:
		return "protocol_mismatch"
	default:
		return "unknown"
	}
}

// Error is the concrete error type returned by every core package.
type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

// Unwrap exposes the wrapped cause, if any, to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.err }

// Kind reports the failure category.
func (e *Error) Kind() Kind { return e.kind }

// New creates an Error with no wrapped cause.
func New(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

// Newf creates an Error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error carrying an underlying cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{kind: kind, msg: msg, err: err}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.kind == kind
}
