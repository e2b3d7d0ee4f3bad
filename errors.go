package main

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindInvalidInput
	KindNotFound
	KindTransport
	KindRangeUnsupported
	KindInvalidFormat
)

var (
	// ErrInvalidInput is returned when the archive location is malformed or not a .zip path.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when the remote object does not expose its size.
	ErrNotFound = errors.New("not found")

	// ErrTransport is returned on network level failures.
	ErrTransport = errors.New("transport error")

	// ErrRangeUnsupported is returned when a response does not match the requested byte range.
	ErrRangeUnsupported = errors.New("range requests not supported")

	// ErrInvalidFormat is returned when the EOCD record or the central directory is malformed.
	ErrInvalidFormat = errors.New("invalid zip format")
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid input"
	case KindNotFound:
		return "not found"
	case KindTransport:
		return "transport"
	case KindRangeUnsupported:
		return "range unsupported"
	case KindInvalidFormat:
		return "invalid format"
	}
	return "unknown"
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindInvalidInput:
		return ErrInvalidInput
	case KindNotFound:
		return ErrNotFound
	case KindTransport:
		return ErrTransport
	case KindRangeUnsupported:
		return ErrRangeUnsupported
	case KindInvalidFormat:
		return ErrInvalidFormat
	}
	return nil
}

// ListError carries the failed step and the error kind.
type ListError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *ListError) Error() string {
	msg := e.Kind.String()
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *ListError) Unwrap() error {
	return e.Err
}

func (e *ListError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

func newError(kind ErrorKind, op string, err error) *ListError {
	return &ListError{Kind: kind, Op: op, Err: err}
}

func errorf(kind ErrorKind, op string, format string, args ...any) *ListError {
	return newError(kind, op, fmt.Errorf(format, args...))
}

// withOp returns err with its step name set. Wrapped ListErrors keep their kind,
// anything else becomes a transport failure. err itself is never modified.
func withOp(op string, err error) error {
	if err == nil {
		return nil
	}
	if le, ok := err.(*ListError); ok {
		if le.Op != "" {
			return le
		}
		return newError(le.Kind, op, le.Err)
	}
	var le *ListError
	if errors.As(err, &le) {
		return newError(le.Kind, op, err)
	}
	return newError(KindTransport, op, err)
}

// KindOf returns the kind of the first ListError in the chain.
func KindOf(err error) ErrorKind {
	var le *ListError
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindUnknown
}
