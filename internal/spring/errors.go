package spring

import (
	"errors"
	"fmt"
)

// Kind classifies protocol failures. Every kind is terminal for a session.
type Kind int

const (
	KindUnknown Kind = iota
	KindSocketCreate
	KindConnect
	KindVersionMismatch
	KindHandoff
	KindFrameWrite
	KindFrameRead
)

func (k Kind) String() string {
	switch k {
	case KindSocketCreate:
		return "socket create"
	case KindConnect:
		return "connect"
	case KindVersionMismatch:
		return "version mismatch"
	case KindHandoff:
		return "descriptor handoff"
	case KindFrameWrite:
		return "frame write"
	case KindFrameRead:
		return "frame read"
	default:
		return "unknown"
	}
}

// ExitCode is the process exit status reported for this kind.
func (k Kind) ExitCode() int {
	switch k {
	case KindSocketCreate:
		return 3
	case KindConnect:
		return 4
	case KindVersionMismatch:
		return 5
	case KindHandoff:
		return 6
	case KindFrameWrite:
		return 7
	case KindFrameRead:
		return 8
	default:
		return 1
	}
}

// Error is a classified protocol failure.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Op != "":
		return e.Op
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the kind sentinels below, so errors.Is(err, ErrConnect) holds
// for any connect failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Op != "" || t.Err != nil {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrSocketCreate    = &Error{Kind: KindSocketCreate}
	ErrConnect         = &Error{Kind: KindConnect}
	ErrVersionMismatch = &Error{Kind: KindVersionMismatch}
	ErrHandoff         = &Error{Kind: KindHandoff}
	ErrFrameWrite      = &Error{Kind: KindFrameWrite}
	ErrFrameRead       = &Error{Kind: KindFrameRead}
)

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

// ExitCode maps err onto a process exit status: 0 for nil, the kind's code
// for protocol failures and 1 for anything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return KindOf(err).ExitCode()
}
