package graft

import (
	"errors"
	"strings"
)

var (
	// ErrUnresolvableKey is returned when a key has no binding, no concrete
	// implementation, or no unambiguous construction method.
	ErrUnresolvableKey = errors.New("graft: unresolvable key")

	// ErrCyclicDependency is returned when a key is reachable from itself
	// through direct (non-provider) parameters.
	ErrCyclicDependency = errors.New("graft: cyclic dependency")

	// ErrDuplicateBinding is returned by Bind calls with throwIfExists set
	// when the key is already bound.
	ErrDuplicateBinding = errors.New("graft: duplicate binding")

	// ErrLifecycleHook is returned when a post-construction hook fails.
	ErrLifecycleHook = errors.New("graft: lifecycle hook failure")

	// ErrInvalidArguments is returned for nil or otherwise unusable arguments.
	ErrInvalidArguments = errors.New("graft: invalid arguments")
)

// Error carries the key a failure relates to and, for cycles, the resolution
// trail that led back to it.
//
// It matches its Kind with errors.Is, as well as any wrapped cause.
type Error struct {
	Kind  error
	Key   Key
	Trail []Key
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(e.Kind.Error())
	if !e.Key.IsZero() {
		b.WriteByte(' ')
		b.WriteString(e.Key.String())
	}

	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}

	if len(e.Trail) > 0 {
		b.WriteString(" (trail: ")
		for i, k := range e.Trail {
			if i > 0 {
				b.WriteString(" -> ")
			}
			b.WriteString(k.String())
		}
		b.WriteByte(')')
	}

	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func unresolvable(key Key, msg string) *Error {
	return &Error{Kind: ErrUnresolvableKey, Key: key, Msg: msg}
}

func invalidArguments(msg string) *Error {
	return &Error{Kind: ErrInvalidArguments, Msg: msg}
}
