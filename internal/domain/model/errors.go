package model

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Callers match them with errors.Is.
var (
	// ErrValidation marks a rejected mutation, e.g. negative EXP on an add.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a lookup or upsert of an unknown key.
	ErrNotFound = errors.New("not found")
	// ErrUnresolvedPlayer marks a PlayerScore whose name is absent from the registry.
	ErrUnresolvedPlayer = errors.New("unresolved player")
	// ErrMalformedEvent marks a platform message that lacks attribution data.
	ErrMalformedEvent = errors.New("malformed event")
	// ErrCollaborator marks a failed or timed out call to an external collaborator.
	ErrCollaborator = errors.New("collaborator failure")
	// ErrStateTransition marks an out-of-order pipeline call.
	ErrStateTransition = errors.New("invalid state transition")
)

// Error carries the failing operation alongside an error kind.
type Error struct {
	Op   string // e.g. "registry.Upsert"
	Kind error  // one of the sentinel kinds above
	Err  error  // underlying cause, optional
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Kind)
}

// Unwrap exposes the cause, falling back to the kind.
func (e *Error) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is matches either the kind or the cause.
func (e *Error) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	return e.Err != nil && errors.Is(e.Err, target)
}

// NewKind returns an *Error for op with no underlying cause.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// Wrap returns an *Error for op wrapping err under kind. A nil err yields nil.
func Wrap(op string, kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Err: err}
}
