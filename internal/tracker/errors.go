package tracker

import (
	"errors"
	"fmt"
)

// ErrorKind classifies correlator failures.
type ErrorKind string

const (
	// KindInput marks malformed or missing event fields.
	KindInput ErrorKind = "input"
	// KindStore marks persistence failures that survived retries.
	KindStore ErrorKind = "store"
)

// ErrMissingSessionID is returned when an event carries no session_id.
var ErrMissingSessionID = errors.New("missing session_id")

// Error is a classified correlator error.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

// Unwrap implements the errors.Unwrap interface.
func (e *Error) Unwrap() error {
	return e.Err
}

func inputError(op string, err error) error {
	return &Error{Kind: KindInput, Op: op, Err: err}
}

func storeError(op string, err error) error {
	return &Error{Kind: KindStore, Op: op, Err: err}
}

// KindOf returns the kind of a correlator error, or "" for other errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsInput reports whether err is an input error.
func IsInput(err error) bool {
	return KindOf(err) == KindInput
}

// IsStore reports whether err is a store error.
func IsStore(err error) bool {
	return KindOf(err) == KindStore
}
