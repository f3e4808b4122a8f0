package domain

import (
	"errors"
)

type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not found"
	KindConflict   ErrorKind = "conflict"
	KindStorage    ErrorKind = "storage"
)

// Sentinels for errors.Is matching against an *Error of the same kind.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrStorage    = errors.New("storage error")
)

var kindSentinels = map[ErrorKind]error{
	KindValidation: ErrValidation,
	KindNotFound:   ErrNotFound,
	KindConflict:   ErrConflict,
	KindStorage:    ErrStorage,
}

// Error is the single error type returned by ledger operations. Message is the
// human-readable text callers see; Key and Phase are only set for lookups and
// storage failures.
type Error struct {
	Kind    ErrorKind
	Message string
	Key     string
	Phase   string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

func NewValidationError(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func NewNotFoundError(key, msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg, Key: key}
}

func NewConflictError(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

// NewStorageError wraps a failed ledger call with the key and phase (get, put,
// decode, encode, commit) it failed in.
func NewStorageError(key, phase, msg string, err error) *Error {
	return &Error{Kind: KindStorage, Message: msg, Key: key, Phase: phase, Err: err}
}

// KindOf reports the kind of err, treating anything unrecognised as a storage failure.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}
