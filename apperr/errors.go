// Package apperr defines the error kinds shared by the registry, the ingestion
// service and the worker pool.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that need to react to it.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindValidation   Kind = "validation"
	KindFileTooLarge Kind = "file_too_large"
	KindIO           Kind = "io_failure"
	KindParse        Kind = "parse_failure"
)

// Sentinels for errors.Is checks. Every *Error matches the sentinel of its kind.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation error")
	ErrFileTooLarge = errors.New("file too large")
	ErrIO           = errors.New("i/o failure")
	ErrParse        = errors.New("parse failure")
)

var sentinels = map[Kind]error{
	KindNotFound:     ErrNotFound,
	KindConflict:     ErrConflict,
	KindValidation:   ErrValidation,
	KindFileTooLarge: ErrFileTooLarge,
	KindIO:           ErrIO,
	KindParse:        ErrParse,
}

// Error carries the kind of failure, the operation that failed and the path or
// identifier it concerned.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

// New creates an error of the given kind.
func New(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := sentinels[e.Kind].Error()
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %s: %s", e.Op, e.Path, e.Kind, msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	return sentinels[e.Kind] == target
}

// NotFound reports a missing identifier, path or project.
func NotFound(op, what string) *Error {
	return New(KindNotFound, op, what, nil)
}

// Conflict reports a uniqueness violation.
func Conflict(op, path string, err error) *Error {
	return New(KindConflict, op, path, err)
}

// Validation reports malformed input.
func Validation(op, path string, err error) *Error {
	return New(KindValidation, op, path, err)
}

// FileTooLarge reports a file whose size exceeds the configured ceiling.
func FileTooLarge(op, path string, size, limit int64) *Error {
	return New(KindFileTooLarge, op, path, fmt.Errorf("%d bytes exceeds limit of %d bytes", size, limit))
}

// IO wraps a filesystem error.
func IO(op, path string, err error) *Error {
	return New(KindIO, op, path, err)
}

// Parse reports a classifier or downstream tooling failure.
func Parse(op, path string, err error) *Error {
	return New(KindParse, op, path, err)
}

// KindOf returns the kind of the first *Error in err's chain, or "" when there is none.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}
