package model

import (
	"errors"
	"fmt"
)

// ErrorKind : error taxonomy shared by the server and the signing client
type ErrorKind string

const (
	KindValidation   ErrorKind = "ValidationError"
	KindNotFound     ErrorKind = "NotFoundError"
	KindConflict     ErrorKind = "ConflictError"
	KindProcessing   ErrorKind = "ProcessingError"
	KindLoad         ErrorKind = "LoadError"
	KindRender       ErrorKind = "RenderError"
	KindNetwork      ErrorKind = "NetworkError"
	KindUnauthorized ErrorKind = "Unauthorized"
)

type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match on kind: errors.Is(err, &Error{Kind: KindConflict}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func NewValidationError(message string, err error) *Error {
	return NewError(KindValidation, message, err)
}

func NewNotFoundError(message string, err error) *Error {
	return NewError(KindNotFound, message, err)
}

func NewConflictError(message string, err error) *Error {
	return NewError(KindConflict, message, err)
}

func NewProcessingError(message string, err error) *Error {
	return NewError(KindProcessing, message, err)
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) ErrorKind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// IsKind : shorthand for KindOf(err) == kind
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// MessageOf returns the user-readable message of the first *Error in err's chain.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
