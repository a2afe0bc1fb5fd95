package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an AppError so transports can map it to a status code.
type ErrorKind string

const (
	KindNotFound     ErrorKind = "not_found"
	KindValidation   ErrorKind = "validation"
	KindBusinessRule ErrorKind = "business_rule"
	KindForbidden    ErrorKind = "forbidden"
	KindConflict     ErrorKind = "conflict"
)

// AppError is a typed business failure. Two AppErrors match under errors.Is
// when their codes are equal, so sentinels survive added detail.
type AppError struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

// Is reports whether target is an AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithDetail returns a copy of e with detail appended to its message.
func (e *AppError) WithDetail(detail string) *AppError {
	return &AppError{Kind: e.Kind, Code: e.Code, Message: e.Message + ": " + detail}
}

// NewNotFoundError reports that an entity id does not resolve.
func NewNotFoundError(entity string, id any) *AppError {
	return &AppError{
		Kind:    KindNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s %v not found", entity, id),
	}
}

// NewValidationError reports a rejected input.
func NewValidationError(message string) *AppError {
	return &AppError{Kind: KindValidation, Code: "VALIDATION", Message: message}
}

// NewForbiddenError reports that the principal may not perform the action.
func NewForbiddenError(message string) *AppError {
	return &AppError{Kind: KindForbidden, Code: "FORBIDDEN", Message: message}
}

// NewConflictError reports a clash with existing state.
func NewConflictError(message string) *AppError {
	return &AppError{Kind: KindConflict, Code: "CONFLICT", Message: message}
}

// NewCodedError builds a sentinel error with a stable code.
func NewCodedError(kind ErrorKind, code, message string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message}
}

// KindOf returns the kind of the first AppError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return "", false
	}
	return appErr.Kind, true
}

// IsNotFound reports whether err carries a KindNotFound AppError.
func IsNotFound(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindNotFound
}
