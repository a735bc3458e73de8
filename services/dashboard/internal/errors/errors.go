package errors

import (
	stderrors "errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

type ErrorType string

const (
	ErrTypeSourceUnavailable ErrorType = "SOURCE_UNAVAILABLE"
	ErrTypeSchema            ErrorType = "SCHEMA"
	ErrTypeRowParse          ErrorType = "ROW_PARSE"
	ErrTypeUnknownLabel      ErrorType = "UNKNOWN_LABEL"
	ErrTypeNotFound          ErrorType = "NOT_FOUND"
	ErrTypeInvalidInput      ErrorType = "INVALID_INPUT"
	ErrTypeInternal          ErrorType = "INTERNAL"
	ErrTypeUnavailable       ErrorType = "UNAVAILABLE"
	ErrTypeRateLimited       ErrorType = "RATE_LIMITED"
)

type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Stack   []byte
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func (e *DomainError) StackTrace() []byte {
	return e.Stack
}

func New(errType ErrorType, message string, err error) *DomainError {
	var stack []byte
	if err != nil {
		if stackErr, ok := err.(*goerrors.Error); ok {
			stack = stackErr.Stack()
		} else {
			stack = goerrors.Wrap(err, 2).Stack()
		}
	} else {
		stack = goerrors.New(message).Stack()
	}

	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Stack:   stack,
	}
}

// SourceUnavailable reports a dataset that could not be opened or read.
// The message always carries the source identity.
func SourceUnavailable(source string, err error) *DomainError {
	return New(ErrTypeSourceUnavailable, fmt.Sprintf("dataset source %q unavailable", source), err)
}

// Schema reports required columns that are absent after header normalization.
func Schema(source string, missing []string) *DomainError {
	return New(ErrTypeSchema, fmt.Sprintf("dataset source %q is missing required columns %v", source, missing), nil)
}

func RowParse(line int, column string, err error) *DomainError {
	return New(ErrTypeRowParse, fmt.Sprintf("line %d: column %q", line, column), err)
}

func UnknownLabel(label string) *DomainError {
	return New(ErrTypeUnknownLabel, fmt.Sprintf("experience label %q has no code", label), nil)
}

func NotFound(message string, err error) *DomainError {
	return New(ErrTypeNotFound, message, err)
}

func InvalidInput(message string, err error) *DomainError {
	return New(ErrTypeInvalidInput, message, err)
}

func Internal(message string, err error) *DomainError {
	return New(ErrTypeInternal, message, err)
}

func Unavailable(message string, err error) *DomainError {
	return New(ErrTypeUnavailable, message, err)
}

func RateLimited(message string) *DomainError {
	return New(ErrTypeRateLimited, message, nil)
}

// TypeOf returns the type of the first DomainError in err's chain, or
// ErrTypeInternal when there is none.
func TypeOf(err error) ErrorType {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de.Type
	}
	return ErrTypeInternal
}

func IsType(err error, errType ErrorType) bool {
	var de *DomainError
	return stderrors.As(err, &de) && de.Type == errType
}
