// Package aggregates defines the failure vocabulary shared by checklist write paths.
package aggregates

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies a checklist failure independently of the store that produced it.
type ErrorCode string

const (
	CodeValidation         ErrorCode = "validation"
	CodeNotFound           ErrorCode = "not_found"
	CodeConflict           ErrorCode = "conflict"
	CodePreconditionFailed ErrorCode = "precondition_failed"
	CodeRetryable          ErrorCode = "retryable"
	CodeInternal           ErrorCode = "internal"
)

// Error carries the code, the operation name ("checklist.generate", "groups.create") and an
// optional cause.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	if op != "" {
		b.WriteString(op)
		if msg != "" {
			b.WriteString(": ")
		}
	}
	b.WriteString(msg)
	if b.Len() == 0 {
		return string(e.Code)
	}
	fmt.Fprintf(&b, " (%s)", e.Code)
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// Wrap tags err with code, keeping err as the cause. A nil err stays nil.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(code, op, err.Error(), err)
}

func NotFound(op, format string, args ...any) error {
	return NewError(CodeNotFound, op, fmt.Sprintf(format, args...), nil)
}

func Validation(op, format string, args ...any) error {
	return NewError(CodeValidation, op, fmt.Sprintf(format, args...), nil)
}

// Conflict reports a write that lost to a concurrent writer; cause is usually the store's
// unique violation.
func Conflict(op string, cause error, format string, args ...any) error {
	return NewError(CodeConflict, op, fmt.Sprintf(format, args...), cause)
}

func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func IsCode(err error, code ErrorCode) bool {
	return code != "" && CodeOf(err) == code
}
