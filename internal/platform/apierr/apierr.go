package apierr

import (
	"errors"
	"fmt"
	"net/http"

	domainagg "github.com/yungbote/brokerdesk-backend/internal/domain/aggregates"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

var statusByCode = map[domainagg.ErrorCode]int{
	domainagg.CodeValidation:         http.StatusBadRequest,
	domainagg.CodeNotFound:           http.StatusNotFound,
	domainagg.CodeConflict:           http.StatusConflict,
	domainagg.CodePreconditionFailed: http.StatusPreconditionFailed,
	domainagg.CodeRetryable:          http.StatusServiceUnavailable,
	domainagg.CodeInternal:           http.StatusInternalServerError,
}

// FromError resolves err into an HTTP error. An *Error passes through, a domain error maps
// by its code, and anything else becomes a 500 carrying fallbackCode.
func FromError(err error, fallbackCode string) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	if code := domainagg.CodeOf(err); code != "" {
		status, ok := statusByCode[code]
		if !ok {
			status = http.StatusInternalServerError
		}
		return New(status, string(code), err)
	}
	return New(http.StatusInternalServerError, fallbackCode, err)
}
