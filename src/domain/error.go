package domain

import (
	"net/http"
)

// ErrorCode names a class of failure and the HTTP status it maps to.
type ErrorCode struct {
	Name       string
	StatusCode int
}

var (
	ErrorCodeParameterInvalid     = ErrorCode{Name: "PARAMETER_INVALID", StatusCode: http.StatusBadRequest}
	ErrorCodeResourceNotFound     = ErrorCode{Name: "RESOURCE_NOT_FOUND", StatusCode: http.StatusNotFound}
	ErrorCodeAuthPermissionDenied = ErrorCode{Name: "AUTH_PERMISSION_DENIED", StatusCode: http.StatusForbidden}
	ErrorCodeAuthNotAuthenticated = ErrorCode{Name: "AUTH_NOT_AUTHENTICATED", StatusCode: http.StatusUnauthorized}
	ErrorCodeInternalProcess      = ErrorCode{Name: "INTERNAL_PROCESS", StatusCode: http.StatusInternalServerError}
	ErrorCodeRemoteProcessError   = ErrorCode{Name: "REMOTE_PROCESS_ERROR", StatusCode: http.StatusBadGateway}
	ErrorCodeNotImplemented       = ErrorCode{Name: "NOT_IMPLEMENTED", StatusCode: http.StatusNotImplemented}
)

// DomainError carries the failure class, an optional client facing message
// and structured detail next to the wrapped error.
type DomainError struct {
	code      ErrorCode
	err       error
	clientMsg string
	detail    map[string]interface{}
}

type ErrorOption func(*DomainError)

func WithMsg(msg string) ErrorOption {
	return func(e *DomainError) {
		e.clientMsg = msg
	}
}

func WithDetail(detail map[string]interface{}) ErrorOption {
	return func(e *DomainError) {
		e.detail = detail
	}
}

func NewError(code ErrorCode, err error, opts ...ErrorOption) error {
	e := DomainError{code: code, err: err}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

func (e DomainError) Error() string {
	if e.err == nil {
		return e.Name()
	}
	return e.err.Error()
}

func (e DomainError) Unwrap() error {
	return e.err
}

// Name returns "UNKNOWN" for the zero value so callers can inspect any error.
func (e DomainError) Name() string {
	if e.code.Name == "" {
		return "UNKNOWN"
	}
	return e.code.Name
}

func (e DomainError) ClientMsg() string {
	return e.clientMsg
}

func (e DomainError) Detail() map[string]interface{} {
	return e.detail
}

func (e DomainError) HTTPStatus() int {
	if e.code.StatusCode == 0 {
		return http.StatusInternalServerError
	}
	return e.code.StatusCode
}
