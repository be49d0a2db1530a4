package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure independently of the status code it maps to.
type Kind string

const (
	KindBadRequest          Kind = "bad_request"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindEmptyResult         Kind = "empty_result"
	KindInternal            Kind = "internal"
)

type AppError struct {
	Kind    Kind   `json:"-"`
	Code    int    `json:"-"`
	Message string `json:"error"`
	Op      string `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func InvalidInput(op string, err error, message string) *AppError {
	return &AppError{
		Kind:    KindBadRequest,
		Code:    http.StatusBadRequest,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

// Upstream reports a failure of an external collaborator such as the
// captions service. It is answered with 404, like a missing resource.
func Upstream(op string, err error, message string) *AppError {
	return &AppError{
		Kind:    KindUpstreamUnavailable,
		Code:    http.StatusNotFound,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

func Empty(op string, err error, message string) *AppError {
	return &AppError{
		Kind:    KindEmptyResult,
		Code:    http.StatusNotFound,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

func Internal(op string, err error, message string) *AppError {
	return &AppError{
		Kind:    KindInternal,
		Code:    http.StatusInternalServerError,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns KindInternal for errors that are not AppErrors.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

func IsBadRequest(err error) bool { return KindOf(err) == KindBadRequest }
func IsUpstream(err error) bool   { return KindOf(err) == KindUpstreamUnavailable }
func IsEmpty(err error) bool      { return KindOf(err) == KindEmptyResult }
