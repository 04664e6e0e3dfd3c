package apperrors

import (
	"errors"
	"net/http"
	"strings"
)

// Error is the error interface used across the service. It augments the
// standard error with chainable message/cause constructors and an HTTP
// status code used when the error surfaces at the API boundary.
type Error interface {
	error
	Unwrap() error
	Msg(msg string) Error
	MsgErr(msg string, err ...error) Error
	Err(err ...error) Error
	SetStatusCode(code int) Error
	StatusCode() int
	ErrorAll() string
}

type appError struct {
	msg        string
	err        error
	statusCode int
}

func (e *appError) Error() string {
	return e.msg
}

func (e *appError) Unwrap() error {
	return e.err
}

func (e *appError) Msg(msg string) Error {
	return &appError{
		msg:        msg,
		err:        e,
		statusCode: e.statusCode,
	}
}

func (e *appError) MsgErr(msg string, err ...error) Error {
	return &appError{
		msg:        msg,
		err:        errors.Join(append([]error{error(e)}, err...)...),
		statusCode: e.statusCode,
	}
}

func (e *appError) Err(err ...error) Error {
	return &appError{
		msg:        e.msg,
		err:        errors.Join(append([]error{error(e)}, err...)...),
		statusCode: e.statusCode,
	}
}

func (e *appError) SetStatusCode(code int) Error {
	return &appError{
		msg:        e.msg,
		err:        e.err,
		statusCode: code,
	}
}

// StatusCode returns the HTTP status for this error, defaulting to 500
// when none was set anywhere in the chain.
func (e *appError) StatusCode() int {
	if e.statusCode != 0 {
		return e.statusCode
	}
	return http.StatusInternalServerError
}

// ErrorAll returns the messages of the whole chain, outermost first.
func (e *appError) ErrorAll() string {
	msgs := []string{e.msg}
	err := e.err
	for err != nil {
		msgs = append(msgs, err.Error())
		err = errors.Unwrap(err)
	}
	return strings.Join(msgs, ": ")
}

func New(msg string) Error {
	return &appError{
		msg: msg,
		err: nil,
	}
}
