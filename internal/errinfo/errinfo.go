// Package errinfo classifies recoverable tool failures. Every error a tool
// returns carries one of four codes so callers can decide how to recover.
package errinfo

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeNotFound         Code = "not_found"
	CodeInvalidInput     Code = "invalid_input"
	CodeInsufficientData Code = "insufficient_data"
	CodeExternal         Code = "external"
)

// Error is a coded, user-facing failure.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Err }
func (e *Error) ErrCode() Code { return e.Code }

// Coder is implemented by errors from other packages that know their code.
type Coder interface {
	ErrCode() Code
}

func newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error { return newf(CodeNotFound, format, args...) }
func Invalid(format string, args ...any) *Error  { return newf(CodeInvalidInput, format, args...) }
func Insufficient(format string, args ...any) *Error {
	return newf(CodeInsufficientData, format, args...)
}

// External wraps a failure from a driver, remote server or library. The
// underlying message is kept verbatim.
func External(err error, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	if msg == "" {
		msg = err.Error()
	} else {
		msg = msg + ": " + err.Error()
	}
	return &Error{Code: CodeExternal, Message: msg, Err: err}
}

// CodeOf returns the code of the first Coder in err's chain, or
// CodeExternal for uncoded errors.
func CodeOf(err error) Code {
	var c Coder
	if errors.As(err, &c) {
		return c.ErrCode()
	}
	return CodeExternal
}
