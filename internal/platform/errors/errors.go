// Package errors is the facade's error taxonomy; import it as perr
// every failure a caller sees carries one ErrorCode, and the gateway maps that code
// to an HTTP status and a kind name
package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies a failure; values are stable, add sparingly
type ErrorCode uint16

const (
	ErrorCodeUnknown ErrorCode = iota
	ErrorCodePanic
	// ErrorCodeUnavailable covers lost connections, timeouts and refusals
	// it is the only code a retry may cure
	ErrorCodeUnavailable
	// ErrorCodeInvalidArgument is bad input caught before any I/O
	ErrorCodeInvalidArgument
	ErrorCodeValidation
	ErrorCodeJSON
	// ErrorCodeNotFound is a single record lookup that matched nothing
	ErrorCodeNotFound
	// ErrorCodeAmbiguous is a single record lookup that matched several rows
	ErrorCodeAmbiguous
	// ErrorCodeQuery is a statement the server rejected; its diagnostic is kept
	ErrorCodeQuery
)

var codes = [...]struct {
	kind   string
	status int
}{
	ErrorCodeUnknown:         {"unknown", http.StatusInternalServerError},
	ErrorCodePanic:           {"panic", http.StatusInternalServerError},
	ErrorCodeUnavailable:     {"transport", http.StatusServiceUnavailable},
	ErrorCodeInvalidArgument: {"invalid_argument", http.StatusUnprocessableEntity},
	ErrorCodeValidation:      {"validation", http.StatusBadRequest},
	ErrorCodeJSON:            {"json", http.StatusBadRequest},
	ErrorCodeNotFound:        {"not_found", http.StatusNotFound},
	ErrorCodeAmbiguous:       {"ambiguous", http.StatusConflict},
	ErrorCodeQuery:           {"query", http.StatusBadGateway},
}

func (c ErrorCode) known() ErrorCode {
	if int(c) >= len(codes) {
		return ErrorCodeUnknown
	}
	return c
}

// String is the kind name logs and the response envelope use
func (c ErrorCode) String() string { return codes[c.known()].kind }

// Status is the HTTP status the gateway answers with
func (c ErrorCode) Status() int { return codes[c.known()].status }

// ErrNotFound is the bare not found sentinel
var ErrNotFound = New(ErrorCodeNotFound, "not found")

// ErrAmbiguous is the bare sentinel for a lookup that matched several rows
var ErrAmbiguous = New(ErrorCodeAmbiguous, "expected exactly one row, got more")

// Error is a classified failure
// field names the offending input and op the facade operation that failed
type Error struct {
	orig  error
	msg   string
	code  ErrorCode
	field string
	op    string
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.orig != nil:
		return e.msg + ": " + e.orig.Error()
	default:
		return e.msg
	}
}

func (e *Error) Unwrap() error   { return e.orig }
func (e *Error) Code() ErrorCode { return e.code }
func (e *Error) Field() string   { return e.field }
func (e *Error) Op() string      { return e.op }

// As returns the outermost *Error in err's chain
func As(err error) (*Error, bool) {
	var e *Error
	ok := stderrs.As(err, &e)
	return e, ok
}

// CodeOf is err's code, or ErrorCodeUnknown for errors that are not ours
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	return ErrorCodeUnknown
}

func IsCode(err error, code ErrorCode) bool { return CodeOf(err) == code }
func IsTransport(err error) bool            { return IsCode(err, ErrorCodeUnavailable) }
func IsQuery(err error) bool                { return IsCode(err, ErrorCodeQuery) }
func IsNotFound(err error) bool             { return IsCode(err, ErrorCodeNotFound) }
func IsAmbiguous(err error) bool            { return IsCode(err, ErrorCodeAmbiguous) }

// Retryable is true only for transport failures the caller did not cause by cancelling
func Retryable(err error) bool {
	return IsTransport(err) && !stderrs.Is(err, context.Canceled)
}

// Public is what a response may reveal about an error
type Public struct {
	Status  int
	Kind    string
	Message string
	Field   string
}

// Describe picks the public view of err
// only query errors expose their cause, since it is the server's diagnostic;
// foreign errors are unknown and keep their text
func Describe(err error) Public {
	e, ok := As(err)
	if !ok {
		return Public{Status: ErrorCodeUnknown.Status(), Kind: ErrorCodeUnknown.String(), Message: err.Error()}
	}
	msg := e.msg
	if e.code == ErrorCodeQuery && e.orig != nil {
		msg = e.Error()
	}
	return Public{Status: e.code.Status(), Kind: e.code.String(), Message: msg, Field: e.field}
}

// WithField returns a copy of err naming field; foreign errors pass through
func WithField(err error, field string) error {
	return with(err, func(c *Error) { c.field = field })
}

// WithOp returns a copy of err tagged with op; foreign errors pass through
func WithOp(err error, op string) error {
	return with(err, func(c *Error) { c.op = op })
}

func with(err error, set func(*Error)) error {
	e, ok := As(err)
	if !ok {
		return err
	}
	c := *e
	set(&c)
	return &c
}

func New(code ErrorCode, msg string) error { return &Error{code: code, msg: msg} }

func Newf(code ErrorCode, format string, a ...any) error {
	return New(code, fmt.Sprintf(format, a...))
}

// Wrap classifies orig under code; Error() reads "msg: orig"
func Wrap(orig error, code ErrorCode, msg string) error {
	return &Error{orig: orig, code: code, msg: msg}
}

func Wrapf(orig error, code ErrorCode, format string, a ...any) error {
	return Wrap(orig, code, fmt.Sprintf(format, a...))
}

func NotFoundf(format string, a ...any) error    { return Newf(ErrorCodeNotFound, format, a...) }
func Ambiguousf(format string, a ...any) error   { return Newf(ErrorCodeAmbiguous, format, a...) }
func InvalidArgf(format string, a ...any) error  { return Newf(ErrorCodeInvalidArgument, format, a...) }
func Queryf(format string, a ...any) error       { return Newf(ErrorCodeQuery, format, a...) }
func JSONErrf(format string, a ...any) error     { return Newf(ErrorCodeJSON, format, a...) }
func PanicErrf(format string, a ...any) error    { return Newf(ErrorCodePanic, format, a...) }
func Unavailablef(format string, a ...any) error { return Newf(ErrorCodeUnavailable, format, a...) }
