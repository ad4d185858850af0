package api

import "net/http"

// Error is a handler failure rendered as a Result envelope by the error
// middleware. Log, when set, is logged but never sent to the client.
type Error struct {
	Status  int
	Code    string
	Message string
	Data    any
	Log     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Log
}

// Result converts the error into the response envelope.
func (e *Error) Result() Result {
	r := Failed(e.Code, e.Message)
	r.Data = e.Data
	return r
}

// Fail reports an operation failure. Like every endpoint failure it is sent
// with HTTP 200 and success=false.
func Fail(msg string, cause error) *Error {
	return &Error{
		Status:  http.StatusOK,
		Code:    GenericErrorCode,
		Message: msg,
		Log:     cause,
	}
}

// WithData attaches a payload to the failure envelope.
func (e *Error) WithData(data any) *Error {
	e.Data = data
	return e
}

// ValidationFailed reports a malformed request with per-field messages.
func ValidationFailed(fields map[string]string) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Code:    GenericErrorCode,
		Message: "invalid request",
		Data:    fields,
	}
}

// InternalError is used for failures no handler anticipated.
func InternalError() *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Code:    GenericErrorCode,
		Message: "internal server error",
	}
}
