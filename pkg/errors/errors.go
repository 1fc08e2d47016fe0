package errors

import (
	stderrors "errors"
	"fmt"
)

// ChatError carries one of the wire-visible error codes alongside a
// human-readable message. Store failures keep their cause for logging but the
// cause is never serialized to clients.
type ChatError struct {
	Code    Code   `json:"code"`
	Message string `json:"msg"`
	Cause   error  `json:"-"`
}

func (e *ChatError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ChatError) Unwrap() error { return e.Cause }

// Constructors
func New(code Code, message string) error {
	return &ChatError{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) error {
	return &ChatError{Code: code, Message: message, Cause: cause}
}

func Unauthenticated(msg string) error {
	return New(CodeUnauthenticated, msg)
}

func InvalidRequest(msg string) error {
	return New(CodeInvalidRequest, msg)
}

func InvalidRoom(msg string) error {
	return New(CodeInvalidRoom, msg)
}

func NotInRoom(msg string) error {
	return New(CodeNotInRoom, msg)
}

func Failed(msg string, cause error) error {
	return Wrap(CodeFailed, msg, cause)
}

// CodeOf extracts the taxonomy code from err, or CodeUnknown when err was not
// built by this package.
func CodeOf(err error) Code {
	var ce *ChatError
	if stderrors.As(err, &ce) {
		return ce.Code
	}
	return CodeUnknown
}
