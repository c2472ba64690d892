package errors

import (
	goerrors "errors"
	"fmt"
)

// ContextError annotates an error with the action that caused it. Contexts
// accumulate as the error propagates up the stack, so the final message reads
// like a breadcrumb trail.
type ContextError struct {
	Context string
	Err     error
}

func (err ContextError) Error() string {
	return fmt.Sprintf("%s: %s", err.Context, err.Err)
}

// Unwrap makes ContextError compatible with the standard errors helpers.
func (err ContextError) Unwrap() error {
	return err.Err
}

// WithContext wraps err with context about the action that caused it.
func WithContext(err error, context string) error {
	return ContextError{Context: context, Err: err}
}

// New returns an error with the given message.
func New(msg string) error {
	return goerrors.New(msg)
}

// FriendlyError is an error whose message is meant to be shown to the user
// directly, without any wrapping context.
type FriendlyError struct {
	Message string
}

func (err FriendlyError) Error() string {
	return err.Message
}

// NewFriendlyError creates a FriendlyError with the given format string.
func NewFriendlyError(format string, args ...interface{}) error {
	return FriendlyError{Message: fmt.Sprintf(format, args...)}
}

// RootCause strips any context wrappers and returns the original error.
func RootCause(err error) error {
	for {
		ctxErr, ok := err.(ContextError)
		if !ok {
			return err
		}
		err = ctxErr.Err
	}
}

type friendlyMessager interface {
	FriendlyMessage() string
}

// GetPrintableMessage returns the message that should be shown to the user
// for the given error.
func GetPrintableMessage(err error) string {
	if err == nil {
		return ""
	}

	if friendly, ok := RootCause(err).(FriendlyError); ok {
		return friendly.Message
	}
	if friendly, ok := RootCause(err).(friendlyMessager); ok {
		return friendly.FriendlyMessage()
	}
	return err.Error()
}
