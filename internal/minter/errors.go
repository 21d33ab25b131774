package minter

import (
	"errors"
	"fmt"
)

// Error is a pipeline failure a user can act on.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description naming the offending input.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes pipeline errors.
type ErrorCode string

const (
	// ErrCodeInvalidEditionSize indicates an edition_size value that is
	// neither a non-negative integer nor "null".
	ErrCodeInvalidEditionSize ErrorCode = "INVALID_EDITION_SIZE"

	// ErrCodeUnboundedEdition indicates a mint into an edition without a limit.
	ErrCodeUnboundedEdition ErrorCode = "UNBOUNDED_EDITION"

	// ErrCodeGateway indicates a failed ledger call.
	ErrCodeGateway ErrorCode = "GATEWAY"

	// ErrCodePendingClaimKeys indicates claim keys left by an interrupted run.
	ErrCodePendingClaimKeys ErrorCode = "PENDING_CLAIM_KEYS"

	// ErrCodeMissingField indicates an input row without a required column.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"

	// ErrCodeInvalidRequest indicates malformed run parameters or input values.
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// HasCode reports whether err is an Error with code.
// Uses errors.As to handle wrapped errors.
func HasCode(err error, code ErrorCode) bool {
	var me *Error
	if errors.As(err, &me) {
		return me.Code == code
	}
	return false
}

// IsUserError reports whether err stems from input or ledger state the user
// controls, as opposed to an internal failure.
func IsUserError(err error) bool {
	var me *Error
	return errors.As(err, &me)
}

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func gatewayError(err error, format string, args ...any) *Error {
	return &Error{Code: ErrCodeGateway, Message: fmt.Sprintf(format, args...), Err: err}
}
