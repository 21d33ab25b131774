package emulator

import (
	"errors"
	"fmt"
)

// ContractError is a transaction rejected by ledger rules. The transaction
// is rolled back in full.
type ContractError struct {
	Code    ContractErrorCode
	Message string
}

// ContractErrorCode categorizes contract rejections.
type ContractErrorCode string

const (
	// ErrCodeDuplicateMintID indicates an edition with the mint ID already exists.
	ErrCodeDuplicateMintID ContractErrorCode = "DUPLICATE_MINT_ID"

	// ErrCodeEditionNotFound indicates the edition ID is unknown.
	ErrCodeEditionNotFound ContractErrorCode = "EDITION_NOT_FOUND"

	// ErrCodeUnbounded indicates a mint into an edition with no limit.
	ErrCodeUnbounded ContractErrorCode = "UNBOUNDED_EDITION"

	// ErrCodeLimitExceeded indicates the mint would exceed the edition limit.
	ErrCodeLimitExceeded ContractErrorCode = "LIMIT_EXCEEDED"

	// ErrCodeInvalidArgument indicates malformed transaction arguments.
	ErrCodeInvalidArgument ContractErrorCode = "INVALID_ARGUMENT"
)

// Error implements the error interface.
func (e *ContractError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsContractError reports whether err is a ContractError with code.
func IsContractError(err error, code ContractErrorCode) bool {
	var ce *ContractError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

func contractErrorf(code ContractErrorCode, format string, args ...any) *ContractError {
	return &ContractError{Code: code, Message: fmt.Sprintf(format, args...)}
}
