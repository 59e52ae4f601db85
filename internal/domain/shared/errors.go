package shared

import "fmt"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapDomainError creates a domain error that wraps an underlying cause
func WrapDomainError(code, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Common domain errors
var (
	ErrNotFound          = NewDomainError("NOT_FOUND", "No active order for this chat")
	ErrDuplicateOrder    = NewDomainError("DUPLICATE_ORDER", "Order already exists")
	ErrWrongState        = NewDomainError("WRONG_STATE", "Operation not allowed in current order state")
	ErrInvalidAmount     = NewDomainError("INVALID_AMOUNT", "Amount is non-positive or exceeds the allowed limit")
	ErrInsufficientFunds = NewDomainError("INSUFFICIENT_FUNDS", "Insufficient liquid funds")
	ErrInvalidInput      = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrDecodeFailure     = NewDomainError("DECODE_FAILURE", "Title does not contain an order code")
	ErrAlreadyExists     = NewDomainError("ALREADY_EXISTS", "Resource already exists")
)

// NewLedgerWriteError wraps a storage failure during a ledger mutation.
// These are retryable from the caller's perspective; the core never retries.
func NewLedgerWriteError(cause error) *DomainError {
	return WrapDomainError("LEDGER_WRITE_FAILED", fmt.Sprintf("Ledger write failed: %v", cause), cause)
}

// NewPartialWriteError reports a transaction whose writes were all accepted but
// whose commit failed. Compensation describes what the caller must verify or
// replay before treating the command as lost.
func NewPartialWriteError(operation, compensation string, cause error) *DomainError {
	return WrapDomainError(
		"PARTIAL_WRITE",
		fmt.Sprintf("Commit failed after %s; compensation required: %s", operation, compensation),
		cause,
	)
}
