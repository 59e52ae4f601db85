package dto

import "net/http"

// Error codes returned by the API. The domain layer produces most of these;
// the rest originate in request parsing and validation.
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeValidation is used when request binding or validation fails
	ErrCodeValidation = "VALIDATION_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"

	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeAlreadyExists is used when creating a duplicate resource
	ErrCodeAlreadyExists = "ALREADY_EXISTS"
	// ErrCodeDuplicateOrder is used when the chat or order id already holds an order
	ErrCodeDuplicateOrder = "DUPLICATE_ORDER"

	// ErrCodeWrongState is used when the state machine rejects a transition
	ErrCodeWrongState = "WRONG_STATE"
	// ErrCodeInvalidAmount is used when an amount fails a business rule
	ErrCodeInvalidAmount = "INVALID_AMOUNT"
	// ErrCodeInsufficientFunds is used when a debit exceeds the liquid balance
	ErrCodeInsufficientFunds = "INSUFFICIENT_FUNDS"

	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "INVALID_INPUT"
	// ErrCodeDecodeFailure is used when a chat title does not decode to an order
	ErrCodeDecodeFailure = "DECODE_FAILURE"

	// ErrCodeLedgerWrite is used when a counter mutation fails
	ErrCodeLedgerWrite = "LEDGER_WRITE_FAILED"
	// ErrCodePartialWrite is used when a commit outcome is unknown
	ErrCodePartialWrite = "PARTIAL_WRITE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeValidation: http.StatusBadRequest,
	ErrCodeBadRequest: http.StatusBadRequest,

	ErrCodeNotFound:       http.StatusNotFound,
	ErrCodeAlreadyExists:  http.StatusConflict,
	ErrCodeDuplicateOrder: http.StatusConflict,

	// Business rule rejections -> 422 Unprocessable Entity
	ErrCodeWrongState:        http.StatusUnprocessableEntity,
	ErrCodeInvalidAmount:     http.StatusUnprocessableEntity,
	ErrCodeInsufficientFunds: http.StatusUnprocessableEntity,

	ErrCodeInvalidInput:  http.StatusBadRequest,
	ErrCodeDecodeFailure: http.StatusBadRequest,

	ErrCodeLedgerWrite:  http.StatusInternalServerError,
	ErrCodePartialWrite: http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes fall back to 500 Internal Server Error.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
