package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	cases := []struct {
		code   string
		status int
	}{
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeDuplicateOrder, http.StatusConflict},
		{ErrCodeAlreadyExists, http.StatusConflict},
		{ErrCodeWrongState, http.StatusUnprocessableEntity},
		{ErrCodeInvalidAmount, http.StatusUnprocessableEntity},
		{ErrCodeInsufficientFunds, http.StatusUnprocessableEntity},
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodeDecodeFailure, http.StatusBadRequest},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeLedgerWrite, http.StatusInternalServerError},
		{ErrCodePartialWrite, http.StatusInternalServerError},
		{"SOMETHING_NEW", http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.status, GetHTTPStatus(tc.code), tc.code)
	}
}

func TestErrorResponseShape(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeNotFound, "No active order for this chat", "req-123")
	assert.False(t, resp.Success)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "req-123", resp.Error.RequestID)

	ok := NewSuccessResponse(map[string]string{"status": "ok"})
	assert.True(t, ok.Success)
	assert.Nil(t, ok.Error)
}
