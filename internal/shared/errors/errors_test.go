package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsSetStatusCodes(t *testing.T) {
	tests := []struct {
		err      *AppError
		wantType ErrorType
		wantCode int
	}{
		{NewValidationError("bad"), ErrorTypeValidation, http.StatusBadRequest},
		{NewNotFoundError("missing"), ErrorTypeNotFound, http.StatusNotFound},
		{NewConflictError("stale"), ErrorTypeConflict, http.StatusConflict},
		{NewUnauthorizedError("who"), ErrorTypeUnauthorized, http.StatusUnauthorized},
		{NewForbiddenError("no"), ErrorTypeForbidden, http.StatusForbidden},
		{NewPaymentRequiredError("pay"), ErrorTypePaymentRequired, http.StatusPaymentRequired},
		{NewInternalError("boom"), ErrorTypeInternal, http.StatusInternalServerError},
		{NewBadRequestError("huh"), ErrorTypeBadRequest, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(string(tt.wantType), func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantCode, tt.err.Code)
		})
	}
}

func TestAppError_ErrorIncludesDetails(t *testing.T) {
	assert.Equal(t, "not_found: subscription not found", NewNotFoundError("subscription not found").Error())
	assert.Equal(t, "not_found: subscription not found (tenant t-1)", NewNotFoundError("subscription not found", "tenant t-1").Error())
}

func TestGetAppError_UnwrapsChain(t *testing.T) {
	wrapped := fmt.Errorf("reactivate: %w", NewConflictError("subscription was modified concurrently"))

	appErr := GetAppError(wrapped)
	if assert.NotNil(t, appErr) {
		assert.Equal(t, ErrorTypeConflict, appErr.Type)
	}
	assert.True(t, IsConflictError(wrapped))
	assert.False(t, IsNotFoundError(wrapped))
	assert.False(t, IsAppError(fmt.Errorf("plain")))
}
