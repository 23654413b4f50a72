package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/tillpoint/tillpoint/internal/shared/errors"
)

type provisionRequest struct {
	TenantID     string `json:"tenant_id" validate:"required,tenant_id"`
	BillingCycle string `json:"billing_cycle" validate:"required,billing_cycle"`
	Price        string `json:"price" validate:"omitempty,numeric"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name        string
		req         provisionRequest
		wantErr     bool
		wantDetails string
	}{
		{"valid", provisionRequest{TenantID: "shop-1", BillingCycle: "monthly", Price: "29.00"}, false, ""},
		{"bad cycle", provisionRequest{TenantID: "shop-1", BillingCycle: "weekly"}, true, "billing_cycle must be one of"},
		{"bad tenant", provisionRequest{TenantID: "shop 1", BillingCycle: "daily"}, true, "tenant_id must be"},
		{"missing", provisionRequest{BillingCycle: "annual"}, true, "tenant_id is required"},
		{"bad price", provisionRequest{TenantID: "shop-1", BillingCycle: "annual", Price: "abc"}, true, "price must be a valid number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.req)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			appErr := apperrors.GetAppError(err)
			require.NotNil(t, appErr)
			assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
			assert.Contains(t, appErr.Details, tt.wantDetails)
		})
	}
}

func TestBindingError_NonValidationError(t *testing.T) {
	assert.NoError(t, BindingError(nil))

	err := BindingError(errors.New("unexpected EOF"))
	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "Invalid request body", appErr.Message)
}

func TestValidateTenantID(t *testing.T) {
	assert.NoError(t, ValidateTenantID("tenant_42"))
	assert.Error(t, ValidateTenantID(""))
	assert.Error(t, ValidateTenantID("../etc"))
}
