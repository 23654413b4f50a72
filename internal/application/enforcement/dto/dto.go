package dto

import (
	vo "github.com/tillpoint/tillpoint/internal/domain/subscription/valueobjects"
)

// AccessResult is what a tenant may currently do and why.
type AccessResult struct {
	AccessLevel         string `json:"access_level"`
	Status              string `json:"status,omitempty"`
	Message             string `json:"message"`
	DaysRemaining       int    `json:"days_remaining"`
	DaysUntilSuspension *int   `json:"days_until_suspension,omitempty"`
	CanMakePayment      bool   `json:"can_make_payment"`
	// Verified is false when the subscription store could not be read and
	// the result is the permissive fallback.
	Verified bool `json:"verified"`
}

type WarningDTO struct {
	Type           string `json:"type"`
	Severity       string `json:"severity"`
	Message        string `json:"message"`
	ActionRequired bool   `json:"action_required"`
	DaysRemaining  *int   `json:"days_remaining,omitempty"`
}

type WarningsResponse struct {
	Warnings []WarningDTO `json:"warnings"`
}

type OperationPermissionsDTO struct {
	CanRead        bool   `json:"can_read"`
	CanWrite       bool   `json:"can_write"`
	CanUsePOS      bool   `json:"can_use_pos"`
	CanViewReports bool   `json:"can_view_reports"`
	Message        string `json:"message,omitempty"`
}

func ToWarningDTOs(warnings []vo.Warning) []WarningDTO {
	result := make([]WarningDTO, 0, len(warnings))
	for _, w := range warnings {
		result = append(result, WarningDTO{
			Type:           string(w.Type),
			Severity:       string(w.Severity),
			Message:        w.Message,
			ActionRequired: w.ActionRequired,
			DaysRemaining:  w.DaysRemaining,
		})
	}
	return result
}

func ToOperationPermissionsDTO(p vo.OperationPermissions, message string) *OperationPermissionsDTO {
	return &OperationPermissionsDTO{
		CanRead:        p.CanRead,
		CanWrite:       p.CanWrite,
		CanUsePOS:      p.CanUsePOS,
		CanViewReports: p.CanViewReports,
		Message:        message,
	}
}
