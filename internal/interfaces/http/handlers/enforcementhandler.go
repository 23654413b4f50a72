package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tillpoint/tillpoint/internal/application/enforcement/dto"
	"github.com/tillpoint/tillpoint/internal/interfaces/http/middleware"
	"github.com/tillpoint/tillpoint/internal/shared/constants"
	"github.com/tillpoint/tillpoint/internal/shared/logger"
	"github.com/tillpoint/tillpoint/internal/shared/utils"
)

type enforcementService interface {
	GetAccess(ctx context.Context, tenantID string) *dto.AccessResult
	GetWarnings(ctx context.Context, tenantID string) []dto.WarningDTO
	CanOperate(ctx context.Context, tenantID string) *dto.OperationPermissionsDTO
}

// EnforcementHandler serves the tenant-facing read path. The tenant always
// comes from the access token.
type EnforcementHandler struct {
	service enforcementService
	logger  logger.Interface
}

func NewEnforcementHandler(service enforcementService, logger logger.Interface) *EnforcementHandler {
	return &EnforcementHandler{
		service: service,
		logger:  logger,
	}
}

// GetAccess returns the tenant's current access level
// @Summary Get access level
// @Description Evaluate the tenant's subscription against the clock and return what it may do
// @Tags Enforcement
// @Produce json
// @Security Bearer
// @Success 200 {object} utils.APIResponse{data=dto.AccessResult}
// @Failure 401 {object} utils.APIResponse
// @Router /enforcement/access [get]
func (h *EnforcementHandler) GetAccess(c *gin.Context) {
	tenantID, ok := tenantFromContext(c)
	if !ok {
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", h.service.GetAccess(c.Request.Context(), tenantID))
}

// GetWarnings returns banners the tenant should see
// @Summary Get subscription warnings
// @Description List trial, grace period and suspension warnings for the tenant
// @Tags Enforcement
// @Produce json
// @Security Bearer
// @Success 200 {object} utils.APIResponse{data=dto.WarningsResponse}
// @Failure 401 {object} utils.APIResponse
// @Router /enforcement/warnings [get]
func (h *EnforcementHandler) GetWarnings(c *gin.Context) {
	tenantID, ok := tenantFromContext(c)
	if !ok {
		return
	}

	warnings := h.service.GetWarnings(c.Request.Context(), tenantID)
	if warnings == nil {
		warnings = []dto.WarningDTO{}
	}

	utils.SuccessResponse(c, http.StatusOK, "", dto.WarningsResponse{Warnings: warnings})
}

// CanOperate returns the permission table for the tenant's access level
// @Summary Get operation permissions
// @Description Which operation classes (read, write, pos, reports) the tenant may use
// @Tags Enforcement
// @Produce json
// @Security Bearer
// @Success 200 {object} utils.APIResponse{data=dto.OperationPermissionsDTO}
// @Failure 401 {object} utils.APIResponse
// @Router /enforcement/can-operate [get]
func (h *EnforcementHandler) CanOperate(c *gin.Context) {
	tenantID, ok := tenantFromContext(c)
	if !ok {
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", h.service.CanOperate(c.Request.Context(), tenantID))
}

// CheckOperation answers 200 when the operation gate in front of it passed.
// Edge proxies call it to gate POS and back-office traffic.
// @Summary Check one operation
// @Description Returns 200 with the access result when the operation is allowed, 402 otherwise
// @Tags Enforcement
// @Produce json
// @Security Bearer
// @Param operation path string true "Operation" Enums(read, write, pos, reports)
// @Success 200 {object} utils.APIResponse{data=dto.AccessResult}
// @Failure 401 {object} utils.APIResponse
// @Failure 402 {object} utils.APIResponse
// @Router /enforcement/check/{operation} [get]
func (h *EnforcementHandler) CheckOperation(c *gin.Context) {
	result, ok := middleware.AccessResultFromContext(c)
	if !ok {
		h.logger.Errorw("operation check reached without enforcement middleware", "path", c.Request.URL.Path)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Internal server error occurred")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

func tenantFromContext(c *gin.Context) (string, bool) {
	tenantID := c.GetString(constants.ContextKeyTenantID)
	if tenantID == "" {
		utils.ErrorResponse(c, http.StatusUnauthorized, "tenant not authenticated")
		return "", false
	}
	return tenantID, true
}
