package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/tillpoint/tillpoint/internal/application/enforcement/dto"
	vo "github.com/tillpoint/tillpoint/internal/domain/subscription/valueobjects"
	"github.com/tillpoint/tillpoint/internal/shared/constants"
	"github.com/tillpoint/tillpoint/internal/shared/errors"
	"github.com/tillpoint/tillpoint/internal/shared/logger"
	"github.com/tillpoint/tillpoint/internal/shared/utils"
)

type operationAuthorizer interface {
	Authorize(ctx context.Context, tenantID string, op vo.Operation) (*dto.AccessResult, bool)
}

// EnforcementMiddleware gates routes on what the tenant's subscription
// currently allows.
type EnforcementMiddleware struct {
	authorizer operationAuthorizer
	logger     logger.Interface
}

func NewEnforcementMiddleware(authorizer operationAuthorizer, logger logger.Interface) *EnforcementMiddleware {
	return &EnforcementMiddleware{
		authorizer: authorizer,
		logger:     logger,
	}
}

// RequireOperation answers 402 when the tenant's access level does not allow
// op. The access result is stored under constants.ContextKeyAccessResult
// either way. Must run after RequireAuth and RequireTenant.
func (m *EnforcementMiddleware) RequireOperation(op vo.Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetString(constants.ContextKeyTenantID)

		result, allowed := m.authorizer.Authorize(c.Request.Context(), tenantID, op)
		c.Set(constants.ContextKeyAccessResult, result)

		if !allowed {
			m.logger.Infow("operation denied by subscription",
				"tenant_id", tenantID,
				"operation", op,
				"access_level", result.AccessLevel,
				"status", result.Status)
			utils.ErrorResponseWithError(c, errors.NewPaymentRequiredError(result.Message, string(op)+" is not allowed at access level "+result.AccessLevel))
			c.Abort()
			return
		}

		c.Next()
	}
}

// AccessResultFromContext returns the result stored by RequireOperation.
func AccessResultFromContext(c *gin.Context) (*dto.AccessResult, bool) {
	v, exists := c.Get(constants.ContextKeyAccessResult)
	if !exists {
		return nil, false
	}
	result, ok := v.(*dto.AccessResult)
	return result, ok && result != nil
}
