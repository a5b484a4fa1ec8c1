package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bm-aniversariantes-api/internal/models"
	"github.com/noah-isme/bm-aniversariantes-api/internal/service"
	appErrors "github.com/noah-isme/bm-aniversariantes-api/pkg/errors"
	"github.com/noah-isme/bm-aniversariantes-api/pkg/response"
)

// RequireRoles lets the request through only when the JWT claims carry one of roles.
// It must run after JWT.
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		value, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims, ok := value.(*models.JWTClaims)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// Operator guards mutating routes. With a nil auth service every caller is
// treated as the anonymous operator.
func Operator(authService *service.AuthService) []gin.HandlerFunc {
	if authService == nil {
		return nil
	}
	return []gin.HandlerFunc{JWT(authService), RequireRoles(models.RoleOperator)}
}
