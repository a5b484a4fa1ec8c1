package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bm-aniversariantes-api/internal/models"
	"github.com/noah-isme/bm-aniversariantes-api/internal/service"
	appErrors "github.com/noah-isme/bm-aniversariantes-api/pkg/errors"
	"github.com/noah-isme/bm-aniversariantes-api/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

// AnonymousOperator is recorded as the author of runs started while auth is disabled.
const AnonymousOperator = "anonymous"

// JWT protects routes by requiring a valid access token.
func JWT(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// CurrentOperator returns the authenticated username, or AnonymousOperator.
func CurrentOperator(c *gin.Context) string {
	if c == nil {
		return AnonymousOperator
	}
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return AnonymousOperator
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok || claims.Username == "" {
		return AnonymousOperator
	}
	return claims.Username
}
