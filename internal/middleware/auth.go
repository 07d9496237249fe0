package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bloodlink/blood-api/internal/handler"
	"github.com/bloodlink/blood-api/internal/model"
	"github.com/bloodlink/blood-api/internal/repository"
	"github.com/bloodlink/blood-api/pkg/auth"
)

// ContextPrincipal is the gin context key holding the resolved principal
const ContextPrincipal = "principal"

type AuthMiddleware struct {
	jwtSvc   auth.JWTService
	tokens   auth.TokenStore
	accounts repository.AccountRepository
}

func NewAuthMiddleware(jwtSvc auth.JWTService, tokens auth.TokenStore, accounts repository.AccountRepository) *AuthMiddleware {
	return &AuthMiddleware{jwtSvc: jwtSvc, tokens: tokens, accounts: accounts}
}

// Authenticate resolves the bearer token into a Principal. The account is
// loaded on every call so that an admin deactivation revokes authorization
// immediately, not at token expiry.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid authorization format"))
			c.Abort()
			return
		}

		claims, err := m.jwtSvc.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
			c.Abort()
			return
		}

		revoked, err := m.tokens.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to check token"))
			c.Abort()
			return
		}
		if revoked {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("token has been revoked"))
			c.Abort()
			return
		}

		account, err := m.accounts.Get(c.Request.Context(), claims.AccountID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("account no longer exists"))
			c.Abort()
			return
		}
		if !account.IsActive {
			c.JSON(http.StatusForbidden, handler.NewErrorResponse("account has been deactivated"))
			c.Abort()
			return
		}

		c.Set(ContextPrincipal, &model.Principal{
			AccountID: account.ID,
			Role:      account.Role,
			Email:     account.Email,
			TokenID:   claims.ID,
			ExpiresAt: claims.ExpiresAt.Time,
		})
		c.Next()
	}
}

// RequireRole rejects callers whose resolved role differs from role
func (m *AuthMiddleware) RequireRole(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := handler.GetPrincipal(c)
		if principal == nil || principal.Role != role {
			c.JSON(http.StatusForbidden, handler.NewErrorResponse("insufficient role"))
			c.Abort()
			return
		}
		c.Next()
	}
}
