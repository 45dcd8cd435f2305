// Package middleware holds the gin middleware shared by the API routes.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/YTKia/stationnement/internal/auth"
)

// AuthMiddleware guards routes with JWT bearer tokens.
type AuthMiddleware struct {
	svc *auth.Service
}

// NewAuthMiddleware returns middleware backed by the auth service.
func NewAuthMiddleware(svc *auth.Service) *AuthMiddleware {
	return &AuthMiddleware{svc: svc}
}

// Authenticate rejects requests without a valid bearer token and stores the
// authenticated username in the request context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header must be a bearer token"})
			return
		}

		username, err := m.svc.VerifyToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set("username", username)
		c.Next()
	}
}
