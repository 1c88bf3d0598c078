package middleware

import (
	"context"
	"net/http"
	"strings"

	"go-pos-billing/internal/auth"

	"github.com/gin-gonic/gin"
)

const SessionKey = "session"

type SessionResolver interface {
	GetSession(ctx context.Context, token string) (*auth.Session, error)
}

// AuthMiddleware checks if the user has a valid JWT token
func AuthMiddleware(sessions SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Format: "Bearer <token>"
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must start with Bearer"})
			return
		}

		session, err := sessions.GetSession(c.Request.Context(), tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		// Handlers read the session from either the gin context or the request context
		c.Set(SessionKey, session)
		c.Set("userID", session.UserID)
		c.Set("role", session.Role)
		c.Request = c.Request.WithContext(auth.WithSession(c.Request.Context(), session))

		c.Next()
	}
}

// RequireRole is a secondary guard that checks for specific permissions
func RequireRole(allowedRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists || role != allowedRole {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You do not have permission to access this resource"})
			return
		}
		c.Next()
	}
}

// CurrentSession returns the session set by AuthMiddleware, or nil.
func CurrentSession(c *gin.Context) *auth.Session {
	if v, ok := c.Get(SessionKey); ok {
		if s, ok := v.(*auth.Session); ok {
			return s
		}
	}
	return auth.SessionFromContext(c.Request.Context())
}
