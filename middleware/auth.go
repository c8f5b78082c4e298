package middleware

import (
	"net/http"
	"strings"

	"bar-order-api/auth"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID   = "userID"
	ctxUsername = "username"
	ctxRole     = "role"
)

// AuthRequired validates the access token and injects claims into context
func AuthRequired(tokens *auth.TokenMaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required (Bearer <token>)"})
			return
		}
		claims, err := tokens.Parse(strings.TrimPrefix(authHeader, "Bearer "), auth.AccessToken)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxUsername, claims.Username)
		c.Set(ctxRole, string(claims.Role))
		c.Next()
	}
}

// GetUsername extracts the caller's username; empty for anonymous requests
func GetUsername(c *gin.Context) string {
	return c.GetString(ctxUsername)
}
