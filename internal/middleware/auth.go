package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware handles API key authentication
type AuthMiddleware struct {
	apiKey string
	// Paths that never require a key
	publicPaths []string
}

// NewAuthMiddleware creates an authentication middleware for apiKey. An empty
// key disables authentication unless gin runs in release mode, where every
// non-public request is rejected.
func NewAuthMiddleware(apiKey string, publicPaths ...string) *AuthMiddleware {
	if len(publicPaths) == 0 {
		publicPaths = []string{"/api/health"}
	}
	return &AuthMiddleware{
		apiKey:      apiKey,
		publicPaths: publicPaths,
	}
}

// Authenticate returns a Gin middleware handler for API key authentication
func (a *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, publicPath := range a.publicPaths {
			if path == publicPath {
				c.Next()
				return
			}
		}

		if a.apiKey == "" && gin.Mode() != gin.ReleaseMode {
			c.Next()
			return
		}

		providedKey := c.GetHeader("X-API-Key")
		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if a.apiKey == "" || providedKey == "" ||
			subtle.ConstantTimeCompare([]byte(providedKey), []byte(a.apiKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Unauthorized: Invalid or missing API key",
			})
			return
		}

		c.Next()
	}
}

// IsAuthEnabled returns whether authentication is enabled
func (a *AuthMiddleware) IsAuthEnabled() bool {
	return a.apiKey != ""
}
