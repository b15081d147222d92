package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/erp/backend/internal/infrastructure/auth"
)

const (
	claimsKey     = "jwt_claims"
	authHeaderKey = "Authorization"
	bearerPrefix  = "Bearer "
)

// JWTAuth authenticates every request against jwtService, skipping the
// given paths (typically /health and /swagger).
func JWTAuth(jwtService *auth.JWTService, skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		header := c.GetHeader(authHeaderKey)
		if header == "" || !strings.HasPrefix(header, bearerPrefix) {
			unauthorized(c, "missing bearer token")
			return
		}

		token := strings.TrimPrefix(header, bearerPrefix)
		claims, err := jwtService.ValidateToken(token)
		if err != nil {
			unauthorized(c, err.Error())
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

func unauthorized(c *gin.Context, reason string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":  "unauthorized",
		"reason": reason,
	})
}

// ClaimsFrom retrieves the validated claims JWTAuth stored in the
// request context.
func ClaimsFrom(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(claimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}
