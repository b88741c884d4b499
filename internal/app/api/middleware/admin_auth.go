package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/casaflow/billing/pkg/config"
	"github.com/casaflow/billing/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
)

// AdminAuthMiddleware resolves the caller from the bearer token and confirms
// membership in the admin allow-list. The client-asserted role is never
// trusted; this check runs server-side before any work, preview included.
func AdminAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorT[any](response.APIResponseCodeUnauthorized, "missing bearer token"))
			return
		}

		claims := &jwt.StandardClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(cfg.AdminAuth.Secret), nil
		})
		if err != nil || claims.Subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorT[any](response.APIResponseCodeUnauthorized, "invalid token"))
			return
		}

		if !cfg.IsAdminAllowed(claims.Subject) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.ErrorT[any](response.APIResponseCodeForbidden, "not an admin"))
			return
		}

		c.Set("adminID", claims.Subject)
		ctx := context.WithValue(c.Request.Context(), "adminID", claims.Subject)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
