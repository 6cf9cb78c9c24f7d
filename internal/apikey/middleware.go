package apikey

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Gin context keys set by the middleware below.
const (
	CtxAPIKey          = "apiKey"
	CtxAuthCompanyID   = "authCompanyId"
	CtxWidgetCompanyID = "widgetCompanyId"
)

// Middleware extracts and validates a secret key from the request.
// Sets the key, the authenticated company id, and the issuing user id
// in context if valid. Does not reject: pair with RequireAuth.
func Middleware(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("Authorization")
		if raw == "" {
			raw = c.GetHeader("X-API-Key")
		}

		if raw != "" {
			key, err := m.ValidateSecret(c.Request.Context(), raw)
			if err == nil {
				c.Set(CtxAPIKey, key)
				c.Set(CtxAuthCompanyID, key.CompanyID)
				c.Set("user_id", key.CreatedBy) // access.CtxUserID; literal avoids an import cycle
			}
		}

		c.Next()
	}
}

// RequireAuth rejects requests without a valid secret key
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(CtxAPIKey); !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthenticated",
				"message": "API key required. Include 'Authorization: Bearer sk_...' header.",
			})
			return
		}
		c.Next()
	}
}

// WidgetAuth validates the public widget key from X-Widget-Key and
// sets the owning company id in context. Rejects on failure.
func WidgetAuth(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, err := m.ValidateWidget(c.Request.Context(), c.GetHeader("X-Widget-Key"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthenticated",
				"message": "valid X-Widget-Key header required",
			})
			return
		}
		c.Set(CtxWidgetCompanyID, key.CompanyID)
		c.Next()
	}
}

// GetAPIKey returns the API key from context (if authenticated)
func GetAPIKey(c *gin.Context) (*APIKey, bool) {
	key, exists := c.Get(CtxAPIKey)
	if !exists {
		return nil, false
	}
	k, ok := key.(*APIKey)
	return k, ok
}

// AuthCompanyID returns the company authenticated by a secret key.
func AuthCompanyID(c *gin.Context) string {
	return c.GetString(CtxAuthCompanyID)
}

// WidgetCompanyID returns the company identified by the widget key.
func WidgetCompanyID(c *gin.Context) string {
	return c.GetString(CtxWidgetCompanyID)
}
