package apikey

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler provides HTTP endpoints for key management
type Handler struct {
	manager *Manager
}

// NewHandler creates a new key handler
func NewHandler(m *Manager) *Handler {
	return &Handler{manager: m}
}

// ListKeys returns API keys for the authenticated company
func (h *Handler) ListKeys(c *gin.Context) {
	key, ok := GetAPIKey(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	keys, err := h.manager.ListKeys(c.Request.Context(), key.CompanyID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "dependency_failure",
			"message": "Failed to list keys",
		})
		return
	}

	// Don't expose hashes
	safeKeys := make([]gin.H, len(keys))
	for i, k := range keys {
		safeKeys[i] = gin.H{
			"id":        k.ID,
			"kind":      k.Kind,
			"name":      k.Name,
			"prefix":    k.Prefix,
			"createdAt": k.CreatedAt,
			"lastUsed":  k.LastUsed,
			"revoked":   k.Revoked,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"keys":  safeKeys,
		"count": len(safeKeys),
	})
}

// CreateKeyRequest is the request body for creating a key
type CreateKeyRequest struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// CreateKey creates a new API key for the authenticated company
func (h *Handler) CreateKey(c *gin.Context) {
	key, ok := GetAPIKey(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var req CreateKeyRequest
	c.ShouldBindJSON(&req)
	if req.Name == "" {
		req.Name = "Additional key"
	}
	if req.Kind == "" {
		req.Kind = KindSecret
	}
	if req.Kind != KindSecret && req.Kind != KindWidget {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_input",
			"message": "kind must be secret or widget",
		})
		return
	}

	rawKey, newKey, err := h.manager.GenerateKey(
		c.Request.Context(), key.CompanyID, key.CreatedBy, req.Kind, req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "dependency_failure",
			"message": "Failed to create API key",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"apiKey":  rawKey,
		"keyId":   newKey.ID,
		"kind":    newKey.Kind,
		"name":    newKey.Name,
		"warning": "Store this key securely. It will not be shown again.",
	})
}

// RevokeKey revokes an API key
func (h *Handler) RevokeKey(c *gin.Context) {
	key, ok := GetAPIKey(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	keyID := c.Param("keyId")

	// Prevent revoking current key
	if keyID == key.ID {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_input",
			"message": "Cannot revoke the key you're using",
		})
		return
	}

	if err := h.manager.RevokeKey(c.Request.Context(), keyID, key.CompanyID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Key not found or already revoked",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Key revoked",
		"keyId":   keyID,
	})
}

// RotateKey revokes a key and returns a fresh one of the same kind
func (h *Handler) RotateKey(c *gin.Context) {
	key, ok := GetAPIKey(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	keyID := c.Param("keyId")
	if keyID == key.ID {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_input",
			"message": "Rotate using a different key than the one being rotated",
		})
		return
	}

	rawKey, newKey, err := h.manager.RotateKey(
		c.Request.Context(), keyID, key.CompanyID, key.CreatedBy)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Key not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"apiKey":   rawKey,
		"keyId":    newKey.ID,
		"oldKeyId": keyID,
		"kind":     newKey.Kind,
		"warning":  "Store this key securely. It will not be shown again.",
	})
}
