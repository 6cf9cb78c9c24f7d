package conversation

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pitchdesk/pitchdesk/internal/apikey"
	"github.com/pitchdesk/pitchdesk/internal/logging"
	"github.com/pitchdesk/pitchdesk/internal/pagination"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Handler exposes read access to conversations for the dashboard.
// Writes only happen through the chat pipeline.
type Handler struct {
	store Store
}

// NewHandler creates a conversation handler.
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// ListConversations handles GET /v1/conversations. Results are
// cursor-paginated; pass the returned nextCursor back to resume.
func (h *Handler) ListConversations(c *gin.Context) {
	companyID := apikey.AuthCompanyID(c)

	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 1 {
			limit = min(n, maxListLimit)
		}
	}
	after, err := pagination.Decode(c.Query("cursor"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_input",
			"message": "cursor is not valid.",
		})
		return
	}

	// Fetch one extra row to learn whether a next page exists.
	convs, err := h.store.ListConversations(c.Request.Context(), companyID, limit+1, after)
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	convs, nextCursor, hasMore := pagination.ComputePage(convs, limit, func(conv *Conversation) (time.Time, string) {
		return conv.CreatedAt, conv.ID
	})
	if convs == nil {
		convs = []*Conversation{}
	}
	c.JSON(http.StatusOK, gin.H{
		"conversations": convs,
		"count":         len(convs),
		"nextCursor":    nextCursor,
		"hasMore":       hasMore,
	})
}

// GetConversation handles GET /v1/conversations/:id.
func (h *Handler) GetConversation(c *gin.Context) {
	companyID := apikey.AuthCompanyID(c)

	conv, err := h.store.GetConversation(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// ListMessages handles GET /v1/conversations/:id/messages.
func (h *Handler) ListMessages(c *gin.Context) {
	companyID := apikey.AuthCompanyID(c)
	convID := c.Param("id")

	if _, err := h.store.GetConversation(c.Request.Context(), companyID, convID); err != nil {
		h.writeStoreError(c, err)
		return
	}
	msgs, err := h.store.ListMessages(c.Request.Context(), companyID, convID)
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	if msgs == nil {
		msgs = []*Message{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs, "count": len(msgs)})
}

func (h *Handler) writeStoreError(c *gin.Context, err error) {
	if errors.Is(err, ErrConversationNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Conversation not found.",
		})
		return
	}
	logging.L(c.Request.Context()).Error("conversation store failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "dependency_failure",
		"message": "Conversation storage is unavailable.",
	})
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
