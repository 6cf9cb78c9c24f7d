package chat

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pitchdesk/pitchdesk/internal/apikey"
	"github.com/pitchdesk/pitchdesk/internal/company"
	"github.com/pitchdesk/pitchdesk/internal/conversation"
)

// Handler exposes the widget chat surface.
type Handler struct {
	service *Service
	convs   conversation.Store
}

// NewHandler creates a chat handler.
func NewHandler(service *Service, convs conversation.Store) *Handler {
	return &Handler{service: service, convs: convs}
}

// SendMessageRequest is the widget's turn payload.
type SendMessageRequest struct {
	ConversationID string `json:"conversationId"`
	Message        string `json:"message" binding:"required"`
}

// SendMessage handles POST /v1/widget/chat. The company comes from the
// validated widget key.
func (h *Handler) SendMessage(c *gin.Context) {
	companyID := apikey.WidgetCompanyID(c)

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_input",
			"message": "message is required",
		})
		return
	}

	result, err := h.service.HandleTurn(c.Request.Context(), TurnInput{
		CompanyID:      companyID,
		ConversationID: req.ConversationID,
		Message:        req.Message,
	})
	if err != nil {
		h.writeTurnError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListMessages handles GET /v1/widget/conversations/:id/messages.
func (h *Handler) ListMessages(c *gin.Context) {
	companyID := apikey.WidgetCompanyID(c)

	msgs, err := h.convs.ListMessages(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		if errors.Is(err, conversation.ErrConversationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "conversation not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "dependency_failure",
			"message": "failed to load messages",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": msgs,
		"count":    len(msgs),
	})
}

func (h *Handler) writeTurnError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrEmptyMessage), errors.Is(err, ErrMessageTooLong):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_input",
			"message": err.Error(),
		})
	case errors.Is(err, ErrNotEntitled), errors.Is(err, ErrCompanyInactive):
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":   "payment_required",
			"message": "An active subscription or trial is required.",
		})
	case errors.Is(err, ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":   "rate_limited",
			"message": "Message rate limit reached. Try again shortly.",
		})
	case errors.Is(err, ErrGeneratorUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "dependency_failure",
			"message": "The assistant is temporarily unavailable.",
		})
	case errors.Is(err, conversation.ErrConversationNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "conversation not found",
		})
	case errors.Is(err, company.ErrCompanyNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "company not found",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "dependency_failure",
			"message": "Something went wrong handling the message.",
		})
	}
}
