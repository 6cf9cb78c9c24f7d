package billing

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pitchdesk/pitchdesk/internal/apikey"
	"github.com/pitchdesk/pitchdesk/internal/logging"
	"github.com/pitchdesk/pitchdesk/internal/plan"
)

// maxWebhookBody caps the Stripe webhook payload size.
const maxWebhookBody = 1 << 20

// Handler exposes the billing endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates a billing HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// CheckoutRequest selects the plan to purchase.
type CheckoutRequest struct {
	PlanKey string `json:"planKey" binding:"required"`
}

// CreateCheckout handles POST /v1/billing/checkout. It returns the
// hosted Stripe Checkout URL for the authenticated company.
func (h *Handler) CreateCheckout(c *gin.Context) {
	if !h.service.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "dependency_failure",
			"message": "Billing is not configured.",
		})
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_input",
			"message": "planKey is required.",
		})
		return
	}

	companyID := apikey.AuthCompanyID(c)
	url, err := h.service.CreateCheckoutSession(c.Request.Context(), companyID, req.PlanKey)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// CreatePortal handles POST /v1/billing/portal.
func (h *Handler) CreatePortal(c *gin.Context) {
	if !h.service.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "dependency_failure",
			"message": "Billing is not configured.",
		})
		return
	}

	companyID := apikey.AuthCompanyID(c)
	url, err := h.service.CreatePortalSession(c.Request.Context(), companyID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// Webhook handles POST /webhooks/stripe. Signature verification
// failures return 400 so Stripe retries only genuine errors.
func (h *Handler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_input",
			"message": "Unable to read request body.",
		})
		return
	}

	sig := c.GetHeader("Stripe-Signature")
	if err := h.service.ProcessWebhook(c.Request.Context(), payload, sig); err != nil {
		logging.L(c.Request.Context()).Warn("stripe webhook rejected", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_input",
			"message": "Webhook could not be processed.",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, plan.ErrPlanNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Unknown plan.",
		})
	case errors.Is(err, ErrPlanNotPurchasable):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_input",
			"message": "This plan cannot be purchased online.",
		})
	default:
		logging.L(c.Request.Context()).Error("billing dependency failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "dependency_failure",
			"message": "Billing provider is unavailable.",
		})
	}
}
