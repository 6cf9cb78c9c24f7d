package webhooks

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pitchdesk/pitchdesk/internal/apikey"
	"github.com/pitchdesk/pitchdesk/internal/idgen"
	"github.com/pitchdesk/pitchdesk/internal/logging"
)

// maxEndpointsPerCompany caps endpoint registrations per tenant.
const maxEndpointsPerCompany = 10

// Handler provides HTTP endpoints for webhook endpoint management.
type Handler struct {
	store      Store
	dispatcher *Dispatcher
}

// NewHandler creates a webhook management handler.
func NewHandler(store Store, dispatcher *Dispatcher) *Handler {
	return &Handler{store: store, dispatcher: dispatcher}
}

// CreateEndpointRequest registers a delivery target.
type CreateEndpointRequest struct {
	URL    string   `json:"url" binding:"required"`
	Events []string `json:"events" binding:"required"`
}

// CreateEndpoint handles POST /v1/webhooks. The signing secret is
// returned once in the response and never again.
func (h *Handler) CreateEndpoint(c *gin.Context) {
	companyID := apikey.AuthCompanyID(c)

	var req CreateEndpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_input",
			"message": "url and events are required.",
		})
		return
	}

	u, err := url.Parse(req.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_input",
			"message": "url must be an absolute http(s) URL.",
		})
		return
	}
	for _, t := range req.Events {
		if !ValidEvent(t) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_input",
				"message": "Unknown event type: " + t,
			})
			return
		}
	}

	existing, err := h.store.ListByCompany(c.Request.Context(), companyID)
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	if len(existing) >= maxEndpointsPerCompany {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "invalid_input",
			"message": "Endpoint limit reached for this workspace.",
		})
		return
	}

	ep := &Endpoint{
		ID:        idgen.WithPrefix("wh_"),
		CompanyID: companyID,
		URL:       req.URL,
		Secret:    idgen.Hex(32),
		Events:    req.Events,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.store.Create(c.Request.Context(), ep); err != nil {
		h.writeStoreError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"endpoint": ep,
		"secret":   ep.Secret,
		"usage": gin.H{
			"header":    "X-PitchDesk-Signature",
			"signature": "hex(HMAC-SHA256(body, secret))",
		},
	})
}

// ListEndpoints handles GET /v1/webhooks.
func (h *Handler) ListEndpoints(c *gin.Context) {
	companyID := apikey.AuthCompanyID(c)

	eps, err := h.store.ListByCompany(c.Request.Context(), companyID)
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	if eps == nil {
		eps = []*Endpoint{}
	}
	c.JSON(http.StatusOK, gin.H{"endpoints": eps, "count": len(eps)})
}

// DeleteEndpoint handles DELETE /v1/webhooks/:id.
func (h *Handler) DeleteEndpoint(c *gin.Context) {
	companyID := apikey.AuthCompanyID(c)

	if err := h.store.Delete(c.Request.Context(), companyID, c.Param("id")); err != nil {
		h.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// TestEndpoint handles POST /v1/webhooks/:id/test. It queues a ping
// delivery so integrators can verify their receiver end to end.
func (h *Handler) TestEndpoint(c *gin.Context) {
	companyID := apikey.AuthCompanyID(c)

	ep, err := h.store.Get(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		h.writeStoreError(c, err)
		return
	}

	event := &Event{
		ID:        idgen.WithPrefix("evt_"),
		Type:      "endpoint.test",
		CompanyID: companyID,
		Timestamp: time.Now().UTC(),
		Data:      map[string]any{"endpointId": ep.ID},
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout*deliveryAttempts)
		defer cancel()
		h.dispatcher.deliver(ctx, ep, event)
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "queued", "eventId": event.ID})
}

func (h *Handler) writeStoreError(c *gin.Context, err error) {
	if errors.Is(err, ErrEndpointNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Webhook endpoint not found.",
		})
		return
	}
	logging.L(c.Request.Context()).Error("webhook store failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "dependency_failure",
		"message": "Webhook storage is unavailable.",
	})
}
