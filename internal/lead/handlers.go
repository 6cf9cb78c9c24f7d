package lead

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pitchdesk/pitchdesk/internal/apikey"
	"github.com/pitchdesk/pitchdesk/internal/logging"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Pipeline stages a lead can be moved to by the sales team.
var pipelineStages = map[string]bool{
	"new":       true,
	"contacted": true,
	"qualified": true,
	"won":       true,
	"lost":      true,
}

// Handler exposes the captured-leads surface for the dashboard.
type Handler struct {
	store Store
}

// NewHandler creates a lead handler.
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// ListLeads handles GET /v1/leads. Leads come back ordered by score
// descending so the hottest prospects sit on top.
func (h *Handler) ListLeads(c *gin.Context) {
	companyID := apikey.AuthCompanyID(c)

	limit := listLimit(c.Query("limit"))
	leads, err := h.store.List(c.Request.Context(), companyID, limit)
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	if leads == nil {
		leads = []*Lead{}
	}
	c.JSON(http.StatusOK, gin.H{"leads": leads, "count": len(leads)})
}

// GetLead handles GET /v1/leads/:id.
func (h *Handler) GetLead(c *gin.Context) {
	companyID := apikey.AuthCompanyID(c)

	l, err := h.store.Get(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

// UpdateLeadRequest moves a lead through the pipeline or assigns it.
type UpdateLeadRequest struct {
	Stage      *string `json:"stage"`
	AssignedTo *string `json:"assignedTo"`
}

// UpdateLead handles PATCH /v1/leads/:id.
func (h *Handler) UpdateLead(c *gin.Context) {
	companyID := apikey.AuthCompanyID(c)

	var req UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_input",
			"message": "Invalid request body.",
		})
		return
	}
	if req.Stage != nil && !pipelineStages[*req.Stage] {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_input",
			"message": "Unknown pipeline stage: " + *req.Stage,
		})
		return
	}

	l, err := h.store.Get(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	if req.Stage != nil {
		l.Stage = *req.Stage
	}
	if req.AssignedTo != nil {
		l.AssignedTo = *req.AssignedTo
	}
	if err := h.store.Update(c.Request.Context(), l); err != nil {
		h.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h *Handler) writeStoreError(c *gin.Context, err error) {
	if errors.Is(err, ErrLeadNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Lead not found.",
		})
		return
	}
	logging.L(c.Request.Context()).Error("lead store failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "dependency_failure",
		"message": "Lead storage is unavailable.",
	})
}

func listLimit(raw string) int {
	if raw == "" {
		return defaultListLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return defaultListLimit
	}
	if n > maxListLimit {
		return maxListLimit
	}
	return n
}
