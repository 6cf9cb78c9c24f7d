package knowledge

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pitchdesk/pitchdesk/internal/apikey"
	"github.com/pitchdesk/pitchdesk/internal/idgen"
	"github.com/pitchdesk/pitchdesk/internal/logging"
	"github.com/pitchdesk/pitchdesk/internal/plan"
	"github.com/pitchdesk/pitchdesk/internal/subscription"
	"github.com/pitchdesk/pitchdesk/internal/validation"
)

// Content limits for a single chunk.
const (
	maxTitleLength   = 200
	maxContentLength = 20000
	defaultListLimit = 50
	maxListLimit     = 200
)

// Handler exposes knowledge chunk management for the dashboard.
type Handler struct {
	store Store
	subs  subscription.Store
	plans plan.Store
}

// NewHandler creates a knowledge handler. The subscription and plan
// stores are read to enforce the plan's chunk cap on create.
func NewHandler(store Store, subs subscription.Store, plans plan.Store) *Handler {
	return &Handler{store: store, subs: subs, plans: plans}
}

// CreateChunkRequest is the upload payload.
type CreateChunkRequest struct {
	Title   string   `json:"title" binding:"required"`
	Content string   `json:"content" binding:"required"`
	Source  string   `json:"source"`
	Tags    []string `json:"tags"`
}

// CreateChunk handles POST /v1/knowledge.
func (h *Handler) CreateChunk(c *gin.Context) {
	companyID := apikey.AuthCompanyID(c)

	var req CreateChunkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_input",
			"message": "title and content are required.",
		})
		return
	}
	if len(req.Title) > maxTitleLength || len(req.Content) > maxContentLength {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_input",
			"message": "title or content exceeds the size limit.",
		})
		return
	}

	limit := h.chunkLimit(c, companyID)
	if limit > 0 {
		count, err := h.store.Count(c.Request.Context(), companyID)
		if err != nil {
			h.writeStoreError(c, err)
			return
		}
		if count >= limit {
			c.JSON(http.StatusPaymentRequired, gin.H{
				"error":   "payment_required",
				"message": "Knowledge chunk limit reached for the current plan.",
			})
			return
		}
	}

	chunk := &Chunk{
		ID:        idgen.WithPrefix("kc_"),
		CompanyID: companyID,
		Title:     validation.SanitizeString(req.Title, maxTitleLength),
		Content:   req.Content,
		Source:    req.Source,
		Tags:      req.Tags,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.store.Create(c.Request.Context(), chunk); err != nil {
		h.writeStoreError(c, err)
		return
	}

	c.JSON(http.StatusCreated, chunk)
}

// ListChunks handles GET /v1/knowledge.
func (h *Handler) ListChunks(c *gin.Context) {
	companyID := apikey.AuthCompanyID(c)

	limit := parseLimit(c.Query("limit"), defaultListLimit, maxListLimit)
	chunks, err := h.store.ListRecent(c.Request.Context(), companyID, limit)
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	if chunks == nil {
		chunks = []*Chunk{}
	}
	c.JSON(http.StatusOK, gin.H{"chunks": chunks, "count": len(chunks)})
}

// GetChunk handles GET /v1/knowledge/:id.
func (h *Handler) GetChunk(c *gin.Context) {
	companyID := apikey.AuthCompanyID(c)

	chunk, err := h.store.Get(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, chunk)
}

// UpdateChunkRequest carries the mutable chunk fields. Omitted fields
// are left unchanged.
type UpdateChunkRequest struct {
	Title   *string   `json:"title"`
	Content *string   `json:"content"`
	Source  *string   `json:"source"`
	Tags    *[]string `json:"tags"`
}

// UpdateChunk handles PATCH /v1/knowledge/:id.
func (h *Handler) UpdateChunk(c *gin.Context) {
	companyID := apikey.AuthCompanyID(c)

	var req UpdateChunkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_input",
			"message": "Invalid request body.",
		})
		return
	}

	chunk, err := h.store.Get(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		h.writeStoreError(c, err)
		return
	}

	if req.Title != nil {
		chunk.Title = validation.SanitizeString(*req.Title, maxTitleLength)
	}
	if req.Content != nil {
		chunk.Content = *req.Content
	}
	if req.Source != nil {
		chunk.Source = *req.Source
	}
	if req.Tags != nil {
		chunk.Tags = *req.Tags
	}
	if chunk.Title == "" || chunk.Content == "" || len(chunk.Content) > maxContentLength {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_input",
			"message": "title and content must be non-empty and within size limits.",
		})
		return
	}

	if err := h.store.Update(c.Request.Context(), chunk); err != nil {
		h.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, chunk)
}

// DeleteChunk handles DELETE /v1/knowledge/:id.
func (h *Handler) DeleteChunk(c *gin.Context) {
	companyID := apikey.AuthCompanyID(c)

	if err := h.store.Delete(c.Request.Context(), companyID, c.Param("id")); err != nil {
		h.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// chunkLimit resolves the plan's chunk cap for a company. Missing
// subscription or plan rows fall back to the starter cap; 0 means
// unlimited.
func (h *Handler) chunkLimit(c *gin.Context, companyID string) int {
	starter := plan.Catalogue[plan.KeyStarter].Entitlements.MaxKnowledgeChunks

	sub, err := h.subs.Get(c.Request.Context(), companyID)
	if err != nil {
		return starter
	}
	p, err := h.plans.Get(c.Request.Context(), sub.PlanKey)
	if err != nil {
		return starter
	}
	return p.Entitlements.MaxKnowledgeChunks
}

func (h *Handler) writeStoreError(c *gin.Context, err error) {
	if errors.Is(err, ErrChunkNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Knowledge chunk not found.",
		})
		return
	}
	logging.L(c.Request.Context()).Error("knowledge store failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "dependency_failure",
		"message": "Knowledge storage is unavailable.",
	})
}

func parseLimit(raw string, def, max int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
