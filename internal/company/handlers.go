package company

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pitchdesk/pitchdesk/internal/apikey"
	"github.com/pitchdesk/pitchdesk/internal/idgen"
	"github.com/pitchdesk/pitchdesk/internal/logging"
	"github.com/pitchdesk/pitchdesk/internal/membership"
	"github.com/pitchdesk/pitchdesk/internal/plan"
	"github.com/pitchdesk/pitchdesk/internal/subscription"
	"github.com/pitchdesk/pitchdesk/internal/validation"
)

// Handler provides the tenant-facing company endpoints.
type Handler struct {
	store   Store
	keys    *apikey.Manager
	members *membership.Service
	trials  *subscription.Service
}

// NewHandler creates a company HTTP handler.
func NewHandler(store Store, keys *apikey.Manager, members *membership.Service, trials *subscription.Service) *Handler {
	return &Handler{store: store, keys: keys, members: members, trials: trials}
}

// RegisterRequest creates a new workspace.
type RegisterRequest struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug" binding:"required"`
}

// Register handles POST /v1/companies. It creates the company with
// default settings, opens the trial, and mints the initial widget and
// secret keys. The raw keys appear in this response only.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_input",
			"message": "name and slug are required.",
		})
		return
	}
	if !validation.IsValidSlug(req.Slug) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_input",
			"message": "slug must be lowercase letters, digits, and hyphens.",
		})
		return
	}

	ctx := c.Request.Context()
	now := time.Now().UTC()
	comp := &Company{
		ID:     idgen.WithPrefix("cmp_"),
		Name:   validation.SanitizeString(req.Name, 120),
		Slug:   req.Slug,
		Status: StatusActive,
		Settings: Settings{
			Funnel:           DefaultFunnelConfig(),
			PublicBookingKey: idgen.Hex(12),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.store.Create(ctx, comp); err != nil {
		if errors.Is(err, ErrSlugTaken) {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "invalid_input",
				"message": "That slug is already taken.",
			})
			return
		}
		h.writeStoreError(c, err)
		return
	}

	adminID := idgen.WithPrefix("usr_")
	if _, err := h.members.AddMember(ctx, comp.ID, adminID, membership.RoleAdmin); err != nil {
		h.writeStoreError(c, err)
		return
	}
	if _, err := h.trials.StartTrial(ctx, comp.ID, plan.KeyStarter); err != nil {
		logging.L(ctx).Error("trial start failed at signup",
			"company_id", comp.ID, "error", err)
	}

	widgetRaw, widgetKey, err := h.keys.GenerateKey(ctx, comp.ID, adminID, apikey.KindWidget, "default widget key")
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	secretRaw, secretKey, err := h.keys.GenerateKey(ctx, comp.ID, adminID, apikey.KindSecret, "default secret key")
	if err != nil {
		h.writeStoreError(c, err)
		return
	}

	logging.L(ctx).Info("company registered",
		"company_id", comp.ID, "slug", comp.Slug)
	c.JSON(http.StatusCreated, gin.H{
		"company": comp,
		"adminId": adminID,
		"keys": gin.H{
			"widget": gin.H{"id": widgetKey.ID, "key": widgetRaw},
			"secret": gin.H{"id": secretKey.ID, "key": secretRaw},
		},
	})
}

// GetCompany handles GET /v1/company for the key's company.
func (h *Handler) GetCompany(companyID func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		comp, err := h.store.Get(c.Request.Context(), companyID(c))
		if err != nil {
			h.writeStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"company": comp})
	}
}

// UpdateSettingsRequest carries partial settings updates. Nil fields
// are left unchanged.
type UpdateSettingsRequest struct {
	Name           *string            `json:"name,omitempty"`
	RateLimit      *RateLimitOverride `json:"rateLimit,omitempty"`
	Funnel         *FunnelConfig      `json:"funnel,omitempty"`
	AllowedOrigins *[]string          `json:"allowedOrigins,omitempty"`
	BrandColor     *string            `json:"brandColor,omitempty"`
	WidgetGreeting *string            `json:"widgetGreeting,omitempty"`
}

// UpdateSettings handles PATCH /v1/company for the key's company.
func (h *Handler) UpdateSettings(companyID func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateSettingsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_input",
				"message": "Invalid request body.",
			})
			return
		}
		if req.Funnel != nil && !validFunnelConfig(*req.Funnel) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_input",
				"message": "Unknown tone, responseLength, or ctaStyle value.",
			})
			return
		}
		if req.RateLimit != nil && (req.RateLimit.PerMinute < 0 || req.RateLimit.PerDay < 0) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_input",
				"message": "Rate limit overrides must not be negative.",
			})
			return
		}

		ctx := c.Request.Context()
		comp, err := h.store.Get(ctx, companyID(c))
		if err != nil {
			h.writeStoreError(c, err)
			return
		}

		if req.Name != nil {
			comp.Name = validation.SanitizeString(*req.Name, 120)
		}
		if req.RateLimit != nil {
			comp.Settings.RateLimit = *req.RateLimit
		}
		if req.Funnel != nil {
			comp.Settings.Funnel = *req.Funnel
		}
		if req.AllowedOrigins != nil {
			comp.Settings.AllowedOrigins = *req.AllowedOrigins
		}
		if req.BrandColor != nil {
			comp.Settings.BrandColor = validation.SanitizeString(*req.BrandColor, 32)
		}
		if req.WidgetGreeting != nil {
			comp.Settings.WidgetGreeting = validation.SanitizeString(*req.WidgetGreeting, 500)
		}

		if err := h.store.Update(ctx, comp); err != nil {
			h.writeStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"company": comp})
	}
}

// StartTrial handles POST /v1/company/trial.
func (h *Handler) StartTrial(companyID func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := companyID(c)
		if _, err := h.trials.StartTrial(c.Request.Context(), id, plan.KeyStarter); err != nil {
			h.writeStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "trialing", "companyId": id})
	}
}

func validFunnelConfig(fc FunnelConfig) bool {
	switch fc.Tone {
	case "friendly", "formal", "direct":
	default:
		return false
	}
	switch fc.ResponseLength {
	case "short", "medium", "long":
	default:
		return false
	}
	switch fc.CTAStyle {
	case "book_demo", "start_trial", "contact_sales":
	default:
		return false
	}
	return fc.Language != ""
}

func (h *Handler) writeStoreError(c *gin.Context, err error) {
	if errors.Is(err, ErrCompanyNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Company not found.",
		})
		return
	}
	logging.L(c.Request.Context()).Error("company store failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "dependency_failure",
		"message": "Company storage is unavailable.",
	})
}
