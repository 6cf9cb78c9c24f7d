// Package admin exposes the platform-owner surface: tenant overview,
// suspension, and the trial-expiry sweep. Everything here is gated on
// the global owner role; the sweep additionally accepts a shared
// secret so an external scheduler can trigger it.
package admin

import (
	"crypto/hmac"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pitchdesk/pitchdesk/internal/access"
	"github.com/pitchdesk/pitchdesk/internal/company"
	"github.com/pitchdesk/pitchdesk/internal/logging"
	"github.com/pitchdesk/pitchdesk/internal/realtime"
	"github.com/pitchdesk/pitchdesk/internal/subscription"
	"github.com/pitchdesk/pitchdesk/internal/webhooks"
)

// defaultListLimit bounds the tenant overview page size.
const defaultListLimit = 100

// Handler provides the admin endpoints.
type Handler struct {
	companies  company.Store
	subs       *subscription.Service
	hub        *realtime.Hub
	dispatcher *webhooks.Dispatcher
}

// NewHandler creates an admin handler. hub and dispatcher may be nil.
func NewHandler(companies company.Store, subs *subscription.Service, hub *realtime.Hub, dispatcher *webhooks.Dispatcher) *Handler {
	return &Handler{companies: companies, subs: subs, hub: hub, dispatcher: dispatcher}
}

// SweepAuth authorizes the sweep endpoint. A matching X-Sweep-Secret
// header passes without a user identity; otherwise the global owner
// role is required.
func SweepAuth(r *access.Resolver, secret string) gin.HandlerFunc {
	ownerOnly := access.RequireOwner(r)
	return func(c *gin.Context) {
		if secret != "" && hmac.Equal([]byte(c.GetHeader("X-Sweep-Secret")), []byte(secret)) {
			c.Next()
			return
		}
		ownerOnly(c)
	}
}

// ListCompanies handles GET /v1/admin/companies. Each tenant row is
// joined with its subscription state.
func (h *Handler) ListCompanies(c *gin.Context) {
	ctx := c.Request.Context()
	comps, err := h.companies.List(ctx, defaultListLimit)
	if err != nil {
		h.writeStoreError(c, err)
		return
	}

	rows := make([]gin.H, 0, len(comps))
	for _, comp := range comps {
		row := gin.H{"company": comp}
		sub, err := h.subs.Store().Get(ctx, comp.ID)
		if err == nil {
			row["subscription"] = sub
		} else if !errors.Is(err, subscription.ErrSubscriptionNotFound) {
			h.writeStoreError(c, err)
			return
		}
		rows = append(rows, row)
	}
	c.JSON(http.StatusOK, gin.H{"companies": rows, "count": len(rows)})
}

// SuspendCompany handles POST /v1/admin/companies/:id/suspend.
func (h *Handler) SuspendCompany(c *gin.Context) {
	h.setStatus(c, company.StatusSuspended)
}

// ReinstateCompany handles POST /v1/admin/companies/:id/reinstate.
func (h *Handler) ReinstateCompany(c *gin.Context) {
	h.setStatus(c, company.StatusActive)
}

func (h *Handler) setStatus(c *gin.Context, status company.Status) {
	ctx := c.Request.Context()
	comp, err := h.companies.Get(ctx, c.Param("id"))
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	comp.Status = status
	if err := h.companies.Update(ctx, comp); err != nil {
		h.writeStoreError(c, err)
		return
	}
	logging.L(ctx).Info("company status changed",
		"company_id", comp.ID, "status", status)
	c.JSON(http.StatusOK, gin.H{"company": comp})
}

// RunSweep handles POST /v1/admin/sweep. Safe to invoke repeatedly;
// companies already expired are not touched again.
func (h *Handler) RunSweep(c *gin.Context) {
	ctx := c.Request.Context()
	result, err := h.subs.SweepExpiredTrials(ctx)
	if err != nil {
		logging.L(ctx).Error("trial sweep failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "dependency_failure",
			"message": "Trial sweep failed.",
		})
		return
	}

	if h.dispatcher != nil {
		for _, companyID := range result.CompanyIDs {
			h.dispatcher.Emit(ctx, companyID, webhooks.EventTrialExpired,
				map[string]any{"companyId": companyID})
		}
	}

	c.JSON(http.StatusOK, result)
}

// RealtimeStats handles GET /v1/admin/realtime.
func (h *Handler) RealtimeStats(c *gin.Context) {
	if h.hub == nil {
		c.JSON(http.StatusOK, gin.H{"enabled": false})
		return
	}
	stats := h.hub.Stats()
	stats["enabled"] = true
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) writeStoreError(c *gin.Context, err error) {
	if errors.Is(err, company.ErrCompanyNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Company not found.",
		})
		return
	}
	logging.L(c.Request.Context()).Error("admin store failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "dependency_failure",
		"message": "Storage is unavailable.",
	})
}
