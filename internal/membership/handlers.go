package membership

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pitchdesk/pitchdesk/internal/apikey"
	"github.com/pitchdesk/pitchdesk/internal/logging"
	"github.com/pitchdesk/pitchdesk/internal/plan"
	"github.com/pitchdesk/pitchdesk/internal/subscription"
	"github.com/pitchdesk/pitchdesk/internal/validation"
)

// Handler exposes team management: member listing, invites, removal.
type Handler struct {
	service *Service
	subs    subscription.Store
	plans   plan.Store
}

// NewHandler creates a membership handler. The subscription and plan
// stores are read to enforce the plan's seat cap on invites.
func NewHandler(service *Service, subs subscription.Store, plans plan.Store) *Handler {
	return &Handler{service: service, subs: subs, plans: plans}
}

// ListMembers handles GET /v1/members.
func (h *Handler) ListMembers(c *gin.Context) {
	companyID := apikey.AuthCompanyID(c)

	members, err := h.service.Store().ListByCompany(c.Request.Context(), companyID)
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	if members == nil {
		members = []*Membership{}
	}
	c.JSON(http.StatusOK, gin.H{"members": members, "count": len(members)})
}

// CreateInviteRequest invites an email address to join the workspace.
type CreateInviteRequest struct {
	Email string `json:"email" binding:"required"`
	Role  string `json:"role" binding:"required"`
}

// CreateInvite handles POST /v1/members/invites. The token is returned
// once; the invitee redeems it on the public accept endpoint.
func (h *Handler) CreateInvite(c *gin.Context) {
	companyID := apikey.AuthCompanyID(c)

	var req CreateInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_input",
			"message": "email and role are required.",
		})
		return
	}
	if !validation.IsValidEmail(req.Email) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_input",
			"message": "email is not valid.",
		})
		return
	}
	if !ValidTenantRole(req.Role) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_input",
			"message": "role must be admin, agent, or viewer.",
		})
		return
	}

	if seats := h.seatLimit(c, companyID); seats > 0 {
		members, err := h.service.Store().ListByCompany(c.Request.Context(), companyID)
		if err != nil {
			h.writeStoreError(c, err)
			return
		}
		if len(members) >= seats {
			c.JSON(http.StatusPaymentRequired, gin.H{
				"error":   "payment_required",
				"message": "Seat limit reached for the current plan.",
			})
			return
		}
	}

	inv, err := h.service.CreateInvite(c.Request.Context(), companyID, req.Email, req.Role)
	if err != nil {
		h.writeStoreError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"invite": inv,
		"token":  inv.Token,
		"usage":  "POST /v1/invites/accept with this token. It will not be shown again.",
	})
}

// AcceptInviteRequest redeems an invite token.
type AcceptInviteRequest struct {
	Token  string `json:"token" binding:"required"`
	UserID string `json:"userId" binding:"required"`
}

// AcceptInvite handles POST /v1/invites/accept. Public: the invitee
// holds no API key yet, the token is the credential.
func (h *Handler) AcceptInvite(c *gin.Context) {
	var req AcceptInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_input",
			"message": "token and userId are required.",
		})
		return
	}

	m, err := h.service.AcceptInvite(c.Request.Context(), req.Token, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, ErrInviteNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "Invite token is unknown or already used.",
			})
		case errors.Is(err, ErrInviteExpired):
			c.JSON(http.StatusGone, gin.H{
				"error":   "invalid_input",
				"message": "Invite token has expired.",
			})
		default:
			h.writeStoreError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"membership": m})
}

// RemoveMember handles DELETE /v1/members/:userId.
func (h *Handler) RemoveMember(c *gin.Context) {
	companyID := apikey.AuthCompanyID(c)

	if err := h.service.Store().Delete(c.Request.Context(), companyID, c.Param("userId")); err != nil {
		h.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

// seatLimit resolves the plan's seat cap for a company. Missing rows
// fall back to the starter cap; 0 means unlimited.
func (h *Handler) seatLimit(c *gin.Context, companyID string) int {
	starter := plan.Catalogue[plan.KeyStarter].Entitlements.MaxSeats

	sub, err := h.subs.Get(c.Request.Context(), companyID)
	if err != nil {
		return starter
	}
	p, err := h.plans.Get(c.Request.Context(), sub.PlanKey)
	if err != nil {
		return starter
	}
	return p.Entitlements.MaxSeats
}

func (h *Handler) writeStoreError(c *gin.Context, err error) {
	if errors.Is(err, ErrMembershipNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Membership not found.",
		})
		return
	}
	logging.L(c.Request.Context()).Error("membership store failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "dependency_failure",
		"message": "Membership storage is unavailable.",
	})
}
