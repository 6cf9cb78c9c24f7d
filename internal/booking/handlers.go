package booking

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pitchdesk/pitchdesk/internal/company"
	"github.com/pitchdesk/pitchdesk/internal/entitlement"
	"github.com/pitchdesk/pitchdesk/internal/validation"
)

// Handler exposes the public booking surface, addressed by the
// company's public booking key.
type Handler struct {
	companies company.Store
	gate      *entitlement.Gate
	scheduler Scheduler
}

// NewHandler creates a booking handler.
func NewHandler(companies company.Store, gate *entitlement.Gate, scheduler Scheduler) *Handler {
	return &Handler{companies: companies, gate: gate, scheduler: scheduler}
}

// resolve maps the :key path param to a company. Unknown keys 404.
func (h *Handler) resolve(c *gin.Context) (*company.Company, bool) {
	comp, err := h.companies.GetByBookingKey(c.Request.Context(), c.Param("key"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "unknown booking key",
		})
		return nil, false
	}
	return comp, true
}

// Capabilities handles GET /v1/booking/:key/capabilities.
func (h *Handler) Capabilities(c *gin.Context) {
	comp, ok := h.resolve(c)
	if !ok {
		return
	}
	caps := h.gate.BookingCapabilities(c.Request.Context(), comp.ID)
	c.JSON(http.StatusOK, caps)
}

// ListSlots handles GET /v1/booking/:key/slots. Viewing is always
// allowed.
func (h *Handler) ListSlots(c *gin.Context) {
	comp, ok := h.resolve(c)
	if !ok {
		return
	}

	from := time.Now()
	to := from.Add(14 * 24 * time.Hour)
	slots, err := h.scheduler.ListSlots(c.Request.Context(), comp.ID, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "dependency_failure",
			"message": "failed to load availability",
		})
		return
	}

	open := make([]*Slot, 0, len(slots))
	for _, s := range slots {
		if s.Status == SlotOpen {
			open = append(open, s)
		}
	}
	c.JSON(http.StatusOK, gin.H{"slots": open, "count": len(open)})
}

// HoldRequest is the hold payload.
type HoldRequest struct {
	SlotID string `json:"slotId" binding:"required"`
}

// HoldSlot handles POST /v1/booking/:key/hold.
func (h *Handler) HoldSlot(c *gin.Context) {
	comp, ok := h.resolve(c)
	if !ok {
		return
	}
	if !h.requireCapability(c, comp.ID) {
		return
	}

	var req HoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_input",
			"message": "slotId is required",
		})
		return
	}

	hold, err := h.scheduler.HoldSlot(c.Request.Context(), comp.ID, req.SlotID)
	if err != nil {
		h.writeSchedulerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, hold)
}

// BookRequest is the booking payload.
type BookRequest struct {
	HoldID string `json:"holdId" binding:"required"`
	Email  string `json:"email" binding:"required"`
	Name   string `json:"name"`
}

// BookSlot handles POST /v1/booking/:key/book.
func (h *Handler) BookSlot(c *gin.Context) {
	comp, ok := h.resolve(c)
	if !ok {
		return
	}
	if !h.requireCapability(c, comp.ID) {
		return
	}

	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_input",
			"message": "holdId and email are required",
		})
		return
	}
	if !validation.IsValidEmail(req.Email) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_input",
			"message": "email must be a valid address",
		})
		return
	}

	b, err := h.scheduler.BookSlot(c.Request.Context(), comp.ID, req.HoldID, req.Email, req.Name)
	if err != nil {
		h.writeSchedulerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// requireCapability denies hold/book when the company's plan does not
// grant them.
func (h *Handler) requireCapability(c *gin.Context, companyID string) bool {
	caps := h.gate.BookingCapabilities(c.Request.Context(), companyID)
	if !caps.CanHold || !caps.CanBook {
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":   "payment_required",
			"message": "Booking requires the Pro plan or an active trial.",
			"reason":  caps.Reason,
		})
		return false
	}
	return true
}

func (h *Handler) writeSchedulerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrSlotNotFound), errors.Is(err, ErrHoldNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": err.Error(),
		})
	case errors.Is(err, ErrSlotTaken):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "invalid_input",
			"message": "That slot is no longer available.",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "dependency_failure",
			"message": "scheduling backend failed",
		})
	}
}
