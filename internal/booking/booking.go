// Package booking is the public scheduling surface. It is reached by
// booking key, not by authentication: anyone with a company's public
// key may view availability, while hold and book are gated by the
// entitlement package's booking capabilities.
package booking

import (
	"context"
	"errors"
	"time"
)

// Errors
var (
	ErrSlotNotFound = errors.New("booking: slot not found")
	ErrSlotTaken    = errors.New("booking: slot no longer available")
	ErrHoldNotFound = errors.New("booking: hold not found or expired")
)

// HoldTTL is how long a held slot stays reserved before it is
// released.
const HoldTTL = 15 * time.Minute

// Slot statuses.
const (
	SlotOpen   = "open"
	SlotHeld   = "held"
	SlotBooked = "booked"
)

// Slot is one bookable time window.
type Slot struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"companyId"`
	StartsAt  time.Time `json:"startsAt"`
	EndsAt    time.Time `json:"endsAt"`
	Status    string    `json:"status"`
}

// Hold is a temporary reservation on a slot.
type Hold struct {
	ID        string    `json:"id"`
	SlotID    string    `json:"slotId"`
	CompanyID string    `json:"companyId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Booking is a confirmed appointment.
type Booking struct {
	ID        string    `json:"id"`
	SlotID    string    `json:"slotId"`
	CompanyID string    `json:"companyId"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Scheduler is the calendar collaborator. The in-memory implementation
// below is the default; an external calendar integration would satisfy
// the same interface.
type Scheduler interface {
	ListSlots(ctx context.Context, companyID string, from, to time.Time) ([]*Slot, error)
	AddSlot(ctx context.Context, slot *Slot) error
	HoldSlot(ctx context.Context, companyID, slotID string) (*Hold, error)
	BookSlot(ctx context.Context, companyID, holdID, email, name string) (*Booking, error)
}
