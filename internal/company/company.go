// Package company provides multi-tenancy for the PitchDesk platform.
package company

import (
	"errors"
	"time"
)

// Errors
var (
	ErrCompanyNotFound = errors.New("company: not found")
	ErrSlugTaken       = errors.New("company: slug already taken")
)

// Status represents a company's lifecycle state.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusDeleted   Status = "deleted"
)

// RateLimitOverride tightens the plan's request ceiling for one tenant.
// Zero means "no override" for that field. Overrides may only lower the
// plan ceiling; the entitlement gate enforces that.
type RateLimitOverride struct {
	PerMinute int `json:"perMinute,omitempty"`
	PerDay    int `json:"perDay,omitempty"`
}

// QualificationFields toggles which discovery questions the assistant may ask.
type QualificationFields struct {
	Industry bool `json:"industry"`
	Goal     bool `json:"goal"`
	Timeline bool `json:"timeline"`
	Budget   bool `json:"budget"`
}

// FunnelConfig shapes how the assistant sells for this tenant.
type FunnelConfig struct {
	Tone             string              `json:"tone"`           // "friendly", "formal", "direct"
	ResponseLength   string              `json:"responseLength"` // "short", "medium", "long"
	Language         string              `json:"language"`       // BCP 47-ish, e.g. "en", "hu"
	DisclosePricing  bool                `json:"disclosePricing"`
	HandleObjections bool                `json:"handleObjections"`
	CTAStyle         string              `json:"ctaStyle"` // "book_demo", "start_trial", "contact_sales"
	Qualify          QualificationFields `json:"qualify"`
}

// DefaultFunnelConfig returns the configuration new tenants start with.
func DefaultFunnelConfig() FunnelConfig {
	return FunnelConfig{
		Tone:             "friendly",
		ResponseLength:   "medium",
		Language:         "en",
		DisclosePricing:  true,
		HandleObjections: true,
		CTAStyle:         "book_demo",
		Qualify:          QualificationFields{Industry: true, Goal: true, Timeline: true},
	}
}

// Settings stores per-tenant configuration.
type Settings struct {
	RateLimit        RateLimitOverride `json:"rateLimit"`
	Funnel           FunnelConfig      `json:"funnel"`
	AllowedOrigins   []string          `json:"allowedOrigins,omitempty"`
	PublicBookingKey string            `json:"publicBookingKey,omitempty"`
	BrandColor       string            `json:"brandColor,omitempty"`
	WidgetGreeting   string            `json:"widgetGreeting,omitempty"`
}

// Company represents a tenant using the platform.
type Company struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Slug             string    `json:"slug"`
	StripeCustomerID string    `json:"stripeCustomerId,omitempty"`
	Status           Status    `json:"status"`
	Settings         Settings  `json:"settings"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Active reports whether the tenant may be served at all.
func (c *Company) Active() bool {
	return c.Status == StatusActive
}
