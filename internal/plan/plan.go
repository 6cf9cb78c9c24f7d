// Package plan holds the pricing-tier catalogue and its entitlement payloads.
package plan

import "errors"

// ErrPlanNotFound is returned when a plan key is unknown.
var ErrPlanNotFound = errors.New("plan: not found")

// Keys for the pricing tiers. KeyPro is the top paid tier; it alone
// unlocks hold/book on the public scheduling surface.
const (
	KeyStarter = "starter"
	KeyGrowth  = "growth"
	KeyPro     = "pro"
)

// RateLimits is a plan's request ceiling for the chat service.
type RateLimits struct {
	PerMinute int `json:"perMinute"`
	PerDay    int `json:"perDay"`
}

// Entitlements is the capability payload a plan grants.
type Entitlements struct {
	Limits             RateLimits `json:"limits"`
	MaxKnowledgeChunks int        `json:"maxKnowledgeChunks"` // 0 = unlimited
	MaxSeats           int        `json:"maxSeats"`           // 0 = unlimited
}

// Plan defines one pricing tier.
type Plan struct {
	Key           string       `json:"key"`
	Name          string       `json:"name"`
	Active        bool         `json:"active"`
	Entitlements  Entitlements `json:"entitlements"`
	StripePriceID string       `json:"stripePriceId,omitempty"`
}

// Catalogue is the hardcoded plan catalogue, the fallback when no plans
// table is available (demo mode) and the seed for migrations.
var Catalogue = map[string]Plan{
	KeyStarter: {
		Key:    KeyStarter,
		Name:   "Starter",
		Active: true,
		Entitlements: Entitlements{
			Limits:             RateLimits{PerMinute: 10, PerDay: 500},
			MaxKnowledgeChunks: 50,
			MaxSeats:           2,
		},
	},
	KeyGrowth: {
		Key:    KeyGrowth,
		Name:   "Growth",
		Active: true,
		Entitlements: Entitlements{
			Limits:             RateLimits{PerMinute: 30, PerDay: 5000},
			MaxKnowledgeChunks: 500,
			MaxSeats:           10,
		},
	},
	KeyPro: {
		Key:    KeyPro,
		Name:   "Pro",
		Active: true,
		Entitlements: Entitlements{
			Limits:             RateLimits{PerMinute: 120, PerDay: 50000},
			MaxKnowledgeChunks: 0,
			MaxSeats:           0,
		},
	},
}

// Valid returns true if the plan key is recognised.
func Valid(key string) bool {
	_, ok := Catalogue[key]
	return ok
}
