// Package membership maps users to companies with a role. The access
// resolver reads from here to decide what a caller may do.
package membership

import (
	"errors"
	"time"
)

var (
	// ErrMembershipNotFound is returned when a (company, user) pair
	// has no membership row.
	ErrMembershipNotFound = errors.New("membership: not found")

	// ErrInviteNotFound is returned for unknown or consumed invite tokens.
	ErrInviteNotFound = errors.New("membership: invite not found")

	// ErrInviteExpired is returned when an invite token has passed its
	// expiry.
	ErrInviteExpired = errors.New("membership: invite expired")
)

// Roles, strongest first. RolePlatformOwner is tenant-independent: a
// user holding it anywhere is authorized for every company. The other
// roles are scoped to exactly the company of the row.
const (
	RolePlatformOwner = "platform_owner"
	RoleAdmin         = "admin"
	RoleAgent         = "agent"
	RoleViewer        = "viewer"
)

// ValidRole reports whether role is a known membership role.
func ValidRole(role string) bool {
	return role == RolePlatformOwner || ValidTenantRole(role)
}

// ValidTenantRole reports whether role is a company-scoped role, the
// only kind that invites may carry.
func ValidTenantRole(role string) bool {
	switch role {
	case RoleAdmin, RoleAgent, RoleViewer:
		return true
	}
	return false
}

// Membership ties a user to a company with a role. Unique per
// (company, user); re-adding a user updates the role in place.
type Membership struct {
	CompanyID string    `json:"companyId"`
	UserID    string    `json:"userId"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Invite is a pending offer to join a company. Accepting it creates a
// membership and consumes the token.
type Invite struct {
	ID         string     `json:"id"`
	CompanyID  string     `json:"companyId"`
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	Token      string     `json:"token,omitempty"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	AcceptedAt *time.Time `json:"acceptedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}
