// Package access decides what an authenticated identity may do. It is
// a pure read over memberships: handlers call Resolve and map the
// resulting kind to a status code.
package access

import (
	"context"
	"errors"

	"github.com/pitchdesk/pitchdesk/internal/logging"
	"github.com/pitchdesk/pitchdesk/internal/membership"
)

// Resolution kinds.
const (
	KindUnauthenticated = "unauthenticated"
	KindPlatformOwner   = "platform_owner"
	KindTenantRole      = "tenant_role"
	KindForbidden       = "forbidden"
)

// Resolution is the outcome of an access check. Consumers must check
// OK() before acting on Role or CompanyID.
type Resolution struct {
	Kind      string `json:"kind"`
	Role      string `json:"role,omitempty"`
	CompanyID string `json:"companyId,omitempty"`
}

// OK reports whether the resolution authorizes the request.
func (r Resolution) OK() bool {
	return r.Kind == KindPlatformOwner || r.Kind == KindTenantRole
}

// Owner reports whether the resolution carries the global owner role.
func (r Resolution) Owner() bool {
	return r.Kind == KindPlatformOwner
}

// Resolver resolves identities against the membership store. An
// optional bootstrap owner user id covers the first operator before
// any platform_owner row exists.
type Resolver struct {
	members        membership.Store
	bootstrapOwner string
}

// NewResolver creates a resolver over the given membership store.
// bootstrapOwner may be empty.
func NewResolver(members membership.Store, bootstrapOwner string) *Resolver {
	return &Resolver{members: members, bootstrapOwner: bootstrapOwner}
}

// Resolve maps (userID, companyID) to a Resolution.
//
// Order: no identity is unauthenticated; the global owner role wins
// over everything; otherwise a membership for the requested company is
// required. Platform-wide operations pass an empty companyID and are
// owner-only. Store failures resolve to forbidden, never to access.
func (r *Resolver) Resolve(ctx context.Context, userID, companyID string) Resolution {
	if userID == "" {
		return Resolution{Kind: KindUnauthenticated}
	}

	if r.isOwner(ctx, userID) {
		return Resolution{Kind: KindPlatformOwner, Role: membership.RolePlatformOwner, CompanyID: companyID}
	}

	if companyID == "" {
		return Resolution{Kind: KindForbidden}
	}

	m, err := r.members.Get(ctx, companyID, userID)
	if err != nil {
		if !errors.Is(err, membership.ErrMembershipNotFound) {
			logging.L(ctx).Error("membership lookup failed",
				"user_id", userID,
				"company_id", companyID,
				"error", err)
		}
		return Resolution{Kind: KindForbidden}
	}

	role := m.Role
	if role == "" {
		role = membership.RoleAdmin
	}
	return Resolution{Kind: KindTenantRole, Role: role, CompanyID: companyID}
}

// isOwner checks the bootstrap id and the tenant-independent
// platform_owner membership row (stored with an empty company id).
func (r *Resolver) isOwner(ctx context.Context, userID string) bool {
	if r.bootstrapOwner != "" && userID == r.bootstrapOwner {
		return true
	}
	m, err := r.members.Get(ctx, "", userID)
	if err != nil {
		return false
	}
	return m.Role == membership.RolePlatformOwner
}
