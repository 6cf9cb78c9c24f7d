package membership

import "context"

// Store persists memberships and invites.
type Store interface {
	// Upsert creates a membership or updates the role of an existing
	// one for the same (company, user) pair.
	Upsert(ctx context.Context, m *Membership) error

	// Get returns the membership for a (company, user) pair. Returns
	// ErrMembershipNotFound if none exists.
	Get(ctx context.Context, companyID, userID string) (*Membership, error)

	// ListByCompany returns all memberships of a company ordered by
	// creation time.
	ListByCompany(ctx context.Context, companyID string) ([]*Membership, error)

	// ListByUser returns all memberships of a user.
	ListByUser(ctx context.Context, userID string) ([]*Membership, error)

	// Delete removes a membership. Returns ErrMembershipNotFound if
	// none exists.
	Delete(ctx context.Context, companyID, userID string) error

	// CreateInvite stores a pending invite.
	CreateInvite(ctx context.Context, inv *Invite) error

	// GetInviteByToken returns an unconsumed invite by its token.
	GetInviteByToken(ctx context.Context, token string) (*Invite, error)

	// MarkInviteAccepted consumes an invite.
	MarkInviteAccepted(ctx context.Context, inviteID string) error
}
