package membership

import (
	"context"
	"fmt"
	"time"

	"github.com/pitchdesk/pitchdesk/internal/idgen"
	"github.com/pitchdesk/pitchdesk/internal/logging"
)

// InviteTTL is how long an invite token stays redeemable.
const InviteTTL = 7 * 24 * time.Hour

// Service manages memberships and the invite flow.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a membership service.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// WithClock overrides the time source. For tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Store exposes the underlying store for read paths.
func (s *Service) Store() Store {
	return s.store
}

// AddMember adds a user to a company, or updates their role if they
// are already a member.
func (s *Service) AddMember(ctx context.Context, companyID, userID, role string) (*Membership, error) {
	if !ValidRole(role) {
		return nil, fmt.Errorf("invalid role %q", role)
	}
	m := &Membership{CompanyID: companyID, UserID: userID, Role: role}
	if err := s.store.Upsert(ctx, m); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, companyID, userID)
}

// CreateInvite issues an invite token for an email address. The token
// is returned once; it is how the invitee later joins.
func (s *Service) CreateInvite(ctx context.Context, companyID, email, role string) (*Invite, error) {
	if !ValidTenantRole(role) {
		return nil, fmt.Errorf("invalid role %q", role)
	}

	inv := &Invite{
		ID:        idgen.WithPrefix("inv_"),
		CompanyID: companyID,
		Email:     email,
		Role:      role,
		Token:     idgen.Hex(24),
		ExpiresAt: s.now().Add(InviteTTL),
	}
	if err := s.store.CreateInvite(ctx, inv); err != nil {
		return nil, err
	}

	logging.L(ctx).Info("invite created",
		"invite_id", inv.ID,
		"company_id", companyID,
		"role", role)
	return inv, nil
}

// AcceptInvite redeems a token for the given user, creating their
// membership with the invited role.
func (s *Service) AcceptInvite(ctx context.Context, token, userID string) (*Membership, error) {
	inv, err := s.store.GetInviteByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if s.now().After(inv.ExpiresAt) {
		return nil, ErrInviteExpired
	}

	m := &Membership{CompanyID: inv.CompanyID, UserID: userID, Role: inv.Role}
	if err := s.store.Upsert(ctx, m); err != nil {
		return nil, err
	}
	if err := s.store.MarkInviteAccepted(ctx, inv.ID); err != nil {
		return nil, err
	}

	logging.L(ctx).Info("invite accepted",
		"invite_id", inv.ID,
		"company_id", inv.CompanyID,
		"user_id", userID)
	return s.store.Get(ctx, inv.CompanyID, userID)
}
