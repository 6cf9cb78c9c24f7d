// Package apikey provides API authentication for PitchDesk.
//
// Authentication model:
// - Widget endpoints (public chat): widget key ("pk_") identifies the company
// - Dashboard endpoints: secret key ("sk_") proves company access and carries
//   the user identity for role resolution
// - Raw keys are shown once at issuance; only a SHA256 hash is stored
package apikey

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

// Errors
var (
	ErrNoAPIKey      = errors.New("API key required")
	ErrInvalidAPIKey = errors.New("invalid or expired API key")
	ErrKeyNotFound   = errors.New("API key not found")
)

// Key kinds.
const (
	KindSecret = "secret"
	KindWidget = "widget"
)

// Raw key prefixes per kind.
const (
	prefixSecret = "sk_"
	prefixWidget = "pk_"
)

// APIKey represents an issued key. The raw key is never stored.
type APIKey struct {
	ID        string     `json:"id"`
	Hash      string     `json:"-"`
	CompanyID string     `json:"companyId"`
	CreatedBy string     `json:"createdBy,omitempty"` // user who issued it
	Kind      string     `json:"kind"`
	Name      string     `json:"name"`
	Prefix    string     `json:"prefix"` // first chars of the raw key, for display
	CreatedAt time.Time  `json:"createdAt"`
	LastUsed  time.Time  `json:"lastUsed,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Revoked   bool       `json:"revoked"`
}

// Store persists API keys
type Store interface {
	Create(ctx context.Context, key *APIKey) error
	GetByHash(ctx context.Context, hash string) (*APIKey, error)
	GetByCompany(ctx context.Context, companyID string) ([]*APIKey, error)
	Update(ctx context.Context, key *APIKey) error
	Delete(ctx context.Context, id string) error
}

// Manager handles key issuance and validation
type Manager struct {
	store Store
}

// NewManager creates a new key manager
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// GenerateKey creates a new key of the given kind for a company.
// Returns the raw key (shown once) and the stored metadata.
func (m *Manager) GenerateKey(ctx context.Context, companyID, createdBy, kind, name string) (rawKey string, key *APIKey, err error) {
	prefix := prefixSecret
	if kind == KindWidget {
		prefix = prefixWidget
	} else if kind != KindSecret {
		return "", nil, errors.New("unknown key kind")
	}

	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", nil, err
	}
	rawKey = prefix + hex.EncodeToString(b)

	key = &APIKey{
		ID:        "ak_" + hex.EncodeToString(b[:8]),
		Hash:      hashKey(rawKey),
		CompanyID: companyID,
		CreatedBy: createdBy,
		Kind:      kind,
		Name:      name,
		Prefix:    rawKey[:10],
		CreatedAt: time.Now(),
	}

	if err := m.store.Create(ctx, key); err != nil {
		return "", nil, err
	}
	return rawKey, key, nil
}

// ValidateSecret validates a secret key and returns its metadata.
func (m *Manager) ValidateSecret(ctx context.Context, rawKey string) (*APIKey, error) {
	return m.validate(ctx, rawKey, prefixSecret, KindSecret)
}

// ValidateWidget validates a public widget key and returns its metadata.
func (m *Manager) ValidateWidget(ctx context.Context, rawKey string) (*APIKey, error) {
	return m.validate(ctx, rawKey, prefixWidget, KindWidget)
}

func (m *Manager) validate(ctx context.Context, rawKey, wantPrefix, wantKind string) (*APIKey, error) {
	if rawKey == "" {
		return nil, ErrNoAPIKey
	}
	rawKey = strings.TrimPrefix(rawKey, "Bearer ")
	rawKey = strings.TrimSpace(rawKey)

	if !strings.HasPrefix(rawKey, wantPrefix) {
		return nil, ErrInvalidAPIKey
	}

	key, err := m.store.GetByHash(ctx, hashKey(rawKey))
	if err != nil {
		return nil, ErrInvalidAPIKey
	}
	if key.Kind != wantKind || key.Revoked {
		return nil, ErrInvalidAPIKey
	}
	if key.ExpiresAt != nil && time.Now().After(*key.ExpiresAt) {
		return nil, ErrInvalidAPIKey
	}

	// Update last used (fire and forget)
	go func() {
		key.LastUsed = time.Now()
		m.store.Update(context.Background(), key)
	}()

	return key, nil
}

// ListKeys returns all keys for a company
func (m *Manager) ListKeys(ctx context.Context, companyID string) ([]*APIKey, error) {
	return m.store.GetByCompany(ctx, companyID)
}

// RevokeKey revokes a key belonging to the given company
func (m *Manager) RevokeKey(ctx context.Context, keyID, companyID string) error {
	keys, err := m.store.GetByCompany(ctx, companyID)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if k.ID == keyID {
			k.Revoked = true
			return m.store.Update(ctx, k)
		}
	}
	return ErrKeyNotFound
}

// RotateKey revokes a key and issues a fresh one of the same kind and
// name. Returns the new raw key (shown once).
func (m *Manager) RotateKey(ctx context.Context, keyID, companyID, rotatedBy string) (string, *APIKey, error) {
	keys, err := m.store.GetByCompany(ctx, companyID)
	if err != nil {
		return "", nil, err
	}
	for _, k := range keys {
		if k.ID != keyID {
			continue
		}
		k.Revoked = true
		if err := m.store.Update(ctx, k); err != nil {
			return "", nil, err
		}
		return m.GenerateKey(ctx, companyID, rotatedBy, k.Kind, k.Name)
	}
	return "", nil, ErrKeyNotFound
}

func hashKey(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}
