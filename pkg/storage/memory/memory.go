// Package memory implements the storage interfaces with process-scoped maps.
// Nothing survives a restart; the client simulates a backend it does not have.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/instapay/payment-core/pkg/models"
	"github.com/instapay/payment-core/pkg/storage"
)

// Store is the in-memory implementation of storage.Store. Identities are
// keyed by lowercased email.
type Store struct {
	mu         sync.RWMutex
	identities map[string]models.Identity
	enquiries  []models.Enquiry
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{identities: make(map[string]models.Identity)}
}

var _ storage.Store = (*Store)(nil)

func key(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GetIdentity retrieves an identity by email.
func (s *Store) GetIdentity(ctx context.Context, email string) (*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	identity, ok := s.identities[key(email)]
	if !ok {
		return nil, fmt.Errorf("failed to get identity %q: %w", email, storage.ErrIdentityNotFound)
	}
	return &identity, nil
}

// CreateIdentity adds a new identity, rejecting duplicate emails.
func (s *Store) CreateIdentity(ctx context.Context, identity *models.Identity) (*models.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(identity.Email)
	if _, exists := s.identities[k]; exists {
		return nil, fmt.Errorf("failed to create identity %q: %w", identity.Email, storage.ErrDuplicateIdentity)
	}

	s.identities[k] = *identity
	created := s.identities[k]
	return &created, nil
}

// UpdateIdentity replaces an existing identity's record.
func (s *Store) UpdateIdentity(ctx context.Context, identity *models.Identity) (*models.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(identity.Email)
	if _, exists := s.identities[k]; !exists {
		return nil, fmt.Errorf("failed to update identity %q: %w", identity.Email, storage.ErrIdentityNotFound)
	}

	s.identities[k] = *identity
	updated := s.identities[k]
	return &updated, nil
}

// ListIdentities retrieves all identities, ordered by creation time.
func (s *Store) ListIdentities(ctx context.Context) ([]models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Identity, 0, len(s.identities))
	for _, identity := range s.identities {
		out = append(out, identity)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// CreateEnquiry records a new enquiry.
func (s *Store) CreateEnquiry(ctx context.Context, enquiry *models.Enquiry) (*models.Enquiry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.enquiries = append(s.enquiries, *enquiry)
	created := s.enquiries[len(s.enquiries)-1]
	return &created, nil
}

// ListEnquiries retrieves all recorded enquiries in submission order.
func (s *Store) ListEnquiries(ctx context.Context) ([]models.Enquiry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Enquiry, len(s.enquiries))
	copy(out, s.enquiries)
	return out, nil
}
