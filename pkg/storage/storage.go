package storage

import (
	"context"

	"github.com/instapay/payment-core/pkg/models"
)

// IdentityStore defines the interface for managing the identity set.
type IdentityStore interface {
	// GetIdentity retrieves an identity by its email, the unique key.
	GetIdentity(ctx context.Context, email string) (*models.Identity, error)

	// CreateIdentity adds a new identity. It fails with ErrDuplicateIdentity
	// if the email is already taken.
	CreateIdentity(ctx context.Context, identity *models.Identity) (*models.Identity, error)

	// UpdateIdentity replaces an existing identity's record.
	UpdateIdentity(ctx context.Context, identity *models.Identity) (*models.Identity, error)

	// ListIdentities retrieves all identities.
	ListIdentities(ctx context.Context) ([]models.Identity, error)
}

// EnquiryStore defines the interface for captured support enquiries.
type EnquiryStore interface {
	// CreateEnquiry records a new enquiry.
	CreateEnquiry(ctx context.Context, enquiry *models.Enquiry) (*models.Enquiry, error)

	// ListEnquiries retrieves all recorded enquiries.
	ListEnquiries(ctx context.Context) ([]models.Enquiry, error)
}

// Store is the root interface for the data layer. Components should depend on
// the granular interfaces above instead of this one.
type Store interface {
	IdentityStore
	EnquiryStore
}
