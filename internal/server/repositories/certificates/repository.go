package certificates

import (
	"context"
	"time"

	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/models"
)

// Repository persists issued certificates.
type Repository interface {
	// Create inserts the certificate. Returns common.ErrConflict when the
	// public certificate id is already taken, so the caller can regenerate it.
	Create(ctx context.Context, cert *models.Certificate) (*models.Certificate, error)
	GetByID(ctx context.Context, id string) (*models.Certificate, error)
	GetByCertificateID(ctx context.Context, certificateID string) (*models.Certificate, error)
	ListByCategorySlug(ctx context.Context, slug string) ([]*models.Certificate, error)
	ListByRecipient(ctx context.Context, recipientID string) ([]*models.Certificate, error)
	// Claim flips is_claimed only if it is still false. Returns
	// common.ErrConflict when another caller got there first.
	Claim(ctx context.Context, certificateID string, at time.Time) (*models.Certificate, error)
}
