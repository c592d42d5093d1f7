package memory

import (
	"context"
	"sort"
	"time"

	"github.com/chelseaoktaviany/sertifica-app-backend/internal/common"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/models"
	"github.com/google/uuid"
)

type CertificatesRepository struct {
	s *Store
}

func (r *CertificatesRepository) Create(ctx context.Context, cert *models.Certificate) (*models.Certificate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, c := range r.s.certificates {
		if c.CertificateID == cert.CertificateID {
			return nil, common.ErrConflict
		}
	}

	now := r.s.now()
	cert.ID = uuid.NewString()
	cert.IsClaimed = false
	cert.ClaimedAt = nil
	cert.CreatedAt = now
	cert.UpdatedAt = now
	r.s.certificates[cert.ID] = copyCertificate(cert)
	return cert, nil
}

func (r *CertificatesRepository) GetByID(ctx context.Context, id string) (*models.Certificate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.certificates[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return copyCertificate(c), nil
}

// byCertificateID expects the lock to be held.
func (r *CertificatesRepository) byCertificateID(certificateID string) *models.Certificate {
	for _, c := range r.s.certificates {
		if c.CertificateID == certificateID {
			return c
		}
	}
	return nil
}

func (r *CertificatesRepository) GetByCertificateID(ctx context.Context, certificateID string) (*models.Certificate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c := r.byCertificateID(certificateID)
	if c == nil {
		return nil, common.ErrorNotFound
	}
	return copyCertificate(c), nil
}

func (r *CertificatesRepository) filter(keep func(*models.Certificate) bool) []*models.Certificate {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	result := make([]*models.Certificate, 0)
	for _, c := range r.s.certificates {
		if keep(c) {
			result = append(result, copyCertificate(c))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result
}

func (r *CertificatesRepository) ListByCategorySlug(ctx context.Context, slug string) ([]*models.Certificate, error) {
	return r.filter(func(c *models.Certificate) bool { return c.CategorySlug == slug }), nil
}

func (r *CertificatesRepository) ListByRecipient(ctx context.Context, recipientID string) ([]*models.Certificate, error) {
	return r.filter(func(c *models.Certificate) bool { return c.RecipientID == recipientID }), nil
}

func (r *CertificatesRepository) Claim(ctx context.Context, certificateID string, at time.Time) (*models.Certificate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c := r.byCertificateID(certificateID)
	if c == nil || c.IsClaimed {
		return nil, common.ErrConflict
	}
	c.IsClaimed = true
	c.ClaimedAt = &at
	c.UpdatedAt = at
	return copyCertificate(c), nil
}
