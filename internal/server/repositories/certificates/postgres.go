// Package certificates contains the certificate repository and its
// PostgreSQL implementation.
package certificates

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/chelseaoktaviany/sertifica-app-backend/internal/common"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/dbx"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/models"
)

const columns = `id, certificate_id, file_ref, file_name, category_id, category_name, category_slug,
		 recipient_id, recipient_name, recipient_email, publisher_id, is_claimed, claimed_at,
		 created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCertificate(row scanner) (*models.Certificate, error) {
	var (
		c          models.Certificate
		categoryID sql.NullString
		claimedAt  sql.NullTime
	)

	err := row.Scan(&c.ID, &c.CertificateID, &c.FileRef, &c.FileName, &categoryID, &c.CategoryName, &c.CategorySlug,
		&c.RecipientID, &c.RecipientName, &c.RecipientEmail, &c.PublisherID, &c.IsClaimed, &claimedAt,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if categoryID.Valid {
		c.CategoryID = &categoryID.String
	}
	if claimedAt.Valid {
		c.ClaimedAt = &claimedAt.Time
	}
	return &c, nil
}

func (r *PostgresRepository) Create(ctx context.Context, cert *models.Certificate) (*models.Certificate, error) {

	query :=
		`INSERT INTO certificates (certificate_id, file_ref, file_name, category_id, category_name, category_slug,
		 recipient_id, recipient_name, recipient_email, publisher_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (certificate_id) DO NOTHING
		 RETURNING id, is_claimed, created_at, updated_at
		 `

	var categoryID sql.NullString
	if cert.CategoryID != nil {
		categoryID = sql.NullString{String: *cert.CategoryID, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query,
		cert.CertificateID, cert.FileRef, cert.FileName, categoryID, cert.CategoryName, cert.CategorySlug,
		cert.RecipientID, cert.RecipientName, cert.RecipientEmail, cert.PublisherID,
	).Scan(&cert.ID, &cert.IsClaimed, &cert.CreatedAt, &cert.UpdatedAt)

	if err != nil {
		// DO NOTHING yields no row on a certificate_id collision
		if errors.Is(err, sql.ErrNoRows) || dbx.IsUniqueViolation(err, "certificates_certificate_id_key") {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return cert, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.Certificate, error) {
	c, err := scanCertificate(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Certificate, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Certificate, 0)
	for rows.Next() {
		c, err := scanCertificate(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Certificate, error) {
	query :=
		`SELECT ` + columns + ` FROM certificates
		 WHERE id = $1
		 `
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) GetByCertificateID(ctx context.Context, certificateID string) (*models.Certificate, error) {
	query :=
		`SELECT ` + columns + ` FROM certificates
		 WHERE certificate_id = $1
		 `
	return r.getOne(ctx, query, certificateID)
}

func (r *PostgresRepository) ListByCategorySlug(ctx context.Context, slug string) ([]*models.Certificate, error) {
	query :=
		`SELECT ` + columns + ` FROM certificates
		 WHERE category_slug = $1
		 ORDER BY created_at DESC
		 `
	return r.list(ctx, query, slug)
}

func (r *PostgresRepository) ListByRecipient(ctx context.Context, recipientID string) ([]*models.Certificate, error) {
	query :=
		`SELECT ` + columns + ` FROM certificates
		 WHERE recipient_id = $1
		 ORDER BY created_at DESC
		 `
	return r.list(ctx, query, recipientID)
}

func (r *PostgresRepository) Claim(ctx context.Context, certificateID string, at time.Time) (*models.Certificate, error) {
	query :=
		`UPDATE certificates SET is_claimed = TRUE, claimed_at = $2, updated_at = $2
		 WHERE certificate_id = $1 AND is_claimed = FALSE
		 RETURNING ` + columns

	c, err := r.getOne(ctx, query, certificateID, at)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrConflict
	}
	return c, err
}
