// Package accounts contains the account repository and its PostgreSQL
// implementation.
package accounts

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

const emailConstraint = "accounts_email_key"

const columns = `id, role, email_address, first_name, last_name, display_name, phone, is_active,
		 otp_code, otp_expires_at, profile_image_ref, company_name, address, job_title, postal_code,
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

func scanAccount(row scanner) (*models.Account, error) {
	var (
		a                                      models.Account
		role                                   string
		otpCode                                sql.NullString
		otpExpiresAt                           sql.NullTime
		company, address, jobTitle, postalCode sql.NullString
	)

	err := row.Scan(&a.ID, &role, &a.EmailAddress, &a.FirstName, &a.LastName, &a.DisplayName, &a.Phone, &a.Active,
		&otpCode, &otpExpiresAt, &a.ProfileImageRef, &company, &address, &jobTitle, &postalCode,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}

	a.Role = models.Role(role)
	if otpCode.Valid {
		a.OTPCode = &otpCode.String
	}
	if otpExpiresAt.Valid {
		a.OTPExpiresAt = &otpExpiresAt.Time
	}
	if a.Role == models.RolePublisher || company.Valid {
		a.Publisher = &models.PublisherDetails{
			CompanyName: company.String,
			Address:     address.String,
			JobTitle:    jobTitle.String,
			PostalCode:  postalCode.String,
		}
	}
	return &a, nil
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func nullTime(p *time.Time) sql.NullTime {
	if p == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *p, Valid: true}
}

func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {

	query :=
		`INSERT INTO accounts (role, email_address, first_name, last_name, display_name, phone, is_active,
		 otp_code, otp_expires_at, profile_image_ref, company_name, address, job_title, postal_code)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING id, created_at, updated_at
		 `

	var company, address, jobTitle, postalCode sql.NullString
	if p := account.Publisher; p != nil {
		company = sql.NullString{String: p.CompanyName, Valid: true}
		address = sql.NullString{String: p.Address, Valid: true}
		jobTitle = sql.NullString{String: p.JobTitle, Valid: true}
		postalCode = sql.NullString{String: p.PostalCode, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query,
		string(account.Role), account.EmailAddress, account.FirstName, account.LastName, account.DisplayName,
		account.Phone, account.Active, nullString(account.OTPCode), nullTime(account.OTPExpiresAt),
		account.ProfileImageRef, company, address, jobTitle, postalCode,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err, emailConstraint) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query :=
		`SELECT ` + columns + ` FROM accounts
		 WHERE id = $1
		 `
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query :=
		`SELECT ` + columns + ` FROM accounts
		 WHERE email_address = $1
		 `
	return r.getOne(ctx, query, email)
}

func (r *PostgresRepository) ListActive(ctx context.Context) ([]*models.Account, error) {
	query :=
		`SELECT ` + columns + ` FROM accounts
		 WHERE is_active
		 ORDER BY created_at
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) Activate(ctx context.Context, id string) error {
	query :=
		`UPDATE accounts SET is_active = TRUE, updated_at = now()
		 WHERE id = $1
		 `

	n, err := r.exec(ctx, query, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) SetOTP(ctx context.Context, id, code string, expiresAt time.Time) error {
	query :=
		`UPDATE accounts SET otp_code = $2, otp_expires_at = $3, updated_at = now()
		 WHERE id = $1
		 `

	n, err := r.exec(ctx, query, id, code, expiresAt)
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) ConsumeOTP(ctx context.Context, id, code string, now time.Time) (*models.Account, error) {
	query :=
		`UPDATE accounts SET otp_code = NULL, otp_expires_at = NULL, is_active = TRUE, updated_at = now()
		 WHERE id = $1 AND otp_code = $2 AND otp_expires_at > $3
		 RETURNING ` + columns

	return r.getOne(ctx, query, id, code, now)
}

func (r *PostgresRepository) ClearOTP(ctx context.Context, id, code string) (bool, error) {
	query :=
		`UPDATE accounts SET otp_code = NULL, otp_expires_at = NULL, updated_at = now()
		 WHERE id = $1 AND otp_code = $2
		 `

	n, err := r.exec(ctx, query, id, code)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
