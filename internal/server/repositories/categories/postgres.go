// Package categories contains the category repository and its PostgreSQL
// implementation.
package categories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/chelseaoktaviany/sertifica-app-backend/internal/common"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/dbx"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// name and slug each carry a unique constraint
func isDuplicate(err error) bool {
	return dbx.IsUniqueViolation(err, "categories_name_key") || dbx.IsUniqueViolation(err, "categories_slug_key")
}

func (r *PostgresRepository) Create(ctx context.Context, category *models.Category) (*models.Category, error) {

	query :=
		`INSERT INTO categories (name, slug)
         VALUES ($1, $2)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query, category.Name, category.Slug).
		Scan(&category.ID, &category.CreatedAt, &category.UpdatedAt)

	if err != nil {
		if isDuplicate(err) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return category, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.Category, error) {
	c := &models.Category{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt, &c.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return c, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Category, error) {
	query :=
		`SELECT id, name, slug, created_at, updated_at FROM categories
		 WHERE id = $1
		 `
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	query :=
		`SELECT id, name, slug, created_at, updated_at FROM categories
		 WHERE slug = $1
		 `
	return r.getOne(ctx, query, slug)
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Category, error) {
	query :=
		`SELECT id, name, slug, created_at, updated_at FROM categories
		 ORDER BY name
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Category, 0)
	for rows.Next() {
		c := &models.Category{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, category *models.Category) (*models.Category, error) {
	query :=
		`UPDATE categories SET name = $2, slug = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query, category.ID, category.Name, category.Slug).
		Scan(&category.CreatedAt, &category.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		if isDuplicate(err) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return category, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM categories WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
