package categories

import (
	"context"

	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/models"
)

// Repository persists certificate categories. Create and Update return
// common.ErrConflict when the name or slug is already used.
type Repository interface {
	Create(ctx context.Context, category *models.Category) (*models.Category, error)
	GetByID(ctx context.Context, id string) (*models.Category, error)
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
	List(ctx context.Context) ([]*models.Category, error)
	Update(ctx context.Context, category *models.Category) (*models.Category, error)
	Delete(ctx context.Context, id string) error
}
