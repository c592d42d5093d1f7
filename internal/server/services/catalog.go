package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/chelseaoktaviany/sertifica-app-backend/internal/common"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/logging"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/models"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// CatalogService manages certificate categories.
type CatalogService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *CatalogService {
	return &CatalogService{db: db, repomanager: m, logger: logger.With("module", "catalog")}
}

func categoryName(name string) (string, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", fmt.Errorf("%w: name: cannot be blank", common.ErrValidation)
	}
	slug := Slugify(name)
	if slug == "" {
		return "", "", fmt.Errorf("%w: name: must contain letters or digits", common.ErrValidation)
	}
	return name, slug, nil
}

// Create adds a category named name.
func (s *CatalogService) Create(ctx context.Context, name string) (*models.Category, error) {
	name, slug, err := categoryName(name)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Categories(s.db)
	category, err := repo.Create(ctx, &models.Category{Name: name, Slug: slug})
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, common.ErrDuplicateCategory
		}
		return nil, fmt.Errorf("error creating category: %w", err)
	}

	s.logger.Info(ctx, "category created", "category", category.ID, "slug", category.Slug)
	return category, nil
}

// List returns all categories ordered by name.
func (s *CatalogService) List(ctx context.Context) ([]*models.Category, error) {
	repo := s.repomanager.Categories(s.db)
	return repo.List(ctx)
}

// Get returns the category with id or common.ErrorNotFound.
func (s *CatalogService) Get(ctx context.Context, id string) (*models.Category, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}
	repo := s.repomanager.Categories(s.db)
	return repo.GetByID(ctx, id)
}

// GetBySlug returns the category with slug or common.ErrorNotFound.
func (s *CatalogService) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	repo := s.repomanager.Categories(s.db)
	return repo.GetBySlug(ctx, slug)
}

// Update renames the category and recomputes its slug.
func (s *CatalogService) Update(ctx context.Context, id, name string) (*models.Category, error) {
	name, slug, err := categoryName(name)
	if err != nil {
		return nil, err
	}

	category, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	category.Name = name
	category.Slug = slug

	repo := s.repomanager.Categories(s.db)
	category, err = repo.Update(ctx, category)
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, common.ErrDuplicateCategory
		}
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error updating category: %w", err)
	}

	return category, nil
}

// Delete removes the category. Certificates issued under it keep their
// name and slug snapshot.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.ErrorNotFound
	}
	repo := s.repomanager.Categories(s.db)
	if err := repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "category deleted", "category", id)
	return nil
}
