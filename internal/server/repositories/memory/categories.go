package memory

import (
	"context"
	"sort"

	"github.com/chelseaoktaviany/sertifica-app-backend/internal/common"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/models"
	"github.com/google/uuid"
)

type CategoriesRepository struct {
	s *Store
}

// taken reports a name or slug clash with any category other than exceptID.
// Callers hold the lock.
func (r *CategoriesRepository) taken(name, slug, exceptID string) bool {
	for id, c := range r.s.categories {
		if id == exceptID {
			continue
		}
		if c.Name == name || c.Slug == slug {
			return true
		}
	}
	return false
}

func (r *CategoriesRepository) Create(ctx context.Context, category *models.Category) (*models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.taken(category.Name, category.Slug, "") {
		return nil, common.ErrConflict
	}

	now := r.s.now()
	category.ID = uuid.NewString()
	category.CreatedAt = now
	category.UpdatedAt = now
	r.s.categories[category.ID] = copyCategory(category)
	return category, nil
}

func (r *CategoriesRepository) GetByID(ctx context.Context, id string) (*models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.categories[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return copyCategory(c), nil
}

func (r *CategoriesRepository) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, c := range r.s.categories {
		if c.Slug == slug {
			return copyCategory(c), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *CategoriesRepository) List(ctx context.Context) ([]*models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	result := make([]*models.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		result = append(result, copyCategory(c))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *CategoriesRepository) Update(ctx context.Context, category *models.Category) (*models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.categories[category.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if r.taken(category.Name, category.Slug, category.ID) {
		return nil, common.ErrConflict
	}

	existing.Name = category.Name
	existing.Slug = category.Slug
	existing.UpdatedAt = r.s.now()
	return copyCategory(existing), nil
}

// Delete removes the category and nulls the reference on its certificates,
// mirroring ON DELETE SET NULL.
func (r *CategoriesRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.categories[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.categories, id)

	for _, cert := range r.s.certificates {
		if cert.CategoryID != nil && *cert.CategoryID == id {
			cert.CategoryID = nil
		}
	}
	return nil
}
