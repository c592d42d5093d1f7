// Package memory provides map-backed repositories for development mode and
// service tests. A single Store is shared by all three repositories so that
// cross-table effects (category deletion nulling certificate references)
// behave like the PostgreSQL schema.
package memory

import (
	"sync"
	"time"

	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/models"
)

// Store holds every table behind one mutex. Conditional updates are
// evaluated under the lock, which gives them the same all-or-nothing
// behaviour as a single SQL UPDATE.
type Store struct {
	mu           sync.Mutex
	now          func() time.Time
	accounts     map[string]*models.Account
	categories   map[string]*models.Category
	certificates map[string]*models.Certificate
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		now:          time.Now,
		accounts:     make(map[string]*models.Account),
		categories:   make(map[string]*models.Category),
		certificates: make(map[string]*models.Certificate),
	}
}

// Accounts returns the account repository over s.
func (s *Store) Accounts() *AccountsRepository { return &AccountsRepository{s: s} }

// Categories returns the category repository over s.
func (s *Store) Categories() *CategoriesRepository { return &CategoriesRepository{s: s} }

// Certificates returns the certificate repository over s.
func (s *Store) Certificates() *CertificatesRepository { return &CertificatesRepository{s: s} }

func copyAccount(a *models.Account) *models.Account {
	c := *a
	if a.OTPCode != nil {
		v := *a.OTPCode
		c.OTPCode = &v
	}
	if a.OTPExpiresAt != nil {
		v := *a.OTPExpiresAt
		c.OTPExpiresAt = &v
	}
	if a.Publisher != nil {
		v := *a.Publisher
		c.Publisher = &v
	}
	return &c
}

func copyCategory(c *models.Category) *models.Category {
	v := *c
	return &v
}

func copyCertificate(c *models.Certificate) *models.Certificate {
	v := *c
	if c.CategoryID != nil {
		id := *c.CategoryID
		v.CategoryID = &id
	}
	if c.ClaimedAt != nil {
		at := *c.ClaimedAt
		v.ClaimedAt = &at
	}
	return &v
}
