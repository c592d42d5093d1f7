package repomanager

import (
	"context"
	"database/sql"

	"github.com/chelseaoktaviany/sertifica-app-backend/internal/dbx"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/repositories/accounts"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/repositories/categories"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/repositories/certificates"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/repositories/memory"
)

// InMemoryRepositoryManager serves every repository from one memory.Store
// and ignores the DBTX handles it is given. Transactions are not isolated:
// WithTx simply runs fn.
type InMemoryRepositoryManager struct {
	store *memory.Store
}

// NewInMemoryRepositoryManager returns a manager over a fresh, empty store.
func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{store: memory.NewStore()}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *InMemoryRepositoryManager) WithTx(ctx context.Context, _ *sql.DB, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	return fn(ctx, nil)
}

func (m *InMemoryRepositoryManager) Accounts(dbx.DBTX) accounts.Repository {
	return m.store.Accounts()
}

func (m *InMemoryRepositoryManager) Categories(dbx.DBTX) categories.Repository {
	return m.store.Categories()
}

func (m *InMemoryRepositoryManager) Certificates(dbx.DBTX) certificates.Repository {
	return m.store.Certificates()
}
