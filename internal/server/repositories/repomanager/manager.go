package repomanager

import (
	"context"
	"database/sql"

	"github.com/chelseaoktaviany/sertifica-app-backend/internal/dbx"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/repositories/accounts"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/repositories/categories"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/repositories/certificates"
)

// RepositoryManager vends repositories bound to a database handle and runs
// units of work. Services depend on this interface only, so the storage
// backend is chosen once at startup.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	// WithTx runs fn inside a transaction on db. The DBTX passed to fn is
	// the handle to give to the repository factories.
	WithTx(ctx context.Context, db *sql.DB, fn func(ctx context.Context, tx dbx.DBTX) error) error
	Accounts(db dbx.DBTX) accounts.Repository
	Categories(db dbx.DBTX) categories.Repository
	Certificates(db dbx.DBTX) certificates.Repository
}
