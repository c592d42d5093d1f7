package accounts

import (
	"context"
	"time"

	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/models"
)

// Repository persists accounts and their one-time-code challenge.
//
// The OTP methods are conditional updates so that issue, verify and clear
// never race each other through a read-then-write.
type Repository interface {
	// Create inserts a new account. Returns common.ErrConflict when the
	// e-mail address is taken.
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	ListActive(ctx context.Context) ([]*models.Account, error)
	Activate(ctx context.Context, id string) error

	// SetOTP replaces any outstanding code for the account.
	SetOTP(ctx context.Context, id, code string, expiresAt time.Time) error
	// ConsumeOTP clears the code and activates the account only if code is
	// still the stored one and has not expired at now. Returns
	// common.ErrorNotFound when nothing matched.
	ConsumeOTP(ctx context.Context, id, code string, now time.Time) (*models.Account, error)
	// ClearOTP removes the code only if it is still the stored one and
	// reports whether it did.
	ClearOTP(ctx context.Context, id, code string) (bool, error)
}
