package memory

import (
	"context"
	"sort"
	"time"

	"github.com/chelseaoktaviany/sertifica-app-backend/internal/common"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/models"
	"github.com/google/uuid"
)

type AccountsRepository struct {
	s *Store
}

func (r *AccountsRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, a := range r.s.accounts {
		if a.EmailAddress == account.EmailAddress {
			return nil, common.ErrConflict
		}
	}

	now := r.s.now()
	account.ID = uuid.NewString()
	account.CreatedAt = now
	account.UpdatedAt = now
	r.s.accounts[account.ID] = copyAccount(account)
	return account, nil
}

func (r *AccountsRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.accounts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return copyAccount(a), nil
}

func (r *AccountsRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, a := range r.s.accounts {
		if a.EmailAddress == email {
			return copyAccount(a), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *AccountsRepository) ListActive(ctx context.Context) ([]*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	result := make([]*models.Account, 0)
	for _, a := range r.s.accounts {
		if a.Active {
			result = append(result, copyAccount(a))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (r *AccountsRepository) Activate(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.accounts[id]
	if !ok {
		return common.ErrorNotFound
	}
	a.Active = true
	a.UpdatedAt = r.s.now()
	return nil
}

func (r *AccountsRepository) SetOTP(ctx context.Context, id, code string, expiresAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.accounts[id]
	if !ok {
		return common.ErrorNotFound
	}
	a.OTPCode = &code
	a.OTPExpiresAt = &expiresAt
	a.UpdatedAt = r.s.now()
	return nil
}

func (r *AccountsRepository) ConsumeOTP(ctx context.Context, id, code string, now time.Time) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.accounts[id]
	if !ok || a.OTPCode == nil || *a.OTPCode != code || a.OTPExpiresAt == nil || !a.OTPExpiresAt.After(now) {
		return nil, common.ErrorNotFound
	}
	a.OTPCode = nil
	a.OTPExpiresAt = nil
	a.Active = true
	a.UpdatedAt = r.s.now()
	return copyAccount(a), nil
}

func (r *AccountsRepository) ClearOTP(ctx context.Context, id, code string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.accounts[id]
	if !ok || a.OTPCode == nil || *a.OTPCode != code {
		return false, nil
	}
	a.OTPCode = nil
	a.OTPExpiresAt = nil
	a.UpdatedAt = r.s.now()
	return true, nil
}
