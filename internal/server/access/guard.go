// Package access resolves session tokens into request identities and checks
// them against per-operation role sets.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/chelseaoktaviany/sertifica-app-backend/internal/common"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/auth"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/models"
)

// TokenReader is the part of auth.SessionIssuer the guard needs.
type TokenReader interface {
	Read(token string) (*auth.Claims, error)
}

// AccountFinder loads the account a token refers to.
type AccountFinder interface {
	FindByID(ctx context.Context, id string) (*models.Account, error)
}

// Guard authenticates tokens and authorizes identities.
type Guard struct {
	tokens   TokenReader
	accounts AccountFinder
}

func NewGuard(tokens TokenReader, accounts AccountFinder) *Guard {
	return &Guard{tokens: tokens, accounts: accounts}
}

// Authenticate turns a raw token into an Identity. A missing, unreadable or
// expired token, or one whose account no longer exists, yields
// common.ErrUnauthenticated. Store failures are returned as they are.
func (g *Guard) Authenticate(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, common.ErrUnauthenticated
	}

	claims, err := g.tokens.Read(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUnauthenticated, err)
	}

	account, err := g.accounts.FindByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUnauthenticated
		}
		return nil, err
	}

	// the stored role wins over the one baked into the token
	return &Identity{AccountID: account.ID, Role: account.Role, Account: account}, nil
}

// Authorize succeeds when id holds one of the allowed roles.
func Authorize(id *Identity, allowed ...models.Role) error {
	if id == nil {
		return common.ErrUnauthenticated
	}
	for _, r := range allowed {
		if id.Role == r {
			return nil
		}
	}
	return common.ErrForbidden
}
