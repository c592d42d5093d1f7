package access

import (
	"context"

	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/models"
)

// Identity is the authenticated caller of one request.
type Identity struct {
	AccountID string
	Role      models.Role
	Account   *models.Account
}

type identityKey struct{}

// ContextKeyIdentity is exported for tests that build contexts by hand.
var ContextKeyIdentity = identityKey{}

// WithIdentity attaches id to ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ContextKeyIdentity, id)
}

// IdentityFrom returns the identity attached to ctx, or nil for anonymous
// requests.
func IdentityFrom(ctx context.Context) *Identity {
	if id, ok := ctx.Value(ContextKeyIdentity).(*Identity); ok {
		return id
	}
	return nil
}
