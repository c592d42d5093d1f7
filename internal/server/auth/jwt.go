// Package auth mints and reads session tokens (JWT, HS256).
package auth

import (
	"errors"
	"time"

	"github.com/chelseaoktaviany/sertifica-app-backend/internal/common"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carries the registered claims plus the account id and role.
// Subject mirrors AccountID; ID is a random jti.
type Claims struct {
	jwt.RegisteredClaims
	AccountID string      `json:"accountId"`
	Role      models.Role `json:"role"`
}

// SessionIssuer signs and verifies session tokens with one process-wide secret.
type SessionIssuer struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
}

// NewSessionIssuer returns an issuer that signs with secret and stamps
// tokens valid for validity.
func NewSessionIssuer(secret []byte, validity time.Duration) *SessionIssuer {
	return &SessionIssuer{secret: secret, validity: validity, now: time.Now}
}

// Validity is the lifetime given to minted tokens.
func (s *SessionIssuer) Validity() time.Duration { return s.validity }

// Mint returns a signed token for the account.
func (s *SessionIssuer) Mint(account *models.Account) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.validity)),
		},
		AccountID: account.ID,
		Role:      account.Role,
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Read verifies tokenString and returns its claims. Expired tokens yield
// common.ErrTokenExpired; every other failure yields common.ErrInvalidToken.
func (s *SessionIssuer) Read(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.AccountID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
