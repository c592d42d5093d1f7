package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/chelseaoktaviany/sertifica-app-backend/internal/common"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/cryptox"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/logging"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/config"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/metrics"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/models"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/repositories/repomanager"
)

// Notifier delivers a one-time code to the account holder.
type Notifier interface {
	SendOTP(ctx context.Context, account *models.Account, code string) error
}

// TokenMinter signs session tokens. *auth.SessionIssuer satisfies it.
type TokenMinter interface {
	Mint(account *models.Account) (string, error)
}

// OTPService runs the one-time-code challenge: issue, deliver, verify.
//
// Codes are never stored in clear. The account row keeps a keyed BLAKE2b-256
// digest of "<account id>:<code>", so verification can still be a single
// conditional UPDATE on the stored value.
type OTPService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	notifier    Notifier
	tokens      TokenMinter
	logger      logging.Logger
	recorder    Recorder
	key         []byte
	length      int
	ttl         time.Duration
	now         func() time.Time
	newCode     func(length int) (string, error)
}

// NewOTPService constructs an OTPService from the server config.
func NewOTPService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, notifier Notifier, tokens TokenMinter, logger logging.Logger) *OTPService {
	return &OTPService{
		db:          db,
		repomanager: m,
		notifier:    notifier,
		tokens:      tokens,
		logger:      logger.With("module", "otp"),
		recorder:    noopRecorder{},
		key:         cryptox.DeriveKey([]byte(cfg.SecretKey), "otp"),
		length:      cfg.OTPLength,
		ttl:         cfg.OTPTTL,
		now:         time.Now,
		newCode:     numericCode,
	}
}

func numericCode(length int) (string, error) {
	return common.RandomString(common.Digits, length)
}

// WithRecorder installs r as the counter sink and returns s.
func (s *OTPService) WithRecorder(r Recorder) *OTPService {
	s.recorder = r
	return s
}

func (s *OTPService) digest(accountID, code string) string {
	d, err := cryptox.KeyedDigest(s.key, accountID, code)
	if err != nil {
		// only possible with a key longer than 64 bytes
		panic(err)
	}
	return d
}

// Issue generates a fresh numeric code for account, replacing any
// outstanding one, and returns it in clear.
func (s *OTPService) Issue(ctx context.Context, account *models.Account) (string, error) {
	code, _, err := s.issue(ctx, account)
	return code, err
}

func (s *OTPService) issue(ctx context.Context, account *models.Account) (code, digest string, err error) {
	code, err = s.newCode(s.length)
	if err != nil {
		return "", "", fmt.Errorf("generating otp: %w", err)
	}

	digest = s.digest(account.ID, code)
	expiresAt := s.now().Add(s.ttl)

	repo := s.repomanager.Accounts(s.db)
	if err := repo.SetOTP(ctx, account.ID, digest, expiresAt); err != nil {
		return "", "", fmt.Errorf("storing otp: %w", err)
	}

	s.recorder.IncOTPIssued()
	return code, digest, nil
}

// IssueAndDispatch issues a code and hands it to the notifier. When delivery
// fails the code is withdrawn again, unless a newer one has replaced it in
// the meantime, and an error wrapping common.ErrOTPDispatch is returned.
func (s *OTPService) IssueAndDispatch(ctx context.Context, account *models.Account) error {
	code, digest, err := s.issue(ctx, account)
	if err != nil {
		return err
	}

	if err := s.notifier.SendOTP(ctx, account, code); err != nil {
		s.recorder.IncOTPDispatchFailure()

		repo := s.repomanager.Accounts(s.db)
		cleared, clearErr := repo.ClearOTP(ctx, account.ID, digest)
		if clearErr != nil {
			s.logger.Error(ctx, "otp clear after failed dispatch", "account", account.ID, "error", clearErr)
		}
		s.logger.Warn(ctx, "otp dispatch failed", "account", account.ID, "cleared", cleared, "error", err)

		return fmt.Errorf("%w: %v", common.ErrOTPDispatch, err)
	}

	return nil
}

// Resend issues a new code for an existing account, invalidating the
// previous one.
func (s *OTPService) Resend(ctx context.Context, email string) error {
	return s.challenge(ctx, email)
}

// SignIn starts a passwordless sign-in: a code is sent and the session token
// is handed out by Verify.
func (s *OTPService) SignIn(ctx context.Context, email string) error {
	return s.challenge(ctx, email)
}

func (s *OTPService) challenge(ctx context.Context, email string) error {
	account, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	return s.IssueAndDispatch(ctx, account)
}

func (s *OTPService) findByEmail(ctx context.Context, email string) (*models.Account, error) {
	repo := s.repomanager.Accounts(s.db)
	account, err := repo.GetByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error searching account: %w", err)
	}
	return account, nil
}

// Verify checks code against the outstanding challenge for email. On success
// the code is consumed, the account is activated and a session token is
// returned with the refreshed account.
func (s *OTPService) Verify(ctx context.Context, email, code string) (*models.Account, string, error) {
	account, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}

	if !account.HasPendingOTP() {
		s.recorder.IncOTPVerification(metrics.ResultInvalid)
		return nil, "", common.ErrInvalidOTP
	}

	digest := s.digest(account.ID, code)
	if !cryptox.Equal(digest, *account.OTPCode) {
		s.recorder.IncOTPVerification(metrics.ResultInvalid)
		return nil, "", common.ErrInvalidOTP
	}

	repo := s.repomanager.Accounts(s.db)
	now := s.now()

	if !now.Before(*account.OTPExpiresAt) {
		if _, err := repo.ClearOTP(ctx, account.ID, digest); err != nil {
			s.logger.Error(ctx, "otp clear on expiry", "account", account.ID, "error", err)
		}
		s.recorder.IncOTPVerification(metrics.ResultExpired)
		return nil, "", common.ErrExpiredOTP
	}

	verified, err := repo.ConsumeOTP(ctx, account.ID, digest, now)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// superseded by a concurrent issue or verify
			s.recorder.IncOTPVerification(metrics.ResultInvalid)
			return nil, "", common.ErrInvalidOTP
		}
		return nil, "", fmt.Errorf("error consuming otp: %w", err)
	}

	token, err := s.tokens.Mint(verified)
	if err != nil {
		s.logger.Error(ctx, "token mint failed", "account", verified.ID, "error", err)
		return nil, "", common.ErrorInternal
	}

	s.recorder.IncOTPVerification(metrics.ResultSuccess)
	s.logger.Info(ctx, "account verified", "account", verified.ID, "role", verified.Role)

	return verified, token, nil
}
