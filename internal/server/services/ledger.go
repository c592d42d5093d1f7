package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/chelseaoktaviany/sertifica-app-backend/internal/common"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/dbx"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/logging"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/config"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/metrics"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/models"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/repositories/repomanager"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
)

// FileLocator turns a stored file reference into a downloadable URL.
type FileLocator interface {
	URL(ctx context.Context, ref string) (string, error)
}

// PublishRequest is the input to LedgerService.Publish. Category is either a
// category id or a slug.
type PublishRequest struct {
	FileName       string `json:"fileName"`
	Category       string `json:"category"`
	RecipientEmail string `json:"recipientEmail"`
	FileRef        string `json:"file"`
	PublisherID    string `json:"-"`
}

func (r PublishRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FileName, validation.Required),
		validation.Field(&r.Category, validation.Required),
		validation.Field(&r.RecipientEmail, validation.Required),
		validation.Field(&r.FileRef, validation.Required),
	)
}

// LedgerService issues, lists, claims and verifies certificates.
type LedgerService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	files       FileLocator
	logger      logging.Logger
	recorder    Recorder
	maxAttempts int
	newID       func() (string, error)
	now         func() time.Time
}

// NewLedgerService constructs a LedgerService. files may be nil, in which
// case public verification carries no file URL.
func NewLedgerService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, files FileLocator, logger logging.Logger) *LedgerService {
	attempts := cfg.MaxIDAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &LedgerService{
		db:          db,
		repomanager: m,
		files:       files,
		logger:      logger.With("module", "ledger"),
		recorder:    noopRecorder{},
		maxAttempts: attempts,
		newID:       NewCertificateID,
		now:         time.Now,
	}
}

// WithRecorder installs r as the counter sink and returns s.
func (s *LedgerService) WithRecorder(r Recorder) *LedgerService {
	s.recorder = r
	return s
}

// Publish issues a certificate to the owner registered under
// req.RecipientEmail. Category and recipient are resolved and the
// certificate inserted in one transaction.
func (s *LedgerService) Publish(ctx context.Context, req PublishRequest) (*models.Certificate, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	var cert *models.Certificate
	err := s.repomanager.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		category, err := s.resolveCategory(ctx, tx, req.Category)
		if err != nil {
			return err
		}

		recipient, err := s.resolveRecipient(ctx, tx, req.RecipientEmail)
		if err != nil {
			return err
		}

		cert, err = s.insert(ctx, tx, &models.Certificate{
			FileRef:        req.FileRef,
			FileName:       req.FileName,
			CategoryID:     &category.ID,
			CategoryName:   category.Name,
			CategorySlug:   category.Slug,
			RecipientID:    recipient.ID,
			RecipientName:  recipient.DisplayName,
			RecipientEmail: recipient.EmailAddress,
			PublisherID:    req.PublisherID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.recorder.IncCertificatePublished()
	s.logger.Info(ctx, "certificate published", "certificate", cert.CertificateID, "recipient", cert.RecipientID, "publisher", cert.PublisherID)
	return cert, nil
}

func (s *LedgerService) resolveCategory(ctx context.Context, tx dbx.DBTX, ref string) (*models.Category, error) {
	repo := s.repomanager.Categories(tx)

	if _, err := uuid.Parse(ref); err == nil {
		category, err := repo.GetByID(ctx, ref)
		if err == nil {
			return category, nil
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("error searching category: %w", err)
		}
	}

	category, err := repo.GetBySlug(ctx, ref)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("error searching category: %w", err)
	}
	return category, nil
}

func (s *LedgerService) resolveRecipient(ctx context.Context, tx dbx.DBTX, email string) (*models.Account, error) {
	repo := s.repomanager.Accounts(tx)
	account, err := repo.GetByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrRecipientNotFound
		}
		return nil, fmt.Errorf("error searching recipient: %w", err)
	}
	if account.Role != models.RoleCertificateOwner {
		return nil, common.ErrRecipientNotFound
	}
	return account, nil
}

// insert retries with a fresh certificate id while the generated one
// collides with an existing certificate.
func (s *LedgerService) insert(ctx context.Context, tx dbx.DBTX, cert *models.Certificate) (*models.Certificate, error) {
	repo := s.repomanager.Certificates(tx)

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		id, err := s.newID()
		if err != nil {
			return nil, fmt.Errorf("generating certificate id: %w", err)
		}
		cert.CertificateID = id

		created, err := repo.Create(ctx, cert)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, common.ErrConflict) {
			return nil, fmt.Errorf("error creating certificate: %w", err)
		}

		s.recorder.IncCertificateIDRetry()
		s.logger.Warn(ctx, "certificate id collision", "attempt", attempt)
	}

	s.logger.Error(ctx, "certificate id generation exhausted", "attempts", s.maxAttempts)
	return nil, common.ErrIDGenerationExhausted
}

// Get returns the certificate with internal id or common.ErrorNotFound.
func (s *LedgerService) Get(ctx context.Context, id string) (*models.Certificate, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}
	repo := s.repomanager.Certificates(s.db)
	return repo.GetByID(ctx, id)
}

// ListByCategorySlug returns the certificates issued under slug, newest
// first. Unknown slugs yield common.ErrCategoryNotFound.
func (s *LedgerService) ListByCategorySlug(ctx context.Context, slug string) ([]*models.Certificate, error) {
	if _, err := s.repomanager.Categories(s.db).GetBySlug(ctx, slug); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("error searching category: %w", err)
	}
	repo := s.repomanager.Certificates(s.db)
	return repo.ListByCategorySlug(ctx, slug)
}

// ListByRecipient returns the certificates issued to accountID, newest first.
func (s *LedgerService) ListByRecipient(ctx context.Context, accountID string) ([]*models.Certificate, error) {
	repo := s.repomanager.Certificates(s.db)
	return repo.ListByRecipient(ctx, accountID)
}

// Claim marks the certificate as claimed by its recipient. Exactly one of
// any number of concurrent claims succeeds; the others get
// common.ErrAlreadyClaimed.
func (s *LedgerService) Claim(ctx context.Context, certificateID, requesterID string) (*models.Certificate, error) {
	repo := s.repomanager.Certificates(s.db)

	cert, err := repo.GetByCertificateID(ctx, certificateID)
	if err != nil {
		return nil, err
	}

	if cert.RecipientID != requesterID {
		s.recorder.IncCertificateClaim(metrics.ResultDenied)
		return nil, common.ErrForbidden
	}

	claimed, err := repo.Claim(ctx, certificateID, s.now())
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			s.recorder.IncCertificateClaim(metrics.ResultClaimed)
			return nil, common.ErrAlreadyClaimed
		}
		return nil, fmt.Errorf("error claiming certificate: %w", err)
	}

	s.recorder.IncCertificateClaim(metrics.ResultSuccess)
	s.logger.Info(ctx, "certificate claimed", "certificate", certificateID, "account", requesterID)
	return claimed, nil
}

// VerifyPublic returns the anonymous projection of the certificate.
func (s *LedgerService) VerifyPublic(ctx context.Context, certificateID string) (*models.PublicCertificate, error) {
	repo := s.repomanager.Certificates(s.db)

	cert, err := repo.GetByCertificateID(ctx, certificateID)
	if err != nil {
		return nil, err
	}

	public := cert.Public()
	if s.files != nil {
		url, err := s.files.URL(ctx, cert.FileRef)
		if err != nil {
			s.logger.Warn(ctx, "file url unavailable", "certificate", certificateID, "error", err)
		} else {
			public.FileURL = url
		}
	}

	return &public, nil
}
