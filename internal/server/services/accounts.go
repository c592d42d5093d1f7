// Package services contains server-side business logic: account
// registration, the one-time-code challenge, the category catalog and the
// certificate ledger.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/chelseaoktaviany/sertifica-app-backend/internal/common"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/logging"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/models"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/repositories/repomanager"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{6,15}$`)

// Profile is the role-specific part of a registration. Each variant knows
// its role and which fields it requires.
type Profile interface {
	Role() models.Role
	Validate() error
	apply(account *models.Account)
}

// PublisherProfile registers a certificate publisher. Name is split into
// first and last name.
type PublisherProfile struct {
	Name        string `json:"name"`
	CompanyName string `json:"companyName"`
	Address     string `json:"address"`
	JobTitle    string `json:"jobTitle"`
	PostalCode  string `json:"postalCode"`
}

func (PublisherProfile) Role() models.Role { return models.RolePublisher }

func (p PublisherProfile) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required),
		validation.Field(&p.CompanyName, validation.Required),
		validation.Field(&p.Address, validation.Required),
		validation.Field(&p.JobTitle, validation.Required),
		validation.Field(&p.PostalCode, validation.Required),
	)
}

func (p PublisherProfile) apply(a *models.Account) {
	a.FirstName, a.LastName = models.SplitName(p.Name)
	a.Publisher = &models.PublisherDetails{
		CompanyName: p.CompanyName,
		Address:     p.Address,
		JobTitle:    p.JobTitle,
		PostalCode:  p.PostalCode,
	}
}

// OwnerProfile registers a certificate recipient.
type OwnerProfile struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (OwnerProfile) Role() models.Role { return models.RoleCertificateOwner }

func (p OwnerProfile) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.FirstName, validation.Required),
		validation.Field(&p.LastName, validation.Required),
	)
}

func (p OwnerProfile) apply(a *models.Account) {
	a.FirstName, a.LastName = p.FirstName, p.LastName
}

// AdminProfile registers an administrator. Only accepted by RegisterAdmin.
type AdminProfile struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (AdminProfile) Role() models.Role { return models.RoleAdmin }

func (p AdminProfile) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.FirstName, validation.Required),
		validation.Field(&p.LastName, validation.Required),
	)
}

func (p AdminProfile) apply(a *models.Account) {
	a.FirstName, a.LastName = p.FirstName, p.LastName
}

// RegisterRequest is the input to Register and RegisterAdmin.
type RegisterRequest struct {
	EmailAddress    string  `json:"emailAddress"`
	Phone           string  `json:"nomorHP"`
	ProfileImageRef string  `json:"profileImage"`
	Profile         Profile `json:"profile"`
}

// Validate checks the shared fields and then the profile variant.
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.EmailAddress, validation.Required, is.Email),
		validation.Field(&r.Phone, validation.Required, validation.Match(phonePattern)),
		validation.Field(&r.Profile, validation.Required),
	)
}

// Challenger starts the one-time-code challenge for a new account.
// *OTPService satisfies it.
type Challenger interface {
	IssueAndDispatch(ctx context.Context, account *models.Account) error
}

// AccountService registers and looks up accounts.
type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	challenger  Challenger
	logger      logging.Logger
}

// NewAccountService constructs an AccountService.
func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, challenger Challenger, logger logging.Logger) *AccountService {
	return &AccountService{
		db:          db,
		repomanager: m,
		challenger:  challenger,
		logger:      logger.With("module", "accounts"),
	}
}

// Register creates an inactive publisher or certificate owner and sends the
// first one-time code. If the account was stored but the code could not be
// delivered, the account is returned together with an error wrapping
// common.ErrOTPDispatch; the client recovers with a resend.
func (s *AccountService) Register(ctx context.Context, req RegisterRequest) (*models.Account, error) {
	if _, ok := req.Profile.(AdminProfile); ok {
		return nil, fmt.Errorf("%w: role: admin accounts cannot sign up", common.ErrValidation)
	}
	return s.register(ctx, req)
}

// RegisterAdmin creates an inactive administrator. Callers must already be
// authorized as super admin.
func (s *AccountService) RegisterAdmin(ctx context.Context, req RegisterRequest) (*models.Account, error) {
	if _, ok := req.Profile.(AdminProfile); !ok {
		return nil, fmt.Errorf("%w: role: admin profile required", common.ErrValidation)
	}
	return s.register(ctx, req)
}

func (s *AccountService) register(ctx context.Context, req RegisterRequest) (*models.Account, error) {
	req.EmailAddress = models.NormalizeEmail(req.EmailAddress)

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	account := &models.Account{
		Role:            req.Profile.Role(),
		EmailAddress:    req.EmailAddress,
		Phone:           req.Phone,
		ProfileImageRef: req.ProfileImageRef,
	}
	if account.ProfileImageRef == "" {
		account.ProfileImageRef = common.DefaultProfileImageRef
	}
	req.Profile.apply(account)
	account.DisplayName = models.DisplayName(account.FirstName, account.LastName)

	repo := s.repomanager.Accounts(s.db)
	account, err := repo.Create(ctx, account)
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, common.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("error creating account: %w", err)
	}

	s.logger.Info(ctx, "account registered", "account", account.ID, "role", account.Role)

	if err := s.challenger.IssueAndDispatch(ctx, account); err != nil {
		return account, err
	}

	return account, nil
}

// FindByEmail returns the account for email or common.ErrorNotFound.
func (s *AccountService) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
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

// FindByID returns the account with id or common.ErrorNotFound.
func (s *AccountService) FindByID(ctx context.Context, id string) (*models.Account, error) {
	repo := s.repomanager.Accounts(s.db)
	account, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error searching account: %w", err)
	}
	return account, nil
}

// Activate marks the account active. Activating an active account is a no-op.
func (s *AccountService) Activate(ctx context.Context, account *models.Account) error {
	if account.Active {
		return nil
	}
	repo := s.repomanager.Accounts(s.db)
	if err := repo.Activate(ctx, account.ID); err != nil {
		return err
	}
	account.Active = true
	return nil
}

// ListActive returns every active account, oldest first.
func (s *AccountService) ListActive(ctx context.Context) ([]*models.Account, error) {
	repo := s.repomanager.Accounts(s.db)
	return repo.ListActive(ctx)
}

// EnsureSuperAdmin creates an active super admin with email unless an
// account with that address exists already. An empty email disables the
// bootstrap.
func (s *AccountService) EnsureSuperAdmin(ctx context.Context, email, firstName, lastName string) (*models.Account, error) {
	email = models.NormalizeEmail(email)
	if email == "" {
		return nil, nil
	}

	existing, err := s.FindByEmail(ctx, email)
	if err == nil {
		if existing.Role != models.RoleSuperAdmin {
			s.logger.Warn(ctx, "bootstrap e-mail belongs to a non super admin account", "account", existing.ID, "role", existing.Role)
		}
		return existing, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	account := &models.Account{
		Role:            models.RoleSuperAdmin,
		EmailAddress:    email,
		FirstName:       firstName,
		LastName:        lastName,
		DisplayName:     models.DisplayName(firstName, lastName),
		Active:          true,
		ProfileImageRef: common.DefaultProfileImageRef,
	}

	repo := s.repomanager.Accounts(s.db)
	account, err = repo.Create(ctx, account)
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			// another instance seeded it first
			return s.FindByEmail(ctx, email)
		}
		return nil, fmt.Errorf("error creating super admin: %w", err)
	}

	s.logger.Info(ctx, "super admin created", "account", account.ID)
	return account, nil
}
