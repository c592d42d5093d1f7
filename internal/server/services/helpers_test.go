package services

import (
	"context"
	"sync"
	"testing"

	"github.com/chelseaoktaviany/sertifica-app-backend/internal/logging"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/config"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/models"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

type fakeNotifier struct {
	mu    sync.Mutex
	codes map[string]string
	sent  int
	err   error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{codes: make(map[string]string)}
}

func (f *fakeNotifier) SendOTP(ctx context.Context, account *models.Account, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent++
	f.codes[account.EmailAddress] = code
	return nil
}

func (f *fakeNotifier) last(email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.codes[email]
}

type fakeMinter struct {
	err error
}

func (f *fakeMinter) Mint(account *models.Account) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "token-" + account.ID, nil
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{counts: make(map[string]int)}
}

func (r *countingRecorder) inc(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[key]++
}

func (r *countingRecorder) get(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[key]
}

func (r *countingRecorder) IncOTPIssued() { r.inc("otp_issued") }
func (r *countingRecorder) IncOTPVerification(result string) { r.inc("verify:" + result) }
func (r *countingRecorder) IncOTPDispatchFailure() { r.inc("dispatch_failure") }
func (r *countingRecorder) IncCertificatePublished() { r.inc("published") }
func (r *countingRecorder) IncCertificateIDRetry() { r.inc("id_retry") }
func (r *countingRecorder) IncCertificateClaim(result string) { r.inc("claim:" + result) }

type fakeLocator struct {
	err error
}

func (f *fakeLocator) URL(ctx context.Context, ref string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://files.example.com/" + ref, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	return cfg
}

type fixture struct {
	rm       *repomanager.InMemoryRepositoryManager
	notifier *fakeNotifier
	minter   *fakeMinter
	recorder *countingRecorder
	locator  *fakeLocator
	otp      *OTPService
	accounts *AccountService
	catalog  *CatalogService
	ledger   *LedgerService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := testConfig()
	logger := logging.Nop()

	f := &fixture{
		rm:       repomanager.NewInMemoryRepositoryManager(),
		notifier: newFakeNotifier(),
		minter:   &fakeMinter{},
		recorder: newCountingRecorder(),
		locator:  &fakeLocator{},
	}

	f.otp = NewOTPService(nil, f.rm, cfg, f.notifier, f.minter, logger).WithRecorder(f.recorder)
	f.accounts = NewAccountService(nil, f.rm, f.otp, logger)
	f.catalog = NewCatalogService(nil, f.rm, logger)
	f.ledger = NewLedgerService(nil, f.rm, cfg, f.locator, logger).WithRecorder(f.recorder)

	return f
}

func ownerRequest(email string) RegisterRequest {
	return RegisterRequest{
		EmailAddress: email,
		Phone:        "081234567890",
		Profile:      OwnerProfile{FirstName: "Ada", LastName: "Lovelace"},
	}
}

func publisherRequest(email string) RegisterRequest {
	return RegisterRequest{
		EmailAddress: email,
		Phone:        "+6281234567890",
		Profile: PublisherProfile{
			Name:        "Grace Brewster Hopper",
			CompanyName: "Acme Academy",
			Address:     "Jl. Merdeka 1",
			JobTitle:    "Director",
			PostalCode:  "10110",
		},
	}
}

// activeAccount registers and verifies an account, returning it active.
func (f *fixture) activeAccount(t *testing.T, req RegisterRequest) *models.Account {
	t.Helper()
	ctx := context.Background()

	_, err := f.accounts.Register(ctx, req)
	require.NoError(t, err)

	account, _, err := f.otp.Verify(ctx, req.EmailAddress, f.notifier.last(models.NormalizeEmail(req.EmailAddress)))
	require.NoError(t, err)
	require.True(t, account.Active)
	return account
}
