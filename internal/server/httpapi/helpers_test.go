package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chelseaoktaviany/sertifica-app-backend/internal/logging"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/access"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/auth"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/config"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/filestore"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/metrics"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/models"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/ratelimit"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/repositories/repomanager"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

type fakeNotifier struct {
	mu    sync.Mutex
	codes map[string]string
}

func (f *fakeNotifier) SendOTP(ctx context.Context, account *models.Account, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[account.EmailAddress] = code
	return nil
}

func (f *fakeNotifier) last(email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.codes[email]
}

type testServer struct {
	handler  http.Handler
	cfg      *config.Config
	notifier *fakeNotifier
	issuer   *auth.SessionIssuer
	accounts *services.AccountService
	otp      *services.OTPService
	metrics  *metrics.Metrics
	files    *filestore.LocalStore
}

func newTestServer(t *testing.T, opts ...func(*config.Config)) *testServer {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	for _, o := range opts {
		o(cfg)
	}

	logger := logging.Nop()
	rm := repomanager.NewInMemoryRepositoryManager()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	s := &testServer{
		cfg:      cfg,
		notifier: &fakeNotifier{codes: make(map[string]string)},
		issuer:   auth.NewSessionIssuer([]byte(cfg.SecretKey), time.Hour),
		metrics:  m,
		files:    filestore.NewLocalStore(t.TempDir(), FilesPath),
	}

	s.otp = services.NewOTPService(nil, rm, cfg, s.notifier, s.issuer, logger).WithRecorder(m)
	s.accounts = services.NewAccountService(nil, rm, s.otp, logger)

	api := New(Deps{
		Config:   cfg,
		Logger:   logger,
		Accounts: s.accounts,
		OTP:      s.otp,
		Catalog:  services.NewCatalogService(nil, rm, logger),
		Ledger:   services.NewLedgerService(nil, rm, cfg, s.files, logger).WithRecorder(m),
		Guard:    access.NewGuard(s.issuer, s.accounts),
		Files:    s.files,
		Limiter:  ratelimit.NewMemoryLimiter(cfg.OTPRateLimit, cfg.OTPRateWindow),
		Metrics:  m,
		Gatherer: reg,
	})
	s.handler = api.Routes()

	return s
}

// storedFiles counts the files currently held by the local store.
func (s *testServer) storedFiles(t *testing.T) int {
	t.Helper()
	n := 0
	err := filepath.WalkDir(s.files.Dir(), func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	require.NoError(t, err)
	return n
}

type response struct {
	Code    int
	Header  http.Header
	Cookies []*http.Cookie
	Body    []byte
	Env     struct {
		Status int             `json:"status"`
		Msg    string          `json:"msg"`
		Data   json.RawMessage `json:"data"`
		Token  string          `json:"token"`
	}
}

func (r *response) data(t *testing.T, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Env.Data, dst), string(r.Body))
}

type requestOption func(*http.Request)

func withToken(token string) requestOption {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withRemoteAddr(addr string) requestOption {
	return func(r *http.Request) { r.RemoteAddr = addr }
}

func withForwardedFor(ip string) requestOption {
	return func(r *http.Request) { r.Header.Set("X-Forwarded-For", ip) }
}

func (s *testServer) do(t *testing.T, req *http.Request, opts ...requestOption) *response {
	t.Helper()
	for _, o := range opts {
		o(req)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	res := rec.Result()
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	out := &response{Code: res.StatusCode, Header: res.Header, Cookies: res.Cookies(), Body: body}
	if strings.HasPrefix(res.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(body, &out.Env), string(body))
	}
	return out
}

func (s *testServer) json(t *testing.T, method, path string, body any, opts ...requestOption) *response {
	t.Helper()

	var rd io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	return s.do(t, req, opts...)
}

type upload struct {
	field       string
	filename    string
	contentType string
	content     []byte
}

func (s *testServer) multipart(t *testing.T, path string, fields map[string]string, file *upload, opts ...requestOption) *response {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.field, file.filename))
		h.Set("Content-Type", file.contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(file.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.do(t, req, opts...)
}

func ownerFields(email string) map[string]string {
	return map[string]string{
		"emailAddress": email,
		"role":         "CertificateOwner",
		"firstName":    "Ada",
		"lastName":     "Lovelace",
		"nomorHP":      "081234567890",
	}
}

func publisherFields(email string) map[string]string {
	return map[string]string{
		"emailAddress": email,
		"role":         "Publisher",
		"name":         "Grace Hopper",
		"companyName":  "Acme Academy",
		"address":      "Jl. Merdeka 1",
		"jobTitle":     "Director",
		"postalCode":   "10110",
		"nomorHP":      "+6281234567890",
	}
}

// session signs up through the API, verifies the code and returns the
// account id and token.
func (s *testServer) session(t *testing.T, fields map[string]string) (string, string) {
	t.Helper()

	res := s.multipart(t, BasePath+"/users/signUp", fields, nil)
	require.Equal(t, http.StatusCreated, res.Code, string(res.Body))

	email := models.NormalizeEmail(fields["emailAddress"])
	account, token, err := s.otp.Verify(context.Background(), email, s.notifier.last(email))
	require.NoError(t, err)
	return account.ID, token
}

func (s *testServer) superAdmin(t *testing.T) (*models.Account, string) {
	t.Helper()

	sa, err := s.accounts.EnsureSuperAdmin(context.Background(), "root@example.com", "Super", "Admin")
	require.NoError(t, err)
	token, err := s.issuer.Mint(sa)
	require.NoError(t, err)
	return sa, token
}
