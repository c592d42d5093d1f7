// Package httpapi is the JSON-over-HTTP presentation of the certificate
// service. Routes live under /v1/ser; health and metrics sit at the root.
package httpapi

import (
	"net/http"
	"strings"

	"github.com/chelseaoktaviany/sertifica-app-backend/internal/common"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/logging"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/access"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/config"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/filestore"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/metrics"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/ratelimit"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	BasePath = "/v1/ser"

	// FilesPath serves a LocalStore directory.
	FilesPath = "/files"

	sessionCookie = common.SessionCookieName
)

// Deps are the collaborators the handlers call into. Limiter may be nil to
// disable rate limiting; Gatherer defaults to the global registry.
type Deps struct {
	Config   *config.Config
	Logger   logging.Logger
	Accounts *services.AccountService
	OTP      *services.OTPService
	Catalog  *services.CatalogService
	Ledger   *services.LedgerService
	Guard    *access.Guard
	Files    filestore.FileStore
	Limiter  ratelimit.Limiter
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

type API struct {
	cfg      *config.Config
	logger   logging.Logger
	accounts *services.AccountService
	otp      *services.OTPService
	catalog  *services.CatalogService
	ledger   *services.LedgerService
	guard    *access.Guard
	files    filestore.FileStore
	limiter  ratelimit.Limiter
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
}

func New(d Deps) *API {
	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &API{
		cfg:      d.Config,
		logger:   d.Logger.With("module", "httpapi"),
		accounts: d.Accounts,
		otp:      d.OTP,
		catalog:  d.Catalog,
		ledger:   d.Ledger,
		guard:    d.Guard,
		files:    d.Files,
		limiter:  d.Limiter,
		metrics:  d.Metrics,
		gatherer: gatherer,
	}
}

func (a *API) corsOptions() cors.Options {
	var origins []string
	for _, o := range strings.Split(a.cfg.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	wildcard := len(origins) == 0 || (len(origins) == 1 && origins[0] == "*")
	if wildcard {
		origins = []string{"*"}
	}

	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: !wildcard,
		MaxAge:           300,
	}
}

// Routes builds the complete handler tree.
func (a *API) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if a.cfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(a.observe)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(cors.Handler(a.corsOptions()))

	r.Get("/healthz", a.health)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{}))

	if local, ok := a.files.(*filestore.LocalStore); ok {
		r.Handle(FilesPath+"/*", http.StripPrefix(FilesPath, http.FileServer(http.Dir(local.Dir()))))
	}

	r.Route(BasePath, func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/signUp", a.signUp)
			r.Post("/signIn", a.signIn)
			r.With(a.rateLimit("resendOTP", resendLimitMsg)).Post("/resendOTP", a.resendOTP)
			r.With(a.rateLimit("verified", verifyLimitMsg)).Post("/verified", a.verifyOTP)
			r.Post("/signOut", a.signOut)

			r.Group(func(r chi.Router) {
				r.Use(a.authenticate)
				r.With(a.requireRoles(access.AllRoles...)).Get("/me", a.me)
				r.With(a.requireRoles(access.AdminRoles...)).Get("/", a.listAccounts)
				r.With(a.requireRoles(access.SuperAdminRoles...)).Post("/admins", a.registerAdmin)
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Use(a.authenticate)
			r.Use(a.requireRoles(access.IssuerRoles...))
			r.Get("/", a.listCategories)
			r.Post("/", a.createCategory)
			r.Patch("/{id}", a.updateCategory)
			r.Delete("/{id}", a.deleteCategory)
		})

		r.Route("/certificates", func(r chi.Router) {
			r.Use(a.authenticate)
			r.With(a.requireRoles(access.OwnerRoles...)).Get("/mine", a.myCertificates)
			r.With(a.requireRoles(access.OwnerRoles...)).Post("/{id}/claim", a.claimCertificate)

			r.Group(func(r chi.Router) {
				r.Use(a.requireRoles(access.IssuerRoles...))
				r.Post("/", a.publishCertificate)
				r.Get("/", a.listCertificates)
				r.Get("/{id}", a.getCertificate)
			})
		})

		r.With(a.identify).Get("/verify/{certificateId}", a.verifyCertificate)
	})

	return r
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, "Sertifica API is working properly", nil)
}
