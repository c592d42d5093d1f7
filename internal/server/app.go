// Package server wires configuration, storage, collaborators and the HTTP
// API into a runnable application and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chelseaoktaviany/sertifica-app-backend/internal/logging"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/access"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/auth"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/config"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/filestore"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/httpapi"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/metrics"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/notify"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/ratelimit"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/repositories/repomanager"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout = 10 * time.Second

	rateLimitKeyPrefix = "sertifica:ratelimit"
)

// metricsRegistry is a seam so tests can use a private registry.
var metricsRegistry = func() (prometheus.Registerer, prometheus.Gatherer) {
	return prometheus.DefaultRegisterer, prometheus.DefaultGatherer
}

// openDB is a seam for tests; production opens pgx through database/sql.
var openDB = func(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	redis    *redis.Client
	accounts *services.AccountService
	handler  http.Handler
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	app := &App{config: c, logger: logger}

	rm, err := app.initStorage(ctx)
	if err != nil {
		return nil, err
	}

	files, err := newFileStore(c)
	if err != nil {
		app.Close()
		return nil, err
	}

	notifier, err := newNotifier(c, logger)
	if err != nil {
		app.Close()
		return nil, err
	}

	limiter, err := app.initLimiter(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	reg, gatherer := metricsRegistry()
	m := metrics.New(reg)

	issuer := auth.NewSessionIssuer([]byte(c.SecretKey), c.SessionTokenValidityDuration)

	otp := services.NewOTPService(app.db, rm, c, notifier, issuer, logger).WithRecorder(m)
	app.accounts = services.NewAccountService(app.db, rm, otp, logger)

	api := httpapi.New(httpapi.Deps{
		Config:   c,
		Logger:   logger,
		Accounts: app.accounts,
		OTP:      otp,
		Catalog:  services.NewCatalogService(app.db, rm, logger),
		Ledger:   services.NewLedgerService(app.db, rm, c, files, logger).WithRecorder(m),
		Guard:    access.NewGuard(issuer, app.accounts),
		Files:    files,
		Limiter:  limiter,
		Metrics:  m,
		Gatherer: gatherer,
	})
	app.handler = api.Routes()

	return app, nil
}

func (app *App) initStorage(ctx context.Context) (repomanager.RepositoryManager, error) {
	switch app.config.StorageBackend {
	case "memory":
		app.logger.Warn(ctx, "using in-memory storage, data is lost on restart")
		return repomanager.NewInMemoryRepositoryManager(), nil
	case "postgres":
		db, err := openDB(ctx, app.config.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		app.db = db

		rm := repomanager.NewPostgresRepositoryManager()
		if err := rm.RunMigrations(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("db migrations error: %w", err)
		}
		return rm, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", app.config.StorageBackend)
}

func (app *App) initLimiter(ctx context.Context) (ratelimit.Limiter, error) {
	c := app.config
	if c.RedisURL == "" {
		return ratelimit.NewMemoryLimiter(c.OTPRateLimit, c.OTPRateWindow), nil
	}

	client, err := ratelimit.NewRedisClient(ctx, c.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis init error: %w", err)
	}
	app.redis = client
	return ratelimit.NewRedisLimiter(client, rateLimitKeyPrefix, c.OTPRateLimit, c.OTPRateWindow), nil
}

func newFileStore(c *config.Config) (filestore.FileStore, error) {
	switch c.FileStoreBackend {
	case "local":
		if err := os.MkdirAll(c.LocalStoreDir, 0o755); err != nil {
			return nil, fmt.Errorf("file store init error: %w", err)
		}
		return filestore.NewLocalStore(c.LocalStoreDir, httpapi.FilesPath), nil
	case "s3":
		return filestore.NewS3Store(filestore.S3Config{
			Region:       c.S3Region,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			Bucket:       c.S3Bucket,
			BaseEndpoint: c.S3BaseEndpoint,
		}), nil
	}
	return nil, fmt.Errorf("unknown file store backend %q", c.FileStoreBackend)
}

func newNotifier(c *config.Config, logger logging.Logger) (services.Notifier, error) {
	switch c.Notifier {
	case "log":
		return notify.NewLogGateway(logger), nil
	case "smtp":
		return notify.NewSMTPGateway(notify.SMTPConfig{
			Host:        c.SMTPHost,
			Port:        c.SMTPPort,
			User:        c.SMTPUser,
			Password:    c.SMTPPassword,
			From:        c.SMTPFrom,
			ImplicitTLS: c.SMTPImplicitTLS,
			TTL:         c.OTPTTL,
		}), nil
	}
	return nil, fmt.Errorf("unknown notifier %q", c.Notifier)
}

// Handler is the root HTTP handler.
func (app *App) Handler() http.Handler { return app.handler }

// Close releases the database pool and the Redis client.
func (app *App) Close() {
	if app.db != nil {
		app.db.Close()
	}
	if app.redis != nil {
		app.redis.Close()
	}
}

// Run serves HTTP until ctx is cancelled or SIGINT/SIGTERM arrives, then
// drains in-flight requests.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	c := app.config
	if _, err := app.accounts.EnsureSuperAdmin(ctx, c.SuperAdminEmail, c.SuperAdminFirstName, c.SuperAdminLastName); err != nil {
		return fmt.Errorf("super admin bootstrap: %w", err)
	}

	srv := &http.Server{
		Addr:              c.HTTPAddr,
		Handler:           app.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.logger.Info(ctx, "http server listening", "addr", c.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		app.logger.Info(ctx, "shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
