package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpapi "github.com/aussiebroadwan/gatekeep/internal/authz/http"
	"github.com/aussiebroadwan/gatekeep/internal/authz/service"
	"github.com/aussiebroadwan/gatekeep/internal/authz/store"
	"github.com/aussiebroadwan/gatekeep/internal/authz/store/drivers/sqlite"
	"github.com/aussiebroadwan/gatekeep/pkg/jwtx"
	"github.com/aussiebroadwan/gatekeep/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application wires the authorization service together: the verifier,
// the claim extractor, the refresh ledger and the HTTP surface.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db store.Store

	pipeline            *service.Pipeline
	ledger              *service.Ledger // nil when no signing secret is configured
	extractor           *service.Extractor
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "gatekeep",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("gatekeep starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains in-flight requests, stops the sweeper and closes the
// database.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down gatekeep...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("gatekeep stopped")
	return nil
}

func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initServices() error {
	verifier := jwtx.NewVerifier(jwtx.VerifierConfig{
		JWKSURI:    app.cfg.JWKSURI,
		Secret:     []byte(app.cfg.Secret),
		Issuers:    app.cfg.Issuers,
		Audiences:  app.cfg.Audiences,
		Algorithms: app.cfg.Algorithms,
	})

	extractor, err := service.NewExtractor(
		app.cfg.RolesClaim, app.cfg.ScopesClaim, app.cfg.ScopesDelimiter)
	if err != nil {
		return err
	}
	app.extractor = extractor

	app.pipeline = service.NewPipeline(verifier, extractor, service.NewAllowlistService(app.db))

	// Issuance needs signing material; with JWKS-only config the
	// service runs as a pure verifier and the lifecycle routes vanish.
	if app.cfg.Secret != "" {
		signer, err := jwtx.NewSignerHS256([]byte(app.cfg.Secret))
		if err != nil {
			return err
		}
		issuer := ""
		if len(app.cfg.Issuers) > 0 {
			issuer = app.cfg.Issuers[0]
		}
		app.ledger, err = service.NewLedger(
			app.db, signer, issuer, app.cfg.AccessTokenTTL, app.cfg.RefreshTokenTTL)
		if err != nil {
			return err
		}
	} else {
		app.logger.Warn("no JWT_SECRET set, refresh token endpoints disabled")
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db, app.logger, app.cfg.HousekeepingInterval)

	return nil
}

func (app *Application) initHTTP() {
	app.router = httpapi.NewRouter(
		app.pipeline, app.ledger, app.extractor, app.db, BuildVersion, app.logger)
	app.router.ApplyRoutes()

	app.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.cfg.Port),
		Handler: app.router,
	}
}
