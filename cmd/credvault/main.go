package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dimitrije/credvault/internal/config"
	"github.com/dimitrije/credvault/internal/crypto"
	"github.com/dimitrije/credvault/internal/database"
	"github.com/dimitrije/credvault/internal/handlers"
	"github.com/dimitrije/credvault/internal/logging"
	authmw "github.com/dimitrije/credvault/internal/middleware"
	"github.com/dimitrije/credvault/internal/probe"
	"github.com/dimitrije/credvault/internal/providers"
	"github.com/dimitrije/credvault/internal/services"
	"github.com/dimitrije/credvault/internal/store"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	ctx := context.Background()

	st, closeStore := openStore(ctx, cfg, logger)
	defer closeStore()

	registry := providers.Default()
	engine := crypto.NewEngine(cfg.Vault.KDFIterations)
	prober := probe.Default(&http.Client{Timeout: cfg.ProbeTimeout})

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry)
	vaultService := services.NewVaultService(st, registry, engine, prober, logger)
	sessions := services.NewSessionStore(cfg.Vault.IdleTimeout)

	providerHandler := handlers.NewProviderHandler(registry)
	vaultHandler := handlers.NewVaultHandler(vaultService, sessions, logger)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", authmw.VaultSessionHeader},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())
	app.Use(authmw.RequestLogger(logger))

	api := app.Group("/api/v1")

	api.Get("/health", func(c *drift.Context) {
		_ = c.JSON(200, map[string]string{"status": "ok"})
	})

	protected := api.Group("")
	protected.Use(authmw.Auth(jwtService))

	protected.Get("/providers", providerHandler.List)
	protected.Get("/providers/:provider", providerHandler.Get)
	protected.Post("/providers/:provider/validate", providerHandler.Validate)

	protected.Post("/vault/unlock", vaultHandler.Unlock)
	protected.Post("/vault/lock", vaultHandler.Lock)

	unlocked := protected.Group("/vault")
	unlocked.Use(authmw.VaultSession(sessions))

	unlocked.Get("/credentials", vaultHandler.ListCredentials)
	unlocked.Post("/credentials", vaultHandler.CreateCredential)
	unlocked.Get("/credentials/:id", vaultHandler.GetCredential)
	unlocked.Patch("/credentials/:id", vaultHandler.UpdateCredential)
	unlocked.Delete("/credentials/:id", vaultHandler.DeleteCredential)
	unlocked.Post("/credentials/:id/test", vaultHandler.TestCredential)
	unlocked.Post("/credentials/:id/usage", vaultHandler.RecordUsage)
	unlocked.Get("/credentials/:id/usage", vaultHandler.ListCredentialUsage)
	unlocked.Get("/providers/:provider/credential", vaultHandler.GetCredentialByProvider)
	unlocked.Get("/usage", vaultHandler.ListUsage)
	unlocked.Get("/stats", vaultHandler.GetStats)
	unlocked.Post("/password", vaultHandler.ChangePassword)
	unlocked.Post("/backup/export", vaultHandler.ExportBackup)
	unlocked.Post("/backup/import", vaultHandler.ImportBackup)

	go func() {
		ticker := time.NewTicker(cfg.Vault.SweepInterval)
		defer ticker.Stop()
		for now := range ticker.C {
			if n := sessions.Sweep(now); n > 0 {
				logger.Info().Int("sessions", n).Msg("locked idle vault sessions")
			}
		}
	}()

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		logger.Info().Str("addr", addr).Str("store", cfg.StoreDriver).Msg("server starting")
		if err := app.Run(addr); err != nil {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	sessions.LockAll()
}

func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (store.CredentialStore, func()) {
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		logger.Warn().Msg("using in-memory store; credentials are lost on exit")
		return store.NewMemoryStore(), func() {}
	case config.StoreDriverPostgres:
		db, err := database.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			logger.Fatal().Err(err).Msg("failed to run migrations")
		}
		return store.NewPostgresStore(db), db.Close
	default:
		logger.Fatal().Str("driver", cfg.StoreDriver).Msg("unknown store driver")
		return nil, nil
	}
}
