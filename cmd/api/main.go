package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/metrocab/taxi-dispatch-api/internal/adapters/httpapi"
	memidentityrepo "github.com/metrocab/taxi-dispatch-api/internal/adapters/memory/identityrepo"
	memrevocationrepo "github.com/metrocab/taxi-dispatch-api/internal/adapters/memory/revocationrepo"
	memriderepo "github.com/metrocab/taxi-dispatch-api/internal/adapters/memory/riderepo"
	"github.com/metrocab/taxi-dispatch-api/internal/adapters/postgres"
	pgidentityrepo "github.com/metrocab/taxi-dispatch-api/internal/adapters/postgres/identityrepo"
	pgrevocationrepo "github.com/metrocab/taxi-dispatch-api/internal/adapters/postgres/revocationrepo"
	pgriderepo "github.com/metrocab/taxi-dispatch-api/internal/adapters/postgres/riderepo"
	"github.com/metrocab/taxi-dispatch-api/internal/app/accounts"
	"github.com/metrocab/taxi-dispatch-api/internal/app/rides"
	"github.com/metrocab/taxi-dispatch-api/internal/app/sessions"
	"github.com/metrocab/taxi-dispatch-api/internal/platform/auth/tokens"
	systemclock "github.com/metrocab/taxi-dispatch-api/internal/platform/clock"
	"github.com/metrocab/taxi-dispatch-api/internal/platform/config"
	identityrepoport "github.com/metrocab/taxi-dispatch-api/internal/ports/out/identityrepo"
	revocationrepoport "github.com/metrocab/taxi-dispatch-api/internal/ports/out/revocationrepo"
	riderepoport "github.com/metrocab/taxi-dispatch-api/internal/ports/out/riderepo"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// Optional .env for local development; the environment always wins.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("skipping .env", slog.Any("error", err))
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		identities identityrepoport.Repository
		rideStore  riderepoport.Repository
		revoked    revocationrepoport.Store
	)
	switch cfg.StorageBackend {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{ConnectTimeout: 10 * time.Second})
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			return err
		}
		identities = pgidentityrepo.NewRepo(pool)
		rideStore = pgriderepo.NewRepo(pool)
		revoked = pgrevocationrepo.NewStore(pool)
	default:
		identities = memidentityrepo.NewRepo()
		rideStore = memriderepo.NewRepo()
		revoked = memrevocationrepo.NewStore()
	}
	logger.Info("storage ready", slog.String("backend", cfg.StorageBackend))

	clk := systemclock.NewSystemClock()
	tokenManager := tokens.NewManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)

	sessionsSvc := sessions.NewService(identities, revoked, tokenManager, clk)
	ridesSvc := rides.NewService(rideStore, clk)
	accountsSvc := accounts.NewService(identities, rideStore, clk)

	if cfg.AdminEmail != "" {
		if err := accountsSvc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminSecret); err != nil {
			return err
		}
		logger.Info("admin account ensured", slog.String("email", cfg.AdminEmail))
	}

	router := httpapi.NewRouter(httpapi.RouterDeps{
		Sessions: sessionsSvc,
		Rides:    ridesSvc,
		Accounts: accountsSvc,
		Logger:   logger,
		Metrics:  httpapi.NewMetrics(),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
