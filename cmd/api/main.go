package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	catalogrepo "github.com/greenplate/nutricoach/internal/catalog/repo"
	clientrepo "github.com/greenplate/nutricoach/internal/client/repo"
	consultationrepo "github.com/greenplate/nutricoach/internal/consultation/repo"
	"github.com/greenplate/nutricoach/internal/identity"
	mealplanrepo "github.com/greenplate/nutricoach/internal/mealplan/repo"
	measurementrepo "github.com/greenplate/nutricoach/internal/measurement/repo"
	"github.com/greenplate/nutricoach/internal/provider"
	"github.com/greenplate/nutricoach/internal/router"
	"github.com/greenplate/nutricoach/internal/user"
	userrepo "github.com/greenplate/nutricoach/internal/user/repo"
	"github.com/greenplate/nutricoach/pkg/database"
	"github.com/greenplate/nutricoach/pkg/utilities"
)

func main() {
	// load .env file if present so os.Getenv picks values from it
	// this is best-effort: if no .env exists, continue (use defaults or real env)
	_ = godotenv.Load()

	// init logger
	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Info("starting nutricoach api")

	// init db
	cfg := database.ConfigFromEnv()
	sqlDB, err := database.Connect(cfg)
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer sqlDB.Close()

	// wrap with sqlx for convenience in repos/services
	sqlxDB := sqlx.NewDb(sqlDB, "postgres")
	defer sqlxDB.Close()

	if err := ensureTables(sqlxDB); err != nil {
		sugar.Fatalf("ensure tables: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// external identity provider is optional; without it only password login
	// and self-issued tokens work
	var sessions identity.SessionVerifier = identity.NoSession{}
	var profiles identity.ProfileAPI = unavailableProfiles{}
	if pcfg := provider.ConfigFromEnv(); pcfg.Enabled() {
		oidcProvider, err := provider.New(ctx, pcfg, sugar)
		if err != nil {
			sugar.Fatalf("init auth provider: %v", err)
		}
		sessions = oidcProvider
		profiles = oidcProvider
	} else {
		sugar.Warn("no external auth provider configured; provider sessions disabled")
	}

	tokens := identity.NewTokenCodec(identity.TokenConfigFromEnv())
	directory := user.NewDirectory(userrepo.NewUserRepo(sqlxDB))
	resolver := identity.NewResolver(directory, profiles, tokens, sugar)

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = "0.0.0.0:8431"
	}

	handler := router.RegisterRoutes(router.Deps{
		Logger:   sugar,
		DB:       sqlxDB,
		Resolver: resolver,
		Sessions: sessions,
		Tokens:   tokens,
	})
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// run server in background
	go func() {
		sugar.Infow("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()

	<-ctx.Done()

	sugar.Info("shutting down")

	// give a short grace period for cleanup
	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}
	if err := sqlDB.PingContext(doneCtx); err != nil {
		sugar.Warnf("db ping on shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}

// ensureTables creates all tables idempotently; prefer migrations in production.
func ensureTables(db *sqlx.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := userrepo.NewUserRepo(db).EnsureTable(ctx); err != nil {
		return err
	}
	if err := clientrepo.NewLinkRepo(db).EnsureTable(ctx); err != nil {
		return err
	}
	if err := measurementrepo.NewMeasurementRepo(db).EnsureTable(ctx); err != nil {
		return err
	}
	if err := consultationrepo.NewConsultationRepo(db).EnsureTable(ctx); err != nil {
		return err
	}
	if err := mealplanrepo.NewPlanRepo(db).EnsureTable(ctx); err != nil {
		return err
	}
	return catalogrepo.NewCatalogRepo(db).EnsureTables(ctx)
}

// unavailableProfiles stands in when no provider is configured; the resolver
// degrades the affected request to anonymous.
type unavailableProfiles struct{}

func (unavailableProfiles) FetchProfile(context.Context, string) (*identity.Profile, error) {
	return nil, fmt.Errorf("no auth provider configured")
}
