package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"teamhub.app/internal/auth"
	"teamhub.app/internal/authz"
	"teamhub.app/internal/config"
	"teamhub.app/internal/httpapi"
	"teamhub.app/internal/obs"
	"teamhub.app/internal/secrets"
	"teamhub.app/internal/store/memory"
	"teamhub.app/internal/store/pg"
	"teamhub.app/internal/tenancy"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

// backend is what both store implementations provide.
type backend interface {
	authz.AssignmentStore
	tenancy.Store
	secrets.CredentialStore
}

func main() {
	obs.Init()
	build := obs.InitBuildInfo(version, commit)

	cfg, err := config.Load(".", "/etc/teamhub")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Fatal(err)
	}

	// A bad key must stop startup, not surface on the first credential read.
	cipher, err := secrets.NewCipher(cfg.Encryption.Key)
	if err != nil {
		log.Fatalf("encryption key: %v", err)
	}
	tokens, err := auth.NewTokens(cfg.Auth.Secret, cfg.Auth.Issuer)
	if err != nil {
		log.Fatalf("auth: %v", err)
	}

	var (
		store backend
		ready httpapi.ReadyProbe
		pgs   *pg.Store
	)
	if cfg.PG.DSN != "" {
		pgs, err = pg.Open(cfg.PG.DSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		store, ready = pgs, pgs
	} else {
		obs.Warn("no database configured, using in-memory store", nil)
		store = memory.New()
	}

	resolver, err := authz.NewResolver(store,
		authz.WithTeamDirectory(store),
		authz.WithTimeout(cfg.Authz.Timeout),
		authz.WithObserver(func(d authz.Decision) { obs.ObserveDecision(d.Permitted, d.Reason) }),
	)
	if err != nil {
		log.Fatalf("resolver: %v", err)
	}
	grants, err := authz.NewGrants(store)
	if err != nil {
		log.Fatalf("grants: %v", err)
	}
	orgs, err := tenancy.NewService(store, grants)
	if err != nil {
		log.Fatalf("tenancy: %v", err)
	}
	vault, err := secrets.NewVault(cipher, store, secrets.WithOperationObserver(obs.ObserveCredentialOp))
	if err != nil {
		log.Fatalf("vault: %v", err)
	}

	api, err := httpapi.New(httpapi.Deps{
		Tokens:   tokens,
		Resolver: resolver,
		Grants:   grants,
		Tenancy:  orgs,
		Vault:    vault,
		Ready:    ready,
	}, httpapi.Options{
		Version:        version,
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,
		RateLimitRPS:   cfg.HTTP.RateLimitRPS,
		RateLimitBurst: cfg.HTTP.RateLimitBurst,
	})
	if err != nil {
		log.Fatalf("http api: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	obs.Info("starting teamhub-api", map[string]any{"version": build.Version, "commit": build.Commit, "go_version": build.GoVersion, "addr": srv.Addr})
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	obs.Info("shutting down", nil)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		obs.Error("shutdown", err, nil)
	}
	if pgs != nil {
		_ = pgs.Close()
	}
	obs.Info("stopped", nil)
}
