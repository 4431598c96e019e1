// Command authgw runs the social login gateway.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/automl-platform/authgw/internal/auth"
	"github.com/automl-platform/authgw/internal/cache"
	memcache "github.com/automl-platform/authgw/internal/cache/memory"
	rediscache "github.com/automl-platform/authgw/internal/cache/redis"
	"github.com/automl-platform/authgw/internal/config"
	healthctrl "github.com/automl-platform/authgw/internal/http/controllers/health"
	sessionctrl "github.com/automl-platform/authgw/internal/http/controllers/session"
	socialctrl "github.com/automl-platform/authgw/internal/http/controllers/social"
	"github.com/automl-platform/authgw/internal/http/middlewares"
	"github.com/automl-platform/authgw/internal/http/router"
	socialsvc "github.com/automl-platform/authgw/internal/http/services/social"
	"github.com/automl-platform/authgw/internal/jwt"
	"github.com/automl-platform/authgw/internal/metrics"
	"github.com/automl-platform/authgw/internal/oauth"
	"github.com/automl-platform/authgw/internal/observability/logger"
	"github.com/automl-platform/authgw/internal/state"
	"github.com/automl-platform/authgw/internal/store/core"
	memstore "github.com/automl-platform/authgw/internal/store/memory"
	pgstore "github.com/automl-platform/authgw/internal/store/pg"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// Local development convenience; absent .env is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.L().Fatal("configuration load failed", logger.Err(err))
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       "info",
		ServiceName: "authgw",
		Version:     version,
	})
	defer func() { _ = logger.Sync() }()
	log := logger.Named("main")

	if err := cfg.Validate(); err != nil {
		log.Fatal("configuration invalid", logger.Err(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- State cache ---
	var stateCache cache.Cache
	switch cfg.Cache.Kind {
	case "redis":
		stateCache = rediscache.New(cfg.Cache.Redis.Addr, cfg.Cache.Redis.DB, cfg.Cache.Redis.Prefix)
		log.Info("state cache: redis", logger.String("addr", cfg.Cache.Redis.Addr))
	default:
		stateCache = memcache.New(cfg.CacheDefaultTTL())
		log.Info("state cache: in-process memory")
	}

	// --- User store ---
	var users core.UserRepository
	switch cfg.Storage.Driver {
	case "postgres":
		repo, err := pgstore.Connect(ctx, cfg.Storage.DSN)
		if err != nil {
			log.Fatal("postgres connect failed", logger.Err(err))
		}
		defer repo.Close()
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatal("schema migration failed", logger.Err(err))
		}
		users = repo
		log.Info("user store: postgres")
	default:
		users = memstore.New()
		log.Info("user store: in-process memory (data is not persisted)")
	}

	// --- Providers ---
	registry := oauth.NewRegistry(providerConfigs(cfg)...)
	for _, id := range registry.IDs() {
		log.Info("provider configured", logger.Provider(string(id)))
	}
	if len(registry.IDs()) == 0 {
		log.Warn("no providers configured, login endpoints will reject all requests")
	}

	// --- Core services ---
	issuer, err := jwt.NewIssuer(cfg.JWT.Secret, cfg.JWT.Algorithm, cfg.JWTTTL())
	if err != nil {
		log.Fatal("credential issuer init failed", logger.Err(err))
	}

	states := state.NewManager(stateCache, cfg.SessionMaxAge())
	client := oauth.NewClient(cfg.UpstreamTimeout())
	reconciler := auth.NewReconciler(users)

	metrics.Register(prometheus.DefaultRegisterer)

	startSvc := socialsvc.NewStartService(registry, states)
	callbackSvc := socialsvc.NewCallbackService(
		registry, states, client, reconciler, issuer, cfg.Server.FrontendBaseURL,
	)

	handler := router.New(router.Deps{
		Social:  socialctrl.NewController(startSvc, callbackSvc),
		Session: sessionctrl.NewController(users),
		Health:  healthctrl.NewController(registry, users),
		Issuer:  issuer,
		Cookies: middlewares.CookiePolicy{
			Name:     cfg.Session.CookieName,
			MaxAge:   cfg.SessionMaxAge(),
			SameSite: cfg.SameSite(),
			HTTPOnly: cfg.Session.HTTPOnly,
			Secure:   cfg.Session.Secure,
		},
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("listening", logger.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", logger.Err(err))
		os.Exit(1)
	}
	log.Info("bye")
}

// providerConfigs maps enabled configuration entries to registry configs.
func providerConfigs(cfg *config.Config) []oauth.Config {
	type pair struct {
		id oauth.ProviderID
		ps config.ProviderSettings
	}
	var out []oauth.Config
	for _, p := range []pair{
		{oauth.Google, cfg.Providers.Google},
		{oauth.Kakao, cfg.Providers.Kakao},
		{oauth.Naver, cfg.Providers.Naver},
	} {
		if !p.ps.Enabled {
			continue
		}
		out = append(out, oauth.Config{
			ID:              p.id,
			ClientID:        p.ps.ClientID,
			ClientSecret:    p.ps.ClientSecret,
			RedirectURI:     p.ps.RedirectURI,
			Scopes:          p.ps.Scopes,
			ExtraAuthParams: p.ps.ExtraAuthParams,
		})
	}
	return out
}
