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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	adapthttp "foodpoints/internal/adapter/http"
	"foodpoints/internal/adapter/memory"
	"foodpoints/internal/adapter/nutritionix"
	"foodpoints/internal/adapter/postgres"
	"foodpoints/internal/adapter/redis"
	"foodpoints/internal/app"
	"foodpoints/internal/config"
	"foodpoints/internal/domain"
	"foodpoints/internal/logger"
	"foodpoints/internal/metrics"
	"foodpoints/internal/worker"
)

// stores groups the repositories backing the services.
type stores struct {
	users    domain.UserRepository
	logs     domain.LogRepository
	tokens   domain.TokenRepository
	sessions domain.SessionStore
	close    []func() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Setup(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		for _, c := range st.close {
			_ = c()
		}
	}()

	digest, err := app.NewDigester(cfg.Auth.PasswordDigest)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewCollector(reg)

	provider := nutritionix.New(nutritionix.Config{
		BaseURL: cfg.Provider.BaseURL,
		AppID:   cfg.Provider.AppID,
		AppKey:  cfg.Provider.AppKey,
		Timeout: cfg.Provider.Timeout,
		Rate:    cfg.Provider.Rate,
		Burst:   cfg.Provider.Burst,
	}, nil)

	authSvc := app.NewAuthService(st.users, st.tokens, st.sessions, digest, cfg.Auth.SessionTTL).WithMetrics(recorder)
	accountsSvc := app.NewAccountsService(st.users, digest).WithTokens(st.tokens)
	workflow := app.NewWorkflow(provider, st.logs, cfg.Provider.Timeout).WithMetrics(recorder)
	chartsSvc := app.NewChartsService(st.logs)

	if cfg.Auth.AdminUsername != "" {
		err := authSvc.CreateInitialAdmin(ctx, cfg.Auth.AdminName, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrValidation):
			slog.Info("admin bootstrap skipped", slog.String("reason", err.Error()))
		default:
			return err
		}
	}

	srv := adapthttp.New(authSvc, accountsSvc, workflow, chartsSvc, cfg.Server.WebDir).
		WithRateLimit(cfg.RateLimitPerMinute).
		WithMetrics(metrics.Handler(reg)).
		WithSecureCookies(cfg.Auth.SecureCookies)

	if cfg.OIDC.Enabled() {
		oidcCfg, err := adapthttp.NewOIDCConfig(ctx, cfg.OIDC.Issuer, cfg.OIDC.ClientID, cfg.OIDC.ClientSecret, cfg.OIDC.RedirectURL)
		if err != nil {
			return err
		}
		srv.WithOIDC(oidcCfg)
		slog.Info("sso enabled", slog.String("issuer", cfg.OIDC.Issuer))
	}

	scheduler, err := worker.NewScheduler(cfg.CleanupSchedule, authSvc)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("listening", slog.String("addr", cfg.Server.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		slog.Info("shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return scheduler.Run(gctx)
	})
	return g.Wait()
}

func openStores(ctx context.Context, cfg config.Config) (*stores, error) {
	st := &stores{}

	if cfg.Database.URL == "" {
		slog.Warn("DATABASE_URL not set, using in-memory storage")
		db := memory.New()
		st.users, st.logs, st.tokens = db, db.NewLogRepo(), db.NewTokenRepo()
	} else {
		if cfg.Database.RunMigrations {
			if err := postgres.RunMigrations(cfg.Database.URL); err != nil {
				return nil, err
			}
		}
		db, err := postgres.Open(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		st.users, st.logs, st.tokens = db, postgres.NewLogRepo(db), postgres.NewTokenRepo(db)
		st.close = append(st.close, db.Close)
	}

	if cfg.Redis.Addr == "" {
		st.sessions = memory.NewSessionStore()
		return st, nil
	}
	client := goredis.NewUniversalClient(&goredis.UniversalOptions{
		Addrs:    []string{cfg.Redis.Addr},
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	sessions := redis.NewSessionStore(client, redis.DefaultPrefix)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sessions.Ping(pingCtx); err != nil {
		_ = client.Close()
		return nil, err
	}
	st.sessions = sessions
	st.close = append(st.close, client.Close)
	return st, nil
}
