package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/consentd/internal/cache"
	"github.com/dropDatabas3/consentd/internal/config"
	"github.com/dropDatabas3/consentd/internal/http/controllers"
	"github.com/dropDatabas3/consentd/internal/http/router"
	"github.com/dropDatabas3/consentd/internal/metrics"
	"github.com/dropDatabas3/consentd/internal/observability/logger"
	"github.com/dropDatabas3/consentd/internal/profile"
	"github.com/dropDatabas3/consentd/internal/security/opaque"
	"github.com/dropDatabas3/consentd/internal/security/token"
	authsvc "github.com/dropDatabas3/consentd/internal/service/authorisation"
	consentsvc "github.com/dropDatabas3/consentd/internal/service/consent"
	"github.com/dropDatabas3/consentd/internal/service/expiration"
	"github.com/dropDatabas3/consentd/internal/service/lifecycle"
	usagesvc "github.com/dropDatabas3/consentd/internal/service/usage"
	"github.com/dropDatabas3/consentd/internal/store"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta la API y el listener de métricas",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(*configPath)
		},
	}
}

func runServe(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "consentd",
	})
	defer func() { _ = logger.Sync() }()
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	cc := cache.New(cache.Config{
		Kind:       cfg.Cache.Kind,
		Addr:       cfg.Cache.Redis.Addr,
		DB:         cfg.Cache.Redis.DB,
		Prefix:     cfg.Cache.Redis.Prefix,
		DefaultTTL: cfg.MemoryCacheTTL(),
	})
	defer func() { _ = cc.Close() }()

	codec, err := opaque.NewFromEnv()
	if err != nil {
		return err
	}

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return err
	}

	prof := profile.FromConfig(cfg)
	watchdog := expiration.New(prof)

	consents := consentsvc.New(st, prof, watchdog)
	authorisations := authsvc.New(st, prof, watchdog)
	usages := usagesvc.New(st, prof)
	lc := lifecycle.New(st, codec, cc, prof, consents, authorisations, usages, watchdog)

	handler := router.New(router.Deps{
		Consents:        controllers.NewConsentController(lc),
		Authorisations:  controllers.NewAuthorisationController(lc),
		Payments:        controllers.NewPaymentController(lc),
		Health:          controllers.NewHealthController(cc),
		TokenVerifier:   token.NewVerifier(cfg.Auth.TokenSecret),
		AuthDisabled:    cfg.Auth.Disabled,
		DefaultInstance: cfg.Profile.DefaultInstance,
	})

	apiSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{
		Addr:              cfg.Server.MetricsAddr,
		Handler:           metricsMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("api listening", logger.String("addr", cfg.Server.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("metrics listening", logger.String("addr", cfg.Server.MetricsAddr))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
		return apiSrv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	log.Info("shutdown complete")
	return err
}
