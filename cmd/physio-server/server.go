package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/physiocare/dashboard/internal/config"
	"github.com/physiocare/dashboard/internal/domain/account"
	"github.com/physiocare/dashboard/internal/domain/caregiver"
	"github.com/physiocare/dashboard/internal/domain/doctor"
	"github.com/physiocare/dashboard/internal/domain/mission"
	"github.com/physiocare/dashboard/internal/domain/patient"
	"github.com/physiocare/dashboard/internal/domain/posture"
	"github.com/physiocare/dashboard/internal/domain/stats"
	"github.com/physiocare/dashboard/internal/platform/apperr"
	"github.com/physiocare/dashboard/internal/platform/auth"
	"github.com/physiocare/dashboard/internal/platform/db"
	"github.com/physiocare/dashboard/internal/platform/maintenance"
	"github.com/physiocare/dashboard/internal/platform/metrics"
	"github.com/physiocare/dashboard/internal/platform/middleware"
)

const (
	apiPrefix      = "/api/v1"
	requestTimeout = 30 * time.Second
	bodyLimit      = "2M"
)

// deps are the shared infrastructure handed to every domain package.
type deps struct {
	cfg     *config.Config
	logger  zerolog.Logger
	pool    *pgxpool.Pool
	issuer  *auth.TokenIssuer
	revoked auth.RevocationStore
	limiter *middleware.IPRateLimiter
	checks  []db.Check
}

func runServer(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	revoked, checks, closeRevoked, err := newRevocationStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRevoked()

	d := &deps{
		cfg:     cfg,
		logger:  logger,
		pool:    pool,
		issuer:  auth.NewTokenIssuer(cfg.SigningKey(), cfg.JWTTTL),
		revoked: revoked,
		limiter: middleware.NewIPRateLimiter(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimitRPS,
			Burst:             cfg.RateLimitBurst,
		}),
		checks: checks,
	}
	e := newRouter(d)

	runner := newMaintenance(cfg, pool, d.limiter, logger)
	maintCtx, stopMaint := context.WithCancel(ctx)
	maintDone := make(chan struct{})
	go func() {
		defer close(maintDone)
		if err := runner.Run(maintCtx); err != nil {
			logger.Error().Err(err).Msg("maintenance stopped")
		}
	}()

	serveErr := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		stopMaint()
		<-maintDone
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	stopMaint()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	<-maintDone
	logger.Info().Msg("server stopped")
	return nil
}

// newRevocationStore uses Redis when REDIS_URL is set so logouts are shared
// by every instance; otherwise revocations live in process memory.
func newRevocationStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (auth.RevocationStore, []db.Check, func(), error) {
	if cfg.RedisURL == "" {
		logger.Warn().Msg("REDIS_URL not set, token revocations are kept in memory")
		return auth.NewMemoryRevocationStore(), nil, func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	store := auth.NewRedisRevocationStore(client)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		_ = client.Close()
		return nil, nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info().Msg("connected to redis")

	checks := []db.Check{{Name: "redis", Ping: store.Ping}}
	return store, checks, func() { _ = client.Close() }, nil
}

func newMaintenance(cfg *config.Config, pool *pgxpool.Pool, limiter *middleware.IPRateLimiter, logger zerolog.Logger) *maintenance.Runner {
	// Patients go before caregivers: purging a patient drops its links and
	// can leave caregivers orphaned.
	targets := []maintenance.Target{
		{Entity: "patient", Purger: patient.NewRepo(pool)},
		{Entity: "mission", Purger: mission.NewRepo(pool)},
		{Entity: "doctor", Purger: doctor.NewRepo(pool)},
		{Entity: "posture", Purger: posture.NewRepo(pool)},
		{Entity: "caregiver", Purger: caregiver.NewRepo(pool)},
	}
	opts := maintenance.Options{
		PurgeAfter:        cfg.PurgeAfter,
		PurgeInterval:     cfg.PurgeInterval,
		HeartbeatInterval: cfg.HeartbeatInterval,
		PoolStats: func() (int32, int32, int32) {
			s := pool.Stat()
			return s.TotalConns(), s.IdleConns(), s.AcquiredConns()
		},
	}
	if limiter != nil {
		opts.Sweep = limiter.Sweep
	}
	return maintenance.NewRunner(db.NewTxRunner(pool), targets, opts, logger)
}

func newRouter(d *deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(d.logger)
	e.Server.ReadHeaderTimeout = 10 * time.Second
	e.Server.IdleTimeout = 2 * time.Minute

	e.Use(middleware.Recovery(d.logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(d.logger))
	e.Use(middleware.Metrics())
	e.Use(middleware.SecurityHeaders(d.cfg.IsProduction()))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     d.cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}))
	e.Use(middleware.BodyLimit(bodyLimit))
	e.Use(middleware.RequestTimeout(requestTimeout, apiPrefix+"/allusers/export"))
	if d.limiter != nil {
		e.Use(d.limiter.Middleware())
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if d.pool != nil {
		e.GET("/health/db", db.HealthHandler(d.pool, d.checks...))
	}
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	tx := db.NewTxRunner(d.pool)
	public := e.Group(apiPrefix)
	api := e.Group(apiPrefix, auth.Middleware(d.issuer, d.revoked))

	account.NewHandler(
		account.NewService(account.NewRepo(d.pool), tx, d.issuer, d.revoked, d.logger),
		!d.cfg.IsDev(),
	).RegisterRoutes(public, api)

	patient.NewHandler(patient.NewService(patient.NewRepo(d.pool), tx, d.logger)).RegisterRoutes(api)
	caregiver.NewHandler(caregiver.NewService(caregiver.NewRepo(d.pool), tx, d.logger)).RegisterRoutes(api)
	mission.NewHandler(mission.NewService(mission.NewRepo(d.pool), tx, d.logger)).RegisterRoutes(api)
	doctor.NewHandler(doctor.NewService(doctor.NewRepo(d.pool), tx)).RegisterRoutes(api)
	posture.NewHandler(posture.NewService(posture.NewRepo(d.pool), tx)).RegisterRoutes(api)
	stats.NewHandler(stats.NewService(stats.NewRepo(d.pool))).RegisterRoutes(api)

	return e
}
