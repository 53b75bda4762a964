package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/postosaude/clinic/internal/config"
	"github.com/postosaude/clinic/internal/domain/identity"
	"github.com/postosaude/clinic/internal/domain/immunization"
	"github.com/postosaude/clinic/internal/domain/medication"
	"github.com/postosaude/clinic/internal/domain/post"
	"github.com/postosaude/clinic/internal/domain/scheduling"
	"github.com/postosaude/clinic/internal/platform/apperr"
	"github.com/postosaude/clinic/internal/platform/auth"
	"github.com/postosaude/clinic/internal/platform/blobstore"
	"github.com/postosaude/clinic/internal/platform/cache"
	"github.com/postosaude/clinic/internal/platform/codec"
	"github.com/postosaude/clinic/internal/platform/db"
	"github.com/postosaude/clinic/internal/platform/middleware"
	"github.com/postosaude/clinic/internal/platform/validate"
)

const version = "0.1.0"

// dependencies are the external resources the HTTP server is built on.
type dependencies struct {
	pool   *pgxpool.Pool
	tx     db.Transactor
	cache  cache.Cache
	photos blobstore.Store
	tokens *auth.TokenManager
	logger zerolog.Logger
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Env)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	var shared cache.Cache = cache.NewMemory()
	if cfg.RedisURL != "" {
		redisCache, client, err := cache.NewRedisFromURL(ctx, cfg.RedisURL, "clinic:")
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer client.Close()
		shared = redisCache
		logger.Info().Msg("catalog cache backed by redis")
	} else {
		logger.Warn().Msg("REDIS_URL not set; using an in-process cache")
	}

	var photos blobstore.Store = blobstore.NewMemoryStore()
	if cfg.BlobBackend == "minio" {
		store, err := blobstore.NewMinioStore(blobstore.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create photo store")
		}
		if err := store.EnsureBucket(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare photo bucket")
		}
		photos = store
		logger.Info().Str("bucket", cfg.MinioBucket).Msg("patient photos stored in minio")
	} else {
		logger.Warn().Msg("patient photos kept in memory; they are lost on restart")
	}

	e := newServer(cfg, dependencies{
		pool:   pool,
		tx:     db.NewTxManager(pool),
		cache:  shared,
		photos: photos,
		tokens: auth.NewTokenManager([]byte(cfg.JWTSecret), cfg.JWTTTL, cfg.JWTIssuer),
		logger: logger,
	})

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Bool("tls", cfg.TLSEnabled).Msg("starting server")
		var err error
		if cfg.TLSEnabled {
			err = e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = e.Start(addr)
		}
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// newServer wires middleware, services and routes onto a new echo instance.
func newServer(cfg *config.Config, deps dependencies) *echo.Echo {
	logger := deps.logger

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = codec.JSONSerializer{}
	e.Validator = validate.New()
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(logger)

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, echo.HeaderXRequestID},
	}))
	e.Use(middleware.BodyLimit("1M", "6M"))
	if cfg.RequestTimeout > 0 {
		e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	}
	e.Use(auth.JWTMiddleware(deps.tokens, auth.AuthSkipper))
	e.Use(db.TenantMiddleware(auth.AuthSkipper))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(deps.pool, logger))

	apiV1 := e.Group("/api/v1")
	rateLimitCfg := middleware.DefaultRateLimitConfig()
	if cfg.RateLimitRPS > 0 {
		rateLimitCfg.RequestsPerSecond = cfg.RateLimitRPS
	}
	if cfg.RateLimitBurst > 0 {
		rateLimitCfg.BurstSize = cfg.RateLimitBurst
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	postSvc := post.NewService(post.NewRepo(deps.pool), deps.tokens)
	post.NewHandler(postSvc).RegisterRoutes(apiV1)

	identitySvc := identity.NewService(
		identity.NewPatientRepo(deps.pool),
		identity.NewPractitionerRepo(deps.pool),
		deps.photos,
		logger.With().Str("component", "identity").Logger(),
	)
	identity.NewHandler(identitySvc).RegisterRoutes(apiV1)

	schedulingSvc := scheduling.NewService(
		deps.tx,
		scheduling.NewConsultationRepo(deps.pool),
		scheduling.NewAppointmentRepo(deps.pool),
		identitySvc,
	)
	scheduling.NewHandler(schedulingSvc).RegisterRoutes(apiV1)

	immunizationSvc := immunization.NewService(
		deps.tx,
		immunization.NewVaccineRepo(deps.pool),
		immunization.NewStockRepo(deps.pool),
		immunization.NewAdministrationRepo(deps.pool),
		identitySvc,
		deps.cache,
		cfg.CatalogTTL,
		logger.With().Str("component", "immunization").Logger(),
	)
	immunization.NewHandler(immunizationSvc).RegisterRoutes(apiV1)

	medicationSvc := medication.NewService(
		deps.tx,
		medication.NewMedicationRepo(deps.pool),
		medication.NewStockRepo(deps.pool),
		medication.NewPrescriptionRepo(deps.pool),
		schedulingSvc,
		deps.cache,
		cfg.CatalogTTL,
		logger.With().Str("component", "medication").Logger(),
	)
	medication.NewHandler(medicationSvc).RegisterRoutes(apiV1)

	return e
}
