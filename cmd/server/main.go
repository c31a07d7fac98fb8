package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/maxviazov/catalog-service/internal/auth"
	"github.com/maxviazov/catalog-service/internal/cache"
	"github.com/maxviazov/catalog-service/internal/config"
	"github.com/maxviazov/catalog-service/internal/handler"
	"github.com/maxviazov/catalog-service/internal/logger"
	"github.com/maxviazov/catalog-service/internal/metrics"
	"github.com/maxviazov/catalog-service/internal/middleware"
	"github.com/maxviazov/catalog-service/internal/ratelimit"
	"github.com/maxviazov/catalog-service/internal/repository"
	"github.com/maxviazov/catalog-service/internal/repository/memory"
	"github.com/maxviazov/catalog-service/internal/repository/postgres"
	"github.com/maxviazov/catalog-service/internal/service"
)

// storage bundles the repositories of the selected driver.
type storage struct {
	categories repository.CategoryRepository
	products   repository.ProductRepository
	users      repository.UserRepository
	pinger     repository.Pinger
	close      func()
}

func main() {
	// Load application config
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("❌ Config loading failed: %v", err)
	}

	// Initialize logger
	if cfg.Logger.ServiceName == "" {
		cfg.Logger.ServiceName = cfg.App.Name
	}
	if cfg.Logger.ServiceVersion == "" {
		cfg.Logger.ServiceVersion = cfg.App.Version
	}
	appLogger, err := logger.New(&cfg.Logger)
	if err != nil {
		log.Fatalf("❌ Logger initialization failed: %v", err)
	}
	appLogger.Info().Msg("✅ Logger initialized successfully")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLogger); err != nil {
		appLogger.Fatal().Err(err).Msg("❌ Service stopped with error")
	}
	appLogger.Info().Msg("👋 Service stopped")
}

func run(ctx context.Context, cfg *config.Config, appLogger zerolog.Logger) error {
	store, err := openStorage(ctx, cfg, appLogger)
	if err != nil {
		return err
	}
	defer store.close()

	var redisClient redis.UniversalClient
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
		defer redisClient.Close()
		appLogger.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")
	}

	policy := cache.Policy{Absolute: cfg.Cache.AbsoluteTTL, Sliding: cfg.Cache.SlidingTTL}
	globalWindow := ratelimit.Window{Limit: cfg.RateLimit.Global.PermitLimit, Window: cfg.RateLimit.Global.Window}
	categoryWindow := ratelimit.Window{Limit: cfg.RateLimit.Categories.PermitLimit, Window: cfg.RateLimit.Categories.Window}

	var (
		cacheStore      cache.Store
		globalLimiter   ratelimit.Limiter
		categoryLimiter ratelimit.Limiter
	)
	if redisClient != nil {
		cacheStore = cache.NewRedisStore(redisClient, "catalog:", policy)
		globalLimiter = ratelimit.NewRedisLimiter(redisClient, "global", globalWindow)
		categoryLimiter = ratelimit.NewRedisLimiter(redisClient, "categories", categoryWindow)
	} else {
		cacheStore = cache.NewMemoryStore(policy)
		globalLimiter = ratelimit.NewMemoryLimiter(globalWindow)
		categoryLimiter = ratelimit.NewMemoryLimiter(categoryWindow)
	}

	m := metrics.New(metricsNamespace(cfg.App.Name))
	tokens := auth.NewTokenManager(auth.TokenConfig{
		Secret:        cfg.JWT.SecretKey,
		Issuer:        cfg.JWT.ValidIssuer,
		Audience:      cfg.JWT.ValidAudience,
		TokenValidity: cfg.JWT.TokenValidity,
	})
	policies := auth.NewPolicies(cfg.JWT.SuperAdminID)

	categories := service.NewCategoryService(store.categories, cacheStore, m, appLogger)
	products := service.NewProductService(store.products, store.categories, appLogger)
	authSvc := service.NewAuthService(store.users, tokens, cfg.JWT.RefreshTokenValidity, m, appLogger)

	checks := map[string]handler.Pinger{"database": store.pinger}
	if redisClient != nil {
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
	}

	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.CORS.AllowOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.CORS.AllowOrigins
	}
	corsCfg.AllowCredentials = cfg.CORS.AllowCredentials

	r.Use(
		middleware.RequestID(),
		middleware.Recovery(appLogger),
		middleware.Logging(appLogger),
		middleware.Metrics(m),
		middleware.CORS(corsCfg),
		middleware.Authenticate(tokens, appLogger),
	)

	var categoryLimit gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		r.Use(middleware.RateLimit(globalLimiter, middleware.RateLimitConfig{
			Policy:   "global",
			SkipFunc: isProbe,
			OnReject: m.RecordRateLimited,
			Logger:   appLogger,
		}))
		categoryLimit = middleware.RateLimit(categoryLimiter, middleware.RateLimitConfig{
			Policy:   "categories",
			OnReject: m.RecordRateLimited,
			Logger:   appLogger,
		})
	}

	handler.Register(r, handler.Deps{
		Health:        handler.NewHealthHandler(checks),
		Categories:    categories,
		Products:      products,
		Auth:          authSvc,
		Policies:      policies,
		CategoryLimit: categoryLimit,
		MaxPageSize:   cfg.Pagination.MaxPageSize,
		Metrics:       m.Handler(),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info().
			Str("addr", srv.Addr).
			Str("env", cfg.App.Env).
			Str("storage", cfg.Storage.Driver).
			Bool("redis", redisClient != nil).
			Msg("🚀 Service started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	appLogger.Info().Dur("timeout", cfg.App.ShutdownTimeout).Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func openStorage(ctx context.Context, cfg *config.Config, appLogger zerolog.Logger) (storage, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		db, err := repository.Open(ctx, cfg, &appLogger)
		if err != nil {
			return storage{}, fmt.Errorf("postgres connection failed: %w", err)
		}
		if cfg.Storage.Migrate {
			if err := db.Migrate(ctx); err != nil {
				db.Close()
				return storage{}, fmt.Errorf("migrations failed: %w", err)
			}
			appLogger.Info().Msg("migrations applied")
		}
		pool := db.Pool()
		return storage{
			categories: postgres.NewCategoryRepository(pool),
			products:   postgres.NewProductRepository(pool),
			users:      postgres.NewUserRepository(pool),
			pinger:     postgres.NewPinger(pool),
			close:      db.Close,
		}, nil
	default:
		st, err := memory.New(memory.Options{SeedFile: cfg.Storage.SeedFile, DataFile: cfg.Storage.DataFile})
		if err != nil {
			return storage{}, fmt.Errorf("memory store: %w", err)
		}
		appLogger.Info().
			Str("seed_file", cfg.Storage.SeedFile).
			Str("data_file", cfg.Storage.DataFile).
			Msg("using memory storage")
		return storage{
			categories: memory.NewCategoryRepository(st),
			products:   memory.NewProductRepository(st),
			users:      memory.NewUserRepository(st),
			pinger:     memory.NewPinger(st),
			close:      func() {},
		}, nil
	}
}

// isProbe exempts health, metrics and docs from the global limiter.
func isProbe(c *gin.Context) bool {
	p := c.Request.URL.Path
	switch p {
	case "/live", "/ready", "/metrics", "/openapi.yaml", "/docs":
		return true
	}
	return strings.HasPrefix(p, handler.APIV1Prefix+"/health/")
}

func metricsNamespace(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), "-", "_")
}
