package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	appservice "github.com/turtacn/authsvc/internal/application/service"
	"github.com/turtacn/authsvc/internal/config"
	domainservice "github.com/turtacn/authsvc/internal/domain/service"
	"github.com/turtacn/authsvc/internal/infrastructure/audit"
	"github.com/turtacn/authsvc/internal/infrastructure/consumers"
	"github.com/turtacn/authsvc/internal/infrastructure/crypto"
	"github.com/turtacn/authsvc/internal/infrastructure/monitoring"
	"github.com/turtacn/authsvc/internal/infrastructure/persistence/postgres"
	"github.com/turtacn/authsvc/internal/infrastructure/persistence/redis"
	"github.com/turtacn/authsvc/internal/infrastructure/ratelimit"
	"github.com/turtacn/authsvc/internal/interfaces/http"
	"github.com/turtacn/authsvc/internal/interfaces/http/handlers"
	"github.com/turtacn/authsvc/internal/interfaces/http/middleware"
	"github.com/turtacn/authsvc/pkg/constants"
	"github.com/turtacn/authsvc/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default: /etc/authsvc/ or ./)")
	flag.Parse()

	// Logger for startup
	startupLogger, err := monitoring.NewZapLogger(&config.LogConfig{Level: "info", Format: "console"})
	if err != nil {
		log.Fatalf("Failed to create startup logger: %v", err)
	}

	// Load config
	var (
		cfg *config.Config
		v   *viper.Viper
	)
	if *configPath != "" {
		cfg, v, err = config.LoadConfigFile(*configPath, startupLogger)
	} else {
		cfg, v, err = config.LoadConfig(startupLogger)
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger, err := monitoring.NewZapLogger(&cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	config.WatchLogLevel(v, appLogger, appLogger.SetLevel)

	if err := run(cfg, appLogger); err != nil {
		appLogger.Fatal(context.Background(), "Server exited with error", err)
	}
}

func run(cfg *config.Config, appLogger logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize tracing
	tracing, err := monitoring.InitTracer(&cfg.Tracing, cfg.Server.Environment, appLogger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tracing.Shutdown(shutdownCtx)
	}()

	// Initialize database
	db, err := postgres.NewDBConnection(ctx, &cfg.Database, appLogger)
	if err != nil {
		return err
	}
	defer db.Close()

	// Initialize Redis
	redisConn := redis.NewConnection(&cfg.Redis, appLogger)
	if err := redisConn.Connect(ctx); err != nil {
		return err
	}
	defer redisConn.Close()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := monitoring.NewMetrics(registry)

	// Crypto
	keys, err := crypto.NewSigningKeyProvider(cfg.JWT.SecretKey)
	if err != nil {
		return err
	}
	codec := crypto.NewJWTCodec(keys, appLogger, crypto.WithCodecMetrics(metrics))
	hasher := crypto.NewBcryptHasher(cfg.Security.BcryptCost)

	// Repositories and domain services
	userRepo := postgres.NewUserRepository(db.DB(), appLogger)
	ledger := domainservice.NewRevocationLedger(
		redis.NewLedgerRepository(redisConn.GetClient(), cfg.JWT.LedgerRetention, appLogger),
		appLogger,
	)
	lifecycle := domainservice.NewTokenLifecycleManager(codec, ledger, cfg.JWT.Expiration, appLogger,
		domainservice.WithLedgerCheck(cfg.Security.LedgerCheck),
		domainservice.WithMetrics(metrics),
	)

	// Audit trail
	auditSvc, closeAudit, err := audit.NewAuditService(&cfg.Audit, db.DB(), appLogger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeAudit(); err != nil {
			appLogger.Error(context.Background(), "Failed to close audit sink", err)
		}
	}()

	// Application service
	authAppSvc := appservice.NewAuthAppService(
		userRepo,
		hasher,
		domainservice.StaticRolePolicy{Role: constants.Role(cfg.Security.DefaultRole)},
		lifecycle,
		metrics,
		appLogger,
		appservice.WithAuditService(auditSvc),
	)

	var rateLimit gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		limiter := ratelimit.NewRedisRateLimiter(redisConn.GetClient(), &cfg.RateLimit, appLogger)
		rateLimit = middleware.RateLimit(limiter, "credentials", appLogger)
	}

	// HTTP
	router := http.NewRouter(cfg, appLogger, http.RouterDeps{
		HealthHandler: handlers.NewHealthHandler(map[string]handlers.Pinger{
			"database": db,
			"redis":    redisConn,
		}, appLogger),
		AuthHandler: handlers.NewAuthHandler(authAppSvc),
		UserHandler: handlers.NewUserHandler(authAppSvc),
		Middleware:  handlers.NewMiddleware(appLogger, metrics, tracing.Tracer()),
		RequireJWT:  middleware.RequireJWT(lifecycle, codec, appLogger),
		RateLimit:   rateLimit,
		Gatherer:    registry,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(router.Start)
	if cfg.Revocation.Enabled {
		consumer := consumers.NewRevocationConsumer(&cfg.Revocation, ledger, appLogger)
		g.Go(func() error { return consumer.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info(context.Background(), "Shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return router.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	appLogger.Info(context.Background(), "HTTP server stopped")
	return nil
}
