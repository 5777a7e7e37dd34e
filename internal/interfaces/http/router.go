package http

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/turtacn/authsvc/internal/config"
	"github.com/turtacn/authsvc/internal/interfaces/http/handlers"
	"github.com/turtacn/authsvc/pkg/constants"
	"github.com/turtacn/authsvc/pkg/logger"
)

// Router HTTP 路由器
type Router struct {
	engine        *gin.Engine
	config        *config.Config
	logger        logger.Logger
	healthHandler *handlers.HealthHandler
	authHandler   *handlers.AuthHandler
	userHandler   *handlers.UserHandler
	middleware    *handlers.Middleware
	requireJWT    gin.HandlerFunc
	rateLimit     gin.HandlerFunc
	gatherer      prometheus.Gatherer
	server        *http.Server
}

// RouterDeps 路由器依赖
type RouterDeps struct {
	HealthHandler *handlers.HealthHandler
	AuthHandler   *handlers.AuthHandler
	UserHandler   *handlers.UserHandler
	Middleware    *handlers.Middleware
	// RequireJWT 保护 /user 路由组
	RequireJWT gin.HandlerFunc
	// RateLimit 限制登录与注册的请求频率，可为 nil
	RateLimit gin.HandlerFunc
	// Gatherer 为 nil 时使用 prometheus.DefaultGatherer
	Gatherer prometheus.Gatherer
}

// NewRouter 创建路由器并注册全部路由
func NewRouter(cfg *config.Config, log logger.Logger, deps RouterDeps) *Router {
	// 设置 Gin 模式
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := &Router{
		engine:        gin.New(),
		config:        cfg,
		logger:        log.WithComponent("router"),
		healthHandler: deps.HealthHandler,
		authHandler:   deps.AuthHandler,
		userHandler:   deps.UserHandler,
		middleware:    deps.Middleware,
		requireJWT:    deps.RequireJWT,
		rateLimit:     deps.RateLimit,
		gatherer:      gatherer,
	}
	r.setupRoutes()

	r.server = &http.Server{
		Addr:           cfg.Server.Address(),
		Handler:        r.engine,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: 1 << 20, // 1MB
	}
	return r
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	// 全局中间件
	r.engine.Use(r.middleware.Recovery())
	r.engine.Use(r.middleware.RequestID())
	r.engine.Use(r.middleware.Tracing())
	r.engine.Use(r.middleware.Logger())
	r.engine.Use(r.middleware.Metrics())

	// CORS 配置
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", constants.AuthorizationHeader, constants.HeaderRequestID},
		ExposeHeaders:    []string{constants.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	// 通配来源不能与凭证同时使用
	if origins := r.config.Server.AllowedOrigins; len(origins) == 0 || slices.Contains(origins, "*") {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	} else {
		corsConfig.AllowOrigins = r.config.Server.AllowedOrigins
	}
	r.engine.Use(cors.New(corsConfig))

	// 健康检查路由（不需要认证）
	r.engine.GET("/health", r.healthHandler.HealthCheck)
	r.engine.GET("/ready", r.healthHandler.ReadinessCheck)
	r.engine.GET("/live", r.healthHandler.LivenessCheck)

	// Prometheus metrics
	r.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})))

	// Pprof 性能分析（仅在非生产环境）
	if r.config.Server.Environment != "production" {
		pprof.Register(r.engine)
	}

	// 认证相关路由
	credentials := []gin.HandlerFunc{}
	if r.rateLimit != nil {
		credentials = append(credentials, r.rateLimit)
	}
	auth := r.engine.Group("/auth")
	{
		auth.POST("/login", append(credentials, r.authHandler.Login)...)
		auth.POST("/register", append(credentials, r.authHandler.Register)...)
		auth.POST("/logout", r.authHandler.Logout)
	}

	// 用户相关路由（需要认证）
	user := r.engine.Group("/user")
	user.Use(r.requireJWT)
	{
		user.GET("/me", r.userHandler.Me)
	}

	// 404 处理
	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"statusCode": http.StatusNotFound,
			"message":    constants.MsgRequestedPathNotFound,
		})
	})
}

// Handler 返回 http.Handler，供测试与自定义 server 使用
func (r *Router) Handler() http.Handler {
	return r.engine
}

// Start 启动 HTTP 服务器，阻塞直到 Stop 被调用或监听失败
func (r *Router) Start() error {
	r.logger.Info(context.Background(), "Starting HTTP server", logger.String("address", r.server.Addr))

	if err := r.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop 优雅停止 HTTP 服务器
func (r *Router) Stop(ctx context.Context) error {
	r.logger.Info(ctx, "Stopping HTTP server...")
	return r.server.Shutdown(ctx)
}
