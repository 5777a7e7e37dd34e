package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/turtacn/authsvc/internal/application/dto"
	"github.com/turtacn/authsvc/internal/infrastructure/monitoring"
	"github.com/turtacn/authsvc/pkg/constants"
	"github.com/turtacn/authsvc/pkg/errors"
	"github.com/turtacn/authsvc/pkg/logger"
)

// HTTPMetrics records request latency per route.
type HTTPMetrics interface {
	RecordHTTPRequest(method, path string, status int, duration time.Duration)
}

// Middleware bundles the global gin middleware of the service.
type Middleware struct {
	logger  logger.Logger
	metrics HTTPMetrics
	tracer  trace.Tracer
}

// NewMiddleware creates the middleware set. metrics and tracer may be nil.
func NewMiddleware(log logger.Logger, metrics HTTPMetrics, tracer trace.Tracer) *Middleware {
	if tracer == nil {
		tracer = otel.Tracer(constants.ServiceName)
	}
	return &Middleware{
		logger:  log.WithComponent("http"),
		metrics: metrics,
		tracer:  tracer,
	}
}

// RequestID 为每个请求分配关联 ID，优先沿用客户端传入的 X-Request-ID
func (m *Middleware) RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(constants.HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(string(constants.ContextKeyRequestID), requestID)
		c.Writer.Header().Set(constants.HeaderRequestID, requestID)

		ctx := context.WithValue(c.Request.Context(), constants.ContextKeyRequestID, requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Logger 记录每个请求的方法、路径、状态码与耗时
func (m *Middleware) Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []logger.Field{
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
			logger.Int("status", c.Writer.Status()),
			logger.Int64("latency_ms", time.Since(start).Milliseconds()),
			logger.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, logger.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			var err error
			if last := c.Errors.Last(); last != nil {
				err = last.Err
			}
			m.logger.Error(c.Request.Context(), "Request failed", err, fields...)
		case status >= 400:
			m.logger.Warn(c.Request.Context(), "Request rejected", fields...)
		default:
			m.logger.Info(c.Request.Context(), "Request processed", fields...)
		}
	}
}

// Recovery turns a panic into a generic 500 body.
func (m *Middleware) Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				m.logger.Error(c.Request.Context(), "Panic recovered", fmt.Errorf("panic: %v", rec),
					logger.String("path", c.Request.URL.Path))
				dto.SendError(c, errors.ErrInternal(constants.MsgInternalError))
			}
		}()
		c.Next()
	}
}

// Tracing 提取 W3C trace context 并为每个请求开启 server span
func (m *Middleware) Tracing() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		ctx, span := m.tracer.Start(ctx, "HTTP "+c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPMethodKey.String(c.Request.Method),
				semconv.HTTPRouteKey.String(route),
			),
		)
		defer span.End()

		if traceID := monitoring.GetTraceID(ctx); traceID != "" {
			ctx = context.WithValue(ctx, constants.ContextKeyTraceID, traceID)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(semconv.HTTPStatusCodeKey.Int(status))
		if status >= 500 {
			if last := c.Errors.Last(); last != nil {
				monitoring.RecordError(ctx, last.Err)
			} else {
				span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", status))
			}
		}
	}
}

// Metrics 记录请求耗时直方图；未匹配路由统一记为 "unmatched" 以限制标签基数
func (m *Middleware) Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.metrics == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.metrics.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
