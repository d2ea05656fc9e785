package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xxz807/bizledger/internal/ledger/api"
	"github.com/xxz807/bizledger/internal/platform/metrics"
)

const requestIDHeader = "X-Request-ID"

// Server 封装 HTTP 服务
type Server struct {
	engine *gin.Engine
	logger *zap.Logger
	port   string
	server *http.Server
}

// Options 服务参数
type Options struct {
	Port           string
	Mode           string
	MetricsEnabled bool
}

// NewServer 初始化 HTTP Server (包含网关逻辑)
func NewServer(
	logger *zap.Logger,
	opts Options,
	// 依赖注入：传入具体的 Handler
	ledgerHandler *api.LedgerHandler,
) *Server {

	// 1. 设置 Gin 模式
	switch opts.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}

	r := gin.New()

	// ==========================================
	// Middleware
	// ==========================================

	// 1. Recovery (防崩)
	r.Use(gin.Recovery())

	// 2. Request ID
	r.Use(requestID())

	// 3. Custom Logger (接入 Zap)
	r.Use(accessLog(logger))

	// 4. Prometheus
	r.Use(instrument())

	// 5. CORS (跨域处理 - 允许前端访问)
	r.Use(cors())

	// ==========================================
	// Routing Layer (路由分发)
	// ==========================================

	v1 := r.Group("/api/v1")
	{
		// 注册 Ledger 模块的路由
		ledgerHandler.RegisterRoutes(v1)

		// 健康检查
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "UP"})
		})
	}

	if opts.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	return &Server{
		engine: r,
		logger: logger,
		port:   opts.Port,
		server: &http.Server{
			Addr:              ":" + opts.Port,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler 暴露 gin 引擎，便于 httptest 直接调用
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run 启动服务，阻塞直到监听失败或被 Shutdown
func (s *Server) Run() error {
	s.logger.Info("BizLedger API started", zap.String("port", s.port))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 优雅停机 (Graceful Shutdown)
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

func accessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next() // 执行后续逻辑

		fields := []zap.Field{
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.Duration("cost", time.Since(start)),
			zap.String("request_id", c.GetString("request_id")),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
			logger.Error("HTTP Request", fields...)
			return
		}
		logger.Info("HTTP Request", fields...)
	}
}

func instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
