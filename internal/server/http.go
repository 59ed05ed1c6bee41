package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/eryajf/medqa/internal/auth"
	"github.com/eryajf/medqa/internal/config"
	"github.com/eryajf/medqa/internal/model"
	"github.com/eryajf/medqa/internal/processor"
	"github.com/eryajf/medqa/internal/qa"
	"github.com/eryajf/medqa/internal/vectorstore"
	"github.com/gin-gonic/gin"
)

// HTTPServer 基于 Gin 的 HTTP 服务器
// 只是核心操作的薄封装,原样透出核心的结构化响应对象
type HTTPServer struct {
	cfg      *config.Config
	engine   *gin.Engine
	server   *http.Server
	qaEngine *qa.Engine
	proc     *processor.DocumentProcessor
	store    *vectorstore.Manager
	verifier auth.CredentialVerifier
}

// NewHTTPServer 创建 HTTP 服务器
func NewHTTPServer(cfg *config.Config, qaEngine *qa.Engine, proc *processor.DocumentProcessor, store *vectorstore.Manager, verifier auth.CredentialVerifier) *HTTPServer {
	// 设置 Gin 模式
	if cfg.Server.HTTP.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &HTTPServer{
		cfg:      cfg,
		engine:   gin.New(),
		qaEngine: qaEngine,
		proc:     proc,
		store:    store,
		verifier: verifier,
	}

	s.registerMiddlewares()
	s.registerRoutes()

	return s
}

// registerMiddlewares 注册中间件
func (s *HTTPServer) registerMiddlewares() {
	// 恢复中间件 - 从 panic 恢复
	s.engine.Use(gin.Recovery())

	// 自定义日志中间件
	s.engine.Use(s.loggingMiddleware())

	// CORS 中间件
	s.engine.Use(s.corsMiddleware())
}

// loggingMiddleware 自定义日志中间件
func (s *HTTPServer) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		duration := time.Since(start)
		logx.Info("HTTP request, method %s, path %s, status %d, duration %s",
			method, path, c.Writer.Status(), duration)
	}
}

// corsMiddleware CORS 中间件
func (s *HTTPServer) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// authMiddleware 认证中间件,auth.enabled 为 false 时直接放行
func (s *HTTPServer) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.cfg.Auth.Enabled {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, model.Response{
				Code:    401,
				Message: "missing authorization token",
			})
			return
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")

		claims, err := auth.ParseToken(tokenString, s.cfg.Auth.JWTSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, model.Response{
				Code:    401,
				Message: "invalid token: " + err.Error(),
			})
			return
		}

		c.Set("username", claims.Username)
		c.Next()
	}
}

// registerRoutes 注册路由
func (s *HTTPServer) registerRoutes() {
	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.engine.Group("/api")
	api.POST("/auth/login", s.Login)

	protected := api.Group("")
	protected.Use(s.authMiddleware())
	{
		protected.POST("/qa/ask", s.Ask)
		protected.POST("/qa/summary", s.Summary)
		protected.GET("/qa/insights", s.Insights)

		protected.POST("/ingest", s.Ingest)
		protected.GET("/vector/stats", s.VectorStats)
		protected.POST("/vector/export", s.ExportCollection)
		protected.POST("/vector/import", s.ImportCollection)
		protected.POST("/vector/reset", s.ResetCollection)
	}
}

// Start 启动 HTTP 服务
func (s *HTTPServer) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Server.HTTP.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 600 * time.Second, // LLM 生成可能较慢
	}

	logx.Info("✅ HTTP server listening on %s", addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown 优雅关闭
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
