// Package api exposes report generation and retrieval over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"trade-report-lab/internal/config"
	"trade-report-lab/internal/observability"
	"trade-report-lab/internal/pipeline"
	"trade-report-lab/internal/storage"
	"trade-report-lab/internal/verification"
)

// Options configures a Server.
type Options struct {
	CORSOrigin     string // "*" allows any origin
	MaxUploadBytes int64
	Analysis       config.Analysis // defaults for upload query parameters
}

// Server serves the reports API.
type Server struct {
	router   *gin.Engine
	handler  http.Handler
	analyzer *pipeline.Analyzer
	reports  storage.ReportStore
	curves   storage.EquityCurveStore
	cache    *ReportCache
	verifier *verification.Verifier
	logger   *zap.Logger
	metrics  *observability.Metrics
	opts     Options
}

// NewServer wires the router, middleware and handlers. The analyzer is
// expected to persist into the same stores the server reads from.
func NewServer(
	analyzer *pipeline.Analyzer,
	reports storage.ReportStore,
	curves storage.EquityCurveStore,
	cache *ReportCache,
	logger *zap.Logger,
	metrics *observability.Metrics,
	opts Options,
) *Server {
	g := gin.New()

	s := &Server{
		router:   g,
		analyzer: analyzer,
		reports:  reports,
		curves:   curves,
		cache:    cache,
		verifier: verification.NewVerifier(reports, curves),
		logger:   logger,
		metrics:  metrics,
		opts:     opts,
	}

	g.Use(s.requestLogger())
	g.Use(errorHandler())

	g.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	g.GET("/metrics", gin.WrapH(observability.Handler()))

	v1 := g.Group("/api/v1")
	{
		v1.POST("/reports", s.createReport)
		v1.GET("/reports", s.listReports)
		v1.GET("/reports/:id", s.getReport)
		v1.GET("/reports/:id/trades.csv", s.getTradesCSV)
		v1.GET("/reports/:id/equity", s.getEquity)
		v1.POST("/reports/:id/verify", s.verifyReport)
	}

	g.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "route not found")
	})

	allowed := []string{opts.CORSOrigin}
	if opts.CORSOrigin == "" {
		allowed = []string{"*"}
	}
	s.handler = cors.New(cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         86400,
	}).Handler(g)

	return s
}

// Handler returns the root handler, CORS included.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// requestLogger logs every request and counts it by route template.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.RecordHTTPRequest(c.Request.Method, route, c.Writer.Status())
		s.logger.Info("http_request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// errorHandler turns panics into the JSON error envelope.
func errorHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		msg := "An unexpected error occurred"
		if s, ok := recovered.(string); ok {
			msg = s
		}
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", msg)
		c.Abort()
	})
}

func writeError(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

func (s *Server) internalError(c *gin.Context, where string, err error) {
	s.logger.Error("internal_error", zap.String("where", where), zap.Error(err))
	writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}
