package http

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/flood-alert-service/internal/domain"
	"github.com/couchcryptid/flood-alert-service/internal/mapview"
	"github.com/couchcryptid/flood-alert-service/internal/pipeline"
)

// FloodService is the set of actions the HTTP layer exposes.
type FloodService interface {
	Predict(ctx context.Context, f domain.FieldSet) (domain.PredictionResult, error)
	Notify(ctx context.Context, f domain.FieldSet, recipient string) (pipeline.NotifyResult, error)
	Map(ctx context.Context, threshold float64, floodFlag int) (mapview.View, error)
	MapFilter() (threshold float64, floodFlag int)
	CheckReadiness(ctx context.Context) error
}

// Server serves the prediction form, the historical map, the JSON API, and
// the health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	svc        FloodService
	logger     *slog.Logger
}

// NewServer creates the HTTP server. Notify can wait on SMTP and geocoding,
// so the write timeout is longer than a plain health server would need.
func NewServer(addr string, svc FloodService, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(logger))
	engine.SetHTMLTemplate(template.Must(template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.tmpl")))

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      engine,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		svc:    svc,
		logger: logger,
	}
	s.registerRoutes(engine)
	return s
}

func (s *Server) registerRoutes(engine *gin.Engine) {
	engine.GET("/healthz", gin.WrapF(sharedobs.LivenessHandler()))
	engine.GET("/readyz", gin.WrapF(sharedobs.ReadinessHandler(s.svc)))
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	engine.GET("/", s.handleForm)
	engine.POST("/", s.handleFormSubmit)
	engine.GET("/map", s.handleMapPage)

	v1 := engine.Group("/api/v1")
	v1.POST("/predict", s.handlePredict)
	v1.POST("/notify", s.handleNotify)
	v1.GET("/map", s.handleMap)
	v1.GET("/contract", s.handleContract)
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		level := slog.LevelDebug
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		logger.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
