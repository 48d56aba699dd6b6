package server

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"

	"github.com/alkime/repurpose/internal/config"
	"github.com/alkime/repurpose/internal/content"
	"github.com/alkime/repurpose/internal/launchpad"
	"github.com/alkime/repurpose/internal/llm"
	"github.com/alkime/repurpose/internal/metrics"
	"github.com/alkime/repurpose/internal/session"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

//go:embed assets
var assetsFS embed.FS

// Deps are the collaborators a Server needs. Nil stores fall back to
// in-memory ones and a nil Metrics gets a fresh registry.
type Deps struct {
	Generator  llm.Generator
	Runs       session.Store[Run]
	Launchpads session.Store[launchpad.Session]
	Metrics    *metrics.Metrics
}

// Server represents the HTTP server
type Server struct {
	config *config.Config
	logger *slog.Logger
	router *gin.Engine

	pipeline   *content.Pipeline
	engine     *launchpad.Engine
	runs       session.Store[Run]
	launchpads session.Store[launchpad.Session]
	metrics    *metrics.Metrics
	locks      *keyedMutex
}

// New creates a new Server instance
func New(cfg *config.Config, logger *slog.Logger, deps Deps) *Server {
	// Set Gin mode based on environment
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router
	router := gin.New()
	router.Use(gin.Recovery())

	// Configure proxy trust for production (Fly.io)
	if cfg.Env == config.EnvProduction {
		router.TrustedPlatform = gin.PlatformFlyIO
		logger.Debug("Configured trusted platform", "platform", "fly.io")
	}

	if deps.Runs == nil {
		deps.Runs = session.NewMemory[Run](cfg.SessionTTL)
	}
	if deps.Launchpads == nil {
		deps.Launchpads = session.NewMemory[launchpad.Session](cfg.SessionTTL)
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}

	server := &Server{
		config:     cfg,
		logger:     logger,
		router:     router,
		pipeline:   content.NewPipeline(deps.Generator, logger),
		runs:       deps.Runs,
		launchpads: deps.Launchpads,
		metrics:    deps.Metrics,
		locks:      newKeyedMutex(),
	}
	server.engine = launchpad.NewEngine(
		launchpad.NewLLMPlanner(deps.Generator, logger),
		logger,
		launchpad.WithTransitionHook(func(_, to launchpad.Screen) {
			deps.Metrics.Transition(string(to))
		}),
	)

	// Setup middleware and routes
	setupRequestLogging(router, logger)
	setupSecurityMiddleware(router, cfg, logger)
	server.setupTemplates()
	server.setupRoutes()

	return server
}

// Router exposes the HTTP handler, mostly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// ListenAndServe starts the HTTP server and shuts it down when ctx is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.config.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server listening", "port", s.config.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) setupTemplates() {
	funcs := template.FuncMap{
		"has": func(list []string, v string) bool { return slices.Contains(list, v) },
	}
	tmpl := template.Must(template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/*.tmpl"))
	s.router.SetHTMLTemplate(tmpl)
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Embedded stylesheet; only answers under /assets
	assets, err := static.EmbedFolder(assetsFS, "assets")
	if err != nil {
		panic(err)
	}
	s.router.Use(static.Serve("/assets", assets))

	// Health check endpoint
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	s.router.GET("/", s.handleIndex)
	s.router.POST("/repurpose", s.handleRepurposeForm)
	s.router.GET("/runs/:id/download", s.handleDownloadRun)

	api := s.router.Group("/api/v1")
	{
		api.POST("/repurpose", s.handleRepurposeAPI)
		api.POST("/repurpose/stream", s.handleRepurposeStream)

		lp := api.Group("/launchpad")
		lp.POST("", s.handleLaunchpadCreate)
		lp.GET("/:id", s.handleLaunchpadGet)
		lp.POST("/:id/begin", s.handleLaunchpadBegin)
		lp.POST("/:id/inputs", s.handleLaunchpadInputs)
		lp.POST("/:id/topic", s.handleLaunchpadTopic)
		lp.POST("/:id/keep", s.handleLaunchpadKeep)
		lp.POST("/:id/suggest", s.handleLaunchpadSuggest)
		lp.POST("/:id/regenerate", s.handleLaunchpadRegenerate)
		lp.POST("/:id/select", s.handleLaunchpadSelect)
		lp.POST("/:id/reveal", s.handleLaunchpadReveal)
		lp.POST("/:id/docs", s.handleLaunchpadDocs)
		lp.POST("/:id/restart", s.handleLaunchpadRestart)
		lp.GET("/:id/download", s.handleLaunchpadDownload)
	}
}

// handleHealth handles the health check endpoint
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "repurpose",
	})
}
