package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hpn/hpn-blueprint/internal/domain"
	"github.com/hpn/hpn-blueprint/internal/generator"
	"github.com/hpn/hpn-blueprint/internal/ui"
)

// Handler serves the generation, render and export API.
type Handler struct {
	gen    *generator.Generator
	keys   *domain.KeyRing
	logger *slog.Logger
	now    func() time.Time
}

// Option is a functional option for configuring Handler.
type Option func(*Handler)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithKeyRing lets /health report server key pools.
func WithKeyRing(ring *domain.KeyRing) Option {
	return func(h *Handler) {
		h.keys = ring
	}
}

// New creates a Handler around gen.
func New(gen *generator.Generator, opts ...Option) *Handler {
	h := &Handler{
		gen:    gen,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RouterConfig holds the middleware settings of NewRouter.
type RouterConfig struct {
	BodyLimit      int64
	AllowedOrigins []string

	// Cache is optional. Nil disables response caching.
	Cache *FlashCache

	// Console is optional. Nil keeps the console quiet.
	Console *ui.Console
}

// NewRouter wires middleware and routes onto a fresh gin engine.
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	RegisterValidators()

	router := gin.New()

	var requests RequestNotifier
	var hits CacheHitNotifier
	if cfg.Console != nil {
		requests, hits = cfg.Console, cfg.Console
	}

	router.Use(RecoveryMiddleware(h.logger))
	router.Use(CORSMiddleware(cfg.AllowedOrigins))
	router.Use(BodyLimitMiddleware(cfg.BodyLimit))
	router.Use(LoggingMiddleware(h.logger, requests))
	if cfg.Cache != nil {
		router.Use(CacheMiddleware(cfg.Cache, h.logger, hits))
	}

	h.Register(router)
	return router
}

// Register adds every route to r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/health", h.HandleHealth)

	api := r.Group("/api")
	api.GET("/providers", h.HandleProviders)
	api.POST("/test-provider", h.HandleTestProvider)
	api.POST("/test-google", h.HandleTestGoogle)

	gen := api.Group("/generate")
	gen.POST("", h.HandleGenerate)
	for _, kind := range domain.AllDeliverables {
		gen.POST("/"+kind.Slug(), h.HandleGenerateOne(kind))
	}

	render := api.Group("/render")
	render.POST("/markdown", h.HandleRenderMarkdown)
	render.POST("/flow", h.HandleRenderFlow)
	render.POST("/structure", h.HandleRenderStructure)
	render.POST("/references", h.HandleRenderReferences)

	api.POST("/requirements/parse", h.HandleParseRequirements)

	export := api.Group("/export")
	export.POST("/json", h.HandleExportJSON)
	export.POST("/yaml", h.HandleExportYAML)
	export.POST("/mermaid", h.HandleExportMermaid)
	export.POST("/sql", h.HandleExportSQL)
}

// Endpoints lists the routes for the startup table.
func Endpoints() []ui.Endpoint {
	return []ui.Endpoint{
		{Method: "POST", Path: "/api/generate", Description: "All deliverables"},
		{Method: "POST", Path: "/api/generate/{deliverable}", Description: "One deliverable"},
		{Method: "POST", Path: "/api/test-provider", Description: "Connectivity test"},
		{Method: "GET", Path: "/api/providers", Description: "Provider catalogue"},
		{Method: "POST", Path: "/api/render/{kind}", Description: "Extract and clean"},
		{Method: "POST", Path: "/api/requirements/parse", Description: "Split requirements"},
		{Method: "POST", Path: "/api/export/{format}", Description: "Download a bundle"},
		{Method: "GET", Path: "/health", Description: "Health check"},
	}
}

// HandleHealth handles GET /health.
func (h *Handler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "Server is running",
		"timestamp": h.now().UTC().Format(time.RFC3339Nano),
		"providers": h.keys.Stats(),
	})
}

// HandleProviders handles GET /api/providers.
func (h *Handler) HandleProviders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"providers": h.gen.Providers()})
}
