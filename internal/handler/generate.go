package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hpn/hpn-blueprint/internal/adapter"
	"github.com/hpn/hpn-blueprint/internal/domain"
	"github.com/hpn/hpn-blueprint/internal/generator"
)

// HandleGenerate handles POST /api/generate.
func (h *Handler) HandleGenerate(c *gin.Context) {
	var req domain.GenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if req.APIConfig != nil {
		c.Set(ctxProvider, string(req.APIConfig.Provider))
	}

	result, err := h.gen.GenerateAll(c.Request.Context(), req)
	if err != nil {
		if generator.IsBadRequest(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("generation failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Generation failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// HandleGenerateOne returns the handler of POST /api/generate/<slug>.
// The response carries a single field named after the deliverable.
func (h *Handler) HandleGenerateOne(kind domain.DeliverableKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxDeliverable, string(kind))

		var req domain.GenerationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		if req.APIConfig != nil {
			c.Set(ctxProvider, string(req.APIConfig.Provider))
		}

		text, err := h.gen.Generate(c.Request.Context(), kind, req)
		if err != nil {
			status := http.StatusInternalServerError
			if generator.IsBadRequest(err) {
				status = http.StatusBadRequest
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{kind.JSONKey(): text})
	}
}

// HandleTestProvider handles POST /api/test-provider with an APIConfig body.
func (h *Handler) HandleTestProvider(c *gin.Context) {
	var cfg domain.APIConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		bindError(c, err)
		return
	}
	h.testProvider(c, &cfg)
}

// googleTestRequest is the body of POST /api/test-google.
type googleTestRequest struct {
	APIKey string `json:"apiKey"`
	Model  string `json:"model"`
}

// HandleTestGoogle handles POST /api/test-google, a Gemini-only shortcut.
func (h *Handler) HandleTestGoogle(c *gin.Context) {
	var body googleTestRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}
	h.testProvider(c, &domain.APIConfig{
		Provider: domain.ProviderGoogle,
		APIKey:   body.APIKey,
		Model:    body.Model,
	})
}

func (h *Handler) testProvider(c *gin.Context, cfg *domain.APIConfig) {
	c.Set(ctxProvider, string(cfg.Provider))

	reply, err := h.gen.TestProvider(c.Request.Context(), cfg)
	if err != nil {
		status := http.StatusInternalServerError
		body := gin.H{"success": false, "error": err.Error()}

		// Vendor failures surface as 502 with the vendor status alongside.
		var apiErr *adapter.APIError
		switch {
		case errors.As(err, &apiErr):
			status = http.StatusBadGateway
			body["vendorStatus"] = apiErr.StatusCode
		case generator.IsBadRequest(err), errors.Is(err, adapter.ErrAPIKeyRequired):
			status = http.StatusBadRequest
		}
		body["status"] = status
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  generator.ConnectivityReply,
		"response": reply,
	})
}
