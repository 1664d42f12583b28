package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hpn/hpn-blueprint/internal/render"
)

// contentRequest is the body shared by the render endpoints.
type contentRequest struct {
	Content string `json:"content"`
}

func bindContent(c *gin.Context) (string, bool) {
	var body contentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return "", false
	}
	return body.Content, true
}

// HandleRenderMarkdown handles POST /api/render/markdown.
func (h *Handler) HandleRenderMarkdown(c *gin.Context) {
	content, ok := bindContent(c)
	if !ok {
		return
	}

	html, err := render.MarkdownToHTML(content)
	if err != nil {
		h.logger.Warn("markdown conversion failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Markdown conversion failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"html": html})
}

// HandleRenderFlow handles POST /api/render/flow.
// found is false when no diagram could be recovered from the text.
func (h *Handler) HandleRenderFlow(c *gin.Context) {
	content, ok := bindContent(c)
	if !ok {
		return
	}

	code, found := render.ExtractMermaid(content)
	c.JSON(http.StatusOK, gin.H{"code": code, "found": found})
}

// HandleRenderStructure handles POST /api/render/structure.
func (h *Handler) HandleRenderStructure(c *gin.Context) {
	content, ok := bindContent(c)
	if !ok {
		return
	}

	nodes := render.ParseProjectTree(content)
	if nodes == nil {
		nodes = []render.TreeNode{}
	}
	c.JSON(http.StatusOK, gin.H{"nodes": nodes, "count": len(nodes)})
}

// HandleRenderReferences handles POST /api/render/references.
func (h *Handler) HandleRenderReferences(c *gin.Context) {
	content, ok := bindContent(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, render.ParseReferences(content))
}

// parseRequest is the body of POST /api/requirements/parse.
type parseRequest struct {
	Text      string `json:"text"`
	Format    string `json:"format"`
	MinLength int    `json:"minLength" binding:"gte=0"`
}

// HandleParseRequirements handles POST /api/requirements/parse.
func (h *Handler) HandleParseRequirements(c *gin.Context) {
	var body parseRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}

	reqs, err := render.ParseRequirements(body.Text, body.Format, body.MinLength)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if reqs == nil {
		reqs = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"requirements": reqs, "count": len(reqs)})
}
