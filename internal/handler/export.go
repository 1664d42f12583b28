package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"

	"github.com/hpn/hpn-blueprint/internal/domain"
	"github.com/hpn/hpn-blueprint/internal/render"
)

// Export file names.
const (
	ExportJSONFile = "project-data.json"
	ExportYAMLFile = "project-data.yaml"
)

func attachment(c *gin.Context, filename string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
}

// HandleExportJSON handles POST /api/export/json. The body is echoed back as a download.
func (h *Handler) HandleExportJSON(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		bindError(c, err)
		return
	}
	if !json.Valid(raw) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "JSON export failed", "details": "body is not valid JSON"})
		return
	}

	attachment(c, ExportJSONFile)
	c.Data(http.StatusOK, "application/json", raw)
}

// HandleExportYAML handles POST /api/export/yaml. The result bundle is re-encoded as YAML.
func (h *Handler) HandleExportYAML(c *gin.Context) {
	var result domain.GenerationResult
	if err := c.ShouldBindJSON(&result); err != nil {
		bindError(c, err)
		return
	}

	out, err := yaml.Marshal(&result)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "YAML export failed"})
		return
	}

	attachment(c, ExportYAMLFile)
	c.Data(http.StatusOK, "application/x-yaml", out)
}

// HandleExportMermaid handles POST /api/export/mermaid.
// The diagram is cleaned first so the file renders as is.
func (h *Handler) HandleExportMermaid(c *gin.Context) {
	var body struct {
		FlowDiagram string `json:"flowDiagram"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}
	if strings.TrimSpace(body.FlowDiagram) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "flowDiagram is required"})
		return
	}

	code := body.FlowDiagram
	if extracted, ok := render.ExtractMermaid(code); ok {
		code = extracted
	}

	attachment(c, domain.DeliverableFlowDiagram.FileName())
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(code))
}

// HandleExportSQL handles POST /api/export/sql.
func (h *Handler) HandleExportSQL(c *gin.Context) {
	var body struct {
		SQLSchema string `json:"sqlSchema"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}
	if strings.TrimSpace(body.SQLSchema) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sqlSchema is required"})
		return
	}

	attachment(c, domain.DeliverableSQLSchema.FileName())
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(body.SQLSchema))
}
