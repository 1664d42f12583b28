package domain

import (
	"fmt"
	"time"
)

// DeliverableKind identifies one generated artifact.
type DeliverableKind string

const (
	DeliverableSRS              DeliverableKind = "srs"
	DeliverableFlowDiagram      DeliverableKind = "flowDiagram"
	DeliverableSQLSchema        DeliverableKind = "sqlSchema"
	DeliverableFigmaDesign      DeliverableKind = "figmaDesign"
	DeliverableTechStack        DeliverableKind = "techStack"
	DeliverableProjectStructure DeliverableKind = "projectStructure"
	DeliverableReferences       DeliverableKind = "references"
)

// AllDeliverables lists every kind in the order they are presented.
var AllDeliverables = []DeliverableKind{
	DeliverableSRS,
	DeliverableFlowDiagram,
	DeliverableSQLSchema,
	DeliverableFigmaDesign,
	DeliverableTechStack,
	DeliverableProjectStructure,
	DeliverableReferences,
}

type deliverableInfo struct {
	tag      string
	title    string
	noun     string
	slug     string
	fileName string
	optional bool
}

var deliverables = map[DeliverableKind]deliverableInfo{
	DeliverableSRS:              {tag: "SRS", title: "SRS", noun: "SRS", slug: "srs", fileName: "srs.md"},
	DeliverableFlowDiagram:      {tag: "FLOW_DIAGRAM", title: "Flow Diagram", noun: "flow diagram", slug: "flow-diagram", fileName: "flow-diagram.mmd"},
	DeliverableSQLSchema:        {tag: "SQL_SCHEMA", title: "SQL Schema", noun: "SQL schema", slug: "sql-schema", fileName: "database-schema.sql"},
	DeliverableFigmaDesign:      {tag: "FIGMA_DESIGN", title: "Figma Design", noun: "Figma design", slug: "figma-design", fileName: "figma-design.md"},
	DeliverableTechStack:        {tag: "TECH_STACK", title: "Tech Stack", noun: "tech stack", slug: "tech-stack", fileName: "tech-stack.md"},
	DeliverableProjectStructure: {tag: "PROJECT_STRUCTURE", title: "Project Structure", noun: "project structure", slug: "project-structure", fileName: "project-structure.md", optional: true},
	DeliverableReferences:       {tag: "REFERENCES", title: "References", noun: "references", slug: "references", fileName: "references.md", optional: true},
}

// IsValid reports whether k is a known deliverable.
func (k DeliverableKind) IsValid() bool {
	_, ok := deliverables[k]
	return ok
}

// JSONKey is the field name used for k in API payloads.
func (k DeliverableKind) JSONKey() string { return string(k) }

// Tag is the upper-case label used in transcript file names.
func (k DeliverableKind) Tag() string { return deliverables[k].tag }

// Title is the human-readable name.
func (k DeliverableKind) Title() string { return deliverables[k].title }

// Noun is how k reads inside a sentence ("flow diagram").
func (k DeliverableKind) Noun() string { return deliverables[k].noun }

// Slug is the URL path segment of the per-deliverable endpoint.
func (k DeliverableKind) Slug() string { return deliverables[k].slug }

// FileName is the name used when the deliverable is exported to disk.
func (k DeliverableKind) FileName() string { return deliverables[k].fileName }

// Optional deliverables degrade to a placeholder instead of failing a full generation.
func (k DeliverableKind) Optional() bool { return deliverables[k].optional }

// DeliverableBySlug resolves an endpoint path segment.
func DeliverableBySlug(slug string) (DeliverableKind, bool) {
	for _, k := range AllDeliverables {
		if deliverables[k].slug == slug {
			return k, true
		}
	}
	return "", false
}

// TechPreferences holds the optional stack hints supplied by the client.
type TechPreferences struct {
	Frontend string `json:"frontend,omitempty" yaml:"frontend,omitempty"`
	Backend  string `json:"backend,omitempty" yaml:"backend,omitempty"`
	Database string `json:"database,omitempty" yaml:"database,omitempty"`
	Cloud    string `json:"cloud,omitempty" yaml:"cloud,omitempty"`
}

// GenerationRequest is the input of a generation run.
type GenerationRequest struct {
	Requirements    []string        `json:"requirements" yaml:"requirements"`
	TechPreferences TechPreferences `json:"techPreferences" yaml:"techPreferences"`
	ProjectType     string          `json:"projectType,omitempty" yaml:"projectType,omitempty"`
	APIConfig       *APIConfig      `json:"apiConfig" yaml:"apiConfig"`
}

// Usage counts tokens across the exchanges of a run.
type Usage struct {
	PromptTokens     int  `json:"promptTokens" yaml:"promptTokens"`
	CompletionTokens int  `json:"completionTokens" yaml:"completionTokens"`
	TotalTokens      int  `json:"totalTokens" yaml:"totalTokens"`
	Estimated        bool `json:"estimated,omitempty" yaml:"estimated,omitempty"`
}

// Add accumulates other into u. The sum is estimated if either side was.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
	u.Estimated = u.Estimated || other.Estimated
}

// Metadata describes a generation run.
type Metadata struct {
	ID                string    `json:"id" yaml:"id"`
	GeneratedAt       time.Time `json:"generatedAt" yaml:"generatedAt"`
	RequirementsCount int       `json:"requirementsCount" yaml:"requirementsCount"`
	ProjectType       string    `json:"projectType" yaml:"projectType"`
	Provider          string    `json:"provider" yaml:"provider"`
	Model             string    `json:"model" yaml:"model"`
	DurationMs        int64     `json:"durationMs" yaml:"durationMs"`
	Usage             Usage     `json:"usage" yaml:"usage"`
}

// GenerationResult carries all seven deliverables.
type GenerationResult struct {
	SRS              string   `json:"srs" yaml:"srs"`
	FlowDiagram      string   `json:"flowDiagram" yaml:"flowDiagram"`
	SQLSchema        string   `json:"sqlSchema" yaml:"sqlSchema"`
	FigmaDesign      string   `json:"figmaDesign" yaml:"figmaDesign"`
	TechStack        string   `json:"techStack" yaml:"techStack"`
	ProjectStructure string   `json:"projectStructure" yaml:"projectStructure"`
	References       string   `json:"references" yaml:"references"`
	Metadata         Metadata `json:"metadata" yaml:"metadata"`
}

// Get returns the text of one deliverable.
func (r *GenerationResult) Get(k DeliverableKind) string {
	switch k {
	case DeliverableSRS:
		return r.SRS
	case DeliverableFlowDiagram:
		return r.FlowDiagram
	case DeliverableSQLSchema:
		return r.SQLSchema
	case DeliverableFigmaDesign:
		return r.FigmaDesign
	case DeliverableTechStack:
		return r.TechStack
	case DeliverableProjectStructure:
		return r.ProjectStructure
	case DeliverableReferences:
		return r.References
	}
	return ""
}

// Set stores the text of one deliverable.
func (r *GenerationResult) Set(k DeliverableKind, text string) error {
	switch k {
	case DeliverableSRS:
		r.SRS = text
	case DeliverableFlowDiagram:
		r.FlowDiagram = text
	case DeliverableSQLSchema:
		r.SQLSchema = text
	case DeliverableFigmaDesign:
		r.FigmaDesign = text
	case DeliverableTechStack:
		r.TechStack = text
	case DeliverableProjectStructure:
		r.ProjectStructure = text
	case DeliverableReferences:
		r.References = text
	default:
		return fmt.Errorf("unknown deliverable %q", k)
	}
	return nil
}
