package generator

import (
	"fmt"
	"strings"

	"github.com/hpn/hpn-blueprint/internal/domain"
)

// ConnectivityPrompt is sent by TestProvider.
const ConnectivityPrompt = "Hello, please respond with 'API is working!' and nothing else."

// BuildPrompt renders the prompt for one deliverable.
// The requirement list is trimmed per deliverable to keep token usage down.
func BuildPrompt(kind domain.DeliverableKind, req domain.GenerationRequest) (string, error) {
	reqs, projectType, prefs := req.Requirements, req.ProjectType, req.TechPreferences

	switch kind {
	case domain.DeliverableSRS:
		return srsPrompt(reqs, projectType), nil
	case domain.DeliverableFlowDiagram:
		return flowDiagramPrompt(reqs, projectType), nil
	case domain.DeliverableSQLSchema:
		return sqlSchemaPrompt(reqs, projectType), nil
	case domain.DeliverableFigmaDesign:
		return figmaDesignPrompt(reqs, projectType), nil
	case domain.DeliverableTechStack:
		return techStackPrompt(reqs, prefs, projectType), nil
	case domain.DeliverableProjectStructure:
		return projectStructurePrompt(reqs, projectType, prefs), nil
	case domain.DeliverableReferences:
		return referencesPrompt(reqs, projectType, prefs), nil
	}
	return "", fmt.Errorf("unknown deliverable %q", kind)
}

func srsPrompt(reqs []string, projectType string) string {
	numbered := make([]string, len(reqs))
	for i, r := range reqs {
		numbered[i] = fmt.Sprintf("%d. %s", i+1, r)
	}

	return `
Create SRS document for ` + projectType + `:

Requirements:
` + strings.Join(numbered, "\n") + `

Include:
1. Introduction & Purpose
2. Overall Description
3. Functional Requirements (detailed)
4. Non-Functional Requirements (performance, security, usability)
5. System Features
6. User Interface Requirements
7. Assumptions & Dependencies

Format as structured markdown with clear sections.
`
}

func flowDiagramPrompt(reqs []string, projectType string) string {
	return `
Create Mermaid flowchart for ` + projectType + ` with features: ` + excerpt(reqs, 3, 80, "; ") + `

RULES:
1. Start with: flowchart TD
2. Use single letters: A, B, C, D, E, F
3. Labels in quotes: A["Start"]
4. Decisions: C{"Question?"}
5. Arrows: A --> B
6. Conditions: C -->|Yes| D

Example:
` + "```mermaid" + `
flowchart TD
    A["Start"] --> B["Login"]
    B --> C{"Valid?"}
    C -->|Yes| D["Dashboard"]
    C -->|No| B
    D --> E["End"]
` + "```" + `

Generate simple user flow (max 6 nodes). Keep syntax correct.
`
}

func sqlSchemaPrompt(reqs []string, projectType string) string {
	return `
Create SQL schema for ` + projectType + ` with features: ` + excerpt(reqs, 4, 100, "; ") + `

Generate:
1. CREATE TABLE statements (main entities)
2. Primary/foreign keys and relationships
3. Essential indexes
4. Sample INSERT data
5. Common queries

Use PostgreSQL syntax. Keep it practical and focused.
`
}

func figmaDesignPrompt(reqs []string, projectType string) string {
	return `
Create Figma design specs for a ` + projectType + ` with these key features: ` + excerpt(reqs, 5, 100, "; ") + `

Include:
1. Main screen wireframes (3-5 screens max)
2. Color palette (5-6 colors)
3. Typography (2-3 font sizes)
4. Key components (buttons, forms, cards)
5. Layout structure
6. User flow

Keep it concise but implementable.
`
}

func techStackPrompt(reqs []string, prefs domain.TechPreferences, projectType string) string {
	return `
Recommend tech stack for ` + projectType + ` with features: ` + excerpt(reqs, 3, 80, "; ") + `
Preferences: ` + preferenceList(prefs) + `

Provide:
1. Frontend: Framework + key libraries
2. Backend: Language/framework + database
3. Cloud: Platform + key services
4. DevOps: CI/CD + deployment
5. Testing: Frameworks + tools

Include brief reasoning for each choice.
`
}

func projectStructurePrompt(reqs []string, projectType string, prefs domain.TechPreferences) string {
	return `
Create clean architecture project structure for ` + projectType + ` using ` + mainTech(prefs, "modern web stack") + `.
Key features: ` + excerpt(reqs, 3, 80, "; ") + `

Generate:
1. Folder tree (src/, tests/, docs/, config/)
2. Clean architecture layers (domain, application, infrastructure)
3. Key files and purposes
4. Testing structure
5. Configuration setup

Focus on scalability and maintainability. Use industry best practices.
Format as markdown with folder tree.
`
}

func referencesPrompt(reqs []string, projectType string, prefs domain.TechPreferences) string {
	return `
Find references for ` + projectType + ` with features: ` + excerpt(reqs, 3, 60, ", ") + `
Tech stack: ` + mainTech(prefs, "web technologies") + `

Provide:
1. **GitHub Repos** (3-4 similar projects):
   - Repo name and URL
   - Key features
   - Architecture used

2. **Live Examples** (2-3 production apps):
   - Website URL
   - Company/creator
   - Notable features

3. **Learning Resources**:
   - Documentation links
   - Tutorials and guides
   - Best practice articles

4. **Tools & Libraries**:
   - Recommended frameworks
   - Development tools
   - Testing libraries

Keep it practical and actionable.
`
}

// excerpt takes the first n requirements, cuts each to max runes and joins them.
func excerpt(reqs []string, n, max int, sep string) string {
	if len(reqs) > n {
		reqs = reqs[:n]
	}
	out := make([]string, len(reqs))
	for i, r := range reqs {
		if runes := []rune(r); len(runes) > max {
			r = string(runes[:max])
		}
		out[i] = r
	}
	return strings.Join(out, sep)
}

// preferenceList renders the non-empty preferences as "frontend: React, cloud: AWS".
func preferenceList(p domain.TechPreferences) string {
	pairs := []struct{ k, v string }{
		{"frontend", p.Frontend},
		{"backend", p.Backend},
		{"database", p.Database},
		{"cloud", p.Cloud},
	}
	var out []string
	for _, kv := range pairs {
		if kv.v != "" {
			out = append(out, kv.k+": "+kv.v)
		}
	}
	return strings.Join(out, ", ")
}

func mainTech(p domain.TechPreferences, fallback string) string {
	switch {
	case p.Frontend != "":
		return p.Frontend
	case p.Backend != "":
		return p.Backend
	}
	return fallback
}
