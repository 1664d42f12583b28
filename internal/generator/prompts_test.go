package generator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpn/hpn-blueprint/internal/domain"
)

func TestBuildPrompt_SRSNumbersEveryRequirement(t *testing.T) {
	req := domain.GenerationRequest{
		Requirements: []string{"Sign up", "Log in", "Reset password", "Delete account", "Export data"},
		ProjectType:  "saas",
	}

	p, err := BuildPrompt(domain.DeliverableSRS, req)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p, "\nCreate SRS document for saas:\n\nRequirements:\n1. Sign up\n2. Log in\n"))
	assert.Contains(t, p, "5. Export data\n\nInclude:")
	assert.True(t, strings.HasSuffix(p, "Format as structured markdown with clear sections.\n"))
}

func TestBuildPrompt_TrimsRequirements(t *testing.T) {
	long := strings.Repeat("x", 120)
	req := domain.GenerationRequest{
		Requirements: []string{long, "two", "three", "four", "five", "six"},
		ProjectType:  "web-application",
	}

	flow, err := BuildPrompt(domain.DeliverableFlowDiagram, req)
	require.NoError(t, err)
	assert.Contains(t, flow, "with features: "+strings.Repeat("x", 80)+"; two; three\n")
	assert.NotContains(t, flow, "four")
	assert.Contains(t, flow, "```mermaid\nflowchart TD\n")

	sql, err := BuildPrompt(domain.DeliverableSQLSchema, req)
	require.NoError(t, err)
	assert.Contains(t, sql, strings.Repeat("x", 100)+"; two; three; four\n")
	assert.NotContains(t, sql, "five")

	figma, err := BuildPrompt(domain.DeliverableFigmaDesign, req)
	require.NoError(t, err)
	assert.Contains(t, figma, "Create Figma design specs for a web-application with these key features: ")
	assert.Contains(t, figma, "; five\n")
	assert.NotContains(t, figma, "six")

	refs, err := BuildPrompt(domain.DeliverableReferences, req)
	require.NoError(t, err)
	assert.Contains(t, refs, strings.Repeat("x", 60)+", two, three\n")
}

func TestBuildPrompt_CutsOnRunes(t *testing.T) {
	assert.Equal(t, "ééé", excerpt([]string{"éééé"}, 1, 3, ""))
}

func TestBuildPrompt_TechPreferences(t *testing.T) {
	req := domain.GenerationRequest{
		Requirements:    []string{"Realtime chat"},
		ProjectType:     "mobile-app",
		TechPreferences: domain.TechPreferences{Frontend: "React Native", Cloud: "AWS"},
	}

	p, err := BuildPrompt(domain.DeliverableTechStack, req)
	require.NoError(t, err)
	assert.Contains(t, p, "Recommend tech stack for mobile-app with features: Realtime chat\nPreferences: frontend: React Native, cloud: AWS\n")
}

func TestBuildPrompt_MainTechFallbacks(t *testing.T) {
	req := domain.GenerationRequest{Requirements: []string{"Blog"}, ProjectType: "site"}

	structure, err := BuildPrompt(domain.DeliverableProjectStructure, req)
	require.NoError(t, err)
	assert.Contains(t, structure, "project structure for site using modern web stack.\n")

	refs, err := BuildPrompt(domain.DeliverableReferences, req)
	require.NoError(t, err)
	assert.Contains(t, refs, "Tech stack: web technologies\n")

	req.TechPreferences.Backend = "Go"
	structure, err = BuildPrompt(domain.DeliverableProjectStructure, req)
	require.NoError(t, err)
	assert.Contains(t, structure, "using Go.\n")
}

func TestWordCounter(t *testing.T) {
	c := WordCounter{}
	assert.Equal(t, 0, c.Count(""))
	assert.Equal(t, 0, c.Count("  ... "))
	assert.Equal(t, 1, c.Count("hello"))
	assert.Equal(t, 13, c.Count("one two three four five six seven eight nine ten"))
}

func TestNewTokenCounter(t *testing.T) {
	c, err := NewTokenCounter("")
	require.NoError(t, err)
	assert.IsType(t, WordCounter{}, c)

	_, err = NewTokenCounter("sentencepiece")
	assert.Error(t, err)
}
