package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractMermaid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		ok      bool
	}{
		{
			name:    "mermaid fence",
			content: "Here is the flow:\n```mermaid\ngraph TD\nA[Start] --> B[End]\n```\nDone.",
			want:    "flowchart TD\nA[\"Start\"] --> B[\"End\"]",
			ok:      true,
		},
		{
			name:    "mermaid fence without newline",
			content: "```mermaid flowchart LR\nA --> B```",
			want:    "flowchart LR\nA --> B",
			ok:      true,
		},
		{
			name:    "plain fence with flowchart",
			content: "```\nflowchart TD\nA-->B\n```",
			want:    "flowchart TD\nA --> B",
			ok:      true,
		},
		{
			name:    "bare flowchart stops at blank line",
			content: "Intro\nflowchart TD\nA --> B\n\nTrailing prose",
			want:    "flowchart TD\nA --> B",
			ok:      true,
		},
		{
			name:    "bare graph stops at heading",
			content: "graph LR\nA --> B\n# Notes",
			want:    "flowchart LR\nA --> B",
			ok:      true,
		},
		{
			name:    "no diagram",
			content: "Just some words about the system.",
			ok:      false,
		},
		{
			name:    "empty",
			content: "   ",
			ok:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractMermaid(tt.content)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
				assert.NotContains(t, got, "```")
			}
		})
	}
}

func TestExtractMermaid_RawFallbackStripsFences(t *testing.T) {
	got, ok := ExtractMermaid("```\nA --> B\n```")
	require.True(t, ok)
	assert.Equal(t, "A --> B", got)
}

func TestCleanMermaid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "graph becomes flowchart",
			in:   "graph TD\nA --> B",
			want: "flowchart TD\nA --> B",
		},
		{
			name: "drops prose before the keyword on the first line",
			in:   "Diagram: flowchart LR\nA --> B",
			want: "flowchart LR\nA --> B",
		},
		{
			name: "removes style and classDef lines",
			in:   "flowchart TD\nA --> B\nstyle A fill:#f9f\nclassDef green fill:#0f0\n%% Define Node Styles here",
			want: "flowchart TD\nA --> B",
		},
		{
			name: "keeps labels that merely contain the word style",
			in:   "flowchart TD\nA[Lifestyle style guide] --> B",
			want: "flowchart TD\nA[\"Lifestyle style guide\"] --> B",
		},
		{
			name: "repairs broken and long arrows",
			in:   "flowchart TD\nA - --> B\nB ---> C\nC-->D",
			want: "flowchart TD\nA --> B\nB --> C\nC --> D",
		},
		{
			name: "quotes bracket labels once",
			in:   "flowchart TD\nA[ User Login ] --> B[\"Dashboard\"]",
			want: "flowchart TD\nA[\"User Login\"] --> B[\"Dashboard\"]",
		},
		{
			name: "wraps bare labels before arrows and at line end",
			in:   "flowchart TD\nA Start --> B\nB --> C Finish",
			want: "flowchart TD\nA[\"Start\"] --> B\nB --> C[\"Finish\"]",
		},
		{
			name: "bare label does not swallow the next line",
			in:   "flowchart TD\nA\nB Done --> C",
			want: "flowchart TD\nA\nB[\"Done\"] --> C",
		},
		{
			name: "leaves decision shapes alone",
			in:   "flowchart TD\nB{Check If User Exists} --> C",
			want: "flowchart TD\nB{Check If User Exists} --> C",
		},
		{
			name: "strips unsupported characters and indentation",
			in:   "flowchart TD\n    A[Pay 💳 now!] --> B",
			want: "flowchart TD\nA[\"Pay  now\"] --> B",
		},
		{
			name: "adds a header when missing",
			in:   "A --> B",
			want: "flowchart TD\nA --> B",
		},
		{
			name: "collapses blank lines",
			in:   "flowchart TD\n\n\nA --> B\n\n",
			want: "flowchart TD\nA --> B",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanMermaid(tt.in))
		})
	}
}

func TestCleanMermaid_Idempotent(t *testing.T) {
	once := CleanMermaid("graph TD\nA[Start] --> B Review\nB --> C[Ship]")
	assert.Equal(t, once, CleanMermaid(once))
	assert.True(t, strings.HasPrefix(once, "flowchart TD\n"))
}
