package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownToHTML(t *testing.T) {
	out, err := MarkdownToHTML("# Title\n\n**bold** and *it* with `code`\n\n- one\n- two\n\n[docs](https://example.com/docs)")
	require.NoError(t, err)

	assert.Contains(t, out, "<h1>Title</h1>")
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.Contains(t, out, "<em>it</em>")
	assert.Contains(t, out, "<code>code</code>")
	assert.Contains(t, out, "<ul>\n<li>one</li>\n<li>two</li>\n</ul>")
	assert.Contains(t, out, `href="https://example.com/docs"`)
	assert.Contains(t, out, `target="_blank"`)
	assert.Contains(t, out, `rel="noopener noreferrer"`)
}

func TestMarkdownToHTML_TablesAndCodeBlocks(t *testing.T) {
	out, err := MarkdownToHTML("| a | b |\n|---|---|\n| 1 | 2 |\n\n```sql\nSELECT 1;\n```")
	require.NoError(t, err)

	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<td>1</td>")
	assert.Contains(t, out, "SELECT 1;")
	assert.Contains(t, out, "<pre><code")
}

func TestMarkdownToHTML_DropsRawHTML(t *testing.T) {
	out, err := MarkdownToHTML("hello\n\n<script>alert(1)</script>")
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
}

func TestMarkdownToHTML_Empty(t *testing.T) {
	out, err := MarkdownToHTML(" \n ")
	require.NoError(t, err)
	assert.Equal(t, EmptyHTML, out)
}

func TestParseProjectTree_BoxDrawing(t *testing.T) {
	content := "# Project Structure\n\n```\nmy-app/\n├── src/\n│   ├── components/\n│   │   └── Button.jsx  # shared button\n│   └── index.js\n├── .env\n├── package.json\n└── schema.sql\n```"

	nodes := ParseProjectTree(content)
	require.Len(t, nodes, 7)

	assert.Equal(t, TreeNode{ID: "item-4", Name: "src", Level: 0, IsFolder: true, Kind: KindFolder}, nodes[0])
	assert.Equal(t, "components", nodes[1].Name)
	assert.Equal(t, 1, nodes[1].Level)

	button := nodes[2]
	assert.Equal(t, "Button.jsx", button.Name)
	assert.Equal(t, 2, button.Level)
	assert.False(t, button.IsFolder)
	assert.Equal(t, KindCode, button.Kind)
	assert.Equal(t, "shared button", button.Description)

	assert.Equal(t, KindCode, nodes[3].Kind)
	assert.Equal(t, 1, nodes[3].Level)
	assert.Equal(t, KindEnv, nodes[4].Kind)
	assert.Equal(t, KindConfig, nodes[5].Kind)
	assert.Equal(t, KindDatabase, nodes[6].Kind)
}

func TestParseProjectTree_Indented(t *testing.T) {
	content := "root\n  src/\n    App.test.js\n- docs\n  + README.md"

	nodes := ParseProjectTree(content)
	require.Len(t, nodes, 4)

	assert.Equal(t, "src", nodes[0].Name)
	assert.Equal(t, 1, nodes[0].Level)
	assert.True(t, nodes[0].IsFolder)

	assert.Equal(t, "App.test.js", nodes[1].Name)
	assert.Equal(t, 2, nodes[1].Level)
	assert.Equal(t, KindTest, nodes[1].Kind)

	assert.Equal(t, "docs", nodes[2].Name)
	assert.Equal(t, 1, nodes[2].Level)

	assert.Equal(t, "README.md", nodes[3].Name)
	assert.Equal(t, 2, nodes[3].Level)
	assert.Equal(t, KindFile, nodes[3].Kind)
}

func TestParseProjectTree_Empty(t *testing.T) {
	assert.Empty(t, ParseProjectTree(""))
	assert.Empty(t, ParseProjectTree("No tree here.\nJust prose."))
}

func TestParseReferences(t *testing.T) {
	content := `# References

Check https://github.com/vercel/next.js and github.com/facebook/react.
Also see https://github.com/vercel/next.js again.

Live: https://stripe.com/docs, https://stripe.com/docs and (https://linear.app)

## Architecture Patterns
- Clean Architecture https://blog.cleancoder.com
- [Hexagonal](https://alistair.cockburn.us/hexagonal-architecture/)

## Learning Resources
* Go by Example

## Tools & Libraries
- Vite

## Industry Examples
- Shopify checkout

## Other
- ignored bullet
`

	refs := ParseReferences(content)

	require.Len(t, refs.Repositories, 2)
	assert.Equal(t, Reference{Name: "next.js", URL: "https://github.com/vercel/next.js", Description: repoDescription}, refs.Repositories[0])
	assert.Equal(t, "https://github.com/facebook/react", refs.Repositories[1].URL)

	require.Len(t, refs.Websites, 4)
	assert.Equal(t, "stripe.com", refs.Websites[0].Name)
	assert.Equal(t, "https://stripe.com/docs", refs.Websites[0].URL)
	assert.Equal(t, "linear.app", refs.Websites[1].Name)
	assert.Equal(t, websiteDescription, refs.Websites[1].Description)

	require.Len(t, refs.Architecture, 2)
	assert.Equal(t, "Clean Architecture", refs.Architecture[0].Name)
	assert.Equal(t, "https://blog.cleancoder.com", refs.Architecture[0].URL)
	assert.Equal(t, "Hexagonal", refs.Architecture[1].Name)

	require.Len(t, refs.Learning, 1)
	assert.Equal(t, "Go by Example", refs.Learning[0].Name)
	assert.Empty(t, refs.Learning[0].URL)

	require.Len(t, refs.Tools, 1)
	require.Len(t, refs.Industry, 1)
}

func TestParseRequirements(t *testing.T) {
	text := "1. Users can sign up with email\n2) Users can reset passwords\n\n- Admin dashboard shows metrics\n*\n42\nshort\n2FA is required for admins\r\n   * Export reports as CSV   "

	got, err := ParseRequirements(text, FormatText, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Users can sign up with email",
		"Users can reset passwords",
		"Admin dashboard shows metrics",
		"2FA is required for admins",
		"Export reports as CSV",
	}, got)
}

func TestParseRequirements_MinLength(t *testing.T) {
	got, err := ParseRequirements("Search bar\nShopping cart with checkout", "", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Shopping cart with checkout"}, got)
}

func TestParseRequirements_HTML(t *testing.T) {
	html := "<h2>Features</h2><ul><li>Users can upload avatars</li><li>Notifications by email</li></ul>"

	got, err := ParseRequirements(html, FormatHTML, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Features", "Users can upload avatars", "Notifications by email"}, got)
}

func TestParseRequirements_UnknownFormat(t *testing.T) {
	_, err := ParseRequirements("x", "pdf", 0)
	assert.Error(t, err)
}
