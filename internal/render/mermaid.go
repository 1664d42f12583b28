// Package render turns raw model output into shapes a client can display:
// clean Mermaid source, HTML, a project tree and categorised references.
// Everything here is best-effort text munging and never fails hard.
package render

import (
	"regexp"
	"strings"
)

var fencedMermaid = []*regexp.Regexp{
	regexp.MustCompile("(?s)```mermaid\n(.*?)\n```"),
	regexp.MustCompile("(?s)```mermaid(.*?)```"),
	regexp.MustCompile("(?s)```\n(flowchart.*?)\n```"),
	regexp.MustCompile("(?s)```\n(graph.*?)\n```"),
}

// bareKeywords are tried after the fenced patterns, in order.
var bareKeywords = []string{"flowchart", "graph"}

// ExtractMermaid finds a Mermaid diagram in model output and returns it cleaned.
// It reports false when nothing diagram-like is present.
func ExtractMermaid(content string) (string, bool) {
	if strings.TrimSpace(content) == "" {
		return "", false
	}

	var candidates []string
	for _, re := range fencedMermaid {
		if m := re.FindStringSubmatch(content); m != nil {
			candidates = append(candidates, m[1])
		}
	}
	for _, kw := range bareKeywords {
		if block, ok := bareBlock(content, kw); ok {
			candidates = append(candidates, block)
		}
	}

	for _, c := range candidates {
		code := CleanMermaid(strings.TrimSpace(c))
		if looksLikeDiagram(code) {
			return stripFences(code), true
		}
	}

	if strings.Contains(content, "flowchart") || strings.Contains(content, "graph") || strings.Contains(content, "-->") {
		return stripFences(content), true
	}
	return "", false
}

// bareBlock returns the text from the first kw up to a blank line, a "\n#" or the end.
func bareBlock(content, kw string) (string, bool) {
	start := strings.Index(content, kw)
	if start < 0 {
		return "", false
	}

	rest := content[start:]
	end := len(rest)
	for _, stop := range []string{"\n\n", "\n#"} {
		if i := strings.Index(rest[len(kw):], stop); i >= 0 && len(kw)+i < end {
			end = len(kw) + i
		}
	}
	return rest[:end], true
}

func looksLikeDiagram(code string) bool {
	for _, marker := range []string{"flowchart", "graph", "-->", "->"} {
		if strings.Contains(code, marker) {
			return true
		}
	}
	return false
}

func stripFences(code string) string {
	code = strings.ReplaceAll(code, "```mermaid", "")
	code = strings.ReplaceAll(code, "```", "")
	return strings.TrimSpace(code)
}

var (
	leadingNoise   = regexp.MustCompile(`(?i)^[^\n]*?(flowchart|graph)`)
	graphHeader    = regexp.MustCompile(`(?i)^graph\s+`)
	styleComment   = regexp.MustCompile(`(?m)Define Node Styles.*$`)
	styleLine      = regexp.MustCompile(`(?m)^[ \t]*style\s+\w+.*$`)
	classDefLine   = regexp.MustCompile(`(?m)^[ \t]*classDef.*$`)
	brokenArrow    = regexp.MustCompile(`([A-Z])\s*-\s*-+>`)
	longArrow      = regexp.MustCompile(`--+>`)
	spacedArrow    = regexp.MustCompile(`\s*-->\s*`)
	bracketLabel   = regexp.MustCompile(`(\w)[ \t]*\[[ \t]*([^\]\n]+)\]`)
	bareLabel      = regexp.MustCompile(`\b([A-Z])[ \t]+([^"\[\]{}()|\-\n]+)`)
	disallowed     = regexp.MustCompile(`[^\w\s\[\](){}":;.,\->|\n]`)
	blankLines     = regexp.MustCompile(`\n\s*\n`)
	lineIndent     = regexp.MustCompile(`(?m)^\s+`)
	diagramHeading = regexp.MustCompile(`(?i)^(flowchart|graph)\s+`)
)

// CleanMermaid rewrites loosely formatted model output into Mermaid the renderer accepts.
func CleanMermaid(code string) string {
	if code == "" {
		return code
	}

	code = leadingNoise.ReplaceAllString(code, "$1")
	code = graphHeader.ReplaceAllString(code, "flowchart ")

	code = styleComment.ReplaceAllString(code, "")
	code = styleLine.ReplaceAllString(code, "")
	code = classDefLine.ReplaceAllString(code, "")

	code = brokenArrow.ReplaceAllString(code, "$1 --> ")
	code = longArrow.ReplaceAllString(code, "-->")
	code = spacedArrow.ReplaceAllString(code, " --> ")

	code = bracketLabel.ReplaceAllStringFunc(code, quoteBracketLabel)
	code = wrapBareLabels(code)

	code = disallowed.ReplaceAllString(code, "")
	code = blankLines.ReplaceAllString(code, "\n")
	code = lineIndent.ReplaceAllString(code, "")
	code = strings.TrimSpace(code)

	if !diagramHeading.MatchString(code) {
		code = "flowchart TD\n" + code
	}

	lines := strings.Split(code, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// quoteBracketLabel turns A[x] into A["x"] and leaves already quoted labels alone.
func quoteBracketLabel(match string) string {
	m := bracketLabel.FindStringSubmatch(match)
	id, label := m[1], strings.TrimSpace(m[2])
	if len(label) >= 2 && strings.HasPrefix(label, `"`) && strings.HasSuffix(label, `"`) {
		return id + "[" + label + "]"
	}
	return id + `["` + strings.ReplaceAll(label, `"`, "") + `"]`
}

// wrapBareLabels turns `A Start -->` into `A["Start"] -->`.
// A label qualifies only when an arrow or the end of its line follows it.
func wrapBareLabels(code string) string {
	lines := strings.Split(code, "\n")
	for i, line := range lines {
		matches := bareLabel.FindAllStringSubmatchIndex(line, -1)
		if matches == nil {
			continue
		}

		var b strings.Builder
		last := 0
		for _, m := range matches {
			tail := strings.TrimLeft(line[m[1]:], " \t")
			if tail != "" && !strings.HasPrefix(tail, "-->") {
				continue
			}
			raw := line[m[4]:m[5]]
			label := strings.TrimSpace(raw)
			if label == "" {
				continue
			}
			b.WriteString(line[last:m[0]])
			b.WriteString(line[m[2]:m[3]])
			b.WriteString(`["` + label + `"]`)
			b.WriteString(raw[len(strings.TrimRight(raw, " \t")):])
			last = m[1]
		}
		b.WriteString(line[last:])
		lines[i] = b.String()
	}
	return strings.Join(lines, "\n")
}
