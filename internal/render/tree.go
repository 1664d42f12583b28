package render

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"
)

// NodeKind classifies an entry of a generated project tree.
type NodeKind string

const (
	KindFolder   NodeKind = "folder"
	KindCode     NodeKind = "code"
	KindConfig   NodeKind = "config"
	KindTest     NodeKind = "test"
	KindDatabase NodeKind = "database"
	KindEnv      NodeKind = "env"
	KindFile     NodeKind = "file"
)

// TreeNode is one line of a folder tree.
type TreeNode struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Level       int      `json:"level"`
	IsFolder    bool     `json:"isFolder"`
	Kind        NodeKind `json:"kind"`
	Description string   `json:"description,omitempty"`
}

var (
	boxLine    = regexp.MustCompile(`^(.*)(├──|└──|│\s+)(.+)$`)
	indentLine = regexp.MustCompile("^(\\s*)([|\\-+`]*)\\s*(.+)$")
	comment    = regexp.MustCompile(`\s+#\s*(.*)$`)
)

var wellKnownFolders = map[string]bool{
	"src": true, "components": true, "pages": true, "utils": true, "services": true,
	"tests": true, "config": true, "public": true, "assets": true, "docs": true,
}

// ParseProjectTree reads an ASCII or box-drawing folder tree out of model output.
// Lines that are not part of a tree are skipped.
func ParseProjectTree(content string) []TreeNode {
	var nodes []TreeNode

	for index, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}

		var (
			name  string
			level int
		)
		if m := boxLine.FindStringSubmatch(line); m != nil {
			name = m[3]
			level = utf8.RuneCountInString(m[1]) / 4
		} else if m := indentLine.FindStringSubmatch(line); m != nil {
			name = strings.TrimLeft(m[3], "|-+` \t")
			level = len(m[1]) / 2
			if m[2] != "" {
				level++
			}
			if level == 0 {
				continue
			}
		} else {
			continue
		}

		node, ok := newTreeNode(index, name, level)
		if ok {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

func newTreeNode(index int, raw string, level int) (TreeNode, bool) {
	raw = strings.TrimSpace(raw)

	var description string
	if m := comment.FindStringSubmatchIndex(raw); m != nil {
		description = strings.TrimSpace(raw[m[2]:m[3]])
		raw = strings.TrimSpace(raw[:m[0]])
	}

	trailingSlash := strings.HasSuffix(raw, "/")
	name := strings.TrimSuffix(raw, "/")
	if name == "" {
		return TreeNode{}, false
	}

	isFolder := trailingSlash || !strings.Contains(name, ".") || wellKnownFolders[strings.ToLower(name)]
	kind := KindFolder
	if !isFolder {
		kind = fileKind(name)
	}

	return TreeNode{
		ID:          fmt.Sprintf("item-%d", index),
		Name:        name,
		Level:       level,
		IsFolder:    isFolder,
		Kind:        kind,
		Description: description,
	}, true
}

func fileKind(name string) NodeKind {
	lower := strings.ToLower(name)
	if strings.Contains(lower, ".test.") || strings.Contains(lower, ".spec.") || strings.HasSuffix(lower, "_test.go") {
		return KindTest
	}
	if lower == ".env" || strings.HasPrefix(lower, ".env.") {
		return KindEnv
	}

	switch strings.TrimPrefix(path.Ext(lower), ".") {
	case "js", "jsx", "ts", "tsx", "go", "py", "java", "rb", "vue":
		return KindCode
	case "json", "yaml", "yml", "toml", "ini":
		return KindConfig
	case "test", "spec":
		return KindTest
	case "sql":
		return KindDatabase
	case "env":
		return KindEnv
	}
	return KindFile
}
