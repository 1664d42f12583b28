// Package transcript keeps a copy of every prompt and model answer on disk.
// Files are plain text with a YAML metadata block so they can be grepped or
// parsed back. API keys never reach this package.
package transcript

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Exchange is one prompt/response pair.
type Exchange struct {
	Tag               string         `yaml:"type"`
	Provider          string         `yaml:"provider"`
	Model             string         `yaml:"model"`
	RequirementsCount int            `yaml:"requirementsCount"`
	ProjectType       string         `yaml:"projectType"`
	Prompt            string         `yaml:"-"`
	Response          string         `yaml:"-"`
	Extra             map[string]any `yaml:"extra,omitempty"`
}

// Recorder persists exchanges. Implementations must be safe for concurrent use.
type Recorder interface {
	// Record stores a successful exchange and returns the file name used.
	Record(ctx context.Context, ex Exchange) (string, error)

	// RecordError stores a failed exchange and returns the file name used.
	RecordError(ctx context.Context, ex Exchange, cause error) (string, error)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Record(context.Context, Exchange) (string, error)             { return "", nil }
func (Nop) RecordError(context.Context, Exchange, error) (string, error) { return "", nil }

// FileRecorder writes one file per exchange into a directory.
type FileRecorder struct {
	dir string
	now func() time.Time

	mu sync.Mutex
}

// NewFileRecorder creates dir if needed.
func NewFileRecorder(dir string) (*FileRecorder, error) {
	if dir == "" {
		return nil, errors.New("transcript directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create transcript directory: %w", err)
	}
	return &FileRecorder{dir: dir, now: time.Now}, nil
}

// Dir returns the directory files are written to.
func (r *FileRecorder) Dir() string {
	return r.dir
}

func (r *FileRecorder) Record(ctx context.Context, ex Exchange) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	at := r.now().UTC()

	meta, err := yaml.Marshal(ex)
	if err != nil {
		return "", fmt.Errorf("failed to encode transcript metadata: %w", err)
	}

	var b strings.Builder
	b.WriteString("\n=== AI PROJECT GENERATOR LOG ===\n")
	fmt.Fprintf(&b, "Type: %s\n", ex.Tag)
	fmt.Fprintf(&b, "Timestamp: %s\n", at.Format(time.RFC3339Nano))
	fmt.Fprintf(&b, "Provider: %s\n", orUnknown(ex.Provider))
	fmt.Fprintf(&b, "Model: %s\n", orUnknown(ex.Model))
	fmt.Fprintf(&b, "Requirements Count: %d\n", ex.RequirementsCount)
	fmt.Fprintf(&b, "Project Type: %s\n", orUnknown(ex.ProjectType))
	b.WriteString("\n=== PROMPT ===\n")
	b.WriteString(ex.Prompt)
	b.WriteString("\n\n=== RESPONSE ===\n")
	b.WriteString(ex.Response)
	b.WriteString("\n\n=== METADATA ===\n")
	b.Write(meta)
	b.WriteString("\n=== END LOG ===\n")

	return r.write(ex.Tag, at, b.String())
}

func (r *FileRecorder) RecordError(ctx context.Context, ex Exchange, cause error) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	at := r.now().UTC()

	meta, err := yaml.Marshal(ex)
	if err != nil {
		return "", fmt.Errorf("failed to encode transcript metadata: %w", err)
	}

	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}

	var b strings.Builder
	b.WriteString("\n=== ERROR LOG ===\n")
	fmt.Fprintf(&b, "Type: %s\n", ex.Tag)
	fmt.Fprintf(&b, "Timestamp: %s\n", at.Format(time.RFC3339Nano))
	fmt.Fprintf(&b, "Error Message: %s\n", msg)
	b.WriteString("\n=== CONTEXT ===\n")
	b.Write(meta)
	if ex.Prompt != "" {
		b.WriteString("\n=== PROMPT ===\n")
		b.WriteString(ex.Prompt)
		b.WriteString("\n")
	}
	b.WriteString("\n=== END ERROR LOG ===\n")

	return r.write("ERROR_"+ex.Tag, at, b.String())
}

// write creates <prefix>_<timestamp>.txt, adding a counter when the name is taken.
func (r *FileRecorder) write(prefix string, at time.Time, content string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	base := fmt.Sprintf("%s_%s", sanitize(prefix), FileTimestamp(at))
	name := base + ".txt"
	for i := 1; ; i++ {
		f, err := os.OpenFile(filepath.Join(r.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) && i < 100 {
			name = fmt.Sprintf("%s-%d.txt", base, i)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create transcript file: %w", err)
		}

		_, werr := f.WriteString(content)
		cerr := f.Close()
		if werr != nil {
			return "", fmt.Errorf("failed to write transcript file: %w", werr)
		}
		if cerr != nil {
			return "", fmt.Errorf("failed to close transcript file: %w", cerr)
		}
		return name, nil
	}
}

// FileTimestamp formats t like an ISO-8601 instant with ':' and '.' replaced by '-'.
func FileTimestamp(t time.Time) string {
	s := t.UTC().Format("2006-01-02T15:04:05.000Z")
	return strings.NewReplacer(":", "-", ".", "-").Replace(s)
}

func sanitize(tag string) string {
	if tag == "" {
		return "UNKNOWN"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		}
		return '_'
	}, tag)
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
