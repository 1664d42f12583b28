package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hpn/hpn-blueprint/internal/domain"
	"github.com/hpn/hpn-blueprint/internal/render"
	"github.com/hpn/hpn-blueprint/internal/ui"
)

// Output formats of the generate command.
const (
	formatJSON  = "json"
	formatYAML  = "yaml"
	formatFiles = "files"
)

var genFlags struct {
	file        string
	provider    string
	model       string
	apiKey      string
	baseURL     string
	out         string
	format      string
	projectType string
	only        string
	frontend    string
	backend     string
	database    string
	cloud       string
}

func init() {
	f := generateCmd.Flags()
	f.StringVarP(&genFlags.file, "file", "f", "", "requirements file, one per line (\"-\" for stdin; .html is converted)")
	f.StringVar(&genFlags.provider, "provider", "openai", "provider name")
	f.StringVar(&genFlags.model, "model", "", "model (default: the provider's default)")
	f.StringVar(&genFlags.apiKey, "api-key", "", "API key (default: the configured key pool)")
	f.StringVar(&genFlags.baseURL, "base-url", "", "override the provider base URL")
	f.StringVarP(&genFlags.out, "out", "o", "", "output directory (default: stdout for json/yaml, . for files)")
	f.StringVar(&genFlags.format, "format", formatJSON, "output format: json, yaml or files")
	f.StringVar(&genFlags.projectType, "project-type", "", "project type (default from config)")
	f.StringVar(&genFlags.only, "only", "", "generate a single deliverable, e.g. sql-schema")
	f.StringVar(&genFlags.frontend, "frontend", "", "preferred frontend technology")
	f.StringVar(&genFlags.backend, "backend", "", "preferred backend technology")
	f.StringVar(&genFlags.database, "database", "", "preferred database")
	f.StringVar(&genFlags.cloud, "cloud", "", "preferred cloud platform")
	_ = generateCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(generateCmd)
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a blueprint from a requirements file",
	Example: "  blueprint generate -f requirements.txt --provider anthropic\n" +
		"  blueprint generate -f reqs.txt --format files -o ./blueprint\n" +
		"  blueprint generate -f reqs.txt --only sql-schema --provider ollama",
	RunE: runGenerate,
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	format := strings.ToLower(genFlags.format)
	if format != formatJSON && format != formatYAML && format != formatFiles {
		return fmt.Errorf("unsupported format %q (want json, yaml or files)", genFlags.format)
	}

	var only domain.DeliverableKind
	if genFlags.only != "" {
		kind, ok := domain.DeliverableBySlug(genFlags.only)
		if !ok {
			return fmt.Errorf("unknown deliverable %q", genFlags.only)
		}
		only = kind
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Logs go to stderr so stdout stays clean for the bundle.
	logCfg := cfg.Logging
	if logCfg.OutputPath == "" {
		logCfg.Format = "text"
	}
	logger := newLogger(cmd.ErrOrStderr(), logCfg.Level, logCfg.Format)
	if logCfg.OutputPath != "" {
		var closeLog func() error
		logger, closeLog, err = setupLogger(logCfg)
		if err != nil {
			return err
		}
		defer closeLog()
	}

	requirements, err := readRequirements(cmd.InOrStdin(), genFlags.file)
	if err != nil {
		return err
	}

	if noColor {
		ui.Disable()
	}
	console := ui.NewConsole(cmd.ErrOrStderr())

	gen, err := buildGenerator(cfg, cfg.KeyRing(), logger, console)
	if err != nil {
		return err
	}

	req := domain.GenerationRequest{
		Requirements: requirements,
		TechPreferences: domain.TechPreferences{
			Frontend: genFlags.frontend,
			Backend:  genFlags.backend,
			Database: genFlags.database,
			Cloud:    genFlags.cloud,
		},
		ProjectType: genFlags.projectType,
		APIConfig: &domain.APIConfig{
			Provider: domain.ParseProviderType(genFlags.provider),
			Model:    genFlags.model,
			APIKey:   genFlags.apiKey,
			BaseURL:  genFlags.baseURL,
		},
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	console.Info(fmt.Sprintf("Generating from %d requirements with %s", len(requirements), req.APIConfig.Provider))

	result, err := generate(ctx, gen, only, req)
	if err != nil {
		return err
	}

	written, err := writeResult(cmd.OutOrStdout(), result, only, format, genFlags.out)
	if err != nil {
		return err
	}
	for _, path := range written {
		logger.Info("wrote file", slog.String("path", path))
	}
	return nil
}

// bundleGenerator is the part of generator.Generator the command needs.
type bundleGenerator interface {
	GenerateAll(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error)
	Generate(ctx context.Context, kind domain.DeliverableKind, req domain.GenerationRequest) (string, error)
}

func generate(ctx context.Context, gen bundleGenerator, only domain.DeliverableKind, req domain.GenerationRequest) (*domain.GenerationResult, error) {
	if only == "" {
		return gen.GenerateAll(ctx, req)
	}

	text, err := gen.Generate(ctx, only, req)
	if err != nil {
		return nil, err
	}
	result := &domain.GenerationResult{}
	if err := result.Set(only, text); err != nil {
		return nil, err
	}
	return result, nil
}

// readRequirements loads the requirement lines from path, or from stdin when path is "-".
func readRequirements(stdin io.Reader, path string) ([]string, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read requirements: %w", err)
	}

	format := render.FormatText
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		format = render.FormatHTML
	}

	reqs, err := render.ParseRequirements(string(raw), format, 0)
	if err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return nil, fmt.Errorf("no requirements found in %s", path)
	}
	return reqs, nil
}

// writeResult writes the bundle to stdout or outDir and returns the files it created.
func writeResult(stdout io.Writer, result *domain.GenerationResult, only domain.DeliverableKind, format, outDir string) ([]string, error) {
	if format == formatFiles {
		if outDir == "" {
			outDir = "."
		}
		return writeFiles(result, only, outDir)
	}

	var (
		data []byte
		err  error
		name string
	)
	if format == formatYAML {
		data, err = yaml.Marshal(result)
		name = "project-data.yaml"
	} else {
		data, err = json.MarshalIndent(result, "", "  ")
		data = append(data, '\n')
		name = "project-data.json"
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}

	if outDir == "" {
		_, err := stdout.Write(data)
		return nil, err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	path := filepath.Join(outDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return []string{path}, nil
}

func writeFiles(result *domain.GenerationResult, only domain.DeliverableKind, outDir string) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	var written []string
	for _, kind := range domain.AllDeliverables {
		if only != "" && kind != only {
			continue
		}
		text := result.Get(kind)
		if kind == domain.DeliverableFlowDiagram {
			if code, ok := render.ExtractMermaid(text); ok {
				text = code
			}
		}

		path := filepath.Join(outDir, kind.FileName())
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}
