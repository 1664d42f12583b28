// Package generator turns a requirement list into the seven project deliverables.
// It owns prompt construction, provider selection, server key rotation and the
// concurrent fan-out of a full generation.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hpn/hpn-blueprint/internal/adapter"
	"github.com/hpn/hpn-blueprint/internal/domain"
	"github.com/hpn/hpn-blueprint/internal/transcript"
)

const (
	// DefaultMaxRetries is the number of server keys tried before giving up.
	DefaultMaxRetries = 3

	// DefaultProjectType is used when a request leaves the project type empty.
	DefaultProjectType = "web-application"

	// ConnectivityReply is the answer the connectivity prompt asks for.
	ConnectivityReply = "API is working!"
)

var (
	// ErrNoRequirements means the request carried no requirement lines.
	ErrNoRequirements = errors.New("Requirements are required")

	// ErrNoAPIConfig means the request did not say which provider to use.
	ErrNoAPIConfig = errors.New("API configuration is required")

	// ErrProviderDisabled means the provider is switched off in configuration.
	ErrProviderDisabled = errors.New("Provider is disabled")
)

// IsBadRequest reports whether err was caused by the caller's input.
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrNoRequirements) ||
		errors.Is(err, ErrNoAPIConfig) ||
		errors.Is(err, ErrProviderDisabled) ||
		errors.Is(err, adapter.ErrUnsupportedProvider)
}

// Factory builds the adapter for one attempt. adapter.New is the default.
type Factory func(cfg domain.APIConfig, opts ...adapter.Option) (adapter.TextGenerator, error)

// Observer is notified about key rotation and finished deliverables.
// Calls may arrive concurrently.
type Observer interface {
	KeySwitched(provider domain.ProviderType, from, to string)
	KeyDead(provider domain.ProviderType, key, reason string)
	Delivered(kind domain.DeliverableKind, provider domain.ProviderType, latency time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) KeySwitched(domain.ProviderType, string, string)                          {}
func (nopObserver) KeyDead(domain.ProviderType, string, string)                              {}
func (nopObserver) Delivered(domain.DeliverableKind, domain.ProviderType, time.Duration, error) {}

// Generator produces deliverables from requirements.
type Generator struct {
	logger   *slog.Logger
	recorder transcript.Recorder
	counter  TokenCounter
	observer Observer
	keys     *domain.KeyRing
	factory  Factory

	adapterOpts []adapter.Option
	providers   map[domain.ProviderType]domain.Provider

	maxRetries         int
	concurrency        int
	maxTokens          int
	temperature        *float64
	defaultProjectType string

	now func() time.Time
}

// Option is a functional option for configuring Generator.
type Option func(*Generator)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithRecorder sets where prompts and responses are kept.
func WithRecorder(r transcript.Recorder) Option {
	return func(g *Generator) {
		if r != nil {
			g.recorder = r
		}
	}
}

// WithTokenCounter sets the counter used when a vendor reports no usage.
func WithTokenCounter(c TokenCounter) Option {
	return func(g *Generator) {
		if c != nil {
			g.counter = c
		}
	}
}

// WithObserver sets the rotation and progress listener.
func WithObserver(o Observer) Option {
	return func(g *Generator) {
		if o != nil {
			g.observer = o
		}
	}
}

// WithKeyRing sets the server-side key pools used when a request has no key.
func WithKeyRing(ring *domain.KeyRing) Option {
	return func(g *Generator) {
		g.keys = ring
	}
}

// WithMaxRetries sets how many server keys are tried per deliverable.
func WithMaxRetries(max int) Option {
	return func(g *Generator) {
		if max > 0 {
			g.maxRetries = max
		}
	}
}

// WithConcurrency limits how many deliverables are generated at once.
func WithConcurrency(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.concurrency = n
		}
	}
}

// WithFactory replaces adapter.New. Tests use it to inject fakes.
func WithFactory(f Factory) Option {
	return func(g *Generator) {
		if f != nil {
			g.factory = f
		}
	}
}

// WithAdapterOptions appends options passed to every adapter (timeouts, HTTP client).
func WithAdapterOptions(opts ...adapter.Option) Option {
	return func(g *Generator) {
		g.adapterOpts = append(g.adapterOpts, opts...)
	}
}

// WithProviders overrides the built-in provider defaults (base URL, default model, enabled).
func WithProviders(providers []domain.Provider) Option {
	return func(g *Generator) {
		for _, p := range providers {
			if p.Type.IsValid() {
				g.providers[p.Type] = p
			}
		}
	}
}

// WithMaxTokens sets the completion budget of every deliverable.
func WithMaxTokens(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxTokens = n
		}
	}
}

// WithTemperature sets the sampling temperature of every deliverable.
func WithTemperature(t float64) Option {
	return func(g *Generator) {
		g.temperature = adapter.Float(t)
	}
}

// WithDefaultProjectType sets the project type used when a request has none.
func WithDefaultProjectType(pt string) Option {
	return func(g *Generator) {
		if pt = strings.TrimSpace(pt); pt != "" {
			g.defaultProjectType = pt
		}
	}
}

// New creates a Generator.
func New(opts ...Option) *Generator {
	g := &Generator{
		logger:             slog.Default(),
		recorder:           transcript.Nop{},
		counter:            WordCounter{},
		observer:           nopObserver{},
		factory:            adapter.New,
		providers:          make(map[domain.ProviderType]domain.Provider),
		maxRetries:         DefaultMaxRetries,
		concurrency:        len(domain.AllDeliverables),
		defaultProjectType: DefaultProjectType,
		now:                time.Now,
	}
	for _, p := range domain.DefaultProviders() {
		g.providers[p.Type] = p
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// ProviderStatus is one row of the provider catalogue.
type ProviderStatus struct {
	domain.Provider
	RequiresAPIKey bool `json:"requires_api_key"`
	ServerKeys     int  `json:"server_keys"`
}

// Providers returns the catalogue in display order, with server key availability.
func (g *Generator) Providers() []ProviderStatus {
	out := make([]ProviderStatus, 0, len(domain.AllProviders))
	for _, t := range domain.AllProviders {
		st := ProviderStatus{Provider: g.providers[t], RequiresAPIKey: t.RequiresAPIKey()}
		if km := g.keys.Manager(t); km != nil {
			st.ServerKeys = km.ActiveKeyCount()
		}
		out = append(out, st)
	}
	return out
}

// GenerateAll produces every deliverable concurrently.
//
// A failure in one of the required deliverables cancels the rest and fails the
// run. Optional deliverables degrade to a placeholder document instead.
func (g *Generator) GenerateAll(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
	req, cfg, err := g.prepare(req)
	if err != nil {
		return nil, err
	}

	start := g.now()
	result := &domain.GenerationResult{}

	var (
		mu    sync.Mutex
		total domain.Usage
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)

	for _, kind := range domain.AllDeliverables {
		eg.Go(func() error {
			text, usage, err := g.generate(egCtx, kind, req, cfg)
			if err != nil {
				if !kind.Optional() {
					return err
				}
				g.logger.Warn("optional deliverable failed",
					slog.String("deliverable", string(kind)),
					slog.String("error", err.Error()),
				)
				text = Placeholder(kind, err)
			}

			mu.Lock()
			defer mu.Unlock()
			total.Add(usage)
			return result.Set(kind, text)
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	result.Metadata = domain.Metadata{
		ID:                uuid.New().String(),
		GeneratedAt:       g.now().UTC(),
		RequirementsCount: len(req.Requirements),
		ProjectType:       req.ProjectType,
		Provider:          cfg.Provider.String(),
		Model:             cfg.Model,
		DurationMs:        g.now().Sub(start).Milliseconds(),
		Usage:             total,
	}

	g.logger.Info("generation completed",
		slog.String("id", result.Metadata.ID),
		slog.String("provider", result.Metadata.Provider),
		slog.String("model", result.Metadata.Model),
		slog.Int("requirements", result.Metadata.RequirementsCount),
		slog.Int64("duration_ms", result.Metadata.DurationMs),
		slog.Int("total_tokens", total.TotalTokens),
	)

	return result, nil
}

// Generate produces a single deliverable.
func (g *Generator) Generate(ctx context.Context, kind domain.DeliverableKind, req domain.GenerationRequest) (string, error) {
	if !kind.IsValid() {
		return "", fmt.Errorf("unknown deliverable %q", kind)
	}
	req, cfg, err := g.prepare(req)
	if err != nil {
		return "", err
	}
	text, _, err := g.generate(ctx, kind, req, cfg)
	return text, err
}

// Placeholder is the document that stands in for a failed optional deliverable.
func Placeholder(kind domain.DeliverableKind, cause error) string {
	return fmt.Sprintf("# %s\n\n⚠️ Generation failed: %s\n\nPlease check the logs for details.", kind.Title(), cause)
}

// TestProvider sends the connectivity prompt and returns the model's reply.
func (g *Generator) TestProvider(ctx context.Context, cfg *domain.APIConfig) (string, error) {
	resolved, err := g.resolveConfig(cfg)
	if err != nil {
		return "", err
	}

	resp, err := g.complete(ctx, resolved, adapter.TextRequest{
		Prompt:      ConnectivityPrompt,
		Model:       resolved.Model,
		MaxTokens:   100,
		Temperature: adapter.Float(0.1),
	})
	if err != nil {
		g.logger.Warn("provider test failed",
			slog.String("provider", resolved.Provider.String()),
			slog.String("error", err.Error()),
		)
		return "", err
	}
	return resp.Text, nil
}

// prepare validates the request and fills in defaults.
func (g *Generator) prepare(req domain.GenerationRequest) (domain.GenerationRequest, domain.APIConfig, error) {
	reqs := make([]string, 0, len(req.Requirements))
	for _, r := range req.Requirements {
		if r = strings.TrimSpace(r); r != "" {
			reqs = append(reqs, r)
		}
	}
	if len(reqs) == 0 {
		return req, domain.APIConfig{}, ErrNoRequirements
	}
	req.Requirements = reqs

	if strings.TrimSpace(req.ProjectType) == "" {
		req.ProjectType = g.defaultProjectType
	}

	cfg, err := g.resolveConfig(req.APIConfig)
	if err != nil {
		return req, domain.APIConfig{}, err
	}
	return req, cfg, nil
}

// resolveConfig normalizes the provider name and fills the model and base URL.
func (g *Generator) resolveConfig(in *domain.APIConfig) (domain.APIConfig, error) {
	if in == nil || strings.TrimSpace(string(in.Provider)) == "" {
		return domain.APIConfig{}, ErrNoAPIConfig
	}

	cfg := *in
	cfg.Provider = domain.ParseProviderType(string(in.Provider))
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)

	defaults, ok := g.providers[cfg.Provider]
	if !ok || !cfg.Provider.IsValid() {
		return domain.APIConfig{}, fmt.Errorf("%w: %s", adapter.ErrUnsupportedProvider, in.Provider)
	}
	if !defaults.Enabled {
		return domain.APIConfig{}, fmt.Errorf("%w: %s", ErrProviderDisabled, cfg.Provider)
	}
	if cfg.Model == "" {
		cfg.Model = defaults.DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	return cfg, nil
}

// generate runs one deliverable and records the exchange.
func (g *Generator) generate(ctx context.Context, kind domain.DeliverableKind, req domain.GenerationRequest, cfg domain.APIConfig) (string, domain.Usage, error) {
	prompt, err := BuildPrompt(kind, req)
	if err != nil {
		return "", domain.Usage{}, err
	}

	ex := transcript.Exchange{
		Tag:               kind.Tag(),
		Provider:          cfg.Provider.String(),
		Model:             cfg.Model,
		RequirementsCount: len(req.Requirements),
		ProjectType:       req.ProjectType,
		Prompt:            prompt,
	}

	g.logger.Debug("generating deliverable",
		slog.String("deliverable", string(kind)),
		slog.String("provider", ex.Provider),
		slog.String("model", ex.Model),
	)

	start := g.now()
	resp, err := g.complete(ctx, cfg, adapter.TextRequest{
		Prompt:      prompt,
		Model:       cfg.Model,
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	})
	latency := g.now().Sub(start)
	g.observer.Delivered(kind, cfg.Provider, latency, err)

	if err != nil {
		if _, rerr := g.recorder.RecordError(context.WithoutCancel(ctx), ex, err); rerr != nil {
			g.logger.Warn("failed to record transcript", slog.String("error", rerr.Error()))
		}
		g.logger.Error("deliverable failed",
			slog.String("deliverable", string(kind)),
			slog.String("error", err.Error()),
		)
		return "", domain.Usage{}, fmt.Errorf("Failed to generate %s: %w", kind.Noun(), err)
	}

	usage := estimateUsage(g.counter, prompt, resp.Text)
	if resp.Usage != nil {
		usage = *resp.Usage
	}

	ex.Response = resp.Text
	ex.Extra = map[string]any{
		"durationMs":   latency.Milliseconds(),
		"finishReason": resp.FinishReason,
		"totalTokens":  usage.TotalTokens,
	}
	if _, rerr := g.recorder.Record(context.WithoutCancel(ctx), ex); rerr != nil {
		g.logger.Warn("failed to record transcript", slog.String("error", rerr.Error()))
	}

	g.logger.Info("deliverable generated",
		slog.String("deliverable", string(kind)),
		slog.Int("length", len(resp.Text)),
		slog.Duration("latency", latency),
	)

	return resp.Text, usage, nil
}

// complete sends one request. A key supplied by the client is used as is.
// Otherwise keys are borrowed from the server pool, rotating away from keys
// that fail with rate-limit or server errors.
func (g *Generator) complete(ctx context.Context, cfg domain.APIConfig, req adapter.TextRequest) (adapter.TextResponse, error) {
	if cfg.APIKey != "" || !cfg.Provider.RequiresAPIKey() {
		return g.once(ctx, cfg, req)
	}

	km := g.keys.Manager(cfg.Provider)
	if km == nil || km.TotalKeyCount() == 0 {
		return adapter.TextResponse{}, fmt.Errorf("%w %s", adapter.ErrAPIKeyRequired, cfg.Provider)
	}

	var lastErr error
	var prev string

	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		key, err := km.GetNextKey()
		if err != nil {
			g.logger.Warn("no keys available",
				slog.String("provider", cfg.Provider.String()),
				slog.Int("attempt", attempt),
			)
			if lastErr != nil {
				return adapter.TextResponse{}, lastErr
			}
			return adapter.TextResponse{}, fmt.Errorf("%s: %w", cfg.Provider, err)
		}
		if prev != "" {
			g.observer.KeySwitched(cfg.Provider, prev, key)
		}

		resp, err := g.once(ctx, cfg.WithKey(key), req)
		if err == nil {
			return resp, nil
		}
		if !adapter.IsRetryable(err) || ctx.Err() != nil {
			return adapter.TextResponse{}, err
		}

		g.logger.Warn("retryable error, rotating key",
			slog.String("provider", cfg.Provider.String()),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
		km.MarkAsDead(key)
		g.observer.KeyDead(cfg.Provider, key, err.Error())
		lastErr = err
		prev = key
	}

	g.logger.Error("max retries exhausted",
		slog.String("provider", cfg.Provider.String()),
		slog.Int("max_retries", g.maxRetries),
	)
	return adapter.TextResponse{}, lastErr
}

func (g *Generator) once(ctx context.Context, cfg domain.APIConfig, req adapter.TextRequest) (adapter.TextResponse, error) {
	gen, err := g.factory(cfg, g.adapterOpts...)
	if err != nil {
		return adapter.TextResponse{}, err
	}
	return gen.Generate(ctx, req)
}
