// Package config provides configuration management using the Singleton pattern.
// It loads configuration from .env files, environment variables and config.yaml using Viper.
package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hpn/hpn-blueprint/internal/domain"
)

// Configuration holds all application configuration values.
type Configuration struct {
	// Server configuration
	Server ServerConfig `json:"server" mapstructure:"server"`

	// Providers overrides the built-in vendor defaults, matched by type.
	Providers []ProviderOverride `json:"providers" mapstructure:"providers"`

	// Server-side API key pool, used when a request carries no key.
	KeyPool KeyPoolConfig `json:"key_pool" mapstructure:"key_pool"`

	// Generation tuning
	Generation GenerationConfig `json:"generation" mapstructure:"generation"`

	// Response cache for generation routes
	Cache CacheConfig `json:"cache" mapstructure:"cache"`

	// Prompt/response transcripts on disk
	Transcript TranscriptConfig `json:"transcript" mapstructure:"transcript"`

	// Logging configuration
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	// Host is the server bind address.
	Host string `json:"host" mapstructure:"host"`

	// Port is the server port number.
	Port int `json:"port" mapstructure:"port"`

	// ReadTimeoutSeconds is the maximum duration for reading the entire request.
	ReadTimeoutSeconds int `json:"read_timeout_seconds" mapstructure:"read_timeout_seconds"`

	// WriteTimeoutSeconds bounds the whole response. A full generation is slow, keep it generous.
	WriteTimeoutSeconds int `json:"write_timeout_seconds" mapstructure:"write_timeout_seconds"`

	// ShutdownTimeoutSeconds is the maximum duration to wait for active connections to finish.
	ShutdownTimeoutSeconds int `json:"shutdown_timeout_seconds" mapstructure:"shutdown_timeout_seconds"`

	// BodyLimitMB caps request bodies.
	BodyLimitMB int `json:"body_limit_mb" mapstructure:"body_limit_mb"`

	// AllowedOrigins is sent back in Access-Control-Allow-Origin. "*" allows everyone.
	AllowedOrigins []string `json:"allowed_origins" mapstructure:"allowed_origins"`
}

// ProviderOverride changes the defaults of one built-in provider.
// Unset fields keep the built-in value.
type ProviderOverride struct {
	Type         domain.ProviderType `json:"type" mapstructure:"type"`
	Name         string              `json:"name" mapstructure:"name"`
	BaseURL      string              `json:"base_url" mapstructure:"base_url"`
	DefaultModel string              `json:"default_model" mapstructure:"default_model"`

	// Enabled is nil when the file does not mention it.
	Enabled *bool `json:"enabled,omitempty" mapstructure:"enabled"`
}

// KeyPoolConfig holds API key pool configuration.
type KeyPoolConfig struct {
	// Keys is the list of API keys.
	Keys []domain.APIKey `json:"keys" mapstructure:"keys"`

	// RetryCount is the number of keys tried for one deliverable before giving up.
	RetryCount int `json:"retry_count" mapstructure:"retry_count"`

	// CooldownSeconds is how long a failing key stays out of rotation. Zero keeps it out.
	CooldownSeconds int `json:"cooldown_seconds" mapstructure:"cooldown_seconds"`
}

// GenerationConfig tunes deliverable generation.
type GenerationConfig struct {
	MaxTokens   int     `json:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `json:"temperature" mapstructure:"temperature"`

	// TimeoutSeconds is the HTTP timeout of one vendor call.
	TimeoutSeconds int `json:"timeout_seconds" mapstructure:"timeout_seconds"`

	// Concurrency limits how many deliverables run at once.
	Concurrency int `json:"concurrency" mapstructure:"concurrency"`

	DefaultProjectType string `json:"default_project_type" mapstructure:"default_project_type"`

	// Tokenizer estimates usage when a vendor reports none: "words" or "tiktoken[:model]".
	Tokenizer string `json:"tokenizer" mapstructure:"tokenizer"`
}

// CacheConfig configures the response cache.
type CacheConfig struct {
	Enabled    bool `json:"enabled" mapstructure:"enabled"`
	TTLSeconds int  `json:"ttl_seconds" mapstructure:"ttl_seconds"`
}

// TranscriptConfig configures the on-disk prompt log.
type TranscriptConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Dir     string `json:"dir" mapstructure:"dir"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `json:"level" mapstructure:"level"`

	// Format is the log format (json, text).
	Format string `json:"format" mapstructure:"format"`

	// OutputPath is the file path for log output (empty for stdout).
	OutputPath string `json:"output_path" mapstructure:"output_path"`
}

// configInstance holds the singleton configuration instance.
var (
	configInstance *Configuration
	configOnce     sync.Once
	configErr      error
)

// GetConfig returns the singleton Configuration instance.
// It initializes the configuration on first call using the default config path.
func GetConfig() (*Configuration, error) {
	configOnce.Do(func() {
		configInstance, configErr = Load("")
	})
	return configInstance, configErr
}

// GetConfigWithPath returns the singleton Configuration instance with a custom config path.
// The path only matters on the first call.
func GetConfigWithPath(configPath string) (*Configuration, error) {
	configOnce.Do(func() {
		configInstance, configErr = Load(configPath)
	})
	return configInstance, configErr
}

// ResetConfig resets the singleton instance.
// This is primarily used for testing purposes.
func ResetConfig() {
	configOnce = sync.Once{}
	configInstance = nil
	configErr = nil
}

// Validate checks every section and reports all problems at once.
func (c *Configuration) Validate() error {
	var problems []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, "server.port must be between 1 and 65535")
	}
	if c.Server.BodyLimitMB <= 0 {
		problems = append(problems, "server.body_limit_mb must be positive")
	}

	if c.KeyPool.RetryCount < 1 {
		problems = append(problems, "key_pool.retry_count must be at least 1")
	}
	if c.KeyPool.CooldownSeconds < 0 {
		problems = append(problems, "key_pool.cooldown_seconds cannot be negative")
	}
	for i, key := range c.KeyPool.Keys {
		if key.IsValid() {
			continue
		}
		if key.Key == "" {
			problems = append(problems, fmt.Sprintf("key_pool.keys[%d].key is required", i))
		}
		if !key.Provider.IsValid() {
			problems = append(problems, fmt.Sprintf("key_pool.keys[%d].provider '%s' is not supported", i, key.Provider))
		}
	}

	for i, p := range c.Providers {
		if !p.Type.IsValid() {
			problems = append(problems, fmt.Sprintf("providers[%d].type '%s' is not supported", i, p.Type))
		}
	}

	g := c.Generation
	if g.MaxTokens <= 0 {
		problems = append(problems, "generation.max_tokens must be positive")
	}
	if g.Temperature < 0 || g.Temperature > 2 {
		problems = append(problems, "generation.temperature must be between 0 and 2")
	}
	if g.Concurrency <= 0 {
		problems = append(problems, "generation.concurrency must be positive")
	}
	if g.TimeoutSeconds <= 0 {
		problems = append(problems, "generation.timeout_seconds must be positive")
	}
	if !isValidTokenizer(g.Tokenizer) {
		problems = append(problems, fmt.Sprintf(
			"generation.tokenizer '%s' is invalid, must be one of: words, tiktoken, tiktoken:<model>", g.Tokenizer))
	}

	if c.Cache.Enabled && c.Cache.TTLSeconds <= 0 {
		problems = append(problems, "cache.ttl_seconds must be positive when the cache is enabled")
	}
	if c.Transcript.Enabled && strings.TrimSpace(c.Transcript.Dir) == "" {
		problems = append(problems, "transcript.dir is required when transcripts are enabled")
	}

	if c.Logging.Level != "" && !isValidLogLevel(c.Logging.Level) {
		problems = append(problems, fmt.Sprintf(
			"logging.level '%s' is invalid, must be one of: debug, info, warn, error",
			c.Logging.Level,
		))
	}
	if c.Logging.Format != "" && c.Logging.Format != "json" && c.Logging.Format != "text" {
		problems = append(problems, fmt.Sprintf("logging.format '%s' is invalid, must be json or text", c.Logging.Format))
	}

	if len(problems) > 0 {
		return &ValidationError{Errors: problems}
	}
	return nil
}

func isValidTokenizer(name string) bool {
	switch {
	case name == "", name == "words", name == "heuristic", name == "tiktoken":
		return true
	case strings.HasPrefix(name, "tiktoken:") && len(name) > len("tiktoken:"):
		return true
	}
	return false
}

// isValidLogLevel checks if the log level is valid.
func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// ProviderList returns the built-in providers with file overrides applied.
// An override keeps the built-in value for every field it leaves unset.
func (c *Configuration) ProviderList() []domain.Provider {
	list := domain.DefaultProviders()
	for i := range list {
		p, ok := c.GetProvider(list[i].Type)
		if !ok {
			continue
		}
		if p.Name != "" {
			list[i].Name = p.Name
		}
		if p.BaseURL != "" {
			list[i].BaseURL = p.BaseURL
		}
		if p.DefaultModel != "" {
			list[i].DefaultModel = p.DefaultModel
		}
		if p.Enabled != nil {
			list[i].Enabled = *p.Enabled
		}
	}
	return list
}

// GetProvider returns a configured provider override by its type.
func (c *Configuration) GetProvider(providerType domain.ProviderType) (*ProviderOverride, bool) {
	for i := range c.Providers {
		if domain.ParseProviderType(string(c.Providers[i].Type)) == providerType {
			return &c.Providers[i], true
		}
	}
	return nil, false
}

// GetActiveKeys returns all enabled API keys.
func (c *Configuration) GetActiveKeys() []domain.APIKey {
	activeKeys := make([]domain.APIKey, 0)
	for _, key := range c.KeyPool.Keys {
		if key.Enabled {
			activeKeys = append(activeKeys, key)
		}
	}
	return activeKeys
}

// KeyRing builds the rotation pools from the active keys.
func (c *Configuration) KeyRing() *domain.KeyRing {
	return domain.NewKeyRing(c.GetActiveKeys(), c.Cooldown())
}

// Cooldown is the key cooldown as a duration.
func (c *Configuration) Cooldown() time.Duration {
	return time.Duration(c.KeyPool.CooldownSeconds) * time.Second
}

// CacheTTL is the response cache TTL as a duration.
func (c *Configuration) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// VendorTimeout is the HTTP timeout of a single vendor call.
func (c *Configuration) VendorTimeout() time.Duration {
	return time.Duration(c.Generation.TimeoutSeconds) * time.Second
}

// BodyLimit is the request body cap in bytes.
func (c *Configuration) BodyLimit() int64 {
	return int64(c.Server.BodyLimitMB) << 20
}
