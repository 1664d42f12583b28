package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/hpn/hpn-blueprint/internal/domain"
)

const (
	defaultConfigName = "config"
	defaultConfigType = "yaml"
	envPrefix         = "BLUEPRINT"

	// EnvAPIKeys is the primary environment variable for server-side API keys.
	// Comma separated, each entry either "provider:key" or a bare key whose
	// provider is detected from its prefix. It replaces keys from the file.
	EnvAPIKeys = "BLUEPRINT_API_KEYS"

	// DotEnvFile is loaded before anything else when it exists.
	DotEnvFile = ".env"
)

// Load reads configuration without touching the singleton.
// Priority, highest first:
//  1. BLUEPRINT_API_KEYS for the key pool
//  2. BLUEPRINT_* environment variables (including those set by .env)
//  3. config.yaml
//  4. defaults
func Load(configPath string) (*Configuration, error) {
	if err := loadDotEnv(DotEnvFile); err != nil {
		return nil, &ConfigError{Op: "dotenv", Err: err}
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName(defaultConfigName)
	v.SetConfigType(defaultConfigType)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/hpn-blueprint")
		v.AddConfigPath("$HOME/.hpn-blueprint")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, &ConfigError{
				Op:  "read",
				Err: fmt.Errorf("failed to read config file: %w", err),
			}
		}
	}

	var cfg Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ConfigError{
			Op:  "unmarshal",
			Err: fmt.Errorf("failed to unmarshal config: %w", err),
		}
	}
	normalizeKeys(&cfg)

	envKeysLoaded, err := loadAPIKeysFromPrimaryEnv(&cfg)
	if err != nil {
		return nil, &ConfigError{Op: "load_primary_env_keys", Err: err}
	}
	if !envKeysLoaded {
		loadAPIKeysFromLegacyEnv(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadDotEnv loads path into the process environment. Variables already set win.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.read_timeout_seconds", 30)
	v.SetDefault("server.write_timeout_seconds", 300)
	v.SetDefault("server.shutdown_timeout_seconds", 15)
	v.SetDefault("server.body_limit_mb", 50)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("key_pool.retry_count", 3)
	v.SetDefault("key_pool.cooldown_seconds", 60)

	v.SetDefault("generation.max_tokens", 8000)
	v.SetDefault("generation.temperature", 0.7)
	v.SetDefault("generation.timeout_seconds", 120)
	v.SetDefault("generation.concurrency", len(domain.AllDeliverables))
	v.SetDefault("generation.default_project_type", "web-application")
	v.SetDefault("generation.tokenizer", "words")

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl_seconds", 300)

	v.SetDefault("transcript.enabled", true)
	v.SetDefault("transcript.dir", "logs")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output_path", "")
}

// normalizeKeys lower-cases provider names coming from the file.
func normalizeKeys(cfg *Configuration) {
	for i := range cfg.KeyPool.Keys {
		cfg.KeyPool.Keys[i].Provider = domain.ParseProviderType(string(cfg.KeyPool.Keys[i].Provider))
	}
	for i := range cfg.Providers {
		cfg.Providers[i].Type = domain.ParseProviderType(string(cfg.Providers[i].Type))
	}
}

// loadAPIKeysFromPrimaryEnv loads API keys from BLUEPRINT_API_KEYS.
// Returns true if keys were loaded from this source.
func loadAPIKeysFromPrimaryEnv(cfg *Configuration) (bool, error) {
	envValue := strings.TrimSpace(os.Getenv(EnvAPIKeys))
	if envValue == "" {
		return false, nil
	}

	keys := make([]domain.APIKey, 0)
	for i, entry := range strings.Split(envValue, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		provider, key := splitKeyEntry(entry)
		if provider == "" {
			return false, fmt.Errorf("%s entry %d: cannot detect provider, use provider:key", EnvAPIKeys, i)
		}

		keys = append(keys, domain.APIKey{
			Key:      key,
			Name:     fmt.Sprintf("env_key_%d", i),
			Provider: provider,
			Enabled:  true,
		})
	}

	if len(keys) == 0 {
		return false, nil
	}
	cfg.KeyPool.Keys = keys
	return true, nil
}

// splitKeyEntry accepts "provider:key" or a bare key.
func splitKeyEntry(entry string) (domain.ProviderType, string) {
	if name, key, ok := strings.Cut(entry, ":"); ok {
		if p := domain.ParseProviderType(name); p.IsValid() {
			return p, strings.TrimSpace(key)
		}
	}
	return detectProviderFromKey(entry), entry
}

// detectProviderFromKey identifies the provider from well-known key prefixes.
// More specific prefixes are checked first.
func detectProviderFromKey(key string) domain.ProviderType {
	switch {
	case strings.HasPrefix(key, "sk-ant-"):
		return domain.ProviderAnthropic
	case strings.HasPrefix(key, "sk-"):
		return domain.ProviderOpenAI
	case strings.HasPrefix(key, "AIza"):
		return domain.ProviderGoogle
	case strings.HasPrefix(key, "gsk_"):
		return domain.ProviderGroq
	case strings.HasPrefix(key, "hf_"):
		return domain.ProviderHuggingFace
	}
	return ""
}

// loadAPIKeysFromLegacyEnv loads BLUEPRINT_API_KEY_<PROVIDER>_<N> variables.
func loadAPIKeysFromLegacyEnv(cfg *Configuration) {
	prefix := envPrefix + "_API_KEY_"

	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, prefix) {
			continue
		}

		name, value, ok := strings.Cut(env, "=")
		if !ok || value == "" {
			continue
		}

		keyName := strings.TrimPrefix(name, prefix)
		providerName, _, _ := strings.Cut(keyName, "_")
		provider := domain.ParseProviderType(providerName)
		if !provider.IsValid() {
			continue
		}

		exists := false
		for _, existing := range cfg.KeyPool.Keys {
			if existing.Key == value {
				exists = true
				break
			}
		}
		if exists {
			continue
		}

		cfg.KeyPool.Keys = append(cfg.KeyPool.Keys, domain.APIKey{
			Key:      value,
			Name:     "env_" + strings.ToLower(keyName),
			Provider: provider,
			Enabled:  true,
		})
	}
}
