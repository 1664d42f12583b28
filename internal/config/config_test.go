package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpn/hpn-blueprint/internal/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvAPIKeys, "")

	cfg, err := Load(writeConfig(t, "server:\n  port: 3001\n"))
	require.NoError(t, err)

	assert.Equal(t, 3001, cfg.Server.Port)
	assert.Equal(t, int64(50<<20), cfg.BodyLimit())
	assert.Equal(t, 3, cfg.KeyPool.RetryCount)
	assert.Equal(t, 8000, cfg.Generation.MaxTokens)
	assert.InDelta(t, 0.7, cfg.Generation.Temperature, 1e-9)
	assert.Equal(t, 7, cfg.Generation.Concurrency)
	assert.Equal(t, "web-application", cfg.Generation.DefaultProjectType)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "logs", cfg.Transcript.Dir)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Len(t, cfg.ProviderList(), len(domain.AllProviders))
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	t.Setenv(EnvAPIKeys, "")
	t.Setenv("BLUEPRINT_SERVER_PORT", "9090")

	path := writeConfig(t, `
server:
  port: 8080
providers:
  - type: Ollama
    base_url: http://gpu-box:11434
    default_model: qwen2
    enabled: true
  - type: groq
    enabled: false
key_pool:
  cooldown_seconds: 5
  keys:
    - key: sk-file-1
      provider: OpenAI
      enabled: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	require.Len(t, cfg.KeyPool.Keys, 1)
	assert.Equal(t, domain.ProviderOpenAI, cfg.KeyPool.Keys[0].Provider)

	providers := cfg.ProviderList()
	ollama := providers[5]
	assert.Equal(t, domain.ProviderOllama, ollama.Type)
	assert.Equal(t, "http://gpu-box:11434", ollama.BaseURL)
	assert.Equal(t, "qwen2", ollama.DefaultModel)
	assert.Equal(t, "Ollama", ollama.Name)

	groq := providers[6]
	assert.False(t, groq.Enabled)
	assert.Equal(t, "https://api.groq.com/openai/v1", groq.BaseURL)

	ring := cfg.KeyRing()
	assert.True(t, ring.HasKeys(domain.ProviderOpenAI))
}

func TestLoad_PrimaryEnvKeysReplaceFileKeys(t *testing.T) {
	t.Setenv(EnvAPIKeys, "sk-ant-abc, sk-openai, AIzaXYZ, gsk_123, hf_456, together:tg-789")

	path := writeConfig(t, "key_pool:\n  keys:\n    - key: sk-file\n      provider: openai\n      enabled: true\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	got := map[string]domain.ProviderType{}
	for _, k := range cfg.KeyPool.Keys {
		got[k.Key] = k.Provider
	}
	assert.Equal(t, map[string]domain.ProviderType{
		"sk-ant-abc": domain.ProviderAnthropic,
		"sk-openai":  domain.ProviderOpenAI,
		"AIzaXYZ":    domain.ProviderGoogle,
		"gsk_123":    domain.ProviderGroq,
		"hf_456":     domain.ProviderHuggingFace,
		"tg-789":     domain.ProviderTogether,
	}, got)
}

func TestLoad_PrimaryEnvUndetectableKey(t *testing.T) {
	t.Setenv(EnvAPIKeys, "mystery-key")

	_, err := Load(writeConfig(t, ""))
	require.Error(t, err)
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "load_primary_env_keys", cerr.Op)
}

func TestLoad_LegacyEnvKeys(t *testing.T) {
	t.Setenv(EnvAPIKeys, "")
	t.Setenv("BLUEPRINT_API_KEY_COHERE_0", "co-1")
	t.Setenv("BLUEPRINT_API_KEY_NOPE_0", "ignored")

	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)

	keys := cfg.GetActiveKeys()
	require.Len(t, keys, 1)
	assert.Equal(t, "co-1", keys[0].Key)
	assert.Equal(t, domain.ProviderCohere, keys[0].Provider)

	ring := cfg.KeyRing()
	assert.True(t, ring.HasKeys(domain.ProviderCohere))
	assert.False(t, ring.HasKeys(domain.ProviderAnthropic))
}

func TestLoad_ModelOnlyOverrideKeepsProviderEnabled(t *testing.T) {
	t.Setenv(EnvAPIKeys, "")

	cfg, err := Load(writeConfig(t, "providers:\n  - type: openai\n    default_model: gpt-4o\n"))
	require.NoError(t, err)

	require.Len(t, cfg.Providers, 1)
	assert.Nil(t, cfg.Providers[0].Enabled)

	openai := cfg.ProviderList()[0]
	assert.Equal(t, domain.ProviderOpenAI, openai.Type)
	assert.Equal(t, "gpt-4o", openai.DefaultModel)
	assert.Equal(t, "https://api.openai.com/v1", openai.BaseURL)
	assert.True(t, openai.Enabled)
}

func TestLoad_ValidationAggregates(t *testing.T) {
	t.Setenv(EnvAPIKeys, "")

	path := writeConfig(t, `
server:
  port: 70000
generation:
  temperature: 3
  tokenizer: sentencepiece
logging:
  level: verbose
key_pool:
  keys:
    - key: ""
      provider: acme
`)
	_, err := Load(path)
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	for _, field := range []string{"server.port", "generation.temperature", "generation.tokenizer", "logging.level", "key_pool.keys[0].key", "key_pool.keys[0].provider"} {
		assert.Contains(t, err.Error(), field)
	}
	assert.NotEmpty(t, verr.Errors)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("BLUEPRINT_API_KEYS=groq:gsk_dotenv\n"), 0o600))
	t.Chdir(dir)
	// godotenv never overrides an existing variable, so make sure it is unset.
	t.Setenv(EnvAPIKeys, "")
	require.NoError(t, os.Unsetenv(EnvAPIKeys))

	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	require.Len(t, cfg.KeyPool.Keys, 1)
	assert.Equal(t, domain.ProviderGroq, cfg.KeyPool.Keys[0].Provider)
}

func TestGetConfigWithPath_Singleton(t *testing.T) {
	t.Setenv(EnvAPIKeys, "")
	ResetConfig()
	t.Cleanup(ResetConfig)

	first, err := GetConfigWithPath(writeConfig(t, "server:\n  port: 4000\n"))
	require.NoError(t, err)
	second, err := GetConfigWithPath(writeConfig(t, "server:\n  port: 5000\n"))
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 4000, second.Server.Port)
}
