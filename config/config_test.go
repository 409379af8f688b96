package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	groq, ok := cfg.Provider("groq")
	require.True(t, ok)
	assert.Equal(t, 25, groq.RateLimit.MaxRequests)
	assert.Equal(t, 60, groq.RateLimit.WindowSeconds)

	openrouter, ok := cfg.Provider("openrouter")
	require.True(t, ok)
	assert.Equal(t, 200, openrouter.RateLimit.MaxRequests)

	_, ok = cfg.Provider("missing")
	assert.False(t, ok)
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := Default()
	cfg.Server.Addr = ""
	cfg.Providers[0].Kind = "bedrock"
	cfg.Providers[1].Name = "groq"
	cfg.Retrieval.Provider = "pgvector"
	cfg.Retrieval.BudgetUnit = "lines"
	cfg.Cache.Capacity = 0
	cfg.Pipeline.Generator = "nobody"

	err := cfg.Validate()
	require.Error(t, err)

	verrs, ok := err.(ValidationErrors)
	require.True(t, ok)

	fields := make(map[string]bool)
	for _, e := range verrs {
		fields[e.Field] = true
	}
	for _, want := range []string{
		"server.addr",
		"providers[0].kind",
		"providers[1].name",
		"retrieval.database_url",
		"retrieval.budget_unit",
		"cache.capacity",
		"pipeline.generator",
	} {
		assert.True(t, fields[want], "missing validation error for %s", want)
	}
	assert.Contains(t, err.Error(), "configuration error(s)")
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"GROQ_API_KEY":   "gsk_test",
		"GOOGLE_API_KEY": "AIza-test",
		"REDIS_ADDR":     "localhost:6379",
		"PORT":           "8081",
		"DATABASE_URL":   "postgres://localhost/med",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	cfg.ApplyEnv(lookup)

	groq, _ := cfg.Provider("groq")
	assert.Equal(t, "gsk_test", groq.APIKey)
	gemini, _ := cfg.Provider("gemini")
	assert.Equal(t, "AIza-test", gemini.APIKey)
	openrouter, _ := cfg.Provider("openrouter")
	assert.Empty(t, openrouter.APIKey)

	assert.Equal(t, ":8081", cfg.Server.Addr)
	assert.Equal(t, "redis", cfg.Session.Store)
	assert.Equal(t, "localhost:6379", cfg.Session.Redis.Address)
	assert.Equal(t, "postgres://localhost/med", cfg.Retrieval.DatabaseURL)
	assert.Empty(t, cfg.History.DSN)
}

func TestKeyUsable(t *testing.T) {
	tests := []struct {
		name string
		cfg  ProviderConfig
		want bool
	}{
		{"empty", ProviderConfig{KeyPrefix: "gsk_"}, false},
		{"placeholder", ProviderConfig{APIKey: "your_groq_api_key_here", KeyPrefix: "gsk_"}, false},
		{"wrong prefix", ProviderConfig{APIKey: "sk-abc", KeyPrefix: "gsk_"}, false},
		{"valid groq", ProviderConfig{APIKey: "gsk_abc123", KeyPrefix: "gsk_"}, true},
		{"no prefix required", ProviderConfig{APIKey: "AIza123"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.KeyUsable())
		})
	}
}

func TestMaskedKey(t *testing.T) {
	assert.Equal(t, "None", ProviderConfig{}.MaskedKey())
	assert.Equal(t, "***", ProviderConfig{APIKey: "short"}.MaskedKey())
	assert.Equal(t, "gsk_abcd...", ProviderConfig{APIKey: "gsk_abcdefgh"}.MaskedKey())
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "medassist.yaml")
	content := `
server:
  addr: ":9000"
cache:
  capacity: 42
retrieval:
  provider: keyword
  budget: 256
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Cache.Capacity)
	assert.Equal(t, "keyword", cfg.Retrieval.Provider)
	assert.Equal(t, 256, cfg.Retrieval.Budget)
	// untouched sections keep their defaults
	assert.Equal(t, "words", cfg.Retrieval.BudgetUnit)
	assert.Len(t, cfg.Providers, 3)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
