// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/course-engine/internal/secrets"
	"github.com/pdiddy/course-engine/pkg/types"
)

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v, secrets.Set{secrets.GeminiKey: "gm-key", secrets.TavilyKey: "tv-key"})
	require.NoError(t, err)

	assert.Equal(t, types.ProviderGemini, cfg.AI.Provider)
	assert.Equal(t, DefaultModel, cfg.AI.Model)
	assert.Equal(t, DefaultTemperature, cfg.AI.Temperature)
	assert.Equal(t, DefaultMaxTokens, cfg.AI.MaxTokens)
	assert.Equal(t, DefaultTimeout, cfg.AI.Timeout)
	assert.Equal(t, "gm-key", cfg.AI.APIKey)
	assert.Equal(t, "tv-key", cfg.WebSearch.TavilyAPIKey)
	assert.Equal(t, []string{"tavily", "duckduckgo"}, cfg.WebSearch.Backends)
	assert.Equal(t, 15*time.Second, cfg.WebSearch.Timeout)
	assert.Equal(t, DefaultUserAgent, cfg.WebSearch.UserAgent)
	assert.Equal(t, DefaultLibraryDir, cfg.Library.Dir)
	assert.Equal(t, DefaultSessionTTL, cfg.Session.TTL)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 500, cfg.PDF.ChunkSize)
}

func TestInitReadsFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "course-engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
ai:
  provider: Anthropic
  model: claude-sonnet-4-5
  temperature: 0.2
  timeout: 90s
library:
  dir: /srv/library
session:
  ttl: 10m
`), 0o644))
	t.Setenv("COURSE_ENGINE_AI_MAX_TOKENS", "8000")
	t.Setenv("COURSE_ENGINE_SERVER_ADDR", ":9090")

	v := viper.New()
	used, err := Init(v, path)
	require.NoError(t, err)
	assert.Equal(t, path, used)

	cfg, err := Load(v, secrets.Set{secrets.AnthropicKey: "ak", secrets.GeminiKey: "gk"})
	require.NoError(t, err)

	assert.Equal(t, types.ProviderAnthropic, cfg.AI.Provider)
	assert.Equal(t, "claude-sonnet-4-5", cfg.AI.Model)
	assert.Equal(t, 0.2, cfg.AI.Temperature)
	assert.Equal(t, 90*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 8000, cfg.AI.MaxTokens)
	assert.Equal(t, "ak", cfg.AI.APIKey)
	assert.Equal(t, "/srv/library", cfg.Library.Dir)
	assert.Equal(t, 10*time.Minute, cfg.Session.TTL)
	assert.Equal(t, ":9090", cfg.Server.Addr)
}

func TestInitMissingExplicitFile(t *testing.T) {
	_, err := Init(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestExplicitKeyWinsOverSecrets(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("ai.api_key", "from-config")

	cfg, err := Load(v, secrets.Set{secrets.GeminiKey: "from-secrets"})
	require.NoError(t, err)
	assert.Equal(t, "from-config", cfg.AI.APIKey)
}

func TestValidate(t *testing.T) {
	base := func() *viper.Viper {
		v := viper.New()
		SetDefaults(v)
		return v
	}
	tests := []struct {
		name string
		key  string
		val  any
		msg  string
	}{
		{"temperature", "ai.temperature", 3.5, "ai.temperature"},
		{"max tokens", "ai.max_tokens", 0, "ai.max_tokens"},
		{"ttl", "session.ttl", "0s", "session.ttl"},
		{"library dir", "library.dir", "", "library.dir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := base()
			v.Set(tt.key, tt.val)
			_, err := Load(v, nil)
			assert.ErrorContains(t, err, tt.msg)
		})
	}
}
