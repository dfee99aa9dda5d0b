// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config resolves the course-engine configuration from defaults, a
// YAML config file, .env, COURSE_ENGINE_* environment variables, bound CLI
// flags and the .secrets/ directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pdiddy/course-engine/internal/secrets"
	"github.com/pdiddy/course-engine/pkg/types"
)

// EnvPrefix is prepended to every environment override, e.g.
// COURSE_ENGINE_AI_PROVIDER.
const EnvPrefix = "COURSE_ENGINE"

// Defaults.
const (
	DefaultProvider    = types.ProviderGemini
	DefaultModel       = "gemini-2.5-flash"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 4000
	DefaultTimeout     = 60 * time.Second
	DefaultLibraryDir  = "library"
	DefaultSessionTTL  = 30 * time.Minute
	DefaultUserAgent   = "course-engine/0.1"
)

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("ai.provider", string(DefaultProvider))
	v.SetDefault("ai.model", DefaultModel)
	v.SetDefault("ai.temperature", DefaultTemperature)
	v.SetDefault("ai.max_tokens", DefaultMaxTokens)
	v.SetDefault("ai.timeout", DefaultTimeout)
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.base_url", "")

	v.SetDefault("library.dir", DefaultLibraryDir)
	v.SetDefault("library.max_results", 20)

	v.SetDefault("web_search.backends", []string{"tavily", "duckduckgo"})
	v.SetDefault("web_search.max_results", 5)
	v.SetDefault("web_search.timeout", 15*time.Second)
	v.SetDefault("web_search.user_agent", DefaultUserAgent)
	v.SetDefault("web_search.tavily_api_key", "")
	v.SetDefault("web_search.enrich", false)

	v.SetDefault("pdf.image", "markitdown:latest")
	v.SetDefault("pdf.max_chars", 200000)
	v.SetDefault("pdf.chunk_size", 500)

	v.SetDefault("session.ttl", DefaultSessionTTL)
	v.SetDefault("session.capacity", 256)
	v.SetDefault("session.temp_dir", "")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.max_upload_bytes", 20<<20)

	v.SetDefault("catalog_path", "")
	v.SetDefault("log_mode", "dev")
}

// Init points v at the config file (cfgFile, or course-engine.yaml in the
// working directory or ~/.config/course-engine/), enables environment
// overrides and loads .env when present. It returns the config file used,
// or "" when none was found.
func Init(v *viper.Viper, cfgFile string) (string, error) {
	_ = godotenv.Load()

	SetDefaults(v)
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("course-engine")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "course-engine"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", nil
		}
		if cfgFile == "" && os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading config: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

// Load decodes v into a Config and fills API keys the config left empty
// from the secrets set.
func Load(v *viper.Viper, s secrets.Set) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}

	cfg.AI.Provider = types.ProviderName(strings.ToLower(strings.TrimSpace(string(cfg.AI.Provider))))
	if cfg.AI.APIKey == "" {
		cfg.AI.APIKey = s.ProviderKey(cfg.AI.Provider)
	}
	if cfg.WebSearch.TavilyAPIKey == "" {
		cfg.WebSearch.TavilyAPIKey = s[secrets.TavilyKey]
	}

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects settings no component can work with.
func Validate(cfg types.Config) error {
	switch {
	case cfg.AI.Temperature < 0 || cfg.AI.Temperature > 2:
		return fmt.Errorf("ai.temperature %.2f outside [0, 2]", cfg.AI.Temperature)
	case cfg.AI.MaxTokens <= 0:
		return fmt.Errorf("ai.max_tokens must be positive, got %d", cfg.AI.MaxTokens)
	case cfg.AI.Timeout < 0:
		return fmt.Errorf("ai.timeout must not be negative")
	case cfg.Session.TTL <= 0:
		return fmt.Errorf("session.ttl must be positive")
	case cfg.Library.Dir == "":
		return fmt.Errorf("library.dir must not be empty")
	}
	return nil
}
