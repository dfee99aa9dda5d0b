// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Recognized key files: anthropic-api-key, gemini-api-key, openai-api-key,
// groq-api-key, tavily-api-key.
package secrets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/course-engine/pkg/types"
)

// Key file names.
const (
	AnthropicKey = "anthropic-api-key"
	GeminiKey    = "gemini-api-key"
	OpenAIKey    = "openai-api-key"
	GroqKey      = "groq-api-key"
	TavilyKey    = "tavily-api-key"
)

// providerKeys maps each remote LLM provider to its key file.
var providerKeys = map[types.ProviderName]string{
	types.ProviderAnthropic: AnthropicKey,
	types.ProviderGemini:    GeminiKey,
	types.ProviderOpenAI:    OpenAIKey,
	types.ProviderGroq:      GroqKey,
}

// Set is a loaded secrets directory.
type Set map[string]string

// Load reads all files in dir and returns a Set of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty Set.
// Unreadable files produce a warning on warn but do not abort.
func Load(dir string, warn io.Writer) (Set, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Set{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(Set)
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		name := entry.Name()

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			if warn != nil {
				fmt.Fprintf(warn, "warning: could not read secret %s: %v\n", name, err)
			}
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// ProviderKey returns the API key stored for provider, or "" when the
// provider needs none or no file was present.
func (s Set) ProviderKey(provider types.ProviderName) string {
	name, ok := providerKeys[provider]
	if !ok {
		return ""
	}
	return s[name]
}
