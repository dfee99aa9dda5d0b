// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm wraps the language model backends used for outline synthesis
// behind a single Provider interface.
package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/course-engine/pkg/types"
)

// ErrEmptyCompletion is returned when a backend answers without any text.
var ErrEmptyCompletion = errors.New("model returned an empty completion")

// Provider is one text-completion backend. Implementations make exactly one
// upstream call per Generate.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (Response, error)
}

// Request is a single completion request.
type Request struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int

	// Course is the request being outlined. Remote providers ignore it; the
	// offline sample provider builds its completion from it.
	Course *types.CourseRequest
}

// Response is a validated completion.
type Response struct {
	Content    string
	TokensUsed int
	Model      string
	Provider   string
}

// check rejects completions with no usable text.
func (r Response) check() (Response, error) {
	if strings.TrimSpace(r.Content) == "" {
		return Response{}, fmt.Errorf("%s: %w", r.Provider, ErrEmptyCompletion)
	}
	return r, nil
}

// EstimateTokens approximates a token count at four characters per token.
func EstimateTokens(s string) int {
	return (len(s) + 3) / 4
}

// Default models per provider, used when the configuration leaves Model empty.
var defaultModels = map[types.ProviderName]string{
	types.ProviderAnthropic: "claude-sonnet-4-5",
	types.ProviderGemini:    "gemini-2.5-flash",
	types.ProviderOpenAI:    "gpt-4o-mini",
	types.ProviderGroq:      "llama-3.3-70b-versatile",
	types.ProviderOllama:    "llama3.1",
}

// Base URLs for the OpenAI-compatible providers.
var openAICompatibleURLs = map[types.ProviderName]string{
	types.ProviderGroq:   "https://api.groq.com/openai/v1",
	types.ProviderOllama: "http://localhost:11434/v1",
}

// New constructs the provider named by cfg. The configured timeout bounds
// every Generate call.
func New(ctx context.Context, cfg types.AIConfig) (Provider, error) {
	model := cfg.Model
	if model == "" {
		model = defaultModels[cfg.Provider]
	}

	var (
		p   Provider
		err error
	)
	switch cfg.Provider {
	case types.ProviderAnthropic:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("anthropic: API key not configured")
		}
		p = &AnthropicProvider{APIKey: cfg.APIKey, Model: model}
	case types.ProviderGemini:
		p, err = NewGeminiProvider(ctx, cfg.APIKey, model)
	case types.ProviderOpenAI, types.ProviderGroq, types.ProviderOllama:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = openAICompatibleURLs[cfg.Provider]
		}
		p, err = NewOpenAIProvider(string(cfg.Provider), cfg.APIKey, model, baseURL)
	case types.ProviderTemplate:
		return &SampleProvider{}, nil
	default:
		return nil, fmt.Errorf("unsupported provider %q (supported: %s)", cfg.Provider, strings.Join(SupportedProviders(), ", "))
	}
	if err != nil {
		return nil, err
	}

	if cfg.Timeout > 0 {
		p = &timeoutProvider{Provider: p, timeout: cfg.Timeout}
	}
	return p, nil
}

// SupportedProviders lists the provider names New accepts.
func SupportedProviders() []string {
	names := []string{string(types.ProviderTemplate)}
	for n := range defaultModels {
		names = append(names, string(n))
	}
	sort.Strings(names)
	return names
}

type timeoutProvider struct {
	Provider
	timeout time.Duration
}

func (t *timeoutProvider) Generate(ctx context.Context, req Request) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.Provider.Generate(ctx, req)
}
