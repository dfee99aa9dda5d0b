// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAIProvider calls any OpenAI-compatible chat endpoint (OpenAI, Groq,
// Ollama) through langchaingo.
type OpenAIProvider struct {
	name  string
	model string
	llm   llms.Model
}

// NewOpenAIProvider builds a client for name ("openai", "groq", "ollama").
// baseURL may be empty for api.openai.com.
func NewOpenAIProvider(name, apiKey, model, baseURL string, extra ...openai.Option) (*OpenAIProvider, error) {
	if apiKey == "" {
		// Local servers such as Ollama ignore the key but the client requires one.
		apiKey = "unused"
	}
	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	opts = append(opts, extra...)

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating %s client: %w", name, err)
	}
	return &OpenAIProvider{name: name, model: model, llm: client}, nil
}

func (o *OpenAIProvider) Name() string { return o.name }

// Generate sends a system + human message pair in JSON mode.
func (o *OpenAIProvider) Generate(ctx context.Context, req Request) (Response, error) {
	var messages []llms.MessageContent
	if req.System != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, req.System))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, req.Prompt))

	opts := []llms.CallOption{
		llms.WithTemperature(req.Temperature),
		llms.WithJSONMode(),
	}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}

	resp, err := o.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return Response{}, fmt.Errorf("calling %s API: %w", o.name, err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, fmt.Errorf("%s: %w", o.name, ErrEmptyCompletion)
	}

	choice := resp.Choices[0]
	out := Response{
		Content:  choice.Content,
		Model:    o.model,
		Provider: o.name,
	}
	if n, ok := choice.GenerationInfo["TotalTokens"].(int); ok {
		out.TokensUsed = n
	} else {
		out.TokensUsed = EstimateTokens(req.System+req.Prompt) + EstimateTokens(choice.Content)
	}
	return out.check()
}
