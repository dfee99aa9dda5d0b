package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "course-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// ProviderName identifies an LLM provider.
type ProviderName string

const (
	ProviderAnthropic ProviderName = "anthropic"
	ProviderGemini    ProviderName = "gemini"
	ProviderOpenAI    ProviderName = "openai"
	ProviderGroq      ProviderName = "groq"
	ProviderOllama    ProviderName = "ollama"
	ProviderTemplate  ProviderName = "template"
)

// AIConfig holds settings for the LLM call made by the module creation agent.
type AIConfig struct {
	// Provider selects the LLM backend: anthropic, gemini, openai, groq, ollama, or template.
	Provider ProviderName `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model is the model identifier (e.g. "gemini-2.5-flash").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the provider.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BaseURL overrides the provider endpoint (OpenAI-compatible servers, Ollama).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	Temperature float64       `json:"temperature" yaml:"temperature" mapstructure:"temperature"`
	MaxTokens   int           `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// LibraryConfig holds settings for the local reference library.
type LibraryConfig struct {
	// Dir is the library base directory (contains sources/, index/).
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// MaxResults is the default number of documents returned per query (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// WebSearchConfig holds settings for the web search channel.
type WebSearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Backends lists backend names in fallback order (tavily, duckduckgo, arxiv).
	Backends []string `json:"backends" yaml:"backends" mapstructure:"backends"`

	// MaxResults caps the merged result count (default 5).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// TavilyAPIKey authenticates against the Tavily search API.
	TavilyAPIKey string `json:"tavily_api_key,omitempty" yaml:"tavily_api_key,omitempty" mapstructure:"tavily_api_key"`

	// Enrich fetches result pages to fill empty snippets.
	Enrich bool `json:"enrich" yaml:"enrich" mapstructure:"enrich"`
}

// PDFConfig holds settings for PDF text extraction.
type PDFConfig struct {
	// Image is the markitdown container image (default "markitdown:latest").
	Image string `json:"image" yaml:"image" mapstructure:"image"`

	// MaxChars bounds the extracted text kept per document (default 200000).
	MaxChars int `json:"max_chars" yaml:"max_chars" mapstructure:"max_chars"`

	// ChunkSize is the size in characters of each document excerpt placed in
	// the prompt (default 500).
	ChunkSize int `json:"chunk_size" yaml:"chunk_size" mapstructure:"chunk_size"`
}

// SessionConfig holds settings for the in-memory session table.
type SessionConfig struct {
	TTL      time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`
	Capacity int           `json:"capacity" yaml:"capacity" mapstructure:"capacity"`

	// TempDir holds uploaded PDFs; empty uses the OS temp directory.
	TempDir string `json:"temp_dir,omitempty" yaml:"temp_dir,omitempty" mapstructure:"temp_dir"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// MaxUploadBytes bounds PDF uploads (default 20 MiB).
	MaxUploadBytes int64 `json:"max_upload_bytes" yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
}

// Config groups all component configurations.
type Config struct {
	AI        AIConfig        `json:"ai" yaml:"ai" mapstructure:"ai"`
	Library   LibraryConfig   `json:"library" yaml:"library" mapstructure:"library"`
	WebSearch WebSearchConfig `json:"web_search" yaml:"web_search" mapstructure:"web_search"`
	PDF       PDFConfig       `json:"pdf" yaml:"pdf" mapstructure:"pdf"`
	Session   SessionConfig   `json:"session" yaml:"session" mapstructure:"session"`
	Server    ServerConfig    `json:"server" yaml:"server" mapstructure:"server"`

	// CatalogPath optionally points at a YAML file of learning-mode template overrides.
	CatalogPath string `json:"catalog_path,omitempty" yaml:"catalog_path,omitempty" mapstructure:"catalog_path"`

	// LogMode selects "dev" (console) or "prod" (JSON) logging.
	LogMode string `json:"log_mode" yaml:"log_mode" mapstructure:"log_mode"`
}
