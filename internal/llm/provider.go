package llm

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrDisabled is returned when no provider is configured
	ErrDisabled = errors.New("llm: advisory service disabled")

	// ErrMalformed is returned when a response could not be parsed as JSON after all retries
	ErrMalformed = errors.New("llm: malformed JSON response")
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends one prompt and returns the raw completion text
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest is one prompt for a provider
type CompletionRequest struct {
	// System is the system instruction
	System string

	// Prompt is the user message
	Prompt string

	// Model overrides the configured model
	Model string

	// MaxTokens limits the response length
	MaxTokens int

	// JSON asks the provider to constrain output to a JSON object where supported
	JSON bool
}

// CompletionResponse is a provider's answer
type CompletionResponse struct {
	// Text is the completion text
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for one API request
	Timeout time.Duration

	// ConnectTimeout bounds dialing the provider
	ConnectTimeout time.Duration

	// MaxTokens for response generation
	MaxTokens int

	// MaxRetries is how many extra attempts AskJSON makes after an unparsable reply
	MaxRetries int

	// ContextChars caps the page context embedded in prompts
	ContextChars int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:       "", // Disabled by default
		Model:          "",
		Timeout:        60 * time.Second,
		ConnectTimeout: 5 * time.Second,
		MaxTokens:      800,
		MaxRetries:     2,
		ContextChars:   8000,
	}
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 60 * time.Second
	}
	return c.Timeout
}

func (c Config) maxTokens(override int) int {
	if override > 0 {
		return override
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 800
}
