package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

const advisorSystemPrompt = `You are a web accessibility auditor specialised in WCAG 2.1.
You receive measurements taken from a page and an excerpt of its HTML.
Answer ONLY with one valid JSON object. No prose, no markdown, no code fences.`

const retryInstruction = "\n\nYour previous answer was not valid JSON. Reply again with a single JSON object and nothing else."

// Advisor answers structured questions through an optional LLM provider.
// It never affects scoring directly; checks decide what to do with its answers.
type Advisor struct {
	provider Provider
	config   Config
	logger   *slog.Logger
}

// NewAdvisor creates an advisor; an empty provider name yields a disabled advisor
func NewAdvisor(config Config, logger *slog.Logger) (*Advisor, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	return NewAdvisorWithProvider(provider, config, logger), nil
}

// NewAdvisorWithProvider wraps an existing provider
func NewAdvisorWithProvider(provider Provider, config Config, logger *slog.Logger) *Advisor {
	if logger == nil {
		logger = slog.Default()
	}
	if config.ContextChars <= 0 {
		config.ContextChars = DefaultConfig().ContextChars
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	return &Advisor{provider: provider, config: config, logger: logger}
}

// IsEnabled reports whether a provider is configured
func (a *Advisor) IsEnabled() bool {
	return a != nil && a.provider != nil
}

// ProviderName returns the configured provider name, or "" when disabled
func (a *Advisor) ProviderName() string {
	if !a.IsEnabled() {
		return ""
	}
	return a.provider.Name()
}

// AskJSON sends prompt plus a capped context block and returns the reply as a map.
// Non-object JSON is wrapped ({"data": [...]}, {"text": "..."}). Unparsable replies
// are retried up to MaxRetries times before ErrMalformed is returned.
func (a *Advisor) AskJSON(ctx context.Context, prompt, pageContext string) (map[string]any, error) {
	if !a.IsEnabled() {
		return nil, ErrDisabled
	}

	full := buildPrompt(prompt, pageContext, a.config.ContextChars)
	attempts := 1 + a.config.MaxRetries

	var lastErr error
	var lastText string
	for i := 0; i < attempts; i++ {
		req := CompletionRequest{System: advisorSystemPrompt, Prompt: full, JSON: true}
		if i > 0 {
			req.Prompt = full + retryInstruction
		}

		resp, err := a.provider.Complete(ctx, req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("%s: %w", a.provider.Name(), ctxErr)
			}
			lastErr = err
			a.logger.Debug("llm: completion failed", "provider", a.provider.Name(), "attempt", i+1, "error", err)
			continue
		}

		if v, ok := parseJSONLoose(resp.Text); ok {
			return coerceToMap(v), nil
		}
		lastText = resp.Text
		lastErr = ErrMalformed
		a.logger.Debug("llm: unparsable reply", "provider", a.provider.Name(), "attempt", i+1, "chars", len(resp.Text))
	}

	if errors.Is(lastErr, ErrMalformed) {
		return nil, fmt.Errorf("%w after %d attempts: %q", ErrMalformed, attempts, truncateRunes(lastText, 200))
	}
	return nil, fmt.Errorf("%s: %w", a.provider.Name(), lastErr)
}

func buildPrompt(prompt, pageContext string, maxContext int) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(prompt))
	if pageContext = strings.TrimSpace(pageContext); pageContext != "" {
		b.WriteString("\n\nCONTEXT:\n")
		b.WriteString(truncateRunes(pageContext, maxContext))
	}
	return b.String()
}

// truncateRunes cuts s to at most n runes
func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
