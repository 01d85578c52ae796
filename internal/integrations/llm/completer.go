// Package llm adapts generative text services to a single Complete call.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"classifybot/internal/config"
	"classifybot/internal/logger"
)

// Completer sends one prompt and returns the raw response text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type CompleterFunc func(ctx context.Context, prompt string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

type timeoutCompleter struct {
	next    Completer
	timeout time.Duration
}

// WithTimeout bounds every call to c by d. The call returns
// context.DeadlineExceeded once d elapses even if c ignores its context.
func WithTimeout(c Completer, d time.Duration) Completer {
	if d <= 0 {
		return c
	}
	return timeoutCompleter{next: c, timeout: d}
}

func (t timeoutCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := t.next.Complete(ctx, prompt)
		done <- result{text, err}
	}()

	select {
	case r := <-done:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

type loggingCompleter struct {
	next     Completer
	provider string
	model    string
}

func (l loggingCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	text, err := l.next.Complete(ctx, prompt)
	if err != nil {
		logger.Error().Err(err).
			Str("provider", l.provider).
			Str("model", l.model).
			Dur("elapsed", time.Since(start)).
			Msg("llm completion failed")
		return "", err
	}
	logger.Info().
		Str("provider", l.provider).
		Str("model", l.model).
		Int("prompt_chars", len(prompt)).
		Int("response_chars", len(text)).
		Dur("elapsed", time.Since(start)).
		Msg("llm completion")
	return text, nil
}

// NewCompleter builds the configured provider, bounded by llm_timeout_seconds.
func NewCompleter(ctx context.Context, cfg config.Config, httpClient *http.Client) (Completer, error) {
	var (
		c   Completer
		err error
	)
	switch cfg.LLMProvider {
	case "ollama":
		c, err = NewOllama(ctx, cfg.LLMBaseURL, cfg.LLMModel)
	case "openai":
		c, err = NewOpenAI(ctx, cfg.OpenAIAPIKey, cfg.LLMBaseURL, cfg.LLMModel, httpClient)
	case "ark":
		c, err = NewArk(ctx, cfg.ArkAPIKey, cfg.LLMBaseURL, cfg.LLMModel)
	case "deepseek":
		c, err = NewDeepSeek(ctx, cfg.DeepSeekAPIKey, cfg.LLMBaseURL, cfg.LLMModel)
	case "anthropic":
		c = NewAnthropic(cfg.AnthropicAPIKey, cfg.LLMModel, httpClient)
	case "gemini":
		c, err = NewGemini(ctx, cfg.GeminiAPIKey, cfg.LLMModel, httpClient)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.LLMProvider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s completer: %w", cfg.LLMProvider, err)
	}
	c = loggingCompleter{next: c, provider: cfg.LLMProvider, model: cfg.LLMModel}
	return WithTimeout(c, cfg.LLMTimeout()), nil
}
