// Package llm talks to the chat models behind translation.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.aimuz.me/hober/internal/types"
)

// Providers accepted by New. They match the credential types in config.
const (
	ProviderGemini           = "gemini"
	ProviderOpenAI           = "openai"
	ProviderOpenAICompatible = "openai-compatible"
)

var (
	ErrMissingAPIKey = errors.New("llm: api key required")
	ErrMissingModel  = errors.New("llm: model required")
)

// Message is one chat turn. Role is "system", "user" or "assistant".
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Config selects a provider and model. Zero MaxTokens and Temperature leave
// the provider defaults.
type Config struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	HTTPClient  *http.Client
}

// Completer performs chat completions.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, types.Usage, error)
}

// New returns the Completer for cfg.Provider.
func New(cfg Config) (Completer, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		return nil, ErrMissingModel
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}

	switch cfg.Provider {
	case ProviderGemini:
		return newGemini(cfg), nil
	case ProviderOpenAI, ProviderOpenAICompatible:
		return newOpenAI(cfg), nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}
