// Package llm builds the chat model used to route questions.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
)

// Default model settings.
const (
	DefaultProvider = "openai"
	DefaultModel    = "gpt-4o-mini"
	DefaultTimeout  = 60 * time.Second
)

// ErrMissingAPIKey is returned when no API key is configured.
var ErrMissingAPIKey = errors.New("missing API key: set OPENAI_API_KEY or llm.api_key")

// Config holds the model connection settings.
type Config struct {
	Provider    string
	Model       string
	BaseURL     string
	APIKey      string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// NewChatModel creates a tool-calling chat model for cfg.
func NewChatModel(ctx context.Context, cfg Config) (model.ToolCallingChatModel, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	switch cfg.Provider {
	case "", DefaultProvider:
		oc := &openai.ChatModelConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Timeout:     cfg.Timeout,
			Temperature: &cfg.Temperature,
		}
		if cfg.MaxTokens > 0 {
			oc.MaxTokens = &cfg.MaxTokens
		}
		cm, err := openai.NewChatModel(ctx, oc)
		if err != nil {
			return nil, fmt.Errorf("failed to create chat model: %w", err)
		}
		return cm, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q (supported: %s)", cfg.Provider, DefaultProvider)
	}
}
