package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapask/internal/adapter"
	"github.com/leapstack-labs/leapask/internal/cli/output"
	"github.com/leapstack-labs/leapask/internal/llm"
)

// Validate checks settings that every command depends on.
func (c *Config) Validate() error {
	if !output.Mode(c.OutputFormat).Valid() {
		return fmt.Errorf("invalid output format %q (use auto, text, markdown or json)", c.OutputFormat)
	}
	if !adapter.IsRegistered(c.Engine.Type) {
		return fmt.Errorf("unknown engine type %q (available: %s)\nHint: set engine.type in leapask.yaml",
			c.Engine.Type, strings.Join(adapter.ListAdapters(), ", "))
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2, got %v", c.LLM.Temperature)
	}
	if c.Chat.PreviewRows < 0 {
		return fmt.Errorf("chat.preview_rows must not be negative, got %d", c.Chat.PreviewRows)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server.max_upload_mb must be positive, got %d", c.Server.MaxUploadMB)
	}
	return nil
}

// ValidateLLM checks the settings needed to reach the model.
func (c *Config) ValidateLLM() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("%w\nHint: export %s or add it to a .env file", llm.ErrMissingAPIKey, APIKeyEnv)
	}
	return nil
}

// LLMSettings converts the llm section to model settings.
func (c *Config) LLMSettings() llm.Config {
	return llm.Config{
		Provider:    c.LLM.Provider,
		Model:       c.LLM.Model,
		BaseURL:     c.LLM.BaseURL,
		APIKey:      c.LLM.APIKey,
		Temperature: c.LLM.Temperature,
		MaxTokens:   c.LLM.MaxTokens,
		Timeout:     c.LLM.Timeout,
	}
}

// ParseLogLevel maps a level name to a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log_level %q (use debug, info, warn or error)", s)
	}
}
