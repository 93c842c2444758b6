// Package config loads leapask settings from defaults, a yaml file, a .env
// file, LEAPASK_ environment variables and command-line flags.
package config

import "time"

// LLMConfig holds the chat model settings.
type LLMConfig struct {
	Provider    string        `koanf:"provider"`
	Model       string        `koanf:"model"`
	BaseURL     string        `koanf:"base_url"`
	APIKey      string        `koanf:"api_key"`
	Temperature float32       `koanf:"temperature"`
	MaxTokens   int           `koanf:"max_tokens"`
	Timeout     time.Duration `koanf:"timeout"`
}

// EngineConfig selects the SQL engine questions are answered with.
type EngineConfig struct {
	Type string `koanf:"type"`
	// Path is the engine database file. Empty keeps it in memory.
	Path string `koanf:"path"`
}

// ChatConfig holds settings for the conversation loop.
type ChatConfig struct {
	KeepHistoryOnLoad bool   `koanf:"keep_history_on_load"`
	HistoryFile       string `koanf:"history_file"`
	PreviewRows       int    `koanf:"preview_rows"`
	Watch             bool   `koanf:"watch"`
	Sheet             string `koanf:"sheet"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	Addr           string        `koanf:"addr"`
	SessionSecret  string        `koanf:"session_secret"`
	MaxUploadMB    int           `koanf:"max_upload_mb"`
	SessionTTL     time.Duration `koanf:"session_ttl"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
	SecureCookies  bool          `koanf:"secure_cookies"`
	AllowedOrigins []string      `koanf:"allowed_origins"`
}

// Config holds all CLI configuration options.
type Config struct {
	LLM          LLMConfig    `koanf:"llm"`
	Engine       EngineConfig `koanf:"engine"`
	Chat         ChatConfig   `koanf:"chat"`
	Server       ServerConfig `koanf:"server"`
	OutputFormat string       `koanf:"output"`
	Verbose      bool         `koanf:"verbose"`
	LogLevel     string       `koanf:"log_level"`
}

// Default configuration values.
const (
	DefaultProvider       = "openai"
	DefaultModel          = "gpt-4o-mini"
	DefaultLLMTimeout     = 60 * time.Second
	DefaultEngine         = "sqlite"
	DefaultPreviewRows    = 5
	DefaultOutput         = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogLevel       = "warn"
	DefaultAddr           = ":8765"
	DefaultMaxUploadMB    = 32
	DefaultSessionTTL     = 30 * time.Minute
	DefaultRequestTimeout = 2 * time.Minute
	DefaultHistoryFile    = ".leapask_history"
)

// APIKeyEnv is the conventional environment variable for the OpenAI key.
const APIKeyEnv = "OPENAI_API_KEY"

// EnvPrefix prefixes every environment variable read as configuration.
// Nested keys are separated by a double underscore: LEAPASK_LLM__MODEL.
const EnvPrefix = "LEAPASK_"

func defaults() map[string]any {
	return map[string]any{
		"llm.provider":              DefaultProvider,
		"llm.model":                 DefaultModel,
		"llm.temperature":           0.0,
		"llm.timeout":               DefaultLLMTimeout.String(),
		"engine.type":               DefaultEngine,
		"chat.keep_history_on_load": false,
		"chat.preview_rows":         DefaultPreviewRows,
		"chat.watch":                false,
		"output":                    DefaultOutput,
		"verbose":                   false,
		"log_level":                 DefaultLogLevel,
		"server.addr":               DefaultAddr,
		"server.max_upload_mb":      DefaultMaxUploadMB,
		"server.session_ttl":        DefaultSessionTTL.String(),
		"server.request_timeout":    DefaultRequestTimeout.String(),
		"server.secure_cookies":     false,
	}
}

// Default returns the configuration with only defaults applied.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: DefaultProvider,
			Model:    DefaultModel,
			Timeout:  DefaultLLMTimeout,
		},
		Engine:       EngineConfig{Type: DefaultEngine},
		Chat:         ChatConfig{PreviewRows: DefaultPreviewRows},
		OutputFormat: DefaultOutput,
		LogLevel:     DefaultLogLevel,
		Server: ServerConfig{
			Addr:           DefaultAddr,
			MaxUploadMB:    DefaultMaxUploadMB,
			SessionTTL:     DefaultSessionTTL,
			RequestTimeout: DefaultRequestTimeout,
		},
	}
}
