package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapask/internal/cli/config"
)

// generateSchemaDocs generates the configuration reference.
func generateSchemaDocs(outDir string) error {
	log.Printf("Generating schema docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := generateConfigurationDoc(outDir); err != nil {
		return fmt.Errorf("failed to generate configuration.md: %w", err)
	}
	log.Printf("  Generated configuration.md")

	return nil
}

// ConfigField represents a configuration key.
type ConfigField struct {
	Key         string
	Type        string
	Default     string
	Description string
}

// Section returns the top-level group of the key, or "" for root keys.
func (f ConfigField) Section() string {
	section, _, ok := strings.Cut(f.Key, ".")
	if !ok {
		return ""
	}
	return section
}

// configFields lists the keys read from leapask.yaml.
// It mirrors the koanf tags in internal/cli/config/types.go.
func configFields() []ConfigField {
	return []ConfigField{
		{Key: "output", Type: "string", Default: config.DefaultOutput, Description: "Output format: auto, text, markdown, json"},
		{Key: "verbose", Type: "bool", Default: "false", Description: "Log at debug level"},
		{Key: "log_level", Type: "string", Default: config.DefaultLogLevel, Description: "Log level: debug, info, warn, error"},

		{Key: "llm.provider", Type: "string", Default: config.DefaultProvider, Description: "Language model provider"},
		{Key: "llm.model", Type: "string", Default: config.DefaultModel, Description: "Model name"},
		{Key: "llm.base_url", Type: "string", Description: "Override of the provider API endpoint"},
		{Key: "llm.api_key", Type: "string", Description: "Provider API key; supports ${VAR} expansion"},
		{Key: "llm.temperature", Type: "float", Default: "0", Description: "Sampling temperature"},
		{Key: "llm.max_tokens", Type: "int", Description: "Upper bound on completion tokens"},
		{Key: "llm.timeout", Type: "duration", Default: config.DefaultLLMTimeout.String(), Description: "Timeout of one model call"},

		{Key: "engine.type", Type: "string", Default: config.DefaultEngine, Description: "SQL engine: sqlite or duckdb"},
		{Key: "engine.path", Type: "string", Description: "Engine database file; empty keeps it in memory"},

		{Key: "chat.keep_history_on_load", Type: "bool", Default: "false", Description: "Keep the conversation when a new file is loaded"},
		{Key: "chat.history_file", Type: "string", Default: config.DefaultHistoryFile, Description: "Readline history file of the chat prompt"},
		{Key: "chat.preview_rows", Type: "int", Default: strconv.Itoa(config.DefaultPreviewRows), Description: "Rows shown by inspect and .preview"},
		{Key: "chat.watch", Type: "bool", Default: "false", Description: "Reload the file when it changes on disk"},
		{Key: "chat.sheet", Type: "string", Description: "Worksheet read from Excel workbooks; empty means the first"},

		{Key: "server.addr", Type: "string", Default: config.DefaultAddr, Description: "Listen address of leapask serve"},
		{Key: "server.session_secret", Type: "string", Description: "Cookie signing key; random per process when empty"},
		{Key: "server.max_upload_mb", Type: "int", Default: strconv.Itoa(config.DefaultMaxUploadMB), Description: "Largest accepted upload in megabytes"},
		{Key: "server.session_ttl", Type: "duration", Default: config.DefaultSessionTTL.String(), Description: "Idle time after which a session is dropped"},
		{Key: "server.request_timeout", Type: "duration", Default: config.DefaultRequestTimeout.String(), Description: "Timeout of one API request"},
		{Key: "server.secure_cookies", Type: "bool", Default: "false", Description: "Mark the session cookie Secure; enable behind HTTPS"},
		{Key: "server.allowed_origins", Type: "[]string", Description: "CORS origins allowed to call the API"},
	}
}

var sectionTitles = map[string]string{
	"":       "General",
	"llm":    "Language Model",
	"engine": "Engine",
	"chat":   "Chat",
	"server": "Server",
}

var sectionOrder = []string{"", "llm", "engine", "chat", "server"}

// generateConfigurationDoc generates the configuration reference page.
func generateConfigurationDoc(outDir string) error {
	w := NewMarkdownWriter()

	w.Frontmatter("Configuration", "leapask configuration reference")
	w.GeneratedMarker()

	w.Header(1, "Configuration")
	w.Paragraph("leapask reads `leapask.yaml` from the working directory or one of its parents. " +
		"Values are layered from defaults, the config file, a `.env` file, environment variables and flags, the later overriding the earlier.")

	fields := configFields()
	headers := []string{"Key", "Type", "Default", "Description"}
	for _, section := range sectionOrder {
		var rows [][]string
		for _, f := range fields {
			if f.Section() != section {
				continue
			}
			defVal := "-"
			if f.Default != "" {
				defVal = InlineCode(f.Default)
			}
			rows = append(rows, []string{InlineCode(f.Key), f.Type, defVal, f.Description})
		}
		w.Header(2, sectionTitles[section])
		w.Table(headers, rows)
	}

	w.Header(2, "Example")
	w.CodeBlock("yaml", `llm:
  model: gpt-4o-mini
  api_key: ${OPENAI_API_KEY}
engine:
  type: duckdb
chat:
  preview_rows: 10
server:
  addr: 127.0.0.1:8765`)

	return os.WriteFile(filepath.Join(outDir, "configuration.md"), w.Bytes(), 0600)
}
