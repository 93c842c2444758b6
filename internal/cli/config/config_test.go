package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapask/internal/llm"
)

// isolate runs the test in an empty directory with no leapask or OpenAI
// variables set.
func isolate(t *testing.T) string {
	t.Helper()
	ResetConfig()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(APIKeyEnv, "")
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, EnvPrefix) {
			t.Setenv(name, "")
			require.NoError(t, os.Unsetenv(name))
		}
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoadConfig_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, cfg.LLM.Model)
	assert.Equal(t, DefaultProvider, cfg.LLM.Provider)
	assert.Equal(t, float32(0), cfg.LLM.Temperature)
	assert.Equal(t, DefaultLLMTimeout, cfg.LLM.Timeout)
	assert.Equal(t, "sqlite", cfg.Engine.Type)
	assert.Equal(t, DefaultPreviewRows, cfg.Chat.PreviewRows)
	assert.False(t, cfg.Chat.KeepHistoryOnLoad)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, DefaultAddr, cfg.Server.Addr)
	assert.Equal(t, DefaultSessionTTL, cfg.Server.SessionTTL)
	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_File(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "leapask.yaml"), `llm:
  model: gpt-4o
  temperature: 0.2
  timeout: 90s
engine:
  type: duckdb
chat:
  keep_history_on_load: true
server:
  session_ttl: 5m
  allowed_origins:
    - http://localhost:3000
`)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.InDelta(t, 0.2, cfg.LLM.Temperature, 1e-6)
	assert.Equal(t, 90*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "duckdb", cfg.Engine.Type)
	assert.True(t, cfg.Chat.KeepHistoryOnLoad)
	assert.Equal(t, 5*time.Minute, cfg.Server.SessionTTL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, filepath.Join(dir, "leapask.yaml"), GetConfigFileUsed())
}

func TestLoadConfig_ExplicitFileMissing(t *testing.T) {
	isolate(t)
	_, err := LoadConfig("nope.yaml", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoadConfig_EnvPrecedenceOverFile(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "leapask.yaml"), "llm:\n  model: from_file\n")
	t.Setenv("LEAPASK_LLM__MODEL", "from_env")
	t.Setenv("LEAPASK_SERVER__ALLOWED_ORIGINS", "http://a,http://b")

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "from_env", cfg.LLM.Model, "env var should override config file")
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.Server.AllowedOrigins)
}

func TestLoadConfig_FlagPrecedence(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "leapask.yaml"), "llm:\n  model: from_file\n")
	t.Setenv("LEAPASK_LLM__MODEL", "from_env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("model", "", "model name")
	flags.Bool("keep-history", false, "keep history")
	flags.StringP("output", "o", "", "output mode")
	require.NoError(t, flags.Set("model", "from_flag"))
	require.NoError(t, flags.Set("keep-history", "true"))
	require.NoError(t, flags.Set("output", "json"))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	assert.Equal(t, "from_flag", cfg.LLM.Model, "flag value should override config file and env var")
	assert.True(t, cfg.Chat.KeepHistoryOnLoad)
	assert.Equal(t, "json", cfg.OutputFormat)
}

func TestLoadConfig_FlagNotSetUsesEnv(t *testing.T) {
	isolate(t)
	t.Setenv("LEAPASK_LLM__MODEL", "from_env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("model", "default_flag", "model name")

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	assert.Equal(t, "from_env", cfg.LLM.Model, "env var should be used when flag is not set")
}

func TestLoadConfig_Dotenv(t *testing.T) {
	t.Run("api key and prefixed keys", func(t *testing.T) {
		dir := isolate(t)
		writeFile(t, filepath.Join(dir, ".env"), "OPENAI_API_KEY=sk-from-dotenv\nLEAPASK_LLM__MODEL=from_dotenv\nOTHER=ignored\n")

		cfg, err := LoadConfig("", nil)
		require.NoError(t, err)
		assert.Equal(t, "sk-from-dotenv", cfg.LLM.APIKey)
		assert.Equal(t, "from_dotenv", cfg.LLM.Model)
	})

	t.Run("process env wins", func(t *testing.T) {
		dir := isolate(t)
		writeFile(t, filepath.Join(dir, ".env"), "OPENAI_API_KEY=sk-from-dotenv\nLEAPASK_LLM__MODEL=from_dotenv\n")
		t.Setenv(APIKeyEnv, "sk-from-env")
		t.Setenv("LEAPASK_LLM__MODEL", "from_env")

		cfg, err := LoadConfig("", nil)
		require.NoError(t, err)
		assert.Equal(t, "sk-from-env", cfg.LLM.APIKey)
		assert.Equal(t, "from_env", cfg.LLM.Model)
	})

	t.Run("explicit key wins", func(t *testing.T) {
		dir := isolate(t)
		writeFile(t, filepath.Join(dir, "leapask.yaml"), "llm:\n  api_key: ${MY_KEY}\n")
		t.Setenv(APIKeyEnv, "sk-from-env")
		t.Setenv("MY_KEY", "sk-mine")

		cfg, err := LoadConfig("", nil)
		require.NoError(t, err)
		assert.Equal(t, "sk-mine", cfg.LLM.APIKey)
	})
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"output", "output: html\n", "invalid output format"},
		{"engine", "engine:\n  type: oracle\n", "unknown engine type"},
		{"log level", "log_level: loud\n", "invalid log_level"},
		{"temperature", "llm:\n  temperature: 3\n", "llm.temperature"},
		{"upload", "server:\n  max_upload_mb: 0\n", "server.max_upload_mb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			writeFile(t, filepath.Join(dir, "leapask.yaml"), tt.yaml)
			_, err := LoadConfig("", nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateLLM(t *testing.T) {
	cfg := Default()
	assert.ErrorIs(t, cfg.ValidateLLM(), llm.ErrMissingAPIKey)

	cfg.LLM.APIKey = "sk-test"
	assert.NoError(t, cfg.ValidateLLM())
	assert.Equal(t, "sk-test", cfg.LLMSettings().APIKey)
	assert.Equal(t, DefaultModel, cfg.LLMSettings().Model)
}

func TestDefault_Validates(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("LEAPASK_TEST_VAR", "value")
	tests := []struct {
		in, want string
	}{
		{"${LEAPASK_TEST_VAR}", "value"},
		{"prefix-${LEAPASK_TEST_VAR}-suffix", "prefix-value-suffix"},
		{"${LEAPASK_UNSET_VAR}", "${LEAPASK_UNSET_VAR}"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, expandEnvVars(tt.in), tt.in)
	}
}

func TestParseLogLevel(t *testing.T) {
	lvl, err := ParseLogLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)

	_, err = ParseLogLevel("trace")
	assert.Error(t, err)
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))

	l := slog.New(slog.DiscardHandler)
	ctx := context.WithValue(context.Background(), LoggerKey(), l)
	assert.Same(t, l, GetLogger(ctx))
}
