package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/cloudwego/eino/components/model"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapask/internal/adapter"
	"github.com/leapstack-labs/leapask/internal/analysis"
	"github.com/leapstack-labs/leapask/internal/chat"
	"github.com/leapstack-labs/leapask/internal/cli/config"
	"github.com/leapstack-labs/leapask/internal/cli/output"
	"github.com/leapstack-labs/leapask/internal/llm"
	"github.com/leapstack-labs/leapask/internal/query"
	"github.com/leapstack-labs/leapask/internal/router"
	"github.com/leapstack-labs/leapask/internal/table"
)

// newChatModel builds the language model for commands that answer questions.
// Tests swap it for a fake.
var newChatModel = llm.NewChatModel

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with a renderer for cmd's output.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// getConfig returns the current configuration, or the defaults when none
// has been loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}

// OpenSession creates an empty session on the configured engine.
// With withModel the session routes questions through the language model;
// without it only loading, querying and analysis functions are available.
func (c *CommandContext) OpenSession(ctx context.Context, withModel bool) (*chat.Session, error) {
	var m model.ToolCallingChatModel
	if withModel {
		var err error
		if m, err = c.ChatModel(ctx); err != nil {
			return nil, err
		}
	}
	return c.NewSession(ctx, m)
}

// NewSession creates an empty session on the configured engine that routes
// questions through m. A nil m gives a session that cannot answer questions.
func (c *CommandContext) NewSession(ctx context.Context, m model.ToolCallingChatModel) (*chat.Session, error) {
	acfg := adapter.Config{Type: c.Cfg.Engine.Type, Path: c.Cfg.Engine.Path}
	a, err := adapter.NewAdapter(acfg, c.Logger)
	if err != nil {
		return nil, err
	}
	if err := a.Connect(ctx, acfg); err != nil {
		return nil, fmt.Errorf("failed to open %s engine: %w", acfg.Type, err)
	}

	exec := query.NewExecutor(a, c.Logger)
	var r chat.Router = offlineRouter{}
	if m != nil {
		r = c.newRouter(m, exec.Dialect())
	}

	opts := chat.Options{
		KeepHistoryOnLoad: c.Cfg.Chat.KeepHistoryOnLoad,
		Table:             table.Options{Sheet: c.Cfg.Chat.Sheet},
		Closer:            a,
	}
	return chat.New(exec, r, analysis.NewRegistry(), opts, c.Logger), nil
}

// LoadSession opens a session and loads path into it. The session is
// closed again when the load fails.
func (c *CommandContext) LoadSession(ctx context.Context, path string, withModel bool) (*chat.Session, error) {
	s, err := c.OpenSession(ctx, withModel)
	if err != nil {
		return nil, err
	}
	if _, err := s.Load(ctx, path); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// ChatModel validates the llm settings and builds the language model.
func (c *CommandContext) ChatModel(ctx context.Context) (model.ToolCallingChatModel, error) {
	if err := c.Cfg.ValidateLLM(); err != nil {
		return nil, err
	}
	m, err := newChatModel(ctx, c.Cfg.LLMSettings())
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("language model ready", "provider", c.Cfg.LLM.Provider, "model", c.Cfg.LLM.Model)
	return m, nil
}

// NewRouter builds a router over the configured language model.
func (c *CommandContext) NewRouter(ctx context.Context, dialect string) (*router.Router, error) {
	m, err := c.ChatModel(ctx)
	if err != nil {
		return nil, err
	}
	return c.newRouter(m, dialect), nil
}

func (c *CommandContext) newRouter(m model.ToolCallingChatModel, dialect string) *router.Router {
	return router.New(m, router.Options{Dialect: dialect, Retries: router.DefaultRetries}, c.Logger)
}

// offlineRouter answers every question with a routing error. It backs
// sessions opened without a language model.
type offlineRouter struct{}

func (offlineRouter) Route(context.Context, string, []table.ColumnInfo, *analysis.Registry) (router.Decision, error) {
	return router.Decision{}, &router.RoutingError{Reason: "no language model configured"}
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
