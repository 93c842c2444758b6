package router

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/leapstack-labs/leapask/internal/analysis"
	"github.com/leapstack-labs/leapask/internal/query"
	"github.com/leapstack-labs/leapask/internal/table"
)

// DefaultRetries is how many times a malformed answer is re-prompted.
const DefaultRetries = 1

// Options configures a Router.
type Options struct {
	// TableName is the SQL name of the table in prompts.
	TableName string
	// Dialect is the SQL dialect named in prompts.
	Dialect string
	// Retries is the number of re-prompts after a malformed answer.
	Retries int
}

// Router turns questions into decisions with a chat model.
type Router struct {
	model  model.ToolCallingChatModel
	opts   Options
	logger *slog.Logger
}

// New creates a router over m.
func New(m model.ToolCallingChatModel, opts Options, logger *slog.Logger) *Router {
	if opts.TableName == "" {
		opts.TableName = query.DefaultTableName
	}
	if opts.Dialect == "" {
		opts.Dialect = "sqlite"
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Router{model: m, opts: opts, logger: logger}
}

// Route asks the model to answer question with a query or one function
// from reg, and validates the answer.
func (r *Router) Route(ctx context.Context, question string, cols []table.ColumnInfo, reg *analysis.Registry) (Decision, error) {
	descs := reg.Descriptors()
	bound, err := r.model.WithTools(ToolInfos(descs))
	if err != nil {
		return Decision{}, &RoutingError{Reason: "failed to bind function tools", Err: err}
	}

	prompt := BuildSystemPrompt(PromptInput{
		TableName: r.opts.TableName,
		Dialect:   r.opts.Dialect,
		Schema:    cols,
		Functions: descs,
	})
	msgs := []*schema.Message{
		schema.SystemMessage(prompt),
		schema.UserMessage(question),
	}

	var d Decision
	err = r.generate(ctx, bound, msgs, func(msg *schema.Message) error {
		var perr error
		d, perr = parseResponse(msg, reg)
		return perr
	})
	if err != nil {
		return Decision{}, err
	}

	r.logger.Info("question routed", "kind", d.Kind, "decision", d.String())
	return d, nil
}

// Translate asks the model for a SQL query only.
func (r *Router) Translate(ctx context.Context, question string, cols []table.ColumnInfo) (string, error) {
	prompt := BuildSQLPrompt(PromptInput{
		TableName: r.opts.TableName,
		Dialect:   r.opts.Dialect,
		Schema:    cols,
	})
	msgs := []*schema.Message{
		schema.SystemMessage(prompt),
		schema.UserMessage(question),
	}

	var sql string
	err := r.generate(ctx, r.model, msgs, func(msg *schema.Message) error {
		text := StripFences(msg.Content)
		if !query.LooksLikeStatement(text) {
			return malformed("response is not a SQL query")
		}
		sql = text
		return nil
	})
	return sql, err
}

// generate calls the model and hands each answer to accept, re-prompting
// while accept reports a malformed answer and retries remain.
func (r *Router) generate(ctx context.Context, m model.BaseChatModel, msgs []*schema.Message, accept func(*schema.Message) error) error {
	var (
		lastErr error
		lastRaw string
	)
	for attempt := 0; attempt <= r.opts.Retries; attempt++ {
		resp, err := m.Generate(ctx, msgs)
		if err != nil {
			return &RoutingError{Reason: "model call failed", Err: err}
		}
		if resp != nil {
			lastRaw = resp.Content
		}

		err = accept(resp)
		if err == nil {
			return nil
		}
		if !isMalformed(err) {
			r.logger.Warn("routing rejected", "error", err)
			return err
		}

		lastErr = err
		r.logger.Warn("malformed model answer", "attempt", attempt+1, "reason", err, "raw", lastRaw)
		msgs = append(msgs, schema.UserMessage(fmt.Sprintf(
			"Your previous answer could not be used (%v). Answer again with either one SQL SELECT statement and nothing else, or exactly one function call.",
			err)))
	}
	return &RoutingError{Reason: lastErr.Error(), Raw: lastRaw}
}
