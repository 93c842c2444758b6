// Package chat runs the question and answer loop over one loaded table.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leapstack-labs/leapask/internal/analysis"
	"github.com/leapstack-labs/leapask/internal/query"
	"github.com/leapstack-labs/leapask/internal/router"
	"github.com/leapstack-labs/leapask/internal/table"
)

// ErrClosed is returned by operations on a closed session.
var ErrClosed = errors.New("session closed")

// State is the session state.
type State int

// Session states.
const (
	StateIdle State = iota
	StateReady
)

func (s State) String() string {
	if s == StateReady {
		return "ready"
	}
	return "idle"
}

// Router picks how to answer a question.
type Router interface {
	Route(ctx context.Context, question string, cols []table.ColumnInfo, reg *analysis.Registry) (router.Decision, error)
}

// Turn is one answered question.
type Turn struct {
	ID        string          `json:"id" yaml:"id"`
	Question  string          `json:"question" yaml:"question"`
	Decision  router.Decision `json:"decision" yaml:"decision"`
	Result    Payload         `json:"result" yaml:"result"`
	Answer    string          `json:"answer" yaml:"answer"`
	Timestamp time.Time       `json:"timestamp" yaml:"timestamp"`
}

// Options configures a Session.
type Options struct {
	// KeepHistoryOnLoad keeps past turns when a new table is loaded.
	KeepHistoryOnLoad bool
	// Table controls how files are read.
	Table table.Options
	// Closer is closed with the session, typically the SQL adapter.
	Closer io.Closer
}

// Session owns one loaded table, its query engine and the history of
// answered questions. Operations run one at a time.
type Session struct {
	ID string

	mu       sync.Mutex
	store    *table.Store
	exec     *query.Executor
	router   Router
	registry *analysis.Registry
	opts     Options
	logger   *slog.Logger

	history []Turn
	closed  bool
}

// New creates an Idle session.
func New(exec *query.Executor, r Router, reg *analysis.Registry, opts Options, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	id := uuid.NewString()
	logger = logger.With("session", id)
	return &Session{
		ID:       id,
		store:    table.NewStore(opts.Table, logger),
		exec:     exec,
		router:   r,
		registry: reg,
		opts:     opts,
		logger:   logger,
	}
}

// State returns Idle until a table has been loaded.
func (s *Session) State() State {
	if s.store.Loaded() {
		return StateReady
	}
	return StateIdle
}

// Registry returns the analysis registry.
func (s *Session) Registry() *analysis.Registry {
	return s.registry
}

// Executor returns the query executor.
func (s *Session) Executor() *query.Executor {
	return s.exec
}

// Load reads path and makes it the session's table. History is reset
// unless KeepHistoryOnLoad is set. On failure the session is unchanged.
func (s *Session) Load(ctx context.Context, path string) (*table.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	prev, _ := s.store.Current()
	t, err := s.store.Load(path)
	if err != nil {
		return nil, err
	}
	if err := s.exec.Sync(ctx, t); err != nil {
		if prev != nil {
			s.store.Set(prev)
		} else {
			s.store.Clear()
		}
		return nil, fmt.Errorf("failed to prepare %s for querying: %w", path, err)
	}

	if !s.opts.KeepHistoryOnLoad {
		s.history = nil
	}
	return t, nil
}

// Table returns the loaded table.
func (s *Session) Table() (*table.Table, error) {
	return s.store.Current()
}

// Schema returns the column names and types of the loaded table.
func (s *Session) Schema() ([]table.ColumnInfo, error) {
	return s.store.Schema()
}

// Preview returns the column names and up to n leading rows.
func (s *Session) Preview(n int) ([]string, [][]any, error) {
	return s.store.Preview(n)
}

// Ask answers one question.
//
// Routing, argument and query failures come back as a Reply of the
// matching kind and are not added to the history. The error is non-nil
// only when no table is loaded or the session is closed.
func (s *Session) Ask(ctx context.Context, question string) (*Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	t, err := s.store.Current()
	if err != nil {
		return nil, err
	}

	question = strings.TrimSpace(question)
	if question == "" {
		return &Reply{Kind: ReplyClarification, Text: textEmptyQuestion}, nil
	}

	start := time.Now()
	d, err := s.router.Route(ctx, question, t.Schema(), s.registry)
	if err != nil {
		s.logger.Warn("question not routed", "question", question, "error", err)
		return notUnderstood(err), nil
	}

	var payload Payload
	switch d.Kind {
	case router.KindQuery:
		res, err := s.exec.Run(ctx, d.Query, t)
		if err != nil {
			if !isQueryError(err) {
				return nil, err
			}
			s.logger.Warn("query failed", "query", d.Query, "error", err)
			return queryFailed(d, err), nil
		}
		payload = res
	case router.KindFunction:
		res, err := s.registry.Dispatch(t, d.Function, d.Arguments)
		if err != nil {
			s.logger.Info("function needs clarification", "function", d.Function, "error", err)
			if reply := functionFailed(d, err); reply != nil {
				return reply, nil
			}
			return nil, err
		}
		payload = res
	default:
		return notUnderstood(fmt.Errorf("unsupported decision kind %q", d.Kind)), nil
	}

	reply := answer(d, payload)
	turn := Turn{
		ID:        uuid.NewString(),
		Question:  question,
		Decision:  d,
		Result:    payload,
		Answer:    reply.Text,
		Timestamp: time.Now(),
	}
	reply.TurnID = turn.ID
	s.history = append(s.history, turn)

	s.logger.Info("question answered",
		"kind", d.Kind,
		"turn", len(s.history),
		"duration", time.Since(start))
	return reply, nil
}

// History returns a copy of the answered turns in order.
func (s *Session) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Turn(nil), s.history...)
}

// ResetHistory discards all turns.
func (s *Session) ResetHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}

// Close discards the table and history and closes the engine.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.history = nil
	s.store.Clear()
	if s.opts.Closer != nil {
		return s.opts.Closer.Close()
	}
	return nil
}
