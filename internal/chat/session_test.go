package chat

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapask/internal/adapter"
	"github.com/leapstack-labs/leapask/internal/analysis"
	"github.com/leapstack-labs/leapask/internal/query"
	"github.com/leapstack-labs/leapask/internal/router"
	"github.com/leapstack-labs/leapask/internal/table"
	"github.com/leapstack-labs/leapask/internal/testutil"
)

func newSession(t *testing.T, m *testutil.FakeChatModel, opts Options) *Session {
	t.Helper()
	logger := testutil.NewTestLogger(t)

	a, err := adapter.NewAdapter(adapter.Config{Type: "sqlite"}, logger)
	require.NoError(t, err)
	require.NoError(t, a.Connect(context.Background(), adapter.Config{Type: "sqlite"}))
	opts.Closer = a

	exec := query.NewExecutor(a, logger)
	r := router.New(m, router.Options{TableName: exec.TableName(), Dialect: exec.Dialect(), Retries: router.DefaultRetries}, logger)
	s := New(exec, r, analysis.NewRegistry(), opts, logger)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func loadedSession(t *testing.T, m *testutil.FakeChatModel) *Session {
	t.Helper()
	s := newSession(t, m, Options{})
	_, err := s.Load(context.Background(), testutil.WritePeopleCSV(t))
	require.NoError(t, err)
	return s
}

func TestAsk_QueryEndToEnd(t *testing.T) {
	m := &testutil.FakeChatModel{Responses: []*schema.Message{
		testutil.Text("SELECT COUNT(*) FROM df WHERE \"City\" = 'NY'"),
	}}
	s := loadedSession(t, m)
	assert.Equal(t, StateReady, s.State())

	reply, err := s.Ask(context.Background(), "How many rows have City as NY")
	require.NoError(t, err)
	require.Equal(t, ReplyAnswer, reply.Kind)
	require.NotNil(t, reply.Decision)
	assert.Equal(t, router.KindQuery, reply.Decision.Kind)

	res, ok := reply.Result.(*query.ResultTable)
	require.True(t, ok)
	v, ok := res.Scalar()
	require.True(t, ok)
	assert.EqualValues(t, 2, v)

	history := s.History()
	require.Len(t, history, 1)
	assert.Equal(t, "How many rows have City as NY", history[0].Question)
	assert.Equal(t, reply.TurnID, history[0].ID)
	assert.Equal(t, reply.Text, history[0].Answer)
}

func TestAsk_Function(t *testing.T) {
	m := &testutil.FakeChatModel{Responses: []*schema.Message{
		testutil.ToolCall("mean", `{"column":"Age"}`),
	}}
	s := loadedSession(t, m)

	reply, err := s.Ask(context.Background(), "What is the average age?")
	require.NoError(t, err)
	require.Equal(t, ReplyAnswer, reply.Kind)

	sc, ok := reply.Result.(analysis.Scalar)
	require.True(t, ok)
	assert.InDelta(t, 31.666666, sc.Value, 1e-5)
	assert.Len(t, s.History(), 1)
}

func TestAsk_Clarifications(t *testing.T) {
	tests := []struct {
		name string
		msg  *schema.Message
		want string
	}{
		{
			name: "outliers without column",
			msg:  testutil.ToolCall("detect_outliers", `{}`),
			want: "Please specify a column to detect outliers in.",
		},
		{
			name: "absent column",
			msg:  testutil.ToolCall("mean", `{"column":"Height"}`),
			want: `Column "Height" was not found. Available columns: Age, City.`,
		},
		{
			name: "text column",
			msg:  testutil.ToolCall("describe", `{"column":"City"}`),
			want: `Cannot compute numerical statistics for the text column "City". Please specify a numerical column.`,
		},
		{
			name: "non-string column",
			msg:  testutil.ToolCall("mean", `{"column":3}`),
			want: "Please give the column for mean by name.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := loadedSession(t, &testutil.FakeChatModel{Responses: []*schema.Message{tt.msg}})

			reply, err := s.Ask(context.Background(), "something")
			require.NoError(t, err)
			assert.Equal(t, ReplyClarification, reply.Kind)
			assert.Equal(t, tt.want, reply.Text)
			assert.NotEmpty(t, reply.Detail)
			assert.Empty(t, s.History())
		})
	}
}

func TestAsk_NotUnderstood(t *testing.T) {
	m := &testutil.FakeChatModel{Responses: []*schema.Message{
		testutil.Text("I am not sure."),
		testutil.Text("Really not sure."),
	}}
	s := loadedSession(t, m)

	reply, err := s.Ask(context.Background(), "tell me a joke")
	require.NoError(t, err)
	assert.Equal(t, ReplyNotUnderstood, reply.Kind)
	assert.Equal(t, textNotUnderstood, reply.Text)
	assert.Nil(t, reply.Decision)
	assert.Empty(t, s.History())
}

func TestAsk_QueryFailed(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"mutation", "DELETE FROM df"},
		{"unknown column", "SELECT Height FROM df"},
		{"syntax", "SELECT FROM WHERE df"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := loadedSession(t, &testutil.FakeChatModel{Responses: []*schema.Message{testutil.Text(tt.query)}})

			reply, err := s.Ask(context.Background(), "q")
			require.NoError(t, err)
			assert.Equal(t, ReplyQueryFailed, reply.Kind)
			require.NotNil(t, reply.Decision)
			assert.Equal(t, tt.query, reply.Decision.Query)
			assert.Empty(t, s.History())

			tbl, err := s.Table()
			require.NoError(t, err)
			assert.Equal(t, 3, tbl.NumRows())
		})
	}
}

func TestAsk_BlankQuestion(t *testing.T) {
	m := &testutil.FakeChatModel{}
	s := loadedSession(t, m)

	reply, err := s.Ask(context.Background(), "   ")
	require.NoError(t, err)
	assert.Equal(t, ReplyClarification, reply.Kind)
	assert.Empty(t, m.Calls())
}

func TestAsk_Idle(t *testing.T) {
	m := &testutil.FakeChatModel{}
	s := newSession(t, m, Options{})
	assert.Equal(t, StateIdle, s.State())

	_, err := s.Ask(context.Background(), "How many rows?")
	var nl *table.NotLoadedError
	require.ErrorAs(t, err, &nl)
	assert.Empty(t, m.Calls())
}

func TestLoad_ResetsHistory(t *testing.T) {
	ask := func(s *Session) {
		_, err := s.Ask(context.Background(), "shape?")
		require.NoError(t, err)
	}
	responses := func() []*schema.Message {
		return []*schema.Message{testutil.ToolCall("shape", "")}
	}

	t.Run("default resets", func(t *testing.T) {
		s := loadedSession(t, &testutil.FakeChatModel{Responses: responses()})
		ask(s)
		require.Len(t, s.History(), 1)

		_, err := s.Load(context.Background(), testutil.WriteFile(t, "other.csv", "x\n1\n"))
		require.NoError(t, err)
		assert.Empty(t, s.History())
	})

	t.Run("keep history", func(t *testing.T) {
		s := newSession(t, &testutil.FakeChatModel{Responses: responses()}, Options{KeepHistoryOnLoad: true})
		_, err := s.Load(context.Background(), testutil.WritePeopleCSV(t))
		require.NoError(t, err)
		ask(s)

		_, err = s.Load(context.Background(), testutil.WriteFile(t, "other.csv", "x\n1\n"))
		require.NoError(t, err)
		assert.Len(t, s.History(), 1)
	})
}

func TestLoad_FailureKeepsState(t *testing.T) {
	s := newSession(t, &testutil.FakeChatModel{}, Options{})

	_, err := s.Load(context.Background(), testutil.WriteFile(t, "empty.csv", ""))
	var le *table.LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, StateIdle, s.State())

	_, err = s.Load(context.Background(), testutil.WritePeopleCSV(t))
	require.NoError(t, err)

	_, err = s.Load(context.Background(), "/does/not/exist.csv")
	require.Error(t, err)
	tbl, err := s.Table()
	require.NoError(t, err)
	assert.Equal(t, []string{"Age", "City"}, tbl.ColumnNames())
}

func TestClose(t *testing.T) {
	s := loadedSession(t, &testutil.FakeChatModel{})
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err := s.Ask(context.Background(), "q")
	assert.True(t, errors.Is(err, ErrClosed))
	_, err = s.Load(context.Background(), testutil.WritePeopleCSV(t))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestResetHistory(t *testing.T) {
	s := loadedSession(t, &testutil.FakeChatModel{Responses: []*schema.Message{testutil.ToolCall("shape", "")}})
	_, err := s.Ask(context.Background(), "shape")
	require.NoError(t, err)

	h := s.History()
	h[0].Question = "changed"
	assert.Equal(t, "shape", s.History()[0].Question)

	s.ResetHistory()
	assert.Empty(t, s.History())
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	s := newSession(t, &testutil.FakeChatModel{}, Options{})
	path := testutil.WritePeopleCSV(t)
	_, err := s.Load(context.Background(), path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu       sync.Mutex
		reloaded *table.Table
	)
	done := make(chan error, 1)
	go func() {
		done <- s.Watch(ctx, path, func(t *table.Table, err error) {
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				reloaded = t
			}
		})
	}()

	// Let the watcher register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("Age,City,Score\n25,NY,1\n"), 0o600))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return reloaded != nil && reloaded.NumColumns() == 3
	}, 5*time.Second, 50*time.Millisecond)

	tbl, err := s.Table()
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.NumRows())

	cancel()
	require.NoError(t, <-done)
}
