package transcript

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leapask/internal/analysis"
	"github.com/leapstack-labs/leapask/internal/chat"
	"github.com/leapstack-labs/leapask/internal/query"
	"github.com/leapstack-labs/leapask/internal/router"
	"github.com/leapstack-labs/leapask/internal/table"
)

func sample() *Transcript {
	loaded := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	tr := New(&table.Table{Name: "people", Source: "/data/people.csv", LoadedAt: loaded}, []chat.Turn{
		{
			ID:       "t1",
			Question: "How many rows have City as NY",
			Decision: router.QueryDecision(`SELECT COUNT(*) FROM df WHERE "City" = 'NY'`),
			Result:   &query.ResultTable{Columns: []string{"COUNT(*)"}, Rows: [][]any{{int64(2)}}},
			Answer:   "COUNT(*) = 2",
		},
		{
			ID:       "t2",
			Question: "Unique cities?",
			Decision: router.FunctionDecision("unique_values", map[string]any{"column": "City"}),
			Result:   analysis.Values{Column: "City", Values: []any{"NY", "LA|SF"}},
			Answer:   `"City" has 2 distinct values: NY, LA|SF`,
		},
	})
	tr.ExportedAt = loaded.Add(time.Hour)
	return tr
}

func export(t *testing.T, format string, tr *Transcript) string {
	t.Helper()
	e, err := NewExporter(format)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, e.Export(tr, &buf))
	return buf.String()
}

func TestNewExporter(t *testing.T) {
	tests := []struct {
		format string
		ext    string
	}{
		{"json", ".json"},
		{"JSON", ".json"},
		{"jsonl", ".jsonl"},
		{"md", ".md"},
		{"markdown", ".md"},
		{".yml", ".yaml"},
	}
	for _, tt := range tests {
		e, err := NewExporter(tt.format)
		require.NoError(t, err, tt.format)
		assert.Equal(t, tt.ext, e.Extension())
		assert.NotEmpty(t, e.ContentType())
	}

	_, err := NewExporter("pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExport_JSON(t *testing.T) {
	out := export(t, "json", sample())

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "people", got["dataset"])

	turns, ok := got["turns"].([]any)
	require.True(t, ok)
	require.Len(t, turns, 2)
	first := turns[0].(map[string]any)
	assert.Equal(t, "How many rows have City as NY", first["question"])
}

func TestExport_JSONL(t *testing.T) {
	out := export(t, "jsonl", sample())

	var lines []string
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.Len(t, lines, 2)

	var turn map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &turn))
	assert.Equal(t, "t2", turn["id"])
}

func TestExport_YAML(t *testing.T) {
	out := export(t, "yaml", sample())

	var got struct {
		Dataset string `yaml:"dataset"`
		Turns   []struct {
			Question string `yaml:"question"`
			Decision struct {
				Kind     string `yaml:"kind"`
				Function string `yaml:"function"`
			} `yaml:"decision"`
		} `yaml:"turns"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, "people", got.Dataset)
	require.Len(t, got.Turns, 2)
	assert.Equal(t, "function", got.Turns[1].Decision.Kind)
	assert.Equal(t, "unique_values", got.Turns[1].Decision.Function)
}

func TestExport_Markdown(t *testing.T) {
	out := export(t, "md", sample())

	assert.Contains(t, out, "# Questions about people")
	assert.Contains(t, out, "Source: `/data/people.csv`")
	assert.Contains(t, out, "## 1. How many rows have City as NY")
	assert.Contains(t, out, "```sql\nSELECT COUNT(*) FROM df WHERE \"City\" = 'NY'\n```")
	assert.Contains(t, out, "## 2. Unique cities?")
	assert.Contains(t, out, "| City |")
	assert.Contains(t, out, `| LA\|SF |`)
}

func TestNew_Empty(t *testing.T) {
	tr := New(nil, nil)
	assert.NotNil(t, tr.Turns)
	assert.Empty(t, tr.Dataset)

	out := export(t, "md", tr)
	assert.Contains(t, out, "# Questions about dataset")
}
