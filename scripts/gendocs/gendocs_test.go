package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapask/internal/analysis"
)

func TestMarkdownWriter(t *testing.T) {
	w := NewMarkdownWriter()
	w.Header(2, "Flags")
	w.Table([]string{"Option", "Description"}, [][]string{{InlineCode("--run"), "a|b"}})
	w.Table([]string{"Empty"}, nil)
	w.CodeBlock("bash", "leapask ask\n")

	assert.Equal(t, "## Flags\n\n"+
		"| Option | Description |\n| --- | --- |\n| `--run` | a\\|b |\n\n"+
		"```bash\nleapask ask\n```\n\n", w.String())
}

func TestCleanHelpers(t *testing.T) {
	assert.Equal(t, "Run a query", cleanDescription("Run  a\nquery."))
	assert.Equal(t, "leapask ask data.csv \"How many?\"\nleapask sql data.csv x",
		cleanExample("  leapask ask data.csv \"How many?\"\n  leapask sql data.csv x\n"))
	assert.Equal(t, "LEAPASK_LLM__BASE_URL", envName("llm.base_url"))
	assert.Equal(t, "LEAPASK_OUTPUT", envName("output"))
}

func TestGenerateCLIDocs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, generateCLIDocs(dir))

	index, err := os.ReadFile(filepath.Join(dir, "index.md"))
	require.NoError(t, err)
	assert.Contains(t, string(index), generatedMarker)
	assert.Contains(t, string(index), "[`ask`](/cli/ask)")
	assert.Contains(t, string(index), "`LEAPASK_LLM__MODEL`")

	page, err := os.ReadFile(filepath.Join(dir, "query.md"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "`--format`")
	assert.Contains(t, string(page), "## Global Options")
}

func TestFunctionsPage(t *testing.T) {
	w := NewMarkdownWriter()
	writeFunctionsPage(w, analysis.NewRegistry())

	out := w.String()
	for _, name := range []string{"shape", "describe", "mean", "unique_values", "detect_outliers"} {
		assert.Contains(t, out, "## "+name+"\n")
	}
	assert.Contains(t, out, "| `column` | string | Yes |")
	assert.Contains(t, out, "Takes no arguments.")
}

func TestGenerateSchemaDocs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, generateSchemaDocs(dir))

	doc, err := os.ReadFile(filepath.Join(dir, "configuration.md"))
	require.NoError(t, err)
	assert.Contains(t, string(doc), "## Language Model")
	assert.Contains(t, string(doc), "| `engine.type` | string | `sqlite` |")
	assert.Contains(t, string(doc), "| `llm.base_url` | string | - |")
}
