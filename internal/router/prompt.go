package router

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapask/internal/analysis"
	"github.com/leapstack-labs/leapask/internal/table"
)

// PromptInput is everything the system prompt describes.
type PromptInput struct {
	TableName string
	Dialect   string
	Schema    []table.ColumnInfo
	Functions []analysis.Descriptor
}

// BuildSystemPrompt renders the routing instructions for one question.
func BuildSystemPrompt(in PromptInput) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are a data analysis assistant. You answer questions about one table named %s, "+
		"stored in a %s database.\n\n", in.TableName, in.Dialect)

	writeSchema(&sb, in)

	if len(in.Functions) > 0 {
		sb.WriteString("Analysis functions (available as tools):\n")
		for _, fn := range in.Functions {
			params := make([]string, len(fn.Params))
			for i, p := range fn.Params {
				params[i] = p.Name
			}
			fmt.Fprintf(&sb, "- %s(%s): %s\n", fn.Name, strings.Join(params, ", "), fn.Description)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Rules:\n")
	rules := []string{
		fmt.Sprintf("Prefer answering with a single SQL query against %s.", in.TableName),
		`Wrap every column name in double quotes, for example "Age".`,
		fmt.Sprintf(`To count rows or list distinct values write SQL, for example SELECT COUNT(*) FROM %[1]s WHERE "City" = 'NY' or SELECT DISTINCT "City" FROM %[1]s.`, in.TableName),
		"For the dataset shape, summary statistics, the mean, unique values or outliers of a column, call the matching function.",
		"Never guess a column for detect_outliers. If the user does not name one, call detect_outliers with an empty column.",
		"Only read data. Never write statements that insert, update, delete or change tables.",
		"When you answer with SQL, reply with the SQL statement only: no explanation and no markdown.",
	}
	for i, r := range rules {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, r)
	}
	return sb.String()
}

// BuildSQLPrompt renders instructions for translating a question to SQL only.
func BuildSQLPrompt(in PromptInput) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You translate questions into one %s SQL SELECT query over the table %s.\n\n", in.Dialect, in.TableName)
	writeSchema(&sb, in)
	sb.WriteString(`Wrap every column name in double quotes. Reply with the SQL statement only: no explanation and no markdown.` + "\n")
	return sb.String()
}

func writeSchema(sb *strings.Builder, in PromptInput) {
	fmt.Fprintf(sb, "Columns of %s:\n", in.TableName)
	hasDate := false
	for _, c := range in.Schema {
		fmt.Fprintf(sb, "- %q (%s)\n", c.Name, c.Type)
		if c.Type == table.TypeDate {
			hasDate = true
		}
	}
	if hasDate {
		sb.WriteString("Date columns are stored as ISO text (YYYY-MM-DD).\n")
	}
	sb.WriteString("\n")
}
