package chat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapask/internal/analysis"
	"github.com/leapstack-labs/leapask/internal/query"
	"github.com/leapstack-labs/leapask/internal/router"
)

// ReplyKind classifies a reply.
type ReplyKind string

// Reply kinds.
const (
	ReplyAnswer        ReplyKind = "answer"
	ReplyClarification ReplyKind = "clarification"
	ReplyNotUnderstood ReplyKind = "not_understood"
	ReplyQueryFailed   ReplyKind = "query_failed"
)

// Reply texts for failures.
const (
	textNotUnderstood = "Sorry, I could not understand the question. Try rephrasing it."
	textQueryFailed   = "The generated query could not be run."
	textEmptyQuestion = "Please enter a question about the dataset."
	textNoOutlierCol  = "Please specify a column to detect outliers in."
)

// Payload is a result that can be shown as text or as a table.
// It is either a *query.ResultTable or an analysis.Result.
type Payload interface {
	Text() string
	Table() (columns []string, rows [][]any)
}

// Reply is the answer to one question.
type Reply struct {
	Kind     ReplyKind        `json:"kind"`
	Text     string           `json:"text"`
	Decision *router.Decision `json:"decision,omitempty"`
	Result   Payload          `json:"result,omitempty"`
	// Detail carries the underlying error for failed replies.
	Detail string `json:"detail,omitempty"`
	TurnID string `json:"turn_id,omitempty"`
}

// OK reports whether the reply answers the question.
func (r *Reply) OK() bool {
	return r.Kind == ReplyAnswer
}

func answer(d router.Decision, p Payload) *Reply {
	return &Reply{Kind: ReplyAnswer, Text: p.Text(), Decision: &d, Result: p}
}

func notUnderstood(err error) *Reply {
	return &Reply{Kind: ReplyNotUnderstood, Text: textNotUnderstood, Detail: err.Error()}
}

func queryFailed(d router.Decision, err error) *Reply {
	return &Reply{Kind: ReplyQueryFailed, Text: textQueryFailed, Decision: &d, Detail: err.Error()}
}

// functionFailed maps an analysis error to a clarification request.
// It returns nil for errors that are not the user's to fix.
func functionFailed(d router.Decision, err error) *Reply {
	var (
		missing  *analysis.MissingArgumentError
		invalid  *analysis.InvalidArgumentError
		notFound *analysis.ColumnNotFoundError
		wrong    *analysis.ColumnTypeError
		empty    *analysis.EmptyColumnError
		unknown  *analysis.UnknownFunctionError
		text     string
	)
	switch {
	case errors.As(err, &missing):
		if missing.Function == analysis.KindDetectOutliers.String() {
			text = textNoOutlierCol
		} else {
			text = fmt.Sprintf("Please specify a %s for %s.", missing.Argument, missing.Function)
		}
	case errors.As(err, &invalid):
		text = fmt.Sprintf("Please give the %s for %s by name.", invalid.Argument, invalid.Function)
	case errors.As(err, &notFound):
		text = fmt.Sprintf("Column %q was not found. Available columns: %s.", notFound.Column, strings.Join(notFound.Available, ", "))
	case errors.As(err, &wrong):
		text = fmt.Sprintf("Cannot compute numerical statistics for the %s column %q. Please specify a numerical column.", wrong.Actual, wrong.Column)
	case errors.As(err, &empty):
		text = fmt.Sprintf("Column %q has no values to compute with.", empty.Column)
	case errors.As(err, &unknown):
		return notUnderstood(err)
	default:
		return nil
	}
	return &Reply{Kind: ReplyClarification, Text: text, Decision: &d, Detail: err.Error()}
}

// isQueryError reports whether err is one of the executor's query errors.
func isQueryError(err error) bool {
	var (
		syntax    *query.QuerySyntaxError
		exec      *query.QueryExecutionError
		forbidden *query.ForbiddenOperationError
	)
	return errors.As(err, &syntax) || errors.As(err, &exec) || errors.As(err, &forbidden)
}
