package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/leapstack-labs/leapask/internal/analysis"
	"github.com/leapstack-labs/leapask/internal/query"
)

// malformedError marks a response that may succeed when asked again.
type malformedError struct {
	reason string
}

func (e *malformedError) Error() string { return e.reason }

func malformed(format string, args ...any) error {
	return &malformedError{reason: fmt.Sprintf(format, args...)}
}

func isMalformed(err error) bool {
	var m *malformedError
	return errors.As(err, &m)
}

// textCall is a function call written as JSON in the message text, for
// models that do not emit native tool calls.
type textCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// parseResponse validates a model message into a Decision.
//
// An unknown function name is a final *RoutingError; any other problem is a
// malformedError so the caller can re-prompt.
func parseResponse(msg *schema.Message, reg *analysis.Registry) (Decision, error) {
	if msg == nil {
		return Decision{}, malformed("empty response")
	}

	switch len(msg.ToolCalls) {
	case 0:
	case 1:
		fc := msg.ToolCalls[0].Function
		return functionDecision(fc.Name, fc.Arguments, reg)
	default:
		return Decision{}, malformed("expected exactly one function call, got %d", len(msg.ToolCalls))
	}

	text := StripFences(msg.Content)
	if text == "" {
		return Decision{}, malformed("empty response")
	}
	if strings.HasPrefix(text, "{") {
		var call textCall
		if err := json.Unmarshal([]byte(text), &call); err == nil && call.Name != "" {
			return functionDecision(call.Name, string(call.Arguments), reg)
		}
	}
	if query.LooksLikeStatement(text) {
		return QueryDecision(text), nil
	}
	return Decision{}, malformed("response is neither a SQL query nor a function call")
}

func functionDecision(name, rawArgs string, reg *analysis.Registry) (Decision, error) {
	name = strings.TrimSpace(name)
	if !reg.Has(name) {
		return Decision{}, &RoutingError{
			Reason: fmt.Sprintf("model chose unknown function %q", name),
			Raw:    name,
		}
	}

	args := map[string]any{}
	rawArgs = strings.TrimSpace(rawArgs)
	if rawArgs != "" && rawArgs != "null" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return Decision{}, malformed("invalid arguments for %s: %v", name, err)
		}
	}
	return FunctionDecision(name, args), nil
}

// StripFences removes a surrounding markdown code fence and whitespace.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop the info string (```sql, ```json).
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		if info := strings.TrimSpace(s[:nl]); !strings.Contains(info, " ") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
