// Package router asks a language model how to answer a question: with a
// SQL query or with one of the registered analysis functions.
package router

import "fmt"

// DecisionKind tags a Decision.
type DecisionKind string

// The two ways a question can be answered.
const (
	KindQuery    DecisionKind = "query"
	KindFunction DecisionKind = "function"
)

// Decision is the routing outcome for one question.
//
// Query is set when Kind is KindQuery; Function and Arguments are set when
// Kind is KindFunction.
type Decision struct {
	Kind      DecisionKind   `json:"kind" yaml:"kind"`
	Query     string         `json:"query,omitempty" yaml:"query,omitempty"`
	Function  string         `json:"function,omitempty" yaml:"function,omitempty"`
	Arguments map[string]any `json:"arguments,omitempty" yaml:"arguments,omitempty"`
}

// QueryDecision returns a query decision.
func QueryDecision(text string) Decision {
	return Decision{Kind: KindQuery, Query: text}
}

// FunctionDecision returns a function decision. Nil arguments become empty.
func FunctionDecision(name string, args map[string]any) Decision {
	if args == nil {
		args = map[string]any{}
	}
	return Decision{Kind: KindFunction, Function: name, Arguments: args}
}

func (d Decision) String() string {
	if d.Kind == KindFunction {
		return fmt.Sprintf("%s(%v)", d.Function, d.Arguments)
	}
	return d.Query
}

// RoutingError is returned when the model's answer cannot be used.
type RoutingError struct {
	Reason string
	// Raw is the model output that failed validation, if any.
	Raw string
	Err error
}

func (e *RoutingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("routing failed: %s: %v", e.Reason, e.Err)
	}
	return "routing failed: " + e.Reason
}

func (e *RoutingError) Unwrap() error {
	return e.Err
}
