// Package analysis implements the fixed set of named analysis functions
// that a question can be routed to.
//
// The set is closed: every function has a Kind, an argument type that
// implements Call, and a Descriptor that is shown to the language model.
// Dispatch resolves a name through the Registry built at startup and runs
// the matching implementation. Functions never modify the table.
package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapask/internal/table"
)

// Kind identifies an analysis function.
type Kind int

// Function kinds.
const (
	KindShape Kind = iota
	KindDescribe
	KindMean
	KindUniqueValues
	KindDetectOutliers
)

var kindNames = map[Kind]string{
	KindShape:          "shape",
	KindDescribe:       "describe",
	KindMean:           "mean",
	KindUniqueValues:   "unique_values",
	KindDetectOutliers: "detect_outliers",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Param describes one argument of a function.
type Param struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description" yaml:"description"`
	Required    bool   `json:"required" yaml:"required"`
}

// Descriptor is the public description of a function.
type Descriptor struct {
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description" yaml:"description"`
	Params      []Param `json:"params" yaml:"params"`
}

// Call is a bound invocation of one function.
type Call interface {
	Kind() Kind
}

// ShapeArgs are the arguments of shape.
type ShapeArgs struct{}

// DescribeArgs are the arguments of describe.
type DescribeArgs struct{ Column string }

// MeanArgs are the arguments of mean.
type MeanArgs struct{ Column string }

// UniqueValuesArgs are the arguments of unique_values.
type UniqueValuesArgs struct{ Column string }

// DetectOutliersArgs are the arguments of detect_outliers.
type DetectOutliersArgs struct{ Column string }

func (ShapeArgs) Kind() Kind          { return KindShape }
func (DescribeArgs) Kind() Kind       { return KindDescribe }
func (MeanArgs) Kind() Kind           { return KindMean }
func (UniqueValuesArgs) Kind() Kind   { return KindUniqueValues }
func (DetectOutliersArgs) Kind() Kind { return KindDetectOutliers }

type function struct {
	desc Descriptor
	kind Kind
	bind func(args map[string]any) (Call, error)
}

// Registry maps function names to their implementations.
// It is immutable after NewRegistry returns.
type Registry struct {
	byName map[string]*function
	names  []string
}

func columnParam(desc string) Param {
	return Param{Name: "column", Type: "string", Description: desc, Required: true}
}

// NewRegistry builds the registry of all analysis functions.
func NewRegistry() *Registry {
	fns := []*function{
		{
			kind: KindShape,
			desc: Descriptor{
				Description: "Get the number of rows and columns of the dataset.",
			},
			bind: func(map[string]any) (Call, error) { return ShapeArgs{}, nil },
		},
		{
			kind: KindDescribe,
			desc: Descriptor{
				Description: "Summary statistics (count, mean, std, min, quartiles, max) of a numeric column.",
				Params:      []Param{columnParam("Name of the numeric column to summarize.")},
			},
			bind: func(args map[string]any) (Call, error) {
				col, err := columnArg(KindDescribe, args)
				return DescribeArgs{Column: col}, err
			},
		},
		{
			kind: KindMean,
			desc: Descriptor{
				Description: "Arithmetic mean of the non-missing values of a numeric column.",
				Params:      []Param{columnParam("Name of the numeric column.")},
			},
			bind: func(args map[string]any) (Call, error) {
				col, err := columnArg(KindMean, args)
				return MeanArgs{Column: col}, err
			},
		},
		{
			kind: KindUniqueValues,
			desc: Descriptor{
				Description: "Distinct values of a column in order of first occurrence.",
				Params:      []Param{columnParam("Name of the column.")},
			},
			bind: func(args map[string]any) (Call, error) {
				col, err := columnArg(KindUniqueValues, args)
				return UniqueValuesArgs{Column: col}, err
			},
		},
		{
			kind: KindDetectOutliers,
			desc: Descriptor{
				Description: "Detect outliers in a numeric column with the 1.5 x IQR rule. " +
					"Only call this when the user names a column.",
				Params: []Param{columnParam("Name of the numeric column to check for outliers.")},
			},
			bind: func(args map[string]any) (Call, error) {
				col, err := columnArg(KindDetectOutliers, args)
				return DetectOutliersArgs{Column: col}, err
			},
		},
	}

	r := &Registry{byName: make(map[string]*function, len(fns))}
	for _, fn := range fns {
		fn.desc.Name = fn.kind.String()
		if fn.desc.Params == nil {
			fn.desc.Params = []Param{}
		}
		r.byName[fn.desc.Name] = fn
		r.names = append(r.names, fn.desc.Name)
	}
	sort.Strings(r.names)
	return r
}

// Has reports whether name is a registered function.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Descriptor returns the descriptor for name.
func (r *Registry) Descriptor(name string) (Descriptor, bool) {
	fn, ok := r.byName[name]
	if !ok {
		return Descriptor{}, false
	}
	return fn.desc, true
}

// Descriptors returns all descriptors sorted by name.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.byName[name].desc)
	}
	return out
}

// Bind validates args against the named function and returns the call.
func (r *Registry) Bind(name string, args map[string]any) (Call, error) {
	fn, ok := r.byName[name]
	if !ok {
		return nil, &UnknownFunctionError{Name: name, Available: r.Names()}
	}
	return fn.bind(args)
}

// Run executes a bound call against t.
func (r *Registry) Run(t *table.Table, call Call) (Result, error) {
	switch c := call.(type) {
	case ShapeArgs:
		return ShapeOf(t), nil
	case DescribeArgs:
		return Describe(t, c.Column)
	case MeanArgs:
		return Mean(t, c.Column)
	case UniqueValuesArgs:
		return UniqueValues(t, c.Column)
	case DetectOutliersArgs:
		return DetectOutliers(t, c.Column)
	default:
		return nil, fmt.Errorf("unsupported call %T", call)
	}
}

// Dispatch binds and runs the named function.
func (r *Registry) Dispatch(t *table.Table, name string, args map[string]any) (Result, error) {
	call, err := r.Bind(name, args)
	if err != nil {
		return nil, err
	}
	return r.Run(t, call)
}

func columnArg(k Kind, args map[string]any) (string, error) {
	v, ok := args["column"]
	if !ok || v == nil {
		return "", &MissingArgumentError{Function: k.String(), Argument: "column"}
	}
	s, ok := v.(string)
	if !ok {
		return "", &InvalidArgumentError{Function: k.String(), Argument: "column", Value: v}
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", &MissingArgumentError{Function: k.String(), Argument: "column"}
	}
	return s, nil
}
