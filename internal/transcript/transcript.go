// Package transcript exports a session's answered questions.
package transcript

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leapask/internal/chat"
	"github.com/leapstack-labs/leapask/internal/table"
)

// ErrUnsupportedFormat is returned by NewExporter for unknown formats.
var ErrUnsupportedFormat = errors.New("unsupported transcript format")

// Formats lists the accepted format names.
var Formats = []string{"json", "jsonl", "md", "yaml"}

// Transcript is the exported form of a session.
type Transcript struct {
	Dataset    string      `json:"dataset" yaml:"dataset"`
	Source     string      `json:"source,omitempty" yaml:"source,omitempty"`
	LoadedAt   time.Time   `json:"loaded_at" yaml:"loaded_at"`
	ExportedAt time.Time   `json:"exported_at" yaml:"exported_at"`
	Turns      []chat.Turn `json:"turns" yaml:"turns"`
}

// New builds a transcript of turns over t. t may be nil.
func New(t *table.Table, turns []chat.Turn) *Transcript {
	tr := &Transcript{ExportedAt: time.Now(), Turns: turns}
	if tr.Turns == nil {
		tr.Turns = []chat.Turn{}
	}
	if t != nil {
		tr.Dataset = t.Name
		tr.Source = t.Source
		tr.LoadedAt = t.LoadedAt
	}
	return tr
}

// FromSession builds a transcript of the session's current history.
func FromSession(s *chat.Session) *Transcript {
	t, _ := s.Table()
	return New(t, s.History())
}

// Exporter writes a transcript in one format.
type Exporter interface {
	Export(tr *Transcript, w io.Writer) error
	Extension() string
	ContentType() string
}

// NewExporter returns the exporter for format.
func NewExporter(format string) (Exporter, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "json":
		return jsonExporter{}, nil
	case "jsonl", "ndjson":
		return jsonlExporter{}, nil
	case "md", "markdown":
		return markdownExporter{}, nil
	case "yaml", "yml":
		return yamlExporter{}, nil
	default:
		return nil, fmt.Errorf("%w %q (supported: %s)", ErrUnsupportedFormat, format, strings.Join(Formats, ", "))
	}
}

type jsonExporter struct{}

func (jsonExporter) Export(tr *Transcript, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(tr)
}

func (jsonExporter) Extension() string   { return ".json" }
func (jsonExporter) ContentType() string { return "application/json" }

// jsonlExporter writes one turn per line.
type jsonlExporter struct{}

func (jsonlExporter) Export(tr *Transcript, w io.Writer) error {
	enc := json.NewEncoder(w)
	for _, turn := range tr.Turns {
		if err := enc.Encode(turn); err != nil {
			return err
		}
	}
	return nil
}

func (jsonlExporter) Extension() string   { return ".jsonl" }
func (jsonlExporter) ContentType() string { return "application/x-ndjson" }

type yamlExporter struct{}

func (yamlExporter) Export(tr *Transcript, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(tr); err != nil {
		return err
	}
	return enc.Close()
}

func (yamlExporter) Extension() string   { return ".yaml" }
func (yamlExporter) ContentType() string { return "application/yaml" }
