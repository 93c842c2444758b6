package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/leapask/internal/analysis"
)

// generateFunctionDocs writes the analysis function reference from the registry.
func generateFunctionDocs(outDir string) error {
	log.Printf("Generating function docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	w := NewMarkdownWriter()
	writeFunctionsPage(w, analysis.NewRegistry())
	if err := os.WriteFile(filepath.Join(outDir, "functions.md"), w.Bytes(), 0600); err != nil {
		return err
	}
	log.Printf("  Generated functions.md")
	return nil
}

func writeFunctionsPage(w *MarkdownWriter, reg *analysis.Registry) {
	w.Frontmatter("Analysis Functions", "Built-in analysis functions questions can be routed to")
	w.GeneratedMarker()

	w.Header(1, "Analysis Functions")
	w.Paragraph("Questions that match one of these functions are answered without SQL. " +
		"Run them directly with `leapask analyze <file> <function>`.")

	var rows [][]string
	for _, d := range reg.Descriptors() {
		rows = append(rows, []string{InlineCode(d.Name), cleanDescription(d.Description)})
	}
	w.Table([]string{"Function", "Description"}, rows)

	for _, d := range reg.Descriptors() {
		w.Header(2, d.Name)
		w.Paragraph(d.Description)
		if len(d.Params) == 0 {
			w.Paragraph("Takes no arguments.")
			continue
		}
		var params [][]string
		for _, p := range d.Params {
			req := "No"
			if p.Required {
				req = "Yes"
			}
			params = append(params, []string{InlineCode(p.Name), p.Type, req, cleanDescription(p.Description)})
		}
		w.Table([]string{"Argument", "Type", "Required", "Description"}, params)
	}
}
