package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ExportFormat selects the export encoding.
type ExportFormat string

const (
	ExportText ExportFormat = "text"
	ExportJSON ExportFormat = "json"
	ExportYAML ExportFormat = "yaml"
)

// ExportFormats lists the supported formats.
var ExportFormats = []ExportFormat{ExportText, ExportJSON, ExportYAML}

// displayTimeLayout is used by the text report.
const displayTimeLayout = "2006-01-02 15:04:05"

// ExportOptions controls Export.
type ExportOptions struct {
	Format ExportFormat

	// GeneratedAt is stamped into the report header. Zero omits it.
	GeneratedAt time.Time
}

// LineageExport is one lineage and its events, oldest first.
type LineageExport struct {
	Key    string  `json:"key" yaml:"key"`
	Events []Event `json:"events" yaml:"events"`
}

// Document is the structured form of an export.
type Document struct {
	GeneratedAt *time.Time      `json:"generated_at,omitempty" yaml:"generated_at,omitempty"`
	Lineages    []LineageExport `json:"lineages" yaml:"lineages"`
}

// Export writes the whole log to w, grouped by lineage key.
func (s *Store) Export(ctx context.Context, w io.Writer, opts ExportOptions) error {
	doc, err := s.document(ctx, opts.GeneratedAt)
	if err != nil {
		return err
	}

	switch opts.Format {
	case ExportText, "":
		return writeText(w, doc)
	case ExportJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("export json: %w", err)
		}
		return nil
	case ExportYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("export yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown export format %q: must be one of %v", opts.Format, ExportFormats)
	}
}

func (s *Store) document(ctx context.Context, generatedAt time.Time) (Document, error) {
	doc := Document{Lineages: []LineageExport{}}
	if !generatedAt.IsZero() {
		at := generatedAt.UTC()
		doc.GeneratedAt = &at
	}

	for ev, err := range s.All(ctx) {
		if err != nil {
			return Document{}, err
		}
		n := len(doc.Lineages)
		if n == 0 || doc.Lineages[n-1].Key != ev.LineageKey {
			doc.Lineages = append(doc.Lineages, LineageExport{Key: ev.LineageKey})
			n++
		}
		doc.Lineages[n-1].Events = append(doc.Lineages[n-1].Events, ev)
	}
	return doc, nil
}

func writeText(w io.Writer, doc Document) error {
	var b strings.Builder
	b.WriteString("SavePlus Version History Export\n")
	if doc.GeneratedAt != nil {
		fmt.Fprintf(&b, "Generated: %s\n", doc.GeneratedAt.Format(displayTimeLayout))
	}
	b.WriteString("\n")

	for _, lineage := range doc.Lineages {
		fmt.Fprintf(&b, "Group: %s\n", lineage.Key)
		b.WriteString(strings.Repeat("-", 80) + "\n")

		for i, ev := range lineage.Events {
			fmt.Fprintf(&b, "Version %d: %s\n", i+1, ev.FileName)
			fmt.Fprintf(&b, "Date: %s\n", ev.Timestamp.Format(displayTimeLayout))
			if ev.Path != "" {
				fmt.Fprintf(&b, "Path: %s\n", ev.Path)
			}
			fmt.Fprintf(&b, "Kind: %s\n", ev.Kind)
			if note := strings.TrimSpace(ev.Note); note != "" {
				b.WriteString("Notes:\n")
				b.WriteString(note + "\n")
			}
			b.WriteString(strings.Repeat("-", 40) + "\n")
		}
		b.WriteString("\n")
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("export text: %w", err)
	}
	return nil
}
