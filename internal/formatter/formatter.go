// package formatter exports a page of records as text tables, CSV, Markdown or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/crmx/internal/models"
	"github.com/desertthunder/crmx/internal/shared"
)

// Format names an export encoding.
type Format string

const (
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// Formats lists the accepted values of [ParseFormat].
var Formats = []Format{FormatText, FormatCSV, FormatMarkdown, FormatJSON}

// ParseFormat accepts a format name; "md" is an alias of markdown and "" means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "":
		return FormatText, nil
	case "md":
		return FormatMarkdown, nil
	case FormatText, FormatCSV, FormatMarkdown, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w: format %q", shared.ErrInvalidFlag, s)
	}
}

// Export is one page of a collection ready to be rendered.
type Export struct {
	Collection string            `json:"collection"`
	Items      []models.Tabular  `json:"items"`
	Pagination models.Pagination `json:"pagination"`
	Counts     map[string]int    `json:"counts,omitempty"`
}

// NewExport collects the tabular records of items; records without a row form are skipped.
func NewExport(collection string, items []models.Record, p models.Pagination, counts map[string]int) *Export {
	e := &Export{Collection: collection, Items: make([]models.Tabular, 0, len(items)), Pagination: p, Counts: counts}
	for _, it := range items {
		if row, ok := it.(models.Tabular); ok {
			e.Items = append(e.Items, row)
		}
	}
	return e
}

func (e *Export) columns() []string {
	if len(e.Items) == 0 {
		return nil
	}
	return e.Items[0].Columns()
}

func (e *Export) rows() [][]string {
	rows := make([][]string, len(e.Items))
	for i, it := range e.Items {
		rows[i] = it.Row()
	}
	return rows
}

// summary reads "page 2 of 5 (42 total)".
func (e *Export) summary() string {
	p := e.Pagination
	return fmt.Sprintf("page %d of %d (%d total)", p.CurrentPage, max(p.PageCount, 1), p.Total)
}

// countsLine lists per-status counts in key order with TOTAL last.
func (e *Export) countsLine() string {
	if len(e.Counts) == 0 {
		return ""
	}
	keys := make([]string, 0, len(e.Counts))
	for k := range e.Counts {
		if k != models.CountsTotalKey {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	if _, ok := e.Counts[models.CountsTotalKey]; ok {
		keys = append(keys, models.CountsTotalKey)
	}

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, e.Counts[k])
	}
	return strings.Join(parts, " ")
}

// ExportToCSV writes a header row followed by one row per record.
func ExportToCSV(e *Export) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if cols := e.columns(); cols != nil {
		if err := writer.Write(cols); err != nil {
			return nil, fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	for _, record := range e.rows() {
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders a heading, the page summary and a pipe table.
func ExportToMarkdown(e *Export) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", titleCase(e.Collection)))
	buf.WriteString(fmt.Sprintf("**Page**: %s\n", e.summary()))
	if line := e.countsLine(); line != "" {
		buf.WriteString(fmt.Sprintf("**Counts**: %s\n", line))
	}
	buf.WriteString("\n")

	cols := e.columns()
	if cols == nil {
		buf.WriteString("_No records._\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("| " + strings.Join(cols, " | ") + " |\n")
	buf.WriteString("|" + strings.Repeat(" --- |", len(cols)) + "\n")
	for _, row := range e.rows() {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = strings.ReplaceAll(c, "|", `\|`)
		}
		buf.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}

	return buf.Bytes(), nil
}

// ExportToText renders a bordered table followed by the page summary.
func ExportToText(e *Export) ([]byte, error) {
	var buf bytes.Buffer

	if cols := e.columns(); cols != nil {
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers(cols...).
			Rows(e.rows()...)
		buf.WriteString(t.String())
		buf.WriteString("\n")
	} else {
		buf.WriteString(fmt.Sprintf("No %s.\n", e.Collection))
	}

	buf.WriteString(fmt.Sprintf("%s: %s\n", e.Collection, e.summary()))
	if line := e.countsLine(); line != "" {
		buf.WriteString(line + "\n")
	}

	return buf.Bytes(), nil
}

// ExportToJSON encodes the export, records included in their API shape.
func ExportToJSON(e *Export) ([]byte, error) {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// Render encodes e in format f.
func Render(f Format, e *Export) ([]byte, error) {
	switch f {
	case FormatCSV:
		return ExportToCSV(e)
	case FormatMarkdown:
		return ExportToMarkdown(e)
	case FormatJSON:
		return ExportToJSON(e)
	case FormatText, "":
		return ExportToText(e)
	default:
		return nil, fmt.Errorf("%w: format %q", shared.ErrInvalidFlag, f)
	}
}

// Write renders e to w.
func Write(w io.Writer, f Format, e *Export) error {
	data, err := Render(f, e)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteFile renders e to path, defaulting to {collection}.{ext} when path is empty.
func WriteFile(path string, f Format, e *Export) (string, error) {
	if path == "" {
		path = e.Collection + "." + Extension(f)
	}

	data, err := Render(f, e)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

// Extension is the conventional file extension of f.
func Extension(f Format) string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatMarkdown:
		return "md"
	case FormatJSON:
		return "json"
	default:
		return "txt"
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
