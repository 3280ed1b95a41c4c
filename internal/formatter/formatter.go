// package formatter provides functions to export chart data to various formats (CSV, Markdown, JSON, plain text)
// and to write the report of entries that could not be matched.
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/chartlist/internal/models"
	"github.com/desertthunder/chartlist/internal/shared"
)

// Supported export formats.
const (
	FormatText     = "text"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// ChartExport is a resolved chart ready for export.
type ChartExport struct {
	Title     string              `json:"title"`
	Requested string              `json:"requested"`
	Effective string              `json:"effective"`
	Origin    string              `json:"origin"`
	Entries   []models.ChartEntry `json:"entries"`
}

// ExportToCSV converts a ChartExport to CSV format with columns: Rank, Title, Artist
func ExportToCSV(export *ChartExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Rank", "Title", "Artist"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, entry := range export.Entries {
		record := []string{strconv.Itoa(i + 1), entry.Title, entry.Artist}
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

// ExportToMarkdown converts a ChartExport to Markdown format
func ExportToMarkdown(export *ChartExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", export.Title))
	buf.WriteString(fmt.Sprintf("**Chart date**: %s\n", export.Effective))
	if export.Requested != "" && export.Requested != export.Effective {
		buf.WriteString(fmt.Sprintf("**Requested**: %s\n", export.Requested))
	}
	buf.WriteString(fmt.Sprintf("**Entries**: %d\n\n", len(export.Entries)))

	buf.WriteString("| # | Title | Artist |\n")
	buf.WriteString("|---|-------|--------|\n")
	for i, entry := range export.Entries {
		buf.WriteString(fmt.Sprintf("| %d | %s | %s |\n", i+1, escapeCell(entry.Title), escapeCell(entry.Artist)))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a ChartExport to plain text format
func ExportToText(export *ChartExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Chart: %s\n", export.Title))
	buf.WriteString(fmt.Sprintf("Date: %s\n", export.Effective))
	if export.Requested != "" && export.Requested != export.Effective {
		buf.WriteString(fmt.Sprintf("Requested: %s\n", export.Requested))
	}
	buf.WriteString(fmt.Sprintf("Entries: %d\n\n", len(export.Entries)))

	for i, entry := range export.Entries {
		buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, entry))
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a ChartExport to indented JSON
func ExportToJSON(export *ChartExport) ([]byte, error) {
	return shared.MarshalJSON(export, true)
}

// Export renders export in the named format.
func Export(export *ChartExport, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", FormatText, "txt":
		return ExportToText(export)
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown, "md":
		return ExportToMarkdown(export)
	case FormatJSON:
		return ExportToJSON(export)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidArgument, format)
	}
}

// Extension returns the file extension used for format.
func Extension(format string) string {
	switch strings.ToLower(format) {
	case FormatCSV:
		return "csv"
	case FormatMarkdown, "md":
		return "md"
	case FormatJSON:
		return "json"
	default:
		return "txt"
	}
}

// WriteExport writes export to path in the named format.
//
// Defaults to {effective}_chart.{ext} as the filename.
func WriteExport(export *ChartExport, format, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_chart.%s", export.Effective, Extension(format))
	}

	data, err := Export(export, format)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}

// Unmatched returns the entries of results that were not found, in order.
func Unmatched(results []models.MatchResult) []models.ChartEntry {
	var entries []models.ChartEntry
	for _, r := range results {
		if !r.Found() {
			entries = append(entries, r.Entry)
		}
	}
	return entries
}

// ExportUnmatched renders one "title - artist" line per entry.
func ExportUnmatched(entries []models.ChartEntry) []byte {
	var buf bytes.Buffer
	for _, entry := range entries {
		buf.WriteString(entry.String())
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// WriteUnmatchedReport writes the entries of results that were not found to path, replacing any previous report.
//
// Nothing is written when every entry was found. Returns the number of entries written.
func WriteUnmatchedReport(path string, results []models.MatchResult) (int, error) {
	entries := Unmatched(results)
	if len(entries) == 0 {
		return 0, nil
	}

	if path == "" {
		return 0, fmt.Errorf("%w: report path is empty", shared.ErrInvalidArgument)
	}

	if err := os.WriteFile(path, ExportUnmatched(entries), 0644); err != nil {
		return 0, fmt.Errorf("failed to write report file: %w", err)
	}

	return len(entries), nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
