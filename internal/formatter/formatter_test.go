package formatter

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/chartlist/internal/models"
	"github.com/desertthunder/chartlist/internal/shared"
	th "github.com/desertthunder/chartlist/internal/testing"
)

func testExport() *ChartExport {
	return &ChartExport{
		Title:     "Billboard Hot 100",
		Requested: "2024-07-15",
		Effective: "2024-07-13",
		Origin:    "requested",
		Entries: []models.ChartEntry{
			{Title: "A Bar Song (Tipsy)", Artist: "Shaboozey"},
			{Title: "Not Like Us", Artist: "Kendrick Lamar"},
			{Title: "Pipe | Song", Artist: "Artist, With Comma"},
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(testExport())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 4 {
			t.Fatalf("expected header and 3 rows, got %d lines", len(lines))
		}
		if lines[0] != "Rank,Title,Artist" {
			t.Errorf("CSV missing headers, got: %s", lines[0])
		}
		if lines[1] != "1,A Bar Song (Tipsy),Shaboozey" {
			t.Errorf("unexpected first row: %s", lines[1])
		}
		if lines[3] != `3,Pipe | Song,"Artist, With Comma"` {
			t.Errorf("expected quoted artist, got: %s", lines[3])
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(testExport())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "# Billboard Hot 100\n") {
			t.Errorf("Markdown missing title, got: %s", output)
		}
		if !strings.Contains(output, "**Chart date**: 2024-07-13") {
			t.Error("Markdown missing chart date")
		}
		if !strings.Contains(output, "**Requested**: 2024-07-15") {
			t.Error("Markdown missing requested date")
		}
		if !strings.Contains(output, "| 2 | Not Like Us | Kendrick Lamar |") {
			t.Error("Markdown missing table row")
		}
		if !strings.Contains(output, `Pipe \| Song`) {
			t.Error("Markdown should escape pipes in cells")
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(testExport())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Chart: Billboard Hot 100") {
			t.Error("text missing chart title")
		}
		if !strings.Contains(output, "Entries: 3") {
			t.Error("text missing entry count")
		}
		if !strings.Contains(output, "1. A Bar Song (Tipsy) - Shaboozey\n") {
			t.Error("text missing first entry")
		}
	})

	t.Run("Text omits requested date when unchanged", func(t *testing.T) {
		export := testExport()
		export.Requested = export.Effective

		data, _ := ExportToText(export)
		if strings.Contains(string(data), "Requested:") {
			t.Error("expected no requested line")
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(testExport())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var got ChartExport
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got.Effective != "2024-07-13" || len(got.Entries) != 3 {
			t.Errorf("unexpected JSON content: %+v", got)
		}
	})

	t.Run("Export", func(t *testing.T) {
		tests := []struct {
			format string
			prefix string
		}{
			{"", "Chart:"},
			{"text", "Chart:"},
			{"csv", "Rank,"},
			{"markdown", "# "},
			{"md", "# "},
			{"JSON", "{"},
		}

		for _, tt := range tests {
			t.Run(tt.format, func(t *testing.T) {
				data, err := Export(testExport(), tt.format)
				if err != nil {
					t.Fatalf("Export failed: %v", err)
				}
				if !strings.HasPrefix(string(data), tt.prefix) {
					t.Errorf("expected prefix %q, got %q", tt.prefix, string(data)[:10])
				}
			})
		}

		t.Run("unsupported", func(t *testing.T) {
			_, err := Export(testExport(), "xml")
			if !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	})

	t.Run("WriteExport", func(t *testing.T) {
		t.Run("explicit path", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "chart.csv")

			got, err := WriteExport(testExport(), FormatCSV, path)
			if err != nil {
				t.Fatalf("WriteExport failed: %v", err)
			}
			if got != path {
				t.Errorf("expected %s, got %s", path, got)
			}
			if !strings.HasPrefix(th.MustReadFile(t, path), "Rank,Title,Artist") {
				t.Error("expected CSV content")
			}
		})

		t.Run("default path", func(t *testing.T) {
			t.Chdir(t.TempDir())

			got, err := WriteExport(testExport(), FormatMarkdown, "")
			if err != nil {
				t.Fatalf("WriteExport failed: %v", err)
			}
			if got != "2024-07-13_chart.md" {
				t.Errorf("unexpected default path %s", got)
			}
			th.AssertFileExists(t, got)
		})

		t.Run("unwritable path", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "missing", "chart.txt")
			if _, err := WriteExport(testExport(), FormatText, path); err == nil {
				t.Error("expected error for missing directory")
			}
		})
	})
}

func TestUnmatchedReport(t *testing.T) {
	found := models.Found(models.ChartEntry{Title: "Hit", Artist: "Star"}, models.Track{URI: "spotify:track:1"})
	missA := models.NotFound(models.ChartEntry{Title: "Deep Cut", Artist: "Band"}, nil)
	missB := models.NotFound(models.ChartEntry{Title: "B-Side", Artist: "Duo"}, errors.New("timeout"))

	t.Run("Unmatched keeps order", func(t *testing.T) {
		got := Unmatched([]models.MatchResult{missA, found, missB})
		if len(got) != 2 || got[0].Title != "Deep Cut" || got[1].Title != "B-Side" {
			t.Errorf("unexpected unmatched entries: %+v", got)
		}
	})

	t.Run("writes one line per miss", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "not_found_songs.txt")

		n, err := WriteUnmatchedReport(path, []models.MatchResult{missA, found, missB})
		if err != nil {
			t.Fatalf("WriteUnmatchedReport failed: %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 entries written, got %d", n)
		}

		content := th.MustReadFile(t, path)
		if content != "Deep Cut - Band\nB-Side - Duo\n" {
			t.Errorf("unexpected report content %q", content)
		}
	})

	t.Run("replaces previous report", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "report.txt")

		if _, err := WriteUnmatchedReport(path, []models.MatchResult{missA, missB}); err != nil {
			t.Fatalf("first write failed: %v", err)
		}
		if _, err := WriteUnmatchedReport(path, []models.MatchResult{missB}); err != nil {
			t.Fatalf("second write failed: %v", err)
		}

		if content := th.MustReadFile(t, path); content != "B-Side - Duo\n" {
			t.Errorf("expected report to be replaced, got %q", content)
		}
	})

	t.Run("nothing written when all found", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "report.txt")

		n, err := WriteUnmatchedReport(path, []models.MatchResult{found})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if n != 0 {
			t.Errorf("expected 0 entries, got %d", n)
		}
		th.AssertNoFile(t, path)
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := WriteUnmatchedReport("", []models.MatchResult{missA})
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
