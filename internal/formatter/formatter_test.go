package formatter

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/blendify/internal/models"
	"github.com/desertthunder/blendify/internal/shared"
	th "github.com/desertthunder/blendify/internal/testing"
)

func blend(t *testing.T) *models.Session {
	t.Helper()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := models.NewSession("abc123", []models.Track{
		{ID: "t1", Name: "Song One", Artists: []models.Artist{{Name: "Artist One"}}, Album: models.Album{Name: "Album One"}, DurationMS: 180000, URI: "spotify:track:t1"},
		{ID: "t2", Name: "Song, Two", Artists: []models.Artist{{Name: "Artist Two"}}, DurationMS: 240000, URI: "spotify:track:t2"},
	}, now, time.Hour)
	s.User2Tracks = []models.Track{
		{ID: "t3", Name: "Song Three", DurationMS: 61000, URI: "spotify:track:t3"},
	}
	s.Recommendations = s.Merged()
	return s
}

func TestExporters(t *testing.T) {
	s := blend(t)

	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(s)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("output is not valid CSV: %v", err)
		}
		if len(records) != 4 {
			t.Fatalf("expected header plus 3 rows, got %d", len(records))
		}
		if strings.Join(records[0], ",") != "Position,ID,Name,Artist,Album,Duration,URI,From" {
			t.Errorf("unexpected headers: %v", records[0])
		}
		if records[2][2] != "Song, Two" {
			t.Errorf("expected quoted name to survive, got %q", records[2][2])
		}
		if records[3][3] != "Unknown Artist" || records[3][7] != "second" || records[1][7] != "first" {
			t.Errorf("unexpected rows: %v", records[1:])
		}
		if records[1][5] != "3:00" {
			t.Errorf("expected duration 3:00, got %q", records[1][5])
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(s)
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}
		output := string(data)

		for _, want := range []string{
			"# Blend abc123",
			"**Status**: complete",
			"**Tracks**: 3 (2 + 1)",
			"**Expires**: 2025-03-01T13:00:00Z",
			"1. Artist One - Song One (Album One) [3:00]",
			"2. Artist Two - Song, Two [4:00]",
			"3. Unknown Artist - Song Three [1:01]",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q in:\n%s", want, output)
			}
		}
	})

	t.Run("ExportToMarkdown waiting", func(t *testing.T) {
		waiting := models.NewSession("wait01", nil, time.Now(), time.Hour)
		data, _ := ExportToMarkdown(waiting)

		if !strings.Contains(string(data), "waiting for the second participant") || !strings.Contains(string(data), "_No tracks._") {
			t.Errorf("unexpected waiting output:\n%s", data)
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(s)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if lines[0] != "Blend: abc123" || lines[2] != "Tracks: 3" {
			t.Errorf("unexpected header lines: %v", lines[:3])
		}
		if lines[len(lines)-1] != "3. Unknown Artist - Song Three" {
			t.Errorf("unexpected last line %q", lines[len(lines)-1])
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(s)
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var decoded models.Session
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.ID != "abc123" || len(decoded.Recommendations) != 3 {
			t.Errorf("unexpected decoded session %+v", decoded)
		}
	})

	t.Run("Export rejects nil and unknown", func(t *testing.T) {
		if _, err := Export(nil, FormatText); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if _, err := Export(s, Format("xml")); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestParseFormat(t *testing.T) {
	tt := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: FormatText},
		{in: "TEXT", want: FormatText},
		{in: "md", want: FormatMarkdown},
		{in: "markdown", want: FormatMarkdown},
		{in: " csv ", want: FormatCSV},
		{in: "json", want: FormatJSON},
		{in: "yaml", wantErr: true},
	}

	for _, tc := range tt {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseFormat(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v", tc.in, err)
			}
			if got != tc.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestWriteExport(t *testing.T) {
	s := blend(t)

	t.Run("WithCustomPath", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "mix.md")
		got, err := WriteExport(s, FormatMarkdown, path)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if got != path {
			t.Errorf("expected %s, got %s", path, got)
		}

		th.AssertFileExists(t, path)
		if !strings.Contains(string(th.MustReadFile(t, path)), "# Blend abc123") {
			t.Error("file content mismatch")
		}
	})

	t.Run("WithDefaultPath", func(t *testing.T) {
		t.Chdir(t.TempDir())

		got, err := WriteExport(s, FormatCSV, "")
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if got != "blend_abc123.csv" {
			t.Errorf("expected default filename, got %s", got)
		}
		if _, err := os.Stat(got); err != nil {
			t.Errorf("expected file to exist: %v", err)
		}
	})

	t.Run("UnwritablePath", func(t *testing.T) {
		if _, err := WriteExport(s, FormatText, filepath.Join(t.TempDir(), "missing", "out.txt")); err == nil {
			t.Error("expected error writing into a missing directory")
		}
	})
}
