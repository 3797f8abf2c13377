// package formatter renders blend sessions to various formats (plain text, Markdown, CSV, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/blendify/internal/models"
	"github.com/desertthunder/blendify/internal/shared"
)

// Format names an export format.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
)

// Formats lists the supported formats in flag help order.
var Formats = []Format{FormatText, FormatMarkdown, FormatCSV, FormatJSON}

// ParseFormat returns the [Format] named by s. "md" is accepted for Markdown.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case "md", FormatMarkdown:
		return FormatMarkdown, nil
	case FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
	}
}

// Extension returns the file extension used by [WriteExport].
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatCSV:
		return "csv"
	case FormatJSON:
		return "json"
	default:
		return "txt"
	}
}

// contributor labels which participant a merged position came from.
func contributor(s *models.Session, i int) string {
	if i < len(s.User1Tracks) {
		return "first"
	}
	return "second"
}

func status(s *models.Session) string {
	if s.HasPeer() {
		return "complete"
	}
	return "waiting for the second participant"
}

// Export renders s in format f.
func Export(s *models.Session, f Format) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil session", shared.ErrInvalidInput)
	}

	switch f {
	case FormatText:
		return ExportToText(s)
	case FormatMarkdown:
		return ExportToMarkdown(s)
	case FormatCSV:
		return ExportToCSV(s)
	case FormatJSON:
		return ExportToJSON(s)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, f)
	}
}

// ExportToCSV converts the merged list to CSV with columns: Position, ID, Name, Artist, Album, Duration, URI, From
func ExportToCSV(s *models.Session) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "ID", "Name", "Artist", "Album", "Duration", "URI", "From"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, track := range s.Merged() {
		record := []string{
			strconv.Itoa(i + 1),
			track.ID,
			track.Name,
			track.PrimaryArtist(),
			track.Album.Name,
			shared.FormatDuration(track.DurationMS),
			track.URI,
			contributor(s, i),
		}
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

// ExportToMarkdown converts a session to a Markdown document
func ExportToMarkdown(s *models.Session) ([]byte, error) {
	var buf bytes.Buffer
	merged := s.Merged()

	fmt.Fprintf(&buf, "# Blend %s\n\n", s.ID)
	fmt.Fprintf(&buf, "**Status**: %s\n", status(s))
	fmt.Fprintf(&buf, "**Tracks**: %d (%d + %d)\n", len(merged), len(s.User1Tracks), len(s.User2Tracks))
	fmt.Fprintf(&buf, "**Expires**: %s\n\n", s.ExpiresAt.UTC().Format(time.RFC3339))

	buf.WriteString("## Tracks\n\n")
	if len(merged) == 0 {
		buf.WriteString("_No tracks._\n")
	}
	for i, track := range merged {
		albumPart := ""
		if track.Album.Name != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album.Name)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s]\n", i+1, track.PrimaryArtist(), track.Name, albumPart, shared.FormatDuration(track.DurationMS))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a session to plain text format
func ExportToText(s *models.Session) ([]byte, error) {
	var buf bytes.Buffer
	merged := s.Merged()

	fmt.Fprintf(&buf, "Blend: %s\n", s.ID)
	fmt.Fprintf(&buf, "Status: %s\n", status(s))
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(merged))

	for i, track := range merged {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, track.PrimaryArtist(), track.Name)
	}

	return buf.Bytes(), nil
}

// ExportToJSON renders the session as the server returns it, indented.
func ExportToJSON(s *models.Session) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteExport writes s in format f to path.
//
// Defaults to blend_{id}.{ext} as the filename.
func WriteExport(s *models.Session, f Format, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("blend_%s.%s", s.ID, f.Extension())
	}

	data, err := Export(s, f)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", f, err)
	}

	return path, nil
}
