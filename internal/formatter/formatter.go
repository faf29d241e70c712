// package formatter renders albums and playlists: inspect output (CSV, Markdown, plain text, JSON),
// Kodi-style NFO sidecars and M3U playlists.
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/songsaver/internal/models"
)

// Format selects an inspect rendering.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
)

// ParseFormat accepts text, markdown (or md), csv and json; "" yields text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

// Render dispatches c to the renderer for f.
func Render(c models.Collection, f Format) ([]byte, error) {
	switch f {
	case FormatMarkdown:
		return ExportToMarkdown(c, "")
	case FormatCSV:
		return ExportToCSV(c.CollectionTracks())
	case FormatJSON:
		return ExportToJSON(c)
	default:
		return ExportToText(c)
	}
}

// RenderTrack renders a single catalog track.
func RenderTrack(t *models.CatalogTrack, f Format) ([]byte, error) {
	switch f {
	case FormatCSV:
		return ExportToCSV([]models.CatalogTrack{*t})
	case FormatJSON:
		return ExportToJSON(t)
	case FormatMarkdown:
		var buf bytes.Buffer
		fmt.Fprintf(&buf, "# %s\n\n", t.Title)
		fmt.Fprintf(&buf, "**Artists**: %s\n", t.ArtistString())
		writeMarkdownField(&buf, "Album", t.Album)
		writeMarkdownField(&buf, "Release date", t.ReleaseDate)
		fmt.Fprintf(&buf, "**Duration**: %s\n", FormatDuration(t.Duration))
		writeMarkdownField(&buf, "Genres", strings.Join(t.Genres, ", "))
		writeMarkdownField(&buf, "URI", t.URI)
		return buf.Bytes(), nil
	default:
		var buf bytes.Buffer
		fmt.Fprintf(&buf, "Track: %s\n", t.Title)
		fmt.Fprintf(&buf, "Artists: %s\n", t.ArtistString())
		writeTextField(&buf, "Album", t.Album)
		writeTextField(&buf, "Release date", t.ReleaseDate)
		fmt.Fprintf(&buf, "Duration: %s\n", FormatDuration(t.Duration))
		writeTextField(&buf, "Genres", strings.Join(t.Genres, ", "))
		writeTextField(&buf, "URI", t.URI)
		return buf.Bytes(), nil
	}
}

// ExportToCSV converts tracks to CSV with columns: Number, Title, Artists, Album, Duration, URI
func ExportToCSV(tracks []models.CatalogTrack) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Number", "Title", "Artists", "Album", "Duration", "URI"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, track := range tracks {
		number := track.TrackNumber
		if number == 0 {
			number = i + 1
		}
		record := []string{
			strconv.Itoa(number),
			track.Title,
			track.ArtistString(),
			track.Album,
			strconv.Itoa(track.Duration),
			track.URI,
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

// ExportToMarkdown converts an album or playlist to Markdown format with optional cover image
func ExportToMarkdown(c models.Collection, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", c.CollectionName()))

	if imageFilename != "" {
		buf.WriteString(fmt.Sprintf("![Cover](%s)\n\n", imageFilename))
	}

	switch c := c.(type) {
	case *models.CatalogAlbum:
		buf.WriteString(fmt.Sprintf("**Artists**: %s\n", strings.Join(c.Artists, ", ")))
		writeMarkdownField(&buf, "Release date", c.ReleaseDate)
		writeMarkdownField(&buf, "Genres", strings.Join(c.Genres, ", "))
		buf.WriteString(fmt.Sprintf("**Duration**: %s\n", FormatDuration(c.Duration())))
	case *models.CatalogPlaylist:
		writeMarkdownField(&buf, "Owner", c.Owner)
		writeMarkdownField(&buf, "Description", c.Description)
		buf.WriteString(fmt.Sprintf("**Duration**: %s\n", FormatDuration(c.Duration())))
	}

	tracks := c.CollectionTracks()
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(tracks)))

	buf.WriteString("## Tracks\n\n")
	for i, track := range tracks {
		albumPart := ""
		if track.Album != "" && c.Kind() == models.SourcePlaylist {
			albumPart = fmt.Sprintf(" (%s)", track.Album)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s [%s]\n", i+1, track.ArtistString(), track.Title, albumPart, FormatDuration(track.Duration)))
	}

	return buf.Bytes(), nil
}

// ExportToText converts an album or playlist to plain text format
func ExportToText(c models.Collection) ([]byte, error) {
	var buf bytes.Buffer

	switch c := c.(type) {
	case *models.CatalogAlbum:
		buf.WriteString(fmt.Sprintf("Album: %s\n", c.Name))
		buf.WriteString(fmt.Sprintf("Artists: %s\n", strings.Join(c.Artists, ", ")))
		writeTextField(&buf, "Release date", c.ReleaseDate)
		writeTextField(&buf, "Genres", strings.Join(c.Genres, ", "))
	case *models.CatalogPlaylist:
		buf.WriteString(fmt.Sprintf("Playlist: %s\n", c.Name))
		writeTextField(&buf, "Owner", c.Owner)
		writeTextField(&buf, "Description", c.Description)
	default:
		buf.WriteString(fmt.Sprintf("Collection: %s\n", c.CollectionName()))
	}

	tracks := c.CollectionTracks()
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(tracks)))

	for i, track := range tracks {
		buf.WriteString(fmt.Sprintf("%d. %s - %s (%s)\n", i+1, track.ArtistString(), track.Title, FormatDuration(track.Duration)))
	}

	return buf.Bytes(), nil
}

// ExportToJSON renders v as indented JSON with a trailing newline.
func ExportToJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// FormatDuration renders seconds as m:ss, or h:mm:ss from an hour up.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h, m, s := seconds/3600, (seconds%3600)/60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func writeMarkdownField(buf *bytes.Buffer, label, value string) {
	if value != "" {
		fmt.Fprintf(buf, "**%s**: %s\n", label, value)
	}
}

func writeTextField(buf *bytes.Buffer, label, value string) {
	if value != "" {
		fmt.Fprintf(buf, "%s: %s\n", label, value)
	}
}
