package formatter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/songsaver/internal/models"
)

// M3UWriter writes extended M3U playlists whose entries are relative to the playlist file.
type M3UWriter struct{}

// NewM3UWriter creates an M3UWriter.
func NewM3UWriter() *M3UWriter { return &M3UWriter{} }

// WritePlaylist writes the successful entries to path in order.
func (w *M3UWriter) WritePlaylist(path, name string, entries []models.AcquisitionOutcome) error {
	content, err := BuildM3U(filepath.Dir(path), name, entries)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write playlist file: %w", err)
	}
	return nil
}

// BuildM3U renders entries with #EXTINF lines. Paths are made relative to dir and use forward slashes.
// Entries without a path or track are skipped.
func BuildM3U(dir, name string, entries []models.AcquisitionOutcome) (string, error) {
	var sb strings.Builder

	sb.WriteString("#EXTM3U\n")
	if name != "" {
		sb.WriteString(fmt.Sprintf("#PLAYLIST:%s\n", name))
	}

	for _, e := range entries {
		if !e.OK || e.Path == "" || e.Track == nil {
			continue
		}
		rel, err := filepath.Rel(dir, e.Path)
		if err != nil {
			return "", fmt.Errorf("failed to relativize %s: %w", e.Path, err)
		}
		sb.WriteString(fmt.Sprintf("#EXTINF:%d,%s - %s\n", e.Track.Duration, e.Track.ArtistString(), e.Track.Title))
		sb.WriteString(filepath.ToSlash(rel) + "\n")
	}

	return sb.String(), nil
}
