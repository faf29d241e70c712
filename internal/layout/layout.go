// Package layout maps catalog tracks and collections to deterministic locations in the library.
//
//	playlist:       <base>/<playlist>/<track>.<ext>
//	album, single:  <base>/<artist>/<album> (<year>)/<track>.<ext>
//
// Every path component goes through [Sanitize].
package layout

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/desertthunder/songsaver/internal/models"
)

const (
	MaxNameLength = 200

	UnknownArtist   = "Unknown Artist"
	UnknownAlbum    = "Unknown Album"
	UnknownYear     = "Unknown"
	UnknownTrack    = "Unknown Track"
	UnknownPlaylist = "Unknown Playlist"
)

var (
	forbiddenChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
	dashes         = strings.NewReplacer("–", "-", "—", "-")
)

// Sanitize makes name safe as a single path component.
//
// Reserved characters become "_", en and em dashes become "-", whitespace runs collapse to one
// space, leading and trailing spaces and dots are trimmed, and the result is cut to
// [MaxNameLength] runes. Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(name string) string {
	s := forbiddenChars.ReplaceAllString(name, "_")
	s = dashes.Replace(s)
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = strings.Trim(s, " .")

	if utf8.RuneCountInString(s) > MaxNameLength {
		s = string([]rune(s)[:MaxNameLength])
		s = strings.Trim(s, " .")
	}
	return s
}

// TrackPath returns where the track's audio file lives. artistOverride replaces the track's
// primary artist in the album layout and is ignored for playlist tracks.
func TrackPath(base string, t models.CatalogTrack, format models.AudioFormat, artistOverride string) string {
	file := component(t.Title, UnknownTrack) + "." + format.Ext()

	if t.Source == models.SourcePlaylist {
		return filepath.Join(base, component(t.PlaylistName, UnknownPlaylist), file)
	}

	artist := artistOverride
	if artist == "" {
		artist = t.PrimaryArtist()
	}
	return filepath.Join(AlbumDir(base, artist, t.Album, t.ReleaseDate), file)
}

// AlbumDir returns <base>/<artist>/<album> (<year>).
func AlbumDir(base, artist, album, releaseDate string) string {
	year := UnknownYear
	if len(releaseDate) >= 4 {
		year = releaseDate[:4]
	}
	albumDir := Sanitize(fmt.Sprintf("%s (%s)", component(album, UnknownAlbum), year))
	return filepath.Join(base, component(artist, UnknownArtist), albumDir)
}

// PlaylistDir returns <base>/<playlist>.
func PlaylistDir(base, name string) string {
	return filepath.Join(base, component(name, UnknownPlaylist))
}

// CollectionDir returns the directory holding a collection's tracks, sidecar and cover.
func CollectionDir(base string, c models.Collection, artistOverride string) string {
	switch c := c.(type) {
	case *models.CatalogAlbum:
		artist := artistOverride
		if artist == "" {
			artist = c.PrimaryArtist()
		}
		return AlbumDir(base, artist, c.Name, c.ReleaseDate)
	default:
		return PlaylistDir(base, c.CollectionName())
	}
}

// LyricsPath returns the .lrc sidecar next to an audio file.
func LyricsPath(audioPath string) string {
	return strings.TrimSuffix(audioPath, filepath.Ext(audioPath)) + ".lrc"
}

// EnsureParent creates the parent directory of path.
func EnsureParent(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	return nil
}

func component(name, fallback string) string {
	if s := Sanitize(name); s != "" {
		return s
	}
	return fallback
}
