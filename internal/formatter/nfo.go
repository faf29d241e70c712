package formatter

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/songsaver/internal/models"
)

const (
	AlbumNFOFile    = "album.nfo"
	PlaylistNFOFile = "playlist.nfo"
)

type nfoTrack struct {
	Position int    `xml:"position"`
	Title    string `xml:"title"`
	Artist   string `xml:"artist,omitempty"`
	Duration string `xml:"duration"`
}

type nfoThumb struct {
	Aspect string `xml:"aspect,attr"`
	URL    string `xml:",chardata"`
}

type albumNFO struct {
	XMLName     xml.Name   `xml:"album"`
	Title       string     `xml:"title"`
	Artists     []string   `xml:"artist"`
	AlbumArtist string     `xml:"albumartist,omitempty"`
	Genres      []string   `xml:"genre"`
	Year        string     `xml:"year,omitempty"`
	ReleaseDate string     `xml:"releasedate,omitempty"`
	Type        string     `xml:"type"`
	Thumb       *nfoThumb  `xml:"thumb,omitempty"`
	Tracks      []nfoTrack `xml:"track"`
}

type playlistNFO struct {
	XMLName     xml.Name   `xml:"playlist"`
	Title       string     `xml:"title"`
	Owner       string     `xml:"owner,omitempty"`
	Description string     `xml:"description,omitempty"`
	Thumb       *nfoThumb  `xml:"thumb,omitempty"`
	Duration    string     `xml:"duration"`
	Tracks      []nfoTrack `xml:"track"`
}

// NFOGenerator writes Kodi-compatible metadata files for collections.
type NFOGenerator struct{}

// NewNFOGenerator creates an NFOGenerator.
func NewNFOGenerator() *NFOGenerator { return &NFOGenerator{} }

// Generate writes album.nfo or playlist.nfo into dir.
func (g *NFOGenerator) Generate(c models.Collection, dir string) error {
	data, name, err := MarshalNFO(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// MarshalNFO renders c and returns the document with the file name it belongs in.
func MarshalNFO(c models.Collection) ([]byte, string, error) {
	var (
		doc  any
		name string
	)

	switch c := c.(type) {
	case *models.CatalogAlbum:
		name = AlbumNFOFile
		doc = albumNFO{
			Title:       c.Name,
			Artists:     c.Artists,
			AlbumArtist: c.PrimaryArtist(),
			Genres:      c.Genres,
			Year:        c.Year(),
			ReleaseDate: c.ReleaseDate,
			Type:        "album",
			Thumb:       thumb(c.CoverURL),
			Tracks:      nfoTracks(c.Tracks, false),
		}
	case *models.CatalogPlaylist:
		name = PlaylistNFOFile
		doc = playlistNFO{
			Title:       c.Name,
			Owner:       c.Owner,
			Description: c.Description,
			Thumb:       thumb(c.CoverURL),
			Duration:    FormatDuration(c.Duration()),
			Tracks:      nfoTracks(c.Tracks, true),
		}
	default:
		return nil, "", fmt.Errorf("unsupported collection type %T", c)
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal NFO: %w", err)
	}

	out := append([]byte(xml.Header), body...)
	return append(out, '\n'), name, nil
}

func thumb(url string) *nfoThumb {
	if url == "" {
		return nil
	}
	return &nfoThumb{Aspect: "cover", URL: url}
}

func nfoTracks(tracks []models.CatalogTrack, withArtist bool) []nfoTrack {
	out := make([]nfoTrack, 0, len(tracks))
	for i, t := range tracks {
		pos := t.TrackNumber
		if pos == 0 {
			pos = i + 1
		}
		nt := nfoTrack{Position: pos, Title: t.Title, Duration: FormatDuration(t.Duration)}
		if withArtist {
			nt.Artist = t.ArtistString()
		}
		out = append(out, nt)
	}
	return out
}
