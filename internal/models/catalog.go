package models

import "strings"

// SourceKind tags where a track was read from. It selects the output layout.
type SourceKind string

const (
	SourceAlbum    SourceKind = "album"
	SourcePlaylist SourceKind = "playlist"
	SourceSingle   SourceKind = "single"
)

// CatalogTrack is an immutable song description from the catalog.
//
// Duration is in whole seconds. Artists is ordered with the primary artist first.
// Lyrics is the only field set after a download, and only through [CatalogTrack.WithLyricsStatus].
type CatalogTrack struct {
	Title        string     `json:"title"`
	Artists      []string   `json:"artists"`
	Album        string     `json:"album,omitempty"`
	AlbumArtists []string   `json:"album_artists,omitempty"`
	ReleaseDate  string     `json:"release_date,omitempty"`
	Duration     int        `json:"duration"`
	URI          string     `json:"uri,omitempty"`
	Genres       []string   `json:"genres,omitempty"`
	CoverURL     string     `json:"cover_url,omitempty"`
	DiscNumber   int        `json:"disc_number,omitempty"`
	TrackNumber  int        `json:"track_number,omitempty"`
	TotalTracks  int        `json:"total_tracks,omitempty"`
	Source       SourceKind `json:"source"`
	PlaylistName string     `json:"playlist_name,omitempty"`
	Lyrics       bool       `json:"lyrics"`
}

// WithLyricsStatus returns a copy of t with the lyrics flag replaced.
//
// Slices are copied so the result shares no backing storage with t.
func (t CatalogTrack) WithLyricsStatus(ok bool) CatalogTrack {
	c := t
	c.Artists = cloneStrings(t.Artists)
	c.AlbumArtists = cloneStrings(t.AlbumArtists)
	c.Genres = cloneStrings(t.Genres)
	c.Lyrics = ok
	return c
}

// PrimaryArtist returns the first listed artist or "".
func (t CatalogTrack) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0]
}

// ArtistString joins artists with ", " for display and tag frames.
func (t CatalogTrack) ArtistString() string {
	return strings.Join(t.Artists, ", ")
}

// AlbumArtist returns the first album artist, falling back to the primary artist.
func (t CatalogTrack) AlbumArtist() string {
	if len(t.AlbumArtists) > 0 && t.AlbumArtists[0] != "" {
		return t.AlbumArtists[0]
	}
	return t.PrimaryArtist()
}

// Year returns the first four characters of the release date, or "".
func (t CatalogTrack) Year() string {
	if len(t.ReleaseDate) < 4 {
		return ""
	}
	return t.ReleaseDate[:4]
}

// Collection is the read-only view the batch orchestrator needs of an album or playlist.
type Collection interface {
	Kind() SourceKind
	CollectionName() string
	CollectionTracks() []CatalogTrack
	CollectionCover() string
}

// CatalogAlbum is an album and its tracks in disc order.
type CatalogAlbum struct {
	Name        string         `json:"name"`
	Artists     []string       `json:"artists"`
	ReleaseDate string         `json:"release_date,omitempty"`
	Genres      []string       `json:"genres,omitempty"`
	CoverURL    string         `json:"cover_url,omitempty"`
	URI         string         `json:"uri,omitempty"`
	TotalTracks int            `json:"total_tracks"`
	Tracks      []CatalogTrack `json:"tracks"`
}

func (a *CatalogAlbum) Kind() SourceKind                 { return SourceAlbum }
func (a *CatalogAlbum) CollectionName() string           { return a.Name }
func (a *CatalogAlbum) CollectionTracks() []CatalogTrack { return a.Tracks }
func (a *CatalogAlbum) CollectionCover() string          { return a.CoverURL }

// PrimaryArtist returns the first album artist or "".
func (a *CatalogAlbum) PrimaryArtist() string {
	if len(a.Artists) == 0 {
		return ""
	}
	return a.Artists[0]
}

// Year returns the release year or "".
func (a *CatalogAlbum) Year() string {
	if len(a.ReleaseDate) < 4 {
		return ""
	}
	return a.ReleaseDate[:4]
}

// Duration sums the track durations in seconds.
func (a *CatalogAlbum) Duration() int {
	total := 0
	for _, t := range a.Tracks {
		total += t.Duration
	}
	return total
}

// CatalogPlaylist is a playlist and its tracks in playlist order.
type CatalogPlaylist struct {
	Name        string         `json:"name"`
	Owner       string         `json:"owner,omitempty"`
	Description string         `json:"description,omitempty"`
	CoverURL    string         `json:"cover_url,omitempty"`
	URI         string         `json:"uri,omitempty"`
	Tracks      []CatalogTrack `json:"tracks"`
}

func (p *CatalogPlaylist) Kind() SourceKind                 { return SourcePlaylist }
func (p *CatalogPlaylist) CollectionName() string           { return p.Name }
func (p *CatalogPlaylist) CollectionTracks() []CatalogTrack { return p.Tracks }
func (p *CatalogPlaylist) CollectionCover() string          { return p.CoverURL }

// Duration sums the track durations in seconds.
func (p *CatalogPlaylist) Duration() int {
	total := 0
	for _, t := range p.Tracks {
		total += t.Duration
	}
	return total
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
