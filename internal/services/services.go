package services

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/desertthunder/songsaver/internal/models"
	"github.com/desertthunder/songsaver/internal/shared"
)

// Catalog reads canonical metadata for tracks, albums and playlists.
type Catalog interface {
	Track(ctx context.Context, ref string) (*models.CatalogTrack, error)
	Album(ctx context.Context, ref string) (*models.CatalogAlbum, error)
	Playlist(ctx context.Context, ref string) (*models.CatalogPlaylist, error)
}

// RefKind names the kind of entity a catalog reference points to.
type RefKind string

const (
	RefTrack    RefKind = "track"
	RefAlbum    RefKind = "album"
	RefPlaylist RefKind = "playlist"
)

// CatalogRef is a parsed catalog reference. Kind is empty for bare ids.
type CatalogRef struct {
	Kind RefKind
	ID   string
}

var bareID = regexp.MustCompile(`^[A-Za-z0-9]{22}$`)

// ParseSpotifyRef accepts https://open.spotify.com/<kind>/<id> URLs (with or without an
// intl-xx segment and query), spotify:<kind>:<id> URIs, and bare 22 character ids.
func ParseSpotifyRef(input string) (CatalogRef, error) {
	input = strings.TrimSpace(input)

	if rest, ok := strings.CutPrefix(input, "spotify:"); ok {
		kind, id, found := strings.Cut(rest, ":")
		if !found || !bareID.MatchString(id) {
			return CatalogRef{}, fmt.Errorf("%w: %q", shared.ErrInvalidRef, input)
		}
		return newRef(kind, id, input)
	}

	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		u, err := url.Parse(input)
		if err != nil || !strings.HasSuffix(u.Hostname(), "spotify.com") {
			return CatalogRef{}, fmt.Errorf("%w: %q", shared.ErrInvalidRef, input)
		}
		segments := strings.Split(strings.Trim(u.Path, "/"), "/")
		for i := 0; i+1 < len(segments); i++ {
			switch RefKind(segments[i]) {
			case RefTrack, RefAlbum, RefPlaylist:
				if bareID.MatchString(segments[i+1]) {
					return newRef(segments[i], segments[i+1], input)
				}
			}
		}
		return CatalogRef{}, fmt.Errorf("%w: %q", shared.ErrInvalidRef, input)
	}

	if bareID.MatchString(input) {
		return CatalogRef{ID: input}, nil
	}
	return CatalogRef{}, fmt.Errorf("%w: %q", shared.ErrInvalidRef, input)
}

func newRef(kind, id, input string) (CatalogRef, error) {
	switch k := RefKind(kind); k {
	case RefTrack, RefAlbum, RefPlaylist:
		return CatalogRef{Kind: k, ID: id}, nil
	default:
		return CatalogRef{}, fmt.Errorf("%w: unsupported kind %q in %q", shared.ErrInvalidRef, kind, input)
	}
}

// resolveID parses ref and checks it points to want.
func resolveID(ref string, want RefKind) (string, error) {
	parsed, err := ParseSpotifyRef(ref)
	if err != nil {
		return "", err
	}
	if parsed.Kind != "" && parsed.Kind != want {
		return "", fmt.Errorf("%w: expected a %s reference, got a %s", shared.ErrInvalidRef, want, parsed.Kind)
	}
	return parsed.ID, nil
}
