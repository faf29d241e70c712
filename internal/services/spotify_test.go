package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/songsaver/internal/models"
	"github.com/desertthunder/songsaver/internal/shared"
)

const (
	testTrackID    = "4uLU6hMCjMI75M1A2tKUQC"
	testAlbumID    = "1A2GTWGtFfWp7KSQTwWOyo"
	testPlaylistID = "37i9dQZF1DXcBWIGoYBM5M"
)

type spotifyFixture struct {
	server *httptest.Server
	mu     sync.Mutex
	hits   map[string]int
}

func (f *spotifyFixture) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func newSpotifyFixture(t *testing.T) *spotifyFixture {
	t.Helper()
	f := &spotifyFixture{hits: make(map[string]int)}

	album := map[string]any{
		"id": testAlbumID, "name": "Imagine", "release_date": "1971-09-09", "total_tracks": 3,
		"genres":  []string{"rock"},
		"artists": []map[string]any{{"name": "John Lennon"}},
		"images":  []map[string]any{{"url": "https://i.scdn.co/image/large"}, {"url": "https://i.scdn.co/image/small"}},
		"uri":     "spotify:album:" + testAlbumID,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST for token, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"test-token","token_type":"bearer","expires_in":3600}`)
	})
	mux.HandleFunc("/v1/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.hits[r.URL.Path]++
		f.mu.Unlock()

		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("expected bearer token, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/v1/tracks/" + testTrackID:
			json.NewEncoder(w).Encode(map[string]any{
				"id": testTrackID, "name": "Imagine", "duration_ms": 183999, "disc_number": 1, "track_number": 1,
				"artists": []map[string]any{{"name": "John Lennon"}},
				"album":   album,
				"uri":     "spotify:track:" + testTrackID,
			})
		case "/v1/albums/" + testAlbumID:
			next := f.server.URL + "/v1/albums/" + testAlbumID + "/tracks?offset=2&limit=2"
			body := map[string]any{}
			for k, v := range album {
				body[k] = v
			}
			body["tracks"] = map[string]any{
				"total": 3,
				"next":  next,
				"items": []map[string]any{
					{"name": "Imagine", "duration_ms": 183000, "track_number": 1, "disc_number": 1, "artists": []map[string]any{{"name": "John Lennon"}}},
					{"name": "Crippled Inside", "duration_ms": 227000, "track_number": 2, "disc_number": 1, "artists": []map[string]any{{"name": "John Lennon"}}},
				},
			}
			json.NewEncoder(w).Encode(body)
		case "/v1/albums/" + testAlbumID + "/tracks":
			json.NewEncoder(w).Encode(map[string]any{
				"total": 3,
				"next":  nil,
				"items": []map[string]any{
					{"name": "Jealous Guy", "duration_ms": 254000, "track_number": 3, "disc_number": 1, "artists": []map[string]any{{"name": "John Lennon"}}},
				},
			})
		case "/v1/playlists/" + testPlaylistID:
			json.NewEncoder(w).Encode(map[string]any{
				"id": testPlaylistID, "name": "Road Trip", "description": "long drives",
				"owner":  map[string]any{"id": "owner1", "display_name": "Owner"},
				"images": []map[string]any{{"url": "https://mosaic.scdn.co/p"}},
				"tracks": map[string]any{"total": 52},
			})
		case "/v1/playlists/" + testPlaylistID + "/tracks":
			offset := r.URL.Query().Get("offset")
			if r.URL.Query().Get("limit") != "50" {
				t.Errorf("expected limit 50, got %s", r.URL.Query().Get("limit"))
			}
			var items []map[string]any
			var next any
			count := 2
			if offset == "0" {
				count = 50
				next = "more"
			}
			for i := 0; i < count; i++ {
				if offset == "0" && i == 2 {
					items = append(items, map[string]any{"track": nil})
					continue
				}
				items = append(items, map[string]any{"track": map[string]any{
					"id": fmt.Sprintf("t%s_%d", offset, i), "name": fmt.Sprintf("Song %s-%d", offset, i), "duration_ms": 200000,
					"artists": []map[string]any{{"name": "Artist"}},
					"album":   map[string]any{"name": "Album", "release_date": "2020", "total_tracks": 10},
				}})
			}
			json.NewEncoder(w).Encode(map[string]any{"total": 52, "next": next, "items": items})
		default:
			http.NotFound(w, r)
		}
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func newTestSpotify(t *testing.T, f *spotifyFixture, cache Cache) *SpotifyService {
	t.Helper()
	svc, err := NewSpotifyService(SpotifyOptions{
		ClientID:     "id",
		ClientSecret: "secret",
		BaseURL:      f.server.URL + "/v1",
		TokenURL:     f.server.URL + "/api/token",
		Cache:        cache,
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return svc
}

func TestSpotifyService(t *testing.T) {
	ctx := context.Background()

	t.Run("requires credentials", func(t *testing.T) {
		if _, err := NewSpotifyService(SpotifyOptions{ClientID: "id"}); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("Track", func(t *testing.T) {
		f := newSpotifyFixture(t)
		svc := newTestSpotify(t, f, nil)

		track, err := svc.Track(ctx, "https://open.spotify.com/track/"+testTrackID+"?si=abc")
		if err != nil {
			t.Fatalf("Track() error = %v", err)
		}
		if track.Title != "Imagine" || track.Duration != 183 || track.Source != models.SourceSingle {
			t.Errorf("unexpected track %+v", track)
		}
		if track.Album != "Imagine" || track.CoverURL != "https://i.scdn.co/image/large" || track.TotalTracks != 1 {
			t.Errorf("album context not mapped: %+v", track)
		}
		if track.AlbumArtist() != "John Lennon" || track.Year() != "1971" {
			t.Errorf("unexpected album artist or year: %s %s", track.AlbumArtist(), track.Year())
		}
	})

	t.Run("Album paginates and caches", func(t *testing.T) {
		f := newSpotifyFixture(t)
		svc := newTestSpotify(t, f, nil)

		album, err := svc.Album(ctx, "spotify:album:"+testAlbumID)
		if err != nil {
			t.Fatalf("Album() error = %v", err)
		}
		if len(album.Tracks) != 3 {
			t.Fatalf("expected 3 tracks across pages, got %d", len(album.Tracks))
		}
		third := album.Tracks[2]
		if third.Title != "Jealous Guy" || third.TrackNumber != 3 || third.TotalTracks != 3 || third.Source != models.SourceAlbum {
			t.Errorf("unexpected third track %+v", third)
		}
		if third.Album != "Imagine" || len(third.Genres) != 1 || third.CoverURL == "" {
			t.Errorf("album context missing on track: %+v", third)
		}

		if _, err := svc.Album(ctx, testAlbumID); err != nil {
			t.Fatalf("second Album() error = %v", err)
		}
		if hits := f.count("/v1/albums/" + testAlbumID); hits != 1 {
			t.Errorf("expected cached album after first request, got %d requests", hits)
		}
	})

	t.Run("Playlist paginates by 50", func(t *testing.T) {
		f := newSpotifyFixture(t)
		svc := newTestSpotify(t, f, nil)

		playlist, err := svc.Playlist(ctx, "https://open.spotify.com/intl-de/playlist/"+testPlaylistID)
		if err != nil {
			t.Fatalf("Playlist() error = %v", err)
		}
		if playlist.Name != "Road Trip" || playlist.Owner != "Owner" || playlist.CoverURL == "" {
			t.Errorf("unexpected playlist metadata %+v", playlist)
		}
		if len(playlist.Tracks) != 51 {
			t.Fatalf("expected 51 tracks (one removed item skipped), got %d", len(playlist.Tracks))
		}

		first, last := playlist.Tracks[0], playlist.Tracks[len(playlist.Tracks)-1]
		if first.TrackNumber != 1 || last.TrackNumber != 52 {
			t.Errorf("expected positions 1..52, got %d..%d", first.TrackNumber, last.TrackNumber)
		}
		if last.PlaylistName != "Road Trip" || last.Source != models.SourcePlaylist || last.TotalTracks != 52 {
			t.Errorf("unexpected playlist track %+v", last)
		}
		if f.count("/v1/playlists/"+testPlaylistID+"/tracks") != 2 {
			t.Errorf("expected two page requests, got %d", f.count("/v1/playlists/"+testPlaylistID+"/tracks"))
		}
	})

	t.Run("kind mismatch", func(t *testing.T) {
		f := newSpotifyFixture(t)
		svc := newTestSpotify(t, f, nil)
		if _, err := svc.Album(ctx, "spotify:track:"+testTrackID); !errors.Is(err, shared.ErrInvalidRef) {
			t.Errorf("expected ErrInvalidRef, got %v", err)
		}
	})

	t.Run("not found", func(t *testing.T) {
		f := newSpotifyFixture(t)
		svc := newTestSpotify(t, f, nil)
		if _, err := svc.Track(ctx, strings.Repeat("a", 22)); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestParseSpotifyRef(t *testing.T) {
	tests := []struct {
		in      string
		want    CatalogRef
		wantErr bool
	}{
		{"https://open.spotify.com/album/" + testAlbumID, CatalogRef{RefAlbum, testAlbumID}, false},
		{"https://open.spotify.com/track/" + testTrackID + "?si=123", CatalogRef{RefTrack, testTrackID}, false},
		{"https://open.spotify.com/intl-fr/playlist/" + testPlaylistID, CatalogRef{RefPlaylist, testPlaylistID}, false},
		{"spotify:playlist:" + testPlaylistID, CatalogRef{RefPlaylist, testPlaylistID}, false},
		{"  " + testTrackID + " ", CatalogRef{ID: testTrackID}, false},
		{"spotify:artist:" + testTrackID, CatalogRef{}, true},
		{"https://example.com/album/" + testAlbumID, CatalogRef{}, true},
		{"https://open.spotify.com/album/short", CatalogRef{}, true},
		{"not-an-id", CatalogRef{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSpotifyRef(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSpotifyRef() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, shared.ErrInvalidRef) {
					t.Errorf("expected ErrInvalidRef, got %v", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseSpotifyRef() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
