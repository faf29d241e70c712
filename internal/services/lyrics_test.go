package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/songsaver/internal/shared"
)

func TestLrclibService(t *testing.T) {
	ctx := context.Background()

	t.Run("exact lookup prefers synced lyrics", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/get" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			q := r.URL.Query()
			if q.Get("artist_name") != "John Lennon" || q.Get("track_name") != "Imagine" || q.Get("duration") != "183" {
				t.Errorf("unexpected query %v", q)
			}
			if r.Header.Get("User-Agent") == "" {
				t.Error("expected a user agent")
			}
			json.NewEncoder(w).Encode(map[string]any{"plainLyrics": "plain", "syncedLyrics": "[00:01.00] synced"})
		}))
		defer server.Close()

		svc := NewLrclibService(LrclibOptions{BaseURL: server.URL})
		got, err := svc.Lyrics(ctx, imagineTrack())
		if err != nil {
			t.Fatalf("Lyrics() error = %v", err)
		}
		if got != "[00:01.00] synced" {
			t.Errorf("expected synced lyrics, got %q", got)
		}
	})

	t.Run("falls back to search on 404", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/api/get":
				http.NotFound(w, r)
			case "/api/search":
				json.NewEncoder(w).Encode([]map[string]any{
					{"plainLyrics": "", "syncedLyrics": ""},
					{"plainLyrics": "imagine there's no heaven"},
				})
			}
		}))
		defer server.Close()

		svc := NewLrclibService(LrclibOptions{BaseURL: server.URL})
		got, err := svc.Lyrics(ctx, imagineTrack())
		if err != nil {
			t.Fatalf("Lyrics() error = %v", err)
		}
		if got != "imagine there's no heaven" {
			t.Errorf("expected plain lyrics from search, got %q", got)
		}
	})

	t.Run("instrumental", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"instrumental": true})
		}))
		defer server.Close()

		svc := NewLrclibService(LrclibOptions{BaseURL: server.URL})
		got, err := svc.Lyrics(ctx, imagineTrack())
		if err != nil || got != InstrumentalMarker {
			t.Errorf("expected instrumental marker, got %q (%v)", got, err)
		}
	})

	t.Run("nothing found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/api/get" {
				http.NotFound(w, r)
				return
			}
			w.Write([]byte("[]"))
		}))
		defer server.Close()

		svc := NewLrclibService(LrclibOptions{BaseURL: server.URL})
		got, err := svc.Lyrics(ctx, imagineTrack())
		if err != nil || got != "" {
			t.Errorf("expected empty lyrics, got %q (%v)", got, err)
		}
	})

	t.Run("server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		svc := NewLrclibService(LrclibOptions{BaseURL: server.URL})
		if _, err := svc.Lyrics(ctx, imagineTrack()); !errors.Is(err, shared.ErrLyricsFailed) {
			t.Errorf("expected ErrLyricsFailed, got %v", err)
		}
	})
}
