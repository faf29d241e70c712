package media

import (
	"bytes"
	"context"
	"errors"
	"image"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/songsaver/internal/shared"
)

func TestFitWithin(t *testing.T) {
	tests := []struct {
		w, h, max     int
		wantW, wantH int
	}{
		{640, 640, 1000, 640, 640},
		{2000, 2000, 1000, 1000, 1000},
		{3000, 1500, 1000, 1000, 500},
		{1500, 3000, 1000, 500, 1000},
		{5000, 1, 1000, 1000, 1},
	}
	for _, tt := range tests {
		w, h := fitWithin(tt.w, tt.h, tt.max)
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("fitWithin(%d, %d, %d) = %dx%d, want %dx%d", tt.w, tt.h, tt.max, w, h, tt.wantW, tt.wantH)
		}
	}
}

func TestResizeCover(t *testing.T) {
	out, err := ResizeCover(testJPEG(t, 40, 20), 10)
	if err != nil {
		t.Fatalf("ResizeCover failed: %v", err)
	}
	img, format, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output does not decode: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("format = %s", format)
	}
	if b := img.Bounds(); b.Dx() != 10 || b.Dy() != 5 {
		t.Errorf("size = %dx%d, want 10x5", b.Dx(), b.Dy())
	}

	if _, err := ResizeCover([]byte("not an image"), 10); err == nil {
		t.Error("expected decode error")
	}
}

func TestCoverFetcher(t *testing.T) {
	cover := testJPEG(t, 16, 16)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cover.jpg":
			w.Write(cover)
		case "/garbage":
			w.Write([]byte("<html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	f := NewCoverFetcher(0, nil)

	t.Run("decodable image", func(t *testing.T) {
		data, err := f.Fetch(context.Background(), server.URL+"/cover.jpg")
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
			t.Errorf("expected jpeg output: %v", err)
		}
	})

	t.Run("undecodable body is returned raw", func(t *testing.T) {
		data, err := f.Fetch(context.Background(), server.URL+"/garbage")
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		if string(data) != "<html>" {
			t.Errorf("data = %q", data)
		}
	})

	t.Run("http error", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), server.URL+"/missing")
		if !errors.Is(err, shared.ErrCoverFailed) {
			t.Fatalf("expected ErrCoverFailed, got %v", err)
		}
	})

	t.Run("empty url", func(t *testing.T) {
		if _, err := f.Fetch(context.Background(), ""); !errors.Is(err, shared.ErrCoverFailed) {
			t.Fatalf("expected ErrCoverFailed, got %v", err)
		}
	})
}
