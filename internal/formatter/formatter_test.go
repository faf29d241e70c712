package formatter

import (
	"encoding/json"
	"encoding/xml"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/songsaver/internal/models"
	th "github.com/desertthunder/songsaver/internal/testing"
)

func testAlbum() *models.CatalogAlbum {
	return &models.CatalogAlbum{
		Name:        "Imagine",
		Artists:     []string{"John Lennon"},
		ReleaseDate: "1971-09-09",
		Genres:      []string{"rock", "pop"},
		CoverURL:    "https://i.scdn.co/image/imagine",
		TotalTracks: 2,
		Tracks: []models.CatalogTrack{
			{Title: "Imagine", Artists: []string{"John Lennon"}, Album: "Imagine", Duration: 183, TrackNumber: 1, URI: "spotify:track:1"},
			{Title: "Crippled Inside", Artists: []string{"John Lennon"}, Album: "Imagine", Duration: 227, TrackNumber: 2, URI: "spotify:track:2"},
		},
	}
}

func testPlaylist() *models.CatalogPlaylist {
	return &models.CatalogPlaylist{
		Name:        "Road & Trip",
		Owner:       "someone",
		Description: "Songs for driving",
		Tracks: []models.CatalogTrack{
			{Title: "Song One", Artists: []string{"Artist One", "Guest"}, Album: "Album One", Duration: 180, TrackNumber: 1},
			{Title: "Song Two", Artists: []string{"Artist Two"}, Album: "Album Two", Duration: 3725, TrackNumber: 2},
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(testPlaylist().Tracks)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Number,Title,Artists,Album,Duration,URI") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, `1,Song One,"Artist One, Guest",Album One,180,`) {
			t.Errorf("CSV missing quoted artists, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown album", func(t *testing.T) {
		data, err := ExportToMarkdown(testAlbum(), "cover.jpg")
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Imagine",
			"![Cover](cover.jpg)",
			"**Artists**: John Lennon",
			"**Genres**: rock, pop",
			"**Tracks**: 2",
			"1. John Lennon - Imagine [3:03]",
			"2. John Lennon - Crippled Inside [3:47]",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("ExportToMarkdown playlist", func(t *testing.T) {
		data, _ := ExportToMarkdown(testPlaylist(), "")
		output := string(data)
		if strings.Contains(output, "![Cover]") {
			t.Error("Markdown should not reference a cover")
		}
		if !strings.Contains(output, "1. Artist One, Guest - Song One (Album One) [3:00]") {
			t.Errorf("Markdown missing track line, got:\n%s", output)
		}
		if !strings.Contains(output, "**Description**: Songs for driving") {
			t.Errorf("Markdown missing description, got:\n%s", output)
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, _ := ExportToText(testPlaylist())
		output := string(data)
		if !strings.HasPrefix(output, "Playlist: Road & Trip\n") {
			t.Errorf("unexpected header:\n%s", output)
		}
		if !strings.Contains(output, "2. Artist Two - Song Two (1:02:05)") {
			t.Errorf("Text missing track line, got:\n%s", output)
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(testAlbum())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}
		var decoded models.CatalogAlbum
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.Name != "Imagine" || len(decoded.Tracks) != 2 {
			t.Errorf("unexpected decoded album %+v", decoded)
		}
	})
}

func TestRender(t *testing.T) {
	for _, name := range []string{"", "text", "md", "markdown", "csv", "json"} {
		f, err := ParseFormat(name)
		if err != nil {
			t.Fatalf("ParseFormat(%q) failed: %v", name, err)
		}
		if _, err := Render(testAlbum(), f); err != nil {
			t.Errorf("Render(%s) failed: %v", f, err)
		}
		track := testAlbum().Tracks[0]
		out, err := RenderTrack(&track, f)
		if err != nil || !strings.Contains(string(out), "Imagine") {
			t.Errorf("RenderTrack(%s) = %q, %v", f, out, err)
		}
	}

	if _, err := ParseFormat("yaml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0:00"},
		{59, "0:59"},
		{183, "3:03"},
		{3600, "1:00:00"},
		{-5, "0:00"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNFOGenerator(t *testing.T) {
	t.Run("album", func(t *testing.T) {
		dir := t.TempDir()
		if err := NewNFOGenerator().Generate(testAlbum(), dir); err != nil {
			t.Fatalf("Generate failed: %v", err)
		}

		content := th.MustReadFile(t, filepath.Join(dir, AlbumNFOFile))
		if !strings.HasPrefix(content, "<?xml") {
			t.Errorf("missing XML header:\n%s", content)
		}

		var doc albumNFO
		if err := xml.Unmarshal([]byte(content), &doc); err != nil {
			t.Fatalf("invalid XML: %v", err)
		}
		if doc.Title != "Imagine" || doc.Year != "1971" || len(doc.Genres) != 2 {
			t.Errorf("unexpected album fields %+v", doc)
		}
		if doc.Thumb == nil || doc.Thumb.URL != "https://i.scdn.co/image/imagine" || doc.Thumb.Aspect != "cover" {
			t.Errorf("unexpected thumb %+v", doc.Thumb)
		}
		if len(doc.Tracks) != 2 || doc.Tracks[1].Position != 2 || doc.Tracks[1].Duration != "3:47" {
			t.Errorf("unexpected tracks %+v", doc.Tracks)
		}
	})

	t.Run("playlist escapes text", func(t *testing.T) {
		dir := t.TempDir()
		if err := NewNFOGenerator().Generate(testPlaylist(), dir); err != nil {
			t.Fatalf("Generate failed: %v", err)
		}

		content := th.MustReadFile(t, filepath.Join(dir, PlaylistNFOFile))
		if !strings.Contains(content, "<title>Road &amp; Trip</title>") {
			t.Errorf("expected escaped title:\n%s", content)
		}
		if strings.Contains(content, "<thumb") {
			t.Error("playlist without cover should not have a thumb")
		}
	})
}

func TestM3U(t *testing.T) {
	dir := t.TempDir()
	tracks := testPlaylist().Tracks
	entries := []models.AcquisitionOutcome{
		{OK: true, Path: filepath.Join(dir, "Song One.m4a"), Track: &tracks[0]},
		{OK: false},
		{OK: true, Path: filepath.Join(dir, "sub", "Song Two.m4a"), Track: &tracks[1]},
	}

	path := filepath.Join(dir, "Road & Trip.m3u")
	if err := NewM3UWriter().WritePlaylist(path, "Road & Trip", entries); err != nil {
		t.Fatalf("WritePlaylist failed: %v", err)
	}

	want := "#EXTM3U\n" +
		"#PLAYLIST:Road & Trip\n" +
		"#EXTINF:180,Artist One, Guest - Song One\n" +
		"Song One.m4a\n" +
		"#EXTINF:3725,Artist Two - Song Two\n" +
		"sub/Song Two.m4a\n"
	if got := th.MustReadFile(t, path); got != want {
		t.Errorf("m3u =\n%s\nwant\n%s", got, want)
	}
}
