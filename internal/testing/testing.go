// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/songsaver/internal/models"
	"github.com/desertthunder/songsaver/internal/services"
	"github.com/desertthunder/songsaver/internal/shared"
)

// MockCatalog is a test double for [services.Catalog] backed by maps keyed by catalog id.
type MockCatalog struct {
	Tracks    map[string]*models.CatalogTrack
	Albums    map[string]*models.CatalogAlbum
	Playlists map[string]*models.CatalogPlaylist
	Err       error

	mu    sync.Mutex
	calls int
}

func (m *MockCatalog) count() {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
}

// Calls returns how many lookups were made.
func (m *MockCatalog) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockCatalog) Track(ctx context.Context, ref string) (*models.CatalogTrack, error) {
	m.count()
	if m.Err != nil {
		return nil, m.Err
	}
	if t, ok := m.Tracks[refID(ref)]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: track %s", shared.ErrNotFound, ref)
}

func (m *MockCatalog) Album(ctx context.Context, ref string) (*models.CatalogAlbum, error) {
	m.count()
	if m.Err != nil {
		return nil, m.Err
	}
	if a, ok := m.Albums[refID(ref)]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("%w: album %s", shared.ErrNotFound, ref)
}

func (m *MockCatalog) Playlist(ctx context.Context, ref string) (*models.CatalogPlaylist, error) {
	m.count()
	if m.Err != nil {
		return nil, m.Err
	}
	if p, ok := m.Playlists[refID(ref)]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: playlist %s", shared.ErrNotFound, ref)
}

func refID(ref string) string {
	if parsed, err := services.ParseSpotifyRef(ref); err == nil {
		return parsed.ID
	}
	return ref
}

// MockResolver returns a candidate derived from the track unless the title is listed in Missing.
type MockResolver struct {
	Missing map[string]bool
	Err     error
	Panic   bool
	Scored  []services.ScoredCandidate

	mu    sync.Mutex
	calls []string
}

func (m *MockResolver) Resolve(ctx context.Context, track models.CatalogTrack) (*models.CandidateResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, track.Title)
	m.mu.Unlock()

	if m.Panic {
		panic("resolver exploded")
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Missing[track.Title] {
		return nil, nil
	}
	return &models.CandidateResult{
		ID:       "yt-" + track.Title,
		Title:    track.Title,
		Artists:  track.Artists,
		Album:    track.Album,
		Duration: track.Duration,
		Locator:  "https://music.youtube.com/watch?v=yt-" + track.Title,
	}, nil
}

// Candidates returns Scored, or Err when set.
func (m *MockResolver) Candidates(ctx context.Context, track models.CatalogTrack) ([]services.ScoredCandidate, error) {
	m.mu.Lock()
	m.calls = append(m.calls, track.Title)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	return m.Scored, nil
}

// Calls returns the titles resolved so far.
func (m *MockResolver) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// MockFetcher writes Content to the requested path. Candidates listed in Fail get a partial file
// followed by an error; those listed in Panic make Fetch panic.
type MockFetcher struct {
	Content string
	Fail    map[string]bool
	Panic   map[string]bool

	mu    sync.Mutex
	paths []string
}

func (m *MockFetcher) Fetch(ctx context.Context, c models.CandidateResult, path string, format models.AudioFormat, bitrate models.Bitrate) error {
	m.mu.Lock()
	m.paths = append(m.paths, path)
	m.mu.Unlock()

	if m.Panic[c.Title] {
		panic("fetch exploded")
	}
	content := m.Content
	if content == "" {
		content = "audio"
	}
	if m.Fail[c.Title] {
		_ = os.WriteFile(path, []byte(content[:1]), 0o644)
		return errors.New("connection reset by peer")
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

// Paths returns the output paths requested so far.
func (m *MockFetcher) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.paths...)
}

// MockTagger records tag writes and optionally fails them.
type MockTagger struct {
	Err error

	mu     sync.Mutex
	covers [][]byte
	lyrics map[string]string
}

func (m *MockTagger) Write(ctx context.Context, path string, track models.CatalogTrack, cover []byte) error {
	m.mu.Lock()
	m.covers = append(m.covers, cover)
	m.mu.Unlock()
	return m.Err
}

func (m *MockTagger) EmbedLyrics(ctx context.Context, path, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lyrics == nil {
		m.lyrics = make(map[string]string)
	}
	m.lyrics[path] = text
	return nil
}

// Covers returns the cover argument of every Write call.
func (m *MockTagger) Covers() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.covers...)
}

// EmbeddedLyrics returns the lyrics embedded into path.
func (m *MockTagger) EmbeddedLyrics(path string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lyrics[path]
}

// MockLyrics returns Text for every track, or Err.
type MockLyrics struct {
	Text string
	Err  error
}

func (m *MockLyrics) Lyrics(ctx context.Context, track models.CatalogTrack) (string, error) {
	return m.Text, m.Err
}

// MockCovers returns Data for every url, or Err.
type MockCovers struct {
	Data []byte
	Err  error

	mu    sync.Mutex
	calls int
}

func (m *MockCovers) Fetch(ctx context.Context, url string) ([]byte, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.Data, m.Err
}

func (m *MockCovers) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockSidecar counts sidecar generations.
type MockSidecar struct {
	Err error

	mu   sync.Mutex
	dirs []string
}

func (m *MockSidecar) Generate(c models.Collection, dir string) error {
	m.mu.Lock()
	m.dirs = append(m.dirs, dir)
	m.mu.Unlock()
	return m.Err
}

func (m *MockSidecar) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.dirs)
}

// Dirs returns the directories passed to Generate.
func (m *MockSidecar) Dirs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.dirs...)
}

// MockPlaylistWriter records playlist file writes.
type MockPlaylistWriter struct {
	mu      sync.Mutex
	Path    string
	Entries []models.AcquisitionOutcome
	calls   int
}

func (m *MockPlaylistWriter) WritePlaylist(path, name string, entries []models.AcquisitionOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.Path = path
	m.Entries = entries
	return nil
}

func (m *MockPlaylistWriter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockHistory collects recorded outcomes by status.
type MockHistory struct {
	mu       sync.Mutex
	statuses []models.OutcomeStatus
}

func (m *MockHistory) Record(ctx context.Context, collection string, track models.CatalogTrack, outcome models.AcquisitionOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, outcome.Status)
	return nil
}

// Count returns how many outcomes with status were recorded.
func (m *MockHistory) Count(status models.OutcomeStatus) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.statuses {
		if s == status {
			n++
		}
	}
	return n
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertNoFile(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("File should not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
