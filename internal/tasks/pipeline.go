package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/desertthunder/songsaver/internal/layout"
	"github.com/desertthunder/songsaver/internal/models"
	"github.com/desertthunder/songsaver/internal/shared"
)

const (
	instrumentalMarker = "[instrumental]"
	coverCacheSize     = 8
)

// Resolver picks the best candidate for a track, or returns nil when none passes scoring.
type Resolver interface {
	Resolve(ctx context.Context, track models.CatalogTrack) (*models.CandidateResult, error)
}

// Fetcher writes the audio behind a candidate to path.
type Fetcher interface {
	Fetch(ctx context.Context, candidate models.CandidateResult, path string, format models.AudioFormat, bitrate models.Bitrate) error
}

// TagWriter writes track metadata, and cover when non-nil, into the file at path.
type TagWriter interface {
	Write(ctx context.Context, path string, track models.CatalogTrack, cover []byte) error
}

// LyricsEmbedder is implemented by tag writers that can also store lyrics inside the audio file.
type LyricsEmbedder interface {
	EmbedLyrics(ctx context.Context, path, text string) error
}

// LyricsProvider looks up lyrics. "" and [instrumental] both mean there is nothing to save.
type LyricsProvider interface {
	Lyrics(ctx context.Context, track models.CatalogTrack) (string, error)
}

// CoverFetcher downloads artwork.
type CoverFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// PipelineOptions wires the collaborators of a [Pipeline]. Lyrics and Covers are optional.
type PipelineOptions struct {
	Resolver  Resolver
	Fetcher   Fetcher
	Tagger    TagWriter
	Lyrics    LyricsProvider
	Covers    CoverFetcher
	OutputDir string
	Logger    *log.Logger
}

// Pipeline acquires single tracks: resolve, fetch, tag, then lyrics.
type Pipeline struct {
	resolver Resolver
	fetcher  Fetcher
	tagger   TagWriter
	lyrics   LyricsProvider
	covers   CoverFetcher
	baseDir  string
	logger   *log.Logger

	coverCache *lru.Cache[string, []byte]
}

// NewPipeline creates a pipeline writing under opts.OutputDir.
func NewPipeline(opts PipelineOptions) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	cache, _ := lru.New[string, []byte](coverCacheSize)
	return &Pipeline{
		resolver:   opts.Resolver,
		fetcher:    opts.Fetcher,
		tagger:     opts.Tagger,
		lyrics:     opts.Lyrics,
		covers:     opts.Covers,
		baseDir:    opts.OutputDir,
		logger:     opts.Logger,
		coverCache: cache,
	}
}

// OutputDir returns the library root tracks are written under.
func (p *Pipeline) OutputDir() string { return p.baseDir }

// Acquire downloads one track and reports the result.
//
// It never returns an error or panics: a missing candidate yields [models.StatusNoMatch], and any
// fetch or tagging failure yields [models.StatusFailed] after the partial file is removed.
func (p *Pipeline) Acquire(ctx context.Context, track models.CatalogTrack, opts models.AcquisitionOptions) (outcome models.AcquisitionOutcome) {
	logger := shared.WithLogger(p.logger, "track", track.Title, "artist", track.PrimaryArtist())

	if opts.Format == "" {
		opts.Format = models.FormatM4A
	}
	if opts.Bitrate == 0 {
		opts.Bitrate = models.Bitrate128
	}

	candidate, err := p.resolve(ctx, track)
	if err != nil {
		logger.Error("candidate search failed", "error", err)
		return failed(err)
	}
	if candidate == nil {
		logger.Warn("no match found")
		return models.AcquisitionOutcome{Status: models.StatusNoMatch, Err: shared.ErrNoMatch}
	}
	logger.Debug("matched candidate", "id", candidate.ID, "title", candidate.Title)

	path := layout.TrackPath(p.baseDir, track, opts.Format, opts.AlbumArtistOverride)
	if err := layout.EnsureParent(path); err != nil {
		logger.Error("cannot prepare output directory", "error", err)
		return failed(fmt.Errorf("%w: %w", shared.ErrFetchFailed, err))
	}

	defer func() {
		if r := recover(); r != nil {
			removePartial(path)
			logger.Error("acquisition panicked", "path", path, "panic", r)
			outcome = failed(fmt.Errorf("acquisition panicked: %v", r))
		}
	}()

	if err := p.fetcher.Fetch(ctx, *candidate, path, opts.Format, opts.Bitrate); err != nil {
		removePartial(path)
		if !errors.Is(err, shared.ErrFetchFailed) {
			err = fmt.Errorf("%w: %w", shared.ErrFetchFailed, err)
		}
		logger.Error("fetch failed", "locator", candidate.Locator, "error", err)
		return failed(err)
	}

	cover := p.cover(ctx, track.CoverURL, logger)
	if err := p.tagger.Write(ctx, path, track, cover); err != nil {
		removePartial(path)
		if !errors.Is(err, shared.ErrTaggingFailed) {
			err = fmt.Errorf("%w: %w", shared.ErrTaggingFailed, err)
		}
		logger.Error("tagging failed", "path", path, "error", err)
		return failed(err)
	}

	saved := false
	if opts.FetchLyrics {
		saved = p.saveLyrics(ctx, path, track, logger)
	}
	updated := track.WithLyricsStatus(saved)

	logger.Info("saved", "path", path, "lyrics", saved)
	return models.AcquisitionOutcome{Path: path, Track: &updated, OK: true, Status: models.StatusOK}
}

func (p *Pipeline) resolve(ctx context.Context, track models.CatalogTrack) (candidate *models.CandidateResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			candidate, err = nil, fmt.Errorf("%w: resolver panicked: %v", shared.ErrScoringFault, r)
		}
	}()
	return p.resolver.Resolve(ctx, track)
}

// cover returns resized cover bytes or nil. Failures are logged and never fatal.
func (p *Pipeline) cover(ctx context.Context, url string, logger *log.Logger) []byte {
	if p.covers == nil || url == "" {
		return nil
	}
	if data, ok := p.coverCache.Get(url); ok {
		return data
	}
	data, err := p.covers.Fetch(ctx, url)
	if err != nil {
		logger.Warn("continuing without cover", "error", err)
		return nil
	}
	p.coverCache.Add(url, data)
	return data
}

// saveLyrics writes the .lrc sidecar and reports whether lyrics were saved.
func (p *Pipeline) saveLyrics(ctx context.Context, path string, track models.CatalogTrack, logger *log.Logger) (saved bool) {
	if p.lyrics == nil {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("lyrics provider panicked", "panic", r)
			saved = false
		}
	}()

	text, err := p.lyrics.Lyrics(ctx, track)
	if err != nil {
		logger.Warn("lyrics unavailable", "error", fmt.Errorf("%w: %w", shared.ErrLyricsFailed, err))
		return false
	}
	text = strings.TrimSpace(text)
	if text == "" || strings.Contains(strings.ToLower(text), instrumentalMarker) {
		logger.Debug("no lyrics to save")
		return false
	}

	if err := os.WriteFile(layout.LyricsPath(path), []byte(text+"\n"), 0o644); err != nil {
		logger.Warn("cannot write lyrics", "error", fmt.Errorf("%w: %w", shared.ErrLyricsFailed, err))
		return false
	}
	if e, ok := p.tagger.(LyricsEmbedder); ok {
		if err := e.EmbedLyrics(ctx, path, text); err != nil {
			logger.Warn("cannot embed lyrics", "error", err)
		}
	}
	return true
}

func failed(err error) models.AcquisitionOutcome {
	return models.AcquisitionOutcome{Status: models.StatusFailed, Err: err}
}

// removePartial deletes path and any yt-dlp .part fragments next to it.
func removePartial(path string) {
	_ = os.Remove(path)
	stem := strings.TrimSuffix(path, filepath.Ext(path))
	parts, _ := filepath.Glob(globEscape(stem) + ".*.part")
	for _, part := range parts {
		_ = os.Remove(part)
	}
	_ = os.Remove(path + ".part")
}

func globEscape(s string) string {
	r := strings.NewReplacer(`[`, `\[`, `]`, `\]`, `*`, `\*`, `?`, `\?`)
	return r.Replace(s)
}
