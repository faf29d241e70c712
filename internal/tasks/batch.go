package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/songsaver/internal/layout"
	"github.com/desertthunder/songsaver/internal/models"
	"github.com/desertthunder/songsaver/internal/shared"
)

// CoverFileName is the collection artwork written next to the tracks.
const CoverFileName = "cover.jpg"

// Acquirer downloads one track. [*Pipeline] is the production implementation.
type Acquirer interface {
	Acquire(ctx context.Context, track models.CatalogTrack, opts models.AcquisitionOptions) models.AcquisitionOutcome
}

// SidecarWriter writes the collection-level metadata document into dir.
type SidecarWriter interface {
	Generate(c models.Collection, dir string) error
}

// PlaylistWriter writes an M3U file listing the acquired tracks in order.
type PlaylistWriter interface {
	WritePlaylist(path, name string, entries []models.AcquisitionOutcome) error
}

// HistoryRecorder persists one outcome. Failures are logged, never fatal.
type HistoryRecorder interface {
	Record(ctx context.Context, collection string, track models.CatalogTrack, outcome models.AcquisitionOutcome) error
}

// OrchestratorOptions wires an [Orchestrator]. Only Acquirer is required.
type OrchestratorOptions struct {
	Acquirer  Acquirer
	Sidecar   SidecarWriter
	Covers    CoverFetcher
	Playlists PlaylistWriter
	History   HistoryRecorder
	OutputDir string
	Logger    *log.Logger
}

// BatchOptions configures one [Orchestrator.AcquireAll] run.
type BatchOptions struct {
	models.AcquisitionOptions

	WriteNFO          bool // album.nfo / playlist.nfo after at least one success
	SaveCover         bool // cover.jpg after at least one success
	WritePlaylistFile bool // <name>.m3u for playlists after at least one success
	Workers           int  // concurrent tracks; values below 1 mean 1

	// Updates receives per-track and collection events. Nil disables them.
	Updates chan<- ProgressUpdate
}

// Orchestrator drives the acquisition of whole albums and playlists.
type Orchestrator struct {
	acquirer  Acquirer
	sidecar   SidecarWriter
	covers    CoverFetcher
	playlists PlaylistWriter
	history   HistoryRecorder
	baseDir   string
	logger    *log.Logger
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(opts OrchestratorOptions) *Orchestrator {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Orchestrator{
		acquirer:  opts.Acquirer,
		sidecar:   opts.Sidecar,
		covers:    opts.Covers,
		playlists: opts.Playlists,
		history:   opts.History,
		baseDir:   opts.OutputDir,
		logger:    opts.Logger,
	}
}

// AcquireAll downloads every track of c and returns (success, total).
//
// onProgress, when non-nil, is called with (index, total, title) in track order once a worker
// is free to start that track, so with one worker it fires after the previous track finished.
// Tracks that map to the same file never run at the same time. A panicking callback is logged
// and ignored. A failing track never stops its siblings. Collection files are written only
// after every track finished and at least one succeeded. A collection without a name or tracks returns (0, 0) without doing any work.
func (o *Orchestrator) AcquireAll(ctx context.Context, c models.Collection, opts BatchOptions, onProgress ProgressFunc) (int, int) {
	if c == nil || strings.TrimSpace(c.CollectionName()) == "" || len(c.CollectionTracks()) == 0 {
		o.logger.Warn("skipping batch", "error", shared.ErrInvalidCollection)
		return 0, 0
	}

	name := c.CollectionName()
	tracks := c.CollectionTracks()
	total := len(tracks)
	logger := shared.WithLogger(o.logger, "collection", name)

	if album, ok := c.(*models.CatalogAlbum); ok && opts.AlbumArtistOverride == "" {
		opts.AlbumArtistOverride = album.PrimaryArtist()
	}

	workers := max(opts.Workers, 1)
	logger.Info("starting batch", "kind", c.Kind(), "tracks", total, "workers", workers)

	var (
		success  atomic.Int64
		outcomes = make([]models.AcquisitionOutcome, total)
		slots    = make(chan struct{}, workers)
		locks    = pathLocks(o.baseDir, tracks, opts.AcquisitionOptions)
		g        errgroup.Group
	)

dispatch:
	for i, track := range tracks {
		select {
		case slots <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			logger.Warn("batch cancelled", "remaining", total-i)
			for j := i; j < total; j++ {
				outcomes[j] = failed(ctx.Err())
			}
			break dispatch
		}

		o.notify(onProgress, i+1, total, track.Title)

		g.Go(func() error {
			defer func() { <-slots }()

			locks[i].Lock()
			outcome := o.acquireOne(ctx, track, opts.AcquisitionOptions)
			locks[i].Unlock()

			outcomes[i] = outcome
			if outcome.OK {
				success.Add(1)
			}
			o.record(ctx, name, track, outcome)
			send(ctx, opts.Updates, trackUpdate(i+1, total, TrackResult{Index: i + 1, Track: track, Outcome: outcome}))
			return nil
		})
	}
	_ = g.Wait()

	n := int(success.Load())
	if n > 0 {
		o.finish(ctx, c, opts, outcomes, logger)
	} else {
		logger.Warn("nothing downloaded, skipping collection files")
	}

	logger.Info("batch finished", "success", n, "total", total)
	send(ctx, opts.Updates, completeUpdate(name, n, total))
	return n, total
}

// pathLocks returns one mutex per track, shared by tracks that write to the same file.
func pathLocks(base string, tracks []models.CatalogTrack, opts models.AcquisitionOptions) []*sync.Mutex {
	format := opts.Format
	if format == "" {
		format = models.FormatM4A
	}
	byPath := make(map[string]*sync.Mutex, len(tracks))
	locks := make([]*sync.Mutex, len(tracks))
	for i, t := range tracks {
		path := layout.TrackPath(base, t, format, opts.AlbumArtistOverride)
		if byPath[path] == nil {
			byPath[path] = &sync.Mutex{}
		}
		locks[i] = byPath[path]
	}
	return locks
}

// AcquireSingle downloads one standalone track with the same reporting as a batch of one.
func (o *Orchestrator) AcquireSingle(ctx context.Context, track models.CatalogTrack, opts BatchOptions, onProgress ProgressFunc) models.AcquisitionOutcome {
	o.notify(onProgress, 1, 1, track.Title)

	outcome := o.acquireOne(ctx, track, opts.AcquisitionOptions)
	o.record(ctx, track.Album, track, outcome)
	send(ctx, opts.Updates, trackUpdate(1, 1, TrackResult{Index: 1, Track: track, Outcome: outcome}))

	success := 0
	if outcome.OK {
		success = 1
	}
	send(ctx, opts.Updates, completeUpdate(track.Title, success, 1))
	return outcome
}

// acquireOne isolates a single acquisition so a panic counts as one failed track.
func (o *Orchestrator) acquireOne(ctx context.Context, track models.CatalogTrack, opts models.AcquisitionOptions) (outcome models.AcquisitionOutcome) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("track acquisition panicked", "track", track.Title, "artist", track.PrimaryArtist(), "panic", r)
			outcome = failed(fmt.Errorf("acquisition panicked: %v", r))
		}
	}()
	return o.acquirer.Acquire(ctx, track, opts)
}

func (o *Orchestrator) notify(fn ProgressFunc, index, total int, name string) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			o.logger.Warn("progress callback failed", "index", index, "track", name, "panic", r)
		}
	}()
	fn(index, total, name)
}

func (o *Orchestrator) record(ctx context.Context, collection string, track models.CatalogTrack, outcome models.AcquisitionOutcome) {
	if o.history == nil {
		return
	}
	if err := o.history.Record(ctx, collection, track, outcome); err != nil {
		o.logger.Warn("cannot record download", "track", track.Title, "error", err)
	}
}

// finish writes the sidecar, cover and playlist file. Each is independent and best-effort.
func (o *Orchestrator) finish(ctx context.Context, c models.Collection, opts BatchOptions, outcomes []models.AcquisitionOutcome, logger *log.Logger) {
	dir := layout.CollectionDir(o.baseDir, c, opts.AlbumArtistOverride)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Error("cannot create collection directory", "dir", dir, "error", err)
		return
	}
	send(ctx, opts.Updates, sidecarUpdate(c.CollectionName(), dir))

	if opts.WriteNFO && o.sidecar != nil {
		if err := o.sidecar.Generate(c, dir); err != nil {
			logger.Warn("sidecar not written", "error", fmt.Errorf("%w: %w", shared.ErrSidecarFailed, err))
		}
	}

	if opts.SaveCover && o.covers != nil && c.CollectionCover() != "" {
		if err := o.saveCover(ctx, c.CollectionCover(), filepath.Join(dir, CoverFileName)); err != nil {
			logger.Warn("cover not saved", "error", err)
		}
	}

	if opts.WritePlaylistFile && o.playlists != nil && c.Kind() == models.SourcePlaylist {
		var ok []models.AcquisitionOutcome
		for _, outcome := range outcomes {
			if outcome.OK {
				ok = append(ok, outcome)
			}
		}
		file := layout.Sanitize(c.CollectionName())
		if file == "" {
			file = layout.UnknownPlaylist
		}
		path := filepath.Join(dir, file+".m3u")
		if err := o.playlists.WritePlaylist(path, c.CollectionName(), ok); err != nil {
			logger.Warn("playlist file not written", "error", fmt.Errorf("%w: %w", shared.ErrSidecarFailed, err))
		}
	}
}

func (o *Orchestrator) saveCover(ctx context.Context, url, path string) error {
	data, err := o.covers.Fetch(ctx, url)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrCoverFailed, err)
	}
	return nil
}
