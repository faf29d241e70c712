package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/songsaver/internal/formatter"
	"github.com/desertthunder/songsaver/internal/models"
	"github.com/desertthunder/songsaver/internal/services"
	"github.com/desertthunder/songsaver/internal/shared"
	"github.com/desertthunder/songsaver/internal/tasks"
	"github.com/desertthunder/songsaver/internal/ui"
	"github.com/urfave/cli/v3"
)

var errNothingDownloaded = errors.New("no tracks were downloaded")

// downloadRequest is one parsed download invocation.
type downloadRequest struct {
	kind      services.RefKind
	ref       string
	outputDir string
	strict    bool
	batch     tasks.BatchOptions
}

// downloadAction returns the action for the download subcommand of the given kind.
func (r *Runner) downloadAction(kind services.RefKind) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		req, err := r.parseDownload(kind, cmd)
		if err != nil {
			return err
		}
		return r.Download(ctx, req, cmd.Bool("plain"))
	}
}

func (r *Runner) parseDownload(kind services.RefKind, cmd *cli.Command) (downloadRequest, error) {
	ref := strings.TrimSpace(cmd.StringArg("ref"))
	if ref == "" {
		return downloadRequest{}, fmt.Errorf("%w: %s reference", shared.ErrMissingArgument, kind)
	}

	format, err := models.ParseAudioFormat(cmd.String("format"))
	if err != nil {
		return downloadRequest{}, fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}
	bitrate, err := models.ParseBitrate(int(cmd.Int("bitrate")))
	if err != nil {
		return downloadRequest{}, fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}
	workers := int(cmd.Int("workers"))
	if workers < 1 {
		return downloadRequest{}, fmt.Errorf("%w: --workers must be at least 1", shared.ErrInvalidFlag)
	}

	outputDir := cmd.String("output")
	if outputDir == "" {
		outputDir = r.config.OutputDir()
	}

	return downloadRequest{
		kind:      kind,
		ref:       ref,
		outputDir: outputDir,
		strict:    cmd.Bool("strict"),
		batch: tasks.BatchOptions{
			AcquisitionOptions: models.AcquisitionOptions{
				Format:              format,
				Bitrate:             bitrate,
				AlbumArtistOverride: cmd.String("album-artist"),
				FetchLyrics:         cmd.Bool("lyrics"),
			},
			WriteNFO:          cmd.Bool("nfo"),
			SaveCover:         cmd.Bool("cover"),
			WritePlaylistFile: cmd.Bool("m3u"),
			Workers:           workers,
		},
	}, nil
}

// Download acquires the referenced track or collection into the library.
//
// The output directory is locked for the whole run. Progress goes to the interactive view when
// output is a terminal and plain is false, else to plain lines. It fails with errNothingDownloaded
// when not a single track succeeded.
func (r *Runner) Download(ctx context.Context, req downloadRequest, plain bool) error {
	lock, err := shared.LockLibrary(req.outputDir)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	interactive := !plain && r.isTerminal()
	if interactive {
		restore, err := r.redirectLogs()
		if err != nil {
			return err
		}
		defer restore()
	}

	orchestrator, err := r.newOrchestrator(req)
	if err != nil {
		return err
	}

	var success, total int
	run := func(ctx context.Context, updates chan<- tasks.ProgressUpdate) error {
		var err error
		success, total, err = r.runDownload(ctx, orchestrator, req, updates)
		return err
	}

	if interactive {
		summary, err := r.runInteractive(ctx, req, run)
		if err != nil {
			return err
		}
		success, total = summary.Success, summary.Total
	} else if err := r.runPlain(ctx, run); err != nil {
		return err
	}

	r.writePlain("Downloaded %d/%d\n", success, total)
	if success == 0 {
		return fmt.Errorf("%w: %s", errNothingDownloaded, req.ref)
	}
	return nil
}

func (r *Runner) newOrchestrator(req downloadRequest) (*tasks.Orchestrator, error) {
	r.ensureServices()
	if err := r.requireCatalog(); err != nil {
		return nil, err
	}
	resolver, err := r.resolver(req.strict)
	if err != nil {
		return nil, err
	}

	pipeline := tasks.NewPipeline(tasks.PipelineOptions{
		Resolver:  resolver,
		Fetcher:   r.fetcher,
		Tagger:    r.tagger,
		Lyrics:    r.lyrics,
		Covers:    r.covers,
		OutputDir: req.outputDir,
		Logger:    r.logger,
	})

	opts := tasks.OrchestratorOptions{
		Acquirer:  pipeline,
		Sidecar:   formatter.NewNFOGenerator(),
		Covers:    r.covers,
		Playlists: formatter.NewM3UWriter(),
		OutputDir: req.outputDir,
		Logger:    r.logger,
	}
	if h := r.history(); h != nil {
		opts.History = h
	}
	return tasks.NewOrchestrator(opts), nil
}

// runDownload fetches the catalog entry and hands it to the orchestrator.
func (r *Runner) runDownload(ctx context.Context, o *tasks.Orchestrator, req downloadRequest, updates chan<- tasks.ProgressUpdate) (int, int, error) {
	req.batch.Updates = updates
	progress := tasks.ChannelProgress(ctx, updates)

	select {
	case updates <- tasks.FetchCatalogUpdate(req.ref):
	case <-ctx.Done():
		return 0, 0, ctx.Err()
	}

	switch req.kind {
	case services.RefTrack:
		track, err := r.catalog.Track(ctx, req.ref)
		if err != nil {
			return 0, 0, err
		}
		outcome := o.AcquireSingle(ctx, *track, req.batch, progress)
		if outcome.OK {
			return 1, 1, nil
		}
		return 0, 1, nil
	case services.RefAlbum:
		album, err := r.catalog.Album(ctx, req.ref)
		if err != nil {
			return 0, 0, err
		}
		s, n := o.AcquireAll(ctx, album, req.batch, progress)
		return s, n, nil
	case services.RefPlaylist:
		playlist, err := r.catalog.Playlist(ctx, req.ref)
		if err != nil {
			return 0, 0, err
		}
		s, n := o.AcquireAll(ctx, playlist, req.batch, progress)
		return s, n, nil
	default:
		return 0, 0, fmt.Errorf("%w: unknown kind %q", shared.ErrInvalidRef, req.kind)
	}
}

// runPlain drains progress updates to output as plain lines while run executes.
func (r *Runner) runPlain(ctx context.Context, run ui.RunFunc) error {
	updates := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for u := range updates {
			if u.Phase == tasks.PhaseComplete || u.Message == "" {
				continue
			}
			r.writePlain("%s\n", u.Message)
		}
	}()

	err := run(ctx, updates)
	close(updates)
	<-done
	return err
}

// redirectLogs sends log output to a file while the progress view owns the terminal.
func (r *Runner) redirectLogs() (func(), error) {
	logPath := r.config.Log.File
	if logPath == "" {
		logPath = "./tmp/songsaver-tui.log"
	}
	fileLogger, f, err := shared.NewFileLogger(logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file logger: %w", err)
	}

	previous := r.logger
	fileLogger.SetLevel(previous.GetLevel())
	r.SetLogger(fileLogger)

	return func() {
		r.SetLogger(previous)
		f.Close()
	}, nil
}

// runInteractive shows the progress view and returns the summary it received.
func (r *Runner) runInteractive(ctx context.Context, req downloadRequest, run ui.RunFunc) (tasks.BatchSummary, error) {
	title := fmt.Sprintf("Downloading %s %s", req.kind, req.ref)
	model := ui.NewModel(ctx, title, run)
	if _, err := tea.NewProgram(model, tea.WithContext(ctx)).Run(); err != nil {
		return tasks.BatchSummary{}, fmt.Errorf("error running TUI: %w", err)
	}

	if err := model.Err(); err != nil {
		return tasks.BatchSummary{}, err
	}
	summary, _ := model.Summary()
	return summary, nil
}
