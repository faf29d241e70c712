package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songsaver/internal/formatter"
	"github.com/desertthunder/songsaver/internal/media"
	"github.com/desertthunder/songsaver/internal/models"
	"github.com/desertthunder/songsaver/internal/repositories"
	"github.com/desertthunder/songsaver/internal/services"
	"github.com/desertthunder/songsaver/internal/shared"
	"github.com/desertthunder/songsaver/internal/tasks"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
)

// CandidateSource resolves tracks to candidates and explains how every candidate scored.
type CandidateSource interface {
	tasks.Resolver
	Candidates(ctx context.Context, track models.CatalogTrack) ([]services.ScoredCandidate, error)
}

// ResolverFactory builds a [CandidateSource] for the requested threshold mode.
type ResolverFactory func(strict bool) CandidateSource

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	catalog    services.Catalog
	resolvers  ResolverFactory
	fetcher    tasks.Fetcher
	tagger     tasks.TagWriter
	lyrics     tasks.LyricsProvider
	covers     tasks.CoverFetcher
	db         *sql.DB
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Catalog    services.Catalog
	Resolvers  ResolverFactory
	Fetcher    tasks.Fetcher
	Tagger     tasks.TagWriter
	Lyrics     tasks.LyricsProvider
	Covers     tasks.CoverFetcher
	DB         *sql.DB
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		catalog:    opts.Catalog,
		resolvers:  opts.Resolvers,
		fetcher:    opts.Fetcher,
		tagger:     opts.Tagger,
		lyrics:     opts.Lyrics,
		covers:     opts.Covers,
		db:         opts.DB,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, downloadCommand, inspectCommand, explainCommand, historyCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by commands and the services they build.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Close releases the history database when one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// ensureServices builds every collaborator that was not injected, logging through the current logger.
func (r *Runner) ensureServices() {
	cfg := r.config
	timeout := cfg.Timeout()

	if r.catalog == nil {
		if err := cfg.RequireSpotify(); err == nil {
			cache, err := services.NewLRUCache(cfg.Network.CacheSize)
			if err != nil {
				r.logger.Warn("catalog cache disabled", "err", err)
			}
			opts := services.SpotifyOptions{
				ClientID:     cfg.Credentials.Spotify.ClientID,
				ClientSecret: cfg.Credentials.Spotify.ClientSecret,
				Timeout:      timeout,
				RateLimit:    cfg.Network.RateLimit,
				Logger:       r.logger,
			}
			if cache != nil {
				opts.Cache = cache
			}
			if svc, err := services.NewSpotifyService(opts); err == nil {
				r.catalog = svc
			} else {
				r.logger.Warn("spotify catalog unavailable", "err", err)
			}
		}
	}

	if r.resolvers == nil {
		yt := cfg.Credentials.YouTube
		logger := r.logger
		r.resolvers = func(strict bool) CandidateSource {
			return services.NewYouTubeService(services.YouTubeOptions{
				BaseURL:   yt.ProxyURL,
				AuthFile:  yt.HeadersPath,
				Timeout:   timeout,
				RateLimit: cfg.Network.RateLimit,
				Strict:    strict,
				Logger:    logger,
			})
		}
	}

	if r.fetcher == nil {
		r.fetcher = media.NewYtDlp(media.YtDlpOptions{
			Binary:      cfg.Download.YtDlpPath,
			CookiesPath: cfg.Credentials.YouTube.CookiesPath,
			Timeout:     cfg.FetchTimeout(),
			Logger:      r.logger,
		})
	}
	if r.tagger == nil {
		r.tagger = media.NewTagger(cfg.Download.FFmpegPath, r.logger)
	}
	if r.lyrics == nil {
		r.lyrics = services.NewLrclibService(services.LrclibOptions{Timeout: timeout, Logger: r.logger})
	}
	if r.covers == nil {
		r.covers = media.NewCoverFetcher(timeout, r.logger)
	}
}

// requireCatalog fails with [shared.ErrMissingCredentials] when no catalog client could be built.
func (r *Runner) requireCatalog() error {
	if r.catalog == nil {
		return fmt.Errorf("%w: set credentials.spotify in %s or SPOTIFY_CLIENT_ID/SPOTIFY_CLIENT_SECRET",
			shared.ErrMissingCredentials, r.displayConfigPath())
	}
	return nil
}

func (r *Runner) resolver(strict bool) (CandidateSource, error) {
	if r.resolvers == nil {
		return nil, fmt.Errorf("%w: candidate resolver", shared.ErrInvalidConfig)
	}
	return r.resolvers(strict), nil
}

// database opens the history store on first use.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, err
	}
	r.db = db
	return db, nil
}

// history returns the download history recorder, or nil when the store cannot be opened.
func (r *Runner) history() tasks.HistoryRecorder {
	db, err := r.database()
	if err != nil {
		r.logger.Warn("download history disabled", "err", err)
		return nil
	}
	return repositories.NewHistoryAdapter(repositories.NewDownloadRepository(db))
}

func (r *Runner) displayConfigPath() string {
	if r.configPath == "" {
		return "config.toml"
	}
	return r.configPath
}

// isTerminal reports whether output is an interactive terminal.
func (r *Runner) isTerminal() bool {
	f, ok := r.output.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writeBytes(data []byte) error {
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// parseFormat reads --format for inspect.
func parseFormat(cmd *cli.Command) (formatter.Format, error) {
	f, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}
	return f, nil
}
