// lrclib.net lyrics client
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/songsaver/internal/models"
	"github.com/desertthunder/songsaver/internal/shared"
)

const (
	defaultLrclibURL = "https://lrclib.net"

	// InstrumentalMarker is returned for tracks lrclib knows to have no vocals.
	InstrumentalMarker = "[instrumental]"
)

type lrclibRecord struct {
	ID           int     `json:"id"`
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName"`
	Duration     float64 `json:"duration"`
	Instrumental bool    `json:"instrumental"`
	PlainLyrics  string  `json:"plainLyrics"`
	SyncedLyrics string  `json:"syncedLyrics"`
}

func (r lrclibRecord) text() string {
	if r.Instrumental {
		return InstrumentalMarker
	}
	if strings.TrimSpace(r.SyncedLyrics) != "" {
		return r.SyncedLyrics
	}
	return r.PlainLyrics
}

// LrclibOptions configures [NewLrclibService].
type LrclibOptions struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	Logger    *log.Logger
}

// LrclibService fetches lyrics for catalog tracks.
type LrclibService struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *log.Logger
}

// NewLrclibService creates an lrclib client.
func NewLrclibService(opts LrclibOptions) *LrclibService {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultLrclibURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "songsaver (https://github.com/desertthunder/songsaver)"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &LrclibService{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		userAgent:  opts.UserAgent,
		httpClient: &http.Client{Timeout: opts.Timeout},
		logger:     shared.WithLogger(opts.Logger, "service", "lrclib"),
	}
}

// doRequest returns found=false on 404.
func (l *LrclibService) doRequest(ctx context.Context, endpoint string, result any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", l.userAgent)

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", shared.ErrLyricsFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("%w: lrclib status %d", shared.ErrLyricsFailed, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return false, fmt.Errorf("%w: failed to decode response: %v", shared.ErrLyricsFailed, err)
	}
	return true, nil
}

// Lyrics returns synced lyrics when available, else plain lyrics, else "".
//
// An exact lookup by artist, title, album and duration is tried first, then a search by
// artist and title. Instrumental tracks yield [InstrumentalMarker].
func (l *LrclibService) Lyrics(ctx context.Context, track models.CatalogTrack) (string, error) {
	params := url.Values{
		"artist_name": {track.PrimaryArtist()},
		"track_name":  {track.Title},
	}
	if track.Album != "" {
		params.Set("album_name", track.Album)
	}
	if track.Duration > 0 {
		params.Set("duration", strconv.Itoa(track.Duration))
	}

	var record lrclibRecord
	found, err := l.doRequest(ctx, "/api/get?"+params.Encode(), &record)
	if err != nil {
		return "", err
	}
	if found {
		if text := record.text(); text != "" {
			return text, nil
		}
	}

	l.logger.Debug("exact lyrics lookup missed, searching", "track", track.Title)

	search := url.Values{
		"artist_name": {track.PrimaryArtist()},
		"track_name":  {track.Title},
	}
	var records []lrclibRecord
	if _, err := l.doRequest(ctx, "/api/search?"+search.Encode(), &records); err != nil {
		return "", err
	}

	instrumental := false
	for _, r := range records {
		if r.Instrumental {
			instrumental = true
			continue
		}
		if text := r.text(); text != "" {
			return text, nil
		}
	}
	if instrumental {
		return InstrumentalMarker, nil
	}
	return "", nil
}
