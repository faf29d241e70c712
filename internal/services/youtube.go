// YouTube Music candidate search
//
// Communicates with the FastAPI proxy server wrapping the ytmusicapi Python library.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/songsaver/internal/matcher"
	"github.com/desertthunder/songsaver/internal/models"
	"github.com/desertthunder/songsaver/internal/shared"
)

const (
	defaultYTBaseURL = "http://localhost:8080"
	watchURL         = "https://music.youtube.com/watch?v="

	FilterSongs  = "songs"
	FilterVideos = "videos"
)

// YouTubeArtist represents an artist in YouTube Music responses.
type YouTubeArtist struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type youtubeAlbum struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// YouTubeResult is one item of a proxy search response.
type YouTubeResult struct {
	VideoID     string          `json:"videoId"`
	Title       string          `json:"title"`
	Artists     []YouTubeArtist `json:"artists"`
	Album       *youtubeAlbum   `json:"album"`
	Duration    string          `json:"duration"`
	DurationSec int             `json:"duration_seconds"`
	ResultType  string          `json:"resultType"`
}

// Candidate converts a search result to a [models.CandidateResult].
func (r YouTubeResult) Candidate() models.CandidateResult {
	c := models.CandidateResult{
		ID:       r.VideoID,
		Title:    r.Title,
		Duration: r.DurationSec,
		Locator:  watchURL + r.VideoID,
	}
	if c.Duration == 0 {
		c.Duration = parseClock(r.Duration)
	}
	for _, a := range r.Artists {
		c.Artists = append(c.Artists, a.Name)
	}
	if r.Album != nil {
		c.Album = r.Album.Name
	}
	return c
}

// ScoredCandidate pairs a candidate with its score breakdown.
type ScoredCandidate struct {
	Candidate models.CandidateResult
	Breakdown models.ScoreBreakdown
	Filter    string
}

// YouTubeOptions configures [NewYouTubeService].
type YouTubeOptions struct {
	BaseURL   string
	AuthFile  string
	Timeout   time.Duration
	RateLimit float64
	Strict    bool
	Logger    *log.Logger
}

// YouTubeService searches YouTube Music via the proxy and resolves catalog tracks to candidates.
type YouTubeService struct {
	baseURL    string
	authFile   string
	strict     bool
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewYouTubeService creates a YouTube Music search client.
func NewYouTubeService(opts YouTubeOptions) *YouTubeService {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultYTBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}

	return &YouTubeService{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		authFile:   opts.AuthFile,
		strict:     opts.Strict,
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
		logger:     shared.WithLogger(opts.Logger, "service", "youtube"),
	}
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube Music"
}

// Strict reports whether the strict threshold is applied.
func (y *YouTubeService) Strict() bool {
	return y.strict
}

func (y *YouTubeService) doRequest(ctx context.Context, endpoint string, result any) error {
	if err := y.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, y.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if y.authFile != "" {
		req.Header.Set("X-Auth-File", y.authFile)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Detail != "" {
			return fmt.Errorf("%w: youtube music status %d: %s", shared.ErrAPIRequest, resp.StatusCode, errResp.Detail)
		}
		return fmt.Errorf("%w: youtube music status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Search runs one proxy search.
//
// Calls GET /api/search?q={query}&filter={filter} on the proxy.
func (y *YouTubeService) Search(ctx context.Context, query, filter string) ([]YouTubeResult, error) {
	params := url.Values{"q": {query}}
	if filter != "" {
		params.Set("filter", filter)
	}

	var results []YouTubeResult
	if err := y.doRequest(ctx, "/api/search?"+params.Encode(), &results); err != nil {
		return nil, err
	}

	kept := results[:0]
	for _, r := range results {
		if r.VideoID != "" {
			kept = append(kept, r)
		}
	}
	return kept, nil
}

// Candidates scores every song and video result for track, best first.
func (y *YouTubeService) Candidates(ctx context.Context, track models.CatalogTrack) ([]ScoredCandidate, error) {
	var scored []ScoredCandidate
	for _, filter := range []string{FilterSongs, FilterVideos} {
		results, err := y.Search(ctx, searchQuery(track), filter)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			c := r.Candidate()
			b, err := matcher.Explain(c, track, y.strict)
			if err != nil {
				y.logger.Warn("scoring failed", "candidate", c.Title, "err", err)
			}
			scored = append(scored, ScoredCandidate{Candidate: c, Breakdown: b, Filter: filter})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Breakdown.Total > scored[j].Breakdown.Total
	})
	return scored, nil
}

// Resolve returns the highest scoring candidate that passes the threshold, or nil when none does.
//
// Songs are searched first; videos only when no song passes.
func (y *YouTubeService) Resolve(ctx context.Context, track models.CatalogTrack) (*models.CandidateResult, error) {
	query := searchQuery(track)

	for _, filter := range []string{FilterSongs, FilterVideos} {
		results, err := y.Search(ctx, query, filter)
		if err != nil {
			return nil, err
		}

		var best *models.CandidateResult
		bestScore := 0.0
		for _, r := range results {
			c := r.Candidate()
			score := matcher.Score(c, track, y.strict)
			y.logger.Debug("candidate scored", "query", query, "filter", filter, "title", c.Title, "score", score)
			if score > bestScore {
				bestScore = score
				best = &c
			}
		}

		if best != nil {
			y.logger.Debug("candidate chosen", "title", best.Title, "id", best.ID, "score", bestScore)
			return best, nil
		}
	}

	return nil, nil
}

func searchQuery(track models.CatalogTrack) string {
	if artist := track.PrimaryArtist(); artist != "" {
		return artist + " " + track.Title
	}
	return track.Title
}

// parseClock converts "m:ss" or "h:mm:ss" to seconds, returning 0 when malformed.
func parseClock(s string) int {
	if s == "" {
		return 0
	}
	total := 0
	for _, part := range strings.Split(s, ":") {
		n, err := strconv.Atoi(part)
		if err != nil {
			return 0
		}
		total = total*60 + n
	}
	return total
}
