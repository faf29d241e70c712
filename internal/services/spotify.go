// Spotify catalog client
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/desertthunder/songsaver/internal/models"
	"github.com/desertthunder/songsaver/internal/shared"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	playlistPageSize = 50
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a simplified Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyTrack represents a Spotify track. Album is empty for tracks nested in an album.
type SpotifyTrack struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	Album       SpotifyAlbum    `json:"album"`
	DurationMS  int             `json:"duration_ms"`
	DiscNumber  int             `json:"disc_number"`
	TrackNumber int             `json:"track_number"`
	IsLocal     bool            `json:"is_local"`
	URI         string          `json:"uri"`
}

type spotifyTrackPage struct {
	Items []SpotifyTrack `json:"items"`
	Total int            `json:"total"`
	Next  *string        `json:"next"`
}

// SpotifyAlbum represents a Spotify album. Tracks is only populated by the album endpoint.
type SpotifyAlbum struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Artists     []SpotifyArtist  `json:"artists"`
	ReleaseDate string           `json:"release_date"`
	TotalTracks int              `json:"total_tracks"`
	Genres      []string         `json:"genres"`
	Images      []SpotifyImage   `json:"images"`
	URI         string           `json:"uri"`
	Tracks      spotifyTrackPage `json:"tracks"`
}

type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifyPlaylist represents Spotify playlist metadata.
type SpotifyPlaylist struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Owner       Owner          `json:"owner"`
	Images      []SpotifyImage `json:"images"`
	URI         string         `json:"uri"`
	Tracks      struct {
		Total int `json:"total"`
	} `json:"tracks"`
}

// SpotifyPlaylistTrack represents a track within a playlist context. Track is nil for removed items.
type SpotifyPlaylistTrack struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

type spotifyPlaylistPage struct {
	Items []SpotifyPlaylistTrack `json:"items"`
	Total int                    `json:"total"`
	Next  *string                `json:"next"`
}

// SpotifyOptions configures [NewSpotifyService].
type SpotifyOptions struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	TokenURL     string
	Timeout      time.Duration
	RateLimit    float64 // requests per second, 0 disables throttling
	Cache        Cache
	Logger       *log.Logger
}

// SpotifyService implements [Catalog] against the Spotify Web API.
type SpotifyService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      Cache
	logger     *log.Logger
}

// NewSpotifyService creates a catalog client authenticated with client credentials.
//
// Tokens are fetched lazily on the first request and refreshed by the oauth2 transport.
func NewSpotifyService(opts SpotifyOptions) (*SpotifyService, error) {
	if opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret", shared.ErrMissingCredentials)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = spotifyTokenURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Cache == nil {
		c, err := NewLRUCache(DefaultCacheSize)
		if err != nil {
			return nil, err
		}
		opts.Cache = c
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}

	conf := &clientcredentials.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		TokenURL:     opts.TokenURL,
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: opts.Timeout})
	client := conf.Client(ctx)
	client.Timeout = opts.Timeout

	return &SpotifyService{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		httpClient: client,
		limiter:    rate.NewLimiter(limit, 1),
		cache:      opts.Cache,
		logger:     shared.WithLogger(opts.Logger, "service", "spotify"),
	}, nil
}

// Name returns the service name.
func (s *SpotifyService) Name() string {
	return "Spotify"
}

// doRequest performs an authenticated GET and decodes the JSON body into result.
//
// endpoint is either a path under the base URL or an absolute pagination URL.
// Successful bodies are cached by endpoint.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, result any) error {
	if data, ok := s.cache.Get(endpoint); ok {
		s.logger.Debug("cache hit", "endpoint", endpoint)
		return json.Unmarshal(data, result)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	apiURL := endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		apiURL = s.baseURL + endpoint
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", shared.ErrNotFound, endpoint)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: retry after %s", shared.ErrRateLimited, resp.Header.Get("Retry-After"))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: spotify status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	s.cache.Add(endpoint, data)
	return nil
}

// Track fetches a single track. The result is tagged [models.SourceSingle].
func (s *SpotifyService) Track(ctx context.Context, ref string) (*models.CatalogTrack, error) {
	id, err := resolveID(ref, RefTrack)
	if err != nil {
		return nil, err
	}

	var track SpotifyTrack
	if err := s.doRequest(ctx, "/tracks/"+id, &track); err != nil {
		return nil, err
	}

	t := catalogTrack(track, track.Album, models.SourceSingle)
	t.TotalTracks = 1
	return &t, nil
}

// Album fetches an album and every page of its tracks.
func (s *SpotifyService) Album(ctx context.Context, ref string) (*models.CatalogAlbum, error) {
	id, err := resolveID(ref, RefAlbum)
	if err != nil {
		return nil, err
	}

	var album SpotifyAlbum
	if err := s.doRequest(ctx, "/albums/"+id, &album); err != nil {
		return nil, err
	}

	items := album.Tracks.Items
	for next := album.Tracks.Next; next != nil && *next != ""; {
		var page spotifyTrackPage
		if err := s.doRequest(ctx, *next, &page); err != nil {
			return nil, err
		}
		items = append(items, page.Items...)
		next = page.Next
	}

	result := &models.CatalogAlbum{
		Name:        album.Name,
		Artists:     artistNames(album.Artists),
		ReleaseDate: album.ReleaseDate,
		Genres:      album.Genres,
		CoverURL:    firstImage(album.Images),
		URI:         album.URI,
		TotalTracks: album.TotalTracks,
		Tracks:      make([]models.CatalogTrack, 0, len(items)),
	}
	for _, item := range items {
		result.Tracks = append(result.Tracks, catalogTrack(item, album, models.SourceAlbum))
	}

	s.logger.Debug("album fetched", "name", album.Name, "tracks", len(result.Tracks))
	return result, nil
}

// Playlist fetches playlist metadata and pages through its items 50 at a time.
//
// Removed and local items are skipped, but track numbers follow playlist position.
func (s *SpotifyService) Playlist(ctx context.Context, ref string) (*models.CatalogPlaylist, error) {
	id, err := resolveID(ref, RefPlaylist)
	if err != nil {
		return nil, err
	}

	var playlist SpotifyPlaylist
	fields := url.Values{"fields": {"id,name,description,owner,images,uri,tracks.total"}}
	if err := s.doRequest(ctx, "/playlists/"+id+"?"+fields.Encode(), &playlist); err != nil {
		return nil, err
	}

	result := &models.CatalogPlaylist{
		Name:        playlist.Name,
		Owner:       firstNonEmpty(playlist.Owner.DisplayName, playlist.Owner.ID),
		Description: playlist.Description,
		CoverURL:    firstImage(playlist.Images),
		URI:         playlist.URI,
	}

	position := 0
	for offset := 0; ; offset += playlistPageSize {
		var page spotifyPlaylistPage
		endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", id, playlistPageSize, offset)
		if err := s.doRequest(ctx, endpoint, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			position++
			if item.Track == nil || item.Track.IsLocal || item.Track.ID == "" {
				continue
			}
			t := catalogTrack(*item.Track, item.Track.Album, models.SourcePlaylist)
			t.PlaylistName = playlist.Name
			t.TrackNumber = position
			t.DiscNumber = 1
			t.TotalTracks = max(playlist.Tracks.Total, page.Total)
			result.Tracks = append(result.Tracks, t)
		}

		if page.Next == nil || len(page.Items) == 0 {
			break
		}
	}

	s.logger.Debug("playlist fetched", "name", playlist.Name, "tracks", len(result.Tracks))
	return result, nil
}

// catalogTrack maps a Spotify track within album context to a catalog value.
func catalogTrack(t SpotifyTrack, album SpotifyAlbum, source models.SourceKind) models.CatalogTrack {
	return models.CatalogTrack{
		Title:        t.Name,
		Artists:      artistNames(t.Artists),
		Album:        album.Name,
		AlbumArtists: artistNames(album.Artists),
		ReleaseDate:  album.ReleaseDate,
		Duration:     t.DurationMS / 1000,
		URI:          t.URI,
		Genres:       album.Genres,
		CoverURL:     firstImage(album.Images),
		DiscNumber:   t.DiscNumber,
		TrackNumber:  t.TrackNumber,
		TotalTracks:  album.TotalTracks,
		Source:       source,
	}
}

func artistNames(artists []SpotifyArtist) []string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return names
}

func firstImage(images []SpotifyImage) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
