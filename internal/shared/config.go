package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"

	"github.com/desertthunder/songsaver/internal/models"
)

//go:embed config.example.toml
var exampleConf []byte

const appName = "songsaver"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Download    DownloadConfig    `toml:"download"`
	Network     NetworkConfig     `toml:"network"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	YouTube YouTubeConfig `toml:"youtube"`
}

// SpotifyConfig contains Spotify client credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// YouTubeConfig contains the search proxy location and the yt-dlp cookie jar.
type YouTubeConfig struct {
	ProxyURL    string `toml:"proxy_url"`
	HeadersPath string `toml:"headers_path"`
	CookiesPath string `toml:"cookies_path"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// DownloadConfig holds the defaults for download flags.
type DownloadConfig struct {
	OutputDir           string `toml:"output_dir"`
	Format              string `toml:"format"`
	Bitrate             int    `toml:"bitrate"`
	Lyrics              bool   `toml:"lyrics"`
	NFO                 bool   `toml:"nfo"`
	Cover               bool   `toml:"cover"`
	M3U                 bool   `toml:"m3u"`
	Strict              bool   `toml:"strict"`
	Workers             int    `toml:"workers"`
	YtDlpPath           string `toml:"ytdlp_path"`
	FFmpegPath          string `toml:"ffmpeg_path"`
	FetchTimeoutSeconds int    `toml:"fetch_timeout_seconds"`
}

// NetworkConfig bounds every remote call.
type NetworkConfig struct {
	TimeoutSeconds int     `toml:"timeout_seconds"`
	RateLimit      float64 `toml:"rate_limit"`
	CacheSize      int     `toml:"cache_size"`
}

// LogConfig selects the log level and an optional log file.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Missing fields take the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// FindConfigFile returns the first existing config among ./config.toml and the XDG config
// location. When neither exists it returns the XDG path.
func FindConfigFile() string {
	if _, err := os.Stat("config.toml"); err == nil {
		return "config.toml"
	}
	return filepath.Join(xdg.ConfigHome, appName, "config.toml")
}

// ApplyEnv overrides credentials, log level, cookie jar and output dir from the environment.
func (c *Config) ApplyEnv() {
	overrides := []struct {
		key    string
		target *string
	}{
		{"SPOTIFY_CLIENT_ID", &c.Credentials.Spotify.ClientID},
		{"SPOTIFY_CLIENT_SECRET", &c.Credentials.Spotify.ClientSecret},
		{"LOG_LEVEL", &c.Log.Level},
		{"YTDLP_COOKIES_PATH", &c.Credentials.YouTube.CookiesPath},
		{"SONGSAVER_OUTPUT_DIR", &c.Download.OutputDir},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.key); ok && v != "" {
			*o.target = v
		}
	}
}

// Validate checks enums and bounds.
func (c *Config) Validate() error {
	if _, err := models.ParseAudioFormat(c.Download.Format); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := models.ParseBitrate(c.Download.Bitrate); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Download.Workers < 1 {
		return fmt.Errorf("%w: download.workers must be at least 1", ErrInvalidConfig)
	}
	if c.Network.CacheSize < 1 {
		return fmt.Errorf("%w: network.cache_size must be at least 1", ErrInvalidConfig)
	}
	return nil
}

// RequireSpotify reports whether client credentials are present.
func (c *Config) RequireSpotify() error {
	s := c.Credentials.Spotify
	if s.ClientID == "" || s.ClientSecret == "" || s.ClientID == "your_spotify_client_id" {
		return fmt.Errorf("%w: spotify client_id and client_secret", ErrMissingCredentials)
	}
	return nil
}

// OutputDir returns the configured library root, or songsaver under the user's music dir.
func (c *Config) OutputDir() string {
	if c.Download.OutputDir != "" {
		return c.Download.OutputDir
	}
	return filepath.Join(xdg.UserDirs.Music, appName)
}

// Timeout is the per-request network timeout.
func (c *Config) Timeout() time.Duration {
	if c.Network.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Network.TimeoutSeconds) * time.Second
}

// FetchTimeout bounds one yt-dlp run.
func (c *Config) FetchTimeout() time.Duration {
	if c.Download.FetchTimeoutSeconds <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(c.Download.FetchTimeoutSeconds) * time.Second
}
