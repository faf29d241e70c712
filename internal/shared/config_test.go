package shared

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./songsaver.db" {
			t.Errorf("expected database path ./songsaver.db, got %s", config.Database.Path)
		}

		if config.Credentials.YouTube.ProxyURL != "http://127.0.0.1:8080" {
			t.Errorf("expected youtube proxy URL http://127.0.0.1:8080, got %s", config.Credentials.YouTube.ProxyURL)
		}

		if config.Credentials.Spotify.ClientID != "your_spotify_client_id" {
			t.Errorf("expected spotify client_id your_spotify_client_id, got %s", config.Credentials.Spotify.ClientID)
		}

		if config.Download.Format != "m4a" || config.Download.Bitrate != 128 || config.Download.Workers != 1 {
			t.Errorf("unexpected download defaults: %+v", config.Download)
		}

		if config.Network.CacheSize != 32 {
			t.Errorf("expected cache size 32, got %d", config.Network.CacheSize)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "songsaver", "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); !errors.Is(err, ErrConfigExists) {
			t.Errorf("creating config file again should fail with ErrConfigExists, got %v", err)
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"

[download]
format = "mp3"
bitrate = 256
workers = 4
fetch_timeout_seconds = 30

[network]
timeout_seconds = 5
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Credentials.Spotify.ClientID != "test_client_id" {
			t.Errorf("expected spotify client_id test_client_id, got %s", config.Credentials.Spotify.ClientID)
		}

		if config.Download.Format != "mp3" || config.Download.Bitrate != 256 || config.Download.Workers != 4 {
			t.Errorf("unexpected download section: %+v", config.Download)
		}

		if !config.Download.Cover {
			t.Error("unset fields should keep embedded defaults")
		}

		if config.Timeout() != 5*time.Second || config.FetchTimeout() != 30*time.Second {
			t.Errorf("unexpected timeouts %v %v", config.Timeout(), config.FetchTimeout())
		}

		if err := config.RequireSpotify(); err != nil {
			t.Errorf("expected credentials to be present: %v", err)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
		if !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("LoadConfig invalid toml", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[download\nformat="), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		if _, err := LoadConfig(configPath); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestConfigApplyEnv(t *testing.T) {
	t.Setenv("SPOTIFY_CLIENT_ID", "env_id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "env_secret")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("YTDLP_COOKIES_PATH", "/tmp/cookies.txt")
	t.Setenv("SONGSAVER_OUTPUT_DIR", "/music")

	config := DefaultConfig()
	if err := config.RequireSpotify(); !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("placeholder credentials should be rejected, got %v", err)
	}

	config.ApplyEnv()

	if config.Credentials.Spotify.ClientID != "env_id" || config.Credentials.Spotify.ClientSecret != "env_secret" {
		t.Errorf("credentials not overridden: %+v", config.Credentials.Spotify)
	}
	if config.Log.Level != "debug" {
		t.Errorf("expected log level debug, got %s", config.Log.Level)
	}
	if config.Credentials.YouTube.CookiesPath != "/tmp/cookies.txt" {
		t.Errorf("expected cookies path override, got %s", config.Credentials.YouTube.CookiesPath)
	}
	if config.OutputDir() != "/music" {
		t.Errorf("expected output dir /music, got %s", config.OutputDir())
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad format", func(c *Config) { c.Download.Format = "wav" }},
		{"bad bitrate", func(c *Config) { c.Download.Bitrate = 320 }},
		{"no workers", func(c *Config) { c.Download.Workers = 0 }},
		{"no cache", func(c *Config) { c.Network.CacheSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}

	t.Run("default output dir under music", func(t *testing.T) {
		config := DefaultConfig()
		config.Download.OutputDir = ""
		if !strings.HasSuffix(config.OutputDir(), filepath.Join("", "songsaver")) {
			t.Errorf("expected songsaver suffix, got %s", config.OutputDir())
		}
	})
}
