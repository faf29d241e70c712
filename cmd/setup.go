package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/desertthunder/songsaver/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes the configuration file when missing (or with --force) and runs migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := r.configPath
	if configPath == "" {
		configPath = shared.FindConfigFile()
	}

	if cmd.Bool("force") {
		if err := os.Remove(configPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove existing config: %w", err)
		}
	}

	config := r.config
	switch err := shared.CreateConfigFile(configPath); {
	case err == nil:
		r.logger.Info("config file created", "path", configPath)
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load created config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
		config.ApplyEnv()
		r.config = config
	case errors.Is(err, shared.ErrConfigExists):
		r.logger.Info("config file already exists", "path", configPath)
	default:
		return err
	}

	if err := config.Validate(); err != nil {
		return err
	}

	r.logger.Info("initializing database", "path", config.Database.Path)
	db, err := r.database()
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	version, err := shared.CurrentVersion(db)
	if err != nil {
		return err
	}

	r.writePlain("✓ Config: %s\n", configPath)
	r.writePlain("✓ Database: %s (schema version %d)\n", config.Database.Path, version)
	r.writePlain("✓ Library: %s\n", config.OutputDir())
	if err := config.RequireSpotify(); err != nil {
		r.writePlainln("Next steps:")
		r.writePlain("1. Set credentials.spotify.client_id and client_secret in %s\n", configPath)
		r.writePlain("2. Run 'songsaver inspect album <url>' to test catalog access\n")
	}
	return nil
}

// SetupCookies writes a Netscape cookie jar for yt-dlp from a browser cURL command.
func (r *Runner) SetupCookies(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")
	outputPath := cmd.String("output")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}

	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidFlag)
	}

	r.logger.Info("parsing cURL command for YouTube Music cookies")

	var request *shared.CurlRequest
	var err error

	if curlFile != "" {
		request, err = shared.ParseCurlFile(curlFile)
		if err != nil {
			return fmt.Errorf("failed to parse cURL file: %w", err)
		}
		r.logger.Info("parsed cURL from file", "file", curlFile)
	} else {
		request, err = shared.ParseCurlCommand(curlCmd)
		if err != nil {
			return fmt.Errorf("failed to parse cURL command: %w", err)
		}
		r.logger.Info("parsed cURL command")
	}

	cookies := request.Cookies()
	if len(cookies) == 0 {
		return fmt.Errorf("%w: the cURL command carries no cookies", shared.ErrInvalidInput)
	}

	if outputPath == "" {
		outputPath = r.config.Credentials.YouTube.CookiesPath
	}
	if outputPath == "" {
		outputPath = filepath.Join(xdg.ConfigHome, "songsaver", "cookies.txt")
	}

	if err := request.SaveCookieJar(outputPath); err != nil {
		return err
	}

	r.logger.Info("cookie jar saved", "path", outputPath, "cookies", len(cookies), "domain", request.CookieDomain())

	r.writePlain("✓ Saved %d cookies for %s\n", len(cookies), request.CookieDomain())
	r.writePlain("Cookie jar saved to: %s\n", outputPath)
	if r.config.Credentials.YouTube.CookiesPath != outputPath {
		r.writePlainln("Next steps:")
		r.writePlain("1. Update %s with: credentials.youtube.cookies_path = \"%s\"\n", r.displayConfigPath(), outputPath)
		r.writePlain("   or export YTDLP_COOKIES_PATH=%s\n", outputPath)
	}

	return nil
}
