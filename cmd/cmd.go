// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/songsaver/internal/services"
	"github.com/urfave/cli/v3"
)

// setupCommand handles setup operations for configuration, database and yt-dlp cookies.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Write the configuration file and initialize the download history",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing configuration file",
			},
		},
		Action: r.Setup,
		Commands: []*cli.Command{
			{
				Name:  "cookies",
				Usage: "Write a yt-dlp cookie jar from a browser request",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL)",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to .sh file containing cURL command",
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "Output path for the cookie jar (default: credentials.youtube.cookies_path)",
					},
				},
				Action: r.SetupCookies,
			},
		},
	}
}

// downloadFlags are shared by every download subcommand, with defaults from the [download] config.
func downloadFlags(r *Runner) []cli.Flag {
	d := r.config.Download
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Audio format (m4a, mp3, opus, flac)",
			Value:   d.Format,
		},
		&cli.IntFlag{
			Name:    "bitrate",
			Aliases: []string{"b"},
			Usage:   "Audio bitrate in kbps (96, 128, 192, 256)",
			Value:   d.Bitrate,
		},
		&cli.BoolFlag{
			Name:  "lyrics",
			Usage: "Fetch lyrics and save them next to each track",
			Value: d.Lyrics,
		},
		&cli.BoolFlag{
			Name:  "nfo",
			Usage: "Write album.nfo or playlist.nfo",
			Value: d.NFO,
		},
		&cli.BoolFlag{
			Name:  "cover",
			Usage: "Save cover.jpg in the collection directory",
			Value: d.Cover,
		},
		&cli.BoolFlag{
			Name:  "m3u",
			Usage: "Write an .m3u file for playlists",
			Value: d.M3U,
		},
		&cli.BoolFlag{
			Name:  "strict",
			Usage: "Require a 0.7 match score instead of 0.6",
			Value: d.Strict,
		},
		&cli.IntFlag{
			Name:    "workers",
			Aliases: []string{"w"},
			Usage:   "Number of tracks downloaded concurrently",
			Value:   d.Workers,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Library root (default: download.output_dir)",
		},
		&cli.StringFlag{
			Name:  "album-artist",
			Usage: "Artist directory used for every track of an album",
		},
		&cli.BoolFlag{
			Name:  "plain",
			Usage: "Print progress lines instead of the interactive view",
		},
	}
}

// downloadCommand handles track, album and playlist downloads.
func downloadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "download",
		Aliases: []string{"dl"},
		Usage:   "Download tracks from a Spotify track, album or playlist",
		Commands: []*cli.Command{
			{
				Name:      "track",
				Usage:     "Download a single track",
				Arguments: []cli.Argument{&cli.StringArg{Name: "ref"}},
				Flags:     downloadFlags(r),
				Action:    r.downloadAction(services.RefTrack),
			},
			{
				Name:      "album",
				Usage:     "Download every track of an album",
				Arguments: []cli.Argument{&cli.StringArg{Name: "ref"}},
				Flags:     downloadFlags(r),
				Action:    r.downloadAction(services.RefAlbum),
			},
			{
				Name:      "playlist",
				Usage:     "Download every track of a playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "ref"}},
				Flags:     downloadFlags(r),
				Action:    r.downloadAction(services.RefPlaylist),
			},
		},
	}
}

// inspectCommand prints catalog metadata without downloading anything.
func inspectCommand(r *Runner) *cli.Command {
	flags := func() []cli.Flag {
		return []cli.Flag{
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format (text, markdown, csv, json)",
				Value: "text",
			},
		}
	}

	return &cli.Command{
		Name:  "inspect",
		Usage: "Show catalog metadata for a track, album or playlist",
		Commands: []*cli.Command{
			{
				Name:      "track",
				Usage:     "Show a track",
				Arguments: []cli.Argument{&cli.StringArg{Name: "ref"}},
				Flags:     flags(),
				Action:    r.inspectAction(services.RefTrack),
			},
			{
				Name:      "album",
				Usage:     "Show an album and its tracks",
				Arguments: []cli.Argument{&cli.StringArg{Name: "ref"}},
				Flags:     flags(),
				Action:    r.inspectAction(services.RefAlbum),
			},
			{
				Name:      "playlist",
				Usage:     "Show a playlist and its tracks",
				Arguments: []cli.Argument{&cli.StringArg{Name: "ref"}},
				Flags:     flags(),
				Action:    r.inspectAction(services.RefPlaylist),
			},
		},
	}
}

// explainCommand shows how every candidate for a track scored.
func explainCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "explain",
		Usage:     "Score every YouTube Music candidate for a track",
		Arguments: []cli.Argument{&cli.StringArg{Name: "ref"}},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "Use the 0.7 threshold",
				Value: r.config.Download.Strict,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Explain,
	}
}

// historyCommand lists or clears the download history.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent downloads",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of rows",
				Value:   50,
			},
			&cli.StringFlag{
				Name:  "status",
				Usage: "Only show rows with this status (ok, no_match, failed)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "clear",
				Usage: "Remove every row from the history",
			},
		},
		Action: r.History,
	}
}
