package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/songsaver/internal/formatter"
	"github.com/desertthunder/songsaver/internal/services"
	"github.com/desertthunder/songsaver/internal/shared"
	"github.com/urfave/cli/v3"
)

// inspectAction returns the action for the inspect subcommand of the given kind.
func (r *Runner) inspectAction(kind services.RefKind) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		ref := strings.TrimSpace(cmd.StringArg("ref"))
		if ref == "" {
			return fmt.Errorf("%w: %s reference", shared.ErrMissingArgument, kind)
		}
		f, err := parseFormat(cmd)
		if err != nil {
			return err
		}
		return r.Inspect(ctx, kind, ref, f)
	}
}

// Inspect renders catalog metadata for ref in format f.
func (r *Runner) Inspect(ctx context.Context, kind services.RefKind, ref string, f formatter.Format) error {
	r.ensureServices()
	if err := r.requireCatalog(); err != nil {
		return err
	}

	r.logger.Debug("inspecting catalog entry", "kind", kind, "ref", ref, "format", f)

	var (
		out []byte
		err error
	)
	switch kind {
	case services.RefTrack:
		track, terr := r.catalog.Track(ctx, ref)
		if terr != nil {
			return terr
		}
		out, err = formatter.RenderTrack(track, f)
	case services.RefAlbum:
		album, aerr := r.catalog.Album(ctx, ref)
		if aerr != nil {
			return aerr
		}
		out, err = formatter.Render(album, f)
	case services.RefPlaylist:
		playlist, perr := r.catalog.Playlist(ctx, ref)
		if perr != nil {
			return perr
		}
		out, err = formatter.Render(playlist, f)
	default:
		return fmt.Errorf("%w: unknown kind %q", shared.ErrInvalidRef, kind)
	}
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", kind, err)
	}

	if err := r.writeBytes(out); err != nil {
		return err
	}
	if len(out) > 0 && out[len(out)-1] != '\n' {
		return r.writePlain("\n")
	}
	return nil
}
