package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/songsaver/internal/formatter"
	"github.com/desertthunder/songsaver/internal/services"
	"github.com/desertthunder/songsaver/internal/shared"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/urfave/cli/v3"
)

// explainRow is the JSON shape of one scored candidate.
type explainRow struct {
	Filter    string   `json:"filter"`
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Artists   []string `json:"artists"`
	Album     string   `json:"album,omitempty"`
	Duration  int      `json:"duration"`
	Locator   string   `json:"locator"`
	Breakdown any      `json:"breakdown"`
}

// Explain scores every candidate for a track and prints the breakdown.
func (r *Runner) Explain(ctx context.Context, cmd *cli.Command) error {
	ref := strings.TrimSpace(cmd.StringArg("ref"))
	if ref == "" {
		return fmt.Errorf("%w: track reference", shared.ErrMissingArgument)
	}

	r.ensureServices()
	if err := r.requireCatalog(); err != nil {
		return err
	}
	source, err := r.resolver(cmd.Bool("strict"))
	if err != nil {
		return err
	}

	track, err := r.catalog.Track(ctx, ref)
	if err != nil {
		return err
	}

	scored, err := source.Candidates(ctx, *track)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		rows := make([]explainRow, len(scored))
		for i, s := range scored {
			rows[i] = explainRow{
				Filter:    s.Filter,
				ID:        s.Candidate.ID,
				Title:     s.Candidate.Title,
				Artists:   s.Candidate.Artists,
				Album:     s.Candidate.Album,
				Duration:  s.Candidate.Duration,
				Locator:   s.Candidate.Locator,
				Breakdown: s.Breakdown,
			}
		}
		return r.writeJSON(rows, true)
	}

	r.writePlainHeader(fmt.Sprintf("%s - %s (%s)", track.ArtistString(), track.Title, formatter.FormatDuration(track.Duration)))
	if len(scored) == 0 {
		return r.writePlain("No candidates found\n")
	}
	r.writePlain("%s", renderExplainTable(scored))
	r.writePlain("\n")
	return nil
}

// renderExplainTable lays out candidates best first with every sub-score.
func renderExplainTable(scored []services.ScoredCandidate) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Filter", "Title", "Artists", "Length", "Duration", "Artist", "Title", "Album", "Total", "Pass"})

	for i, s := range scored {
		b := s.Breakdown
		pass := "✗"
		if b.Passed {
			pass = "✓"
		}
		t.AppendRow(table.Row{
			i + 1,
			s.Filter,
			text.Trim(s.Candidate.Title, 40),
			text.Trim(strings.Join(s.Candidate.Artists, ", "), 30),
			formatter.FormatDuration(s.Candidate.Duration),
			fmt.Sprintf("%.2f", b.Duration),
			fmt.Sprintf("%.2f", b.Artist),
			fmt.Sprintf("%.2f", b.Title),
			fmt.Sprintf("%.2f", b.Album),
			fmt.Sprintf("%.3f", b.Total),
			pass,
		})
	}

	t.AppendFooter(table.Row{"", "", "", "", "", "", "", "", "threshold", fmt.Sprintf("%.2f", scored[0].Breakdown.Threshold), ""})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
		{Number: 9, Align: text.AlignRight},
		{Number: 10, Align: text.AlignRight},
		{Number: 11, Align: text.AlignCenter},
	})
	return t.Render()
}
