package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/songsaver/internal/models"
	"github.com/desertthunder/songsaver/internal/repositories"
	"github.com/desertthunder/songsaver/internal/shared"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/urfave/cli/v3"
)

// historyRow is the JSON shape of one download record.
type historyRow struct {
	ID         string    `json:"id"`
	Sequence   int       `json:"sequence"`
	Collection string    `json:"collection,omitempty"`
	Source     string    `json:"source"`
	URI        string    `json:"uri,omitempty"`
	Title      string    `json:"title"`
	Artist     string    `json:"artist"`
	Path       string    `json:"path,omitempty"`
	Status     string    `json:"status"`
	Reason     string    `json:"reason,omitempty"`
	Lyrics     bool      `json:"lyrics"`
	CreatedAt  time.Time `json:"created_at"`
}

func newHistoryRow(r *models.DownloadRecord) historyRow {
	return historyRow{
		ID:         r.ID(),
		Sequence:   r.Sequence(),
		Collection: r.Collection(),
		Source:     string(r.Source()),
		URI:        r.URI(),
		Title:      r.Title(),
		Artist:     r.Artist(),
		Path:       r.Path(),
		Status:     string(r.Status()),
		Reason:     r.Reason(),
		Lyrics:     r.Lyrics(),
		CreatedAt:  r.CreatedAt(),
	}
}

// History lists recent downloads, or clears them with --clear.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}
	repo := repositories.NewDownloadRepository(db)

	if cmd.Bool("clear") {
		n, err := repo.DeleteAll()
		if err != nil {
			return err
		}
		r.logger.Info("download history cleared", "rows", n)
		return r.writePlain("Cleared %d downloads\n", n)
	}

	criteria := map[string]any{"limit": int(cmd.Int("limit"))}
	if status := cmd.String("status"); status != "" {
		switch models.OutcomeStatus(status) {
		case models.StatusOK, models.StatusNoMatch, models.StatusFailed:
			criteria["status"] = status
		default:
			return fmt.Errorf("%w: --status must be ok, no_match or failed", shared.ErrInvalidFlag)
		}
	}

	records, err := repo.List(criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		rows := make([]historyRow, len(records))
		for i, rec := range records {
			rows[i] = newHistoryRow(rec)
		}
		return r.writeJSON(rows, true)
	}

	if len(records) == 0 {
		return r.writePlain("No downloads recorded\n")
	}
	r.writePlain("%s\n", renderHistoryTable(records))
	return nil
}

func renderHistoryTable(records []*models.DownloadRecord) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Title", "Artist", "Collection", "Status", "Lyrics", "When"})

	for _, rec := range records {
		lyrics := ""
		if rec.Lyrics() {
			lyrics = "✓"
		}
		status := string(rec.Status())
		if rec.Reason() != "" && rec.Status() != models.StatusOK {
			status = fmt.Sprintf("%s: %s", status, text.Trim(rec.Reason(), 40))
		}
		t.AppendRow(table.Row{
			rec.Sequence(),
			text.Trim(rec.Title(), 40),
			text.Trim(rec.Artist(), 30),
			text.Trim(rec.Collection(), 30),
			status,
			lyrics,
			humanize.Time(rec.CreatedAt()),
		})
	}
	return t.Render()
}
