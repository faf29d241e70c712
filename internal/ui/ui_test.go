package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/songsaver/internal/models"
	"github.com/desertthunder/songsaver/internal/tasks"
)

func trackResult(index int, title string, ok bool) tasks.TrackResult {
	track := models.CatalogTrack{Title: title, Artists: []string{"The Beatles"}}
	outcome := models.AcquisitionOutcome{Status: models.StatusNoMatch}
	if ok {
		outcome = models.AcquisitionOutcome{OK: true, Status: models.StatusOK, Path: "/music/" + title + ".m4a", Track: &track}
	}
	return tasks.TrackResult{Index: index, Track: track, Outcome: outcome}
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// drain runs the model's update loop until the run reports completion.
func drain(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	for i := 0; i < 100; i++ {
		msg, ok := cmd().(Msg)
		if !ok {
			t.Fatalf("unexpected message type %T", msg)
		}
		m.Update(msg)
		if msg.kind == MsgRunComplete {
			return
		}
		cmd = m.waitForProgress()
	}
	t.Fatal("run never completed")
}

func TestModelUpdates(t *testing.T) {
	m := NewModel(context.Background(), "Abbey Road", nil)

	m.Update(progressUpdateMsg(tasks.FetchCatalogUpdate("spotify:album:1")))
	if m.view != FetchView {
		t.Fatalf("expected FetchView, got %d", m.view)
	}
	if !strings.Contains(m.View(), "spotify:album:1") {
		t.Errorf("fetch view missing message: %q", m.View())
	}

	m.Update(progressUpdateMsg(tasks.ProgressUpdate{Phase: tasks.PhaseAcquire, Step: 1, Total: 3, Message: "[1/3] Come Together"}))
	if m.view != DownloadView {
		t.Fatalf("expected DownloadView, got %d", m.view)
	}

	m.Update(progressUpdateMsg(tasks.ProgressUpdate{Phase: tasks.PhaseTrackDone, Step: 1, Total: 3, Data: trackResult(1, "Come Together", true)}))
	m.Update(progressUpdateMsg(tasks.ProgressUpdate{Phase: tasks.PhaseTrackFailed, Step: 2, Total: 3, Data: trackResult(2, "Something", false)}))

	if m.succeeded != 1 || m.failed != 1 {
		t.Errorf("counts = %d/%d, want 1/1", m.succeeded, m.failed)
	}
	if len(m.Results()) != 2 {
		t.Errorf("expected 2 results, got %d", len(m.Results()))
	}

	view := m.View()
	for _, want := range []string{"Come Together", "Something", "1 downloaded, 1 failed"} {
		if !strings.Contains(view, want) {
			t.Errorf("download view missing %q", want)
		}
	}

	if _, ok := m.Summary(); ok {
		t.Error("summary should not be set before completion")
	}

	m.Update(progressUpdateMsg(tasks.ProgressUpdate{Phase: tasks.PhaseComplete, Data: tasks.BatchSummary{Collection: "Abbey Road", Success: 1, Total: 3}}))
	m.Update(runCompleteMsg(nil))

	if m.view != ResultView {
		t.Fatalf("expected ResultView, got %d", m.view)
	}
	summary, ok := m.Summary()
	if !ok || summary.Success != 1 || summary.Total != 3 {
		t.Errorf("summary = %+v, %v", summary, ok)
	}
	if !strings.Contains(m.View(), "Downloaded 1/3") {
		t.Errorf("result view missing summary: %q", m.View())
	}
}

func TestModelRun(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		run := func(ctx context.Context, updates chan<- tasks.ProgressUpdate) error {
			updates <- tasks.ProgressUpdate{Phase: tasks.PhaseTrackDone, Step: 1, Total: 2, Data: trackResult(1, "Because", true)}
			updates <- tasks.ProgressUpdate{Phase: tasks.PhaseTrackDone, Step: 2, Total: 2, Data: trackResult(2, "Sun King", true)}
			updates <- tasks.ProgressUpdate{Phase: tasks.PhaseComplete, Data: tasks.BatchSummary{Success: 2, Total: 2}}
			return nil
		}

		m := NewModel(context.Background(), "Abbey Road", run)
		drain(t, m, m.start())

		if m.Err() != nil {
			t.Fatalf("unexpected error: %v", m.Err())
		}
		if len(m.Results()) != 2 {
			t.Errorf("expected 2 results, got %d", len(m.Results()))
		}
		if m.view != ResultView {
			t.Errorf("expected ResultView, got %d", m.view)
		}
	})

	t.Run("Error", func(t *testing.T) {
		boom := errors.New("catalog unavailable")
		run := func(ctx context.Context, updates chan<- tasks.ProgressUpdate) error {
			updates <- tasks.FetchCatalogUpdate("spotify:album:1")
			return boom
		}

		m := NewModel(context.Background(), "Abbey Road", run)
		drain(t, m, m.start())

		if !errors.Is(m.Err(), boom) {
			t.Fatalf("expected run error, got %v", m.Err())
		}
		if !strings.Contains(m.View(), "catalog unavailable") {
			t.Errorf("result view missing error: %q", m.View())
		}
	})

	t.Run("NilRun", func(t *testing.T) {
		m := NewModel(context.Background(), "Nothing", nil)
		drain(t, m, m.start())

		if m.Err() != nil || m.view != ResultView {
			t.Errorf("expected clean completion, got err=%v view=%d", m.Err(), m.view)
		}
	})
}

func TestModelQuit(t *testing.T) {
	t.Run("CancelsRun", func(t *testing.T) {
		started := make(chan struct{})
		run := func(ctx context.Context, updates chan<- tasks.ProgressUpdate) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		}

		m := NewModel(context.Background(), "Abbey Road", run)
		cmd := m.start()
		<-started

		_, quit := m.Update(keyPress("q"))
		if quit != nil {
			t.Error("first quit should cancel, not exit")
		}
		if !m.cancelling {
			t.Error("expected cancelling state")
		}

		_, next := m.Update(cmd())
		if next == nil {
			t.Fatal("expected quit command after cancelled run")
		}
		if _, ok := next().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
		if !errors.Is(m.Err(), context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", m.Err())
		}
	})

	t.Run("ResultView", func(t *testing.T) {
		m := NewModel(context.Background(), "Abbey Road", nil)
		m.Update(runCompleteMsg(nil))

		_, cmd := m.Update(keyPress("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})

	t.Run("HelpToggle", func(t *testing.T) {
		m := NewModel(context.Background(), "Abbey Road", nil)
		m.Update(keyPress("?"))
		if !m.help.ShowAll {
			t.Error("expected full help after toggle")
		}
	})
}

func TestResultItem(t *testing.T) {
	ok := resultItem{result: trackResult(3, "Octopus's Garden", true)}
	if ok.FilterValue() != "Octopus's Garden" {
		t.Errorf("FilterValue = %q", ok.FilterValue())
	}
	if !strings.Contains(ok.Title(), "03. Octopus's Garden") {
		t.Errorf("Title = %q", ok.Title())
	}
	if !strings.Contains(ok.Description(), "/music/Octopus's Garden.m4a") {
		t.Errorf("Description = %q", ok.Description())
	}

	failed := resultItem{result: trackResult(4, "Polythene Pam", false)}
	if failed.Description() != string(models.StatusNoMatch) {
		t.Errorf("Description = %q", failed.Description())
	}
}

func TestWindowSize(t *testing.T) {
	m := NewModel(context.Background(), "Abbey Road", nil)
	m.Update(tea.WindowSizeMsg{Width: 200, Height: 50})
	if m.bar.Width != maxBarWidth {
		t.Errorf("bar width = %d, want %d", m.bar.Width, maxBarWidth)
	}

	m.Update(tea.WindowSizeMsg{Width: 30, Height: 20})
	if m.bar.Width != 26 {
		t.Errorf("bar width = %d, want 26", m.bar.Width)
	}
}
