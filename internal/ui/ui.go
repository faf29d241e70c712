package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/songsaver/internal/tasks"
)

const (
	maxBarWidth   = 60
	recentResults = 5
	updateBuffer  = 50
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	FetchView ViewState = iota
	DownloadView
	ResultView
)

// RunFunc performs a download, reporting progress on updates. It must not close updates.
type RunFunc func(ctx context.Context, updates chan<- tasks.ProgressUpdate) error

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	cancel     context.CancelFunc
	title      string
	run        RunFunc
	view       ViewState
	width      int
	height     int
	updates    chan tasks.ProgressUpdate
	runErr     chan error
	current    tasks.ProgressUpdate
	results    []tasks.TrackResult
	succeeded  int
	failed     int
	summary    *tasks.BatchSummary
	err        error
	cancelling bool
	spinner    spinner.Model
	bar        progress.Model
	resultList list.Model
	help       help.Model
	keys       keyMap
}

// NewModel creates a new TUI model that executes run once started.
func NewModel(ctx context.Context, title string, run RunFunc) *Model {
	ctx, cancel := context.WithCancel(ctx)
	return &Model{
		ctx:     ctx,
		cancel:  cancel,
		title:   title,
		run:     run,
		view:    FetchView,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(NewStyle(styles.accent))),
		bar:     progress.New(progress.WithGradient(styles.accent, styles.done), progress.WithWidth(40)),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init starts the download and the spinner.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.start())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = min(max(msg.Width-4, 10), maxBarWidth)
		if m.view == ResultView {
			m.resultList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		switch msg.kind {
		case MsgProgressUpdate:
			cmd := m.applyUpdate(msg.data.(tasks.ProgressUpdate))
			return m, tea.Batch(cmd, m.waitForProgress())
		case MsgRunComplete:
			if err, ok := msg.data.(error); ok {
				m.err = err
			}
			m.showResults()
			if m.cancelling {
				return m, tea.Quit
			}
			return m, nil
		}

	case spinner.TickMsg:
		if m.view == ResultView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	}

	if m.view == ResultView {
		var cmd tea.Cmd
		m.resultList, cmd = m.resultList.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case FetchView:
		return m.renderFetch()
	case DownloadView:
		return m.renderDownload()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

// Err returns the error the run finished with, if any.
func (m *Model) Err() error {
	return m.err
}

// Summary returns the final counts once the run has reported completion.
func (m *Model) Summary() (tasks.BatchSummary, bool) {
	if m.summary == nil {
		return tasks.BatchSummary{}, false
	}
	return *m.summary, true
}

// Results returns every track outcome received so far, in arrival order.
func (m *Model) Results() []tasks.TrackResult {
	return m.results
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		if m.view == ResultView {
			return m, tea.Quit
		}
		if m.cancelling {
			return m, tea.Quit
		}
		m.cancelling = true
		m.cancel()
		return m, nil
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	if m.view == ResultView {
		var cmd tea.Cmd
		m.resultList, cmd = m.resultList.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) applyUpdate(u tasks.ProgressUpdate) tea.Cmd {
	m.current = u

	switch u.Phase {
	case tasks.PhaseFetchCatalog:
		m.view = FetchView
	case tasks.PhaseAcquire, tasks.PhaseSidecar:
		m.view = DownloadView
	case tasks.PhaseTrackDone, tasks.PhaseTrackFailed:
		m.view = DownloadView
		if r, ok := u.Data.(tasks.TrackResult); ok {
			m.results = append(m.results, r)
		}
		if u.Phase == tasks.PhaseTrackDone {
			m.succeeded++
		} else {
			m.failed++
		}
		if u.Total > 0 {
			return m.bar.SetPercent(float64(m.succeeded+m.failed) / float64(u.Total))
		}
	case tasks.PhaseComplete:
		if s, ok := u.Data.(tasks.BatchSummary); ok {
			m.summary = &s
		}
	}
	return nil
}

func (m *Model) showResults() {
	m.view = ResultView
	m.resultList = list.New(resultItems(m.results), list.NewDefaultDelegate(), max(m.width-4, 0), max(m.height-8, 0))
	m.resultList.Title = m.title
}

// start launches the run in its own goroutine. The updates channel is closed once run returns.
func (m *Model) start() tea.Cmd {
	m.updates = make(chan tasks.ProgressUpdate, updateBuffer)
	m.runErr = make(chan error, 1)

	go func(updates chan tasks.ProgressUpdate, errc chan<- error) {
		defer close(updates)
		if m.run == nil {
			errc <- nil
			return
		}
		errc <- m.run(m.ctx, updates)
	}(m.updates, m.runErr)

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	updates, errc := m.updates, m.runErr
	return func() tea.Msg {
		if updates == nil {
			return runCompleteMsg(nil)
		}

		update, ok := <-updates
		if !ok {
			return runCompleteMsg(<-errc)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderFetch() string {
	title := styles.title.Render(m.title)
	msg := m.current.Message
	if msg == "" {
		msg = "Starting..."
	}
	return fmt.Sprintf("%s\n%s %s\n\n%s", title, m.spinner.View(), msg, m.help.View(m.keys))
}

func (m *Model) renderDownload() string {
	var b strings.Builder

	b.WriteString(styles.title.Render(m.title))
	b.WriteString("\n")
	b.WriteString(m.bar.View())
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s %s\n", m.spinner.View(), m.current.Message))
	b.WriteString(styles.dim.Render(fmt.Sprintf("%d downloaded, %d failed", m.succeeded, m.failed)))
	b.WriteString("\n\n")

	for _, r := range m.recent() {
		if r.Outcome.OK {
			b.WriteString(styles.ok.Render("✓ "))
			b.WriteString(r.Track.Title)
		} else {
			b.WriteString(styles.err.Render("✗ "))
			b.WriteString(styles.warn.Render(fmt.Sprintf("%s (%s)", r.Track.Title, r.Outcome.Status)))
		}
		b.WriteString("\n")
	}

	if m.cancelling {
		b.WriteString("\n")
		b.WriteString(styles.warn.Render("Cancelling, waiting for running downloads..."))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderResult() string {
	var header string
	switch {
	case m.err != nil:
		header = styles.err.Render(fmt.Sprintf("Download failed: %v", m.err))
	case m.summary == nil:
		header = styles.warn.Render("Download finished without a summary")
	case m.summary.Success == 0:
		header = styles.err.Render(fmt.Sprintf("✗ Downloaded %d/%d", m.summary.Success, m.summary.Total))
	default:
		header = styles.ok.Render(fmt.Sprintf("✓ Downloaded %d/%d", m.summary.Success, m.summary.Total))
	}

	if len(m.results) == 0 {
		return fmt.Sprintf("%s\n\n%s", header, m.help.View(m.keys))
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s", header, m.resultList.View(), m.help.View(m.keys))
}

func (m *Model) recent() []tasks.TrackResult {
	if len(m.results) <= recentResults {
		return m.results
	}
	return m.results[len(m.results)-recentResults:]
}
