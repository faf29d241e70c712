package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/songsaver/internal/models"
)

// ProgressUpdate represents a progress event during a batch download.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// TrackResult is the Data payload of [PhaseTrackDone] and [PhaseTrackFailed] updates.
type TrackResult struct {
	Index   int
	Track   models.CatalogTrack
	Outcome models.AcquisitionOutcome
}

// BatchSummary is the Data payload of [PhaseComplete] updates.
type BatchSummary struct {
	Collection string
	Success    int
	Total      int
}

// Operation phase enumeration
type Phase int

const (
	PhaseFetchCatalog Phase = iota
	PhaseAcquire
	PhaseTrackDone
	PhaseTrackFailed
	PhaseSidecar
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseFetchCatalog:
		return "fetch_catalog"
	case PhaseAcquire:
		return "acquire"
	case PhaseTrackDone:
		return "track_done"
	case PhaseTrackFailed:
		return "track_failed"
	case PhaseSidecar:
		return "sidecar"
	case PhaseComplete:
		return "complete"
	default:
		return ""
	}
}

// ProgressFunc is invoked once per track, in index order, before the track is acquired.
type ProgressFunc func(index, total int, name string)

// ChannelProgress adapts ch into a [ProgressFunc] emitting [PhaseAcquire] updates.
//
// Sends block until the reader takes them or ctx ends, so no update is dropped while ctx is live.
func ChannelProgress(ctx context.Context, ch chan<- ProgressUpdate) ProgressFunc {
	return func(index, total int, name string) {
		send(ctx, ch, acquireUpdate(index, total, name))
	}
}

func send(ctx context.Context, ch chan<- ProgressUpdate, u ProgressUpdate) {
	if ch == nil {
		return
	}
	select {
	case ch <- u:
	case <-ctx.Done():
	}
}

// FetchCatalogUpdate announces a catalog lookup for ref.
func FetchCatalogUpdate(ref string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseFetchCatalog,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Fetching %s from the catalog...", ref),
	}
}

func acquireUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseAcquire,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, name),
	}
}

func trackUpdate(step, total int, r TrackResult) ProgressUpdate {
	if r.Outcome.OK {
		return ProgressUpdate{
			Phase:   PhaseTrackDone,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, r.Track.Title),
			Data:    r,
		}
	}
	reason := string(r.Outcome.Status)
	if r.Outcome.Err != nil {
		reason = r.Outcome.Err.Error()
	}
	return ProgressUpdate{
		Phase:   PhaseTrackFailed,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %s", step, total, r.Track.Title, reason),
		Data:    r,
	}
}

func sidecarUpdate(name, dir string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseSidecar,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing collection files for %s to %s", name, dir),
	}
}

func completeUpdate(name string, success, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseComplete,
		Step:    success,
		Total:   total,
		Message: fmt.Sprintf("Downloaded %d/%d from %s", success, total, name),
		Data:    BatchSummary{Collection: name, Success: success, Total: total},
	}
}
