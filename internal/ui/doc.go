// Package ui implements the download progress screen using bubbletea's Elm architecture.
//
// A run moves through three views:
//  1. [FetchView] : spinner while the catalog entry is looked up
//  2. [DownloadView] : progress bar plus the most recent track results
//  3. [ResultView] : summary line and a scrollable list of every track outcome
//
// The (view) [Model] implements the standard Init/Update/View pattern. The download itself runs in
// a goroutine started by Init and reports through a [tasks.ProgressUpdate] channel, which the model
// drains one message at a time.
//
// Pressing q while a download runs cancels it; the model keeps draining updates until the run returns.
package ui
