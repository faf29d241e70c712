// Package tasks downloads catalog tracks, albums and playlists with real-time progress reporting.
//
// # Core Operations
//
//  1. [Pipeline.Acquire] : one track
//     - Asks the [Resolver] for the best scoring candidate
//     - Fetches audio to the deterministic library path
//     - Writes tags and cover art, then optional lyrics
//     - Removes partial output on any fetch or tagging failure
//
//  2. [Orchestrator.AcquireAll] : a whole album or playlist
//     - Runs [Acquirer] over the tracks with a bounded worker pool
//     - Reports progress in track order and isolates per-track failures
//     - Writes the sidecar, cover.jpg and M3U only when at least one track succeeded
//
// # Progress Reporting
//
// [ProgressFunc] is called before each track. [ChannelProgress] adapts a channel of
// [ProgressUpdate] values into one, and [BatchOptions.Updates] receives per-track and collection
// events. Sends block until read or until the context ends.
package tasks
