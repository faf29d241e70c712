// Package models defines domain entities and persistence interfaces for songsaver.
//
// The package contains two categories of types:
//
// 1. Catalog values: immutable metadata read from the catalog service
//   - [CatalogTrack] : one song, with collection context (album, playlist or single)
//   - [CatalogAlbum] : an album with its ordered tracks
//   - [CatalogPlaylist] : a playlist with its ordered tracks
//   - [CandidateResult] : a search result from the media index
//   - [ScoreBreakdown] : itemized match score for one candidate
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [DownloadRecord] : one acquisition attempt and its outcome
//
// Persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
