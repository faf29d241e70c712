package models

import (
	"errors"
	"time"
)

// DownloadRecord is one acquisition attempt stored in the download history.
type DownloadRecord struct {
	id         string
	sequence   int
	collection string
	source     SourceKind
	uri        string
	title      string
	artist     string
	path       string
	status     OutcomeStatus
	reason     string
	lyrics     bool
	createdAt  time.Time
	updatedAt  time.Time
	deletedAt  *time.Time
}

// NewDownloadRecord builds a record from an acquisition outcome.
func NewDownloadRecord(collection string, track CatalogTrack, outcome AcquisitionOutcome) *DownloadRecord {
	now := time.Now()
	r := &DownloadRecord{
		collection: collection,
		source:     track.Source,
		uri:        track.URI,
		title:      track.Title,
		artist:     track.PrimaryArtist(),
		path:       outcome.Path,
		status:     outcome.Status,
		createdAt:  now,
		updatedAt:  now,
	}
	if r.status == "" {
		r.status = StatusFailed
		if outcome.OK {
			r.status = StatusOK
		}
	}
	if outcome.Track != nil {
		r.lyrics = outcome.Track.Lyrics
	}
	if outcome.Err != nil {
		r.reason = outcome.Err.Error()
	}
	return r
}

// RestoreDownloadRecord rebuilds a record from stored columns.
func RestoreDownloadRecord(
	id string, sequence int, collection string, source SourceKind, uri, title, artist, path string,
	status OutcomeStatus, reason string, lyrics bool, createdAt, updatedAt time.Time, deletedAt *time.Time,
) *DownloadRecord {
	return &DownloadRecord{
		id: id, sequence: sequence, collection: collection, source: source, uri: uri,
		title: title, artist: artist, path: path, status: status, reason: reason, lyrics: lyrics,
		createdAt: createdAt, updatedAt: updatedAt, deletedAt: deletedAt,
	}
}

func (r *DownloadRecord) ID() string                 { return r.id }
func (r *DownloadRecord) Sequence() int              { return r.sequence }
func (r *DownloadRecord) Collection() string         { return r.collection }
func (r *DownloadRecord) Source() SourceKind         { return r.source }
func (r *DownloadRecord) URI() string                { return r.uri }
func (r *DownloadRecord) Title() string              { return r.title }
func (r *DownloadRecord) Artist() string             { return r.artist }
func (r *DownloadRecord) Path() string               { return r.path }
func (r *DownloadRecord) Status() OutcomeStatus      { return r.status }
func (r *DownloadRecord) Reason() string             { return r.reason }
func (r *DownloadRecord) Lyrics() bool               { return r.lyrics }
func (r *DownloadRecord) CreatedAt() time.Time       { return r.createdAt }
func (r *DownloadRecord) UpdatedAt() time.Time       { return r.updatedAt }
func (r *DownloadRecord) DeletedAt() *time.Time      { return r.deletedAt }
func (r *DownloadRecord) SetID(id string)            { r.id = id }
func (r *DownloadRecord) SetSequence(seq int)        { r.sequence = seq }
func (r *DownloadRecord) SetUpdatedAt(t time.Time)   { r.updatedAt = t }
func (r *DownloadRecord) SetStatus(s OutcomeStatus)  { r.status = s }

// Validate requires a title and a known status.
func (r *DownloadRecord) Validate() error {
	if r.title == "" {
		return errors.New("title is required")
	}
	switch r.status {
	case StatusOK, StatusNoMatch, StatusFailed:
	default:
		return errors.New("status must be ok, no_match or failed")
	}
	if r.status == StatusOK && r.path == "" {
		return errors.New("path is required for successful downloads")
	}
	return nil
}
