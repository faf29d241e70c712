package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/songsaver/internal/models"
	"github.com/desertthunder/songsaver/internal/shared"
)

const downloadColumns = `id, sequence, collection, source, uri, title, artist, path, status, reason, lyrics, created_at, updated_at, deleted_at`

// DownloadRepository implements models.Repository[*models.DownloadRecord] for the download history.
//
// Records are soft deleted and listed newest first.
type DownloadRepository struct {
	db *sql.DB
}

// NewDownloadRepository creates a new DownloadRepository with the given database connection
func NewDownloadRepository(db *sql.DB) *DownloadRepository {
	return &DownloadRepository{db: db}
}

// Create inserts a new [models.DownloadRecord] into the database with generated ID and sequence
func (r *DownloadRepository) Create(record *models.DownloadRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "downloads")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	record.SetID(id)
	record.SetSequence(sequence)

	query := `
		INSERT INTO downloads (id, sequence, collection, source, uri, title, artist, path, status, reason, lyrics, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		record.Collection(),
		string(record.Source()),
		record.URI(),
		record.Title(),
		record.Artist(),
		record.Path(),
		string(record.Status()),
		record.Reason(),
		record.Lyrics(),
		record.CreatedAt(),
		record.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert download: %w", err)
	}

	return nil
}

// Get retrieves a download by ID, excluding soft-deleted rows
func (r *DownloadRepository) Get(id string) (*models.DownloadRecord, error) {
	query := `SELECT ` + downloadColumns + ` FROM downloads WHERE id = ? AND deleted_at IS NULL`

	record, err := scanDownload(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: download %s", shared.ErrNotFound, id)
	}
	return record, err
}

// Update stores the status and updated_at of an existing download
func (r *DownloadRepository) Update(record *models.DownloadRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	record.SetUpdatedAt(now)

	query := `
		UPDATE downloads
		SET path = ?, status = ?, reason = ?, lyrics = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		record.Path(),
		string(record.Status()),
		record.Reason(),
		record.Lyrics(),
		now,
		record.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update download: %w", err)
	}

	return requireAffected(result, record.ID())
}

// Delete soft-deletes a download by ID
func (r *DownloadRepository) Delete(id string) error {
	query := `
		UPDATE downloads
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete download: %w", err)
	}

	return requireAffected(result, id)
}

// DeleteAll soft-deletes every live download and returns how many were affected
func (r *DownloadRepository) DeleteAll() (int, error) {
	result, err := r.db.Exec(`UPDATE downloads SET deleted_at = ? WHERE deleted_at IS NULL`, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to clear downloads: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return int(rows), nil
}

// List retrieves downloads newest first, excluding soft-deleted rows.
//
// Supported criteria: "status" (string), "collection" (string), "uri" (string) and "limit" (int).
func (r *DownloadRepository) List(criteria map[string]any) ([]*models.DownloadRecord, error) {
	query := `SELECT ` + downloadColumns + ` FROM downloads WHERE deleted_at IS NULL`

	args := []any{}

	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	if collection, ok := criteria["collection"].(string); ok && collection != "" {
		query += " AND collection = ?"
		args = append(args, collection)
	}

	if uri, ok := criteria["uri"].(string); ok && uri != "" {
		query += " AND uri = ?"
		args = append(args, uri)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query downloads: %w", err)
	}
	defer rows.Close()

	var records []*models.DownloadRecord
	for rows.Next() {
		record, err := scanDownload(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan download: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanDownload scans a [sql.Row] or the current row of [sql.Rows] into a [models.DownloadRecord]
func scanDownload(s scanner) (*models.DownloadRecord, error) {
	var (
		id         string
		sequence   int
		collection string
		source     string
		uri        string
		title      string
		artist     string
		path       string
		status     string
		reason     string
		lyrics     bool
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
	)

	err := s.Scan(&id, &sequence, &collection, &source, &uri, &title, &artist, &path, &status, &reason, &lyrics, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	var deleted *time.Time
	if deletedAt.Valid {
		deleted = &deletedAt.Time
	}

	return models.RestoreDownloadRecord(
		id, sequence, collection, models.SourceKind(source), uri, title, artist, path,
		models.OutcomeStatus(status), reason, lyrics, createdAt, updatedAt, deleted,
	), nil
}

func requireAffected(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: download %s not found or already deleted", shared.ErrNotFound, id)
	}
	return nil
}

// HistoryAdapter implements tasks.HistoryRecorder using DownloadRepository.
//
// Writes are serialized so the sequence and insert of one record never interleave with another.
type HistoryAdapter struct {
	repo *DownloadRepository
	mu   sync.Mutex
}

// NewHistoryAdapter creates a new HistoryAdapter with the given repository
func NewHistoryAdapter(repo *DownloadRepository) *HistoryAdapter {
	return &HistoryAdapter{repo: repo}
}

// Record stores one acquisition outcome.
func (a *HistoryAdapter) Record(ctx context.Context, collection string, track models.CatalogTrack, outcome models.AcquisitionOutcome) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.repo.Create(models.NewDownloadRecord(collection, track, outcome)); err != nil {
		return fmt.Errorf("failed to record download: %w", err)
	}
	return nil
}
