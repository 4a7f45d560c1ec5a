package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jengzang/trackheat/internal/models"
)

const createLocationsTable = `
CREATE TABLE IF NOT EXISTS device_locations (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	latitude  REAL    NOT NULL,
	longitude REAL    NOT NULL,
	timestamp INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_device_locations_timestamp ON device_locations(timestamp);
`

// LocationRepository persists sampled device locations. Timestamps are stored
// as unix milliseconds.
type LocationRepository struct {
	db *sql.DB
}

// NewLocationRepository creates a new location repository
func NewLocationRepository(db *sql.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

// Init creates the table if it does not exist. Idempotent.
func (r *LocationRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createLocationsTable); err != nil {
		return fmt.Errorf("failed to create device_locations: %w", err)
	}
	return nil
}

// Insert stores a sample and returns its assigned ID. sample.ID is ignored.
func (r *LocationRepository) Insert(ctx context.Context, sample models.GeoSample) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO device_locations (latitude, longitude, timestamp) VALUES (?, ?, ?)",
		sample.Latitude, sample.Longitude, sample.Timestamp.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to insert location: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted id: %w", err)
	}
	return id, nil
}

// SelectAll returns every sample ordered by timestamp, then id.
func (r *LocationRepository) SelectAll(ctx context.Context) ([]models.GeoSample, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, latitude, longitude, timestamp FROM device_locations ORDER BY timestamp, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer rows.Close()

	samples := []models.GeoSample{}
	for rows.Next() {
		var s models.GeoSample
		var ms int64
		if err := rows.Scan(&s.ID, &s.Latitude, &s.Longitude, &ms); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		s.Timestamp = time.UnixMilli(ms).UTC()
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate locations: %w", err)
	}
	return samples, nil
}

// Count returns the number of stored samples
func (r *LocationRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM device_locations").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count locations: %w", err)
	}
	return n, nil
}

// DeleteAll removes every sample. IDs are not reused afterwards.
func (r *LocationRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM device_locations"); err != nil {
		return fmt.Errorf("failed to delete locations: %w", err)
	}
	return nil
}
