package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/trackheat/internal/database"
	"github.com/jengzang/trackheat/internal/models"
)

func setupTestRepo(t *testing.T) *LocationRepository {
	t.Helper()
	db, err := database.Open(context.Background(), database.Config{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewLocationRepository(db)
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func TestLocationRepository_InitIdempotent(t *testing.T) {
	repo := setupTestRepo(t)
	assert.NoError(t, repo.Init(context.Background()))
}

func TestLocationRepository_InsertAndSelectOrdered(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)

	id1, err := repo.Insert(ctx, models.GeoSample{Latitude: 1, Longitude: 1, Timestamp: base.Add(time.Minute)})
	require.NoError(t, err)
	id2, err := repo.Insert(ctx, models.GeoSample{Latitude: 2, Longitude: 2, Timestamp: base})
	require.NoError(t, err)
	id3, err := repo.Insert(ctx, models.GeoSample{Latitude: 3, Longitude: 3, Timestamp: base})
	require.NoError(t, err)
	assert.Less(t, id1, id2)
	assert.Less(t, id2, id3)

	all, err := repo.SelectAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{id2, id3, id1}, []int64{all[0].ID, all[1].ID, all[2].ID})
	assert.Equal(t, base, all[0].Timestamp)
	assert.Equal(t, time.UTC, all[0].Timestamp.Location())
	assert.Equal(t, 2.0, all[0].Latitude)
}

func TestLocationRepository_TimestampMillisecondPrecision(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	ts := time.Date(2024, 5, 6, 12, 0, 0, 123_456_789, time.UTC)

	_, err := repo.Insert(ctx, models.GeoSample{Latitude: 0, Longitude: 0, Timestamp: ts})
	require.NoError(t, err)

	all, err := repo.SelectAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, ts.Truncate(time.Millisecond), all[0].Timestamp)
}

func TestLocationRepository_CountAndDeleteAll(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	var lastID int64
	for i := 0; i < 5; i++ {
		lastID, err = repo.Insert(ctx, models.GeoSample{Latitude: float64(i), Timestamp: time.Now()})
		require.NoError(t, err)
	}
	n, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)

	require.NoError(t, repo.DeleteAll(ctx))
	n, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	all, err := repo.SelectAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)

	// AUTOINCREMENT never reuses ids
	id, err := repo.Insert(ctx, models.GeoSample{Timestamp: time.Now()})
	require.NoError(t, err)
	assert.Greater(t, id, lastID)
}
