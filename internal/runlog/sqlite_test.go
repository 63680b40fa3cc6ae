package runlog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteRecorder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runlog.db")
	rec, err := NewSQLiteRecorder(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rec.Close() })

	ctx := context.Background()
	base := time.Date(2024, 6, 10, 19, 0, 0, 0, time.UTC)

	entries := []Entry{
		{Job: "data_collection", StartedAt: base, FinishedAt: base.Add(20 * time.Second), Success: true, Attempts: 1},
		{Job: "forecast_pipeline", StartedAt: base.Add(time.Minute), FinishedAt: base.Add(3 * time.Minute), Success: true, Attempts: 1, Summary: `{"processed":10}`},
		{Job: "data_collection", StartedAt: base.Add(time.Hour), FinishedAt: base.Add(time.Hour + time.Second), Success: false, Attempts: 4, Error: "all 10 tickers failed"},
	}
	for _, e := range entries {
		require.NoError(t, rec.Record(ctx, e))
	}

	all, err := rec.Recent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "data_collection", all[0].Job, "newest first")
	assert.False(t, all[0].Success)
	assert.Equal(t, 4, all[0].Attempts)
	assert.Equal(t, "all 10 tickers failed", all[0].Error)

	forecasts, err := rec.Recent(ctx, "forecast_pipeline", 10)
	require.NoError(t, err)
	require.Len(t, forecasts, 1)
	assert.Equal(t, `{"processed":10}`, forecasts[0].Summary)
	assert.Equal(t, 2*time.Minute, forecasts[0].Duration())
	assert.True(t, forecasts[0].StartedAt.Equal(base.Add(time.Minute)))

	limited, err := rec.Recent(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteRecorder_ReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runlog.db")
	ctx := context.Background()

	rec, err := NewSQLiteRecorder(path)
	require.NoError(t, err)
	require.NoError(t, rec.Record(ctx, Entry{Job: "forecast_pipeline", StartedAt: time.Now(), FinishedAt: time.Now(), Success: true, Attempts: 1}))
	require.NoError(t, rec.Close())

	rec, err = NewSQLiteRecorder(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rec.Close() })

	got, err := rec.Recent(ctx, "forecast_pipeline", 5)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestOpen(t *testing.T) {
	rec, err := Open("")
	require.NoError(t, err)
	assert.IsType(t, &NoopRecorder{}, rec)
	assert.NoError(t, rec.Record(context.Background(), Entry{Job: "x"}))
	got, err := rec.Recent(context.Background(), "", 5)
	assert.NoError(t, err)
	assert.Empty(t, got)

	rec, err = Open(filepath.Join(t.TempDir(), "r.db"))
	require.NoError(t, err)
	defer rec.Close()
	assert.IsType(t, &SQLiteRecorder{}, rec)
}
