package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "data", "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUpsertFileIsKeyedByHash(t *testing.T) {
	db := openTestDB(t)

	first, err := db.UpsertFile("/inbox/a.xlsx", "abc")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, first.Status)

	require.NoError(t, db.UpdateFileStatus(first.ID, "kardex", StatusProcessed, ""))

	again, err := db.UpsertFile("/inbox/renamed.xlsx", "abc")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "/inbox/renamed.xlsx", again.Path)
	assert.Equal(t, StatusProcessed, again.Status)
	assert.Equal(t, "kardex", again.FormatKey)
}

func TestGetFileByHashMissing(t *testing.T) {
	db := openTestDB(t)
	row, err := db.GetFileByHash("nope")
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestListFilesByStatus(t *testing.T) {
	db := openTestDB(t)

	a, err := db.UpsertFile("a.xlsx", "h1")
	require.NoError(t, err)
	_, err = db.UpsertFile("b.xlsx", "h2")
	require.NoError(t, err)
	require.NoError(t, db.UpdateFileStatus(a.ID, "", StatusFailed, "no format resolves"))

	failed, err := db.ListFilesByStatus(StatusFailed, 10)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "no format resolves", failed[0].Error)
	assert.Empty(t, failed[0].FormatKey)

	pending, err := db.ListFilesByStatus(StatusPending, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "b.xlsx", pending[0].Path)
}

func TestInsertAndListRuns(t *testing.T) {
	db := openTestDB(t)

	f, err := db.UpsertFile("a.xlsx", "h1")
	require.NoError(t, err)
	require.NoError(t, db.InsertRun("run-1", f.ID, "kardex",
		map[string]float64{"totalMs": 12},
		map[string]int{"total": 10, "accepted": 9, "rejected": 1},
		[]string{"20 ft (6yrs)"}))
	require.NoError(t, db.InsertRun("run-2", 0, "", map[string]float64{"totalMs": 1}, map[string]int{"total": 0}, nil))

	runs, err := db.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "run-2", runs[0].TraceID)
	assert.Zero(t, runs[0].FileID)
	assert.Empty(t, runs[0].Skipped)

	assert.Equal(t, "run-1", runs[1].TraceID)
	assert.Equal(t, f.ID, runs[1].FileID)
	assert.Equal(t, "kardex", runs[1].FormatKey)
	assert.Equal(t, 9, runs[1].Counts["accepted"])
	assert.Equal(t, []string{"20 ft (6yrs)"}, runs[1].Skipped)
	assert.NotEmpty(t, runs[1].CreatedAt)
}

func TestMetadata(t *testing.T) {
	db := openTestDB(t)

	v, err := db.GetMetadata("last_scan")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, db.SetMetadata("last_scan", "t1"))
	require.NoError(t, db.SetMetadata("last_scan", "t2"))
	v, err = db.GetMetadata("last_scan")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "t2", *v)
}
