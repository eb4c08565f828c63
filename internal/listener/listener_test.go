package listener

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetfaults/internal/config"
	"fleetfaults/internal/fixture"
	"fleetfaults/internal/formats"
	"fleetfaults/internal/pipeline"
	"fleetfaults/internal/storage"
)

func newWatcher(t *testing.T, autoExport bool) (*Service, config.Config, *storage.DB) {
	t.Helper()
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	root := t.TempDir()
	cfg := config.Config{
		DBPath:           filepath.Join(root, "ledger.db"),
		OutputDir:        filepath.Join(root, "out"),
		InboxDir:         filepath.Join(root, "inbox"),
		WatchIntervalSec: 1,
		WatchWorkers:     2,
		WatchAutoExport:  autoExport,
	}
	require.NoError(t, os.MkdirAll(cfg.InboxDir, 0o755))

	reg, err := formats.LoadDefault(formats.WithLogger(quiet))
	require.NoError(t, err)
	db, err := storage.Open(cfg.DBPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	proc := pipeline.NewProcessingService(reg, pipeline.NewFactory(reg, pipeline.WithProcessorLogger(quiet)),
		pipeline.WithLedger(db), pipeline.WithLogger(quiet))
	return NewService(proc, db, cfg, quiet), cfg, db
}

func kardexRows() [][]any {
	return [][]any{
		fixture.KardexRow("WO-1", "2024-01-05", "Brake noise", "Replaced brake pad"),
		fixture.KardexRow("WO-2", "2024-01-06", "Battery flat", "Replaced battery"),
	}
}

func TestRunCycleIngestsOnce(t *testing.T) {
	svc, cfg, db := newWatcher(t, true)

	kardex := fixture.WriteXLSX(t, cfg.InboxDir, "kardex_jan.xlsx", fixture.KardexSheet("14 ft (6yrs)", kardexRows()...))
	fixture.WriteXLSX(t, cfg.InboxDir, "stock.xlsx", fixture.Sheet{Name: "Sheet1", Rows: [][]any{{"Part", "Qty"}, {"filter", 2}}})
	fixture.WriteFile(t, cfg.InboxDir, "readme.txt", []byte("drop workbooks here"))
	fixture.WriteFile(t, cfg.InboxDir, "~$kardex_jan.xlsx", []byte("lock"))

	res, err := svc.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, CycleResult{Seen: 2, Processed: 1, Failed: 1}, res)

	exports, err := filepath.Glob(filepath.Join(cfg.OutputDir, "watch", "kardex_jan_*.xlsx"))
	require.NoError(t, err)
	assert.Len(t, exports, 1)

	blob, err := os.ReadFile(kardex)
	require.NoError(t, err)
	fixture.WriteFile(t, cfg.InboxDir, "kardex_jan_copy.xlsx", blob)

	res, err = svc.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, CycleResult{Seen: 3, Skipped: 3}, res)

	runs, err := db.ListRuns(10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	last, err := db.GetMetadata("last_scan_at")
	require.NoError(t, err)
	assert.NotNil(t, last)
}

func TestRunCycleWithoutExport(t *testing.T) {
	svc, cfg, _ := newWatcher(t, false)
	fixture.WriteXLSX(t, cfg.InboxDir, "kardex_feb.xlsx", fixture.KardexSheet("24 ft (6yrs)", kardexRows()...))

	res, err := svc.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	_, err = os.Stat(filepath.Join(cfg.OutputDir, "watch"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunCycleSurvivesVanishedFile(t *testing.T) {
	svc, cfg, db := newWatcher(t, false)
	fixture.WriteXLSX(t, cfg.InboxDir, "kardex_mar.xlsx", fixture.KardexSheet("14 ft (6yrs)", kardexRows()...))
	require.NoError(t, os.Symlink(filepath.Join(cfg.InboxDir, "moved-away.xlsx"), filepath.Join(cfg.InboxDir, "kardex_old.xlsx")))

	res, err := svc.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, CycleResult{Seen: 2, Processed: 1, Failed: 1}, res)

	last, err := db.GetMetadata("last_scan_at")
	require.NoError(t, err)
	assert.NotNil(t, last)
}

func TestRunCycleMissingInbox(t *testing.T) {
	svc, cfg, _ := newWatcher(t, false)
	require.NoError(t, os.RemoveAll(cfg.InboxDir))

	_, err := svc.RunCycle(context.Background())
	assert.Error(t, err)
}

func TestRunStopsOnCancel(t *testing.T) {
	svc, _, _ := newWatcher(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "Q3_export_a_b", sanitizeName("Q3 export a/b"))
}
