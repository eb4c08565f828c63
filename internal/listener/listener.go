package listener

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"fleetfaults/internal/config"
	"fleetfaults/internal/pipeline"
	"fleetfaults/internal/storage"
	"fleetfaults/internal/workbook"
)

// Service watches an inbox directory and ingests every new workbook it finds.
// Files are identified by content hash, so a renamed copy is not ingested twice.
type Service struct {
	proc   *pipeline.ProcessingService
	db     *storage.DB
	cfg    config.Config
	logger *slog.Logger
}

func NewService(proc *pipeline.ProcessingService, db *storage.DB, cfg config.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{proc: proc, db: db, cfg: cfg, logger: logger.With("inbox", cfg.InboxDir)}
}

type CycleResult struct {
	Seen      int
	Processed int
	Failed    int
	Skipped   int
}

func (s *Service) Run(ctx context.Context) error {
	if err := s.cfg.Require("INBOX_DIR", s.cfg.InboxDir); err != nil {
		return err
	}
	for {
		if _, err := s.RunCycle(ctx); err != nil {
			s.logger.Error("watch cycle failed", "err", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.cfg.WatchInterval()):
		}
	}
}

func (s *Service) RunCycle(ctx context.Context) (CycleResult, error) {
	var res CycleResult
	paths, err := s.scan()
	if err != nil {
		return res, err
	}
	res.Seen = len(paths)

	var mu sync.Mutex
	count := func(f func()) {
		mu.Lock()
		f()
		mu.Unlock()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.cfg.WatchWorkers))
	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			known, err := s.seen(path)
			if err != nil {
				s.logger.Warn("inbox file unreadable", "file", path, "err", err)
				count(func() { res.Failed++ })
				return nil
			}
			if known {
				count(func() { res.Skipped++ })
				return nil
			}
			if err := s.ingest(path); err != nil {
				count(func() { res.Failed++ })
				return nil
			}
			count(func() { res.Processed++ })
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}

	if err := s.db.SetMetadata("last_scan_at", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return res, err
	}
	s.logger.Info("watch cycle done", "seen", res.Seen, "processed", res.Processed, "failed", res.Failed, "skipped", res.Skipped)
	return res, nil
}

// scan lists candidate workbooks in the inbox, oldest name first.
func (s *Service) scan() ([]string, error) {
	entries, err := os.ReadDir(s.cfg.InboxDir)
	if err != nil {
		return nil, fmt.Errorf("read inbox: %w", err)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
			continue
		}
		if !workbook.SupportedExt(name) {
			continue
		}
		out = append(out, filepath.Join(s.cfg.InboxDir, name))
	}
	sort.Strings(out)
	return out, nil
}

func (s *Service) seen(path string) (bool, error) {
	hash, err := pipeline.HashFile(path)
	if err != nil {
		return false, err
	}
	row, err := s.db.GetFileByHash(hash)
	if err != nil {
		return false, err
	}
	return row != nil && row.Status != storage.StatusPending, nil
}

func (s *Service) ingest(path string) error {
	res, err := s.proc.ProcessFile(path, "")
	if err != nil {
		return err
	}
	if !s.cfg.WatchAutoExport {
		return nil
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	out := filepath.Join(s.cfg.OutputDir, "watch", fmt.Sprintf("%s_%s.xlsx", sanitizeName(base), res.Report.RunID[:8]))
	if err := pipeline.ExportCollectionToXLSX(res.Collection, res.Report, out, res.Spec.OutputDateLayout()); err != nil {
		s.logger.Error("export failed", "file", path, "err", err)
		return err
	}
	s.logger.Info("exported", "file", path, "output", out, "records", res.Collection.Len())
	return nil
}

func sanitizeName(input string) string {
	repl := strings.NewReplacer("<", "_", ">", "_", ":", "_", "/", "_", "\\", "_", "|", "_", "?", "_", "*", "_", " ", "_")
	out := repl.Replace(input)
	if len(out) > 120 {
		out = out[:120]
	}
	return out
}
