package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"fleetfaults/internal"
	"fleetfaults/internal/formats"
	"fleetfaults/internal/metrics"
	"fleetfaults/internal/storage"
)

// ProcessingService resolves, processes and records one file at a time. The
// ledger and metrics are optional.
type ProcessingService struct {
	registry *formats.Registry
	factory  *Factory
	db       *storage.DB
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

type ServiceOption func(*ProcessingService)

func WithLedger(db *storage.DB) ServiceOption {
	return func(s *ProcessingService) { s.db = db }
}

func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *ProcessingService) { s.metrics = m }
}

func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *ProcessingService) { s.logger = l }
}

func NewProcessingService(reg *formats.Registry, factory *Factory, opts ...ServiceOption) *ProcessingService {
	s := &ProcessingService{registry: reg, factory: factory, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

type ProcessResult struct {
	FileID     int
	Spec       *formats.FormatSpec
	Collection *internal.FaultCollection
	Report     *internal.ProcessingReport
}

// ProcessFile processes path with the named format, or the resolved one when
// formatKey is empty.
func (s *ProcessingService) ProcessFile(path, formatKey string) (ProcessResult, error) {
	log := s.logger.With("file", path)

	var file *internal.FileRow
	if s.db != nil {
		hash, err := HashFile(path)
		if err != nil {
			s.metrics.ObserveFailure(formatKey)
			return ProcessResult{}, &internal.WorkbookOpenError{Path: path, Err: err}
		}
		row, err := s.db.UpsertFile(path, hash)
		if err != nil {
			return ProcessResult{}, fmt.Errorf("ledger: %w", err)
		}
		file = &row
	}

	res, err := s.process(path, formatKey)
	if err != nil {
		log.Error("file failed", "format", formatKey, "err", err)
		s.metrics.ObserveFailure(formatKey)
		if file != nil {
			if lerr := s.db.UpdateFileStatus(file.ID, formatKey, storage.StatusFailed, err.Error()); lerr != nil {
				log.Warn("ledger update failed", "err", lerr)
			}
		}
		return ProcessResult{}, err
	}

	rep := res.Report
	log.Info("file processed",
		"run", rep.RunID,
		"format", rep.FormatKey,
		"rows", rep.TotalRows,
		"accepted", rep.AcceptedRows,
		"rejected", rep.RejectedRowCount,
		"skipped_sheets", len(rep.SkippedSheets),
		"elapsed", rep.ElapsedTime)
	s.metrics.ObserveRun(rep)

	if file != nil {
		res.FileID = file.ID
		if err := s.record(file.ID, rep); err != nil {
			return ProcessResult{}, fmt.Errorf("ledger: %w", err)
		}
	}
	return res, nil
}

func (s *ProcessingService) process(path, formatKey string) (ProcessResult, error) {
	var spec *formats.FormatSpec
	var err error
	if formatKey != "" {
		spec, err = s.registry.Get(formatKey)
	} else {
		spec, err = s.registry.Resolve(path)
	}
	if err != nil {
		return ProcessResult{}, err
	}

	p, err := s.factory.ForSpec(spec)
	if err != nil {
		return ProcessResult{}, err
	}
	coll, rep, err := Run(p, path)
	if err != nil {
		return ProcessResult{}, err
	}
	rep.RunID = uuid.NewString()
	return ProcessResult{Spec: spec, Collection: coll, Report: rep}, nil
}

func (s *ProcessingService) record(fileID int, rep *internal.ProcessingReport) error {
	if err := s.db.UpdateFileStatus(fileID, rep.FormatKey, storage.StatusProcessed, ""); err != nil {
		return err
	}
	counts := map[string]int{
		"total":    rep.TotalRows,
		"accepted": rep.AcceptedRows,
		"rejected": rep.RejectedRowCount,
		"sheets":   rep.TotalSheets,
		"issues":   len(rep.Issues),
	}
	timings := map[string]float64{"totalMs": float64(rep.ElapsedTime) / float64(time.Millisecond)}
	return s.db.InsertRun(rep.RunID, fileID, rep.FormatKey, timings, counts, rep.SkippedSheets)
}

// HashFile is the hex sha256 of the file contents.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
