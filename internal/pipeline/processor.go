package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"fleetfaults/internal"
	"fleetfaults/internal/formats"
)

// Processor turns one workbook into fault records. A Processor is created per
// file and is not safe for concurrent use.
type Processor interface {
	Spec() *formats.FormatSpec
	Extract(path string) (*Extraction, error)
	Validate(rows []internal.RawRow) ValidationReport
	Transform(rows []ValidatedRow) ([]internal.FaultRecord, error)
}

type SheetRows struct {
	Name      string
	Actual    string
	HeaderRow int
	Columns   []string
	Rows      []internal.RawRow
}

type Extraction struct {
	Path     string
	Sheets   []SheetRows
	Missing  []string
	Date1904 bool
}

func (e *Extraction) Rows() []internal.RawRow {
	var out []internal.RawRow
	for _, s := range e.Sheets {
		out = append(out, s.Rows...)
	}
	return out
}

type ValidatedRow struct {
	Row    internal.RawRow
	Values map[string]any
}

type ValidationReport struct {
	Accepted []ValidatedRow
	Rejected int
	Issues   []internal.Issue
}

// base carries the validate and transform stages shared by every family.
type base struct {
	spec     *formats.FormatSpec
	engine   *ValidationEngine
	logger   *slog.Logger
	date1904 bool
}

func newBase(spec *formats.FormatSpec, deps Deps) base {
	engine := deps.Engine
	if engine == nil {
		engine = NewValidationEngine(deps.Logger)
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return base{spec: spec, engine: engine, logger: logger.With("format", spec.Key())}
}

func (b *base) Spec() *formats.FormatSpec { return b.spec }

func (b *base) Validate(rows []internal.RawRow) ValidationReport {
	var rep ValidationReport
	for _, row := range rows {
		res := b.engine.check(row, b.spec, b.date1904)
		rep.Issues = append(rep.Issues, res.Issues...)
		if !res.OK {
			rep.Rejected++
			b.logger.Debug("row rejected", "sheet", row.Sheet, "row", row.Row, "issues", len(res.Issues))
			continue
		}
		rep.Accepted = append(rep.Accepted, ValidatedRow{Row: row, Values: res.Values})
	}
	return rep
}

func (b *base) transform(rows []ValidatedRow, decorate func(*internal.FaultRecord)) ([]internal.FaultRecord, error) {
	pipe := b.spec.Pipeline()
	columns := b.spec.Columns()

	out := make([]internal.FaultRecord, 0, len(rows))
	for _, vr := range rows {
		rec := internal.FaultRecord{
			SourceSheet:  vr.Row.Sheet,
			SourceFormat: b.spec.Key(),
			SourceRow:    vr.Row.Row,
		}
		for _, col := range columns {
			internal.SetField(&rec, col.Key, vr.Values[col.Key])
		}
		if decorate != nil {
			decorate(&rec)
		}

		rec = pipe.Apply(rec)
		if rec.Severity == "" {
			rec.Severity = internal.SeverityMedium
		}
		if rec.Component == "" {
			rec.Component = b.spec.DefaultComponent()
		}
		if rec.WorkOrder == "" || rec.OpenDate.IsZero() {
			return nil, fmt.Errorf("%s row %d: record without work order or open date", vr.Row.Sheet, vr.Row.Row)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Run extracts, validates and transforms one file.
func Run(p Processor, path string) (*internal.FaultCollection, *internal.ProcessingReport, error) {
	start := time.Now()
	spec := p.Spec()

	ext, err := p.Extract(path)
	if err != nil {
		return nil, nil, err
	}
	rows := ext.Rows()
	validated := p.Validate(rows)
	records, err := p.Transform(validated.Accepted)
	if err != nil {
		return nil, nil, err
	}
	elapsed := time.Since(start)

	coll := internal.NewFaultCollection(records, internal.CollectionMeta{
		SourceFile:  path,
		FormatKey:   spec.Key(),
		TotalRows:   len(rows),
		TotalSheets: len(ext.Sheets),
		ProcessedAt: start.UTC(),
		Elapsed:     elapsed,
	})

	counts := coll.SheetCounts()
	perSheet := make(map[string]int, len(ext.Sheets))
	for _, s := range ext.Sheets {
		perSheet[s.Name] = counts[s.Name]
	}

	report := &internal.ProcessingReport{
		SourceFile:       path,
		FormatKey:        spec.Key(),
		TotalRows:        len(rows),
		AcceptedRows:     coll.Len(),
		TotalSheets:      len(ext.Sheets),
		PerSheetCounts:   perSheet,
		RejectedRowCount: validated.Rejected,
		SkippedSheets:    ext.Missing,
		Issues:           validated.Issues,
		ProcessedAt:      start.UTC(),
		ElapsedTime:      elapsed,
	}
	return coll, report, nil
}
