package pipeline

import (
	"strings"

	"fleetfaults/internal"
	"fleetfaults/internal/formats"
)

// kardexProcessor reads dealer Kardex exports: one sheet per vehicle class
// named like "14 ft (6yrs)", with a title block above the header row.
type kardexProcessor struct {
	base
}

func newKardexProcessor(spec *formats.FormatSpec, deps Deps) Processor {
	return &kardexProcessor{base: newBase(spec, deps)}
}

func (p *kardexProcessor) Extract(path string) (*Extraction, error) {
	wb, err := openWorkbook(path)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	p.date1904 = wb.Date1904()
	ext := &Extraction{Path: path, Date1904: p.date1904}
	refs, missing := locateSheets(wb, p.spec.Sheets())
	for _, name := range missing {
		p.logger.Warn("sheet not found, skipping", "file", path, "sheet", name)
	}
	ext.Missing = missing

	for _, ref := range refs {
		rows, err := wb.Rows(ref.actual)
		if err != nil {
			p.logger.Warn("sheet unreadable, skipping", "file", path, "sheet", ref.name, "err", err)
			ext.Missing = append(ext.Missing, ref.name)
			continue
		}

		header := p.spec.HeaderRow()
		if header >= len(rows) || len(columnIndex(rows[header], p.spec)) == 0 {
			if alt := anchorRow(rows, p.spec.DetectAnchors(), p.spec.ScanRows()); alt >= 0 {
				p.logger.Warn("header row shifted", "file", path, "sheet", ref.name, "configured", header, "found", alt)
				header = alt
			}
		}
		sr := buildSheet(ref, rows, header, p.spec)
		p.logger.Debug("sheet extracted", "sheet", ref.name, "rows", len(sr.Rows), "columns", len(sr.Columns))
		ext.Sheets = append(ext.Sheets, sr)
	}
	return ext, nil
}

func (p *kardexProcessor) Transform(rows []ValidatedRow) ([]internal.FaultRecord, error) {
	return p.transform(rows, func(rec *internal.FaultRecord) {
		rec.VehicleType = VehicleType(rec.SourceSheet)
	})
}

// VehicleType is the sheet name up to its "(...)" suffix: "14 ft (6yrs)" -> "14 ft".
func VehicleType(sheet string) string {
	if i := strings.Index(sheet, " ("); i >= 0 {
		return strings.TrimSpace(sheet[:i])
	}
	if i := strings.Index(sheet, "("); i > 0 {
		return strings.TrimSpace(sheet[:i])
	}
	return strings.TrimSpace(sheet)
}
