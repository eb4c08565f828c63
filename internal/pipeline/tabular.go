package pipeline

import (
	"fleetfaults/internal"
	"fleetfaults/internal/formats"
)

// tabularProcessor reads flat exports with a fixed header row. Without
// configured sheets it reads every sheet in the workbook.
type tabularProcessor struct {
	base
}

func newTabularProcessor(spec *formats.FormatSpec, deps Deps) Processor {
	return &tabularProcessor{base: newBase(spec, deps)}
}

func (p *tabularProcessor) Extract(path string) (*Extraction, error) {
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
		sr := buildSheet(ref, rows, p.spec.HeaderRow(), p.spec)
		if len(sr.Columns) == 0 {
			p.logger.Debug("sheet has no known columns", "sheet", ref.name)
			continue
		}
		ext.Sheets = append(ext.Sheets, sr)
	}
	return ext, nil
}

func (p *tabularProcessor) Transform(rows []ValidatedRow) ([]internal.FaultRecord, error) {
	return p.transform(rows, nil)
}
