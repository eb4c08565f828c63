package formats

import (
	"fleetfaults/internal"
	"fleetfaults/internal/util"
	"fleetfaults/internal/workbook"
)

const sheetBonus = 0.25

func (r *Registry) detect(path string) (*FormatSpec, error) {
	wb, err := workbook.Open(path)
	if err != nil {
		return nil, &internal.UnknownFormatError{Path: path, Err: &internal.WorkbookOpenError{Path: path, Err: err}}
	}
	defer wb.Close()

	probe := newProbe(wb)
	var best *FormatSpec
	bestScore := 0.0
	for _, key := range r.keys {
		spec := r.specs[key]
		if score := probe.score(spec); score > bestScore {
			best, bestScore = spec, score
		}
	}
	if best == nil {
		return nil, &internal.UnknownFormatError{Path: path}
	}
	return best, nil
}

// probe caches the leading rows of each sheet as folded header keys.
type probe struct {
	wb     workbook.Workbook
	sheets map[string]string
	heads  map[string][][]string
}

func newProbe(wb workbook.Workbook) *probe {
	p := &probe{wb: wb, sheets: map[string]string{}, heads: map[string][][]string{}}
	for _, name := range wb.SheetNames() {
		p.sheets[util.HeaderKey(name)] = name
	}
	return p
}

func (p *probe) rows(sheet string, n int) [][]string {
	rows, ok := p.heads[sheet]
	if !ok {
		raw, err := p.wb.Rows(sheet)
		if err != nil {
			raw = nil
		}
		rows = make([][]string, 0, len(raw))
		for _, row := range raw {
			keys := make([]string, len(row))
			for i, c := range row {
				keys[i] = util.HeaderKey(c)
			}
			rows = append(rows, keys)
		}
		p.heads[sheet] = rows
	}
	if len(rows) > n {
		return rows[:n]
	}
	return rows
}

// score is 0 unless every anchor appears in one header row of some sheet.
func (p *probe) score(spec *FormatSpec) float64 {
	anchors := spec.DetectAnchors()
	if len(anchors) == 0 {
		return 0
	}

	found := false
	for _, sheet := range p.wb.SheetNames() {
		for _, row := range p.rows(sheet, spec.scanRows) {
			if rowHasAll(row, anchors) {
				found = true
				break
			}
		}
		if found {
			break
		}
	}
	if !found {
		return 0
	}

	score := 1.0
	for _, s := range spec.sheets {
		if _, ok := p.sheets[util.HeaderKey(s)]; ok {
			score += sheetBonus
			break
		}
	}
	return score
}

func rowHasAll(row []string, anchors []string) bool {
	for _, a := range anchors {
		want := util.HeaderKey(a)
		hit := false
		for _, c := range row {
			if c == want {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}
