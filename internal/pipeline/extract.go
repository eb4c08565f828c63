package pipeline

import (
	"strings"

	"fleetfaults/internal"
	"fleetfaults/internal/formats"
	"fleetfaults/internal/util"
	"fleetfaults/internal/workbook"
)

func openWorkbook(path string) (workbook.Workbook, error) {
	wb, err := workbook.Open(path)
	if err != nil {
		return nil, &internal.WorkbookOpenError{Path: path, Err: err}
	}
	return wb, nil
}

type sheetRef struct {
	name   string
	actual string
}

// locateSheets matches configured sheet names against the workbook, ignoring
// case and stray whitespace. An empty list selects every sheet.
func locateSheets(wb workbook.Workbook, configured []string) ([]sheetRef, []string) {
	actual := wb.SheetNames()
	if len(configured) == 0 {
		refs := make([]sheetRef, 0, len(actual))
		for _, a := range actual {
			refs = append(refs, sheetRef{name: a, actual: a})
		}
		return refs, nil
	}

	index := make(map[string]string, len(actual))
	for _, a := range actual {
		index[util.HeaderKey(a)] = a
	}
	var refs []sheetRef
	var missing []string
	for _, name := range configured {
		if a, ok := index[util.HeaderKey(name)]; ok {
			refs = append(refs, sheetRef{name: name, actual: a})
		} else {
			missing = append(missing, name)
		}
	}
	return refs, missing
}

// columnIndex maps spreadsheet column positions to configured column names.
func columnIndex(header []string, spec *formats.FormatSpec) map[int]string {
	out := map[int]string{}
	for i, cell := range header {
		if strings.TrimSpace(cell) == "" {
			continue
		}
		if col, ok := spec.Column(cell); ok {
			out[i] = col.Name
		}
	}
	return out
}

// anchorRow finds the first row among the leading n that holds every anchor.
func anchorRow(rows [][]string, anchors []string, n int) int {
	if len(anchors) == 0 {
		return -1
	}
	for i := 0; i < len(rows) && i < n; i++ {
		have := map[string]bool{}
		for _, c := range rows[i] {
			have[util.HeaderKey(c)] = true
		}
		all := true
		for _, a := range anchors {
			if !have[util.HeaderKey(a)] {
				all = false
				break
			}
		}
		if all {
			return i
		}
	}
	return -1
}

func buildSheet(ref sheetRef, rows [][]string, headerRow int, spec *formats.FormatSpec) SheetRows {
	sr := SheetRows{Name: ref.name, Actual: ref.actual, HeaderRow: headerRow}
	if headerRow >= len(rows) {
		return sr
	}

	cols := columnIndex(rows[headerRow], spec)
	for i := range rows[headerRow] {
		if name, ok := cols[i]; ok {
			sr.Columns = append(sr.Columns, name)
		}
	}

	for i := headerRow + 1; i < len(rows); i++ {
		row := internal.RawRow{Sheet: ref.name, Row: i + 1, Cells: make(map[string]string, len(cols))}
		for idx, name := range cols {
			value := ""
			if idx < len(rows[i]) {
				value = strings.TrimSpace(rows[i][idx])
			}
			row.Cells[name] = value
		}
		if row.Blank() {
			continue
		}
		sr.Rows = append(sr.Rows, row)
	}
	return sr
}
