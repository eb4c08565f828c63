package workbook

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"fleetfaults/internal/util"
)

// htmlBook reads spreadsheets exported as HTML tables, which many dealer
// systems save with an .xls extension. Each <table> becomes one sheet.
type htmlBook struct {
	names []string
	rows  map[string][][]string
}

func openHTML(data []byte) (Workbook, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	b := &htmlBook{rows: map[string][][]string{}}
	doc.Find("table").Each(func(i int, table *goquery.Selection) {
		name := sheetName(table, i)
		if _, dup := b.rows[name]; dup {
			name = fmt.Sprintf("%s (%d)", name, i+1)
		}

		var rows [][]string
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			var cells []string
			tr.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, util.CollapseSpaces(cell.Text()))
				if span, err := strconv.Atoi(cell.AttrOr("colspan", "1")); err == nil {
					for j := 1; j < span; j++ {
						cells = append(cells, "")
					}
				}
			})
			rows = append(rows, cells)
		})

		b.names = append(b.names, name)
		b.rows[name] = rows
	})
	if len(b.names) == 0 {
		return nil, fmt.Errorf("%w: no tables in html", ErrUnsupported)
	}
	return b, nil
}

func sheetName(table *goquery.Selection, i int) string {
	if c := strings.TrimSpace(table.Find("caption").First().Text()); c != "" {
		return c
	}
	for _, attr := range []string{"data-sheet", "title", "id"} {
		if v := strings.TrimSpace(table.AttrOr(attr, "")); v != "" {
			return v
		}
	}
	return fmt.Sprintf("Sheet%d", i+1)
}

func (b *htmlBook) SheetNames() []string { return append([]string(nil), b.names...) }

func (b *htmlBook) Rows(sheet string) ([][]string, error) {
	rows, ok := b.rows[sheet]
	if !ok {
		return nil, fmt.Errorf("sheet %s does not exist", sheet)
	}
	return rows, nil
}

func (b *htmlBook) Date1904() bool { return false }

func (b *htmlBook) Close() error { return nil }
