package workbook

import (
	"bytes"

	"github.com/xuri/excelize/v2"
)

type xlsxBook struct {
	f        *excelize.File
	date1904 bool
}

func openXLSX(data []byte) (Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	b := &xlsxBook{f: f}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		b.date1904 = *props.Date1904
	}
	return b, nil
}

func (b *xlsxBook) SheetNames() []string { return b.f.GetSheetList() }

func (b *xlsxBook) Rows(sheet string) ([][]string, error) {
	return b.f.GetRows(sheet, excelize.Options{RawCellValue: true})
}

func (b *xlsxBook) Date1904() bool { return b.date1904 }

func (b *xlsxBook) Close() error { return b.f.Close() }
