package workbook

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrUnsupported   = errors.New("unsupported workbook format")
	ErrNoSpreadsheet = errors.New("no spreadsheet attachment")
)

// Workbook is a read-only view of sheets as rows of cell text.
// Numeric and date cells are returned unformatted (dates as Excel serials).
type Workbook interface {
	SheetNames() []string
	Rows(sheet string) ([][]string, error)
	Date1904() bool
	Close() error
}

type kind int

const (
	kindUnknown kind = iota
	kindXLSX
	kindHTML
	kindMail
	kindOLE
)

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

func Open(path string) (Workbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return OpenBytes(filepath.Base(path), data)
}

func OpenBytes(name string, data []byte) (Workbook, error) {
	switch sniff(name, data) {
	case kindXLSX:
		return openXLSX(data)
	case kindHTML:
		return openHTML(data)
	case kindMail:
		return openMail(data)
	case kindOLE:
		return nil, fmt.Errorf("%w: legacy binary .xls, re-save as .xlsx", ErrUnsupported)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, name)
}

func sniff(name string, data []byte) kind {
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return kindXLSX
	case bytes.HasPrefix(data, oleMagic):
		return kindOLE
	case ext == ".eml" || looksLikeMail(data):
		return kindMail
	case bytes.Contains(bytes.ToLower(head(data, 1<<16)), []byte("<table")):
		return kindHTML
	}
	return kindUnknown
}

func looksLikeMail(data []byte) bool {
	h := strings.ToLower(string(head(data, 2048)))
	return strings.HasPrefix(h, "received:") || strings.HasPrefix(h, "return-path:") ||
		(strings.Contains(h, "mime-version:") && strings.Contains(h, "content-type:") && !strings.Contains(h, "<html"))
}

func head(data []byte, n int) []byte {
	if len(data) > n {
		return data[:n]
	}
	return data
}

// SupportedExt reports whether a file name looks like an ingestible workbook.
func SupportedExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm", ".xls", ".htm", ".html", ".eml":
		return true
	}
	return false
}
