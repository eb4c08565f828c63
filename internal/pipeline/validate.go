package pipeline

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"fleetfaults/internal"
	"fleetfaults/internal/formats"
	"fleetfaults/internal/util"
)

const (
	// maxExcelSerial is 9999-12-31 in the 1900 date system.
	maxExcelSerial = 2958465

	// Earlier dates are export placeholders such as 0001-01-01.
	minDateYear = 1900
)

type RowValidationResult struct {
	OK     bool
	Issues []internal.Issue
	Values map[string]any
}

// ValidationEngine checks required columns and coerces cell text to column
// types. It holds no per-row state and is safe for concurrent use.
type ValidationEngine struct {
	logger *slog.Logger
}

func NewValidationEngine(logger *slog.Logger) *ValidationEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &ValidationEngine{logger: logger}
}

func (e *ValidationEngine) Check(row internal.RawRow, spec *formats.FormatSpec) RowValidationResult {
	return e.check(row, spec, false)
}

func (e *ValidationEngine) check(row internal.RawRow, spec *formats.FormatSpec, date1904 bool) RowValidationResult {
	res := RowValidationResult{OK: true, Values: map[string]any{}}
	layouts := spec.DateLayouts()

	for _, col := range spec.Columns() {
		raw, present := row.Cells[col.Name]
		raw = strings.TrimSpace(raw)
		res.Values[col.Key] = nil

		if col.Required && raw == "" {
			res.OK = false
			res.Issues = append(res.Issues, internal.Issue{
				Kind:     internal.IssueMissingRequiredColumn,
				Sheet:    row.Sheet,
				Row:      row.Row,
				Column:   col.Name,
				Field:    col.Key,
				Required: true,
			})
			continue
		}
		if !present || raw == "" {
			continue
		}

		v, err := Coerce(raw, col.Type, layouts, date1904)
		if err != nil {
			e.logger.Debug("coercion failed", "sheet", row.Sheet, "row", row.Row, "field", col.Key, "raw", raw, "err", err)
			if col.Required {
				res.OK = false
			}
			res.Issues = append(res.Issues, internal.Issue{
				Kind:         internal.IssueTypeCoercion,
				Sheet:        row.Sheet,
				Row:          row.Row,
				Column:       col.Name,
				Field:        col.Key,
				RawValue:     raw,
				ExpectedType: col.Type,
				Required:     col.Required,
			})
			continue
		}
		res.Values[col.Key] = v
	}
	return res
}

// Coerce converts trimmed cell text to the declared type. Empty text is nil.
// Datetimes try each layout in order, then Excel serial day numbers.
func Coerce(raw string, t internal.FieldType, layouts []string, date1904 bool) (any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var v any
	var err error
	switch t {
	case internal.FieldString, "":
		return raw, nil
	case internal.FieldInteger:
		v, err = util.ParseInteger(raw)
	case internal.FieldFloat:
		v, err = util.ParseNumber(raw)
	case internal.FieldDatetime:
		v, err = parseDate(raw, layouts, date1904)
	default:
		err = fmt.Errorf("unknown field type %q", t)
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func parseDate(raw string, layouts []string, date1904 bool) (time.Time, error) {
	for _, layout := range layouts {
		t, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		if t.Year() < minDateYear {
			return time.Time{}, fmt.Errorf("date %q before %d", raw, minDateYear)
		}
		return t.UTC(), nil
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil && serial >= 1 && serial <= maxExcelSerial {
		t, err := excelize.ExcelDateToTime(serial, date1904)
		if err == nil {
			return t.UTC().Round(time.Second), nil
		}
	}
	return time.Time{}, fmt.Errorf("no date layout matches %q", raw)
}
