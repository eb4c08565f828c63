package internal

import (
	"fmt"
	"time"
)

type FieldType string

const (
	FieldString   FieldType = "string"
	FieldInteger  FieldType = "integer"
	FieldFloat    FieldType = "float"
	FieldDatetime FieldType = "datetime"
)

func (t FieldType) Valid() bool {
	switch t {
	case FieldString, FieldInteger, FieldFloat, FieldDatetime:
		return true
	}
	return false
}

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

func ParseSeverity(s string) (Severity, error) {
	switch Severity(s) {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return Severity(s), nil
	}
	return "", fmt.Errorf("invalid severity %q", s)
}

// RawRow is one spreadsheet row keyed by source column header. Empty cells are "".
type RawRow struct {
	Sheet string
	Row   int
	Cells map[string]string
}

func (r RawRow) Blank() bool {
	for _, v := range r.Cells {
		if v != "" {
			return false
		}
	}
	return true
}

type FaultRecord struct {
	WorkOrder          string     `json:"work_order"`
	Location           string     `json:"location,omitempty"`
	Status             string     `json:"status,omitempty"`
	Mileage            *int64     `json:"mileage"`
	OpenDate           time.Time  `json:"open_date"`
	CompletionDate     *time.Time `json:"completion_date"`
	ActualFinishDate   *time.Time `json:"actual_finish_date"`
	Complaint          string     `json:"complaint,omitempty"`
	FaultCodes         string     `json:"fault_codes,omitempty"`
	Description        string     `json:"description,omitempty"`
	SRRNumber          string     `json:"srr_no,omitempty"`
	Mechanic           string     `json:"mechanic,omitempty"`
	CustomerID         string     `json:"customer_id,omitempty"`
	CustomerName       string     `json:"customer_name,omitempty"`
	NextRecommendation string     `json:"next_recommendation,omitempty"`
	SourceCategory     string     `json:"source_category,omitempty"`
	Category           string     `json:"category"`
	Subcategory        string     `json:"subcategory,omitempty"`
	LeadTech           string     `json:"lead_tech,omitempty"`
	BillNumber         string     `json:"bill_no,omitempty"`
	IntercoAmount      *float64   `json:"interco_amount"`
	Cost               *float64   `json:"cost"`
	Severity           Severity   `json:"severity"`
	Component          string     `json:"component"`
	FaultCategory      string     `json:"fault_category"`
	VehicleType        string     `json:"vehicle_type,omitempty"`
	SourceSheet        string     `json:"source_sheet"`
	SourceFormat       string     `json:"source_format"`
	SourceRow          int        `json:"source_row"`

	Extra map[string]string `json:"extra,omitempty"`
}

type IssueKind string

const (
	IssueMissingRequiredColumn IssueKind = "missing_required_column"
	IssueTypeCoercion          IssueKind = "type_coercion"
)

// Issue is a row-level validation finding. Issues on required fields reject the row.
type Issue struct {
	Kind         IssueKind `json:"kind"`
	Sheet        string    `json:"sheet"`
	Row          int       `json:"row"`
	Column       string    `json:"column"`
	Field        string    `json:"field"`
	RawValue     string    `json:"raw_value,omitempty"`
	ExpectedType FieldType `json:"expected_type,omitempty"`
	Required     bool      `json:"required"`
}

func (i Issue) Error() string {
	switch i.Kind {
	case IssueMissingRequiredColumn:
		return fmt.Sprintf("%s row %d: missing required column %q", i.Sheet, i.Row, i.Column)
	case IssueTypeCoercion:
		return fmt.Sprintf("%s row %d: field %q: cannot coerce %q to %s", i.Sheet, i.Row, i.Field, i.RawValue, i.ExpectedType)
	}
	return fmt.Sprintf("%s row %d: %s", i.Sheet, i.Row, i.Kind)
}

type ProcessingReport struct {
	RunID            string         `json:"run_id"`
	SourceFile       string         `json:"source_file"`
	FormatKey        string         `json:"format_key"`
	TotalRows        int            `json:"total_rows"`
	AcceptedRows     int            `json:"accepted_rows"`
	TotalSheets      int            `json:"total_sheets"`
	PerSheetCounts   map[string]int `json:"per_sheet_counts"`
	RejectedRowCount int            `json:"rejected_row_count"`
	SkippedSheets    []string       `json:"skipped_sheets,omitempty"`
	Issues           []Issue        `json:"issues,omitempty"`
	ProcessedAt      time.Time      `json:"processed_at"`
	ElapsedTime      time.Duration  `json:"elapsed_time"`
}

type FileRow struct {
	ID        int
	Path      string
	Hash      string
	FormatKey string
	Status    string
	Error     string
}

type RunRow struct {
	ID        int
	TraceID   string
	FileID    int
	FormatKey string
	Counts    map[string]int
	Timings   map[string]float64
	Skipped   []string
	CreatedAt string
}
