package pipeline

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"fleetfaults/internal"
	"fleetfaults/internal/formats"
)

var faultHeaders = []string{
	"work_order", "source_sheet", "source_row", "vehicle_type", "location", "status", "mileage",
	"open_date", "completion_date", "actual_finish_date",
	"complaint", "fault_codes", "description",
	"category", "subcategory", "severity", "component",
	"srr_no", "mechanic", "customer_id", "customer_name", "next_recommendation",
	"source_category", "lead_tech", "bill_no", "interco_amount", "cost",
}

// ExportCollectionToXLSX writes the records, a summary and the validation
// issues to one workbook. Dates are rendered with layout.
func ExportCollectionToXLSX(coll *internal.FaultCollection, rep *internal.ProcessingReport, outputPath, layout string) error {
	if layout == "" {
		layout = formats.DefaultOutputLayout
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), "Faults"); err != nil {
		return err
	}
	records := coll.Records()
	extras := extraKeys(records)

	headers := append(append([]string(nil), faultHeaders...), extras...)
	writeRow(f, "Faults", 1, toAny(headers))
	for i, r := range records {
		row := []any{
			r.WorkOrder, r.SourceSheet, r.SourceRow, r.VehicleType, r.Location, r.Status, derefInt(r.Mileage),
			formatTime(&r.OpenDate, layout), formatTime(r.CompletionDate, layout), formatTime(r.ActualFinishDate, layout),
			r.Complaint, r.FaultCodes, r.Description,
			r.Category, r.Subcategory, string(r.Severity), r.Component,
			r.SRRNumber, r.Mechanic, r.CustomerID, r.CustomerName, r.NextRecommendation,
			r.SourceCategory, r.LeadTech, r.BillNumber, derefFloat(r.IntercoAmount), derefFloat(r.Cost),
		}
		for _, k := range extras {
			row = append(row, r.Extra[k])
		}
		writeRow(f, "Faults", i+2, row)
	}

	if _, err := f.NewSheet("Summary"); err != nil {
		return err
	}
	writeSummary(f, coll.Summary(), rep)

	if _, err := f.NewSheet("Issues"); err != nil {
		return err
	}
	writeRow(f, "Issues", 1, []any{"sheet", "row", "kind", "column", "field", "raw_value", "expected_type", "required"})
	if rep != nil {
		for i, is := range rep.Issues {
			writeRow(f, "Issues", i+2, []any{is.Sheet, is.Row, string(is.Kind), is.Column, is.Field, is.RawValue, string(is.ExpectedType), is.Required})
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func writeSummary(f *excelize.File, sum internal.Summary, rep *internal.ProcessingReport) {
	r := 1
	put := func(values ...any) {
		writeRow(f, "Summary", r, values)
		r++
	}
	if rep != nil {
		put("run_id", rep.RunID)
		put("source_file", rep.SourceFile)
		put("format", rep.FormatKey)
		put("total_rows", rep.TotalRows)
		put("accepted_rows", rep.AcceptedRows)
		put("rejected_rows", rep.RejectedRowCount)
		put("total_sheets", rep.TotalSheets)
		put("processed_at", rep.ProcessedAt.Format(time.RFC3339))
	}
	put("total_records", sum.Total)
	put("total_cost", sum.TotalCost)
	put("total_interco", sum.TotalInterco)

	groups := []struct {
		name   string
		counts []internal.Count
	}{
		{"sheet", sum.BySheet},
		{"category", sum.ByCategory},
		{"severity", sum.BySeverity},
		{"component", sum.ByComponent},
		{"vehicle_type", sum.ByVehicleType},
		{"status", sum.ByStatus},
	}
	for _, g := range groups {
		r++
		put(g.name, "count")
		for _, c := range g.counts {
			put(c.Key, c.Count)
		}
	}
}

func writeRow(f *excelize.File, sheet string, row int, values []any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

type collectionJSON struct {
	Report  *internal.ProcessingReport `json:"report,omitempty"`
	Summary internal.Summary           `json:"summary"`
	Records []internal.FaultRecord     `json:"records"`
}

func WriteCollectionJSON(w io.Writer, coll *internal.FaultCollection, rep *internal.ProcessingReport) error {
	records := coll.Records()
	if records == nil {
		records = []internal.FaultRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(collectionJSON{Report: rep, Summary: coll.Summary(), Records: records})
}

func extraKeys(records []internal.FaultRecord) []string {
	seen := map[string]bool{}
	for _, r := range records {
		for k := range r.Extra {
			seen[k] = true
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func formatTime(t *time.Time, layout string) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(layout)
}

func derefFloat(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

func derefInt(v *int64) any {
	if v == nil {
		return ""
	}
	return *v
}
