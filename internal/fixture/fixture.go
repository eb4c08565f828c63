// Package fixture builds spreadsheet inputs for tests.
package fixture

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

type Sheet struct {
	Name string
	Rows [][]any
}

func XLSX(t testing.TB, sheets ...Sheet) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	first := f.GetSheetName(0)
	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(first, s.Name); err != nil {
				t.Fatal(err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			t.Fatal(err)
		}
		for r, row := range s.Rows {
			for c, v := range row {
				if v == nil {
					continue
				}
				cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
				if err := f.SetCellValue(s.Name, cell, v); err != nil {
					t.Fatal(err)
				}
			}
		}
	}

	buf := bytes.NewBuffer(nil)
	if _, err := f.WriteTo(buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func WriteXLSX(t testing.TB, dir, name string, sheets ...Sheet) string {
	t.Helper()
	return WriteFile(t, dir, name, XLSX(t, sheets...))
}

func WriteFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

var KardexHeader = []any{
	"WO No", "Loc", "ST", "Mileage", "Open Date", "Done Date", "Actual Finish Date",
	"Nature of Complaint", "Fault Codes", "Job Description", "SRR No.", "Mechanic Name",
	"Customer", "Customer Name", "Recommendation 4 next", "Cat", "Lead Tech", "Bill No.",
	"Intercoamt", "Custamt",
}

// KardexSheet lays rows out the way the dealer export does: three title rows,
// the header on row index 3, data below.
func KardexSheet(name string, rows ...[]any) Sheet {
	all := [][]any{{"VEHICLE KARDEX"}, {name}, {}, KardexHeader}
	return Sheet{Name: name, Rows: append(all, rows...)}
}

func KardexRow(wo string, open any, complaint, description string) []any {
	return []any{
		wo, "Tuas", "C", 45000, open, nil, nil,
		complaint, "P0562", description, "SRR-881", "Ahmad",
		"C-1001", "Acme Logistics", "Check again in 5,000 km", "RM", "Lim", "B-7781",
		nil, "1,250.50",
	}
}
