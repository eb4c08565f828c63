package workbook

import (
	"bytes"
	"errors"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/jhillyerd/enmime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetfaults/internal/fixture"
)

func TestOpenXLSX(t *testing.T) {
	blob := fixture.XLSX(t,
		fixture.Sheet{Name: "14 ft (6yrs)", Rows: [][]any{
			{"WO No", "Open Date", "Custamt"},
			{"WO-1", time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), 150.5},
		}},
		fixture.Sheet{Name: "16 ft (6yrs)", Rows: [][]any{{"WO No"}}},
	)

	wb, err := OpenBytes("kardex.xlsx", blob)
	require.NoError(t, err)
	defer wb.Close()

	assert.Equal(t, []string{"14 ft (6yrs)", "16 ft (6yrs)"}, wb.SheetNames())
	rows, err := wb.Rows("14 ft (6yrs)")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "WO-1", rows[1][0])
	serial, err := strconv.ParseFloat(rows[1][1], 64)
	require.NoError(t, err)
	assert.InDelta(t, 45292.375, serial, 1e-6)
	assert.Equal(t, "150.5", rows[1][2])
	assert.False(t, wb.Date1904())
}

func TestOpenFromPath(t *testing.T) {
	dir := t.TempDir()
	path := fixture.WriteXLSX(t, dir, "a.xlsx", fixture.Sheet{Name: "Data", Rows: [][]any{{"x"}}})
	wb, err := Open(path)
	require.NoError(t, err)
	defer wb.Close()
	assert.Equal(t, []string{"Data"}, wb.SheetNames())

	_, err = Open(filepath.Join(dir, "missing.xlsx"))
	assert.Error(t, err)
}

func TestOpenHTMLTable(t *testing.T) {
	html := `<html><body>
<table><caption>Lifestyle (6yrs)</caption>
<tr><th>WO No</th><th colspan="2">Loc</th><th>Open Date</th></tr>
<tr><td> WO-9 </td><td>Tuas</td><td>Bay 2</td><td>2024-02-01</td></tr>
</table>
<table><tr><td>second</td></tr></table>
</body></html>`

	wb, err := OpenBytes("export.xls", []byte(html))
	require.NoError(t, err)
	defer wb.Close()

	assert.Equal(t, []string{"Lifestyle (6yrs)", "Sheet2"}, wb.SheetNames())
	rows, err := wb.Rows("Lifestyle (6yrs)")
	require.NoError(t, err)
	assert.Equal(t, []string{"WO No", "Loc", "", "Open Date"}, rows[0])
	assert.Equal(t, []string{"WO-9", "Tuas", "Bay 2", "2024-02-01"}, rows[1])

	_, err = wb.Rows("nope")
	assert.Error(t, err)
}

func TestOpenMailAttachment(t *testing.T) {
	blob := fixture.XLSX(t, fixture.Sheet{Name: "10 ft (6yrs)", Rows: [][]any{{"WO No"}, {"WO-5"}}})
	part, err := enmime.Builder().
		From("Workshop", "workshop@example.com").
		To("Fleet", "fleet@example.com").
		Subject("Kardex export").
		Text([]byte("see attached")).
		AddAttachment(blob, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "kardex.xlsx").
		Build()
	require.NoError(t, err)
	buf := &bytes.Buffer{}
	require.NoError(t, part.Encode(buf))

	wb, err := OpenBytes("message.eml", buf.Bytes())
	require.NoError(t, err)
	defer wb.Close()
	assert.Equal(t, []string{"10 ft (6yrs)"}, wb.SheetNames())
}

func TestOpenMailWithoutSpreadsheet(t *testing.T) {
	part, err := enmime.Builder().
		From("A", "a@example.com").
		To("B", "b@example.com").
		Subject("hello").
		Text([]byte("no attachments")).
		Build()
	require.NoError(t, err)
	buf := &bytes.Buffer{}
	require.NoError(t, part.Encode(buf))

	_, err = OpenBytes("message.eml", buf.Bytes())
	assert.True(t, errors.Is(err, ErrNoSpreadsheet))
}

func TestOpenUnsupported(t *testing.T) {
	ole := append([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, make([]byte, 64)...)
	_, err := OpenBytes("legacy.xls", ole)
	assert.True(t, errors.Is(err, ErrUnsupported))

	_, err = OpenBytes("notes.txt", []byte("just text"))
	assert.True(t, errors.Is(err, ErrUnsupported))
}

func TestSupportedExt(t *testing.T) {
	assert.True(t, SupportedExt("Kardex.XLSX"))
	assert.True(t, SupportedExt("mail.eml"))
	assert.False(t, SupportedExt("report.pdf"))
}
