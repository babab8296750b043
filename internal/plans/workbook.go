package plans

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"lendbook/internal/core"
)

// Table is the raw tabular content of the first worksheet. Rows[i] is the
// spreadsheet row i+2: row 1 is the header, data starts at row 2.
type Table struct {
	Header []string
	Rows   [][]string
}

// firstDataRow is the spreadsheet row number of Rows[0].
const firstDataRow = 2

// DecodeWorkbook parses xlsx bytes into a Table. Cells are read raw, so
// numeric and date cells arrive as their underlying values instead of
// display-formatted text. An unreadable file is a validation error carrying
// the parser's failure.
func DecodeWorkbook(data []byte) (Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data), excelize.Options{RawCellValue: true})
	if err != nil {
		return Table{}, core.InvalidWrap(err, "unreadable workbook: %v", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return Table{}, core.Invalidf("workbook has no worksheets")
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return Table{}, core.InvalidWrap(err, "unreadable worksheet %q: %v", sheet, err)
	}
	if len(rows) == 0 {
		return Table{}, nil
	}

	t := Table{Header: rows[0]}
	for _, row := range rows[1:] {
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// cell returns the value at idx, tolerating short rows: excelize drops
// trailing empty cells.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// blankRow reports whether every mapped cell of the row is empty. Fully
// blank trailing rows are a formatting artifact, not data.
func blankRow(row []string, cols columnMap) bool {
	for _, idx := range cols {
		if strings.TrimSpace(cell(row, idx)) != "" {
			return false
		}
	}
	return true
}

// dateFromSerial interprets a raw cell value as an Excel date serial number.
// Date and datetime cells surface as serials when read raw.
func dateFromSerial(raw string) (time.Time, bool) {
	serial, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, false
	}
	return core.DateOf(t), true
}
