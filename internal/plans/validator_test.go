package plans

import (
	"context"
	"errors"
	"strings"
	"testing"

	"lendbook/internal/core"
)

type fakeDirectory struct {
	names map[int64]string
}

func (f *fakeDirectory) Names(_ context.Context) (map[int64]string, error) {
	return f.names, nil
}

func (f *fakeDirectory) IDByName(_ context.Context, name string) (int64, error) {
	for id, n := range f.names {
		if n == name {
			return id, nil
		}
	}
	return 0, core.ErrNotFound
}

func testDirectory() *fakeDirectory {
	return &fakeDirectory{names: map[int64]string{10: "issuance", 11: "collection"}}
}

func header() []string {
	return []string{"plan month", "plan category name", "sum"}
}

func TestMapColumns(t *testing.T) {
	tests := []struct {
		name    string
		header  []string
		missing string
	}{
		{name: "exact", header: []string{"plan month", "plan category name", "sum"}},
		{name: "mixed case and padding", header: []string{"  SUM ", "Plan Month", " Plan Category Name"}},
		{name: "extra columns ignored", header: []string{"comment", "plan month", "plan category name", "sum", "owner"}},
		{name: "missing sum", header: []string{"plan month", "plan category name"}, missing: "sum"},
		{name: "missing plan month", header: []string{"plan category name", "sum"}, missing: "plan month"},
		{name: "empty header", header: nil, missing: "plan month"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols, err := mapColumns(tt.header)
			if tt.missing != "" {
				if err == nil {
					t.Fatalf("mapColumns(%v) expected error", tt.header)
				}
				if !strings.Contains(err.Error(), tt.missing) {
					t.Errorf("error %q does not name column %q", err, tt.missing)
				}
				return
			}
			if err != nil {
				t.Fatalf("mapColumns(%v) unexpected error: %v", tt.header, err)
			}
			if len(cols) != 3 {
				t.Errorf("mapColumns(%v) mapped %d columns, want 3", tt.header, len(cols))
			}
		})
	}
}

func TestValidatorRows(t *testing.T) {
	ctx := context.Background()
	v := validator{categories: testDirectory()}

	t.Run("accepts valid rows", func(t *testing.T) {
		table := Table{Header: header(), Rows: [][]string{
			{"2024-03-01", "issuance", "1000"},
			{"01.04.2024", " Collection ", "500,50"},
		}}
		rows, err := v.rows(ctx, table)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rows) != 2 {
			t.Fatalf("got %d rows, want 2", len(rows))
		}
		if !rows[0].Period.Equal(core.Date(2024, 3, 1)) || rows[0].CategoryID != 10 {
			t.Errorf("row 2 parsed as %+v", rows[0])
		}
		if !rows[1].Period.Equal(core.Date(2024, 4, 1)) || rows[1].CategoryID != 11 {
			t.Errorf("row 3 parsed as %+v", rows[1])
		}
		if rows[1].Amount.String() != "500.5" {
			t.Errorf("row 3 amount = %s, want 500.5", rows[1].Amount)
		}
		if rows[0].SourceRow != 2 || rows[1].SourceRow != 3 {
			t.Errorf("source rows = %d, %d; want 2, 3", rows[0].SourceRow, rows[1].SourceRow)
		}
	})

	t.Run("skips blank trailing rows", func(t *testing.T) {
		table := Table{Header: header(), Rows: [][]string{
			{"2024-03-01", "issuance", "1000"},
			{"", "", ""},
			{},
		}}
		rows, err := v.rows(ctx, table)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rows) != 1 {
			t.Errorf("got %d rows, want 1", len(rows))
		}
	})

	rowErrors := []struct {
		name    string
		row     []string
		wantRow int
		wantMsg string
	}{
		{name: "empty amount", row: []string{"2024-03-01", "issuance", ""}, wantRow: 2, wantMsg: "empty value"},
		{name: "non-numeric amount", row: []string{"2024-03-01", "issuance", "lots"}, wantRow: 2, wantMsg: "non-numeric"},
		{name: "unparseable period", row: []string{"soon", "issuance", "1000"}, wantRow: 2, wantMsg: planMonthColumn},
		{name: "period not first of month", row: []string{"2024-03-15", "issuance", "1000"}, wantRow: 2, wantMsg: "first day"},
		{name: "unknown category", row: []string{"2024-03-01", "bonus", "1000"}, wantRow: 2, wantMsg: `unknown plan category "bonus"`},
	}

	for _, tt := range rowErrors {
		t.Run(tt.name, func(t *testing.T) {
			table := Table{Header: header(), Rows: [][]string{tt.row}}
			_, err := v.rows(ctx, table)
			var ve *core.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error %v is not a ValidationError", err)
			}
			if ve.Row != tt.wantRow {
				t.Errorf("error row = %d, want %d", ve.Row, tt.wantRow)
			}
			if !strings.Contains(ve.Message, tt.wantMsg) {
				t.Errorf("error %q does not contain %q", ve.Message, tt.wantMsg)
			}
		})
	}

	t.Run("stops at the first invalid row", func(t *testing.T) {
		table := Table{Header: header(), Rows: [][]string{
			{"2024-03-01", "issuance", "bad"},
			{"2024-04-15", "bonus", ""},
		}}
		_, err := v.rows(ctx, table)
		var ve *core.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("error %v is not a ValidationError", err)
		}
		if ve.Row != 2 {
			t.Errorf("error row = %d, want 2 (fail-fast)", ve.Row)
		}
	})

	t.Run("duplicate pair names both rows", func(t *testing.T) {
		table := Table{Header: header(), Rows: [][]string{
			{"2024-03-01", "issuance", "1000"},
			{"2024-03-01", "collection", "700"},
			{"01.03.2024", "issuance", "2000"},
		}}
		_, err := v.rows(ctx, table)
		var ve *core.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("error %v is not a ValidationError", err)
		}
		if ve.Row != 4 {
			t.Errorf("error row = %d, want 4", ve.Row)
		}
		if !strings.Contains(ve.Message, "row 2") {
			t.Errorf("error %q does not reference the earlier row 2", ve.Message)
		}
	})

	t.Run("missing canonical category is a setup error", func(t *testing.T) {
		broken := validator{categories: &fakeDirectory{names: map[int64]string{10: "issuance"}}}
		table := Table{Header: header(), Rows: [][]string{{"2024-03-01", "issuance", "1000"}}}
		_, err := broken.rows(ctx, table)
		var se *core.SetupError
		if !errors.As(err, &se) {
			t.Fatalf("error %v is not a SetupError", err)
		}
		if !strings.Contains(se.Message, core.CategoryCollection) {
			t.Errorf("error %q does not name the missing category", se.Message)
		}
	})
}
