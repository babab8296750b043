// Package plans implements the plan-import pipeline: workbook decoding, row
// validation against the category directory, batch-level consistency checks
// and the all-or-nothing write to the plan store.
package plans

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lendbook/internal/core"
)

// Logical columns required in the imported sheet. Header matching is
// case-insensitive, whitespace-trimmed and independent of column order.
const (
	planMonthColumn    = "plan month"
	categoryNameColumn = "plan category name"
	amountColumn       = "sum"
)

var requiredColumns = []string{planMonthColumn, categoryNameColumn, amountColumn}

// The only category names an imported row may carry.
var allowedCategoryNames = []string{core.CategoryIssuance, core.CategoryCollection}

type columnMap map[string]int

func mapColumns(header []string) (columnMap, error) {
	cols := make(columnMap, len(requiredColumns))
	for _, want := range requiredColumns {
		found := -1
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), want) {
				found = i
				break
			}
		}
		if found < 0 {
			return nil, core.Invalidf("missing required column: %s", want)
		}
		cols[want] = found
	}
	return cols, nil
}

// validator turns a decoded Table into accepted PlanRows. Processing is
// fail-fast: the first invalid row aborts the batch.
type validator struct {
	categories CategoryDirectory
}

func (v validator) rows(ctx context.Context, table Table) ([]core.PlanRow, error) {
	cols, err := mapColumns(table.Header)
	if err != nil {
		return nil, err
	}

	nameToID, err := v.categoryMap(ctx)
	if err != nil {
		return nil, err
	}

	var rows []core.PlanRow
	for i, raw := range table.Rows {
		if blankRow(raw, cols) {
			continue
		}
		rowNum := firstDataRow + i
		row, err := parseRow(raw, rowNum, cols, nameToID)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	if err := ensureNoDuplicates(rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// categoryMap loads the directory normalized to lowercase names and verifies
// both canonical categories exist before any row is read. A missing
// canonical category is broken reference data, not a row problem.
func (v validator) categoryMap(ctx context.Context) (map[string]int64, error) {
	names, err := v.categories.Names(ctx)
	if err != nil {
		return nil, fmt.Errorf("load category directory: %w", err)
	}
	nameToID := make(map[string]int64, len(names))
	for id, name := range names {
		nameToID[core.NormalizeCategoryName(name)] = id
	}
	for _, required := range allowedCategoryNames {
		if _, ok := nameToID[required]; !ok {
			return nil, core.Setupf("category directory is missing required category %q", required)
		}
	}
	return nameToID, nil
}

func parseRow(raw []string, rowNum int, cols columnMap, nameToID map[string]int64) (core.PlanRow, error) {
	amount, err := core.ParseAmount(cell(raw, cols[amountColumn]))
	switch {
	case errors.Is(err, core.ErrEmptyAmount):
		return core.PlanRow{}, core.RowInvalidf(rowNum, "column %q contains an empty value", amountColumn)
	case err != nil:
		return core.PlanRow{}, core.RowInvalidf(rowNum, "column %q contains a non-numeric value", amountColumn)
	}

	period, err := parsePeriod(cell(raw, cols[planMonthColumn]))
	if err != nil {
		return core.PlanRow{}, core.RowInvalidf(rowNum, "invalid %q value", planMonthColumn)
	}
	if period.Day() != 1 {
		return core.PlanRow{}, core.RowInvalidf(rowNum, "%q must be the first day of a month", planMonthColumn)
	}

	name := core.NormalizeCategoryName(cell(raw, cols[categoryNameColumn]))
	if !allowedCategory(name) {
		return core.PlanRow{}, core.RowInvalidf(rowNum, "unknown plan category %q", name)
	}

	return core.PlanRow{
		Period:     period,
		CategoryID: nameToID[name],
		Amount:     amount,
		SourceRow:  rowNum,
	}, nil
}

// parsePeriod accepts date and datetime cells directly (raw Excel serials)
// and falls back to a generic text date parse.
func parsePeriod(raw string) (time.Time, error) {
	if t, err := core.ParseDate(raw); err == nil {
		return t, nil
	}
	if t, ok := dateFromSerial(raw); ok {
		return t, nil
	}
	return time.Time{}, core.ErrInvalidDate
}

func allowedCategory(name string) bool {
	for _, allowed := range allowedCategoryNames {
		if name == allowed {
			return true
		}
	}
	return false
}

// ensureNoDuplicates rejects a batch that targets the same (period,
// category) twice, naming both the offending row and the first one.
func ensureNoDuplicates(rows []core.PlanRow) error {
	seen := make(map[planKey]int, len(rows))
	for _, row := range rows {
		key := planKey{period: row.Period, categoryID: row.CategoryID}
		if first, ok := seen[key]; ok {
			return core.RowInvalidf(row.SourceRow,
				"duplicate plan for %s: the pair is already used in row %d",
				row.Period.Format("2006-01-02"), first)
		}
		seen[key] = row.SourceRow
	}
	return nil
}

// planKey identifies the unique (period, category) pair. Periods are UTC
// midnight instants, so direct comparison is sound.
type planKey struct {
	period     time.Time
	categoryID int64
}
