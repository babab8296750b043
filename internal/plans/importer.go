package plans

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"lendbook/internal/core"
)

// Importer coordinates one spreadsheet import: decode, validate, check the
// batch against persisted plans and write it in a single batch. There is no
// partial commit; the first failure aborts the whole import.
type Importer struct {
	store      PlanStore
	categories CategoryDirectory
	events     EventPublisher
}

func NewImporter(store PlanStore, categories CategoryDirectory, events EventPublisher) *Importer {
	return &Importer{store: store, categories: categories, events: events}
}

// ImportWorkbook ingests raw xlsx bytes and returns a human-readable count
// of inserted rows. All validation completes before any write.
func (im *Importer) ImportWorkbook(ctx context.Context, data []byte) (string, error) {
	table, err := DecodeWorkbook(data)
	if err != nil {
		return "", err
	}

	rows, err := validator{categories: im.categories}.rows(ctx, table)
	if err != nil {
		return "", err
	}

	if err := im.ensureNoConflicts(ctx, rows); err != nil {
		return "", err
	}

	if len(rows) > 0 {
		entities := make([]core.Plan, len(rows))
		for i, row := range rows {
			entities[i] = core.Plan{
				Period:     row.Period,
				Amount:     row.Amount,
				CategoryID: row.CategoryID,
			}
		}
		if err := im.store.BatchUpsert(ctx, entities); err != nil {
			return "", fmt.Errorf("persist plan batch: %w", err)
		}
	}

	slog.InfoContext(ctx, "Plan batch imported", "rows", len(rows))
	im.publishImported(ctx, len(rows))

	return fmt.Sprintf("Inserted %d plan row(s)", len(rows)), nil
}

// ensureNoConflicts loads the persisted plans of every month touched by the
// batch and rejects rows whose (period, category) pair already exists. The
// check is best-effort: the schema's uniqueness constraint closes the race
// between two concurrent imports.
func (im *Importer) ensureNoConflicts(ctx context.Context, rows []core.PlanRow) error {
	if len(rows) == 0 {
		return nil
	}

	months := make(map[core.MonthKey]struct{})
	for _, row := range rows {
		months[core.MonthKey{Year: row.Period.Year(), Month: int(row.Period.Month())}] = struct{}{}
	}
	ordered := make([]core.MonthKey, 0, len(months))
	for m := range months {
		ordered = append(ordered, m)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Year != ordered[j].Year {
			return ordered[i].Year < ordered[j].Year
		}
		return ordered[i].Month < ordered[j].Month
	})

	existing := make(map[planKey]struct{})
	for _, m := range ordered {
		persisted, err := im.store.ListForMonth(ctx, m.Year, m.Month)
		if err != nil {
			return fmt.Errorf("load plans for %d-%02d: %w", m.Year, m.Month, err)
		}
		for _, p := range persisted {
			existing[planKey{period: core.DateOf(p.Period), categoryID: p.CategoryID}] = struct{}{}
		}
	}
	if len(existing) == 0 {
		return nil
	}

	names, err := im.categories.Names(ctx)
	if err != nil {
		return fmt.Errorf("load category directory: %w", err)
	}
	for _, row := range rows {
		if _, ok := existing[planKey{period: row.Period, categoryID: row.CategoryID}]; ok {
			return core.RowInvalidf(row.SourceRow,
				"plan for %s and category %s already exists",
				row.Period.Format("2006-01-02"), categoryLabel(names, row.CategoryID))
		}
	}
	return nil
}

func (im *Importer) publishImported(ctx context.Context, count int) {
	if im.events == nil {
		return
	}
	if err := im.events.PlansImported(ctx, count); err != nil {
		// The batch is already persisted; a lost event must not undo that.
		slog.ErrorContext(ctx, "Failed to publish import event", "rows", count, "error", err)
	}
}

func categoryLabel(names map[int64]string, id int64) string {
	if name, ok := names[id]; ok {
		return core.NormalizeCategoryName(name)
	}
	return fmt.Sprintf("%d", id)
}
