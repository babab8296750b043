package plans

import (
	"context"
	"time"

	"lendbook/internal/core"
)

// Ports consumed by the import pipeline. The storage layer provides the
// concrete adapters; tests use in-memory fakes.
type (
	// CategoryDirectory looks up reference categories. It performs no name
	// normalization; callers pass names through core.NormalizeCategoryName.
	CategoryDirectory interface {
		// Names returns the full id -> name mapping.
		Names(ctx context.Context) (map[int64]string, error)
		// IDByName returns the id for an exact name, or core.ErrNotFound.
		IDByName(ctx context.Context, name string) (int64, error)
	}

	// PlanStore persists monthly plans. BatchUpsert is all-or-nothing; the
	// schema's UNIQUE(period, category_id) backstops concurrent imports.
	PlanStore interface {
		ListForMonth(ctx context.Context, year, month int) ([]core.Plan, error)
		Exists(ctx context.Context, period time.Time, categoryID int64) (bool, error)
		BatchUpsert(ctx context.Context, entities []core.Plan) error
	}

	// EventPublisher announces a completed import. A nil publisher disables
	// events; publish failures never fail the import itself.
	EventPublisher interface {
		PlansImported(ctx context.Context, count int) error
	}
)
