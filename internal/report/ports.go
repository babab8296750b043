package report

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"lendbook/internal/core"
)

// Ports consumed by the reporting engine. Aggregation happens in the store
// (exact integer fixed-point in SQL); this package combines the aggregates.
type (
	// PerformanceStore serves pre-aggregated facts about credits, payments
	// and plans.
	PerformanceStore interface {
		// IssuanceAggregates returns count and principal sum of credits
		// issued per month of the year.
		IssuanceAggregates(ctx context.Context, year int) (map[core.MonthKey]core.MonthlyAggregate, error)
		// PaymentAggregates returns count and amount sum of payments
		// received per month of the year.
		PaymentAggregates(ctx context.Context, year int) (map[core.MonthKey]core.MonthlyAggregate, error)
		// PlanSumsByCategory returns plan sums per month keyed by category id.
		PlanSumsByCategory(ctx context.Context, year int) (map[core.MonthKey]map[int64]decimal.Decimal, error)
		// SumIssuancesBetween sums credit principals issued in [from, to].
		SumIssuancesBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
		// SumPaymentsBetween sums payments received in [from, to].
		SumPaymentsBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
	}

	// PlanLister returns persisted plans of one month.
	PlanLister interface {
		ListForMonth(ctx context.Context, year, month int) ([]core.Plan, error)
	}

	// CategoryDirectory resolves category ids and names; see plans.CategoryDirectory.
	CategoryDirectory interface {
		Names(ctx context.Context) (map[int64]string, error)
		IDByName(ctx context.Context, name string) (int64, error)
	}

	// CreditStore loads credits with payments eagerly attached.
	CreditStore interface {
		ListByUser(ctx context.Context, userID int64) ([]core.CreditSnapshot, error)
	}
)
