// Package report computes performance reports from aggregated lending facts:
// the twelve-month year report, the point-in-time plan report and per-credit
// status records. All monetary accumulation stays in exact decimals; only
// the final percentages are floats.
package report

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"lendbook/internal/core"
)

// MonthPerformance is one month of the year report. Months without data
// carry zero counts, zero sums and 0.0 percentages.
type MonthPerformance struct {
	Year                        int             `json:"year"`
	Month                       int             `json:"month"`
	IssuanceCount               int64           `json:"issuances_count"`
	IssuanceSum                 decimal.Decimal `json:"issuances_sum"`
	IssuancePlanSum             decimal.Decimal `json:"issuances_plan_sum"`
	IssuancePlanPercent         float64         `json:"issuances_plan_percent"`
	PaymentCount                int64           `json:"payments_count"`
	PaymentSum                  decimal.Decimal `json:"payments_sum"`
	CollectionPlanSum           decimal.Decimal `json:"collections_plan_sum"`
	CollectionPlanPercent       float64         `json:"collections_plan_percent"`
	IssuanceShareOfYearPercent  float64         `json:"issuances_share_of_year_percent"`
	PaymentsShareOfYearPercent  float64         `json:"payments_share_of_year_percent"`
}

// Performance builds the monthly reports.
type Performance struct {
	store      PerformanceStore
	plans      PlanLister
	categories CategoryDirectory
}

func NewPerformance(store PerformanceStore, plans PlanLister, categories CategoryDirectory) *Performance {
	return &Performance{store: store, plans: plans, categories: categories}
}

// YearPerformance returns exactly twelve items for the given year.
func (p *Performance) YearPerformance(ctx context.Context, year int) ([]MonthPerformance, error) {
	issuances, err := p.store.IssuanceAggregates(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("issuance aggregates for %d: %w", year, err)
	}
	payments, err := p.store.PaymentAggregates(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("payment aggregates for %d: %w", year, err)
	}
	planSums, err := p.store.PlanSumsByCategory(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("plan sums for %d: %w", year, err)
	}

	issuanceID, collectionID, err := p.canonicalIDs(ctx)
	if err != nil {
		return nil, err
	}

	totalIssuances := decimal.Zero
	totalPayments := decimal.Zero
	for _, agg := range issuances {
		totalIssuances = totalIssuances.Add(agg.Sum)
	}
	for _, agg := range payments {
		totalPayments = totalPayments.Add(agg.Sum)
	}

	items := make([]MonthPerformance, 0, 12)
	for month := 1; month <= 12; month++ {
		key := core.MonthKey{Year: year, Month: month}
		iss := issuances[key]
		pay := payments[key]
		issuancePlan := planSums[key][issuanceID]
		collectionPlan := planSums[key][collectionID]

		items = append(items, MonthPerformance{
			Year:                       year,
			Month:                      month,
			IssuanceCount:              iss.Count,
			IssuanceSum:                iss.Sum,
			IssuancePlanSum:            issuancePlan,
			IssuancePlanPercent:        core.Percent(iss.Sum, issuancePlan),
			PaymentCount:               pay.Count,
			PaymentSum:                 pay.Sum,
			CollectionPlanSum:          collectionPlan,
			CollectionPlanPercent:      core.Percent(pay.Sum, collectionPlan),
			IssuanceShareOfYearPercent: core.Percent(iss.Sum, totalIssuances),
			PaymentsShareOfYearPercent: core.Percent(pay.Sum, totalPayments),
		})
	}
	return items, nil
}

// canonicalIDs resolves the issuance and collection category ids by name at
// call time, so re-seeded reference data with different ids stays correct.
// A missing name resolves to 0, which matches no plan bucket: the report
// degrades to 0.0 percentages instead of failing.
func (p *Performance) canonicalIDs(ctx context.Context) (issuanceID, collectionID int64, err error) {
	names, err := p.categories.Names(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("load category directory: %w", err)
	}
	for id, name := range names {
		switch core.NormalizeCategoryName(name) {
		case core.CategoryIssuance:
			issuanceID = id
		case core.CategoryCollection:
			collectionID = id
		}
	}
	return issuanceID, collectionID, nil
}
