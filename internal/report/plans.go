package report

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"lendbook/internal/core"
)

// PlanPerformance compares one persisted plan with the actuals accumulated
// in its month up to the report date.
type PlanPerformance struct {
	Period      time.Time       `json:"period"`
	Category    string          `json:"category"`
	PlanSum     decimal.Decimal `json:"plan_sum"`
	ActualSum   decimal.Decimal `json:"actual_sum"`
	PlanPercent float64         `json:"plan_percent"`
}

// PlansPerformance reports every plan of asOf's month against the actual
// sums in the window [month start, min(asOf, month end)]. Issuance plans
// measure issued principals, collection plans measure received payments;
// plans of any other category have no aggregate source and report 0.
func (p *Performance) PlansPerformance(ctx context.Context, asOf time.Time) ([]PlanPerformance, error) {
	asOf = core.DateOf(asOf)
	start := core.MonthStart(asOf)
	end := core.MonthEnd(asOf)
	if asOf.Before(end) {
		end = asOf
	}

	monthPlans, err := p.plans.ListForMonth(ctx, asOf.Year(), int(asOf.Month()))
	if err != nil {
		return nil, fmt.Errorf("plans for %s: %w", start.Format("2006-01"), err)
	}
	names, err := p.categories.Names(ctx)
	if err != nil {
		return nil, fmt.Errorf("load category directory: %w", err)
	}

	issuanceActual, err := p.store.SumIssuancesBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("issuance sum %s..%s: %w", start.Format("2006-01-02"), end.Format("2006-01-02"), err)
	}
	paymentActual, err := p.store.SumPaymentsBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("payment sum %s..%s: %w", start.Format("2006-01-02"), end.Format("2006-01-02"), err)
	}

	items := make([]PlanPerformance, 0, len(monthPlans))
	for _, plan := range monthPlans {
		label := categoryLabel(names, plan.CategoryID)
		var actual decimal.Decimal
		switch label {
		case core.CategoryIssuance:
			actual = issuanceActual
		case core.CategoryCollection:
			actual = paymentActual
		}

		items = append(items, PlanPerformance{
			Period:      core.DateOf(plan.Period),
			Category:    label,
			PlanSum:     plan.Amount,
			ActualSum:   actual,
			PlanPercent: core.Percent(actual, plan.Amount),
		})
	}
	return items, nil
}

func categoryLabel(names map[int64]string, id int64) string {
	if name, ok := names[id]; ok {
		return core.NormalizeCategoryName(name)
	}
	return fmt.Sprintf("%d", id)
}
