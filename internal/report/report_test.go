package report

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"lendbook/internal/core"
)

type fakeStore struct {
	issuances map[core.MonthKey]core.MonthlyAggregate
	payments  map[core.MonthKey]core.MonthlyAggregate
	planSums  map[core.MonthKey]map[int64]decimal.Decimal

	windowIssuances decimal.Decimal
	windowPayments  decimal.Decimal
	windowFrom      time.Time
	windowTo        time.Time
}

func (f *fakeStore) IssuanceAggregates(_ context.Context, _ int) (map[core.MonthKey]core.MonthlyAggregate, error) {
	return f.issuances, nil
}

func (f *fakeStore) PaymentAggregates(_ context.Context, _ int) (map[core.MonthKey]core.MonthlyAggregate, error) {
	return f.payments, nil
}

func (f *fakeStore) PlanSumsByCategory(_ context.Context, _ int) (map[core.MonthKey]map[int64]decimal.Decimal, error) {
	return f.planSums, nil
}

func (f *fakeStore) SumIssuancesBetween(_ context.Context, from, to time.Time) (decimal.Decimal, error) {
	f.windowFrom, f.windowTo = from, to
	return f.windowIssuances, nil
}

func (f *fakeStore) SumPaymentsBetween(_ context.Context, from, to time.Time) (decimal.Decimal, error) {
	return f.windowPayments, nil
}

type fakePlans struct {
	plans []core.Plan
}

func (f *fakePlans) ListForMonth(_ context.Context, year, month int) ([]core.Plan, error) {
	var out []core.Plan
	for _, p := range f.plans {
		if p.Period.Year() == year && int(p.Period.Month()) == month {
			out = append(out, p)
		}
	}
	return out, nil
}

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

func approx(t *testing.T, got, want float64, label string) {
	t.Helper()
	if math.Abs(got-want) > 0.01 {
		t.Errorf("%s = %v, want ~%v", label, got, want)
	}
}

func TestYearPerformance(t *testing.T) {
	ctx := context.Background()
	march := core.MonthKey{Year: 2024, Month: 3}
	store := &fakeStore{
		issuances: map[core.MonthKey]core.MonthlyAggregate{
			march: {Count: 5, Sum: decimal.NewFromInt(10000)},
		},
		payments: map[core.MonthKey]core.MonthlyAggregate{},
		planSums: map[core.MonthKey]map[int64]decimal.Decimal{
			march: {10: decimal.NewFromInt(12000)},
		},
	}
	svc := NewPerformance(store, &fakePlans{}, testDirectory())

	items, err := svc.YearPerformance(ctx, 2024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 12 {
		t.Fatalf("got %d items, want 12", len(items))
	}

	for _, item := range items {
		if item.Year != 2024 {
			t.Errorf("month %d carries year %d", item.Month, item.Year)
		}
		if item.Month == 3 {
			if item.IssuanceCount != 5 {
				t.Errorf("march count = %d, want 5", item.IssuanceCount)
			}
			if !item.IssuanceSum.Equal(decimal.NewFromInt(10000)) {
				t.Errorf("march sum = %s, want 10000", item.IssuanceSum)
			}
			approx(t, item.IssuancePlanPercent, 83.33, "march issuance plan percent")
			approx(t, item.IssuanceShareOfYearPercent, 100.0, "march share of year")
			continue
		}
		if item.IssuanceCount != 0 || !item.IssuanceSum.IsZero() {
			t.Errorf("month %d has data: count=%d sum=%s", item.Month, item.IssuanceCount, item.IssuanceSum)
		}
		if item.IssuancePlanPercent != 0.0 || item.IssuanceShareOfYearPercent != 0.0 {
			t.Errorf("month %d has non-zero percents", item.Month)
		}
		if item.CollectionPlanPercent != 0.0 || item.PaymentsShareOfYearPercent != 0.0 {
			t.Errorf("month %d has non-zero payment percents", item.Month)
		}
	}
}

func TestYearPerformanceEmptyYear(t *testing.T) {
	store := &fakeStore{
		issuances: map[core.MonthKey]core.MonthlyAggregate{},
		payments:  map[core.MonthKey]core.MonthlyAggregate{},
		planSums:  map[core.MonthKey]map[int64]decimal.Decimal{},
	}
	svc := NewPerformance(store, &fakePlans{}, testDirectory())

	items, err := svc.YearPerformance(context.Background(), 2023)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, item := range items {
		if item.IssuancePlanPercent != 0.0 || item.PaymentsShareOfYearPercent != 0.0 {
			t.Errorf("empty year month %d has non-zero percents", item.Month)
		}
	}
}

func TestPlansPerformance(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{
		windowIssuances: decimal.NewFromInt(7000),
		windowPayments:  decimal.NewFromInt(3000),
	}
	planList := &fakePlans{plans: []core.Plan{
		{ID: 1, Period: core.Date(2024, 3, 1), CategoryID: 10, Amount: decimal.NewFromInt(12000)},
		{ID: 2, Period: core.Date(2024, 3, 1), CategoryID: 11, Amount: decimal.NewFromInt(6000)},
		{ID: 3, Period: core.Date(2024, 3, 1), CategoryID: 99, Amount: decimal.NewFromInt(500)},
	}}
	svc := NewPerformance(store, planList, &fakeDirectory{
		names: map[int64]string{10: "issuance", 11: "collection", 99: "penalties"},
	})

	items, err := svc.PlansPerformance(ctx, core.Date(2024, 3, 15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}

	if !store.windowFrom.Equal(core.Date(2024, 3, 1)) || !store.windowTo.Equal(core.Date(2024, 3, 15)) {
		t.Errorf("window = [%v, %v], want [2024-03-01, 2024-03-15]", store.windowFrom, store.windowTo)
	}

	byCategory := map[string]PlanPerformance{}
	for _, item := range items {
		byCategory[item.Category] = item
	}

	issuance := byCategory["issuance"]
	approx(t, issuance.PlanPercent, 58.33, "issuance plan percent")
	if !issuance.ActualSum.Equal(decimal.NewFromInt(7000)) {
		t.Errorf("issuance actual = %s, want 7000", issuance.ActualSum)
	}

	collection := byCategory["collection"]
	approx(t, collection.PlanPercent, 50.0, "collection plan percent")

	other := byCategory["penalties"]
	if !other.ActualSum.IsZero() {
		t.Errorf("unmatched category actual = %s, want 0", other.ActualSum)
	}
	if other.PlanPercent != 0.0 {
		t.Errorf("unmatched category percent = %v, want 0.0", other.PlanPercent)
	}
}

func TestPlansPerformanceWindowClampsToMonthEnd(t *testing.T) {
	store := &fakeStore{}
	svc := NewPerformance(store, &fakePlans{}, testDirectory())

	// asOf past the end of the month must clamp to the month's last day.
	if _, err := svc.PlansPerformance(context.Background(), core.Date(2024, 2, 29)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !store.windowTo.Equal(core.Date(2024, 2, 29)) {
		t.Errorf("window end = %v, want 2024-02-29", store.windowTo)
	}
	if !store.windowFrom.Equal(core.Date(2024, 2, 1)) {
		t.Errorf("window start = %v, want 2024-02-01", store.windowFrom)
	}
}

func TestPlansPerformanceZeroPlan(t *testing.T) {
	store := &fakeStore{windowIssuances: decimal.NewFromInt(7000)}
	planList := &fakePlans{plans: []core.Plan{
		{ID: 1, Period: core.Date(2024, 3, 1), CategoryID: 10, Amount: decimal.Zero},
	}}
	svc := NewPerformance(store, planList, testDirectory())

	items, err := svc.PlansPerformance(context.Background(), core.Date(2024, 3, 15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if items[0].PlanPercent != 0.0 {
		t.Errorf("zero plan percent = %v, want 0.0", items[0].PlanPercent)
	}
}
