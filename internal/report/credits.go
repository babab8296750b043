package report

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"lendbook/internal/core"
)

type (
	// CreditItem describes one credit of a user; exactly one of Closed or
	// Open is set depending on the credit's status.
	CreditItem struct {
		IssuanceDate time.Time     `json:"issuance_date"`
		IsClosed     bool          `json:"is_closed"`
		Closed       *ClosedCredit `json:"closed,omitempty"`
		Open         *OpenCredit   `json:"open,omitempty"`
	}

	// ClosedCredit reports a returned credit. TotalPaymentsSum covers every
	// payment regardless of type.
	ClosedCredit struct {
		ReturnDate       time.Time       `json:"return_date"`
		Principal        decimal.Decimal `json:"principal"`
		Rate             decimal.Decimal `json:"rate"`
		TotalPaymentsSum decimal.Decimal `json:"total_payments_sum"`
	}

	// OpenCredit reports an outstanding credit with its payment split.
	OpenCredit struct {
		DueDate              time.Time       `json:"due_date"`
		OverdueDays          int             `json:"overdue_days"`
		Principal            decimal.Decimal `json:"principal"`
		Rate                 decimal.Decimal `json:"rate"`
		PrincipalPaymentsSum decimal.Decimal `json:"principal_payments_sum"`
		InterestPaymentsSum  decimal.Decimal `json:"interest_payments_sum"`
	}
)

// EvaluateCredit classifies a loaded credit snapshot as of the given day.
// Pure computation: no clock, no store access.
func EvaluateCredit(snap core.CreditSnapshot, today time.Time) CreditItem {
	c := snap.Credit
	item := CreditItem{IssuanceDate: core.DateOf(c.IssuanceDate), IsClosed: c.Closed()}

	if c.Closed() {
		total := decimal.Zero
		for _, p := range snap.Payments {
			total = total.Add(p.Amount)
		}
		item.Closed = &ClosedCredit{
			ReturnDate:       core.DateOf(*c.ActualReturnDate),
			Principal:        c.Principal,
			Rate:             c.Rate,
			TotalPaymentsSum: total,
		}
		return item
	}

	overdue := core.DaysBetween(core.DateOf(c.ReturnDate), core.DateOf(today))
	if overdue < 0 {
		overdue = 0
	}
	principalSum := decimal.Zero
	interestSum := decimal.Zero
	for _, p := range snap.Payments {
		switch p.TypeID {
		case core.PaymentTypePrincipal:
			principalSum = principalSum.Add(p.Amount)
		case core.PaymentTypeInterest:
			interestSum = interestSum.Add(p.Amount)
		}
	}
	item.Open = &OpenCredit{
		DueDate:              core.DateOf(c.ReturnDate),
		OverdueDays:          overdue,
		Principal:            c.Principal,
		Rate:                 c.Rate,
		PrincipalPaymentsSum: principalSum,
		InterestPaymentsSum:  interestSum,
	}
	return item
}

// Credits serves the per-user credit listing.
type Credits struct {
	store CreditStore
	now   func() time.Time
}

func NewCredits(store CreditStore) *Credits {
	return &Credits{store: store, now: time.Now}
}

// UserCredits evaluates every credit of the user against today.
func (c *Credits) UserCredits(ctx context.Context, userID int64) ([]CreditItem, error) {
	snapshots, err := c.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("credits for user %d: %w", userID, err)
	}
	today := core.DateOf(c.now())
	items := make([]CreditItem, len(snapshots))
	for i, snap := range snapshots {
		items[i] = EvaluateCredit(snap, today)
	}
	return items, nil
}
