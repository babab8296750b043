package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Canonical plan category names. Category ids are seeded reference data and
// are always resolved through the directory, never hardcoded.
const (
	CategoryIssuance   = "issuance"
	CategoryCollection = "collection"
)

// Payment type ids from the reference dictionary. Payments with any other
// type id are excluded from the principal/interest split.
const (
	PaymentTypePrincipal int64 = 1
	PaymentTypeInterest  int64 = 2
)

type (
	// Category is immutable reference data mapping an id to a display name.
	Category struct {
		ID   int64
		Name string
	}

	// PlanRow is a validated spreadsheet row that has not been persisted yet.
	// SourceRow is the 1-indexed spreadsheet row (header is row 1).
	PlanRow struct {
		Period     time.Time
		CategoryID int64
		Amount     decimal.Decimal
		SourceRow  int
	}

	// Plan is a persisted monthly target for one category. Period is always
	// the first day of its month; (Period, CategoryID) is unique store-wide.
	Plan struct {
		ID         int64
		Period     time.Time
		Amount     decimal.Decimal
		CategoryID int64
	}

	// Credit is a disbursed loan. A credit is closed iff ActualReturnDate is
	// set; open otherwise.
	Credit struct {
		ID               int64
		UserID           int64
		IssuanceDate     time.Time
		ReturnDate       time.Time
		ActualReturnDate *time.Time
		Principal        decimal.Decimal
		Rate             decimal.Decimal
	}

	// Payment is a collection against a credit.
	Payment struct {
		ID          int64
		Amount      decimal.Decimal
		PaymentDate time.Time
		CreditID    int64
		TypeID      int64
	}

	// CreditSnapshot is a credit with its payments eagerly loaded. Status
	// evaluation works on snapshots only, never on a live entity graph.
	CreditSnapshot struct {
		Credit   Credit
		Payments []Payment
	}

	// User owns credits. Carried for seeding and the credit listing.
	User struct {
		ID               int64
		Login            string
		RegistrationDate time.Time
	}

	// MonthKey identifies one calendar month.
	MonthKey struct {
		Year  int
		Month int // 1-12
	}

	// MonthlyAggregate holds a record count and an exact sum for one month.
	MonthlyAggregate struct {
		Count int64
		Sum   decimal.Decimal
	}
)

// Closed reports whether the credit has been returned.
func (c Credit) Closed() bool {
	return c.ActualReturnDate != nil
}

// NormalizeCategoryName lowercases and trims a category name for lookups.
// The directory itself stores names verbatim; all consumers normalize.
func NormalizeCategoryName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
