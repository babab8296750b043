// Package storage is the SQLite adapter behind every repository port:
// category directory, plan store, performance aggregates and the credit
// listing. Monetary columns hold int64 ten-thousandths so SQL SUM stays in
// the exact domain; conversion to decimals happens at the boundary.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"lendbook/internal/core"
)

const dateLayout = "2006-01-02"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Names implements the category directory port.
func (r *SQLiteRepository) Names(ctx context.Context) (map[int64]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM categories`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	names := make(map[int64]string)
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		names[id] = name
	}
	return names, rows.Err()
}

// IDByName resolves an exact category name to its id.
func (r *SQLiteRepository) IDByName(ctx context.Context, name string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM categories WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("category %q: %w", name, core.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("find category %q: %w", name, err)
	}
	return id, nil
}

// ListForMonth returns the persisted plans of one calendar month.
func (r *SQLiteRepository) ListForMonth(ctx context.Context, year, month int) ([]core.Plan, error) {
	start := core.Date(year, month, 1)
	end := core.MonthEnd(start)
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, period, amount_units, category_id
		FROM plans
		WHERE period >= ? AND period <= ?
		ORDER BY id`,
		start.Format(dateLayout), end.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("list plans for %d-%02d: %w", year, month, err)
	}
	defer rows.Close()

	var plans []core.Plan
	for rows.Next() {
		var p core.Plan
		var period string
		var units int64
		if err := rows.Scan(&p.ID, &period, &units, &p.CategoryID); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		if p.Period, err = time.Parse(dateLayout, period); err != nil {
			return nil, fmt.Errorf("parse plan period %q: %w", period, err)
		}
		p.Amount = core.AmountFromUnits(units)
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// Exists reports whether a plan for the (period, category) pair is stored.
func (r *SQLiteRepository) Exists(ctx context.Context, period time.Time, categoryID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM plans WHERE period = ? AND category_id = ?)`,
		period.Format(dateLayout), categoryID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check plan existence: %w", err)
	}
	return exists, nil
}

// BatchUpsert writes a validated batch in one transaction: commit on
// success, rollback on any error, no partial writes.
func (r *SQLiteRepository) BatchUpsert(ctx context.Context, entities []core.Plan) error {
	if len(entities) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin plan batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO plans (period, amount_units, category_id)
		VALUES (?, ?, ?)
		ON CONFLICT (period, category_id)
		DO UPDATE SET amount_units = excluded.amount_units`)
	if err != nil {
		return fmt.Errorf("prepare plan upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range entities {
		if _, err := stmt.ExecContext(ctx,
			p.Period.Format(dateLayout), core.AmountUnits(p.Amount), p.CategoryID); err != nil {
			return fmt.Errorf("upsert plan %s/%d: %w", p.Period.Format(dateLayout), p.CategoryID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit plan batch: %w", err)
	}
	return nil
}

// IssuanceAggregates returns per-month count and principal sum of credits
// issued in the year.
func (r *SQLiteRepository) IssuanceAggregates(ctx context.Context, year int) (map[core.MonthKey]core.MonthlyAggregate, error) {
	return r.monthlyAggregates(ctx, year, `
		SELECT CAST(strftime('%m', issuance_date) AS INTEGER),
		       COUNT(id),
		       COALESCE(SUM(principal_units), 0)
		FROM credits
		WHERE strftime('%Y', issuance_date) = ?
		GROUP BY 1`)
}

// PaymentAggregates returns per-month count and amount sum of payments
// received in the year.
func (r *SQLiteRepository) PaymentAggregates(ctx context.Context, year int) (map[core.MonthKey]core.MonthlyAggregate, error) {
	return r.monthlyAggregates(ctx, year, `
		SELECT CAST(strftime('%m', payment_date) AS INTEGER),
		       COUNT(id),
		       COALESCE(SUM(amount_units), 0)
		FROM payments
		WHERE strftime('%Y', payment_date) = ?
		GROUP BY 1`)
}

func (r *SQLiteRepository) monthlyAggregates(ctx context.Context, year int, query string) (map[core.MonthKey]core.MonthlyAggregate, error) {
	rows, err := r.db.QueryContext(ctx, query, fmt.Sprintf("%04d", year))
	if err != nil {
		return nil, fmt.Errorf("monthly aggregates for %d: %w", year, err)
	}
	defer rows.Close()

	out := make(map[core.MonthKey]core.MonthlyAggregate)
	for rows.Next() {
		var month int
		var count, units int64
		if err := rows.Scan(&month, &count, &units); err != nil {
			return nil, fmt.Errorf("scan aggregate: %w", err)
		}
		out[core.MonthKey{Year: year, Month: month}] = core.MonthlyAggregate{
			Count: count,
			Sum:   core.AmountFromUnits(units),
		}
	}
	return out, rows.Err()
}

// PlanSumsByCategory returns per-month plan sums keyed by category id.
func (r *SQLiteRepository) PlanSumsByCategory(ctx context.Context, year int) (map[core.MonthKey]map[int64]decimal.Decimal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT CAST(strftime('%m', period) AS INTEGER),
		       category_id,
		       COALESCE(SUM(amount_units), 0)
		FROM plans
		WHERE strftime('%Y', period) = ?
		GROUP BY 1, 2`,
		fmt.Sprintf("%04d", year))
	if err != nil {
		return nil, fmt.Errorf("plan sums for %d: %w", year, err)
	}
	defer rows.Close()

	out := make(map[core.MonthKey]map[int64]decimal.Decimal)
	for rows.Next() {
		var month int
		var categoryID, units int64
		if err := rows.Scan(&month, &categoryID, &units); err != nil {
			return nil, fmt.Errorf("scan plan sum: %w", err)
		}
		key := core.MonthKey{Year: year, Month: month}
		bucket := out[key]
		if bucket == nil {
			bucket = make(map[int64]decimal.Decimal)
			out[key] = bucket
		}
		bucket[categoryID] = core.AmountFromUnits(units)
	}
	return out, rows.Err()
}

// SumIssuancesBetween sums credit principals issued in [from, to].
func (r *SQLiteRepository) SumIssuancesBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	return r.sumBetween(ctx, `
		SELECT COALESCE(SUM(principal_units), 0)
		FROM credits
		WHERE issuance_date >= ? AND issuance_date <= ?`, from, to)
}

// SumPaymentsBetween sums payments received in [from, to].
func (r *SQLiteRepository) SumPaymentsBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	return r.sumBetween(ctx, `
		SELECT COALESCE(SUM(amount_units), 0)
		FROM payments
		WHERE payment_date >= ? AND payment_date <= ?`, from, to)
}

func (r *SQLiteRepository) sumBetween(ctx context.Context, query string, from, to time.Time) (decimal.Decimal, error) {
	var units int64
	err := r.db.QueryRowContext(ctx, query,
		from.Format(dateLayout), to.Format(dateLayout)).Scan(&units)
	if err != nil {
		return decimal.Zero, fmt.Errorf("windowed sum: %w", err)
	}
	return core.AmountFromUnits(units), nil
}

// ListByUser loads a user's credits with their payments eagerly attached.
func (r *SQLiteRepository) ListByUser(ctx context.Context, userID int64) ([]core.CreditSnapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, issuance_date, return_date, actual_return_date,
		       principal_units, rate_units
		FROM credits
		WHERE user_id = ?
		ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list credits for user %d: %w", userID, err)
	}
	defer rows.Close()

	var snapshots []core.CreditSnapshot
	index := make(map[int64]int)
	for rows.Next() {
		var c core.Credit
		var issuance, ret string
		var actual sql.NullString
		var principalUnits, rateUnits int64
		if err := rows.Scan(&c.ID, &c.UserID, &issuance, &ret, &actual, &principalUnits, &rateUnits); err != nil {
			return nil, fmt.Errorf("scan credit: %w", err)
		}
		if c.IssuanceDate, err = time.Parse(dateLayout, issuance); err != nil {
			return nil, fmt.Errorf("parse issuance date %q: %w", issuance, err)
		}
		if c.ReturnDate, err = time.Parse(dateLayout, ret); err != nil {
			return nil, fmt.Errorf("parse return date %q: %w", ret, err)
		}
		if actual.Valid {
			t, err := time.Parse(dateLayout, actual.String)
			if err != nil {
				return nil, fmt.Errorf("parse actual return date %q: %w", actual.String, err)
			}
			c.ActualReturnDate = &t
		}
		c.Principal = core.AmountFromUnits(principalUnits)
		c.Rate = core.AmountFromUnits(rateUnits)
		index[c.ID] = len(snapshots)
		snapshots = append(snapshots, core.CreditSnapshot{Credit: c})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, nil
	}

	payRows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.amount_units, p.payment_date, p.credit_id, p.type_id
		FROM payments p
		JOIN credits c ON c.id = p.credit_id
		WHERE c.user_id = ?
		ORDER BY p.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list payments for user %d: %w", userID, err)
	}
	defer payRows.Close()

	for payRows.Next() {
		var p core.Payment
		var units int64
		var payDate string
		if err := payRows.Scan(&p.ID, &units, &payDate, &p.CreditID, &p.TypeID); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		if p.PaymentDate, err = time.Parse(dateLayout, payDate); err != nil {
			return nil, fmt.Errorf("parse payment date %q: %w", payDate, err)
		}
		p.Amount = core.AmountFromUnits(units)
		if i, ok := index[p.CreditID]; ok {
			snapshots[i].Payments = append(snapshots[i].Payments, p)
		}
	}
	return snapshots, payRows.Err()
}
