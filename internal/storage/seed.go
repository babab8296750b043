package storage

import (
	"context"
	"database/sql"
	"fmt"

	"lendbook/internal/core"
)

// Seeding inserts keep the source ids so credits, payments and plans stay
// linked exactly as shipped in the seed files.

// HasUsers reports whether the store already holds data; seeding only runs
// against an empty store.
func (r *SQLiteRepository) HasUsers(ctx context.Context) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users LIMIT 1)`).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check users: %w", err)
	}
	return exists, nil
}

func (r *SQLiteRepository) InsertUsers(ctx context.Context, users []core.User) error {
	return r.insertBatch(ctx, `INSERT INTO users (id, login, registration_date) VALUES (?, ?, ?)`,
		len(users), func(i int) []any {
			u := users[i]
			return []any{u.ID, u.Login, u.RegistrationDate.Format(dateLayout)}
		})
}

func (r *SQLiteRepository) InsertCategories(ctx context.Context, categories []core.Category) error {
	return r.insertBatch(ctx, `INSERT INTO categories (id, name) VALUES (?, ?)`,
		len(categories), func(i int) []any {
			c := categories[i]
			return []any{c.ID, c.Name}
		})
}

func (r *SQLiteRepository) InsertCredits(ctx context.Context, credits []core.Credit) error {
	return r.insertBatch(ctx, `
		INSERT INTO credits (id, user_id, issuance_date, return_date, actual_return_date, principal_units, rate_units)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		len(credits), func(i int) []any {
			c := credits[i]
			var actual sql.NullString
			if c.ActualReturnDate != nil {
				actual = sql.NullString{String: c.ActualReturnDate.Format(dateLayout), Valid: true}
			}
			return []any{
				c.ID, c.UserID,
				c.IssuanceDate.Format(dateLayout), c.ReturnDate.Format(dateLayout), actual,
				core.AmountUnits(c.Principal), core.AmountUnits(c.Rate),
			}
		})
}

func (r *SQLiteRepository) InsertPayments(ctx context.Context, payments []core.Payment) error {
	return r.insertBatch(ctx, `
		INSERT INTO payments (id, amount_units, payment_date, credit_id, type_id)
		VALUES (?, ?, ?, ?, ?)`,
		len(payments), func(i int) []any {
			p := payments[i]
			return []any{p.ID, core.AmountUnits(p.Amount), p.PaymentDate.Format(dateLayout), p.CreditID, p.TypeID}
		})
}

func (r *SQLiteRepository) InsertPlans(ctx context.Context, plans []core.Plan) error {
	return r.insertBatch(ctx, `
		INSERT INTO plans (id, period, amount_units, category_id)
		VALUES (?, ?, ?, ?)`,
		len(plans), func(i int) []any {
			p := plans[i]
			return []any{p.ID, p.Period.Format(dateLayout), core.AmountUnits(p.Amount), p.CategoryID}
		})
}

func (r *SQLiteRepository) insertBatch(ctx context.Context, query string, n int, args func(int) []any) error {
	if n == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare seed insert: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			return fmt.Errorf("seed insert row %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed batch: %w", err)
	}
	return nil
}
