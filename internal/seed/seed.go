package seed

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"lendbook/internal/core"
)

// Store is the subset of the repository the seeder writes through.
type Store interface {
	HasUsers(ctx context.Context) (bool, error)
	InsertUsers(ctx context.Context, users []core.User) error
	InsertCategories(ctx context.Context, categories []core.Category) error
	InsertCredits(ctx context.Context, credits []core.Credit) error
	InsertPayments(ctx context.Context, payments []core.Payment) error
	InsertPlans(ctx context.Context, plans []core.Plan) error
}

// Loader populates an empty database from tab-separated CSV files. The file
// set mirrors the exported dataset: users.csv, dictionary.csv, credits.csv,
// plans.csv and payments.csv, each with a header row.
type Loader struct {
	store Store
	dir   string
}

func NewLoader(store Store, dir string) *Loader {
	return &Loader{store: store, dir: dir}
}

// SeedIfEmpty loads the dataset when the store holds no users yet. It
// returns (false, nil) when the store already has data or the seed
// directory does not exist.
func (l *Loader) SeedIfEmpty(ctx context.Context) (bool, error) {
	if _, err := os.Stat(l.dir); os.IsNotExist(err) {
		return false, nil
	}

	exists, err := l.store.HasUsers(ctx)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	if err := l.loadAll(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Insertion order follows the foreign keys: users and categories first,
// then credits, then plans and payments.
func (l *Loader) loadAll(ctx context.Context) error {
	users, err := l.loadUsers()
	if err != nil {
		return err
	}
	categories, err := l.loadCategories()
	if err != nil {
		return err
	}
	credits, err := l.loadCredits()
	if err != nil {
		return err
	}
	plans, err := l.loadPlans()
	if err != nil {
		return err
	}
	payments, err := l.loadPayments()
	if err != nil {
		return err
	}

	if err := l.store.InsertUsers(ctx, users); err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	if err := l.store.InsertCategories(ctx, categories); err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	if err := l.store.InsertCredits(ctx, credits); err != nil {
		return fmt.Errorf("seed credits: %w", err)
	}
	if err := l.store.InsertPlans(ctx, plans); err != nil {
		return fmt.Errorf("seed plans: %w", err)
	}
	if err := l.store.InsertPayments(ctx, payments); err != nil {
		return fmt.Errorf("seed payments: %w", err)
	}
	return nil
}

func (l *Loader) loadUsers() ([]core.User, error) {
	var users []core.User
	err := l.readFile("users.csv", func(row record) error {
		id, err := row.int64("id")
		if err != nil {
			return err
		}
		registered, err := row.date("registration_date")
		if err != nil {
			return err
		}
		users = append(users, core.User{
			ID:               id,
			Login:            row.get("login"),
			RegistrationDate: registered,
		})
		return nil
	})
	return users, err
}

func (l *Loader) loadCategories() ([]core.Category, error) {
	var categories []core.Category
	err := l.readFile("dictionary.csv", func(row record) error {
		id, err := row.int64("id")
		if err != nil {
			return err
		}
		categories = append(categories, core.Category{ID: id, Name: row.get("name")})
		return nil
	})
	return categories, err
}

func (l *Loader) loadCredits() ([]core.Credit, error) {
	var credits []core.Credit
	err := l.readFile("credits.csv", func(row record) error {
		id, err := row.int64("id")
		if err != nil {
			return err
		}
		userID, err := row.int64("user_id")
		if err != nil {
			return err
		}
		issued, err := row.date("issuance_date")
		if err != nil {
			return err
		}
		due, err := row.date("return_date")
		if err != nil {
			return err
		}
		actual, err := row.optionalDate("actual_return_date")
		if err != nil {
			return err
		}
		principal, err := row.amount("body")
		if err != nil {
			return err
		}
		rate, err := row.amount("percent")
		if err != nil {
			return err
		}
		credits = append(credits, core.Credit{
			ID:               id,
			UserID:           userID,
			IssuanceDate:     issued,
			ReturnDate:       due,
			ActualReturnDate: actual,
			Principal:        principal,
			Rate:             rate,
		})
		return nil
	})
	return credits, err
}

func (l *Loader) loadPlans() ([]core.Plan, error) {
	var plans []core.Plan
	err := l.readFile("plans.csv", func(row record) error {
		id, err := row.int64("id")
		if err != nil {
			return err
		}
		period, err := row.date("period")
		if err != nil {
			return err
		}
		amount, err := row.amount("sum")
		if err != nil {
			return err
		}
		categoryID, err := row.int64("category_id")
		if err != nil {
			return err
		}
		plans = append(plans, core.Plan{
			ID:         id,
			Period:     period,
			Amount:     amount,
			CategoryID: categoryID,
		})
		return nil
	})
	return plans, err
}

func (l *Loader) loadPayments() ([]core.Payment, error) {
	var payments []core.Payment
	err := l.readFile("payments.csv", func(row record) error {
		id, err := row.int64("id")
		if err != nil {
			return err
		}
		amount, err := row.amount("sum")
		if err != nil {
			return err
		}
		paid, err := row.date("payment_date")
		if err != nil {
			return err
		}
		creditID, err := row.int64("credit_id")
		if err != nil {
			return err
		}
		typeID, err := row.int64("type_id")
		if err != nil {
			return err
		}
		payments = append(payments, core.Payment{
			ID:          id,
			Amount:      amount,
			PaymentDate: paid,
			CreditID:    creditID,
			TypeID:      typeID,
		})
		return nil
	})
	return payments, err
}

// record is one CSV data row addressed by header name.
type record struct {
	file   string
	line   int
	index  map[string]int
	fields []string
}

func (r record) get(name string) string {
	idx, ok := r.index[name]
	if !ok || idx >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[idx])
}

func (r record) int64(name string) (int64, error) {
	v := r.get(name)
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s line %d: column %q: invalid integer %q", r.file, r.line, name, v)
	}
	return n, nil
}

func (r record) date(name string) (time.Time, error) {
	v := r.get(name)
	t, err := core.ParseDate(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s line %d: column %q: invalid date %q", r.file, r.line, name, v)
	}
	return t, nil
}

func (r record) optionalDate(name string) (*time.Time, error) {
	if r.get(name) == "" {
		return nil, nil
	}
	t, err := r.date(name)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r record) amount(name string) (decimal.Decimal, error) {
	v := r.get(name)
	d, err := core.ParseAmount(v)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%s line %d: column %q: invalid amount %q", r.file, r.line, name, v)
	}
	return d, nil
}

func (l *Loader) readFile(name string, each func(record) error) error {
	f, err := os.Open(filepath.Join(l.dir, name))
	if err != nil {
		return fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("read %s: missing header row", name)
	}

	index := make(map[string]int, len(rows[0]))
	for i, col := range rows[0] {
		index[strings.TrimSpace(col)] = i
	}

	for i, fields := range rows[1:] {
		row := record{file: name, line: i + 2, index: index, fields: fields}
		if err := each(row); err != nil {
			return err
		}
	}
	return nil
}
