package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	periods "ledger-core/internal/periods/domain"
)

const defaultPeriodTable = "accounting_periods"

// PeriodRepository is a Postgres implementation for accounting periods.
type PeriodRepository struct {
	db    *sql.DB
	table string
}

// NewPeriodRepository constructs a repository with defaults.
func NewPeriodRepository(db *sql.DB, opts ...RepositoryOption) *PeriodRepository {
	repo := &PeriodRepository{db: db, table: defaultPeriodTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// RepositoryOption configures the repository.
type RepositoryOption func(*PeriodRepository)

// WithTable overrides the default table.
func WithTable(table string) RepositoryOption {
	return func(repo *PeriodRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

const periodColumns = `id, name, start_date, end_date, is_closed,
	COALESCE(closed_at, 'epoch'::timestamptz), COALESCE(closed_by, ''),
	total_revenue, total_expenses, net_income, created_at, updated_at`

func scanPeriod(row interface{ Scan(...any) error }) (*periods.Period, error) {
	var period periods.Period
	if err := row.Scan(&period.ID, &period.Name, &period.StartDate, &period.EndDate, &period.IsClosed,
		&period.ClosedAt, &period.ClosedBy,
		&period.TotalRevenue, &period.TotalExpenses, &period.NetIncome,
		&period.CreatedAt, &period.UpdatedAt); err != nil {
		return nil, err
	}
	return &period, nil
}

// Get loads a period by id.
func (r *PeriodRepository) Get(ctx context.Context, id string) (*periods.Period, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("period repo: nil db")
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1 LIMIT 1`, periodColumns, r.table)
	period, err := scanPeriod(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return period, err
}

// List returns all periods ordered by start date.
func (r *PeriodRepository) List(ctx context.Context) ([]*periods.Period, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("period repo: nil db")
	}
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY start_date ASC`, periodColumns, r.table)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*periods.Period, 0)
	for rows.Next() {
		period, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, period)
	}
	return result, rows.Err()
}

// Create inserts a period after checking for range overlap inside one
// transaction. The table is locked against concurrent inserts via the
// overlap query running under the same snapshot as the insert.
func (r *PeriodRepository) Create(ctx context.Context, period *periods.Period) error {
	if r == nil || r.db == nil {
		return errors.New("period repo: nil db")
	}
	if period == nil {
		return periods.ErrPeriodNotFound
	}
	if err := period.Validate(); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	overlap := fmt.Sprintf(`
SELECT id, name, start_date, end_date
FROM %s
WHERE start_date <= $2 AND $1 <= end_date
LIMIT 1`, r.table)

	var existing periods.OverlapError
	err = tx.QueryRowContext(ctx, overlap, period.StartDate.UTC(), period.EndDate.UTC()).
		Scan(&existing.ExistingID, &existing.ExistingName, &existing.Start, &existing.End)
	if err == nil {
		return existing
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	insert := fmt.Sprintf(`
INSERT INTO %s (
	id, name, start_date, end_date, is_closed,
	total_revenue, total_expenses, net_income, created_at, updated_at
) VALUES ($1,$2,$3,$4,false,0,0,0,$5,$5)`, r.table)
	if _, err := tx.ExecContext(ctx, insert,
		period.ID, period.Name, period.StartDate.UTC(), period.EndDate.UTC(), period.CreatedAt.UTC()); err != nil {
		return err
	}
	return tx.Commit()
}

// FindByDate returns the period containing the given date.
func (r *PeriodRepository) FindByDate(ctx context.Context, date time.Time) (*periods.Period, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("period repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT %s FROM %s
WHERE start_date <= $1 AND $1 <= end_date
LIMIT 1`, periodColumns, r.table)
	period, err := scanPeriod(r.db.QueryRowContext(ctx, query, date.UTC()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return period, err
}

// MarkClosed commits the open->closed transition with recomputed totals.
func (r *PeriodRepository) MarkClosed(ctx context.Context, id string, totals periods.ClosedTotals, closedAt time.Time, closedBy string) error {
	if r == nil || r.db == nil {
		return errors.New("period repo: nil db")
	}

	update := fmt.Sprintf(`
UPDATE %s
SET is_closed = true, closed_at = $2, closed_by = $3,
	total_revenue = $4, total_expenses = $5, net_income = $4 - $5,
	updated_at = $2
WHERE id = $1 AND is_closed = false`, r.table)

	result, err := r.db.ExecContext(ctx, update, id, closedAt.UTC(), closedBy, totals.Revenue, totals.Expenses)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		existing, err := r.Get(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return periods.ErrPeriodNotFound
		}
		return periods.ErrPeriodClosed
	}
	return nil
}
