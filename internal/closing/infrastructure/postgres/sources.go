package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const (
	defaultReconciliationTable = "bank_reconciliation_items"
	defaultInventoryTable      = "inventory_valuations"
)

// ReconciliationSource reads bank reconciliation state from Postgres.
type ReconciliationSource struct {
	db    *sql.DB
	table string
}

// NewReconciliationSource constructs a source.
func NewReconciliationSource(db *sql.DB, opts ...ReconciliationOption) *ReconciliationSource {
	source := &ReconciliationSource{db: db, table: defaultReconciliationTable}
	for _, opt := range opts {
		opt(source)
	}
	return source
}

// ReconciliationOption configures the source.
type ReconciliationOption func(*ReconciliationSource)

// WithReconciliationTable overrides the table name.
func WithReconciliationTable(table string) ReconciliationOption {
	return func(source *ReconciliationSource) {
		if table != "" {
			source.table = table
		}
	}
}

// UnreconciledCount returns the number of open bank items for a period.
func (s *ReconciliationSource) UnreconciledCount(ctx context.Context, periodID string) (int, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("reconciliation source: nil db")
	}
	query := fmt.Sprintf(`
SELECT COUNT(*)
FROM %s
WHERE period_id = $1 AND reconciled = false`, s.table)
	var count int
	if err := s.db.QueryRowContext(ctx, query, periodID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// InventorySource reads inventory valuation state from Postgres.
type InventorySource struct {
	db    *sql.DB
	table string
}

// NewInventorySource constructs a source.
func NewInventorySource(db *sql.DB, opts ...InventoryOption) *InventorySource {
	source := &InventorySource{db: db, table: defaultInventoryTable}
	for _, opt := range opts {
		opt(source)
	}
	return source
}

// InventoryOption configures the source.
type InventoryOption func(*InventorySource)

// WithInventoryTable overrides the table name.
func WithInventoryTable(table string) InventoryOption {
	return func(source *InventorySource) {
		if table != "" {
			source.table = table
		}
	}
}

// Balances sums the inventory ledger balance and the valuation total for a
// period. A period with no rows counts as balanced.
func (s *InventorySource) Balances(ctx context.Context, periodID string) (float64, float64, error) {
	if s == nil || s.db == nil {
		return 0, 0, errors.New("inventory source: nil db")
	}
	query := fmt.Sprintf(`
SELECT COALESCE(SUM(ledger_balance), 0), COALESCE(SUM(valuation), 0)
FROM %s
WHERE period_id = $1`, s.table)
	var ledgerBalance, valuation float64
	if err := s.db.QueryRowContext(ctx, query, periodID).Scan(&ledgerBalance, &valuation); err != nil {
		return 0, 0, err
	}
	return ledgerBalance, valuation, nil
}
