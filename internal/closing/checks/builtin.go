package checks

import (
	"context"
	"fmt"

	closing "ledger-core/internal/closing/domain"
	ledger "ledger-core/internal/ledger/domain"
	periods "ledger-core/internal/periods/domain"
)

// Check is a single named pre-close validation against a period.
type Check interface {
	ID() string
	Name() string
	Category() string
	Run(ctx context.Context, period *periods.Period) error
}

// DocumentReader is the slice of the ledger repository the checks need.
type DocumentReader interface {
	ListByPeriod(ctx context.Context, periodID string, status ledger.DocumentStatus) ([]*ledger.JournalDocument, error)
	CountByPeriodStatus(ctx context.Context, periodID string, status ledger.DocumentStatus) (int, error)
}

// ReconciliationSource reports open bank reconciliation items for a period.
type ReconciliationSource interface {
	UnreconciledCount(ctx context.Context, periodID string) (int, error)
}

// InventorySource reports the inventory subledger and valuation totals.
type InventorySource interface {
	Balances(ctx context.Context, periodID string) (ledgerBalance, valuation float64, err error)
}

// DraftBacklog fails while any draft document remains in the period.
type DraftBacklog struct {
	Docs DocumentReader
}

func (DraftBacklog) ID() string       { return "draft-backlog" }
func (DraftBacklog) Name() string     { return "No draft documents remain in period" }
func (DraftBacklog) Category() string { return "ledger" }

func (c DraftBacklog) Run(ctx context.Context, period *periods.Period) error {
	count, err := c.Docs.CountByPeriodStatus(ctx, period.ID, ledger.StatusDraft)
	if err != nil {
		return err
	}
	if count > 0 {
		return closing.CheckFailedError{Reason: fmt.Sprintf("%d draft document(s) still in period", count)}
	}
	return nil
}

// PostedBalance re-validates that every posted document individually balances.
type PostedBalance struct {
	Docs DocumentReader
}

func (PostedBalance) ID() string       { return "posted-balance" }
func (PostedBalance) Name() string     { return "All posted documents balance" }
func (PostedBalance) Category() string { return "ledger" }

func (c PostedBalance) Run(ctx context.Context, period *periods.Period) error {
	docs, err := c.Docs.ListByPeriod(ctx, period.ID, ledger.StatusPosted)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		debit, credit := doc.Totals()
		if debit.Sub(credit).Abs().GreaterThan(ledger.Epsilon) {
			return closing.CheckFailedError{
				Reason: fmt.Sprintf("document %s is unbalanced: debits %s, credits %s",
					doc.Number, debit.StringFixed(2), credit.StringFixed(2)),
			}
		}
	}
	return nil
}

// BankReconciliation fails while unreconciled bank statement items remain.
type BankReconciliation struct {
	Source ReconciliationSource
}

func (BankReconciliation) ID() string       { return "bank-reconciliation" }
func (BankReconciliation) Name() string     { return "Bank accounts reconciled" }
func (BankReconciliation) Category() string { return "banking" }

func (c BankReconciliation) Run(ctx context.Context, period *periods.Period) error {
	count, err := c.Source.UnreconciledCount(ctx, period.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return closing.CheckFailedError{Reason: fmt.Sprintf("%d unreconciled bank item(s)", count)}
	}
	return nil
}

// InventoryValuation compares the inventory subledger against valuation.
type InventoryValuation struct {
	Source InventorySource
}

func (InventoryValuation) ID() string       { return "inventory-valuation" }
func (InventoryValuation) Name() string     { return "Inventory ledger matches valuation" }
func (InventoryValuation) Category() string { return "inventory" }

func (c InventoryValuation) Run(ctx context.Context, period *periods.Period) error {
	balance, valuation, err := c.Source.Balances(ctx, period.ID)
	if err != nil {
		return err
	}
	diff := balance - valuation
	if diff < 0 {
		diff = -diff
	}
	if diff > 0.01 {
		return closing.CheckFailedError{
			Reason: fmt.Sprintf("inventory ledger %.2f differs from valuation %.2f", balance, valuation),
		}
	}
	return nil
}
