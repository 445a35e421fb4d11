package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// TotalsDelta is the contribution of a posted document to its period's
// running revenue/expense totals.
type TotalsDelta struct {
	PeriodID string
	Revenue  decimal.Decimal
	Expenses decimal.Decimal
}

// PeriodTotals is an aggregate over all posted documents of a period.
type PeriodTotals struct {
	Revenue  decimal.Decimal
	Expenses decimal.Decimal
}

// Repository persists journal documents. MarkPosted must commit the status
// transition and the period totals delta in a single transaction; no partial
// posting may ever be visible.
type Repository interface {
	Get(ctx context.Context, id string) (*JournalDocument, error)
	Create(ctx context.Context, doc *JournalDocument) error
	UpdateDraft(ctx context.Context, doc *JournalDocument) error
	Delete(ctx context.Context, id string) error
	ListByPeriod(ctx context.Context, periodID string, status DocumentStatus) ([]*JournalDocument, error)
	CountByPeriodStatus(ctx context.Context, periodID string, status DocumentStatus) (int, error)
	MarkPosted(ctx context.Context, doc *JournalDocument, delta TotalsDelta, postedAt time.Time, postedBy string) error
	MarkCancelled(ctx context.Context, id string, cancelledAt time.Time) error
	SumPostedTotals(ctx context.Context, periodID string) (PeriodTotals, error)
}
