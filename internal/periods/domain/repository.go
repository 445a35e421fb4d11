package periods

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ClosedTotals carries the recomputed totals committed at close time.
type ClosedTotals struct {
	Revenue  decimal.Decimal
	Expenses decimal.Decimal
}

// Repository persists accounting periods. Create must reject ranges that
// overlap an existing period; MarkClosed must be a single atomic write.
type Repository interface {
	Get(ctx context.Context, id string) (*Period, error)
	List(ctx context.Context) ([]*Period, error)
	Create(ctx context.Context, period *Period) error
	FindByDate(ctx context.Context, date time.Time) (*Period, error)
	MarkClosed(ctx context.Context, id string, totals ClosedTotals, closedAt time.Time, closedBy string) error
}
