package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	periods "ledger-core/internal/periods/domain"
)

// PeriodRepository is an in-memory accounting period store.
type PeriodRepository struct {
	mu   sync.RWMutex
	data map[string]*periods.Period
}

// NewPeriodRepository constructs an empty repository.
func NewPeriodRepository() *PeriodRepository {
	return &PeriodRepository{data: make(map[string]*periods.Period)}
}

// Get loads a period by id.
func (r *PeriodRepository) Get(ctx context.Context, id string) (*periods.Period, error) {
	_ = ctx
	r.mu.RLock()
	period := r.data[id]
	r.mu.RUnlock()
	return period.Clone(), nil
}

// List returns all periods ordered by start date.
func (r *PeriodRepository) List(ctx context.Context) ([]*periods.Period, error) {
	_ = ctx
	r.mu.RLock()
	result := make([]*periods.Period, 0, len(r.data))
	for _, period := range r.data {
		result = append(result, period.Clone())
	}
	r.mu.RUnlock()
	sort.Slice(result, func(i, j int) bool { return result[i].StartDate.Before(result[j].StartDate) })
	return result, nil
}

// Create stores a period, rejecting overlapping ranges.
func (r *PeriodRepository) Create(ctx context.Context, period *periods.Period) error {
	_ = ctx
	if period == nil {
		return periods.ErrPeriodNotFound
	}
	if err := period.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.data {
		if existing.Overlaps(*period) {
			return periods.OverlapError{
				ExistingID:   existing.ID,
				ExistingName: existing.Name,
				Start:        existing.StartDate,
				End:          existing.EndDate,
			}
		}
	}
	r.data[period.ID] = period.Clone()
	return nil
}

// FindByDate returns the period containing the given date.
func (r *PeriodRepository) FindByDate(ctx context.Context, date time.Time) (*periods.Period, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, period := range r.data {
		if period.Contains(date) {
			return period.Clone(), nil
		}
	}
	return nil, nil
}

// MarkClosed commits the open->closed transition with recomputed totals.
func (r *PeriodRepository) MarkClosed(ctx context.Context, id string, totals periods.ClosedTotals, closedAt time.Time, closedBy string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	period := r.data[id]
	if period == nil {
		return periods.ErrPeriodNotFound
	}
	if period.IsClosed {
		return periods.ErrPeriodClosed
	}
	period.IsClosed = true
	period.ClosedAt = closedAt
	period.ClosedBy = closedBy
	period.TotalRevenue = totals.Revenue
	period.TotalExpenses = totals.Expenses
	period.NetIncome = totals.Revenue.Sub(totals.Expenses)
	period.UpdatedAt = closedAt
	return nil
}

// ApplyPostedTotals adds a posted document's deltas into the period's running
// totals. Closed periods reject the write.
func (r *PeriodRepository) ApplyPostedTotals(ctx context.Context, periodID string, revenue, expenses decimal.Decimal) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	period := r.data[periodID]
	if period == nil {
		return periods.ErrPeriodNotFound
	}
	if period.IsClosed {
		return periods.ErrPeriodClosed
	}
	period.TotalRevenue = period.TotalRevenue.Add(revenue)
	period.TotalExpenses = period.TotalExpenses.Add(expenses)
	period.NetIncome = period.TotalRevenue.Sub(period.TotalExpenses)
	period.UpdatedAt = time.Now().UTC()
	return nil
}
